package identity

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Identity é o usuário autenticado no momento; todo o estado do engine é
// escopado a ela.
type Identity struct {
	Id        ulid.ULID `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type EventKind string

const (
	SignedIn  EventKind = "SIGNED_IN"
	SignedOut EventKind = "SIGNED_OUT"
)

type Event struct {
	Kind     EventKind
	Identity *Identity
}

// Provider expõe a identidade ativa e o fluxo de transições de sessão.
type Provider interface {
	Current() (*Identity, bool)
	Watch() <-chan Event
}
