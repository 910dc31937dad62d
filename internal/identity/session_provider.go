package identity

import (
	"sync"

	"Centavo/config"
	appErrors "Centavo/internal/errors"
	"Centavo/internal/logger"
	"Centavo/internal/pkg"

	"github.com/golang-jwt/jwt/v5"
)

const watchBuffer = 64

type accessTokenClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// SessionProvider valida tokens de acesso emitidos pelo serviço de
// autenticação hospedado (HS256) e mantém a sessão ativa. Um novo
// SignIn substitui a sessão anterior, emitindo SIGNED_OUT antes.
type SessionProvider struct {
	secret []byte
	issuer string

	mu       sync.Mutex
	current  *Identity
	watchers []chan Event
}

func NewSessionProvider(cfg *config.Config) *SessionProvider {
	return &SessionProvider{
		secret: []byte(cfg.Auth.JWTSecret),
		issuer: cfg.Auth.Issuer,
	}
}

func (p *SessionProvider) Current() (*Identity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil, false
	}
	ident := *p.current
	return &ident, true
}

func (p *SessionProvider) Watch() <-chan Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan Event, watchBuffer)
	p.watchers = append(p.watchers, ch)
	return ch
}

func (p *SessionProvider) SignIn(accessToken string) (*Identity, error) {
	ident, err := p.parseToken(accessToken)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	previous := p.current
	p.current = ident
	p.mu.Unlock()

	if previous != nil {
		p.emit(Event{Kind: SignedOut})
	}
	p.emit(Event{Kind: SignedIn, Identity: ident})

	logger.Info().Str("user_id", ident.Id.String()).Msg("Sessão iniciada")
	copied := *ident
	return &copied, nil
}

func (p *SessionProvider) SignOut() {
	p.mu.Lock()
	previous := p.current
	p.current = nil
	p.mu.Unlock()

	if previous == nil {
		return
	}
	p.emit(Event{Kind: SignedOut})
	logger.Info().Str("user_id", previous.Id.String()).Msg("Sessão encerrada")
}

func (p *SessionProvider) parseToken(accessToken string) (*Identity, error) {
	var claims accessTokenClaims

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}

	token, err := jwt.ParseWithClaims(accessToken, &claims, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, appErrors.ErrInvalidAccessToken.WithError(err)
	}

	userID, err := pkg.ParseULID(claims.Subject)
	if err != nil {
		return nil, appErrors.ErrInvalidAccessToken.WithError(err)
	}

	ident := &Identity{
		Id:       userID,
		FullName: claims.FullName,
		Email:    claims.Email,
	}
	if claims.IssuedAt != nil {
		ident.CreatedAt = claims.IssuedAt.Time
	}
	return ident, nil
}

func (p *SessionProvider) emit(event Event) {
	p.mu.Lock()
	watchers := make([]chan Event, len(p.watchers))
	copy(watchers, p.watchers)
	p.mu.Unlock()

	for _, ch := range watchers {
		select {
		case ch <- event:
		default:
			logger.Warn().Str("kind", string(event.Kind)).Msg("Evento de sessão descartado: watcher saturado")
		}
	}
}
