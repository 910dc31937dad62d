package store

import (
	"context"

	"Centavo/internal/domain/goal"
	"Centavo/internal/domain/profile"
	"Centavo/internal/domain/transaction"

	"github.com/oklog/ulid/v2"
)

type Table string

const (
	TableGoals        Table = "goals"
	TableTransactions Table = "transactions"
	TableProfiles     Table = "profiles"
)

type Operation string

const (
	OpInsert Operation = "INSERT"
	OpUpdate Operation = "UPDATE"
	OpDelete Operation = "DELETE"
)

// ProcedureAddToGoal incrementa current_amount de uma meta do lado do
// servidor, de forma atômica. Argumentos: ArgGoalID, ArgAmount.
const ProcedureAddToGoal = "add_to_goal"

const (
	ArgGoalID = "goal_id"
	ArgAmount = "amount"
)

// Change é uma notificação de mudança em uma tabela observada. Não
// carrega payload suficiente para aplicar deltas; quem recebe deve
// rebuscar a tabela afetada.
type Change struct {
	Table  Table
	Op     Operation
	UserID ulid.ULID
}

type Subscription interface {
	Unsubscribe()
}

// Client é o contrato consumido do armazenamento remoto. Fetch* devolvem
// registros do dono informado, ordenados por created_at decrescente.
type Client interface {
	FetchGoals(ctx context.Context, userID ulid.ULID) ([]*goal.Goal, error)
	FetchTransactions(ctx context.Context, userID ulid.ULID) ([]*transaction.Transaction, error)
	FetchProfile(ctx context.Context, userID ulid.ULID) (*profile.Profile, error)

	InsertGoal(ctx context.Context, g *goal.Goal) error
	UpdateGoal(ctx context.Context, id, userID ulid.ULID, fields map[string]interface{}) error
	InsertTransaction(ctx context.Context, tx *transaction.Transaction) error

	Invoke(ctx context.Context, procedure string, args map[string]interface{}) error

	Subscribe(table Table, userID ulid.ULID, onChange func(Change)) (Subscription, error)
}
