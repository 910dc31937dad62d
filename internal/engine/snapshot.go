package engine

import (
	"math"

	"Centavo/internal/domain/goal"
	"Centavo/internal/domain/profile"
	"Centavo/internal/domain/transaction"

	"github.com/shopspring/decimal"
)

// Snapshot é a cópia em memória completa de metas e transações da
// identidade ativa no último fetch bem-sucedido, mais os agregados
// derivados. Os agregados nunca são atualizados incrementalmente: cada
// mudança de snapshot os recalcula a partir das listas completas.
type Snapshot struct {
	Goals        []*goal.Goal               `json:"goals"`
	Transactions []*transaction.Transaction `json:"transactions"`
	Profile      *profile.Profile           `json:"profile,omitempty"`
	Ready        bool                       `json:"ready"`

	TotalBalance    decimal.Decimal `json:"totalBalance"`
	CompletedGoals  int             `json:"completedGoals"`
	AverageProgress int             `json:"averageProgress"`
}

func buildSnapshot(goals []*goal.Goal, txs []*transaction.Transaction, prof *profile.Profile, ready bool) Snapshot {
	return Snapshot{
		Goals:           goals,
		Transactions:    txs,
		Profile:         prof,
		Ready:           ready,
		TotalBalance:    transaction.TotalBalance(txs),
		CompletedGoals:  completedGoals(goals),
		AverageProgress: averageProgress(goals),
	}
}

func completedGoals(goals []*goal.Goal) int {
	count := 0
	for _, g := range goals {
		if g.Completed() {
			count++
		}
	}
	return count
}

func averageProgress(goals []*goal.Goal) int {
	if len(goals) == 0 {
		return 0
	}
	sum := 0
	for _, g := range goals {
		sum += g.ProgressPercent()
	}
	return int(math.Round(float64(sum) / float64(len(goals))))
}

// clone devolve uma cópia profunda para consumidores: ninguém fora do
// engine pode mutar o snapshot autoritativo.
func (s Snapshot) clone() Snapshot {
	out := s
	out.Goals = make([]*goal.Goal, len(s.Goals))
	for i, g := range s.Goals {
		copied := *g
		out.Goals[i] = &copied
	}
	out.Transactions = make([]*transaction.Transaction, len(s.Transactions))
	for i, tx := range s.Transactions {
		copied := *tx
		out.Transactions[i] = &copied
	}
	if s.Profile != nil {
		copied := *s.Profile
		out.Profile = &copied
	}
	return out
}

// FindGoal procura uma meta pelo id no snapshot.
func (s Snapshot) FindGoal(id string) (*goal.Goal, bool) {
	for _, g := range s.Goals {
		if g.Id.String() == id {
			return g, true
		}
	}
	return nil, false
}
