package goal

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

type Goal struct {
	Id            ulid.ULID       `gorm:"type:varchar(26);primaryKey" json:"id"`
	UserId        ulid.ULID       `gorm:"type:varchar(26);index:idx_goals_user_id;not null" json:"userId"`
	Title         string          `gorm:"type:varchar(100);not null" json:"title"`
	TargetAmount  decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"targetAmount"`
	CurrentAmount decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"currentAmount"`
	Emoji         string          `gorm:"type:varchar(16)" json:"emoji"`
	Deadline      *time.Time      `gorm:"type:date" json:"deadline,omitempty"`
	Color         string          `gorm:"type:varchar(20)" json:"color"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;not null;index:idx_goals_created_at" json:"createdAt"`
}

func (Goal) TableName() string {
	return "goals"
}

// ProgressPercent devolve o progresso em percentual inteiro, limitado a
// 100 para exibição. CurrentAmount em si não é limitado pelo modelo.
func (g *Goal) ProgressPercent() int {
	if g.TargetAmount.IsZero() {
		return 0
	}
	pct := g.CurrentAmount.
		Div(g.TargetAmount).
		Mul(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return int(pct)
}

func (g *Goal) Completed() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

func (g *Goal) Remaining() decimal.Decimal {
	remaining := g.TargetAmount.Sub(g.CurrentAmount)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}
