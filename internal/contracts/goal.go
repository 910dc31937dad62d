package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

type GoalCreateRequest struct {
	Title        string          `json:"title" binding:"required,max=100"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	Emoji        string          `json:"emoji" binding:"max=16"`
	Deadline     *time.Time      `json:"deadline"`
	Color        string          `json:"color" binding:"max=20"`
}

// GoalUpdateRequest é parcial: campos nil ficam inalterados.
type GoalUpdateRequest struct {
	Title        *string          `json:"title"`
	TargetAmount *decimal.Decimal `json:"target_amount"`
	Emoji        *string          `json:"emoji"`
	Deadline     *time.Time       `json:"deadline"`
	Color        *string          `json:"color"`
}

type AddToGoalRequest struct {
	Amount decimal.Decimal `json:"amount"`
}
