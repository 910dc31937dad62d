package contracts

import (
	"github.com/shopspring/decimal"
)

type TransactionCreateRequest struct {
	Title    string          `json:"title" binding:"required,max=100"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category" binding:"required,oneof=Income Expense Savings"`
	Icon     string          `json:"icon" binding:"max=16"`
	Merchant string          `json:"merchant" binding:"max=100"`
	GoalId   *string         `json:"goal_id"`
}
