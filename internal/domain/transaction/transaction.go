package transaction

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryIncome  Category = "Income"
	CategoryExpense Category = "Expense"
	CategorySavings Category = "Savings"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryIncome, CategoryExpense, CategorySavings:
		return true
	}
	return false
}

// Transaction é um registro append-only: nunca é editado nem removido
// por este núcleo. GoalId só é preenchido em transações Savings ligadas
// a uma meta.
type Transaction struct {
	Id        ulid.ULID       `gorm:"type:varchar(26);primaryKey" json:"id"`
	UserId    ulid.ULID       `gorm:"type:varchar(26);index:idx_transactions_user_id;not null" json:"userId"`
	Title     string          `gorm:"type:varchar(100);not null" json:"title"`
	Amount    decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Category  Category        `gorm:"type:varchar(10);not null;index:idx_transactions_category" json:"category"`
	Icon      string          `gorm:"type:varchar(16)" json:"icon"`
	Merchant  string          `gorm:"type:varchar(100)" json:"merchant,omitempty"`
	GoalId    *ulid.ULID      `gorm:"type:varchar(26);index:idx_transactions_goal_id" json:"goalId,omitempty"`
	CreatedAt time.Time       `gorm:"autoCreateTime;not null;index:idx_transactions_created_at" json:"createdAt"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// TotalBalance soma Income e subtrai Expense sobre a lista completa.
// Savings são transferências internas e não afetam o saldo.
func TotalBalance(txs []*Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		switch tx.Category {
		case CategoryIncome:
			total = total.Add(tx.Amount)
		case CategoryExpense:
			total = total.Sub(tx.Amount)
		}
	}
	return total
}
