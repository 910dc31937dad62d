package postgres

import (
	"context"
	"errors"
	"time"

	"Centavo/internal/domain/goal"
	"Centavo/internal/domain/profile"
	"Centavo/internal/domain/transaction"
	appErrors "Centavo/internal/errors"
	"Centavo/internal/pkg"
	"Centavo/internal/store"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Client implementa store.Client sobre Postgres: CRUD via gorm,
// procedures via SQL e notificações via Listener.
type Client struct {
	DB       *gorm.DB
	Listener *Listener
}

func NewClient(db *gorm.DB, listener *Listener) *Client {
	return &Client{DB: db, Listener: listener}
}

type goalRow struct {
	Id            string `gorm:"primaryKey"`
	UserId        string
	Title         string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	Emoji         string
	Deadline      *time.Time
	Color         string
	CreatedAt     time.Time
}

func toDomainGoal(row *goalRow) (*goal.Goal, error) {
	id, err := pkg.ParseULID(row.Id)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	uid, err := pkg.ParseULID(row.UserId)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	return &goal.Goal{
		Id:            id,
		UserId:        uid,
		Title:         row.Title,
		TargetAmount:  row.TargetAmount,
		CurrentAmount: row.CurrentAmount,
		Emoji:         row.Emoji,
		Deadline:      row.Deadline,
		Color:         row.Color,
		CreatedAt:     row.CreatedAt,
	}, nil
}

func toGoalRow(g *goal.Goal) *goalRow {
	return &goalRow{
		Id:            g.Id.String(),
		UserId:        g.UserId.String(),
		Title:         g.Title,
		TargetAmount:  g.TargetAmount,
		CurrentAmount: g.CurrentAmount,
		Emoji:         g.Emoji,
		Deadline:      g.Deadline,
		Color:         g.Color,
		CreatedAt:     g.CreatedAt,
	}
}

type transactionRow struct {
	Id        string `gorm:"primaryKey"`
	UserId    string
	Title     string
	Amount    decimal.Decimal
	Category  string
	Icon      string
	Merchant  string
	GoalId    *string
	CreatedAt time.Time
}

func toDomainTransaction(row *transactionRow) (*transaction.Transaction, error) {
	id, err := pkg.ParseULID(row.Id)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	uid, err := pkg.ParseULID(row.UserId)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	goalID, err := pkg.ParseULIDPtr(row.GoalId)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	return &transaction.Transaction{
		Id:        id,
		UserId:    uid,
		Title:     row.Title,
		Amount:    row.Amount,
		Category:  transaction.Category(row.Category),
		Icon:      row.Icon,
		Merchant:  row.Merchant,
		GoalId:    goalID,
		CreatedAt: row.CreatedAt,
	}, nil
}

func toTransactionRow(tx *transaction.Transaction) *transactionRow {
	var goalID *string
	if tx.GoalId != nil {
		s := tx.GoalId.String()
		goalID = &s
	}
	return &transactionRow{
		Id:        tx.Id.String(),
		UserId:    tx.UserId.String(),
		Title:     tx.Title,
		Amount:    tx.Amount,
		Category:  string(tx.Category),
		Icon:      tx.Icon,
		Merchant:  tx.Merchant,
		GoalId:    goalID,
		CreatedAt: tx.CreatedAt,
	}
}

type profileRow struct {
	Id        string `gorm:"primaryKey"`
	FullName  string
	AvatarURL string
	CreatedAt time.Time
}

func (c *Client) FetchGoals(ctx context.Context, userID ulid.ULID) ([]*goal.Goal, error) {
	var rows []goalRow
	if err := c.DB.WithContext(ctx).Table("goals").
		Where("user_id = ?", userID.String()).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, appErrors.NewRemoteStoreError(err)
	}
	out := make([]*goal.Goal, 0, len(rows))
	for i := range rows {
		g, err := toDomainGoal(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func (c *Client) FetchTransactions(ctx context.Context, userID ulid.ULID) ([]*transaction.Transaction, error) {
	var rows []transactionRow
	if err := c.DB.WithContext(ctx).Table("transactions").
		Where("user_id = ?", userID.String()).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, appErrors.NewRemoteStoreError(err)
	}
	out := make([]*transaction.Transaction, 0, len(rows))
	for i := range rows {
		tx, err := toDomainTransaction(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

func (c *Client) FetchProfile(ctx context.Context, userID ulid.ULID) (*profile.Profile, error) {
	var row profileRow
	if err := c.DB.WithContext(ctx).Table("profiles").
		Where("id = ?", userID.String()).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.ErrProfileNotFound.WithError(err)
		}
		return nil, appErrors.NewRemoteStoreError(err)
	}
	id, err := pkg.ParseULID(row.Id)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	return &profile.Profile{
		Id:        id,
		FullName:  row.FullName,
		AvatarURL: row.AvatarURL,
		CreatedAt: row.CreatedAt,
	}, nil
}

func (c *Client) InsertGoal(ctx context.Context, g *goal.Goal) error {
	row := toGoalRow(g)
	if err := c.DB.WithContext(ctx).Table("goals").Create(row).Error; err != nil {
		return appErrors.NewRemoteStoreError(err)
	}
	return nil
}

func (c *Client) UpdateGoal(ctx context.Context, id, userID ulid.ULID, fields map[string]interface{}) error {
	result := c.DB.WithContext(ctx).Table("goals").
		Where("id = ? AND user_id = ?", id.String(), userID.String()).
		Updates(fields)
	if result.Error != nil {
		return appErrors.NewRemoteStoreError(result.Error)
	}
	if result.RowsAffected == 0 {
		return appErrors.ErrGoalNotFound
	}
	return nil
}

func (c *Client) InsertTransaction(ctx context.Context, tx *transaction.Transaction) error {
	row := toTransactionRow(tx)
	if err := c.DB.WithContext(ctx).Table("transactions").Create(row).Error; err != nil {
		return appErrors.NewRemoteStoreError(err)
	}
	return nil
}

func (c *Client) Invoke(ctx context.Context, procedure string, args map[string]interface{}) error {
	switch procedure {
	case store.ProcedureAddToGoal:
		goalID, ok := args[store.ArgGoalID].(string)
		if !ok {
			return appErrors.NewValidationError(store.ArgGoalID, "é obrigatório")
		}
		amount, ok := args[store.ArgAmount].(decimal.Decimal)
		if !ok {
			return appErrors.NewValidationError(store.ArgAmount, "é obrigatório")
		}
		if err := c.DB.WithContext(ctx).
			Exec("SELECT add_to_goal(?, ?)", goalID, amount).Error; err != nil {
			return appErrors.NewRemoteStoreError(err)
		}
		return nil
	default:
		return appErrors.ErrUnknownProcedure.WithDetails(map[string]interface{}{
			"procedure": procedure,
		})
	}
}

func (c *Client) Subscribe(table store.Table, userID ulid.ULID, onChange func(store.Change)) (store.Subscription, error) {
	return c.Listener.Subscribe(table, userID, onChange)
}
