package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ghuser/budgetly/pkg/database"
	"github.com/ghuser/budgetly/pkg/telemetry"
	"github.com/ghuser/budgetly/services/budget/domain/models"
	"github.com/ghuser/budgetly/services/budget/domain/repositories"
)

// TransactionRepository implements repositories.TransactionRepository against PostgreSQL.
type TransactionRepository struct {
	db *database.Database
}

// NewTransactionRepository returns a TransactionRepository backed by the given pool.
func NewTransactionRepository(db *database.Database) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Save inserts a transaction.
func (r *TransactionRepository) Save(ctx context.Context, t *models.Transaction) error {
	return telemetry.WithLatency(ctx, "transactions.save", func(ctx context.Context) error {
		_, err := r.db.Pool().Exec(ctx, `
			INSERT INTO transactions (id, user_id, category_id, amount, type, description, date, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			t.ID, t.UserID, t.CategoryID, t.Amount, string(t.Type), t.Description, t.Date, t.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		return nil
	})
}

// FindByUserID returns a page of the user's transactions, newest first.
func (r *TransactionRepository) FindByUserID(ctx context.Context, userID string, opts repositories.QueryOpts) ([]*models.Transaction, error) {
	return telemetry.WithLatencyValue(ctx, "transactions.list", func(ctx context.Context) ([]*models.Transaction, error) {
		rows, err := r.db.Pool().Query(ctx, `
			SELECT id, user_id, category_id, amount, type, description, date, created_at
			FROM transactions
			WHERE user_id = $1
			ORDER BY date DESC, created_at DESC
			LIMIT $2 OFFSET $3`,
			userID, opts.Limit, opts.Offset,
		)
		if err != nil {
			return nil, fmt.Errorf("query transactions: %w", err)
		}
		defer rows.Close()

		var out []*models.Transaction
		for rows.Next() {
			var (
				t   models.Transaction
				typ string
			)
			if err := rows.Scan(&t.ID, &t.UserID, &t.CategoryID, &t.Amount, &typ, &t.Description, &t.Date, &t.CreatedAt); err != nil {
				return nil, fmt.Errorf("scan transaction: %w", err)
			}
			t.Type = models.TransactionType(typ)
			out = append(out, &t)
		}
		return out, rows.Err()
	})
}

// SumExpenses totals the user's EXPENSE amounts on categoryID within p.
func (r *TransactionRepository) SumExpenses(ctx context.Context, userID string, categoryID uuid.UUID, p models.Period) (float64, error) {
	return telemetry.WithLatencyValue(ctx, "transactions.sum_expenses", func(ctx context.Context) (float64, error) {
		start, end := p.Bounds()
		var sum float64
		err := r.db.Pool().QueryRow(ctx, `
			SELECT COALESCE(SUM(amount), 0)::float8
			FROM transactions
			WHERE user_id = $1 AND category_id = $2 AND type = 'EXPENSE'
			  AND date >= $3 AND date < $4`,
			userID, categoryID, start, end,
		).Scan(&sum)
		if err != nil {
			return 0, fmt.Errorf("sum expenses: %w", err)
		}
		return sum, nil
	})
}
