package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ghuser/budgetly/pkg/database"
	"github.com/ghuser/budgetly/pkg/telemetry"
	"github.com/ghuser/budgetly/services/budget/domain/models"
)

// BudgetRepository implements repositories.BudgetRepository against PostgreSQL.
type BudgetRepository struct {
	db *database.Database
}

// NewBudgetRepository returns a BudgetRepository backed by the given pool.
func NewBudgetRepository(db *database.Database) *BudgetRepository {
	return &BudgetRepository{db: db}
}

// GetOrCreate returns the user's budget for p, inserting it first if needed.
// Concurrent callers converge on the same row through the (user_id, month, year) constraint.
func (r *BudgetRepository) GetOrCreate(ctx context.Context, userID string, p models.Period) (*models.Budget, error) {
	return telemetry.WithLatencyValue(ctx, "budgets.get_or_create", func(ctx context.Context) (*models.Budget, error) {
		fresh := models.NewBudget(userID, p)
		var b models.Budget
		err := r.db.Pool().QueryRow(ctx, `
			INSERT INTO budgets (id, user_id, month, year, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id, month, year) DO UPDATE SET user_id = EXCLUDED.user_id
			RETURNING id, user_id, month, year, created_at`,
			fresh.ID, userID, p.Month, p.Year, fresh.CreatedAt,
		).Scan(&b.ID, &b.UserID, &b.Period.Month, &b.Period.Year, &b.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("upsert budget: %w", err)
		}
		limits, err := r.limits(ctx, r.db.Pool(), b.ID)
		if err != nil {
			return nil, err
		}
		b.Limits = limits
		return &b, nil
	})
}

// FindByPeriod returns the user's budget for p with its limits, or nil if none exists.
func (r *BudgetRepository) FindByPeriod(ctx context.Context, userID string, p models.Period) (*models.Budget, error) {
	return telemetry.WithLatencyValue(ctx, "budgets.find", func(ctx context.Context) (*models.Budget, error) {
		var b models.Budget
		err := r.db.Pool().QueryRow(ctx,
			`SELECT id, user_id, month, year, created_at FROM budgets WHERE user_id = $1 AND month = $2 AND year = $3`,
			userID, p.Month, p.Year,
		).Scan(&b.ID, &b.UserID, &b.Period.Month, &b.Period.Year, &b.CreatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil
			}
			return nil, fmt.Errorf("query budget: %w", err)
		}
		limits, err := r.limits(ctx, r.db.Pool(), b.ID)
		if err != nil {
			return nil, err
		}
		b.Limits = limits
		return &b, nil
	})
}

// SetLimit creates or replaces the limit on categoryID within budgetID.
func (r *BudgetRepository) SetLimit(ctx context.Context, budgetID, categoryID uuid.UUID, amount float64) (*models.BudgetLimit, error) {
	return telemetry.WithLatencyValue(ctx, "budgets.set_limit", func(ctx context.Context) (*models.BudgetLimit, error) {
		var l models.BudgetLimit
		err := r.db.Pool().QueryRow(ctx, `
			INSERT INTO budget_limits (id, budget_id, category_id, limit_amount)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (budget_id, category_id) DO UPDATE SET limit_amount = EXCLUDED.limit_amount
			RETURNING id, budget_id, category_id, limit_amount`,
			uuid.New(), budgetID, categoryID, amount,
		).Scan(&l.ID, &l.BudgetID, &l.CategoryID, &l.LimitAmount)
		if err != nil {
			return nil, fmt.Errorf("upsert budget limit: %w", err)
		}
		return &l, nil
	})
}

func (r *BudgetRepository) limits(ctx context.Context, q database.Querier, budgetID uuid.UUID) ([]models.BudgetLimit, error) {
	rows, err := q.Query(ctx,
		`SELECT id, budget_id, category_id, limit_amount FROM budget_limits WHERE budget_id = $1`,
		budgetID,
	)
	if err != nil {
		return nil, fmt.Errorf("query budget limits: %w", err)
	}
	defer rows.Close()

	var out []models.BudgetLimit
	for rows.Next() {
		var l models.BudgetLimit
		if err := rows.Scan(&l.ID, &l.BudgetID, &l.CategoryID, &l.LimitAmount); err != nil {
			return nil, fmt.Errorf("scan budget limit: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
