package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ghuser/budgetly/pkg/database"
	"github.com/ghuser/budgetly/pkg/telemetry"
	budgetdomain "github.com/ghuser/budgetly/services/budget/domain"
	"github.com/ghuser/budgetly/services/budget/domain/models"
)

const goalColumns = `id, user_id, name, target_amount, current_amount, deadline, created_at`

// GoalRepository implements repositories.GoalRepository against PostgreSQL.
type GoalRepository struct {
	db *database.Database
}

// NewGoalRepository returns a GoalRepository backed by the given pool.
func NewGoalRepository(db *database.Database) *GoalRepository {
	return &GoalRepository{db: db}
}

// Save inserts a goal.
func (r *GoalRepository) Save(ctx context.Context, g *models.Goal) error {
	return telemetry.WithLatency(ctx, "goals.save", func(ctx context.Context) error {
		_, err := r.db.Pool().Exec(ctx,
			`INSERT INTO goals (`+goalColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			g.ID, g.UserID, g.Name, g.TargetAmount, g.CurrentAmount, g.Deadline, g.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert goal: %w", err)
		}
		return nil
	})
}

// FindByUserID lists the user's goals, oldest first.
func (r *GoalRepository) FindByUserID(ctx context.Context, userID string) ([]*models.Goal, error) {
	return telemetry.WithLatencyValue(ctx, "goals.list", func(ctx context.Context) ([]*models.Goal, error) {
		rows, err := r.db.Pool().Query(ctx,
			`SELECT `+goalColumns+` FROM goals WHERE user_id = $1 ORDER BY created_at`,
			userID,
		)
		if err != nil {
			return nil, fmt.Errorf("query goals: %w", err)
		}
		defer rows.Close()

		var out []*models.Goal
		for rows.Next() {
			g, err := scanGoal(rows)
			if err != nil {
				return nil, fmt.Errorf("scan goal: %w", err)
			}
			out = append(out, g)
		}
		return out, rows.Err()
	})
}

// AddDeposit increments current_amount in a single statement so concurrent
// deposits cannot lose updates. Returns ErrGoalNotFound when the goal does
// not exist or belongs to someone else.
func (r *GoalRepository) AddDeposit(ctx context.Context, userID string, id uuid.UUID, amount float64) (*models.Goal, error) {
	return telemetry.WithLatencyValue(ctx, "goals.deposit", func(ctx context.Context) (*models.Goal, error) {
		row := r.db.Pool().QueryRow(ctx, `
			UPDATE goals SET current_amount = current_amount + $3
			WHERE id = $1 AND user_id = $2
			RETURNING `+goalColumns,
			id, userID, amount,
		)
		g, err := scanGoal(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, budgetdomain.ErrGoalNotFound
			}
			return nil, fmt.Errorf("deposit to goal: %w", err)
		}
		return g, nil
	})
}

func scanGoal(row pgx.Row) (*models.Goal, error) {
	var g models.Goal
	if err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &g.Deadline, &g.CreatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}
