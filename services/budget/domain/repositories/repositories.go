package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/ghuser/budgetly/services/budget/domain/models"
)

// QueryOpts contains pagination parameters for list queries.
type QueryOpts struct {
	Limit  int // Maximum number of records to return
	Offset int // Number of records to skip
}

// CategoryRepository is the persistence interface for categories.
// The domain layer owns these interfaces; infrastructure implements them.
type CategoryRepository interface {
	// Save inserts a category. Returns ErrCategoryAlreadyExists when the
	// user already has one with the same name.
	Save(ctx context.Context, c *models.Category) error

	// GetByID returns the user's category or ErrCategoryNotFound.
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.Category, error)

	FindByUserID(ctx context.Context, userID string) ([]*models.Category, error)
}

// BudgetRepository is the persistence interface for monthly budgets and their limits.
type BudgetRepository interface {
	// GetOrCreate returns the user's budget for p, creating an empty one if needed.
	GetOrCreate(ctx context.Context, userID string, p models.Period) (*models.Budget, error)

	// FindByPeriod returns the budget with its limits, or nil and no error.
	FindByPeriod(ctx context.Context, userID string, p models.Period) (*models.Budget, error)

	// SetLimit creates or replaces the limit on categoryID within budgetID.
	SetLimit(ctx context.Context, budgetID, categoryID uuid.UUID, amount float64) (*models.BudgetLimit, error)
}

// TransactionRepository is the persistence interface for transactions.
type TransactionRepository interface {
	Save(ctx context.Context, t *models.Transaction) error

	// FindByUserID returns the user's transactions, newest first.
	FindByUserID(ctx context.Context, userID string, opts QueryOpts) ([]*models.Transaction, error)

	// SumExpenses totals the user's EXPENSE amounts on categoryID within p.
	SumExpenses(ctx context.Context, userID string, categoryID uuid.UUID, p models.Period) (float64, error)
}

// GoalRepository is the persistence interface for savings goals.
type GoalRepository interface {
	Save(ctx context.Context, g *models.Goal) error

	FindByUserID(ctx context.Context, userID string) ([]*models.Goal, error)

	// AddDeposit atomically adds amount to the user's goal and returns the
	// updated goal, or ErrGoalNotFound.
	AddDeposit(ctx context.Context, userID string, id uuid.UUID, amount float64) (*models.Goal, error)
}
