package services

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/ghuser/budgetly/pkg/logger"
	budgetdomain "github.com/ghuser/budgetly/services/budget/domain"
	"github.com/ghuser/budgetly/services/budget/domain/models"
	"github.com/ghuser/budgetly/services/budget/domain/repositories"
)

// BudgetService manages monthly budgets and their per-category limits.
type BudgetService struct {
	budgets    repositories.BudgetRepository
	categories repositories.CategoryRepository
	log        logger.Logger
}

// NewBudgetService returns a BudgetService wired with the given repositories.
func NewBudgetService(budgets repositories.BudgetRepository, categories repositories.CategoryRepository, log logger.Logger) *BudgetService {
	return &BudgetService{budgets: budgets, categories: categories, log: log}
}

// SetLimit caps spending on categoryID for the period, creating the month's
// budget on first use. The category must belong to the user.
func (s *BudgetService) SetLimit(ctx context.Context, userID string, p models.Period, categoryID uuid.UUID, amount float64) (*models.BudgetLimit, error) {
	if !validAmount(amount) {
		return nil, budgetdomain.ErrInvalidAmount
	}
	if _, err := s.categories.GetByID(ctx, userID, categoryID); err != nil {
		return nil, fmt.Errorf("set limit: %w", err)
	}

	budget, err := s.budgets.GetOrCreate(ctx, userID, p)
	if err != nil {
		return nil, fmt.Errorf("get or create budget: %w", err)
	}

	limit, err := s.budgets.SetLimit(ctx, budget.ID, categoryID, amount)
	if err != nil {
		return nil, fmt.Errorf("set limit: %w", err)
	}

	s.log.InfoContext(ctx, "budget limit set",
		"budget_id", budget.ID,
		"category_id", categoryID,
		"limit_amount", amount,
	)
	return limit, nil
}

// Get returns the user's budget for the period with its limits, or ErrBudgetNotFound.
func (s *BudgetService) Get(ctx context.Context, userID string, p models.Period) (*models.Budget, error) {
	budget, err := s.budgets.FindByPeriod(ctx, userID, p)
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}
	if budget == nil {
		return nil, budgetdomain.ErrBudgetNotFound
	}
	return budget, nil
}

func validAmount(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
