package services

import (
	"context"

	"github.com/ghuser/budgetly/pkg/app"
	"github.com/ghuser/budgetly/pkg/events"
	"github.com/ghuser/budgetly/services/budget/infrastructure/persistence/postgres"
)

// EventPublisher queues a domain event. It reports whether the broker took it;
// a false return is already logged and never fails the caller's request.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event events.Event) bool
}

// Services is the application-layer service container for this bounded context.
// It wires domain services with their infrastructure implementations.
type Services struct {
	Category    *CategoryService
	Budget      *BudgetService
	Transaction *TransactionService
	Goal        *GoalService
}

// New wires all budget application services with infrastructure from the Application container.
func New(a *app.Application) *Services {
	categories := postgres.NewCategoryRepository(a.Db)
	budgets := postgres.NewBudgetRepository(a.Db)
	transactions := postgres.NewTransactionRepository(a.Db)
	goals := postgres.NewGoalRepository(a.Db)

	var publisher EventPublisher
	if a.Publisher != nil {
		publisher = a.Publisher
	}

	return &Services{
		Category:    NewCategoryService(categories, a.Logger),
		Budget:      NewBudgetService(budgets, categories, a.Logger),
		Transaction: NewTransactionService(transactions, budgets, categories, publisher, a.Logger),
		Goal:        NewGoalService(goals, publisher, a.Logger),
	}
}
