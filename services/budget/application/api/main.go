package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/ghuser/budgetly/pkg/app"
	"github.com/ghuser/budgetly/services/budget/application/handlers"
	appsvcs "github.com/ghuser/budgetly/services/budget/application/services"
)

// BudgetRoutes registers category, budget, transaction and goal endpoints on
// the provided chi router. The caller applies authentication.
func BudgetRoutes(r chi.Router, a *app.Application) {
	Routes(r, appsvcs.New(a))
}

// Routes mounts the handlers for svcs.
func Routes(r chi.Router, svcs *appsvcs.Services) {
	categories := handlers.NewCategoryHandler(svcs)
	budgets := handlers.NewBudgetHandler(svcs)
	transactions := handlers.NewTransactionHandler(svcs)
	goals := handlers.NewGoalHandler(svcs)

	r.Route("/categories", func(r chi.Router) {
		r.Post("/", categories.Create)
		r.Get("/", categories.List)
	})
	r.Route("/budgets/{year}/{month}", func(r chi.Router) {
		r.Get("/", budgets.Get)
		r.Put("/limits", budgets.SetLimit)
	})
	r.Route("/transactions", func(r chi.Router) {
		r.Post("/", transactions.Create)
		r.Get("/", transactions.List)
	})
	r.Route("/goals", func(r chi.Router) {
		r.Post("/", goals.Create)
		r.Get("/", goals.List)
		r.Post("/{id}/deposit", goals.Deposit)
	})
}
