package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/ghuser/budgetly/pkg/app"
	"github.com/ghuser/budgetly/services/notification/application/handlers"
	appsvcs "github.com/ghuser/budgetly/services/notification/application/services"
)

// NotificationRoutes registers the notification settings endpoints on the
// provided chi router. The caller applies authentication.
func NotificationRoutes(r chi.Router, a *app.Application) {
	Routes(r, appsvcs.New(a))
}

// Routes mounts the handlers for svcs.
func Routes(r chi.Router, svcs *appsvcs.Services) {
	settings := handlers.NewSettingsHandler(svcs)

	r.Route("/settings", func(r chi.Router) {
		r.Get("/", settings.Get)
		r.Put("/", settings.Update)
		r.Post("/telegram", settings.LinkTelegram)
		r.Delete("/telegram", settings.UnlinkTelegram)
	})
}
