package services

import (
	"github.com/ghuser/budgetly/pkg/app"
	"github.com/ghuser/budgetly/services/notification/infrastructure/persistence/postgres"
)

// Services is the application-layer service container for this bounded context.
type Services struct {
	Settings *SettingsService
}

// New wires the notification application services with infrastructure from the Application container.
func New(a *app.Application) *Services {
	return &Services{
		Settings: NewSettingsService(postgres.NewSettingsRepository(a.Db), a.Logger),
	}
}
