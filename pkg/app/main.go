package app

import (
	"github.com/ghuser/budgetly/pkg/cache"
	"github.com/ghuser/budgetly/pkg/config"
	"github.com/ghuser/budgetly/pkg/database"
	"github.com/ghuser/budgetly/pkg/events"
	"github.com/ghuser/budgetly/pkg/logger"
)

// Application holds shared infrastructure dependencies for all services.
// Pass to each service's Routes call during server initialization.
//
// Logging: app.Logger is backed by a trace-aware handler; use slog's context methods
// and trace_id, span_id, request_id and correlation_id are injected automatically:
//
//	app.Logger.InfoContext(ctx, "goal deposit", "goal_id", id)
//	app.Logger.ErrorContext(ctx, "failed to save", "error", err)
//
// Use app.Logger.Info/Error (no context) only for startup and shutdown messages.
type Application struct {
	Config    *config.Config
	Db        *database.Database
	Logger    logger.Logger
	Broker    *events.Broker
	Publisher *events.Publisher  // nil in the notifier, which never publishes
	Redis     *cache.RedisClient // nil in the API, which keeps no delivery log
}
