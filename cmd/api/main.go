package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ghuser/budgetly/pkg/app"
	"github.com/ghuser/budgetly/pkg/auth"
	"github.com/ghuser/budgetly/pkg/config"
	"github.com/ghuser/budgetly/pkg/database"
	"github.com/ghuser/budgetly/pkg/events"
	"github.com/ghuser/budgetly/pkg/httpx"
	"github.com/ghuser/budgetly/pkg/lifecycle"
	"github.com/ghuser/budgetly/pkg/logger"
	"github.com/ghuser/budgetly/pkg/telemetry"
	budgetApi "github.com/ghuser/budgetly/services/budget/application/api"
)

// brokerRetryInterval paces background connection attempts when the broker
// is unreachable at startup. Events published meanwhile are logged and dropped.
const brokerRetryInterval = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := config.ValidateForProduction(cfg); err != nil {
		slog.Error("production config validation failed", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg).With("process", "api")

	// Telemetry: OTel tracing + metrics
	ctx := context.Background()
	otelShutdown, metricsHandler, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer otelShutdown(ctx) //nolint:errcheck

	// Crash reporting: Sentry (optional, log and continue on failure)
	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	pool, err := database.NewPool(ctx, cfg.BudgetDatabaseURL, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1) //nolint:gocritic // intentional: startup failure, deferred flushes are best-effort
	}
	log.Info("database pool connected")

	broker, err := events.NewBroker(cfg, log)
	if err != nil {
		log.Error("failed to setup broker", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	bgCtx, cancelBg := context.WithCancel(ctx)
	defer cancelBg()
	go connectBroker(bgCtx, broker, log)

	appConfig := &app.Application{
		Config:    cfg,
		Db:        pool,
		Logger:    log,
		Broker:    broker,
		Publisher: events.NewPublisher(broker, log),
	}

	r := httpx.NewRouter(
		httpx.ServerConfig{
			ServiceName:        cfg.ServiceName,
			IsDevelopment:      cfg.Environment == config.EnvDevelopment,
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		},
		logger.CorrelationMiddleware,
		logger.Middleware(log),
		logger.Recovery(log),
		telemetry.SentryMiddleware(),
		otelhttp.NewMiddleware(cfg.ServiceName),
	)

	r.Get("/health", httpx.HealthHandler(httpx.HealthChecks{
		RabbitMQ: broker,
		Database: pool,
	}))
	r.Get("/metrics", metricsHandler.ServeHTTP)
	r.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth([]byte(cfg.JWTAccessSecret), log))
		registerRoutes(r, appConfig)
	})

	srv := httpx.NewServer(cfg.APIAddr, r)

	// HTTP first so no new events are produced, then the broker, then the pool.
	coordinator := lifecycle.New(log, cfg.ShutdownTimeout)
	coordinator.OnShutdown("http", srv.Shutdown)
	coordinator.OnShutdown("broker", func(context.Context) error {
		cancelBg()
		return broker.Close()
	})
	coordinator.OnShutdown("database", func(context.Context) error {
		pool.Close()
		return nil
	})

	go func() {
		log.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			coordinator.Shutdown(ctx)
			os.Exit(1)
		}
	}()

	coordinator.WaitForSignal(ctx)
	log.Info("server stopped")
}

// registerRoutes mounts all service routes under /api.
// Add each new service's route function here.
func registerRoutes(r chi.Router, a *app.Application) {
	budgetApi.BudgetRoutes(r, a)
}

// connectBroker keeps trying until the broker is reachable or ctx ends. The
// API serves requests meanwhile; the publisher drops events while unconnected.
func connectBroker(ctx context.Context, broker *events.Broker, log logger.Logger) {
	ticker := time.NewTicker(brokerRetryInterval)
	defer ticker.Stop()
	for {
		err := broker.Connect(ctx)
		if err == nil {
			return
		}
		if ctx.Err() != nil || errors.Is(err, events.ErrBrokerClosed) {
			return
		}
		log.Warn("broker unavailable, retrying", "error", err, "retry_in", brokerRetryInterval)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
