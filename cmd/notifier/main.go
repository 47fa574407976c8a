package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ghuser/budgetly/pkg/app"
	"github.com/ghuser/budgetly/pkg/auth"
	"github.com/ghuser/budgetly/pkg/cache"
	"github.com/ghuser/budgetly/pkg/config"
	"github.com/ghuser/budgetly/pkg/database"
	"github.com/ghuser/budgetly/pkg/events"
	"github.com/ghuser/budgetly/pkg/httpx"
	"github.com/ghuser/budgetly/pkg/lifecycle"
	"github.com/ghuser/budgetly/pkg/logger"
	"github.com/ghuser/budgetly/pkg/telemetry"
	domainevents "github.com/ghuser/budgetly/services/budget/domain/events"
	notificationApi "github.com/ghuser/budgetly/services/notification/application/api"
	"github.com/ghuser/budgetly/services/notification/application/dispatcher"
	"github.com/ghuser/budgetly/services/notification/infrastructure/persistence/postgres"
	"github.com/ghuser/budgetly/services/notification/infrastructure/telegram"
)

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

	log := logger.New(cfg).With("process", "notifier")

	ctx := context.Background()

	otelShutdown, metricsHandler, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer otelShutdown(ctx) //nolint:errcheck

	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	pool, err := database.NewPool(ctx, cfg.NotificationsDatabaseURL, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	log.Info("database pool connected")

	broker, err := events.NewBroker(cfg, log)
	if err != nil {
		log.Error("failed to setup broker", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	if err := broker.Connect(ctx); err != nil {
		log.Error("failed to connect to broker", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	// Redis only backs duplicate suppression; the notifier runs without it.
	redisClient, err := cache.NewRedisClient(ctx, cfg)
	switch {
	case errors.Is(err, cache.ErrDisabled):
		log.Info("REDIS_URL not set, duplicate suppression disabled")
	case err != nil:
		log.Warn("redis unavailable, redelivered events may notify twice", "error", err)
	default:
		log.Info("redis connected")
	}

	sender, err := telegram.NewSender(telegram.ConfigFrom(cfg), log)
	if err != nil {
		log.Error("failed to setup telegram sender", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	appConfig := &app.Application{
		Config: cfg,
		Db:     pool,
		Logger: log,
		Broker: broker,
		Redis:  redisClient,
	}

	var opts []dispatcher.Option
	if redisClient != nil {
		opts = append(opts, dispatcher.WithDeliveryLog(cache.NewDeliveryCache(redisClient)))
	}
	d := dispatcher.New(postgres.NewSettingsRepository(pool), sender, cfg.TelegramMaxRetries, log, opts...)

	consumer := events.NewConsumer[domainevents.Envelope](broker, d.HandleEvent, events.ConsumerConfig{
		HandlerTimeout: cfg.ConsumerHandlerTimeout,
		MaxDeliveries:  cfg.ConsumerMaxDeliveries,
	}, log)
	if err := consumer.Start(ctx); err != nil {
		log.Error("failed to start consumer", "error", err)
		os.Exit(1) //nolint:gocritic
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
		notificationApi.NotificationRoutes(r, appConfig)
	})

	srv := httpx.NewServer(cfg.NotifierAddr, r)

	// Stop consuming and drain the handler in flight, wait for the read loop to
	// exit so its last ack reaches the broker, then close HTTP, the broker and
	// the pool in that order. Redis goes last since the dispatcher
	// may still mark a delivery while draining times out.
	coordinator := lifecycle.New(log, cfg.ShutdownTimeout)
	coordinator.Drain(consumer)
	coordinator.OnShutdown("consumer", func(ctx context.Context) error {
		select {
		case <-consumer.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	coordinator.OnShutdown("http", srv.Shutdown)
	coordinator.OnShutdown("broker", func(context.Context) error { return broker.Close() })
	coordinator.OnShutdown("database", func(context.Context) error {
		pool.Close()
		return nil
	})
	if redisClient != nil {
		coordinator.OnShutdown("redis", func(context.Context) error { return redisClient.Close() })
	}

	go func() {
		log.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			coordinator.Shutdown(ctx)
			os.Exit(1)
		}
	}()

	coordinator.WaitForSignal(ctx)
	log.Info("notifier stopped")
}
