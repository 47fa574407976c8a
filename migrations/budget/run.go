package main

import (
	"context"
	"embed"
	"log/slog"
	"os"

	"github.com/ghuser/budgetly/pkg/config"
	"github.com/ghuser/budgetly/pkg/logger"
	"github.com/ghuser/budgetly/pkg/migrator"
)

//go:embed *.sql
var MigrationsFS embed.FS

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg).With("database", "budget")

	if err := migrator.RunMigrations(context.Background(), cfg.BudgetDatabaseURL, MigrationsFS, log); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
}
