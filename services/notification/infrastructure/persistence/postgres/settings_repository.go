package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ghuser/budgetly/pkg/database"
	"github.com/ghuser/budgetly/pkg/telemetry"
	"github.com/ghuser/budgetly/services/notification/domain/models"
)

const settingsColumns = `id, user_id, telegram_chat_id, notify_limit_exceeded, notify_goal_reached, created_at, updated_at`

// SettingsRepository implements repositories.SettingsRepository against PostgreSQL.
type SettingsRepository struct {
	db *database.Database
}

// NewSettingsRepository returns a SettingsRepository backed by the given pool.
func NewSettingsRepository(db *database.Database) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// FindByUserID returns the user's settings, or nil and no error when none exist.
func (r *SettingsRepository) FindByUserID(ctx context.Context, userID string) (*models.Settings, error) {
	return telemetry.WithLatencyValue(ctx, "notification_settings.find", func(ctx context.Context) (*models.Settings, error) {
		row := r.db.Pool().QueryRow(ctx,
			`SELECT `+settingsColumns+` FROM notification_settings WHERE user_id = $1`,
			userID,
		)
		s, err := scanSettings(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil
			}
			return nil, fmt.Errorf("query notification settings: %w", err)
		}
		return s, nil
	})
}

// Upsert applies update under a row lock, inserting the defaults first when
// the user has no row yet. The read-modify-write runs in one transaction so
// concurrent partial updates do not overwrite each other.
func (r *SettingsRepository) Upsert(ctx context.Context, userID string, update models.SettingsUpdate) (*models.Settings, error) {
	return telemetry.WithLatencyValue(ctx, "notification_settings.upsert", func(ctx context.Context) (*models.Settings, error) {
		var out *models.Settings
		err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
			defaults := models.NewSettings(userID)
			if _, err := tx.Exec(ctx, `
				INSERT INTO notification_settings (`+settingsColumns+`)
				VALUES ($1, $2, NULL, $3, $4, $5, $6)
				ON CONFLICT (user_id) DO NOTHING`,
				defaults.ID, userID, defaults.NotifyLimitExceeded, defaults.NotifyGoalReached,
				defaults.CreatedAt, defaults.UpdatedAt,
			); err != nil {
				return fmt.Errorf("insert default settings: %w", err)
			}

			current, err := scanSettings(tx.QueryRow(ctx,
				`SELECT `+settingsColumns+` FROM notification_settings WHERE user_id = $1 FOR UPDATE`,
				userID,
			))
			if err != nil {
				return fmt.Errorf("lock notification settings: %w", err)
			}

			next := update.Apply(*current)
			if _, err := tx.Exec(ctx, `
				UPDATE notification_settings
				SET telegram_chat_id = $2, notify_limit_exceeded = $3, notify_goal_reached = $4, updated_at = $5
				WHERE user_id = $1`,
				userID, next.TelegramChatID, next.NotifyLimitExceeded, next.NotifyGoalReached, next.UpdatedAt,
			); err != nil {
				return fmt.Errorf("update notification settings: %w", err)
			}
			out = &next
			return nil
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	})
}

func scanSettings(row pgx.Row) (*models.Settings, error) {
	var s models.Settings
	if err := row.Scan(&s.ID, &s.UserID, &s.TelegramChatID, &s.NotifyLimitExceeded, &s.NotifyGoalReached, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
