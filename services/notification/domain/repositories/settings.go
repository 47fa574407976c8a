package repositories

import (
	"context"

	"github.com/ghuser/budgetly/services/notification/domain/models"
)

// SettingsRepository is the persistence interface for notification settings.
// The domain layer owns this interface; infrastructure implements it.
type SettingsRepository interface {
	// FindByUserID returns the user's settings, or nil and no error when none exist.
	FindByUserID(ctx context.Context, userID string) (*models.Settings, error)

	// Upsert applies update to the user's settings, creating the row with
	// defaults first if needed, and returns the stored result.
	Upsert(ctx context.Context, userID string, update models.SettingsUpdate) (*models.Settings, error)
}
