package services

import (
	"context"
	"fmt"

	"github.com/ghuser/budgetly/pkg/logger"
	notificationdomain "github.com/ghuser/budgetly/services/notification/domain"
	"github.com/ghuser/budgetly/services/notification/domain/models"
	"github.com/ghuser/budgetly/services/notification/domain/repositories"
)

// SettingsService manages a user's notification preferences and Telegram link.
// Settings are created lazily and never deleted.
type SettingsService struct {
	repo repositories.SettingsRepository
	log  logger.Logger
}

// NewSettingsService returns a SettingsService wired with the given repository.
func NewSettingsService(repo repositories.SettingsRepository, log logger.Logger) *SettingsService {
	return &SettingsService{repo: repo, log: log}
}

// GetOrCreate returns the user's settings, storing the defaults on first access.
func (s *SettingsService) GetOrCreate(ctx context.Context, userID string) (*models.Settings, error) {
	existing, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find settings: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	created, err := s.repo.Upsert(ctx, userID, models.SettingsUpdate{})
	if err != nil {
		return nil, fmt.Errorf("create settings: %w", err)
	}
	s.log.InfoContext(ctx, "notification settings created", "user_id", userID)
	return created, nil
}

// UpdatePreferences changes the notify flags. Nil leaves a flag unchanged.
func (s *SettingsService) UpdatePreferences(ctx context.Context, userID string, limitExceeded, goalReached *bool) (*models.Settings, error) {
	settings, err := s.repo.Upsert(ctx, userID, models.SettingsUpdate{
		NotifyLimitExceeded: limitExceeded,
		NotifyGoalReached:   goalReached,
	})
	if err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	s.log.InfoContext(ctx, "notification settings updated", "user_id", userID)
	return settings, nil
}

// LinkTelegram stores the chat notifications are sent to.
func (s *SettingsService) LinkTelegram(ctx context.Context, userID, rawChatID string) (*models.Settings, error) {
	chatID, err := models.ParseChatID(rawChatID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", notificationdomain.ErrInvalidChatID, err)
	}

	settings, err := s.repo.Upsert(ctx, userID, models.SettingsUpdate{TelegramChatID: &chatID})
	if err != nil {
		return nil, fmt.Errorf("link telegram: %w", err)
	}
	s.log.InfoContext(ctx, "telegram linked", "user_id", userID)
	return settings, nil
}

// UnlinkTelegram clears the chat. Nothing is sent until a chat is linked again.
func (s *SettingsService) UnlinkTelegram(ctx context.Context, userID string) (*models.Settings, error) {
	settings, err := s.repo.Upsert(ctx, userID, models.SettingsUpdate{UnlinkTelegram: true})
	if err != nil {
		return nil, fmt.Errorf("unlink telegram: %w", err)
	}
	s.log.InfoContext(ctx, "telegram unlinked", "user_id", userID)
	return settings, nil
}
