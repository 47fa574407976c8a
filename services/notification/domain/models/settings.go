package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Settings is a user's notification preferences and Telegram linkage.
// One row per user, created lazily with both kinds of notification enabled.
type Settings struct {
	ID                  uuid.UUID
	UserID              string
	TelegramChatID      *string // nil until the user links a chat
	NotifyLimitExceeded bool
	NotifyGoalReached   bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewSettings returns the defaults for a user who has never saved preferences.
func NewSettings(userID string) *Settings {
	now := time.Now().UTC()
	return &Settings{
		ID:                  uuid.New(),
		UserID:              userID,
		NotifyLimitExceeded: true,
		NotifyGoalReached:   true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// LimitExceededChat returns the chat to notify about an exceeded limit, or
// false when the user has no linked chat or has opted out.
func (s *Settings) LimitExceededChat() (string, bool) {
	if s == nil || !s.NotifyLimitExceeded {
		return "", false
	}
	return s.chat()
}

// GoalReachedChat returns the chat to notify about a reached goal, or false
// when the user has no linked chat or has opted out.
func (s *Settings) GoalReachedChat() (string, bool) {
	if s == nil || !s.NotifyGoalReached {
		return "", false
	}
	return s.chat()
}

func (s *Settings) chat() (string, bool) {
	if s.TelegramChatID == nil || *s.TelegramChatID == "" {
		return "", false
	}
	return *s.TelegramChatID, true
}

// SettingsUpdate is a partial change. Nil fields are left as they are.
type SettingsUpdate struct {
	TelegramChatID      *string
	UnlinkTelegram      bool // clears the chat id; wins over TelegramChatID
	NotifyLimitExceeded *bool
	NotifyGoalReached   *bool
}

// Apply returns s with u applied and UpdatedAt bumped.
func (u SettingsUpdate) Apply(s Settings) Settings {
	if u.TelegramChatID != nil {
		id := *u.TelegramChatID
		s.TelegramChatID = &id
	}
	if u.UnlinkTelegram {
		s.TelegramChatID = nil
	}
	if u.NotifyLimitExceeded != nil {
		s.NotifyLimitExceeded = *u.NotifyLimitExceeded
	}
	if u.NotifyGoalReached != nil {
		s.NotifyGoalReached = *u.NotifyGoalReached
	}
	s.UpdatedAt = time.Now().UTC()
	return s
}

// ParseChatID validates a Telegram chat id: a signed integer (users, groups,
// channels) or an @channelusername.
func ParseChatID(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("chat id must not be empty")
	}
	if strings.HasPrefix(s, "@") {
		if len(s) < 2 || strings.ContainsAny(s, " \t\n") {
			return "", fmt.Errorf("chat username %q is malformed", s)
		}
		return s, nil
	}
	if _, err := strconv.ParseInt(s, 10, 64); err != nil {
		return "", fmt.Errorf("chat id %q is not numeric", s)
	}
	return s, nil
}
