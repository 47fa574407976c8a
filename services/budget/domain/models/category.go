package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups transactions and carries per-month budget limits.
type Category struct {
	ID        uuid.UUID
	UserID    string // owner scope, always filter by this in queries
	Name      CategoryName
	Icon      string
	IsDefault bool
	CreatedAt time.Time
}

// NewCategory constructs a user-defined Category with generated ID and current timestamp.
func NewCategory(userID string, name CategoryName, icon string) *Category {
	return &Category{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Icon:      icon,
		CreatedAt: time.Now().UTC(),
	}
}
