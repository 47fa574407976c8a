package models

import (
	"time"

	"github.com/google/uuid"
)

// Goal is a savings target that deposits accumulate towards.
type Goal struct {
	ID            uuid.UUID
	UserID        string
	Name          string
	TargetAmount  float64
	CurrentAmount float64
	Deadline      *time.Time
	CreatedAt     time.Time
}

// NewGoal constructs a Goal with nothing saved yet.
func NewGoal(userID, name string, target float64, deadline *time.Time) *Goal {
	return &Goal{
		ID:           uuid.New(),
		UserID:       userID,
		Name:         name,
		TargetAmount: target,
		Deadline:     deadline,
		CreatedAt:    time.Now().UTC(),
	}
}

// Reached reports whether the saved amount has met the target.
func (g *Goal) Reached() bool {
	return g.CurrentAmount >= g.TargetAmount
}
