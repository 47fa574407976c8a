package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Period is a calendar month.
type Period struct {
	Month int
	Year  int
}

// NewPeriod validates month and year.
func NewPeriod(month, year int) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("month %d out of range 1..12", month)
	}
	if year < 2000 || year > 2100 {
		return Period{}, fmt.Errorf("year %d out of range 2000..2100", year)
	}
	return Period{Month: month, Year: year}, nil
}

// PeriodOf returns the month containing t, in UTC.
func PeriodOf(t time.Time) Period {
	t = t.UTC()
	return Period{Month: int(t.Month()), Year: t.Year()}
}

// Bounds returns the half-open interval [start, end) covering the period.
func (p Period) Bounds() (time.Time, time.Time) {
	start := time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// Budget is a user's plan for one month. One per user and period.
type Budget struct {
	ID        uuid.UUID
	UserID    string
	Period    Period
	Limits    []BudgetLimit
	CreatedAt time.Time
}

// NewBudget returns an empty budget for the period.
func NewBudget(userID string, p Period) *Budget {
	return &Budget{
		ID:        uuid.New(),
		UserID:    userID,
		Period:    p,
		CreatedAt: time.Now().UTC(),
	}
}

// LimitFor returns the limit set on categoryID, if any.
func (b *Budget) LimitFor(categoryID uuid.UUID) (BudgetLimit, bool) {
	if b == nil {
		return BudgetLimit{}, false
	}
	for _, l := range b.Limits {
		if l.CategoryID == categoryID {
			return l, true
		}
	}
	return BudgetLimit{}, false
}

// BudgetLimit caps spending on one category within a budget.
type BudgetLimit struct {
	ID          uuid.UUID
	BudgetID    uuid.UUID
	CategoryID  uuid.UUID
	LimitAmount float64
}
