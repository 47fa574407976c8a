package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewPeriod(t *testing.T) {
	tests := []struct {
		month, year int
		wantErr     bool
	}{
		{1, 2025, false},
		{12, 2025, false},
		{0, 2025, true},
		{13, 2025, true},
		{6, 1999, true},
		{6, 2101, true},
	}
	for _, tt := range tests {
		_, err := NewPeriod(tt.month, tt.year)
		if (err != nil) != tt.wantErr {
			t.Errorf("NewPeriod(%d, %d) error = %v, wantErr = %v", tt.month, tt.year, err, tt.wantErr)
		}
	}
}

func TestPeriod_Bounds(t *testing.T) {
	start, end := Period{Month: 12, Year: 2024}.Bounds()
	if !start.Equal(time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start: got %v", start)
	}
	if !end.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("end: got %v", end)
	}
}

func TestPeriodOf_UsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	// 01:00 on March 1st at +03:00 is still February in UTC.
	got := PeriodOf(time.Date(2025, 3, 1, 1, 0, 0, 0, loc))
	if got != (Period{Month: 2, Year: 2025}) {
		t.Fatalf("got %+v", got)
	}
}

func TestBudget_LimitFor(t *testing.T) {
	food, rent := uuid.New(), uuid.New()
	b := &Budget{Limits: []BudgetLimit{{CategoryID: food, LimitAmount: 100}}}

	if l, ok := b.LimitFor(food); !ok || l.LimitAmount != 100 {
		t.Fatalf("expected food limit 100, got %+v %v", l, ok)
	}
	if _, ok := b.LimitFor(rent); ok {
		t.Fatal("rent has no limit")
	}
	var nilBudget *Budget
	if _, ok := nilBudget.LimitFor(food); ok {
		t.Fatal("nil budget has no limits")
	}
}

func TestParseTransactionType(t *testing.T) {
	for in, want := range map[string]TransactionType{
		"EXPENSE":   TransactionExpense,
		"expense":   TransactionExpense,
		" Income ": TransactionIncome,
	} {
		got, err := ParseTransactionType(in)
		if err != nil || got != want {
			t.Errorf("ParseTransactionType(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseTransactionType("TRANSFER"); err == nil {
		t.Error("expected error for TRANSFER")
	}
}

func TestGoal_Reached(t *testing.T) {
	g := NewGoal("u1", "Holiday", 5000, nil)
	if g.Reached() {
		t.Fatal("new goal must not be reached")
	}
	g.CurrentAmount = 5000
	if !g.Reached() {
		t.Fatal("goal at target must be reached")
	}
}
