package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ghuser/budgetly/pkg/events"
	budgetdomain "github.com/ghuser/budgetly/services/budget/domain"
	domainevents "github.com/ghuser/budgetly/services/budget/domain/events"
	"github.com/ghuser/budgetly/services/budget/domain/models"
	"github.com/ghuser/budgetly/services/budget/domain/repositories"
)

type fakeCategories struct {
	byID map[uuid.UUID]*models.Category
}

func newFakeCategories(cs ...*models.Category) *fakeCategories {
	f := &fakeCategories{byID: map[uuid.UUID]*models.Category{}}
	for _, c := range cs {
		f.byID[c.ID] = c
	}
	return f
}

func (f *fakeCategories) Save(_ context.Context, c *models.Category) error {
	for _, existing := range f.byID {
		if existing.UserID == c.UserID && existing.Name == c.Name {
			return budgetdomain.ErrCategoryAlreadyExists
		}
	}
	f.byID[c.ID] = c
	return nil
}

func (f *fakeCategories) GetByID(_ context.Context, userID string, id uuid.UUID) (*models.Category, error) {
	c, ok := f.byID[id]
	if !ok || c.UserID != userID {
		return nil, budgetdomain.ErrCategoryNotFound
	}
	return c, nil
}

func (f *fakeCategories) FindByUserID(_ context.Context, userID string) ([]*models.Category, error) {
	var out []*models.Category
	for _, c := range f.byID {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeBudgets struct {
	budgets []*models.Budget
}

func (f *fakeBudgets) find(userID string, p models.Period) *models.Budget {
	for _, b := range f.budgets {
		if b.UserID == userID && b.Period == p {
			return b
		}
	}
	return nil
}

func (f *fakeBudgets) GetOrCreate(_ context.Context, userID string, p models.Period) (*models.Budget, error) {
	if b := f.find(userID, p); b != nil {
		return b, nil
	}
	b := models.NewBudget(userID, p)
	f.budgets = append(f.budgets, b)
	return b, nil
}

func (f *fakeBudgets) FindByPeriod(_ context.Context, userID string, p models.Period) (*models.Budget, error) {
	return f.find(userID, p), nil
}

func (f *fakeBudgets) SetLimit(_ context.Context, budgetID, categoryID uuid.UUID, amount float64) (*models.BudgetLimit, error) {
	for _, b := range f.budgets {
		if b.ID != budgetID {
			continue
		}
		for i := range b.Limits {
			if b.Limits[i].CategoryID == categoryID {
				b.Limits[i].LimitAmount = amount
				l := b.Limits[i]
				return &l, nil
			}
		}
		l := models.BudgetLimit{ID: uuid.New(), BudgetID: budgetID, CategoryID: categoryID, LimitAmount: amount}
		b.Limits = append(b.Limits, l)
		return &l, nil
	}
	return nil, budgetdomain.ErrBudgetNotFound
}

type fakeTransactions struct {
	saved []*models.Transaction
}

func (f *fakeTransactions) Save(_ context.Context, t *models.Transaction) error {
	f.saved = append(f.saved, t)
	return nil
}

func (f *fakeTransactions) FindByUserID(_ context.Context, userID string, _ repositories.QueryOpts) ([]*models.Transaction, error) {
	var out []*models.Transaction
	for _, t := range f.saved {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTransactions) SumExpenses(_ context.Context, userID string, categoryID uuid.UUID, p models.Period) (float64, error) {
	var sum float64
	for _, t := range f.saved {
		if t.UserID == userID && t.CategoryID == categoryID && t.Type == models.TransactionExpense && models.PeriodOf(t.Date) == p {
			sum += t.Amount
		}
	}
	return sum, nil
}

type fakeGoals struct {
	byID map[uuid.UUID]*models.Goal
}

func newFakeGoals(gs ...*models.Goal) *fakeGoals {
	f := &fakeGoals{byID: map[uuid.UUID]*models.Goal{}}
	for _, g := range gs {
		f.byID[g.ID] = g
	}
	return f
}

func (f *fakeGoals) Save(_ context.Context, g *models.Goal) error {
	f.byID[g.ID] = g
	return nil
}

func (f *fakeGoals) FindByUserID(_ context.Context, userID string) ([]*models.Goal, error) {
	var out []*models.Goal
	for _, g := range f.byID {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeGoals) AddDeposit(_ context.Context, userID string, id uuid.UUID, amount float64) (*models.Goal, error) {
	g, ok := f.byID[id]
	if !ok || g.UserID != userID {
		return nil, budgetdomain.ErrGoalNotFound
	}
	g.CurrentAmount += amount
	cp := *g
	return &cp, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	ok     bool
	events []domainevents.Envelope
}

func (p *recordingPublisher) PublishEvent(_ context.Context, event events.Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if env, ok := event.(domainevents.Envelope); ok {
		p.events = append(p.events, env)
	}
	return p.ok
}
