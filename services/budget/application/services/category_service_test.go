package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghuser/budgetly/pkg/logger"
	budgetdomain "github.com/ghuser/budgetly/services/budget/domain"
	"github.com/ghuser/budgetly/services/budget/domain/models"
)

func TestCategoryService_Create(t *testing.T) {
	svc := NewCategoryService(newFakeCategories(), logger.Discard())
	ctx := context.Background()

	c, err := svc.Create(ctx, "u1", "Food", "🍔")
	require.NoError(t, err)
	assert.Equal(t, "Food", c.Name.String())
	assert.False(t, c.IsDefault)

	_, err = svc.Create(ctx, "u1", "Food", "")
	assert.ErrorIs(t, err, budgetdomain.ErrCategoryAlreadyExists)

	_, err = svc.Create(ctx, "u2", "Food", "")
	assert.NoError(t, err, "names are unique per user only")

	for _, bad := range []string{"", " Food", strings.Repeat("x", 101)} {
		_, err = svc.Create(ctx, "u1", bad, "")
		assert.ErrorIs(t, err, budgetdomain.ErrInvalidCategoryName, "name %q", bad)
	}

	list, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestBudgetService_SetLimitAndGet(t *testing.T) {
	food := models.NewCategory("u1", "Food", "")
	budgets := &fakeBudgets{}
	svc := NewBudgetService(budgets, newFakeCategories(food), logger.Discard())
	ctx := context.Background()
	march := models.Period{Month: 3, Year: 2025}

	_, err := svc.Get(ctx, "u1", march)
	assert.ErrorIs(t, err, budgetdomain.ErrBudgetNotFound)

	_, err = svc.SetLimit(ctx, "u1", march, food.ID, 100)
	require.NoError(t, err)
	_, err = svc.SetLimit(ctx, "u1", march, food.ID, 250)
	require.NoError(t, err)

	b, err := svc.Get(ctx, "u1", march)
	require.NoError(t, err)
	require.Len(t, b.Limits, 1, "setting a limit twice replaces it")
	assert.InDelta(t, 250, b.Limits[0].LimitAmount, 1e-9)
	assert.Len(t, budgets.budgets, 1)
}

func TestBudgetService_SetLimitRejects(t *testing.T) {
	food := models.NewCategory("u1", "Food", "")
	svc := NewBudgetService(&fakeBudgets{}, newFakeCategories(food), logger.Discard())
	ctx := context.Background()
	march := models.Period{Month: 3, Year: 2025}

	_, err := svc.SetLimit(ctx, "u1", march, food.ID, 0)
	assert.ErrorIs(t, err, budgetdomain.ErrInvalidAmount)

	_, err = svc.SetLimit(ctx, "u2", march, food.ID, 10)
	assert.ErrorIs(t, err, budgetdomain.ErrCategoryNotFound)

	_, err = svc.SetLimit(ctx, "u1", march, uuid.New(), 10)
	assert.ErrorIs(t, err, budgetdomain.ErrCategoryNotFound)
}
