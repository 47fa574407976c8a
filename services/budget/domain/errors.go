package domain

import "errors"

// Sentinel errors for the budget domain. Use errors.Is() to check these.
var (
	// ErrCategoryNotFound indicates the category does not exist or belongs to another user.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrCategoryAlreadyExists indicates the user already has a category with that name.
	ErrCategoryAlreadyExists = errors.New("category already exists")

	// ErrInvalidCategoryName indicates the category name violates domain constraints.
	ErrInvalidCategoryName = errors.New("invalid category name")

	// ErrBudgetNotFound indicates the user has no budget for the requested month.
	ErrBudgetNotFound = errors.New("budget not found")

	// ErrInvalidPeriod indicates a month outside 1..12 or an implausible year.
	ErrInvalidPeriod = errors.New("invalid budget period")

	// ErrGoalNotFound indicates the goal does not exist or belongs to another user.
	ErrGoalNotFound = errors.New("goal not found")

	// ErrInvalidAmount indicates a non-positive monetary amount.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInvalidTransactionType indicates a type other than INCOME or EXPENSE.
	ErrInvalidTransactionType = errors.New("invalid transaction type")
)
