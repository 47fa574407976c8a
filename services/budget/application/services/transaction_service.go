package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/budgetly/pkg/logger"
	budgetdomain "github.com/ghuser/budgetly/services/budget/domain"
	domainevents "github.com/ghuser/budgetly/services/budget/domain/events"
	"github.com/ghuser/budgetly/services/budget/domain/models"
	"github.com/ghuser/budgetly/services/budget/domain/repositories"
)

// unknownCategoryName labels a limit event whose category name could not be read.
const unknownCategoryName = "Unknown"

// CreateTransactionInput is the validated body of a new transaction.
type CreateTransactionInput struct {
	CategoryID  uuid.UUID
	Amount      float64
	Type        models.TransactionType
	Description string
	Date        time.Time
}

// TransactionService records transactions and raises TRANSACTION_CREATED
// when an expense takes its category to or over the month's limit.
type TransactionService struct {
	transactions repositories.TransactionRepository
	budgets      repositories.BudgetRepository
	categories   repositories.CategoryRepository
	publisher    EventPublisher
	log          logger.Logger
}

// NewTransactionService returns a TransactionService. publisher may be nil,
// in which case no events are raised.
func NewTransactionService(
	transactions repositories.TransactionRepository,
	budgets repositories.BudgetRepository,
	categories repositories.CategoryRepository,
	publisher EventPublisher,
	log logger.Logger,
) *TransactionService {
	return &TransactionService{
		transactions: transactions,
		budgets:      budgets,
		categories:   categories,
		publisher:    publisher,
		log:          log,
	}
}

// Create persists a transaction. For an EXPENSE it then compares the month's
// spend on the category with its limit and publishes when spent >= limit.
// The event is best effort: the write and the publish are not atomic, and a
// failure after the write never fails the request.
func (s *TransactionService) Create(ctx context.Context, userID string, in CreateTransactionInput) (*models.Transaction, error) {
	if !validAmount(in.Amount) {
		return nil, budgetdomain.ErrInvalidAmount
	}
	if in.Type != models.TransactionIncome && in.Type != models.TransactionExpense {
		return nil, budgetdomain.ErrInvalidTransactionType
	}

	category, err := s.categories.GetByID(ctx, userID, in.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	tx := models.NewTransaction(userID, in.CategoryID, in.Amount, in.Type, in.Description, in.Date)
	if err := s.transactions.Save(ctx, tx); err != nil {
		return nil, fmt.Errorf("save transaction: %w", err)
	}
	s.log.InfoContext(ctx, "transaction created", "transaction_id", tx.ID, "type", tx.Type)

	if tx.Type == models.TransactionExpense {
		if err := s.checkLimit(ctx, tx, category); err != nil {
			s.log.ErrorContext(ctx, "budget limit check failed", "transaction_id", tx.ID, "error", err)
		}
	}
	return tx, nil
}

// List returns the user's transactions, newest first.
func (s *TransactionService) List(ctx context.Context, userID string, opts repositories.QueryOpts) ([]*models.Transaction, error) {
	txs, err := s.transactions.FindByUserID(ctx, userID, opts)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (s *TransactionService) checkLimit(ctx context.Context, tx *models.Transaction, category *models.Category) error {
	if s.publisher == nil {
		return nil
	}
	period := models.PeriodOf(tx.Date)

	budget, err := s.budgets.FindByPeriod(ctx, tx.UserID, period)
	if err != nil {
		return fmt.Errorf("find budget: %w", err)
	}
	limit, ok := budget.LimitFor(tx.CategoryID)
	if !ok {
		return nil
	}

	spent, err := s.transactions.SumExpenses(ctx, tx.UserID, tx.CategoryID, period)
	if err != nil {
		return fmt.Errorf("sum expenses: %w", err)
	}
	if spent < limit.LimitAmount {
		return nil
	}

	name := unknownCategoryName
	if category != nil && category.Name != "" {
		name = category.Name.String()
	}
	event := domainevents.NewTransactionCreatedEvent(domainevents.TransactionCreatedPayload{
		UserID:       tx.UserID,
		CategoryID:   tx.CategoryID.String(),
		CategoryName: name,
		Amount:       tx.Amount,
		BudgetID:     budget.ID.String(),
		CurrentSpent: spent,
		LimitAmount:  limit.LimitAmount,
	}, logger.CorrelationID(ctx))

	if s.publisher.PublishEvent(ctx, event) {
		s.log.InfoContext(ctx, "budget limit exceeded event published",
			"category_id", tx.CategoryID,
			"current_spent", spent,
			"limit_amount", limit.LimitAmount,
		)
	}
	return nil
}
