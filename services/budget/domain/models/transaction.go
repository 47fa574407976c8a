package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TransactionType is INCOME or EXPENSE.
type TransactionType string

const (
	TransactionIncome  TransactionType = "INCOME"
	TransactionExpense TransactionType = "EXPENSE"
)

// ParseTransactionType accepts either type, case-insensitively.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(strings.ToUpper(strings.TrimSpace(s))); t {
	case TransactionIncome, TransactionExpense:
		return t, nil
	default:
		return "", fmt.Errorf("transaction type %q is not INCOME or EXPENSE", s)
	}
}

// Transaction is a single income or expense entry.
type Transaction struct {
	ID          uuid.UUID
	UserID      string
	CategoryID  uuid.UUID
	Amount      float64
	Type        TransactionType
	Description string
	Date        time.Time
	CreatedAt   time.Time
}

// NewTransaction constructs a Transaction with generated ID and current timestamp.
// Amount must already be validated as positive.
func NewTransaction(userID string, categoryID uuid.UUID, amount float64, typ TransactionType, description string, date time.Time) *Transaction {
	return &Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		CategoryID:  categoryID,
		Amount:      amount,
		Type:        typ,
		Description: description,
		Date:        date.UTC(),
		CreatedAt:   time.Now().UTC(),
	}
}
