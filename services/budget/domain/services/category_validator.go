// Package services contains stateless domain services for the budget bounded context.
// Domain services enforce business rules that operate purely on domain types
// and have zero external dependencies beyond stdlib and the domain layer.
package services

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/ghuser/budgetly/services/budget/domain/models"
)

// ValidateName enforces business rules for CategoryName beyond the structural
// constraints enforced by the CategoryName constructor (length 1–100).
//
// Business rules:
//   - No leading or trailing whitespace
//   - No control characters (Unicode category Cc)
//   - No consecutive spaces
//   - Must not be only whitespace characters
func ValidateName(name models.CategoryName) error {
	s := name.String()

	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("category name must not be only whitespace")
	}

	if s != strings.TrimSpace(s) {
		return fmt.Errorf("category name must not have leading or trailing whitespace")
	}

	for _, r := range s {
		if unicode.IsControl(r) {
			return fmt.Errorf("category name must not contain control characters")
		}
	}

	if strings.Contains(s, "  ") {
		return fmt.Errorf("category name must not contain consecutive spaces")
	}

	return nil
}

// ValidateCategoryForCreation performs cross-field validation on a
// fully-constructed Category before it is persisted.
func ValidateCategoryForCreation(c *models.Category) error {
	if c == nil {
		return fmt.Errorf("category cannot be nil")
	}

	if err := ValidateName(c.Name); err != nil {
		return fmt.Errorf("invalid name: %w", err)
	}

	if c.UserID == "" {
		return fmt.Errorf("user_id must be set")
	}

	if c.ID == uuid.Nil {
		return fmt.Errorf("id must be set")
	}

	if len(c.Icon) > 16 {
		return fmt.Errorf("icon must not exceed 16 bytes")
	}

	return nil
}
