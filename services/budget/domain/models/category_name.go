package models

import (
	"fmt"
	"unicode/utf8"
)

// CategoryName is a value object representing a valid category name.
// Encapsulates validation rules: 1 <= runes(name) <= 100.
type CategoryName string

const (
	minCategoryNameLength = 1
	maxCategoryNameLength = 100
)

// NewCategoryName constructs a valid CategoryName or returns an error if constraints are violated.
func NewCategoryName(s string) (CategoryName, error) {
	n := utf8.RuneCountInString(s)
	if n < minCategoryNameLength {
		return "", fmt.Errorf("category name must be at least %d character", minCategoryNameLength)
	}
	if n > maxCategoryNameLength {
		return "", fmt.Errorf("category name must not exceed %d characters", maxCategoryNameLength)
	}
	return CategoryName(s), nil
}

// String returns the underlying string value.
func (n CategoryName) String() string {
	return string(n)
}
