// Package errhttp maps domain sentinel errors to HTTP status codes.
// Add a case to mapErrorToStatus for each new domain sentinel error.
package errhttp

import (
	"errors"
	"net/http"

	"github.com/ghuser/budgetly/pkg/httpx"
	budgetdomain "github.com/ghuser/budgetly/services/budget/domain"
	notificationdomain "github.com/ghuser/budgetly/services/notification/domain"
)

// WriteError maps err to an HTTP status code and writes a JSON error response.
// Uses errors.Is() so wrapped sentinel errors are matched correctly.
// Defaults to 500 Internal Server Error for unrecognized errors, whose
// message is replaced with the status text so internals do not leak.
func WriteError(w http.ResponseWriter, err error) {
	status := mapErrorToStatus(err)
	httpx.JSONError(w, status, httpx.SafeError(err, status))
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, budgetdomain.ErrCategoryNotFound),
		errors.Is(err, budgetdomain.ErrBudgetNotFound),
		errors.Is(err, budgetdomain.ErrGoalNotFound):
		return http.StatusNotFound // 404
	case errors.Is(err, budgetdomain.ErrCategoryAlreadyExists):
		return http.StatusConflict // 409
	case errors.Is(err, budgetdomain.ErrInvalidCategoryName),
		errors.Is(err, budgetdomain.ErrInvalidAmount),
		errors.Is(err, budgetdomain.ErrInvalidTransactionType),
		errors.Is(err, budgetdomain.ErrInvalidPeriod),
		errors.Is(err, notificationdomain.ErrInvalidChatID):
		return http.StatusUnprocessableEntity // 422
	default:
		return http.StatusInternalServerError // 500
	}
}
