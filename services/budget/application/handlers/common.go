package handlers

import (
	"net/http"

	"github.com/ghuser/budgetly/pkg/auth"
	"github.com/ghuser/budgetly/pkg/httpx"
)

// requireUser returns the authenticated user or writes 401.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := auth.UserIDFromCtx(r.Context())
	if err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "authentication required")
		return "", false
	}
	return userID, true
}
