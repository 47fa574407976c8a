package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ghuser/budgetly/pkg/httpx"
	"github.com/ghuser/budgetly/pkg/logger"
)

// Claims are the access token claims. Tokens are issued by the account
// service; this package only verifies them.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// ErrInvalidToken is returned by ParseToken for any token that fails verification.
var ErrInvalidToken = errors.New("invalid access token")

// ParseToken verifies an HS256 access token and returns the user ID it carries.
func ParseToken(raw string, secret []byte) (string, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return "", fmt.Errorf("%w: missing userId claim", ErrInvalidToken)
	}
	return claims.UserID, nil
}

// RequireAuth is a chi middleware that enforces authentication via a bearer
// access token. It verifies the token, extracts the user ID, and injects it
// into the request context. Returns 401 Unauthorized if the header is missing
// or the token does not verify.
//
// After this middleware, handlers can safely call auth.UserIDFromCtx(r.Context()).
func RequireAuth(secret []byte, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				httpx.JSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			userID, err := ParseToken(raw, secret)
			if err != nil {
				log.WarnContext(r.Context(), "rejected access token", "error", err)
				httpx.JSONError(w, http.StatusUnauthorized, "invalid access token")
				return
			}

			ctx := WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
