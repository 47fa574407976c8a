package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every error reply from the budget and
// notification APIs. Fields is only set for 422 validation failures and maps
// the JSON field name to a human readable reason.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// JSON writes v as JSON with the given status code. Encoding errors are
// dropped: the header is already on the wire by then.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError writes an ErrorResponse carrying message.
func JSONError(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// ValidationError writes 422 with the per-field reasons.
func ValidationError(w http.ResponseWriter, fields map[string]string) {
	JSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: "Validation failed", Fields: fields})
}

// SafeError returns the message a client may see for err. Server errors are
// replaced with their status text so driver and SQL details stay in the logs.
func SafeError(err error, status int) string {
	if status >= http.StatusInternalServerError {
		return http.StatusText(status)
	}
	return err.Error()
}
