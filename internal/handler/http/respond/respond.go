// Package respond writes JSON responses and maps domain errors to HTTP
// status codes without leaking internal details.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"newsportal/internal/domain/entity"
)

// JSON writes v as a JSON body with the given status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to encode JSON response",
			slog.Int("status_code", code),
			slog.Any("error", err))
	}
}

// Error writes {"error": msg}.
func Error(w http.ResponseWriter, code int, msg string) {
	JSON(w, code, map[string]string{"error": msg})
}

// StatusOf maps an error returned by a use case to an HTTP status code.
func StatusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, entity.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrInvalidInput), errors.Is(err, entity.ErrValidationFailed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// SafeError writes err using the status from StatusOf. Client errors carry the
// error text; 5xx responses carry a generic message and the sanitized error
// is logged instead.
func SafeError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	code := StatusOf(err)
	switch code {
	case http.StatusServiceUnavailable:
		logFailure(code, err)
		Error(w, code, "service unavailable")
	case http.StatusInternalServerError:
		logFailure(code, err)
		Error(w, code, "internal server error")
	default:
		Error(w, code, err.Error())
	}
}

func logFailure(code int, err error) {
	slog.Default().Error("request failed",
		slog.String("status", http.StatusText(code)),
		slog.Int("code", code),
		slog.String("error", SanitizeError(err)))
}
