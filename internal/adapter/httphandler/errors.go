package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/niksmo/marketplace/internal/core/domain"
)

// writeError is the single point translating domain failures into
// HTTP responses. Every error body follows the same envelope.
func writeError(w http.ResponseWriter, err error) {
	var ve domain.ValidationErrors

	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Message:    "errors during validation",
			ErrorsList: ve,
		})
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResponse{
			Message: "unauthorized",
		})
	case errors.Is(err, domain.ErrProductNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{
			Message: "product not found",
		})
	case errors.Is(err, domain.ErrReviewNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{
			Message: "review not found",
		})
	default:
		// log the detail server-side, never leak it to the caller
		slog.Error("internal error", "op", "httphandler.writeError", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Message: "internal server error",
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response body",
			"op", "httphandler.writeJSON", "err", err,
		)
	}
}

// decodeJSON maps malformed bodies and wrong field types to
// validation failures instead of a bare 400.
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return domain.ValidationErrors{{
			Field:   typeErr.Field,
			Message: "must be of type " + expectedType(typeErr),
		}}
	}
	return domain.ValidationErrors{{
		Field:   "body",
		Message: "must be valid JSON",
	}}
}

func expectedType(typeErr *json.UnmarshalTypeError) string {
	switch typeErr.Type.Kind().String() {
	case "float64", "int":
		return "number"
	default:
		return "string"
	}
}
