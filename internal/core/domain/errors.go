package domain

import (
	"errors"
	"strings"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrReviewNotFound  = errors.New("review not found")

	// ErrUnauthorized is reserved for future protected endpoints.
	ErrUnauthorized = errors.New("unauthorized")
)

// FieldError describes a single offending payload field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors aggregates every violation of one payload,
// so the caller reports all problems at once.
type ValidationErrors []FieldError

func (ve ValidationErrors) Error() string {
	var b strings.Builder
	b.WriteString("validation failed")
	for _, fe := range ve {
		b.WriteString(": ")
		b.WriteString(fe.Field)
		b.WriteString(" ")
		b.WriteString(fe.Message)
	}
	return b.String()
}
