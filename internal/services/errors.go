package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAuth marks credential exchange failures and repeated 401 responses.
	// Auth errors abort the run; no catalog call can succeed without a token.
	ErrAuth = errors.New("auth error")
	// ErrRateLimited marks catalog calls that exhausted the 429 retry budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrCatalog marks unrecoverable catalog failures (server errors,
	// malformed responses).
	ErrCatalog = errors.New("catalog error")
	// ErrSheetWrite marks failures to persist a row outcome to the sheet.
	ErrSheetWrite    = errors.New("sheet write error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later policy classification. The marker should
// be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRunFatal reports whether an error must abort the whole run instead of
// failing a single row. Auth failures qualify because every subsequent catalog
// call would fail the same way; sheet write failures qualify because
// continuing would break write-then-mark ordering.
func IsRunFatal(err error) bool {
	return errors.Is(err, ErrAuth) || errors.Is(err, ErrSheetWrite)
}

// IsRowRetryable reports whether a row-level failure is worth another attempt
// with backoff before recording the row as failed.
func IsRowRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrAuth), errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration):
		return false
	default:
		return true
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
