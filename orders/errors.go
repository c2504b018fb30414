package orders

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Kind is the stable error classification exposed to callers. Handlers map
// kinds to HTTP status codes; messages are for humans and may change.
type Kind string

const (
	KindValidationFailed  Kind = "ValidationFailed"
	KindNotFound          Kind = "NotFound"
	KindInvalidState      Kind = "InvalidState"
	KindInvalidTransition Kind = "InvalidTransition"
	KindConflict          Kind = "Conflict"
	KindInternal          Kind = "Internal"
)

// Error is the error type returned by every operation in this package.
// Details enumerates every offending field, not just the first.
type Error struct {
	Kind    Kind     `json:"kind"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, strings.Join(e.Details, "; "))
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// KindOf extracts the Kind from err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return KindInternal
}

func validationFailed(msg string, details ...string) *Error {
	return &Error{Kind: KindValidationFailed, Message: msg, Details: details}
}

func notFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func invalidState(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func invalidTransition(from, to interface{}) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Message: fmt.Sprintf("status transition %v -> %v is not allowed", from, to),
	}
}

func conflict(msg string, cause error) *Error {
	return &Error{Kind: KindConflict, Message: msg, cause: cause}
}

func internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, cause: cause}
}

// isDuplicateKey reports whether err is a unique-constraint violation. GORM
// translates driver errors when TranslateError is on; the string checks cover
// drivers that predate translation.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
