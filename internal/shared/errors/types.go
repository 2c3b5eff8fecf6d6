// Package errors classifies failures from the LLM transport as transient
// or permanent so callers can decide whether a retry is worthwhile.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// classifiedError wraps an underlying error with an explicit retry
// classification and a message safe to surface to the LLM or the user.
type classifiedError struct {
	cause     error
	message   string
	transient bool
}

func (e *classifiedError) Error() string {
	if e.cause == nil {
		return e.message
	}
	return fmt.Sprintf("%s: %v", e.message, e.cause)
}

func (e *classifiedError) Unwrap() error { return e.cause }

// NewTransientError marks err as worth retrying (rate limits, timeouts,
// connection resets, 5xx responses).
func NewTransientError(cause error, message string) error {
	return &classifiedError{cause: cause, message: message, transient: true}
}

// NewPermanentError marks err as not worth retrying (bad request,
// auth failure, not found).
func NewPermanentError(cause error, message string) error {
	return &classifiedError{cause: cause, message: message, transient: false}
}

// IsTransient reports whether err should be retried. Explicit
// classifications take precedence; otherwise common substrings in the
// error text are used as a heuristic.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var ce *classifiedError
	if errors.As(err, &ce) {
		return ce.transient
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"429", "500", "502", "503", "504", "deadline exceeded", "connection refused", "connection reset", "timeout", "eof"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// IsPermanent reports whether err is known not to benefit from a retry.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	var ce *classifiedError
	if errors.As(err, &ce) {
		return !ce.transient
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"400", "401", "403", "404", "file not found", "permission denied"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// FormatForLLM renders err as a short, human-readable explanation
// suitable for inclusion in a follow-up prompt or terminal message.
func FormatForLLM(err error) string {
	if err == nil {
		return ""
	}
	var de *degradedError
	if errors.As(err, &de) {
		return fmt.Sprintf("the LLM endpoint is temporarily unavailable (%s); try again shortly", de.breaker)
	}
	return err.Error()
}
