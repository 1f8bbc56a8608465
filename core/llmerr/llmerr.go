// Package llmerr defines the canonical error taxonomy shared by every backend
// adapter. Backend SDKs raise their own failure shapes; the per-backend
// classifiers translate the recognizable ones into the types below, and
// everything else passes through unchanged so callers never lose the native
// diagnostics. Every canonical error keeps the original failure reachable via
// [errors.Unwrap].
package llmerr

import (
	"errors"
	"fmt"
)

// ContextLengthExceededError reports that the request did not fit into the
// model's context window. The token counts come from the backend's
// human-readable error text; a missing count is reported as zero.
type ContextLengthExceededError struct {
	Model  string
	Actual int // tokens the request resolved to
	Max    int // maximum the model accepts
	Cause  error
}

func (e *ContextLengthExceededError) Error() string {
	return fmt.Sprintf("context length exceeded for %s: %d tokens > %d maximum", e.Model, e.Actual, e.Max)
}

func (e *ContextLengthExceededError) Unwrap() error { return e.Cause }

// AuthError reports that the backend rejected the credentials.
type AuthError struct {
	Backend string
	Cause   error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s authentication failed", e.Backend)
}

func (e *AuthError) Unwrap() error { return e.Cause }

// QuotaExceededError reports that the backend throttled or refused the call
// for billing or rate-limit reasons. Retryable.
type QuotaExceededError struct {
	Backend string
	Cause   error
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s quota exceeded", e.Backend)
}

func (e *QuotaExceededError) Unwrap() error { return e.Cause }

// MalformedOutputError reports that model output believed to contain a
// structured value could not be recovered into one. It is a content-level
// condition: the transport succeeded, the text is wrong. Text carries the
// offending output so callers can log or inspect it.
type MalformedOutputError struct {
	Text   string
	Reason string
	Cause  error
}

func (e *MalformedOutputError) Error() string {
	if e.Reason != "" {
		return "malformed structured output: " + e.Reason
	}
	return "malformed structured output"
}

func (e *MalformedOutputError) Unwrap() error { return e.Cause }

// IsTerminal reports whether err is a failure that retrying cannot fix:
// the request itself is wrong (context length) or the caller is (auth).
func IsTerminal(err error) bool {
	var ctxErr *ContextLengthExceededError
	var authErr *AuthError
	return errors.As(err, &ctxErr) || errors.As(err, &authErr)
}
