package ollama

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/avolkoff/microllm/core/llmerr"
)

// ClassifyError implements ai.ErrorClassifier. Ollama reports API failures
// as api.StatusError; a local server has no quota, so only auth and context
// overflow map to canonical kinds.
func (p *Provider) ClassifyError(err error, model string) error {
	var statusErr api.StatusError
	if !errors.As(err, &statusErr) {
		return nil
	}

	switch statusErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &llmerr.AuthError{Backend: "ollama", Cause: err}
	case http.StatusTooManyRequests:
		return &llmerr.QuotaExceededError{Backend: "ollama", Cause: err}
	}

	// The server reports prompt overflow as a 500 whose message mentions
	// the context window, e.g. "the prompt is too long for this model".
	msg := strings.ToLower(statusErr.ErrorMessage)
	if strings.Contains(msg, "context") && strings.Contains(msg, "exceed") ||
		strings.Contains(msg, "prompt is too long") {
		return &llmerr.ContextLengthExceededError{Model: model, Cause: err}
	}

	return nil
}
