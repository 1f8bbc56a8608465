package openai

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"

	openai "github.com/sashabaranov/go-openai"

	"github.com/avolkoff/microllm/core/llmerr"
)

// The API reports token limits only inside human-readable prose, in (at
// least) two phrasings:
//
//	This model's maximum context length is 4097 tokens. However, your
//	messages resulted in 4275 tokens. Please reduce the length of the
//	messages.
//
//	This model's maximum context length is 4097 tokens, however you
//	requested 5360 tokens (3360 in your prompt; 2000 for the completion).
//	Please reduce your prompt; or completion length.
//
// The pattern below is therefore versioned to the current message format and
// pinned by tests to literal captured strings; on drift it degrades to an
// unclassified error rather than guessing.
var reContextLength = regexp.MustCompile(
	`maximum context length is (\d+) tokens.+?(?:resulted in|you requested) (\d+) tokens`)

// ClassifyError implements ai.ErrorClassifier for the OpenAI backend family.
// Only *openai.APIError values are recognized; anything else returns nil so
// the original failure surfaces unchanged.
func (p *Provider) ClassifyError(err error, model string) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return nil
	}

	switch apiErr.HTTPStatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &llmerr.AuthError{Backend: "openai", Cause: err}
	case http.StatusTooManyRequests:
		return &llmerr.QuotaExceededError{Backend: "openai", Cause: err}
	}

	if code, ok := apiErr.Code.(string); ok && code == "context_length_exceeded" {
		actual, max := extractTokenCounts(apiErr.Message)
		return &llmerr.ContextLengthExceededError{Model: model, Actual: actual, Max: max, Cause: err}
	}
	if m := reContextLength.FindStringSubmatch(apiErr.Message); m != nil {
		max, _ := strconv.Atoi(m[1])
		actual, _ := strconv.Atoi(m[2])
		return &llmerr.ContextLengthExceededError{Model: model, Actual: actual, Max: max, Cause: err}
	}

	return nil
}

// extractTokenCounts recovers (actual, max) from the prose message; zeros
// when the phrasing has drifted.
func extractTokenCounts(message string) (actual, max int) {
	m := reContextLength.FindStringSubmatch(message)
	if m == nil {
		return 0, 0
	}
	max, _ = strconv.Atoi(m[1])
	actual, _ = strconv.Atoi(m[2])
	return actual, max
}
