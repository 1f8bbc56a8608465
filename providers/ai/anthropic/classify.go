package anthropic

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"

	"github.com/avolkoff/microllm/core/llmerr"
)

// The API reports prompt overflow as an invalid_request_error whose message
// reads "prompt is too long: 210145 tokens > 200000 maximum". The pattern is
// versioned to that format and pinned by tests; on drift classification
// degrades to surfacing the original error.
var rePromptTooLong = regexp.MustCompile(`prompt is too long: (\d+) tokens > (\d+) maximum`)

// ClassifyError implements ai.ErrorClassifier. It recognizes only errors
// surfaced by the Anthropic SDK and returns nil for everything else.
func (p *Provider) ClassifyError(err error, model string) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return nil
	}
	return classify(apiErr.StatusCode, apiErr.Error(), model, err)
}

func classify(statusCode int, message, model string, cause error) error {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &llmerr.AuthError{Backend: "anthropic", Cause: cause}
	case http.StatusTooManyRequests:
		return &llmerr.QuotaExceededError{Backend: "anthropic", Cause: cause}
	}

	if m := rePromptTooLong.FindStringSubmatch(message); m != nil {
		actual, _ := strconv.Atoi(m[1])
		max, _ := strconv.Atoi(m[2])
		return &llmerr.ContextLengthExceededError{
			Model:  model,
			Actual: actual,
			Max:    max,
			Cause:  cause,
		}
	}
	if statusCode == http.StatusBadRequest && strings.Contains(message, "prompt is too long") {
		return &llmerr.ContextLengthExceededError{Model: model, Cause: cause}
	}

	return nil
}
