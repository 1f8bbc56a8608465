package openai

import (
	"errors"
	"fmt"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/avolkoff/microllm/core/llmerr"
)

// Captured vendor error strings. The classifier is pinned to these so that
// upstream message-format drift fails this test loudly instead of silently
// mis-classifying.
const (
	msgContextMessages = "This model's maximum context length is 4097 tokens. However, your messages resulted in 4275 tokens. Please reduce the length of the messages."
	msgContextRequest  = "This model's maximum context length is 4097 tokens, however you requested 5360 tokens (3360 in your prompt; 2000 for the completion). Please reduce your prompt; or completion length."
)

func TestClassifyContextLength(t *testing.T) {
	p := &Provider{}

	tests := []struct {
		name       string
		apiErr     *openai.APIError
		wantActual int
		wantMax    int
	}{
		{
			name: "chat phrasing with code",
			apiErr: &openai.APIError{
				Code:           "context_length_exceeded",
				Message:        msgContextMessages,
				HTTPStatusCode: 400,
			},
			wantActual: 4275,
			wantMax:    4097,
		},
		{
			name: "completions phrasing without code",
			apiErr: &openai.APIError{
				Message:        msgContextRequest,
				HTTPStatusCode: 400,
			},
			wantActual: 5360,
			wantMax:    4097,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := p.ClassifyError(tt.apiErr, "gpt-4o-mini")

			var ctxErr *llmerr.ContextLengthExceededError
			if !errors.As(classified, &ctxErr) {
				t.Fatalf("got %v, want ContextLengthExceededError", classified)
			}
			if ctxErr.Actual != tt.wantActual || ctxErr.Max != tt.wantMax {
				t.Errorf("counts = %d/%d, want %d/%d", ctxErr.Actual, ctxErr.Max, tt.wantActual, tt.wantMax)
			}
			if ctxErr.Model != "gpt-4o-mini" {
				t.Errorf("Model = %q", ctxErr.Model)
			}
			if !errors.Is(classified, tt.apiErr) {
				t.Error("original cause lost")
			}
			if !llmerr.IsTerminal(classified) {
				t.Error("context overflow not terminal")
			}
		})
	}
}

func TestClassifyStatusCodes(t *testing.T) {
	p := &Provider{}

	for _, status := range []int{401, 403} {
		err := p.ClassifyError(&openai.APIError{HTTPStatusCode: status}, "m")
		var authErr *llmerr.AuthError
		if !errors.As(err, &authErr) {
			t.Errorf("status %d: got %v, want AuthError", status, err)
		}
	}

	err := p.ClassifyError(&openai.APIError{HTTPStatusCode: 429}, "m")
	var quotaErr *llmerr.QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Errorf("status 429: got %v, want QuotaExceededError", err)
	}
	if llmerr.IsTerminal(err) {
		t.Error("quota exhaustion must stay retryable")
	}
}

func TestClassifyUnrecognized(t *testing.T) {
	p := &Provider{}

	if got := p.ClassifyError(errors.New("dial tcp: connection refused"), "m"); got != nil {
		t.Errorf("non-SDK error classified: %v", got)
	}
	if got := p.ClassifyError(nil, "m"); got != nil {
		t.Errorf("nil error classified: %v", got)
	}

	// A drifted message shape degrades to no classification.
	drifted := &openai.APIError{
		Message:        "The context window was exceeded in a brand new phrasing.",
		HTTPStatusCode: 400,
	}
	if got := p.ClassifyError(drifted, "m"); got != nil {
		t.Errorf("drifted message guessed a classification: %v", got)
	}

	wrapped := fmt.Errorf("request failed: %w", &openai.APIError{HTTPStatusCode: 401})
	var authErr *llmerr.AuthError
	if !errors.As(p.ClassifyError(wrapped, "m"), &authErr) {
		t.Error("wrapped SDK error not recognized")
	}
}
