package client

import (
	"context"
	"errors"
	"testing"

	"github.com/avolkoff/microllm/core/llmerr"
	"github.com/avolkoff/microllm/providers/ai"
)

func TestRetryBudgetExhausted(t *testing.T) {
	boom := errors.New("transport failure")
	provider := &fakeProvider{reply: replies(fakeOutcome{err: boom})}
	c := testClient(t, provider, testConfig())

	_, err := c.Ask(context.Background(), "hi", WithRetries(2))
	if err == nil {
		t.Fatal("expected failure")
	}
	if provider.count() != 3 {
		t.Errorf("provider called %d times, want 3", provider.count())
	}
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("error does not wrap ErrRetryExhausted: %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("original cause lost: %v", err)
	}
}

func TestRetryZeroBudgetSingleAttempt(t *testing.T) {
	boom := errors.New("transport failure")
	provider := &fakeProvider{reply: replies(fakeOutcome{err: boom})}
	c := testClient(t, provider, testConfig())

	_, err := c.Ask(context.Background(), "hi", WithRetries(0))
	if err == nil {
		t.Fatal("expected failure")
	}
	if provider.count() != 1 {
		t.Errorf("provider called %d times, want 1", provider.count())
	}
}

func TestRetryNegativeBudgetClampedToZero(t *testing.T) {
	boom := errors.New("transport failure")
	provider := &fakeProvider{reply: replies(fakeOutcome{err: boom})}
	c := testClient(t, provider, testConfig())

	_, err := c.Ask(context.Background(), "hi", WithRetries(-1))
	if err == nil {
		t.Fatal("expected failure")
	}
	if provider.count() != 1 {
		t.Errorf("provider called %d times, want 1", provider.count())
	}
	if !errors.Is(err, boom) {
		t.Errorf("original cause lost: %v", err)
	}
}

func TestRetryTerminalErrorNoRetry(t *testing.T) {
	boom := errors.New("401 unauthorized")
	provider := &classifyingProvider{
		fakeProvider: fakeProvider{reply: replies(fakeOutcome{err: boom})},
		classify: func(err error, _ string) error {
			return &llmerr.AuthError{Backend: "test", Cause: err}
		},
	}
	c := testClient(t, provider, testConfig())

	_, err := c.Ask(context.Background(), "hi", WithRetries(5))
	if err == nil {
		t.Fatal("expected failure")
	}
	if provider.count() != 1 {
		t.Errorf("terminal error retried: %d calls", provider.count())
	}
	var authErr *llmerr.AuthError
	if !errors.As(err, &authErr) {
		t.Errorf("classification lost: %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("original cause lost: %v", err)
	}
}

func TestRetryUnclassifiedErrorPassesThrough(t *testing.T) {
	boom := errors.New("something vendor-specific")
	provider := &classifyingProvider{
		fakeProvider: fakeProvider{reply: replies(fakeOutcome{err: boom})},
		classify:     func(error, string) error { return nil },
	}
	c := testClient(t, provider, testConfig())

	_, err := c.Ask(context.Background(), "hi", WithRetries(0))
	if !errors.Is(err, boom) {
		t.Errorf("unclassified error not surfaced unchanged: %v", err)
	}
}

func TestRetryRecoversWithinBudget(t *testing.T) {
	provider := &fakeProvider{reply: replies(
		fakeOutcome{err: errors.New("flaky")},
		fakeOutcome{err: errors.New("flaky")},
		fakeOutcome{content: "ok"},
	)}
	c := testClient(t, provider, testConfig())

	resp, err := c.Ask(context.Background(), "hi", WithRetries(2))
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if resp.Text != "ok" {
		t.Errorf("Text = %q", resp.Text)
	}
	if resp.Continuation.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", resp.Continuation.Remaining)
	}
}

func TestContinuationCarriesState(t *testing.T) {
	provider := &fakeProvider{reply: replies(fakeOutcome{content: "first"})}
	c := testClient(t, provider, testConfig())

	resp, err := c.Ask(context.Background(), "hi", WithRetries(3))
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	cn := resp.Continuation
	if cn.Remaining != 3 {
		t.Errorf("Remaining = %d, want 3", cn.Remaining)
	}
	if len(cn.Request.Messages) != 1 || cn.Request.Messages[0].Content != "hi" {
		t.Errorf("Request not captured: %+v", cn.Request)
	}
}

func TestContinuationResume(t *testing.T) {
	provider := &fakeProvider{reply: replies(
		fakeOutcome{content: "first"},
		fakeOutcome{err: errors.New("flaky")},
		fakeOutcome{content: "second"},
	)}
	c := testClient(t, provider, testConfig())

	resp, err := c.Ask(context.Background(), "hi", WithRetries(2))
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}

	resumed, err := resp.Continuation.Resume(context.Background())
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if resumed.Text != "second" {
		t.Errorf("resumed Text = %q", resumed.Text)
	}
	// First call plus the resumed failure and its retry.
	if provider.count() != 3 {
		t.Errorf("provider called %d times, want 3", provider.count())
	}
	if resumed.Continuation.Remaining != 1 {
		t.Errorf("resumed Remaining = %d, want 1", resumed.Continuation.Remaining)
	}
}

func TestRetryContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	provider := &fakeProvider{reply: func(int, ai.ChatRequest) (*ai.ChatResponse, error) {
		cancel()
		return nil, errors.New("flaky")
	}}
	c := testClient(t, provider, testConfig())

	_, err := c.Ask(ctx, "hi", WithRetries(10))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if provider.count() != 1 {
		t.Errorf("provider called %d times after cancellation", provider.count())
	}
}
