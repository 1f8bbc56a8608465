package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/avolkoff/microllm/core/llmerr"
	"github.com/avolkoff/microllm/core/parse"
	"github.com/avolkoff/microllm/providers/ai"
	"github.com/avolkoff/microllm/providers/observability"
)

// ErrRetryExhausted wraps the last classified failure once the retry
// budget runs out.
var ErrRetryExhausted = errors.New("retry budget exhausted")

// Continuation captures the state needed to keep retrying a call after it
// returned: the budget left over and the original request. Callers invoke
// Resume to re-issue the call on the live path, bypassing the cache read.
type Continuation struct {
	Remaining int
	Request   ai.ChatRequest

	client *Client
	opts   askOptions
}

// Resume re-issues the original request with the remaining retry budget.
// No delay is applied between attempts; schedule externally if needed.
func (cn *Continuation) Resume(ctx context.Context) (*Response, error) {
	opts := cn.opts
	opts.retries = cn.Remaining
	return cn.client.callWithRetries(ctx, cn.Request, opts)
}

// callWithRetries invokes the call up to budget+1 times. Terminal kinds
// and context cancellation surface immediately; everything else, including
// a failed requested JSON parse, consumes an attempt.
func (c *Client) callWithRetries(ctx context.Context, req ai.ChatRequest, o askOptions) (*Response, error) {
	budget := o.retries
	var lastErr error

	for attempt := 0; attempt <= budget; attempt++ {
		resp, err := c.callOnce(ctx, req, o)
		if err == nil && o.parseJSON {
			if _, perr := parse.Parse(resp.Text, o.required...); perr != nil {
				err = perr
			}
		}
		if err == nil {
			resp.Continuation = &Continuation{
				Remaining: budget - attempt,
				Request:   req,
				client:    c,
				opts:      o,
			}
			return resp, nil
		}

		classified := c.classify(err, req.Model)
		if llmerr.IsTerminal(classified) {
			return nil, classified
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = classified
		c.logger(ctx).Warn(ctx, "llm call failed",
			observability.String("model", req.Model),
			observability.Int("attempt", attempt+1),
			observability.Int("budget", budget),
			observability.Error(classified),
		)
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, budget+1, lastErr)
}

// classify maps a backend failure to the canonical taxonomy via the
// adapter's own classifier. Unrecognized shapes pass through unchanged so
// backend diagnostics survive.
func (c *Client) classify(err error, model string) error {
	var malformed *llmerr.MalformedOutputError
	if errors.As(err, &malformed) {
		return err
	}
	if classifier, ok := c.provider.(ai.ErrorClassifier); ok {
		if classified := classifier.ClassifyError(err, model); classified != nil {
			return classified
		}
	}
	return err
}
