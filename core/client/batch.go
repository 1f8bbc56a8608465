package client

import (
	"context"
	"sync"
)

// Result is one item of a batch invocation.
type Result struct {
	Response *Response
	Err      error
}

// AskMany runs independent prompts concurrently, bounded by the configured
// MaxConcurrentTasks. By default the first failure cancels the remaining
// work and is returned alongside the partial results; with
// WithContinueOnError each failure is captured in its Result instead.
// Results are positionally aligned with prompts.
func (c *Client) AskMany(ctx context.Context, prompts []string, opts ...AskOption) ([]Result, error) {
	o := askOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]Result, len(prompts))
	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error

	for i, prompt := range prompts {
		wg.Add(1)
		go func(i int, prompt string) {
			defer wg.Done()

			select {
			case c.sem <- struct{}{}:
				defer func() { <-c.sem }()
			case <-ctx.Done():
				results[i] = Result{Err: ctx.Err()}
				return
			}

			resp, err := c.Ask(ctx, prompt, opts...)
			results[i] = Result{Response: resp, Err: err}
			if err != nil && !o.continueOnError {
				once.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}(i, prompt)
	}

	wg.Wait()
	return results, firstErr
}
