package client

import (
	"dario.cat/mergo"
)

// askOptions is the resolved per-call option set. Zero values defer to the
// client configuration.
type askOptions struct {
	model           string
	args            map[string]any
	retries         int
	retriesSet      bool
	parseJSON       bool
	required        []string
	cache           bool
	cachePrefix     string
	stream          bool
	callbacks       []Callback
	continueOnError bool
}

// AskOption customizes a single Ask/AskMany invocation.
type AskOption func(*askOptions)

// WithModel overrides the configured model for this call.
func WithModel(model string) AskOption {
	return func(o *askOptions) { o.model = model }
}

// WithArgs sets sampling parameters forwarded verbatim to the adapter.
// Configured default args fill in keys the caller did not set.
func WithArgs(args map[string]any) AskOption {
	return func(o *askOptions) { o.args = args }
}

// WithRetries overrides the configured retry budget for this call.
func WithRetries(n int) AskOption {
	return func(o *askOptions) {
		o.retries = n
		o.retriesSet = true
	}
}

// WithParseJSON validates the response through the repair-ladder parser
// before the call is considered successful, so malformed output consumes
// the retry budget like a transport failure. Listed fields must be present
// at the top level of the parsed object.
func WithParseJSON(required ...string) AskOption {
	return func(o *askOptions) {
		o.parseJSON = true
		o.required = required
	}
}

// WithCache enables the file cache for this call under the default prefix.
func WithCache() AskOption {
	return func(o *askOptions) { o.cache = true }
}

// WithCachePrefix enables the file cache under a caller-chosen namespace.
func WithCachePrefix(prefix string) AskOption {
	return func(o *askOptions) {
		o.cache = true
		o.cachePrefix = prefix
	}
}

// WithStream forces the streaming path even when no callback is registered.
func WithStream() AskOption {
	return func(o *askOptions) { o.stream = true }
}

// WithCallback adds per-chunk observers for this call only, invoked after
// the client-scoped ones in registration order.
func WithCallback(callbacks ...Callback) AskOption {
	return func(o *askOptions) { o.callbacks = append(o.callbacks, callbacks...) }
}

// WithContinueOnError makes AskMany capture per-item failures in the result
// slice instead of aborting the whole batch on the first one.
func WithContinueOnError() AskOption {
	return func(o *askOptions) { o.continueOnError = true }
}

// resolve applies defaults from the client configuration: retry budget,
// model, and default args merged under explicit ones (explicit wins).
func (c *Client) resolve(opts []AskOption) (askOptions, error) {
	o := askOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	if !o.retriesSet {
		o.retries = c.cfg.Retries
	}
	if o.retries < 0 {
		o.retries = 0
	}
	if o.model == "" {
		o.model = c.cfg.Model
	}
	if o.cachePrefix == "" {
		o.cachePrefix = "default"
	}

	args := make(map[string]any, len(o.args)+len(c.cfg.DefaultArgs))
	for k, v := range o.args {
		args[k] = v
	}
	if err := mergo.Merge(&args, c.cfg.DefaultArgs); err != nil {
		return askOptions{}, err
	}
	o.args = args

	return o, nil
}
