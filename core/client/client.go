package client

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/avolkoff/microllm/config"
	"github.com/avolkoff/microllm/providers/ai"
	"github.com/avolkoff/microllm/providers/observability"
	"github.com/avolkoff/microllm/providers/storage"
)

// Callback observes output as it is produced: once per visible chunk on
// the streaming path, once with the full text on the terminal path.
// Callbacks run sequentially in registration order.
type Callback func(ctx context.Context, chunk string)

type registeredCallback struct {
	id int
	fn Callback
}

// Client drives the invocation pipeline for one configured backend. It is
// safe for concurrent use; callback registration is expected at setup
// time, not concurrently with in-flight requests.
type Client struct {
	provider ai.Provider
	cfg      config.Config
	store    *storage.Store
	log      observability.Logger
	sem      chan struct{}

	mu        sync.RWMutex
	callbacks []registeredCallback
	nextCBID  int
}

// Option customizes client construction.
type Option func(*Client)

// WithLogger sets the logger used by the pipeline. Defaults to a no-op.
func WithLogger(log observability.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithStore overrides the file store backing the cache gate. By default
// the store roots at the configured StoragePath.
func WithStore(store *storage.Store) Option {
	return func(c *Client) { c.store = store }
}

// New builds a client around an already-constructed provider. The binding
// of APIType to a concrete provider happens at the package facade.
func New(provider ai.Provider, cfg config.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	maxTasks := cfg.MaxConcurrentTasks
	if maxTasks <= 0 {
		maxTasks = runtime.NumCPU() * 2
	}

	c := &Client{
		provider: provider,
		cfg:      cfg,
		log:      observability.Nop(),
		sem:      make(chan struct{}, maxTasks),
	}
	if cfg.StoragePath != "" {
		c.store = storage.New(cfg.StoragePath)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns the configuration the client was built with.
func (c *Client) Config() config.Config {
	return c.cfg
}

// logger prefers a context-carried logger over the client's own, so one
// request can be traced without reconfiguring the client.
func (c *Client) logger(ctx context.Context) observability.Logger {
	if log, ok := observability.LoggerFrom(ctx); ok {
		return log
	}
	return c.log
}

// RegisterCallback adds a client-scoped chunk observer and returns its
// unregister function.
func (c *Client) RegisterCallback(cb Callback) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextCBID
	c.nextCBID++
	c.callbacks = append(c.callbacks, registeredCallback{id: id, fn: cb})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, reg := range c.callbacks {
			if reg.id == id {
				c.callbacks = append(c.callbacks[:i], c.callbacks[i+1:]...)
				return
			}
		}
	}
}

// Ask sends a single user prompt through the pipeline.
func (c *Client) Ask(ctx context.Context, prompt string, opts ...AskOption) (*Response, error) {
	return c.AskMessages(ctx, []ai.Message{ai.UserMessage(prompt)}, opts...)
}

// AskMessages sends a full conversation through the pipeline: cache gate,
// retry controller, provider adapter, stream assembler.
func (c *Client) AskMessages(ctx context.Context, messages []ai.Message, opts ...AskOption) (*Response, error) {
	o, err := c.resolve(opts)
	if err != nil {
		return nil, err
	}

	req := ai.ChatRequest{
		Model:    o.model,
		Messages: messages,
		Args:     o.args,
	}

	var key string
	if o.cache && c.store != nil {
		key, err = c.cacheKey(req)
		if err != nil {
			return nil, err
		}
		if cached, ok := c.readCache(o.cachePrefix, key); ok {
			if o.parseJSON {
				if _, perr := cached.Parse(o.required...); perr != nil {
					// Stale malformed entry: drop it and go live.
					c.deleteCache(o.cachePrefix, key)
					c.logger(ctx).Debug(ctx, "evicted malformed cache entry",
						observability.String("key", key))
					return c.liveCall(ctx, req, o, key)
				}
			}
			c.logger(ctx).Debug(ctx, "cache hit", observability.String("key", key))
			return cached, nil
		}
	}

	return c.liveCall(ctx, req, o, key)
}

func (c *Client) liveCall(ctx context.Context, req ai.ChatRequest, o askOptions, key string) (*Response, error) {
	resp, err := c.callWithRetries(ctx, req, o)
	if err != nil {
		return nil, err
	}
	c.logger(ctx).Debug(ctx, "llm call complete",
		observability.String("model", req.Model),
		observability.Duration("duration", resp.GenDuration))
	if key != "" {
		if werr := c.writeCache(o.cachePrefix, key, resp); werr != nil {
			c.logger(ctx).Warn(ctx, "cache write failed", observability.Error(werr))
		}
	}
	return resp, nil
}

// callOnce performs exactly one provider call. Streaming is selected when
// a callback is registered or explicitly requested, the provider supports
// it, and the model's output can be streamed; otherwise the terminal path
// filters hidden segments from the full text and notifies callbacks once.
func (c *Client) callOnce(ctx context.Context, req ai.ChatRequest, o askOptions) (*Response, error) {
	callbacks := c.snapshotCallbacks(o)
	streamer, canStream := c.provider.(ai.StreamProvider)
	if canStream {
		if capability, ok := c.provider.(ai.StreamCapability); ok && !capability.CanStream(req.Model) {
			canStream = false
		}
	}
	wantStream := o.stream || len(callbacks) > 0

	start := time.Now()
	var (
		text string
		raw  *ai.ChatResponse
		err  error
	)

	if wantStream && canStream {
		req.Stream = true
		var stream *ai.ChatStream
		stream, err = streamer.StreamMessage(ctx, req)
		if err != nil {
			return nil, err
		}
		text, raw, err = c.assemble(ctx, req.Model, stream, callbacks)
		if err != nil {
			return nil, err
		}
	} else {
		raw, err = c.provider.SendMessage(ctx, req)
		if err != nil {
			return nil, err
		}
		text = c.removeHidden(raw.Content)
		for _, cb := range callbacks {
			cb(ctx, text)
		}
	}

	resp := &Response{
		Text:        text,
		Raw:         raw,
		GenDuration: time.Since(start),
	}
	if !c.cfg.SaveMemory {
		resp.Prompt = req.Messages
	}
	return resp, nil
}

func (c *Client) snapshotCallbacks(o askOptions) []Callback {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Callback, 0, len(c.callbacks)+len(o.callbacks))
	for _, reg := range c.callbacks {
		out = append(out, reg.fn)
	}
	out = append(out, o.callbacks...)
	return out
}
