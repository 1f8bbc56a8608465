package client

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/avolkoff/microllm/config"
	"github.com/avolkoff/microllm/providers/ai"
)

// fakeProvider answers SendMessage through a test-supplied reply function
// and counts invocations.
type fakeProvider struct {
	mu    sync.Mutex
	calls int
	reply func(call int, req ai.ChatRequest) (*ai.ChatResponse, error)
}

func (f *fakeProvider) SendMessage(_ context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	f.mu.Lock()
	call := f.calls
	f.calls++
	f.mu.Unlock()
	return f.reply(call, req)
}

func (f *fakeProvider) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// replies builds a reply function that consumes the given outcomes in
// order, repeating the last one.
func replies(outcomes ...fakeOutcome) func(int, ai.ChatRequest) (*ai.ChatResponse, error) {
	return func(call int, req ai.ChatRequest) (*ai.ChatResponse, error) {
		if call >= len(outcomes) {
			call = len(outcomes) - 1
		}
		o := outcomes[call]
		if o.err != nil {
			return nil, o.err
		}
		return &ai.ChatResponse{Model: req.Model, Content: o.content}, nil
	}
}

type fakeOutcome struct {
	content string
	err     error
}

// echoProvider replies with the last user message, for positional checks.
func echoProvider() *fakeProvider {
	return &fakeProvider{reply: func(_ int, req ai.ChatRequest) (*ai.ChatResponse, error) {
		last := req.Messages[len(req.Messages)-1]
		return &ai.ChatResponse{Model: req.Model, Content: last.Content}, nil
	}}
}

// streamingProvider yields scripted chunks on the streaming path.
type streamingProvider struct {
	fakeProvider
	chunks []string
}

func (s *streamingProvider) StreamMessage(_ context.Context, req ai.ChatRequest) (*ai.ChatStream, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
		for _, chunk := range s.chunks {
			if !yield(ai.StreamEvent{Type: ai.StreamEventContent, Content: chunk}, nil) {
				return
			}
		}
		yield(ai.StreamEvent{Type: ai.StreamEventDone, FinishReason: "stop"}, nil)
	}), nil
}

// imageProvider can stream in general but reports every model as
// non-streamable, the way an image-generation backend does. It counts
// stream opens separately so tests can assert the path taken.
type imageProvider struct {
	fakeProvider
	streamCalls int
}

func (p *imageProvider) StreamMessage(context.Context, ai.ChatRequest) (*ai.ChatStream, error) {
	p.mu.Lock()
	p.streamCalls++
	p.mu.Unlock()
	return ai.NewSingleEventStream(&ai.ChatResponse{}), nil
}

func (p *imageProvider) CanStream(string) bool { return false }

// classifyingProvider adds a test-supplied classifier to a fakeProvider.
type classifyingProvider struct {
	fakeProvider
	classify func(err error, model string) error
}

func (p *classifyingProvider) ClassifyError(err error, model string) error {
	return p.classify(err, model)
}

func testConfig() config.Config {
	return config.Config{
		APIType: config.APITypeOllama,
		Model:   "test-model",
	}
}

func testClient(t *testing.T, provider ai.Provider, cfg config.Config, opts ...Option) *Client {
	t.Helper()
	c, err := New(provider, cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestAskTerminalPath(t *testing.T) {
	provider := &fakeProvider{reply: replies(fakeOutcome{content: "hello"})}
	c := testClient(t, provider, testConfig())

	resp, err := c.Ask(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if resp.Text != "hello" {
		t.Errorf("Text = %q", resp.Text)
	}
	if resp.FromCache {
		t.Error("live response marked as cached")
	}
	if resp.GenDuration <= 0 {
		t.Error("GenDuration not set")
	}
	if len(resp.Prompt) != 1 || resp.Prompt[0].Content != "hi" {
		t.Errorf("Prompt not retained: %+v", resp.Prompt)
	}
	if resp.Continuation == nil {
		t.Fatal("Continuation missing")
	}
	if provider.count() != 1 {
		t.Errorf("provider called %d times", provider.count())
	}
}

func TestAskSaveMemorySuppressesPrompt(t *testing.T) {
	provider := &fakeProvider{reply: replies(fakeOutcome{content: "x"})}
	cfg := testConfig()
	cfg.SaveMemory = true
	c := testClient(t, provider, cfg)

	resp, err := c.Ask(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if resp.Prompt != nil {
		t.Errorf("Prompt retained despite SaveMemory: %+v", resp.Prompt)
	}
}

func TestAskDefaultArgsMergedUnderExplicit(t *testing.T) {
	var seen map[string]any
	provider := &fakeProvider{reply: func(_ int, req ai.ChatRequest) (*ai.ChatResponse, error) {
		seen = req.Args
		return &ai.ChatResponse{Content: "ok"}, nil
	}}
	cfg := testConfig()
	cfg.DefaultArgs = map[string]any{"temperature": 0.5, "top_p": 0.9}
	c := testClient(t, provider, cfg)

	_, err := c.Ask(context.Background(), "hi", WithArgs(map[string]any{"temperature": 1.0}))
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if seen["temperature"] != 1.0 {
		t.Errorf("explicit arg lost: temperature = %v", seen["temperature"])
	}
	if seen["top_p"] != 0.9 {
		t.Errorf("default arg not merged: top_p = %v", seen["top_p"])
	}
}

func TestAskModelOverride(t *testing.T) {
	var seen string
	provider := &fakeProvider{reply: func(_ int, req ai.ChatRequest) (*ai.ChatResponse, error) {
		seen = req.Model
		return &ai.ChatResponse{Content: "ok"}, nil
	}}
	c := testClient(t, provider, testConfig())

	if _, err := c.Ask(context.Background(), "hi", WithModel("other-model")); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if seen != "other-model" {
		t.Errorf("model = %q", seen)
	}
}

func TestTerminalPathInvokesCallbacksOnce(t *testing.T) {
	provider := &fakeProvider{reply: replies(fakeOutcome{content: "full text"})}
	c := testClient(t, provider, testConfig())

	var got []string
	unregister := c.RegisterCallback(func(_ context.Context, chunk string) {
		got = append(got, chunk)
	})
	defer unregister()

	// A registered callback normally selects streaming; this provider
	// cannot stream, so the terminal path must notify with the full text.
	if _, err := c.Ask(context.Background(), "hi"); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if len(got) != 1 || got[0] != "full text" {
		t.Errorf("callback invocations = %q", got)
	}
}

func TestNonStreamableModelKeepsTerminalPayload(t *testing.T) {
	provider := &imageProvider{fakeProvider: fakeProvider{
		reply: func(_ int, req ai.ChatRequest) (*ai.ChatResponse, error) {
			return &ai.ChatResponse{
				Model:  req.Model,
				Images: []string{"https://img.example/cat.png"},
			}, nil
		},
	}}
	c := testClient(t, provider, testConfig())

	var notified int
	unregister := c.RegisterCallback(func(context.Context, string) { notified++ })
	defer unregister()

	// The registered callback would normally select streaming, but the
	// provider reports the model as non-streamable, so the call must go
	// through the terminal path and keep the image payload.
	resp, err := c.Ask(context.Background(), "a cat")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if provider.streamCalls != 0 {
		t.Errorf("stream opened %d times, want 0", provider.streamCalls)
	}
	if len(resp.Raw.Images) != 1 || resp.Raw.Images[0] != "https://img.example/cat.png" {
		t.Errorf("images = %v", resp.Raw.Images)
	}
	if notified != 1 {
		t.Errorf("callback invocations = %d, want 1", notified)
	}
}

func TestRegisterCallbackUnregister(t *testing.T) {
	provider := &streamingProvider{chunks: []string{"a", "b"}}
	c := testClient(t, provider, testConfig())

	var first, second []string
	unregister := c.RegisterCallback(func(_ context.Context, chunk string) {
		first = append(first, chunk)
	})
	c.RegisterCallback(func(_ context.Context, chunk string) {
		second = append(second, chunk)
	})

	if _, err := c.Ask(context.Background(), "hi"); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	unregister()
	if _, err := c.Ask(context.Background(), "hi"); err != nil {
		t.Fatalf("Ask: %v", err)
	}

	if len(first) != 2 {
		t.Errorf("unregistered callback still invoked: %q", first)
	}
	if len(second) != 4 {
		t.Errorf("remaining callback missed chunks: %q", second)
	}
}

func TestCallbackOrdering(t *testing.T) {
	provider := &streamingProvider{chunks: []string{"x", "y"}}
	c := testClient(t, provider, testConfig())

	var sequence []string
	for _, id := range []string{"first", "second"} {
		id := id
		c.RegisterCallback(func(_ context.Context, chunk string) {
			sequence = append(sequence, fmt.Sprintf("%s:%s", id, chunk))
		})
	}

	if _, err := c.Ask(context.Background(), "hi"); err != nil {
		t.Fatalf("Ask: %v", err)
	}

	want := []string{"first:x", "second:x", "first:y", "second:y"}
	if len(sequence) != len(want) {
		t.Fatalf("sequence = %q", sequence)
	}
	for i := range want {
		if sequence[i] != want[i] {
			t.Fatalf("sequence = %q, want %q", sequence, want)
		}
	}
}

func TestAskParseJSONRetriesOnMalformedContent(t *testing.T) {
	provider := &fakeProvider{reply: replies(
		fakeOutcome{content: "sorry, I cannot do that"},
		fakeOutcome{content: `{"answer": 42}`},
	)}
	c := testClient(t, provider, testConfig())

	resp, err := c.Ask(context.Background(), "hi", WithParseJSON("answer"), WithRetries(1))
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if provider.count() != 2 {
		t.Errorf("provider called %d times, want 2", provider.count())
	}
	value, err := resp.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if value.(map[string]any)["answer"] != float64(42) {
		t.Errorf("parsed value = %v", value)
	}
}
