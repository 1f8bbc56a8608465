// Package microllm is a foundation library for building applications on
// top of LLM network services. It normalizes heterogeneous backend
// protocols into one deterministic contract: streaming reconstruction,
// retry orchestration, content-addressed caching, cross-backend error
// classification, and best-effort structured-output recovery.
//
// The facade binds a configuration to a concrete backend adapter once, at
// construction time. Everything else lives in the subpackages:
// core/client for the pipeline, core/parse for extraction, core/llmerr
// for the error taxonomy, providers/ai/* for the adapters.
package microllm

import (
	"fmt"

	"github.com/avolkoff/microllm/config"
	"github.com/avolkoff/microllm/core/client"
	"github.com/avolkoff/microllm/providers/ai"
	"github.com/avolkoff/microllm/providers/ai/anthropic"
	"github.com/avolkoff/microllm/providers/ai/ollama"
	"github.com/avolkoff/microllm/providers/ai/openai"
)

// Re-exports for the common path, so simple callers import one package.
type (
	Client       = client.Client
	Response     = client.Response
	Result       = client.Result
	Callback     = client.Callback
	AskOption    = client.AskOption
	Continuation = client.Continuation
	Config       = config.Config
)

var (
	WithModel           = client.WithModel
	WithArgs            = client.WithArgs
	WithRetries         = client.WithRetries
	WithParseJSON       = client.WithParseJSON
	WithCache           = client.WithCache
	WithCachePrefix     = client.WithCachePrefix
	WithStream          = client.WithStream
	WithCallback        = client.WithCallback
	WithContinueOnError = client.WithContinueOnError
)

// New builds a client for the backend selected by cfg.APIType. Adding a
// backend means adding an adapter package and a case here.
func New(cfg config.Config, opts ...client.Option) (*client.Client, error) {
	provider, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	return client.New(provider, cfg, opts...)
}

// FromEnv builds a client from environment configuration, honoring a .env
// file in the working directory.
func FromEnv(opts ...client.Option) (*client.Client, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	return New(*cfg, opts...)
}

// NewProvider constructs the backend adapter for cfg without wrapping it
// in a pipeline client.
func NewProvider(cfg config.Config) (ai.Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.APIType {
	case config.APITypeOpenAI:
		return openai.New(cfg.APIKey, cfg.APIBase, cfg.Model)
	case config.APITypeAnthropic:
		return anthropic.New(cfg.APIKey, cfg.APIBase, cfg.Model)
	case config.APITypeOllama:
		return ollama.New(cfg.APIBase, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported api type %q", cfg.APIType)
	}
}
