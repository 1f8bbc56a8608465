// Package config holds the process-wide configuration surface of the
// library: backend selection, credentials, model identity, default call
// arguments and the tuning knobs of the invocation pipeline. A Config is
// assembled once at startup — from the environment via [FromEnv] or from a
// YAML file via [FromYAML] — validated, and then treated as immutable; its
// snapshot participates in cache key derivation.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// APIType selects the backend family an application talks to. The set is
// closed: each value maps to exactly one adapter package, bound once at
// configuration time.
type APIType string

const (
	APITypeOpenAI    APIType = "openai"
	APITypeAnthropic APIType = "anthropic"
	APITypeOllama    APIType = "ollama"
)

// ErrAPIKeyMissing is returned by Validate when a remote backend is selected
// without credentials.
var ErrAPIKeyMissing = errors.New("config: LLM_API_KEY is absent")

// Config is the full configuration surface relevant to the invocation
// pipeline.
type Config struct {
	APIType APIType `yaml:"api_type" json:"api_type"`
	APIKey  string  `yaml:"api_key" json:"-"`
	APIBase string  `yaml:"api_base" json:"api_base,omitempty"`
	Model   string  `yaml:"model" json:"model"`

	// DefaultArgs are sampling parameters merged under explicit per-call
	// options; an explicit option always wins.
	DefaultArgs map[string]any `yaml:"default_args" json:"default_args,omitempty"`

	// MaxConcurrentTasks bounds batch fan-out. Zero or negative falls
	// back to twice the CPU count.
	MaxConcurrentTasks int `yaml:"max_concurrent_tasks" json:"max_concurrent_tasks,omitempty"`

	// HiddenOutputBegin/End mark model-emitted segments that must not reach
	// the caller (internal reasoning traces and similar). Hiding is active
	// only when both markers are non-empty.
	HiddenOutputBegin string `yaml:"hidden_output_begin" json:"hidden_output_begin,omitempty"`
	HiddenOutputEnd   string `yaml:"hidden_output_end" json:"hidden_output_end,omitempty"`

	// SaveMemory suppresses retaining the original request on each response.
	SaveMemory bool `yaml:"save_memory" json:"save_memory,omitempty"`

	// StoragePath is the root directory of the file store (cache included).
	StoragePath string `yaml:"storage_path" json:"storage_path,omitempty"`

	// Retries is the default retry budget applied when a call does not
	// specify its own.
	Retries int `yaml:"retries" json:"retries,omitempty"`
}

// FromEnv assembles a Config from environment variables, loading a .env file
// from the working directory first when one exists.
func FromEnv() (*Config, error) {
	// A missing .env file is fine; explicit environment still applies.
	_ = godotenv.Load()

	cfg := &Config{
		APIType:           APIType(os.Getenv("LLM_API_TYPE")),
		APIKey:            os.Getenv("LLM_API_KEY"),
		APIBase:           os.Getenv("LLM_API_BASE"),
		Model:             os.Getenv("MODEL"),
		HiddenOutputBegin: os.Getenv("HIDDEN_OUTPUT_BEGIN"),
		HiddenOutputEnd:   os.Getenv("HIDDEN_OUTPUT_END"),
		StoragePath:       os.Getenv("STORAGE_PATH"),
	}

	if raw := os.Getenv("LLM_DEFAULT_ARGS"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &cfg.DefaultArgs); err != nil {
			return nil, fmt.Errorf("config: LLM_DEFAULT_ARGS is not valid JSON: %w", err)
		}
	}
	var err error
	if cfg.MaxConcurrentTasks, err = intEnv("MAX_CONCURRENT_TASKS"); err != nil {
		return nil, err
	}
	if cfg.Retries, err = intEnv("LLM_RETRIES"); err != nil {
		return nil, err
	}
	if raw := os.Getenv("SAVE_MEMORY"); raw != "" {
		cfg.SaveMemory, err = strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("config: SAVE_MEMORY: %w", err)
		}
	}

	cfg.applyDefaults()
	return cfg, nil
}

// FromYAML assembles a Config from a YAML file.
func FromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func intEnv(name string) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", name, err)
	}
	return n, nil
}

// applyDefaults fills backend-dependent defaults: credentials fall back to
// the vendor-specific environment variables, and each backend family gets a
// conventional default model.
func (c *Config) applyDefaults() {
	if c.StoragePath == "" {
		c.StoragePath = "storage"
	}

	switch c.APIType {
	case APITypeAnthropic:
		if c.APIKey == "" {
			c.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if c.Model == "" {
			c.Model = "claude-3-5-sonnet-latest"
		}
	case APITypeOllama:
		if c.APIBase == "" {
			c.APIBase = os.Getenv("OLLAMA_HOST")
		}
	case APITypeOpenAI, "":
		if c.APIType == "" {
			c.APIType = APITypeOpenAI
		}
		if c.APIKey == "" {
			c.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if c.APIBase == "" {
			c.APIBase = os.Getenv("OPENAI_API_BASE")
		}
		if c.Model == "" {
			c.Model = "gpt-4o-mini"
		}
	}
}

// Validate checks that the configuration is complete enough to bind a
// backend adapter.
func (c *Config) Validate() error {
	switch c.APIType {
	case APITypeOpenAI, APITypeAnthropic:
		if c.APIKey == "" {
			return ErrAPIKeyMissing
		}
	case APITypeOllama:
		// Local backend, no credentials required.
	default:
		return fmt.Errorf("config: unknown api type %q", c.APIType)
	}
	if (c.HiddenOutputBegin == "") != (c.HiddenOutputEnd == "") {
		return errors.New("config: hidden output markers must be set together")
	}
	return nil
}
