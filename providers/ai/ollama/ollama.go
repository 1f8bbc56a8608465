// Package ollama implements the [ai.Provider] contract for a local or
// remote Ollama server, built on github.com/ollama/ollama/api.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/avolkoff/microllm/providers/ai"
)

// Provider implements ai.Provider, ai.StreamProvider and ai.ErrorClassifier
// for the Ollama backend.
type Provider struct {
	client *api.Client
	model  string
}

// New creates an Ollama provider. When host is empty the client is built
// from the environment (OLLAMA_HOST, defaulting to http://localhost:11434).
func New(host, model string) (*Provider, error) {
	var client *api.Client
	if host != "" {
		base, err := parseHost(host)
		if err != nil {
			return nil, fmt.Errorf("ollama: invalid host: %w", err)
		}
		client = api.NewClient(base, &http.Client{})
	} else {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("ollama: create client: %w", err)
		}
	}
	return &Provider{client: client, model: model}, nil
}

var (
	_ ai.Provider        = (*Provider)(nil)
	_ ai.StreamProvider  = (*Provider)(nil)
	_ ai.ErrorClassifier = (*Provider)(nil)
)

func parseHost(host string) (*url.URL, error) {
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return url.Parse(host)
}

// SendMessage implements ai.Provider.
func (p *Provider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	chatReq, err := p.buildChatRequest(request, false)
	if err != nil {
		return nil, err
	}

	var final api.ChatResponse
	var content strings.Builder
	err = p.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		final = resp
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ai.ChatResponse{
		Model:        final.Model,
		Content:      content.String(),
		FinishReason: final.DoneReason,
		Usage: &ai.Usage{
			PromptTokens:     final.PromptEvalCount,
			CompletionTokens: final.EvalCount,
			TotalTokens:      final.PromptEvalCount + final.EvalCount,
		},
	}, nil
}

func (p *Provider) buildChatRequest(request ai.ChatRequest, stream bool) (*api.ChatRequest, error) {
	model := request.Model
	if model == "" {
		model = p.model
	}
	if model == "" {
		return nil, fmt.Errorf("ollama: model is required")
	}

	messages := make([]api.Message, 0, len(request.Messages))
	for _, msg := range request.Messages {
		messages = append(messages, api.Message{
			Role:    string(msg.Role),
			Content: messageText(msg),
		})
	}

	return &api.ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   &stream,
		Options:  toOptions(request.Args),
	}, nil
}

func messageText(msg ai.Message) string {
	if len(msg.Parts) == 0 {
		return msg.Content
	}
	var b strings.Builder
	for _, part := range msg.Parts {
		if part.Text != "" {
			b.WriteString(part.Text)
		} else if part.AttachmentURL != "" {
			b.WriteString(part.AttachmentURL)
		}
	}
	return b.String()
}

// toOptions translates common argument names into Ollama model options.
// Unknown keys pass through unchanged so model-specific options keep working.
func toOptions(args map[string]any) map[string]any {
	if len(args) == 0 {
		return map[string]any{}
	}
	options := make(map[string]any, len(args))
	for k, v := range args {
		if k == "max_tokens" {
			k = "num_predict"
		}
		options[k] = v
	}
	return options
}
