// Package anthropic implements the [ai.Provider] contract for the Anthropic
// Messages API, built on github.com/anthropics/anthropic-sdk-go. The adapter
// performs exactly one network call per invocation and propagates SDK errors
// unchanged; classification lives in [Provider.ClassifyError].
package anthropic

import (
	"context"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/avolkoff/microllm/providers/ai"
)

// The Messages API requires max_tokens on every request; this default
// applies when the caller's args carry none.
const defaultMaxTokens = 1024

// Provider implements ai.Provider, ai.StreamProvider and ai.ErrorClassifier
// for the Anthropic backend.
type Provider struct {
	client *anthropic.Client
	model  string
}

// New creates an Anthropic provider. apiKey is required; baseURL overrides
// the default endpoint; model is the default used when a request does not
// name one.
func New(apiKey, baseURL, model string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic: api key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	client := anthropic.NewClient(opts...)
	return &Provider{client: &client, model: model}, nil
}

var (
	_ ai.Provider        = (*Provider)(nil)
	_ ai.StreamProvider  = (*Provider)(nil)
	_ ai.ErrorClassifier = (*Provider)(nil)
)

// SendMessage implements ai.Provider.
func (p *Provider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	params, err := p.buildParams(request)
	if err != nil {
		return nil, err
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, err
	}

	var content strings.Builder
	for _, blockUnion := range message.Content {
		if block, ok := blockUnion.AsAny().(anthropic.TextBlock); ok {
			content.WriteString(block.Text)
		}
	}

	return &ai.ChatResponse{
		ID:           message.ID,
		Model:        string(message.Model),
		Content:      content.String(),
		FinishReason: string(message.StopReason),
		Usage: &ai.Usage{
			PromptTokens:     int(message.Usage.InputTokens),
			CompletionTokens: int(message.Usage.OutputTokens),
			TotalTokens:      int(message.Usage.InputTokens + message.Usage.OutputTokens),
		},
	}, nil
}

// buildParams converts the normalized request into Messages API params.
// System messages go into the dedicated System field; the remaining turns
// become user/assistant text blocks.
func (p *Provider) buildParams(request ai.ChatRequest) (anthropic.MessageNewParams, error) {
	model := request.Model
	if model == "" {
		model = p.model
	}
	if model == "" {
		return anthropic.MessageNewParams{}, fmt.Errorf("anthropic: model is required")
	}

	var system []anthropic.TextBlockParam
	var messages []anthropic.MessageParam

	for _, msg := range request.Messages {
		text := messageText(msg)
		switch msg.Role {
		case ai.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: text})
		case ai.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(text)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: defaultMaxTokens,
		Messages:  messages,
		System:    system,
	}
	applyArgs(&params, request.Args)
	return params, nil
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
			// Attachments are passed through as references; the Messages
			// API fetches URLs it understands.
			b.WriteString(part.AttachmentURL)
		}
	}
	return b.String()
}

func applyArgs(params *anthropic.MessageNewParams, args map[string]any) {
	if v, ok := argFloat(args, "temperature"); ok {
		params.Temperature = anthropic.Float(v)
	}
	if v, ok := argFloat(args, "top_p"); ok {
		params.TopP = anthropic.Float(v)
	}
	if v, ok := argInt(args, "max_tokens"); ok {
		params.MaxTokens = int64(v)
	}
	switch stop := args["stop"].(type) {
	case string:
		params.StopSequences = []string{stop}
	case []string:
		params.StopSequences = stop
	}
}

func argFloat(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func argInt(args map[string]any, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}
