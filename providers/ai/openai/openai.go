// Package openai implements the [ai.Provider] contract for the OpenAI API
// and OpenAI-compatible endpoints, built on github.com/sashabaranov/go-openai.
// The adapter performs exactly one network call per invocation and propagates
// SDK errors unchanged; classification lives in [Provider.ClassifyError].
package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/avolkoff/microllm/providers/ai"
)

// Provider implements ai.Provider, ai.StreamProvider and ai.ErrorClassifier
// for the OpenAI backend family.
type Provider struct {
	client *openai.Client
	model  string // default model when the request carries none
}

// New creates an OpenAI provider. apiKey is required; baseURL overrides the
// default endpoint (useful for OpenAI-compatible gateways); model is the
// default used when a request does not name one.
func New(apiKey, baseURL, model string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &Provider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

var (
	_ ai.Provider         = (*Provider)(nil)
	_ ai.StreamProvider   = (*Provider)(nil)
	_ ai.StreamCapability = (*Provider)(nil)
	_ ai.ErrorClassifier  = (*Provider)(nil)
)

// CanStream implements ai.StreamCapability. Image models produce URLs or
// base64 payloads rather than text deltas, so they have no stream form.
func (p *Provider) CanStream(model string) bool {
	if model == "" {
		model = p.model
	}
	return !IsImageModel(model)
}

// SendMessage implements ai.Provider. Image models are routed to the image
// generation endpoint; everything else goes through chat completions.
func (p *Provider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	model := p.resolveModel(request)
	if model == "" {
		return nil, fmt.Errorf("openai: model is required")
	}

	if IsImageModel(model) {
		return p.generateImage(ctx, model, request)
	}

	chatReq := p.buildChatRequest(model, request)

	chatResp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, err
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("openai: no choices in response")
	}

	choice := chatResp.Choices[0]
	return &ai.ChatResponse{
		ID:           chatResp.ID,
		Model:        chatResp.Model,
		Created:      chatResp.Created,
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: &ai.Usage{
			PromptTokens:     chatResp.Usage.PromptTokens,
			CompletionTokens: chatResp.Usage.CompletionTokens,
			TotalTokens:      chatResp.Usage.TotalTokens,
		},
	}, nil
}

// IsImageModel reports whether the model targets image generation rather
// than text. Image calls always use the terminal path: there is nothing to
// stream.
func IsImageModel(model string) bool {
	return strings.HasPrefix(model, "dall-e") || strings.HasPrefix(model, "gpt-image")
}

func (p *Provider) resolveModel(request ai.ChatRequest) string {
	if request.Model != "" {
		return request.Model
	}
	return p.model
}

func (p *Provider) buildChatRequest(model string, request ai.ChatRequest) openai.ChatCompletionRequest {
	chatReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: toMessages(request.Messages),
	}
	applyArgs(&chatReq, request.Args)
	return chatReq
}

func (p *Provider) generateImage(ctx context.Context, model string, request ai.ChatRequest) (*ai.ChatResponse, error) {
	prompt := promptText(request.Messages)

	imgReq := openai.ImageRequest{
		Model:  model,
		Prompt: prompt,
		N:      1,
	}
	if size, ok := request.Args["size"].(string); ok {
		imgReq.Size = size
	}

	imgResp, err := p.client.CreateImage(ctx, imgReq)
	if err != nil {
		return nil, err
	}

	images := make([]string, 0, len(imgResp.Data))
	for _, item := range imgResp.Data {
		if item.URL != "" {
			images = append(images, item.URL)
		} else {
			images = append(images, item.B64JSON)
		}
	}

	return &ai.ChatResponse{
		Model:   model,
		Created: imgResp.Created,
		Images:  images,
	}, nil
}

// promptText flattens a message sequence into a single prompt string for
// endpoints that do not accept a conversation.
func promptText(messages []ai.Message) string {
	parts := make([]string, 0, len(messages))
	for _, msg := range messages {
		if text := messageText(msg); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}

func messageText(msg ai.Message) string {
	if len(msg.Parts) == 0 {
		return msg.Content
	}
	var b strings.Builder
	for _, part := range msg.Parts {
		b.WriteString(part.Text)
	}
	return b.String()
}

func toMessages(messages []ai.Message) []openai.ChatCompletionMessage {
	converted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		out := openai.ChatCompletionMessage{Role: string(msg.Role)}

		if len(msg.Parts) == 0 {
			out.Content = msg.Content
		} else {
			for _, part := range msg.Parts {
				if part.AttachmentURL != "" {
					out.MultiContent = append(out.MultiContent, openai.ChatMessagePart{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: part.AttachmentURL},
					})
				} else {
					out.MultiContent = append(out.MultiContent, openai.ChatMessagePart{
						Type: openai.ChatMessagePartTypeText,
						Text: part.Text,
					})
				}
			}
		}

		converted = append(converted, out)
	}
	return converted
}

// applyArgs maps the known sampling parameters onto the SDK request.
// Unknown keys are ignored: the set a backend accepts is its own business.
func applyArgs(req *openai.ChatCompletionRequest, args map[string]any) {
	if v, ok := argFloat32(args, "temperature"); ok {
		req.Temperature = v
	}
	if v, ok := argFloat32(args, "top_p"); ok {
		req.TopP = v
	}
	if v, ok := argFloat32(args, "frequency_penalty"); ok {
		req.FrequencyPenalty = v
	}
	if v, ok := argFloat32(args, "presence_penalty"); ok {
		req.PresencePenalty = v
	}
	if v, ok := argInt(args, "max_tokens"); ok {
		req.MaxTokens = v
	}
	if v, ok := argInt(args, "seed"); ok {
		seed := v
		req.Seed = &seed
	}
	if v, ok := args["user"].(string); ok {
		req.User = v
	}
	switch stop := args["stop"].(type) {
	case string:
		req.Stop = []string{stop}
	case []string:
		req.Stop = stop
	case []any:
		for _, item := range stop {
			if s, ok := item.(string); ok {
				req.Stop = append(req.Stop, s)
			}
		}
	}
}

// Numeric args arrive as float64 when decoded from JSON configuration and as
// native ints or floats when set in code; both spellings are accepted.
func argFloat32(args map[string]any, key string) (float32, bool) {
	switch v := args[key].(type) {
	case float64:
		return float32(v), true
	case float32:
		return v, true
	case int:
		return float32(v), true
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
