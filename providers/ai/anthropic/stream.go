package anthropic

import (
	"context"

	anthropic "github.com/anthropics/anthropic-sdk-go"

	"github.com/avolkoff/microllm/providers/ai"
)

// StreamMessage implements ai.StreamProvider using the SSE Messages stream.
func (p *Provider) StreamMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	params, err := p.buildParams(request)
	if err != nil {
		return nil, err
	}

	stream := p.client.Messages.NewStreaming(ctx, params)
	if err := stream.Err(); err != nil {
		return nil, err
	}

	return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
		defer stream.Close()

		usage := &ai.Usage{}
		finishReason := ""

		for stream.Next() {
			if ctx.Err() != nil {
				yield(ai.StreamEvent{}, ctx.Err())
				return
			}

			switch event := stream.Current().AsAny().(type) {
			case anthropic.MessageStartEvent:
				usage.PromptTokens = int(event.Message.Usage.InputTokens)
			case anthropic.ContentBlockDeltaEvent:
				delta, ok := event.Delta.AsAny().(anthropic.TextDelta)
				if !ok || delta.Text == "" {
					continue
				}
				if !yield(ai.StreamEvent{Type: ai.StreamEventContent, Content: delta.Text}, nil) {
					return
				}
			case anthropic.MessageDeltaEvent:
				usage.CompletionTokens = int(event.Usage.OutputTokens)
				if event.Delta.StopReason != "" {
					finishReason = string(event.Delta.StopReason)
				}
			}
		}

		if err := stream.Err(); err != nil {
			yield(ai.StreamEvent{}, err)
			return
		}

		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
		if !yield(ai.StreamEvent{Type: ai.StreamEventUsage, Usage: usage}, nil) {
			return
		}
		yield(ai.StreamEvent{Type: ai.StreamEventDone, FinishReason: finishReason}, nil)
	}), nil
}
