package ollama

import (
	"context"
	"errors"

	"github.com/ollama/ollama/api"

	"github.com/avolkoff/microllm/providers/ai"
)

// errStopStream aborts the Chat callback loop once the consumer stops
// iterating. It never escapes the iterator.
var errStopStream = errors.New("stream consumer stopped")

// StreamMessage implements ai.StreamProvider. The Chat call runs inside the
// iterator, so no work happens until the stream is consumed.
func (p *Provider) StreamMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	chatReq, err := p.buildChatRequest(request, true)
	if err != nil {
		return nil, err
	}

	return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
		usage := &ai.Usage{}
		finishReason := ""

		err := p.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
			if resp.Message.Content != "" {
				event := ai.StreamEvent{Type: ai.StreamEventContent, Content: resp.Message.Content}
				if !yield(event, nil) {
					return errStopStream
				}
			}
			if resp.Done {
				usage.PromptTokens = resp.PromptEvalCount
				usage.CompletionTokens = resp.EvalCount
				usage.TotalTokens = resp.PromptEvalCount + resp.EvalCount
				finishReason = resp.DoneReason
			}
			return nil
		})
		if errors.Is(err, errStopStream) {
			return
		}
		if err != nil {
			yield(ai.StreamEvent{}, err)
			return
		}

		if !yield(ai.StreamEvent{Type: ai.StreamEventUsage, Usage: usage}, nil) {
			return
		}
		yield(ai.StreamEvent{Type: ai.StreamEventDone, FinishReason: finishReason}, nil)
	}), nil
}
