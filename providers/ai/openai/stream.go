package openai

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/avolkoff/microllm/providers/ai"
)

// StreamMessage implements ai.StreamProvider. It opens a chat completion
// stream and returns a ChatStream yielding one content event per delta as
// SSE events arrive, a usage event at the end (the API sends usage as the
// final chunk when requested), and a done event with the finish reason.
//
// Image models cannot stream; requesting a stream for one falls back to the
// terminal call wrapped as a single-event stream.
func (p *Provider) StreamMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	model := p.resolveModel(request)
	if model == "" {
		return nil, fmt.Errorf("openai: model is required")
	}

	if IsImageModel(model) {
		response, err := p.SendMessage(ctx, request)
		if err != nil {
			return nil, err
		}
		return ai.NewSingleEventStream(response), nil
	}

	chatReq := p.buildChatRequest(model, request)
	chatReq.Stream = true
	chatReq.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	stream, err := p.client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		return nil, err
	}

	iteratorFunc := func(yield func(ai.StreamEvent, error) bool) {
		defer stream.Close()

		finishReason := ""
		for {
			if ctx.Err() != nil {
				yield(ai.StreamEvent{}, ctx.Err())
				return
			}

			chunk, recvErr := stream.Recv()
			if errors.Is(recvErr, io.EOF) {
				yield(ai.StreamEvent{Type: ai.StreamEventDone, FinishReason: finishReason}, nil)
				return
			}
			if recvErr != nil {
				yield(ai.StreamEvent{}, recvErr)
				return
			}

			if chunk.Usage != nil {
				event := ai.StreamEvent{Type: ai.StreamEventUsage, Usage: &ai.Usage{
					PromptTokens:     chunk.Usage.PromptTokens,
					CompletionTokens: chunk.Usage.CompletionTokens,
					TotalTokens:      chunk.Usage.TotalTokens,
				}}
				if !yield(event, nil) {
					return
				}
			}

			// Azure-style gateways send a first chunk with empty choices.
			if len(chunk.Choices) == 0 {
				continue
			}
			choice := chunk.Choices[0]
			if choice.FinishReason != "" {
				finishReason = string(choice.FinishReason)
			}
			if choice.Delta.Content == "" {
				continue
			}
			if !yield(ai.StreamEvent{Type: ai.StreamEventContent, Content: choice.Delta.Content}, nil) {
				return
			}
		}
	}

	return ai.NewChatStream(iteratorFunc), nil
}
