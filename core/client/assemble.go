package client

import (
	"context"
	"strings"

	"github.com/avolkoff/microllm/providers/ai"
)

// hiddenFilter drops everything between a begin marker chunk and an end
// marker chunk. Markers match on exact chunk equality; a stream ending in
// the hiding state silently discards the trailing hidden fragment.
type hiddenFilter struct {
	begin  string
	end    string
	hiding bool
}

func (f *hiddenFilter) enabled() bool {
	return f.begin != "" && f.end != ""
}

// accept reports whether the chunk is visible output.
func (f *hiddenFilter) accept(chunk string) bool {
	if !f.enabled() {
		return true
	}
	if f.hiding {
		if chunk == f.end {
			f.hiding = false
		}
		return false
	}
	if chunk == f.begin {
		f.hiding = true
		return false
	}
	return true
}

// assemble drains the stream, filtering hidden segments and fanning each
// visible chunk out to the callbacks one at a time so observers see chunks
// in order. The returned payload is synthesized from the final stream state.
func (c *Client) assemble(ctx context.Context, model string, stream *ai.ChatStream, callbacks []Callback) (string, *ai.ChatResponse, error) {
	filter := c.newHiddenFilter()
	raw := &ai.ChatResponse{Model: model}
	var text strings.Builder

	for event, err := range stream.Iter() {
		if err != nil {
			return "", nil, err
		}
		switch event.Type {
		case ai.StreamEventContent:
			if !filter.accept(event.Content) {
				continue
			}
			text.WriteString(event.Content)
			for _, cb := range callbacks {
				cb(ctx, event.Content)
			}
		case ai.StreamEventUsage:
			raw.Usage = event.Usage
		case ai.StreamEventDone:
			raw.FinishReason = event.FinishReason
		}
	}

	raw.Content = text.String()
	return raw.Content, raw, nil
}

func (c *Client) newHiddenFilter() *hiddenFilter {
	return &hiddenFilter{begin: c.cfg.HiddenOutputBegin, end: c.cfg.HiddenOutputEnd}
}

// removeHidden strips hidden segments from terminal (non-streamed) output,
// where markers arrive embedded in the full text rather than as standalone
// chunks. An unterminated segment is dropped to the end of the text.
func (c *Client) removeHidden(text string) string {
	begin, end := c.cfg.HiddenOutputBegin, c.cfg.HiddenOutputEnd
	if begin == "" || end == "" {
		return text
	}

	var out strings.Builder
	for {
		i := strings.Index(text, begin)
		if i < 0 {
			out.WriteString(text)
			return out.String()
		}
		out.WriteString(text[:i])
		rest := text[i+len(begin):]
		j := strings.Index(rest, end)
		if j < 0 {
			return out.String()
		}
		text = rest[j+len(end):]
	}
}
