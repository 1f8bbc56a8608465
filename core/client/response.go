package client

import (
	"regexp"
	"strconv"
	"time"

	"github.com/avolkoff/microllm/core/llmerr"
	"github.com/avolkoff/microllm/core/parse"
	"github.com/avolkoff/microllm/providers/ai"
)

// Response is the normalized result of one invocation. Text equals the
// ordered concatenation of the chunks accepted after hidden-segment
// removal; Raw preserves the backend payload.
type Response struct {
	// Text is the assembled visible output.
	Text string

	// Raw is the backend payload as returned by the adapter. For streamed
	// calls it is synthesized from the final stream state.
	Raw *ai.ChatResponse

	// GenDuration is the wall time of the live call. Zero for cache hits.
	GenDuration time.Duration

	// FromCache reports whether the response was served from the file cache.
	FromCache bool

	// Prompt holds the request messages, unless the configuration's
	// SaveMemory flag suppresses retention.
	Prompt []ai.Message

	// Continuation resumes retrying with the budget left over from the
	// call that produced this response. Nil for cache hits.
	Continuation *Continuation
}

func (r *Response) String() string {
	return r.Text
}

// Parse extracts a structured value from the response text using the
// repair ladder, optionally requiring top-level fields.
func (r *Response) Parse(required ...string) (any, error) {
	return parse.Parse(r.Text, required...)
}

// NumberPosition selects which numeric match ParseNumber returns.
type NumberPosition int

const (
	FirstNumber NumberPosition = iota
	LastNumber
)

var reNumber = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// ParseNumber extracts a numeric value from free-form response text.
func (r *Response) ParseNumber(position NumberPosition) (float64, error) {
	matches := reNumber.FindAllString(r.Text, -1)
	if len(matches) == 0 {
		return 0, &llmerr.MalformedOutputError{Text: r.Text, Reason: "no number found"}
	}
	match := matches[0]
	if position == LastNumber {
		match = matches[len(matches)-1]
	}
	return strconv.ParseFloat(match, 64)
}
