// Package tokens provides caller-facing token estimation utilities. It is
// heuristic by design and stays outside the invocation pipeline's critical
// path; backends report authoritative counts in their usage payloads.
package tokens

import (
	"strings"
	"unicode/utf8"

	"github.com/avolkoff/microllm/providers/ai"
)

// DefaultCharsPerToken approximates English-text tokenization, where one
// token covers roughly four characters.
const DefaultCharsPerToken = 4.0

// Counter estimates token counts for text.
type Counter interface {
	Count(text string) int
	FitsInLimit(text string, limit int) bool
}

// EstimatingCounter estimates tokens from a character-to-token ratio.
type EstimatingCounter struct {
	CharsPerToken float64
}

// NewEstimatingCounter creates a counter with the default ratio.
func NewEstimatingCounter() *EstimatingCounter {
	return &EstimatingCounter{CharsPerToken: DefaultCharsPerToken}
}

// NewEstimatingCounterWithRatio creates a counter with a custom ratio.
// Ratios <= 0 fall back to the default.
func NewEstimatingCounterWithRatio(charsPerToken float64) *EstimatingCounter {
	if charsPerToken <= 0 {
		charsPerToken = DefaultCharsPerToken
	}
	return &EstimatingCounter{CharsPerToken: charsPerToken}
}

// Count estimates the number of tokens in text. Runes are counted rather
// than bytes so multi-byte scripts are not over-estimated.
func (c *EstimatingCounter) Count(text string) int {
	runes := utf8.RuneCountInString(text)
	return int(float64(runes)/c.CharsPerToken + 0.5)
}

// FitsInLimit reports whether text fits within the token limit.
func (c *EstimatingCounter) FitsInLimit(text string, limit int) bool {
	return c.Count(text) <= limit
}

// CountMessages estimates the total tokens across a conversation.
func (c *EstimatingCounter) CountMessages(messages []ai.Message) int {
	var b strings.Builder
	for _, msg := range messages {
		b.WriteString(msg.Content)
		for _, part := range msg.Parts {
			b.WriteString(part.Text)
		}
	}
	return c.Count(b.String())
}

// Estimate is a convenience wrapper around the default counter.
func Estimate(text string) int {
	return NewEstimatingCounter().Count(text)
}

// FitToLimit keeps the leading texts that together fit within the token
// limit and reports how many were dropped.
func FitToLimit(texts []string, limit int) (kept []string, dropped int) {
	counter := NewEstimatingCounter()
	used := 0
	for i, text := range texts {
		n := counter.Count(text)
		if used+n > limit {
			return texts[:i], len(texts) - i
		}
		used += n
	}
	return texts, 0
}

// ModelLimits holds context window sizes for common models.
var ModelLimits = map[string]int{
	"gpt-4o":                   128000,
	"gpt-4o-mini":              128000,
	"gpt-4-turbo":              128000,
	"gpt-3.5-turbo":            16385,
	"claude-3-5-sonnet-latest": 200000,
	"claude-3-5-haiku-latest":  200000,
	"claude-3-opus-latest":     200000,
	"llama3.1":                 131072,
	"mistral":                  32768,

	"default": 100000,
}

// ModelLimit returns the context window for a model, falling back to a
// conservative default for unknown names.
func ModelLimit(model string) int {
	if limit, ok := ModelLimits[model]; ok {
		return limit
	}
	return ModelLimits["default"]
}
