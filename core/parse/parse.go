package parse

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/avolkoff/microllm/core/llmerr"
)

// Parse extracts one structured value from free-form text. The result is the
// usual encoding/json shape: map[string]any, []any, string, float64, bool or
// nil. When required fields are given, the value must be an object containing
// every one of them; a syntactically valid object missing a required key is
// reported as malformed, which lets callers treat it as a content-level
// failure and re-issue the whole call.
//
// On failure the returned error is always a *llmerr.MalformedOutputError
// carrying the offending text.
func Parse(input string, required ...string) (any, error) {
	s := Unwrap(input)

	value, err := decode(s)
	if err != nil {
		value, err = repair(s)
	}
	if err != nil {
		return nil, &llmerr.MalformedOutputError{
			Text:   input,
			Reason: "not a valid JSON value",
			Cause:  err,
		}
	}

	if len(required) > 0 {
		object, ok := value.(map[string]any)
		if !ok {
			return nil, &llmerr.MalformedOutputError{Text: input, Reason: "not an object"}
		}
		for _, field := range required {
			if _, ok := object[field]; !ok {
				return nil, &llmerr.MalformedOutputError{
					Text:   input,
					Reason: fmt.Sprintf("missing field %q", field),
				}
			}
		}
	}

	return value, nil
}

// TryParse is the non-strict variant of [Parse]: it returns the extracted
// value and true, or nil and false when no value could be recovered.
func TryParse(input string, required ...string) (any, bool) {
	value, err := Parse(input, required...)
	if err != nil {
		return nil, false
	}
	return value, true
}

// As parses free-form text into a concrete type T by running [Parse] and
// decoding the recovered value through encoding/json.
func As[T any](input string, required ...string) (T, error) {
	var result T

	value, err := Parse(input, required...)
	if err != nil {
		return result, err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return result, &llmerr.MalformedOutputError{Text: input, Reason: "value not representable", Cause: err}
	}
	if err := json.Unmarshal(encoded, &result); err != nil {
		return result, &llmerr.MalformedOutputError{
			Text:   input,
			Reason: fmt.Sprintf("value does not fit %T", result),
			Cause:  err,
		}
	}

	return result, nil
}

// Unwrap strips a fenced code-block wrapper and, when the text is not already
// a complete JSON value, restricts it to the outermost balanced {...} or
// [...] span of the dominant bracket kind (first opener to last matching
// closer). Text with no recognizable span is returned unchanged so the
// decoder can report a precise failure.
func Unwrap(input string) string {
	s := strings.TrimSpace(input)

	if strings.HasSuffix(s, "```") && len(s) > 3 {
		if strings.HasPrefix(s, "```json") {
			return strings.TrimSpace(s[7 : len(s)-3])
		}
		if strings.HasPrefix(s, "```") {
			return strings.TrimSpace(s[3 : len(s)-3])
		}
	}

	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}, {`"`, `"`}} {
		if strings.HasPrefix(s, pair[0]) && strings.HasSuffix(s, pair[1]) {
			return s
		}
	}
	if isBareScalar(s) {
		return s
	}

	// Locate the dominant bracket span. A list span wins only when it
	// strictly encloses the object span.
	start, end := -1, -1
	if i, j := strings.Index(s, "{"), strings.LastIndex(s, "}"); i >= 0 && j > i {
		start, end = i, j
	}
	if i, j := strings.Index(s, "["), strings.LastIndex(s, "]"); i >= 0 && j > i {
		if start < 0 || (i < start && j > end) {
			start, end = i, j
		}
	}
	if start >= 0 {
		return s[start : end+1]
	}

	return s
}

// isBareScalar reports whether s is a standalone JSON scalar (number or
// keyword literal) that needs no unwrapping.
func isBareScalar(s string) bool {
	if s == "true" || s == "false" || s == "null" {
		return true
	}
	var n json.Number
	return json.Unmarshal([]byte(s), &n) == nil
}

func decode(s string) (any, error) {
	var value any
	if err := json.Unmarshal([]byte(s), &value); err != nil {
		return nil, err
	}
	return value, nil
}

var (
	reLineComment   = regexp.MustCompile(`(?m)^\s*(//|#)[^\n]*\n?`)
	reBlockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reEllipsisLine  = regexp.MustCompile(`(?m)^\s*\.\.\.[^\S\n]*\n?`)
	reMissingComma  = regexp.MustCompile(`"[^\S\n]*\n(\s*)"`)
	reTrailingComma = regexp.MustCompile(`,(\s*[}\]])`)
	reSingleKey     = regexp.MustCompile(`'([^'\n]*)'(\s*:)`)
	reSingleValue   = regexp.MustCompile(`(:\s*)'([^'\n]*)'`)
	reSingleElement = regexp.MustCompile(`([\[,]\s*)'([^'\n]*)'`)
	rePyTrue        = regexp.MustCompile(`\bTrue\b`)
	rePyFalse       = regexp.MustCompile(`\bFalse\b`)
	rePyNone        = regexp.MustCompile(`\bNone\b`)
)

// repair runs the repair ladder over s, re-attempting a decode after each
// rung. The rungs are ordered from least to most invasive; each transformation
// is kept for the following rungs, mirroring how the defects co-occur in real
// model output. The pattern matching is inherently brittle (a string value
// containing "//" will be mangled by the comment rung) which is why every
// rung re-validates with a full decode instead of trusting the rewrite.
func repair(s string) (any, error) {
	rungs := []func(string) string{
		// Inline comment lines and /* */ blocks.
		func(s string) string {
			s = reLineComment.ReplaceAllString(s, "")
			return reBlockComment.ReplaceAllString(s, "")
		},
		// Trailing continuation ellipses emitted to mark a truncated listing.
		func(s string) string { return reEllipsisLine.ReplaceAllString(s, "") },
		// Missing comma between adjacent quoted lines.
		func(s string) string { return reMissingComma.ReplaceAllString(s, "\",\n$1\"") },
		// Redundant trailing comma before a closing bracket.
		func(s string) string { return reTrailingComma.ReplaceAllString(s, "$1") },
		// Single-quoted keys/values and Python-style literals.
		func(s string) string {
			s = reSingleKey.ReplaceAllString(s, `"$1"$2`)
			s = reSingleValue.ReplaceAllString(s, `$1"$2"`)
			s = reSingleElement.ReplaceAllString(s, `$1"$2"`)
			s = rePyTrue.ReplaceAllString(s, "true")
			s = rePyFalse.ReplaceAllString(s, "false")
			return rePyNone.ReplaceAllString(s, "null")
		},
		// Best-effort close of a truncated object.
		closeTruncated,
	}

	var lastErr error
	for _, rung := range rungs {
		s = rung(s)
		value, err := decode(s)
		if err == nil {
			return value, nil
		}
		lastErr = err
	}

	// Final rung: hand the text to jsonrepair, which covers defect
	// combinations the targeted rewrites above do not. Only bracketed text
	// qualifies; jsonrepair would happily coerce plain prose into a string
	// instead of failing.
	if !strings.ContainsAny(s, "{[") {
		return nil, lastErr
	}
	repaired, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return nil, lastErr
	}
	return decode(repaired)
}

// closeTruncated balances an odd quote count and appends the missing closing
// brace when s looks like an object cut off mid-generation.
func closeTruncated(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") || strings.HasSuffix(trimmed, "}") {
		return s
	}
	if strings.Count(trimmed, `"`)%2 == 1 {
		trimmed += `"`
	}
	return trimmed + "}"
}
