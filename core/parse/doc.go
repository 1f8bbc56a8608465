// Package parse recovers structured values from free-form model output.
//
// Model output rarely arrives as clean JSON: it gets wrapped in fenced code
// blocks, surrounded by prose, decorated with comments, truncated mid-object,
// or written with Python-style quoting and literals. [Parse] runs a repair
// ladder over the text — unwrap, locate, fix, close — re-attempting a decode
// after each step, with jsonrepair as the final rung. The ladder is
// best-effort by design: when every rung fails, strict callers get a
// [llmerr.MalformedOutputError] carrying the offending text and non-strict
// callers get a no-value result, never a silently wrong parse.
package parse
