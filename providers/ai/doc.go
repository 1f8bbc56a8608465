// Package ai defines the provider-facing contract of the invocation pipeline:
// the canonical [Message] and [ChatRequest]/[ChatResponse] shapes, the
// [Provider] and [StreamProvider] interfaces implemented by each backend
// family, and the [ChatStream] iterator used for incremental delivery.
//
// Concrete adapters live in the subpackages (openai, anthropic, ollama), one
// per backend family, and are bound once at configuration time.
package ai
