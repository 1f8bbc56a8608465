package ai

import "context"

// Provider is the core interface that every backend adapter must satisfy.
// An adapter performs exactly one network call per invocation and returns
// either the terminal payload or an error. Adapters never classify failures:
// the SDK-native error is propagated unchanged so diagnostic fidelity is
// preserved, and classification stays the sole responsibility of the
// backend's [ErrorClassifier].
type Provider interface {
	// SendMessage sends a chat request to the backend and returns the
	// completed response. Returns an error if the backend call fails,
	// the context is cancelled, or the response cannot be decoded.
	SendMessage(ctx context.Context, request ChatRequest) (*ChatResponse, error)
}

// StreamProvider is an optional interface that providers can implement to
// support streaming responses. Callers detect streaming support via type
// assertion: provider.(StreamProvider). If the provider does not implement
// this interface, callers should fall back to the synchronous SendMessage
// method.
type StreamProvider interface {
	Provider
	// StreamMessage sends a chat request and returns a ChatStream that
	// yields incremental chunks as they arrive from the API. Pre-stream
	// errors (auth, bad request, network) are returned as a normal error.
	// Mid-stream errors are yielded through the iterator.
	StreamMessage(ctx context.Context, request ChatRequest) (*ChatStream, error)
}

// StreamCapability is an optional interface a StreamProvider implements
// when some of its models cannot stream. CanStream reports whether the
// named model produces streamable text deltas; a model it rejects (image
// generation and similar) must be called through SendMessage so the
// terminal payload survives intact. Absence of this interface means every
// model streams.
type StreamCapability interface {
	CanStream(model string) bool
}

// ErrorClassifier is an optional interface a provider implements to map its
// backend-native failure shapes onto the canonical taxonomy in core/llmerr.
// ClassifyError returns a canonical error wrapping err, or nil when the
// failure shape is not recognized. Implementations must prefer nil over a
// guess: an unrecognized failure surfaces unchanged rather than risking a
// mis-classification. Callers detect support via type assertion, the same
// way streaming support is detected.
type ErrorClassifier interface {
	ClassifyError(err error, model string) error
}
