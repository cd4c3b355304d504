package llm

import (
	"context"
)

// Client interface for LLM API interactions
type Client interface {
	// StreamChatCompletion opens a streaming chat completion
	StreamChatCompletion(ctx context.Context, req ChatRequest) (Stream, error)

	// ChatCompletion sends a non-streaming chat completion request
	ChatCompletion(ctx context.Context, req ChatRequest) (*CompletionResult, error)
}

// Stream is a forward-only sequence of chunks. It is consumed once and
// cannot be restarted.
type Stream interface {
	// Recv returns the next chunk, or io.EOF once the provider has finished.
	Recv() (StreamChunk, error)

	// Close releases the underlying connection. Safe to call more than once.
	Close() error
}
