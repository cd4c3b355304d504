package llm

import (
	"context"
	"io"
	"sync"
)

// MockClient implements the Client interface for testing
type MockClient struct {
	mu sync.Mutex

	// StreamFunc allows customizing the streaming behavior
	StreamFunc func(context.Context, ChatRequest) (Stream, error)

	// ChatFunc allows customizing the non-streaming behavior
	ChatFunc func(context.Context, ChatRequest) (*CompletionResult, error)

	// Tracking for assertions
	StreamCalls []ChatRequest
	ChatCalls   []ChatRequest
}

// Ensure MockClient implements Client
var _ Client = (*MockClient)(nil)

// NewMockClient creates a new mock client with default behavior
func NewMockClient() *MockClient {
	return &MockClient{
		StreamCalls: make([]ChatRequest, 0),
		ChatCalls:   make([]ChatRequest, 0),
	}
}

// StreamChatCompletion implements Client.StreamChatCompletion
func (m *MockClient) StreamChatCompletion(ctx context.Context, req ChatRequest) (Stream, error) {
	m.mu.Lock()
	m.StreamCalls = append(m.StreamCalls, req)
	m.mu.Unlock()

	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, req)
	}

	return NewSliceStream(
		StreamChunk{Delta: "This is "},
		StreamChunk{Delta: "a mock response."},
		StreamChunk{FinishReason: "stop"},
	), nil
}

// ChatCompletion implements Client.ChatCompletion
func (m *MockClient) ChatCompletion(ctx context.Context, req ChatRequest) (*CompletionResult, error) {
	m.mu.Lock()
	m.ChatCalls = append(m.ChatCalls, req)
	m.mu.Unlock()

	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}

	return &CompletionResult{
		Content: "This is a mock response.",
		Usage: Usage{
			PromptTokens:     10,
			CompletionTokens: 5,
			TotalTokens:      15,
		},
	}, nil
}

// Reset clears the call history
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StreamCalls = make([]ChatRequest, 0)
	m.ChatCalls = make([]ChatRequest, 0)
}

// GetStreamCallCount returns the number of stream calls made
func (m *MockClient) GetStreamCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.StreamCalls)
}

// GetChatCallCount returns the number of chat calls made
func (m *MockClient) GetChatCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ChatCalls)
}

// SliceStream replays a fixed list of chunks, then optionally fails with Err
// instead of io.EOF.
type SliceStream struct {
	mu     sync.Mutex
	chunks []StreamChunk
	pos    int
	closed bool

	// Err, when set, is returned once the chunks are exhausted
	Err error
}

// NewSliceStream returns a Stream over the given chunks
func NewSliceStream(chunks ...StreamChunk) *SliceStream {
	return &SliceStream{chunks: chunks}
}

// Recv implements Stream.Recv
func (s *SliceStream) Recv() (StreamChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return StreamChunk{}, io.ErrClosedPipe
	}
	if s.pos >= len(s.chunks) {
		if s.Err != nil {
			return StreamChunk{}, s.Err
		}
		return StreamChunk{}, io.EOF
	}
	chunk := s.chunks[s.pos]
	s.pos++
	return chunk, nil
}

// Close implements Stream.Close
func (s *SliceStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close has been called
func (s *SliceStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Remaining returns how many chunks have not been read yet
func (s *SliceStream) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks) - s.pos
}
