package prompt

import (
	"github.com/themobileprof/chatrelay/pkg/llm"
)

// SystemPreamble is always sent as the first message
const SystemPreamble = "You are a helpful assistant."

// Builder assembles the message list sent to the provider
type Builder struct {
	preamble string
}

// NewBuilder creates a new prompt builder with the fixed system preamble
func NewBuilder() *Builder {
	return &Builder{preamble: SystemPreamble}
}

// BuildMessages returns [system preamble] ++ history ++ [user message].
// History is copied verbatim and in order; the caller's slice is not modified.
func (b *Builder) BuildMessages(history []llm.ChatMessage, userMessage string) []llm.ChatMessage {
	// Pre-allocate with exact capacity (system + history + user)
	messages := make([]llm.ChatMessage, 0, len(history)+2)

	messages = append(messages, llm.ChatMessage{
		Role:    llm.RoleSystem,
		Content: b.preamble,
	})
	messages = append(messages, history...)
	messages = append(messages, llm.ChatMessage{
		Role:    llm.RoleUser,
		Content: userMessage,
	})

	return messages
}
