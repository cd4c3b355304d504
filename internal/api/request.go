package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/themobileprof/chatrelay/pkg/llm"
)

// ConversationRequest is the body accepted by both chat endpoints. History is
// supplied by the caller on every call and never stored.
type ConversationRequest struct {
	Message             string            `json:"message"`
	ConversationHistory []llm.ChatMessage `json:"conversationHistory"`
}

// rawConversationRequest defers field decoding so a non-string message can
// be told apart from a malformed history.
type rawConversationRequest struct {
	Message             json.RawMessage `json:"message"`
	ConversationHistory json.RawMessage `json:"conversationHistory"`
}

var jsonNull = []byte("null")

// bindConversationRequest decodes and validates the request body. Form
// bodies may carry a message but no history.
func bindConversationRequest(c *gin.Context) (ConversationRequest, error) {
	if c.ContentType() == binding.MIMEPOSTForm {
		if err := c.Request.ParseForm(); err != nil {
			if isMaxBytesError(err) {
				return ConversationRequest{}, errBodyTooLarge
			}
			return ConversationRequest{}, errMessageRequired
		}
		message := c.Request.PostForm.Get("message")
		if message == "" {
			return ConversationRequest{}, errMessageRequired
		}
		return ConversationRequest{Message: message, ConversationHistory: []llm.ChatMessage{}}, nil
	}

	if c.Request.Body == nil {
		return ConversationRequest{}, errMessageRequired
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		if isMaxBytesError(err) {
			return ConversationRequest{}, errBodyTooLarge
		}
		return ConversationRequest{}, fmt.Errorf("read request body: %w", err)
	}

	var raw rawConversationRequest
	if err := json.Unmarshal(body, &raw); err != nil {
		return ConversationRequest{}, errMessageRequired
	}

	var message string
	if err := json.Unmarshal(raw.Message, &message); err != nil || message == "" {
		return ConversationRequest{}, errMessageRequired
	}

	history, err := decodeHistory(raw.ConversationHistory)
	if err != nil {
		return ConversationRequest{}, err
	}

	return ConversationRequest{Message: message, ConversationHistory: history}, nil
}

// decodeHistory requires an array of objects and nothing more. Role and
// content are forwarded as given; non-string values keep their JSON text.
func decodeHistory(raw json.RawMessage) ([]llm.ChatMessage, error) {
	history := []llm.ChatMessage{}
	if len(raw) == 0 || bytes.Equal(raw, jsonNull) {
		return history, nil
	}

	var elements []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, errInvalidHistory
	}

	for _, element := range elements {
		history = append(history, llm.ChatMessage{
			Role:    fieldText(element["role"]),
			Content: fieldText(element["content"]),
		})
	}
	return history, nil
}

func fieldText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func isMaxBytesError(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
