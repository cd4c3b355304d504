package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/themobileprof/chatrelay/internal/api/middleware"
	"github.com/themobileprof/chatrelay/internal/config"
	"github.com/themobileprof/chatrelay/internal/metrics"
	"github.com/themobileprof/chatrelay/internal/privacy"
	"github.com/themobileprof/chatrelay/internal/prompt"
	"github.com/themobileprof/chatrelay/pkg/llm"
)

// ProviderRecorder is satisfied by metrics.Collector
type ProviderRecorder interface {
	RecordProviderCall(operation string, err error, latency time.Duration)
	RecordTokens(prompt, completion int)
	RecordStreamChunk()
}

// ChatResponse is the body of a successful /api/chat call
type ChatResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Usage   llm.Usage `json:"usage"`
}

type streamContent struct {
	Content string `json:"content"`
}

type streamError struct {
	Error string `json:"error"`
}

var sseDone = []byte("data: [DONE]\n\n")

// ChatHandler relays chat requests to the LLM provider
type ChatHandler struct {
	client      llm.Client
	builder     *prompt.Builder
	model       string
	maxTokens   int
	temperature float64
	recorder    ProviderRecorder
}

// NewChatHandler creates a new chat handler
func NewChatHandler(client llm.Client, builder *prompt.Builder, cfg config.ServiceConfig, recorder ProviderRecorder) *ChatHandler {
	return &ChatHandler{
		client:      client,
		builder:     builder,
		model:       cfg.OpenAIModel,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		recorder:    recorder,
	}
}

func (h *ChatHandler) buildRequest(req ConversationRequest) llm.ChatRequest {
	return llm.ChatRequest{
		Model:       h.model,
		Messages:    h.builder.BuildMessages(req.ConversationHistory, req.Message),
		MaxTokens:   h.maxTokens,
		Temperature: h.temperature,
	}
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	requestID := middleware.GetRequestID(c)

	req, err := bindConversationRequest(c)
	if err != nil {
		respondBindError(c, err)
		return
	}

	log.Printf("Chat request: request_id=%s history=%d length=%d", requestID, len(req.ConversationHistory), len(req.Message))

	start := time.Now()
	result, err := h.client.ChatCompletion(c.Request.Context(), h.buildRequest(req))
	h.recorder.RecordProviderCall(metrics.OpComplete, err, time.Since(start))
	if err != nil {
		log.Printf("Chat error: request_id=%s kind=%s error=%s", requestID, errorKind(err), privacy.SanitizeForLogging(err.Error()))
		respondError(c, http.StatusInternalServerError, "Internal Server Error", err.Error())
		return
	}

	h.recorder.RecordTokens(result.Usage.PromptTokens, result.Usage.CompletionTokens)
	log.Printf("Chat response: request_id=%s total_tokens=%d", requestID, result.Usage.TotalTokens)

	c.JSON(http.StatusOK, ChatResponse{
		Success: true,
		Message: result.Content,
		Usage:   result.Usage,
	})
}

// ChatStream handles POST /api/chat/stream. The provider stream is opened
// before any SSE header is written, so validation and open failures are
// still plain JSON errors. Once streaming has started, a provider failure is
// reported as a final data: {"error": ...} event and the response ends
// without [DONE].
func (h *ChatHandler) ChatStream(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	ctx := c.Request.Context()

	req, err := bindConversationRequest(c)
	if err != nil {
		respondBindError(c, err)
		return
	}

	log.Printf("Chat stream request: request_id=%s history=%d length=%d", requestID, len(req.ConversationHistory), len(req.Message))

	start := time.Now()
	stream, err := h.client.StreamChatCompletion(ctx, h.buildRequest(req))
	h.recorder.RecordProviderCall(metrics.OpStream, err, time.Since(start))
	if err != nil {
		log.Printf("Chat stream error: request_id=%s kind=%s error=%s", requestID, errorKind(err), privacy.SanitizeForLogging(err.Error()))
		respondError(c, http.StatusInternalServerError, "Internal Server Error", err.Error())
		return
	}
	defer stream.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	chunks, err := h.relay(ctx, c.Writer, stream)
	switch {
	case err == nil:
		log.Printf("Chat stream complete: request_id=%s chunks=%d", requestID, chunks)
	case ctx.Err() != nil:
		log.Printf("Chat stream client gone: request_id=%s chunks=%d", requestID, chunks)
	default:
		log.Printf("Chat stream aborted: request_id=%s chunks=%d kind=%s error=%s", requestID, chunks, errorKind(err), privacy.SanitizeForLogging(err.Error()))
	}
}

// relay copies non-empty deltas to w as SSE frames, in provider order,
// until the stream ends, the provider fails or ctx is cancelled.
func (h *ChatHandler) relay(ctx context.Context, w gin.ResponseWriter, stream llm.Stream) (int, error) {
	chunks := 0
	for {
		if err := ctx.Err(); err != nil {
			return chunks, err
		}

		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			if _, err := w.Write(sseDone); err != nil {
				return chunks, err
			}
			w.Flush()
			return chunks, nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return chunks, ctx.Err()
			}
			if werr := writeEvent(w, streamError{Error: err.Error()}); werr != nil {
				return chunks, werr
			}
			w.Flush()
			return chunks, err
		}

		if chunk.Delta == "" {
			continue
		}

		if err := writeEvent(w, streamContent{Content: chunk.Delta}); err != nil {
			return chunks, err
		}
		w.Flush()
		chunks++
		h.recorder.RecordStreamChunk()
	}
}

// errorKind separates upstream failures from faults inside the relay
func errorKind(err error) string {
	if llm.IsProviderError(err) {
		return "provider"
	}
	return "internal"
}

// writeEvent writes one "data: <json>\n\n" frame. HTML characters are left
// unescaped so the payload matches what browsers' JSON.stringify produces.
func writeEvent(w io.Writer, payload any) error {
	var buf bytes.Buffer
	buf.WriteString("data: ")

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return err
	}
	// Encode already appended one newline
	buf.WriteByte('\n')

	_, err := w.Write(buf.Bytes())
	return err
}
