package openai

import (
	"context"
	"errors"
	"io"
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	gogpt "github.com/sashabaranov/go-openai"
	"github.com/themobileprof/chatrelay/pkg/llm"
)

// DefaultModel is used when neither the request nor the config names a model
const DefaultModel = "gpt-3.5-turbo"

// Client implements the llm.Client interface on top of the OpenAI SDK
type Client struct {
	api     *gogpt.Client
	baseURL string
	model   string
}

// Ensure Client implements llm.Client
var _ llm.Client = (*Client)(nil)

// Config holds configuration for the OpenAI client
type Config struct {
	APIKey     string
	BaseURL    string       // Default: https://api.openai.com/v1
	Model      string       // Default: gpt-3.5-turbo
	HTTPClient *http.Client // Default: pooled transport, no overall timeout
}

// NewClient creates a new OpenAI client. A missing API key is not rejected
// here; the provider reports it as an authentication failure on first use.
func NewClient(config Config) *Client {
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.HTTPClient == nil {
		config.HTTPClient = newHTTPClient()
	}

	sdkConfig := gogpt.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		sdkConfig.BaseURL = config.BaseURL
	}
	sdkConfig.HTTPClient = config.HTTPClient

	return &Client{
		api:     gogpt.NewClientWithConfig(sdkConfig),
		baseURL: sdkConfig.BaseURL,
		model:   config.Model,
	}
}

// newHTTPClient builds a client tuned for connection reuse. There is no
// Client.Timeout because it would also cut long-running streams; callers
// bound calls through the request context instead.
func newHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport}
}

// Model returns the default model used when a request leaves it empty
func (c *Client) Model() string {
	return c.model
}

// BaseURL returns the API endpoint the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ChatCompletion implements llm.Client.ChatCompletion
func (c *Client) ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.CompletionResult, error) {
	resp, err := c.api.CreateChatCompletion(ctx, c.toSDKRequest(req))
	if err != nil {
		return nil, wrapError(llm.OpComplete, err)
	}

	if len(resp.Choices) == 0 {
		return nil, llm.NewProviderError(llm.OpComplete, 0, llm.ErrNoChoices)
	}

	return &llm.CompletionResult{
		Content: resp.Choices[0].Message.Content,
		Usage: llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// StreamChatCompletion implements llm.Client.StreamChatCompletion. The
// returned stream is tied to ctx: cancelling it aborts the underlying read.
func (c *Client) StreamChatCompletion(ctx context.Context, req llm.ChatRequest) (llm.Stream, error) {
	stream, err := c.api.CreateChatCompletionStream(ctx, c.toSDKRequest(req))
	if err != nil {
		return nil, wrapError(llm.OpStream, err)
	}
	return &chatStream{stream: stream}, nil
}

func (c *Client) toSDKRequest(req llm.ChatRequest) gogpt.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = c.model
	}

	messages := make([]gogpt.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, gogpt.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	// go-openai omits a zero temperature; send the smallest positive float32
	temperature := float32(req.Temperature)
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	return gogpt.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: temperature,
	}
}

// chatStream adapts the SDK stream to llm.Stream
type chatStream struct {
	stream    *gogpt.ChatCompletionStream
	closeOnce sync.Once
}

func (s *chatStream) Recv() (llm.StreamChunk, error) {
	for {
		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			return llm.StreamChunk{}, io.EOF
		}
		if err != nil {
			return llm.StreamChunk{}, wrapError(llm.OpStream, err)
		}

		// usage-only frames carry no choices
		if len(resp.Choices) == 0 {
			continue
		}

		choice := resp.Choices[0]
		return llm.StreamChunk{
			Delta:        choice.Delta.Content,
			FinishReason: string(choice.FinishReason),
		}, nil
	}
}

func (s *chatStream) Close() error {
	s.closeOnce.Do(func() {
		s.stream.Close()
	})
	return nil
}

// wrapError converts SDK errors into llm.ProviderError, keeping the upstream
// status when the SDK exposes one.
func wrapError(op llm.Operation, err error) error {
	var pe *llm.ProviderError
	if errors.As(err, &pe) {
		return err
	}

	status := 0
	var apiErr *gogpt.APIError
	var reqErr *gogpt.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	return llm.NewProviderError(op, status, err)
}
