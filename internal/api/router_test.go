package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/themobileprof/chatrelay/internal/api/middleware"
	"github.com/themobileprof/chatrelay/internal/config"
	"github.com/themobileprof/chatrelay/internal/metrics"
	"github.com/themobileprof/chatrelay/pkg/llm"
)

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRoot(t *testing.T) {
	router := newTestRouter(t, testConfig(), llm.NewMockClient())

	w := get(router, "/")

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{
		"message": "Welcome to ChatGPT API Service",
		"version": "1.0.0",
		"endpoints": {"health": "/health", "chat": "/api/chat", "stream": "/api/chat/stream"}
	}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, testConfig(), llm.NewMockClient())

	w := get(router, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "OK", body["status"])

	ts, err := time.Parse(time.RFC3339Nano, body["timestamp"])
	require.NoError(t, err)
	require.WithinDuration(t, time.Now(), ts, time.Minute)
	require.True(t, strings.HasSuffix(body["timestamp"], "Z"))
}

func TestHealth_TimestampFormat(t *testing.T) {
	h := &SystemHandler{now: func() time.Time {
		return time.Date(2024, 5, 1, 10, 0, 0, 123456789, time.FixedZone("CET", 3600))
	}}
	router := gin.New()
	router.GET("/health", h.Health)

	for i := 0; i < 2; i++ {
		w := get(router, "/health")
		require.Equal(t, http.StatusOK, w.Code)
		require.JSONEq(t, `{"status":"OK","timestamp":"2024-05-01T09:00:00.123Z"}`, w.Body.String())
	}
}

func TestNotFound(t *testing.T) {
	router := newTestRouter(t, testConfig(), llm.NewMockClient())

	for _, path := range []string{"/nope", "/api", "/api/chat/other"} {
		w := get(router, path)
		require.Equal(t, http.StatusNotFound, w.Code, path)
		require.JSONEq(t, `{"error":"Not Found","message":"The requested endpoint does not exist"}`, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodDelete, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecovery(t *testing.T) {
	router := newTestRouter(t, testConfig(), llm.NewMockClient())
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := get(router, "/panic")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"error":"Something went wrong!","message":"An unexpected error occurred"}`, w.Body.String())
	require.NotContains(t, w.Body.String(), "boom")

	// the server keeps serving
	require.Equal(t, http.StatusOK, get(router, "/health").Code)
}

func TestCORS(t *testing.T) {
	router := newTestRouter(t, testConfig(), llm.NewMockClient())

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusNoContent, w.Code)
		require.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		require.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	})

	t.Run("headers on not found", func(t *testing.T) {
		w := get(router, "/missing")
		require.Equal(t, http.StatusNotFound, w.Code)
		require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestAccessGate(t *testing.T) {
	production := testConfig()
	production.Environment = "production"
	production.APIKey = "s3cret"

	noSecret := testConfig()
	noSecret.Environment = "production"

	withKey := testConfig()
	withKey.APIKey = "s3cret"

	tests := []struct {
		name       string
		cfg        config.ServiceConfig
		key        string
		wantStatus int
	}{
		{"production without key", production, "", http.StatusUnauthorized},
		{"production wrong key", production, "wrong", http.StatusUnauthorized},
		{"production correct key", production, "s3cret", http.StatusOK},
		{"production no secret configured", noSecret, "", http.StatusUnauthorized},
		{"development without key", withKey, "", http.StatusOK},
		{"development wrong key", withKey, "wrong", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := llm.NewMockClient()
			router := newTestRouter(t, tt.cfg, mock)

			req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"Hello"}`))
			req.Header.Set("Content-Type", "application/json")
			if tt.key != "" {
				req.Header.Set(middleware.APIKeyHeader, tt.key)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				require.JSONEq(t, `{"error":"Unauthorized","message":"Invalid or missing API key"}`, w.Body.String())
				require.Zero(t, mock.GetChatCallCount())
			}
		})
	}

	t.Run("public routes stay open", func(t *testing.T) {
		router := newTestRouter(t, production, llm.NewMockClient())
		for _, path := range []string{"/", "/health", "/metrics"} {
			require.Equal(t, http.StatusOK, get(router, path).Code, path)
		}
	})
}

func TestBodyLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBodyBytes = 64
	mock := llm.NewMockClient()
	router := newTestRouter(t, cfg, mock)

	body := `{"message":"` + strings.Repeat("a", 200) + `"}`
	w := postJSON(router, "/api/chat", body)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	require.Zero(t, mock.GetChatCallCount())
}

func TestRequestIDPropagation(t *testing.T) {
	router := newTestRouter(t, testConfig(), llm.NewMockClient())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, "req-123", w.Header().Get(middleware.RequestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	collector := metrics.NewCollector(prometheus.NewRegistry())
	mock := llm.NewMockClient()
	router := NewRouter(testConfig(), mock, collector)

	require.Equal(t, http.StatusOK, postJSON(router, "/api/chat", `{"message":"Hello"}`).Code)
	require.Equal(t, http.StatusOK, postJSON(router, "/api/chat/stream", `{"message":"Hello"}`).Code)

	w := get(router, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	require.Contains(t, body, `chatrelay_provider_requests_total{operation="complete",outcome="success"} 1`)
	require.Contains(t, body, `chatrelay_provider_requests_total{operation="stream",outcome="success"} 1`)
	require.Contains(t, body, `chatrelay_provider_tokens_total{type="prompt"} 10`)
	require.Contains(t, body, `chatrelay_stream_chunks_total 2`)
	require.Contains(t, body, `chatrelay_http_requests_total{method="POST",route="/api/chat",status="200"} 1`)
}

func TestAccessLogFormat(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set("request_id", "abc")

	line := accessLogFormat(gin.LogFormatterParams{
		Request:    httptest.NewRequest(http.MethodGet, "/health", nil),
		TimeStamp:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		StatusCode: http.StatusOK,
		Method:     http.MethodGet,
		Path:       "/health",
		Keys:       c.Keys,
	})
	require.Contains(t, line, "request_id=abc")
	require.Contains(t, line, "2024/05/01 - 10:00:00")

	line = accessLogFormat(gin.LogFormatterParams{Method: http.MethodGet, Path: "/"})
	require.Contains(t, line, "request_id=-")
}
