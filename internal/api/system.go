package api

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/themobileprof/chatrelay/internal/api/middleware"
	"github.com/themobileprof/chatrelay/internal/privacy"
)

// Version is reported by the service banner
const Version = "1.0.0"

// isoMillis matches the ISO-8601 form browsers emit, e.g. 2024-05-01T10:00:00.000Z
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// SystemHandler serves the banner, health check and fallback responses
type SystemHandler struct {
	now func() time.Time
}

// NewSystemHandler creates a system handler using the wall clock
func NewSystemHandler() *SystemHandler {
	return &SystemHandler{now: time.Now}
}

// Root handles GET /
func (h *SystemHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to ChatGPT API Service",
		"version": Version,
		"endpoints": gin.H{
			"health": "/health",
			"chat":   "/api/chat",
			"stream": "/api/chat/stream",
		},
	})
}

// Health handles GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": h.now().UTC().Format(isoMillis),
	})
}

// NotFound answers every unmatched route
func (h *SystemHandler) NotFound(c *gin.Context) {
	respondError(c, http.StatusNotFound, "Not Found", "The requested endpoint does not exist")
}

// Recover is the last-resort handler for panics escaping a handler. gin's
// recovery middleware has already logged the stack.
func Recover(c *gin.Context, recovered any) {
	log.Printf("Unhandled error: request_id=%s path=%s error=%s", middleware.GetRequestID(c), c.Request.URL.Path, privacy.SanitizeForLogging(fmt.Sprint(recovered)))

	if c.Writer.Written() {
		c.Abort()
		return
	}
	respondError(c, http.StatusInternalServerError, "Something went wrong!", "An unexpected error occurred")
}

// accessLogFormat is gin's default line with the request ID appended
func accessLogFormat(param gin.LogFormatterParams) string {
	requestID, _ := param.Keys["request_id"].(string)
	if requestID == "" {
		requestID = "-"
	}
	return fmt.Sprintf("[GIN] %v | %3d | %13v | %15s | %-7s %#v | request_id=%s\n%s",
		param.TimeStamp.Format("2006/01/02 - 15:04:05"),
		param.StatusCode,
		param.Latency,
		param.ClientIP,
		param.Method,
		param.Path,
		requestID,
		param.ErrorMessage,
	)
}
