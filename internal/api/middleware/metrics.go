package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPRecorder is satisfied by metrics.Collector
type HTTPRecorder interface {
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
}

// Metrics records method, matched route and status for every request.
// Unmatched routes are grouped under "unmatched" to bound cardinality.
func Metrics(recorder HTTPRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		recorder.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
