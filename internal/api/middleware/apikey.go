package middleware

import (
	"crypto/subtle"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKeyHeader carries the pre-shared key checked by RequireAPIKey
const APIKeyHeader = "X-API-Key"

// RequireAPIKey rejects requests whose x-api-key header does not match
// secret. In development every request passes. An empty secret outside
// development rejects everything.
func RequireAPIKey(secret string, development bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if development {
			c.Next()
			return
		}

		key := c.GetHeader(APIKeyHeader)
		if key == "" || secret == "" || subtle.ConstantTimeCompare([]byte(key), []byte(secret)) != 1 {
			log.Printf("Rejected request: request_id=%s path=%s reason=invalid api key", GetRequestID(c), c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Unauthorized",
				"message": "Invalid or missing API key",
			})
			return
		}

		c.Next()
	}
}
