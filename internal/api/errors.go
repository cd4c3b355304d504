package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the JSON body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ValidationError reports a malformed or missing request field
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	errMessageRequired = &ValidationError{Message: "Message is required and must be a string"}
	errInvalidHistory  = &ValidationError{Message: "conversationHistory must be an array of messages"}
	errBodyTooLarge    = errors.New("request body too large")
)

func respondError(c *gin.Context, status int, label, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: label, Message: message})
}

// respondBindError maps request decoding failures to 400 or 413
func respondBindError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(c, http.StatusBadRequest, "Bad Request", verr.Message)
	case errors.Is(err, errBodyTooLarge):
		respondError(c, http.StatusRequestEntityTooLarge, "Payload Too Large", "Request body exceeds the allowed size")
	default:
		respondError(c, http.StatusBadRequest, "Bad Request", errMessageRequired.Message)
	}
}
