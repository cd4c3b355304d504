package llm

import (
	"errors"
	"fmt"
)

// Operation names a provider call for error reporting
type Operation string

const (
	OpComplete Operation = "complete"
	OpStream   Operation = "stream"
)

// ErrNoChoices is returned when the provider answers without any choice
var ErrNoChoices = errors.New("no choices in response")

// ProviderError wraps any failure of an upstream provider call: transport
// faults, API errors (auth, quota, rate limit) and malformed responses.
type ProviderError struct {
	Op     Operation
	Status int // upstream HTTP status, 0 when unknown
	Err    error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return ""
	}
	switch e.Op {
	case OpStream:
		return fmt.Sprintf("Failed to stream response from ChatGPT: %v", e.Err)
	default:
		return fmt.Sprintf("Failed to get response from ChatGPT: %v", e.Err)
	}
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// StatusCode returns the upstream HTTP status, if the provider reported one.
func (e *ProviderError) StatusCode() int {
	if e == nil {
		return 0
	}
	return e.Status
}

// NewProviderError wraps err for the given operation
func NewProviderError(op Operation, status int, err error) *ProviderError {
	return &ProviderError{Op: op, Status: status, Err: err}
}

// IsProviderError reports whether err is or wraps a ProviderError
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
