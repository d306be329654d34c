package llm

import (
	"errors"
	"fmt"
)

// Local and transport errors.
var (
	ErrMissingAPIKey = errors.New("completion provider api key not configured")
	ErrNoMessages    = errors.New("completion request has no messages")
	ErrNetwork       = errors.New("completion provider unreachable")
)

// UpstreamError is a non-2xx reply from the provider.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("completion provider returned %d: %s", e.StatusCode, e.Message)
}
