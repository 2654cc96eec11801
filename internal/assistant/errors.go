package assistant

import (
	"errors"
	"fmt"
)

// ErrDecode indicates a malformed response envelope from a model backend.
var ErrDecode = errors.New("assistant: malformed model response")

// ErrEmptyMessage indicates a search with no usable message text.
var ErrEmptyMessage = errors.New("assistant: message is empty")

// UpstreamError carries a non-200 status from the compose backend, with the
// server-supplied error body when one was present.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("assistant: upstream returned %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("assistant: upstream returned %d", e.StatusCode)
}
