package ai

import (
	"errors"
	"fmt"
)

// Adapter errors are normalized into this small taxonomy before they reach
// orchestrator code; raw vendor errors never cross the package boundary.
var (
	// ErrProviderUnavailable covers a failing catalog endpoint or a missing
	// credential. Callers fall back to the static model list.
	ErrProviderUnavailable = errors.New("ai: provider unavailable")

	// ErrSearchUnavailable means no web context could be resolved. Callers
	// treat it as "no context", never as a fatal turn error.
	ErrSearchUnavailable = errors.New("ai: web search unavailable")
)

// HTTPError is a non-2xx vendor response.
type HTTPError struct {
	Provider string
	Status   int
	Message  string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Provider, e.Status)
}

// StreamParseError is a stream chunk that could not be decoded. One bad chunk
// is logged and skipped; it never aborts an otherwise-good stream.
type StreamParseError struct {
	Provider string
	Payload  string
	Err      error
}

func (e *StreamParseError) Error() string {
	return fmt.Sprintf("%s: bad stream chunk: %v", e.Provider, e.Err)
}

func (e *StreamParseError) Unwrap() error { return e.Err }
