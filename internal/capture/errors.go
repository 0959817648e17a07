package capture

import (
	"errors"
	"fmt"
)

// ErrStopTimeout is returned by Stop when the stream loop does not exit
// within the drain timeout. The loop is abandoned, not force-killed.
var ErrStopTimeout = errors.New("capture stop timed out")

// TransportError represents transport-layer failures while streaming:
// connect errors, mid-stream disconnects, and non-200 responses. It is
// reported to the caller and never retried inside the writer; retry policy
// belongs to the scheduler above.
type TransportError struct {
	URL        string
	Operation  string // The phase that failed (e.g. "connect", "read", "write")
	StatusCode int    // HTTP status code, if applicable (0 for non-HTTP errors)
	Err        error  // Underlying error, if any
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transport error during %s (HTTP %d): %s", e.Operation, e.StatusCode, e.URL)
	}

	return fmt.Sprintf("transport error during %s: %v", e.Operation, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
