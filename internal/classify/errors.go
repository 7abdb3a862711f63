package classify

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is wrapped by a TransportError when a 2xx reply is not JSON.
var ErrMalformedResponse = errors.New("response is not JSON")

// TransportError reports a failed submission: either the request never got
// a usable response (Err set) or the backend answered with a non-success status.
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		if e.StatusCode != 0 {
			return fmt.Sprintf("classification transport error (status %d): %v", e.StatusCode, e.Err)
		}
		return fmt.Sprintf("classification transport error: %v", e.Err)
	}
	return fmt.Sprintf("classification request failed with status %d: %s", e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }
