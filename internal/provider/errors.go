package provider

import (
	"errors"
	"fmt"
)

// HTTPError is returned for non-2xx responses from the remote API.
// Its message renders in the canonical raw form that the headless adapter
// knows how to normalize: "<Provider> API error (<status>): <body>".
type HTTPError struct {
	Provider string
	Status   int
	Body     string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.Status, e.Body)
}

// AsHTTPError unwraps err into an *HTTPError if possible.
func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}

// StreamParseError wraps a malformed SSE chunk. It is fatal to the request
// that produced it.
type StreamParseError struct {
	Data string
	Err  error
}

// Error implements the error interface.
func (e *StreamParseError) Error() string {
	return fmt.Sprintf("malformed stream chunk: %v", e.Err)
}

// Unwrap returns the underlying parse error.
func (e *StreamParseError) Unwrap() error {
	return e.Err
}
