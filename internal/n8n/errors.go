package n8n

import "fmt"

// StatusError represents a response from the n8n API whose status code was
// outside the accepted set for the operation. Body carries the raw response
// text so callers can surface it verbatim.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d - %s", e.Code, e.Body)
}

// TransportError represents a failure to complete the HTTP round-trip at all:
// connection refused, DNS failure, timeout, or a body that could not be read
// or decoded. Op names the client operation that failed.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
