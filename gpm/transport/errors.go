package transport

import (
	"fmt"
)

// StatusError is an HTTP status >= 400 with its buffered body.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d with body: %s", e.Code, string(e.Body))
}

// ParseError is a payload that claimed to be structured but failed to parse.
// RawBody is kept so callers can still inspect what the server sent.
type ParseError struct {
	RawBody []byte
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse response body: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
