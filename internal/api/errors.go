package api

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned for HTTP 401. Token handling belongs to the
// caller.
var ErrUnauthorized = errors.New("unauthorized")

// NetworkError wraps a failed request: transport errors (Status 0) and
// unexpected response codes alike.
type NetworkError struct {
	Op     string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: unexpected status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
