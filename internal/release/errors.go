package release

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport matches any failure to obtain a listing from upstream
	ErrTransport = errors.New("transport failure")
	// ErrMalformedResponse matches a listing that could not be decoded
	ErrMalformedResponse = errors.New("malformed response")
)

// TransportError means the upstream source could not be asked: it was
// unreachable, timed out, returned a non-success status or was short-circuited.
type TransportError struct {
	Project    string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("listing releases of %s: upstream returned status %d: %v", e.Project, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("listing releases of %s: %v", e.Project, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// MalformedResponseError means upstream answered but the body did not have
// the expected release-list shape.
type MalformedResponseError struct {
	Project string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("decoding releases of %s: %v", e.Project, e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

// IsTransport reports whether err is, or wraps, a TransportError
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsMalformed reports whether err is, or wraps, a MalformedResponseError
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedResponse)
}
