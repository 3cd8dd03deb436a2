package transfer

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when an operation starts while another one is in flight.
	ErrBusy = errors.New("another transfer operation is in progress")

	// ErrCancelled is returned when an upload was aborted before completion.
	ErrCancelled = errors.New("upload cancelled")

	// ErrInvalidTransition is returned by Machine for transitions it does not allow.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrUnauthenticated is returned when an operation needs a session token and none is stored.
	ErrUnauthenticated = errors.New("not logged in")

	// ErrTransferNotFound is returned when a transfer link does not exist.
	ErrTransferNotFound = errors.New("transfer not found")

	// ErrTransferExpired is returned when a transfer link has expired.
	ErrTransferExpired = errors.New("transfer link has expired")
)

// ValidationError reports a missing or invalid form field. It is raised
// before any network call and the form is left untouched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// HTTPError is a non-success response from the backend.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend returned %d", e.StatusCode)
}

// NetworkError is a request that never produced a response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// SizeChangedError reports a staged file whose content no longer matches the
// size recorded when it was staged. Actual is -1 when the file grew and was
// only read up to its staged size.
type SizeChangedError struct {
	Path   string
	Staged int64
	Actual int64
}

func (e *SizeChangedError) Error() string {
	if e.Actual < 0 {
		return fmt.Sprintf("%s grew past its staged size of %d bytes; stage it again", e.Path, e.Staged)
	}
	return fmt.Sprintf("%s changed size since it was staged (%d bytes, now %d); stage it again", e.Path, e.Staged, e.Actual)
}
