package event

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedPayload is returned when a body cannot be decoded into an Event
	ErrMalformedPayload = errors.New("malformed webhook payload")

	// ErrInvalidObjectRef is returned when an object reference is not "<type>:<id>"
	ErrInvalidObjectRef = errors.New("invalid object reference")

	// ErrUnknownObjectType is returned when an object reference names an unknown type
	ErrUnknownObjectType = errors.New("unknown object type")

	// ErrMissingToken is returned when no access token exists for a merchant
	ErrMissingToken = errors.New("no access token for merchant")

	// ErrDetailFetch is returned when a detail request fails or is rejected
	ErrDetailFetch = errors.New("detail fetch failed")

	// ErrHandlerFailure wraps errors and panics raised by event handlers
	ErrHandlerFailure = errors.New("event handler failed")
)

// ObjectRefError reports which reference could not be resolved
type ObjectRefError struct {
	Ref string
	Err error
}

func (e *ObjectRefError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Ref)
}

func (e *ObjectRefError) Unwrap() error {
	return e.Err
}

// DetailFetchError describes a failed detail request.
// StatusCode is zero when the request never produced a response.
type DetailFetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *DetailFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%v: %s returned status %d", ErrDetailFetch, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%v: %s: %v", ErrDetailFetch, e.URL, e.Err)
}

func (e *DetailFetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDetailFetch}
	}
	return []error{ErrDetailFetch, e.Err}
}
