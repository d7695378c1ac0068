package pipeline

import (
	"errors"
	"fmt"

	"github.com/samvad-hq/library-client/internal/refresh"
)

var (
	// ErrEmptyResponse is returned for a 2xx response without a usable body.
	ErrEmptyResponse = errors.New("empty response body")
	// ErrMalformedResponse is returned for a 2xx body that is not an envelope.
	ErrMalformedResponse = errors.New("malformed response body")
	// ErrAuthExpired means the credentials are void. They have been cleared
	// and the navigator sent to the login entry point.
	ErrAuthExpired = errors.New("authentication expired")
	// ErrInterrupted means the caller's context ended while a 401 was being
	// recovered. The stored credentials are left untouched.
	ErrInterrupted = errors.New("request interrupted during token refresh")

	// ErrNoRefreshToken and ErrRefreshFailed are wrapped inside
	// ErrAuthExpired when a refresh could not recover a 401.
	ErrNoRefreshToken = refresh.ErrNoRefreshToken
	ErrRefreshFailed  = refresh.ErrRefreshFailed
)

// BusinessError is a non-success envelope inside a 2xx response.
type BusinessError struct {
	Code    int
	Message string
}

func (e *BusinessError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// TransportError is any failure below the envelope: network errors,
// timeouts and non-2xx statuses other than an unrecoverable 401.
type TransportError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *TransportError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// MalformedResponseError is a 2xx body that is not an envelope. It matches
// ErrMalformedResponse. Title is the page title when the body is HTML, which
// usually names the proxy or gateway that answered instead of the API.
type MalformedResponseError struct {
	StatusCode  int
	ContentType string
	Title       string
}

func (e *MalformedResponseError) Error() string {
	if e == nil || e.Title == "" {
		return ErrMalformedResponse.Error()
	}
	return fmt.Sprintf("%s: %q", ErrMalformedResponse.Error(), e.Title)
}

func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}
