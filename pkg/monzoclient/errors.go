package monzoclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	// ErrMissingAccessToken is returned by NewClient when no bearer token is configured.
	ErrMissingAccessToken = errors.New("monzoclient: access token is required")
	// ErrMissingArgument is returned before any request is sent when a required identifier is empty.
	ErrMissingArgument = errors.New("monzoclient: required argument is empty")
	// ErrResponseTooLarge is wrapped in a DecodeError when a 2xx body exceeds the read cap.
	ErrResponseTooLarge = errors.New("monzoclient: response body too large")
)

// TransportError is a network-level failure: DNS, refused connection,
// timeout or cancellation. No response content was inspected.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("monzoclient: %s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was a deadline or transport timeout.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// APIError is a complete HTTP exchange that ended with a non-2xx status.
// Body holds the raw response body for diagnostics.
type APIError struct {
	Op         string
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("monzoclient: %s: api returned status %d (%s): %s", e.Op, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("monzoclient: %s: api returned status %d", e.Op, e.StatusCode)
}

// IsUnauthorized reports a 401 or 403, which callers treat as a signal to re-authenticate.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// DecodeError is a 2xx response whose body did not match the expected shape.
// Err is a *domain.SchemaError, a *domain.UnknownEnumValueError, or wraps
// ErrResponseTooLarge.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("monzoclient: %s: decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
