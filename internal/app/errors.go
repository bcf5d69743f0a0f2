package app

import (
	"errors"
	"fmt"

	"github.com/benfdking/monzo-mcp/internal/domain"
	"github.com/benfdking/monzo-mcp/pkg/monzoclient"
)

// ErrUnknownTool is returned by Invoke for a name that is not registered.
var ErrUnknownTool = errors.New("unknown tool")

// ArgumentError reports tool arguments that failed decoding or validation.
type ArgumentError struct {
	Tool    string
	Field   string
	Message string
}

func (e *ArgumentError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: invalid argument %q: %s", e.Tool, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: invalid arguments: %s", e.Tool, e.Message)
}

// RateLimitedError is returned when a caller exceeded its invocation budget.
type RateLimitedError struct {
	RetryAfterSeconds int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded; retry after %ds", e.RetryAfterSeconds)
}

// ErrorKind names a class of invocation failure.
type ErrorKind string

const (
	KindInvalidArgument  ErrorKind = "invalid_argument"
	KindUnknownEnumValue ErrorKind = "unknown_enum_value"
	KindUnknownTool      ErrorKind = "unknown_tool"
	KindRateLimited      ErrorKind = "rate_limited"
	KindTransport        ErrorKind = "transport_error"
	KindAPI              ErrorKind = "api_error"
	KindDecode           ErrorKind = "decode_error"
	KindInternal         ErrorKind = "internal_error"
)

// ClassifyError maps an error returned by Invoke to its kind. Client error
// kinds are checked before the domain errors they may wrap.
func ClassifyError(err error) ErrorKind {
	var (
		argErr       *ArgumentError
		enumErr      *domain.UnknownEnumValueError
		limitErr     *RateLimitedError
		transportErr *monzoclient.TransportError
		apiErr       *monzoclient.APIError
		decodeErr    *monzoclient.DecodeError
	)
	switch {
	case errors.Is(err, ErrUnknownTool):
		return KindUnknownTool
	case errors.As(err, &limitErr):
		return KindRateLimited
	case errors.As(err, &transportErr):
		return KindTransport
	case errors.As(err, &apiErr):
		return KindAPI
	case errors.As(err, &decodeErr):
		return KindDecode
	case errors.As(err, &enumErr):
		return KindUnknownEnumValue
	case errors.As(err, &argErr), errors.Is(err, monzoclient.ErrMissingArgument):
		return KindInvalidArgument
	default:
		return KindInternal
	}
}
