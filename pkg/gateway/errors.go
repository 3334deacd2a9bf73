package gateway

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies gateway failures.
type ErrorKind string

const (
	// KindRateLimited means the local budget is exhausted or the upstream returned 429.
	KindRateLimited ErrorKind = "rate_limited"

	// KindUpstream means the upstream returned a non-2xx status other than 429,
	// or the transport failed before a response arrived.
	KindUpstream ErrorKind = "upstream"

	// KindTimeout means the request exceeded its deadline.
	KindTimeout ErrorKind = "timeout"

	// KindDecode means the body did not match the expected envelope.
	KindDecode ErrorKind = "decode"
)

// Sentinels matched by errors.Is against *Error.
var (
	ErrRateLimited = errors.New("rate limited")
	ErrUpstream    = errors.New("upstream error")
	ErrTimeout     = errors.New("upstream timeout")
	ErrDecode      = errors.New("decode error")
)

// Rate limit sources.
const (
	SourceLocal    = "local"
	SourceShared   = "shared"
	SourceUpstream = "upstream"
)

// maxErrorBody bounds the upstream body kept on an Error.
const maxErrorBody = 512

// Error is the typed failure returned by Fetch.
type Error struct {
	Kind     ErrorKind
	Resource string

	// StatusCode is the upstream HTTP status (0 when no response arrived).
	StatusCode int

	// Body is the beginning of the upstream response body, if any.
	Body string

	// Source tells which budget refused a rate-limited request.
	Source string

	// RetryAfter is the limiter's advised wait for locally rate-limited requests.
	RetryAfter time.Duration

	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("gateway %s error for %q", e.Kind, e.Resource)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Source != "" {
		msg += " [" + e.Source + "]"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.Kind == KindRateLimited
	case ErrUpstream:
		return e.Kind == KindUpstream
	case ErrTimeout:
		return e.Kind == KindTimeout
	case ErrDecode:
		return e.Kind == KindDecode
	}
	return false
}

// KindOf returns the kind of a gateway error, or "" for other errors.
func KindOf(err error) ErrorKind {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return ""
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody])
	}
	return string(body)
}
