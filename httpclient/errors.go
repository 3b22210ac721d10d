package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/kbukum/speakerkit/errors"
	"github.com/kbukum/speakerkit/resilience"
)

// Kind classifies a failed call.
type Kind string

const (
	// KindTimeout is a request that ran past its deadline.
	KindTimeout Kind = "timeout"
	// KindConnection is a refused connection, DNS failure or broken read.
	KindConnection Kind = "connection"
	// KindRequest is a request that could not be built.
	KindRequest Kind = "request"
	// KindTooLarge is a reply body over MaxResponseBytes.
	KindTooLarge Kind = "too_large"
	// KindDecode is a 2xx reply whose body is not the expected JSON.
	KindDecode Kind = "decode"
	// KindAuth is a 401 or 403 reply.
	KindAuth Kind = "auth"
	// KindNotFound is a 404 reply.
	KindNotFound Kind = "not_found"
	// KindRateLimit is a 429 reply.
	KindRateLimit Kind = "rate_limit"
	// KindRejected is any other 4xx reply.
	KindRejected Kind = "rejected"
	// KindServer is a 5xx reply.
	KindServer Kind = "server"
)

// Error is a failed call.
type Error struct {
	Kind Kind
	// Status is the reply status, 0 when no reply was read.
	Status int
	// Body holds the reply body of status failures.
	Body []byte
	// Size is the declared body length of a KindTooLarge reply, or -1 when
	// the server did not declare one.
	Size int64
	// RetryAfter is the server's Retry-After hint.
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("httpclient: ")
	b.WriteString(string(e.Kind))
	if e.Status > 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.Status)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the same call may succeed later.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindConnection, KindRateLimit, KindServer:
		return true
	}
	return false
}

// statusError classifies a non-2xx reply.
func statusError(resp *http.Response, body []byte, now time.Time) *Error {
	e := &Error{Status: resp.StatusCode, Body: body}
	switch code := resp.StatusCode; {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		e.Kind = KindAuth
	case code == http.StatusNotFound:
		e.Kind = KindNotFound
	case code == http.StatusTooManyRequests:
		e.Kind = KindRateLimit
	case code >= 400 && code < 500:
		e.Kind = KindRejected
	default:
		e.Kind = KindServer
	}
	if e.Kind == KindRateLimit || e.Kind == KindServer {
		e.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"), now)
	}
	return e
}

func asError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	if e, ok := asError(err); ok {
		return e.Kind
	}
	return ""
}

// IsRetryable reports whether err is a retryable *Error.
func IsRetryable(err error) bool {
	e, ok := asError(err)
	return ok && e.Retryable()
}

// RetryAfter returns the Retry-After hint carried by err, or 0.
func RetryAfter(err error) time.Duration {
	if e, ok := asError(err); ok {
		return e.RetryAfter
	}
	return 0
}

// StatusCode returns the reply status carried by err, or 0.
func StatusCode(err error) int {
	if e, ok := asError(err); ok {
		return e.Status
	}
	return 0
}

// parseRetryAfter reads delta-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(max(secs, 0)) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}

const maxBodyDetail = 256

// ToAppError maps a failed call to service onto toolkit error codes.
// Timeouts become TIMEOUT. Unreachable peers and open circuits become
// SERVICE_UNAVAILABLE. Everything else is EXTERNAL_SERVICE_ERROR, carrying
// the status and, when the peer answered with an error envelope, its code
// and message.
func ToAppError(service string, err error) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return apperrors.ServiceUnavailable(service).WithCause(err)
	}

	e, ok := asError(err)
	if !ok {
		return apperrors.ExternalServiceError(service, err)
	}
	switch e.Kind {
	case KindTimeout:
		return apperrors.Timeout(service).WithCause(err)
	case KindConnection:
		return apperrors.ServiceUnavailable(service).WithCause(err)
	}

	appErr := apperrors.ExternalServiceError(service, err)
	if e.Status > 0 {
		appErr.WithDetail("status", e.Status)
	}
	if body, ok := apperrors.ParseResponse(e.Body); ok {
		appErr.WithDetail("remote_code", string(body.Code)).WithDetail("remote_message", body.Message)
	} else if len(e.Body) > 0 {
		appErr.WithDetail("body", truncate(string(e.Body), maxBodyDetail))
	}
	return appErr
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
