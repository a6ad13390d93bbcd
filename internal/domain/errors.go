package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// ErrorKind classifies every error that leaves the completion client.
type ErrorKind string

const (
	KindAuthenticationFailed   ErrorKind = "authentication_failed"
	KindRateLimited            ErrorKind = "rate_limited"
	KindProviderOverloaded     ErrorKind = "provider_overloaded"
	KindBadRequest             ErrorKind = "bad_request"
	KindProviderError          ErrorKind = "provider_error"
	KindTimeout                ErrorKind = "timeout"
	KindConnectionFailed       ErrorKind = "connection_failed"
	KindUnexpected             ErrorKind = "unexpected_error"
	KindEmptyCompletion        ErrorKind = "empty_completion"
	KindSchemaValidationFailed ErrorKind = "schema_validation_failed"
	KindCanceled               ErrorKind = "canceled"
)

// ErrStreamTruncated marks a provider stream that ended without a stop signal.
var ErrStreamTruncated = errors.New("provider stream truncated")

// statusOverloaded is the provider-specific "overloaded" status code.
const statusOverloaded = 529

// Error is the typed error returned by the completion client.
type Error struct {
	Kind ErrorKind
	// Op is the call site, e.g. "CompletionEngine.Complete".
	Op         string
	Message    string
	StatusCode int
	RetryAfter string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or KindUnexpected for untyped errors.
func KindOf(err error) ErrorKind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return KindUnexpected
}

// StatusError is an HTTP-level failure reported by a provider.
// Transports convert their SDK errors into this type.
type StatusError struct {
	StatusCode int
	// RetryAfter holds the provider's retry-after hint, if any.
	RetryAfter string
	Message    string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Message)
}

// ErrorTranslator maps provider and transport failures to typed errors.
type ErrorTranslator struct {
	timeout time.Duration
}

// NewErrorTranslator creates a translator reporting the configured request timeout.
func NewErrorTranslator(timeout time.Duration) *ErrorTranslator {
	return &ErrorTranslator{
		timeout: timeout,
	}
}

// Translate converts err into an *Error attributed to op.
func (t *ErrorTranslator) Translate(op string, err error) *Error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		if typed.Op != "" {
			return typed
		}
		attributed := *typed
		attributed.Op = op
		return &attributed
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return t.fromStatus(op, statusErr)
	}

	if errors.Is(err, context.Canceled) {
		return &Error{
			Kind:    KindCanceled,
			Op:      op,
			Message: "request canceled by caller",
			Err:     err,
		}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{
			Kind:    KindTimeout,
			Op:      op,
			Message: fmt.Sprintf("no response from provider within %s: %v", t.timeout, err),
			Err:     err,
		}
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) ||
		errors.Is(err, ErrStreamTruncated) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &Error{
			Kind: KindConnectionFailed,
			Op:   op,
			Message: fmt.Sprintf("could not reach provider, check network, proxy and firewall settings: %v",
				err),
			Err: err,
		}
	}

	return &Error{
		Kind:    KindUnexpected,
		Op:      op,
		Message: err.Error(),
		Err:     err,
	}
}

func (t *ErrorTranslator) fromStatus(op string, err *StatusError) *Error {
	translated := &Error{
		Op:         op,
		StatusCode: err.StatusCode,
		RetryAfter: err.RetryAfter,
		Err:        err,
	}

	switch err.StatusCode {
	case http.StatusUnauthorized:
		translated.Kind = KindAuthenticationFailed
		translated.Message = "provider rejected the API key, check that it is valid and not expired: " + err.Message
	case http.StatusTooManyRequests:
		translated.Kind = KindRateLimited
		translated.Message = "provider rate limit exceeded"
		if err.RetryAfter != "" {
			translated.Message += fmt.Sprintf(", retry after %ss", err.RetryAfter)
		}
		translated.Message += ": " + err.Message
	case http.StatusServiceUnavailable, statusOverloaded:
		translated.Kind = KindProviderOverloaded
		translated.Message = "provider is temporarily overloaded, retry with backoff: " + err.Message
	case http.StatusBadRequest:
		translated.Kind = KindBadRequest
		translated.Message = "provider rejected the request, the prompt may be too large " +
			"or a parameter malformed: " + err.Message
	default:
		translated.Kind = KindProviderError
		translated.Message = fmt.Sprintf("provider returned status %d: %s", err.StatusCode, err.Message)
	}

	return translated
}
