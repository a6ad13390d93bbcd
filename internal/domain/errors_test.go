package domain_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/ember/internal/domain"
)

func TestErrorTranslator_Translate(t *testing.T) {
	translator := domain.NewErrorTranslator(30 * time.Second)

	tests := []struct {
		name        string
		err         error
		kind        domain.ErrorKind
		contains    string
		retryAfter  string
		statusCode  int
		wrapsSource bool
	}{
		{
			name:        "401 is an authentication failure",
			err:         &domain.StatusError{StatusCode: 401, Message: "invalid x-api-key"},
			kind:        domain.KindAuthenticationFailed,
			contains:    "API key",
			statusCode:  401,
			wrapsSource: true,
		},
		{
			name:        "429 carries the retry-after hint",
			err:         &domain.StatusError{StatusCode: 429, RetryAfter: "20", Message: "slow down"},
			kind:        domain.KindRateLimited,
			contains:    "retry after 20s",
			retryAfter:  "20",
			statusCode:  429,
			wrapsSource: true,
		},
		{
			name:       "429 without retry-after",
			err:        &domain.StatusError{StatusCode: 429, Message: "slow down"},
			kind:       domain.KindRateLimited,
			contains:   "rate limit exceeded: slow down",
			statusCode: 429,
		},
		{
			name:       "529 is overloaded",
			err:        &domain.StatusError{StatusCode: 529, Message: "Overloaded"},
			kind:       domain.KindProviderOverloaded,
			contains:   "overloaded",
			statusCode: 529,
		},
		{
			name:       "503 is overloaded",
			err:        &domain.StatusError{StatusCode: 503, Message: "unavailable"},
			kind:       domain.KindProviderOverloaded,
			statusCode: 503,
		},
		{
			name:       "400 is a bad request",
			err:        &domain.StatusError{StatusCode: 400, Message: "prompt is too long"},
			kind:       domain.KindBadRequest,
			contains:   "prompt is too long",
			statusCode: 400,
		},
		{
			name:       "other statuses are provider errors",
			err:        &domain.StatusError{StatusCode: 500, Message: "internal"},
			kind:       domain.KindProviderError,
			contains:   "status 500",
			statusCode: 500,
		},
		{
			name:       "wrapped status error",
			err:        fmt.Errorf("anthropic: %w", &domain.StatusError{StatusCode: 401, Message: "nope"}),
			kind:       domain.KindAuthenticationFailed,
			statusCode: 401,
		},
		{
			name:        "deadline exceeded is a timeout",
			err:         fmt.Errorf("post: %w", context.DeadlineExceeded),
			kind:        domain.KindTimeout,
			contains:    "30s",
			wrapsSource: true,
		},
		{
			name: "network timeout",
			err:  &net.DNSError{Err: "i/o timeout", Name: "api.example.com", IsTimeout: true},
			kind: domain.KindTimeout,
		},
		{
			name:        "refused connection",
			err:         &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
			kind:        domain.KindConnectionFailed,
			contains:    "network, proxy and firewall",
			wrapsSource: true,
		},
		{
			name: "unknown host",
			err:  &net.DNSError{Err: "no such host", Name: "api.example.invalid", IsNotFound: true},
			kind: domain.KindConnectionFailed,
		},
		{
			name:        "truncated stream",
			err:         fmt.Errorf("%w: stream ended before message_stop", domain.ErrStreamTruncated),
			kind:        domain.KindConnectionFailed,
			contains:    "message_stop",
			wrapsSource: true,
		},
		{
			name: "unexpected EOF",
			err:  fmt.Errorf("read body: %w", io.ErrUnexpectedEOF),
			kind: domain.KindConnectionFailed,
		},
		{
			name: "canceled by caller",
			err:  context.Canceled,
			kind: domain.KindCanceled,
		},
		{
			name:        "anything else is unexpected",
			err:         errors.New("boom"),
			kind:        domain.KindUnexpected,
			contains:    "boom",
			wrapsSource: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			translated := translator.Translate("Test.Op", tt.err)

			require.NotNil(t, translated)
			require.Equal(t, tt.kind, translated.Kind)
			require.Equal(t, "Test.Op", translated.Op)
			require.Equal(t, tt.retryAfter, translated.RetryAfter)
			require.Equal(t, tt.statusCode, translated.StatusCode)
			if tt.contains != "" {
				require.Contains(t, translated.Message, tt.contains)
			}
			if tt.wrapsSource {
				require.ErrorIs(t, translated, tt.err)
			}
			require.True(t, domain.IsKind(translated, tt.kind))
		})
	}
}

func TestErrorTranslator_PassesTypedErrorsThrough(t *testing.T) {
	translator := domain.NewErrorTranslator(time.Second)
	original := &domain.Error{Kind: domain.KindEmptyCompletion, Message: "no text"}

	translated := translator.Translate("Outer.Op", fmt.Errorf("wrapped: %w", original))

	require.NotSame(t, original, translated)
	require.Equal(t, "Outer.Op", translated.Op)
	require.Equal(t, domain.KindEmptyCompletion, translated.Kind)
	require.Equal(t, "no text", translated.Message)
	require.Empty(t, original.Op, "caller's error is not modified")

	again := translator.Translate("Other.Op", translated)
	require.Same(t, translated, again)
	require.Equal(t, "Outer.Op", again.Op, "existing op is kept")
}

func TestErrorTranslator_SharedErrorIsNotMutated(t *testing.T) {
	translator := domain.NewErrorTranslator(time.Second)
	shared := &domain.Error{Kind: domain.KindBadRequest, Message: "request cannot be nil"}

	first := translator.Translate("First.Op", shared)
	second := translator.Translate("Second.Op", shared)

	require.Equal(t, "First.Op", first.Op)
	require.Equal(t, "Second.Op", second.Op)
	require.Empty(t, shared.Op)
}

func TestErrorTranslator_Nil(t *testing.T) {
	require.Nil(t, domain.NewErrorTranslator(time.Second).Translate("op", nil))
}

func TestKindOf(t *testing.T) {
	require.Equal(t, domain.KindRateLimited, domain.KindOf(&domain.Error{Kind: domain.KindRateLimited}))
	require.Equal(t, domain.KindUnexpected, domain.KindOf(errors.New("plain")))
	require.False(t, domain.IsKind(errors.New("plain"), domain.KindUnexpected))
}

func TestError_Error(t *testing.T) {
	err := &domain.Error{Kind: domain.KindTimeout, Op: "CompletionEngine.Complete", Message: "too slow"}
	require.EqualError(t, err, "CompletionEngine.Complete: timeout: too slow")

	err.Op = ""
	require.EqualError(t, err, "timeout: too slow")
}
