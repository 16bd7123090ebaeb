package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNetError struct {
	timeout bool
}

func (e *fakeNetError) Error() string   { return "fake net error" }
func (e *fakeNetError) Timeout() bool   { return e.timeout }
func (e *fakeNetError) Temporary() bool { return false }

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		statusCode    int
		wantCode      ErrorCode
		wantRetryable bool
	}{
		{
			name:          "context cancellation",
			err:           context.Canceled,
			wantCode:      ErrCodeCancelled,
			wantRetryable: false,
		},
		{
			name:          "context deadline",
			err:           context.DeadlineExceeded,
			wantCode:      ErrCodeSearchTimeout,
			wantRetryable: true,
		},
		{
			name:          "wrapped cancellation",
			err:           fmt.Errorf("search aborted: %w", context.Canceled),
			wantCode:      ErrCodeCancelled,
			wantRetryable: false,
		},
		{
			name:          "network timeout",
			err:           &fakeNetError{timeout: true},
			wantCode:      ErrCodeSearchTimeout,
			wantRetryable: true,
		},
		{
			name:          "network failure",
			err:           &fakeNetError{},
			wantCode:      ErrCodeBackendUnreachable,
			wantRetryable: true,
		},
		{
			name: "connection refused",
			err: &net.OpError{
				Op:  "dial",
				Err: &os.SyscallError{Syscall: "connect", Err: syscall.ECONNREFUSED},
			},
			wantCode:      ErrCodeBackendUnreachable,
			wantRetryable: true,
		},
		{
			name:          "client status",
			statusCode:    400,
			wantCode:      ErrCodeInvalidQuery,
			wantRetryable: false,
		},
		{
			name:          "not found status",
			statusCode:    404,
			wantCode:      ErrCodeInvalidQuery,
			wantRetryable: false,
		},
		{
			name:          "server status",
			statusCode:    503,
			wantCode:      ErrCodeBackendFault,
			wantRetryable: true,
		},
		{
			name:          "unknown error",
			err:           errors.New("mapping parse exploded"),
			wantCode:      ErrCodeUnclassified,
			wantRetryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err, tt.statusCode)

			require.NotNil(t, got)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantRetryable, got.Retryable)
			assert.False(t, got.Timestamp.IsZero())
		})
	}
}

func TestClassifyPassesThroughStandardError(t *testing.T) {
	original := NewSearchTimeoutError("es took too long")

	got := Classify(fmt.Errorf("search: %w", original), 0)

	assert.Same(t, original, got)
}

func TestUnclassifiedKeepsOriginalMessage(t *testing.T) {
	got := Classify(errors.New("shard allocation failed"), 0)

	assert.Equal(t, ErrCodeUnclassified, got.Code)
	assert.Equal(t, "shard allocation failed", got.Message)
}

func TestCancelledErrorIsSilentAndMessageless(t *testing.T) {
	got := Classify(context.Canceled, 0)

	assert.Empty(t, got.Message)
	assert.True(t, IsSilent(got))
	assert.True(t, IsSilent(context.Canceled))
	assert.False(t, IsSilent(NewBackendFaultError("boom")))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrCodeSearchTimeout, CodeOf(NewSearchTimeoutError("x")))
	assert.Equal(t, ErrCodeSearchTimeout, CodeOf(fmt.Errorf("wrapped: %w", NewSearchTimeoutError("x"))))
	assert.Equal(t, ErrCodeUnclassified, CodeOf(errors.New("plain")))
}

func TestUserFacingMessagesArePersian(t *testing.T) {
	for _, e := range []*StandardError{
		NewBackendUnreachableError(errors.New("dial tcp: refused")),
		NewSearchTimeoutError("deadline"),
		NewInvalidQueryError("bad sort"),
		NewBackendFaultError("500"),
	} {
		assert.NotEmpty(t, e.Message, string(e.Code))
		assert.NotContains(t, e.Message, "error", "message must not leak internals for %s", e.Code)
	}
}
