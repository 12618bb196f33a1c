package errdefs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{name: "validation", err: NewValidation("bad input"), kind: KindValidation},
		{name: "not found", err: NewNotFound("queue", "orders"), kind: KindNotFound},
		{name: "authentication", err: NewAuthentication("token expired"), kind: KindAuthentication},
		{name: "unavailable", err: NewUnavailable("throttled"), kind: KindUnavailable},
		{name: "timeout", err: NewTimeout("deadline exceeded"), kind: KindTimeout},
		{name: "conflict", err: NewConflict("etag mismatch"), kind: KindConflict},
		{name: "wrapped", err: fmt.Errorf("outer: %w", NewConflict("dup")), kind: KindConflict},
		{name: "foreign", err: errors.New("plain"), kind: ""},
		{name: "nil", err: nil, kind: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewUnavailable("upstream down")))
	assert.True(t, IsRetryable(NewTimeout("slow")))
	assert.False(t, IsRetryable(NewValidation("bad")))
	assert.False(t, IsRetryable(NewAuthentication("denied")))
	assert.False(t, IsRetryable(NewNotFound("secret", "db-password")))
	assert.False(t, IsRetryable(errors.New("unknown")))
}

func TestNotFoundContext(t *testing.T) {
	err := NewNotFound("deployment", "dep-123")
	assert.Equal(t, "deployment", err.Context[CtxResource])
	assert.Equal(t, "dep-123", err.Context["id"])
	assert.Contains(t, err.Error(), "dep-123")
}

func TestCausePreserved(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewUnavailable("send failed").WithCause(cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestIsMatchesByKind(t *testing.T) {
	assert.ErrorIs(t, NewConflict("a"), NewConflict("b"))
	assert.NotErrorIs(t, NewConflict("a"), NewTimeout("b"))
}
