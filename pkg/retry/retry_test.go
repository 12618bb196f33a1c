package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/types"
)

func fastPolicy(attempts int) Policy {
	p := DefaultPolicy()
	p.MaxAttempts = attempts
	p.BaseDelay = time.Microsecond
	p.MaxDelay = time.Millisecond
	p.Jitter = false
	return p
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesRetryable(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), func() error {
		calls++
		if calls < 3 {
			return errdefs.NewUnavailable("throttled")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(4), func() error {
		calls++
		return errdefs.NewUnavailable("still down, call %d", calls)
	})
	require.Error(t, err)
	assert.Equal(t, 4, calls)
	// Last error, not the first, with the attempt count attached.
	assert.Contains(t, err.Error(), "call 4")
	var e *errdefs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "4", e.Context[errdefs.CtxAttempt])
}

func TestDoDoesNotRetryNonRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "validation", err: errdefs.NewValidation("bad")},
		{name: "authentication", err: errdefs.NewAuthentication("denied")},
		{name: "not found", err: errdefs.NewNotFound("queue", "q")},
		{name: "conflict", err: errdefs.NewConflict("dup")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Do(context.Background(), fastPolicy(5), func() error {
				calls++
				return tt.err
			})
			assert.Equal(t, 1, calls)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestDoCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, fastPolicy(10), func() error {
		calls++
		cancel()
		return errdefs.NewUnavailable("down")
	})
	require.Error(t, err)
	assert.True(t, errdefs.IsTimeout(err))
	assert.LessOrEqual(t, calls, 2)
}

func TestDelayForBackoff(t *testing.T) {
	p := Policy{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}
	assert.Equal(t, 100*time.Millisecond, p.delayFor(0))
	assert.Equal(t, 200*time.Millisecond, p.delayFor(1))
	assert.Equal(t, 400*time.Millisecond, p.delayFor(2))
	assert.Equal(t, 800*time.Millisecond, p.delayFor(3))
	assert.Equal(t, time.Second, p.delayFor(4))
	assert.Equal(t, time.Second, p.delayFor(20))
}

func TestDelayForJitterBounds(t *testing.T) {
	p := Policy{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Jitter: true}
	for i := 0; i < 50; i++ {
		d := p.delayFor(3)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 800*time.Millisecond)
	}
}

func TestFromOptions(t *testing.T) {
	off := false
	p := FromOptions(types.RetryOptions{MaxAttempts: 7, BaseDelay: time.Second, Jitter: &off})
	assert.Equal(t, 7, p.MaxAttempts)
	assert.Equal(t, time.Second, p.BaseDelay)
	assert.Equal(t, defaultMaxDelay, p.MaxDelay)
	assert.False(t, p.Jitter)
}
