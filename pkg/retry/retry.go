package retry

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"time"

	retrygo "github.com/avast/retry-go"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/log"
	"github.com/lcplatform/platform/pkg/metrics"
	"github.com/lcplatform/platform/pkg/types"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 100 * time.Millisecond
	defaultMaxDelay    = 10 * time.Second
)

// Policy bounds a retry loop
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      bool // Full jitter: delay is multiplied by rand [0,1]
	Retryable   func(error) bool
}

// DefaultPolicy returns the standard policy: 3 attempts, 100ms base,
// 10s cap, full jitter, retrying only the retryable taxonomy kinds.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: defaultMaxAttempts,
		BaseDelay:   defaultBaseDelay,
		MaxDelay:    defaultMaxDelay,
		Jitter:      true,
		Retryable:   errdefs.IsRetryable,
	}
}

// FromOptions applies configuration overrides to the default policy
func FromOptions(opts types.RetryOptions) Policy {
	p := DefaultPolicy()
	if opts.MaxAttempts > 0 {
		p.MaxAttempts = opts.MaxAttempts
	}
	if opts.BaseDelay > 0 {
		p.BaseDelay = opts.BaseDelay
	}
	if opts.MaxDelay > 0 {
		p.MaxDelay = opts.MaxDelay
	}
	if opts.Jitter != nil {
		p.Jitter = *opts.Jitter
	}
	return p
}

var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// delayFor computes the backoff before retry n (0-based): the
// exponential min(maxDelay, base*2^n), scaled by the jitter factor.
func (p Policy) delayFor(n uint) time.Duration {
	d := p.BaseDelay
	for i := uint(0); i < n && d < p.MaxDelay; i++ {
		d *= 2
	}
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter && d > 0 {
		rngMu.Lock()
		d = time.Duration(rng.Float64() * float64(d))
		rngMu.Unlock()
	}
	return d
}

// Do runs op under the policy. Non-retryable errors surface after a
// single attempt; retryable errors surface after MaxAttempts with the
// last error, annotated with the attempt count. Cancellation aborts
// before the next attempt.
func Do(ctx context.Context, p Policy, op func() error) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = errdefs.IsRetryable
	}

	timer := metrics.NewTimer()
	attempts := 0
	err := retrygo.Do(
		func() error {
			attempts++
			metrics.RetryAttempts.Inc()
			return op()
		},
		retrygo.Context(ctx),
		retrygo.Attempts(uint(p.MaxAttempts)),
		retrygo.RetryIf(retryable),
		retrygo.LastErrorOnly(true),
		retrygo.DelayType(func(n uint, _ error, _ *retrygo.Config) time.Duration {
			return p.delayFor(n)
		}),
		retrygo.OnRetry(func(n uint, err error) {
			log.Logger.Warn().Uint("attempt", n+1).Err(err).Msg("retrying operation")
		}),
	)
	timer.ObserveDuration(metrics.OperationDuration)
	if err == nil {
		return nil
	}
	if attempts >= p.MaxAttempts {
		metrics.RetriesExhausted.Inc()
	}

	if ctxErr := ctx.Err(); ctxErr != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) {
		return errdefs.NewTimeout("operation aborted after %d attempt(s)", attempts).WithCause(ctxErr)
	}

	var e *errdefs.Error
	if errors.As(err, &e) {
		e.WithContext(errdefs.CtxAttempt, strconv.Itoa(attempts))
	}
	return err
}
