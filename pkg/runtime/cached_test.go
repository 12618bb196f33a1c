package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcplatform/platform/pkg/cache"
	"github.com/lcplatform/platform/pkg/errdefs"
)

type countingSecrets struct {
	calls int
	value string
	err   error
}

func (c *countingSecrets) Get(ctx context.Context, name string) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return c.value, nil
}

func (c *countingSecrets) GetJSON(ctx context.Context, name string, out interface{}) error {
	_, err := c.Get(ctx, name)
	return err
}

type countingConfig struct {
	calls int
	value interface{}
}

func (c *countingConfig) Get(ctx context.Context, key string) (interface{}, error) {
	c.calls++
	return c.value, nil
}

func (c *countingConfig) GetString(ctx context.Context, key string) (string, error) { return "", nil }
func (c *countingConfig) GetInt(ctx context.Context, key string) (int, error)       { return 0, nil }
func (c *countingConfig) GetBool(ctx context.Context, key string) (bool, error)     { return false, nil }

func TestCachedSecretsReadThrough(t *testing.T) {
	inner := &countingSecrets{value: "hunter2"}
	c := &cachedSecrets{inner: inner, cache: cache.New(10, time.Minute)}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		v, err := c.Get(ctx, "db-password")
		require.NoError(t, err)
		assert.Equal(t, "hunter2", v)
	}
	assert.Equal(t, 1, inner.calls, "fresh entries serve repeat reads")
}

func TestCachedSecretsNeverCachesErrors(t *testing.T) {
	inner := &countingSecrets{err: errdefs.NewUnavailable("backend down")}
	c := &cachedSecrets{inner: inner, cache: cache.New(10, time.Minute)}
	ctx := context.Background()

	_, err := c.Get(ctx, "db-password")
	require.Error(t, err)
	_, err = c.Get(ctx, "db-password")
	require.Error(t, err)
	assert.Equal(t, 2, inner.calls, "failures reach the backend every time")

	// Recovery is visible immediately.
	inner.err = nil
	inner.value = "restored"
	v, err := c.Get(ctx, "db-password")
	require.NoError(t, err)
	assert.Equal(t, "restored", v)
}

func TestCachedSecretsExpiry(t *testing.T) {
	inner := &countingSecrets{value: "v"}
	c := &cachedSecrets{inner: inner, cache: cache.New(10, time.Nanosecond)}
	ctx := context.Background()

	_, err := c.Get(ctx, "s")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = c.Get(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls, "expired entries read as misses")
}

func TestCachedConfigOneFetchServesTypedReads(t *testing.T) {
	inner := &countingConfig{value: float64(8080)}
	c := &cachedConfig{inner: inner, cache: cache.New(10, time.Minute)}
	ctx := context.Background()

	n, err := c.GetInt(ctx, "port")
	require.NoError(t, err)
	assert.Equal(t, 8080, n)

	s, err := c.GetString(ctx, "port")
	require.NoError(t, err)
	assert.Equal(t, "8080", s)

	assert.Equal(t, 1, inner.calls)
}

func TestCachedConfigTypeMismatch(t *testing.T) {
	inner := &countingConfig{value: "not-a-bool"}
	c := &cachedConfig{inner: inner, cache: cache.New(10, time.Minute)}
	ctx := context.Background()

	_, err := c.GetBool(ctx, "flag")
	assert.True(t, errdefs.IsValidation(err))
}
