package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/lcplatform/platform/pkg/cache"
	"github.com/lcplatform/platform/pkg/contract"
	"github.com/lcplatform/platform/pkg/errdefs"
)

// cachedSecrets memoizes secret reads in the facade's LRU+TTL cache.
// Errors never populate the cache, so a transient failure does not
// pin a stale miss.
type cachedSecrets struct {
	inner contract.SecretsClient
	cache *cache.Cache
}

func secretKey(name string) string { return "secret:" + name }

func (c *cachedSecrets) Get(ctx context.Context, name string) (string, error) {
	if v, ok := c.cache.Get(secretKey(name)); ok {
		return v.(string), nil
	}
	v, err := c.inner.Get(ctx, name)
	if err != nil {
		return "", err
	}
	c.cache.Put(secretKey(name), v)
	return v, nil
}

func (c *cachedSecrets) GetJSON(ctx context.Context, name string, out interface{}) error {
	v, err := c.Get(ctx, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(v), out); err != nil {
		return errdefs.NewValidation("secret %q is not valid JSON", name).WithCause(err)
	}
	return nil
}

// cachedConfig memoizes configuration reads. Typed getters read
// through Get so one fetch serves every representation.
type cachedConfig struct {
	inner contract.ConfigClient
	cache *cache.Cache
}

func configKey(key string) string { return "config:" + key }

func (c *cachedConfig) Get(ctx context.Context, key string) (interface{}, error) {
	if v, ok := c.cache.Get(configKey(key)); ok {
		return v, nil
	}
	v, err := c.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	c.cache.Put(configKey(key), v)
	return v, nil
}

func (c *cachedConfig) GetString(ctx context.Context, key string) (string, error) {
	v, err := c.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return fmt.Sprintf("%v", v), nil
}

func (c *cachedConfig) GetInt(ctx context.Context, key string) (int, error) {
	v, err := c.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err == nil {
			return int(i), nil
		}
	case string:
		i, err := strconv.Atoi(n)
		if err == nil {
			return i, nil
		}
	}
	return 0, errdefs.NewValidation("configuration key %q is not an integer", key)
}

func (c *cachedConfig) GetBool(ctx context.Context, key string) (bool, error) {
	v, err := c.Get(ctx, key)
	if err != nil {
		return false, err
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err == nil {
			return parsed, nil
		}
	}
	return false, errdefs.NewValidation("configuration key %q is not a boolean", key)
}
