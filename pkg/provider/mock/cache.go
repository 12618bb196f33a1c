package mock

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/types"
)

type clusterState struct {
	cluster types.CacheCluster
	pending []types.CacheClusterStatus
}

func (s *clusterState) step() {
	if len(s.pending) == 0 {
		return
	}
	s.cluster.Status = s.pending[0]
	s.pending = s.pending[1:]
}

type cacheService struct {
	w *world
}

func (s *cacheService) CreateCluster(ctx context.Context, id string, opts types.CacheClusterOptions) (*types.CacheCluster, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, errdefs.NewValidationPath("/id", "id is required")
	}
	engine := opts.Engine
	if engine == "" {
		engine = "redis"
	}
	nodes := opts.Nodes
	if nodes == 0 {
		nodes = 1
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if _, exists := s.w.clusters[id]; exists {
		return nil, errdefs.NewConflict("cache cluster %q already exists", id)
	}
	st := &clusterState{
		cluster: types.CacheCluster{
			ID:       id,
			Engine:   engine,
			NodeType: opts.NodeType,
			Nodes:    nodes,
			Status:   types.CacheClusterCreating,
			Endpoint: fmt.Sprintf("%s.cache.mock.lcplatform.dev:6379", id),
			Tags:     copyStrMap(opts.Tags),
			Created:  time.Now(),
		},
		pending: []types.CacheClusterStatus{types.CacheClusterAvailable},
	}
	s.w.clusters[id] = st
	out := cloneCluster(st.cluster)
	return &out, nil
}

func (s *cacheService) GetCluster(ctx context.Context, id string) (*types.CacheCluster, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.clusters[id]
	if !ok {
		return nil, errdefs.NewNotFound("cache cluster", id)
	}
	st.step()
	out := cloneCluster(st.cluster)
	return &out, nil
}

func (s *cacheService) DeleteCluster(ctx context.Context, id string) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if _, ok := s.w.clusters[id]; !ok {
		return errdefs.NewNotFound("cache cluster", id)
	}
	delete(s.w.clusters, id)
	return nil
}

func (s *cacheService) ListClusters(ctx context.Context) ([]types.CacheCluster, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	out := make([]types.CacheCluster, 0, len(s.w.clusters))
	for _, st := range s.w.clusters {
		st.step()
		out = append(out, cloneCluster(st.cluster))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *cacheService) ConfigureSecurity(ctx context.Context, id string, cfg types.CacheSecurityConfig) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.clusters[id]
	if !ok {
		return errdefs.NewNotFound("cache cluster", id)
	}
	st.cluster.AuthTokenEnabled = cfg.AuthToken != ""
	st.cluster.TransitEncryption = cfg.TransitEncryption
	st.cluster.Status = types.CacheClusterModifying
	st.pending = []types.CacheClusterStatus{types.CacheClusterAvailable}
	return nil
}

func (s *cacheService) FlushCluster(ctx context.Context, id string) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if _, ok := s.w.clusters[id]; !ok {
		return errdefs.NewNotFound("cache cluster", id)
	}
	s.w.kv = make(map[string]*kvEntry)
	return nil
}

func cloneCluster(c types.CacheCluster) types.CacheCluster {
	c.Tags = copyStrMap(c.Tags)
	return c
}

// kvEntry is one value in the data-plane key-value store. A zero
// expiry means the entry does not expire.
type kvEntry struct {
	value   string
	expires time.Time
}

func (e *kvEntry) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

// cacheClient is the data-plane view over the shared key-value state.
type cacheClient struct {
	w *world
}

func (c *cacheClient) Get(ctx context.Context, key string) (string, bool, error) {
	if err := c.w.simulate(ctx); err != nil {
		return "", false, err
	}
	c.w.mu.Lock()
	defer c.w.mu.Unlock()
	e, ok := c.w.kv[key]
	if !ok {
		return "", false, nil
	}
	if e.expired(time.Now()) {
		delete(c.w.kv, key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (c *cacheClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.w.simulate(ctx); err != nil {
		return err
	}
	c.w.mu.Lock()
	defer c.w.mu.Unlock()
	e := &kvEntry{value: value}
	if ttl > 0 {
		e.expires = time.Now().Add(ttl)
	}
	c.w.kv[key] = e
	return nil
}

func (c *cacheClient) Delete(ctx context.Context, key string) error {
	if err := c.w.simulate(ctx); err != nil {
		return err
	}
	c.w.mu.Lock()
	defer c.w.mu.Unlock()
	delete(c.w.kv, key)
	return nil
}

// Increment treats a missing key as zero. Non-numeric values are a
// validation error.
func (c *cacheClient) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	if err := c.w.simulate(ctx); err != nil {
		return 0, err
	}
	c.w.mu.Lock()
	defer c.w.mu.Unlock()
	now := time.Now()
	e, ok := c.w.kv[key]
	if !ok || e.expired(now) {
		e = &kvEntry{value: "0"}
		c.w.kv[key] = e
	}
	n, err := strconv.ParseInt(e.value, 10, 64)
	if err != nil {
		return 0, errdefs.NewValidation("value at %q is not an integer", key)
	}
	n += delta
	e.value = strconv.FormatInt(n, 10)
	return n, nil
}

func (c *cacheClient) MGet(ctx context.Context, keys ...string) (map[string]string, error) {
	if err := c.w.simulate(ctx); err != nil {
		return nil, err
	}
	c.w.mu.Lock()
	defer c.w.mu.Unlock()
	now := time.Now()
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		if e, ok := c.w.kv[key]; ok && !e.expired(now) {
			out[key] = e.value
		}
	}
	return out, nil
}

func (c *cacheClient) MSet(ctx context.Context, values map[string]string, ttl time.Duration) error {
	if err := c.w.simulate(ctx); err != nil {
		return err
	}
	c.w.mu.Lock()
	defer c.w.mu.Unlock()
	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}
	for k, v := range values {
		c.w.kv[k] = &kvEntry{value: v, expires: expires}
	}
	return nil
}

func (c *cacheClient) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.w.simulate(ctx); err != nil {
		return err
	}
	c.w.mu.Lock()
	defer c.w.mu.Unlock()
	e, ok := c.w.kv[key]
	if !ok || e.expired(time.Now()) {
		return errdefs.NewNotFound("cache key", key)
	}
	if ttl <= 0 {
		e.expires = time.Time{}
		return nil
	}
	e.expires = time.Now().Add(ttl)
	return nil
}

// TTL returns the remaining lifetime; zero means the key does not
// expire.
func (c *cacheClient) TTL(ctx context.Context, key string) (time.Duration, error) {
	if err := c.w.simulate(ctx); err != nil {
		return 0, err
	}
	c.w.mu.Lock()
	defer c.w.mu.Unlock()
	e, ok := c.w.kv[key]
	if !ok || e.expired(time.Now()) {
		return 0, errdefs.NewNotFound("cache key", key)
	}
	if e.expires.IsZero() {
		return 0, nil
	}
	return time.Until(e.expires), nil
}
