package aws

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/elasticache"
	ectypes "github.com/aws/aws-sdk-go-v2/service/elasticache/types"
	"github.com/redis/go-redis/v9"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/provider"
	"github.com/lcplatform/platform/pkg/retry"
	"github.com/lcplatform/platform/pkg/types"
)

const (
	defaultCacheNodeType = "cache.t3.micro"
	extraRedisAddr       = "redis.addr"
	extraRedisPassword   = "redis.password"
)

type cacheService struct {
	client *elasticache.Client
	retry  retry.Policy
}

func newCacheService(cfg awssdk.Config, deps provider.Deps) *cacheService {
	client := elasticache.NewFromConfig(cfg, func(o *elasticache.Options) {
		o.BaseEndpoint = endpoint(deps.Config)
	})
	return &cacheService{client: client, retry: deps.Retry}
}

func (s *cacheService) CreateCluster(ctx context.Context, id string, opts types.CacheClusterOptions) (*types.CacheCluster, error) {
	if id == "" {
		return nil, errdefs.NewValidationPath("id", "cluster id is required")
	}
	engine := opts.Engine
	if engine == "" {
		engine = "redis"
	}
	nodeType := opts.NodeType
	if nodeType == "" {
		nodeType = defaultCacheNodeType
	}
	nodes := opts.Nodes
	if nodes <= 0 {
		nodes = 1
	}
	in := &elasticache.CreateCacheClusterInput{
		CacheClusterId: awssdk.String(id),
		Engine:         awssdk.String(engine),
		CacheNodeType:  awssdk.String(nodeType),
		NumCacheNodes:  awssdk.Int32(int32(nodes)),
	}
	for k, v := range opts.Tags {
		in.Tags = append(in.Tags, ectypes.Tag{Key: awssdk.String(k), Value: awssdk.String(v)})
	}
	var out *elasticache.CreateCacheClusterOutput
	err := retry.Do(ctx, s.retry, func() error {
		var opErr error
		out, opErr = s.client.CreateCacheCluster(ctx, in)
		return translate(opErr, "cache cluster")
	})
	if err != nil {
		return nil, err
	}
	cluster := clusterToPortable(out.CacheCluster)
	cluster.Tags = opts.Tags
	return cluster, nil
}

func (s *cacheService) GetCluster(ctx context.Context, id string) (*types.CacheCluster, error) {
	var out *elasticache.DescribeCacheClustersOutput
	err := retry.Do(ctx, s.retry, func() error {
		var opErr error
		out, opErr = s.client.DescribeCacheClusters(ctx, &elasticache.DescribeCacheClustersInput{
			CacheClusterId:    awssdk.String(id),
			ShowCacheNodeInfo: awssdk.Bool(true),
		})
		return translate(opErr, "cache cluster")
	})
	if err != nil {
		return nil, err
	}
	if len(out.CacheClusters) == 0 {
		return nil, errdefs.NewNotFound("cache cluster", id)
	}
	return clusterToPortable(&out.CacheClusters[0]), nil
}

func (s *cacheService) DeleteCluster(ctx context.Context, id string) error {
	return retry.Do(ctx, s.retry, func() error {
		_, err := s.client.DeleteCacheCluster(ctx, &elasticache.DeleteCacheClusterInput{
			CacheClusterId: awssdk.String(id),
		})
		return translate(err, "cache cluster")
	})
}

func (s *cacheService) ListClusters(ctx context.Context) ([]types.CacheCluster, error) {
	var clusters []types.CacheCluster
	p := elasticache.NewDescribeCacheClustersPaginator(s.client, &elasticache.DescribeCacheClustersInput{
		ShowCacheNodeInfo: awssdk.Bool(true),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, translate(err, "cache cluster")
		}
		for i := range page.CacheClusters {
			clusters = append(clusters, *clusterToPortable(&page.CacheClusters[i]))
		}
	}
	return clusters, nil
}

func (s *cacheService) ConfigureSecurity(ctx context.Context, id string, cfg types.CacheSecurityConfig) error {
	if cfg.TransitEncryption {
		// ElastiCache only enables in-transit encryption at creation.
		return errdefs.NewValidationPath("transitEncryption",
			"transit encryption must be enabled when the cluster is created")
	}
	if cfg.AuthToken == "" {
		return errdefs.NewValidationPath("authToken", "auth token is required")
	}
	return retry.Do(ctx, s.retry, func() error {
		_, err := s.client.ModifyCacheCluster(ctx, &elasticache.ModifyCacheClusterInput{
			CacheClusterId:          awssdk.String(id),
			AuthToken:               awssdk.String(cfg.AuthToken),
			AuthTokenUpdateStrategy: ectypes.AuthTokenUpdateStrategyTypeRotate,
			ApplyImmediately:        awssdk.Bool(true),
		})
		return translate(err, "cache cluster")
	})
}

// FlushCluster connects to the cluster endpoint and clears every key.
func (s *cacheService) FlushCluster(ctx context.Context, id string) error {
	cluster, err := s.GetCluster(ctx, id)
	if err != nil {
		return err
	}
	if cluster.Endpoint == "" {
		return errdefs.NewUnavailable("cache cluster %s has no reachable endpoint yet", id)
	}
	client := redis.NewClient(&redis.Options{Addr: cluster.Endpoint})
	defer client.Close()
	if err := client.FlushAll(ctx).Err(); err != nil {
		return translateRedis(err, "cache cluster")
	}
	return nil
}

func clusterToPortable(c *ectypes.CacheCluster) *types.CacheCluster {
	if c == nil {
		return nil
	}
	cluster := &types.CacheCluster{
		ID:     awssdk.ToString(c.CacheClusterId),
		Engine: awssdk.ToString(c.Engine),
		Status: cacheStatus(awssdk.ToString(c.CacheClusterStatus)),
	}
	if c.CacheNodeType != nil {
		cluster.NodeType = *c.CacheNodeType
	}
	if c.NumCacheNodes != nil {
		cluster.Nodes = int(*c.NumCacheNodes)
	}
	if c.AuthTokenEnabled != nil {
		cluster.AuthTokenEnabled = *c.AuthTokenEnabled
	}
	if c.TransitEncryptionEnabled != nil {
		cluster.TransitEncryption = *c.TransitEncryptionEnabled
	}
	if c.CacheClusterCreateTime != nil {
		cluster.Created = *c.CacheClusterCreateTime
	}
	if len(c.CacheNodes) > 0 && c.CacheNodes[0].Endpoint != nil {
		ep := c.CacheNodes[0].Endpoint
		cluster.Endpoint = awssdk.ToString(ep.Address)
		if ep.Port != nil {
			cluster.Endpoint += ":" + strconv.Itoa(int(*ep.Port))
		}
	}
	return cluster
}

func cacheStatus(status string) types.CacheClusterStatus {
	switch status {
	case "available":
		return types.CacheClusterAvailable
	case "creating":
		return types.CacheClusterCreating
	case "deleting", "deleted":
		return types.CacheClusterDeleting
	default:
		return types.CacheClusterModifying
	}
}

// cacheClient is the data-plane key-value client backed by go-redis.
type cacheClient struct {
	rdb *redis.Client
}

func newCacheClient(deps provider.Deps) (*cacheClient, error) {
	extra := deps.Config.Options.Extra
	addr := extra[extraRedisAddr]
	if addr == "" {
		return nil, errdefs.NewValidation("cache endpoint is not configured: set options.extra[%q]", extraRedisAddr)
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: extra[extraRedisPassword],
	})
	return &cacheClient{rdb: rdb}, nil
}

func (c *cacheClient) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, translateRedis(err, "cache key")
	}
	return v, true, nil
}

func (c *cacheClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return translateRedis(err, "cache key")
	}
	return nil
}

func (c *cacheClient) Delete(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return translateRedis(err, "cache key")
	}
	return nil
}

func (c *cacheClient) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	v, err := c.rdb.IncrBy(ctx, key, delta).Result()
	if err != nil {
		if strings.Contains(err.Error(), "not an integer") {
			return 0, errdefs.NewValidation("cache key %q does not hold an integer", key).WithCause(err)
		}
		return 0, translateRedis(err, "cache key")
	}
	return v, nil
}

func (c *cacheClient) MGet(ctx context.Context, keys ...string) (map[string]string, error) {
	if len(keys) == 0 {
		return map[string]string{}, nil
	}
	values, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, translateRedis(err, "cache key")
	}
	out := make(map[string]string, len(keys))
	for i, v := range values {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			out[keys[i]] = s
		}
	}
	return out, nil
}

func (c *cacheClient) MSet(ctx context.Context, values map[string]string, ttl time.Duration) error {
	pipe := c.rdb.Pipeline()
	for k, v := range values {
		pipe.Set(ctx, k, v, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return translateRedis(err, "cache key")
	}
	return nil
}

func (c *cacheClient) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		ok, err := c.rdb.Persist(ctx, key).Result()
		if err != nil {
			return translateRedis(err, "cache key")
		}
		if !ok {
			if exists, _ := c.rdb.Exists(ctx, key).Result(); exists == 0 {
				return errdefs.NewNotFound("cache key", key)
			}
		}
		return nil
	}
	ok, err := c.rdb.Expire(ctx, key, ttl).Result()
	if err != nil {
		return translateRedis(err, "cache key")
	}
	if !ok {
		return errdefs.NewNotFound("cache key", key)
	}
	return nil
}

func (c *cacheClient) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := c.rdb.TTL(ctx, key).Result()
	if err != nil {
		return 0, translateRedis(err, "cache key")
	}
	// TTL reports -2 for a missing key and -1 for a key without expiry.
	if d == -2*time.Second {
		return 0, errdefs.NewNotFound("cache key", key)
	}
	if d < 0 {
		return 0, nil
	}
	return d, nil
}

func (c *cacheClient) Close() error {
	return c.rdb.Close()
}

func translateRedis(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errdefs.NewTimeout("%s: deadline exceeded", resource).WithCause(err)
	}
	return errdefs.NewUnavailable("%s: %v", resource, err).WithCause(err)
}
