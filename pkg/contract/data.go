package contract

import (
	"context"
	"time"

	"github.com/lcplatform/platform/pkg/types"
)

// QueueClient sends, receives, and acknowledges messages on existing
// queues. No queue lifecycle operations are available here.
type QueueClient interface {
	Send(ctx context.Context, queue string, params types.SendMessageParams) (*types.Message, error)
	Receive(ctx context.Context, queue string, params types.ReceiveMessageParams) ([]types.Message, error)
	Acknowledge(ctx context.Context, queue, receiptHandle string) error
}

// ObjectClient reads and writes objects in existing buckets
type ObjectClient interface {
	Get(ctx context.Context, bucket, key string) (*types.ObjectData, error)
	Put(ctx context.Context, bucket, key string, data []byte, meta types.ObjectMetadata) (*types.ObjectInfo, error)
	Delete(ctx context.Context, bucket, key string) error
	List(ctx context.Context, bucket, prefix string) ([]types.ObjectInfo, error)
}

// SecretsClient reads secret values. Reads are cached; cache misses
// populate on success only.
type SecretsClient interface {
	Get(ctx context.Context, name string) (string, error)
	GetJSON(ctx context.Context, name string, out interface{}) error
}

// ConfigClient reads typed configuration values
type ConfigClient interface {
	Get(ctx context.Context, key string) (interface{}, error)
	GetString(ctx context.Context, key string) (string, error)
	GetInt(ctx context.Context, key string) (int, error)
	GetBool(ctx context.Context, key string) (bool, error)
}

// EventPublisher publishes events to an existing bus
type EventPublisher interface {
	Publish(ctx context.Context, bus string, event types.Event) (string, error)
	PublishBatch(ctx context.Context, bus string, events []types.Event) ([]string, error)
}

// NotificationClient publishes to existing topics
type NotificationClient interface {
	Publish(ctx context.Context, topic string, params types.PublishParams) (string, error)
	PublishBatch(ctx context.Context, topic string, batch []types.PublishParams) ([]string, error)
}

// DocumentClient reads and writes documents in existing collections
type DocumentClient interface {
	Get(ctx context.Context, collection, key string) (*types.Document, error)
	Put(ctx context.Context, collection, key string, data map[string]interface{}) (*types.Document, error)
	Update(ctx context.Context, collection, key string, data map[string]interface{}, etag string) (*types.Document, error)
	Delete(ctx context.Context, collection, key string) error
	Query(ctx context.Context, collection string, match map[string]interface{}) ([]types.Document, error)
}

// DataClient runs statements against an existing relational store
type DataClient interface {
	Query(ctx context.Context, sql string, args ...interface{}) ([]types.Row, error)
	Execute(ctx context.Context, sql string, args ...interface{}) (*types.ExecResult, error)
	Transaction(ctx context.Context, fn func(tx Tx) error) error
}

// AuthClient validates tokens and inspects identity at request time
type AuthClient interface {
	ValidateToken(ctx context.Context, accessToken string) (*types.TokenClaims, error)
	GetUserInfo(ctx context.Context, accessToken string) (*types.UserInfo, error)
	HasScope(claims *types.TokenClaims, scope string) bool
	HasRole(claims *types.TokenClaims, role string) bool
}

// CacheClient performs key-value operations against an existing
// distributed cache
type CacheClient interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Increment(ctx context.Context, key string, delta int64) (int64, error)
	MGet(ctx context.Context, keys ...string) (map[string]string, error)
	MSet(ctx context.Context, values map[string]string, ttl time.Duration) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// ContainerRepoClient inspects images in existing repositories
type ContainerRepoClient interface {
	ListImages(ctx context.Context, repository string) ([]types.ContainerImage, error)
	GetImageByTag(ctx context.Context, repository, tag string) (*types.ContainerImage, error)
	DeleteImages(ctx context.Context, repository string, digests []string) error
	ImageExists(ctx context.Context, repository, tag string) (bool, error)
}
