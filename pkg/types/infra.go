package types

import (
	"time"
)

// CacheClusterStatus is the lifecycle state of a cache cluster
type CacheClusterStatus string

const (
	CacheClusterCreating  CacheClusterStatus = "creating"
	CacheClusterAvailable CacheClusterStatus = "available"
	CacheClusterModifying CacheClusterStatus = "modifying"
	CacheClusterDeleting  CacheClusterStatus = "deleting"
)

// CacheCluster represents a distributed cache cluster
type CacheCluster struct {
	ID                  string
	Engine              string // e.g. "redis"
	NodeType            string
	Nodes               int
	Status              CacheClusterStatus
	Endpoint            string
	AuthTokenEnabled    bool
	TransitEncryption   bool
	Tags                map[string]string
	Created             time.Time
}

// CacheClusterOptions configures a new cache cluster
type CacheClusterOptions struct {
	Engine   string
	NodeType string
	Nodes    int
	Tags     map[string]string
}

// CacheSecurityConfig sets authentication and encryption on a cluster
type CacheSecurityConfig struct {
	AuthToken         string
	TransitEncryption bool
}

// ContainerRepository holds container images
type ContainerRepository struct {
	Name       string
	URI        string
	ScanOnPush bool
	Tags       map[string]string
	Created    time.Time
}

// RepositoryOptions configures a new container repository
type RepositoryOptions struct {
	ScanOnPush bool
	Immutable  bool
	Tags       map[string]string
}

// ContainerImage is one image in a repository
type ContainerImage struct {
	Repository string
	Digest     string
	Tags       []string
	SizeBytes  int64
	PushedAt   time.Time
}
