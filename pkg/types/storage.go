package types

import (
	"time"
)

// SecretMetadata describes a stored secret without its value
type SecretMetadata struct {
	Name            string
	Version         string
	RotationEnabled bool
	RotationDays    int       // Zero when rotation is disabled
	LastRotated     time.Time // Zero when never rotated
	DeletionDate    time.Time // Zero unless scheduled for deletion
	Tags            map[string]string
	Created         time.Time
	LastModified    time.Time
}

// SecretValue is a secret payload at a specific version
type SecretValue struct {
	Name    string
	Value   string
	Version string
}

// CreateSecretParams describes a new secret
type CreateSecretParams struct {
	Name        string
	Value       string
	Description string
	Tags        map[string]string
}

// RotationConfig enables automatic rotation of a secret
type RotationConfig struct {
	Enabled bool
	Days    int
}

// ConfigurationProfile groups configuration versions for one
// application and environment
type ConfigurationProfile struct {
	ID          string
	Application string
	Name        string
	Description string
	Created     time.Time
}

// Configuration is one version of configuration content. Versions are
// monotonically numbered per profile.
type Configuration struct {
	Application string
	Environment string
	Profile     string
	Version     int
	Data        map[string]interface{}
	Description string
	Deployed    bool
	Created     time.Time
}

// DeployConfigurationParams starts a configuration deployment
type DeployConfigurationParams struct {
	Application string
	Environment string
	Profile     string
	Version     int
}

// BucketOptions configures a new object bucket
type BucketOptions struct {
	Versioning bool
	Encryption bool
	Tags       map[string]string
}

// ObjectInfo identifies an object and its metadata. (Bucket, Key)
// uniquely identifies an object; ETag changes with content.
type ObjectInfo struct {
	Bucket       string
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// ObjectData is an object with its payload
type ObjectData struct {
	ObjectInfo
	Data []byte
}

// ObjectMetadata carries optional attributes of a put
type ObjectMetadata struct {
	ContentType string
	Metadata    map[string]string
}

// Document is a NoSQL record addressed by collection and key. ETag
// supports optimistic updates.
type Document struct {
	Collection string
	Key        string
	Data       map[string]interface{}
	ETag       string
	Created    time.Time
	Updated    time.Time
}

// Row is a single relational query result row keyed by column name
type Row map[string]interface{}

// ExecResult reports the effect of a write statement
type ExecResult struct {
	RowsAffected int64
	InsertID     int64 // Zero when the driver does not report one
}

// Migration is one ordered schema change. Applied versions are
// recorded in a migrations table so reapplication is a no-op.
type Migration struct {
	Version int
	Name    string
	SQL     string
}
