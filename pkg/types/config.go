package types

import (
	"time"
)

// Provider identifies a cloud provider implementation
type Provider string

const (
	ProviderAWS   Provider = "aws"
	ProviderMock  Provider = "mock"
	ProviderAzure Provider = "azure"
	ProviderGCP   Provider = "gcp"
)

// ProviderConfig selects the provider and carries credentials and
// per-service options. It is read once at facade construction and
// never mutated afterwards.
type ProviderConfig struct {
	Provider    Provider
	Region      string
	Credentials *Credentials
	Options     Options
}

// Credentials holds static credentials. When nil, workload identity
// (the provider's default credential chain) is used.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// Options carries per-service configuration defaults
type Options struct {
	Endpoint  string // Provider endpoint override (e.g. local sandbox)
	AccountID string

	DataStore DataStoreOptions
	Auth      AuthOptions
	Batch     BatchOptions
	AppConfig AppConfigOptions
	Cache     CacheOptions
	Retry     RetryOptions

	// Extra is the escape hatch for provider-specific keys that have
	// no typed representation. Known keys belong in the structs above.
	Extra map[string]string
}

// DataStoreOptions holds relational database connection defaults
type DataStoreOptions struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	MaxConns int // Connection pool cap (default 100)
}

// AuthOptions holds identity pool configuration
type AuthOptions struct {
	UserPoolID     string
	UserPoolDomain string
	UserPoolRegion string
}

// BatchOptions holds batch submission defaults
type BatchOptions struct {
	JobQueue      string
	JobDefinition string
}

// AppConfigOptions holds the configuration-service namespace
type AppConfigOptions struct {
	Application string
}

// CacheOptions tunes the data-plane read cache
type CacheOptions struct {
	Capacity   int           // Entries (default 500)
	DefaultTTL time.Duration // Default 5 minutes
}

// RetryOptions overrides the retry policy applied to provider calls
type RetryOptions struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      *bool // nil means default (enabled)
}
