package contract

import (
	"context"

	"github.com/lcplatform/platform/pkg/types"
	"github.com/lcplatform/platform/pkg/validate"
)

// WebHostingService manages containerized web applications
type WebHostingService interface {
	DeployApplication(ctx context.Context, params types.DeployApplicationParams) (*types.Deployment, error)
	GetDeployment(ctx context.Context, id string) (*types.Deployment, error)
	UpdateApplication(ctx context.Context, id string, params types.UpdateApplicationParams) (*types.Deployment, error)
	DeleteApplication(ctx context.Context, id string) error
	GetApplicationURL(ctx context.Context, id string) (string, error)
	ScaleApplication(ctx context.Context, id string, scale types.ScaleParams) (*types.Deployment, error)
}

// FunctionHostingService manages and invokes serverless functions
type FunctionHostingService interface {
	CreateFunction(ctx context.Context, params types.CreateFunctionParams) (*types.ServerlessFunction, error)
	GetFunction(ctx context.Context, name string) (*types.ServerlessFunction, error)
	UpdateFunction(ctx context.Context, name string, params types.UpdateFunctionParams) (*types.ServerlessFunction, error)
	DeleteFunction(ctx context.Context, name string) error
	ListFunctions(ctx context.Context) ([]types.ServerlessFunction, error)
	InvokeFunction(ctx context.Context, name string, params types.InvokeParams) (*types.InvokeResult, error)

	CreateEventSourceMapping(ctx context.Context, mapping types.EventSourceMapping) (*types.EventSourceMapping, error)
	GetEventSourceMapping(ctx context.Context, id string) (*types.EventSourceMapping, error)
	SetEventSourceMappingEnabled(ctx context.Context, id string, enabled bool) error
	DeleteEventSourceMapping(ctx context.Context, id string) error

	CreateFunctionURL(ctx context.Context, functionName string, authType types.FunctionURLAuthType) (*types.FunctionURL, error)
	GetFunctionURL(ctx context.Context, functionName string) (*types.FunctionURL, error)
	DeleteFunctionURL(ctx context.Context, functionName string) error
}

// BatchService runs one-off and scheduled batch jobs
type BatchService interface {
	SubmitJob(ctx context.Context, params types.SubmitJobParams) (*types.Job, error)
	GetJob(ctx context.Context, id string) (*types.Job, error)
	CancelJob(ctx context.Context, id string) error
	ListJobs(ctx context.Context, status types.JobStatus) ([]types.Job, error)

	ScheduleJob(ctx context.Context, params types.ScheduleJobParams) (*types.ScheduledJob, error)
	DeleteScheduledJob(ctx context.Context, name string) error
	ListScheduledJobs(ctx context.Context) ([]types.ScheduledJob, error)
}

// QueueService manages queues and their messages
type QueueService interface {
	CreateQueue(ctx context.Context, name string, opts types.QueueOptions) (*types.Queue, error)
	GetQueue(ctx context.Context, name string) (*types.Queue, error)
	DeleteQueue(ctx context.Context, name string) error
	ListQueues(ctx context.Context) ([]types.Queue, error)

	SendMessage(ctx context.Context, queue string, params types.SendMessageParams) (*types.Message, error)
	ReceiveMessages(ctx context.Context, queue string, params types.ReceiveMessageParams) ([]types.Message, error)
	DeleteMessage(ctx context.Context, queue, receiptHandle string) error
	PurgeQueue(ctx context.Context, queue string) error
}

// EventBusService routes events through rules to targets
type EventBusService interface {
	CreateEventBus(ctx context.Context, name string, tags map[string]string) (*types.EventBus, error)
	GetEventBus(ctx context.Context, name string) (*types.EventBus, error)
	DeleteEventBus(ctx context.Context, name string) error

	PutRule(ctx context.Context, bus string, rule types.Rule) (*types.Rule, error)
	GetRule(ctx context.Context, bus, name string) (*types.Rule, error)
	DeleteRule(ctx context.Context, bus, name string) error
	ListRules(ctx context.Context, bus string) ([]types.Rule, error)

	AddTarget(ctx context.Context, bus, rule string, target types.Target) error
	RemoveTarget(ctx context.Context, bus, rule, targetID string) error

	PublishEvent(ctx context.Context, bus string, event types.Event) (string, error)
}

// SecretsService manages secret lifecycle
type SecretsService interface {
	CreateSecret(ctx context.Context, params types.CreateSecretParams) (*types.SecretMetadata, error)
	GetSecretValue(ctx context.Context, name string) (*types.SecretValue, error)
	UpdateSecret(ctx context.Context, name, value string) (*types.SecretMetadata, error)
	DeleteSecret(ctx context.Context, name string, force bool) error
	ListSecrets(ctx context.Context) ([]types.SecretMetadata, error)
	RotateSecret(ctx context.Context, name string, cfg types.RotationConfig) (*types.SecretMetadata, error)
	TagSecret(ctx context.Context, name string, tags map[string]string) error
}

// ConfigurationService manages versioned application configuration
type ConfigurationService interface {
	CreateProfile(ctx context.Context, application, name, description string) (*types.ConfigurationProfile, error)
	GetProfile(ctx context.Context, application, name string) (*types.ConfigurationProfile, error)
	DeleteProfile(ctx context.Context, application, name string) error
	ListProfiles(ctx context.Context, application string) ([]types.ConfigurationProfile, error)

	CreateVersion(ctx context.Context, application, profile string, data map[string]interface{}, description string) (*types.Configuration, error)
	GetConfiguration(ctx context.Context, application, environment, profile string) (*types.Configuration, error)

	ValidateConfiguration(content map[string]interface{}, schemaJSON string) (validate.Result, error)
	DeployConfiguration(ctx context.Context, params types.DeployConfigurationParams) (string, error)
}

// NotificationService manages topics, subscriptions, and direct sends
type NotificationService interface {
	CreateTopic(ctx context.Context, name string, tags map[string]string) (*types.Topic, error)
	GetTopic(ctx context.Context, name string) (*types.Topic, error)
	DeleteTopic(ctx context.Context, name string) error
	ListTopics(ctx context.Context) ([]types.Topic, error)

	Subscribe(ctx context.Context, topic string, protocol types.SubscriptionProtocol, endpoint string) (*types.Subscription, error)
	ConfirmSubscription(ctx context.Context, topic, subscriptionID string) error
	Unsubscribe(ctx context.Context, subscriptionID string) error

	PublishToTopic(ctx context.Context, topic string, params types.PublishParams) (string, error)
	SendEmail(ctx context.Context, to, subject, body string) (string, error)
	SendSMS(ctx context.Context, to, message string) (string, error)
}

// DocumentStoreService manages NoSQL collections and documents
type DocumentStoreService interface {
	CreateCollection(ctx context.Context, name string) error
	DeleteCollection(ctx context.Context, name string) error
	ListCollections(ctx context.Context) ([]string, error)

	PutDocument(ctx context.Context, collection, key string, data map[string]interface{}) (*types.Document, error)
	GetDocument(ctx context.Context, collection, key string) (*types.Document, error)
	UpdateDocument(ctx context.Context, collection, key string, data map[string]interface{}, etag string) (*types.Document, error)
	DeleteDocument(ctx context.Context, collection, key string) error
	QueryDocuments(ctx context.Context, collection string, match map[string]interface{}) ([]types.Document, error)
}

// Tx runs operations inside a datastore transaction. Statements in
// fn observe a consistent snapshot and commit together or not at all.
type Tx interface {
	Query(ctx context.Context, sql string, args ...interface{}) ([]types.Row, error)
	Execute(ctx context.Context, sql string, args ...interface{}) (*types.ExecResult, error)
}

// DataStoreService accesses relational data. Parameterization is
// mandatory; adapters never interpolate arguments into SQL text.
type DataStoreService interface {
	Connect(ctx context.Context, connectionString string) error
	Query(ctx context.Context, sql string, args ...interface{}) ([]types.Row, error)
	Execute(ctx context.Context, sql string, args ...interface{}) (*types.ExecResult, error)
	Transaction(ctx context.Context, fn func(tx Tx) error) error
	Migrate(ctx context.Context, migrations []types.Migration) error
}

// ObjectStoreService manages buckets and objects
type ObjectStoreService interface {
	CreateBucket(ctx context.Context, name string, opts types.BucketOptions) error
	DeleteBucket(ctx context.Context, name string) error
	PutObject(ctx context.Context, bucket, key string, data []byte, meta types.ObjectMetadata) (*types.ObjectInfo, error)
	GetObject(ctx context.Context, bucket, key string) (*types.ObjectData, error)
	DeleteObject(ctx context.Context, bucket, key string) error
	ListObjects(ctx context.Context, bucket, prefix string) ([]types.ObjectInfo, error)
	CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) (*types.ObjectInfo, error)
	GeneratePresignedURL(ctx context.Context, bucket, key string, expires int) (string, error)
}

// AuthenticationService implements the OAuth2/OIDC authorization-code
// flow and token validation
type AuthenticationService interface {
	Configure(cfg types.AuthConfig) error
	GetAuthorizationURL(params types.AuthorizationURLParams) (string, error)
	ExchangeCodeForTokens(ctx context.Context, code, redirectURI string) (*types.TokenSet, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*types.TokenSet, error)
	ValidateToken(ctx context.Context, accessToken string) (*types.TokenClaims, error)
	VerifyIDToken(ctx context.Context, idToken string) (*types.TokenClaims, error)
	GetUserInfo(ctx context.Context, accessToken string) (*types.UserInfo, error)
	RevokeToken(ctx context.Context, token string) error
}

// CacheService manages distributed cache clusters
type CacheService interface {
	CreateCluster(ctx context.Context, id string, opts types.CacheClusterOptions) (*types.CacheCluster, error)
	GetCluster(ctx context.Context, id string) (*types.CacheCluster, error)
	DeleteCluster(ctx context.Context, id string) error
	ListClusters(ctx context.Context) ([]types.CacheCluster, error)
	ConfigureSecurity(ctx context.Context, id string, cfg types.CacheSecurityConfig) error
	FlushCluster(ctx context.Context, id string) error
}

// ContainerRepoService manages container image repositories
type ContainerRepoService interface {
	CreateRepository(ctx context.Context, name string, opts types.RepositoryOptions) (*types.ContainerRepository, error)
	GetRepository(ctx context.Context, name string) (*types.ContainerRepository, error)
	DeleteRepository(ctx context.Context, name string, force bool) error
	ListRepositories(ctx context.Context) ([]types.ContainerRepository, error)
	SetLifecyclePolicy(ctx context.Context, name, policyJSON string) error
	SetScanOnPush(ctx context.Context, name string, enabled bool) error
	SetRepositoryPolicy(ctx context.Context, name, policyJSON string) error
}
