package types

import (
	"time"
)

// DeploymentStatus represents the lifecycle state of a web application
type DeploymentStatus string

const (
	DeploymentCreating DeploymentStatus = "creating"
	DeploymentRunning  DeploymentStatus = "running"
	DeploymentUpdating DeploymentStatus = "updating"
	DeploymentStopped  DeploymentStatus = "stopped"
	DeploymentFailed   DeploymentStatus = "failed"
)

// Deployment represents a running web application
type Deployment struct {
	ID               string
	Name             string
	URL              string
	Status           DeploymentStatus
	Image            string
	CPU              int // Cores
	MemoryMB         int
	MinInstances     int
	MaxInstances     int
	CurrentInstances int
	Environment      map[string]string
	Tags             map[string]string
	Created          time.Time
	LastUpdated      time.Time
}

// DeployApplicationParams describes a new web application
type DeployApplicationParams struct {
	Name         string
	Image        string
	Port         int
	Environment  map[string]string
	CPU          int
	MemoryMB     int
	MinInstances int
	MaxInstances int
	Tags         map[string]string
}

// UpdateApplicationParams describes a rolling update. Zero-valued
// fields leave the current value unchanged.
type UpdateApplicationParams struct {
	Image       string
	Environment map[string]string
	CPU         int
	MemoryMB    int
}

// ScaleParams sets the instance bounds of a deployment
type ScaleParams struct {
	MinInstances int
	MaxInstances int
}

// FunctionStatus represents the lifecycle state of a serverless function
type FunctionStatus string

const (
	FunctionCreating FunctionStatus = "creating"
	FunctionActive   FunctionStatus = "active"
	FunctionInactive FunctionStatus = "inactive"
	FunctionFailed   FunctionStatus = "failed"
)

// ServerlessFunction represents a serverless function
type ServerlessFunction struct {
	Name         string
	ARN          string // Optional, provider-assigned
	Runtime      string
	Handler      string
	Status       FunctionStatus
	MemorySize   int // MB
	Timeout      int // Seconds
	Environment  map[string]string
	Tags         map[string]string
	CodeSize     int64
	Version      string
	Created      time.Time
	LastModified time.Time
}

// CreateFunctionParams describes a new serverless function
type CreateFunctionParams struct {
	Name        string
	Runtime     string
	Handler     string
	Code        []byte
	MemorySize  int
	Timeout     int
	Environment map[string]string
	Tags        map[string]string
}

// UpdateFunctionParams updates function code or configuration.
// Nil/zero fields leave the current value unchanged.
type UpdateFunctionParams struct {
	Code        []byte
	MemorySize  int
	Timeout     int
	Environment map[string]string
}

// InvocationType selects how a function invocation is executed
type InvocationType string

const (
	InvokeSync   InvocationType = "sync"
	InvokeAsync  InvocationType = "async"
	InvokeDryRun InvocationType = "dry-run"
)

// InvokeParams carries the invocation payload
type InvokeParams struct {
	Type    InvocationType // Defaults to sync
	Payload []byte
}

// InvokeResult is the outcome of a function invocation. Payload is
// only populated for synchronous invocations.
type InvokeResult struct {
	StatusCode      int
	Payload         []byte
	ExecutedVersion string
	FunctionError   string
	LogResult       string
}

// EventSourceMapping connects an event source to a function
type EventSourceMapping struct {
	ID           string
	FunctionName string
	SourceARN    string
	Enabled      bool
	BatchSize    int
	Created      time.Time
}

// FunctionURLAuthType controls who may call a function URL
type FunctionURLAuthType string

const (
	FunctionURLAuthNone FunctionURLAuthType = "NONE"
	FunctionURLAuthIAM  FunctionURLAuthType = "IAM"
)

// FunctionURL is a direct HTTPS endpoint for a function
type FunctionURL struct {
	FunctionName string
	URL          string
	AuthType     FunctionURLAuthType
	Created      time.Time
}

// JobStatus represents the state of a batch job
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Terminal reports whether the status is permanent
func (s JobStatus) Terminal() bool {
	return s == JobSucceeded || s == JobFailed || s == JobCancelled
}

// Job represents a batch execution
type Job struct {
	ID           string
	Name         string
	Status       JobStatus
	Image        string
	Command      []string
	Environment  map[string]string
	CPU          int
	MemoryMB     int
	Timeout      int // Seconds
	RetryCount   int
	AttemptsMade int
	ExitCode     *int // Nil until the job terminates
	Error        string
	Tags         map[string]string
	Created      time.Time
	Started      time.Time
	Finished     time.Time
}

// SubmitJobParams describes a batch job submission
type SubmitJobParams struct {
	Name        string
	Image       string
	Command     []string
	Environment map[string]string
	CPU         int
	MemoryMB    int
	Timeout     int
	RetryCount  int
	Tags        map[string]string
}

// ScheduledJob is a job template on a cron or rate schedule
type ScheduledJob struct {
	ID       string
	Name     string
	Schedule string // cron(...) or rate(...) expression
	Enabled  bool
	Template SubmitJobParams
	Created  time.Time
}

// ScheduleJobParams registers a recurring job
type ScheduleJobParams struct {
	Name     string
	Schedule string
	Enabled  bool
	Template SubmitJobParams
}
