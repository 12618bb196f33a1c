package types

import (
	"encoding/json"
)

// DependencyType classifies a cloud dependency
type DependencyType string

const (
	DependencyDatabase DependencyType = "database"
	DependencyCache    DependencyType = "cache"
	DependencyQueue    DependencyType = "queue"
	DependencyStorage  DependencyType = "storage"
	DependencyCompute  DependencyType = "compute"
	DependencyNetwork  DependencyType = "network"
	DependencySecrets  DependencyType = "secrets"
	DependencyConfig   DependencyType = "config"
	DependencyEventBus DependencyType = "event-bus"
)

// DependencyStatus tracks a dependency through validation and deployment
type DependencyStatus string

const (
	DependencyPending    DependencyStatus = "pending"
	DependencyValidating DependencyStatus = "validating"
	DependencyValid      DependencyStatus = "valid"
	DependencyInvalid    DependencyStatus = "invalid"
	DependencyDeploying  DependencyStatus = "deploying"
	DependencyDeployed   DependencyStatus = "deployed"
	DependencyFailed     DependencyStatus = "failed"
)

// ApplicationDependency declaratively describes one cloud dependency
// of an application. The shape is validated against the Draft-7
// schema in the validate package. Policy is kept raw so provider
// policy documents round-trip byte-exactly.
type ApplicationDependency struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Type          DependencyType         `json:"type"`
	Provider      Provider               `json:"provider"`
	Region        string                 `json:"region"`
	Status        DependencyStatus       `json:"status"`
	Version       string                 `json:"version,omitempty"`
	Environment   string                 `json:"environment,omitempty"`
	Description   string                 `json:"description,omitempty"`
	Configuration map[string]interface{} `json:"configuration,omitempty"`
	Policy        json.RawMessage        `json:"policy,omitempty"`
	GeneratedName string                 `json:"generatedName,omitempty"`
	Tags          map[string]string      `json:"tags,omitempty"`
	Dependencies  []string               `json:"dependencies,omitempty"`
	DeployedAt    *string                `json:"deployedAt,omitempty"` // ISO-8601 or null
	Created       string                 `json:"created"`              // ISO-8601
	Updated       string                 `json:"updated"`              // ISO-8601
}
