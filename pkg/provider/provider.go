package provider

import (
	"github.com/rs/zerolog"

	"github.com/lcplatform/platform/pkg/cache"
	"github.com/lcplatform/platform/pkg/retry"
	"github.com/lcplatform/platform/pkg/types"
)

// ServiceID names one service or client contract. Adapters are
// registered and constructed per (provider, service) pair.
type ServiceID string

// Control-plane services
const (
	ServiceWebHosting      ServiceID = "web-hosting"
	ServiceFunctionHosting ServiceID = "function-hosting"
	ServiceBatch           ServiceID = "batch"
	ServiceQueue           ServiceID = "queue"
	ServiceEventBus        ServiceID = "event-bus"
	ServiceSecrets         ServiceID = "secrets"
	ServiceConfiguration   ServiceID = "configuration"
	ServiceNotification    ServiceID = "notification"
	ServiceDocumentStore   ServiceID = "document-store"
	ServiceDataStore       ServiceID = "data-store"
	ServiceObjectStore     ServiceID = "object-store"
	ServiceAuthentication  ServiceID = "authentication"
	ServiceCache           ServiceID = "cache"
	ServiceContainerRepo   ServiceID = "container-repo"
)

// Data-plane clients
const (
	ClientQueue         ServiceID = "queue-client"
	ClientObject        ServiceID = "object-client"
	ClientSecrets       ServiceID = "secrets-client"
	ClientConfig        ServiceID = "config-client"
	ClientEventPub      ServiceID = "event-publisher"
	ClientNotification  ServiceID = "notification-client"
	ClientDocument      ServiceID = "document-client"
	ClientData          ServiceID = "data-client"
	ClientAuth          ServiceID = "auth-client"
	ClientCache         ServiceID = "cache-client"
	ClientContainerRepo ServiceID = "container-repo-client"
)

// ControlServices lists every control-plane service id
func ControlServices() []ServiceID {
	return []ServiceID{
		ServiceWebHosting, ServiceFunctionHosting, ServiceBatch,
		ServiceQueue, ServiceEventBus, ServiceSecrets,
		ServiceConfiguration, ServiceNotification, ServiceDocumentStore,
		ServiceDataStore, ServiceObjectStore, ServiceAuthentication,
		ServiceCache, ServiceContainerRepo,
	}
}

// DataClients lists every data-plane client id
func DataClients() []ServiceID {
	return []ServiceID{
		ClientQueue, ClientObject, ClientSecrets, ClientConfig,
		ClientEventPub, ClientNotification, ClientDocument, ClientData,
		ClientAuth, ClientCache, ClientContainerRepo,
	}
}

// Deps is everything a constructor may need. Adapters hold non-owning
// handles; the factory owns the adapters and tears them down.
type Deps struct {
	Config *types.ProviderConfig
	Retry  retry.Policy
	Cache  *cache.Cache
	Logger zerolog.Logger
}

// Constructor builds one adapter. The returned value must satisfy the
// contract interface matching the ServiceID it is registered under.
type Constructor func(deps Deps) (interface{}, error)
