package control

import (
	"github.com/lcplatform/platform/pkg/contract"
	"github.com/lcplatform/platform/pkg/provider"
	"github.com/lcplatform/platform/pkg/provider/aws"
	"github.com/lcplatform/platform/pkg/provider/mock"
	"github.com/lcplatform/platform/pkg/types"
)

// Facade exposes the management plane: operations that create,
// modify, and destroy cloud resources. Services construct lazily on
// first access and are reused afterwards; the facade owns them and
// tears everything down on Close.
type Facade struct {
	factory *provider.Factory
}

// New resolves the configuration and prepares a facade bound to the
// selected provider.
func New(cfg types.ProviderConfig) (*Facade, error) {
	reg := provider.NewRegistry()
	mock.Register(reg)
	aws.Register(reg)

	factory, err := provider.NewFactory(cfg, reg)
	if err != nil {
		return nil, err
	}
	return &Facade{factory: factory}, nil
}

// Provider returns the resolved provider name
func (f *Facade) Provider() types.Provider {
	return f.factory.Config().Provider
}

// Close releases every constructed adapter
func (f *Facade) Close() error {
	return f.factory.Close()
}

func service[T any](f *Facade, id provider.ServiceID) (T, error) {
	var zero T
	inst, err := f.factory.For(id)
	if err != nil {
		return zero, err
	}
	return inst.(T), nil
}

func (f *Facade) WebHosting() (contract.WebHostingService, error) {
	return service[contract.WebHostingService](f, provider.ServiceWebHosting)
}

func (f *Facade) FunctionHosting() (contract.FunctionHostingService, error) {
	return service[contract.FunctionHostingService](f, provider.ServiceFunctionHosting)
}

func (f *Facade) Batch() (contract.BatchService, error) {
	return service[contract.BatchService](f, provider.ServiceBatch)
}

func (f *Facade) Queues() (contract.QueueService, error) {
	return service[contract.QueueService](f, provider.ServiceQueue)
}

func (f *Facade) EventBus() (contract.EventBusService, error) {
	return service[contract.EventBusService](f, provider.ServiceEventBus)
}

func (f *Facade) Secrets() (contract.SecretsService, error) {
	return service[contract.SecretsService](f, provider.ServiceSecrets)
}

func (f *Facade) Configuration() (contract.ConfigurationService, error) {
	return service[contract.ConfigurationService](f, provider.ServiceConfiguration)
}

func (f *Facade) Notifications() (contract.NotificationService, error) {
	return service[contract.NotificationService](f, provider.ServiceNotification)
}

func (f *Facade) DocumentStore() (contract.DocumentStoreService, error) {
	return service[contract.DocumentStoreService](f, provider.ServiceDocumentStore)
}

func (f *Facade) DataStore() (contract.DataStoreService, error) {
	return service[contract.DataStoreService](f, provider.ServiceDataStore)
}

func (f *Facade) ObjectStore() (contract.ObjectStoreService, error) {
	return service[contract.ObjectStoreService](f, provider.ServiceObjectStore)
}

func (f *Facade) Authentication() (contract.AuthenticationService, error) {
	return service[contract.AuthenticationService](f, provider.ServiceAuthentication)
}

func (f *Facade) CacheClusters() (contract.CacheService, error) {
	return service[contract.CacheService](f, provider.ServiceCache)
}

func (f *Facade) ContainerRepos() (contract.ContainerRepoService, error) {
	return service[contract.ContainerRepoService](f, provider.ServiceContainerRepo)
}
