package runtime

import (
	"github.com/lcplatform/platform/pkg/contract"
	"github.com/lcplatform/platform/pkg/provider"
	"github.com/lcplatform/platform/pkg/provider/aws"
	"github.com/lcplatform/platform/pkg/provider/mock"
	"github.com/lcplatform/platform/pkg/types"
)

// Facade exposes the data plane: per-request operations against
// resources that already exist. No lifecycle operations live here.
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

// Close releases every constructed client
func (f *Facade) Close() error {
	return f.factory.Close()
}

func client[T any](f *Facade, id provider.ServiceID) (T, error) {
	var zero T
	inst, err := f.factory.For(id)
	if err != nil {
		return zero, err
	}
	return inst.(T), nil
}

func (f *Facade) Queue() (contract.QueueClient, error) {
	return client[contract.QueueClient](f, provider.ClientQueue)
}

func (f *Facade) Objects() (contract.ObjectClient, error) {
	return client[contract.ObjectClient](f, provider.ClientObject)
}

// Secrets returns the secrets client wrapped with the facade's LRU
// cache. Values cache on success only.
func (f *Facade) Secrets() (contract.SecretsClient, error) {
	inner, err := client[contract.SecretsClient](f, provider.ClientSecrets)
	if err != nil {
		return nil, err
	}
	return &cachedSecrets{inner: inner, cache: f.factory.Deps().Cache}, nil
}

// Config returns the configuration client wrapped with the facade's
// LRU cache.
func (f *Facade) Config() (contract.ConfigClient, error) {
	inner, err := client[contract.ConfigClient](f, provider.ClientConfig)
	if err != nil {
		return nil, err
	}
	return &cachedConfig{inner: inner, cache: f.factory.Deps().Cache}, nil
}

func (f *Facade) Events() (contract.EventPublisher, error) {
	return client[contract.EventPublisher](f, provider.ClientEventPub)
}

func (f *Facade) Notifications() (contract.NotificationClient, error) {
	return client[contract.NotificationClient](f, provider.ClientNotification)
}

func (f *Facade) Documents() (contract.DocumentClient, error) {
	return client[contract.DocumentClient](f, provider.ClientDocument)
}

func (f *Facade) Data() (contract.DataClient, error) {
	return client[contract.DataClient](f, provider.ClientData)
}

func (f *Facade) Auth() (contract.AuthClient, error) {
	return client[contract.AuthClient](f, provider.ClientAuth)
}

func (f *Facade) Cache() (contract.CacheClient, error) {
	return client[contract.CacheClient](f, provider.ClientCache)
}

func (f *Facade) ContainerRepos() (contract.ContainerRepoClient, error) {
	return client[contract.ContainerRepoClient](f, provider.ClientContainerRepo)
}
