package aws

import (
	"context"
	"sync"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"

	"github.com/lcplatform/platform/pkg/provider"
	"github.com/lcplatform/platform/pkg/types"
)

// Register installs the AWS family into a registry. The SDK
// configuration loads once on first construction and is shared by
// every adapter of the facade.
func Register(reg *provider.Registry) {
	var once sync.Once
	var sdk awssdk.Config
	var sdkErr error
	load := func(deps provider.Deps) (awssdk.Config, error) {
		once.Do(func() {
			sdk, sdkErr = loadConfig(context.Background(), deps.Config)
		})
		return sdk, sdkErr
	}

	type ctor struct {
		id    provider.ServiceID
		build func(awssdk.Config, provider.Deps) (interface{}, error)
	}
	ctors := []ctor{
		{provider.ServiceWebHosting, func(cfg awssdk.Config, deps provider.Deps) (interface{}, error) {
			return newWebHostingService(cfg, deps), nil
		}},
		{provider.ServiceFunctionHosting, func(cfg awssdk.Config, deps provider.Deps) (interface{}, error) {
			return newFunctionHostingService(cfg, deps), nil
		}},
		{provider.ServiceBatch, func(cfg awssdk.Config, deps provider.Deps) (interface{}, error) {
			return newBatchService(cfg, deps), nil
		}},
		{provider.ServiceQueue, func(cfg awssdk.Config, deps provider.Deps) (interface{}, error) {
			return newQueueService(cfg, deps), nil
		}},
		{provider.ServiceEventBus, func(cfg awssdk.Config, deps provider.Deps) (interface{}, error) {
			return newEventBusService(cfg, deps), nil
		}},
		{provider.ServiceSecrets, func(cfg awssdk.Config, deps provider.Deps) (interface{}, error) {
			return newSecretsService(cfg, deps), nil
		}},
		{provider.ServiceConfiguration, func(cfg awssdk.Config, deps provider.Deps) (interface{}, error) {
			return newConfigurationService(cfg, deps), nil
		}},
		{provider.ServiceNotification, func(cfg awssdk.Config, deps provider.Deps) (interface{}, error) {
			return newNotificationService(cfg, deps), nil
		}},
		{provider.ServiceDocumentStore, func(cfg awssdk.Config, deps provider.Deps) (interface{}, error) {
			return newDocumentStoreService(cfg, deps), nil
		}},
		{provider.ServiceDataStore, func(_ awssdk.Config, deps provider.Deps) (interface{}, error) {
			return newDataStoreService(deps), nil
		}},
		{provider.ServiceObjectStore, func(cfg awssdk.Config, deps provider.Deps) (interface{}, error) {
			return newObjectStoreService(cfg, deps), nil
		}},
		{provider.ServiceAuthentication, func(cfg awssdk.Config, deps provider.Deps) (interface{}, error) {
			return newAuthService(cfg, deps), nil
		}},
		{provider.ServiceCache, func(cfg awssdk.Config, deps provider.Deps) (interface{}, error) {
			return newCacheService(cfg, deps), nil
		}},
		{provider.ServiceContainerRepo, func(cfg awssdk.Config, deps provider.Deps) (interface{}, error) {
			return newContainerRepoService(cfg, deps), nil
		}},

		{provider.ClientQueue, func(cfg awssdk.Config, deps provider.Deps) (interface{}, error) {
			return &queueClient{svc: newQueueService(cfg, deps)}, nil
		}},
		{provider.ClientObject, func(cfg awssdk.Config, deps provider.Deps) (interface{}, error) {
			return &objectClient{svc: newObjectStoreService(cfg, deps)}, nil
		}},
		{provider.ClientSecrets, func(cfg awssdk.Config, deps provider.Deps) (interface{}, error) {
			return &secretsClient{svc: newSecretsService(cfg, deps)}, nil
		}},
		{provider.ClientConfig, func(cfg awssdk.Config, deps provider.Deps) (interface{}, error) {
			return newConfigClient(newConfigurationService(cfg, deps), deps), nil
		}},
		{provider.ClientEventPub, func(cfg awssdk.Config, deps provider.Deps) (interface{}, error) {
			return &eventPublisher{svc: newEventBusService(cfg, deps)}, nil
		}},
		{provider.ClientNotification, func(cfg awssdk.Config, deps provider.Deps) (interface{}, error) {
			return &notificationClient{svc: newNotificationService(cfg, deps)}, nil
		}},
		{provider.ClientDocument, func(cfg awssdk.Config, deps provider.Deps) (interface{}, error) {
			return &documentClient{svc: newDocumentStoreService(cfg, deps)}, nil
		}},
		{provider.ClientData, func(_ awssdk.Config, deps provider.Deps) (interface{}, error) {
			return &dataClient{svc: newDataStoreService(deps)}, nil
		}},
		{provider.ClientAuth, func(cfg awssdk.Config, deps provider.Deps) (interface{}, error) {
			return &authClient{svc: newAuthService(cfg, deps)}, nil
		}},
		{provider.ClientCache, func(_ awssdk.Config, deps provider.Deps) (interface{}, error) {
			return newCacheClient(deps)
		}},
		{provider.ClientContainerRepo, func(cfg awssdk.Config, deps provider.Deps) (interface{}, error) {
			return newContainerRepoClient(cfg, deps), nil
		}},
	}
	for _, c := range ctors {
		c := c
		reg.MustRegister(types.ProviderAWS, c.id, func(deps provider.Deps) (interface{}, error) {
			cfg, err := load(deps)
			if err != nil {
				return nil, err
			}
			return c.build(cfg, deps)
		})
	}
}
