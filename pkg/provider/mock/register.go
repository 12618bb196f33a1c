package mock

import (
	"sync"

	"github.com/lcplatform/platform/pkg/provider"
	"github.com/lcplatform/platform/pkg/types"
)

// Register installs the full mock family into a registry. All
// adapters constructed from the same registry share one world, so a
// secret created through the control plane is readable through the
// data plane of the same facade.
func Register(reg *provider.Registry) {
	var once sync.Once
	var w *world
	shared := func(deps provider.Deps) *world {
		once.Do(func() { w = newWorld(deps) })
		return w
	}

	type ctor struct {
		id    provider.ServiceID
		build func(*world, provider.Deps) interface{}
	}
	ctors := []ctor{
		{provider.ServiceWebHosting, func(w *world, _ provider.Deps) interface{} { return &webHostingService{w: w} }},
		{provider.ServiceFunctionHosting, func(w *world, _ provider.Deps) interface{} { return &functionHostingService{w: w} }},
		{provider.ServiceBatch, func(w *world, _ provider.Deps) interface{} { return &batchService{w: w} }},
		{provider.ServiceQueue, func(w *world, _ provider.Deps) interface{} { return &queueService{w: w} }},
		{provider.ServiceEventBus, func(w *world, _ provider.Deps) interface{} { return &eventBusService{w: w} }},
		{provider.ServiceSecrets, func(w *world, _ provider.Deps) interface{} { return &secretsService{w: w} }},
		{provider.ServiceConfiguration, func(w *world, _ provider.Deps) interface{} { return &configurationService{w: w} }},
		{provider.ServiceNotification, func(w *world, _ provider.Deps) interface{} { return &notificationService{w: w} }},
		{provider.ServiceDocumentStore, func(w *world, _ provider.Deps) interface{} { return &documentStoreService{w: w} }},
		{provider.ServiceDataStore, func(w *world, _ provider.Deps) interface{} { return &dataStoreService{w: w} }},
		{provider.ServiceObjectStore, func(w *world, _ provider.Deps) interface{} { return &objectStoreService{w: w} }},
		{provider.ServiceAuthentication, func(w *world, _ provider.Deps) interface{} { return w.auth }},
		{provider.ServiceCache, func(w *world, _ provider.Deps) interface{} { return &cacheService{w: w} }},
		{provider.ServiceContainerRepo, func(w *world, _ provider.Deps) interface{} { return &containerRepoService{w: w} }},

		{provider.ClientQueue, func(w *world, _ provider.Deps) interface{} { return &queueClient{svc: &queueService{w: w}} }},
		{provider.ClientObject, func(w *world, _ provider.Deps) interface{} { return &objectClient{svc: &objectStoreService{w: w}} }},
		{provider.ClientSecrets, func(w *world, _ provider.Deps) interface{} { return &secretsClient{svc: &secretsService{w: w}} }},
		{provider.ClientConfig, func(w *world, deps provider.Deps) interface{} {
			return newConfigClient(&configurationService{w: w}, deps)
		}},
		{provider.ClientEventPub, func(w *world, _ provider.Deps) interface{} { return &eventPublisher{svc: &eventBusService{w: w}} }},
		{provider.ClientNotification, func(w *world, _ provider.Deps) interface{} { return &notificationClient{svc: &notificationService{w: w}} }},
		{provider.ClientDocument, func(w *world, _ provider.Deps) interface{} { return &documentClient{svc: &documentStoreService{w: w}} }},
		{provider.ClientData, func(w *world, _ provider.Deps) interface{} { return &dataClient{svc: &dataStoreService{w: w}} }},
		{provider.ClientAuth, func(w *world, _ provider.Deps) interface{} { return &authClient{svc: w.auth} }},
		{provider.ClientCache, func(w *world, _ provider.Deps) interface{} { return &cacheClient{w: w} }},
		{provider.ClientContainerRepo, func(w *world, _ provider.Deps) interface{} { return &containerRepoClient{svc: &containerRepoService{w: w}} }},
	}
	for _, c := range ctors {
		c := c
		reg.MustRegister(types.ProviderMock, c.id, func(deps provider.Deps) (interface{}, error) {
			return c.build(shared(deps), deps), nil
		})
	}
}
