package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcplatform/platform/pkg/contract"
	"github.com/lcplatform/platform/pkg/provider"
	"github.com/lcplatform/platform/pkg/types"
)

func mockFactory(t *testing.T) *provider.Factory {
	t.Helper()
	reg := provider.NewRegistry()
	Register(reg)
	f, err := provider.NewFactory(types.ProviderConfig{
		Provider: types.ProviderMock,
		Options: types.Options{
			Extra: map[string]string{OptionSeed: "1"},
		},
	}, reg)
	require.NoError(t, err)
	return f
}

func TestRegisterCoversEveryContract(t *testing.T) {
	f := mockFactory(t)

	for _, id := range provider.ControlServices() {
		inst, err := f.For(id)
		require.NoError(t, err, "service %s", id)
		require.NotNil(t, inst, "service %s", id)
	}
	for _, id := range provider.DataClients() {
		inst, err := f.For(id)
		require.NoError(t, err, "client %s", id)
		require.NotNil(t, inst, "client %s", id)
	}
}

func TestAdaptersSatisfyContracts(t *testing.T) {
	f := mockFactory(t)

	checks := map[provider.ServiceID]func(interface{}) bool{
		provider.ServiceWebHosting:      func(v interface{}) bool { _, ok := v.(contract.WebHostingService); return ok },
		provider.ServiceFunctionHosting: func(v interface{}) bool { _, ok := v.(contract.FunctionHostingService); return ok },
		provider.ServiceBatch:           func(v interface{}) bool { _, ok := v.(contract.BatchService); return ok },
		provider.ServiceQueue:           func(v interface{}) bool { _, ok := v.(contract.QueueService); return ok },
		provider.ServiceEventBus:        func(v interface{}) bool { _, ok := v.(contract.EventBusService); return ok },
		provider.ServiceSecrets:         func(v interface{}) bool { _, ok := v.(contract.SecretsService); return ok },
		provider.ServiceConfiguration:   func(v interface{}) bool { _, ok := v.(contract.ConfigurationService); return ok },
		provider.ServiceNotification:    func(v interface{}) bool { _, ok := v.(contract.NotificationService); return ok },
		provider.ServiceDocumentStore:   func(v interface{}) bool { _, ok := v.(contract.DocumentStoreService); return ok },
		provider.ServiceDataStore:       func(v interface{}) bool { _, ok := v.(contract.DataStoreService); return ok },
		provider.ServiceObjectStore:     func(v interface{}) bool { _, ok := v.(contract.ObjectStoreService); return ok },
		provider.ServiceAuthentication:  func(v interface{}) bool { _, ok := v.(contract.AuthenticationService); return ok },
		provider.ServiceCache:           func(v interface{}) bool { _, ok := v.(contract.CacheService); return ok },
		provider.ServiceContainerRepo:   func(v interface{}) bool { _, ok := v.(contract.ContainerRepoService); return ok },

		provider.ClientQueue:         func(v interface{}) bool { _, ok := v.(contract.QueueClient); return ok },
		provider.ClientObject:        func(v interface{}) bool { _, ok := v.(contract.ObjectClient); return ok },
		provider.ClientSecrets:       func(v interface{}) bool { _, ok := v.(contract.SecretsClient); return ok },
		provider.ClientConfig:        func(v interface{}) bool { _, ok := v.(contract.ConfigClient); return ok },
		provider.ClientEventPub:      func(v interface{}) bool { _, ok := v.(contract.EventPublisher); return ok },
		provider.ClientNotification:  func(v interface{}) bool { _, ok := v.(contract.NotificationClient); return ok },
		provider.ClientDocument:      func(v interface{}) bool { _, ok := v.(contract.DocumentClient); return ok },
		provider.ClientData:          func(v interface{}) bool { _, ok := v.(contract.DataClient); return ok },
		provider.ClientAuth:          func(v interface{}) bool { _, ok := v.(contract.AuthClient); return ok },
		provider.ClientCache:         func(v interface{}) bool { _, ok := v.(contract.CacheClient); return ok },
		provider.ClientContainerRepo: func(v interface{}) bool { _, ok := v.(contract.ContainerRepoClient); return ok },
	}
	for id, check := range checks {
		inst, err := f.For(id)
		require.NoError(t, err, "service %s", id)
		assert.True(t, check(inst), "adapter for %s does not satisfy its contract", id)
	}
}

// Adapters built from one factory share state: a secret written
// through the control plane resolves through the data plane.
func TestFactorySharesOneWorld(t *testing.T) {
	f := mockFactory(t)
	ctx := context.Background()

	rawSvc, err := f.For(provider.ServiceSecrets)
	require.NoError(t, err)
	rawClient, err := f.For(provider.ClientSecrets)
	require.NoError(t, err)

	svc := rawSvc.(contract.SecretsService)
	client := rawClient.(contract.SecretsClient)

	_, err = svc.CreateSecret(ctx, types.CreateSecretParams{Name: "shared", Value: "v"})
	require.NoError(t, err)

	v, err := client.Get(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

// Two facades get two worlds; nothing crosses over.
func TestNoCrossFacadeVisibility(t *testing.T) {
	ctx := context.Background()

	a := mockFactory(t)
	b := mockFactory(t)

	rawA, err := a.For(provider.ServiceSecrets)
	require.NoError(t, err)
	rawB, err := b.For(provider.ServiceSecrets)
	require.NoError(t, err)

	_, err = rawA.(contract.SecretsService).CreateSecret(ctx, types.CreateSecretParams{Name: "s", Value: "v"})
	require.NoError(t, err)

	_, err = rawB.(contract.SecretsService).GetSecretValue(ctx, "s")
	assert.Error(t, err)
}
