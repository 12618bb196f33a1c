package provider

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/types"
)

type fakeAdapter struct {
	closed bool
}

func (f *fakeAdapter) Close() error {
	f.closed = true
	return nil
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	require.NoError(t, reg.Register(types.ProviderMock, ServiceQueue, func(Deps) (interface{}, error) {
		return &fakeAdapter{}, nil
	}, false))
	return reg
}

func TestRegisterDuplicate(t *testing.T) {
	reg := testRegistry(t)
	err := reg.Register(types.ProviderMock, ServiceQueue, func(Deps) (interface{}, error) { return nil, nil }, false)
	require.Error(t, err)
	assert.True(t, errdefs.IsConflict(err))

	// Override replaces without error.
	err = reg.Register(types.ProviderMock, ServiceQueue, func(Deps) (interface{}, error) { return &fakeAdapter{}, nil }, true)
	assert.NoError(t, err)
}

func TestFactoryConstructsOnce(t *testing.T) {
	reg := NewRegistry()
	built := 0
	require.NoError(t, reg.Register(types.ProviderMock, ServiceQueue, func(Deps) (interface{}, error) {
		built++
		return &fakeAdapter{}, nil
	}, false))

	f, err := NewFactory(types.ProviderConfig{Provider: types.ProviderMock}, reg)
	require.NoError(t, err)

	a, err := f.For(ServiceQueue)
	require.NoError(t, err)
	b, err := f.For(ServiceQueue)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, built)
}

func TestFactoryUnknownService(t *testing.T) {
	f, err := NewFactory(types.ProviderConfig{Provider: types.ProviderMock}, testRegistry(t))
	require.NoError(t, err)

	_, err = f.For(ServiceID("no-such-service"))
	require.Error(t, err)
	assert.True(t, errdefs.IsValidation(err))
}

func TestFactoryUnregisteredKnownService(t *testing.T) {
	f, err := NewFactory(types.ProviderConfig{Provider: types.ProviderMock}, testRegistry(t))
	require.NoError(t, err)

	_, err = f.For(ServiceSecrets)
	require.Error(t, err)
	assert.True(t, errdefs.IsUnavailable(err))
}

func TestFactoryConstructionFailureWrapped(t *testing.T) {
	reg := NewRegistry()
	cause := errors.New("dial failed")
	require.NoError(t, reg.Register(types.ProviderMock, ServiceQueue, func(Deps) (interface{}, error) {
		return nil, cause
	}, false))

	f, err := NewFactory(types.ProviderConfig{Provider: types.ProviderMock}, reg)
	require.NoError(t, err)

	_, err = f.For(ServiceQueue)
	require.Error(t, err)
	assert.True(t, errdefs.IsUnavailable(err))
	assert.ErrorIs(t, err, cause)
}

func TestFactoryConstructionFailureSticks(t *testing.T) {
	reg := NewRegistry()
	attempts := 0
	require.NoError(t, reg.Register(types.ProviderMock, ServiceQueue, func(Deps) (interface{}, error) {
		attempts++
		return nil, errors.New("dial failed")
	}, false))

	f, err := NewFactory(types.ProviderConfig{Provider: types.ProviderMock}, reg)
	require.NoError(t, err)

	_, first := f.For(ServiceQueue)
	require.Error(t, first)
	_, second := f.For(ServiceQueue)
	require.Error(t, second)
	assert.Same(t, first, second)
	assert.Equal(t, 1, attempts)
}

func TestFactoryClose(t *testing.T) {
	f, err := NewFactory(types.ProviderConfig{Provider: types.ProviderMock}, testRegistry(t))
	require.NoError(t, err)

	a, err := f.For(ServiceQueue)
	require.NoError(t, err)

	require.NoError(t, f.Close())
	assert.True(t, a.(*fakeAdapter).closed)
}

func TestResolveConfigProviderRequired(t *testing.T) {
	t.Setenv(EnvProvider, "")
	_, err := ResolveConfig(types.ProviderConfig{})
	require.Error(t, err)
	assert.True(t, errdefs.IsValidation(err))
}

func TestResolveConfigUnknownProvider(t *testing.T) {
	_, err := ResolveConfig(types.ProviderConfig{Provider: "oci"})
	require.Error(t, err)
	assert.True(t, errdefs.IsValidation(err))
}

func TestResolveConfigEnvFallbacks(t *testing.T) {
	t.Setenv(EnvProvider, "mock")
	t.Setenv(EnvRegion, "us-west-2")
	t.Setenv(EnvDBHost, "db.internal")
	t.Setenv(EnvDBPort, "5433")

	cfg, err := ResolveConfig(types.ProviderConfig{})
	require.NoError(t, err)
	assert.Equal(t, types.ProviderMock, cfg.Provider)
	assert.Equal(t, "us-west-2", cfg.Region)
	assert.Equal(t, "db.internal", cfg.Options.DataStore.Host)
	assert.Equal(t, 5433, cfg.Options.DataStore.Port)
	assert.Equal(t, defaultPoolSize, cfg.Options.DataStore.MaxConns)
}

func TestResolveConfigExplicitWinsOverEnv(t *testing.T) {
	t.Setenv(EnvRegion, "us-west-2")
	cfg, err := ResolveConfig(types.ProviderConfig{Provider: types.ProviderMock, Region: "eu-central-1"})
	require.NoError(t, err)
	assert.Equal(t, "eu-central-1", cfg.Region)
}

func TestResolveConfigPartialStaticCredentials(t *testing.T) {
	_, err := ResolveConfig(types.ProviderConfig{
		Provider:    types.ProviderAWS,
		Credentials: &types.Credentials{AccessKeyID: "AKIA..."},
	})
	require.Error(t, err)
	assert.True(t, errdefs.IsValidation(err))
}
