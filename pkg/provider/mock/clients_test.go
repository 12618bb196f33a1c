package mock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/provider"
	"github.com/lcplatform/platform/pkg/types"
)

func TestSecretsClientGetJSON(t *testing.T) {
	w := testWorld(t)
	svc := &secretsService{w: w}
	client := &secretsClient{svc: svc}
	ctx := context.Background()

	_, err := svc.CreateSecret(ctx, types.CreateSecretParams{
		Name:  "db-credentials",
		Value: `{"user":"app","password":"s3cret"}`,
	})
	require.NoError(t, err)

	var creds struct {
		User     string `json:"user"`
		Password string `json:"password"`
	}
	require.NoError(t, client.GetJSON(ctx, "db-credentials", &creds))
	assert.Equal(t, "app", creds.User)
	assert.Equal(t, "s3cret", creds.Password)

	_, err = svc.CreateSecret(ctx, types.CreateSecretParams{Name: "plain", Value: "not-json"})
	require.NoError(t, err)
	assert.True(t, errdefs.IsValidation(client.GetJSON(ctx, "plain", &creds)))
}

func TestConfigClientTypedReads(t *testing.T) {
	w := testWorld(t)
	svc := &configurationService{w: w}
	client := newConfigClient(svc, provider.Deps{
		Config: &types.ProviderConfig{
			Options: types.Options{
				AppConfig: types.AppConfigOptions{Application: "shop"},
			},
		},
	})
	ctx := context.Background()

	_, err := svc.CreateProfile(ctx, "shop", "settings", "")
	require.NoError(t, err)
	_, err = svc.CreateVersion(ctx, "shop", "settings", map[string]interface{}{
		"port":    8080,
		"debug":   true,
		"appName": "shop-api",
	}, "")
	require.NoError(t, err)

	s, err := client.GetString(ctx, "settings/appName")
	require.NoError(t, err)
	assert.Equal(t, "shop-api", s)

	n, err := client.GetInt(ctx, "settings/port")
	require.NoError(t, err)
	assert.Equal(t, 8080, n)

	b, err := client.GetBool(ctx, "debug")
	require.NoError(t, err)
	assert.True(t, b)

	_, err = client.GetInt(ctx, "settings/appName")
	assert.True(t, errdefs.IsValidation(err))
	_, err = client.Get(ctx, "settings/missing")
	assert.True(t, errdefs.IsNotFound(err))
}

func TestConfigClientRequiresApplication(t *testing.T) {
	client := newConfigClient(&configurationService{w: testWorld(t)}, provider.Deps{})
	_, err := client.Get(context.Background(), "key")
	assert.True(t, errdefs.IsValidation(err))
}

func TestEventPublisherBatch(t *testing.T) {
	w := testWorld(t)
	svc := &eventBusService{w: w}
	pub := &eventPublisher{svc: svc}
	ctx := context.Background()

	_, err := svc.CreateEventBus(ctx, "bus", nil)
	require.NoError(t, err)
	_, err = svc.PutRule(ctx, "bus", types.Rule{Name: "all", Enabled: true})
	require.NoError(t, err)
	require.NoError(t, svc.AddTarget(ctx, "bus", "all", types.Target{ID: "T1"}))

	ids, err := pub.PublishBatch(ctx, "bus", []types.Event{
		{Source: "a", Type: "t"},
		{Source: "b", Type: "t"},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.NotEqual(t, ids[0], ids[1])
	assert.Len(t, pub.Deliveries(), 2)
}

func TestCacheClientOperations(t *testing.T) {
	client := &cacheClient{w: testWorld(t)}
	ctx := context.Background()

	_, found, err := client.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, client.Set(ctx, "k", "v", 0))
	v, found, err := client.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "v", v)

	n, err := client.Increment(ctx, "counter", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	n, err = client.Increment(ctx, "counter", -2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	_, err = client.Increment(ctx, "k", 1)
	assert.True(t, errdefs.IsValidation(err))

	require.NoError(t, client.MSet(ctx, map[string]string{"a": "1", "b": "2"}, 0))
	m, err := client.MGet(ctx, "a", "b", "missing")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, m)

	require.NoError(t, client.Expire(ctx, "a", time.Minute))
	ttl, err := client.TTL(ctx, "a")
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	ttl, err = client.TTL(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), ttl)

	require.NoError(t, client.Delete(ctx, "a"))
	_, err = client.TTL(ctx, "a")
	assert.True(t, errdefs.IsNotFound(err))
}

func TestCacheClientExpiry(t *testing.T) {
	client := &cacheClient{w: testWorld(t)}
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "k", "v", time.Nanosecond))
	time.Sleep(2 * time.Millisecond)
	_, found, err := client.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestContainerRepoClient(t *testing.T) {
	w := testWorld(t)
	svc := &containerRepoService{w: w}
	client := &containerRepoClient{svc: svc}
	ctx := context.Background()

	_, err := svc.CreateRepository(ctx, "app", types.RepositoryOptions{})
	require.NoError(t, err)
	img, err := svc.pushImage("app", []string{"v1.0.0", "latest"}, 12345)
	require.NoError(t, err)

	list, err := client.ListImages(ctx, "app")
	require.NoError(t, err)
	require.Len(t, list, 1)

	got, err := client.GetImageByTag(ctx, "app", "v1.0.0")
	require.NoError(t, err)
	assert.Equal(t, img.Digest, got.Digest)

	exists, err := client.ImageExists(ctx, "app", "latest")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = client.ImageExists(ctx, "app", "v9")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, client.DeleteImages(ctx, "app", []string{img.Digest}))
	list, err = client.ListImages(ctx, "app")
	require.NoError(t, err)
	assert.Empty(t, list)
}
