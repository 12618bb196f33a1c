package control

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/types"
)

func mockFacade(t *testing.T) *Facade {
	t.Helper()
	f, err := New(types.ProviderConfig{Provider: types.ProviderMock})
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(types.ProviderConfig{Provider: "digitalocean"})
	assert.True(t, errdefs.IsValidation(err))

	_, err = New(types.ProviderConfig{})
	assert.True(t, errdefs.IsValidation(err))
}

func TestProviderName(t *testing.T) {
	f := mockFacade(t)
	assert.Equal(t, types.ProviderMock, f.Provider())
}

func TestServiceReuse(t *testing.T) {
	f := mockFacade(t)

	a, err := f.Queues()
	require.NoError(t, err)
	b, err := f.Queues()
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestCloseIsIdempotent(t *testing.T) {
	f, err := New(types.ProviderConfig{Provider: types.ProviderMock})
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
}

// A full pass over the management plane against the mock provider:
// storage, relational data, and an application deployment lifecycle.
func TestManagementScenario(t *testing.T) {
	f := mockFacade(t)
	ctx := context.Background()

	objects, err := f.ObjectStore()
	require.NoError(t, err)
	require.NoError(t, objects.CreateBucket(ctx, "reports", types.BucketOptions{Versioning: true}))
	_, err = objects.PutObject(ctx, "reports", "2026/08/summary.csv", []byte("a,b\n1,2\n"), types.ObjectMetadata{ContentType: "text/csv"})
	require.NoError(t, err)
	obj, err := objects.GetObject(ctx, "reports", "2026/08/summary.csv")
	require.NoError(t, err)
	assert.Equal(t, []byte("a,b\n1,2\n"), obj.Data)

	data, err := f.DataStore()
	require.NoError(t, err)
	_, err = data.Execute(ctx, "CREATE TABLE reports (id SERIAL PRIMARY KEY, path VARCHAR(200))")
	require.NoError(t, err)
	_, err = data.Execute(ctx, "INSERT INTO reports(path) VALUES ($1)", "2026/08/summary.csv")
	require.NoError(t, err)
	rows, err := data.Query(ctx, "SELECT path FROM reports")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2026/08/summary.csv", rows[0]["path"])

	hosting, err := f.WebHosting()
	require.NoError(t, err)
	dep, err := hosting.DeployApplication(ctx, types.DeployApplicationParams{
		Name:         "report-api",
		Image:        "registry.example.com/report-api:v1",
		CPU:          1,
		MemoryMB:     2048,
		MinInstances: 1,
		MaxInstances: 4,
	})
	require.NoError(t, err)

	scaled, err := hosting.ScaleApplication(ctx, dep.ID, types.ScaleParams{MinInstances: 2, MaxInstances: 8})
	require.NoError(t, err)
	assert.Equal(t, 2, scaled.MinInstances)
	assert.Equal(t, 8, scaled.MaxInstances)

	updated, err := hosting.UpdateApplication(ctx, dep.ID, types.UpdateApplicationParams{
		Image: "registry.example.com/report-api:v2",
	})
	require.NoError(t, err)
	assert.Equal(t, "registry.example.com/report-api:v2", updated.Image)

	got, err := hosting.GetDeployment(ctx, dep.ID)
	require.NoError(t, err)
	assert.Equal(t, "registry.example.com/report-api:v2", got.Image)
}
