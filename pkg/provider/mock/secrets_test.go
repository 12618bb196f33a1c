package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/types"
)

func TestSecretVersioning(t *testing.T) {
	svc := &secretsService{w: testWorld(t)}
	ctx := context.Background()

	created, err := svc.CreateSecret(ctx, types.CreateSecretParams{Name: "db-password", Value: "p0"})
	require.NoError(t, err)
	assert.Equal(t, "1", created.Version)

	updated, err := svc.UpdateSecret(ctx, "db-password", "p1")
	require.NoError(t, err)
	assert.Equal(t, "2", updated.Version)
	assert.NotEqual(t, created.Version, updated.Version)

	v, err := svc.GetSecretValue(ctx, "db-password")
	require.NoError(t, err)
	assert.Equal(t, "p1", v.Value)
	assert.Equal(t, updated.Version, v.Version)

	list, err := svc.ListSecrets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, updated.Version, list[0].Version)
}

func TestDeleteSecretRecoveryWindow(t *testing.T) {
	svc := &secretsService{w: testWorld(t)}
	ctx := context.Background()

	_, err := svc.CreateSecret(ctx, types.CreateSecretParams{Name: "s", Value: "v"})
	require.NoError(t, err)

	// Non-force delete schedules removal; the name stops resolving.
	require.NoError(t, svc.DeleteSecret(ctx, "s", false))
	_, err = svc.GetSecretValue(ctx, "s")
	assert.True(t, errdefs.IsNotFound(err))

	list, err := svc.ListSecrets(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDeleteSecretForce(t *testing.T) {
	svc := &secretsService{w: testWorld(t)}
	ctx := context.Background()

	_, err := svc.CreateSecret(ctx, types.CreateSecretParams{Name: "s", Value: "v"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteSecret(ctx, "s", true))

	// Force delete frees the name for reuse.
	_, err = svc.CreateSecret(ctx, types.CreateSecretParams{Name: "s", Value: "v2"})
	assert.NoError(t, err)
}

func TestRotateSecret(t *testing.T) {
	svc := &secretsService{w: testWorld(t)}
	ctx := context.Background()

	_, err := svc.CreateSecret(ctx, types.CreateSecretParams{Name: "s", Value: "v"})
	require.NoError(t, err)

	meta, err := svc.RotateSecret(ctx, "s", types.RotationConfig{Enabled: true, Days: 30})
	require.NoError(t, err)
	assert.True(t, meta.RotationEnabled)
	assert.Equal(t, 30, meta.RotationDays)
	assert.Equal(t, "2", meta.Version)
	assert.False(t, meta.LastRotated.IsZero())

	_, err = svc.RotateSecret(ctx, "s", types.RotationConfig{Enabled: true, Days: 0})
	assert.True(t, errdefs.IsValidation(err))
}

func TestTagSecretMerges(t *testing.T) {
	svc := &secretsService{w: testWorld(t)}
	ctx := context.Background()

	_, err := svc.CreateSecret(ctx, types.CreateSecretParams{Name: "s", Value: "v", Tags: map[string]string{"team": "core"}})
	require.NoError(t, err)
	require.NoError(t, svc.TagSecret(ctx, "s", map[string]string{"env": "prod"}))

	list, err := svc.ListSecrets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "core", list[0].Tags["team"])
	assert.Equal(t, "prod", list[0].Tags["env"])
}

func TestCreateSecretConflict(t *testing.T) {
	svc := &secretsService{w: testWorld(t)}
	ctx := context.Background()

	_, err := svc.CreateSecret(ctx, types.CreateSecretParams{Name: "s", Value: "v"})
	require.NoError(t, err)
	_, err = svc.CreateSecret(ctx, types.CreateSecretParams{Name: "s", Value: "v"})
	assert.True(t, errdefs.IsConflict(err))
}
