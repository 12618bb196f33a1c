package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/types"
)

func TestConfigurationVersioning(t *testing.T) {
	svc := &configurationService{w: testWorld(t)}
	ctx := context.Background()

	_, err := svc.CreateProfile(ctx, "shop", "features", "feature flags")
	require.NoError(t, err)

	v1, err := svc.CreateVersion(ctx, "shop", "features", map[string]interface{}{"newUI": false}, "initial")
	require.NoError(t, err)
	assert.Equal(t, 1, v1.Version)

	v2, err := svc.CreateVersion(ctx, "shop", "features", map[string]interface{}{"newUI": true}, "enable")
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Version)

	// Nothing deployed yet: reads fall back to the latest version.
	cfg, err := svc.GetConfiguration(ctx, "shop", "production", "features")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Version)
	assert.False(t, cfg.Deployed)
}

func TestDeployConfigurationPinsVersion(t *testing.T) {
	svc := &configurationService{w: testWorld(t)}
	ctx := context.Background()

	_, err := svc.CreateProfile(ctx, "shop", "features", "")
	require.NoError(t, err)
	_, err = svc.CreateVersion(ctx, "shop", "features", map[string]interface{}{"newUI": false}, "")
	require.NoError(t, err)
	_, err = svc.CreateVersion(ctx, "shop", "features", map[string]interface{}{"newUI": true}, "")
	require.NoError(t, err)

	id, err := svc.DeployConfiguration(ctx, types.DeployConfigurationParams{
		Application: "shop",
		Environment: "production",
		Profile:     "features",
		Version:     1,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	cfg, err := svc.GetConfiguration(ctx, "shop", "production", "features")
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Version)
	assert.True(t, cfg.Deployed)
	assert.Equal(t, false, cfg.Data["newUI"])

	// Another environment still sees the latest undeployed version.
	cfg, err = svc.GetConfiguration(ctx, "shop", "staging", "features")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Version)

	_, err = svc.DeployConfiguration(ctx, types.DeployConfigurationParams{
		Application: "shop", Environment: "production", Profile: "features", Version: 99,
	})
	assert.True(t, errdefs.IsValidation(err))
}

func TestValidateConfigurationDelegates(t *testing.T) {
	svc := &configurationService{w: testWorld(t)}

	schema := `{
		"type": "object",
		"properties": {"port": {"type": "integer"}},
		"required": ["port"]
	}`

	res, err := svc.ValidateConfiguration(map[string]interface{}{"port": 8080}, schema)
	require.NoError(t, err)
	assert.True(t, res.OK)

	res, err = svc.ValidateConfiguration(map[string]interface{}{}, schema)
	require.NoError(t, err)
	require.False(t, res.OK)
	require.NotEmpty(t, res.Errors)

	_, err = svc.ValidateConfiguration(nil, "{not json")
	assert.Error(t, err)
}

func TestProfileLifecycle(t *testing.T) {
	svc := &configurationService{w: testWorld(t)}
	ctx := context.Background()

	_, err := svc.CreateProfile(ctx, "shop", "a", "")
	require.NoError(t, err)
	_, err = svc.CreateProfile(ctx, "shop", "b", "")
	require.NoError(t, err)
	_, err = svc.CreateProfile(ctx, "other", "c", "")
	require.NoError(t, err)
	_, err = svc.CreateProfile(ctx, "shop", "a", "")
	assert.True(t, errdefs.IsConflict(err))

	list, err := svc.ListProfiles(ctx, "shop")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Name)

	require.NoError(t, svc.DeleteProfile(ctx, "shop", "a"))
	_, err = svc.GetProfile(ctx, "shop", "a")
	assert.True(t, errdefs.IsNotFound(err))
}
