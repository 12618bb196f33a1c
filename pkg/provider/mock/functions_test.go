package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/types"
)

func TestFunctionLifecycle(t *testing.T) {
	svc := &functionHostingService{w: testWorld(t)}
	ctx := context.Background()

	fn, err := svc.CreateFunction(ctx, types.CreateFunctionParams{
		Name:    "resize",
		Runtime: "go1.x",
		Handler: "main",
		Code:    []byte("binary"),
	})
	require.NoError(t, err)
	assert.Equal(t, types.FunctionCreating, fn.Status)
	assert.Equal(t, 128, fn.MemorySize)
	assert.Equal(t, 3, fn.Timeout)
	assert.Equal(t, "1", fn.Version)

	got, err := svc.GetFunction(ctx, "resize")
	require.NoError(t, err)
	assert.Equal(t, types.FunctionActive, got.Status)

	// A code update bumps the version.
	updated, err := svc.UpdateFunction(ctx, "resize", types.UpdateFunctionParams{Code: []byte("binary-v2")})
	require.NoError(t, err)
	assert.Equal(t, "2", updated.Version)

	require.NoError(t, svc.DeleteFunction(ctx, "resize"))
	_, err = svc.GetFunction(ctx, "resize")
	assert.True(t, errdefs.IsNotFound(err))
}

func TestInvokeFunctionTypes(t *testing.T) {
	svc := &functionHostingService{w: testWorld(t)}
	ctx := context.Background()

	_, err := svc.CreateFunction(ctx, types.CreateFunctionParams{Name: "f", Runtime: "go1.x", Handler: "main"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		invokeType types.InvocationType
		wantStatus int
		hasPayload bool
	}{
		{"sync echoes payload", types.InvokeSync, 200, true},
		{"default is sync", "", 200, true},
		{"async accepts", types.InvokeAsync, 202, false},
		{"dry run validates", types.InvokeDryRun, 204, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.InvokeFunction(ctx, "f", types.InvokeParams{
				Type:    tt.invokeType,
				Payload: []byte(`{"a":1}`),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, res.StatusCode)
			if tt.hasPayload {
				assert.JSONEq(t, `{"a":1}`, string(res.Payload))
			} else {
				assert.Empty(t, res.Payload)
			}
		})
	}

	_, err = svc.InvokeFunction(ctx, "f", types.InvokeParams{Type: "spicy"})
	assert.True(t, errdefs.IsValidation(err))
}

func TestEventSourceMappings(t *testing.T) {
	svc := &functionHostingService{w: testWorld(t)}
	ctx := context.Background()

	_, err := svc.CreateFunction(ctx, types.CreateFunctionParams{Name: "f", Runtime: "go1.x", Handler: "main"})
	require.NoError(t, err)

	m, err := svc.CreateEventSourceMapping(ctx, types.EventSourceMapping{
		FunctionName: "f",
		SourceARN:    "arn:mock:queue:work",
		BatchSize:    10,
		Enabled:      true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, m.ID)

	require.NoError(t, svc.SetEventSourceMappingEnabled(ctx, m.ID, false))
	got, err := svc.GetEventSourceMapping(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)

	require.NoError(t, svc.DeleteEventSourceMapping(ctx, m.ID))
	_, err = svc.GetEventSourceMapping(ctx, m.ID)
	assert.True(t, errdefs.IsNotFound(err))

	_, err = svc.CreateEventSourceMapping(ctx, types.EventSourceMapping{FunctionName: "ghost", SourceARN: "arn"})
	assert.True(t, errdefs.IsNotFound(err))
}

func TestFunctionURLs(t *testing.T) {
	svc := &functionHostingService{w: testWorld(t)}
	ctx := context.Background()

	_, err := svc.CreateFunction(ctx, types.CreateFunctionParams{Name: "f", Runtime: "go1.x", Handler: "main"})
	require.NoError(t, err)

	u, err := svc.CreateFunctionURL(ctx, "f", types.FunctionURLAuthNone)
	require.NoError(t, err)
	assert.Contains(t, u.URL, "https://")

	_, err = svc.CreateFunctionURL(ctx, "f", types.FunctionURLAuthIAM)
	assert.True(t, errdefs.IsConflict(err))
	_, err = svc.CreateFunctionURL(ctx, "f", "BASIC")
	assert.True(t, errdefs.IsValidation(err))

	require.NoError(t, svc.DeleteFunctionURL(ctx, "f"))
	_, err = svc.GetFunctionURL(ctx, "f")
	assert.True(t, errdefs.IsNotFound(err))
}
