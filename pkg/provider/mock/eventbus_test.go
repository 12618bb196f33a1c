package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/types"
)

func TestEventRouting(t *testing.T) {
	svc := &eventBusService{w: testWorld(t)}
	ctx := context.Background()

	_, err := svc.CreateEventBus(ctx, "app-events", nil)
	require.NoError(t, err)

	_, err = svc.PutRule(ctx, "app-events", types.Rule{
		Name:    "user-created",
		Enabled: true,
		Pattern: types.EventPattern{
			Source: []string{"user-service"},
			Type:   []string{"user.created"},
		},
	})
	require.NoError(t, err)
	require.NoError(t, svc.AddTarget(ctx, "app-events", "user-created", types.Target{ID: "T1", Type: "queue", Endpoint: "q"}))

	id, err := svc.PublishEvent(ctx, "app-events", types.Event{
		Source: "user-service",
		Type:   "user.created",
		Data:   map[string]interface{}{"userId": "123"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, err = svc.PublishEvent(ctx, "app-events", types.Event{Source: "billing", Type: "user.created"})
	require.NoError(t, err)

	deliveries := svc.Deliveries()
	require.Len(t, deliveries, 1)
	assert.Equal(t, "T1", deliveries[0].TargetID)
	assert.Equal(t, id, deliveries[0].EventID)
}

func TestEventPatternMatching(t *testing.T) {
	event := types.Event{
		Source: "user-service",
		Type:   "user.created",
		Data:   map[string]interface{}{"plan": "pro", "seats": 3},
	}

	tests := []struct {
		name    string
		pattern types.EventPattern
		want    bool
	}{
		{"empty pattern matches all", types.EventPattern{}, true},
		{"source match", types.EventPattern{Source: []string{"user-service"}}, true},
		{"source mismatch", types.EventPattern{Source: []string{"billing"}}, false},
		{"type match", types.EventPattern{Type: []string{"user.created", "user.deleted"}}, true},
		{"type mismatch", types.EventPattern{Type: []string{"user.deleted"}}, false},
		{"data equality", types.EventPattern{Data: map[string]interface{}{"plan": "pro"}}, true},
		{"data mismatch", types.EventPattern{Data: map[string]interface{}{"plan": "free"}}, false},
		{"data key absent", types.EventPattern{Data: map[string]interface{}{"region": "eu"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, patternMatches(tt.pattern, event))
		})
	}
}

func TestDisabledRuleDoesNotDeliver(t *testing.T) {
	svc := &eventBusService{w: testWorld(t)}
	ctx := context.Background()

	_, err := svc.CreateEventBus(ctx, "bus", nil)
	require.NoError(t, err)
	_, err = svc.PutRule(ctx, "bus", types.Rule{Name: "r", Enabled: false})
	require.NoError(t, err)
	require.NoError(t, svc.AddTarget(ctx, "bus", "r", types.Target{ID: "T1"}))

	_, err = svc.PublishEvent(ctx, "bus", types.Event{Source: "s", Type: "t"})
	require.NoError(t, err)
	assert.Empty(t, svc.Deliveries())
}

func TestPutRuleKeepsTargets(t *testing.T) {
	svc := &eventBusService{w: testWorld(t)}
	ctx := context.Background()

	_, err := svc.CreateEventBus(ctx, "bus", nil)
	require.NoError(t, err)
	_, err = svc.PutRule(ctx, "bus", types.Rule{Name: "r", Enabled: true})
	require.NoError(t, err)
	require.NoError(t, svc.AddTarget(ctx, "bus", "r", types.Target{ID: "T1"}))

	// Upserting the rule narrows the pattern but keeps the target.
	updated, err := svc.PutRule(ctx, "bus", types.Rule{
		Name:    "r",
		Enabled: true,
		Pattern: types.EventPattern{Source: []string{"svc"}},
	})
	require.NoError(t, err)
	require.Len(t, updated.Targets, 1)
	assert.Equal(t, "T1", updated.Targets[0].ID)
}

func TestTargetLifecycle(t *testing.T) {
	svc := &eventBusService{w: testWorld(t)}
	ctx := context.Background()

	_, err := svc.CreateEventBus(ctx, "bus", nil)
	require.NoError(t, err)
	_, err = svc.PutRule(ctx, "bus", types.Rule{Name: "r", Enabled: true})
	require.NoError(t, err)

	require.NoError(t, svc.AddTarget(ctx, "bus", "r", types.Target{ID: "T1"}))
	assert.True(t, errdefs.IsConflict(svc.AddTarget(ctx, "bus", "r", types.Target{ID: "T1"})))
	require.NoError(t, svc.RemoveTarget(ctx, "bus", "r", "T1"))
	assert.True(t, errdefs.IsNotFound(svc.RemoveTarget(ctx, "bus", "r", "T1")))
}
