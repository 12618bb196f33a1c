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

func TestNextIDIsSequentialPerService(t *testing.T) {
	w := testWorld(t)

	assert.Equal(t, "mock-job-1", w.nextID("job"))
	assert.Equal(t, "mock-job-2", w.nextID("job"))
	assert.Equal(t, "mock-deployment-1", w.nextID("deployment"))
}

func TestLatencyInjectionHonorsDeadline(t *testing.T) {
	w := newWorld(provider.Deps{
		Config: &types.ProviderConfig{
			Options: types.Options{
				Extra: map[string]string{OptionLatencyMs: "200"},
			},
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := w.simulate(ctx)
	require.Error(t, err)
	assert.True(t, errdefs.IsTimeout(err), "got %v", err)
}

func TestSimulateRejectsCancelledContext(t *testing.T) {
	w := testWorld(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.simulate(ctx)
	assert.True(t, errdefs.IsTimeout(err))
}

func TestSeededChanceIsDeterministic(t *testing.T) {
	sample := func() []bool {
		w := newWorld(provider.Deps{
			Config: &types.ProviderConfig{
				Options: types.Options{Extra: map[string]string{OptionSeed: "7"}},
			},
		})
		out := make([]bool, 20)
		for i := range out {
			out[i] = w.chance(0.5)
		}
		return out
	}
	assert.Equal(t, sample(), sample())
}
