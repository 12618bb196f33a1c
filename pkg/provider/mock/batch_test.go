package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/types"
)

func TestJobReachesTerminalState(t *testing.T) {
	svc := &batchService{w: testWorld(t)}
	ctx := context.Background()

	job, err := svc.SubmitJob(ctx, types.SubmitJobParams{Name: "etl", Image: "etl:1"})
	require.NoError(t, err)
	assert.Equal(t, types.JobPending, job.Status)

	got, err := svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, types.JobRunning, got.Status)
	assert.Equal(t, 1, got.AttemptsMade)

	got, err = svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	require.True(t, got.Status.Terminal(), "status %s", got.Status)
	require.NotNil(t, got.ExitCode)
	if got.Status == types.JobSucceeded {
		assert.Equal(t, 0, *got.ExitCode)
	} else {
		assert.Equal(t, 1, *got.ExitCode)
		assert.NotEmpty(t, got.Error)
	}

	// Terminal states are permanent.
	final, err := svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Status, final.Status)
}

func TestCancelJob(t *testing.T) {
	svc := &batchService{w: testWorld(t)}
	ctx := context.Background()

	job, err := svc.SubmitJob(ctx, types.SubmitJobParams{Name: "etl", Image: "etl:1"})
	require.NoError(t, err)
	require.NoError(t, svc.CancelJob(ctx, job.ID))

	got, err := svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, types.JobCancelled, got.Status)
	assert.True(t, errdefs.IsConflict(svc.CancelJob(ctx, job.ID)))
}

func TestListJobsFiltersByStatus(t *testing.T) {
	svc := &batchService{w: testWorld(t)}
	ctx := context.Background()

	a, err := svc.SubmitJob(ctx, types.SubmitJobParams{Name: "a", Image: "i"})
	require.NoError(t, err)
	_, err = svc.SubmitJob(ctx, types.SubmitJobParams{Name: "b", Image: "i"})
	require.NoError(t, err)
	require.NoError(t, svc.CancelJob(ctx, a.ID))

	cancelled, err := svc.ListJobs(ctx, types.JobCancelled)
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, a.ID, cancelled[0].ID)

	all, err := svc.ListJobs(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestScheduleJobValidation(t *testing.T) {
	svc := &batchService{w: testWorld(t)}
	ctx := context.Background()

	tests := []struct {
		name     string
		schedule string
		ok       bool
	}{
		{"cron", "cron(0 12 * * ? *)", true},
		{"rate", "rate(5 minutes)", true},
		{"bare cron", "0 12 * * *", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ScheduleJob(ctx, types.ScheduleJobParams{
				Name:     "job-" + tt.name,
				Schedule: tt.schedule,
				Enabled:  true,
			})
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errdefs.IsValidation(err), "got %v", err)
			}
		})
	}
}

func TestScheduledJobLifecycle(t *testing.T) {
	svc := &batchService{w: testWorld(t)}
	ctx := context.Background()

	_, err := svc.ScheduleJob(ctx, types.ScheduleJobParams{Name: "nightly", Schedule: "rate(1 day)", Enabled: true})
	require.NoError(t, err)
	_, err = svc.ScheduleJob(ctx, types.ScheduleJobParams{Name: "nightly", Schedule: "rate(1 day)"})
	assert.True(t, errdefs.IsConflict(err))

	list, err := svc.ListScheduledJobs(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.DeleteScheduledJob(ctx, "nightly"))
	assert.True(t, errdefs.IsNotFound(svc.DeleteScheduledJob(ctx, "nightly")))
}
