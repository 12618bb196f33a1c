package mock

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/types"
)

type jobState struct {
	job     types.Job
	pending []types.JobStatus
}

func (s *jobState) step() {
	if len(s.pending) == 0 {
		return
	}
	next := s.pending[0]
	s.pending = s.pending[1:]
	s.job.Status = next
	switch next {
	case types.JobRunning:
		s.job.Started = time.Now()
		s.job.AttemptsMade = 1
	case types.JobSucceeded:
		code := 0
		s.job.ExitCode = &code
		s.job.Finished = time.Now()
	case types.JobFailed:
		code := 1
		s.job.ExitCode = &code
		s.job.Error = "simulated failure"
		s.job.Finished = time.Now()
	}
}

type scheduleState struct {
	sched types.ScheduledJob
}

type batchService struct {
	w *world
}

// jobFailureRate is the seeded probability that a simulated job ends
// in failure rather than success.
const jobFailureRate = 0.1

func (s *batchService) SubmitJob(ctx context.Context, params types.SubmitJobParams) (*types.Job, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	if params.Name == "" {
		return nil, errdefs.NewValidationPath("/name", "name is required")
	}
	if params.Image == "" {
		return nil, errdefs.NewValidationPath("/image", "image is required")
	}

	terminal := types.JobSucceeded
	if s.w.chance(jobFailureRate) {
		terminal = types.JobFailed
	}

	id := s.w.nextID("job")
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st := &jobState{
		job: types.Job{
			ID:          id,
			Name:        params.Name,
			Status:      types.JobPending,
			Image:       params.Image,
			Command:     append([]string(nil), params.Command...),
			Environment: copyStrMap(params.Environment),
			CPU:         params.CPU,
			MemoryMB:    params.MemoryMB,
			Timeout:     params.Timeout,
			RetryCount:  params.RetryCount,
			Tags:        copyStrMap(params.Tags),
			Created:     time.Now(),
		},
		pending: []types.JobStatus{types.JobRunning, terminal},
	}
	s.w.jobs[id] = st
	out := cloneJob(st.job)
	return &out, nil
}

func (s *batchService) GetJob(ctx context.Context, id string) (*types.Job, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.jobs[id]
	if !ok {
		return nil, errdefs.NewNotFound("job", id)
	}
	st.step()
	out := cloneJob(st.job)
	return &out, nil
}

// CancelJob cancels pending or running jobs; terminal states are
// permanent.
func (s *batchService) CancelJob(ctx context.Context, id string) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.jobs[id]
	if !ok {
		return errdefs.NewNotFound("job", id)
	}
	if st.job.Status.Terminal() {
		return errdefs.NewConflict("job %s is already %s", id, st.job.Status)
	}
	st.job.Status = types.JobCancelled
	st.job.Finished = time.Now()
	st.pending = nil
	return nil
}

func (s *batchService) ListJobs(ctx context.Context, status types.JobStatus) ([]types.Job, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	out := make([]types.Job, 0, len(s.w.jobs))
	for _, st := range s.w.jobs {
		st.step()
		if status != "" && st.job.Status != status {
			continue
		}
		out = append(out, cloneJob(st.job))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *batchService) ScheduleJob(ctx context.Context, params types.ScheduleJobParams) (*types.ScheduledJob, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	if params.Name == "" {
		return nil, errdefs.NewValidationPath("/name", "name is required")
	}
	if !validSchedule(params.Schedule) {
		return nil, errdefs.NewValidationPath("/schedule", "schedule must be a cron(...) or rate(...) expression")
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if _, exists := s.w.schedules[params.Name]; exists {
		return nil, errdefs.NewConflict("scheduled job %q already exists", params.Name)
	}
	st := &scheduleState{sched: types.ScheduledJob{
		ID:       s.w.nextID("schedule"),
		Name:     params.Name,
		Schedule: params.Schedule,
		Enabled:  params.Enabled,
		Template: params.Template,
		Created:  time.Now(),
	}}
	s.w.schedules[params.Name] = st
	out := st.sched
	return &out, nil
}

func (s *batchService) DeleteScheduledJob(ctx context.Context, name string) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if _, ok := s.w.schedules[name]; !ok {
		return errdefs.NewNotFound("scheduled job", name)
	}
	delete(s.w.schedules, name)
	return nil
}

func (s *batchService) ListScheduledJobs(ctx context.Context) ([]types.ScheduledJob, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	out := make([]types.ScheduledJob, 0, len(s.w.schedules))
	for _, st := range s.w.schedules {
		out = append(out, st.sched)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func validSchedule(s string) bool {
	return (strings.HasPrefix(s, "cron(") || strings.HasPrefix(s, "rate(")) && strings.HasSuffix(s, ")")
}

func cloneJob(j types.Job) types.Job {
	j.Command = append([]string(nil), j.Command...)
	j.Environment = copyStrMap(j.Environment)
	j.Tags = copyStrMap(j.Tags)
	if j.ExitCode != nil {
		code := *j.ExitCode
		j.ExitCode = &code
	}
	return j
}
