package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/types"
)

type deploymentState struct {
	dep types.Deployment

	// pending holds upcoming status transitions, applied one per
	// observation so async progress is bounded by reads, not clocks.
	pending []types.DeploymentStatus
}

// step applies at most one pending transition
func (s *deploymentState) step() {
	if len(s.pending) == 0 {
		return
	}
	s.dep.Status = s.pending[0]
	s.pending = s.pending[1:]
	if s.dep.Status == types.DeploymentRunning && s.dep.CurrentInstances < s.dep.MinInstances {
		s.dep.CurrentInstances = s.dep.MinInstances
	}
}

type webHostingService struct {
	w *world
}

func (s *webHostingService) DeployApplication(ctx context.Context, params types.DeployApplicationParams) (*types.Deployment, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	if params.Name == "" {
		return nil, errdefs.NewValidationPath("/name", "name is required")
	}
	if params.Image == "" {
		return nil, errdefs.NewValidationPath("/image", "image is required")
	}
	if params.MinInstances < 0 || params.MaxInstances < 0 {
		return nil, errdefs.NewValidationPath("/minInstances", "instance bounds must be non-negative")
	}
	if params.MinInstances > params.MaxInstances {
		return nil, errdefs.NewValidationPath("/minInstances", "minInstances %d exceeds maxInstances %d", params.MinInstances, params.MaxInstances)
	}

	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	for _, st := range s.w.deployments {
		if st.dep.Name == params.Name {
			return nil, errdefs.NewConflict("application %q already deployed", params.Name)
		}
	}

	id := s.w.nextID("deployment")
	now := time.Now()
	st := &deploymentState{
		dep: types.Deployment{
			ID:               id,
			Name:             params.Name,
			URL:              fmt.Sprintf("https://%s.apps.mock.lcplatform.dev", params.Name),
			Status:           types.DeploymentCreating,
			Image:            params.Image,
			CPU:              params.CPU,
			MemoryMB:         params.MemoryMB,
			MinInstances:     params.MinInstances,
			MaxInstances:     params.MaxInstances,
			CurrentInstances: 0,
			Environment:      copyStrMap(params.Environment),
			Tags:             copyStrMap(params.Tags),
			Created:          now,
			LastUpdated:      now,
		},
		pending: []types.DeploymentStatus{types.DeploymentRunning},
	}
	s.w.deployments[id] = st
	out := cloneDeployment(st.dep)
	return &out, nil
}

func (s *webHostingService) GetDeployment(ctx context.Context, id string) (*types.Deployment, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.deployments[id]
	if !ok {
		return nil, errdefs.NewNotFound("deployment", id)
	}
	st.step()
	out := cloneDeployment(st.dep)
	return &out, nil
}

func (s *webHostingService) UpdateApplication(ctx context.Context, id string, params types.UpdateApplicationParams) (*types.Deployment, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.deployments[id]
	if !ok {
		return nil, errdefs.NewNotFound("deployment", id)
	}
	if st.dep.Status == types.DeploymentStopped {
		return nil, errdefs.NewConflict("deployment %s is stopped", id)
	}

	if params.Image != "" {
		st.dep.Image = params.Image
	}
	if params.Environment != nil {
		st.dep.Environment = copyStrMap(params.Environment)
	}
	if params.CPU > 0 {
		st.dep.CPU = params.CPU
	}
	if params.MemoryMB > 0 {
		st.dep.MemoryMB = params.MemoryMB
	}
	st.dep.Status = types.DeploymentUpdating
	st.dep.LastUpdated = time.Now()
	st.pending = []types.DeploymentStatus{types.DeploymentRunning}

	out := cloneDeployment(st.dep)
	return &out, nil
}

func (s *webHostingService) DeleteApplication(ctx context.Context, id string) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if _, ok := s.w.deployments[id]; !ok {
		return errdefs.NewNotFound("deployment", id)
	}
	delete(s.w.deployments, id)
	return nil
}

func (s *webHostingService) GetApplicationURL(ctx context.Context, id string) (string, error) {
	if err := s.w.simulate(ctx); err != nil {
		return "", err
	}
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	st, ok := s.w.deployments[id]
	if !ok {
		return "", errdefs.NewNotFound("deployment", id)
	}
	return st.dep.URL, nil
}

// ScaleApplication accepts the requested bounds verbatim; it only
// rejects min > max.
func (s *webHostingService) ScaleApplication(ctx context.Context, id string, scale types.ScaleParams) (*types.Deployment, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	if scale.MinInstances > scale.MaxInstances {
		return nil, errdefs.NewValidationPath("/minInstances", "minInstances %d exceeds maxInstances %d", scale.MinInstances, scale.MaxInstances)
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.deployments[id]
	if !ok {
		return nil, errdefs.NewNotFound("deployment", id)
	}
	st.dep.MinInstances = scale.MinInstances
	st.dep.MaxInstances = scale.MaxInstances
	if st.dep.CurrentInstances < scale.MinInstances {
		st.dep.CurrentInstances = scale.MinInstances
	}
	if st.dep.CurrentInstances > scale.MaxInstances {
		st.dep.CurrentInstances = scale.MaxInstances
	}
	st.dep.LastUpdated = time.Now()
	out := cloneDeployment(st.dep)
	return &out, nil
}

func cloneDeployment(d types.Deployment) types.Deployment {
	d.Environment = copyStrMap(d.Environment)
	d.Tags = copyStrMap(d.Tags)
	return d
}

func copyStrMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
