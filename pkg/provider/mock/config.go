package mock

import (
	"context"
	"sort"
	"time"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/types"
	"github.com/lcplatform/platform/pkg/validate"
)

type profileState struct {
	profile types.ConfigurationProfile

	// versions in creation order; version numbers are 1-based and
	// monotonically increasing per profile.
	versions []*types.Configuration

	// deployed maps environment to the deployed version number.
	deployed map[string]int
}

type configurationService struct {
	w *world
}

func profileKey(application, name string) string {
	return application + "/" + name
}

func (s *configurationService) CreateProfile(ctx context.Context, application, name, description string) (*types.ConfigurationProfile, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	if application == "" {
		return nil, errdefs.NewValidationPath("/application", "application is required")
	}
	if name == "" {
		return nil, errdefs.NewValidationPath("/name", "name is required")
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	key := profileKey(application, name)
	if _, exists := s.w.profiles[key]; exists {
		return nil, errdefs.NewConflict("profile %q already exists in application %q", name, application)
	}
	st := &profileState{
		profile: types.ConfigurationProfile{
			ID:          s.w.nextID("profile"),
			Application: application,
			Name:        name,
			Description: description,
			Created:     time.Now(),
		},
		deployed: make(map[string]int),
	}
	s.w.profiles[key] = st
	out := st.profile
	return &out, nil
}

func (s *configurationService) GetProfile(ctx context.Context, application, name string) (*types.ConfigurationProfile, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	st, ok := s.w.profiles[profileKey(application, name)]
	if !ok {
		return nil, errdefs.NewNotFound("configuration profile", name)
	}
	out := st.profile
	return &out, nil
}

func (s *configurationService) DeleteProfile(ctx context.Context, application, name string) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	key := profileKey(application, name)
	if _, ok := s.w.profiles[key]; !ok {
		return errdefs.NewNotFound("configuration profile", name)
	}
	delete(s.w.profiles, key)
	return nil
}

func (s *configurationService) ListProfiles(ctx context.Context, application string) ([]types.ConfigurationProfile, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	var out []types.ConfigurationProfile
	for _, st := range s.w.profiles {
		if st.profile.Application != application {
			continue
		}
		out = append(out, st.profile)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *configurationService) CreateVersion(ctx context.Context, application, profile string, data map[string]interface{}, description string) (*types.Configuration, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errdefs.NewValidationPath("/data", "data is required")
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.profiles[profileKey(application, profile)]
	if !ok {
		return nil, errdefs.NewNotFound("configuration profile", profile)
	}
	cfg := &types.Configuration{
		Application: application,
		Profile:     profile,
		Version:     len(st.versions) + 1,
		Data:        copyAnyMap(data),
		Description: description,
		Created:     time.Now(),
	}
	st.versions = append(st.versions, cfg)
	out := cloneConfiguration(*cfg)
	return &out, nil
}

// GetConfiguration returns the version deployed to the environment,
// falling back to the latest version when nothing was deployed yet.
func (s *configurationService) GetConfiguration(ctx context.Context, application, environment, profile string) (*types.Configuration, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	st, ok := s.w.profiles[profileKey(application, profile)]
	if !ok {
		return nil, errdefs.NewNotFound("configuration profile", profile)
	}
	if len(st.versions) == 0 {
		return nil, errdefs.NewNotFound("configuration", profileKey(application, profile))
	}
	cfg := st.versions[len(st.versions)-1]
	deployed := false
	if v, ok := st.deployed[environment]; ok {
		cfg = st.versions[v-1]
		deployed = true
	}
	out := cloneConfiguration(*cfg)
	out.Environment = environment
	out.Deployed = deployed
	return &out, nil
}

func (s *configurationService) ValidateConfiguration(content map[string]interface{}, schemaJSON string) (validate.Result, error) {
	v, err := validate.NewCustom("configuration", schemaJSON)
	if err != nil {
		return validate.Result{}, err
	}
	return v.Validate(content), nil
}

func (s *configurationService) DeployConfiguration(ctx context.Context, params types.DeployConfigurationParams) (string, error) {
	if err := s.w.simulate(ctx); err != nil {
		return "", err
	}
	if params.Environment == "" {
		return "", errdefs.NewValidationPath("/environment", "environment is required")
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.profiles[profileKey(params.Application, params.Profile)]
	if !ok {
		return "", errdefs.NewNotFound("configuration profile", params.Profile)
	}
	version := params.Version
	if version == 0 {
		version = len(st.versions)
	}
	if version < 1 || version > len(st.versions) {
		return "", errdefs.NewValidationPath("/version", "version %d does not exist", params.Version)
	}
	st.deployed[params.Environment] = version
	st.versions[version-1].Deployed = true
	return s.w.nextID("config-deployment"), nil
}

func cloneConfiguration(c types.Configuration) types.Configuration {
	c.Data = copyAnyMap(c.Data)
	return c
}

func copyAnyMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
