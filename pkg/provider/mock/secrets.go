package mock

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/types"
)

// recoveryWindow is how long a non-force delete keeps the secret
// recoverable before it disappears.
const recoveryWindow = 30 * 24 * time.Hour

type secretState struct {
	meta     types.SecretMetadata
	versions []string // versions[i] is the value for version i+1
}

func (s *secretState) current() string {
	return s.versions[len(s.versions)-1]
}

type secretsService struct {
	w *world
}

func (s *secretsService) CreateSecret(ctx context.Context, params types.CreateSecretParams) (*types.SecretMetadata, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	if params.Name == "" {
		return nil, errdefs.NewValidationPath("/name", "name is required")
	}
	if params.Value == "" {
		return nil, errdefs.NewValidationPath("/value", "value is required")
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if st, exists := s.w.secrets[params.Name]; exists && st.meta.DeletionDate.IsZero() {
		return nil, errdefs.NewConflict("secret %q already exists", params.Name)
	}
	now := time.Now()
	st := &secretState{
		meta: types.SecretMetadata{
			Name:         params.Name,
			Version:      "1",
			Tags:         copyStrMap(params.Tags),
			Created:      now,
			LastModified: now,
		},
		versions: []string{params.Value},
	}
	s.w.secrets[params.Name] = st
	out := cloneSecretMeta(st.meta)
	return &out, nil
}

func (s *secretsService) GetSecretValue(ctx context.Context, name string) (*types.SecretValue, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	st, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	return &types.SecretValue{
		Name:    name,
		Value:   st.current(),
		Version: st.meta.Version,
	}, nil
}

func (s *secretsService) UpdateSecret(ctx context.Context, name, value string) (*types.SecretMetadata, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	if value == "" {
		return nil, errdefs.NewValidationPath("/value", "value is required")
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	st.versions = append(st.versions, value)
	st.meta.Version = strconv.Itoa(len(st.versions))
	st.meta.LastModified = time.Now()
	out := cloneSecretMeta(st.meta)
	return &out, nil
}

// DeleteSecret with force removes the secret immediately. Without
// force the secret is scheduled for deletion after the recovery
// window and stops resolving right away.
func (s *secretsService) DeleteSecret(ctx context.Context, name string, force bool) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, err := s.lookup(name)
	if err != nil {
		return err
	}
	if force {
		delete(s.w.secrets, name)
		return nil
	}
	st.meta.DeletionDate = time.Now().Add(recoveryWindow)
	return nil
}

func (s *secretsService) ListSecrets(ctx context.Context) ([]types.SecretMetadata, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	out := make([]types.SecretMetadata, 0, len(s.w.secrets))
	for _, st := range s.w.secrets {
		if !st.meta.DeletionDate.IsZero() {
			continue
		}
		out = append(out, cloneSecretMeta(st.meta))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// RotateSecret enables rotation and, when enabled, mints a new version
// derived from the current value.
func (s *secretsService) RotateSecret(ctx context.Context, name string, cfg types.RotationConfig) (*types.SecretMetadata, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	if cfg.Enabled && cfg.Days <= 0 {
		return nil, errdefs.NewValidationPath("/days", "rotation interval must be positive")
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	st.meta.RotationEnabled = cfg.Enabled
	st.meta.RotationDays = cfg.Days
	if cfg.Enabled {
		now := time.Now()
		st.versions = append(st.versions, st.current()+"-rotated")
		st.meta.Version = strconv.Itoa(len(st.versions))
		st.meta.LastRotated = now
		st.meta.LastModified = now
	}
	out := cloneSecretMeta(st.meta)
	return &out, nil
}

func (s *secretsService) TagSecret(ctx context.Context, name string, tags map[string]string) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, err := s.lookup(name)
	if err != nil {
		return err
	}
	if st.meta.Tags == nil {
		st.meta.Tags = make(map[string]string, len(tags))
	}
	for k, v := range tags {
		st.meta.Tags[k] = v
	}
	return nil
}

// lookup resolves a live secret; names scheduled for deletion no
// longer resolve. Caller holds w.mu.
func (s *secretsService) lookup(name string) (*secretState, error) {
	st, ok := s.w.secrets[name]
	if !ok || !st.meta.DeletionDate.IsZero() {
		return nil, errdefs.NewNotFound("secret", name)
	}
	return st, nil
}

func cloneSecretMeta(m types.SecretMetadata) types.SecretMetadata {
	m.Tags = copyStrMap(m.Tags)
	return m
}
