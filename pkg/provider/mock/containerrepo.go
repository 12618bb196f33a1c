package mock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/types"
)

type repoState struct {
	repo            types.ContainerRepository
	immutable       bool
	lifecyclePolicy string
	repoPolicy      string
	images          map[string]*types.ContainerImage // By digest
}

type containerRepoService struct {
	w *world
}

func (s *containerRepoService) CreateRepository(ctx context.Context, name string, opts types.RepositoryOptions) (*types.ContainerRepository, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errdefs.NewValidationPath("/name", "name is required")
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if _, exists := s.w.repos[name]; exists {
		return nil, errdefs.NewConflict("repository %q already exists", name)
	}
	st := &repoState{
		repo: types.ContainerRepository{
			Name:       name,
			URI:        fmt.Sprintf("registry.mock.lcplatform.dev/%s", name),
			ScanOnPush: opts.ScanOnPush,
			Tags:       copyStrMap(opts.Tags),
			Created:    time.Now(),
		},
		immutable: opts.Immutable,
		images:    make(map[string]*types.ContainerImage),
	}
	s.w.repos[name] = st
	out := cloneRepository(st.repo)
	return &out, nil
}

func (s *containerRepoService) GetRepository(ctx context.Context, name string) (*types.ContainerRepository, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	st, ok := s.w.repos[name]
	if !ok {
		return nil, errdefs.NewNotFound("repository", name)
	}
	out := cloneRepository(st.repo)
	return &out, nil
}

// DeleteRepository refuses to delete a repository that still holds
// images unless force is set.
func (s *containerRepoService) DeleteRepository(ctx context.Context, name string, force bool) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.repos[name]
	if !ok {
		return errdefs.NewNotFound("repository", name)
	}
	if len(st.images) > 0 && !force {
		return errdefs.NewConflict("repository %q is not empty", name)
	}
	delete(s.w.repos, name)
	return nil
}

func (s *containerRepoService) ListRepositories(ctx context.Context) ([]types.ContainerRepository, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	out := make([]types.ContainerRepository, 0, len(s.w.repos))
	for _, st := range s.w.repos {
		out = append(out, cloneRepository(st.repo))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *containerRepoService) SetLifecyclePolicy(ctx context.Context, name, policyJSON string) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	if !json.Valid([]byte(policyJSON)) {
		return errdefs.NewValidationPath("/policy", "policy must be valid JSON")
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.repos[name]
	if !ok {
		return errdefs.NewNotFound("repository", name)
	}
	st.lifecyclePolicy = policyJSON
	return nil
}

func (s *containerRepoService) SetScanOnPush(ctx context.Context, name string, enabled bool) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.repos[name]
	if !ok {
		return errdefs.NewNotFound("repository", name)
	}
	st.repo.ScanOnPush = enabled
	return nil
}

func (s *containerRepoService) SetRepositoryPolicy(ctx context.Context, name, policyJSON string) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	if !json.Valid([]byte(policyJSON)) {
		return errdefs.NewValidationPath("/policy", "policy must be valid JSON")
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.repos[name]
	if !ok {
		return errdefs.NewNotFound("repository", name)
	}
	st.repoPolicy = policyJSON
	return nil
}

// pushImage seeds an image, for tests and for the data-plane client.
func (s *containerRepoService) pushImage(repo string, tags []string, size int64) (*types.ContainerImage, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.repos[repo]
	if !ok {
		return nil, errdefs.NewNotFound("repository", repo)
	}
	if st.immutable {
		for _, img := range st.images {
			for _, have := range img.Tags {
				for _, want := range tags {
					if have == want {
						return nil, errdefs.NewConflict("tag %q is immutable in %q", want, repo)
					}
				}
			}
		}
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%v:%d", repo, tags, len(st.images))))
	img := &types.ContainerImage{
		Repository: repo,
		Digest:     "sha256:" + hex.EncodeToString(sum[:]),
		Tags:       append([]string(nil), tags...),
		SizeBytes:  size,
		PushedAt:   time.Now(),
	}
	st.images[img.Digest] = img
	out := cloneImage(*img)
	return &out, nil
}

func cloneRepository(r types.ContainerRepository) types.ContainerRepository {
	r.Tags = copyStrMap(r.Tags)
	return r
}

func cloneImage(i types.ContainerImage) types.ContainerImage {
	i.Tags = append([]string(nil), i.Tags...)
	return i
}
