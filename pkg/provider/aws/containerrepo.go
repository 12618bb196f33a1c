package aws

import (
	"context"
	"encoding/json"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/provider"
	"github.com/lcplatform/platform/pkg/retry"
	"github.com/lcplatform/platform/pkg/types"
)

type containerRepoService struct {
	client *ecr.Client
	retry  retry.Policy
}

func newContainerRepoService(cfg awssdk.Config, deps provider.Deps) *containerRepoService {
	client := ecr.NewFromConfig(cfg, func(o *ecr.Options) {
		o.BaseEndpoint = endpoint(deps.Config)
	})
	return &containerRepoService{client: client, retry: deps.Retry}
}

func (s *containerRepoService) CreateRepository(ctx context.Context, name string, opts types.RepositoryOptions) (*types.ContainerRepository, error) {
	if name == "" {
		return nil, errdefs.NewValidationPath("name", "repository name is required")
	}
	mutability := ecrtypes.ImageTagMutabilityMutable
	if opts.Immutable {
		mutability = ecrtypes.ImageTagMutabilityImmutable
	}
	in := &ecr.CreateRepositoryInput{
		RepositoryName:     awssdk.String(name),
		ImageTagMutability: mutability,
		ImageScanningConfiguration: &ecrtypes.ImageScanningConfiguration{
			ScanOnPush: opts.ScanOnPush,
		},
	}
	for k, v := range opts.Tags {
		in.Tags = append(in.Tags, ecrtypes.Tag{Key: awssdk.String(k), Value: awssdk.String(v)})
	}
	var out *ecr.CreateRepositoryOutput
	err := retry.Do(ctx, s.retry, func() error {
		var opErr error
		out, opErr = s.client.CreateRepository(ctx, in)
		return translate(opErr, "repository")
	})
	if err != nil {
		return nil, err
	}
	repo := repositoryToPortable(out.Repository)
	repo.Tags = opts.Tags
	return repo, nil
}

func (s *containerRepoService) GetRepository(ctx context.Context, name string) (*types.ContainerRepository, error) {
	var out *ecr.DescribeRepositoriesOutput
	err := retry.Do(ctx, s.retry, func() error {
		var opErr error
		out, opErr = s.client.DescribeRepositories(ctx, &ecr.DescribeRepositoriesInput{
			RepositoryNames: []string{name},
		})
		return translate(opErr, "repository")
	})
	if err != nil {
		return nil, err
	}
	if len(out.Repositories) == 0 {
		return nil, errdefs.NewNotFound("repository", name)
	}
	return repositoryToPortable(&out.Repositories[0]), nil
}

func (s *containerRepoService) DeleteRepository(ctx context.Context, name string, force bool) error {
	return retry.Do(ctx, s.retry, func() error {
		_, err := s.client.DeleteRepository(ctx, &ecr.DeleteRepositoryInput{
			RepositoryName: awssdk.String(name),
			Force:          force,
		})
		return translate(err, "repository")
	})
}

func (s *containerRepoService) ListRepositories(ctx context.Context) ([]types.ContainerRepository, error) {
	var repos []types.ContainerRepository
	p := ecr.NewDescribeRepositoriesPaginator(s.client, &ecr.DescribeRepositoriesInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, translate(err, "repository")
		}
		for i := range page.Repositories {
			repos = append(repos, *repositoryToPortable(&page.Repositories[i]))
		}
	}
	return repos, nil
}

func (s *containerRepoService) SetLifecyclePolicy(ctx context.Context, name, policyJSON string) error {
	if !json.Valid([]byte(policyJSON)) {
		return errdefs.NewValidationPath("policy", "lifecycle policy must be valid JSON")
	}
	return retry.Do(ctx, s.retry, func() error {
		_, err := s.client.PutLifecyclePolicy(ctx, &ecr.PutLifecyclePolicyInput{
			RepositoryName:      awssdk.String(name),
			LifecyclePolicyText: awssdk.String(policyJSON),
		})
		return translate(err, "repository")
	})
}

func (s *containerRepoService) SetScanOnPush(ctx context.Context, name string, enabled bool) error {
	return retry.Do(ctx, s.retry, func() error {
		_, err := s.client.PutImageScanningConfiguration(ctx, &ecr.PutImageScanningConfigurationInput{
			RepositoryName: awssdk.String(name),
			ImageScanningConfiguration: &ecrtypes.ImageScanningConfiguration{
				ScanOnPush: enabled,
			},
		})
		return translate(err, "repository")
	})
}

func (s *containerRepoService) SetRepositoryPolicy(ctx context.Context, name, policyJSON string) error {
	if !json.Valid([]byte(policyJSON)) {
		return errdefs.NewValidationPath("policy", "repository policy must be valid JSON")
	}
	return retry.Do(ctx, s.retry, func() error {
		_, err := s.client.SetRepositoryPolicy(ctx, &ecr.SetRepositoryPolicyInput{
			RepositoryName: awssdk.String(name),
			PolicyText:     awssdk.String(policyJSON),
		})
		return translate(err, "repository")
	})
}

func repositoryToPortable(r *ecrtypes.Repository) *types.ContainerRepository {
	if r == nil {
		return nil
	}
	repo := &types.ContainerRepository{
		Name: awssdk.ToString(r.RepositoryName),
		URI:  awssdk.ToString(r.RepositoryUri),
	}
	if r.ImageScanningConfiguration != nil {
		repo.ScanOnPush = r.ImageScanningConfiguration.ScanOnPush
	}
	if r.CreatedAt != nil {
		repo.Created = *r.CreatedAt
	}
	return repo
}

// containerRepoClient is the data-plane image inspector.
type containerRepoClient struct {
	client *ecr.Client
	retry  retry.Policy
}

func newContainerRepoClient(cfg awssdk.Config, deps provider.Deps) *containerRepoClient {
	client := ecr.NewFromConfig(cfg, func(o *ecr.Options) {
		o.BaseEndpoint = endpoint(deps.Config)
	})
	return &containerRepoClient{client: client, retry: deps.Retry}
}

func (c *containerRepoClient) ListImages(ctx context.Context, repository string) ([]types.ContainerImage, error) {
	var images []types.ContainerImage
	p := ecr.NewDescribeImagesPaginator(c.client, &ecr.DescribeImagesInput{
		RepositoryName: awssdk.String(repository),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, translate(err, "image")
		}
		for _, detail := range page.ImageDetails {
			images = append(images, imageToPortable(repository, detail))
		}
	}
	return images, nil
}

func (c *containerRepoClient) GetImageByTag(ctx context.Context, repository, tag string) (*types.ContainerImage, error) {
	var out *ecr.DescribeImagesOutput
	err := retry.Do(ctx, c.retry, func() error {
		var opErr error
		out, opErr = c.client.DescribeImages(ctx, &ecr.DescribeImagesInput{
			RepositoryName: awssdk.String(repository),
			ImageIds:       []ecrtypes.ImageIdentifier{{ImageTag: awssdk.String(tag)}},
		})
		return translate(opErr, "image")
	})
	if err != nil {
		return nil, err
	}
	if len(out.ImageDetails) == 0 {
		return nil, errdefs.NewNotFound("image", repository+":"+tag)
	}
	img := imageToPortable(repository, out.ImageDetails[0])
	return &img, nil
}

func (c *containerRepoClient) DeleteImages(ctx context.Context, repository string, digests []string) error {
	if len(digests) == 0 {
		return nil
	}
	ids := make([]ecrtypes.ImageIdentifier, 0, len(digests))
	for _, d := range digests {
		ids = append(ids, ecrtypes.ImageIdentifier{ImageDigest: awssdk.String(d)})
	}
	out, err := c.client.BatchDeleteImage(ctx, &ecr.BatchDeleteImageInput{
		RepositoryName: awssdk.String(repository),
		ImageIds:       ids,
	})
	if err != nil {
		return translate(err, "image")
	}
	if len(out.Failures) > 0 {
		f := out.Failures[0]
		return fromCode(string(f.FailureCode), awssdk.ToString(f.FailureReason), "image")
	}
	return nil
}

func (c *containerRepoClient) ImageExists(ctx context.Context, repository, tag string) (bool, error) {
	_, err := c.GetImageByTag(ctx, repository, tag)
	if errdefs.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func imageToPortable(repository string, d ecrtypes.ImageDetail) types.ContainerImage {
	img := types.ContainerImage{
		Repository: repository,
		Digest:     awssdk.ToString(d.ImageDigest),
		Tags:       d.ImageTags,
	}
	if d.ImageSizeInBytes != nil {
		img.SizeBytes = *d.ImageSizeInBytes
	}
	if d.ImagePushedAt != nil {
		img.PushedAt = *d.ImagePushedAt
	}
	return img
}
