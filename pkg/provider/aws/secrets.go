package aws

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/provider"
	"github.com/lcplatform/platform/pkg/retry"
	"github.com/lcplatform/platform/pkg/types"
)

const secretRecoveryDays = 30

type secretsService struct {
	client *secretsmanager.Client
	retry  retry.Policy
}

func newSecretsService(cfg awssdk.Config, deps provider.Deps) *secretsService {
	client := secretsmanager.NewFromConfig(cfg, func(o *secretsmanager.Options) {
		o.BaseEndpoint = endpoint(deps.Config)
	})
	return &secretsService{client: client, retry: deps.Retry}
}

func (s *secretsService) CreateSecret(ctx context.Context, params types.CreateSecretParams) (*types.SecretMetadata, error) {
	if params.Name == "" {
		return nil, errdefs.NewValidationPath("name", "secret name is required")
	}
	if params.Value == "" {
		return nil, errdefs.NewValidationPath("value", "secret value is required")
	}
	in := &secretsmanager.CreateSecretInput{
		Name:         awssdk.String(params.Name),
		SecretString: awssdk.String(params.Value),
	}
	if params.Description != "" {
		in.Description = awssdk.String(params.Description)
	}
	for k, v := range params.Tags {
		in.Tags = append(in.Tags, smtypes.Tag{Key: awssdk.String(k), Value: awssdk.String(v)})
	}
	err := retry.Do(ctx, s.retry, func() error {
		_, err := s.client.CreateSecret(ctx, in)
		return translate(err, "secret")
	})
	if err != nil {
		return nil, err
	}
	return s.metadata(ctx, params.Name)
}

func (s *secretsService) GetSecretValue(ctx context.Context, name string) (*types.SecretValue, error) {
	var out *secretsmanager.GetSecretValueOutput
	err := retry.Do(ctx, s.retry, func() error {
		var opErr error
		out, opErr = s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
			SecretId: awssdk.String(name),
		})
		return translate(opErr, "secret")
	})
	if err != nil {
		return nil, err
	}
	return &types.SecretValue{
		Name:    name,
		Value:   awssdk.ToString(out.SecretString),
		Version: awssdk.ToString(out.VersionId),
	}, nil
}

func (s *secretsService) UpdateSecret(ctx context.Context, name, value string) (*types.SecretMetadata, error) {
	if value == "" {
		return nil, errdefs.NewValidationPath("value", "secret value is required")
	}
	err := retry.Do(ctx, s.retry, func() error {
		_, err := s.client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
			SecretId:     awssdk.String(name),
			SecretString: awssdk.String(value),
		})
		return translate(err, "secret")
	})
	if err != nil {
		return nil, err
	}
	return s.metadata(ctx, name)
}

func (s *secretsService) DeleteSecret(ctx context.Context, name string, force bool) error {
	in := &secretsmanager.DeleteSecretInput{SecretId: awssdk.String(name)}
	if force {
		in.ForceDeleteWithoutRecovery = awssdk.Bool(true)
	} else {
		in.RecoveryWindowInDays = awssdk.Int64(secretRecoveryDays)
	}
	return retry.Do(ctx, s.retry, func() error {
		_, err := s.client.DeleteSecret(ctx, in)
		return translate(err, "secret")
	})
}

func (s *secretsService) ListSecrets(ctx context.Context) ([]types.SecretMetadata, error) {
	var metas []types.SecretMetadata
	p := secretsmanager.NewListSecretsPaginator(s.client, &secretsmanager.ListSecretsInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, translate(err, "secret")
		}
		for _, entry := range page.SecretList {
			meta := types.SecretMetadata{Name: awssdk.ToString(entry.Name)}
			if entry.RotationEnabled != nil {
				meta.RotationEnabled = *entry.RotationEnabled
			}
			if entry.RotationRules != nil && entry.RotationRules.AutomaticallyAfterDays != nil {
				meta.RotationDays = int(*entry.RotationRules.AutomaticallyAfterDays)
			}
			if entry.LastRotatedDate != nil {
				meta.LastRotated = *entry.LastRotatedDate
			}
			if entry.DeletedDate != nil {
				meta.DeletionDate = *entry.DeletedDate
			}
			if entry.CreatedDate != nil {
				meta.Created = *entry.CreatedDate
			}
			if entry.LastChangedDate != nil {
				meta.LastModified = *entry.LastChangedDate
			}
			meta.Tags = tagsToMap(entry.Tags)
			metas = append(metas, meta)
		}
	}
	return metas, nil
}

func (s *secretsService) RotateSecret(ctx context.Context, name string, cfg types.RotationConfig) (*types.SecretMetadata, error) {
	if cfg.Enabled && cfg.Days <= 0 {
		return nil, errdefs.NewValidationPath("days", "rotation interval must be positive")
	}
	var err error
	if cfg.Enabled {
		err = retry.Do(ctx, s.retry, func() error {
			_, opErr := s.client.RotateSecret(ctx, &secretsmanager.RotateSecretInput{
				SecretId: awssdk.String(name),
				RotationRules: &smtypes.RotationRulesType{
					AutomaticallyAfterDays: awssdk.Int64(int64(cfg.Days)),
				},
			})
			return translate(opErr, "secret")
		})
	} else {
		err = retry.Do(ctx, s.retry, func() error {
			_, opErr := s.client.CancelRotateSecret(ctx, &secretsmanager.CancelRotateSecretInput{
				SecretId: awssdk.String(name),
			})
			return translate(opErr, "secret")
		})
	}
	if err != nil {
		return nil, err
	}
	return s.metadata(ctx, name)
}

func (s *secretsService) TagSecret(ctx context.Context, name string, tags map[string]string) error {
	if len(tags) == 0 {
		return nil
	}
	in := &secretsmanager.TagResourceInput{SecretId: awssdk.String(name)}
	for k, v := range tags {
		in.Tags = append(in.Tags, smtypes.Tag{Key: awssdk.String(k), Value: awssdk.String(v)})
	}
	return retry.Do(ctx, s.retry, func() error {
		_, err := s.client.TagResource(ctx, in)
		return translate(err, "secret")
	})
}

func (s *secretsService) metadata(ctx context.Context, name string) (*types.SecretMetadata, error) {
	out, err := s.client.DescribeSecret(ctx, &secretsmanager.DescribeSecretInput{
		SecretId: awssdk.String(name),
	})
	if err != nil {
		return nil, translate(err, "secret")
	}
	meta := &types.SecretMetadata{
		Name: awssdk.ToString(out.Name),
		Tags: tagsToMap(out.Tags),
	}
	meta.RotationEnabled = out.RotationEnabled != nil && *out.RotationEnabled
	if out.RotationRules != nil && out.RotationRules.AutomaticallyAfterDays != nil {
		meta.RotationDays = int(*out.RotationRules.AutomaticallyAfterDays)
	}
	if out.LastRotatedDate != nil {
		meta.LastRotated = *out.LastRotatedDate
	}
	if out.DeletedDate != nil {
		meta.DeletionDate = *out.DeletedDate
	}
	if out.CreatedDate != nil {
		meta.Created = *out.CreatedDate
	}
	if out.LastChangedDate != nil {
		meta.LastModified = *out.LastChangedDate
	}
	// AWSCURRENT identifies the active version.
	for version, stages := range out.VersionIdsToStages {
		for _, stage := range stages {
			if stage == "AWSCURRENT" {
				meta.Version = version
			}
		}
	}
	return meta, nil
}

func tagsToMap(tags []smtypes.Tag) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	m := make(map[string]string, len(tags))
	for _, t := range tags {
		m[awssdk.ToString(t.Key)] = awssdk.ToString(t.Value)
	}
	return m
}
