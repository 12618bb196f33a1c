package aws

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/lcplatform/platform/pkg/types"
)

// loadConfig builds the shared SDK configuration. Static credentials
// and region come from the resolved provider configuration; anything
// unset falls back to the default chain (environment, shared config,
// workload identity).
func loadConfig(ctx context.Context, pc *types.ProviderConfig) (awssdk.Config, error) {
	opts := []func(*config.LoadOptions) error{}
	if pc.Region != "" {
		opts = append(opts, config.WithRegion(pc.Region))
	}
	if pc.Credentials != nil {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				pc.Credentials.AccessKeyID,
				pc.Credentials.SecretAccessKey,
				pc.Credentials.SessionToken,
			),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return awssdk.Config{}, translate(err, "aws configuration")
	}
	return cfg, nil
}

// endpoint returns the configured endpoint override, or nil to use
// the SDK default. Local stacks set options.endpoint.
func endpoint(pc *types.ProviderConfig) *string {
	if pc.Options.Endpoint == "" {
		return nil
	}
	return awssdk.String(pc.Options.Endpoint)
}
