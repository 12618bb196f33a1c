package aws

import (
	"context"
	"strconv"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apprunner"
	artypes "github.com/aws/aws-sdk-go-v2/service/apprunner/types"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/provider"
	"github.com/lcplatform/platform/pkg/retry"
	"github.com/lcplatform/platform/pkg/types"
)

type webHostingService struct {
	client *apprunner.Client
	retry  retry.Policy
}

func newWebHostingService(cfg awssdk.Config, deps provider.Deps) *webHostingService {
	client := apprunner.NewFromConfig(cfg, func(o *apprunner.Options) {
		o.BaseEndpoint = endpoint(deps.Config)
	})
	return &webHostingService{client: client, retry: deps.Retry}
}

func (s *webHostingService) DeployApplication(ctx context.Context, params types.DeployApplicationParams) (*types.Deployment, error) {
	if params.Name == "" {
		return nil, errdefs.NewValidationPath("name", "application name is required")
	}
	if params.Image == "" {
		return nil, errdefs.NewValidationPath("image", "container image is required")
	}
	if params.MinInstances > 0 && params.MaxInstances > 0 && params.MinInstances > params.MaxInstances {
		return nil, errdefs.NewValidationPath("minInstances", "minimum instances exceed the maximum")
	}
	in := &apprunner.CreateServiceInput{
		ServiceName: awssdk.String(params.Name),
		SourceConfiguration: &artypes.SourceConfiguration{
			AutoDeploymentsEnabled: awssdk.Bool(false),
			ImageRepository:        imageRepository(params.Image, params.Port, params.Environment),
		},
		InstanceConfiguration: instanceConfiguration(params.CPU, params.MemoryMB),
	}
	for k, v := range params.Tags {
		in.Tags = append(in.Tags, artypes.Tag{Key: awssdk.String(k), Value: awssdk.String(v)})
	}
	if params.MinInstances > 0 || params.MaxInstances > 0 {
		arn, err := s.autoScalingConfig(ctx, params.Name, params.MinInstances, params.MaxInstances)
		if err != nil {
			return nil, err
		}
		in.AutoScalingConfigurationArn = awssdk.String(arn)
	}
	var out *apprunner.CreateServiceOutput
	err := retry.Do(ctx, s.retry, func() error {
		var opErr error
		out, opErr = s.client.CreateService(ctx, in)
		return translate(opErr, "application")
	})
	if err != nil {
		return nil, err
	}
	return serviceToDeployment(out.Service), nil
}

func (s *webHostingService) GetDeployment(ctx context.Context, id string) (*types.Deployment, error) {
	var out *apprunner.DescribeServiceOutput
	err := retry.Do(ctx, s.retry, func() error {
		var opErr error
		out, opErr = s.client.DescribeService(ctx, &apprunner.DescribeServiceInput{
			ServiceArn: awssdk.String(id),
		})
		return translate(opErr, "deployment")
	})
	if err != nil {
		return nil, err
	}
	return serviceToDeployment(out.Service), nil
}

func (s *webHostingService) UpdateApplication(ctx context.Context, id string, params types.UpdateApplicationParams) (*types.Deployment, error) {
	current, err := s.GetDeployment(ctx, id)
	if err != nil {
		return nil, err
	}
	image := params.Image
	if image == "" {
		image = current.Image
	}
	env := params.Environment
	if env == nil {
		env = current.Environment
	}
	cpu := params.CPU
	if cpu == 0 {
		cpu = current.CPU
	}
	memory := params.MemoryMB
	if memory == 0 {
		memory = current.MemoryMB
	}
	in := &apprunner.UpdateServiceInput{
		ServiceArn: awssdk.String(id),
		SourceConfiguration: &artypes.SourceConfiguration{
			AutoDeploymentsEnabled: awssdk.Bool(false),
			ImageRepository:        imageRepository(image, 0, env),
		},
		InstanceConfiguration: instanceConfiguration(cpu, memory),
	}
	var out *apprunner.UpdateServiceOutput
	err = retry.Do(ctx, s.retry, func() error {
		var opErr error
		out, opErr = s.client.UpdateService(ctx, in)
		return translate(opErr, "application")
	})
	if err != nil {
		return nil, err
	}
	return serviceToDeployment(out.Service), nil
}

func (s *webHostingService) DeleteApplication(ctx context.Context, id string) error {
	return retry.Do(ctx, s.retry, func() error {
		_, err := s.client.DeleteService(ctx, &apprunner.DeleteServiceInput{
			ServiceArn: awssdk.String(id),
		})
		return translate(err, "application")
	})
}

func (s *webHostingService) GetApplicationURL(ctx context.Context, id string) (string, error) {
	d, err := s.GetDeployment(ctx, id)
	if err != nil {
		return "", err
	}
	if d.URL == "" {
		return "", errdefs.NewNotFound("application url", id)
	}
	return d.URL, nil
}

func (s *webHostingService) ScaleApplication(ctx context.Context, id string, scale types.ScaleParams) (*types.Deployment, error) {
	if scale.MinInstances > scale.MaxInstances {
		return nil, errdefs.NewValidationPath("minInstances", "minimum instances exceed the maximum")
	}
	current, err := s.GetDeployment(ctx, id)
	if err != nil {
		return nil, err
	}
	arn, err := s.autoScalingConfig(ctx, current.Name, scale.MinInstances, scale.MaxInstances)
	if err != nil {
		return nil, err
	}
	var out *apprunner.UpdateServiceOutput
	err = retry.Do(ctx, s.retry, func() error {
		var opErr error
		out, opErr = s.client.UpdateService(ctx, &apprunner.UpdateServiceInput{
			ServiceArn:                  awssdk.String(id),
			AutoScalingConfigurationArn: awssdk.String(arn),
		})
		return translate(opErr, "application")
	})
	if err != nil {
		return nil, err
	}
	d := serviceToDeployment(out.Service)
	d.MinInstances = scale.MinInstances
	d.MaxInstances = scale.MaxInstances
	return d, nil
}

// autoScalingConfig publishes a new revision of the application's
// scaling configuration and returns its ARN.
func (s *webHostingService) autoScalingConfig(ctx context.Context, name string, min, max int) (string, error) {
	in := &apprunner.CreateAutoScalingConfigurationInput{
		AutoScalingConfigurationName: awssdk.String(name + "-scaling"),
	}
	if min > 0 {
		in.MinSize = awssdk.Int32(int32(min))
	}
	if max > 0 {
		in.MaxSize = awssdk.Int32(int32(max))
	}
	out, err := s.client.CreateAutoScalingConfiguration(ctx, in)
	if err != nil {
		return "", translate(err, "scaling configuration")
	}
	return awssdk.ToString(out.AutoScalingConfiguration.AutoScalingConfigurationArn), nil
}

func imageRepository(image string, port int, env map[string]string) *artypes.ImageRepository {
	repo := &artypes.ImageRepository{
		ImageIdentifier:     awssdk.String(image),
		ImageRepositoryType: artypes.ImageRepositoryTypeEcr,
	}
	if strings.HasPrefix(image, "public.ecr.aws/") || !strings.Contains(image, ".dkr.ecr.") {
		repo.ImageRepositoryType = artypes.ImageRepositoryTypeEcrPublic
	}
	cfg := &artypes.ImageConfiguration{}
	if port > 0 {
		cfg.Port = awssdk.String(strconv.Itoa(port))
	}
	if len(env) > 0 {
		cfg.RuntimeEnvironmentVariables = env
	}
	repo.ImageConfiguration = cfg
	return repo
}

func instanceConfiguration(cpu, memoryMB int) *artypes.InstanceConfiguration {
	cfg := &artypes.InstanceConfiguration{}
	if cpu > 0 {
		cfg.Cpu = awssdk.String(strconv.Itoa(cpu * 1024))
	}
	if memoryMB > 0 {
		cfg.Memory = awssdk.String(strconv.Itoa(memoryMB))
	}
	return cfg
}

func serviceToDeployment(svc *artypes.Service) *types.Deployment {
	if svc == nil {
		return nil
	}
	d := &types.Deployment{
		ID:     awssdk.ToString(svc.ServiceArn),
		Name:   awssdk.ToString(svc.ServiceName),
		Status: deploymentStatus(svc.Status),
	}
	if svc.ServiceUrl != nil {
		d.URL = "https://" + *svc.ServiceUrl
	}
	if svc.CreatedAt != nil {
		d.Created = *svc.CreatedAt
	}
	if svc.UpdatedAt != nil {
		d.LastUpdated = *svc.UpdatedAt
	}
	if src := svc.SourceConfiguration; src != nil && src.ImageRepository != nil {
		d.Image = awssdk.ToString(src.ImageRepository.ImageIdentifier)
		if cfg := src.ImageRepository.ImageConfiguration; cfg != nil {
			d.Environment = cfg.RuntimeEnvironmentVariables
		}
	}
	if inst := svc.InstanceConfiguration; inst != nil {
		if n, err := strconv.Atoi(awssdk.ToString(inst.Cpu)); err == nil {
			d.CPU = n / 1024
		}
		if n, err := strconv.Atoi(awssdk.ToString(inst.Memory)); err == nil {
			d.MemoryMB = n
		}
	}
	return d
}

func deploymentStatus(status artypes.ServiceStatus) types.DeploymentStatus {
	switch status {
	case artypes.ServiceStatusRunning:
		return types.DeploymentRunning
	case artypes.ServiceStatusOperationInProgress:
		return types.DeploymentUpdating
	case artypes.ServiceStatusCreateFailed:
		return types.DeploymentFailed
	case artypes.ServiceStatusPaused, artypes.ServiceStatusDeleted:
		return types.DeploymentStopped
	default:
		return types.DeploymentCreating
	}
}
