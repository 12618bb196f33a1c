package aws

import (
	"context"
	"encoding/json"
	"strconv"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/appconfig"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/provider"
	"github.com/lcplatform/platform/pkg/retry"
	"github.com/lcplatform/platform/pkg/types"
	"github.com/lcplatform/platform/pkg/validate"
)

const deploymentStrategyAllAtOnce = "AppConfig.AllAtOnce"

type configurationService struct {
	client *appconfig.Client
	retry  retry.Policy
}

func newConfigurationService(cfg awssdk.Config, deps provider.Deps) *configurationService {
	client := appconfig.NewFromConfig(cfg, func(o *appconfig.Options) {
		o.BaseEndpoint = endpoint(deps.Config)
	})
	return &configurationService{client: client, retry: deps.Retry}
}

func (s *configurationService) CreateProfile(ctx context.Context, application, name, description string) (*types.ConfigurationProfile, error) {
	if application == "" {
		return nil, errdefs.NewValidationPath("application", "application is required")
	}
	if name == "" {
		return nil, errdefs.NewValidationPath("name", "profile name is required")
	}
	appID, err := s.applicationID(ctx, application)
	if err != nil {
		return nil, err
	}
	in := &appconfig.CreateConfigurationProfileInput{
		ApplicationId: awssdk.String(appID),
		Name:          awssdk.String(name),
		LocationUri:   awssdk.String("hosted"),
	}
	if description != "" {
		in.Description = awssdk.String(description)
	}
	var out *appconfig.CreateConfigurationProfileOutput
	err = retry.Do(ctx, s.retry, func() error {
		var opErr error
		out, opErr = s.client.CreateConfigurationProfile(ctx, in)
		return translate(opErr, "configuration profile")
	})
	if err != nil {
		return nil, err
	}
	return &types.ConfigurationProfile{
		ID:          awssdk.ToString(out.Id),
		Application: application,
		Name:        awssdk.ToString(out.Name),
		Description: awssdk.ToString(out.Description),
	}, nil
}

func (s *configurationService) GetProfile(ctx context.Context, application, name string) (*types.ConfigurationProfile, error) {
	appID, err := s.applicationID(ctx, application)
	if err != nil {
		return nil, err
	}
	profileID, err := s.profileID(ctx, appID, name)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetConfigurationProfile(ctx, &appconfig.GetConfigurationProfileInput{
		ApplicationId:          awssdk.String(appID),
		ConfigurationProfileId: awssdk.String(profileID),
	})
	if err != nil {
		return nil, translate(err, "configuration profile")
	}
	return &types.ConfigurationProfile{
		ID:          awssdk.ToString(out.Id),
		Application: application,
		Name:        awssdk.ToString(out.Name),
		Description: awssdk.ToString(out.Description),
	}, nil
}

func (s *configurationService) DeleteProfile(ctx context.Context, application, name string) error {
	appID, err := s.applicationID(ctx, application)
	if err != nil {
		return err
	}
	profileID, err := s.profileID(ctx, appID, name)
	if err != nil {
		return err
	}
	return retry.Do(ctx, s.retry, func() error {
		_, err := s.client.DeleteConfigurationProfile(ctx, &appconfig.DeleteConfigurationProfileInput{
			ApplicationId:          awssdk.String(appID),
			ConfigurationProfileId: awssdk.String(profileID),
		})
		return translate(err, "configuration profile")
	})
}

func (s *configurationService) ListProfiles(ctx context.Context, application string) ([]types.ConfigurationProfile, error) {
	appID, err := s.applicationID(ctx, application)
	if err != nil {
		return nil, err
	}
	var profiles []types.ConfigurationProfile
	p := appconfig.NewListConfigurationProfilesPaginator(s.client, &appconfig.ListConfigurationProfilesInput{
		ApplicationId: awssdk.String(appID),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, translate(err, "configuration profile")
		}
		for _, item := range page.Items {
			profiles = append(profiles, types.ConfigurationProfile{
				ID:          awssdk.ToString(item.Id),
				Application: application,
				Name:        awssdk.ToString(item.Name),
			})
		}
	}
	return profiles, nil
}

func (s *configurationService) CreateVersion(ctx context.Context, application, profile string, data map[string]interface{}, description string) (*types.Configuration, error) {
	appID, err := s.applicationID(ctx, application)
	if err != nil {
		return nil, err
	}
	profileID, err := s.profileID(ctx, appID, profile)
	if err != nil {
		return nil, err
	}
	content, err := json.Marshal(data)
	if err != nil {
		return nil, errdefs.NewValidationPath("data", "configuration data is not serializable").WithCause(err)
	}
	in := &appconfig.CreateHostedConfigurationVersionInput{
		ApplicationId:          awssdk.String(appID),
		ConfigurationProfileId: awssdk.String(profileID),
		Content:                content,
		ContentType:            awssdk.String("application/json"),
	}
	if description != "" {
		in.Description = awssdk.String(description)
	}
	var out *appconfig.CreateHostedConfigurationVersionOutput
	err = retry.Do(ctx, s.retry, func() error {
		var opErr error
		out, opErr = s.client.CreateHostedConfigurationVersion(ctx, in)
		return translate(opErr, "configuration version")
	})
	if err != nil {
		return nil, err
	}
	return &types.Configuration{
		Application: application,
		Profile:     profile,
		Version:     int(out.VersionNumber),
		Data:        data,
		Description: description,
	}, nil
}

func (s *configurationService) GetConfiguration(ctx context.Context, application, environment, profile string) (*types.Configuration, error) {
	appID, err := s.applicationID(ctx, application)
	if err != nil {
		return nil, err
	}
	profileID, err := s.profileID(ctx, appID, profile)
	if err != nil {
		return nil, err
	}

	version, deployed, err := s.resolveVersion(ctx, appID, profileID, environment)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetHostedConfigurationVersion(ctx, &appconfig.GetHostedConfigurationVersionInput{
		ApplicationId:          awssdk.String(appID),
		ConfigurationProfileId: awssdk.String(profileID),
		VersionNumber:          awssdk.Int32(int32(version)),
	})
	if err != nil {
		return nil, translate(err, "configuration")
	}
	var data map[string]interface{}
	if err := json.Unmarshal(out.Content, &data); err != nil {
		return nil, errdefs.NewValidation("configuration content is not valid JSON").WithCause(err)
	}
	return &types.Configuration{
		Application: application,
		Environment: environment,
		Profile:     profile,
		Version:     version,
		Data:        data,
		Description: awssdk.ToString(out.Description),
		Deployed:    deployed,
	}, nil
}

func (s *configurationService) ValidateConfiguration(content map[string]interface{}, schemaJSON string) (validate.Result, error) {
	v, err := validate.NewCustom("configuration", schemaJSON)
	if err != nil {
		return validate.Result{}, err
	}
	return v.Validate(content), nil
}

func (s *configurationService) DeployConfiguration(ctx context.Context, params types.DeployConfigurationParams) (string, error) {
	if params.Environment == "" {
		return "", errdefs.NewValidationPath("environment", "environment is required")
	}
	if params.Version <= 0 {
		return "", errdefs.NewValidationPath("version", "version must be positive")
	}
	appID, err := s.applicationID(ctx, params.Application)
	if err != nil {
		return "", err
	}
	profileID, err := s.profileID(ctx, appID, params.Profile)
	if err != nil {
		return "", err
	}
	envID, err := s.environmentID(ctx, appID, params.Environment)
	if err != nil {
		return "", err
	}
	var out *appconfig.StartDeploymentOutput
	err = retry.Do(ctx, s.retry, func() error {
		var opErr error
		out, opErr = s.client.StartDeployment(ctx, &appconfig.StartDeploymentInput{
			ApplicationId:          awssdk.String(appID),
			EnvironmentId:          awssdk.String(envID),
			ConfigurationProfileId: awssdk.String(profileID),
			ConfigurationVersion:   awssdk.String(strconv.Itoa(params.Version)),
			DeploymentStrategyId:   awssdk.String(deploymentStrategyAllAtOnce),
		})
		return translate(opErr, "configuration deployment")
	})
	if err != nil {
		return "", err
	}
	return strconv.Itoa(int(out.DeploymentNumber)), nil
}

// resolveVersion picks the deployed version for the environment when
// one exists, otherwise the latest hosted version.
func (s *configurationService) resolveVersion(ctx context.Context, appID, profileID, environment string) (int, bool, error) {
	if environment != "" {
		envID, err := s.environmentID(ctx, appID, environment)
		if err != nil {
			return 0, false, err
		}
		deployments, err := s.client.ListDeployments(ctx, &appconfig.ListDeploymentsInput{
			ApplicationId: awssdk.String(appID),
			EnvironmentId: awssdk.String(envID),
		})
		if err != nil {
			return 0, false, translate(err, "configuration deployment")
		}
		best := 0
		for _, d := range deployments.Items {
			if awssdk.ToString(d.ConfigurationName) == "" && d.ConfigurationVersion == nil {
				continue
			}
			if v, err := strconv.Atoi(awssdk.ToString(d.ConfigurationVersion)); err == nil && int(d.DeploymentNumber) > best {
				best = v
			}
		}
		if best > 0 {
			return best, true, nil
		}
	}
	versions, err := s.client.ListHostedConfigurationVersions(ctx, &appconfig.ListHostedConfigurationVersionsInput{
		ApplicationId:          awssdk.String(appID),
		ConfigurationProfileId: awssdk.String(profileID),
	})
	if err != nil {
		return 0, false, translate(err, "configuration version")
	}
	latest := 0
	for _, v := range versions.Items {
		if int(v.VersionNumber) > latest {
			latest = int(v.VersionNumber)
		}
	}
	if latest == 0 {
		return 0, false, errdefs.NewNotFound("configuration version", profileID)
	}
	return latest, false, nil
}

func (s *configurationService) applicationID(ctx context.Context, name string) (string, error) {
	p := appconfig.NewListApplicationsPaginator(s.client, &appconfig.ListApplicationsInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return "", translate(err, "application")
		}
		for _, app := range page.Items {
			if awssdk.ToString(app.Name) == name || awssdk.ToString(app.Id) == name {
				return awssdk.ToString(app.Id), nil
			}
		}
	}
	return "", errdefs.NewNotFound("application", name)
}

func (s *configurationService) profileID(ctx context.Context, appID, name string) (string, error) {
	p := appconfig.NewListConfigurationProfilesPaginator(s.client, &appconfig.ListConfigurationProfilesInput{
		ApplicationId: awssdk.String(appID),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return "", translate(err, "configuration profile")
		}
		for _, profile := range page.Items {
			if awssdk.ToString(profile.Name) == name || awssdk.ToString(profile.Id) == name {
				return awssdk.ToString(profile.Id), nil
			}
		}
	}
	return "", errdefs.NewNotFound("configuration profile", name)
}

func (s *configurationService) environmentID(ctx context.Context, appID, name string) (string, error) {
	p := appconfig.NewListEnvironmentsPaginator(s.client, &appconfig.ListEnvironmentsInput{
		ApplicationId: awssdk.String(appID),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return "", translate(err, "environment")
		}
		for _, env := range page.Items {
			if awssdk.ToString(env.Name) == name || awssdk.ToString(env.Id) == name {
				return awssdk.ToString(env.Id), nil
			}
		}
	}
	return "", errdefs.NewNotFound("environment", name)
}
