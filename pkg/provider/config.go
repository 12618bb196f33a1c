package provider

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/types"
)

// Environment fallbacks. Precedence: explicit config > environment >
// defaults.
const (
	EnvProvider  = "LC_PLATFORM_PROVIDER"
	EnvRegion    = "LC_PLATFORM_REGION"
	EnvAWSRegion = "AWS_REGION"
	EnvAccountID = "AWS_ACCOUNT_ID"
	EnvDBHost    = "DB_HOST"
	EnvDBPort    = "DB_PORT"
	EnvDBName    = "DB_NAME"
	EnvDBUser    = "DB_USER"
	EnvDBPass    = "DB_PASSWORD"
)

const defaultPoolSize = 100

// ResolveConfig applies environment fallbacks and defaults, then
// validates the result. The input is copied; the caller's value is
// never mutated.
func ResolveConfig(cfg types.ProviderConfig) (*types.ProviderConfig, error) {
	out := cfg

	if out.Provider == "" {
		out.Provider = types.Provider(os.Getenv(EnvProvider))
	}
	switch out.Provider {
	case types.ProviderAWS, types.ProviderMock, types.ProviderAzure, types.ProviderGCP:
	case "":
		return nil, errdefs.NewValidationPath("/provider", "provider is required")
	default:
		return nil, errdefs.NewValidationPath("/provider", "unknown provider %q, must be one of: aws, mock, azure, gcp", out.Provider)
	}

	if out.Region == "" {
		out.Region = os.Getenv(EnvRegion)
	}
	if out.Region == "" {
		out.Region = os.Getenv(EnvAWSRegion)
	}
	if out.Options.AccountID == "" {
		out.Options.AccountID = os.Getenv(EnvAccountID)
	}

	ds := &out.Options.DataStore
	if ds.Host == "" {
		ds.Host = os.Getenv(EnvDBHost)
	}
	if ds.Port == 0 {
		if p, err := strconv.Atoi(os.Getenv(EnvDBPort)); err == nil {
			ds.Port = p
		}
	}
	if ds.Name == "" {
		ds.Name = os.Getenv(EnvDBName)
	}
	if ds.User == "" {
		ds.User = os.Getenv(EnvDBUser)
	}
	if ds.Password == "" {
		ds.Password = os.Getenv(EnvDBPass)
	}
	if ds.MaxConns <= 0 {
		ds.MaxConns = defaultPoolSize
	}

	if out.Credentials != nil {
		if out.Credentials.AccessKeyID == "" || out.Credentials.SecretAccessKey == "" {
			return nil, errdefs.NewValidationPath("/credentials", "static credentials require both accessKeyId and secretAccessKey")
		}
	}

	return &out, nil
}

// LoadConfigFile reads a ProviderConfig from a YAML file
func LoadConfigFile(path string) (types.ProviderConfig, error) {
	var cfg types.ProviderConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, errdefs.NewValidation("reading config file: %v", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, errdefs.NewValidation("parsing config file: %v", err)
	}
	return cfg, nil
}
