package aws

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/provider"
	"github.com/lcplatform/platform/pkg/retry"
	"github.com/lcplatform/platform/pkg/types"
)

type functionHostingService struct {
	client *lambda.Client
	retry  retry.Policy
	role   string
}

// extraFunctionRole names the execution role attached to created
// functions.
const extraFunctionRole = "lambda.executionRoleArn"

func newFunctionHostingService(cfg awssdk.Config, deps provider.Deps) *functionHostingService {
	client := lambda.NewFromConfig(cfg, func(o *lambda.Options) {
		o.BaseEndpoint = endpoint(deps.Config)
	})
	return &functionHostingService{
		client: client,
		retry:  deps.Retry,
		role:   deps.Config.Options.Extra[extraFunctionRole],
	}
}

func (s *functionHostingService) CreateFunction(ctx context.Context, params types.CreateFunctionParams) (*types.ServerlessFunction, error) {
	if params.Name == "" {
		return nil, errdefs.NewValidationPath("name", "function name is required")
	}
	if params.Runtime == "" {
		return nil, errdefs.NewValidationPath("runtime", "runtime is required")
	}
	if len(params.Code) == 0 {
		return nil, errdefs.NewValidationPath("code", "code package is required")
	}
	if s.role == "" {
		return nil, errdefs.NewValidation("execution role is not configured: set options.extra[%q]", extraFunctionRole)
	}
	in := &lambda.CreateFunctionInput{
		FunctionName: awssdk.String(params.Name),
		Runtime:      lambdatypes.Runtime(params.Runtime),
		Handler:      awssdk.String(params.Handler),
		Role:         awssdk.String(s.role),
		Code:         &lambdatypes.FunctionCode{ZipFile: params.Code},
		Tags:         params.Tags,
	}
	if params.MemorySize > 0 {
		in.MemorySize = awssdk.Int32(int32(params.MemorySize))
	}
	if params.Timeout > 0 {
		in.Timeout = awssdk.Int32(int32(params.Timeout))
	}
	if len(params.Environment) > 0 {
		in.Environment = &lambdatypes.Environment{Variables: params.Environment}
	}
	var out *lambda.CreateFunctionOutput
	err := retry.Do(ctx, s.retry, func() error {
		var opErr error
		out, opErr = s.client.CreateFunction(ctx, in)
		return translate(opErr, "function")
	})
	if err != nil {
		return nil, err
	}
	return configToFunction(out.FunctionName, out.FunctionArn, out.Runtime, out.Handler,
		out.State, out.MemorySize, out.Timeout, out.Environment, out.CodeSize, out.Version, out.LastModified), nil
}

func (s *functionHostingService) GetFunction(ctx context.Context, name string) (*types.ServerlessFunction, error) {
	var out *lambda.GetFunctionOutput
	err := retry.Do(ctx, s.retry, func() error {
		var opErr error
		out, opErr = s.client.GetFunction(ctx, &lambda.GetFunctionInput{
			FunctionName: awssdk.String(name),
		})
		return translate(opErr, "function")
	})
	if err != nil {
		return nil, err
	}
	c := out.Configuration
	fn := configToFunction(c.FunctionName, c.FunctionArn, c.Runtime, c.Handler,
		c.State, c.MemorySize, c.Timeout, c.Environment, c.CodeSize, c.Version, c.LastModified)
	fn.Tags = out.Tags
	return fn, nil
}

func (s *functionHostingService) UpdateFunction(ctx context.Context, name string, params types.UpdateFunctionParams) (*types.ServerlessFunction, error) {
	if len(params.Code) > 0 {
		err := retry.Do(ctx, s.retry, func() error {
			_, err := s.client.UpdateFunctionCode(ctx, &lambda.UpdateFunctionCodeInput{
				FunctionName: awssdk.String(name),
				ZipFile:      params.Code,
			})
			return translate(err, "function")
		})
		if err != nil {
			return nil, err
		}
	}
	if params.MemorySize > 0 || params.Timeout > 0 || params.Environment != nil {
		in := &lambda.UpdateFunctionConfigurationInput{FunctionName: awssdk.String(name)}
		if params.MemorySize > 0 {
			in.MemorySize = awssdk.Int32(int32(params.MemorySize))
		}
		if params.Timeout > 0 {
			in.Timeout = awssdk.Int32(int32(params.Timeout))
		}
		if params.Environment != nil {
			in.Environment = &lambdatypes.Environment{Variables: params.Environment}
		}
		err := retry.Do(ctx, s.retry, func() error {
			_, err := s.client.UpdateFunctionConfiguration(ctx, in)
			return translate(err, "function")
		})
		if err != nil {
			return nil, err
		}
	}
	return s.GetFunction(ctx, name)
}

func (s *functionHostingService) DeleteFunction(ctx context.Context, name string) error {
	return retry.Do(ctx, s.retry, func() error {
		_, err := s.client.DeleteFunction(ctx, &lambda.DeleteFunctionInput{
			FunctionName: awssdk.String(name),
		})
		return translate(err, "function")
	})
}

func (s *functionHostingService) ListFunctions(ctx context.Context) ([]types.ServerlessFunction, error) {
	var fns []types.ServerlessFunction
	p := lambda.NewListFunctionsPaginator(s.client, &lambda.ListFunctionsInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, translate(err, "function")
		}
		for _, c := range page.Functions {
			fn := configToFunction(c.FunctionName, c.FunctionArn, c.Runtime, c.Handler,
				c.State, c.MemorySize, c.Timeout, c.Environment, c.CodeSize, c.Version, c.LastModified)
			fns = append(fns, *fn)
		}
	}
	return fns, nil
}

func (s *functionHostingService) InvokeFunction(ctx context.Context, name string, params types.InvokeParams) (*types.InvokeResult, error) {
	in := &lambda.InvokeInput{
		FunctionName: awssdk.String(name),
		Payload:      params.Payload,
	}
	switch params.Type {
	case types.InvokeAsync:
		in.InvocationType = lambdatypes.InvocationTypeEvent
	case types.InvokeDryRun:
		in.InvocationType = lambdatypes.InvocationTypeDryRun
	default:
		in.InvocationType = lambdatypes.InvocationTypeRequestResponse
		in.LogType = lambdatypes.LogTypeTail
	}
	out, err := s.client.Invoke(ctx, in)
	if err != nil {
		return nil, translate(err, "function")
	}
	result := &types.InvokeResult{
		StatusCode:      int(out.StatusCode),
		Payload:         out.Payload,
		ExecutedVersion: awssdk.ToString(out.ExecutedVersion),
		FunctionError:   awssdk.ToString(out.FunctionError),
	}
	if out.LogResult != nil {
		if decoded, decErr := base64.StdEncoding.DecodeString(*out.LogResult); decErr == nil {
			result.LogResult = string(decoded)
		}
	}
	return result, nil
}

func (s *functionHostingService) CreateEventSourceMapping(ctx context.Context, mapping types.EventSourceMapping) (*types.EventSourceMapping, error) {
	if mapping.FunctionName == "" {
		return nil, errdefs.NewValidationPath("functionName", "function name is required")
	}
	if mapping.SourceARN == "" {
		return nil, errdefs.NewValidationPath("sourceArn", "event source is required")
	}
	in := &lambda.CreateEventSourceMappingInput{
		FunctionName:   awssdk.String(mapping.FunctionName),
		EventSourceArn: awssdk.String(mapping.SourceARN),
		Enabled:        awssdk.Bool(mapping.Enabled),
	}
	if mapping.BatchSize > 0 {
		in.BatchSize = awssdk.Int32(int32(mapping.BatchSize))
	}
	var out *lambda.CreateEventSourceMappingOutput
	err := retry.Do(ctx, s.retry, func() error {
		var opErr error
		out, opErr = s.client.CreateEventSourceMapping(ctx, in)
		return translate(opErr, "event source mapping")
	})
	if err != nil {
		return nil, err
	}
	created := mapping
	created.ID = awssdk.ToString(out.UUID)
	created.Created = time.Now().UTC()
	return &created, nil
}

func (s *functionHostingService) GetEventSourceMapping(ctx context.Context, id string) (*types.EventSourceMapping, error) {
	out, err := s.client.GetEventSourceMapping(ctx, &lambda.GetEventSourceMappingInput{
		UUID: awssdk.String(id),
	})
	if err != nil {
		return nil, translate(err, "event source mapping")
	}
	mapping := &types.EventSourceMapping{
		ID:        awssdk.ToString(out.UUID),
		SourceARN: awssdk.ToString(out.EventSourceArn),
		Enabled:   awssdk.ToString(out.State) == "Enabled",
	}
	if out.FunctionArn != nil {
		mapping.FunctionName = functionNameFromARN(*out.FunctionArn)
	}
	if out.BatchSize != nil {
		mapping.BatchSize = int(*out.BatchSize)
	}
	return mapping, nil
}

func (s *functionHostingService) SetEventSourceMappingEnabled(ctx context.Context, id string, enabled bool) error {
	return retry.Do(ctx, s.retry, func() error {
		_, err := s.client.UpdateEventSourceMapping(ctx, &lambda.UpdateEventSourceMappingInput{
			UUID:    awssdk.String(id),
			Enabled: awssdk.Bool(enabled),
		})
		return translate(err, "event source mapping")
	})
}

func (s *functionHostingService) DeleteEventSourceMapping(ctx context.Context, id string) error {
	return retry.Do(ctx, s.retry, func() error {
		_, err := s.client.DeleteEventSourceMapping(ctx, &lambda.DeleteEventSourceMappingInput{
			UUID: awssdk.String(id),
		})
		return translate(err, "event source mapping")
	})
}

func (s *functionHostingService) CreateFunctionURL(ctx context.Context, functionName string, authType types.FunctionURLAuthType) (*types.FunctionURL, error) {
	if authType == "" {
		authType = types.FunctionURLAuthIAM
	}
	var out *lambda.CreateFunctionUrlConfigOutput
	err := retry.Do(ctx, s.retry, func() error {
		var opErr error
		out, opErr = s.client.CreateFunctionUrlConfig(ctx, &lambda.CreateFunctionUrlConfigInput{
			FunctionName: awssdk.String(functionName),
			AuthType:     lambdatypes.FunctionUrlAuthType(authType),
		})
		return translate(opErr, "function url")
	})
	if err != nil {
		return nil, err
	}
	return &types.FunctionURL{
		FunctionName: functionName,
		URL:          awssdk.ToString(out.FunctionUrl),
		AuthType:     types.FunctionURLAuthType(out.AuthType),
		Created:      time.Now().UTC(),
	}, nil
}

func (s *functionHostingService) GetFunctionURL(ctx context.Context, functionName string) (*types.FunctionURL, error) {
	out, err := s.client.GetFunctionUrlConfig(ctx, &lambda.GetFunctionUrlConfigInput{
		FunctionName: awssdk.String(functionName),
	})
	if err != nil {
		return nil, translate(err, "function url")
	}
	result := &types.FunctionURL{
		FunctionName: functionName,
		URL:          awssdk.ToString(out.FunctionUrl),
		AuthType:     types.FunctionURLAuthType(out.AuthType),
	}
	if out.CreationTime != nil {
		if t, parseErr := time.Parse(time.RFC3339Nano, *out.CreationTime); parseErr == nil {
			result.Created = t
		}
	}
	return result, nil
}

func (s *functionHostingService) DeleteFunctionURL(ctx context.Context, functionName string) error {
	return retry.Do(ctx, s.retry, func() error {
		_, err := s.client.DeleteFunctionUrlConfig(ctx, &lambda.DeleteFunctionUrlConfigInput{
			FunctionName: awssdk.String(functionName),
		})
		return translate(err, "function url")
	})
}

func configToFunction(name, arn *string, runtime lambdatypes.Runtime, handler *string,
	state lambdatypes.State, memory, timeout *int32, env *lambdatypes.EnvironmentResponse,
	codeSize int64, version, lastModified *string) *types.ServerlessFunction {

	fn := &types.ServerlessFunction{
		Name:     awssdk.ToString(name),
		ARN:      awssdk.ToString(arn),
		Runtime:  string(runtime),
		Handler:  awssdk.ToString(handler),
		Status:   functionStatus(state),
		CodeSize: codeSize,
		Version:  awssdk.ToString(version),
	}
	if memory != nil {
		fn.MemorySize = int(*memory)
	}
	if timeout != nil {
		fn.Timeout = int(*timeout)
	}
	if env != nil {
		fn.Environment = env.Variables
	}
	if lastModified != nil {
		// Lambda reports ISO 8601 with a numeric zone offset.
		if t, err := time.Parse("2006-01-02T15:04:05.999-0700", *lastModified); err == nil {
			fn.LastModified = t
		}
	}
	return fn
}

func functionStatus(state lambdatypes.State) types.FunctionStatus {
	switch state {
	case lambdatypes.StatePending:
		return types.FunctionCreating
	case lambdatypes.StateActive:
		return types.FunctionActive
	case lambdatypes.StateInactive:
		return types.FunctionInactive
	case lambdatypes.StateFailed:
		return types.FunctionFailed
	default:
		return types.FunctionCreating
	}
}

func functionNameFromARN(arn string) string {
	// arn:aws:lambda:region:account:function:name
	const marker = ":function:"
	if i := strings.LastIndex(arn, marker); i >= 0 {
		return arn[i+len(marker):]
	}
	return arn
}
