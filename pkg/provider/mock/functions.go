package mock

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/types"
)

type functionState struct {
	fn      types.ServerlessFunction
	pending []types.FunctionStatus
}

func (s *functionState) step() {
	if len(s.pending) == 0 {
		return
	}
	s.fn.Status = s.pending[0]
	s.pending = s.pending[1:]
}

type eventSourceMappingState struct {
	mapping types.EventSourceMapping
}

type functionURLState struct {
	url types.FunctionURL
}

type functionHostingService struct {
	w *world
}

func (s *functionHostingService) CreateFunction(ctx context.Context, params types.CreateFunctionParams) (*types.ServerlessFunction, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	if params.Name == "" {
		return nil, errdefs.NewValidationPath("/name", "name is required")
	}
	if params.Runtime == "" {
		return nil, errdefs.NewValidationPath("/runtime", "runtime is required")
	}
	if params.Handler == "" {
		return nil, errdefs.NewValidationPath("/handler", "handler is required")
	}

	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if _, exists := s.w.functions[params.Name]; exists {
		return nil, errdefs.NewConflict("function %q already exists", params.Name)
	}

	now := time.Now()
	memory := params.MemorySize
	if memory == 0 {
		memory = 128
	}
	timeout := params.Timeout
	if timeout == 0 {
		timeout = 3
	}
	st := &functionState{
		fn: types.ServerlessFunction{
			Name:         params.Name,
			ARN:          fmt.Sprintf("arn:mock:function:%s", params.Name),
			Runtime:      params.Runtime,
			Handler:      params.Handler,
			Status:       types.FunctionCreating,
			MemorySize:   memory,
			Timeout:      timeout,
			Environment:  copyStrMap(params.Environment),
			Tags:         copyStrMap(params.Tags),
			CodeSize:     int64(len(params.Code)),
			Version:      "1",
			Created:      now,
			LastModified: now,
		},
		pending: []types.FunctionStatus{types.FunctionActive},
	}
	s.w.functions[params.Name] = st
	out := cloneFunction(st.fn)
	return &out, nil
}

func (s *functionHostingService) GetFunction(ctx context.Context, name string) (*types.ServerlessFunction, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.functions[name]
	if !ok {
		return nil, errdefs.NewNotFound("function", name)
	}
	st.step()
	out := cloneFunction(st.fn)
	return &out, nil
}

func (s *functionHostingService) UpdateFunction(ctx context.Context, name string, params types.UpdateFunctionParams) (*types.ServerlessFunction, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.functions[name]
	if !ok {
		return nil, errdefs.NewNotFound("function", name)
	}
	if params.Code != nil {
		st.fn.CodeSize = int64(len(params.Code))
		st.fn.Version = fmt.Sprintf("%d", parseVersion(st.fn.Version)+1)
	}
	if params.MemorySize > 0 {
		st.fn.MemorySize = params.MemorySize
	}
	if params.Timeout > 0 {
		st.fn.Timeout = params.Timeout
	}
	if params.Environment != nil {
		st.fn.Environment = copyStrMap(params.Environment)
	}
	st.fn.LastModified = time.Now()
	out := cloneFunction(st.fn)
	return &out, nil
}

func (s *functionHostingService) DeleteFunction(ctx context.Context, name string) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if _, ok := s.w.functions[name]; !ok {
		return errdefs.NewNotFound("function", name)
	}
	delete(s.w.functions, name)
	delete(s.w.funcURLs, name)
	return nil
}

func (s *functionHostingService) ListFunctions(ctx context.Context) ([]types.ServerlessFunction, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	out := make([]types.ServerlessFunction, 0, len(s.w.functions))
	for _, st := range s.w.functions {
		st.step()
		out = append(out, cloneFunction(st.fn))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// InvokeFunction simulates execution: sync invocations echo the
// payload, async returns 202 without payload, dry-run returns 204.
func (s *functionHostingService) InvokeFunction(ctx context.Context, name string, params types.InvokeParams) (*types.InvokeResult, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.RLock()
	st, ok := s.w.functions[name]
	s.w.mu.RUnlock()
	if !ok {
		return nil, errdefs.NewNotFound("function", name)
	}

	switch params.Type {
	case types.InvokeAsync:
		return &types.InvokeResult{StatusCode: 202, ExecutedVersion: st.fn.Version}, nil
	case types.InvokeDryRun:
		return &types.InvokeResult{StatusCode: 204, ExecutedVersion: st.fn.Version}, nil
	case types.InvokeSync, "":
		payload := params.Payload
		if payload == nil {
			payload = []byte("{}")
		}
		return &types.InvokeResult{
			StatusCode:      200,
			Payload:         append([]byte(nil), payload...),
			ExecutedVersion: st.fn.Version,
		}, nil
	default:
		return nil, errdefs.NewValidationPath("/type", "unknown invocation type %q", params.Type)
	}
}

func (s *functionHostingService) CreateEventSourceMapping(ctx context.Context, mapping types.EventSourceMapping) (*types.EventSourceMapping, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	if mapping.FunctionName == "" {
		return nil, errdefs.NewValidationPath("/functionName", "functionName is required")
	}
	if mapping.SourceARN == "" {
		return nil, errdefs.NewValidationPath("/sourceArn", "sourceArn is required")
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if _, ok := s.w.functions[mapping.FunctionName]; !ok {
		return nil, errdefs.NewNotFound("function", mapping.FunctionName)
	}
	mapping.ID = s.w.nextID("esm")
	mapping.Created = time.Now()
	s.w.mappings[mapping.ID] = &eventSourceMappingState{mapping: mapping}
	out := mapping
	return &out, nil
}

func (s *functionHostingService) GetEventSourceMapping(ctx context.Context, id string) (*types.EventSourceMapping, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	st, ok := s.w.mappings[id]
	if !ok {
		return nil, errdefs.NewNotFound("event source mapping", id)
	}
	out := st.mapping
	return &out, nil
}

func (s *functionHostingService) SetEventSourceMappingEnabled(ctx context.Context, id string, enabled bool) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.mappings[id]
	if !ok {
		return errdefs.NewNotFound("event source mapping", id)
	}
	st.mapping.Enabled = enabled
	return nil
}

func (s *functionHostingService) DeleteEventSourceMapping(ctx context.Context, id string) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if _, ok := s.w.mappings[id]; !ok {
		return errdefs.NewNotFound("event source mapping", id)
	}
	delete(s.w.mappings, id)
	return nil
}

func (s *functionHostingService) CreateFunctionURL(ctx context.Context, functionName string, authType types.FunctionURLAuthType) (*types.FunctionURL, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	switch authType {
	case types.FunctionURLAuthNone, types.FunctionURLAuthIAM:
	default:
		return nil, errdefs.NewValidationPath("/authType", "authType must be NONE or IAM")
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if _, ok := s.w.functions[functionName]; !ok {
		return nil, errdefs.NewNotFound("function", functionName)
	}
	if _, exists := s.w.funcURLs[functionName]; exists {
		return nil, errdefs.NewConflict("function URL for %q already exists", functionName)
	}
	st := &functionURLState{url: types.FunctionURL{
		FunctionName: functionName,
		URL:          fmt.Sprintf("https://%s.fn.mock.lcplatform.dev", functionName),
		AuthType:     authType,
		Created:      time.Now(),
	}}
	s.w.funcURLs[functionName] = st
	out := st.url
	return &out, nil
}

func (s *functionHostingService) GetFunctionURL(ctx context.Context, functionName string) (*types.FunctionURL, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	st, ok := s.w.funcURLs[functionName]
	if !ok {
		return nil, errdefs.NewNotFound("function URL", functionName)
	}
	out := st.url
	return &out, nil
}

func (s *functionHostingService) DeleteFunctionURL(ctx context.Context, functionName string) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if _, ok := s.w.funcURLs[functionName]; !ok {
		return errdefs.NewNotFound("function URL", functionName)
	}
	delete(s.w.funcURLs, functionName)
	return nil
}

func cloneFunction(f types.ServerlessFunction) types.ServerlessFunction {
	f.Environment = copyStrMap(f.Environment)
	f.Tags = copyStrMap(f.Tags)
	return f
}

func parseVersion(v string) int {
	n := 0
	for _, c := range v {
		if c < '0' || c > '9' {
			return 1
		}
		n = n*10 + int(c-'0')
	}
	if n == 0 {
		return 1
	}
	return n
}
