package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lcplatform/platform/pkg/contract"
	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/provider"
	"github.com/lcplatform/platform/pkg/types"
)

// The data-plane clients are thin views over the control-plane
// adapters; both sides share the same world, so the runtime facade
// observes everything the control facade created.

type queueClient struct {
	svc *queueService
}

func (c *queueClient) Send(ctx context.Context, queue string, params types.SendMessageParams) (*types.Message, error) {
	return c.svc.SendMessage(ctx, queue, params)
}

func (c *queueClient) Receive(ctx context.Context, queue string, params types.ReceiveMessageParams) ([]types.Message, error) {
	return c.svc.ReceiveMessages(ctx, queue, params)
}

func (c *queueClient) Acknowledge(ctx context.Context, queue, receiptHandle string) error {
	return c.svc.DeleteMessage(ctx, queue, receiptHandle)
}

type objectClient struct {
	svc *objectStoreService
}

func (c *objectClient) Get(ctx context.Context, bucket, key string) (*types.ObjectData, error) {
	return c.svc.GetObject(ctx, bucket, key)
}

func (c *objectClient) Put(ctx context.Context, bucket, key string, data []byte, meta types.ObjectMetadata) (*types.ObjectInfo, error) {
	return c.svc.PutObject(ctx, bucket, key, data, meta)
}

func (c *objectClient) Delete(ctx context.Context, bucket, key string) error {
	return c.svc.DeleteObject(ctx, bucket, key)
}

func (c *objectClient) List(ctx context.Context, bucket, prefix string) ([]types.ObjectInfo, error) {
	return c.svc.ListObjects(ctx, bucket, prefix)
}

type secretsClient struct {
	svc *secretsService
}

func (c *secretsClient) Get(ctx context.Context, name string) (string, error) {
	v, err := c.svc.GetSecretValue(ctx, name)
	if err != nil {
		return "", err
	}
	return v.Value, nil
}

func (c *secretsClient) GetJSON(ctx context.Context, name string, out interface{}) error {
	v, err := c.svc.GetSecretValue(ctx, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(v.Value), out); err != nil {
		return errdefs.NewValidation("secret %q is not valid JSON", name).WithCause(err)
	}
	return nil
}

// configClient resolves keys inside the configured application's
// profiles. A key of the form "profile/key" addresses one profile;
// a bare key searches every profile in name order.
type configClient struct {
	svc         *configurationService
	application string
	environment string
}

func newConfigClient(svc *configurationService, deps provider.Deps) *configClient {
	c := &configClient{svc: svc}
	if deps.Config != nil {
		c.application = deps.Config.Options.AppConfig.Application
		c.environment = deps.Config.Options.Extra["mock.environment"]
	}
	return c
}

func (c *configClient) Get(ctx context.Context, key string) (interface{}, error) {
	if c.application == "" {
		return nil, errdefs.NewValidation("no application configured for configuration reads")
	}
	profile, field := "", key
	if i := strings.IndexByte(key, '/'); i >= 0 {
		profile, field = key[:i], key[i+1:]
	}

	if profile != "" {
		cfg, err := c.svc.GetConfiguration(ctx, c.application, c.environment, profile)
		if err != nil {
			return nil, err
		}
		if v, ok := cfg.Data[field]; ok {
			return v, nil
		}
		return nil, errdefs.NewNotFound("configuration key", key)
	}

	profiles, err := c.svc.ListProfiles(ctx, c.application)
	if err != nil {
		return nil, err
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Name < profiles[j].Name })
	for _, p := range profiles {
		cfg, err := c.svc.GetConfiguration(ctx, c.application, c.environment, p.Name)
		if err != nil {
			if errdefs.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if v, ok := cfg.Data[field]; ok {
			return v, nil
		}
	}
	return nil, errdefs.NewNotFound("configuration key", key)
}

func (c *configClient) GetString(ctx context.Context, key string) (string, error) {
	v, err := c.Get(ctx, key)
	if err != nil {
		return "", err
	}
	switch s := v.(type) {
	case string:
		return s, nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

func (c *configClient) GetInt(ctx context.Context, key string) (int, error) {
	v, err := c.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, errdefs.NewValidation("configuration key %q is not an integer", key)
		}
		return int(i), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, errdefs.NewValidation("configuration key %q is not an integer", key)
		}
		return i, nil
	}
	return 0, errdefs.NewValidation("configuration key %q is not an integer", key)
}

func (c *configClient) GetBool(ctx context.Context, key string) (bool, error) {
	v, err := c.Get(ctx, key)
	if err != nil {
		return false, err
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return false, errdefs.NewValidation("configuration key %q is not a boolean", key)
		}
		return parsed, nil
	}
	return false, errdefs.NewValidation("configuration key %q is not a boolean", key)
}

type eventPublisher struct {
	svc *eventBusService
}

func (c *eventPublisher) Publish(ctx context.Context, bus string, event types.Event) (string, error) {
	return c.svc.PublishEvent(ctx, bus, event)
}

func (c *eventPublisher) PublishBatch(ctx context.Context, bus string, events []types.Event) ([]string, error) {
	ids := make([]string, 0, len(events))
	for _, e := range events {
		id, err := c.svc.PublishEvent(ctx, bus, e)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Deliveries exposes the shared delivery log for test observation.
func (c *eventPublisher) Deliveries() []Delivery {
	return c.svc.Deliveries()
}

type notificationClient struct {
	svc *notificationService
}

func (c *notificationClient) Publish(ctx context.Context, topic string, params types.PublishParams) (string, error) {
	return c.svc.PublishToTopic(ctx, topic, params)
}

func (c *notificationClient) PublishBatch(ctx context.Context, topic string, batch []types.PublishParams) ([]string, error) {
	ids := make([]string, 0, len(batch))
	for _, p := range batch {
		id, err := c.svc.PublishToTopic(ctx, topic, p)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

type documentClient struct {
	svc *documentStoreService
}

func (c *documentClient) Get(ctx context.Context, collection, key string) (*types.Document, error) {
	return c.svc.GetDocument(ctx, collection, key)
}

func (c *documentClient) Put(ctx context.Context, collection, key string, data map[string]interface{}) (*types.Document, error) {
	return c.svc.PutDocument(ctx, collection, key, data)
}

func (c *documentClient) Update(ctx context.Context, collection, key string, data map[string]interface{}, etag string) (*types.Document, error) {
	return c.svc.UpdateDocument(ctx, collection, key, data, etag)
}

func (c *documentClient) Delete(ctx context.Context, collection, key string) error {
	return c.svc.DeleteDocument(ctx, collection, key)
}

func (c *documentClient) Query(ctx context.Context, collection string, match map[string]interface{}) ([]types.Document, error) {
	return c.svc.QueryDocuments(ctx, collection, match)
}

type dataClient struct {
	svc *dataStoreService
}

func (c *dataClient) Query(ctx context.Context, sql string, args ...interface{}) ([]types.Row, error) {
	return c.svc.Query(ctx, sql, args...)
}

func (c *dataClient) Execute(ctx context.Context, sql string, args ...interface{}) (*types.ExecResult, error) {
	return c.svc.Execute(ctx, sql, args...)
}

func (c *dataClient) Transaction(ctx context.Context, fn func(tx contract.Tx) error) error {
	return c.svc.Transaction(ctx, fn)
}

type authClient struct {
	svc *authService
}

func (c *authClient) ValidateToken(ctx context.Context, accessToken string) (*types.TokenClaims, error) {
	return c.svc.ValidateToken(ctx, accessToken)
}

func (c *authClient) GetUserInfo(ctx context.Context, accessToken string) (*types.UserInfo, error) {
	return c.svc.GetUserInfo(ctx, accessToken)
}

func (c *authClient) HasScope(claims *types.TokenClaims, scope string) bool {
	if claims == nil {
		return false
	}
	for _, s := range strings.Fields(claims.Scope) {
		if s == scope {
			return true
		}
	}
	return false
}

func (c *authClient) HasRole(claims *types.TokenClaims, role string) bool {
	if claims == nil {
		return false
	}
	return containsString(claims.Roles, role)
}

type containerRepoClient struct {
	svc *containerRepoService
}

func (c *containerRepoClient) ListImages(ctx context.Context, repository string) ([]types.ContainerImage, error) {
	if err := c.svc.w.simulate(ctx); err != nil {
		return nil, err
	}
	c.svc.w.mu.RLock()
	defer c.svc.w.mu.RUnlock()
	st, ok := c.svc.w.repos[repository]
	if !ok {
		return nil, errdefs.NewNotFound("repository", repository)
	}
	out := make([]types.ContainerImage, 0, len(st.images))
	for _, img := range st.images {
		out = append(out, cloneImage(*img))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Digest < out[j].Digest })
	return out, nil
}

func (c *containerRepoClient) GetImageByTag(ctx context.Context, repository, tag string) (*types.ContainerImage, error) {
	if err := c.svc.w.simulate(ctx); err != nil {
		return nil, err
	}
	c.svc.w.mu.RLock()
	defer c.svc.w.mu.RUnlock()
	st, ok := c.svc.w.repos[repository]
	if !ok {
		return nil, errdefs.NewNotFound("repository", repository)
	}
	for _, img := range st.images {
		if containsString(img.Tags, tag) {
			out := cloneImage(*img)
			return &out, nil
		}
	}
	return nil, errdefs.NewNotFound("image tag", repository+":"+tag)
}

func (c *containerRepoClient) DeleteImages(ctx context.Context, repository string, digests []string) error {
	if err := c.svc.w.simulate(ctx); err != nil {
		return err
	}
	c.svc.w.mu.Lock()
	defer c.svc.w.mu.Unlock()
	st, ok := c.svc.w.repos[repository]
	if !ok {
		return errdefs.NewNotFound("repository", repository)
	}
	for _, d := range digests {
		delete(st.images, d)
	}
	return nil
}

func (c *containerRepoClient) ImageExists(ctx context.Context, repository, tag string) (bool, error) {
	_, err := c.GetImageByTag(ctx, repository, tag)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
