package aws

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/lcplatform/platform/pkg/contract"
	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/provider"
	"github.com/lcplatform/platform/pkg/types"
)

// extraConfigEnvironment names the environment the configuration
// client reads from.
const extraConfigEnvironment = "appconfig.environment"

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
	v, err := c.Get(ctx, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(v), out); err != nil {
		return errdefs.NewValidation("secret %q is not valid JSON", name).WithCause(err)
	}
	return nil
}

// configClient reads typed values out of deployed configuration.
// Keys address either one profile ("profile/key") or search every
// profile of the application in name order.
type configClient struct {
	svc         *configurationService
	application string
	environment string
}

func newConfigClient(svc *configurationService, deps provider.Deps) *configClient {
	return &configClient{
		svc:         svc,
		application: deps.Config.Options.AppConfig.Application,
		environment: deps.Config.Options.Extra[extraConfigEnvironment],
	}
}

func (c *configClient) Get(ctx context.Context, key string) (interface{}, error) {
	if c.application == "" {
		return nil, errdefs.NewValidation("configuration application is not set: set options.appConfig.application")
	}
	if profile, rest, ok := strings.Cut(key, "/"); ok && profile != "" && rest != "" {
		cfg, err := c.svc.GetConfiguration(ctx, c.application, c.environment, profile)
		if err != nil {
			return nil, err
		}
		v, ok := cfg.Data[rest]
		if !ok {
			return nil, errdefs.NewNotFound("configuration key", key)
		}
		return v, nil
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
		if v, ok := cfg.Data[key]; ok {
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
	if s, ok := v.(string); ok {
		return s, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", errdefs.NewValidation("configuration key %q is not representable as a string", key)
	}
	return string(raw), nil
}

func (c *configClient) GetInt(ctx context.Context, key string) (int, error) {
	v, err := c.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), nil
		}
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i, nil
		}
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
		if parsed, err := strconv.ParseBool(b); err == nil {
			return parsed, nil
		}
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
