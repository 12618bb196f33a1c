package aws

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/provider"
	"github.com/lcplatform/platform/pkg/retry"
	"github.com/lcplatform/platform/pkg/types"
)

// Reserved item attributes. Document data lives alongside them at the
// top level so match queries can filter on data keys directly.
const (
	attrKey     = "pk"
	attrETag    = "_etag"
	attrCreated = "_created"
	attrUpdated = "_updated"
)

type documentStoreService struct {
	client *dynamodb.Client
	retry  retry.Policy
}

func newDocumentStoreService(cfg awssdk.Config, deps provider.Deps) *documentStoreService {
	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		o.BaseEndpoint = endpoint(deps.Config)
	})
	return &documentStoreService{client: client, retry: deps.Retry}
}

func (s *documentStoreService) CreateCollection(ctx context.Context, name string) error {
	if name == "" {
		return errdefs.NewValidationPath("name", "collection name is required")
	}
	return retry.Do(ctx, s.retry, func() error {
		_, err := s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
			TableName:   awssdk.String(name),
			BillingMode: ddbtypes.BillingModePayPerRequest,
			AttributeDefinitions: []ddbtypes.AttributeDefinition{{
				AttributeName: awssdk.String(attrKey),
				AttributeType: ddbtypes.ScalarAttributeTypeS,
			}},
			KeySchema: []ddbtypes.KeySchemaElement{{
				AttributeName: awssdk.String(attrKey),
				KeyType:       ddbtypes.KeyTypeHash,
			}},
		})
		return translate(err, "collection")
	})
}

func (s *documentStoreService) DeleteCollection(ctx context.Context, name string) error {
	return retry.Do(ctx, s.retry, func() error {
		_, err := s.client.DeleteTable(ctx, &dynamodb.DeleteTableInput{TableName: awssdk.String(name)})
		return translate(err, "collection")
	})
}

func (s *documentStoreService) ListCollections(ctx context.Context) ([]string, error) {
	var names []string
	p := dynamodb.NewListTablesPaginator(s.client, &dynamodb.ListTablesInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, translate(err, "collection")
		}
		names = append(names, page.TableNames...)
	}
	return names, nil
}

func (s *documentStoreService) PutDocument(ctx context.Context, collection, key string, data map[string]interface{}) (*types.Document, error) {
	if key == "" {
		return nil, errdefs.NewValidationPath("key", "document key is required")
	}
	now := time.Now().UTC()
	created := now
	if existing, err := s.GetDocument(ctx, collection, key); err == nil {
		created = existing.Created
	}
	etag, err := dataETag(data)
	if err != nil {
		return nil, err
	}
	item, err := buildItem(key, data, etag, created, now)
	if err != nil {
		return nil, err
	}
	err = retry.Do(ctx, s.retry, func() error {
		_, opErr := s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: awssdk.String(collection),
			Item:      item,
		})
		return translate(opErr, "document")
	})
	if err != nil {
		return nil, err
	}
	return &types.Document{
		Collection: collection,
		Key:        key,
		Data:       data,
		ETag:       etag,
		Created:    created,
		Updated:    now,
	}, nil
}

func (s *documentStoreService) GetDocument(ctx context.Context, collection, key string) (*types.Document, error) {
	var out *dynamodb.GetItemOutput
	err := retry.Do(ctx, s.retry, func() error {
		var opErr error
		out, opErr = s.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName:      awssdk.String(collection),
			Key:            keyAttr(key),
			ConsistentRead: awssdk.Bool(true),
		})
		return translate(opErr, "document")
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, errdefs.NewNotFound("document", collection+"/"+key)
	}
	return itemToDocument(collection, out.Item)
}

func (s *documentStoreService) UpdateDocument(ctx context.Context, collection, key string, data map[string]interface{}, etag string) (*types.Document, error) {
	current, err := s.GetDocument(ctx, collection, key)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	newETag, err := dataETag(data)
	if err != nil {
		return nil, err
	}
	item, err := buildItem(key, data, newETag, current.Created, now)
	if err != nil {
		return nil, err
	}
	in := &dynamodb.PutItemInput{
		TableName: awssdk.String(collection),
		Item:      item,
	}
	if etag != "" {
		in.ConditionExpression = awssdk.String("#etag = :etag")
		in.ExpressionAttributeNames = map[string]string{"#etag": attrETag}
		in.ExpressionAttributeValues = map[string]ddbtypes.AttributeValue{
			":etag": &ddbtypes.AttributeValueMemberS{Value: etag},
		}
	}
	_, err = s.client.PutItem(ctx, in)
	if err != nil {
		translated := translate(err, "document")
		if errdefs.IsConflict(translated) {
			return nil, errdefs.NewConflict("document %s/%s was modified concurrently", collection, key).WithCause(err)
		}
		return nil, translated
	}
	return &types.Document{
		Collection: collection,
		Key:        key,
		Data:       data,
		ETag:       newETag,
		Created:    current.Created,
		Updated:    now,
	}, nil
}

func (s *documentStoreService) DeleteDocument(ctx context.Context, collection, key string) error {
	return retry.Do(ctx, s.retry, func() error {
		_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: awssdk.String(collection),
			Key:       keyAttr(key),
		})
		return translate(err, "document")
	})
}

func (s *documentStoreService) QueryDocuments(ctx context.Context, collection string, match map[string]interface{}) ([]types.Document, error) {
	in := &dynamodb.ScanInput{TableName: awssdk.String(collection)}
	if len(match) > 0 {
		filter := ""
		in.ExpressionAttributeNames = make(map[string]string, len(match))
		in.ExpressionAttributeValues = make(map[string]ddbtypes.AttributeValue, len(match))
		i := 0
		for k, v := range match {
			name := fmt.Sprintf("#m%d", i)
			value := fmt.Sprintf(":m%d", i)
			if filter != "" {
				filter += " AND "
			}
			filter += name + " = " + value
			in.ExpressionAttributeNames[name] = k
			av, err := attributevalue.Marshal(v)
			if err != nil {
				return nil, errdefs.NewValidationPath(k, "match value is not serializable").WithCause(err)
			}
			in.ExpressionAttributeValues[value] = av
			i++
		}
		in.FilterExpression = awssdk.String(filter)
	}
	var docs []types.Document
	p := dynamodb.NewScanPaginator(s.client, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, translate(err, "collection")
		}
		for _, item := range page.Items {
			doc, err := itemToDocument(collection, item)
			if err != nil {
				return nil, err
			}
			docs = append(docs, *doc)
		}
	}
	return docs, nil
}

func keyAttr(key string) map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{
		attrKey: &ddbtypes.AttributeValueMemberS{Value: key},
	}
}

func buildItem(key string, data map[string]interface{}, etag string, created, updated time.Time) (map[string]ddbtypes.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(data)
	if err != nil {
		return nil, errdefs.NewValidationPath("data", "document data is not serializable").WithCause(err)
	}
	item[attrKey] = &ddbtypes.AttributeValueMemberS{Value: key}
	item[attrETag] = &ddbtypes.AttributeValueMemberS{Value: etag}
	item[attrCreated] = &ddbtypes.AttributeValueMemberS{Value: created.Format(time.RFC3339Nano)}
	item[attrUpdated] = &ddbtypes.AttributeValueMemberS{Value: updated.Format(time.RFC3339Nano)}
	return item, nil
}

func itemToDocument(collection string, item map[string]ddbtypes.AttributeValue) (*types.Document, error) {
	doc := &types.Document{Collection: collection}
	if av, ok := item[attrKey].(*ddbtypes.AttributeValueMemberS); ok {
		doc.Key = av.Value
	}
	if av, ok := item[attrETag].(*ddbtypes.AttributeValueMemberS); ok {
		doc.ETag = av.Value
	}
	if av, ok := item[attrCreated].(*ddbtypes.AttributeValueMemberS); ok {
		doc.Created, _ = time.Parse(time.RFC3339Nano, av.Value)
	}
	if av, ok := item[attrUpdated].(*ddbtypes.AttributeValueMemberS); ok {
		doc.Updated, _ = time.Parse(time.RFC3339Nano, av.Value)
	}
	payload := make(map[string]ddbtypes.AttributeValue, len(item))
	for k, v := range item {
		switch k {
		case attrKey, attrETag, attrCreated, attrUpdated:
		default:
			payload[k] = v
		}
	}
	data := map[string]interface{}{}
	if err := attributevalue.UnmarshalMap(payload, &data); err != nil {
		return nil, errdefs.NewUnavailable("decoding document %s/%s", collection, doc.Key).WithCause(err)
	}
	doc.Data = data
	return doc, nil
}

func dataETag(data map[string]interface{}) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", errdefs.NewValidationPath("data", "document data is not serializable").WithCause(err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:8]), nil
}
