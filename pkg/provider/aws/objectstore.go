package aws

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/provider"
	"github.com/lcplatform/platform/pkg/retry"
	"github.com/lcplatform/platform/pkg/types"
)

type objectStoreService struct {
	client  *s3.Client
	presign *s3.PresignClient
	region  string
	retry   retry.Policy
}

func newObjectStoreService(cfg awssdk.Config, deps provider.Deps) *objectStoreService {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = endpoint(deps.Config)
		// Path-style addressing for local stacks behind one endpoint.
		o.UsePathStyle = deps.Config.Options.Endpoint != ""
	})
	return &objectStoreService{
		client:  client,
		presign: s3.NewPresignClient(client),
		region:  cfg.Region,
		retry:   deps.Retry,
	}
}

func (s *objectStoreService) CreateBucket(ctx context.Context, name string, opts types.BucketOptions) error {
	if name == "" {
		return errdefs.NewValidationPath("name", "bucket name is required")
	}
	in := &s3.CreateBucketInput{Bucket: awssdk.String(name)}
	if s.region != "" && s.region != "us-east-1" {
		in.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(s.region),
		}
	}
	err := retry.Do(ctx, s.retry, func() error {
		_, err := s.client.CreateBucket(ctx, in)
		return translate(err, "bucket")
	})
	if err != nil {
		return err
	}
	if opts.Versioning {
		_, err := s.client.PutBucketVersioning(ctx, &s3.PutBucketVersioningInput{
			Bucket: awssdk.String(name),
			VersioningConfiguration: &s3types.VersioningConfiguration{
				Status: s3types.BucketVersioningStatusEnabled,
			},
		})
		if err != nil {
			return translate(err, "bucket")
		}
	}
	if opts.Encryption {
		_, err := s.client.PutBucketEncryption(ctx, &s3.PutBucketEncryptionInput{
			Bucket: awssdk.String(name),
			ServerSideEncryptionConfiguration: &s3types.ServerSideEncryptionConfiguration{
				Rules: []s3types.ServerSideEncryptionRule{{
					ApplyServerSideEncryptionByDefault: &s3types.ServerSideEncryptionByDefault{
						SSEAlgorithm: s3types.ServerSideEncryptionAes256,
					},
				}},
			},
		})
		if err != nil {
			return translate(err, "bucket")
		}
	}
	if len(opts.Tags) > 0 {
		tags := make([]s3types.Tag, 0, len(opts.Tags))
		for k, v := range opts.Tags {
			tags = append(tags, s3types.Tag{Key: awssdk.String(k), Value: awssdk.String(v)})
		}
		_, err := s.client.PutBucketTagging(ctx, &s3.PutBucketTaggingInput{
			Bucket:  awssdk.String(name),
			Tagging: &s3types.Tagging{TagSet: tags},
		})
		if err != nil {
			return translate(err, "bucket")
		}
	}
	return nil
}

func (s *objectStoreService) DeleteBucket(ctx context.Context, name string) error {
	return retry.Do(ctx, s.retry, func() error {
		_, err := s.client.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: awssdk.String(name)})
		return translate(err, "bucket")
	})
}

func (s *objectStoreService) PutObject(ctx context.Context, bucket, key string, data []byte, meta types.ObjectMetadata) (*types.ObjectInfo, error) {
	if key == "" {
		return nil, errdefs.NewValidationPath("key", "object key is required")
	}
	in := &s3.PutObjectInput{
		Bucket: awssdk.String(bucket),
		Key:    awssdk.String(key),
		Body:   bytes.NewReader(data),
	}
	if meta.ContentType != "" {
		in.ContentType = awssdk.String(meta.ContentType)
	}
	if len(meta.Metadata) > 0 {
		in.Metadata = meta.Metadata
	}
	var out *s3.PutObjectOutput
	err := retry.Do(ctx, s.retry, func() error {
		var opErr error
		out, opErr = s.client.PutObject(ctx, in)
		return translate(opErr, "object")
	})
	if err != nil {
		return nil, err
	}
	return &types.ObjectInfo{
		Bucket:       bucket,
		Key:          key,
		Size:         int64(len(data)),
		ETag:         trimETag(out.ETag),
		ContentType:  meta.ContentType,
		LastModified: time.Now().UTC(),
	}, nil
}

func (s *objectStoreService) GetObject(ctx context.Context, bucket, key string) (*types.ObjectData, error) {
	var out *s3.GetObjectOutput
	err := retry.Do(ctx, s.retry, func() error {
		var opErr error
		out, opErr = s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: awssdk.String(bucket),
			Key:    awssdk.String(key),
		})
		return translate(opErr, "object")
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, translate(err, "object")
	}
	info := types.ObjectInfo{
		Bucket: bucket,
		Key:    key,
		Size:   int64(len(data)),
		ETag:   trimETag(out.ETag),
	}
	if out.ContentType != nil {
		info.ContentType = *out.ContentType
	}
	if out.LastModified != nil {
		info.LastModified = *out.LastModified
	}
	return &types.ObjectData{ObjectInfo: info, Data: data}, nil
}

func (s *objectStoreService) DeleteObject(ctx context.Context, bucket, key string) error {
	return retry.Do(ctx, s.retry, func() error {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: awssdk.String(bucket),
			Key:    awssdk.String(key),
		})
		return translate(err, "object")
	})
}

func (s *objectStoreService) ListObjects(ctx context.Context, bucket, prefix string) ([]types.ObjectInfo, error) {
	var infos []types.ObjectInfo
	in := &s3.ListObjectsV2Input{Bucket: awssdk.String(bucket)}
	if prefix != "" {
		in.Prefix = awssdk.String(prefix)
	}
	p := s3.NewListObjectsV2Paginator(s.client, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, translate(err, "bucket")
		}
		for _, obj := range page.Contents {
			info := types.ObjectInfo{Bucket: bucket, ETag: trimETag(obj.ETag)}
			if obj.Key != nil {
				info.Key = *obj.Key
			}
			if obj.Size != nil {
				info.Size = *obj.Size
			}
			if obj.LastModified != nil {
				info.LastModified = *obj.LastModified
			}
			infos = append(infos, info)
		}
	}
	return infos, nil
}

func (s *objectStoreService) CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) (*types.ObjectInfo, error) {
	err := retry.Do(ctx, s.retry, func() error {
		_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
			Bucket:     awssdk.String(dstBucket),
			Key:        awssdk.String(dstKey),
			CopySource: awssdk.String(srcBucket + "/" + srcKey),
		})
		return translate(err, "object")
	})
	if err != nil {
		return nil, err
	}
	var head *s3.HeadObjectOutput
	head, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: awssdk.String(dstBucket),
		Key:    awssdk.String(dstKey),
	})
	if err != nil {
		return nil, translate(err, "object")
	}
	info := &types.ObjectInfo{Bucket: dstBucket, Key: dstKey, ETag: trimETag(head.ETag)}
	if head.ContentLength != nil {
		info.Size = *head.ContentLength
	}
	if head.ContentType != nil {
		info.ContentType = *head.ContentType
	}
	if head.LastModified != nil {
		info.LastModified = *head.LastModified
	}
	return info, nil
}

func (s *objectStoreService) GeneratePresignedURL(ctx context.Context, bucket, key string, expires int) (string, error) {
	if expires <= 0 {
		expires = 3600
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: awssdk.String(bucket),
		Key:    awssdk.String(key),
	}, s3.WithPresignExpires(time.Duration(expires)*time.Second))
	if err != nil {
		return "", translate(err, "object")
	}
	return req.URL, nil
}

func trimETag(etag *string) string {
	if etag == nil {
		return ""
	}
	return strings.Trim(*etag, `"`)
}
