package mock

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/types"
)

type storedObject struct {
	info types.ObjectInfo
	data []byte
	meta types.ObjectMetadata
}

type bucketState struct {
	opts    types.BucketOptions
	created time.Time
	objects map[string]*storedObject
}

type objectStoreService struct {
	w *world
}

func (s *objectStoreService) CreateBucket(ctx context.Context, name string, opts types.BucketOptions) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	if name == "" {
		return errdefs.NewValidationPath("/name", "name is required")
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if _, exists := s.w.buckets[name]; exists {
		return errdefs.NewConflict("bucket %q already exists", name)
	}
	s.w.buckets[name] = &bucketState{
		opts:    opts,
		created: time.Now(),
		objects: make(map[string]*storedObject),
	}
	return nil
}

func (s *objectStoreService) DeleteBucket(ctx context.Context, name string) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.buckets[name]
	if !ok {
		return errdefs.NewNotFound("bucket", name)
	}
	if len(st.objects) > 0 {
		return errdefs.NewConflict("bucket %q is not empty", name)
	}
	delete(s.w.buckets, name)
	return nil
}

func (s *objectStoreService) PutObject(ctx context.Context, bucket, key string, data []byte, meta types.ObjectMetadata) (*types.ObjectInfo, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	if key == "" {
		return nil, errdefs.NewValidationPath("/key", "key is required")
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.buckets[bucket]
	if !ok {
		return nil, errdefs.NewNotFound("bucket", bucket)
	}
	obj := &storedObject{
		info: types.ObjectInfo{
			Bucket:       bucket,
			Key:          key,
			Size:         int64(len(data)),
			ETag:         contentETag(data),
			ContentType:  meta.ContentType,
			LastModified: time.Now(),
		},
		data: append([]byte(nil), data...),
		meta: types.ObjectMetadata{
			ContentType: meta.ContentType,
			Metadata:    copyStrMap(meta.Metadata),
		},
	}
	st.objects[key] = obj
	out := obj.info
	return &out, nil
}

func (s *objectStoreService) GetObject(ctx context.Context, bucket, key string) (*types.ObjectData, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	obj, err := s.lookup(bucket, key)
	if err != nil {
		return nil, err
	}
	return &types.ObjectData{
		ObjectInfo: obj.info,
		Data:       append([]byte(nil), obj.data...),
	}, nil
}

func (s *objectStoreService) DeleteObject(ctx context.Context, bucket, key string) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.buckets[bucket]
	if !ok {
		return errdefs.NewNotFound("bucket", bucket)
	}
	if _, ok := st.objects[key]; !ok {
		return errdefs.NewNotFound("object", bucket+"/"+key)
	}
	delete(st.objects, key)
	return nil
}

func (s *objectStoreService) ListObjects(ctx context.Context, bucket, prefix string) ([]types.ObjectInfo, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	st, ok := s.w.buckets[bucket]
	if !ok {
		return nil, errdefs.NewNotFound("bucket", bucket)
	}
	var out []types.ObjectInfo
	for key, obj := range st.objects {
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			continue
		}
		out = append(out, obj.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *objectStoreService) CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) (*types.ObjectInfo, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	src, err := s.lookup(srcBucket, srcKey)
	if err != nil {
		return nil, err
	}
	dst, ok := s.w.buckets[dstBucket]
	if !ok {
		return nil, errdefs.NewNotFound("bucket", dstBucket)
	}
	obj := &storedObject{
		info: types.ObjectInfo{
			Bucket:       dstBucket,
			Key:          dstKey,
			Size:         src.info.Size,
			ETag:         src.info.ETag,
			ContentType:  src.info.ContentType,
			LastModified: time.Now(),
		},
		data: append([]byte(nil), src.data...),
		meta: types.ObjectMetadata{
			ContentType: src.meta.ContentType,
			Metadata:    copyStrMap(src.meta.Metadata),
		},
	}
	dst.objects[dstKey] = obj
	out := obj.info
	return &out, nil
}

// GeneratePresignedURL mints a URL-shaped token; the mock does not
// serve HTTP, so the URL only encodes the request.
func (s *objectStoreService) GeneratePresignedURL(ctx context.Context, bucket, key string, expires int) (string, error) {
	if err := s.w.simulate(ctx); err != nil {
		return "", err
	}
	if expires <= 0 {
		expires = 3600
	}
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	if _, err := s.lookup(bucket, key); err != nil {
		return "", err
	}
	deadline := time.Now().Add(time.Duration(expires) * time.Second).Unix()
	return fmt.Sprintf("https://%s.objects.mock.lcplatform.dev/%s?expires=%d", bucket, key, deadline), nil
}

// lookup resolves an object; caller holds w.mu.
func (s *objectStoreService) lookup(bucket, key string) (*storedObject, error) {
	st, ok := s.w.buckets[bucket]
	if !ok {
		return nil, errdefs.NewNotFound("bucket", bucket)
	}
	obj, ok := st.objects[key]
	if !ok {
		return nil, errdefs.NewNotFound("object", bucket+"/"+key)
	}
	return obj, nil
}

func contentETag(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
