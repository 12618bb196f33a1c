package mock

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/types"
)

func TestObjectRoundTrip(t *testing.T) {
	svc := &objectStoreService{w: testWorld(t)}
	ctx := context.Background()

	require.NoError(t, svc.CreateBucket(ctx, "my-app-assets", types.BucketOptions{}))

	payload := []byte(`{"appName":"MyAwesomeApp","version":"1.0.0"}`)
	info, err := svc.PutObject(ctx, "my-app-assets", "config.json", payload, types.ObjectMetadata{ContentType: "application/json"})
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), info.Size)
	require.NotEmpty(t, info.ETag)

	got, err := svc.GetObject(ctx, "my-app-assets", "config.json")
	require.NoError(t, err)
	assert.Equal(t, payload, got.Data)
	assert.Equal(t, "application/json", got.ContentType)

	// Content change moves the etag.
	changed, err := svc.PutObject(ctx, "my-app-assets", "config.json", []byte(`{}`), types.ObjectMetadata{})
	require.NoError(t, err)
	assert.NotEqual(t, info.ETag, changed.ETag)
}

func TestListObjectsByPrefix(t *testing.T) {
	svc := &objectStoreService{w: testWorld(t)}
	ctx := context.Background()

	require.NoError(t, svc.CreateBucket(ctx, "b", types.BucketOptions{}))
	for _, key := range []string{"logs/a", "logs/b", "data/c"} {
		_, err := svc.PutObject(ctx, "b", key, []byte("x"), types.ObjectMetadata{})
		require.NoError(t, err)
	}

	logs, err := svc.ListObjects(ctx, "b", "logs/")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "logs/a", logs[0].Key)

	all, err := svc.ListObjects(ctx, "b", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCopyObject(t *testing.T) {
	svc := &objectStoreService{w: testWorld(t)}
	ctx := context.Background()

	require.NoError(t, svc.CreateBucket(ctx, "src", types.BucketOptions{}))
	require.NoError(t, svc.CreateBucket(ctx, "dst", types.BucketOptions{}))
	orig, err := svc.PutObject(ctx, "src", "k", []byte("payload"), types.ObjectMetadata{ContentType: "text/plain"})
	require.NoError(t, err)

	copied, err := svc.CopyObject(ctx, "src", "k", "dst", "k2")
	require.NoError(t, err)
	assert.Equal(t, orig.ETag, copied.ETag)
	assert.Equal(t, orig.Size, copied.Size)

	got, err := svc.GetObject(ctx, "dst", "k2")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got.Data)
}

func TestDeleteBucketRequiresEmpty(t *testing.T) {
	svc := &objectStoreService{w: testWorld(t)}
	ctx := context.Background()

	require.NoError(t, svc.CreateBucket(ctx, "b", types.BucketOptions{}))
	_, err := svc.PutObject(ctx, "b", "k", []byte("x"), types.ObjectMetadata{})
	require.NoError(t, err)

	assert.True(t, errdefs.IsConflict(svc.DeleteBucket(ctx, "b")))
	require.NoError(t, svc.DeleteObject(ctx, "b", "k"))
	assert.NoError(t, svc.DeleteBucket(ctx, "b"))
}

func TestGeneratePresignedURL(t *testing.T) {
	svc := &objectStoreService{w: testWorld(t)}
	ctx := context.Background()

	require.NoError(t, svc.CreateBucket(ctx, "b", types.BucketOptions{}))
	_, err := svc.PutObject(ctx, "b", "k", []byte("x"), types.ObjectMetadata{})
	require.NoError(t, err)

	url, err := svc.GeneratePresignedURL(ctx, "b", "k", 600)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://"), "url %q", url)
	assert.Contains(t, url, "expires=")

	_, err = svc.GeneratePresignedURL(ctx, "b", "missing", 600)
	assert.True(t, errdefs.IsNotFound(err))
}
