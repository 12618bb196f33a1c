package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcplatform/platform/pkg/errdefs"
)

func TestDocumentOptimisticUpdate(t *testing.T) {
	svc := &documentStoreService{w: testWorld(t)}
	ctx := context.Background()

	require.NoError(t, svc.CreateCollection(ctx, "users"))

	doc, err := svc.PutDocument(ctx, "users", "u1", map[string]interface{}{"name": "Alice"})
	require.NoError(t, err)
	require.NotEmpty(t, doc.ETag)

	updated, err := svc.UpdateDocument(ctx, "users", "u1", map[string]interface{}{"name": "Alicia"}, doc.ETag)
	require.NoError(t, err)
	assert.NotEqual(t, doc.ETag, updated.ETag)

	// The original etag is stale now.
	_, err = svc.UpdateDocument(ctx, "users", "u1", map[string]interface{}{"name": "Bob"}, doc.ETag)
	assert.True(t, errdefs.IsConflict(err), "got %v", err)

	// An empty etag skips the guard.
	_, err = svc.UpdateDocument(ctx, "users", "u1", map[string]interface{}{"name": "Bob"}, "")
	assert.NoError(t, err)
}

func TestQueryDocumentsPartialMatch(t *testing.T) {
	svc := &documentStoreService{w: testWorld(t)}
	ctx := context.Background()

	require.NoError(t, svc.CreateCollection(ctx, "users"))
	seed := map[string]map[string]interface{}{
		"u1": {"name": "Alice", "plan": "pro"},
		"u2": {"name": "Bob", "plan": "pro"},
		"u3": {"name": "Cara", "plan": "free"},
	}
	for key, data := range seed {
		_, err := svc.PutDocument(ctx, "users", key, data)
		require.NoError(t, err)
	}

	pro, err := svc.QueryDocuments(ctx, "users", map[string]interface{}{"plan": "pro"})
	require.NoError(t, err)
	require.Len(t, pro, 2)
	assert.Equal(t, "u1", pro[0].Key)
	assert.Equal(t, "u2", pro[1].Key)

	none, err := svc.QueryDocuments(ctx, "users", map[string]interface{}{"plan": "enterprise"})
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := svc.QueryDocuments(ctx, "users", nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCollectionLifecycle(t *testing.T) {
	svc := &documentStoreService{w: testWorld(t)}
	ctx := context.Background()

	require.NoError(t, svc.CreateCollection(ctx, "a"))
	require.NoError(t, svc.CreateCollection(ctx, "b"))
	assert.True(t, errdefs.IsConflict(svc.CreateCollection(ctx, "a")))

	cols, err := svc.ListCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, cols)

	require.NoError(t, svc.DeleteCollection(ctx, "a"))
	_, err = svc.GetDocument(ctx, "a", "k")
	assert.True(t, errdefs.IsNotFound(err))
}

func TestPutDocumentKeepsCreatedTime(t *testing.T) {
	svc := &documentStoreService{w: testWorld(t)}
	ctx := context.Background()

	require.NoError(t, svc.CreateCollection(ctx, "c"))
	first, err := svc.PutDocument(ctx, "c", "k", map[string]interface{}{"v": 1})
	require.NoError(t, err)
	second, err := svc.PutDocument(ctx, "c", "k", map[string]interface{}{"v": 2})
	require.NoError(t, err)
	assert.Equal(t, first.Created, second.Created)
}
