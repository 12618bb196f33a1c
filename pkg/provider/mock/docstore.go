package mock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"reflect"
	"sort"
	"time"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/types"
)

type collectionState struct {
	docs map[string]*types.Document
}

type documentStoreService struct {
	w *world
}

func (s *documentStoreService) CreateCollection(ctx context.Context, name string) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	if name == "" {
		return errdefs.NewValidationPath("/name", "name is required")
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if _, exists := s.w.collections[name]; exists {
		return errdefs.NewConflict("collection %q already exists", name)
	}
	s.w.collections[name] = &collectionState{docs: make(map[string]*types.Document)}
	return nil
}

func (s *documentStoreService) DeleteCollection(ctx context.Context, name string) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if _, ok := s.w.collections[name]; !ok {
		return errdefs.NewNotFound("collection", name)
	}
	delete(s.w.collections, name)
	return nil
}

func (s *documentStoreService) ListCollections(ctx context.Context) ([]string, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	out := make([]string, 0, len(s.w.collections))
	for name := range s.w.collections {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// PutDocument creates or replaces a document unconditionally; use
// UpdateDocument for etag-guarded writes.
func (s *documentStoreService) PutDocument(ctx context.Context, collection, key string, data map[string]interface{}) (*types.Document, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	if key == "" {
		return nil, errdefs.NewValidationPath("/key", "key is required")
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	col, ok := s.w.collections[collection]
	if !ok {
		return nil, errdefs.NewNotFound("collection", collection)
	}
	now := time.Now()
	doc := &types.Document{
		Collection: collection,
		Key:        key,
		Data:       copyAnyMap(data),
		ETag:       documentETag(data),
		Created:    now,
		Updated:    now,
	}
	if prev, ok := col.docs[key]; ok {
		doc.Created = prev.Created
	}
	col.docs[key] = doc
	out := cloneDocument(*doc)
	return &out, nil
}

func (s *documentStoreService) GetDocument(ctx context.Context, collection, key string) (*types.Document, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	col, ok := s.w.collections[collection]
	if !ok {
		return nil, errdefs.NewNotFound("collection", collection)
	}
	doc, ok := col.docs[key]
	if !ok {
		return nil, errdefs.NewNotFound("document", key)
	}
	out := cloneDocument(*doc)
	return &out, nil
}

// UpdateDocument replaces the document only if the caller's etag
// still matches the stored one.
func (s *documentStoreService) UpdateDocument(ctx context.Context, collection, key string, data map[string]interface{}, etag string) (*types.Document, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	col, ok := s.w.collections[collection]
	if !ok {
		return nil, errdefs.NewNotFound("collection", collection)
	}
	doc, ok := col.docs[key]
	if !ok {
		return nil, errdefs.NewNotFound("document", key)
	}
	if etag != "" && doc.ETag != etag {
		return nil, errdefs.NewConflict("document %s/%s was modified concurrently", collection, key)
	}
	doc.Data = copyAnyMap(data)
	doc.ETag = documentETag(data)
	doc.Updated = time.Now()
	out := cloneDocument(*doc)
	return &out, nil
}

func (s *documentStoreService) DeleteDocument(ctx context.Context, collection, key string) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	col, ok := s.w.collections[collection]
	if !ok {
		return errdefs.NewNotFound("collection", collection)
	}
	if _, ok := col.docs[key]; !ok {
		return errdefs.NewNotFound("document", key)
	}
	delete(col.docs, key)
	return nil
}

// QueryDocuments returns documents whose data contains every key in
// match with an equal value.
func (s *documentStoreService) QueryDocuments(ctx context.Context, collection string, match map[string]interface{}) ([]types.Document, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	col, ok := s.w.collections[collection]
	if !ok {
		return nil, errdefs.NewNotFound("collection", collection)
	}
	var out []types.Document
	for _, doc := range col.docs {
		if documentMatches(doc.Data, match) {
			out = append(out, cloneDocument(*doc))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func documentMatches(data, match map[string]interface{}) bool {
	for k, want := range match {
		got, ok := data[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// documentETag derives a content hash so equal data yields an equal
// etag.
func documentETag(data map[string]interface{}) string {
	b, err := json.Marshal(data)
	if err != nil {
		b = []byte{}
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:8])
}

func cloneDocument(d types.Document) types.Document {
	d.Data = copyAnyMap(d.Data)
	return d
}
