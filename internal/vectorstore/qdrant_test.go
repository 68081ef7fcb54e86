package vectorstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lcqdrant "github.com/tmc/langchaingo/vectorstores/qdrant"
	"go.uber.org/zap"
)

// flatEmbedder returns constant vectors of a fixed width.
type flatEmbedder struct {
	dim int
}

func (e flatEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = make([]float32, e.dim)
		vectors[i][0] = 1
	}
	return vectors, nil
}

func (e flatEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	vec := make([]float32, e.dim)
	vec[0] = 1
	return vec, nil
}

// sizedEmbedder additionally reports its output width up front.
type sizedEmbedder struct {
	flatEmbedder
}

func (e sizedEmbedder) Dimension() int { return e.dim }

// fakeAdmin is an in-memory collectionAdmin.
type fakeAdmin struct {
	mu       sync.Mutex
	existing map[string]int // name -> point count
	created  map[string]int // name -> vector size passed to CreateCollection
	deleted  []string
}

func newFakeAdmin(existing map[string]int) *fakeAdmin {
	if existing == nil {
		existing = make(map[string]int)
	}
	return &fakeAdmin{existing: existing, created: make(map[string]int)}
}

func (a *fakeAdmin) CollectionExists(_ context.Context, name string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.existing[name]
	return ok, nil
}

func (a *fakeAdmin) CreateCollection(_ context.Context, name string, vectorSize int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.created[name] = vectorSize
	a.existing[name] = 0
	return nil
}

func (a *fakeAdmin) DeleteCollection(_ context.Context, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.existing[name]; !ok {
		return ErrCollectionNotFound
	}
	delete(a.existing, name)
	a.deleted = append(a.deleted, name)
	return nil
}

func (a *fakeAdmin) ListCollections(_ context.Context) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	names := make([]string, 0, len(a.existing))
	for name := range a.existing {
		names = append(names, name)
	}
	return names, nil
}

func (a *fakeAdmin) CollectionPoints(_ context.Context, name string) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	count, ok := a.existing[name]
	if !ok {
		return 0, ErrCollectionNotFound
	}
	return count, nil
}

func (a *fakeAdmin) Close() error { return nil }

// fakeQdrantServer fakes the subset of the Qdrant REST API that the
// langchaingo store talks to: point upserts and searches.
type fakeQdrantServer struct {
	mu            sync.Mutex
	upserts       map[string]int // collection -> upserted point count
	searchResults []map[string]interface{}
}

func (f *fakeQdrantServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		// /collections/{name}/points[/search]
		if len(parts) < 3 || parts[0] != "collections" || parts[2] != "points" {
			http.NotFound(w, r)
			return
		}
		collection := parts[1]

		if len(parts) == 4 && parts[3] == "search" {
			resp := map[string]interface{}{"result": f.searchResults}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(resp)
			return
		}

		var body struct {
			Batch struct {
				Ids []string `json:"ids"`
			} `json:"batch"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.upserts[collection] += len(body.Batch.Ids)
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":{"status":"completed"},"status":"ok"}`))
	})
}

func newQdrantTestStore(t *testing.T, serverURL string, embedder Embedder, admin collectionAdmin) *QdrantStore {
	t.Helper()
	cfg := QdrantConfig{URL: serverURL, GRPCPort: 6334}
	require.NoError(t, cfg.Validate())
	return &QdrantStore{
		config:   cfg,
		embedder: embedder,
		logger:   zap.NewNop(),
		admin:    admin,
		stores:   make(map[string]lcqdrant.Store),
	}
}

func TestQdrantConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  QdrantConfig
		wantErr bool
	}{
		{"valid", QdrantConfig{URL: "http://localhost:6333", GRPCPort: 6334}, false},
		{"missing URL", QdrantConfig{GRPCPort: 6334}, true},
		{"URL without host", QdrantConfig{URL: "not a url", GRPCPort: 6334}, true},
		{"zero grpc port", QdrantConfig{URL: "http://localhost:6333"}, true},
		{"grpc port out of range", QdrantConfig{URL: "http://localhost:6333", GRPCPort: 70000}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestQdrantAddDocumentsCreatesMissingCollection(t *testing.T) {
	fake := &fakeQdrantServer{upserts: make(map[string]int)}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	admin := newFakeAdmin(nil)
	store := newQdrantTestStore(t, srv.URL, sizedEmbedder{flatEmbedder{dim: 16}}, admin)

	ids, err := store.AddDocuments(context.Background(), "myrepo", []Document{
		{ID: "chunk-1", Content: "package main"},
		{ID: "chunk-2", Content: "func main() {}"},
	})
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	assert.Equal(t, 16, admin.created["myrepo"], "collection should be created with the embedder's vector size")
	assert.Equal(t, 2, fake.upserts["myrepo"])
}

func TestQdrantAddDocumentsExistingCollectionSkipsCreate(t *testing.T) {
	fake := &fakeQdrantServer{upserts: make(map[string]int)}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	admin := newFakeAdmin(map[string]int{"myrepo": 5})
	store := newQdrantTestStore(t, srv.URL, sizedEmbedder{flatEmbedder{dim: 16}}, admin)

	_, err := store.AddDocuments(context.Background(), "myrepo", []Document{
		{ID: "chunk-1", Content: "package main"},
	})
	require.NoError(t, err)

	assert.Empty(t, admin.created)
	assert.Equal(t, 1, fake.upserts["myrepo"])
}

func TestQdrantAddDocumentsMeasuresVectorSize(t *testing.T) {
	fake := &fakeQdrantServer{upserts: make(map[string]int)}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	admin := newFakeAdmin(nil)
	// Plain embedder without a Dimension method: the store embeds a
	// sample text to size the new collection.
	store := newQdrantTestStore(t, srv.URL, flatEmbedder{dim: 24}, admin)

	_, err := store.AddDocuments(context.Background(), "myrepo", []Document{
		{ID: "chunk-1", Content: "package main"},
	})
	require.NoError(t, err)

	assert.Equal(t, 24, admin.created["myrepo"])
}

func TestQdrantAddDocumentsValidation(t *testing.T) {
	admin := newFakeAdmin(nil)
	store := newQdrantTestStore(t, "http://localhost:6333", flatEmbedder{dim: 4}, admin)

	_, err := store.AddDocuments(context.Background(), "myrepo", nil)
	assert.ErrorIs(t, err, ErrEmptyDocuments)

	_, err = store.AddDocuments(context.Background(), "bad name!", []Document{{ID: "a", Content: "x"}})
	assert.ErrorIs(t, err, ErrInvalidCollectionName)

	_, err = store.AddDocuments(context.Background(), "myrepo", []Document{{Content: "no id"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no ID")
}

func TestQdrantSearch(t *testing.T) {
	fake := &fakeQdrantServer{
		upserts: make(map[string]int),
		searchResults: []map[string]interface{}{
			{
				"score": 0.92,
				"payload": map[string]interface{}{
					"content": "func NewRouter() *Router",
					"id":      "chunk-7",
					"source":  "router.go",
				},
			},
			{
				"score": 0.41,
				"payload": map[string]interface{}{
					"content": "type Router struct",
					"id":      "chunk-3",
					"source":  "router.go",
				},
			},
		},
	}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	admin := newFakeAdmin(map[string]int{"myrepo": 2})
	store := newQdrantTestStore(t, srv.URL, sizedEmbedder{flatEmbedder{dim: 16}}, admin)

	results, err := store.Search(context.Background(), "myrepo", "how is routing set up", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "chunk-7", results[0].ID)
	assert.Equal(t, "func NewRouter() *Router", results[0].Content)
	assert.InDelta(t, 0.92, results[0].Score, 0.001)
	assert.Equal(t, "router.go", results[0].Metadata["source"])
	assert.Equal(t, "chunk-3", results[1].ID)
}

func TestQdrantSearchValidation(t *testing.T) {
	admin := newFakeAdmin(nil)
	store := newQdrantTestStore(t, "http://localhost:6333", flatEmbedder{dim: 4}, admin)

	_, err := store.Search(context.Background(), "myrepo", "", 5)
	require.Error(t, err)

	_, err = store.Search(context.Background(), "myrepo", "query", 0)
	require.Error(t, err)

	_, err = store.Search(context.Background(), "bad name!", "query", 5)
	assert.ErrorIs(t, err, ErrInvalidCollectionName)
}

func TestQdrantCollections(t *testing.T) {
	admin := newFakeAdmin(map[string]int{
		"zeta-repo":  3,
		"alpha-repo": 12,
	})
	store := newQdrantTestStore(t, "http://localhost:6333", flatEmbedder{dim: 4}, admin)

	infos, err := store.Collections(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, "alpha-repo", infos[0].Name)
	assert.Equal(t, 12, infos[0].Count)
	assert.Equal(t, "zeta-repo", infos[1].Name)
	assert.Equal(t, 3, infos[1].Count)
}

func TestQdrantDeleteCollection(t *testing.T) {
	admin := newFakeAdmin(map[string]int{"myrepo": 2})
	store := newQdrantTestStore(t, "http://localhost:6333", flatEmbedder{dim: 4}, admin)

	require.NoError(t, store.DeleteCollection(context.Background(), "myrepo"))
	assert.Equal(t, []string{"myrepo"}, admin.deleted)

	err := store.DeleteCollection(context.Background(), "myrepo")
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}
