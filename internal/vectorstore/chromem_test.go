package vectorstore_test

import (
	"context"
	"math"
	"testing"

	"github.com/fyrsmithlabs/repoqa/internal/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubEmbedder returns deterministic normalized vectors for testing.
type stubEmbedder struct {
	vectorSize int
}

func (e *stubEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = e.makeEmbedding(text)
	}
	return embeddings, nil
}

func (e *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.makeEmbedding(text), nil
}

// makeEmbedding creates a normalized embedding from a text hash so that
// identical texts map to identical vectors.
func (e *stubEmbedder) makeEmbedding(text string) []float32 {
	embedding := make([]float32, e.vectorSize)
	hash := 0
	for _, c := range text {
		hash = (hash*31 + int(c)) % 1000
	}
	var sumSq float64
	for i := range embedding {
		embedding[i] = float32((hash+i)%100) / 100.0
		sumSq += float64(embedding[i]) * float64(embedding[i])
	}
	// chromem requires normalized vectors
	if sumSq > 0 {
		norm := float32(1.0 / math.Sqrt(sumSq))
		for i := range embedding {
			embedding[i] *= norm
		}
	}
	return embedding
}

func newTestStore(t *testing.T) *vectorstore.ChromemStore {
	t.Helper()
	store, err := vectorstore.NewChromemStore(
		vectorstore.ChromemConfig{Path: t.TempDir()},
		&stubEmbedder{vectorSize: 16},
		zap.NewNop(),
	)
	require.NoError(t, err)
	return store
}

func TestNewChromemStoreRequiresEmbedder(t *testing.T) {
	_, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{Path: t.TempDir()}, nil, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, vectorstore.ErrInvalidConfig)
}

func TestAddAndSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	docs := []vectorstore.Document{
		{
			ID:      "chunk-1",
			Content: "func main() { fmt.Println(\"hello\") }",
			Metadata: map[string]interface{}{
				"file_path":   "cmd/app/main.go",
				"chunk_index": 0,
			},
		},
		{
			ID:      "chunk-2",
			Content: "type Server struct { addr string }",
			Metadata: map[string]interface{}{
				"file_path":   "internal/server/server.go",
				"chunk_index": 0,
			},
		},
	}

	ids, err := store.AddDocuments(ctx, "myrepo", docs)
	require.NoError(t, err)
	assert.Equal(t, []string{"chunk-1", "chunk-2"}, ids)

	results, err := store.Search(ctx, "myrepo", "func main() { fmt.Println(\"hello\") }", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "chunk-1", results[0].ID)
	assert.Equal(t, "cmd/app/main.go", results[0].Metadata["file_path"])
	assert.Greater(t, results[0].Score, float32(0))
}

func TestSearchCapsKAtCollectionSize(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddDocuments(ctx, "small", []vectorstore.Document{
		{ID: "only", Content: "lonely chunk"},
	})
	require.NoError(t, err)

	results, err := store.Search(ctx, "small", "anything", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchUnknownCollection(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Search(context.Background(), "ghost", "query", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, vectorstore.ErrCollectionNotFound)
}

func TestAddDocumentsEmpty(t *testing.T) {
	store := newTestStore(t)

	_, err := store.AddDocuments(context.Background(), "myrepo", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, vectorstore.ErrEmptyDocuments)
}

func TestCollectionsAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddDocuments(ctx, "alpha", []vectorstore.Document{
		{ID: "a1", Content: "alpha one"},
		{ID: "a2", Content: "alpha two"},
	})
	require.NoError(t, err)
	_, err = store.AddDocuments(ctx, "beta", []vectorstore.Document{
		{ID: "b1", Content: "beta one"},
	})
	require.NoError(t, err)

	infos, err := store.Collections(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "alpha", infos[0].Name)
	assert.Equal(t, 2, infos[0].Count)
	assert.Equal(t, "beta", infos[1].Name)
	assert.Equal(t, 1, infos[1].Count)

	require.NoError(t, store.DeleteCollection(ctx, "alpha"))

	infos, err = store.Collections(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "beta", infos[0].Name)

	err = store.DeleteCollection(ctx, "alpha")
	assert.ErrorIs(t, err, vectorstore.ErrCollectionNotFound)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	embedder := &stubEmbedder{vectorSize: 16}

	store, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{Path: dir}, embedder, zap.NewNop())
	require.NoError(t, err)

	_, err = store.AddDocuments(ctx, "persisted", []vectorstore.Document{
		{ID: "p1", Content: "persisted chunk"},
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{Path: dir}, embedder, zap.NewNop())
	require.NoError(t, err)

	results, err := reopened.Search(ctx, "persisted", "persisted chunk", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "p1", results[0].ID)
}
