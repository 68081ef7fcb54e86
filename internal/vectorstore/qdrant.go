package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"sync"

	qdrantclient "github.com/qdrant/go-client/qdrant"
	"github.com/tmc/langchaingo/schema"
	lcqdrant "github.com/tmc/langchaingo/vectorstores/qdrant"
	"go.uber.org/zap"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// QdrantConfig holds configuration for the Qdrant backend.
type QdrantConfig struct {
	// URL is the Qdrant HTTP URL (e.g. http://localhost:6333), used for
	// point upserts and searches.
	URL string

	// GRPCPort is the Qdrant gRPC port used for collection management.
	GRPCPort int
}

// Validate validates the configuration.
func (c *QdrantConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("%w: qdrant URL is required", ErrInvalidConfig)
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("%w: parsing qdrant URL: %v", ErrInvalidConfig, err)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("%w: qdrant URL has no host", ErrInvalidConfig)
	}
	if c.GRPCPort <= 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("%w: invalid qdrant gRPC port: %d", ErrInvalidConfig, c.GRPCPort)
	}
	return nil
}

// collectionAdmin manages collection lifecycle on a Qdrant server. The
// production implementation wraps the official gRPC client; tests inject
// a fake.
type collectionAdmin interface {
	CollectionExists(ctx context.Context, name string) (bool, error)
	CreateCollection(ctx context.Context, name string, vectorSize int) error
	DeleteCollection(ctx context.Context, name string) error
	ListCollections(ctx context.Context) ([]string, error)
	CollectionPoints(ctx context.Context, name string) (int, error)
	Close() error
}

// grpcAdmin implements collectionAdmin with the official Qdrant gRPC client.
type grpcAdmin struct {
	client *qdrantclient.Client
}

func newGRPCAdmin(cfg QdrantConfig) (*grpcAdmin, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing qdrant URL: %w", err)
	}

	client, err := qdrantclient.NewClient(&qdrantclient.Config{
		Host: u.Hostname(),
		Port: cfg.GRPCPort,
	})
	if err != nil {
		return nil, fmt.Errorf("creating qdrant client: %w", err)
	}
	return &grpcAdmin{client: client}, nil
}

func (a *grpcAdmin) CollectionExists(ctx context.Context, name string) (bool, error) {
	info, err := a.client.GetCollectionInfo(ctx, name)
	if err != nil {
		if st, ok := status.FromError(err); ok && st.Code() == grpccodes.NotFound {
			return false, nil
		}
		return false, err
	}
	return info != nil, nil
}

func (a *grpcAdmin) CreateCollection(ctx context.Context, name string, vectorSize int) error {
	return a.client.CreateCollection(ctx, &qdrantclient.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrantclient.NewVectorsConfig(&qdrantclient.VectorParams{
			Size:     uint64(vectorSize),
			Distance: qdrantclient.Distance_Cosine,
		}),
	})
}

func (a *grpcAdmin) DeleteCollection(ctx context.Context, name string) error {
	err := a.client.DeleteCollection(ctx, name)
	if err != nil {
		if st, ok := status.FromError(err); ok && st.Code() == grpccodes.NotFound {
			return ErrCollectionNotFound
		}
	}
	return err
}

func (a *grpcAdmin) ListCollections(ctx context.Context) ([]string, error) {
	return a.client.ListCollections(ctx)
}

func (a *grpcAdmin) CollectionPoints(ctx context.Context, name string) (int, error) {
	info, err := a.client.GetCollectionInfo(ctx, name)
	if err != nil {
		if st, ok := status.FromError(err); ok && st.Code() == grpccodes.NotFound {
			return 0, ErrCollectionNotFound
		}
		return 0, err
	}
	if info.PointsCount == nil {
		return 0, nil
	}
	return int(*info.PointsCount), nil
}

func (a *grpcAdmin) Close() error {
	return a.client.Close()
}

// QdrantStore implements the Store interface against an external Qdrant
// server. Point upserts and searches go through langchaingo's qdrant
// vector store over HTTP; collection management goes through the official
// gRPC client.
type QdrantStore struct {
	config   QdrantConfig
	embedder Embedder
	logger   *zap.Logger
	admin    collectionAdmin

	mu     sync.Mutex
	stores map[string]lcqdrant.Store // one langchaingo store per collection
}

// NewQdrantStore creates a new QdrantStore with the given configuration.
func NewQdrantStore(config QdrantConfig, embedder Embedder, logger *zap.Logger) (*QdrantStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	admin, err := newGRPCAdmin(config)
	if err != nil {
		return nil, err
	}

	logger.Info("qdrant store initialized",
		zap.String("url", config.URL),
		zap.Int("grpc_port", config.GRPCPort),
	)

	return &QdrantStore{
		config:   config,
		embedder: embedder,
		logger:   logger,
		admin:    admin,
		stores:   make(map[string]lcqdrant.Store),
	}, nil
}

// collectionStore returns (creating if needed) the langchaingo store bound
// to the named collection.
func (s *QdrantStore) collectionStore(collectionName string) (lcqdrant.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if store, ok := s.stores[collectionName]; ok {
		return store, nil
	}

	qdrantURL, err := url.Parse(s.config.URL)
	if err != nil {
		return lcqdrant.Store{}, fmt.Errorf("parsing qdrant URL: %w", err)
	}

	store, err := lcqdrant.New(
		lcqdrant.WithURL(*qdrantURL),
		lcqdrant.WithCollectionName(collectionName),
		lcqdrant.WithEmbedder(s.embedder),
	)
	if err != nil {
		return lcqdrant.Store{}, fmt.Errorf("creating qdrant store for %s: %w", collectionName, err)
	}

	s.stores[collectionName] = store
	return store, nil
}

// ensureCollection creates the collection if the server does not have it
// yet, sized to the embedder's output dimension.
func (s *QdrantStore) ensureCollection(ctx context.Context, collectionName, probeText string) error {
	exists, err := s.admin.CollectionExists(ctx, collectionName)
	if err != nil {
		return fmt.Errorf("checking collection %s: %w", collectionName, err)
	}
	if exists {
		return nil
	}

	size := 0
	if d, ok := s.embedder.(interface{ Dimension() int }); ok {
		size = d.Dimension()
	}
	if size == 0 {
		// Embedder does not report its dimension; measure it.
		vec, err := s.embedder.EmbedQuery(ctx, probeText)
		if err != nil {
			return fmt.Errorf("%w: determining vector size: %v", ErrEmbeddingFailed, err)
		}
		size = len(vec)
	}

	if err := s.admin.CreateCollection(ctx, collectionName, size); err != nil {
		return fmt.Errorf("creating collection %s: %w", collectionName, err)
	}

	s.logger.Info("created collection",
		zap.String("collection", collectionName),
		zap.Int("vector_size", size),
	)
	return nil
}

// AddDocuments embeds and stores documents in the named collection,
// creating the collection on first use.
func (s *QdrantStore) AddDocuments(ctx context.Context, collectionName string, docs []Document) ([]string, error) {
	if err := ValidateCollectionName(collectionName); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrEmptyDocuments
	}

	store, err := s.collectionStore(collectionName)
	if err != nil {
		return nil, err
	}

	schemaDocs := make([]schema.Document, len(docs))
	ids := make([]string, len(docs))
	for i, doc := range docs {
		if doc.ID == "" {
			return nil, fmt.Errorf("document at index %d has no ID", i)
		}
		ids[i] = doc.ID

		metadata := doc.Metadata
		if metadata == nil {
			metadata = make(map[string]interface{})
		}
		// Keep the ID recoverable from search results
		metadata["id"] = doc.ID

		schemaDocs[i] = schema.Document{
			PageContent: doc.Content,
			Metadata:    metadata,
		}
	}

	// langchaingo's store only upserts points; every upsert into a
	// missing collection fails, so create it first.
	if err := s.ensureCollection(ctx, collectionName, docs[0].Content); err != nil {
		return nil, err
	}

	if _, err := store.AddDocuments(ctx, schemaDocs); err != nil {
		return nil, fmt.Errorf("adding documents to qdrant: %w", err)
	}

	s.logger.Debug("added documents to qdrant",
		zap.String("collection", collectionName),
		zap.Int("count", len(docs)),
	)

	return ids, nil
}

// Search performs top-k similarity search in the named collection.
func (s *QdrantStore) Search(ctx context.Context, collectionName, query string, k int) ([]SearchResult, error) {
	if err := ValidateCollectionName(collectionName); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	store, err := s.collectionStore(collectionName)
	if err != nil {
		return nil, err
	}

	docs, err := store.SimilaritySearch(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("similarity search in %s: %w", collectionName, err)
	}

	results := make([]SearchResult, len(docs))
	for i, doc := range docs {
		result := SearchResult{
			Content:  doc.PageContent,
			Metadata: doc.Metadata,
			Score:    doc.Score,
		}
		if id, ok := doc.Metadata["id"].(string); ok {
			result.ID = id
		}
		results[i] = result
	}

	return results, nil
}

// Collections lists stored collections with document counts.
func (s *QdrantStore) Collections(ctx context.Context) ([]CollectionInfo, error) {
	names, err := s.admin.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}

	infos := make([]CollectionInfo, 0, len(names))
	for _, name := range names {
		count, err := s.admin.CollectionPoints(ctx, name)
		if err != nil {
			if errors.Is(err, ErrCollectionNotFound) {
				// Dropped between list and describe
				continue
			}
			return nil, fmt.Errorf("describing collection %s: %w", name, err)
		}
		infos = append(infos, CollectionInfo{Name: name, Count: count})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	return infos, nil
}

// DeleteCollection removes a collection and all its documents.
func (s *QdrantStore) DeleteCollection(ctx context.Context, collectionName string) error {
	if err := ValidateCollectionName(collectionName); err != nil {
		return err
	}

	if err := s.admin.DeleteCollection(ctx, collectionName); err != nil {
		if errors.Is(err, ErrCollectionNotFound) {
			return fmt.Errorf("%w: %s", ErrCollectionNotFound, collectionName)
		}
		return fmt.Errorf("deleting collection %s: %w", collectionName, err)
	}

	s.mu.Lock()
	delete(s.stores, collectionName)
	s.mu.Unlock()

	s.logger.Info("deleted collection", zap.String("collection", collectionName))
	return nil
}

// Close releases the gRPC connection.
func (s *QdrantStore) Close() error {
	return s.admin.Close()
}
