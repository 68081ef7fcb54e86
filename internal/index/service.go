// Package index turns parsed repository files into a searchable vector
// index: it splits content into overlapping chunks, embeds them, and
// stores them as one collection per repository.
package index

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repoqa/internal/config"
	"github.com/fyrsmithlabs/repoqa/internal/ingest"
	"github.com/fyrsmithlabs/repoqa/internal/vectorstore"
)

// ErrNoChunks indicates that splitting produced no indexable chunks.
var ErrNoChunks = errors.New("no chunks produced from repository content")

// chunkSeparators is the split preference order: paragraph, line, word,
// then hard character cuts.
var chunkSeparators = []string{"\n\n", "\n", " ", ""}

// Service builds and manages repository vector indexes.
type Service struct {
	store    vectorstore.Store
	meta     *MetaStore
	splitter textsplitter.RecursiveCharacter
	logger   *zap.Logger
}

// NewService creates an indexing service.
func NewService(store vectorstore.Store, meta *MetaStore, chunking config.ChunkingConfig, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("vector store is required")
	}
	if meta == nil {
		return nil, fmt.Errorf("meta store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunking.ChunkSize),
		textsplitter.WithChunkOverlap(chunking.ChunkOverlap),
		textsplitter.WithSeparators(chunkSeparators),
	)

	return &Service{
		store:    store,
		meta:     meta,
		splitter: splitter,
		logger:   logger,
	}, nil
}

// IndexRepository chunks and stores the given files under a collection
// named after the repository. Re-indexing replaces the existing
// collection and metadata record.
//
// The new chunks are built in a fresh collection first; the previous
// collection and its record stay live until the new one is fully
// stored, so a failed embedding run never destroys the existing index.
func (s *Service) IndexRepository(ctx context.Context, repoName string, files []ingest.File, info *ingest.RepoInfo) (*Record, error) {
	if len(files) == 0 {
		return nil, ingest.ErrNoDocuments
	}

	key := RecordKey(repoName)
	if err := vectorstore.ValidateCollectionName(key); err != nil {
		return nil, fmt.Errorf("deriving collection name from %q: %w", repoName, err)
	}

	docs, err := s.chunk(files)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNoChunks
	}

	old, err := s.meta.Load(key)
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		return nil, fmt.Errorf("loading previous record: %w", err)
	}

	// Stage into a collection name not held by the live record.
	collection := key
	if old != nil && old.Collection == collection {
		collection = swapCollectionName(key)
	}

	// Clear any leftover from an interrupted earlier run; the live
	// collection (if any) is a different name and stays untouched.
	if err := s.store.DeleteCollection(ctx, collection); err != nil && !errors.Is(err, vectorstore.ErrCollectionNotFound) {
		return nil, fmt.Errorf("clearing staging collection %s: %w", collection, err)
	}

	s.logger.Info("embedding chunks",
		zap.String("collection", collection),
		zap.Int("files", len(files)),
		zap.Int("chunks", len(docs)),
	)

	if _, err := s.store.AddDocuments(ctx, collection, docs); err != nil {
		return nil, fmt.Errorf("storing chunks: %w", err)
	}

	record := &Record{
		RepoName:    repoName,
		Collection:  collection,
		TotalFiles:  len(files),
		TotalChunks: len(docs),
		RepoInfo:    info,
		IndexedAt:   time.Now(),
	}
	if err := s.meta.Save(record); err != nil {
		if derr := s.store.DeleteCollection(ctx, collection); derr != nil {
			s.logger.Warn("removing staged collection", zap.String("collection", collection), zap.Error(derr))
		}
		return nil, fmt.Errorf("saving metadata record: %w", err)
	}

	// The record now points at the new collection; drop the old one.
	if old != nil && old.Collection != collection {
		if err := s.store.DeleteCollection(ctx, old.Collection); err != nil && !errors.Is(err, vectorstore.ErrCollectionNotFound) {
			s.logger.Warn("removing replaced collection", zap.String("collection", old.Collection), zap.Error(err))
		}
	}

	return record, nil
}

// swapCollectionName derives the alternate collection name used while
// replacing a live index. Re-indexing alternates between the base name
// and this one.
func swapCollectionName(key string) string {
	const suffix = "_swap"
	if len(key) > 64-len(suffix) {
		key = strings.TrimRight(key[:64-len(suffix)], "_-")
	}
	return key + suffix
}

// chunk splits files into overlapping chunks with per-chunk metadata.
func (s *Service) chunk(files []ingest.File) ([]vectorstore.Document, error) {
	var docs []vectorstore.Document
	for _, file := range files {
		chunks, err := s.splitter.SplitText(file.Content)
		if err != nil {
			return nil, fmt.Errorf("splitting %s: %w", file.Path, err)
		}

		for i, chunk := range chunks {
			docs = append(docs, vectorstore.Document{
				ID:      uuid.NewString(),
				Content: chunk,
				Metadata: map[string]interface{}{
					"file_path":    file.Path,
					"file_name":    file.Name,
					"extension":    file.Ext,
					"chunk_index":  i,
					"total_chunks": len(chunks),
				},
			})
		}
	}
	return docs, nil
}

// List returns metadata records for all indexed repositories.
func (s *Service) List(ctx context.Context) ([]*Record, error) {
	return s.meta.List()
}

// Lookup returns the metadata record for a repository name.
func (s *Service) Lookup(ctx context.Context, repoName string) (*Record, error) {
	return s.meta.Load(RecordKey(repoName))
}

// Remove deletes a repository's collection and metadata record.
func (s *Service) Remove(ctx context.Context, repoName string) error {
	key := RecordKey(repoName)
	record, err := s.meta.Load(key)
	if err != nil {
		return err
	}

	if err := s.store.DeleteCollection(ctx, record.Collection); err != nil && !errors.Is(err, vectorstore.ErrCollectionNotFound) {
		return fmt.Errorf("deleting collection %s: %w", record.Collection, err)
	}
	if err := s.meta.Delete(key); err != nil {
		return err
	}

	s.logger.Info("removed repository index", zap.String("collection", record.Collection))
	return nil
}
