// Package vectorstore provides vector index storage and similarity search.
//
// Each indexed repository is stored as its own collection. The Store
// interface is backend-agnostic; implementations exist for chromem-go
// (embedded, default) and Qdrant (external server).
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Sentinel errors for vector store operations.
var (
	// ErrCollectionNotFound is returned when a collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyDocuments indicates empty or nil documents.
	ErrEmptyDocuments = errors.New("empty or nil documents")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("failed to generate embeddings")

	// ErrInvalidCollectionName indicates collection name validation failure.
	ErrInvalidCollectionName = errors.New("invalid collection name")
)

// Embedder generates vector embeddings from text.
//
// Embeddings are dense numerical representations that capture semantic
// meaning, enabling similarity search. The method set is compatible with
// langchaingo's embeddings.Embedder so implementations can be shared.
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Store is the interface for vector storage operations.
//
// One collection holds the chunks of one indexed repository. Collection
// names must pass ValidateCollectionName; use SanitizeCollectionName to
// derive a valid name from a repository name.
type Store interface {
	// AddDocuments embeds and stores documents in the named collection,
	// creating it if needed. Returns the stored document IDs.
	AddDocuments(ctx context.Context, collection string, docs []Document) ([]string, error)

	// Search performs top-k similarity search in the named collection.
	// k is capped at the collection size; an empty collection yields no
	// results rather than an error.
	Search(ctx context.Context, collection, query string, k int) ([]SearchResult, error)

	// Collections lists stored collections with document counts.
	Collections(ctx context.Context) ([]CollectionInfo, error)

	// DeleteCollection removes a collection and all its documents.
	DeleteCollection(ctx context.Context, collection string) error

	// Close releases backend resources.
	Close() error
}

// collectionNamePattern restricts collection names to identifiers that are
// safe across backends and the filesystem.
var collectionNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// ValidateCollectionName checks that a collection name is safe to use.
func ValidateCollectionName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: collection name cannot be empty", ErrInvalidCollectionName)
	}
	if !collectionNamePattern.MatchString(name) {
		return fmt.Errorf("%w: collection name must match %s, got %q",
			ErrInvalidCollectionName, collectionNamePattern.String(), name)
	}
	return nil
}

// SanitizeCollectionName derives a valid collection name from an arbitrary
// string such as a repository name. Uppercase letters are lowered and any
// character outside [a-z0-9_-] becomes an underscore.
func SanitizeCollectionName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	s := strings.Trim(b.String(), "_-")
	if len(s) > 64 {
		s = s[:64]
	}
	return s
}
