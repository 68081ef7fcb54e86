package embeddings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/repoqa/internal/config"
	"github.com/fyrsmithlabs/repoqa/internal/vectorstore"
)

// ErrEmbeddingFailed indicates embedding generation failure.
var ErrEmbeddingFailed = errors.New("failed to generate embeddings")

// Provider is the interface for embedding providers.
type Provider interface {
	vectorstore.Embedder
	// Dimension returns the embedding dimension for the current model.
	Dimension() int
	// Close releases resources held by the provider.
	Close() error
}

// detectDimensionFromModel returns the embedding dimension for a model name.
// Falls back to 384 if the model is unknown.
func detectDimensionFromModel(model string) int {
	if dim, ok := fastEmbedModelDimension(model); ok {
		return dim
	}
	switch model {
	case "text-embedding-3-small", "text-embedding-ada-002":
		return 1536
	case "text-embedding-3-large":
		return 3072
	}
	// Common naming patterns for sentence-transformer style models
	switch {
	case strings.Contains(model, "base"):
		return 768
	case strings.Contains(model, "large"):
		return 1024
	case strings.Contains(model, "small"), strings.Contains(model, "mini"), strings.Contains(model, "Mini"):
		return 384
	default:
		return 384
	}
}

// NewProvider creates an embedding provider based on the configuration.
//
// "openai" (the default) talks to any OpenAI-compatible endpoint over
// HTTP; "fastembed" runs a local ONNX model and needs no API key.
func NewProvider(cfg config.EmbeddingsConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai", "":
		svc, err := NewService(cfg)
		if err != nil {
			return nil, err
		}
		return &openaiProvider{
			Service:   svc,
			dimension: detectDimensionFromModel(cfg.Model),
		}, nil
	case "fastembed":
		return NewFastEmbedProvider(FastEmbedConfig{
			Model:    cfg.Model,
			CacheDir: cfg.CacheDir,
		})
	default:
		return nil, fmt.Errorf("%w: unknown embeddings provider %q (supported: openai, fastembed)",
			ErrInvalidConfig, cfg.Provider)
	}
}

// openaiProvider wraps Service to implement the Provider interface.
type openaiProvider struct {
	*Service
	dimension int
}

// Dimension returns the embedding dimension based on the configured model.
func (p *openaiProvider) Dimension() int {
	return p.dimension
}

// Close is a no-op since the service is HTTP-based.
func (p *openaiProvider) Close() error {
	return nil
}
