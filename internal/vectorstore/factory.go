package vectorstore

import (
	"fmt"

	"github.com/fyrsmithlabs/repoqa/internal/config"
	"go.uber.org/zap"
)

// NewStore creates a Store based on the configuration.
//
// The vectorstore.provider config field selects the backend:
//   - "chromem" (default): embedded store persisted under the data dir,
//     no external service required
//   - "qdrant": external Qdrant server
func NewStore(cfg *config.Config, embedder Embedder, logger *zap.Logger) (Store, error) {
	switch cfg.VectorStore.Provider {
	case "chromem", "":
		chromemCfg := ChromemConfig{
			Path:     cfg.VectorStoreDir(),
			Compress: cfg.VectorStore.Compress,
		}
		return NewChromemStore(chromemCfg, embedder, logger)

	case "qdrant":
		qdrantCfg := QdrantConfig{
			URL:      cfg.VectorStore.QdrantURL,
			GRPCPort: cfg.VectorStore.QdrantGRPCPort,
		}
		return NewQdrantStore(qdrantCfg, embedder, logger)

	default:
		return nil, fmt.Errorf("%w: unsupported vectorstore provider %q (supported: chromem, qdrant)",
			ErrInvalidConfig, cfg.VectorStore.Provider)
	}
}
