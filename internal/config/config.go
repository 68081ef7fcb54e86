// Package config provides configuration loading for repoqa.
//
// Configuration is loaded from a YAML file with environment variable
// overrides and hardcoded defaults. See Load for precedence rules.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Sentinel errors for configuration validation.
var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingAPIKey = errors.New("missing API key")
)

// Config holds the complete repoqa configuration.
type Config struct {
	DataDir     string            `koanf:"data_dir"`
	Log         LogConfig         `koanf:"log"`
	GitHub      GitHubConfig      `koanf:"github"`
	Ingest      IngestConfig      `koanf:"ingest"`
	Chunking    ChunkingConfig    `koanf:"chunking"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	LLM         LLMConfig         `koanf:"llm"`
	Chat        ChatConfig        `koanf:"chat"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // console or json
}

// GitHubConfig holds GitHub API client configuration.
type GitHubConfig struct {
	// Token is the personal access token used for metadata requests.
	// Optional: unauthenticated requests work with lower rate limits.
	Token Secret `koanf:"token"`
}

// IngestConfig holds repository cloning and parsing configuration.
type IngestConfig struct {
	// CloneDepth limits git history fetched during clone. 1 = shallow.
	CloneDepth int `koanf:"clone_depth"`

	// MaxFileSize is the maximum size in bytes of a file to index.
	MaxFileSize int64 `koanf:"max_file_size"`
}

// ChunkingConfig holds text splitting configuration.
type ChunkingConfig struct {
	ChunkSize    int `koanf:"chunk_size"`
	ChunkOverlap int `koanf:"chunk_overlap"`
}

// EmbeddingsConfig holds embedding provider configuration.
type EmbeddingsConfig struct {
	// Provider selects the backend: "openai" (remote, default) or
	// "fastembed" (local ONNX models, no API key needed).
	Provider string `koanf:"provider"`

	// BaseURL is the base URL for the embedding API (openai provider).
	// Works with OpenAI or any OpenAI-compatible server (e.g. TEI).
	BaseURL string `koanf:"base_url"`

	// Model is the embedding model name.
	Model string `koanf:"model"`

	// APIKey authenticates against the embedding API.
	APIKey Secret `koanf:"api_key"`

	// BatchSize caps how many texts are embedded per request.
	BatchSize int `koanf:"batch_size"`

	// CacheDir caches downloaded model files (fastembed provider).
	// Empty means a "models" directory under the user cache dir.
	CacheDir string `koanf:"cache_dir"`
}

// VectorStoreConfig holds vector index configuration.
type VectorStoreConfig struct {
	// Provider selects the backend: "chromem" (embedded, default) or "qdrant".
	Provider string `koanf:"provider"`

	// Compress enables gzip compression for chromem persistence.
	Compress bool `koanf:"compress"`

	// QdrantURL is the Qdrant HTTP URL, used for point upserts and
	// searches when Provider is "qdrant".
	QdrantURL string `koanf:"qdrant_url"`

	// QdrantGRPCPort is the Qdrant gRPC port used for collection
	// management. This is a separate listener from the HTTP port.
	QdrantGRPCPort int `koanf:"qdrant_grpc_port"`
}

// LLMConfig holds chat model configuration.
type LLMConfig struct {
	// BaseURL is the base URL for the chat completion API.
	// Defaults to Groq's OpenAI-compatible endpoint.
	BaseURL string `koanf:"base_url"`

	// Model is the chat model name.
	Model string `koanf:"model"`

	// APIKey authenticates against the chat API.
	APIKey Secret `koanf:"api_key"`

	Temperature float64 `koanf:"temperature"`
	MaxTokens   int     `koanf:"max_tokens"`

	// RequestsPerSecond limits the outgoing request rate.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// ChatConfig holds retrieval and memory configuration for the QA loop.
type ChatConfig struct {
	// TopK is the number of chunks retrieved per question.
	TopK int `koanf:"top_k"`

	// HistoryTokenBudget bounds how many tokens of transcript are
	// rendered into the prompt. Oldest turns are dropped first.
	HistoryTokenBudget int `koanf:"history_token_budget"`
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		DataDir: defaultDataDir(),
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Ingest: IngestConfig{
			CloneDepth:  1,
			MaxFileSize: 1024 * 1024, // 1MB
		},
		Chunking: ChunkingConfig{
			ChunkSize:    1000,
			ChunkOverlap: 200,
		},
		Embeddings: EmbeddingsConfig{
			Provider:  "openai",
			BaseURL:   "https://api.openai.com/v1",
			Model:     "text-embedding-3-small",
			BatchSize: 64,
		},
		VectorStore: VectorStoreConfig{
			Provider:       "chromem",
			QdrantURL:      "http://localhost:6333",
			QdrantGRPCPort: 6334,
		},
		LLM: LLMConfig{
			BaseURL:           "https://api.groq.com/openai/v1",
			Model:             "llama-3.3-70b-versatile",
			Temperature:       0.2,
			MaxTokens:         2048,
			RequestsPerSecond: 1,
		},
		Chat: ChatConfig{
			TopK:               6,
			HistoryTokenBudget: 3000,
		},
	}
}

// defaultDataDir returns the default data directory (~/.local/share/repoqa),
// falling back to a relative path if the home directory is unknown.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".repoqa"
	}
	return filepath.Join(home, ".local", "share", "repoqa")
}

// ReposDir returns the directory where repositories are cloned.
func (c *Config) ReposDir() string {
	return filepath.Join(c.DataDir, "repos")
}

// VectorStoreDir returns the directory for vector index persistence.
func (c *Config) VectorStoreDir() string {
	return filepath.Join(c.DataDir, "vectorstore")
}

// MetaDir returns the directory for repository metadata records.
func (c *Config) MetaDir() string {
	return filepath.Join(c.DataDir, "meta")
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir is required", ErrInvalidConfig)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log format must be console or json, got %q", ErrInvalidConfig, c.Log.Format)
	}
	if c.Ingest.MaxFileSize <= 0 {
		return fmt.Errorf("%w: max_file_size must be positive", ErrInvalidConfig)
	}
	if c.Ingest.MaxFileSize > 10*1024*1024 {
		return fmt.Errorf("%w: max_file_size cannot exceed 10MB", ErrInvalidConfig)
	}
	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive", ErrInvalidConfig)
	}
	if c.Chunking.ChunkOverlap < 0 || c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must be in [0, chunk_size)", ErrInvalidConfig)
	}
	switch c.Embeddings.Provider {
	case "openai", "":
		if c.Embeddings.BaseURL == "" || c.Embeddings.Model == "" {
			return fmt.Errorf("%w: embeddings base_url and model are required", ErrInvalidConfig)
		}
	case "fastembed":
		if c.Embeddings.Model == "" {
			return fmt.Errorf("%w: embeddings model is required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unsupported embeddings provider %q (supported: openai, fastembed)", ErrInvalidConfig, c.Embeddings.Provider)
	}
	if c.Embeddings.BatchSize <= 0 {
		return fmt.Errorf("%w: embeddings batch_size must be positive", ErrInvalidConfig)
	}
	switch c.VectorStore.Provider {
	case "chromem", "qdrant":
	default:
		return fmt.Errorf("%w: unsupported vectorstore provider %q (supported: chromem, qdrant)", ErrInvalidConfig, c.VectorStore.Provider)
	}
	if c.VectorStore.Provider == "qdrant" {
		if c.VectorStore.QdrantURL == "" {
			return fmt.Errorf("%w: qdrant_url is required for the qdrant provider", ErrInvalidConfig)
		}
		if c.VectorStore.QdrantGRPCPort <= 0 || c.VectorStore.QdrantGRPCPort > 65535 {
			return fmt.Errorf("%w: qdrant_grpc_port must be a valid port", ErrInvalidConfig)
		}
	}
	if c.LLM.BaseURL == "" || c.LLM.Model == "" {
		return fmt.Errorf("%w: llm base_url and model are required", ErrInvalidConfig)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("%w: llm max_tokens must be positive", ErrInvalidConfig)
	}
	if c.LLM.RequestsPerSecond <= 0 {
		return fmt.Errorf("%w: llm requests_per_second must be positive", ErrInvalidConfig)
	}
	if c.Chat.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive", ErrInvalidConfig)
	}
	if c.Chat.HistoryTokenBudget <= 0 {
		return fmt.Errorf("%w: history_token_budget must be positive", ErrInvalidConfig)
	}
	return nil
}
