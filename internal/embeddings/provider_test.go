package embeddings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProviderOpenAI(t *testing.T) {
	cfg := validConfig()
	cfg.Provider = "openai"
	cfg.Model = "text-embedding-3-small"

	p, err := NewProvider(cfg)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, 1536, p.Dimension())
}

func TestNewProviderDefaultsToOpenAI(t *testing.T) {
	cfg := validConfig()
	cfg.Provider = ""

	p, err := NewProvider(cfg)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, 384, p.Dimension())
}

func TestNewProviderUnknown(t *testing.T) {
	cfg := validConfig()
	cfg.Provider = "sesame-street"

	_, err := NewProvider(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "sesame-street")
}

func TestNewFastEmbedProviderUnsupportedModel(t *testing.T) {
	_, err := NewFastEmbedProvider(FastEmbedConfig{Model: "made-up-model"})
	// Fails with an unsupported-model error on CGO builds, and with
	// ErrFastEmbedNotAvailable otherwise; either way it must not succeed.
	require.Error(t, err)
}

func TestDetectDimensionFromModel(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{"BAAI/bge-small-en-v1.5", 384},
		{"BAAI/bge-base-en-v1.5", 768},
		{"BAAI/bge-small-zh-v1.5", 512},
		{"sentence-transformers/all-MiniLM-L6-v2", 384},
		{"text-embedding-3-small", 1536},
		{"text-embedding-3-large", 3072},
		{"text-embedding-ada-002", 1536},
		{"some-base-model", 768},
		{"some-large-model", 1024},
		{"totally-unknown", 384},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, detectDimensionFromModel(tt.model))
		})
	}
}
