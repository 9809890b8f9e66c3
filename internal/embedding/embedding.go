package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"document-qa/internal/config"
	"document-qa/internal/models"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Func computes the embedding vector for one text. The vector store
// calls it for both chunk contents and queries.
type Func func(ctx context.Context, text string) ([]float32, error)

// ForConfig returns the embedding function for the configured
// provider.
func ForConfig(cfg *config.LLMConfig) (Func, error) {
	switch cfg.Provider {
	case "local":
		return NewLocalEmbedder(cfg.Dimensions).Embed, nil
	case "openai":
		embedder, err := NewEmbedder(cfg)
		if err != nil {
			return nil, err
		}
		return embedder.EmbedQuery, nil
	case "ollama":
		embedder, err := NewOllamaEmbedder(cfg)
		if err != nil {
			return nil, err
		}
		return embedder.EmbedQuery, nil
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", config.ErrInvalidConfig, cfg.Provider)
	}
}

// NewEmbedder creates an embedder backed by an OpenAI-compatible
// endpoint.
func NewEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(cfg.APIKey(), "Bearer ")),
		openai.WithModel(cfg.Model),
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding LLM: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}

// NewOllamaEmbedder creates an embedder backed by a local ollama
// server.
func NewOllamaEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding LLM: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}

// EmbedChunks embeds every chunk, returning vectors aligned with the
// input. Used by stores that keep embeddings in an external database.
func EmbedChunks(ctx context.Context, embed Func, chunks []models.Chunk) ([][]float32, error) {
	if len(chunks) == 0 {
		log.Info().Msg("No chunks to embed")
		return nil, nil
	}

	vectors := make([][]float32, len(chunks))
	for i, chunk := range chunks {
		vec, err := embed(ctx, chunk.Content)
		if err != nil {
			return nil, fmt.Errorf("embed chunk %d: %w", chunk.ChunkIndex, err)
		}
		vectors[i] = vec
	}
	return vectors, nil
}
