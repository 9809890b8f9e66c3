package indexer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"document-qa/internal/chunker"
	"document-qa/internal/config"
	"document-qa/internal/index"
	"document-qa/internal/parser"
)

// Run loads the configured document, chunks it and builds the vector
// store. With force false an already-built collection is reused
// without re-embedding; with force true it is deleted and rebuilt.
func Run(ctx context.Context, cfg *config.Config, store index.Store, force bool) error {
	log.Info().Str("path", cfg.Document.Path).Msg("Loading document")
	text, err := parser.Load(cfg.Document.Path)
	if err != nil {
		return err
	}

	c, err := chunker.New(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return err
	}
	chunks := c.Split(text, filepath.Base(cfg.Document.Path))
	log.Info().
		Int("chunks", len(chunks)).
		Int("size", cfg.Chunking.Size).
		Int("overlap", cfg.Chunking.Overlap).
		Msg("Document chunked")

	if err := store.Build(ctx, chunks, force); err != nil {
		return fmt.Errorf("failed to build vector store: %w", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("stored", count).Str("collection", cfg.Index.Collection).Msg("Vector store ready")
	return nil
}

// Stats describes the serving collection.
type Stats struct {
	Status           string `json:"status"`
	Collection       string `json:"collection_name"`
	DocumentCount    int    `json:"document_count"`
	EmbeddingModel   string `json:"embedding_model"`
	PersistDirectory string `json:"persist_directory"`
	Error            string `json:"error,omitempty"`
}

// CollectStats reports the collection's state for diagnostics. A store
// that was never built reports status "error" rather than failing.
func CollectStats(ctx context.Context, cfg *config.Config, store index.Store) Stats {
	model := cfg.Embedding.Model
	if model == "" {
		model = cfg.Embedding.Provider
	}
	stats := Stats{
		Collection:       cfg.Index.Collection,
		EmbeddingModel:   model,
		PersistDirectory: storeLocation(cfg),
	}

	count, err := store.Count(ctx)
	if err != nil {
		stats.Status = "error"
		stats.Error = err.Error()
		return stats
	}
	stats.Status = "active"
	stats.DocumentCount = count
	return stats
}

// storeLocation names where the collection lives without exposing
// credentials from a database DSN.
func storeLocation(cfg *config.Config) string {
	switch cfg.Index.Backend {
	case "pgvector":
		return "postgres"
	default:
		if cfg.Index.InMemory {
			return "in-memory"
		}
		return cfg.Index.Path
	}
}
