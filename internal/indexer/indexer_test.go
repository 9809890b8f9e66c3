package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-qa/internal/chromemdb"
	"document-qa/internal/config"
	"document-qa/internal/embedding"
	"document-qa/internal/parser"
)

const fixtureText = "\n\n--- Page 1 ---\n\n" +
	"Agentic AI is AI that acts autonomously. It plans, decides and executes tasks without step-by-step human direction." +
	"\n\n--- Page 2 ---\n\n" +
	"Multi-agent systems coordinate several autonomous agents toward a shared goal."

func testConfig(t *testing.T, docPath string) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	cfg.Document.Path = docPath
	cfg.Chunking.Size = 200
	cfg.Chunking.Overlap = 40
	cfg.Index.InMemory = true
	return cfg
}

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ebook.txt")
	require.NoError(t, os.WriteFile(path, []byte(fixtureText), 0o644))
	return path
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, writeFixture(t))

	store, err := chromemdb.NewStore("", cfg.Index.Collection, true, false, embedding.NewLocalEmbedder(128).Embed)
	require.NoError(t, err)

	require.NoError(t, Run(ctx, cfg, store, false))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	hits, err := store.Query(ctx, "autonomous agents", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "ebook.txt", hits[0].Chunk.Source)
}

func TestRunIsIdempotentWithoutForce(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, writeFixture(t))

	store, err := chromemdb.NewStore("", cfg.Index.Collection, true, false, embedding.NewLocalEmbedder(128).Embed)
	require.NoError(t, err)

	require.NoError(t, Run(ctx, cfg, store, false))
	first, err := store.Count(ctx)
	require.NoError(t, err)

	require.NoError(t, Run(ctx, cfg, store, false))
	second, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRunMissingDocument(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "missing.txt"))

	store, err := chromemdb.NewStore("", cfg.Index.Collection, true, false, embedding.NewLocalEmbedder(128).Embed)
	require.NoError(t, err)

	err = Run(context.Background(), cfg, store, false)
	assert.ErrorIs(t, err, parser.ErrDocumentUnreadable)
}

func TestCollectStats(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, writeFixture(t))

	store, err := chromemdb.NewStore("", cfg.Index.Collection, true, false, embedding.NewLocalEmbedder(128).Embed)
	require.NoError(t, err)

	// before any build the collection does not exist
	stats := CollectStats(ctx, cfg, store)
	assert.Equal(t, "error", stats.Status)
	assert.NotEmpty(t, stats.Error)

	require.NoError(t, Run(ctx, cfg, store, false))

	stats = CollectStats(ctx, cfg, store)
	assert.Equal(t, "active", stats.Status)
	assert.Equal(t, cfg.Index.Collection, stats.Collection)
	assert.Equal(t, 2, stats.DocumentCount)
	assert.Equal(t, "local", stats.EmbeddingModel)
	assert.Equal(t, "in-memory", stats.PersistDirectory)
}
