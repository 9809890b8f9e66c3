package pgvector

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"document-qa/internal/config"
	"document-qa/internal/embedding"
	"document-qa/internal/index"
	"document-qa/internal/models"
)

// Document is one stored chunk row. The embedding column uses the
// pgvector extension; the value is carried as a pgvector literal
// ("[0.1,0.2,...]") so the text input function parses it on insert.
type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`

	ID          int64   `bun:"id,pk,autoincrement"`
	Content     string  `bun:"content,notnull"`
	Embedding   string  `bun:"embedding,notnull"`
	Page        int     `bun:"page,notnull"`
	ChunkIndex  int     `bun:"chunk_id,notnull"`
	TotalChunks int     `bun:"total_chunks,notnull"`
	Source      string  `bun:"source,notnull"`
	Distance    float64 `bun:"distance,scanonly"`
}

// Store is a Postgres/pgvector backed vector collection. Nearest
// neighbors are ordered by the `<->` euclidean distance operator, so
// scores are L2 distances.
type Store struct {
	db         *bun.DB
	embed      embedding.Func
	vectorSize int
}

func NewStore(cfg *config.DatabaseConfig, embed embedding.Func) (*Store, error) {
	sqldb, err := ConnectDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Store{
		db:         NewDB(sqldb, cfg.Debug),
		embed:      embed,
		vectorSize: cfg.VectorSize,
	}, nil
}

func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.DSN
	if !strings.Contains(dsn, "?") {
		dsn += "?sslmode=disable"
	}
	opts := []pgdriver.Option{pgdriver.WithDSN(dsn)}
	if cfg.Password != "" {
		opts = append(opts, pgdriver.WithPassword(cfg.Password))
	}
	return sql.OpenDB(pgdriver.NewConnector(opts...)), nil
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// Build fills the documents table. An already populated table is
// reused as is unless overwrite is set, in which case it is dropped
// and re-embedded from the given chunks.
func (s *Store) Build(ctx context.Context, chunks []models.Chunk, overwrite bool) error {
	if !overwrite {
		if count, err := s.count(ctx); err == nil && count > 0 {
			log.Info().Int("count", count).Msg("Reusing existing documents table")
			return nil
		}
	}

	if err := s.dropDocuments(ctx); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}
	if err := s.initSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	if len(chunks) == 0 {
		log.Warn().Msg("Built empty documents table")
		return nil
	}

	vectors, err := embedding.EmbedChunks(ctx, s.embed, chunks)
	if err != nil {
		return err
	}

	docs := make([]Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = Document{
			Content:     chunk.Content,
			Embedding:   vectorLiteral(vectors[i]),
			Page:        chunk.Page,
			ChunkIndex:  chunk.ChunkIndex,
			TotalChunks: chunk.TotalChunks,
			Source:      chunk.Source,
		}
	}
	if _, err := s.db.NewInsert().Model(&docs).Exec(ctx); err != nil {
		return fmt.Errorf("failed to store documents: %w", err)
	}

	log.Info().Int("count", len(docs)).Msg("Built documents table")
	return nil
}

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return err
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS documents (
		id BIGSERIAL PRIMARY KEY,
		content TEXT NOT NULL,
		embedding vector(%d) NOT NULL,
		page INT NOT NULL,
		chunk_id INT NOT NULL,
		total_chunks INT NOT NULL,
		source TEXT NOT NULL
	)`, s.vectorSize)
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

func (s *Store) dropDocuments(ctx context.Context) error {
	_, err := s.db.NewDropTable().Model((*Document)(nil)).IfExists().Exec(ctx)
	return err
}

// Query embeds text and returns up to k nearest chunks, closest first,
// with the L2 distance selected alongside each row.
func (s *Store) Query(ctx context.Context, text string, k int) ([]index.Hit, error) {
	count, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: documents table is empty", index.ErrIndexUnavailable)
	}
	if k <= 0 {
		return nil, nil
	}

	vec, err := s.embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	lit := vectorLiteral(vec)

	var docs []Document
	err = s.db.NewSelect().
		Model(&docs).
		ColumnExpr("d.*").
		ColumnExpr("embedding <-> ?::vector AS distance", lit).
		OrderExpr("embedding <-> ?::vector", lit).
		Limit(k).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}

	hits := make([]index.Hit, len(docs))
	for i, doc := range docs {
		hits[i] = index.Hit{
			Chunk: models.Chunk{
				Content:     doc.Content,
				Page:        doc.Page,
				ChunkIndex:  doc.ChunkIndex,
				TotalChunks: doc.TotalChunks,
				Source:      doc.Source,
			},
			Score: doc.Distance,
		}
	}
	return hits, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	count, err := s.count(ctx)
	if err != nil {
		// the table not existing yet means the loading pass never ran
		return 0, fmt.Errorf("%w: %v", index.ErrIndexUnavailable, err)
	}
	return count, nil
}

func (s *Store) count(ctx context.Context) (int, error) {
	return s.db.NewSelect().Model((*Document)(nil)).Count(ctx)
}

func (s *Store) Metric() index.Metric { return index.MetricL2 }

func (s *Store) Close() error { return s.db.Close() }

// vectorLiteral renders a pgvector input literal.
func vectorLiteral(vec []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}
