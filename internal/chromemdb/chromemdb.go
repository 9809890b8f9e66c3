package chromemdb

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"document-qa/internal/embedding"
	"document-qa/internal/index"
	"document-qa/internal/models"
)

// Store is a chromem-go backed vector collection. chromem keeps the
// collection inside the process, persisted under a directory or purely
// in memory, so there is no external service to run. Scores are cosine
// similarities.
type Store struct {
	db             *chromem.DB
	collection     *chromem.Collection
	collectionName string
	embed          chromem.EmbeddingFunc
}

// NewStore opens (or creates) the database under dbPath. With inMemory
// set, nothing touches disk; dbPath is ignored.
func NewStore(dbPath, collectionName string, inMemory, compress bool, embed embedding.Func) (*Store, error) {
	var (
		db  *chromem.DB
		err error
	)
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dbPath, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	return &Store{
		db:             db,
		collectionName: collectionName,
		embed:          chromem.EmbeddingFunc(embed),
	}, nil
}

// Build creates or reuses the collection. A non-empty collection is
// reused as is unless overwrite is set, in which case it is deleted
// and re-embedded from the given chunks.
func (s *Store) Build(ctx context.Context, chunks []models.Chunk, overwrite bool) error {
	if existing := s.db.GetCollection(s.collectionName, s.embed); existing != nil {
		if !overwrite && existing.Count() > 0 {
			s.collection = existing
			log.Info().Str("collection", s.collectionName).Int("count", existing.Count()).Msg("Reusing existing collection")
			return nil
		}
		if err := s.db.DeleteCollection(s.collectionName); err != nil {
			return fmt.Errorf("failed to drop collection: %w", err)
		}
	}

	collection, err := s.db.CreateCollection(s.collectionName, nil, s.embed)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	s.collection = collection

	if len(chunks) == 0 {
		log.Warn().Str("collection", s.collectionName).Msg("Built empty collection")
		return nil
	}

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chromem.Document{
			ID:       chunk.ID(),
			Content:  chunk.Content,
			Metadata: chunk.Metadata(),
		}
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}

	log.Info().Str("collection", s.collectionName).Int("count", len(docs)).Msg("Built collection")
	return nil
}

// ready attaches to the collection, lazily for stores that only ever
// query. A store whose collection was never built is unavailable.
func (s *Store) ready() (*chromem.Collection, error) {
	if s.collection != nil {
		return s.collection, nil
	}
	collection := s.db.GetCollection(s.collectionName, s.embed)
	if collection == nil {
		return nil, fmt.Errorf("%w: collection %q has not been built", index.ErrIndexUnavailable, s.collectionName)
	}
	s.collection = collection
	return collection, nil
}

// Query embeds text and returns up to k nearest chunks, closest first.
// k is clamped to the stored count; chromem rejects larger values.
func (s *Store) Query(ctx context.Context, text string, k int) ([]index.Hit, error) {
	collection, err := s.ready()
	if err != nil {
		return nil, err
	}

	count := collection.Count()
	if count == 0 {
		return nil, fmt.Errorf("%w: collection %q is empty", index.ErrIndexUnavailable, s.collectionName)
	}
	if k > count {
		k = count
	}
	if k <= 0 {
		return nil, nil
	}

	results, err := collection.Query(ctx, text, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	hits := make([]index.Hit, len(results))
	for i, res := range results {
		hits[i] = index.Hit{
			Chunk: models.ChunkFromMetadata(res.Content, res.Metadata),
			Score: float64(res.Similarity),
		}
	}
	return hits, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	collection, err := s.ready()
	if err != nil {
		return 0, err
	}
	return collection.Count(), nil
}

func (s *Store) Metric() index.Metric { return index.MetricCosine }

func (s *Store) Close() error {
	s.collection = nil
	return nil
}
