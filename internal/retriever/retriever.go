package retriever

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"document-qa/internal/config"
	"document-qa/internal/index"
	"document-qa/internal/models"
)

// Retriever runs threshold-filtered nearest-neighbor retrieval over a
// vector store.
type Retriever struct {
	store     index.Store
	score     ScoreFunc
	topK      int
	threshold float64
}

// New attaches to a built store. A store that was never built, or
// holds no chunks, is refused so serving fails fast.
func New(ctx context.Context, store index.Store, cfg *config.RetrievalConfig) (*Retriever, error) {
	count, err := store.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: vector store holds no chunks; run the loading pass first", index.ErrIndexUnavailable)
	}

	log.Debug().Int("count", count).Str("metric", string(store.Metric())).Msg("Retriever attached to store")
	return &Retriever{
		store:     store,
		score:     ForMetric(store.Metric()),
		topK:      cfg.TopK,
		threshold: cfg.SimilarityThreshold,
	}, nil
}

// Retrieve runs RetrieveFiltered with the configured top-k and
// threshold.
func (r *Retriever) Retrieve(ctx context.Context, question string) (RetrievalBatch, error) {
	return r.RetrieveFiltered(ctx, question, r.topK, r.threshold)
}

// RetrieveFiltered over-fetches 2k nearest chunks, converts raw scores
// to similarities, keeps those at or above threshold and returns at
// most k, best first. An empty batch is the no-evidence signal, not an
// error; errors mean the store itself failed. A blank question returns
// the empty batch without querying.
func (r *Retriever) RetrieveFiltered(ctx context.Context, question string, k int, threshold float64) (RetrievalBatch, error) {
	batch := RetrievalBatch{Question: question}
	// a blank question has nothing to embed, and the store rejects
	// empty query text
	if k <= 0 || strings.TrimSpace(question) == "" {
		return batch, nil
	}

	hits, err := r.store.Query(ctx, question, 2*k)
	if err != nil {
		return batch, err
	}

	results := make([]models.ScoredChunk, 0, len(hits))
	for _, hit := range hits {
		similarity := round4(r.score(hit.Score))
		// a zero query vector yields NaN scores, which are not evidence
		if math.IsNaN(similarity) || similarity < threshold {
			continue
		}
		results = append(results, models.ScoredChunk{Chunk: hit.Chunk, Similarity: similarity})
	}

	// explicit order: best first, ties by position in the document
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ChunkIndex < results[j].ChunkIndex
	})
	if len(results) > k {
		results = results[:k]
	}

	log.Debug().Str("question", question).Int("fetched", len(hits)).Int("retained", len(results)).Msg("Retrieval complete")
	batch.Results = results
	return batch, nil
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
