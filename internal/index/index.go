package index

import (
	"context"
	"errors"

	"document-qa/internal/models"
)

// ErrIndexUnavailable marks a vector collection that was never built
// or cannot be opened. It is fatal for serving: the loading pass has
// to run first.
var ErrIndexUnavailable = errors.New("index unavailable")

// Metric identifies the raw measure a store reports for query hits.
type Metric string

const (
	// MetricCosine: Hit.Score is a cosine similarity, higher is
	// closer.
	MetricCosine Metric = "cosine"
	// MetricL2: Hit.Score is a euclidean distance, lower is closer.
	MetricL2 Metric = "l2"
)

// Hit is one nearest-neighbor result carrying the store's raw measure.
// The retriever converts Score to a normalized similarity.
type Hit struct {
	Chunk models.Chunk
	Score float64
}

// Store is a persistent vector collection over the chunks of one
// document.
type Store interface {
	// Build creates or reuses the collection. With overwrite false an
	// existing non-empty collection is loaded as is and chunks are
	// ignored; with overwrite true any existing collection is deleted
	// and rebuilt from the given chunks.
	Build(ctx context.Context, chunks []models.Chunk, overwrite bool) error
	// Query returns up to k nearest chunks, closest first.
	Query(ctx context.Context, text string, k int) ([]Hit, error)
	// Count reports the number of stored chunks.
	Count(ctx context.Context) (int, error)
	// Metric reports how Hit.Score is to be read.
	Metric() Metric
	Close() error
}
