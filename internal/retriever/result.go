package retriever

import (
	"fmt"
	"strings"

	"document-qa/internal/models"
)

// NoInformationFound is the fixed context sentinel for an empty batch.
const NoInformationFound = "No relevant information found in the knowledge base."

// RetrievalBatch is the outcome of one retrieval: the retained chunks
// for a question, best first. An empty batch is the designed
// no-evidence signal, distinct from a retrieval failure.
type RetrievalBatch struct {
	Question string
	Results  []models.ScoredChunk
}

func (b RetrievalBatch) Empty() bool { return len(b.Results) == 0 }

// Context renders the retained chunks as the grounding block handed to
// the LLM: numbered source blocks tagged with page and relevance.
func (b RetrievalBatch) Context() string {
	if b.Empty() {
		return NoInformationFound
	}

	parts := make([]string, len(b.Results))
	for i, res := range b.Results {
		parts[i] = fmt.Sprintf("[Source %d - Page %d - Relevance: %.2f%%]\n%s\n",
			i+1, res.Page, res.Similarity*100, res.Content)
	}
	return strings.Join(parts, models.ContextSeparator)
}

// Sources lists one "Page N" entry per retained chunk, aligned with
// the Context numbering. Chunks from the same page repeat.
func (b RetrievalBatch) Sources() []string {
	sources := make([]string, len(b.Results))
	for i, res := range b.Results {
		sources[i] = fmt.Sprintf("Page %d", res.Page)
	}
	return sources
}

// Confidence is the mean similarity of the retained chunks, 0 when the
// batch is empty.
func (b RetrievalBatch) Confidence() float64 {
	if b.Empty() {
		return 0
	}
	var sum float64
	for _, res := range b.Results {
		sum += res.Similarity
	}
	return round4(sum / float64(len(b.Results)))
}
