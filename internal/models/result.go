package models

// PipelineResult is the full outcome of one question-answering run.
// Error carries recoverable stage failures; a result is returned even
// when it is set.
type PipelineResult struct {
	Question      string        `json:"question"`
	Answer        string        `json:"answer"`
	ContextChunks []ScoredChunk `json:"context_chunks"`
	Sources       []string      `json:"sources"`
	Confidence    float64       `json:"confidence"`
	NumChunks     int           `json:"num_chunks"`
	Error         string        `json:"error"`
}
