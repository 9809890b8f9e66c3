package models

// Metadata keys stored with every chunk embedding.
const (
	MetaChunkID     = "chunk_id"
	MetaPage        = "page"
	MetaSource      = "source"
	MetaTotalChunks = "total_chunks"
)

const (
	ContextSeparator = "\n---\n"
	ThinkTag         = `(?s)<think>.*?</think>`
)
