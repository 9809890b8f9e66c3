package models

import "strconv"

// Chunk is one retrieval unit: a window of page text plus the metadata
// stored alongside its embedding.
type Chunk struct {
	Content     string `json:"content"`
	Page        int    `json:"page"`
	ChunkIndex  int    `json:"chunk_id"`
	TotalChunks int    `json:"total_chunks"`
	Source      string `json:"source"`
}

// ID returns the stable document ID used by the vector store.
func (c Chunk) ID() string {
	return c.Source + "-" + strconv.Itoa(c.ChunkIndex)
}

// Metadata returns the string-valued metadata stored with the chunk's
// embedding. Vector store metadata is map[string]string, so numeric
// fields are stringified here and parsed back in ChunkFromMetadata.
func (c Chunk) Metadata() map[string]string {
	return map[string]string{
		MetaChunkID:     strconv.Itoa(c.ChunkIndex),
		MetaPage:        strconv.Itoa(c.Page),
		MetaSource:      c.Source,
		MetaTotalChunks: strconv.Itoa(c.TotalChunks),
	}
}

// ChunkFromMetadata rebuilds a chunk from stored content and metadata.
// Missing or malformed numeric fields fall back to zero.
func ChunkFromMetadata(content string, meta map[string]string) Chunk {
	c := Chunk{Content: content, Source: meta[MetaSource]}
	c.ChunkIndex, _ = strconv.Atoi(meta[MetaChunkID])
	c.Page, _ = strconv.Atoi(meta[MetaPage])
	c.TotalChunks, _ = strconv.Atoi(meta[MetaTotalChunks])
	return c
}

// ScoredChunk is a chunk returned from retrieval together with its
// normalized similarity score in [0,1].
type ScoredChunk struct {
	Chunk
	Similarity float64 `json:"similarity_score"`
}
