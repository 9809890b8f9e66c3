package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"document-qa/internal/config"
	"document-qa/internal/models"
	"document-qa/internal/parser"
)

// Chunker splits marker-segmented document text into overlapping
// windows with page attribution. Chunk indexes are global across the
// whole document and strictly increasing from 0.
type Chunker struct {
	size    int
	overlap int
}

func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", config.ErrInvalidConfig, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap %d must be in [0, size)", config.ErrInvalidConfig, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split chunks the document text page by page. Pages with no content
// contribute nothing and do not break index contiguity. TotalChunks is
// stamped on every chunk once the final count is known.
func (c *Chunker) Split(text, source string) []models.Chunk {
	var chunks []models.Chunk
	index := 0
	for _, page := range parser.SplitPages(text) {
		for _, piece := range c.splitPage(page.Text) {
			chunks = append(chunks, models.Chunk{
				Content:    piece,
				Page:       page.Number,
				ChunkIndex: index,
				Source:     source,
			})
			index++
		}
	}
	for i := range chunks {
		chunks[i].TotalChunks = len(chunks)
	}
	return chunks
}

// splitPage applies the sliding window to one page of text. Windows
// prefer to end on a paragraph break, then a line break, then a word
// break; only unbroken runs are cut mid-sequence.
func (c *Chunker) splitPage(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= c.size {
		return []string{text}
	}

	var pieces []string
	start := 0
	for start < len(text) {
		end := min(start+c.size, len(text))
		if end < len(text) {
			end = runeFloor(text, c.breakPoint(text, start, end))
		}

		if piece := strings.TrimSpace(text[start:end]); piece != "" {
			pieces = append(pieces, piece)
		}
		if end >= len(text) {
			break
		}
		// the next window re-reads the overlap tail
		start = runeCeil(text, max(end-c.overlap, start+1))
	}
	return pieces
}

// breakPoint finds where the window [start, end) should actually end:
// the last paragraph, line or word boundary past the overlap prefix,
// or end itself when that region holds none. A break inside the
// overlap prefix would end the chunk within text the previous chunk
// already carries.
func (c *Chunker) breakPoint(text string, start, end int) int {
	searchFrom := start + c.overlap + 1
	window := text[searchFrom:end]

	for _, sep := range []string{"\n\n", "\n", " "} {
		if i := strings.LastIndex(window, sep); i >= 0 {
			return searchFrom + i
		}
	}
	return end
}

// runeFloor backs i off to the nearest rune start so a hard cut never
// splits a multibyte character.
func runeFloor(text string, i int) int {
	for i > 0 && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}

// runeCeil advances i to the nearest rune start.
func runeCeil(text string, i int) int {
	for i < len(text) && !utf8.RuneStart(text[i]) {
		i++
	}
	return i
}
