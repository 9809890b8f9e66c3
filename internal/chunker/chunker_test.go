package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-qa/internal/config"
)

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{name: "valid", size: 1000, overlap: 200},
		{name: "zero overlap", size: 100, overlap: 0},
		{name: "zero size", size: 0, overlap: 0, wantErr: true},
		{name: "negative overlap", size: 100, overlap: -1, wantErr: true},
		{name: "overlap equals size", size: 100, overlap: 100, wantErr: true},
		{name: "overlap above size", size: 100, overlap: 150, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.size, tt.overlap)
			if tt.wantErr {
				assert.ErrorIs(t, err, config.ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSplitSinglePage(t *testing.T) {
	c, err := New(1000, 200)
	require.NoError(t, err)

	text := "\n\n--- Page 3 ---\n\nAgentic AI is AI that acts autonomously"
	chunks := c.Split(text, "ebook.pdf")

	require.Len(t, chunks, 1)
	assert.Equal(t, "Agentic AI is AI that acts autonomously", chunks[0].Content)
	assert.Equal(t, 3, chunks[0].Page)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, 1, chunks[0].TotalChunks)
	assert.Equal(t, "ebook.pdf", chunks[0].Source)
}

func TestSplitTextWithoutMarkers(t *testing.T) {
	c, err := New(1000, 200)
	require.NoError(t, err)

	chunks := c.Split("plain text, no markers anywhere", "notes.txt")

	require.Len(t, chunks, 1)
	assert.Equal(t, 1, chunks[0].Page)
}

func TestSplitEmptyText(t *testing.T) {
	c, err := New(1000, 200)
	require.NoError(t, err)

	assert.Nil(t, c.Split("", "doc.pdf"))
	assert.Nil(t, c.Split("   \n\n \t", "doc.pdf"))
}

func TestSplitGlobalIndexAcrossPages(t *testing.T) {
	c, err := New(40, 10)
	require.NoError(t, err)

	pageText := "alpha beta gamma delta epsilon zeta eta theta iota kappa"
	text := "\n\n--- Page 1 ---\n\n" + pageText + "\n\n--- Page 2 ---\n\n" + pageText
	chunks := c.Split(text, "ebook.pdf")

	require.Greater(t, len(chunks), 2)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.Equal(t, len(chunks), chunk.TotalChunks)
		assert.LessOrEqual(t, len(chunk.Content), 40)
	}
	assert.Equal(t, 1, chunks[0].Page)
	assert.Equal(t, 2, chunks[len(chunks)-1].Page)
}

func TestSplitDeterministic(t *testing.T) {
	c, err := New(60, 15)
	require.NoError(t, err)

	text := "\n\n--- Page 1 ---\n\n" +
		"Agentic AI plans, decides and executes tasks on its own.\n\n" +
		"It differs from a chatbot in that it pursues goals over many steps." +
		"\n\n--- Page 2 ---\n\n" +
		"Multi-agent systems coordinate several autonomous agents toward a shared goal."

	first := c.Split(text, "ebook.pdf")
	second := c.Split(text, "ebook.pdf")
	assert.Equal(t, first, second)
}

func TestSplitSkipsEmptyPages(t *testing.T) {
	c, err := New(1000, 200)
	require.NoError(t, err)

	text := "\n\n--- Page 1 ---\n\nfirst page text" +
		"\n\n--- Page 2 ---\n\n   " +
		"\n\n--- Page 3 ---\n\nthird page text"
	chunks := c.Split(text, "ebook.pdf")

	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, 1, chunks[0].Page)
	assert.Equal(t, 1, chunks[1].ChunkIndex)
	assert.Equal(t, 3, chunks[1].Page)
}

func TestSplitPrefersParagraphBreak(t *testing.T) {
	c, err := New(50, 10)
	require.NoError(t, err)

	first := "alpha beta gamma delta epsilon zeta"
	text := first + "\n\nsecond paragraph carries on for quite a while longer"
	chunks := c.Split(text, "doc.txt")

	require.NotEmpty(t, chunks)
	assert.Equal(t, first, chunks[0].Content)
}

func TestSplitPrefersLineBreak(t *testing.T) {
	c, err := New(50, 10)
	require.NoError(t, err)

	first := "alpha beta gamma delta epsilon zeta"
	text := first + "\nsecond line carries on for quite a while longer"
	chunks := c.Split(text, "doc.txt")

	require.NotEmpty(t, chunks)
	assert.Equal(t, first, chunks[0].Content)
}

func TestSplitBreaksOnWords(t *testing.T) {
	c, err := New(40, 10)
	require.NoError(t, err)

	text := strings.TrimSpace(strings.Repeat("word ", 30))
	chunks := c.Split(text, "doc.txt")

	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		for _, tok := range strings.Fields(chunk.Content) {
			assert.Equal(t, "word", tok)
		}
	}
}

func TestSplitHardCutWithOverlap(t *testing.T) {
	c, err := New(100, 20)
	require.NoError(t, err)

	b := make([]byte, 250)
	for i := range b {
		b[i] = 'a' + byte(i%26)
	}
	text := string(b)
	chunks := c.Split(text, "doc.txt")

	require.Len(t, chunks, 3)
	assert.Equal(t, text[0:100], chunks[0].Content)
	assert.Equal(t, text[80:180], chunks[1].Content)
	assert.Equal(t, text[160:250], chunks[2].Content)
	// consecutive windows share the overlap tail
	assert.Equal(t, chunks[0].Content[80:], chunks[1].Content[:20])
}

func TestSplitBreaksEarlyInWindow(t *testing.T) {
	c, err := New(100, 10)
	require.NoError(t, err)

	// every word boundary sits early in the window, before an unbroken
	// run longer than the window
	text := "short words lead the run " + strings.Repeat("x", 130)
	chunks := c.Split(text, "doc.txt")

	require.NotEmpty(t, chunks)
	assert.Equal(t, "short words lead the run", chunks[0].Content)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Content), 100)
	}
}

func TestSplitNeverSplitsRunes(t *testing.T) {
	c, err := New(100, 20)
	require.NoError(t, err)

	text := strings.Repeat("日", 100)
	chunks := c.Split(text, "doc.txt")

	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk.Content))
		assert.LessOrEqual(t, len(chunk.Content), 100)
	}
}
