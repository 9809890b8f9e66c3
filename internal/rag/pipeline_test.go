package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-qa/internal/chromemdb"
	"document-qa/internal/config"
	"document-qa/internal/embedding"
	"document-qa/internal/llmservice"
	"document-qa/internal/models"
	"document-qa/internal/retriever"
)

// indexedRetriever builds an in-memory index over two ebook chunks and
// attaches a retriever with the given threshold.
func indexedRetriever(t *testing.T, threshold float64) *retriever.Retriever {
	t.Helper()
	ctx := context.Background()

	chunks := []models.Chunk{
		{Content: "Agentic AI is AI that acts autonomously", Page: 3, ChunkIndex: 0, TotalChunks: 2, Source: "ebook.pdf"},
		{Content: "Multi-agent systems coordinate several autonomous agents", Page: 5, ChunkIndex: 1, TotalChunks: 2, Source: "ebook.pdf"},
	}
	store, err := chromemdb.NewStore("", "pipeline_test", true, false, embedding.NewLocalEmbedder(384).Embed)
	require.NoError(t, err)
	require.NoError(t, store.Build(ctx, chunks, false))

	ret, err := retriever.New(ctx, store, &config.RetrievalConfig{TopK: 5, SimilarityThreshold: threshold})
	require.NoError(t, err)
	return ret
}

// recordingGenerator returns a fixed answer and captures the prompts
// it was called with.
type recordingGenerator struct {
	answer string
	called bool
	system string
	user   string
}

func (g *recordingGenerator) Generate(_ context.Context, system, user string) (string, error) {
	g.called = true
	g.system = system
	g.user = user
	return g.answer, nil
}

type failingRetriever struct{ err error }

func (f failingRetriever) Retrieve(context.Context, string) (retriever.RetrievalBatch, error) {
	return retriever.RetrievalBatch{}, f.err
}

func TestQueryGreeting(t *testing.T) {
	gen := &recordingGenerator{answer: "unused"}
	p := New(indexedRetriever(t, 0.5), gen, testDocConfig())

	res := p.Query(context.Background(), "hi")

	assert.Equal(t, "hi", res.Question)
	assert.Equal(t, p.prompts.Greeting, res.Answer)
	assert.Empty(t, res.ContextChunks)
	assert.NotNil(t, res.ContextChunks)
	assert.Empty(t, res.Sources)
	assert.Equal(t, 0.0, res.Confidence)
	assert.Zero(t, res.NumChunks)
	assert.Empty(t, res.Error)
	assert.False(t, gen.called, "a greeting must not reach the LLM")
}

func TestIsGreeting(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     bool
	}{
		{name: "bare hi", question: "hi", want: true},
		{name: "mixed case", question: "HELLO", want: true},
		{name: "greeting with a tail", question: "Hi there!", want: true},
		{name: "hey with two extra tokens", question: "hey dear assistant", want: true},
		{name: "four tokens too long", question: "hi how are you", want: false},
		{name: "greeting word inside another word", question: "think about this", want: false},
		{name: "punctuation glued to the greeting", question: "Greetings!", want: false},
		{name: "real question", question: "What is Agentic AI?", want: false},
		{name: "empty question", question: "", want: false},
		{name: "whitespace only", question: "   ", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isGreeting(tt.question))
		})
	}
}

func TestQueryNoEvidence(t *testing.T) {
	gen := &recordingGenerator{answer: "unused"}
	p := New(indexedRetriever(t, 0.5), gen, testDocConfig())

	res := p.Query(context.Background(), "What is the capital of France?")

	assert.Equal(t, p.prompts.NoContext, res.Answer)
	assert.Empty(t, res.ContextChunks)
	assert.Zero(t, res.NumChunks)
	assert.Equal(t, 0.0, res.Confidence)
	assert.Empty(t, res.Error)
	assert.False(t, gen.called, "no evidence means no LLM call")
}

func TestQueryAnswersFromEvidence(t *testing.T) {
	gen := &recordingGenerator{answer: "Agentic AI is AI that acts autonomously (Page 3)."}
	p := New(indexedRetriever(t, 0.3), gen, testDocConfig())

	res := p.Query(context.Background(), "What is Agentic AI?")

	assert.Equal(t, gen.answer, res.Answer)
	assert.Empty(t, res.Error)
	require.NotEmpty(t, res.ContextChunks)
	assert.Equal(t, "Agentic AI is AI that acts autonomously", res.ContextChunks[0].Content)
	assert.Equal(t, 3, res.ContextChunks[0].Page)
	assert.Contains(t, res.Sources, "Page 3")
	assert.Equal(t, "Page 3", res.Sources[0])
	assert.Greater(t, res.Confidence, 0.3)
	assert.GreaterOrEqual(t, res.NumChunks, 1)
	assert.Equal(t, len(res.ContextChunks), res.NumChunks)

	// scores arrive best first
	for i := 1; i < len(res.ContextChunks); i++ {
		assert.GreaterOrEqual(t, res.ContextChunks[i-1].Similarity, res.ContextChunks[i].Similarity)
	}

	require.True(t, gen.called)
	assert.Equal(t, p.prompts.System, gen.system)
	assert.Contains(t, gen.user, "[Source 1 - Page 3 - Relevance: 59.15%]")
	assert.Contains(t, gen.user, "USER QUESTION: What is Agentic AI?")
}

func TestQueryGenerationFailure(t *testing.T) {
	gen := llmservice.GeneratorFunc(func(context.Context, string, string) (string, error) {
		return "", errors.New("rate limit exceeded")
	})
	p := New(indexedRetriever(t, 0.3), gen, testDocConfig())

	res := p.Query(context.Background(), "What is Agentic AI?")

	assert.Equal(t, apologyResponse, res.Answer)
	assert.Contains(t, res.Error, "generation error")
	assert.Contains(t, res.Error, "rate limit exceeded")
	// the retrieved evidence still backs the degraded result
	assert.GreaterOrEqual(t, res.NumChunks, 1)
	assert.Greater(t, res.Confidence, 0.3)
	assert.Contains(t, res.Sources, "Page 3")
}

func TestQueryRetrievalFailure(t *testing.T) {
	gen := &recordingGenerator{answer: "I don't have information about that in the provided eBook."}
	p := New(failingRetriever{err: errors.New("collection gone")}, gen, testDocConfig())

	res := p.Query(context.Background(), "What is Agentic AI?")

	assert.Contains(t, res.Error, "retrieval error")
	assert.Contains(t, res.Error, "collection gone")
	assert.Equal(t, gen.answer, res.Answer)
	assert.Zero(t, res.NumChunks)
	assert.Equal(t, 0.0, res.Confidence)
	require.True(t, gen.called, "a retrieval failure still generates, with empty context")
	assert.Contains(t, gen.user, "CONTEXT:")
}

func TestQueryEmptyQuestion(t *testing.T) {
	gen := &recordingGenerator{answer: "unused"}
	p := New(indexedRetriever(t, 0.5), gen, testDocConfig())

	for _, question := range []string{"", "   "} {
		res := p.Query(context.Background(), question)

		assert.Equal(t, p.prompts.NoContext, res.Answer)
		assert.Zero(t, res.NumChunks)
		assert.Equal(t, 0.0, res.Confidence)
		assert.Empty(t, res.Error)
		assert.False(t, gen.called, "a blank question must not reach the LLM")
	}
}

func TestQueryLongGreetingGoesToRetrieval(t *testing.T) {
	gen := &recordingGenerator{answer: "unused"}
	p := New(indexedRetriever(t, 0.5), gen, testDocConfig())

	res := p.Query(context.Background(), "hi how are you today")

	assert.NotEqual(t, p.prompts.Greeting, res.Answer)
	assert.Equal(t, p.prompts.NoContext, res.Answer)
}
