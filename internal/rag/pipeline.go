package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"document-qa/internal/config"
	"document-qa/internal/llmservice"
	"document-qa/internal/models"
	"document-qa/internal/retriever"
)

// stage tags how far a question travelled through the pipeline and
// which branch produced its answer.
type stage string

const (
	stageStart            stage = "start"
	stageIntercepted      stage = "intercepted"
	stageNoEvidence       stage = "no_evidence"
	stageRetrieved        stage = "retrieved"
	stageRetrievalFailed  stage = "retrieval_failed"
	stageGenerated        stage = "generated"
	stageGenerationFailed stage = "generation_failed"
)

// Retriever is the evidence-fetching capability the pipeline consumes.
type Retriever interface {
	Retrieve(ctx context.Context, question string) (retriever.RetrievalBatch, error)
}

// Pipeline answers questions about one document: greeting
// interception, evidence retrieval, grounded generation and a
// retrieval-based confidence score, run as a single pass per query.
type Pipeline struct {
	retriever Retriever
	generator llmservice.Generator
	prompts   *Prompts
}

func New(ret Retriever, gen llmservice.Generator, doc *config.DocumentConfig) *Pipeline {
	return &Pipeline{retriever: ret, generator: gen, prompts: NewPrompts(doc)}
}

// queryState is the mutable record one question carries through the
// stages. It lives for a single Query call.
type queryState struct {
	stage    stage
	question string
	context  string
	batch    retriever.RetrievalBatch
	answer   string
	sources  []string
}

// Query runs one question through the pipeline and always returns a
// complete result. Retrieval and generation failures are recorded in
// the result's Error field, never returned or panicked.
func (p *Pipeline) Query(ctx context.Context, question string) models.PipelineResult {
	st := &queryState{stage: stageStart, question: question, sources: []string{}}

	result := models.PipelineResult{Question: question}
	p.intercept(st)
	p.retrieve(ctx, st, &result)
	p.generate(ctx, st, &result)
	p.score(st, &result)

	result.Answer = st.answer
	result.Sources = st.sources
	result.ContextChunks = st.batch.Results
	if result.ContextChunks == nil {
		result.ContextChunks = []models.ScoredChunk{}
	}
	result.NumChunks = len(result.ContextChunks)

	log.Info().
		Str("stage", string(st.stage)).
		Float64("confidence", result.Confidence).
		Int("num_chunks", result.NumChunks).
		Msg("Query complete")
	return result
}

// intercept short-circuits bare greetings so they never hit the
// vector store or the LLM.
func (p *Pipeline) intercept(st *queryState) {
	if !isGreeting(st.question) {
		return
	}
	st.stage = stageIntercepted
	st.answer = p.prompts.Greeting
	log.Debug().Str("question", st.question).Msg("Greeting intercepted")
}

// retrieve fetches evidence. An empty batch answers from the canned
// no-context text without an LLM call; a store failure is recorded
// and falls through to generation with empty context.
func (p *Pipeline) retrieve(ctx context.Context, st *queryState, result *models.PipelineResult) {
	if st.stage != stageStart {
		return
	}

	batch, err := p.retriever.Retrieve(ctx, st.question)
	if err != nil {
		st.stage = stageRetrievalFailed
		result.Error = fmt.Sprintf("retrieval error: %v", err)
		log.Warn().Err(err).Msg("Retrieval failed, generating with empty context")
		return
	}
	if batch.Empty() {
		st.stage = stageNoEvidence
		st.answer = p.prompts.NoContext
		return
	}

	st.stage = stageRetrieved
	st.batch = batch
	st.context = batch.Context()
	st.sources = batch.Sources()
}

// generate asks the LLM only when retrieval left the answer open. A
// generation failure is absorbed into a canned apology.
func (p *Pipeline) generate(ctx context.Context, st *queryState, result *models.PipelineResult) {
	if st.stage != stageRetrieved && st.stage != stageRetrievalFailed {
		return
	}

	answer, err := p.generator.Generate(ctx, p.prompts.System, p.prompts.UserPrompt(st.context, st.question))
	if err != nil {
		st.stage = stageGenerationFailed
		result.Error = fmt.Sprintf("generation error: %v", err)
		st.answer = apologyResponse
		log.Warn().Err(err).Msg("Generation failed, substituting apology")
		return
	}
	st.stage = stageGenerated
	st.answer = answer
}

// score derives confidence from retrieval agreement alone: the mean
// retained similarity, zero when nothing was retained.
func (p *Pipeline) score(st *queryState, result *models.PipelineResult) {
	result.Confidence = st.batch.Confidence()
}

// isGreeting reports whether the question is a bare greeting: at most
// three whitespace tokens, one of them from the fixed greeting set.
func isGreeting(question string) bool {
	tokens := strings.Fields(strings.ToLower(question))
	if len(tokens) == 0 || len(tokens) > 3 {
		return false
	}
	for _, token := range tokens {
		if _, ok := greetingTokens[token]; ok {
			return true
		}
	}
	return false
}
