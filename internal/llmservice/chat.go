package llmservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"document-qa/internal/config"
)

// ChatGenerator serves chat completions through a langchaingo model.
// It covers every OpenAI-compatible endpoint (Groq, OpenRouter, OpenAI
// itself) as well as a local ollama server.
type ChatGenerator struct {
	llm         llms.Model
	model       string
	temperature float64
	maxTokens   int
}

// NewOpenAIGenerator builds a generator for an OpenAI-compatible chat
// endpoint.
func NewOpenAIGenerator(cfg *config.LLMConfig) (*ChatGenerator, error) {
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(cfg.APIKey(), "Bearer ")),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize llm client: %w", err)
	}
	return newChatGenerator(llm, cfg), nil
}

// NewOllamaGenerator builds a generator for a local ollama server.
func NewOllamaGenerator(cfg *config.LLMConfig) (*ChatGenerator, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize llm client: %w", err)
	}
	return newChatGenerator(llm, cfg), nil
}

func newChatGenerator(llm llms.Model, cfg *config.LLMConfig) *ChatGenerator {
	return &ChatGenerator{
		llm:         llm,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

func (g *ChatGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	log.Debug().Str("model", g.model).Msg("Generating content")

	msgContent := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextContent{Text: system}},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: user}},
		},
	}

	res, err := g.llm.GenerateContent(ctx, msgContent,
		llms.WithTemperature(g.temperature),
		llms.WithMaxTokens(g.maxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response from model", ErrGenerationFailed)
	}
	return stripReasoning(res.Choices[0].Content), nil
}
