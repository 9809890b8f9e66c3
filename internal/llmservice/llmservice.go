package llmservice

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"document-qa/internal/config"
	"document-qa/internal/models"
)

// ErrGenerationFailed marks an LLM call that produced no usable
// answer. Callers decide whether to surface it or fall back to a
// canned response.
var ErrGenerationFailed = errors.New("generation failed")

// Generator produces an answer from a system prompt and a user prompt.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(ctx context.Context, system, user string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}

// ForConfig returns the generator for the configured provider. The
// context is only used while constructing provider clients.
func ForConfig(ctx context.Context, cfg *config.LLMConfig) (Generator, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIGenerator(cfg)
	case "ollama":
		return NewOllamaGenerator(cfg)
	case "gemini":
		return NewGeminiGenerator(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: unknown llm provider %q", config.ErrInvalidConfig, cfg.Provider)
	}
}

var thinkTag = regexp.MustCompile(models.ThinkTag)

// stripReasoning drops the <think> blocks some models emit ahead of
// the actual answer.
func stripReasoning(answer string) string {
	return strings.TrimSpace(thinkTag.ReplaceAllString(answer, ""))
}
