package llmservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"document-qa/internal/config"
)

// GeminiGenerator serves chat completions through the Gemini API.
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float64
	maxTokens   int
}

// NewGeminiGenerator builds a generator backed by the Gemini API.
func NewGeminiGenerator(ctx context.Context, cfg *config.LLMConfig) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}
	return &GeminiGenerator{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	log.Debug().Str("model", g.model).Msg("Generating content")

	genCfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(g.temperature)),
		MaxOutputTokens: int32(g.maxTokens),
	}
	if system != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(user, genai.RoleUser)}, genCfg)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	// take the first candidate that carries any text
	var answer strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				answer.WriteString(part.Text)
			}
		}
		if answer.Len() > 0 {
			break
		}
	}
	if answer.Len() == 0 {
		return "", fmt.Errorf("%w: no response generated from chat model", ErrGenerationFailed)
	}
	return stripReasoning(answer.String()), nil
}
