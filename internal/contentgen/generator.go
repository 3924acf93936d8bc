package contentgen

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abhisek/kielo/internal/exam"
	"github.com/abhisek/kielo/internal/llm"
)

// Input holds the context needed to generate one exam section.
type Input struct {
	// Kind selects the section to generate.
	Kind exam.SectionKind

	// Level is the target CEFR level, e.g. "B1".
	Level string

	// Language is the exam language, e.g. "Finnish".
	Language string

	// WeakAreas optionally biases content toward the learner's known
	// weak areas.
	WeakAreas []string
}

// Generator produces raw section content ready for normalization.
type Generator interface {
	// Generate returns the raw content object for the input. The caller
	// normalizes and validates it; structural invalidity is a
	// content-generation failure recoverable by regeneration.
	Generate(ctx context.Context, input Input) (map[string]any, error)
}

// LLMGenerator implements Generator using the model provider.
type LLMGenerator struct {
	provider llm.Provider
	cfg      Config
}

// New creates an LLMGenerator with the given provider and config.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	return &LLMGenerator{provider: provider, cfg: cfg}
}

// Generate produces one section's raw content.
func (g *LLMGenerator) Generate(ctx context.Context, input Input) (map[string]any, error) {
	ctx = llm.WithPurpose(ctx, "content-gen")

	schema, err := schemaFor(input.Kind)
	if err != nil {
		return nil, err
	}

	resp, err := g.provider.Generate(ctx, llm.Request{
		System: contentSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(input, g.cfg)},
		},
		Schema:      schema,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("content generation: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, &exam.ErrContentInvalid{Kind: input.Kind, Reason: fmt.Sprintf("unparseable content: %v", err)}
	}

	return raw, nil
}
