package grading

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/abhisek/kielo/internal/exam"
	"github.com/abhisek/kielo/internal/llm"
)

// LLMGrader implements Grader using the model provider.
type LLMGrader struct {
	provider llm.Provider
	cfg      Config
}

// NewGrader creates an LLM-backed grader.
func NewGrader(provider llm.Provider, cfg Config) *LLMGrader {
	return &LLMGrader{provider: provider, cfg: cfg}
}

// resultOutput is the raw model response before validation.
type resultOutput struct {
	Scores     map[string]int `json:"scores"`
	TotalScore int            `json:"total_score"`
	CEFRLevel  string         `json:"cefr_level"`
	Feedback   Feedback       `json:"feedback"`
}

// Grade sends one answer for assessment and validates the response
// against the declared rubric before accepting it.
func (g *LLMGrader) Grade(ctx context.Context, req Request) (*Result, error) {
	ctx = llm.WithPurpose(ctx, "grading")

	resp, err := g.provider.Generate(ctx, llm.Request{
		System: gradingSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(req)},
		},
		Schema:      ResultSchema,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return nil, classifyError(err)
	}

	var out resultOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, &SchemaError{Reason: "unparseable grading response", Err: err}
	}

	if err := validateResult(out, req.Scale); err != nil {
		return nil, err
	}

	return &Result{
		PerCriterion: out.Scores,
		TotalScore:   out.TotalScore,
		CEFRLevel:    out.CEFRLevel,
		Feedback:     out.Feedback,
		GradedAt:     time.Now(),
	}, nil
}

// validateResult enforces the grading collaborator contract: all four
// criteria present and in bounds, total within scale bounds, non-empty
// feedback. Out-of-bounds scores are rejected, never clamped: clamping
// would hide a collaborator defect inside valid-looking data.
func validateResult(out resultOutput, scale exam.RubricScale) error {
	min, max := scale.PerCriterionBounds()
	for _, name := range exam.Criteria {
		score, ok := out.Scores[name]
		if !ok {
			return &SchemaError{Reason: fmt.Sprintf("missing criterion %q", name)}
		}
		if score < min || score > max {
			return &SchemaError{Reason: fmt.Sprintf("criterion %q score %d outside scale %d-%d", name, score, min, max)}
		}
	}
	if len(out.Scores) != len(exam.Criteria) {
		return &SchemaError{Reason: fmt.Sprintf("expected %d criteria, got %d", len(exam.Criteria), len(out.Scores))}
	}
	if out.TotalScore < scale.TotalMin() || out.TotalScore > scale.TotalMax() {
		return &SchemaError{Reason: fmt.Sprintf("total score %d outside bounds %d-%d", out.TotalScore, scale.TotalMin(), scale.TotalMax())}
	}
	if out.Feedback.Strengths == "" || out.Feedback.Weaknesses == "" {
		return &SchemaError{Reason: "empty feedback"}
	}
	if out.CEFRLevel == "" {
		return &SchemaError{Reason: "missing cefr_level"}
	}
	return nil
}
