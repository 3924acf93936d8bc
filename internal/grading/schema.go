package grading

import "github.com/abhisek/kielo/internal/llm"

// ResultSchema defines the JSON schema for grading responses.
var ResultSchema = &llm.Schema{
	Name:        "grading-result",
	Description: "Rubric-based assessment of one writing or speaking answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"scores": map[string]any{
				"type":        "object",
				"description": "Integer score per criterion, within the declared rubric scale",
				"properties": map[string]any{
					"content":    map[string]any{"type": "integer"},
					"coherence":  map[string]any{"type": "integer"},
					"vocabulary": map[string]any{"type": "integer"},
					"grammar":    map[string]any{"type": "integer"},
				},
				"required":             []any{"content", "coherence", "vocabulary", "grammar"},
				"additionalProperties": false,
			},
			"total_score": map[string]any{
				"type":        "integer",
				"description": "Sum of the criterion scores",
			},
			"cefr_level": map[string]any{
				"type":        "string",
				"description": "CEFR level estimate for this answer, e.g. \"B1.1\"",
			},
			"feedback": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"strengths":  map[string]any{"type": "string"},
					"weaknesses": map[string]any{"type": "string"},
				},
				"required":             []any{"strengths", "weaknesses"},
				"additionalProperties": false,
			},
		},
		"required":             []any{"scores", "total_score", "cefr_level", "feedback"},
		"additionalProperties": false,
	},
}
