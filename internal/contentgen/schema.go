package contentgen

import (
	"fmt"

	"github.com/abhisek/kielo/internal/exam"
	"github.com/abhisek/kielo/internal/llm"
)

func questionSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{
				"type":        "string",
				"description": "The question prompt",
			},
			"options": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Choice list in order; empty for free-text questions",
			},
			"correct_answer": map[string]any{
				"type":        "string",
				"description": "Either a single letter (A, B, C...) naming an option, or the full correct text",
			},
			"explanation": map[string]any{
				"type":        "string",
				"description": "Why the correct answer is correct",
			},
		},
		"required":             []any{"question", "options", "correct_answer", "explanation"},
		"additionalProperties": false,
	}
}

// ReadingSchema defines the structured output for reading sections.
var ReadingSchema = &llm.Schema{
	Name:        "reading-section",
	Description: "A reading comprehension section with passages and questions",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"level":    map[string]any{"type": "string"},
			"language": map[string]any{"type": "string"},
			"parts": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":     map[string]any{"type": "string"},
						"content":   map[string]any{"type": "string", "description": "The passage text"},
						"questions": map[string]any{"type": "array", "items": questionSchema()},
					},
					"required":             []any{"title", "content", "questions"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"level", "language", "parts"},
		"additionalProperties": false,
	},
}

// ListeningSchema defines the structured output for listening sections.
var ListeningSchema = &llm.Schema{
	Name:        "listening-section",
	Description: "A listening comprehension section with scripted clips and questions",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"level":    map[string]any{"type": "string"},
			"language": map[string]any{"type": "string"},
			"clips": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"scenario_description": map[string]any{"type": "string"},
						"transcript":           map[string]any{"type": "string", "description": "The script to be read aloud"},
						"questions":            map[string]any{"type": "array", "items": questionSchema()},
					},
					"required":             []any{"scenario_description", "transcript", "questions"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"level", "language", "clips"},
		"additionalProperties": false,
	},
}

// TaskSchema defines the structured output for writing and speaking
// sections.
var TaskSchema = &llm.Schema{
	Name:        "task-section",
	Description: "A writing or speaking section with rubric-graded tasks",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"level":    map[string]any{"type": "string"},
			"language": map[string]any{"type": "string"},
			"tasks": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"prompt":    map[string]any{"type": "string"},
						"task_type": map[string]any{"type": "string", "description": "e.g. email, opinion, warmup, picture_description"},
						"rubric_scale": map[string]any{
							"type": "string",
							"enum": []any{"0-2", "1-8"},
						},
						"graded":    map[string]any{"type": "boolean", "description": "false for warm-up tasks"},
						"min_words": map[string]any{"type": "integer", "description": "Expected minimum word count, 0 if none"},
					},
					"required":             []any{"prompt", "task_type", "rubric_scale", "graded", "min_words"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"level", "language", "tasks"},
		"additionalProperties": false,
	},
}

// schemaFor selects the response schema for a section kind.
func schemaFor(kind exam.SectionKind) (*llm.Schema, error) {
	switch kind {
	case exam.SectionReading:
		return ReadingSchema, nil
	case exam.SectionListening:
		return ListeningSchema, nil
	case exam.SectionWriting, exam.SectionSpeaking:
		return TaskSchema, nil
	}
	return nil, fmt.Errorf("unknown section kind: %q", kind)
}
