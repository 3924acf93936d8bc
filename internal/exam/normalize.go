package exam

import (
	"encoding/json"
	"fmt"
)

// ErrContentInvalid reports generated content that cannot be turned into a
// canonical session. It is a content-generation failure, distinct from any
// grading failure: the caller should offer regeneration, never render an
// empty exam.
type ErrContentInvalid struct {
	Kind   SectionKind
	Reason string
}

func (e *ErrContentInvalid) Error() string {
	return fmt.Sprintf("invalid %s content: %s", e.Kind, e.Reason)
}

// defaultScenario is filled in for listening clips missing a description.
const defaultScenario = "Listening task"

// itemsKey returns the canonical key holding the items array for a section.
func itemsKey(kind SectionKind) string {
	switch kind {
	case SectionReading:
		return "parts"
	case SectionListening:
		return "clips"
	default:
		return "tasks"
	}
}

// Normalize converts an arbitrary generated content shape into the canonical
// shape for the section kind. The generator may emit "sections" in place of
// the section-specific key, "text" in place of "content", and may omit
// per-clip scenario descriptions or per-task graded flags; Normalize resolves
// all of these. Already-canonical input is returned unchanged (fixed point).
func Normalize(raw map[string]any, kind SectionKind) (map[string]any, error) {
	if !kind.Valid() {
		return nil, &ErrContentInvalid{Kind: kind, Reason: "unknown section kind"}
	}
	if raw == nil {
		return nil, &ErrContentInvalid{Kind: kind, Reason: "no content"}
	}

	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}

	key := itemsKey(kind)

	// The generator sometimes emits a generic "sections" key.
	if _, ok := out[key]; !ok {
		if sections, ok := out["sections"]; ok {
			out[key] = sections
			delete(out, "sections")
		}
	}

	items, ok := out[key].([]any)
	if !ok || len(items) == 0 {
		return nil, &ErrContentInvalid{Kind: kind, Reason: fmt.Sprintf("missing or empty %q array", key)}
	}

	normalized := make([]any, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, &ErrContentInvalid{Kind: kind, Reason: fmt.Sprintf("%s[%d] is not an object", key, i)}
		}
		normalized[i] = normalizeItem(m, kind)
	}
	out[key] = normalized

	return out, nil
}

func normalizeItem(item map[string]any, kind SectionKind) map[string]any {
	out := make(map[string]any, len(item))
	for k, v := range item {
		out[k] = v
	}

	switch kind {
	case SectionReading:
		// Reading passages arrive as either "text" or "content".
		if _, ok := out["content"]; !ok {
			if text, ok := out["text"]; ok {
				out["content"] = text
				delete(out, "text")
			}
		}
	case SectionListening:
		if desc, ok := out["scenario_description"].(string); !ok || desc == "" {
			out["scenario_description"] = defaultScenario
		}
	case SectionWriting, SectionSpeaking:
		if _, ok := out["graded"]; !ok {
			out["graded"] = true
		}
	}

	return out
}

// Raw wire shapes for decoding normalized content.

type rawSession struct {
	Level            string    `json:"level"`
	Language         string    `json:"language"`
	TimeLimitSeconds int       `json:"time_limit_seconds"`
	Parts            []rawPart `json:"parts"`
	Clips            []rawClip `json:"clips"`
	Tasks            []rawTask `json:"tasks"`
}

type rawPart struct {
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	Questions []rawQuestion `json:"questions"`
}

type rawClip struct {
	ScenarioDescription string        `json:"scenario_description"`
	Transcript          string        `json:"transcript"`
	Questions           []rawQuestion `json:"questions"`
}

type rawQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

type rawTask struct {
	Prompt      string `json:"prompt"`
	TaskType    string `json:"task_type"`
	RubricScale string `json:"rubric_scale"`
	Graded      bool   `json:"graded"`
	MinWords    int    `json:"min_words"`
}

// ParseSession normalizes raw generated content and decodes it into a
// CanonicalSession, validating structural completeness along the way.
func ParseSession(raw map[string]any, kind SectionKind) (*CanonicalSession, error) {
	normalized, err := Normalize(raw, kind)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(normalized)
	if err != nil {
		return nil, &ErrContentInvalid{Kind: kind, Reason: fmt.Sprintf("encode: %v", err)}
	}
	var rs rawSession
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, &ErrContentInvalid{Kind: kind, Reason: fmt.Sprintf("decode: %v", err)}
	}

	s := &CanonicalSession{
		Kind:             kind,
		Level:            rs.Level,
		Language:         rs.Language,
		TimeLimitSeconds: rs.TimeLimitSeconds,
	}

	switch kind {
	case SectionReading:
		for i, p := range rs.Parts {
			qs, err := buildQuestions(p.Questions, kind, fmt.Sprintf("parts[%d]", i))
			if err != nil {
				return nil, err
			}
			if p.Content == "" {
				return nil, &ErrContentInvalid{Kind: kind, Reason: fmt.Sprintf("parts[%d] has no content", i)}
			}
			s.Parts = append(s.Parts, Part{Title: p.Title, Content: p.Content, Questions: qs})
		}
	case SectionListening:
		for i, c := range rs.Clips {
			qs, err := buildQuestions(c.Questions, kind, fmt.Sprintf("clips[%d]", i))
			if err != nil {
				return nil, err
			}
			s.Clips = append(s.Clips, Clip{
				ScenarioDescription: c.ScenarioDescription,
				Transcript:          c.Transcript,
				Questions:           qs,
			})
		}
	case SectionWriting, SectionSpeaking:
		for i, t := range rs.Tasks {
			if t.Prompt == "" {
				return nil, &ErrContentInvalid{Kind: kind, Reason: fmt.Sprintf("tasks[%d] has no prompt", i)}
			}
			scale := RubricScale(t.RubricScale)
			if scale != Scale0to2 && scale != Scale1to8 {
				scale = Scale1to8
			}
			s.Tasks = append(s.Tasks, Task{
				Prompt:   t.Prompt,
				Kind:     t.TaskType,
				Scale:    scale,
				Graded:   t.Graded,
				MinWords: t.MinWords,
			})
		}
	}

	return s, nil
}

func buildQuestions(raw []rawQuestion, kind SectionKind, where string) ([]ObjectiveQuestion, error) {
	if len(raw) == 0 {
		return nil, &ErrContentInvalid{Kind: kind, Reason: where + " has no questions"}
	}
	qs := make([]ObjectiveQuestion, len(raw))
	for i, q := range raw {
		if q.Question == "" {
			return nil, &ErrContentInvalid{Kind: kind, Reason: fmt.Sprintf("%s question %d has no prompt", where, i)}
		}
		if q.CorrectAnswer == "" {
			return nil, &ErrContentInvalid{Kind: kind, Reason: fmt.Sprintf("%s question %d has no correct answer", where, i)}
		}
		qs[i] = ObjectiveQuestion{
			Prompt:        q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		}
	}
	return qs, nil
}
