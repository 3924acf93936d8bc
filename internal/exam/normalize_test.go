package exam

import (
	"errors"
	"reflect"
	"testing"
)

func readingRaw() map[string]any {
	return map[string]any{
		"level":    "B1",
		"language": "Finnish",
		"parts": []any{
			map[string]any{
				"title":   "Kirjasto",
				"content": "Kirjasto on auki joka päivä.",
				"questions": []any{
					map[string]any{
						"question":       "Milloin kirjasto on auki?",
						"options":        []any{"Joka päivä", "Vain arkisin"},
						"correct_answer": "A",
					},
				},
			},
		},
	}
}

func TestNormalize_FixedPoint(t *testing.T) {
	raw := readingRaw()
	once, err := Normalize(raw, SectionReading)
	if err != nil {
		t.Fatalf("first normalize: %v", err)
	}
	twice, err := Normalize(once, SectionReading)
	if err != nil {
		t.Fatalf("second normalize: %v", err)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Error("normalizing canonical content should be a no-op")
	}
}

func TestNormalize_SectionsRename(t *testing.T) {
	raw := readingRaw()
	raw["sections"] = raw["parts"]
	delete(raw, "parts")

	out, err := Normalize(raw, SectionReading)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if _, ok := out["parts"]; !ok {
		t.Error(`"sections" should be renamed to "parts"`)
	}
	if _, ok := out["sections"]; ok {
		t.Error(`"sections" should be removed after renaming`)
	}
}

func TestNormalize_TextBecomesContent(t *testing.T) {
	raw := readingRaw()
	part := raw["parts"].([]any)[0].(map[string]any)
	part["text"] = part["content"]
	delete(part, "content")

	out, err := Normalize(raw, SectionReading)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	got := out["parts"].([]any)[0].(map[string]any)
	if got["content"] != "Kirjasto on auki joka päivä." {
		t.Errorf(`expected "text" renamed to "content", got %v`, got["content"])
	}
	if _, ok := got["text"]; ok {
		t.Error(`"text" should be removed after renaming`)
	}
}

func TestNormalize_ListeningScenarioDefault(t *testing.T) {
	raw := map[string]any{
		"clips": []any{
			map[string]any{
				"transcript": "Anteeksi, missä on asema?",
				"questions": []any{
					map[string]any{"question": "Mitä kysytään?", "correct_answer": "asema"},
				},
			},
		},
	}
	out, err := Normalize(raw, SectionListening)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	clip := out["clips"].([]any)[0].(map[string]any)
	if clip["scenario_description"] != defaultScenario {
		t.Errorf("missing scenario should default to %q, got %v", defaultScenario, clip["scenario_description"])
	}
}

func TestNormalize_GradedDefault(t *testing.T) {
	raw := map[string]any{
		"tasks": []any{
			map[string]any{"prompt": "Kirjoita sähköposti ystävälle.", "rubric_scale": "1-8"},
		},
	}
	out, err := Normalize(raw, SectionWriting)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	task := out["tasks"].([]any)[0].(map[string]any)
	if task["graded"] != true {
		t.Error("missing graded flag should default to true")
	}
}

func TestNormalize_EmptyItems(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		kind SectionKind
	}{
		{"nil content", nil, SectionReading},
		{"missing array", map[string]any{"level": "B1"}, SectionReading},
		{"empty array", map[string]any{"clips": []any{}}, SectionListening},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.raw, tt.kind)
			var invalid *ErrContentInvalid
			if !errors.As(err, &invalid) {
				t.Fatalf("expected ErrContentInvalid, got %v", err)
			}
		})
	}
}

func TestParseSession_Reading(t *testing.T) {
	s, err := ParseSession(readingRaw(), SectionReading)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Kind != SectionReading || s.Level != "B1" || s.Language != "Finnish" {
		t.Errorf("unexpected header: %+v", s)
	}
	if len(s.Parts) != 1 || len(s.Parts[0].Questions) != 1 {
		t.Fatalf("unexpected structure: %+v", s.Parts)
	}
	q := s.Parts[0].Questions[0]
	if q.CorrectAnswer != "A" || len(q.Options) != 2 {
		t.Errorf("unexpected question: %+v", q)
	}
}

func TestParseSession_MissingCorrectAnswer(t *testing.T) {
	raw := readingRaw()
	q := raw["parts"].([]any)[0].(map[string]any)["questions"].([]any)[0].(map[string]any)
	delete(q, "correct_answer")

	_, err := ParseSession(raw, SectionReading)
	var invalid *ErrContentInvalid
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ErrContentInvalid, got %v", err)
	}
}

func TestParseSession_UnknownScaleDefaults(t *testing.T) {
	raw := map[string]any{
		"tasks": []any{
			map[string]any{"prompt": "Puhu perheestäsi.", "rubric_scale": "1-10", "graded": true},
		},
	}
	s, err := ParseSession(raw, SectionSpeaking)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Tasks[0].Scale != Scale1to8 {
		t.Errorf("unknown scale should default to %q, got %q", Scale1to8, s.Tasks[0].Scale)
	}
}
