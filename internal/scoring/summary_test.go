package scoring

import (
	"testing"
	"time"

	"github.com/abhisek/kielo/internal/exam"
	"github.com/abhisek/kielo/internal/grading"
)

func readingSession() *exam.CanonicalSession {
	return &exam.CanonicalSession{
		Kind:  exam.SectionReading,
		Level: "B1",
		Parts: []exam.Part{
			{
				Content: "passage",
				Questions: []exam.ObjectiveQuestion{
					{Prompt: "q1", Options: []string{"oikein", "väärin"}, CorrectAnswer: "A"},
					{Prompt: "q2", Options: []string{"kyllä", "ei"}, CorrectAnswer: "B"},
					{Prompt: "q3", CorrectAnswer: "Helsinki"},
				},
			},
		},
	}
}

func writingSession() *exam.CanonicalSession {
	return &exam.CanonicalSession{
		Kind:  exam.SectionWriting,
		Level: "B1",
		Tasks: []exam.Task{
			{Prompt: "warm-up", Kind: "warmup", Scale: exam.Scale0to2, Graded: false},
			{Prompt: "email", Kind: "email", Scale: exam.Scale1to8, Graded: true, MinWords: 100},
			{Prompt: "opinion", Kind: "opinion", Scale: exam.Scale1to8, Graded: true, MinWords: 150},
		},
	}
}

func result(total int, level string, gradedAt time.Time) *grading.Result {
	return &grading.Result{
		TotalScore: total,
		CEFRLevel:  level,
		GradedAt:   gradedAt,
	}
}

func TestObjective_AllCorrect(t *testing.T) {
	s := Objective(readingSession(), map[string]string{
		"0:0": "oikein",
		"0:1": "ei",
		"0:2": "helsinki",
	})
	if s.CorrectCount != 3 || s.TotalCount != 3 {
		t.Fatalf("got %d/%d, want 3/3", s.CorrectCount, s.TotalCount)
	}
	if s.Percentage != 100 {
		t.Errorf("percentage = %d, want 100", s.Percentage)
	}
	if !s.Passed {
		t.Error("100%% should pass")
	}
	if s.CEFRLevel != "B2" {
		t.Errorf("level = %q, want B2", s.CEFRLevel)
	}
}

func TestObjective_PartialAndMissing(t *testing.T) {
	s := Objective(readingSession(), map[string]string{
		"0:0": "oikein",
		// 0:1 unanswered, 0:2 wrong
		"0:2": "Tampere",
	})
	if s.CorrectCount != 1 {
		t.Errorf("correct = %d, want 1", s.CorrectCount)
	}
	if s.Percentage != 33 {
		t.Errorf("percentage = %d, want 33", s.Percentage)
	}
	if s.Passed {
		t.Error("33%% should not pass")
	}
}

func TestObjective_EmptySection(t *testing.T) {
	s := Objective(&exam.CanonicalSession{Kind: exam.SectionReading, Level: "B1"}, nil)
	if s.Percentage != 0 || s.TotalCount != 0 {
		t.Errorf("empty section should score 0, got %+v", s)
	}
}

func TestSubjective_WarmUpExcluded(t *testing.T) {
	now := time.Now()
	answers := map[string]string{
		"0": "warm-up answer",
		"1": wordsOf(120),
		"2": wordsOf(160),
	}
	results := map[string]*grading.Result{
		"1": result(24, "B1.2", now),
		"2": result(28, "B2", now.Add(time.Second)),
	}

	s := Subjective(writingSession(), answers, results)
	if s.TotalCount != 2 {
		t.Fatalf("graded count = %d, want 2 (warm-up excluded)", s.TotalCount)
	}
	// 52 of 64.
	if s.Percentage != 81 {
		t.Errorf("percentage = %d, want 81", s.Percentage)
	}
	if len(s.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(s.Items))
	}
	if !s.Items[0].WarmUp {
		t.Error("task 0 should be marked warm-up")
	}
}

func TestSubjective_WordCountPenaltyApplied(t *testing.T) {
	answers := map[string]string{"1": wordsOf(50), "2": wordsOf(160)}
	results := map[string]*grading.Result{
		"1": result(20, "B1.1", time.Now()),
		"2": result(32, "B2", time.Now()),
	}

	s := Subjective(writingSession(), answers, results)

	var email ItemResult
	for _, item := range s.Items {
		if item.Key == "1" {
			email = item
		}
	}
	// 50 of 100 words: penalty = max(1, round((70-50)/10)) = 2.
	if email.TotalScore != 18 {
		t.Errorf("penalized total = %d, want 18", email.TotalScore)
	}
	if email.Penalty != 2 {
		t.Errorf("penalty = %d, want 2", email.Penalty)
	}
	// The grading result itself is never mutated.
	if results["1"].TotalScore != 20 {
		t.Errorf("grading result mutated to %d", results["1"].TotalScore)
	}
}

func TestSubjective_PenaltyFloorsAtScaleMinimum(t *testing.T) {
	answers := map[string]string{"1": "sana", "2": wordsOf(160)}
	results := map[string]*grading.Result{
		"1": result(5, "A2", time.Now()),
		"2": result(30, "B2", time.Now()),
	}

	s := Subjective(writingSession(), answers, results)
	for _, item := range s.Items {
		if item.Key == "1" && item.TotalScore < exam.Scale1to8.TotalMin() {
			t.Errorf("total %d below rubric minimum %d", item.TotalScore, exam.Scale1to8.TotalMin())
		}
	}
}

func TestSubjective_LastGradedWins(t *testing.T) {
	base := time.Now()
	answers := map[string]string{"1": wordsOf(120), "2": wordsOf(160)}
	results := map[string]*grading.Result{
		"1": result(24, "B2", base.Add(time.Minute)), // graded later
		"2": result(24, "B1.1", base),
	}

	s := Subjective(writingSession(), answers, results)
	if s.CEFRLevel != "B2" {
		t.Errorf("representative level = %q, want last-graded B2", s.CEFRLevel)
	}
}

func TestSubjective_FailedItemExcluded(t *testing.T) {
	answers := map[string]string{"1": wordsOf(120), "2": wordsOf(160)}
	results := map[string]*grading.Result{
		"1": result(24, "B1.2", time.Now()),
		"2": {Failed: true, FailureReason: "schema mismatch"},
	}

	s := Subjective(writingSession(), answers, results)
	if s.TotalCount != 1 {
		t.Errorf("graded count = %d, want 1", s.TotalCount)
	}
	// 24 of 32.
	if s.Percentage != 75 {
		t.Errorf("percentage = %d, want 75", s.Percentage)
	}
	var opinion ItemResult
	for _, item := range s.Items {
		if item.Key == "2" {
			opinion = item
		}
	}
	if !opinion.Failed {
		t.Error("failed item should be marked Failed")
	}
}

func TestSubjective_MixedScales(t *testing.T) {
	session := &exam.CanonicalSession{
		Kind:  exam.SectionSpeaking,
		Level: "A2",
		Tasks: []exam.Task{
			{Prompt: "short", Scale: exam.Scale0to2, Graded: true},
			{Prompt: "long", Scale: exam.Scale1to8, Graded: true},
		},
	}
	answers := map[string]string{"0": "vastaus", "1": "pitkä vastaus"}
	results := map[string]*grading.Result{
		"0": result(8, "A2.2", time.Now()),
		"1": result(16, "A2.1", time.Now()),
	}

	s := Subjective(session, answers, results)
	// 24 of 40, not 24 of 64 or 24 of 16.
	if s.Percentage != 60 {
		t.Errorf("percentage = %d, want 60", s.Percentage)
	}
}

func TestSubjective_BoundsHold(t *testing.T) {
	answers := map[string]string{"1": wordsOf(120), "2": wordsOf(160)}
	for _, totals := range [][2]int{{4, 4}, {32, 32}, {4, 32}} {
		results := map[string]*grading.Result{
			"1": result(totals[0], "B1.1", time.Now()),
			"2": result(totals[1], "B1.1", time.Now()),
		}
		s := Subjective(writingSession(), answers, results)
		if s.Percentage < 0 || s.Percentage > 100 {
			t.Errorf("totals %v: percentage %d out of [0,100]", totals, s.Percentage)
		}
	}
}

func TestUngraded(t *testing.T) {
	s := Ungraded(writingSession())
	if !s.GradingFailed {
		t.Error("ungraded summary must set GradingFailed")
	}
	if s.Percentage != 0 || s.Passed {
		t.Errorf("ungraded summary should report 0 and not pass, got %+v", s)
	}
	if len(s.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(s.Items))
	}
	if s.Items[0].Failed || !s.Items[0].WarmUp {
		t.Error("warm-up item should not be marked failed")
	}
	if !s.Items[1].Failed {
		t.Error("gradable item should be marked failed")
	}
}
