package exam

import "fmt"

// SectionKind identifies which exam section a session covers.
type SectionKind string

const (
	SectionReading   SectionKind = "reading"
	SectionListening SectionKind = "listening"
	SectionWriting   SectionKind = "writing"
	SectionSpeaking  SectionKind = "speaking"
)

// IsObjective reports whether answers in this section are checked
// programmatically rather than graded by the external collaborator.
func (k SectionKind) IsObjective() bool {
	return k == SectionReading || k == SectionListening
}

// Valid reports whether k is a known section kind.
func (k SectionKind) Valid() bool {
	switch k {
	case SectionReading, SectionListening, SectionWriting, SectionSpeaking:
		return true
	}
	return false
}

// RubricScale is the per-criterion scoring range for subjective tasks.
type RubricScale string

const (
	// Scale0to2 is the warm-up/short-task scale: 0-2 per criterion.
	Scale0to2 RubricScale = "0-2"

	// Scale1to8 is the full-task scale: 1-8 per criterion.
	Scale1to8 RubricScale = "1-8"
)

// Criteria are the four fixed rubric criteria every grading response
// must score, for both writing and speaking tasks.
var Criteria = []string{"content", "coherence", "vocabulary", "grammar"}

// PerCriterionBounds returns the valid [min, max] score per criterion.
func (s RubricScale) PerCriterionBounds() (int, int) {
	if s == Scale1to8 {
		return 1, 8
	}
	return 0, 2
}

// TotalMin returns the lowest valid total score on this scale.
func (s RubricScale) TotalMin() int {
	min, _ := s.PerCriterionBounds()
	return min * len(Criteria)
}

// TotalMax returns the highest valid total score on this scale.
func (s RubricScale) TotalMax() int {
	_, max := s.PerCriterionBounds()
	return max * len(Criteria)
}

// CanonicalSession is the one canonical shape every downstream component
// operates on. It is immutable once built by ParseSession; the session
// engine owns the only reference.
type CanonicalSession struct {
	Kind             SectionKind
	Level            string // target CEFR level, e.g. "B1"
	Language         string // exam language, e.g. "Finnish"
	TimeLimitSeconds int    // 0 means untimed

	// Parts is populated for reading sections.
	Parts []Part

	// Clips is populated for listening sections.
	Clips []Clip

	// Tasks is populated for writing and speaking sections.
	Tasks []Task
}

// Part is one reading passage with its questions.
type Part struct {
	Title     string
	Content   string
	Questions []ObjectiveQuestion
}

// Clip is one listening segment with its questions.
type Clip struct {
	ScenarioDescription string
	Transcript          string
	Questions           []ObjectiveQuestion
}

// ObjectiveQuestion is a programmatically checkable question.
type ObjectiveQuestion struct {
	Prompt string

	// Options is the ordered choice list. Empty for free-text questions.
	Options []string

	// CorrectAnswer is either a single letter (A-Z, option index) or the
	// full text of the correct option. The matcher accepts both encodings.
	CorrectAnswer string

	Explanation string
}

// Task is a subjective writing or speaking task graded against a rubric.
type Task struct {
	Prompt string

	// Kind labels the task type, e.g. "email", "opinion", "warmup",
	// "picture_description".
	Kind string

	Scale RubricScale

	// Graded is false for warm-up tasks, which are never sent to the
	// grading collaborator and never counted in scoring.
	Graded bool

	// MinWords is the expected minimum word count for writing tasks.
	// 0 means no expectation.
	MinWords int
}

// AnswerKey identifies one answerable item. Objective questions use a
// composite part:question key; subjective tasks use the task index.
func AnswerKey(parent, sub int) string {
	return fmt.Sprintf("%d:%d", parent, sub)
}

// TaskKey returns the answer key for the subjective task at index i.
func TaskKey(i int) string {
	return fmt.Sprintf("%d", i)
}

// ObjectiveItems returns every objective question in order along with its
// answer key. Returns nil for subjective sections.
func (s *CanonicalSession) ObjectiveItems() []ObjectiveItem {
	var items []ObjectiveItem
	for pi, p := range s.Parts {
		for qi, q := range p.Questions {
			items = append(items, ObjectiveItem{Key: AnswerKey(pi, qi), Question: q})
		}
	}
	for ci, c := range s.Clips {
		for qi, q := range c.Questions {
			items = append(items, ObjectiveItem{Key: AnswerKey(ci, qi), Question: q})
		}
	}
	return items
}

// ObjectiveItem pairs an objective question with its answer key.
type ObjectiveItem struct {
	Key      string
	Question ObjectiveQuestion
}

// GradableTasks returns the keys and tasks that require grading
// (Graded=true), preserving task order.
func (s *CanonicalSession) GradableTasks() map[string]Task {
	out := make(map[string]Task)
	for i, t := range s.Tasks {
		if t.Graded {
			out[TaskKey(i)] = t
		}
	}
	return out
}
