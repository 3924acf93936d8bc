package grading

import (
	"context"
	"time"

	"github.com/abhisek/kielo/internal/exam"
)

// Request carries one subjective answer to the grading collaborator.
type Request struct {
	// TaskPrompt is the task the learner answered.
	TaskPrompt string

	// TaskKind labels the task type, e.g. "email", "opinion".
	TaskKind string

	// AnswerText is the learner's essay or speech transcript.
	AnswerText string

	// Level is the session's target CEFR level, e.g. "B1".
	Level string

	// Language is the exam language, e.g. "Finnish".
	Language string

	// Scale declares the rubric bounds the result must respect.
	Scale exam.RubricScale

	// PriorWeakAreas optionally lists the learner's known weak areas so
	// the grader can focus its feedback.
	PriorWeakAreas []string
}

// Feedback is the qualitative half of a grading result.
type Feedback struct {
	Strengths  string `json:"strengths"`
	Weaknesses string `json:"weaknesses"`
}

// Result is one accepted grading outcome for one task.
// A Result is created exactly once per task per successful attempt;
// results from failed attempts are discarded, never merged.
type Result struct {
	// PerCriterion holds the score for each of the four fixed criteria.
	PerCriterion map[string]int

	// TotalScore is within the declared scale bounds.
	TotalScore int

	// CEFRLevel is the grader's level estimate for this answer.
	CEFRLevel string

	Feedback Feedback

	// Failed marks a result placeholder for a task whose grading failed
	// terminally; such results carry no scores.
	Failed bool

	// FailureReason holds the error message when Failed is set.
	FailureReason string

	// GradedAt is stamped when the dispatcher accepts the result. The
	// aggregator uses it for the last-graded-wins level rule.
	GradedAt time.Time
}

// Grader produces a Result for a single request. Implementations must
// validate collaborator responses before returning them; a malformed
// response is an error, never a fabricated Result.
type Grader interface {
	Grade(ctx context.Context, req Request) (*Result, error)
}

// BatchResult reports a whole grading batch: the success set and the
// failure set. The dispatcher never partially commits; the caller owns
// the retry decision over the failure set.
type BatchResult struct {
	Results  map[string]*Result
	Failures map[string]error
}

// Failed reports whether any item in the batch failed.
func (b *BatchResult) Failed() bool {
	return len(b.Failures) > 0
}
