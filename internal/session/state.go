package session

// State is the lifecycle phase of an assessment session.
type State int

const (
	// StateContentLoading awaits generated content. Invalid content keeps
	// the session here so the caller can regenerate.
	StateContentLoading State = iota

	// StateAnswering collects learner answers.
	StateAnswering

	// StateSubmitting freezes answers and routes them for scoring.
	StateSubmitting

	// StateGrading awaits the grading collaborator; only sections with
	// subjective items enter this state.
	StateGrading

	// StateSummarized holds the computed summary pending confirmation.
	StateSummarized

	// StateFinalized is terminal: the summary has been handed to the
	// persistence collaborator and is immutable.
	StateFinalized

	// StateCancelled is terminal: the learner abandoned the session.
	StateCancelled

	// StateGradingFailed is the terminal outcome after the grading retry
	// budget is exhausted or the learner declines a retry. The score is
	// reported ungraded, never as a counted zero.
	StateGradingFailed
)

func (s State) String() string {
	switch s {
	case StateContentLoading:
		return "content-loading"
	case StateAnswering:
		return "answering"
	case StateSubmitting:
		return "submitting"
	case StateGrading:
		return "grading"
	case StateSummarized:
		return "summarized"
	case StateFinalized:
		return "finalized"
	case StateCancelled:
		return "cancelled"
	case StateGradingFailed:
		return "grading-failed"
	}
	return "unknown"
}

// Terminal reports whether no further transitions are possible, except
// the bounded GradingFailed → Grading retry cycle.
func (s State) Terminal() bool {
	return s == StateFinalized || s == StateCancelled || s == StateGradingFailed
}
