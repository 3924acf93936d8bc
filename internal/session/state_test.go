package session

import "testing"

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateContentLoading, "content-loading"},
		{StateAnswering, "answering"},
		{StateSubmitting, "submitting"},
		{StateGrading, "grading"},
		{StateSummarized, "summarized"},
		{StateFinalized, "finalized"},
		{StateCancelled, "cancelled"},
		{StateGradingFailed, "grading-failed"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestState_Terminal(t *testing.T) {
	terminal := map[State]bool{
		StateFinalized:     true,
		StateCancelled:     true,
		StateGradingFailed: true,
	}
	for s := StateContentLoading; s <= StateGradingFailed; s++ {
		if got := s.Terminal(); got != terminal[s] {
			t.Errorf("%s.Terminal() = %v, want %v", s, got, terminal[s])
		}
	}
}
