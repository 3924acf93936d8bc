package scoring

import (
	"math"

	"github.com/abhisek/kielo/internal/exam"
	"github.com/abhisek/kielo/internal/grading"
)

// PassThreshold is the minimum percentage counted as passing the section
// at its target level (the upper-intermediate band boundary).
const PassThreshold = 61

// ItemResult is the per-item entry in a Summary.
type ItemResult struct {
	Key    string
	Prompt string

	// Objective fields.
	Selected      string
	CorrectAnswer string
	Correct       bool
	Explanation   string

	// Subjective fields.
	TotalScore int
	MaxScore   int
	CEFRLevel  string
	Strengths  string
	Weaknesses string
	Penalty    int
	WarmUp     bool
	Failed     bool
}

// Summary is the final aggregation of a session. It is always rebuilt
// from the answer and result sets, never mutated in place, so the same
// inputs always produce the same summary.
type Summary struct {
	Percentage    int
	CorrectCount  int
	TotalCount    int
	CEFRLevel     string
	Passed        bool
	GradingFailed bool
	Items         []ItemResult
}

// Objective scores a reading or listening section: every question is
// matched locally, percentage is round(correct/total*100), and the level
// estimate comes from the fixed percentage bands.
func Objective(session *exam.CanonicalSession, answers map[string]string) *Summary {
	items := session.ObjectiveItems()

	s := &Summary{TotalCount: len(items)}
	for _, item := range items {
		selected := answers[item.Key]
		correct := exam.MatchAnswer(selected, item.Question)
		if correct {
			s.CorrectCount++
		}
		s.Items = append(s.Items, ItemResult{
			Key:           item.Key,
			Prompt:        item.Question.Prompt,
			Selected:      selected,
			CorrectAnswer: item.Question.CorrectAnswer,
			Correct:       correct,
			Explanation:   item.Question.Explanation,
		})
	}

	s.Percentage = roundPercentage(s.CorrectCount, s.TotalCount)
	s.CEFRLevel = exam.LevelForPercentage(s.Percentage, session.Level)
	s.Passed = s.Percentage >= PassThreshold
	return s
}

// Subjective scores a writing or speaking section from accepted grading
// results. Warm-up tasks are excluded from both numerator and denominator.
// The word-count penalty is applied here, once, after grading and before
// aggregation; the underlying grading results are never modified.
func Subjective(session *exam.CanonicalSession, answers map[string]string, results map[string]*grading.Result) *Summary {
	s := &Summary{}

	scoreSum := 0
	maxSum := 0
	gradedCount := 0
	repLevel := ""
	var repGradedAt = int64(-1 << 62)

	for i, task := range session.Tasks {
		key := exam.TaskKey(i)
		item := ItemResult{
			Key:    key,
			Prompt: task.Prompt,
			WarmUp: !task.Graded,
		}

		if !task.Graded {
			s.Items = append(s.Items, item)
			continue
		}

		r, ok := results[key]
		if !ok || r == nil || r.Failed {
			item.Failed = true
			s.Items = append(s.Items, item)
			continue
		}

		total := r.TotalScore
		if session.Kind == exam.SectionWriting && task.MinWords > 0 {
			penalty := WordCountPenalty(answers[key], task.MinWords)
			if penalty > 0 {
				total -= penalty
				if total < task.Scale.TotalMin() {
					total = task.Scale.TotalMin()
				}
				item.Penalty = r.TotalScore - total
			}
		}

		item.TotalScore = total
		item.MaxScore = task.Scale.TotalMax()
		item.CEFRLevel = r.CEFRLevel
		item.Strengths = r.Feedback.Strengths
		item.Weaknesses = r.Feedback.Weaknesses
		s.Items = append(s.Items, item)

		scoreSum += total
		maxSum += task.Scale.TotalMax()
		gradedCount++

		// Last-graded-wins representative level; later task index wins
		// ties so the summary stays deterministic for a fixed result set.
		if at := r.GradedAt.UnixNano(); at >= repGradedAt {
			repGradedAt = at
			repLevel = r.CEFRLevel
		}
	}

	s.TotalCount = gradedCount
	s.CorrectCount = gradedCount
	if maxSum > 0 {
		s.Percentage = roundRatio(scoreSum, maxSum)
	}
	s.CEFRLevel = repLevel
	if s.CEFRLevel == "" {
		s.CEFRLevel = exam.LevelForPercentage(s.Percentage, session.Level)
	}
	s.Passed = s.Percentage >= PassThreshold
	return s
}

// Ungraded builds the terminal summary for a session whose grading failed
// after all retries. The percentage reads 0 but GradingFailed marks the
// session as not graded; it must never count against the learner.
func Ungraded(session *exam.CanonicalSession) *Summary {
	var items []ItemResult
	for i, task := range session.Tasks {
		items = append(items, ItemResult{
			Key:    exam.TaskKey(i),
			Prompt: task.Prompt,
			WarmUp: !task.Graded,
			Failed: task.Graded,
		})
	}
	return &Summary{
		GradingFailed: true,
		Items:         items,
	}
}

// roundPercentage computes round(correct/total*100); zero total yields 0.
func roundPercentage(correct, total int) int {
	return roundRatio(correct, total)
}

func roundRatio(num, den int) int {
	if den == 0 {
		return 0
	}
	return int(math.Round(float64(num) / float64(den) * 100))
}
