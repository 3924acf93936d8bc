package grading

import (
	"fmt"
	"strings"
)

const gradingSystemPrompt = `You are an experienced language exam assessor grading learner answers against a fixed rubric.

Rules:
- Grade only the answer text provided. Do not invent content the learner did not write.
- Score exactly four criteria: content, coherence, vocabulary, grammar.
- Every criterion score must be an integer within the declared scale. The total is the sum of the four.
- Judge against the target CEFR level: an answer fully adequate for the level earns high scores even if it is not native-like.
- Estimate the CEFR level the answer actually demonstrates, independent of the target level.
- Feedback must name concrete strengths and concrete weaknesses, in English, citing examples from the answer.
- Never leave feedback empty.`

// buildUserMessage renders one grading request for the model.
func buildUserMessage(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Language: %s\n", req.Language)
	fmt.Fprintf(&b, "Target level: %s\n", req.Level)
	fmt.Fprintf(&b, "Task type: %s\n", req.TaskKind)
	min, max := req.Scale.PerCriterionBounds()
	fmt.Fprintf(&b, "Rubric scale: %d-%d per criterion\n", min, max)

	if len(req.PriorWeakAreas) > 0 {
		fmt.Fprintf(&b, "Known weak areas: %s\n", strings.Join(req.PriorWeakAreas, ", "))
	}

	b.WriteString("\nTask:\n")
	b.WriteString(req.TaskPrompt)
	b.WriteString("\n\nLearner answer:\n")
	b.WriteString(req.AnswerText)

	return b.String()
}
