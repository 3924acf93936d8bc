package contentgen

import (
	"fmt"
	"strings"

	"github.com/abhisek/kielo/internal/exam"
)

const contentSystemPrompt = `You are a language exam author creating practice sections for adult learners.

Rules:
- Write all exam material in the target language; write explanations in English.
- Keep every text and question appropriate for the target CEFR level: vocabulary, sentence length and topics must match the level.
- Reading sections: 2-3 short authentic-feeling passages (notices, emails, short articles), each with 2-4 multiple choice questions.
- Listening sections: 2-3 short scripted scenarios (announcements, phone messages, conversations) with a scenario description, a transcript, and 2-3 questions each.
- Writing sections: 2-3 tasks of increasing length; the first may be a short ungraded warm-up. Declare a realistic minimum word count per task.
- Speaking sections: 2-4 short prompts; the first may be an ungraded warm-up.
- Multiple choice questions have 3-4 options with exactly one correct answer. Set correct_answer to the letter of the correct option.
- Explanations must justify the correct answer briefly.`

// buildUserMessage renders a generation request for the model.
func buildUserMessage(input Input, cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Section: %s\n", input.Kind)
	fmt.Fprintf(&b, "Language: %s\n", input.Language)
	fmt.Fprintf(&b, "Target level: %s\n", input.Level)

	if len(input.WeakAreas) > 0 {
		areas := input.WeakAreas
		if len(areas) > cfg.MaxWeakAreas {
			areas = areas[:cfg.MaxWeakAreas]
		}
		fmt.Fprintf(&b, "Focus areas (learner weaknesses): %s\n", strings.Join(areas, ", "))
	}

	if input.Kind == exam.SectionWriting || input.Kind == exam.SectionSpeaking {
		b.WriteString("\nUse rubric scale \"0-2\" for warm-up tasks and \"1-8\" for graded tasks.\n")
	}

	return b.String()
}
