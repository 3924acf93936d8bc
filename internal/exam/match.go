package exam

import (
	"strings"
	"unicode"
)

// MatchAnswer compares the learner's selection against the question's
// declared correct answer. Returns true if the answer is correct.
//
// The content generator emits the correct answer as either a single letter
// (A-Z, referring to an option index) or the full option text; the matcher
// accepts both encodings without configuration.
//
// Normalization rules applied to both sides before comparison:
// - Whitespace is trimmed and internal runs collapsed to single spaces
// - Curly quotes are mapped to straight quotes
// - Trailing sentence punctuation is stripped
// - Comparison is case-insensitive
//
// An empty selection is always incorrect. MatchAnswer never fails.
func MatchAnswer(selected string, q ObjectiveQuestion) bool {
	learner := normalizeText(selected)
	if learner == "" {
		return false
	}

	// Normalize before the letter check so a key like "A." still counts
	// as a letter encoding.
	correct := normalizeText(q.CorrectAnswer)

	// Single-letter correct answers index into the option list (A=0, B=1, ...).
	if len(q.Options) > 0 && isOptionLetter(correct) {
		idx := letterIndex(correct)
		if idx < 0 || idx >= len(q.Options) {
			return false
		}
		return learner == normalizeText(q.Options[idx])
	}

	return learner == correct
}

// isOptionLetter reports whether s is a single alphabetic character.
func isOptionLetter(s string) bool {
	r := []rune(s)
	return len(r) == 1 && unicode.IsLetter(r[0]) && r[0] < 128
}

// letterIndex maps "A"/"a" to 0, "B"/"b" to 1, and so on.
func letterIndex(s string) int {
	r := []rune(strings.ToUpper(s))[0]
	return int(r - 'A')
}

var quoteReplacer = strings.NewReplacer(
	"‘", "'", // left single
	"’", "'", // right single
	"“", `"`, // left double
	"”", `"`, // right double
)

// normalizeText prepares a string for answer comparison.
func normalizeText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Join(strings.Fields(s), " ")
	s = quoteReplacer.Replace(s)
	s = strings.TrimRight(s, ".!?")
	return strings.ToLower(s)
}
