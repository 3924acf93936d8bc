package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abhisek/kielo/internal/contentgen"
	"github.com/abhisek/kielo/internal/exam"
	"github.com/abhisek/kielo/internal/grading"
	"github.com/abhisek/kielo/internal/llm"
	"github.com/abhisek/kielo/internal/scoring"
	"github.com/abhisek/kielo/internal/session"
	"github.com/abhisek/kielo/internal/store"
	"github.com/spf13/cobra"
)

// maxGenerateAttempts bounds content regeneration when the model returns
// structurally invalid sections.
const maxGenerateAttempts = 3

var practiceCmd = &cobra.Command{
	Use:   "practice [reading|listening|writing|speaking]",
	Short: "Run one practice session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := exam.SectionKind(args[0])
		if !kind.Valid() {
			return fmt.Errorf("unknown section %q (want reading, listening, writing or speaking)", args[0])
		}
		level, _ := cmd.Flags().GetString("level")
		language, _ := cmd.Flags().GetString("language")
		return runPractice(cmd, kind, level, language)
	},
}

func init() {
	practiceCmd.Flags().String("level", "B1", "Target CEFR level (A1-C2)")
	practiceCmd.Flags().String("language", "Finnish", "Exam language")
}

func runPractice(cmd *cobra.Command, kind exam.SectionKind, level, language string) error {
	ctx := cmd.Context()

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	provider, err := llm.NewProviderFromEnv(ctx, st)
	if err != nil {
		return fmt.Errorf("LLM provider not configured: %w", err)
	}

	weakAreas, err := st.RecentWeakAreas(ctx, language, contentgen.DefaultConfig().MaxWeakAreas)
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning: could not load weak areas:", err)
	}

	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()
	dispatcher := grading.NewDispatcher(grading.NewGrader(provider, grading.DefaultConfig()), grading.DefaultConfig())

	eng := session.New(dispatcher,
		session.WithPersister(st),
		session.WithProgression(st),
		session.WithWeakAreas(weakAreas),
		session.WithRetryDecider(&promptDecider{in: in, out: out}),
	)

	generator := contentgen.New(provider, contentgen.DefaultConfig())
	if err := loadSection(ctx, eng, generator, contentgen.Input{
		Kind:      kind,
		Level:     level,
		Language:  language,
		WeakAreas: weakAreas,
	}); err != nil {
		return err
	}

	sec := eng.Session()
	fmt.Fprintf(out, "\n%s practice, %s level %s\n", kind, language, level)

	if err := collectAnswers(eng, sec, in, out); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nSubmitting...")
	summary, err := eng.Submit(ctx)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	printSummary(out, sec, summary)

	if summary.GradingFailed {
		fmt.Fprintln(out, "Grading could not be completed; this session will not be recorded.")
		return nil
	}
	if err := eng.Finalize(ctx); err != nil {
		return fmt.Errorf("finalize: %w", err)
	}

	ready, err := st.ReadyToAdvance(ctx)
	if err == nil && ready {
		fmt.Fprintf(out, "\nThree passes in a row. Consider practicing at the next level.\n")
	}
	return nil
}

// loadSection generates content and loads it, regenerating on invalid output.
func loadSection(ctx context.Context, eng *session.Engine, gen *contentgen.LLMGenerator, input contentgen.Input) error {
	var lastErr error
	for attempt := 1; attempt <= maxGenerateAttempts; attempt++ {
		raw, err := gen.Generate(ctx, input)
		if err != nil {
			lastErr = err
			continue
		}
		if err := eng.LoadContent(raw, input.Kind); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("generate %s section: %w", input.Kind, lastErr)
}

// collectAnswers walks the section item by item, reading answers from in.
func collectAnswers(eng *session.Engine, sec *exam.CanonicalSession, in *bufio.Reader, out io.Writer) error {
	for pi, part := range sec.Parts {
		if part.Title != "" {
			fmt.Fprintf(out, "\n== %s ==\n", part.Title)
		}
		fmt.Fprintf(out, "\n%s\n", part.Content)
		for qi, q := range part.Questions {
			if err := askQuestion(eng, exam.AnswerKey(pi, qi), q, in, out); err != nil {
				return err
			}
		}
	}

	for ci, clip := range sec.Clips {
		fmt.Fprintf(out, "\n[%s]\n%s\n", clip.ScenarioDescription, clip.Transcript)
		for qi, q := range clip.Questions {
			if err := askQuestion(eng, exam.AnswerKey(ci, qi), q, in, out); err != nil {
				return err
			}
		}
	}

	for ti, task := range sec.Tasks {
		fmt.Fprintf(out, "\nTask %d: %s\n", ti+1, task.Prompt)
		if task.MinWords > 0 {
			fmt.Fprintf(out, "(write at least %d words; finish with an empty line)\n", task.MinWords)
		} else {
			fmt.Fprintln(out, "(finish with an empty line)")
		}
		text, err := readMultiline(in)
		if err != nil {
			return err
		}
		if err := eng.SetAnswer(exam.TaskKey(ti), text); err != nil {
			return err
		}
	}
	return nil
}

func askQuestion(eng *session.Engine, key string, q exam.ObjectiveQuestion, in *bufio.Reader, out io.Writer) error {
	fmt.Fprintf(out, "\n%s\n", q.Prompt)
	for i, opt := range q.Options {
		fmt.Fprintf(out, "  %c) %s\n", 'A'+i, opt)
	}
	fmt.Fprint(out, "> ")
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("read answer: %w", err)
	}
	answer := strings.TrimSpace(line)

	// The matcher compares option text; map a typed letter to its option.
	if len(answer) == 1 && len(q.Options) > 0 {
		idx := int(strings.ToUpper(answer)[0] - 'A')
		if idx >= 0 && idx < len(q.Options) {
			answer = q.Options[idx]
		}
	}
	return eng.SetAnswer(key, answer)
}

func readMultiline(in *bufio.Reader) (string, error) {
	var lines []string
	for {
		line, err := in.ReadString('\n')
		line = strings.TrimRight(line, "\n")
		if line == "" || err == io.EOF {
			if line != "" {
				lines = append(lines, line)
			}
			break
		}
		if err != nil {
			return "", fmt.Errorf("read answer: %w", err)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

func printSummary(out io.Writer, sec *exam.CanonicalSession, s *scoring.Summary) {
	fmt.Fprintln(out)
	if s.GradingFailed {
		fmt.Fprintln(out, "Result: ungraded (grading failed)")
		return
	}

	if sec.Kind.IsObjective() {
		fmt.Fprintf(out, "Result: %d/%d correct (%d%%), estimated level %s\n",
			s.CorrectCount, s.TotalCount, s.Percentage, s.CEFRLevel)
		for _, item := range s.Items {
			mark := "x"
			if item.Correct {
				mark = "+"
			}
			fmt.Fprintf(out, "  [%s] %s\n", mark, item.Prompt)
			if !item.Correct {
				fmt.Fprintf(out, "      answer: %s\n", item.CorrectAnswer)
				if item.Explanation != "" {
					fmt.Fprintf(out, "      %s\n", item.Explanation)
				}
			}
		}
	} else {
		fmt.Fprintf(out, "Result: %d%%, estimated level %s\n", s.Percentage, s.CEFRLevel)
		for _, item := range s.Items {
			switch {
			case item.WarmUp:
				fmt.Fprintf(out, "  [warm-up] %s\n", item.Prompt)
			case item.Failed:
				fmt.Fprintf(out, "  [not graded] %s\n", item.Prompt)
			default:
				fmt.Fprintf(out, "  [%d/%d] %s\n", item.TotalScore, item.MaxScore, item.Prompt)
				if item.Penalty > 0 {
					fmt.Fprintf(out, "      word-count penalty: -%d\n", item.Penalty)
				}
				if item.Strengths != "" {
					fmt.Fprintf(out, "      strengths: %s\n", item.Strengths)
				}
				if item.Weaknesses != "" {
					fmt.Fprintf(out, "      work on: %s\n", item.Weaknesses)
				}
			}
		}
	}

	if s.Passed {
		fmt.Fprintln(out, "Passed at target level.")
	}
}

// promptDecider asks the learner on stdin whether to retry failed grading.
type promptDecider struct {
	in  *bufio.Reader
	out io.Writer
}

func (d *promptDecider) ShouldRetry(ctx context.Context, attempt int, failures map[string]error) bool {
	fmt.Fprintf(d.out, "\nGrading failed for %d item(s) on attempt %d. Retry? [y/N] ", len(failures), attempt)
	line, err := d.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false
	}
	if ctx.Err() != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
