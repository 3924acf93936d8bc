package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/kielo/internal/session"
)

// SaveFinal persists a finalized session and its per-item results in a
// single transaction. Sessions are write-once: saving an already stored
// session id is an error.
func (s *Store) SaveFinal(ctx context.Context, rec session.FinalRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	sum := rec.Summary
	passed := 0
	if sum.Passed {
		passed = 1
	}
	gradingFailed := 0
	if sum.GradingFailed {
		gradingFailed = 1
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, section, level, language, percentage,
			correct_count, total_count, cefr_level, passed, grading_failed, finalized_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, string(rec.Kind), rec.Level, rec.Language,
		sum.Percentage, sum.CorrectCount, sum.TotalCount,
		sum.CEFRLevel, passed, gradingFailed, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	for _, item := range sum.Items {
		correct := 0
		if item.Correct {
			correct = 1
		}
		warmup := 0
		if item.WarmUp {
			warmup = 1
		}
		failed := 0
		if item.Failed {
			failed = 1
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO item_results (session_id, item_key, answer, correct,
				total_score, max_score, penalty, cefr_level, strengths,
				weaknesses, warmup, failed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.SessionID, item.Key, rec.Answers[item.Key], correct,
			item.TotalScore, item.MaxScore, item.Penalty, item.CEFRLevel,
			item.Strengths, item.Weaknesses,
			warmup, failed,
		)
		if err != nil {
			return fmt.Errorf("insert item %s: %w", item.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// SectionStats aggregates finalized sessions for one section kind.
type SectionStats struct {
	Section       string
	Sessions      int
	AvgPercentage float64
	Passed        int
}

// Stats returns per-section aggregates over finalized sessions.
// Sessions whose grading failed are excluded so their zero percentages
// don't drag down averages.
func (s *Store) Stats(ctx context.Context) ([]SectionStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT section, COUNT(*), AVG(percentage), SUM(passed)
		FROM sessions
		WHERE grading_failed = 0
		GROUP BY section
		ORDER BY section`)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	var out []SectionStats
	for rows.Next() {
		var st SectionStats
		if err := rows.Scan(&st.Section, &st.Sessions, &st.AvgPercentage, &st.Passed); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// RecentWeakAreas collects weakness feedback from the latest finalized
// sessions, newest first, up to limit entries. Used to steer content
// generation toward areas the learner struggles with.
func (s *Store) RecentWeakAreas(ctx context.Context, language string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ir.weaknesses
		FROM item_results ir
		JOIN sessions se ON se.id = ir.session_id
		WHERE se.language = ? AND ir.weaknesses != '' AND ir.failed = 0
		ORDER BY se.finalized_at DESC
		LIMIT 20`, language)
	if err != nil {
		return nil, fmt.Errorf("query weak areas: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var out []string
	for rows.Next() {
		var joined string
		if err := rows.Scan(&joined); err != nil {
			return nil, fmt.Errorf("scan weak areas: %w", err)
		}
		for _, w := range strings.Split(joined, "\n") {
			w = strings.TrimSpace(w)
			if w == "" || seen[w] {
				continue
			}
			seen[w] = true
			out = append(out, w)
			if len(out) >= limit {
				return out, nil
			}
		}
	}
	return out, rows.Err()
}
