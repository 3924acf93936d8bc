package store

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/kielo/internal/scoring"
)

// advanceStreak is how many consecutive passes at a level suggest the
// learner is ready for the next one.
const advanceStreak = 3

// RecordOutcome appends a graded session outcome to the progression
// history. Implements session.Progression; the engine never calls it for
// ungraded sessions.
func (s *Store) RecordOutcome(ctx context.Context, sessionID string, summary *scoring.Summary) error {
	passed := 0
	if summary.Passed {
		passed = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO progression (session_id, level, percentage, passed, recorded_at)
		VALUES (?, ?, ?, ?, ?)`,
		sessionID, summary.CEFRLevel, summary.Percentage, passed, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert progression: %w", err)
	}
	return nil
}

// ReadyToAdvance reports whether the learner's most recent graded
// sessions form an unbroken passing streak.
func (s *Store) ReadyToAdvance(ctx context.Context) (bool, error) {
	// rowid order is insertion order, stable even when timestamps collide.
	rows, err := s.db.QueryContext(ctx, `
		SELECT passed FROM progression
		ORDER BY rowid DESC
		LIMIT ?`, advanceStreak)
	if err != nil {
		return false, fmt.Errorf("query progression: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var passed int
		if err := rows.Scan(&passed); err != nil {
			return false, fmt.Errorf("scan progression: %w", err)
		}
		if passed == 0 {
			return false, nil
		}
		count++
	}
	return count >= advanceStreak, rows.Err()
}
