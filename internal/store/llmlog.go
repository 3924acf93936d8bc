package store

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/kielo/internal/llm"
)

// AppendRequest records one model API call. Implements llm.RequestLog.
func (s *Store) AppendRequest(ctx context.Context, e llm.RequestEvent) error {
	success := 0
	if e.Success {
		success = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO llm_requests (provider, model, purpose, input_tokens,
			output_tokens, latency_ms, success, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Provider, e.Model, e.Purpose, e.InputTokens, e.OutputTokens,
		e.LatencyMs, success, e.ErrorMessage, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert llm request: %w", err)
	}
	return nil
}

// UsageTotals sums token usage over the request log.
type UsageTotals struct {
	Requests     int
	InputTokens  int
	OutputTokens int
	Failures     int
}

// Usage returns aggregate token usage across all recorded model calls.
func (s *Store) Usage(ctx context.Context) (*UsageTotals, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(input_tokens), 0),
			COALESCE(SUM(output_tokens), 0),
			COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0)
		FROM llm_requests`)

	var u UsageTotals
	if err := row.Scan(&u.Requests, &u.InputTokens, &u.OutputTokens, &u.Failures); err != nil {
		return nil, fmt.Errorf("query usage: %w", err)
	}
	return &u, nil
}
