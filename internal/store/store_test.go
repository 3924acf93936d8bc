package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/kielo/internal/exam"
	"github.com/abhisek/kielo/internal/llm"
	"github.com/abhisek/kielo/internal/scoring"
	"github.com/abhisek/kielo/internal/session"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "kielo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord(id string, passed bool) session.FinalRecord {
	pct := 75
	if !passed {
		pct = 40
	}
	return session.FinalRecord{
		SessionID: id,
		Kind:      exam.SectionReading,
		Level:     "B1",
		Language:  "Finnish",
		Answers:   map[string]string{"0:0": "Sauna"},
		Summary: &scoring.Summary{
			Percentage:   pct,
			CorrectCount: 3,
			TotalCount:   4,
			CEFRLevel:    "B1.2",
			Passed:       passed,
			Items: []scoring.ItemResult{
				{Key: "0:0", Prompt: "Mikä?", Selected: "Sauna", Correct: true},
				{Key: "0:1", Prompt: "Missä?", Correct: false},
			},
		},
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)

	var mode string
	require.NoError(t, s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var fk string
	require.NoError(t, s.DB().QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, "1", fk)
}

func TestSaveFinal_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveFinal(ctx, sampleRecord("s1", true)))

	var count int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM item_results WHERE session_id = 's1'").Scan(&count))
	assert.Equal(t, 2, count)

	var pct int
	var level string
	require.NoError(t, s.DB().QueryRow("SELECT percentage, cefr_level FROM sessions WHERE id = 's1'").Scan(&pct, &level))
	assert.Equal(t, 75, pct)
	assert.Equal(t, "B1.2", level)
}

func TestSaveFinal_WriteOnce(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveFinal(ctx, sampleRecord("s1", true)))
	assert.Error(t, s.SaveFinal(ctx, sampleRecord("s1", false)), "same session id must not be saved twice")

	// The failed save must not leave partial rows behind.
	var count int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM item_results").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveFinal(ctx, sampleRecord("s1", true)))
	require.NoError(t, s.SaveFinal(ctx, sampleRecord("s2", false)))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "reading", stats[0].Section)
	assert.Equal(t, 2, stats[0].Sessions)
	assert.Equal(t, 1, stats[0].Passed)
	assert.InDelta(t, 57.5, stats[0].AvgPercentage, 0.01)
}

func TestStats_ExcludesGradingFailed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("s1", false)
	rec.Summary.GradingFailed = true
	rec.Summary.Percentage = 0
	require.NoError(t, s.SaveFinal(ctx, rec))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Empty(t, stats, "ungraded sessions must not drag averages down")
}

func TestAppendRequestAndUsage(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendRequest(ctx, llm.RequestEvent{
		Provider: "mock", Model: "mock", Purpose: "grading",
		InputTokens: 100, OutputTokens: 40, Success: true,
	}))
	require.NoError(t, s.AppendRequest(ctx, llm.RequestEvent{
		Provider: "mock", Model: "mock", Purpose: "content-gen",
		ErrorMessage: "rate limited",
	}))

	u, err := s.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, u.Requests)
	assert.Equal(t, 100, u.InputTokens)
	assert.Equal(t, 40, u.OutputTokens)
	assert.Equal(t, 1, u.Failures)
}

func TestProgression_ReadyToAdvance(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	pass := &scoring.Summary{Percentage: 80, CEFRLevel: "B1.2", Passed: true}
	fail := &scoring.Summary{Percentage: 50, CEFRLevel: "B1.1"}

	require.NoError(t, s.RecordOutcome(ctx, "s1", pass))
	require.NoError(t, s.RecordOutcome(ctx, "s2", pass))

	ready, err := s.ReadyToAdvance(ctx)
	require.NoError(t, err)
	assert.False(t, ready, "two passes are not enough")

	require.NoError(t, s.RecordOutcome(ctx, "s3", pass))
	ready, err = s.ReadyToAdvance(ctx)
	require.NoError(t, err)
	assert.True(t, ready)

	require.NoError(t, s.RecordOutcome(ctx, "s4", fail))
	ready, err = s.ReadyToAdvance(ctx)
	require.NoError(t, err)
	assert.False(t, ready, "a recent failure breaks the streak")
}

func TestRecentWeakAreas(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("s1", true)
	rec.Kind = exam.SectionWriting
	rec.Summary.Items = []scoring.ItemResult{
		{Key: "0", Prompt: "email", TotalScore: 20, MaxScore: 32, Weaknesses: "article usage\nword order"},
		{Key: "1", Prompt: "opinion", TotalScore: 24, MaxScore: 32, Weaknesses: "article usage"},
	}
	require.NoError(t, s.SaveFinal(ctx, rec))

	areas, err := s.RecentWeakAreas(ctx, "Finnish", 5)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"article usage", "word order"}, areas, "duplicates collapsed")

	areas, err = s.RecentWeakAreas(ctx, "Swedish", 5)
	require.NoError(t, err)
	assert.Empty(t, areas, "other languages excluded")
}
