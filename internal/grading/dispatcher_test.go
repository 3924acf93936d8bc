package grading

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/kielo/internal/exam"
)

// scriptedGrader returns per-key scripted outcomes and tracks peak
// concurrency.
type scriptedGrader struct {
	mu      sync.Mutex
	fail    map[string]error
	delay   time.Duration
	active  int
	maxSeen int
	calls   int
}

func (g *scriptedGrader) Grade(ctx context.Context, req Request) (*Result, error) {
	g.mu.Lock()
	g.calls++
	g.active++
	if g.active > g.maxSeen {
		g.maxSeen = g.active
	}
	err := g.fail[req.TaskPrompt]
	g.mu.Unlock()

	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			g.mu.Lock()
			g.active--
			g.mu.Unlock()
			return nil, ctx.Err()
		}
	}

	g.mu.Lock()
	g.active--
	g.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return &Result{
		PerCriterion: map[string]int{"content": 5, "coherence": 5, "vocabulary": 5, "grammar": 5},
		TotalScore:   20,
		CEFRLevel:    "B1.1",
		Feedback:     Feedback{Strengths: "s", Weaknesses: "w"},
		GradedAt:     time.Now(),
	}, nil
}

func batchOf(keys ...string) map[string]Request {
	reqs := make(map[string]Request, len(keys))
	for _, k := range keys {
		reqs[k] = Request{TaskPrompt: k, Scale: exam.Scale1to8}
	}
	return reqs
}

func TestGradeBatch_AllSucceed(t *testing.T) {
	g := &scriptedGrader{}
	d := NewDispatcher(g, DefaultConfig())

	batch := d.GradeBatch(context.Background(), batchOf("0", "1", "2"))
	if batch.Failed() {
		t.Fatalf("unexpected failures: %v", batch.Failures)
	}
	if len(batch.Results) != 3 {
		t.Errorf("results = %d, want 3", len(batch.Results))
	}
}

func TestGradeBatch_CollectsFailures(t *testing.T) {
	g := &scriptedGrader{fail: map[string]error{
		"1": errors.New("timeout"),
	}}
	d := NewDispatcher(g, DefaultConfig())

	batch := d.GradeBatch(context.Background(), batchOf("0", "1", "2"))
	if len(batch.Results) != 2 {
		t.Errorf("results = %d, want 2", len(batch.Results))
	}
	if len(batch.Failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(batch.Failures))
	}
	var transportErr *TransportError
	if !errors.As(batch.Failures["1"], &transportErr) {
		t.Errorf("failure should be classified, got %v", batch.Failures["1"])
	}
}

func TestGradeBatch_BoundedConcurrency(t *testing.T) {
	g := &scriptedGrader{delay: 20 * time.Millisecond}
	cfg := DefaultConfig()
	cfg.MaxConcurrent = 2
	d := NewDispatcher(g, cfg)

	d.GradeBatch(context.Background(), batchOf("0", "1", "2", "3", "4", "5"))
	if g.maxSeen > 2 {
		t.Errorf("observed %d concurrent calls, limit is 2", g.maxSeen)
	}
	if g.calls != 6 {
		t.Errorf("calls = %d, want 6", g.calls)
	}
}

func TestGradeBatch_Cancellation(t *testing.T) {
	g := &scriptedGrader{delay: time.Second}
	d := NewDispatcher(g, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	batch := d.GradeBatch(ctx, batchOf("0", "1"))
	if len(batch.Results) != 0 {
		t.Errorf("cancelled batch should commit nothing, got %d results", len(batch.Results))
	}
	if len(batch.Failures) != 2 {
		t.Errorf("every unresolved item should be reported failed, got %d", len(batch.Failures))
	}
}

func TestGradeBatch_Empty(t *testing.T) {
	d := NewDispatcher(&scriptedGrader{}, DefaultConfig())
	batch := d.GradeBatch(context.Background(), nil)
	if batch.Failed() || len(batch.Results) != 0 {
		t.Errorf("empty batch should resolve empty, got %+v", batch)
	}
}
