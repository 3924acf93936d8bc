package grading

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Dispatcher fans a grading batch out to the collaborator with bounded
// concurrency and per-call timeouts, and assembles the outcome keyed by
// item. Result assembly is order-independent; callers must not depend on
// completion order beyond the GradedAt stamps inside the results.
type Dispatcher struct {
	grader Grader
	cfg    Config
}

// NewDispatcher creates a Dispatcher over the given grader.
func NewDispatcher(grader Grader, cfg Config) *Dispatcher {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultConfig().MaxConcurrent
	}
	return &Dispatcher{grader: grader, cfg: cfg}
}

// GradeBatch grades every request in the batch and reports the whole
// outcome: per-item results plus per-item failures. Individual failures
// are collected, not propagated; the caller owns the retry decision and
// no partial state is committed anywhere else.
func (d *Dispatcher) GradeBatch(ctx context.Context, reqs map[string]Request) *BatchResult {
	batch := &BatchResult{
		Results:  make(map[string]*Result, len(reqs)),
		Failures: make(map[string]error),
	}
	if len(reqs) == 0 {
		return batch
	}

	limit := d.cfg.MaxConcurrent
	if len(reqs) < limit {
		limit = len(reqs)
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(limit)

	for key, req := range reqs {
		g.Go(func() error {
			callCtx := ctx
			if d.cfg.CallTimeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, d.cfg.CallTimeout)
				defer cancel()
			}

			result, err := d.grader.Grade(callCtx, req)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				batch.Failures[key] = classifyError(err)
				return nil
			}
			batch.Results[key] = result
			return nil
		})
	}

	// Workers never return errors; failures are collected as values.
	_ = g.Wait()

	// A cancelled batch reports every unresolved item as failed.
	if err := ctx.Err(); err != nil {
		for key := range reqs {
			if _, ok := batch.Results[key]; !ok {
				if _, ok := batch.Failures[key]; !ok {
					batch.Failures[key] = &TransportError{Err: err}
				}
			}
		}
	}

	return batch
}
