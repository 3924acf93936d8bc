package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/abhisek/kielo/internal/exam"
	"github.com/abhisek/kielo/internal/grading"
	"github.com/abhisek/kielo/internal/scoring"
)

// MaxGradingAttempts bounds batch grading attempts per session. The count
// lives in the engine, never in shared global state, so each session's
// retry budget is independent and testable in isolation.
const MaxGradingAttempts = 3

// ErrCancelled is returned by operations interrupted by Cancel.
var ErrCancelled = errors.New("session cancelled")

// InvalidTransitionError reports an operation called in the wrong state.
type InvalidTransitionError struct {
	From State
	Op   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s in state %s", e.Op, e.From)
}

// RetryDecider is consulted between failed grading attempts. The engine
// blocks on the call; implementations may await an asynchronous learner
// decision and should honor ctx cancellation.
type RetryDecider interface {
	ShouldRetry(ctx context.Context, attempt int, failures map[string]error) bool
}

// Persister receives the finalized record exactly once per session.
type Persister interface {
	SaveFinal(ctx context.Context, rec FinalRecord) error
}

// Progression records completed sessions for level-progression decisions.
// Ungraded sessions are never reported to it.
type Progression interface {
	RecordOutcome(ctx context.Context, sessionID string, summary *scoring.Summary) error
}

// Releasable is a held resource (e.g. an in-progress audio capture) that
// Cancel must release synchronously.
type Releasable interface {
	Release()
}

// FinalRecord is the write-once payload handed to the Persister.
type FinalRecord struct {
	SessionID string
	Kind      exam.SectionKind
	Level     string
	Language  string
	Summary   *scoring.Summary
	Answers   map[string]string
	Results   map[string]*grading.Result
}

// Engine drives one assessment session through its lifecycle. All methods
// are safe for concurrent use; grading fan-out is the only concurrency the
// engine itself creates.
type Engine struct {
	mu sync.Mutex

	id      string
	state   State
	session *exam.CanonicalSession
	answers map[string]string
	results map[string]*grading.Result
	summary *scoring.Summary

	// submitting is the single-writer submission guard: set before
	// dispatch, cleared in a guaranteed-cleanup path, so rapid repeated
	// submits produce exactly one grading dispatch.
	submitting bool

	// attempts counts grading batch attempts used by this session.
	attempts int

	cancelGrading context.CancelFunc
	resources     []Releasable

	dispatcher  *grading.Dispatcher
	decider     RetryDecider
	persister   Persister
	progression Progression
	weakAreas   []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithRetryDecider sets the retry decision collaborator.
func WithRetryDecider(d RetryDecider) Option {
	return func(e *Engine) { e.decider = d }
}

// WithPersister sets the persistence collaborator.
func WithPersister(p Persister) Option {
	return func(e *Engine) { e.persister = p }
}

// WithProgression sets the progression collaborator.
func WithProgression(p Progression) Option {
	return func(e *Engine) { e.progression = p }
}

// WithWeakAreas passes the learner's known weak areas to the grader.
func WithWeakAreas(areas []string) Option {
	return func(e *Engine) { e.weakAreas = areas }
}

// New creates an Engine in StateContentLoading.
func New(dispatcher *grading.Dispatcher, opts ...Option) *Engine {
	e := &Engine{
		id:         uuid.NewString(),
		state:      StateContentLoading,
		answers:    make(map[string]string),
		results:    make(map[string]*grading.Result),
		dispatcher: dispatcher,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ID returns the session UUID.
func (e *Engine) ID() string { return e.id }

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Session returns the canonical session, nil before content is loaded.
func (e *Engine) Session() *exam.CanonicalSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// Summary returns the computed summary, nil before submission resolves.
func (e *Engine) Summary() *scoring.Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.summary
}

// Attempts returns the grading attempts consumed so far.
func (e *Engine) Attempts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.attempts
}

// HoldResource registers a resource released synchronously on Cancel.
func (e *Engine) HoldResource(r Releasable) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resources = append(e.resources, r)
}

// LoadContent normalizes raw generated content into the canonical session
// and moves to StateAnswering. Invalid content leaves the engine in
// StateContentLoading; the caller should regenerate, never show an empty
// exam.
func (e *Engine) LoadContent(raw map[string]any, kind exam.SectionKind) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateContentLoading {
		return &InvalidTransitionError{From: e.state, Op: "load content"}
	}

	session, err := exam.ParseSession(raw, kind)
	if err != nil {
		return err
	}

	e.session = session
	e.state = StateAnswering
	return nil
}

// SetAnswer records the learner's answer for an item. Answers may only
// change while the session is in StateAnswering; they are frozen at
// submission.
func (e *Engine) SetAnswer(key, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateAnswering {
		return &InvalidTransitionError{From: e.state, Op: "set answer"}
	}
	e.answers[key] = text
	return nil
}

// Submit freezes the answers and resolves the session to a summary.
// Objective sections are scored locally and land in StateSummarized.
// Subjective sections enter StateGrading; failed batch subsets are
// retried up to MaxGradingAttempts with the RetryDecider consulted
// between attempts. A second Submit while one is in flight is a no-op.
func (e *Engine) Submit(ctx context.Context) (*scoring.Summary, error) {
	e.mu.Lock()
	if e.submitting {
		// Duplicate submission: suppressed, never surfaced as an error.
		e.mu.Unlock()
		return nil, nil
	}
	if e.state != StateAnswering {
		e.mu.Unlock()
		return nil, &InvalidTransitionError{From: e.state, Op: "submit"}
	}
	e.submitting = true
	e.state = StateSubmitting

	frozen := make(map[string]string, len(e.answers))
	for k, v := range e.answers {
		frozen[k] = v
	}
	session := e.session
	e.mu.Unlock()

	// Guard cleanup must run on every path, success or failure.
	defer func() {
		e.mu.Lock()
		e.submitting = false
		e.cancelGrading = nil
		e.mu.Unlock()
	}()

	if session.Kind.IsObjective() {
		summary := scoring.Objective(session, frozen)
		return summary, e.conclude(summary, StateSummarized)
	}

	return e.gradeAndSummarize(ctx, session, frozen)
}

// RetryGrading re-enters StateGrading from StateGradingFailed, provided
// attempts remain. This is the lifecycle's only cycle and it is bounded
// by MaxGradingAttempts.
func (e *Engine) RetryGrading(ctx context.Context) (*scoring.Summary, error) {
	e.mu.Lock()
	if e.state != StateGradingFailed {
		e.mu.Unlock()
		return nil, &InvalidTransitionError{From: e.state, Op: "retry grading"}
	}
	if e.attempts >= MaxGradingAttempts {
		e.mu.Unlock()
		return nil, fmt.Errorf("grading attempts exhausted (%d)", MaxGradingAttempts)
	}
	e.submitting = true
	frozen := make(map[string]string, len(e.answers))
	for k, v := range e.answers {
		frozen[k] = v
	}
	session := e.session
	e.summary = nil
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.submitting = false
		e.cancelGrading = nil
		e.mu.Unlock()
	}()

	return e.gradeAndSummarize(ctx, session, frozen)
}

// gradeAndSummarize runs the batch attempt loop over the failed subset.
func (e *Engine) gradeAndSummarize(ctx context.Context, session *exam.CanonicalSession, answers map[string]string) (*scoring.Summary, error) {
	gradeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.mu.Lock()
	e.state = StateGrading
	e.cancelGrading = cancel
	pending := e.pendingRequests(session, answers)
	e.mu.Unlock()

	for len(pending) > 0 {
		e.mu.Lock()
		if e.attempts >= MaxGradingAttempts {
			e.mu.Unlock()
			break
		}
		e.attempts++
		attempt := e.attempts
		e.mu.Unlock()

		batch := e.dispatcher.GradeBatch(gradeCtx, pending)

		e.mu.Lock()
		if e.state == StateCancelled {
			// Already-returned results are discarded; nothing partial
			// is ever persisted.
			e.mu.Unlock()
			return nil, ErrCancelled
		}
		for key, r := range batch.Results {
			e.results[key] = r
			delete(pending, key)
		}
		e.mu.Unlock()

		if !batch.Failed() {
			break
		}
		if gradeCtx.Err() != nil {
			// The caller's context died mid-batch. Land in
			// StateGradingFailed rather than stranding the session in
			// StateGrading; RetryGrading stays available while attempts
			// remain.
			if err := e.conclude(scoring.Ungraded(session), StateGradingFailed); err != nil {
				return nil, err
			}
			return nil, gradeCtx.Err()
		}

		e.mu.Lock()
		exhausted := e.attempts >= MaxGradingAttempts
		e.mu.Unlock()
		if exhausted {
			break
		}
		if e.decider == nil || !e.decider.ShouldRetry(ctx, attempt, batch.Failures) {
			break
		}
	}

	if len(pending) > 0 {
		summary := scoring.Ungraded(session)
		return summary, e.conclude(summary, StateGradingFailed)
	}

	e.mu.Lock()
	results := make(map[string]*grading.Result, len(e.results))
	for k, v := range e.results {
		results[k] = v
	}
	e.mu.Unlock()

	summary := scoring.Subjective(session, answers, results)
	return summary, e.conclude(summary, StateSummarized)
}

// pendingRequests builds grading requests for every gradable task the
// learner answered that has no accepted result yet.
func (e *Engine) pendingRequests(session *exam.CanonicalSession, answers map[string]string) map[string]grading.Request {
	pending := make(map[string]grading.Request)
	for key, task := range session.GradableTasks() {
		answer := answers[key]
		if answer == "" {
			continue
		}
		if _, done := e.results[key]; done {
			continue
		}
		pending[key] = grading.Request{
			TaskPrompt:     task.Prompt,
			TaskKind:       task.Kind,
			AnswerText:     answer,
			Level:          session.Level,
			Language:       session.Language,
			Scale:          task.Scale,
			PriorWeakAreas: e.weakAreas,
		}
	}
	return pending
}

// conclude stores the summary and moves to the target state unless the
// session was cancelled meanwhile.
func (e *Engine) conclude(summary *scoring.Summary, target State) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateCancelled {
		return ErrCancelled
	}
	e.summary = summary
	e.state = target
	return nil
}

// Cancel ends the session from any pre-Finalized state. It stops waiting
// on outstanding grading calls and releases held resources synchronously.
// Cancelling a terminal session is a no-op.
func (e *Engine) Cancel() {
	e.mu.Lock()
	if e.state.Terminal() {
		e.mu.Unlock()
		return
	}
	e.state = StateCancelled
	e.summary = nil
	cancel := e.cancelGrading
	resources := e.resources
	e.resources = nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, r := range resources {
		r.Release()
	}
}

// Finalize confirms the summary and hands it to the persistence
// collaborator. The record is write-once; the progression collaborator is
// notified only for graded outcomes.
func (e *Engine) Finalize(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateSummarized {
		e.mu.Unlock()
		return &InvalidTransitionError{From: e.state, Op: "finalize"}
	}
	rec := FinalRecord{
		SessionID: e.id,
		Kind:      e.session.Kind,
		Level:     e.session.Level,
		Language:  e.session.Language,
		Summary:   e.summary,
		Answers:   e.answers,
		Results:   e.results,
	}
	// Holding StateFinalized while persisting blocks a concurrent
	// Finalize from dispatching a second save of the write-once record.
	e.state = StateFinalized
	e.mu.Unlock()

	if e.persister != nil {
		if err := e.persister.SaveFinal(ctx, rec); err != nil {
			// The record was never saved; step back so the caller can
			// retry Finalize instead of losing the session.
			e.mu.Lock()
			e.state = StateSummarized
			e.mu.Unlock()
			return fmt.Errorf("persist session: %w", err)
		}
	}
	if e.progression != nil && !rec.Summary.GradingFailed {
		if err := e.progression.RecordOutcome(ctx, rec.SessionID, rec.Summary); err != nil {
			return fmt.Errorf("record progression: %w", err)
		}
	}
	return nil
}
