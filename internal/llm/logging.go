package llm

import (
	"context"
	"fmt"
	"os"
	"time"
)

// RequestEvent captures one model API call for the request log.
type RequestEvent struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// RequestLog is the sink for model request events. The sqlite store
// implements it; tests use an in-memory recorder.
type RequestLog interface {
	AppendRequest(ctx context.Context, e RequestEvent) error
}

// LoggingProvider is a decorator that records every model call as an event.
type LoggingProvider struct {
	inner Provider
	log   RequestLog
}

// WithLogging wraps a Provider with request logging.
func WithLogging(p Provider, log RequestLog) Provider {
	return &LoggingProvider{inner: p, log: log}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	resp, err := l.inner.Generate(ctx, req)

	e := RequestEvent{
		Provider:  l.inner.ModelID(),
		Model:     l.inner.ModelID(),
		Purpose:   PurposeFrom(ctx),
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
	}

	if resp != nil {
		e.InputTokens = resp.Usage.InputTokens
		e.OutputTokens = resp.Usage.OutputTokens
		e.Model = resp.Model
	}
	if err != nil {
		e.ErrorMessage = err.Error()
	}

	// Log the event but never fail the request over a logging error.
	if logErr := l.log.AppendRequest(ctx, e); logErr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to log model request: %v\n", logErr)
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}
