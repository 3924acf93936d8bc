package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is one scripted reply for the MockProvider. Exactly one of
// Content or Err is consumed per Generate call.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockProvider is a deterministic Provider for tests. Replies are served
// in queue order; every request and its purpose label are recorded.
type MockProvider struct {
	mu       sync.Mutex
	queue    []MockResponse
	Calls    []Request
	Purposes []string
}

// NewMockProvider creates a MockProvider preloaded with the given replies.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{queue: responses}
}

// Generate serves the next scripted reply. An exhausted queue reports
// ErrProviderUnavailable so a script/expectation mismatch shows up as a
// provider failure, not a panic.
func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)
	m.Purposes = append(m.Purposes, PurposeFrom(ctx))

	if len(m.queue) == 0 {
		return nil, &ErrProviderUnavailable{Err: nil}
	}
	next := m.queue[0]
	m.queue = m.queue[1:]

	if next.Err != nil {
		return nil, next.Err
	}
	return &Response{
		Content:    next.Content,
		Usage:      next.Usage,
		Model:      "mock",
		StopReason: "end",
	}, nil
}

// ModelID returns "mock".
func (m *MockProvider) ModelID() string { return "mock" }

// AddResponse appends a scripted reply to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, resp)
}

// CallCount reports how many Generate calls were made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
