package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 1 * time.Millisecond,
		MaxWait:     10 * time.Millisecond,
		Multiplier:  2.0,
	}
}

var gradedJSON = json.RawMessage(`{"total_score":24}`)

func TestRetry_AttemptCounts(t *testing.T) {
	unavailable := func() MockResponse {
		return MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}}
	}

	tests := []struct {
		name      string
		responses []MockResponse
		wantCalls int
		wantErr   bool
	}{
		{
			name:      "first attempt succeeds",
			responses: []MockResponse{{Content: gradedJSON}},
			wantCalls: 1,
		},
		{
			name:      "transient failure then success",
			responses: []MockResponse{unavailable(), {Content: gradedJSON}},
			wantCalls: 2,
		},
		{
			name:      "all attempts exhausted",
			responses: []MockResponse{unavailable(), unavailable(), unavailable()},
			wantCalls: 3,
			wantErr:   true,
		},
		{
			name: "max tokens never retried",
			responses: []MockResponse{
				{Err: &ErrMaxTokensExceeded{Content: json.RawMessage(`{}`)}},
			},
			wantCalls: 1,
			wantErr:   true,
		},
		{
			name: "malformed response retried only once",
			responses: []MockResponse{
				{Err: &ErrInvalidResponse{Content: json.RawMessage(`bad`), Err: errors.New("bad")}},
				{Err: &ErrInvalidResponse{Content: json.RawMessage(`bad`), Err: errors.New("bad")}},
				{Content: gradedJSON}, // never reached
			},
			wantCalls: 2,
			wantErr:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(tt.responses...)
			p := WithRetry(mock, fastRetry())

			resp, err := p.Generate(context.Background(), Request{})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if string(resp.Content) != string(gradedJSON) {
					t.Fatalf("unexpected content: %s", resp.Content)
				}
			}
			if mock.CallCount() != tt.wantCalls {
				t.Fatalf("calls = %d, want %d", mock.CallCount(), tt.wantCalls)
			}
		})
	}
}

func TestRetry_MaxTokensErrorPreserved(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrMaxTokensExceeded{Content: json.RawMessage(`{"partial":`)}},
	)
	p := WithRetry(mock, fastRetry())

	_, err := p.Generate(context.Background(), Request{})
	var maxTok *ErrMaxTokensExceeded
	if !errors.As(err, &maxTok) {
		t.Fatalf("expected ErrMaxTokensExceeded, got %T", err)
	}
}

func TestRetry_CancelledContextStopsWaiting(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
		MockResponse{Content: gradedJSON},
	)
	p := WithRetry(mock, fastRetry())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Generate(ctx, Request{}); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestRetry_RateLimitHonorsRetryAfter(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrRateLimit{RetryAfter: 1 * time.Millisecond, Err: errors.New("429")}},
		MockResponse{Content: gradedJSON},
	)
	p := WithRetry(mock, fastRetry())

	resp, err := p.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != string(gradedJSON) {
		t.Fatalf("unexpected content: %s", resp.Content)
	}
	if mock.CallCount() != 2 {
		t.Fatalf("calls = %d, want 2", mock.CallCount())
	}
}

func TestRetry_ModelIDDelegates(t *testing.T) {
	p := WithRetry(NewMockProvider(), fastRetry())
	if p.ModelID() != "mock" {
		t.Fatalf("ModelID = %q, want mock", p.ModelID())
	}
}
