package grading

import "time"

// Config controls the grader and dispatcher.
type Config struct {
	// MaxTokens is the token budget for one grading response.
	MaxTokens int

	// Temperature controls grading output randomness. Kept low so the
	// same answer grades consistently.
	Temperature float64

	// MaxConcurrent caps in-flight grading calls per batch. The
	// effective cap is min(MaxConcurrent, batch size).
	MaxConcurrent int

	// CallTimeout bounds one grading call including provider retries.
	CallTimeout time.Duration
}

// DefaultConfig returns recommended grading defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:     1024,
		Temperature:   0.2,
		MaxConcurrent: 6,
		CallTimeout:   60 * time.Second,
	}
}
