package contentgen

// Config controls the behavior of the LLMGenerator.
type Config struct {
	// MaxTokens is the token budget for one generated section.
	MaxTokens int

	// Temperature controls output variety (0.0-1.0).
	Temperature float64

	// MaxWeakAreas caps how many weak areas go into the prompt.
	MaxWeakAreas int
}

// DefaultConfig returns recommended generation defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:    4096,
		Temperature:  0.7,
		MaxWeakAreas: 5,
	}
}
