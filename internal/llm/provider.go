package llm

import (
	"context"
	"encoding/json"
)

// Provider is the abstraction over the external model collaborators used
// for both content generation and answer grading.
type Provider interface {
	// Generate sends a prompt and returns a structured response. When the
	// request carries a Schema, the provider uses its native structured
	// output mechanism and the response Content is the validated JSON.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured for.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// System sets the model's role and constraints.
	System string

	// Messages is the conversation. Kielo only does single-turn calls, so
	// this usually holds one user message.
	Messages []Message

	// Schema, when set, is the JSON Schema the response must conform to.
	Schema *Schema

	// MaxTokens caps the response length.
	MaxTokens int

	// Temperature controls randomness, 0.0-1.0. Zero means deterministic.
	Temperature float64
}

// Message is a single turn of the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema describes the JSON structure expected back from the model.
type Schema struct {
	// Name identifies the schema, kebab-case, e.g. "grading-result".
	Name string

	// Description tells the model what the schema represents.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the model's output.
type Response struct {
	// Content is the generated output. With a Schema it is the validated
	// JSON object; without, the raw text.
	Content json.RawMessage

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the model that actually served the request.
	Model string

	// StopReason is normalized to "end", "max_tokens" or "error".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
