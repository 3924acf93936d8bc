package grading

import (
	"errors"
	"fmt"

	"github.com/abhisek/kielo/internal/llm"
)

// TransportError is a timeout, network or upstream failure while calling
// the grading collaborator. Recoverable via the batch retry policy.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("grading transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// SchemaError is a structurally invalid grading response: missing
// criteria, out-of-bounds scores, or empty feedback. Retried identically
// to transport errors but logged distinctly.
type SchemaError struct {
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("grading schema error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("grading schema error: %s", e.Reason)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// classifyError maps a grading call failure onto the error taxonomy.
// Model responses that failed schema validation are schema errors;
// everything else is transport.
func classifyError(err error) error {
	var schemaErr *SchemaError
	if errors.As(err, &schemaErr) {
		return err
	}
	var invalid *llm.ErrInvalidResponse
	if errors.As(err, &invalid) {
		return &SchemaError{Reason: "response does not conform to grading schema", Err: err}
	}
	return &TransportError{Err: err}
}
