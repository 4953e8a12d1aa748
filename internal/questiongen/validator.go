package questiongen

import (
	"fmt"

	"github.com/abhisek/calcbot/internal/store"
)

// Validator checks, and may repair, a generated question.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier, e.g. "structural" or "choices".
	Name() string

	// Validate checks the question and returns nil if it passes. It may
	// modify q in place to correct fields the model got wrong.
	Validate(q *store.Question, input Input) *ValidationError
}

// ValidationError describes why a question failed validation.
type ValidationError struct {
	Validator string
	Message   string
	Retryable bool
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}
