package questiongen

import (
	"fmt"
	"strings"

	"github.com/abhisek/calcbot/internal/store"
)

const mcqOptionCount = 4

// ChoicesValidator checks multiple-choice options: exactly four distinct
// non-empty options, and a correct answer that is either a letter A-D or
// the text of one option.
type ChoicesValidator struct{}

func (v *ChoicesValidator) Name() string { return "choices" }

func (v *ChoicesValidator) Validate(q *store.Question, _ Input) *ValidationError {
	if q.Kind != store.KindMCQ {
		return nil
	}
	if len(q.Options) != mcqOptionCount {
		return v.fail(fmt.Sprintf("expected exactly 4 options, got %d", len(q.Options)))
	}

	seen := make(map[string]bool, len(q.Options))
	for i, o := range q.Options {
		key := strings.ToLower(strings.TrimSpace(o))
		if key == "" {
			return v.fail(fmt.Sprintf("option %d is empty", i+1))
		}
		if seen[key] {
			return v.fail(fmt.Sprintf("duplicate option %q", o))
		}
		seen[key] = true
	}

	if _, ok := leadingLetter(q.CorrectAnswer); ok && len(q.CorrectAnswer) == 1 {
		return nil
	}
	if seen[strings.ToLower(strings.TrimSpace(q.CorrectAnswer))] {
		return nil
	}
	return v.fail(fmt.Sprintf("correct_answer %q is neither a letter A-D nor one of the options", q.CorrectAnswer))
}

func (v *ChoicesValidator) fail(msg string) *ValidationError {
	return &ValidationError{Validator: v.Name(), Message: msg, Retryable: true}
}
