package questiongen

import (
	"strings"

	"github.com/abhisek/calcbot/internal/store"
)

const (
	minQuestionTextLen = 20
	maxQuestionTextLen = 2000
	maxExplanationLen  = 3000
)

// StructuralValidator checks that required fields are present and within
// length limits.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q *store.Question, _ Input) *ValidationError {
	text := strings.TrimSpace(q.Text)
	switch {
	case text == "":
		return v.fail("question_text is empty")
	case len(text) < minQuestionTextLen:
		return v.fail("question_text is shorter than 20 characters")
	case len(text) > maxQuestionTextLen:
		return v.fail("question_text exceeds 2000 characters")
	}
	if strings.TrimSpace(q.CorrectAnswer) == "" {
		return v.fail("correct_answer is empty")
	}
	if strings.TrimSpace(q.Explanation) == "" {
		return v.fail("explanation is empty")
	}
	if len(q.Explanation) > maxExplanationLen {
		return v.fail("explanation exceeds 3000 characters")
	}
	return nil
}

func (v *StructuralValidator) fail(msg string) *ValidationError {
	return &ValidationError{Validator: v.Name(), Message: msg, Retryable: true}
}
