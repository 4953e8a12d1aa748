package questiongen

import (
	"strings"

	"github.com/abhisek/calcbot/internal/store"
)

// FieldCorrector forces the requested unit, skill, kind, difficulty and
// calculator flag onto the question. Models drift on these fields, and
// the request is authoritative. It never fails.
type FieldCorrector struct{}

func (v *FieldCorrector) Name() string { return "field-corrector" }

func (v *FieldCorrector) Validate(q *store.Question, input Input) *ValidationError {
	q.Unit = input.Skill.Unit
	q.SkillID = input.Skill.ID
	q.Kind = input.Kind
	q.Difficulty = input.Difficulty
	q.Calculator = input.Calculator

	if q.Kind == store.KindFRQ {
		q.Options = nil
		return nil
	}

	q.Options = trimAll(q.Options)
	q.CorrectAnswer = strings.TrimSpace(q.CorrectAnswer)
	if letter, ok := leadingLetter(q.CorrectAnswer); ok {
		q.CorrectAnswer = letter
	}
	return nil
}

// leadingLetter recognizes answers like "b", "C." or "A. 2x" and returns
// the uppercase option letter.
func leadingLetter(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	first := strings.ToUpper(s[:1])
	if first < "A" || first > "D" {
		return "", false
	}
	if len(s) == 1 {
		return first, true
	}
	switch s[1] {
	case '.', ')', ':':
		return first, true
	}
	return "", false
}

func trimAll(opts []string) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = strings.TrimSpace(o)
	}
	return out
}
