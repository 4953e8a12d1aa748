package questiongen

import (
	"fmt"
	"strings"

	"github.com/abhisek/calcbot/internal/curriculum"
	"github.com/abhisek/calcbot/internal/store"
)

const systemPrompt = `You are an expert AP Calculus BC teacher who writes exam-style practice questions in strict JSON.

Rules:
- Generate a single, accurate and concise question that matches the requested unit, skill, type, difficulty and calculator status exactly.
- For MCQ: provide exactly four distinct options. Each option is ONLY the option text, with no leading letters such as "A. " and no extra formatting. The correct_answer is the letter A, B, C or D of the correct option in the order given.
- For FRQ: options must be null. The correct_answer is the expected numerical value or analytical expression, kept concise.
- The explanation is concise step-by-step reasoning a student can follow, at least 50 characters long.
- skill_id is a single string equal to the requested skill id, never a list.
- question_id has the form UNIT-SKILL-RANDOMHEX, e.g. "1-1.1-3f9a0c2d".
- Respond ONLY with the JSON object. No conversational text, no markdown, no comments.`

// buildUserMessage describes the requested question.
func buildUserMessage(input Input) string {
	unitName := "N/A"
	if u, err := curriculum.GetUnit(input.Skill.Unit); err == nil {
		unitName = u.Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Unit: %d (Topic: %s)\n", input.Skill.Unit, unitName)
	fmt.Fprintf(&b, "Skill ID: %s (Description: %s)\n", input.Skill.ID, input.Skill.Name)
	fmt.Fprintf(&b, "Question Type: %s\n", input.Kind)
	fmt.Fprintf(&b, "Difficulty: %s\n", input.Difficulty)
	fmt.Fprintf(&b, "Calculator Active: %t\n", input.Calculator)

	b.WriteString("\nJSON fields: question_id, unit_number, skill_id, question_text, options, ")
	b.WriteString("correct_answer, explanation, representation_type, difficulty, calculator_active.")
	if input.Kind == store.KindFRQ {
		b.WriteString("\noptions must be null for this FRQ question.")
	}
	return b.String()
}

// buildCorrection asks the model to fix a rejected reply.
func buildCorrection(verr *ValidationError) string {
	return fmt.Sprintf("Your previous question was rejected: %s. Respond with a corrected JSON object only.", verr.Message)
}
