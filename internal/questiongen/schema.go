package questiongen

import "github.com/abhisek/calcbot/internal/llm"

// QuestionSchema defines the JSON schema for question generation responses.
var QuestionSchema = &llm.Schema{
	Name:        "ap-calculus-question",
	Description: "A single AP Calculus BC question with answer and explanation",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question_id": map[string]any{
				"type":        "string",
				"description": "Identifier of the form UNIT-SKILL-RANDOMHEX",
			},
			"unit_number": map[string]any{
				"type":        "integer",
				"description": "The requested unit number",
			},
			"skill_id": map[string]any{
				"type":        "string",
				"description": "The requested skill id, as a single string",
			},
			"question_text": map[string]any{
				"type":        "string",
				"description": "The question shown to the student",
			},
			"options": map[string]any{
				"type":        []any{"array", "null"},
				"items":       map[string]any{"type": "string"},
				"description": "Exactly 4 option texts without letter prefixes for MCQ, null for FRQ",
			},
			"correct_answer": map[string]any{
				"type":        "string",
				"description": "For MCQ the letter A-D of the correct option, for FRQ the expected value or expression",
			},
			"explanation": map[string]any{
				"type":        "string",
				"description": "Concise step-by-step reasoning, at least 50 characters",
			},
			"representation_type": map[string]any{
				"type": "string",
				"enum": []any{"MCQ", "FRQ"},
			},
			"difficulty": map[string]any{
				"type": "string",
				"enum": []any{"Easy", "Medium", "Hard"},
			},
			"calculator_active": map[string]any{
				"type": "boolean",
			},
		},
		"required": []any{
			"question_id", "unit_number", "skill_id", "question_text", "options",
			"correct_answer", "explanation", "representation_type", "difficulty", "calculator_active",
		},
		"additionalProperties": false,
	},
}

// questionOutput is the raw LLM response before correction and validation.
type questionOutput struct {
	QuestionID         string   `json:"question_id"`
	UnitNumber         int      `json:"unit_number"`
	SkillID            string   `json:"skill_id"`
	QuestionText       string   `json:"question_text"`
	Options            []string `json:"options"`
	CorrectAnswer      string   `json:"correct_answer"`
	Explanation        string   `json:"explanation"`
	RepresentationType string   `json:"representation_type"`
	Difficulty         string   `json:"difficulty"`
	CalculatorActive   bool     `json:"calculator_active"`
}
