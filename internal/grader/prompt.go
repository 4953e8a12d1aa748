package grader

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are an expert, precise and objective grader of AP Calculus BC free-response answers.
Your reply MUST start with either "Correct!" or "Incorrect." followed by one space and concise feedback.
Do not include internal reasoning, <think> blocks or any other text.`

func buildGradingMessage(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", in.QuestionText)
	fmt.Fprintf(&b, "Official Correct Answer: %s\n", in.CorrectAnswer)
	fmt.Fprintf(&b, "Official Explanation/Rubric: %s\n", in.Explanation)
	b.WriteString("---\n")
	fmt.Fprintf(&b, "Student's Submitted Answer: %s\n\n", in.UserAnswer)
	b.WriteString(`Evaluate the student's answer against the official answer and explanation.
- If it is substantially correct (equivalent forms count), begin with "Correct!" and briefly confirm a key strength.
- If it is incorrect or only partially correct, begin with "Incorrect." and say what was missed, with a hint.

Examples:
Correct! Your solution applies the fundamental theorem of calculus to find the area.
Incorrect. You found the first step, but remember the chain rule when differentiating the inner function.`)
	return b.String()
}
