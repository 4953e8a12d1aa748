// Package grader judges free-response answers with an LLM.
package grader

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/abhisek/calcbot/internal/llm"
)

// Verdict is the outcome of grading one answer.
type Verdict int

const (
	Unclear Verdict = iota
	Pass
	Fail
)

func (v Verdict) String() string {
	switch v {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	default:
		return "unclear"
	}
}

// Input is a free-response answer together with the reference solution.
type Input struct {
	QuestionText  string
	CorrectAnswer string
	Explanation   string
	UserAnswer    string
}

// Result is the graded verdict and the grader's feedback text.
type Result struct {
	Verdict  Verdict
	Feedback string
}

// Grader grades free-response answers.
type Grader interface {
	GradeFreeResponse(ctx context.Context, input Input) (Result, error)
}

// LLMGrader implements Grader with a plain-text LLM request.
type LLMGrader struct {
	provider    llm.Provider
	temperature float64
	maxTokens   int
}

// New creates an LLMGrader. A zero temperature falls back to 0.1.
func New(provider llm.Provider, temperature float64, maxTokens int) *LLMGrader {
	if temperature <= 0 {
		temperature = 0.1
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &LLMGrader{provider: provider, temperature: temperature, maxTokens: maxTokens}
}

func (g *LLMGrader) GradeFreeResponse(ctx context.Context, input Input) (Result, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeGrading)

	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildGradingMessage(input)}},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		return Result{}, fmt.Errorf("grading request failed: %w", err)
	}
	return ParseVerdict(resp.Text()), nil
}

var thinkBlock = regexp.MustCompile(`(?is)<think>.*?</think>`)

// ParseVerdict reads the verdict from the first word of the reply. The
// reply must start with "Correct" or "Incorrect"; anything else is
// Unclear. Reasoning blocks some models emit are stripped first.
func ParseVerdict(text string) Result {
	feedback := strings.TrimSpace(thinkBlock.ReplaceAllString(text, ""))
	lower := strings.ToLower(feedback)

	verdict := Unclear
	switch {
	case strings.HasPrefix(lower, "incorrect"):
		verdict = Fail
	case strings.HasPrefix(lower, "correct"):
		verdict = Pass
	}
	return Result{Verdict: verdict, Feedback: feedback}
}
