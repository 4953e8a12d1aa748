package questiongen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/calcbot/internal/llm"
	"github.com/abhisek/calcbot/internal/logger"
	"github.com/abhisek/calcbot/internal/store"
)

const minExplanationLen = 50

// LLMGenerator implements Generator using the LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
	log      *logger.Logger
	now      func() time.Time
}

// New creates a new LLMGenerator with the given provider and config.
func New(provider llm.Provider, cfg Config, log *logger.Logger) *LLMGenerator {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &LLMGenerator{provider: provider, config: cfg, log: log, now: time.Now}
}

// Generate produces a single question for the given input. A retryable
// validation failure is sent back to the model with a request to correct
// it, up to Config.MaxAttempts attempts in total.
func (g *LLMGenerator) Generate(ctx context.Context, input Input) (*store.Question, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeQuestionGen)

	req := llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildUserMessage(input)}},
		Schema:      QuestionSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	var lastErr error
	for attempt := range g.config.MaxAttempts {
		resp, err := g.provider.Generate(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("LLM generation failed: %w", err)
		}

		q, verr := g.build(resp, input)
		if verr == nil {
			return q, nil
		}
		lastErr = verr

		var ve *ValidationError
		if !errors.As(verr, &ve) || !ve.Retryable {
			break
		}
		g.log.Warn("generated question rejected",
			"unit", input.Skill.Unit, "skill", input.Skill.ID, "attempt", attempt+1,
			"validator", ve.Validator, "reason", ve.Message)

		req.Messages = append(req.Messages,
			llm.Message{Role: llm.RoleAssistant, Content: string(resp.Content)},
			llm.Message{Role: llm.RoleUser, Content: buildCorrection(ve)},
		)
	}
	return nil, lastErr
}

// build decodes the response and runs the validator chain.
func (g *LLMGenerator) build(resp *llm.Response, input Input) (*store.Question, error) {
	var raw questionOutput
	if err := llm.DecodeJSON(resp, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}

	q := &store.Question{
		ID:            raw.QuestionID,
		Unit:          raw.UnitNumber,
		SkillID:       raw.SkillID,
		Text:          raw.QuestionText,
		Options:       raw.Options,
		CorrectAnswer: raw.CorrectAnswer,
		Explanation:   raw.Explanation,
		Kind:          store.Kind(raw.RepresentationType),
		Difficulty:    store.Difficulty(raw.Difficulty),
		Calculator:    raw.CalculatorActive,
		GeneratedAt:   g.now().UTC(),
	}

	for _, v := range g.config.Validators {
		if verr := v.Validate(q, input); verr != nil {
			return nil, verr
		}
	}

	if !ValidQuestionID(q.ID, q.Unit, q.SkillID) {
		q.ID = NewQuestionID(q.Unit, q.SkillID)
	}
	if len(q.Explanation) < minExplanationLen {
		g.log.Warn("short explanation on generated question", "id", q.ID, "length", len(q.Explanation))
	}
	return q, nil
}
