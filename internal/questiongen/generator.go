package questiongen

import (
	"context"

	"github.com/abhisek/calcbot/internal/store"
)

// Generator produces AP Calculus questions using an LLM provider.
type Generator interface {
	// Generate produces a single question for the given input.
	// The returned question has passed every configured validator and
	// carries a fresh id.
	Generate(ctx context.Context, input Input) (*store.Question, error)
}
