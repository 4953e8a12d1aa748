package questiongen

// Config controls the behavior of the LLMGenerator.
type Config struct {
	// Validators is the ordered list of validators run on every
	// generated question. The first failure stops the pipeline.
	Validators []Validator

	// MaxTokens is the token budget for the LLM response.
	MaxTokens int

	// Temperature controls LLM output randomness.
	Temperature float64

	// MaxAttempts bounds generation attempts when a validator reports a
	// retryable failure. The failure is fed back to the model.
	MaxAttempts int
}

// DefaultConfig returns a Config with the standard validator chain.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&FieldCorrector{},
			&StructuralValidator{},
			&ChoicesValidator{},
		},
		MaxTokens:   4000,
		Temperature: 0.7,
		MaxAttempts: 2,
	}
}
