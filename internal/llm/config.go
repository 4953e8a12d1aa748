package llm

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Provider names accepted by Config.Provider.
const (
	ProviderGroq       = "groq"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which backend serves requests. Default: "groq".
	Provider string

	Groq       OpenAIConfig
	OpenAI     OpenAIConfig
	Anthropic  AnthropicConfig
	Gemini     GeminiConfig
	OpenRouter OpenAIConfig
	Retry      RetryConfig

	// Generation holds the sampling defaults applied by callers that do
	// not pick their own.
	Generation GenerationConfig

	// Timeout bounds a single logical request, retries included.
	Timeout time.Duration
}

// OpenAIConfig configures any OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string

	// JSONMode is "json_schema" (strict structured output) or
	// "json_object" for endpoints that only guarantee valid JSON.
	JSONMode string
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// GenerationConfig holds default sampling parameters.
type GenerationConfig struct {
	Temperature        float64
	GradingTemperature float64
	MaxTokens          int
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Provider: ProviderGroq,
		Groq: OpenAIConfig{
			Model:    "llama-3.3-70b-versatile",
			BaseURL:  defaultGroqBaseURL,
			JSONMode: jsonModeObject,
		},
		OpenAI: OpenAIConfig{
			Model:    "gpt-4o-mini",
			JSONMode: jsonModeSchema,
		},
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenRouter: OpenAIConfig{
			Model:    "meta-llama/llama-3.3-70b-instruct",
			BaseURL:  defaultOpenRouterBaseURL,
			JSONMode: jsonModeObject,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Generation: GenerationConfig{
			Temperature:        0.7,
			GradingTemperature: 0.1,
			MaxTokens:          4000,
		},
		Timeout: 60 * time.Second,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values. Provider keys use their vendors' usual
// variable names.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	setString(&cfg.Provider, "CALCBOT_LLM_PROVIDER")

	setString(&cfg.Groq.APIKey, "GROQ_API_KEY")
	setString(&cfg.Groq.Model, "CALCBOT_GROQ_MODEL")
	setString(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&cfg.OpenAI.Model, "CALCBOT_OPENAI_MODEL")
	setString(&cfg.OpenAI.BaseURL, "CALCBOT_OPENAI_BASE_URL")
	setString(&cfg.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	setString(&cfg.Anthropic.Model, "CALCBOT_ANTHROPIC_MODEL")
	setString(&cfg.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&cfg.Gemini.Model, "CALCBOT_GEMINI_MODEL")
	setString(&cfg.OpenRouter.APIKey, "OPENROUTER_API_KEY")
	setString(&cfg.OpenRouter.Model, "CALCBOT_OPENROUTER_MODEL")

	// CALCBOT_LLM_MODEL overrides the model of whichever provider is selected.
	if m := os.Getenv("CALCBOT_LLM_MODEL"); m != "" {
		switch cfg.Provider {
		case ProviderGroq:
			cfg.Groq.Model = m
		case ProviderOpenAI:
			cfg.OpenAI.Model = m
		case ProviderAnthropic:
			cfg.Anthropic.Model = m
		case ProviderGemini:
			cfg.Gemini.Model = m
		case ProviderOpenRouter:
			cfg.OpenRouter.Model = m
		}
	}

	if v, err := strconv.ParseFloat(os.Getenv("CALCBOT_LLM_TEMPERATURE"), 64); err == nil {
		cfg.Generation.Temperature = v
	}
	if v, err := strconv.Atoi(os.Getenv("CALCBOT_LLM_MAX_TOKENS")); err == nil && v > 0 {
		cfg.Generation.MaxTokens = v
	}
	if v, err := time.ParseDuration(os.Getenv("CALCBOT_LLM_TIMEOUT")); err == nil && v > 0 {
		cfg.Timeout = v
	}

	return cfg
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	var key, env string
	switch c.Provider {
	case ProviderGroq:
		key, env = c.Groq.APIKey, "GROQ_API_KEY"
	case ProviderOpenAI:
		key, env = c.OpenAI.APIKey, "OPENAI_API_KEY"
	case ProviderAnthropic:
		key, env = c.Anthropic.APIKey, "ANTHROPIC_API_KEY"
	case ProviderGemini:
		key, env = c.Gemini.APIKey, "GEMINI_API_KEY"
	case ProviderOpenRouter:
		key, env = c.OpenRouter.APIKey, "OPENROUTER_API_KEY"
	case ProviderMock:
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("%s is required for the %s provider", env, c.Provider)
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return fmt.Errorf("temperature %.2f out of range [0, 2]", c.Generation.Temperature)
	}
	return nil
}
