package llm

import "fmt"

const (
	defaultGroqBaseURL       = "https://api.groq.com/openai/v1"
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

// NewGroqProvider creates a provider targeting Groq's OpenAI-compatible API.
func NewGroqProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("groq API key is required")
	}
	return NewOpenAIProvider(withDefaults(cfg, defaultGroqBaseURL))
}

// NewOpenRouterProvider creates a provider targeting the OpenRouter API.
func NewOpenRouterProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}
	return NewOpenAIProvider(withDefaults(cfg, defaultOpenRouterBaseURL))
}

// withDefaults fills the base URL and selects JSON object mode, which
// every compatible endpoint supports for every model.
func withDefaults(cfg OpenAIConfig, baseURL string) OpenAIConfig {
	if cfg.BaseURL == "" {
		cfg.BaseURL = baseURL
	}
	if cfg.JSONMode == "" {
		cfg.JSONMode = jsonModeObject
	}
	return cfg
}
