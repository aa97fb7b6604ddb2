package planner

import (
	"context"
	"fmt"
	"os"

	"github.com/felixgeelhaar/gridbalancer/domain/config"
)

// APIKeyEnv names the environment variable read for each hosted provider.
var APIKeyEnv = map[string]string{
	config.ProviderHuggingFace: "HF_TOKEN",
	config.ProviderOpenAI:      "OPENAI_API_KEY",
	config.ProviderAnthropic:   "ANTHROPIC_API_KEY",
	config.ProviderGemini:      "GEMINI_API_KEY",
}

// ResolveAPIKey returns the configured key or the provider's environment
// variable.
func ResolveAPIKey(cfg config.LLMConfig) string {
	if cfg.APIKey != "" {
		return cfg.APIKey
	}
	if env, ok := APIKeyEnv[cfg.Provider]; ok {
		return os.Getenv(env)
	}
	return ""
}

// NewProvider builds the provider named in cfg.
func NewProvider(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	key := ResolveAPIKey(cfg)
	timeout := cfg.Timeout.Duration()

	switch cfg.Provider {
	case config.ProviderHuggingFace, "":
		return NewHuggingFaceProvider(HuggingFaceConfig{Token: key, BaseURL: cfg.BaseURL, Model: cfg.Model, Timeout: timeout})
	case config.ProviderOpenAI:
		return NewOpenAIProvider(OpenAIConfig{APIKey: key, BaseURL: cfg.BaseURL, Model: cfg.Model, Timeout: timeout})
	case config.ProviderAnthropic:
		return NewAnthropicProvider(AnthropicConfig{APIKey: key, BaseURL: cfg.BaseURL, Model: cfg.Model, Timeout: timeout})
	case config.ProviderGemini:
		return NewGeminiProvider(ctx, GeminiConfig{APIKey: key, Model: cfg.Model})
	case config.ProviderOllama:
		return NewOllamaProvider(OllamaConfig{BaseURL: cfg.BaseURL, Model: cfg.Model, Timeout: timeout})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// New builds the planner for cfg: the offline policy, or an LLM planner over
// a resilient provider.
func New(ctx context.Context, cfg config.LLMConfig) (Planner, error) {
	if cfg.Provider == config.ProviderOffline {
		return NewScriptedPlanner(), nil
	}

	provider, err := NewProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	rc := DefaultResilienceConfig()
	if cfg.Retries > 0 {
		rc.MaxAttempts = cfg.Retries
	}

	return NewLLMPlanner(LLMPlannerConfig{
		Provider:    NewResilientProvider(provider, rc),
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}), nil
}
