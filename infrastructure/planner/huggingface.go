package planner

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DefaultHuggingFaceURL is the OpenAI-compatible Hugging Face inference router.
const DefaultHuggingFaceURL = "https://router.huggingface.co/v1"

// HuggingFaceProvider talks to the Hugging Face router. The router speaks
// the OpenAI chat-completions protocol, so requests go through the OpenAI
// SDK with the router as base URL and HF_TOKEN as bearer key.
type HuggingFaceProvider struct {
	inner *OpenAIProvider
}

// HuggingFaceConfig configures the Hugging Face provider.
type HuggingFaceConfig struct {
	Token   string        // Required: HF_TOKEN
	BaseURL string        // Default: https://router.huggingface.co/v1
	Model   string        // e.g. "Qwen/Qwen2.5-Coder-32B-Instruct"
	Timeout time.Duration // Default: 60s
}

// NewHuggingFaceProvider creates a new Hugging Face provider.
func NewHuggingFaceProvider(config HuggingFaceConfig) (*HuggingFaceProvider, error) {
	if strings.TrimSpace(config.Token) == "" {
		return nil, fmt.Errorf("huggingface: %w (set HF_TOKEN)", ErrMissingAPIKey)
	}

	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultHuggingFaceURL
	}

	inner, err := NewOpenAIProvider(OpenAIConfig{
		APIKey:  config.Token,
		BaseURL: baseURL,
		Model:   config.Model,
		Timeout: config.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("huggingface: %w", err)
	}
	return &HuggingFaceProvider{inner: inner}, nil
}

// Name returns the provider name.
func (p *HuggingFaceProvider) Name() string {
	return "huggingface"
}

// Complete implements the Provider interface.
func (p *HuggingFaceProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	resp, err := p.inner.Complete(ctx, req)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("huggingface: %w", err)
	}
	return resp, nil
}
