package planner

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
)

// DefaultOllamaURL is where a local Ollama server listens.
const DefaultOllamaURL = "http://localhost:11434"

// OllamaProvider implements the Provider interface for a local Ollama server.
type OllamaProvider struct {
	client *api.Client
	model  string
}

// OllamaConfig configures the Ollama provider.
type OllamaConfig struct {
	BaseURL string // Default: http://localhost:11434
	Model   string // e.g. "qwen2.5-coder"
	Timeout time.Duration
}

// NewOllamaProvider creates a new Ollama provider. No key is needed.
func NewOllamaProvider(config OllamaConfig) (*OllamaProvider, error) {
	raw := config.BaseURL
	if raw == "" {
		raw = DefaultOllamaURL
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("ollama: invalid base url %q: %w", raw, err)
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	return &OllamaProvider{
		client: api.NewClient(base, &http.Client{Timeout: timeout}),
		model:  config.Model,
	}, nil
}

// Name returns the provider name.
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// Complete implements the Provider interface.
func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	msgs := make([]api.Message, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = api.Message{Role: m.Role, Content: m.Content}
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model:    model,
		Messages: msgs,
		Stream:   &stream,
		Format:   []byte(`"json"`),
		Options: map[string]any{
			"temperature": req.Temperature,
			"num_predict": req.MaxTokens,
		},
	}

	var response api.ChatResponse
	err := p.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		response = resp
		return nil
	})
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("ollama: %w", err)
	}

	if response.Message.Content == "" {
		return CompletionResponse{}, fmt.Errorf("ollama: %w", ErrEmptyCompletion)
	}

	return CompletionResponse{
		Model:   response.Model,
		Message: Message{Role: "assistant", Content: response.Message.Content},
		Usage: Usage{
			PromptTokens:     response.PromptEvalCount,
			CompletionTokens: response.EvalCount,
			TotalTokens:      response.PromptEvalCount + response.EvalCount,
		},
	}, nil
}
