package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements the Provider interface for Claude models.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

// AnthropicConfig configures the Anthropic provider.
type AnthropicConfig struct {
	APIKey  string // Required: ANTHROPIC_API_KEY
	BaseURL string
	Model   string // e.g. "claude-3-5-haiku-latest"
	Timeout time.Duration
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(config AnthropicConfig) (*AnthropicProvider, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, fmt.Errorf("anthropic: %w (set ANTHROPIC_API_KEY)", ErrMissingAPIKey)
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &AnthropicProvider{
		client: anthropic.NewClient(opts...),
		model:  config.Model,
	}, nil
}

// Name returns the provider name.
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// Complete implements the Provider interface.
func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	system, conversation := splitSystem(req.Messages)
	turns := alternateTurns(conversation)

	msgs := make([]anthropic.MessageParam, 0, len(turns))
	for _, m := range turns {
		msgs = append(msgs, anthropic.MessageParam{
			Role:    anthropic.MessageParamRole(m.Role),
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(m.Content)},
		})
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 600
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		Messages:    msgs,
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(req.Temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system, Type: "text"}}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("anthropic: %w", err)
	}

	var sb strings.Builder
	for i := range resp.Content {
		block := resp.Content[i]
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	if sb.Len() == 0 {
		return CompletionResponse{}, fmt.Errorf("anthropic: %w", ErrEmptyCompletion)
	}

	return CompletionResponse{
		ID:      resp.ID,
		Model:   string(resp.Model),
		Message: Message{Role: "assistant", Content: sb.String()},
		Usage: Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}, nil
}

// alternateTurns reshapes a conversation for APIs that require it to open
// with a user turn and alternate roles. Consecutive turns of one role are
// joined.
func alternateTurns(msgs []Message) []Message {
	out := make([]Message, 0, len(msgs)+1)
	for _, m := range msgs {
		role := "user"
		if m.Role == "assistant" {
			role = "assistant"
		}
		if len(out) == 0 && role != "user" {
			out = append(out, Message{Role: "user", Content: "Begin."})
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content += "\n\n" + m.Content
			continue
		}
		out = append(out, Message{Role: role, Content: m.Content})
	}
	if len(out) == 0 {
		out = append(out, Message{Role: "user", Content: "Begin."})
	}
	return out
}
