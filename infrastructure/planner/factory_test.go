package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/gridbalancer/domain/config"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     config.LLMConfig
		want    string
		wantErr bool
	}{
		{"offline", config.LLMConfig{Provider: config.ProviderOffline}, "scripted", false},
		{"ollama needs no key", config.LLMConfig{Provider: config.ProviderOllama, Model: "m"}, "ollama", false},
		{"openai with key", config.LLMConfig{Provider: config.ProviderOpenAI, APIKey: "k"}, "openai", false},
		{"anthropic with key", config.LLMConfig{Provider: config.ProviderAnthropic, APIKey: "k"}, "anthropic", false},
		{"huggingface with key", config.LLMConfig{Provider: config.ProviderHuggingFace, APIKey: "k"}, "huggingface", false},
		{"unknown", config.LLMConfig{Provider: "carrier-pigeon"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := New(context.Background(), tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("New() should fail")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			switch got := p.(type) {
			case *ScriptedPlanner:
				if tt.want != "scripted" {
					t.Errorf("got scripted planner, want %s", tt.want)
				}
			case *LLMPlanner:
				if got.Provider().Name() != tt.want {
					t.Errorf("provider = %s, want %s", got.Provider().Name(), tt.want)
				}
			default:
				t.Fatalf("unexpected planner %T", p)
			}
		})
	}
}

func TestNewProvider_MissingKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := NewProvider(context.Background(), config.LLMConfig{Provider: config.ProviderAnthropic})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("error = %v, want ErrMissingAPIKey", err)
	}
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("HF_TOKEN", "from-env")

	if got := ResolveAPIKey(config.LLMConfig{Provider: config.ProviderHuggingFace}); got != "from-env" {
		t.Errorf("ResolveAPIKey() = %q", got)
	}
	if got := ResolveAPIKey(config.LLMConfig{Provider: config.ProviderHuggingFace, APIKey: "explicit"}); got != "explicit" {
		t.Errorf("ResolveAPIKey() = %q", got)
	}
	if got := ResolveAPIKey(config.LLMConfig{Provider: config.ProviderOllama}); got != "" {
		t.Errorf("ResolveAPIKey() = %q", got)
	}
}
