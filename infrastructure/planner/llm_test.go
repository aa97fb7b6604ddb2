package planner

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/felixgeelhaar/gridbalancer/domain/agent"
	"github.com/felixgeelhaar/gridbalancer/domain/memory"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/prompt"
)

// stubProvider implements Provider for testing.
type stubProvider struct {
	content string
	apiErr  *APIError
	err     error
	calls   int
	last    CompletionRequest
}

func (s *stubProvider) Name() string { return "stub" }
func (s *stubProvider) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	s.calls++
	s.last = req
	if s.err != nil {
		return CompletionResponse{}, s.err
	}
	return CompletionResponse{
		Message: Message{Role: "assistant", Content: s.content},
		Error:   s.apiErr,
	}, nil
}

func TestNewLLMPlanner_Defaults(t *testing.T) {
	t.Parallel()

	p := NewLLMPlanner(LLMPlannerConfig{Provider: &stubProvider{}})
	if p.temperature != 0.1 {
		t.Errorf("temperature = %v, want 0.1", p.temperature)
	}
	if p.maxTokens != 600 {
		t.Errorf("maxTokens = %d, want 600", p.maxTokens)
	}
	if p.nudge != prompt.Nudge {
		t.Errorf("nudge = %q", p.nudge)
	}
}

func TestNewLLMPlanner_ZeroTemperature(t *testing.T) {
	t.Parallel()

	greedy := 0.0
	provider := &stubProvider{content: `{"thought":"t","action_type":"TRANSITION","target":"DEMAND_FORECASTING","params":{}}`}
	p := NewLLMPlanner(LLMPlannerConfig{Provider: provider, Temperature: &greedy})
	if p.temperature != 0 {
		t.Errorf("temperature = %v, want 0", p.temperature)
	}

	if _, err := p.Plan(context.Background(), PlanRequest{RunID: "r", State: agent.StateInitializing}); err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if provider.last.Temperature != 0 {
		t.Errorf("request temperature = %v, want 0", provider.last.Temperature)
	}
}

func TestLLMPlanner_Messages(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{content: `{"thought":"t","action_type":"TRANSITION","target":"DEMAND_FORECASTING","params":{}}`}
	p := NewLLMPlanner(LLMPlannerConfig{Provider: provider, Model: "m"})

	history := []memory.Message{
		{Role: memory.RoleAssistant, Content: "a"},
		{Role: memory.RoleAssistant, Content: "b"},
	}
	_, err := p.Plan(context.Background(), PlanRequest{
		RunID:        "r",
		State:        agent.StateInitializing,
		SystemPrompt: "SYS",
		History:      history,
	})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	want := []Message{
		{Role: "system", Content: "SYS"},
		{Role: "assistant", Content: "a"},
		{Role: "assistant", Content: "b"},
		{Role: "user", Content: prompt.Nudge},
	}
	if diff := cmp.Diff(want, provider.last.Messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
	if provider.last.Model != "m" || provider.last.MaxTokens != 600 || provider.last.Temperature != 0.1 {
		t.Errorf("request = %+v", provider.last)
	}
}

func TestLLMPlanner_Plan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		provider    *stubProvider
		wantKind    agent.ActionType
		wantTarget  string
		wantThought string
		wantErrKey  string
	}{
		{
			name:       "plain json",
			provider:   &stubProvider{content: `{"thought":"go","action_type":"TOOL_CALL","target":"forecast_demand","params":{"hour_offset":1}}`},
			wantKind:   agent.ActionToolCall,
			wantTarget: "forecast_demand",
		},
		{
			name:       "fenced json",
			provider:   &stubProvider{content: "```json\n{\"thought\":\"x\",\"action_type\":\"TRANSITION\",\"target\":\"EXECUTION\"}\n```"},
			wantKind:   agent.ActionTransition,
			wantTarget: "EXECUTION",
		},
		{
			name:       "prose around json",
			provider:   &stubProvider{content: "Sure! {\"thought\":\"a {brace} in text\",\"action_type\":\"TRANSITION\",\"target\":\"TERMINATED\"} hope it helps"},
			wantKind:   agent.ActionTransition,
			wantTarget: "TERMINATED",
		},
		{
			name:        "garbage",
			provider:    &stubProvider{content: "I cannot decide"},
			wantKind:    agent.ActionTransition,
			wantTarget:  "ADJUSTMENT",
			wantThought: ThoughtParseFailure,
			wantErrKey:  "Invalid JSON format received from LLM",
		},
		{
			name:        "transport error",
			provider:    &stubProvider{err: errors.New("connection refused")},
			wantKind:    agent.ActionTransition,
			wantTarget:  "TERMINATED",
			wantThought: ThoughtAPIFailure,
			wantErrKey:  "connection refused",
		},
		{
			name:        "api error",
			provider:    &stubProvider{apiErr: &APIError{Type: "rate_limit", Message: "slow down"}},
			wantKind:    agent.ActionTransition,
			wantTarget:  "TERMINATED",
			wantThought: ThoughtAPIFailure,
			wantErrKey:  "slow down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := NewLLMPlanner(LLMPlannerConfig{Provider: tt.provider})
			d, err := p.Plan(context.Background(), PlanRequest{State: agent.StateDispatchPlanning})
			if err != nil {
				t.Fatalf("Plan() error = %v", err)
			}
			if d.Kind() != tt.wantKind || d.Target != tt.wantTarget {
				t.Errorf("decision = %s %s, want %s %s", d.Kind(), d.Target, tt.wantKind, tt.wantTarget)
			}
			if d.Raw == "" {
				t.Error("Raw should be set")
			}
			if tt.wantThought == "" {
				if IsFallback(d) {
					t.Error("IsFallback() = true for a parsed decision")
				}
				return
			}
			if d.Thought != tt.wantThought || !IsFallback(d) {
				t.Errorf("Thought = %q, want %q", d.Thought, tt.wantThought)
			}
			var params map[string]string
			if err := json.Unmarshal(d.Params, &params); err != nil {
				t.Fatalf("params: %v", err)
			}
			if !strings.Contains(params["error"], tt.wantErrKey) {
				t.Errorf("params.error = %q, want it to contain %q", params["error"], tt.wantErrKey)
			}
		})
	}
}

func TestParseDecision(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
		wantErr error
	}{
		{"bare", `{"target":"A"}`, `{"target":"A"}`, nil},
		{"generic fence", "```\n{\"target\":\"B\"}\n```", `{"target":"B"}`, nil},
		{"escaped quote", `{"thought":"say \"}\"","target":"C"}`, `{"thought":"say \"}\"","target":"C"}`, nil},
		{"first of two", `{"target":"D"} {"target":"E"}`, `{"target":"D"}`, nil},
		{"no object", "nothing here", "", ErrNoJSON},
		{"unbalanced", `{"target":"F"`, "", ErrNoJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d, err := ParseDecision(tt.content)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseDecision() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecision() error = %v", err)
			}
			if d.Raw != tt.want {
				t.Errorf("Raw = %q, want %q", d.Raw, tt.want)
			}
		})
	}
}

func TestParseDecision_WrongTypes(t *testing.T) {
	t.Parallel()

	if _, err := ParseDecision(`{"target": 5}`); err == nil {
		t.Error("expected error for non-string target")
	}
}
