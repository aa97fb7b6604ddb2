package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/gridbalancer/domain/agent"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/logging"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/prompt"
)

// Thoughts carried by fallback decisions.
const (
	ThoughtParseFailure = "Failed to parse JSON. I need to retry."
	ThoughtAPIFailure   = "API Connection Error. Terminating safely."
)

// ErrNoJSON indicates a completion without any JSON object in it.
var ErrNoJSON = errors.New("no JSON object in response")

// LLMPlanner asks a language model for each decision.
type LLMPlanner struct {
	provider    Provider
	model       string
	temperature float64
	maxTokens   int
	nudge       string
}

// LLMPlannerConfig configures the LLM planner.
type LLMPlannerConfig struct {
	Provider    Provider
	Model       string
	// Temperature defaults to 0.1 when nil; zero is passed through.
	Temperature *float64
	MaxTokens   int
	// Nudge is the closing user turn. Defaults to prompt.Nudge.
	Nudge string
}

// NewLLMPlanner creates a new LLM-based planner.
func NewLLMPlanner(config LLMPlannerConfig) *LLMPlanner {
	temperature := 0.1
	if config.Temperature != nil {
		temperature = *config.Temperature
	}

	maxTokens := config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 600
	}

	nudge := config.Nudge
	if nudge == "" {
		nudge = prompt.Nudge
	}

	return &LLMPlanner{
		provider:    config.Provider,
		model:       config.Model,
		temperature: temperature,
		maxTokens:   maxTokens,
		nudge:       nudge,
	}
}

// Provider returns the underlying provider.
func (p *LLMPlanner) Provider() Provider {
	return p.provider
}

// Plan implements the Planner interface. Provider failures and unparseable
// answers become fallback decisions; the returned error is always nil.
func (p *LLMPlanner) Plan(ctx context.Context, req PlanRequest) (agent.Decision, error) {
	completionReq := CompletionRequest{
		Model:       p.model,
		Messages:    p.buildMessages(req),
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	}

	logging.Debug().
		Add(logging.RunID(req.RunID)).
		Add(logging.Step(req.Step)).
		Add(logging.State(req.State)).
		Add(logging.Provider(p.provider.Name())).
		Msg("requesting LLM decision")

	resp, err := p.provider.Complete(ctx, completionReq)
	if err == nil && resp.Error != nil {
		err = resp.Error
	}
	if err != nil {
		logging.Error().
			Add(logging.RunID(req.RunID)).
			Add(logging.Provider(p.provider.Name())).
			Add(logging.ErrorField(err)).
			Add(logging.Fallback(true)).
			Msg("LLM call failed")
		return APIFailureDecision(err), nil
	}

	decision, err := ParseDecision(resp.Message.Content)
	if err != nil {
		logging.Warn().
			Add(logging.RunID(req.RunID)).
			Add(logging.State(req.State)).
			Add(logging.ErrorField(err)).
			Add(logging.Fallback(true)).
			Msg("unparseable LLM response")
		return ParseFailureDecision(), nil
	}

	logging.Debug().
		Add(logging.RunID(req.RunID)).
		Add(logging.Action(decision.Kind())).
		Add(logging.Str("target", decision.Target)).
		Msg("LLM decision received")

	return decision, nil
}

// buildMessages is the system prompt, then the memory window, then the nudge.
func (p *LLMPlanner) buildMessages(req PlanRequest) []Message {
	messages := make([]Message, 0, len(req.History)+2)
	messages = append(messages, Message{Role: "system", Content: req.SystemPrompt})
	messages = append(messages, FromMemory(req.History)...)
	messages = append(messages, Message{Role: "user", Content: p.nudge})
	return messages
}

// ParseDecision extracts a decision from model output. Markdown fences are
// stripped and the first balanced JSON object is decoded.
func ParseDecision(content string) (agent.Decision, error) {
	object, err := extractJSON(content)
	if err != nil {
		return agent.Decision{}, err
	}

	var d agent.Decision
	if err := json.Unmarshal([]byte(object), &d); err != nil {
		return agent.Decision{}, fmt.Errorf("invalid JSON response: %w (content: %s)", err, truncate(object, 200))
	}
	d.Raw = object
	return d, nil
}

func extractJSON(content string) (string, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}
	content = strings.TrimSpace(content)

	start := strings.IndexByte(content, '{')
	if start < 0 {
		return "", fmt.Errorf("%w: %s", ErrNoJSON, truncate(content, 200))
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return content[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("%w: unbalanced braces", ErrNoJSON)
}

// ParseFailureDecision is returned when the model answer cannot be decoded.
func ParseFailureDecision() agent.Decision {
	d := agent.NewTransitionDecision(agent.StateAdjustment, ThoughtParseFailure).
		WithParams(map[string]any{"error": "Invalid JSON format received from LLM"})
	d.Raw = d.JSON()
	return d
}

// APIFailureDecision is returned when the model could not be reached.
func APIFailureDecision(err error) agent.Decision {
	d := agent.NewTransitionDecision(agent.StateTerminated, ThoughtAPIFailure).
		WithParams(map[string]any{"error": err.Error()})
	d.Raw = d.JSON()
	return d
}

// IsFallback reports whether d was produced by a planner failure path.
func IsFallback(d agent.Decision) bool {
	return d.Thought == ThoughtParseFailure || d.Thought == ThoughtAPIFailure
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
