package agent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ActionType identifies what a decision asks the loop to do.
type ActionType string

const (
	ActionToolCall   ActionType = "TOOL_CALL"  // Run a tool, stay in the state
	ActionTransition ActionType = "TRANSITION" // Move to another state
)

// Decision is the planner's output for one step.
type Decision struct {
	Thought    string          `json:"thought"`
	ActionType ActionType      `json:"action_type"`
	Target     string          `json:"target"`
	Params     json.RawMessage `json:"params"`

	// Raw is the text the planner produced, kept for the trace.
	Raw string `json:"-"`
}

// NewToolCallDecision creates a decision to execute a tool.
func NewToolCallDecision(tool string, params json.RawMessage, thought string) Decision {
	return Decision{
		Thought:    thought,
		ActionType: ActionToolCall,
		Target:     tool,
		Params:     params,
	}
}

// NewTransitionDecision creates a decision to move to another state.
func NewTransitionDecision(to State, thought string) Decision {
	return Decision{
		Thought:    thought,
		ActionType: ActionTransition,
		Target:     string(to),
	}
}

// WithParams returns a copy of d carrying params built from kv.
func (d Decision) WithParams(kv map[string]any) Decision {
	b, err := json.Marshal(kv)
	if err == nil {
		d.Params = b
	}
	return d
}

// Kind returns the normalized action type.
func (d Decision) Kind() ActionType {
	return ActionType(strings.ToUpper(strings.TrimSpace(string(d.ActionType))))
}

// IsToolCall returns true if the decision asks for a tool.
func (d Decision) IsToolCall() bool {
	return d.Kind() == ActionToolCall
}

// IsTransition returns true if the decision asks for a state change.
func (d Decision) IsTransition() bool {
	return d.Kind() == ActionTransition
}

// Validate reports ErrUnknownAction for an action type the loop cannot act on.
func (d Decision) Validate() error {
	switch d.Kind() {
	case ActionToolCall, ActionTransition:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, d.ActionType)
	}
}

// TargetState parses the target as a state name.
func (d Decision) TargetState() (State, error) {
	return ParseState(d.Target)
}

// ParamsOrEmpty returns the params, or an empty object when none were given.
func (d Decision) ParamsOrEmpty() json.RawMessage {
	trimmed := strings.TrimSpace(string(d.Params))
	if trimmed == "" || trimmed == "null" {
		return json.RawMessage(`{}`)
	}
	return d.Params
}

// JSON renders the canonical form stored in conversational memory.
func (d Decision) JSON() string {
	out := struct {
		Thought    string          `json:"thought"`
		ActionType ActionType      `json:"action_type"`
		Target     string          `json:"target"`
		Params     json.RawMessage `json:"params"`
	}{d.Thought, d.ActionType, d.Target, d.ParamsOrEmpty()}

	b, err := json.Marshal(out)
	if err != nil {
		// Params were not valid JSON; keep the rest.
		out.Params = json.RawMessage(`{}`)
		b, _ = json.Marshal(out)
	}
	return string(b)
}
