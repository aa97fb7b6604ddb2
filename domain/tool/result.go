package tool

import (
	"encoding/json"
	"fmt"
	"time"
)

// Result contains the output of a tool execution.
type Result struct {
	// Output is the primary result data.
	Output json.RawMessage `json:"output"`

	// Duration is how long the execution took.
	Duration time.Duration `json:"duration"`
}

// NewResult creates a result with the given output.
func NewResult(output json.RawMessage) Result {
	return Result{Output: output}
}

// NewJSONResult marshals v as the result output.
func NewJSONResult(v any) (Result, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Result{}, fmt.Errorf("marshal tool output: %w", err)
	}
	return Result{Output: b}, nil
}

// Decode unmarshals the output into v.
func (r Result) Decode(v any) error {
	return json.Unmarshal(r.Output, v)
}

// OutputString returns the output as a string for convenience.
func (r Result) OutputString() string {
	return string(r.Output)
}
