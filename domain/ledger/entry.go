// Package ledger provides the append-only execution trace of a run.
package ledger

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/gridbalancer/domain/agent"
)

// Tag classifies a trace line. Tags render verbatim as "[TAG] message".
type Tag string

const (
	TagSystem        Tag = "SYSTEM"
	TagState         Tag = "STATE"
	TagPrompt        Tag = "PROMPT"
	TagRawLLM        Tag = "RAW LLM"
	TagAction        Tag = "ACTION"
	TagObservation   Tag = "OBSERVATION"
	TagWarning       Tag = "WARNING"
	TagError         Tag = "ERROR"
	TagCriticalError Tag = "CRITICAL ERROR"
)

// IsProblem reports whether the tag marks something that went wrong.
func (t Tag) IsProblem() bool {
	return t == TagWarning || t == TagError || t == TagCriticalError
}

// Entry is a single line of the trace.
type Entry struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	RunID     string          `json:"run_id"`
	Step      int             `json:"step"`
	State     agent.State     `json:"state,omitempty"`
	Tag       Tag             `json:"tag"`
	Message   string          `json:"message"`
	Details   json.RawMessage `json:"details,omitempty"`
}

// NewEntry creates an entry with a fresh id and timestamp.
func NewEntry(tag Tag, step int, state agent.State, message string) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Step:      step,
		State:     state,
		Tag:       tag,
		Message:   message,
	}
}

// WithDetails attaches a JSON payload to the entry.
func (e Entry) WithDetails(v any) Entry {
	if b, err := json.Marshal(v); err == nil {
		e.Details = b
	}
	return e
}

// DecodeDetails unmarshals the entry details into v.
func (e Entry) DecodeDetails(v any) error {
	if e.Details == nil {
		return nil
	}
	return json.Unmarshal(e.Details, v)
}

// Line renders the entry the way it appears on the console.
func (e Entry) Line() string {
	return "[" + string(e.Tag) + "] " + e.Message
}
