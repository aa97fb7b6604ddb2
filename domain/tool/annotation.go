// Package tool provides the domain model for agent tools.
package tool

// RiskLevel indicates the potential impact of a tool execution.
type RiskLevel int

const (
	RiskNone   RiskLevel = iota // Purely informational
	RiskLow                     // Reversible
	RiskMedium                  // Changes the world
	RiskHigh                    // Hard to reverse
)

// String returns the string representation of the risk level.
func (r RiskLevel) String() string {
	switch r {
	case RiskNone:
		return "none"
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Annotations describe tool behavior for policy enforcement and retries.
type Annotations struct {
	// ReadOnly indicates the tool has no side effects.
	ReadOnly bool `json:"read_only"`

	// MutatesWorld indicates the tool changes the simulated grid.
	MutatesWorld bool `json:"mutates_world"`

	// Idempotent indicates repeated calls with the same input are safe.
	Idempotent bool `json:"idempotent"`

	RiskLevel RiskLevel `json:"risk_level"`
}

// DefaultAnnotations returns annotations with safe defaults.
func DefaultAnnotations() Annotations {
	return Annotations{RiskLevel: RiskLow}
}

// Retryable reports whether a failed execution may be retried.
// Tools that change the world are never retried.
func (a Annotations) Retryable() bool {
	return !a.MutatesWorld && (a.ReadOnly || a.Idempotent)
}
