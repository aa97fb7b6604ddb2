// Package policy provides the rules that constrain the control loop: which
// transitions and tools are legal, when termination is blocked and how many
// steps a run may take.
package policy

import "sync"

// Budget names consumed by the engine.
const (
	BudgetSteps     = "steps"
	BudgetLLMCalls  = "llm_calls"
	BudgetToolCalls = "tool_calls"
)

// Budget tracks consumption against configured limits.
type Budget struct {
	limits   map[string]int
	consumed map[string]int
	mu       sync.RWMutex
}

// BudgetSnapshot is an immutable view of budget state.
type BudgetSnapshot struct {
	Limits    map[string]int `json:"limits"`
	Consumed  map[string]int `json:"consumed"`
	Remaining map[string]int `json:"remaining"`
}

// NewBudget creates a budget with the given limits.
func NewBudget(limits map[string]int) *Budget {
	b := &Budget{
		limits:   make(map[string]int, len(limits)),
		consumed: make(map[string]int, len(limits)),
	}
	for k, v := range limits {
		b.limits[k] = v
	}
	return b
}

// StepBudget creates a budget that caps the number of loop iterations.
func StepBudget(maxSteps int) *Budget {
	return NewBudget(map[string]int{BudgetSteps: maxSteps})
}

// CanConsume checks if the budget allows consuming the given amount.
func (b *Budget) CanConsume(name string, amount int) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	limit, hasLimit := b.limits[name]
	if !hasLimit {
		return true
	}
	return b.consumed[name]+amount <= limit
}

// Consume deducts from the budget if allowed.
func (b *Budget) Consume(name string, amount int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	limit, hasLimit := b.limits[name]
	if hasLimit && b.consumed[name]+amount > limit {
		return ErrBudgetExceeded
	}
	b.consumed[name] += amount
	return nil
}

// Remaining returns the remaining budget for a name, or -1 when unlimited.
func (b *Budget) Remaining(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	limit, hasLimit := b.limits[name]
	if !hasLimit {
		return -1
	}
	return limit - b.consumed[name]
}

// Consumed returns how much of a name has been used.
func (b *Budget) Consumed(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.consumed[name]
}

// Snapshot returns an immutable view of the current budget state.
func (b *Budget) Snapshot() BudgetSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s := BudgetSnapshot{
		Limits:    make(map[string]int, len(b.limits)),
		Consumed:  make(map[string]int, len(b.consumed)),
		Remaining: make(map[string]int, len(b.limits)),
	}
	for k, v := range b.limits {
		s.Limits[k] = v
		s.Remaining[k] = v - b.consumed[k]
	}
	for k, v := range b.consumed {
		s.Consumed[k] = v
	}
	return s
}
