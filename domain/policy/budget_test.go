package policy

import (
	"errors"
	"testing"
)

func TestStepBudget(t *testing.T) {
	t.Parallel()

	b := StepBudget(2)
	for i := 0; i < 2; i++ {
		if err := b.Consume(BudgetSteps, 1); err != nil {
			t.Fatalf("Consume() #%d error = %v", i, err)
		}
	}
	if b.CanConsume(BudgetSteps, 1) {
		t.Error("CanConsume() = true after limit reached")
	}
	if err := b.Consume(BudgetSteps, 1); !errors.Is(err, ErrBudgetExceeded) {
		t.Errorf("Consume() error = %v, want ErrBudgetExceeded", err)
	}
	if b.Remaining(BudgetSteps) != 0 {
		t.Errorf("Remaining() = %d, want 0", b.Remaining(BudgetSteps))
	}
}

func TestBudget_Unlimited(t *testing.T) {
	t.Parallel()

	b := StepBudget(1)
	for i := 0; i < 5; i++ {
		if err := b.Consume(BudgetLLMCalls, 1); err != nil {
			t.Fatalf("Consume(llm_calls) error = %v", err)
		}
	}
	if b.Remaining(BudgetLLMCalls) != -1 {
		t.Errorf("Remaining(llm_calls) = %d, want -1", b.Remaining(BudgetLLMCalls))
	}

	snap := b.Snapshot()
	if snap.Consumed[BudgetLLMCalls] != 5 || snap.Limits[BudgetSteps] != 1 || snap.Remaining[BudgetSteps] != 1 {
		t.Errorf("Snapshot() = %+v", snap)
	}
}
