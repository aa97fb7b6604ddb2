package ledger

import (
	"sync"
	"testing"

	"github.com/felixgeelhaar/gridbalancer/domain/agent"
)

func TestLedger_Append(t *testing.T) {
	t.Parallel()

	l := New("run-1")
	e := l.Record(TagState, 0, agent.StateInitializing, "%s", agent.StateInitializing)

	if e.RunID != "run-1" {
		t.Errorf("RunID = %q, want run-1", e.RunID)
	}
	if e.ID == "" || e.Timestamp.IsZero() {
		t.Errorf("entry missing id or timestamp: %+v", e)
	}
	if e.Line() != "[STATE] INITIALIZING" {
		t.Errorf("Line() = %q", e.Line())
	}
	if l.Count() != 1 || l.LastEntry().ID != e.ID {
		t.Errorf("Count() = %d, LastEntry = %+v", l.Count(), l.LastEntry())
	}
}

func TestLedger_EntriesByTag(t *testing.T) {
	t.Parallel()

	l := New("r")
	l.Record(TagState, 0, agent.StateInitializing, "a")
	l.Record(TagError, 1, agent.StateInitializing, "b")
	l.Record(TagState, 2, agent.StateDemandForecasting, "c")

	if got := l.EntriesByTag(TagState); len(got) != 2 {
		t.Errorf("EntriesByTag(STATE) = %d entries, want 2", len(got))
	}
	if got := l.EntriesByTag(TagWarning); len(got) != 0 {
		t.Errorf("EntriesByTag(WARNING) = %d entries, want 0", len(got))
	}
}

func TestLedger_Sinks(t *testing.T) {
	t.Parallel()

	l := New("r")
	var (
		mu   sync.Mutex
		seen []string
	)
	l.Subscribe(SinkFunc(func(e Entry) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.Line())
	}))

	l.Record(TagSystem, 0, "", "--- AGENT EXECUTION STARTED ---")
	l.Record(TagRawLLM, 1, agent.StateInitializing, "{}")

	if len(seen) != 2 || seen[1] != "[RAW LLM] {}" {
		t.Errorf("sink saw %v", seen)
	}
}

func TestLedger_EntriesIsCopy(t *testing.T) {
	t.Parallel()

	l := New("r")
	l.Record(TagSystem, 0, "", "x")
	got := l.Entries()
	got[0].Message = "mutated"
	if l.Entries()[0].Message != "x" {
		t.Error("Entries() exposed internal storage")
	}
}

func TestEntry_Details(t *testing.T) {
	t.Parallel()

	e := NewEntry(TagObservation, 3, agent.StateDemandForecasting, "forecast").
		WithDetails(map[string]float64{"forecast_mw": 180.5})

	var got map[string]float64
	if err := e.DecodeDetails(&got); err != nil || got["forecast_mw"] != 180.5 {
		t.Errorf("DecodeDetails() = %v, %v", got, err)
	}
	if !TagCriticalError.IsProblem() || TagObservation.IsProblem() {
		t.Error("IsProblem() misclassifies tags")
	}
}
