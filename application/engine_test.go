package application

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/felixgeelhaar/gridbalancer/domain/agent"
	"github.com/felixgeelhaar/gridbalancer/domain/ledger"
	"github.com/felixgeelhaar/gridbalancer/domain/memory"
	"github.com/felixgeelhaar/gridbalancer/domain/policy"
	"github.com/felixgeelhaar/gridbalancer/domain/run"
	"github.com/felixgeelhaar/gridbalancer/domain/tool"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/observability"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/planner"
	memstore "github.com/felixgeelhaar/gridbalancer/infrastructure/storage/memory"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/telemetry"
)

// Test helpers

func newTestEngine(t *testing.T, p planner.Planner, opts ...Option) *Engine {
	t.Helper()

	n := 0
	base := []Option{
		WithPlanner(p),
		WithStepDelay(0),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("run-%d", n)
		}),
	}
	e, err := NewEngineWithOptions(append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewEngineWithOptions() error = %v", err)
	}
	return e
}

func transitionTo(s agent.State) agent.Decision {
	return agent.NewTransitionDecision(s, "next")
}

func dispatch(plan map[string]any) agent.Decision {
	return agent.NewToolCallDecision(policy.ToolDispatchPlan, nil, "dispatch").
		WithParams(map[string]any{"distribution": plan})
}

func messages(l *ledger.Ledger, tag ledger.Tag) []string {
	var out []string
	for _, e := range l.EntriesByTag(tag) {
		out = append(out, e.Message)
	}
	return out
}

func containsLine(lines []string, substr string) bool {
	for _, l := range lines {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

// Engine Creation Tests

func TestNewEngine_RequiresPlanner(t *testing.T) {
	t.Parallel()

	if _, err := NewEngine(EngineConfig{}); err == nil {
		t.Error("expected error when planner is nil")
	}
}

func TestNewEngine_SetsDefaults(t *testing.T) {
	t.Parallel()

	e, err := NewEngine(EngineConfig{Planner: planner.NewMockPlanner()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if e.sim == nil || e.registry == nil || e.executor == nil {
		t.Error("expected simulator, registry and executor defaults")
	}
	if e.eligibility == nil || e.transitions == nil {
		t.Error("expected default policies")
	}
	if e.maxSteps != DefaultMaxSteps {
		t.Errorf("maxSteps = %d, want %d", e.maxSteps, DefaultMaxSteps)
	}
	if e.historySize != memory.DefaultSize {
		t.Errorf("historySize = %d, want %d", e.historySize, memory.DefaultSize)
	}
	if e.middleware.Len() != 4 {
		t.Errorf("middleware chain length = %d, want 4", e.middleware.Len())
	}
	if !e.stability {
		t.Error("stability gate should default to enabled")
	}
	if got := e.registry.Names(); len(got) != 3 {
		t.Errorf("registry = %v, want the three grid tools", got)
	}
}

// Run Lifecycle Tests

func TestRun_Offline_NormalScenarioCompletes(t *testing.T) {
	t.Parallel()

	var console bytes.Buffer
	e := newTestEngine(t, planner.NewScriptedPlanner(), WithConsole(&console))

	result, err := e.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	r := result.Run
	if r.Status != agent.RunStatusCompleted {
		t.Errorf("Status = %s, want completed (reason %q)", r.Status, r.Reason)
	}
	if r.CurrentState != agent.StateTerminated {
		t.Errorf("CurrentState = %s, want TERMINATED", r.CurrentState)
	}
	if r.Steps != 9 {
		t.Errorf("Steps = %d, want 9", r.Steps)
	}

	wantPath := []string{
		"INITIALIZING",
		"DEMAND_FORECASTING", "DEMAND_FORECASTING",
		"CAPACITY_ANALYSIS", "CAPACITY_ANALYSIS",
		"DISPATCH_PLANNING", "DISPATCH_PLANNING",
		"EXECUTION",
		"STABILITY_CHECK",
	}
	if diff := cmp.Diff(wantPath, messages(result.Ledger, ledger.TagState)); diff != "" {
		t.Errorf("STATE lines mismatch (-want +got):\n%s", diff)
	}

	system := messages(result.Ledger, ledger.TagSystem)
	if diff := cmp.Diff([]string{
		"--- AGENT EXECUTION STARTED ---",
		"--- AGENT EXECUTION TERMINATED at Step 9 ---",
	}, system); diff != "" {
		t.Errorf("SYSTEM lines mismatch (-want +got):\n%s", diff)
	}

	if got := len(result.Ledger.EntriesByTag(ledger.TagObservation)); got != 3 {
		t.Errorf("got %d observations, want 3", got)
	}
	for _, tag := range []ledger.Tag{ledger.TagWarning, ledger.TagError, ledger.TagCriticalError} {
		if got := messages(result.Ledger, tag); len(got) != 0 {
			t.Errorf("unexpected %s lines: %v", tag, got)
		}
	}

	out := console.String()
	for _, want := range []string{"--- STEP 0 ---", "--- STEP 8 ---", "[STATE] STABILITY_CHECK", "[OBSERVATION] Predicted demand:"} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q", want)
		}
	}
	if result.TracePath != "" {
		t.Errorf("TracePath = %q, want none without a log dir", result.TracePath)
	}
}

func TestRun_TerminatedRunKeepsCompletedStatus(t *testing.T) {
	t.Parallel()

	for id := 1; id <= 5; id++ {
		t.Run(fmt.Sprintf("scenario %d", id), func(t *testing.T) {
			t.Parallel()

			store := memstore.NewRunStore()
			e := newTestEngine(t, planner.NewScriptedPlanner(), WithStore(store))

			result, err := e.Run(context.Background(), id)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			r := result.Run
			if r.CurrentState != agent.StateTerminated {
				t.Fatalf("CurrentState = %s, want TERMINATED", r.CurrentState)
			}
			if r.Status != agent.RunStatusCompleted || r.Reason != "terminated by planner" {
				t.Errorf("Status = %s, Reason = %q; want completed, terminated by planner", r.Status, r.Reason)
			}

			stored, err := store.Get(context.Background(), r.ID)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if stored.Status != agent.RunStatusCompleted {
				t.Errorf("stored Status = %s, want completed", stored.Status)
			}
		})
	}
}

func TestRun_StabilityGateRedirectsTermination(t *testing.T) {
	t.Parallel()

	p := planner.NewMockPlanner(
		transitionTo(agent.StateDemandForecasting),
		transitionTo(agent.StateCapacityAnalysis),
		transitionTo(agent.StateDispatchPlanning),
		dispatch(map[string]any{"solar": 0, "wind": 0, "gas": 0, "load_shedding": 0}),
		transitionTo(agent.StateExecution),
		transitionTo(agent.StateStabilityCheck),
		transitionTo(agent.StateTerminated),
	)
	e := newTestEngine(t, p)

	result, err := e.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	errs := messages(result.Ledger, ledger.TagError)
	if !containsLine(errs, "Grid is unstable") || !containsLine(errs, "redirecting to ADJUSTMENT") {
		t.Errorf("ERROR lines = %v, want a stability redirect", errs)
	}
	if !result.Run.Observations.Unstable() {
		t.Error("observations should record the unstable dispatch")
	}
	if result.Run.Observations.Adjustments != 1 {
		t.Errorf("Adjustments = %d, want 1", result.Run.Observations.Adjustments)
	}

	// The exhausted script then terminates from ADJUSTMENT.
	if result.Run.Status != agent.RunStatusCompleted {
		t.Errorf("Status = %s, want completed", result.Run.Status)
	}
	states := messages(result.Ledger, ledger.TagState)
	if got := states[len(states)-1]; got != string(agent.StateAdjustment) {
		t.Errorf("last observed state = %s, want ADJUSTMENT", got)
	}
}

func TestRun_StabilityGateDisabled(t *testing.T) {
	t.Parallel()

	p := planner.NewMockPlanner(
		transitionTo(agent.StateDemandForecasting),
		transitionTo(agent.StateCapacityAnalysis),
		transitionTo(agent.StateDispatchPlanning),
		dispatch(map[string]any{"solar": 0, "wind": 0, "gas": 0, "load_shedding": 0}),
		transitionTo(agent.StateExecution),
		transitionTo(agent.StateStabilityCheck),
		transitionTo(agent.StateTerminated),
	)
	e := newTestEngine(t, p, WithStabilityGate(false))

	result, err := e.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Run.Steps != 7 {
		t.Errorf("Steps = %d, want 7", result.Run.Steps)
	}
	if errs := messages(result.Ledger, ledger.TagError); len(errs) != 0 {
		t.Errorf("unexpected ERROR lines: %v", errs)
	}
}

func TestRun_DecisionHandling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		decisions []agent.Decision
		tag       ledger.Tag
		want      string
		wantState agent.State // state after the first step
	}{
		{
			name:      "invalid state name defaults to adjustment",
			decisions: []agent.Decision{{ActionType: agent.ActionTransition, Target: "MOON_LANDING"}},
			tag:       ledger.TagError,
			want:      "Invalid State Name: MOON_LANDING. Defaulting to ADJUSTMENT.",
			wantState: agent.StateAdjustment,
		},
		{
			name:      "disallowed edge defaults to adjustment",
			decisions: []agent.Decision{transitionTo(agent.StateExecution)},
			tag:       ledger.TagError,
			want:      "Transition INITIALIZING -> EXECUTION is not allowed. Defaulting to ADJUSTMENT.",
			wantState: agent.StateAdjustment,
		},
		{
			name:      "unknown tool",
			decisions: []agent.Decision{agent.NewToolCallDecision("buy_more_coal", nil, "")},
			tag:       ledger.TagWarning,
			want:      "Unknown tool called: buy_more_coal",
			wantState: agent.StateInitializing,
		},
		{
			name:      "ineligible tool",
			decisions: []agent.Decision{agent.NewToolCallDecision(policy.ToolForecastDemand, nil, "")},
			tag:       ledger.TagWarning,
			want:      "Tool forecast_energy_demand is not allowed in state INITIALIZING. Skipping.",
			wantState: agent.StateInitializing,
		},
		{
			name:      "unknown action type",
			decisions: []agent.Decision{{ActionType: "PANIC", Target: "ALL"}},
			tag:       ledger.TagWarning,
			want:      "Unknown action type: PANIC. Skipping.",
			wantState: agent.StateInitializing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := planner.NewMockPlanner(tt.decisions...)
			e := newTestEngine(t, p, WithMaxSteps(2))

			result, err := e.Run(context.Background(), 1)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			if got := messages(result.Ledger, tt.tag); !containsLine(got, tt.want) {
				t.Errorf("%s lines = %v, want %q", tt.tag, got, tt.want)
			}

			states := messages(result.Ledger, ledger.TagState)
			if len(states) < 2 {
				t.Fatalf("got %d steps, want 2", len(states))
			}
			if states[1] != string(tt.wantState) {
				t.Errorf("state after first step = %s, want %s", states[1], tt.wantState)
			}
		})
	}
}

func TestRun_ToolAliasResolves(t *testing.T) {
	t.Parallel()

	p := planner.NewMockPlanner(
		transitionTo(agent.StateDemandForecasting),
		agent.NewToolCallDecision("forecast_demand", json.RawMessage(`{"hour_offset":2}`), ""),
	)
	e := newTestEngine(t, p)

	result, err := e.Run(context.Background(), 2)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Run.Observations.Forecasts != 1 {
		t.Errorf("Forecasts = %d, want 1", result.Run.Observations.Forecasts)
	}
	if got := messages(result.Ledger, ledger.TagAction); !containsLine(got, `Executing Tool forecast_demand with params {"hour_offset":2}`) {
		t.Errorf("ACTION lines = %v", got)
	}
}

func TestRun_ForecastOffsetsFromModel(t *testing.T) {
	t.Parallel()

	p := planner.NewMockPlanner(
		transitionTo(agent.StateDemandForecasting),
		agent.NewToolCallDecision("forecast_energy_demand", json.RawMessage(`{"hour_offset":1.0}`), ""),
		agent.NewToolCallDecision("forecast_energy_demand", json.RawMessage(`{"hour_offset":-1}`), ""),
	)
	e := newTestEngine(t, p, WithMaxSteps(3))

	result, err := e.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := messages(result.Ledger, ledger.TagCriticalError); len(got) != 0 {
		t.Errorf("unexpected CRITICAL ERROR lines: %v", got)
	}
	if got := len(result.Ledger.EntriesByTag(ledger.TagObservation)); got != 2 {
		t.Errorf("got %d observations, want 2", got)
	}
}

func TestRun_ToolExecutionError(t *testing.T) {
	t.Parallel()

	p := planner.NewMockPlanner(
		transitionTo(agent.StateDemandForecasting),
		transitionTo(agent.StateCapacityAnalysis),
		transitionTo(agent.StateDispatchPlanning),
		dispatch(map[string]any{"solar": -10, "wind": 0, "gas": 0, "load_shedding": 0}),
	)
	e := newTestEngine(t, p)

	result, err := e.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := messages(result.Ledger, ledger.TagCriticalError); !containsLine(got, "Tool execution failed:") {
		t.Errorf("CRITICAL ERROR lines = %v", got)
	}
	if result.Run.Observations.Dispatches != 0 {
		t.Error("a failed dispatch must not be observed")
	}
}

func TestRun_FailingToolFromRegistry(t *testing.T) {
	t.Parallel()

	toolErr := errors.New("scada link down")
	reg := memstore.NewToolRegistry()
	if err := reg.Register(tool.NewBuilder(policy.ToolCheckCapacity).
		MutatesWorld().
		WithHandler(func(context.Context, json.RawMessage) (tool.Result, error) {
			return tool.Result{}, toolErr
		}).
		MustBuild()); err != nil {
		t.Fatal(err)
	}

	p := planner.NewMockPlanner(
		transitionTo(agent.StateDemandForecasting),
		transitionTo(agent.StateCapacityAnalysis),
		agent.NewToolCallDecision(policy.ToolCheckCapacity, nil, ""),
	)
	e := newTestEngine(t, p, WithRegistry(reg))

	result, err := e.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := messages(result.Ledger, ledger.TagCriticalError); !containsLine(got, "scada link down") {
		t.Errorf("CRITICAL ERROR lines = %v", got)
	}
}

func TestRun_MaxStepsHalts(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, planner.NewScriptedPlanner(), WithMaxSteps(3))

	result, err := e.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Run.Status != agent.RunStatusHalted {
		t.Errorf("Status = %s, want halted", result.Run.Status)
	}
	if result.Run.Steps != 3 {
		t.Errorf("Steps = %d, want 3", result.Run.Steps)
	}
	if result.Run.Reason != "step limit of 3 reached" {
		t.Errorf("Reason = %q", result.Run.Reason)
	}
	if got := messages(result.Ledger, ledger.TagSystem); !containsLine(got, "TERMINATED at Step 3") {
		t.Errorf("SYSTEM lines = %v", got)
	}

	b := result.Budget
	if b.Consumed[policy.BudgetSteps] != 3 || b.Remaining[policy.BudgetSteps] != 0 {
		t.Errorf("step budget = %+v", b)
	}
	if b.Consumed[policy.BudgetLLMCalls] != 3 {
		t.Errorf("planner calls = %d, want 3", b.Consumed[policy.BudgetLLMCalls])
	}
}

func TestRun_ContextCancellation(t *testing.T) {
	t.Parallel()

	store := memstore.NewRunStore()
	e := newTestEngine(t, planner.NewScriptedPlanner(), WithStore(store))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := e.Run(ctx, 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if result == nil {
		t.Fatal("expected a result for a cancelled run")
	}
	if result.Run.Status != agent.RunStatusFailed {
		t.Errorf("Status = %s, want failed", result.Run.Status)
	}

	// The cancelled run is still persisted.
	stored, err := store.Get(context.Background(), result.Run.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.Status != agent.RunStatusFailed {
		t.Errorf("stored Status = %s, want failed", stored.Status)
	}
}

type failingPlanner struct{ err error }

func (p failingPlanner) Plan(context.Context, planner.PlanRequest) (agent.Decision, error) {
	return agent.Decision{}, p.err
}

func TestRun_PlannerError(t *testing.T) {
	t.Parallel()

	planErr := errors.New("model offline")
	e := newTestEngine(t, failingPlanner{err: planErr})

	result, err := e.Run(context.Background(), 1)
	if !errors.Is(err, planErr) {
		t.Fatalf("Run() error = %v, want %v", err, planErr)
	}
	if result.Run.Status != agent.RunStatusFailed {
		t.Errorf("Status = %s, want failed", result.Run.Status)
	}
	if !strings.Contains(result.Run.Error, "planner error") {
		t.Errorf("Error = %q", result.Run.Error)
	}
}

func TestRun_MemoryWindowIsBounded(t *testing.T) {
	t.Parallel()

	var decisions []agent.Decision
	for range 10 {
		decisions = append(decisions, agent.Decision{ActionType: "WAIT", Target: "NOTHING"})
	}
	p := planner.NewMockPlanner(decisions...)
	e := newTestEngine(t, p, WithMaxSteps(10))

	result, err := e.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := len(result.History); got != memory.DefaultSize {
		t.Errorf("history length = %d, want %d", got, memory.DefaultSize)
	}
	for _, m := range result.History {
		if m.Role != memory.RoleAssistant {
			t.Errorf("history role = %s, want assistant", m.Role)
		}
	}

	reqs := p.Requests()
	if len(reqs) != 10 {
		t.Fatalf("got %d plan requests, want 10", len(reqs))
	}
	for i, req := range reqs {
		want := min(i, memory.DefaultSize)
		if len(req.History) != want {
			t.Errorf("request %d history = %d, want %d", i, len(req.History), want)
		}
	}
}

func TestRun_WritesTraceFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var console bytes.Buffer
	e := newTestEngine(t, planner.NewScriptedPlanner(), WithLogDir(dir), WithConsole(&console))

	result, err := e.Run(context.Background(), 3)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.TracePath == "" {
		t.Fatal("expected a trace file path")
	}
	if !strings.Contains(result.TracePath, "scenario_3_") {
		t.Errorf("TracePath = %q", result.TracePath)
	}

	data, err := os.ReadFile(result.TracePath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	content := string(data)
	for _, want := range []string{
		"[SYSTEM] --- AGENT EXECUTION STARTED ---",
		"[STATE] INITIALIZING",
		"[RAW LLM] ",
		"[SYSTEM] --- AGENT EXECUTION TERMINATED at Step",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("trace file missing %q", want)
		}
	}

	out := console.String()
	if !strings.Contains(out, "LOGGING STARTED: Saving to "+result.TracePath) {
		t.Error("console should announce the trace file")
	}
	if !strings.Contains(out, "LOGGING FINISHED.") {
		t.Error("console should announce the end of the trace file")
	}
}

func TestRun_PersistsRunAndTrace(t *testing.T) {
	t.Parallel()

	store := memstore.NewRunStore()
	e := newTestEngine(t, planner.NewScriptedPlanner(), WithStore(store))

	result, err := e.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	ctx := context.Background()
	stored, err := store.Get(ctx, result.Run.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.Status != agent.RunStatusCompleted || stored.Steps != result.Run.Steps {
		t.Errorf("stored run = %+v", stored)
	}

	entries, err := store.Entries(ctx, result.Run.ID)
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if len(entries) != result.Ledger.Count() {
		t.Errorf("stored %d entries, want %d", len(entries), result.Ledger.Count())
	}

	runs, err := store.List(ctx, run.ListFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("List() = %d runs, want 1", len(runs))
	}
}

func TestRun_Sinks(t *testing.T) {
	t.Parallel()

	var got []ledger.Tag
	sink := ledger.SinkFunc(func(e ledger.Entry) {
		got = append(got, e.Tag)
	})
	e := newTestEngine(t, planner.NewMockPlanner(), WithSink(sink))

	result, err := e.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(got) != result.Ledger.Count() {
		t.Errorf("sink saw %d entries, ledger has %d", len(got), result.Ledger.Count())
	}
}

func TestRun_EmitsSpansAndMetrics(t *testing.T) {
	t.Parallel()

	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	defer tp.Shutdown(context.Background())

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())
	mcfg := telemetry.DefaultMetricsConfig()
	mcfg.Provider = mp

	e := newTestEngine(t, planner.NewScriptedPlanner(),
		WithTracer(tp.Tracer("test")),
		WithMetrics(telemetry.NewMetricsProvider(mcfg)),
	)

	result, err := e.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	counts := make(map[string]int)
	for _, s := range exp.GetSpans() {
		counts[s.Name]++
	}
	want := map[string]int{
		observability.SpanRun:  1,
		observability.SpanStep: result.Run.Steps,
		observability.SpanPlan: result.Run.Steps,
		observability.SpanTool: 3,
	}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("span counts mismatch (-want +got):\n%s", diff)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if got := telemetry.Total(rm, telemetry.MetricSteps); got != int64(result.Run.Steps) {
		t.Errorf("steps counter = %d, want %d", got, result.Run.Steps)
	}
	if got := telemetry.Total(rm, telemetry.MetricToolCalls); got != 3 {
		t.Errorf("tool calls = %d, want 3", got)
	}
	if got := telemetry.Total(rm, telemetry.MetricTransitions); got != int64(result.Run.Transitions) {
		t.Errorf("transitions = %d, want %d", got, result.Run.Transitions)
	}
}
