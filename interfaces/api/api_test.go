package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/felixgeelhaar/gridbalancer/domain/agent"
	"github.com/felixgeelhaar/gridbalancer/domain/config"
	"github.com/felixgeelhaar/gridbalancer/domain/tool"
	api "github.com/felixgeelhaar/gridbalancer/interfaces/api"
)

func TestNew_RequiresPlanner(t *testing.T) {
	t.Parallel()

	if _, err := api.New(); err == nil {
		t.Error("New() without a planner should fail")
	}
}

func TestNew_ScriptedRun(t *testing.T) {
	t.Parallel()

	var console bytes.Buffer
	engine, err := api.New(
		api.WithPlanner(api.NewScriptedPlanner()),
		api.WithStepDelay(0),
		api.WithConsole(&console),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	result, err := engine.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Run.CurrentState != api.StateTerminated {
		t.Errorf("CurrentState = %s, want %s", result.Run.CurrentState, api.StateTerminated)
	}
	if result.Run.Status != agent.RunStatusCompleted {
		t.Errorf("Status = %s", result.Run.Status)
	}
	if console.Len() == 0 {
		t.Error("console received no trace lines")
	}
}

func TestNew_MockPlanner(t *testing.T) {
	t.Parallel()

	p := api.NewMockPlanner(
		api.NewTransitionDecision(api.StateDemandForecasting, "start"),
		api.NewToolCallDecision("forecast_energy_demand", json.RawMessage(`{"hour_offset":1}`), "forecast"),
	)
	engine, err := api.New(api.WithPlanner(p), api.WithStepDelay(0), api.WithMaxSteps(2))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	result, err := engine.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Run.Observations.Forecasts != 1 {
		t.Errorf("Forecasts = %d, want 1", result.Run.Observations.Forecasts)
	}
	if result.Run.Status != agent.RunStatusHalted {
		t.Errorf("Status = %s, want halted", result.Run.Status)
	}
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	cfg := config.AppConfig{LLM: config.LLMConfig{Provider: config.ProviderOffline}}
	cfg.ApplyDefaults()

	engine, err := api.NewFromConfig(context.Background(), cfg,
		api.WithStepDelay(0), api.WithConsole(&bytes.Buffer{}), api.WithLogDir(t.TempDir()))
	if err != nil {
		t.Fatalf("NewFromConfig() error = %v", err)
	}
	result, err := engine.Run(context.Background(), 2)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.TracePath == "" {
		t.Error("TracePath is empty with a log dir")
	}
}

func TestNewGridToolRegistry(t *testing.T) {
	t.Parallel()

	r, err := api.NewGridToolRegistry(api.NewSimulator(7))
	if err != nil {
		t.Fatalf("NewGridToolRegistry() error = %v", err)
	}
	for _, name := range []string{"forecast_energy_demand", "check_generation_capacity", "dispatch_energy_plan"} {
		if !r.Has(name) {
			t.Errorf("registry missing %s", name)
		}
	}
	if got, ok := r.Resolve("check_capacity"); !ok || got != "check_generation_capacity" {
		t.Errorf("Resolve(check_capacity) = %q, %v", got, ok)
	}
}

func TestNewToolBuilder(t *testing.T) {
	t.Parallel()

	built := api.NewToolBuilder("read_meter").
		WithDescription("Reads a substation meter").
		ReadOnly().
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			return tool.NewResult(input), nil
		}).
		MustBuild()

	r := api.NewToolRegistry()
	if err := r.Register(built); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, ok := r.Get("read_meter"); !ok {
		t.Error("Get(read_meter) returned false")
	}
}

func TestScenarios(t *testing.T) {
	t.Parallel()

	if got := len(api.Scenarios()); got != 5 {
		t.Errorf("len(Scenarios()) = %d, want 5", got)
	}
}
