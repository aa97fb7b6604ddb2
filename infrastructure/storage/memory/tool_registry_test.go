package memory

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/felixgeelhaar/gridbalancer/domain/tool"
)

func newTestTool(t *testing.T, name string, aliases ...string) tool.Tool {
	t.Helper()
	return tool.NewBuilder(name).
		WithAliases(aliases...).
		WithHandler(func(_ context.Context, _ json.RawMessage) (tool.Result, error) {
			return tool.NewResult(json.RawMessage(`{}`)), nil
		}).
		MustBuild()
}

func TestToolRegistry_RegisterAndResolve(t *testing.T) {
	t.Parallel()

	r := NewToolRegistry()
	if err := r.Register(newTestTool(t, "forecast_energy_demand", "forecast_demand")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"forecast_energy_demand", "forecast_energy_demand", true},
		{"forecast_demand", "forecast_energy_demand", true},
		{"forecast", "", false},
	}
	for _, tt := range tests {
		got, ok := r.Resolve(tt.name)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Resolve(%q) = %q, %v; want %q, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}

	got, ok := r.Get("forecast_demand")
	if !ok || got.Name() != "forecast_energy_demand" {
		t.Errorf("Get(alias) = %v, %v", got, ok)
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
}

func TestToolRegistry_Collisions(t *testing.T) {
	t.Parallel()

	r := NewToolRegistry()
	if err := r.Register(newTestTool(t, "check_generation_capacity", "check_capacity")); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		tool tool.Tool
	}{
		{"same name", newTestTool(t, "check_generation_capacity")},
		{"name matches alias", newTestTool(t, "check_capacity")},
		{"alias matches name", newTestTool(t, "other", "check_generation_capacity")},
	}
	for _, tt := range tests {
		if err := r.Register(tt.tool); !errors.Is(err, tool.ErrToolExists) {
			t.Errorf("%s: Register() error = %v, want ErrToolExists", tt.name, err)
		}
	}
	if r.Has("other") {
		t.Error("rejected tool should not be partially registered")
	}
}

func TestToolRegistry_NamesSorted(t *testing.T) {
	t.Parallel()

	r := NewToolRegistry()
	for _, name := range []string{"dispatch_energy_plan", "check_generation_capacity", "forecast_energy_demand"} {
		if err := r.Register(newTestTool(t, name)); err != nil {
			t.Fatal(err)
		}
	}

	want := []string{"check_generation_capacity", "dispatch_energy_plan", "forecast_energy_demand"}
	if diff := cmp.Diff(want, r.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}

	var listed []string
	for _, tl := range r.List() {
		listed = append(listed, tl.Name())
	}
	if diff := cmp.Diff(want, listed); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}

func TestToolRegistry_Unregister(t *testing.T) {
	t.Parallel()

	r := NewToolRegistry()
	if err := r.Register(newTestTool(t, "dispatch_energy_plan", "dispatch_energy")); err != nil {
		t.Fatal(err)
	}

	if err := r.Unregister("dispatch_energy"); err != nil {
		t.Fatalf("Unregister(alias) error = %v", err)
	}
	if r.Has("dispatch_energy_plan") || r.Has("dispatch_energy") {
		t.Error("tool and aliases should be gone")
	}
	if err := r.Unregister("dispatch_energy_plan"); !errors.Is(err, tool.ErrToolNotFound) {
		t.Errorf("Unregister() error = %v, want ErrToolNotFound", err)
	}
}

func TestToolRegistry_Concurrent(t *testing.T) {
	t.Parallel()

	r := NewToolRegistry()
	if err := r.Register(newTestTool(t, "forecast_energy_demand", "forecast_demand")); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.Get("forecast_demand")
			_ = r.Names()
		}()
	}
	wg.Wait()
}
