// Package gridtools exposes the grid simulator as agent tools.
package gridtools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/felixgeelhaar/gridbalancer/domain/agent"
	"github.com/felixgeelhaar/gridbalancer/domain/grid"
	"github.com/felixgeelhaar/gridbalancer/domain/policy"
	"github.com/felixgeelhaar/gridbalancer/domain/tool"
)

// Short names used in the prompts.
const (
	AliasForecast = "forecast_demand"
	AliasCapacity = "check_capacity"
	AliasDispatch = "dispatch_energy"
)

// DefaultHourOffset is the forecast horizon when none is given.
const DefaultHourOffset = 1

// maxHourOffset bounds offsets before they are reduced to a day.
const maxHourOffset = 1e6

// Forecast is the output of the forecast tool.
type Forecast struct {
	HourOffset int     `json:"hour_offset"`
	DemandMW   float64 `json:"forecast_mw"`
}

// Tools returns the three grid tools bound to sim.
func Tools(sim *grid.Simulator) []tool.Tool {
	return []tool.Tool{
		forecastTool(sim),
		capacityTool(sim),
		dispatchTool(sim),
	}
}

// Register adds the grid tools to a registry.
func Register(r tool.Registry, sim *grid.Simulator) error {
	for _, t := range Tools(sim) {
		if err := r.Register(t); err != nil {
			return fmt.Errorf("register %s: %w", t.Name(), err)
		}
	}
	return nil
}

func forecastTool(sim *grid.Simulator) tool.Tool {
	return tool.NewBuilder(policy.ToolForecastDemand).
		WithDescription("Predict energy demand in MW for a future hour offset").
		WithAliases(AliasForecast).
		WithInputSchema(tool.ObjectSchema(map[string]json.RawMessage{
			"hour_offset": json.RawMessage(`{"type":"number","default":1}`),
		}, nil)).
		ReadOnly().
		WithHandler(func(_ context.Context, input json.RawMessage) (tool.Result, error) {
			params := struct {
				HourOffset *float64 `json:"hour_offset"`
			}{}
			if err := decodeParams(input, &params); err != nil {
				return tool.Result{}, err
			}

			offset := DefaultHourOffset
			if params.HourOffset != nil {
				h, err := hourOffset(*params.HourOffset)
				if err != nil {
					return tool.Result{}, err
				}
				offset = h
			}

			demand := sim.Forecast(offset)
			return tool.NewJSONResult(Forecast{HourOffset: offset, DemandMW: demand})
		}).
		MustBuild()
}

// hourOffset truncates a model-supplied horizon to whole hours.
func hourOffset(v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: hour_offset = %v", tool.ErrInvalidInput, v)
	}
	h := math.Trunc(v)
	if math.Abs(h) > maxHourOffset {
		h = math.Mod(h, 24)
	}
	return int(h), nil
}

func capacityTool(sim *grid.Simulator) tool.Tool {
	return tool.NewBuilder(policy.ToolCheckCapacity).
		WithDescription("Report available solar, wind and gas generation and the gas reserve").
		WithAliases(AliasCapacity).
		WithInputSchema(tool.ObjectSchema(map[string]json.RawMessage{}, nil)).
		ReadOnly().
		WithHandler(func(_ context.Context, _ json.RawMessage) (tool.Result, error) {
			return tool.NewJSONResult(sim.Capacity())
		}).
		MustBuild()
}

var planSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"solar": {"type": "number", "minimum": 0},
		"wind": {"type": "number", "minimum": 0},
		"gas": {"type": "number", "minimum": 0},
		"load_shedding": {"type": "number", "minimum": 0}
	}
}`)

func dispatchTool(sim *grid.Simulator) tool.Tool {
	return tool.NewBuilder(policy.ToolDispatchPlan).
		WithDescription("Apply an energy distribution plan and return grid stability metrics").
		WithAliases(AliasDispatch).
		WithInputSchema(tool.ObjectSchema(map[string]json.RawMessage{
			"distribution": planSchema,
		}, nil)).
		MutatesWorld().
		WithHandler(func(_ context.Context, input json.RawMessage) (tool.Result, error) {
			plan, err := ParsePlan(input)
			if err != nil {
				return tool.Result{}, err
			}

			metrics, err := sim.Dispatch(plan)
			if err != nil {
				return tool.Result{}, err
			}
			return tool.NewJSONResult(metrics)
		}).
		MustBuild()
}

// ParsePlan reads a dispatch plan from tool params. The plan may be nested
// under "distribution" or given as top-level keys.
func ParsePlan(input json.RawMessage) (grid.Plan, error) {
	var params struct {
		Distribution *grid.Plan `json:"distribution"`
		grid.Plan
	}
	if err := decodeParams(input, &params); err != nil {
		return grid.Plan{}, err
	}
	if params.Distribution != nil {
		return *params.Distribution, nil
	}
	return params.Plan, nil
}

func decodeParams(input json.RawMessage, v any) error {
	if len(input) == 0 || string(input) == "null" {
		return nil
	}
	if err := json.Unmarshal(input, v); err != nil {
		return fmt.Errorf("%w: %v", tool.ErrInvalidInput, err)
	}
	return nil
}

// Observe folds a tool result into the run's observations and returns the
// trace message describing it.
func Observe(obs *agent.Observations, toolName string, result tool.Result) (string, error) {
	switch toolName {
	case policy.ToolForecastDemand:
		var f Forecast
		if err := result.Decode(&f); err != nil {
			return "", fmt.Errorf("decode forecast: %w", err)
		}
		obs.RecordForecast(f.DemandMW)
		return fmt.Sprintf("Predicted demand: %.2f MW", f.DemandMW), nil

	case policy.ToolCheckCapacity:
		var c grid.Capacity
		if err := result.Decode(&c); err != nil {
			return "", fmt.Errorf("decode capacity: %w", err)
		}
		obs.RecordCapacity(c)
		return "Available capacity: " + result.OutputString(), nil

	case policy.ToolDispatchPlan:
		var m grid.Metrics
		if err := result.Decode(&m); err != nil {
			return "", fmt.Errorf("decode metrics: %w", err)
		}
		obs.RecordDispatch(m)
		return "Grid Metrics: " + result.OutputString(), nil

	default:
		return "", fmt.Errorf("%w: %s", tool.ErrToolNotFound, toolName)
	}
}
