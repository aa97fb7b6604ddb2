// Package api provides the public API for embedding the grid balancing agent.
//
// The agent walks a fixed state graph, calling grid tools as it goes, until
// it reaches TERMINATED or runs out of steps:
//
//	engine, _ := api.New(api.WithPlanner(api.NewScriptedPlanner()))
//	result, _ := engine.Run(ctx, 1)
//	fmt.Println(result.Run.Status, result.Run.CurrentState)
//
// # States
//
//   - StateInitializing: Start-up
//   - StateDemandForecasting: Predict next-hour demand
//   - StateCapacityAnalysis: Read available generation
//   - StateDispatchPlanning: Choose a dispatch
//   - StateExecution: Plan applied to the grid
//   - StateStabilityCheck: Evaluate feedback
//   - StateAdjustment: Replan after instability
//   - StateTerminated: Terminal
//
// # Planners
//
//   - ScriptedPlanner: Deterministic greedy policy, no network
//   - MockPlanner: Returns queued decisions for testing
//   - LLMPlanner: Asks a chat model for each decision (see NewPlanner)
package api

import (
	"context"

	"github.com/felixgeelhaar/gridbalancer/application"
	"github.com/felixgeelhaar/gridbalancer/domain/agent"
	"github.com/felixgeelhaar/gridbalancer/domain/config"
	"github.com/felixgeelhaar/gridbalancer/domain/grid"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/planner"
)

// Re-exported types.
type (
	Engine   = application.Engine
	Option   = application.Option
	Result   = application.Result
	Decision = agent.Decision
	State    = agent.State
	Run      = agent.Run
	Scenario = grid.Scenario
	Planner  = planner.Planner
)

// States.
const (
	StateInitializing      = agent.StateInitializing
	StateDemandForecasting = agent.StateDemandForecasting
	StateCapacityAnalysis  = agent.StateCapacityAnalysis
	StateDispatchPlanning  = agent.StateDispatchPlanning
	StateExecution         = agent.StateExecution
	StateStabilityCheck    = agent.StateStabilityCheck
	StateAdjustment        = agent.StateAdjustment
	StateTerminated        = agent.StateTerminated
)

// Engine options.
var (
	WithSimulator     = application.WithSimulator
	WithRegistry      = application.WithRegistry
	WithPlanner       = application.WithPlanner
	WithStore         = application.WithStore
	WithTracer        = application.WithTracer
	WithMetrics       = application.WithMetrics
	WithConsole       = application.WithConsole
	WithLogDir        = application.WithLogDir
	WithSink          = application.WithSink
	WithMaxSteps      = application.WithMaxSteps
	WithHistory       = application.WithHistory
	WithStepDelay     = application.WithStepDelay
	WithStabilityGate = application.WithStabilityGate
)

// New creates an engine. A planner is required.
func New(opts ...Option) (*Engine, error) {
	return application.NewEngineWithOptions(opts...)
}

// NewFromConfig creates an engine from an application configuration,
// building the planner its llm section names.
func NewFromConfig(ctx context.Context, cfg config.AppConfig, opts ...Option) (*Engine, error) {
	p, err := planner.New(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	all := append(application.ConfigOptions(cfg), application.WithPlanner(p))
	return New(append(all, opts...)...)
}

// Scenarios returns the built-in scenarios.
func Scenarios() []Scenario {
	return grid.Scenarios()
}

// NewSimulator creates a grid simulator with a fixed noise seed.
func NewSimulator(seed uint64) *grid.Simulator {
	return grid.NewSimulator(seed)
}
