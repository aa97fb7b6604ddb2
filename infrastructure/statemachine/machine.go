// Package statemachine provides the statekit integration for the grid
// balancing control loop.
package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/gridbalancer/domain/agent"
	"github.com/felixgeelhaar/gridbalancer/domain/policy"
)

// MachineID identifies the statechart in snapshots.
const MachineID = "gridbalancer"

// Context carries run state through the state machine.
type Context struct {
	Run         *agent.Run
	Transitions *policy.StateTransitions
	Stability   policy.StabilityGate
}

// NewContext creates a machine context with the default policies.
func NewContext(run *agent.Run) *Context {
	return &Context{
		Run:         run,
		Transitions: policy.DefaultTransitions(),
		Stability:   policy.StabilityGate{Enabled: true},
	}
}

// State IDs as StateID type for statekit. Events carry the target state's
// name, so the same identifiers double as event types.
const (
	stateInitializing      statekit.StateID = statekit.StateID(agent.StateInitializing)
	stateDemandForecasting statekit.StateID = statekit.StateID(agent.StateDemandForecasting)
	stateCapacityAnalysis  statekit.StateID = statekit.StateID(agent.StateCapacityAnalysis)
	stateDispatchPlanning  statekit.StateID = statekit.StateID(agent.StateDispatchPlanning)
	stateExecution         statekit.StateID = statekit.StateID(agent.StateExecution)
	stateStabilityCheck    statekit.StateID = statekit.StateID(agent.StateStabilityCheck)
	stateAdjustment        statekit.StateID = statekit.StateID(agent.StateAdjustment)
	stateTerminated        statekit.StateID = statekit.StateID(agent.StateTerminated)
)

const (
	evDemandForecasting statekit.EventType = statekit.EventType(agent.StateDemandForecasting)
	evCapacityAnalysis  statekit.EventType = statekit.EventType(agent.StateCapacityAnalysis)
	evDispatchPlanning  statekit.EventType = statekit.EventType(agent.StateDispatchPlanning)
	evExecution         statekit.EventType = statekit.EventType(agent.StateExecution)
	evStabilityCheck    statekit.EventType = statekit.EventType(agent.StateStabilityCheck)
	evAdjustment        statekit.EventType = statekit.EventType(agent.StateAdjustment)
	evTerminated        statekit.EventType = statekit.EventType(agent.StateTerminated)
)

// NewGridMachine creates the grid balancing statechart.
func NewGridMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context](MachineID).
		WithInitial(stateInitializing).
		WithContext(&Context{}).
		// Register actions
		WithAction("logEntry", logStateEntry).
		WithAction("recordTransition", recordTransition).
		// Register guards
		WithGuard("canTransition", guardCanTransition).
		WithGuard("gridStable", guardGridStable).
		// Define states
		State(stateInitializing).
			OnEntry("logEntry").
			On(evDemandForecasting).Target(stateDemandForecasting).Guard("canTransition").Do("recordTransition").
			On(evAdjustment).Target(stateAdjustment).Guard("canTransition").Do("recordTransition").
			On(evTerminated).Target(stateTerminated).Do("recordTransition").
			Done().
		State(stateDemandForecasting).
			OnEntry("logEntry").
			On(evCapacityAnalysis).Target(stateCapacityAnalysis).Guard("canTransition").Do("recordTransition").
			On(evAdjustment).Target(stateAdjustment).Guard("canTransition").Do("recordTransition").
			On(evTerminated).Target(stateTerminated).Do("recordTransition").
			Done().
		State(stateCapacityAnalysis).
			OnEntry("logEntry").
			On(evDispatchPlanning).Target(stateDispatchPlanning).Guard("canTransition").Do("recordTransition").
			On(evAdjustment).Target(stateAdjustment).Guard("canTransition").Do("recordTransition").
			On(evTerminated).Target(stateTerminated).Do("recordTransition").
			Done().
		State(stateDispatchPlanning).
			OnEntry("logEntry").
			On(evExecution).Target(stateExecution).Guard("canTransition").Do("recordTransition").
			On(evAdjustment).Target(stateAdjustment).Guard("canTransition").Do("recordTransition").
			On(evTerminated).Target(stateTerminated).Do("recordTransition").
			Done().
		State(stateExecution).
			OnEntry("logEntry").
			On(evStabilityCheck).Target(stateStabilityCheck).Guard("canTransition").Do("recordTransition").
			On(evAdjustment).Target(stateAdjustment).Guard("canTransition").Do("recordTransition").
			On(evTerminated).Target(stateTerminated).Do("recordTransition").
			Done().
		State(stateStabilityCheck).
			OnEntry("logEntry").
			On(evAdjustment).Target(stateAdjustment).Guard("canTransition").Do("recordTransition").
			On(evDemandForecasting).Target(stateDemandForecasting).Guard("canTransition").Do("recordTransition"). // Next hour
			On(evTerminated).Target(stateTerminated).Guard("gridStable").Do("recordTransition").
			Done().
		State(stateAdjustment).
			OnEntry("logEntry").
			On(evDispatchPlanning).Target(stateDispatchPlanning).Guard("canTransition").Do("recordTransition").
			On(evTerminated).Target(stateTerminated).Do("recordTransition").
			Done().
		State(stateTerminated).
			Final().
			OnEntry("logEntry").
			Done().
		Build()
}

// EventForTransition returns the event type for a state transition.
func EventForTransition(to agent.State) statekit.EventType {
	return statekit.EventType(to)
}

// StateFromMachine converts the machine state ID to domain State.
func StateFromMachine(stateID statekit.StateID) agent.State {
	return agent.State(stateID)
}
