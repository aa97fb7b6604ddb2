// Package application runs the grid balancing control loop.
package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/gridbalancer/domain/agent"
	"github.com/felixgeelhaar/gridbalancer/domain/grid"
	"github.com/felixgeelhaar/gridbalancer/domain/ledger"
	"github.com/felixgeelhaar/gridbalancer/domain/memory"
	"github.com/felixgeelhaar/gridbalancer/domain/middleware"
	"github.com/felixgeelhaar/gridbalancer/domain/policy"
	"github.com/felixgeelhaar/gridbalancer/domain/run"
	"github.com/felixgeelhaar/gridbalancer/domain/tool"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/gridtools"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/logging"
	inframw "github.com/felixgeelhaar/gridbalancer/infrastructure/middleware"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/observability"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/planner"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/prompt"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/resilience"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/statemachine"
	memstore "github.com/felixgeelhaar/gridbalancer/infrastructure/storage/memory"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/telemetry"
)

// DefaultMaxSteps bounds a run that never reaches TERMINATED.
const DefaultMaxSteps = 20

// Engine is the main orchestration service for agent execution.
type Engine struct {
	sim           *grid.Simulator
	registry      tool.Registry
	planner       planner.Planner
	executor      *resilience.Executor
	middleware    *middleware.Registry
	prompts       *prompt.Renderer
	eligibility   *policy.ToolEligibility
	transitions   *policy.StateTransitions
	store         run.Repository
	tracer        trace.Tracer
	metrics       *telemetry.MetricsProvider
	console       io.Writer
	logDir        string
	sinks         []ledger.Sink
	maxSteps      int
	historySize   int
	historyTokens int
	tokenCounter  memory.TokenCounter
	stepDelay     time.Duration
	stability     bool
	providerName  string
	newID         func() string
}

// EngineConfig contains configuration for the engine.
type EngineConfig struct {
	// Simulator is the world the grid tools act on. When Registry is nil
	// the engine registers the grid tools over it.
	Simulator *grid.Simulator
	Registry  tool.Registry
	Planner   planner.Planner
	Executor  *resilience.Executor

	// Middleware wraps every tool call. Defaults to eligibility, tracing,
	// metrics and logging.
	Middleware  *middleware.Registry
	Prompts     *prompt.Renderer
	Eligibility *policy.ToolEligibility
	Transitions *policy.StateTransitions

	// Store persists finished runs and their traces. Optional.
	Store run.Repository

	Tracer  trace.Tracer
	Metrics *telemetry.MetricsProvider

	// Console receives the human-readable trace. Nil keeps the run quiet.
	Console io.Writer
	// LogDir is where per-run trace files are written. Empty disables them.
	LogDir string
	// Sinks are subscribed to every run's ledger.
	Sinks []ledger.Sink

	MaxSteps      int
	HistorySize   int
	HistoryTokens int
	TokenCounter  memory.TokenCounter
	StepDelay     time.Duration

	// DisableStabilityGate lets the planner terminate on an unstable grid.
	DisableStabilityGate bool

	// ProviderName labels planner metrics.
	ProviderName string

	// IDGenerator overrides run id generation.
	IDGenerator func() string
}

// Result is the outcome of one run.
type Result struct {
	Run       *agent.Run
	Ledger    *ledger.Ledger
	History   []memory.Message
	TracePath string
	// Budget reports steps, planner calls and tool calls consumed.
	Budget policy.BudgetSnapshot
}

// NewEngine creates a new engine with the given configuration.
func NewEngine(config EngineConfig) (*Engine, error) {
	if config.Planner == nil {
		return nil, errors.New("planner is required")
	}

	e := &Engine{
		sim:           config.Simulator,
		registry:      config.Registry,
		planner:       config.Planner,
		executor:      config.Executor,
		middleware:    config.Middleware,
		prompts:       config.Prompts,
		eligibility:   config.Eligibility,
		transitions:   config.Transitions,
		store:         config.Store,
		tracer:        config.Tracer,
		metrics:       config.Metrics,
		console:       config.Console,
		logDir:        config.LogDir,
		sinks:         config.Sinks,
		maxSteps:      config.MaxSteps,
		historySize:   config.HistorySize,
		historyTokens: config.HistoryTokens,
		tokenCounter:  config.TokenCounter,
		stepDelay:     config.StepDelay,
		stability:     !config.DisableStabilityGate,
		providerName:  config.ProviderName,
		newID:         config.IDGenerator,
	}

	if e.sim == nil {
		e.sim = grid.NewSimulator(grid.DefaultSeed)
	}
	if e.registry == nil {
		reg := memstore.NewToolRegistry()
		if err := gridtools.Register(reg, e.sim); err != nil {
			return nil, fmt.Errorf("register grid tools: %w", err)
		}
		e.registry = reg
	}
	if e.executor == nil {
		e.executor = resilience.NewDefaultExecutor()
	}
	if e.prompts == nil {
		r, err := prompt.NewRenderer()
		if err != nil {
			return nil, fmt.Errorf("load prompts: %w", err)
		}
		e.prompts = r
	}
	if e.eligibility == nil {
		e.eligibility = policy.DefaultEligibility()
	}
	if e.transitions == nil {
		e.transitions = policy.DefaultTransitions()
	}
	if e.tracer == nil {
		e.tracer = observability.NewNoop().Tracer()
	}
	if e.maxSteps <= 0 {
		e.maxSteps = DefaultMaxSteps
	}
	if e.historySize <= 0 {
		e.historySize = memory.DefaultSize
	}
	if e.providerName == "" {
		e.providerName = "planner"
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	if e.middleware == nil {
		e.middleware = e.defaultMiddlewareChain()
	}

	return e, nil
}

// defaultMiddlewareChain blocks ineligible tools before anything else runs.
func (e *Engine) defaultMiddlewareChain() *middleware.Registry {
	return middleware.NewRegistry().
		Use(inframw.Eligibility(inframw.EligibilityConfig{Eligibility: e.eligibility})).
		Use(inframw.Tracing(inframw.TracingConfig{Tracer: e.tracer, RecordInput: true})).
		Use(inframw.Metrics(e.metrics)).
		Use(inframw.Logging(inframw.LoggingConfig{LogInput: true}))
}

// Simulator returns the simulated world the engine acts on.
func (e *Engine) Simulator() *grid.Simulator {
	return e.sim
}

// runContext is the per-run state threaded through each step.
type runContext struct {
	run    *agent.Run
	ledger *ledger.Ledger
	interp *statemachine.Interpreter
	window *memory.Window
	budget *policy.Budget
}

// Run resets the world to the scenario and drives the agent until it
// terminates, hits the step ceiling, or ctx is cancelled. The result is
// returned in every case once the run has started; the error is non-nil
// only for setup failures, cancellation and planner errors.
func (e *Engine) Run(ctx context.Context, scenarioID int) (*Result, error) {
	sc := grid.ScenarioOrDefault(scenarioID)
	e.sim.Reset(sc)

	runID := e.newID()
	r := agent.NewRun(runID, sc.ID)
	runLedger := ledger.New(runID)

	tw := logging.NewTraceWriter(e.console)
	var tracePath string
	if e.logDir != "" {
		path, err := tw.OpenFile(e.logDir, sc.ID, time.Now())
		if err != nil {
			return nil, err
		}
		tracePath = path
		e.printf("\n LOGGING STARTED: Saving to %s\n\n", path)
	}
	defer func() {
		if err := tw.Close(); err != nil {
			logging.Warn().Add(logging.RunID(runID)).Add(logging.ErrorField(err)).Msg("close trace file")
		}
		if tracePath != "" {
			e.printf("\n LOGGING FINISHED.\n")
		}
	}()

	runLedger.Subscribe(tw)
	for _, s := range e.sinks {
		runLedger.Subscribe(s)
	}

	machine, err := statemachine.NewGridMachine()
	if err != nil {
		return nil, fmt.Errorf("failed to create state machine: %w", err)
	}
	machineCtx := statemachine.NewContext(r)
	machineCtx.Transitions = e.transitions
	machineCtx.Stability = policy.StabilityGate{Enabled: e.stability}
	interp := statemachine.NewInterpreter(machine, machineCtx)

	var windowOpts []memory.Option
	if e.historyTokens > 0 && e.tokenCounter != nil {
		windowOpts = append(windowOpts, memory.WithTokenBudget(e.historyTokens, e.tokenCounter))
	}
	rc := &runContext{
		run:    r,
		ledger: runLedger,
		interp: interp,
		window: memory.NewWindow(e.historySize, windowOpts...),
		budget: policy.StepBudget(e.maxSteps),
	}

	ctx, span := observability.StartRun(ctx, e.tracer, runID, sc.ID)
	e.metrics.RunStarted(ctx)

	logging.Info().
		Add(logging.RunID(runID)).
		Add(logging.Scenario(sc.ID)).
		Add(logging.Provider(e.providerName)).
		Msg("run started")

	interp.Start()
	e.save(ctx, r)
	runLedger.Record(ledger.TagSystem, 0, r.CurrentState, "--- AGENT EXECUTION STARTED ---")

	var runErr error
	for !interp.IsTerminal() && rc.budget.CanConsume(policy.BudgetSteps, 1) {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if err := e.step(ctx, rc); err != nil {
			runErr = err
			break
		}
		r.RecordStep()
		_ = rc.budget.Consume(policy.BudgetSteps, 1)

		if !interp.IsTerminal() && rc.budget.CanConsume(policy.BudgetSteps, 1) {
			if err := sleep(ctx, e.stepDelay); err != nil {
				runErr = err
				break
			}
		}
	}
	// Stop resets the interpreter, so read the final state first.
	terminated := interp.IsTerminal()
	interp.Stop()

	runLedger.Record(ledger.TagSystem, r.Steps, r.CurrentState, "--- AGENT EXECUTION TERMINATED at Step %d ---", r.Steps)

	switch {
	case runErr != nil:
		r.Fail(runErr.Error())
	case terminated:
	default:
		r.Halt(fmt.Sprintf("step limit of %d reached", e.maxSteps))
	}

	e.finish(ctx, rc)

	span.SetAttributes(
		observability.AttrStatus.String(string(r.Status)),
		observability.AttrStep.Int(r.Steps),
	)
	observability.End(span, runErr)
	e.metrics.RunFinished(ctx, sc.ID, string(r.Status), r.Duration())

	logEvent := logging.Info()
	if runErr != nil {
		logEvent = logging.Error().Add(logging.ErrorField(runErr))
	}
	logEvent.
		Add(logging.RunID(runID)).
		Add(logging.State(r.CurrentState)).
		Add(logging.Str("status", string(r.Status))).
		Add(logging.Step(r.Steps)).
		Add(logging.Duration(r.Duration())).
		Msg("run finished")

	return &Result{
		Run:       r,
		Ledger:    runLedger,
		History:   rc.window.Messages(),
		TracePath: tracePath,
		Budget:    rc.budget.Snapshot(),
	}, runErr
}

// step executes one observe-think-act iteration.
func (e *Engine) step(ctx context.Context, rc *runContext) (err error) {
	start := time.Now()
	state := rc.interp.State()
	step := rc.run.Steps

	ctx, span := observability.StartStep(ctx, e.tracer, step, state)
	defer func() {
		observability.End(span, err)
		e.metrics.RecordStep(ctx, state.String(), time.Since(start))
	}()

	e.printf("\n--- STEP %d ---\n", step)

	// Observe.
	rc.ledger.Record(ledger.TagState, step, state, "%s", state)
	obs := rc.run.Observations

	// Think.
	system, err := e.prompts.System(state, obs)
	if err != nil {
		return fmt.Errorf("render prompt: %w", err)
	}
	rc.ledger.Record(ledger.TagPrompt, step, state, "%s", system)

	decision, err := e.plan(ctx, rc, step, state, system)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	content := decision.JSON()
	raw := ledger.NewEntry(ledger.TagRawLLM, step, state, content)
	if decision.Raw != "" && decision.Raw != content {
		raw = raw.WithDetails(map[string]string{"raw": decision.Raw})
	}
	rc.ledger.Append(raw)

	rc.window.AppendAssistant(content)

	// Act.
	if err := decision.Validate(); err != nil {
		rc.ledger.Record(ledger.TagWarning, step, state, "Unknown action type: %s. Skipping.", decision.ActionType)
		logging.Warn().
			Add(logging.RunID(rc.run.ID)).
			Add(logging.Step(step)).
			Add(logging.ErrorField(err)).
			Msg("decision skipped")
		return nil
	}
	if decision.IsTransition() {
		e.transition(ctx, rc, step, state, decision)
	} else {
		e.callTool(ctx, rc, step, state, decision)
	}
	return nil
}

func (e *Engine) plan(ctx context.Context, rc *runContext, step int, state agent.State, system string) (agent.Decision, error) {
	start := time.Now()
	ctx, span := observability.StartPlan(ctx, e.tracer, state)
	_ = rc.budget.Consume(policy.BudgetLLMCalls, 1)

	decision, err := e.planner.Plan(ctx, planner.PlanRequest{
		RunID:        rc.run.ID,
		Step:         step,
		State:        state,
		SystemPrompt: system,
		History:      rc.window.Messages(),
		Observations: rc.run.Observations,
	})

	fallback := err == nil && planner.IsFallback(decision)
	if err == nil {
		observability.AnnotateDecision(span, decision, fallback)
	}
	observability.End(span, err)
	e.metrics.RecordPlan(ctx, e.providerName, state.String(), fallback, time.Since(start))

	if err != nil {
		return agent.Decision{}, fmt.Errorf("planner error: %w", err)
	}

	if fallback {
		logging.Warn().
			Add(logging.RunID(rc.run.ID)).
			Add(logging.Step(step)).
			Add(logging.State(state)).
			Add(logging.Fallback(true)).
			Add(logging.Reason(decision.Thought)).
			Msg("planner fell back")
	} else {
		logging.Debug().
			Add(logging.RunID(rc.run.ID)).
			Add(logging.Step(step)).
			Add(logging.State(state)).
			Add(logging.Action(decision.Kind())).
			Add(logging.Str("target", decision.Target)).
			Msg("planner decision")
	}
	return decision, nil
}

// transition validates and applies a TRANSITION decision. Bad names and
// disallowed edges fall back to ADJUSTMENT; the stability gate may also
// redirect a termination there.
func (e *Engine) transition(ctx context.Context, rc *runContext, step int, from agent.State, d agent.Decision) {
	rc.ledger.Record(ledger.TagAction, step, from, "Transitioning to %s", d.Target)

	to, err := d.TargetState()
	if err != nil {
		rc.ledger.Record(ledger.TagError, step, from, "Invalid State Name: %s. Defaulting to ADJUSTMENT.", d.Target)
		to = agent.StateAdjustment
	}

	if redirected, ok := rc.interp.Context().Stability.Redirect(from, to, rc.run.Observations); ok {
		m := rc.run.Observations.LastMetrics
		rc.ledger.Record(ledger.TagError, step, from,
			"Grid is unstable (status %s, risk %s, frequency deviation %.4f). Cannot terminate; redirecting to %s.",
			m.Status, m.BlackoutRisk, m.FrequencyDeviation, redirected)
		e.metrics.RecordStabilityRedirect(ctx)
		to = redirected
	}

	if !rc.interp.CanTransition(to) {
		if to == agent.StateAdjustment || !rc.interp.CanTransition(agent.StateAdjustment) {
			rc.ledger.Record(ledger.TagWarning, step, from, "Transition %s -> %s is not allowed. Staying in %s.", from, to, from)
			return
		}
		rc.ledger.Record(ledger.TagError, step, from, "Transition %s -> %s is not allowed. Defaulting to ADJUSTMENT.", from, to)
		to = agent.StateAdjustment
	}

	if err := rc.interp.Transition(to, d.Thought); err != nil {
		rc.ledger.Record(ledger.TagError, step, from, "Transition rejected: %v", err)
		return
	}

	e.metrics.RecordTransition(ctx, from.String(), to.String())
	logging.Debug().
		Add(logging.RunID(rc.run.ID)).
		Add(logging.FromState(from)).
		Add(logging.ToState(to)).
		Msg("state transition")
}

// callTool runs a TOOL_CALL decision through the middleware chain and the
// resilient executor, then folds the result into the observations.
func (e *Engine) callTool(ctx context.Context, rc *runContext, step int, state agent.State, d agent.Decision) {
	params := d.ParamsOrEmpty()
	rc.ledger.Record(ledger.TagAction, step, state, "Executing Tool %s with params %s", d.Target, params)

	t, ok := e.registry.Get(d.Target)
	if !ok {
		rc.ledger.Record(ledger.TagWarning, step, state, "Unknown tool called: %s", d.Target)
		return
	}

	execCtx := &middleware.ExecutionContext{
		RunID:        rc.run.ID,
		Step:         step,
		CurrentState: state,
		Tool:         t,
		Input:        params,
		Reason:       d.Thought,
	}
	handler := e.middleware.Chain()(e.execute)
	_ = rc.budget.Consume(policy.BudgetToolCalls, 1)

	result, err := handler(ctx, execCtx)
	switch {
	case errors.Is(err, tool.ErrToolNotAllowed):
		rc.ledger.Record(ledger.TagWarning, step, state, "Tool %s is not allowed in state %s. Skipping.", t.Name(), state)
		return
	case err != nil:
		rc.ledger.Record(ledger.TagCriticalError, step, state, "Tool execution failed: %v", err)
		return
	}

	msg, err := gridtools.Observe(&rc.run.Observations, t.Name(), result)
	if err != nil {
		rc.ledger.Record(ledger.TagCriticalError, step, state, "Tool execution failed: %v", err)
		return
	}
	rc.ledger.Append(ledger.NewEntry(ledger.TagObservation, step, state, msg).WithDetails(result.Output))
}

func (e *Engine) execute(ctx context.Context, ec *middleware.ExecutionContext) (tool.Result, error) {
	return e.executor.Execute(ctx, ec.Tool, ec.Input)
}

// save stores the run as soon as it starts so history shows runs in flight.
func (e *Engine) save(ctx context.Context, r *agent.Run) {
	if e.store == nil {
		return
	}
	if err := e.store.Save(ctx, r); err != nil {
		logging.Warn().Add(logging.RunID(r.ID)).Add(logging.ErrorField(err)).Msg("save run")
	}
}

// finish persists the final run and its trace. It runs even when ctx has
// been cancelled.
func (e *Engine) finish(ctx context.Context, rc *runContext) {
	if e.store == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	r := rc.run

	if err := e.store.Update(ctx, r); err != nil {
		if !errors.Is(err, run.ErrRunNotFound) {
			logging.Warn().Add(logging.RunID(r.ID)).Add(logging.ErrorField(err)).Msg("update run")
			return
		}
		if err := e.store.Save(ctx, r); err != nil {
			logging.Warn().Add(logging.RunID(r.ID)).Add(logging.ErrorField(err)).Msg("save run")
			return
		}
	}
	if err := e.store.AppendEntries(ctx, r.ID, rc.ledger.Entries()); err != nil {
		logging.Warn().Add(logging.RunID(r.ID)).Add(logging.ErrorField(err)).Msg("save trace")
	}
}

func (e *Engine) printf(format string, args ...any) {
	if e.console != nil {
		fmt.Fprintf(e.console, format, args...)
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
