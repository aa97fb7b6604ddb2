package application

import (
	"io"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/gridbalancer/domain/config"
	"github.com/felixgeelhaar/gridbalancer/domain/grid"
	"github.com/felixgeelhaar/gridbalancer/domain/ledger"
	"github.com/felixgeelhaar/gridbalancer/domain/memory"
	"github.com/felixgeelhaar/gridbalancer/domain/middleware"
	"github.com/felixgeelhaar/gridbalancer/domain/policy"
	"github.com/felixgeelhaar/gridbalancer/domain/run"
	"github.com/felixgeelhaar/gridbalancer/domain/tool"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/planner"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/prompt"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/resilience"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/telemetry"
)

// Option configures the engine.
type Option func(*EngineConfig)

// WithSimulator sets the simulated world.
func WithSimulator(s *grid.Simulator) Option {
	return func(c *EngineConfig) {
		c.Simulator = s
	}
}

// WithRegistry sets the tool registry. The tools must act on the engine's
// simulator.
func WithRegistry(r tool.Registry) Option {
	return func(c *EngineConfig) {
		c.Registry = r
	}
}

// WithPlanner sets the planner.
func WithPlanner(p planner.Planner) Option {
	return func(c *EngineConfig) {
		c.Planner = p
	}
}

// WithExecutor sets the resilient executor.
func WithExecutor(e *resilience.Executor) Option {
	return func(c *EngineConfig) {
		c.Executor = e
	}
}

// WithMiddleware replaces the default tool middleware chain. Eligibility
// is only enforced if the replacement includes it.
func WithMiddleware(m *middleware.Registry) Option {
	return func(c *EngineConfig) {
		c.Middleware = m
	}
}

// WithPrompts sets the prompt renderer.
func WithPrompts(r *prompt.Renderer) Option {
	return func(c *EngineConfig) {
		c.Prompts = r
	}
}

// WithEligibility sets the tool eligibility configuration.
func WithEligibility(e *policy.ToolEligibility) Option {
	return func(c *EngineConfig) {
		c.Eligibility = e
	}
}

// WithTransitions sets the state transitions configuration.
func WithTransitions(t *policy.StateTransitions) Option {
	return func(c *EngineConfig) {
		c.Transitions = t
	}
}

// WithStore persists runs and traces.
func WithStore(s run.Repository) Option {
	return func(c *EngineConfig) {
		c.Store = s
	}
}

// WithTracer sets the tracer for run, step, plan and tool spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *EngineConfig) {
		c.Tracer = t
	}
}

// WithMetrics sets the metrics provider.
func WithMetrics(m *telemetry.MetricsProvider) Option {
	return func(c *EngineConfig) {
		c.Metrics = m
	}
}

// WithConsole sets where the trace is printed.
func WithConsole(w io.Writer) Option {
	return func(c *EngineConfig) {
		c.Console = w
	}
}

// WithLogDir enables per-run trace files under dir.
func WithLogDir(dir string) Option {
	return func(c *EngineConfig) {
		c.LogDir = dir
	}
}

// WithSink subscribes s to every run's ledger.
func WithSink(s ledger.Sink) Option {
	return func(c *EngineConfig) {
		c.Sinks = append(c.Sinks, s)
	}
}

// WithMaxSteps sets the step ceiling.
func WithMaxSteps(n int) Option {
	return func(c *EngineConfig) {
		c.MaxSteps = n
	}
}

// WithHistory sets the memory window size and optional token budget.
func WithHistory(size, maxTokens int, counter memory.TokenCounter) Option {
	return func(c *EngineConfig) {
		c.HistorySize = size
		c.HistoryTokens = maxTokens
		c.TokenCounter = counter
	}
}

// WithStepDelay sets the pause between steps.
func WithStepDelay(d time.Duration) Option {
	return func(c *EngineConfig) {
		c.StepDelay = d
	}
}

// WithStabilityGate enables or disables the stability gate.
func WithStabilityGate(enabled bool) Option {
	return func(c *EngineConfig) {
		c.DisableStabilityGate = !enabled
	}
}

// WithProviderName labels planner metrics and logs.
func WithProviderName(name string) Option {
	return func(c *EngineConfig) {
		c.ProviderName = name
	}
}

// WithIDGenerator overrides run id generation.
func WithIDGenerator(f func() string) Option {
	return func(c *EngineConfig) {
		c.IDGenerator = f
	}
}

// ConfigOptions translates the agent and logging sections of cfg into
// engine options. The planner, store and telemetry are wired separately.
func ConfigOptions(cfg config.AppConfig) []Option {
	var counter memory.TokenCounter
	if cfg.Agent.HistoryTokens > 0 {
		counter = planner.NewTiktokenCounter()
	}

	provider := cfg.LLM.Provider
	if provider == "" {
		provider = config.ProviderHuggingFace
	}

	return []Option{
		WithSimulator(grid.NewSimulator(cfg.Agent.Seed)),
		WithMaxSteps(cfg.Agent.MaxSteps),
		WithHistory(cfg.Agent.HistorySize, cfg.Agent.HistoryTokens, counter),
		WithStepDelay(cfg.Agent.Delay()),
		WithStabilityGate(cfg.Agent.StabilityEnforced()),
		WithLogDir(cfg.Logging.Dir),
		WithProviderName(provider),
	}
}

// NewEngineWithOptions creates an engine with functional options.
func NewEngineWithOptions(opts ...Option) (*Engine, error) {
	cfg := EngineConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewEngine(cfg)
}
