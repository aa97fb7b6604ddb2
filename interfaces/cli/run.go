package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/gridbalancer/application"
	"github.com/felixgeelhaar/gridbalancer/domain/config"
	"github.com/felixgeelhaar/gridbalancer/domain/grid"
	infraconfig "github.com/felixgeelhaar/gridbalancer/infrastructure/config"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/observability"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/planner"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/storage"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/telemetry"
)

// runOptions holds options for the run command.
type runOptions struct {
	configPath  string
	scenario    int
	offline     bool
	provider    string
	model       string
	baseURL     string
	maxSteps    int
	delay       time.Duration
	seed        uint64
	logDir      string
	storage     string
	storagePath string
	tracing     bool
	exporter    string
	jsonOutput  bool
	metrics     bool
}

// newRunCmd creates the run command.
func (a *App) newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the agent against a scenario",
		Long: `Run the grid balancing agent against one of the built-in scenarios.

Without --scenario the scenarios are listed and one is read from stdin.
The default planner is a Hugging Face hosted model and needs HF_TOKEN;
--offline uses the built-in policy and needs no network.

Examples:
  # Pick a scenario interactively
  gridbalancer run

  # Gas depletion, offline, no pause between steps
  gridbalancer run --scenario 4 --offline --delay 0

  # Another provider
  gridbalancer run --scenario 2 --provider openai --model gpt-4o-mini

  # Machine-readable summary with metric totals
  gridbalancer run --scenario 5 --offline --json --metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAgent(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	f.IntVarP(&opts.scenario, "scenario", "s", 0, "Scenario to run (1-5); prompts when omitted")
	f.BoolVar(&opts.offline, "offline", false, "Use the offline policy instead of a language model")
	f.StringVar(&opts.provider, "provider", "", "LLM provider ("+strings.Join(config.Providers(), ", ")+")")
	f.StringVar(&opts.model, "model", "", "Model name (defaults per provider)")
	f.StringVar(&opts.baseURL, "base-url", "", "Override the provider endpoint")
	f.IntVar(&opts.maxSteps, "max-steps", 0, "Step ceiling (overrides config)")
	f.DurationVar(&opts.delay, "delay", 0, "Pause between steps (overrides config)")
	f.Uint64Var(&opts.seed, "seed", 0, "Seed for the simulated noise")
	f.StringVar(&opts.logDir, "log-dir", "", "Directory for per-run trace files (overrides config)")
	f.StringVar(&opts.storage, "storage", "", "Run store backend ("+strings.Join(config.Backends(), ", ")+")")
	f.StringVar(&opts.storagePath, "storage-path", "", "Run store file or directory")
	f.BoolVar(&opts.tracing, "tracing", false, "Export OpenTelemetry spans")
	f.StringVar(&opts.exporter, "exporter", "", "Span exporter ("+strings.Join(config.Exporters(), ", ")+")")
	f.BoolVar(&opts.jsonOutput, "json", false, "Print the run summary as JSON")
	f.BoolVar(&opts.metrics, "metrics", false, "Print metric totals after the run")

	return cmd
}

// overrides maps the flags that were actually set onto config overrides.
func (o *runOptions) overrides(cmd *cobra.Command) infraconfig.Overrides {
	ov := infraconfig.Overrides{
		Provider:    o.provider,
		Model:       o.model,
		BaseURL:     o.baseURL,
		Offline:     o.offline,
		Storage:     o.storage,
		StoragePath: o.storagePath,
		Exporter:    o.exporter,
	}
	flags := cmd.Flags()
	if flags.Changed("max-steps") {
		ov.MaxSteps = &o.maxSteps
	}
	if flags.Changed("delay") {
		ov.StepDelay = &o.delay
	}
	if flags.Changed("seed") {
		ov.Seed = &o.seed
	}
	if flags.Changed("log-dir") {
		ov.LogDir = &o.logDir
	}
	if flags.Changed("tracing") {
		ov.Tracing = &o.tracing
	}
	return ov
}

// runAgent executes one run.
func (a *App) runAgent(cmd *cobra.Command, opts *runOptions) error {
	ctx := cmd.Context()

	cfg, err := a.loadConfig(opts.configPath, false, opts.overrides(cmd))
	if err != nil {
		return err
	}

	out := a.stdout
	if opts.jsonOutput {
		// The trace still goes somewhere readable; stdout is reserved for JSON.
		out = a.stderr
	}

	fmt.Fprintln(out, "=================================================")
	fmt.Fprintln(out, "   AUTONOMOUS ENERGY GRID AGENT - INITIALIZING   ")
	fmt.Fprintln(out, "=================================================")
	a.checkToken(out, cfg.LLM)

	scenarioID := opts.scenario
	if !cmd.Flags().Changed("scenario") {
		scenarioID = pickScenario(a.stdin, out, cfg.Agent.Scenario)
	}
	sc, err := grid.LookupScenario(scenarioID)
	if err != nil {
		fmt.Fprintf(out, "Unknown scenario %d. Defaulting to Scenario %d.\n", scenarioID, grid.DefaultScenarioID)
		sc = grid.ScenarioOrDefault(scenarioID)
	}

	fmt.Fprintf(out, "\n Setting up Scenario %d...\n", sc.ID)
	fmt.Fprintf(out, "   Current Hour: %d:00\n", sc.Hour)
	fmt.Fprintf(out, "   Weather: %s\n", sc.Weather)
	fmt.Fprintf(out, "   Gas Reserves: %g MW\n", sc.GasReserveMW)

	obs, err := observability.New(ctx, cfg.Telemetry,
		observability.WithServiceVersion(Version),
		observability.WithWriter(a.stderr),
	)
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() { _ = obs.Shutdown(context.WithoutCancel(ctx)) }()

	mcfg := telemetry.DefaultMetricsConfig()
	mcfg.Provider = obs.MeterProvider()
	mcfg.MeterVersion = Version
	metrics := telemetry.NewMetricsProvider(mcfg)

	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	p, err := planner.New(ctx, cfg.LLM)
	if err != nil {
		fmt.Fprintf(out, "\n CRITICAL ERROR: %v\n", err)
		return fmt.Errorf("failed to create planner: %w", err)
	}

	engineOpts := append(application.ConfigOptions(*cfg),
		application.WithPlanner(p),
		application.WithConsole(out),
		application.WithTracer(obs.Tracer()),
		application.WithMetrics(metrics),
	)
	if store != nil {
		engineOpts = append(engineOpts, application.WithStore(store))
	}
	engine, err := application.NewEngineWithOptions(engineOpts...)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	fmt.Fprintln(out, "\n Launching Agent...")
	result, err := engine.Run(ctx, sc.ID)
	switch {
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(out, "\n Execution interrupted by user.")
	case err != nil:
		fmt.Fprintf(out, "\n CRITICAL ERROR: %v\n", err)
	}
	if result == nil {
		return err
	}

	var totals []telemetry.CounterTotal
	if opts.metrics {
		rm, cerr := obs.Collect(context.WithoutCancel(ctx))
		if cerr != nil {
			return fmt.Errorf("failed to collect metrics: %w", cerr)
		}
		totals = telemetry.Totals(rm)
	}

	if opts.jsonOutput {
		if perr := a.printRunJSON(result, sc, totals); perr != nil {
			return perr
		}
	} else {
		a.printRunText(result, sc, totals)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// checkToken reports whether the hosted provider's key is available.
func (a *App) checkToken(w io.Writer, llm config.LLMConfig) {
	env, hosted := planner.APIKeyEnv[llm.Provider]
	if !hosted {
		return
	}
	if planner.ResolveAPIKey(llm) == "" {
		fmt.Fprintf(w, "   WARNING: %s not found in environment variables.\n", env)
		fmt.Fprintln(w, "   Add it to .env or run with --offline.")
		return
	}
	if _, fromEnv := os.LookupEnv(env); fromEnv && llm.APIKey == "" {
		fmt.Fprintf(w, "  %s found in environment.\n", env)
	}
}

// pickScenario lists the scenarios and reads a choice. Empty input selects
// def; anything that is not a number falls back to scenario 1.
func pickScenario(in io.Reader, out io.Writer, def int) int {
	if def == 0 {
		def = grid.DefaultScenarioID
	}

	fmt.Fprintln(out, "\n--- SCENARIO SELECTION ---")
	scenarios := grid.Scenarios()
	for _, s := range scenarios {
		fmt.Fprintf(out, "%d. %s\n", s.ID, s.Name)
	}
	fmt.Fprintf(out, "Select a scenario (1-%d) [Default: %d]: ", len(scenarios), def)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(out)
		return def
	}
	choice := strings.TrimSpace(line)
	if choice == "" {
		return def
	}
	id, err := strconv.Atoi(choice)
	if err != nil {
		fmt.Fprintln(out, "Invalid input. Defaulting to Scenario 1.")
		return grid.DefaultScenarioID
	}
	return id
}

type runSummary struct {
	RunID      string                   `json:"run_id"`
	Scenario   grid.Scenario            `json:"scenario"`
	Status     string                   `json:"status"`
	State      string                   `json:"state"`
	Steps      int                      `json:"steps"`
	Reason     string                   `json:"reason,omitempty"`
	Error      string                   `json:"error,omitempty"`
	Duration   string                   `json:"duration"`
	Problems   int                      `json:"problems"`
	TraceFile  string                   `json:"trace_file,omitempty"`
	LastMetric *grid.Metrics            `json:"last_metrics,omitempty"`
	Metrics    []telemetry.CounterTotal `json:"metrics,omitempty"`
}

func summarize(result *application.Result, sc grid.Scenario, totals []telemetry.CounterTotal) runSummary {
	r := result.Run
	problems := 0
	for _, e := range result.Ledger.Entries() {
		if e.Tag.IsProblem() {
			problems++
		}
	}
	return runSummary{
		RunID:      r.ID,
		Scenario:   sc,
		Status:     string(r.Status),
		State:      r.CurrentState.String(),
		Steps:      r.Steps,
		Reason:     r.Reason,
		Error:      r.Error,
		Duration:   r.Duration().Round(time.Millisecond).String(),
		Problems:   problems,
		TraceFile:  result.TracePath,
		LastMetric: r.Observations.LastMetrics,
		Metrics:    totals,
	}
}

func (a *App) printRunJSON(result *application.Result, sc grid.Scenario, totals []telemetry.CounterTotal) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summarize(result, sc, totals))
}

func (a *App) printRunText(result *application.Result, sc grid.Scenario, totals []telemetry.CounterTotal) {
	s := summarize(result, sc, totals)

	fmt.Fprintf(a.stdout, "\nRun %s\n", s.Status)
	fmt.Fprintf(a.stdout, "  Run ID: %s\n", s.RunID)
	fmt.Fprintf(a.stdout, "  Scenario: %d. %s\n", sc.ID, sc.Name)
	fmt.Fprintf(a.stdout, "  Final state: %s\n", s.State)
	fmt.Fprintf(a.stdout, "  Steps: %d\n", s.Steps)
	fmt.Fprintf(a.stdout, "  Duration: %s\n", s.Duration)
	if s.Reason != "" {
		fmt.Fprintf(a.stdout, "  Reason: %s\n", s.Reason)
	}
	if s.Error != "" {
		fmt.Fprintf(a.stdout, "  Error: %s\n", s.Error)
	}
	if s.Problems > 0 {
		fmt.Fprintf(a.stdout, "  Warnings and errors: %d\n", s.Problems)
	}
	if m := s.LastMetric; m != nil {
		fmt.Fprintf(a.stdout, "  Last dispatch: %s, risk %s, frequency deviation %.4f, remaining gas %.2f MW\n",
			m.Status, m.BlackoutRisk, m.FrequencyDeviation, m.RemainingGas)
	}
	if s.TraceFile != "" {
		fmt.Fprintf(a.stdout, "  Trace: %s\n", s.TraceFile)
	}
	if len(totals) > 0 {
		fmt.Fprintln(a.stdout, "  Metrics:")
		for _, t := range totals {
			fmt.Fprintf(a.stdout, "    %s: %d\n", t.Name, t.Total)
		}
	}
}
