package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/gridbalancer/application"
	"github.com/felixgeelhaar/gridbalancer/domain/agent"
	"github.com/felixgeelhaar/gridbalancer/domain/config"
	"github.com/felixgeelhaar/gridbalancer/domain/run"
	infraconfig "github.com/felixgeelhaar/gridbalancer/infrastructure/config"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/storage"
)

// errNoStore is returned by commands that read stored runs when the
// configuration keeps none.
var errNoStore = errors.New("no run store configured (set storage.backend or --storage)")

type storeOptions struct {
	configPath  string
	storage     string
	storagePath string
}

func (o *storeOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.configPath, "config", "c", "", "Path to configuration file")
	f.StringVar(&o.storage, "storage", "", "Run store backend ("+config.BackendSQLite+" or "+config.BackendBadger+")")
	f.StringVar(&o.storagePath, "storage-path", "", "Run store file or directory")
}

// openStore loads the configuration and opens its persistent run store.
func (a *App) openStore(o *storeOptions) (run.Repository, error) {
	cfg, err := a.loadConfig(o.configPath, false, infraconfig.Overrides{
		Storage:     o.storage,
		StoragePath: o.storagePath,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Storage.Backend == config.BackendMemory {
		return nil, fmt.Errorf("%w: the memory backend does not outlive a run", errNoStore)
	}
	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errNoStore
	}
	return store, nil
}

type historyOptions struct {
	storeOptions
	scenario   int
	status     string
	limit      int
	jsonOutput bool
}

func (a *App) newHistoryCmd() *cobra.Command {
	opts := &historyOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored runs",
		Long: `List runs kept by a persistent run store, newest first.

Examples:
  gridbalancer history --storage sqlite --storage-path runs.db
  gridbalancer history -c gridbalancer.yaml --scenario 4 --status halted`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listHistory(cmd, opts)
		},
	}

	opts.register(cmd)
	f := cmd.Flags()
	f.IntVar(&opts.scenario, "scenario", 0, "Only runs of this scenario")
	f.StringVar(&opts.status, "status", "", "Only runs with this status (completed, halted, failed)")
	f.IntVar(&opts.limit, "limit", 20, "Maximum number of runs")
	f.BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func (a *App) listHistory(cmd *cobra.Command, opts *historyOptions) error {
	store, err := a.openStore(&opts.storeOptions)
	if err != nil {
		return err
	}
	defer store.Close()

	filter := run.ListFilter{Scenario: opts.scenario, Limit: opts.limit}
	if opts.status != "" {
		filter.Status = []agent.RunStatus{agent.RunStatus(opts.status)}
	}

	runs, err := application.NewReplay(store).Recent(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"runs":    runs,
			"summary": run.Summarize(runs),
		})
	}

	if len(runs) == 0 {
		fmt.Fprintln(a.stdout, "No runs found.")
		return nil
	}

	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tSCENARIO\tSTATUS\tSTATE\tSTEPS\tADJUSTMENTS\tSTARTED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.Scenario, r.Status, r.CurrentState, r.Steps,
			r.Observations.Adjustments, r.StartTime.Format(time.DateTime))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	s := run.Summarize(runs)
	fmt.Fprintf(a.stdout, "\n%d runs: %d completed, %d halted, %d failed; %.1f steps and %s on average\n",
		s.TotalRuns, s.CompletedRuns, s.HaltedRuns, s.FailedRuns, s.AverageSteps, s.AverageTime.Round(time.Millisecond))
	return nil
}

type showOptions struct {
	storeOptions
	jsonOutput bool
}

func (a *App) newShowCmd() *cobra.Command {
	opts := &showOptions{}

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a stored run step by step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showRun(cmd, opts, args[0])
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the run, trace and timeline as JSON")
	return cmd
}

func (a *App) showRun(cmd *cobra.Command, opts *showOptions, runID string) error {
	store, err := a.openStore(&opts.storeOptions)
	if err != nil {
		return err
	}
	defer store.Close()

	replay := application.NewReplay(store)

	if opts.jsonOutput {
		data, err := application.NewInspectionService(replay).ExportRun(cmd.Context(), runID)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, string(data))
		return nil
	}

	rec, err := replay.Load(cmd.Context(), runID)
	if err != nil {
		return err
	}

	r := rec.Run
	fmt.Fprintf(a.stdout, "Run %s\n", r.ID)
	fmt.Fprintf(a.stdout, "  Scenario: %d\n", r.Scenario)
	fmt.Fprintf(a.stdout, "  Status: %s\n", r.Status)
	fmt.Fprintf(a.stdout, "  Final state: %s after %d steps\n", r.CurrentState, r.Steps)
	if r.Error != "" {
		fmt.Fprintf(a.stdout, "  Error: %s\n", r.Error)
	}

	path := rec.StatePath()
	names := make([]string, len(path))
	for i, s := range path {
		names[i] = s.String()
	}
	fmt.Fprintf(a.stdout, "  Path: %s\n", strings.Join(names, " -> "))

	for _, step := range rec.Steps() {
		fmt.Fprintf(a.stdout, "\n--- STEP %d --- %s\n", step.Step, step.State)
		for _, act := range step.Actions {
			fmt.Fprintf(a.stdout, "  [ACTION] %s\n", act)
		}
		for _, o := range step.Outcome {
			fmt.Fprintf(a.stdout, "  [OBSERVATION] %s\n", o)
		}
		for _, p := range step.Problems {
			fmt.Fprintf(a.stdout, "  %s\n", p.Line())
		}
	}
	return nil
}
