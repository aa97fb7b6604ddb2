// Package cli provides the gridbalancer command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/gridbalancer"
	"github.com/felixgeelhaar/gridbalancer/domain/config"
	infraconfig "github.com/felixgeelhaar/gridbalancer/infrastructure/config"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/logging"
)

// Version information, overridable at build time.
var (
	Version   = gridbalancer.Version
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// App represents the CLI application.
type App struct {
	root   *cobra.Command
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// New creates a new CLI application.
func New() *App {
	app := &App{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "gridbalancer",
		Short: "Autonomous energy grid balancing agent",
		Long: `gridbalancer runs an agent that keeps a simulated city grid balanced.

The agent walks a fixed state machine (forecast demand, check capacity, plan
and execute a dispatch, verify stability) and asks a language model, or an
offline policy, what to do next at every step. Each run is traced to the
console and to a log file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	app.root.AddCommand(
		app.newVersionCmd(),
		app.newRunCmd(),
		app.newScenariosCmd(),
		app.newHistoryCmd(),
		app.newShowCmd(),
		app.newGraphCmd(),
		app.newValidateCmd(),
		app.newExportSchemaCmd(),
	)

	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// WithInput sets where the scenario picker reads from.
func (a *App) WithInput(stdin io.Reader) *App {
	a.stdin = stdin
	a.root.SetIn(stdin)
	return a
}

// Execute runs the CLI application.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments (useful for testing).
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "gridbalancer version %s\n", Version)
			fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
			fmt.Fprintf(a.stdout, "  Build date: %s\n", BuildDate)
		},
	}
}

// loadConfig reads .env, the config file (or defaults) and the flag
// overrides, validates the result and initializes logging from it.
func (a *App) loadConfig(path string, strict bool, overrides infraconfig.Overrides) (*config.AppConfig, error) {
	if err := infraconfig.LoadDotEnv(); err != nil {
		return nil, err
	}

	loader := infraconfig.NewLoaderWithOptions(infraconfig.WithStrictEnv(strict))
	cfg, err := loader.Resolve(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	overrides.Apply(cfg)
	if errs := config.NewValidator().Validate(cfg); errs.HasErrors() {
		return nil, fmt.Errorf("%w: %v", config.ErrValidationFailed, errs)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: a.stderr,
	})
	return cfg, nil
}
