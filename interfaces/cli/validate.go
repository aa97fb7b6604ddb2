package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	infraconfig "github.com/felixgeelhaar/gridbalancer/infrastructure/config"
)

// validateOptions holds options for the validate command.
type validateOptions struct {
	configPath string
	strict     bool
	showSchema bool
}

// newValidateCmd creates the validate command.
func (a *App) newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Validate a gridbalancer configuration file.

This command checks:
  - File format (YAML or JSON)
  - Agent limits (steps, memory, delay)
  - Provider, storage backend and span exporter names
  - Environment variable references (in strict mode)

Examples:
  # Validate a configuration file
  gridbalancer validate -c gridbalancer.yaml

  # Strict validation (fail on missing env vars)
  gridbalancer validate -c gridbalancer.yaml --strict

  # Show the JSON schema for configuration
  gridbalancer validate --schema`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showSchema {
				return a.showConfigSchema()
			}
			return a.validateConfig(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Enable strict validation (fail on missing env vars)")
	cmd.Flags().BoolVar(&opts.showSchema, "schema", false, "Show JSON schema for configuration")

	return cmd
}

// validateConfig validates the configuration file.
func (a *App) validateConfig(opts *validateOptions) error {
	if opts.configPath == "" {
		return fmt.Errorf("configuration file path is required (-c flag)")
	}

	config, err := a.loadConfig(opts.configPath, opts.strict, infraconfig.Overrides{})
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(a.stdout, "✓ Configuration is valid\n")
	fmt.Fprintf(a.stdout, "  Name: %s\n", config.Name)

	fmt.Fprintf(a.stdout, "\nConfiguration summary:\n")
	fmt.Fprintf(a.stdout, "  Max steps: %d\n", config.Agent.MaxSteps)
	fmt.Fprintf(a.stdout, "  Memory window: %d messages", config.Agent.HistorySize)
	if config.Agent.HistoryTokens > 0 {
		fmt.Fprintf(a.stdout, ", %d tokens", config.Agent.HistoryTokens)
	}
	fmt.Fprintln(a.stdout)
	fmt.Fprintf(a.stdout, "  Step delay: %s\n", config.Agent.Delay())
	fmt.Fprintf(a.stdout, "  Stability gate: %t\n", config.Agent.StabilityEnforced())
	fmt.Fprintf(a.stdout, "  Provider: %s (%s)\n", config.LLM.Provider, config.LLM.Model)
	fmt.Fprintf(a.stdout, "  Storage: %s\n", config.Storage.Backend)
	if config.Logging.Dir != "" {
		fmt.Fprintf(a.stdout, "  Trace files: %s\n", config.Logging.Dir)
	}
	if config.Telemetry.Tracing {
		fmt.Fprintf(a.stdout, "  Tracing: enabled (%s)\n", config.Telemetry.Exporter)
	}

	return nil
}

// showConfigSchema displays the JSON schema for configuration.
func (a *App) showConfigSchema() error {
	schemaJSON, err := infraconfig.GenerateSchema().JSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	fmt.Fprintln(a.stdout, string(schemaJSON))
	return nil
}
