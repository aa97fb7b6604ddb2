package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	infraconfig "github.com/felixgeelhaar/gridbalancer/infrastructure/config"
)

// newExportSchemaCmd creates the export-schema command.
func (a *App) newExportSchemaCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export-schema",
		Short: "Export the configuration JSON schema",
		Long: `Export the JSON Schema for gridbalancer configuration files, for editor
validation and completion.

Examples:
  gridbalancer export-schema -o gridbalancer.schema.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := infraconfig.GenerateSchema().JSON()
			if err != nil {
				return fmt.Errorf("failed to generate schema: %w", err)
			}

			if outputPath == "" {
				fmt.Fprintln(a.stdout, string(data))
				return nil
			}

			if err := os.WriteFile(outputPath, data, 0o600); err != nil {
				return fmt.Errorf("failed to write schema file: %w", err)
			}
			fmt.Fprintf(a.stdout, "Schema exported to %s\n", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	return cmd
}
