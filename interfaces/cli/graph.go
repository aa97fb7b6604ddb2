package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/gridbalancer/application"
)

func (a *App) newGraphCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the agent state machine",
		Long: `Print the state machine as a Graphviz DOT or Mermaid diagram. Nodes list
the tools allowed in each state; fallback edges are dashed.

Examples:
  gridbalancer graph | dot -Tsvg > states.svg
  gridbalancer graph --format mermaid`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := application.NewInspectionService(nil).ExportStateMachine(application.ExportFormat(format))
			if err != nil {
				return err
			}
			fmt.Fprint(a.stdout, string(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(application.FormatDOT), "Output format (dot, mermaid)")
	return cmd
}
