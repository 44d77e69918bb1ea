package crossqueryctl

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/crossquery/crossquery/internal/engine"
)

func newPreviewCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the statement each connection would receive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			def, err := opts.loadDefinition()
			if err != nil {
				return err
			}
			file, err := loadConnectionsFile(opts.connectionsPath)
			if err != nil {
				return err
			}

			svc := &engine.Service{Connections: newDialectManager(file)}
			preview, err := svc.BuildSQLPreview(cmd.Context(), def)
			if err != nil {
				printError(cmd.ErrOrStderr(), "preview failed: %v", err)
				return err
			}

			out := cmd.OutOrStdout()
			ids := make([]string, 0, len(preview))
			for id := range preview {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				printHeading(out, "-- connection: %s", id)
				fmt.Fprintln(out, preview[id])
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.connectionsPath, "connections", "c", "connections.json", "Path to the connections file")
	return cmd
}
