package crossqueryctl

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/crossquery/crossquery/internal/engine"
	"github.com/crossquery/crossquery/internal/observability"
)

func newRunCommand(opts *rootOptions) *cobra.Command {
	var (
		rowLimit   int
		timeout    time.Duration
		showReport bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a query definition and print the joined result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			def, err := opts.loadDefinition()
			if err != nil {
				return err
			}
			file, err := loadConnectionsFile(opts.connectionsPath)
			if err != nil {
				return err
			}

			manager, closeAll, err := openManager(cmd.Context(), file, cfg)
			if err != nil {
				printError(cmd.ErrOrStderr(), "open connections: %v", err)
				return err
			}
			defer closeAll()

			svc := &engine.Service{
				Connections: manager,
				Config: engine.Config{
					MaxConcurrency: cfg.Engine.MaxConcurrency,
					DefaultTimeout: cfg.Engine.DefaultTimeout,
					SoftRowCap:     cfg.Engine.SoftRowCap,
				},
				Logger: observability.NewLogger(cfg, cmd.ErrOrStderr()),
			}

			result, err := svc.Execute(cmd.Context(), def, engine.Options{
				RowLimit: rowLimit,
				Timeout:  timeout,
			})
			if err != nil {
				printError(cmd.ErrOrStderr(), "query failed: %v", err)
				return err
			}

			out := cmd.OutOrStdout()
			printTable(out, result.Table)
			if result.Report.Truncated {
				printWarning(out, "result truncated to %d of %d rows",
					result.Table.RowCount(), result.Report.TotalRows)
			}
			if showReport {
				printReport(out, result.Report)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.connectionsPath, "connections", "c", "connections.json", "Path to the connections file")
	cmd.Flags().IntVarP(&rowLimit, "limit", "n", 0, "Maximum rows to return (0 = unlimited)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-source timeout (0 = configured default)")
	cmd.Flags().BoolVar(&showReport, "report", false, "Print the execution report after the result")
	return cmd
}
