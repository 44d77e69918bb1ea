package crossqueryctl

import (
	"github.com/spf13/cobra"

	"github.com/crossquery/crossquery/internal/querydef"
)

func newValidateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a query definition without touching any source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			def, err := opts.loadDefinition()
			if err != nil {
				return err
			}
			if err := querydef.Validate(def); err != nil {
				printError(cmd.ErrOrStderr(), "definition is invalid: %v", err)
				return err
			}
			printSuccess(cmd.OutOrStdout(), "definition is valid (%d tables, %d criteria)",
				len(def.Tables()), len(def.Criteria))
			return nil
		},
	}
}
