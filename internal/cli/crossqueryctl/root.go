// Package crossqueryctl implements the crossquery command line tool:
// validate a query definition, preview the SQL each source would
// receive, or run the query end to end and print the joined result.
package crossqueryctl

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crossquery/crossquery/internal/config"
	"github.com/crossquery/crossquery/internal/querydef"
)

type rootOptions struct {
	queryPath       string
	connectionsPath string
}

func NewRootCommand(version string) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "crossquery",
		Short:         "Run declarative cross-source queries",
		Long:          "crossquery plans a declarative query definition into per-source SQL, fans the sub-queries out and joins the results in memory. No SQL is ever written by hand.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.queryPath, "query", "q", "query.json", "Path to the query definition file")

	root.AddCommand(newValidateCommand(opts))
	root.AddCommand(newPreviewCommand(opts))
	root.AddCommand(newRunCommand(opts))
	return root
}

func (o *rootOptions) loadDefinition() (querydef.QueryDefinition, error) {
	data, err := os.ReadFile(o.queryPath)
	if err != nil {
		return querydef.QueryDefinition{}, fmt.Errorf("read query definition: %w", err)
	}
	var def querydef.QueryDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return querydef.QueryDefinition{}, fmt.Errorf("parse query definition %q: %w", o.queryPath, err)
	}
	return def, nil
}

func loadConfig() (config.Config, error) {
	return config.LoadFromEnv("crossquery")
}
