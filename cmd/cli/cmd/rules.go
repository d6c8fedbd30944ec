// Package cmd - rules command
package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"invoice-advisor/core/catalog"
	"invoice-advisor/core/policy"
	"invoice-advisor/internal/app"
)

func newRulesCmd(opts *options) *cobra.Command {
	rules := &cobra.Command{
		Use:   "rules",
		Short: "Inspect business rules",
	}

	rules.AddCommand(&cobra.Command{
		Use:   "check [path]",
		Short: "Validate a rules file (default: the configured one, or the built-in rules)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				table  *policy.Table
				source = "built-in rules"
				err    error
			)
			switch {
			case len(args) == 1:
				source = args[0]
				table, err = policy.LoadTable(args[0])
			default:
				if opts.cfg.RulesPath != "" {
					source = opts.cfg.RulesPath
				}
				table, err = app.LoadRules(opts.cfg)
			}
			if err != nil {
				return err
			}
			processor, err := policy.NewProcessor(table)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: OK (%d industries, %d jurisdictions, %d categories, default jurisdiction %q)\n\n",
				source, len(table.Industries), len(table.Jurisdictions), len(table.Categories), table.DefaultJurisdiction)

			stats := catalog.Default().Stats()
			fmt.Fprintf(out, "catalog: %d categories, %d templates, rates %s-%s per hour\n\n",
				stats.Categories, stats.Templates, stats.MinRate.StringFixed(2), stats.MaxRate.StringFixed(2))

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RULE\tDESCRIPTION")
			for _, r := range processor.Rules() {
				fmt.Fprintf(tw, "%s\t%s\n", r.Name(), r.Description())
			}
			return tw.Flush()
		},
	})
	return rules
}
