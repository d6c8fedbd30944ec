// Package cmd provides the CLI commands for the invoice advisor.
package cmd

import (
	"github.com/spf13/cobra"

	"invoice-advisor/core/output"
	"invoice-advisor/internal/config"
	"invoice-advisor/internal/logging"
)

// options is the state shared by every command of one invocation
type options struct {
	configPath string
	verbose    bool
	format     string

	cfg *config.Config
}

// formatter resolves the --format flag
func (o *options) formatter() (output.Formatter, error) {
	return output.Default().Get(o.format)
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "advisor",
		Short: "Recommend invoice discounts, tax rates and line items",
		Long: `advisor turns a description of a services engagement into an invoice
recommendation: a discount, a tax rate, a documentation level and suggested
line items, bounded by business rules.

Examples:
  advisor recommend --category software_development --industry finance --amount 15000 --days 90
  advisor totals --line "Backend Development:40:125" --discount 5 --tax 8.5
  advisor serve --config advisor.json`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.verbose {
				cfg.Logging.Level = "debug"
			}
			if err := logging.Initialize(cfg.Logging); err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Sync()
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (JSON); ADVISOR_* environment variables override it")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&opts.format, "format", "f", string(output.FormatCLI), "output format (cli, json, markdown)")

	root.AddCommand(
		newRecommendCmd(opts),
		newTotalsCmd(opts),
		newModelsCmd(opts),
		newRulesCmd(opts),
		newServeCmd(opts),
		newVersionCmd(),
		newConfigCmd(opts),
	)
	return root
}

// Execute runs the CLI
func Execute() error {
	return NewRootCommand().Execute()
}
