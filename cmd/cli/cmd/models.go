// Package cmd - models command
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"invoice-advisor/internal/app"
	"invoice-advisor/internal/logging"
)

func newModelsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "Load the configured model artifacts and list them",
		Long: `Fetch, verify and decode the three model artifacts and print their
versions. Exits non-zero when any artifact fails to load.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := opts.formatter()
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), opts.cfg, logging.Named("advisor"))
			if err != nil {
				return err
			}
			if err := formatter.Models(cmd.OutOrStdout(), a.Ensemble.Info()); err != nil {
				return err
			}
			if err := a.Ready(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "models unavailable: %v\n", err)
				return err
			}
			return nil
		},
	}
}
