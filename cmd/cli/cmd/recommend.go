// Package cmd - recommend command
package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"invoice-advisor/core/types"
	"invoice-advisor/internal/app"
	apperrors "invoice-advisor/internal/errors"
	"invoice-advisor/internal/logging"
)

func newRecommendCmd(opts *options) *cobra.Command {
	var (
		in     types.ContextInput
		amount string
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend discount, tax, documentation and line items for an engagement",
		Long: `Run the recommendation pipeline for one engagement.

Examples:
  advisor recommend --category "Software Development" --industry finance --amount 15000 --days 90
  advisor recommend --category cybersecurity --industry government --amount 8000 --days 30 --jurisdiction UK
  advisor recommend -f json --category web_development --industry ecommerce --amount 4000 --days 20 --project-type fixed_price`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := decimal.NewFromString(amount)
			if err != nil {
				return apperrors.Validationf("invalid --amount %q", amount).WithContext("field", "total_amount")
			}
			in.TotalAmount = total

			sc, err := types.NewServiceContext(in)
			if err != nil {
				return err
			}
			formatter, err := opts.formatter()
			if err != nil {
				return err
			}

			a, err := app.New(cmd.Context(), opts.cfg, logging.Named("advisor"))
			if err != nil {
				return err
			}
			if err := a.Ready(); err != nil {
				return err
			}

			rec, err := a.Engine.Recommend(cmd.Context(), sc)
			if apperrors.IsType(err, apperrors.TypeInference) {
				fmt.Fprintf(cmd.OutOrStdout(), "No recommendation: %v\n", err)
				return nil
			}
			if err != nil {
				return err
			}
			return formatter.Recommendation(cmd.OutOrStdout(), rec)
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.ServiceCategory, "category", "", "service category (e.g. software_development)")
	f.StringVar(&in.ClientIndustry, "industry", "", "client industry (e.g. finance)")
	f.StringVar(&amount, "amount", "", "total engagement amount before discount")
	f.IntVar(&in.ProjectDurationDays, "days", 0, "project duration in days")
	f.StringVar(&in.Jurisdiction, "jurisdiction", "", "tax jurisdiction code (default from rules)")
	f.StringVar(&in.ProjectType, "project-type", "", "project type (fixed_price, retainer, support_contract, time_and_materials)")
	f.Float64Var(&in.TotalHours, "hours", 0, "estimated billable hours")
	f.IntVar(&in.NumServices, "services", 0, "number of distinct services")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("industry")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("days")

	return cmd
}
