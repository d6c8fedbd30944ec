// Package cmd - totals command
package cmd

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"invoice-advisor/core/billing"
	"invoice-advisor/core/types"
	apperrors "invoice-advisor/internal/errors"
)

func newTotalsCmd(opts *options) *cobra.Command {
	var (
		lines    []string
		discount string
		tax      string
		currency string
	)

	cmd := &cobra.Command{
		Use:   "totals",
		Short: "Compute invoice totals for a set of lines",
		Long: `Compute subtotal, discount, taxable amount, tax and total.

Each --line is "description:hours:rate".

Examples:
  advisor totals --line "Backend Development:40:125" --line "Code Review:32.5:119" --discount 5 --tax 8.5
  advisor totals -f json --line "Security Audit:10:180" --currency EUR --tax 19`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed := make([]billing.Line, 0, len(lines))
			for _, raw := range lines {
				line, err := parseLine(raw)
				if err != nil {
					return err
				}
				parsed = append(parsed, line)
			}
			if len(parsed) == 0 {
				return apperrors.Validation("at least one --line is required").WithContext("field", "lines")
			}

			discountPct, err := parsePercent("discount", discount)
			if err != nil {
				return err
			}
			taxRate, err := parsePercent("tax", tax)
			if err != nil {
				return err
			}
			if currency == "" {
				currency = string(opts.cfg.Currency)
			}
			cur, err := types.ParseCurrency(currency)
			if err != nil {
				return err
			}

			totals, err := billing.Compute(parsed, discountPct, taxRate, cur)
			if err != nil {
				return err
			}
			formatter, err := opts.formatter()
			if err != nil {
				return err
			}
			return formatter.Totals(cmd.OutOrStdout(), totals)
		},
	}

	cmd.Flags().StringArrayVar(&lines, "line", nil, `invoice line as "description:hours:rate" (repeatable)`)
	cmd.Flags().StringVar(&discount, "discount", "0", "discount percentage")
	cmd.Flags().StringVar(&tax, "tax", "0", "tax rate percentage")
	cmd.Flags().StringVar(&currency, "currency", "", "currency code (default from config)")
	return cmd
}

// parseLine splits "description:hours:rate"; the description may itself
// contain colons.
func parseLine(raw string) (billing.Line, error) {
	invalid := func() error {
		return apperrors.Validationf("invalid --line %q, want description:hours:rate", raw).WithContext("field", "lines")
	}

	rest, rateText, ok := cutLast(raw, ":")
	if !ok {
		return billing.Line{}, invalid()
	}
	description, hoursText, ok := cutLast(rest, ":")
	if !ok || strings.TrimSpace(description) == "" {
		return billing.Line{}, invalid()
	}
	hours, err := decimal.NewFromString(strings.TrimSpace(hoursText))
	if err != nil {
		return billing.Line{}, invalid()
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(rateText))
	if err != nil {
		return billing.Line{}, invalid()
	}
	return billing.Line{
		Description: strings.TrimSpace(description),
		Hours:       hours,
		HourlyRate:  rate,
	}, nil
}

func cutLast(s, sep string) (before, after string, ok bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}

func parsePercent(flag, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSuffix(strings.TrimSpace(value), "%"))
	if err != nil {
		return decimal.Zero, apperrors.Validationf("invalid --%s %q", flag, value).WithContext("field", flag)
	}
	return d, nil
}
