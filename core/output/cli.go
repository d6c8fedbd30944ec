package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"invoice-advisor/core/determinism"
	"invoice-advisor/core/model"
	"invoice-advisor/core/types"
)

// CLIFormatter writes aligned plain-text tables
type CLIFormatter struct{}

// Format implements Formatter
func (f *CLIFormatter) Format() Format { return FormatCLI }

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// Recommendation implements Formatter
func (f *CLIFormatter) Recommendation(w io.Writer, rec *types.Recommendation) error {
	tw := newTable(w)

	fmt.Fprintf(tw, "Recommendation\t%s\n", rec.Fingerprint)
	fmt.Fprintf(tw, "  Service category\t%s\n", rec.ServiceCategory)
	fmt.Fprintf(tw, "  Client industry\t%s\n", rec.ClientIndustry)
	fmt.Fprintf(tw, "  Jurisdiction\t%s\n", rec.Jurisdiction)
	fmt.Fprintf(tw, "  Discount\t%s%%\n", rec.DiscountPct.StringFixed(2))
	fmt.Fprintf(tw, "  Tax rate\t%s%%\n", rec.TaxRate.StringFixed(2))
	fmt.Fprintf(tw, "  Documentation\t%s\n", rec.DocLevel)
	fmt.Fprintf(tw, "  Payment terms\t%s\n", rec.PaymentTerms)

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "Suggested items")
	fmt.Fprintln(tw, "  DESCRIPTION\tRATE/H\tRANGE")
	for _, item := range rec.SuggestedItems {
		fmt.Fprintf(tw, "  %s\t%s\t%s-%s\n", item.Description,
			item.HourlyRate.StringFixed(2), item.MinRate.StringFixed(2), item.MaxRate.StringFixed(2))
	}

	if rec.Totals != nil {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "Totals preview")
		writeTotals(tw, rec.Totals)
	}

	if len(rec.Adjustments) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "Adjustments")
		fmt.Fprintln(tw, "  RULE\tFIELD\tFROM\tTO\tREASON")
		for _, adj := range rec.Adjustments {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", adj.Rule, adj.Field, adj.From, adj.To, adj.Reason)
		}
	}

	if len(rec.ModelVersions) > 0 {
		fmt.Fprintln(tw)
		versions := make([]string, 0, len(rec.ModelVersions))
		for _, name := range determinism.SortedKeys(rec.ModelVersions) {
			versions = append(versions, name+"@"+rec.ModelVersions[name])
		}
		fmt.Fprintf(tw, "Models\t%s\n", strings.Join(versions, ", "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if rec.ServiceNotes != "" {
		_, err := fmt.Fprintf(w, "\nNotes: %s\n", rec.ServiceNotes)
		return err
	}
	return nil
}

// Totals implements Formatter
func (f *CLIFormatter) Totals(w io.Writer, totals *types.Totals) error {
	tw := newTable(w)
	writeTotals(tw, totals)
	return tw.Flush()
}

func writeTotals(tw *tabwriter.Writer, t *types.Totals) {
	fmt.Fprintf(tw, "  Subtotal\t%s\n", t.Subtotal)
	fmt.Fprintf(tw, "  Discount\t-%s\n", t.DiscountAmount)
	fmt.Fprintf(tw, "  Taxable\t%s\n", t.TaxableAmount)
	fmt.Fprintf(tw, "  Tax\t%s\n", t.TaxAmount)
	fmt.Fprintf(tw, "  Total\t%s\n", t.Total)
	if t.TotalHours != "" && t.TotalHours != "0" {
		fmt.Fprintf(tw, "  Hours\t%s\n", t.TotalHours)
	}
}

// Models implements Formatter
func (f *CLIFormatter) Models(w io.Writer, models []model.Info) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "MODEL\tVERSION\tKIND\tFEATURES\tTREES\tCHECKSUM")
	for _, m := range models {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n", m.Name, m.Version, m.Kind, m.FeatureCount, m.Trees, shortHash(m.Checksum))
	}
	return tw.Flush()
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
