package output

import (
	"fmt"
	"io"
	"strings"

	"invoice-advisor/core/model"
	"invoice-advisor/core/types"
)

// MarkdownFormatter writes GitHub-flavoured markdown, suitable for pasting
// into a proposal or ticket.
type MarkdownFormatter struct{}

// Format implements Formatter
func (f *MarkdownFormatter) Format() Format { return FormatMarkdown }

// Recommendation implements Formatter
func (f *MarkdownFormatter) Recommendation(w io.Writer, rec *types.Recommendation) error {
	var b strings.Builder

	fmt.Fprintf(&b, "## Invoice recommendation `%s`\n\n", rec.Fingerprint)
	b.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Service category | %s |\n", rec.ServiceCategory)
	fmt.Fprintf(&b, "| Client industry | %s |\n", rec.ClientIndustry)
	fmt.Fprintf(&b, "| Jurisdiction | %s |\n", rec.Jurisdiction)
	fmt.Fprintf(&b, "| Discount | %s%% |\n", rec.DiscountPct.StringFixed(2))
	fmt.Fprintf(&b, "| Tax rate | %s%% |\n", rec.TaxRate.StringFixed(2))
	fmt.Fprintf(&b, "| Documentation | %s |\n", rec.DocLevel)
	fmt.Fprintf(&b, "| Payment terms | %s |\n", rec.PaymentTerms)

	b.WriteString("\n### Suggested items\n\n")
	b.WriteString("| Description | Rate/h | Range |\n|---|---:|---:|\n")
	for _, item := range rec.SuggestedItems {
		fmt.Fprintf(&b, "| %s | %s | %s-%s |\n", escapeCell(item.Description),
			item.HourlyRate.StringFixed(2), item.MinRate.StringFixed(2), item.MaxRate.StringFixed(2))
	}

	if rec.Totals != nil {
		b.WriteString("\n### Totals preview\n\n")
		writeMarkdownTotals(&b, rec.Totals)
	}

	if len(rec.Adjustments) > 0 {
		b.WriteString("\n### Adjustments\n\n")
		b.WriteString("| Rule | Field | From | To | Reason |\n|---|---|---|---|---|\n")
		for _, adj := range rec.Adjustments {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				adj.Rule, adj.Field, adj.From, adj.To, escapeCell(adj.Reason))
		}
	}

	if rec.ServiceNotes != "" {
		fmt.Fprintf(&b, "\n> %s\n", rec.ServiceNotes)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Totals implements Formatter
func (f *MarkdownFormatter) Totals(w io.Writer, totals *types.Totals) error {
	var b strings.Builder
	writeMarkdownTotals(&b, totals)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeMarkdownTotals(b *strings.Builder, t *types.Totals) {
	b.WriteString("| | Amount |\n|---|---:|\n")
	fmt.Fprintf(b, "| Subtotal | %s |\n", t.Subtotal)
	fmt.Fprintf(b, "| Discount | -%s |\n", t.DiscountAmount)
	fmt.Fprintf(b, "| Taxable | %s |\n", t.TaxableAmount)
	fmt.Fprintf(b, "| Tax | %s |\n", t.TaxAmount)
	fmt.Fprintf(b, "| **Total** | **%s** |\n", t.Total)
}

// Models implements Formatter
func (f *MarkdownFormatter) Models(w io.Writer, models []model.Info) error {
	var b strings.Builder
	b.WriteString("| Model | Version | Kind | Features | Trees |\n|---|---|---|---:|---:|\n")
	for _, m := range models {
		fmt.Fprintf(&b, "| %s | %s | %s | %d | %d |\n", m.Name, m.Version, m.Kind, m.FeatureCount, m.Trees)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
