// Package assembler composes the final Recommendation from a bounded
// prediction and the service context.
package assembler

import (
	"strconv"

	"invoice-advisor/core/billing"
	"invoice-advisor/core/catalog"
	"invoice-advisor/core/determinism"
	"invoice-advisor/core/types"
	apperrors "invoice-advisor/internal/errors"
)

// DefaultPaymentTerms applies when the project type has no specific terms
const DefaultPaymentTerms = "Net 30"

var paymentTerms = map[types.ProjectType]string{
	types.ProjectTypeFixedPrice:       "50% Advance, 50% on Completion",
	types.ProjectTypeTimeAndMaterials: "Net 30",
	types.ProjectTypeRetainer:         "Monthly in Advance",
	types.ProjectTypeSupportContract:  "Quarterly in Advance",
}

// PaymentTerms returns the payment terms for a project type
func PaymentTerms(pt types.ProjectType) string {
	if terms, ok := paymentTerms[pt]; ok {
		return terms
	}
	return DefaultPaymentTerms
}

// Assembler builds recommendations
type Assembler struct {
	catalog  *catalog.Catalog
	currency types.Currency
	ids      *determinism.Fingerprinter
}

// New creates an assembler. A nil catalog selects the built-in one.
func New(cat *catalog.Catalog, currency types.Currency) *Assembler {
	if cat == nil {
		cat = catalog.Default()
	}
	if currency == "" {
		currency = types.CurrencyUSD
	}
	return &Assembler{
		catalog:  cat,
		currency: currency,
		ids:      determinism.NewFingerprinter("recommendation"),
	}
}

// Assemble composes the recommendation
func (a *Assembler) Assemble(bp *types.BoundedPrediction, sc *types.ServiceContext) (*types.Recommendation, error) {
	if bp == nil || sc == nil {
		return nil, apperrors.Validation("bounded prediction and service context are required")
	}

	items := a.catalog.Items(sc.ServiceCategory)
	if len(items) == 0 {
		return nil, apperrors.Internal("no service templates for category", nil).
			WithContext("service_category", string(sc.ServiceCategory))
	}

	totals, err := billing.Preview(sc.TotalAmount, bp.DiscountPct, bp.TaxRate, a.currency)
	if err != nil {
		return nil, err
	}

	return &types.Recommendation{
		Fingerprint:     string(a.Fingerprint(bp, sc)),
		ServiceCategory: sc.ServiceCategory,
		ClientIndustry:  sc.ClientIndustry,
		Jurisdiction:    bp.Jurisdiction,
		DiscountPct:     bp.DiscountPct,
		TaxRate:         bp.TaxRate,
		DocLevel:        bp.DocLevel,
		SuggestedItems:  items,
		PaymentTerms:    PaymentTerms(sc.ProjectType),
		ServiceNotes:    a.catalog.Notes(sc.ServiceCategory),
		Totals:          totals,
		Adjustments:     bp.Adjustments,
		ModelVersions:   bp.ModelVersions,
	}, nil
}

// Fingerprint identifies the inputs and the model versions that produced a
// recommendation.
func (a *Assembler) Fingerprint(bp *types.BoundedPrediction, sc *types.ServiceContext) determinism.Fingerprint {
	parts := []string{
		string(sc.ServiceCategory),
		string(sc.ClientIndustry),
		sc.TotalAmount.String(),
		strconv.Itoa(sc.ProjectDurationDays),
		bp.Jurisdiction,
		string(sc.ProjectType),
		strconv.FormatFloat(sc.TotalHours, 'g', -1, 64),
		strconv.Itoa(sc.NumServices),
		string(a.currency),
	}
	for _, name := range determinism.SortedKeys(bp.ModelVersions) {
		parts = append(parts, name+"="+bp.ModelVersions[name])
	}
	return a.ids.Of(parts...)
}
