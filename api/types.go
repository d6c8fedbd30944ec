// Package api - Request and response types for the HTTP API.
// The API is stateless; every response is a function of the request and
// the models and rules loaded at startup.
package api

import (
	"github.com/shopspring/decimal"

	"invoice-advisor/core/billing"
	"invoice-advisor/core/model"
	"invoice-advisor/core/types"
)

// Response status values
const (
	StatusOK               = "ok"
	StatusNoRecommendation = "no_recommendation"
)

// RecommendRequest is the input to POST /v1/recommendations
type RecommendRequest struct {
	ServiceCategory     string          `json:"service_category" validate:"required"`
	ClientIndustry      string          `json:"client_industry" validate:"required"`
	TotalAmount         decimal.Decimal `json:"total_amount" validate:"gte=0"`
	ProjectDurationDays int             `json:"project_duration_days" validate:"gte=0"`

	// Optional
	Jurisdiction string  `json:"jurisdiction,omitempty" validate:"omitempty,alpha,min=2,max=3"`
	ProjectType  string  `json:"project_type,omitempty"`
	TotalHours   float64 `json:"total_hours,omitempty" validate:"gte=0"`
	NumServices  int     `json:"num_services,omitempty" validate:"gte=0"`
}

// ContextInput converts the request for types.NewServiceContext
func (r *RecommendRequest) ContextInput() types.ContextInput {
	return types.ContextInput{
		ServiceCategory:     r.ServiceCategory,
		ClientIndustry:      r.ClientIndustry,
		TotalAmount:         r.TotalAmount,
		ProjectDurationDays: r.ProjectDurationDays,
		Jurisdiction:        r.Jurisdiction,
		ProjectType:         r.ProjectType,
		TotalHours:          r.TotalHours,
		NumServices:         r.NumServices,
	}
}

// RecommendResponse is returned by POST /v1/recommendations. Recommendation
// is nil when Status is "no_recommendation".
type RecommendResponse struct {
	Status         string                `json:"status"`
	RequestID      string                `json:"request_id"`
	Recommendation *types.Recommendation `json:"recommendation,omitempty"`
	Reason         string                `json:"reason,omitempty"`
}

// LineRequest is one invoice line in a totals request
type LineRequest struct {
	Description string          `json:"description" validate:"required"`
	Hours       decimal.Decimal `json:"hours" validate:"gte=0"`
	HourlyRate  decimal.Decimal `json:"hourly_rate" validate:"gte=0"`
}

// TotalsRequest is the input to POST /v1/totals
type TotalsRequest struct {
	Lines       []LineRequest   `json:"lines" validate:"required,min=1,dive"`
	DiscountPct decimal.Decimal `json:"discount_pct" validate:"gte=0,lte=100"`
	TaxRate     decimal.Decimal `json:"tax_rate" validate:"gte=0,lte=100"`
	Currency    string          `json:"currency,omitempty" validate:"omitempty,iso4217"`
}

// BillingLines converts the request lines
func (r *TotalsRequest) BillingLines() []billing.Line {
	lines := make([]billing.Line, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = billing.Line{
			Description: l.Description,
			Hours:       l.Hours,
			HourlyRate:  l.HourlyRate,
		}
	}
	return lines
}

// TotalsResponse is returned by POST /v1/totals
type TotalsResponse struct {
	RequestID string        `json:"request_id"`
	Currency  string        `json:"currency"`
	Totals    *types.Totals `json:"totals"`
}

// ModelsResponse is returned by GET /v1/models
type ModelsResponse struct {
	Ready  bool         `json:"ready"`
	Reason string       `json:"reason,omitempty"`
	Models []model.Info `json:"models"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error     ErrorBody `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
}

// ErrorBody describes a failed request
type ErrorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}
