// Package types - Service context (the caller-supplied engagement description)
package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ServiceContext describes a billable engagement. It is constructed once
// per request and treated as immutable afterwards.
type ServiceContext struct {
	// ServiceCategory is the service line being billed
	ServiceCategory ServiceCategory `json:"service_category"`

	// ClientIndustry is the client's sector
	ClientIndustry ClientIndustry `json:"client_industry"`

	// TotalAmount is the pre-discount engagement value
	TotalAmount decimal.Decimal `json:"total_amount"`

	// ProjectDurationDays is the engagement length in calendar days
	ProjectDurationDays int `json:"project_duration_days"`

	// Jurisdiction is the ISO country code used for tax (empty = configured default)
	Jurisdiction string `json:"jurisdiction,omitempty"`

	// ProjectType is the commercial shape (optional)
	ProjectType ProjectType `json:"project_type,omitempty"`

	// TotalHours is the estimated billable hours (optional)
	TotalHours float64 `json:"total_hours,omitempty"`

	// NumServices is the number of distinct services on the invoice (optional)
	NumServices int `json:"num_services,omitempty"`
}

// ContextInput is the loosely-typed form of a ServiceContext as it arrives
// from a form, flag set or JSON body.
type ContextInput struct {
	ServiceCategory     string
	ClientIndustry      string
	TotalAmount         decimal.Decimal
	ProjectDurationDays int
	Jurisdiction        string
	ProjectType         string
	TotalHours          float64
	NumServices         int
}

// NewServiceContext parses the categorical fields of in. Numeric range
// checks are left to the feature encoder, which owns the model schema.
func NewServiceContext(in ContextInput) (*ServiceContext, error) {
	category, err := ParseServiceCategory(in.ServiceCategory)
	if err != nil {
		return nil, err
	}
	industry, err := ParseClientIndustry(in.ClientIndustry)
	if err != nil {
		return nil, err
	}
	projectType, err := ParseProjectType(in.ProjectType)
	if err != nil {
		return nil, err
	}

	return &ServiceContext{
		ServiceCategory:     category,
		ClientIndustry:      industry,
		TotalAmount:         in.TotalAmount,
		ProjectDurationDays: in.ProjectDurationDays,
		Jurisdiction:        NormalizeJurisdiction(in.Jurisdiction),
		ProjectType:         projectType,
		TotalHours:          in.TotalHours,
		NumServices:         in.NumServices,
	}, nil
}

// NormalizeJurisdiction upper-cases and trims a jurisdiction code
func NormalizeJurisdiction(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
