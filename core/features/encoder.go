// Package features turns a ServiceContext into the fixed-shape numeric
// vector the pricing models were trained on.
//
// Encoding is pure: the encoder holds no state and the same context always
// yields a bit-identical vector.
package features

import (
	"math"
	"slices"

	"invoice-advisor/core/types"
	apperrors "invoice-advisor/internal/errors"
)

// Column indices of the feature schema. The order is the training order.
const (
	ColServiceCategory = iota
	ColClientIndustry
	ColProjectType
	ColTotalAmount
	ColDurationDays
	ColTotalHours
	ColNumServices
	ColAmountPerHour
	ColAmountPerDay
	ColIsLargeProject
	ColIsEnterpriseClient

	// Dimension is the fixed length of every FeatureVector
	Dimension
)

// LargeProjectThreshold is the amount above which a project counts as large
const LargeProjectThreshold = 20000.0

// MissingCategorical is the value written for an optional categorical
// field the caller left empty.
const MissingCategorical = -1.0

var schema = [Dimension]string{
	ColServiceCategory:    "service_category",
	ColClientIndustry:     "client_industry",
	ColProjectType:        "project_type",
	ColTotalAmount:        "total_amount",
	ColDurationDays:       "project_duration_days",
	ColTotalHours:         "total_hours",
	ColNumServices:        "num_services",
	ColAmountPerHour:      "amount_per_hour",
	ColAmountPerDay:       "amount_per_day",
	ColIsLargeProject:     "is_large_project",
	ColIsEnterpriseClient: "is_enterprise_client",
}

// Schema returns the ordered column names
func Schema() []string {
	out := make([]string, Dimension)
	copy(out, schema[:])
	return out
}

// CheckSchema verifies that names (as recorded in a model artifact) match
// the encoder's schema exactly.
func CheckSchema(names []string) error {
	if len(names) != Dimension {
		return apperrors.Newf(apperrors.TypeInference, "artifact declares %d features, encoder produces %d", len(names), Dimension)
	}
	for i, name := range names {
		if name != schema[i] {
			return apperrors.Newf(apperrors.TypeInference, "feature %d is %q in artifact, %q in encoder", i, name, schema[i])
		}
	}
	return nil
}

// Encoder maps service contexts to feature vectors
type Encoder struct{}

// NewEncoder creates an encoder
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Dimension returns the vector length
func (e *Encoder) Dimension() int {
	return Dimension
}

// Encode builds the feature vector for sc. Unknown categorical values and
// negative or non-finite numbers fail with a validation error.
func (e *Encoder) Encode(sc *types.ServiceContext) (types.FeatureVector, error) {
	if sc == nil {
		return nil, apperrors.Validation("service context is required")
	}

	category := slices.Index(types.ServiceCategories, sc.ServiceCategory)
	if category < 0 {
		return nil, unknownValue("service_category", string(sc.ServiceCategory))
	}
	industry := slices.Index(types.ClientIndustries, sc.ClientIndustry)
	if industry < 0 {
		return nil, unknownValue("client_industry", string(sc.ClientIndustry))
	}
	projectType := MissingCategorical
	if sc.ProjectType != types.ProjectTypeUnspecified {
		idx := slices.Index(types.ProjectTypes, sc.ProjectType)
		if idx < 0 {
			return nil, unknownValue("project_type", string(sc.ProjectType))
		}
		projectType = float64(idx)
	}

	amount, _ := sc.TotalAmount.Float64()
	if err := checkNumber("total_amount", amount); err != nil {
		return nil, err
	}
	days := float64(sc.ProjectDurationDays)
	if err := checkNumber("project_duration_days", days); err != nil {
		return nil, err
	}
	if err := checkNumber("total_hours", sc.TotalHours); err != nil {
		return nil, err
	}
	services := float64(sc.NumServices)
	if err := checkNumber("num_services", services); err != nil {
		return nil, err
	}

	v := make(types.FeatureVector, Dimension)
	v[ColServiceCategory] = float64(category)
	v[ColClientIndustry] = float64(industry)
	v[ColProjectType] = projectType
	v[ColTotalAmount] = amount
	v[ColDurationDays] = days
	v[ColTotalHours] = sc.TotalHours
	v[ColNumServices] = services
	v[ColAmountPerHour] = amount / math.Max(sc.TotalHours, 1)
	v[ColAmountPerDay] = amount / math.Max(days, 1)
	v[ColIsLargeProject] = boolFeature(amount > LargeProjectThreshold)
	v[ColIsEnterpriseClient] = boolFeature(sc.ClientIndustry.IsEnterprise())
	return v, nil
}

func unknownValue(field, value string) error {
	return apperrors.Validationf("unknown %s %q", field, value).WithContext("field", field)
}

func checkNumber(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return apperrors.Validationf("%s must be a finite number", field).WithContext("field", field)
	}
	if v < 0 {
		return apperrors.Validationf("%s must not be negative, got %g", field, v).WithContext("field", field)
	}
	return nil
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
