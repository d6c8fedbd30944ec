// Package types - Core domain types for pricing recommendations
package types

import (
	"strings"

	apperrors "invoice-advisor/internal/errors"
)

// ServiceCategory is the closed set of billable service lines
type ServiceCategory string

const (
	CategoryAIMLSolutions         ServiceCategory = "ai_ml_solutions"
	CategoryCloudServices         ServiceCategory = "cloud_services"
	CategoryCybersecurity         ServiceCategory = "cybersecurity"
	CategoryDataAnalytics         ServiceCategory = "data_analytics"
	CategoryDatabaseManagement    ServiceCategory = "database_management"
	CategoryDevOpsServices        ServiceCategory = "devops_services"
	CategoryITConsulting          ServiceCategory = "it_consulting"
	CategoryMobileDevelopment     ServiceCategory = "mobile_development"
	CategoryNetworkInfrastructure ServiceCategory = "network_infrastructure"
	CategorySoftwareDevelopment   ServiceCategory = "software_development"
	CategorySystemIntegration     ServiceCategory = "system_integration"
	CategoryWebDevelopment        ServiceCategory = "web_development"
)

// ServiceCategories lists every category in label-encoding order (sorted).
// The position of a category is its feature value; do not reorder.
var ServiceCategories = []ServiceCategory{
	CategoryAIMLSolutions,
	CategoryCloudServices,
	CategoryCybersecurity,
	CategoryDataAnalytics,
	CategoryDatabaseManagement,
	CategoryDevOpsServices,
	CategoryITConsulting,
	CategoryMobileDevelopment,
	CategoryNetworkInfrastructure,
	CategorySoftwareDevelopment,
	CategorySystemIntegration,
	CategoryWebDevelopment,
}

// String returns the string representation
func (c ServiceCategory) String() string {
	return string(c)
}

// IsValid reports whether c belongs to the closed vocabulary
func (c ServiceCategory) IsValid() bool {
	return indexOf(ServiceCategories, c) >= 0
}

// ParseServiceCategory accepts canonical values and form labels
// ("Software Development", "AI/ML Solutions").
func ParseServiceCategory(s string) (ServiceCategory, error) {
	return parseEnum("service_category", s, ServiceCategories)
}

// ClientIndustry is the closed set of client sectors
type ClientIndustry string

const (
	IndustryEcommerce     ClientIndustry = "ecommerce"
	IndustryEducation     ClientIndustry = "education"
	IndustryFinance       ClientIndustry = "finance"
	IndustryGovernment    ClientIndustry = "government"
	IndustryHealthcare    ClientIndustry = "healthcare"
	IndustryManufacturing ClientIndustry = "manufacturing"
	IndustryTechnology    ClientIndustry = "technology"
)

// ClientIndustries lists every industry in label-encoding order.
var ClientIndustries = []ClientIndustry{
	IndustryEcommerce,
	IndustryEducation,
	IndustryFinance,
	IndustryGovernment,
	IndustryHealthcare,
	IndustryManufacturing,
	IndustryTechnology,
}

// String returns the string representation
func (i ClientIndustry) String() string {
	return string(i)
}

// IsValid reports whether i belongs to the closed vocabulary
func (i ClientIndustry) IsValid() bool {
	return indexOf(ClientIndustries, i) >= 0
}

// IsEnterprise reports whether the industry is treated as an enterprise client
func (i ClientIndustry) IsEnterprise() bool {
	return i == IndustryFinance || i == IndustryHealthcare
}

// ParseClientIndustry accepts canonical values and form labels ("E-commerce").
func ParseClientIndustry(s string) (ClientIndustry, error) {
	return parseEnum("client_industry", s, ClientIndustries)
}

// ProjectType is the commercial shape of an engagement
type ProjectType string

const (
	// ProjectTypeUnspecified is the zero value; it is encoded as a missing feature.
	ProjectTypeUnspecified      ProjectType = ""
	ProjectTypeFixedPrice       ProjectType = "fixed_price"
	ProjectTypeRetainer         ProjectType = "retainer"
	ProjectTypeSupportContract  ProjectType = "support_contract"
	ProjectTypeTimeAndMaterials ProjectType = "time_and_materials"
)

// ProjectTypes lists every project type in label-encoding order.
var ProjectTypes = []ProjectType{
	ProjectTypeFixedPrice,
	ProjectTypeRetainer,
	ProjectTypeSupportContract,
	ProjectTypeTimeAndMaterials,
}

// String returns the string representation
func (p ProjectType) String() string {
	return string(p)
}

// IsValid reports whether p belongs to the closed vocabulary
func (p ProjectType) IsValid() bool {
	return indexOf(ProjectTypes, p) >= 0
}

// ParseProjectType accepts canonical values and form labels ("Time & Materials").
// An empty string parses to ProjectTypeUnspecified.
func ParseProjectType(s string) (ProjectType, error) {
	if strings.TrimSpace(s) == "" {
		return ProjectTypeUnspecified, nil
	}
	return parseEnum("project_type", s, ProjectTypes)
}

// DocLevel indicates how much supporting documentation a line item needs
type DocLevel string

const (
	DocLevelLow    DocLevel = "low"
	DocLevelMedium DocLevel = "medium"
	DocLevelHigh   DocLevel = "high"
)

// DocLevels lists the levels from least to most documentation.
var DocLevels = []DocLevel{DocLevelLow, DocLevelMedium, DocLevelHigh}

// String returns the string representation
func (d DocLevel) String() string {
	return string(d)
}

// IsValid reports whether d is a known level
func (d DocLevel) IsValid() bool {
	return indexOf(DocLevels, d) >= 0
}

// Rank orders levels; unknown levels rank below low.
func (d DocLevel) Rank() int {
	return indexOf(DocLevels, d)
}

// ParseDocLevel parses a level label ("High", "medium").
func ParseDocLevel(s string) (DocLevel, error) {
	return parseEnum("doc_level", s, DocLevels)
}

func indexOf[T comparable](values []T, v T) int {
	for i, candidate := range values {
		if candidate == v {
			return i
		}
	}
	return -1
}

// normalizeLabel folds case and punctuation so that form labels and
// canonical snake_case values compare equal.
func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "&", "and")
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func parseEnum[T ~string](field, s string, vocabulary []T) (T, error) {
	key := normalizeLabel(s)
	if key != "" {
		for _, v := range vocabulary {
			if normalizeLabel(string(v)) == key {
				return v, nil
			}
		}
	}
	var zero T
	return zero, apperrors.Validationf("unknown %s %q", field, s).WithContext("field", field)
}
