package policy

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/shopspring/decimal"

	"invoice-advisor/core/types"
	apperrors "invoice-advisor/internal/errors"
)

// rulesFile is the HCL shape of a rules file:
//
//	default_jurisdiction = "US"
//	max_discount         = 100
//
//	industry "finance" {
//	  max_discount = 15
//	}
//	jurisdiction "US" {
//	  rate = 8.5
//	}
//	category "cybersecurity" {
//	  minimum_price = 2500
//	  min_doc_level = "high"
//	}
type rulesFile struct {
	DefaultJurisdiction *string  `hcl:"default_jurisdiction,optional"`
	MaxDiscount         *float64 `hcl:"max_discount,optional"`
	MaxTaxRate          *float64 `hcl:"max_tax_rate,optional"`

	Industries    []industryBlock     `hcl:"industry,block"`
	Jurisdictions []jurisdictionBlock `hcl:"jurisdiction,block"`
	Categories    []categoryBlock     `hcl:"category,block"`
}

type industryBlock struct {
	Name        string  `hcl:"name,label"`
	MaxDiscount float64 `hcl:"max_discount"`
}

type jurisdictionBlock struct {
	Code    string   `hcl:"code,label"`
	Rate    *float64 `hcl:"rate,optional"`
	MinRate *float64 `hcl:"min_rate,optional"`
	MaxRate *float64 `hcl:"max_rate,optional"`
}

type categoryBlock struct {
	Name         string   `hcl:"name,label"`
	MinimumPrice *float64 `hcl:"minimum_price,optional"`
	MinDocLevel  *string  `hcl:"min_doc_level,optional"`
}

// LoadTable reads and validates a rules file
func LoadTable(path string) (*Table, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Config("failed to read rules file", err).WithContext("path", path)
	}
	return ParseTable(src, path)
}

// ParseTable parses HCL rules. Top-level limits left out of the file keep
// their built-in values; blocks replace the built-in tables entirely.
func ParseTable(src []byte, filename string) (*Table, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diagError(filename, diags)
	}

	var rf rulesFile
	if diags := gohcl.DecodeBody(file.Body, nil, &rf); diags.HasErrors() {
		return nil, diagError(filename, diags)
	}

	t, err := rf.table()
	if err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (rf *rulesFile) table() (*Table, error) {
	defaults := DefaultTable()
	t := &Table{
		DefaultJurisdiction: defaults.DefaultJurisdiction,
		MaxDiscount:         defaults.MaxDiscount,
		MaxTaxRate:          defaults.MaxTaxRate,
		Industries:          make(map[types.ClientIndustry]IndustryRule),
		Jurisdictions:       make(map[string]JurisdictionRule),
		Categories:          make(map[types.ServiceCategory]CategoryRule),
	}
	if rf.DefaultJurisdiction != nil {
		t.DefaultJurisdiction = types.NormalizeJurisdiction(*rf.DefaultJurisdiction)
	}
	if rf.MaxDiscount != nil {
		t.MaxDiscount = decimal.NewFromFloat(*rf.MaxDiscount)
	}
	if rf.MaxTaxRate != nil {
		t.MaxTaxRate = decimal.NewFromFloat(*rf.MaxTaxRate)
	}

	for _, b := range rf.Industries {
		industry, err := types.ParseClientIndustry(b.Name)
		if err != nil {
			return nil, apperrors.Config("invalid industry block", err)
		}
		if _, dup := t.Industries[industry]; dup {
			return nil, apperrors.Config(fmt.Sprintf("duplicate industry block %q", b.Name), nil)
		}
		t.Industries[industry] = IndustryRule{MaxDiscount: decimal.NewFromFloat(b.MaxDiscount)}
	}

	for _, b := range rf.Jurisdictions {
		code := types.NormalizeJurisdiction(b.Code)
		if _, dup := t.Jurisdictions[code]; dup {
			return nil, apperrors.Config(fmt.Sprintf("duplicate jurisdiction block %q", b.Code), nil)
		}
		r := JurisdictionRule{
			Rate:    decimalPtr(b.Rate),
			MaxRate: decimalPtr(b.MaxRate),
		}
		if b.MinRate != nil {
			r.MinRate = decimal.NewFromFloat(*b.MinRate)
		}
		t.Jurisdictions[code] = r
	}

	for _, b := range rf.Categories {
		category, err := types.ParseServiceCategory(b.Name)
		if err != nil {
			return nil, apperrors.Config("invalid category block", err)
		}
		if _, dup := t.Categories[category]; dup {
			return nil, apperrors.Config(fmt.Sprintf("duplicate category block %q", b.Name), nil)
		}
		var r CategoryRule
		if b.MinimumPrice != nil {
			r.MinimumPrice = decimal.NewFromFloat(*b.MinimumPrice)
		}
		if b.MinDocLevel != nil {
			level, err := types.ParseDocLevel(*b.MinDocLevel)
			if err != nil {
				return nil, apperrors.Config(fmt.Sprintf("category %q", b.Name), err)
			}
			r.MinDocLevel = level
		}
		t.Categories[category] = r
	}
	return t, nil
}

func decimalPtr(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := decimal.NewFromFloat(*v)
	return &d
}

func diagError(filename string, diags hcl.Diagnostics) error {
	var msgs []string
	for _, diag := range diags {
		if diag.Severity != hcl.DiagError {
			continue
		}
		line := 0
		if diag.Subject != nil {
			line = diag.Subject.Start.Line
		}
		msgs = append(msgs, fmt.Sprintf("%s:%d: %s: %s", filename, line, diag.Summary, diag.Detail))
	}
	return apperrors.Newf(apperrors.TypeConfig, "invalid rules file: %s", strings.Join(msgs, "; ")).
		WithContext("path", filename)
}
