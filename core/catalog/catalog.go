// Package catalog - Service template catalog
// Defines the suggested line items and service notes for every service
// category. The table is closed: each category in types.ServiceCategories
// has exactly one entry.
package catalog

import (
	"github.com/shopspring/decimal"

	"invoice-advisor/core/determinism"
	"invoice-advisor/core/types"
)

// DefaultNotes is used for a category registered without notes
const DefaultNotes = "Professional IT services delivered to industry standards."

// Template is a suggested invoice line with its usual hourly rate range
type Template struct {
	Description string
	Details     string
	MinRate     decimal.Decimal
	MaxRate     decimal.Decimal
}

// HourlyRate is the suggested rate: the midpoint of the range, in cents
func (t Template) HourlyRate() decimal.Decimal {
	return t.MinRate.Add(t.MaxRate).Div(decimal.NewFromInt(2)).Round(2)
}

// Item converts the template to a suggested recommendation item
func (t Template) Item() types.SuggestedItem {
	return types.SuggestedItem{
		Description: t.Description,
		Details:     t.Details,
		HourlyRate:  t.HourlyRate(),
		MinRate:     t.MinRate,
		MaxRate:     t.MaxRate,
	}
}

// Entry is the catalog entry for one service category
type Entry struct {
	Category  types.ServiceCategory
	Templates []Template
	Notes     string
}

// Catalog maps service categories to their entries
type Catalog struct {
	entries map[types.ServiceCategory]*Entry
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		entries: make(map[types.ServiceCategory]*Entry),
	}
}

// Register adds or replaces the entry for a category
func (c *Catalog) Register(entry Entry) {
	if entry.Notes == "" {
		entry.Notes = DefaultNotes
	}
	c.entries[entry.Category] = &entry
}

// Get returns the entry for a category
func (c *Catalog) Get(category types.ServiceCategory) (*Entry, bool) {
	entry, ok := c.entries[category]
	return entry, ok
}

// Items returns the suggested items for a category in registration order
func (c *Catalog) Items(category types.ServiceCategory) []types.SuggestedItem {
	entry, ok := c.entries[category]
	if !ok {
		return nil
	}
	items := make([]types.SuggestedItem, 0, len(entry.Templates))
	for _, t := range entry.Templates {
		items = append(items, t.Item())
	}
	return items
}

// Notes returns the service notes for a category
func (c *Catalog) Notes(category types.ServiceCategory) string {
	if entry, ok := c.entries[category]; ok {
		return entry.Notes
	}
	return DefaultNotes
}

// Categories returns the registered categories in sorted order
func (c *Catalog) Categories() []types.ServiceCategory {
	return determinism.SortedKeys(c.entries)
}

// Stats returns catalog statistics
func (c *Catalog) Stats() CatalogStats {
	stats := CatalogStats{
		ByCategory: make(map[types.ServiceCategory]int),
	}

	first := true
	for category, entry := range c.entries {
		stats.Categories++
		stats.Templates += len(entry.Templates)
		stats.ByCategory[category] = len(entry.Templates)

		for _, t := range entry.Templates {
			if first || t.MinRate.LessThan(stats.MinRate) {
				stats.MinRate = t.MinRate
			}
			if first || t.MaxRate.GreaterThan(stats.MaxRate) {
				stats.MaxRate = t.MaxRate
			}
			first = false
		}
	}

	return stats
}

// CatalogStats holds catalog statistics
type CatalogStats struct {
	Categories int
	Templates  int
	ByCategory map[types.ServiceCategory]int
	MinRate    decimal.Decimal
	MaxRate    decimal.Decimal
}
