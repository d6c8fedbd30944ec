package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-advisor/core/types"
)

func TestDefaultCoversEveryCategory(t *testing.T) {
	c := Default()
	assert.Equal(t, types.ServiceCategories, c.Categories())
	assert.Empty(t, c.Validate(DefaultValidationRules()))

	for _, category := range types.ServiceCategories {
		items := c.Items(category)
		assert.NotEmpty(t, items, category)
		assert.NotEmpty(t, c.Notes(category), category)
	}
}

func TestItemsUseRangeMidpoint(t *testing.T) {
	items := Default().Items(types.CategorySoftwareDevelopment)
	require.Len(t, items, 4)

	assert.Equal(t, "Custom API Development", items[0].Description)
	assert.True(t, decimal.NewFromInt(175).Equal(items[0].HourlyRate))
	assert.True(t, decimal.NewFromInt(150).Equal(items[0].MinRate))
	assert.True(t, decimal.NewFromInt(200).Equal(items[0].MaxRate))

	for _, item := range items {
		assert.True(t, item.HourlyRate.GreaterThanOrEqual(item.MinRate))
		assert.True(t, item.HourlyRate.LessThanOrEqual(item.MaxRate))
	}
}

func TestNotesFallback(t *testing.T) {
	assert.Equal(t, DefaultNotes, Default().Notes(types.CategoryWebDevelopment))
	assert.Equal(t, DefaultNotes, NewCatalog().Notes(types.CategoryCybersecurity))
	assert.Nil(t, NewCatalog().Items(types.CategoryCybersecurity))
}

func TestValidateReportsProblems(t *testing.T) {
	c := NewCatalog()
	c.Register(Entry{Category: types.CategoryCybersecurity})
	c.Register(Entry{
		Category: types.CategoryWebDevelopment,
		Templates: []Template{
			tpl("Landing Page", "", 200, 100),
		},
	})
	c.Register(Entry{
		Category: types.ServiceCategory("plumbing"),
		Templates: []Template{
			tpl("Pipes", "", 50, 60),
			tpl("Pipes", "", 50, 60),
		},
	})

	errs := c.Validate(DefaultValidationRules())
	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	assert.Contains(t, msgs, "cloud_services: no catalog entry")
	assert.Contains(t, msgs, "cybersecurity: at least one template is required")
	assert.Contains(t, msgs, `web_development: "Landing Page": maximum rate 100 is below minimum rate 200`)
	assert.Contains(t, msgs, "plumbing: unknown service category")
	assert.Contains(t, msgs, `plumbing: duplicate template "Pipes"`)
	assert.Panics(t, c.MustValidate)
}

func TestStats(t *testing.T) {
	stats := Default().Stats()
	assert.Equal(t, len(types.ServiceCategories), stats.Categories)
	assert.Equal(t, 4, stats.ByCategory[types.CategoryCybersecurity])
	assert.True(t, decimal.NewFromInt(100).Equal(stats.MinRate))
	assert.True(t, decimal.NewFromInt(300).Equal(stats.MaxRate))
}
