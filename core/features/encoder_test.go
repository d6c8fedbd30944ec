package features

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-advisor/core/types"
	apperrors "invoice-advisor/internal/errors"
)

func financeSoftware() *types.ServiceContext {
	return &types.ServiceContext{
		ServiceCategory:     types.CategorySoftwareDevelopment,
		ClientIndustry:      types.IndustryFinance,
		TotalAmount:         decimal.NewFromInt(15000),
		ProjectDurationDays: 90,
	}
}

func TestEncodeHasFixedLengthForEveryCategoryAndIndustry(t *testing.T) {
	enc := NewEncoder()
	for _, category := range types.ServiceCategories {
		for _, industry := range types.ClientIndustries {
			sc := &types.ServiceContext{
				ServiceCategory:     category,
				ClientIndustry:      industry,
				TotalAmount:         decimal.RequireFromString("1234.56"),
				ProjectDurationDays: 7,
			}
			v, err := enc.Encode(sc)
			require.NoError(t, err, "%s/%s", category, industry)
			assert.Equal(t, Dimension, v.Len())
		}
	}
	assert.Equal(t, 11, enc.Dimension())
}

func TestEncodeIsDeterministic(t *testing.T) {
	enc := NewEncoder()
	sc := financeSoftware()
	sc.TotalHours = 97.3
	sc.ProjectType = types.ProjectTypeFixedPrice

	first, err := enc.Encode(sc)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		again, err := NewEncoder().Encode(sc)
		require.NoError(t, err)
		require.True(t, first.Equal(again), "run %d differs", i)
	}
}

func TestEncodeValues(t *testing.T) {
	sc := financeSoftware()
	sc.TotalHours = 120
	sc.NumServices = 3
	sc.ProjectType = types.ProjectTypeTimeAndMaterials

	v, err := NewEncoder().Encode(sc)
	require.NoError(t, err)

	assert.Equal(t, 9.0, v[ColServiceCategory])
	assert.Equal(t, 2.0, v[ColClientIndustry])
	assert.Equal(t, 3.0, v[ColProjectType])
	assert.Equal(t, 15000.0, v[ColTotalAmount])
	assert.Equal(t, 90.0, v[ColDurationDays])
	assert.Equal(t, 120.0, v[ColTotalHours])
	assert.Equal(t, 3.0, v[ColNumServices])
	assert.Equal(t, 125.0, v[ColAmountPerHour])
	assert.InDelta(t, 166.666, v[ColAmountPerDay], 0.001)
	assert.Equal(t, 0.0, v[ColIsLargeProject])
	assert.Equal(t, 1.0, v[ColIsEnterpriseClient])
}

func TestEncodeUnspecifiedOptionalFields(t *testing.T) {
	sc := financeSoftware()
	sc.ProjectDurationDays = 0
	sc.TotalAmount = decimal.NewFromInt(25000)

	v, err := NewEncoder().Encode(sc)
	require.NoError(t, err)

	assert.Equal(t, MissingCategorical, v[ColProjectType])
	assert.Equal(t, 25000.0, v[ColAmountPerHour], "hours floor at 1")
	assert.Equal(t, 25000.0, v[ColAmountPerDay], "days floor at 1")
	assert.Equal(t, 1.0, v[ColIsLargeProject])
}

func TestEncodeRejectsUnknownCategory(t *testing.T) {
	sc := financeSoftware()
	sc.ServiceCategory = types.ServiceCategory("plumbing")

	_, err := NewEncoder().Encode(sc)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeValidation))
	assert.Contains(t, err.Error(), "service_category")
}

func TestEncodeRejectsBadInput(t *testing.T) {
	cases := map[string]func(sc *types.ServiceContext){
		"unknown industry":     func(sc *types.ServiceContext) { sc.ClientIndustry = "mining" },
		"unknown project type": func(sc *types.ServiceContext) { sc.ProjectType = "barter" },
		"negative amount":      func(sc *types.ServiceContext) { sc.TotalAmount = decimal.NewFromInt(-1) },
		"negative duration":    func(sc *types.ServiceContext) { sc.ProjectDurationDays = -3 },
		"negative hours":       func(sc *types.ServiceContext) { sc.TotalHours = -0.5 },
		"NaN hours":            func(sc *types.ServiceContext) { sc.TotalHours = math.NaN() },
		"infinite hours":       func(sc *types.ServiceContext) { sc.TotalHours = math.Inf(1) },
		"negative services":    func(sc *types.ServiceContext) { sc.NumServices = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			sc := financeSoftware()
			mutate(sc)
			_, err := NewEncoder().Encode(sc)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.TypeValidation), err.Error())
		})
	}

	_, err := NewEncoder().Encode(nil)
	assert.True(t, apperrors.IsType(err, apperrors.TypeValidation))
}

func TestCheckSchema(t *testing.T) {
	require.NoError(t, CheckSchema(Schema()))

	swapped := Schema()
	swapped[0], swapped[1] = swapped[1], swapped[0]
	assert.Error(t, CheckSchema(swapped))
	assert.Error(t, CheckSchema(Schema()[:5]))
}
