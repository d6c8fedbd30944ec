package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-advisor/core/features"
	"invoice-advisor/core/types"
	apperrors "invoice-advisor/internal/errors"
)

func loadFixture(t *testing.T, name string) *Model {
	t.Helper()
	a, err := DecodeArtifact(readTestdata(t, name))
	require.NoError(t, err)
	m, err := NewModel(a, "", "testdata/"+name)
	require.NoError(t, err)
	return m
}

func encode(t *testing.T, category types.ServiceCategory, industry types.ClientIndustry, amount int64) types.FeatureVector {
	t.Helper()
	fv, err := features.NewEncoder().Encode(&types.ServiceContext{
		ServiceCategory:     category,
		ClientIndustry:      industry,
		TotalAmount:         decimal.NewFromInt(amount),
		ProjectDurationDays: 90,
	})
	require.NoError(t, err)
	return fv
}

func TestRegressAveragesTrees(t *testing.T) {
	m := loadFixture(t, "discount.json")

	tests := []struct {
		name     string
		industry types.ClientIndustry
		amount   int64
		want     float64
	}{
		{"small non-enterprise", types.IndustryTechnology, 3000, 0},
		{"mid non-enterprise", types.IndustryTechnology, 8000, 2.5},
		{"enterprise below 10k", types.IndustryHealthcare, 9000, 2.0},
		{"enterprise above 10k", types.IndustryFinance, 15000, 9.0},
		{"large project", types.IndustryEducation, 50000, 12.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Regress(encode(t, types.CategorySoftwareDevelopment, tt.industry, tt.amount))
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestClassifyPicksMostVotes(t *testing.T) {
	m := loadFixture(t, "doc_level.json")

	tests := []struct {
		category types.ServiceCategory
		amount   int64
		want     string
	}{
		{types.CategorySoftwareDevelopment, 15000, "medium"},
		{types.CategorySoftwareDevelopment, 2000, "low"},
		{types.CategoryCybersecurity, 5000, "high"},
		{types.CategorySystemIntegration, 5000, "high"},
		{types.CategoryWebDevelopment, 5000, "low"},
		{types.CategoryCloudServices, 5000, "medium"},
		{types.CategoryWebDevelopment, 40000, "high"},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			got, err := m.Classify(encode(t, tt.category, types.IndustryFinance, tt.amount))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyTieGoesToLowestIndex(t *testing.T) {
	a := &Artifact{
		Name: "tie", Version: "1", Kind: KindClassifier, FeatureCount: 1,
		Classes: []string{"high", "low", "medium"},
		Trees: []Tree{
			{Nodes: []Node{{Leaf: true, Votes: []float64{0, 1, 0}}}},
			{Nodes: []Node{{Leaf: true, Votes: []float64{0, 0, 1}}}},
		},
	}
	m, err := NewModel(a, "", "")
	require.NoError(t, err)

	got, err := m.Classify(types.FeatureVector{0})
	require.NoError(t, err)
	assert.Equal(t, "low", got)
}

func TestShapeMismatchIsInferenceError(t *testing.T) {
	m := loadFixture(t, "tax_rate.json")

	_, err := m.Regress(types.FeatureVector{1, 2, 3})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeInference))

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, 3, appErr.Context["got"])
	assert.Equal(t, 11, appErr.Context["want"])
}

func TestKindMismatchIsInferenceError(t *testing.T) {
	reg := loadFixture(t, "discount.json")
	_, err := reg.Classify(encode(t, types.CategoryCybersecurity, types.IndustryFinance, 1000))
	assert.True(t, apperrors.IsType(err, apperrors.TypeInference))

	cls := loadFixture(t, "doc_level.json")
	_, err = cls.Regress(encode(t, types.CategoryCybersecurity, types.IndustryFinance, 1000))
	assert.True(t, apperrors.IsType(err, apperrors.TypeInference))
}

func TestRegressIsDeterministic(t *testing.T) {
	m := loadFixture(t, "discount.json")
	fv := encode(t, types.CategoryDataAnalytics, types.IndustryFinance, 12345)

	first, err := m.Regress(fv)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		got, err := m.Regress(fv)
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}
