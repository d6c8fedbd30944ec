package app

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-advisor/core/model"
	"invoice-advisor/core/types"
	"invoice-advisor/internal/config"
	apperrors "invoice-advisor/internal/errors"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.ModelDir = "../../models"
	return cfg
}

func TestNewBuildsWorkingEngine(t *testing.T) {
	a, err := New(context.Background(), testConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, a.Ready())

	rec, err := a.Engine.Recommend(context.Background(), &types.ServiceContext{
		ServiceCategory:     types.CategorySoftwareDevelopment,
		ClientIndustry:      types.IndustryFinance,
		TotalAmount:         decimal.NewFromInt(15000),
		ProjectDurationDays: 90,
	})
	require.NoError(t, err)
	assert.Equal(t, "9", rec.DiscountPct.String())

	require.NotNil(t, a.Metrics)
	assert.Equal(t, 3, testutil.CollectAndCount(a.Metrics.Registry(), "invoice_advisor_model_info"))
	assert.NotNil(t, a.Server())
}

func TestNewWithRulesFile(t *testing.T) {
	cfg := testConfig()
	cfg.RulesPath = "../../configs/rules.hcl"

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "US", a.Processor.Table().DefaultJurisdiction)
}

func TestNewRejectsMissingRulesFile(t *testing.T) {
	cfg := testConfig()
	cfg.RulesPath = "does-not-exist.hcl"

	_, err := New(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeConfig))
}

func TestNewKeepsPartialEnsemble(t *testing.T) {
	cfg := testConfig()
	cfg.Models.Discount.URI = "missing.json"
	cfg.Metrics.Enabled = false

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, a.Metrics)

	err = a.Ready()
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeModelUnavailable))

	err = a.Serve(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeModelUnavailable))
}

func TestSourceRoutesObjectStore(t *testing.T) {
	cfg := testConfig()
	src, err := Source(cfg)
	require.NoError(t, err)
	router, ok := src.(*model.Router)
	require.True(t, ok)
	assert.Nil(t, router.Objects)

	cfg.ObjectStore.Endpoint = "localhost:9000"
	src, err = Source(cfg)
	require.NoError(t, err)
	router = src.(*model.Router)
	assert.NotNil(t, router.Objects)
}
