package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"invoice-advisor/core/assembler"
	"invoice-advisor/core/features"
	"invoice-advisor/core/model"
	"invoice-advisor/core/policy"
	"invoice-advisor/core/types"
	apperrors "invoice-advisor/internal/errors"
	"invoice-advisor/internal/metrics"
)

func loadEnsemble(t *testing.T) *model.Ensemble {
	t.Helper()
	specs := model.Specs{
		Discount: model.ArtifactSpec{URI: "discount.json"},
		TaxRate:  model.ArtifactSpec{URI: "tax_rate.json"},
		DocLevel: model.ArtifactSpec{URI: "doc_level.json"},
	}
	e, err := model.Load(context.Background(), &model.FileSource{BaseDir: "../../models"}, specs, zap.NewNop())
	require.NoError(t, err)
	return e
}

func newTestEngine(t *testing.T, predictor Predictor, opts ...Option) *Engine {
	t.Helper()
	processor, err := policy.NewProcessor(policy.DefaultTable())
	require.NoError(t, err)
	return NewEngine(features.NewEncoder(), predictor, processor, assembler.New(nil, types.CurrencyUSD), opts...)
}

func financeSoftware() *types.ServiceContext {
	return &types.ServiceContext{
		ServiceCategory:     types.CategorySoftwareDevelopment,
		ClientIndustry:      types.IndustryFinance,
		TotalAmount:         decimal.NewFromInt(15000),
		ProjectDurationDays: 90,
	}
}

func TestRecommendEndToEnd(t *testing.T) {
	m := metrics.New("", false)
	core, logs := observer.New(zap.InfoLevel)
	e := newTestEngine(t, loadEnsemble(t), WithMetrics(m), WithLogger(zap.New(core)))

	rec, err := e.Recommend(context.Background(), financeSoftware())
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(9).Equal(rec.DiscountPct), rec.DiscountPct.String())
	assert.True(t, decimal.RequireFromString("8.5").Equal(rec.TaxRate), rec.TaxRate.String())
	assert.False(t, rec.DiscountPct.IsNegative())
	assert.True(t, rec.DiscountPct.LessThanOrEqual(decimal.NewFromInt(100)))
	assert.Equal(t, types.DocLevelMedium, rec.DocLevel)
	assert.Equal(t, "US", rec.Jurisdiction)
	assert.NotEmpty(t, rec.SuggestedItems)
	assert.Equal(t, "Net 30", rec.PaymentTerms)
	assert.Equal(t, "14810.25 USD", rec.Totals.Total.String())
	assert.Len(t, rec.ModelVersions, 3)

	require.Len(t, rec.Adjustments, 1)
	assert.Equal(t, "jurisdiction_tax", rec.Adjustments[0].Rule)

	assert.Equal(t, 1, logs.FilterMessage("recommendation produced").Len())
	expected := `
# HELP invoice_advisor_recommendations_total Recommendation requests by outcome.
# TYPE invoice_advisor_recommendations_total counter
invoice_advisor_recommendations_total{outcome="ok"} 1
# HELP invoice_advisor_policy_adjustments_total Business-rule adjustments applied to predictions, by rule.
# TYPE invoice_advisor_policy_adjustments_total counter
invoice_advisor_policy_adjustments_total{rule="jurisdiction_tax"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"invoice_advisor_recommendations_total", "invoice_advisor_policy_adjustments_total"))
}

func TestRecommendIsDeterministic(t *testing.T) {
	e := newTestEngine(t, loadEnsemble(t))

	first, err := e.Recommend(context.Background(), financeSoftware())
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		rec, err := e.Recommend(context.Background(), financeSoftware())
		require.NoError(t, err)
		assert.Equal(t, first, rec)
	}
}

func TestRecommendConcurrently(t *testing.T) {
	e := newTestEngine(t, loadEnsemble(t))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := e.Recommend(context.Background(), financeSoftware())
			assert.NoError(t, err)
			assert.NotNil(t, rec)
		}()
	}
	wg.Wait()
}

func TestUnknownCategoryIsValidationError(t *testing.T) {
	e := newTestEngine(t, loadEnsemble(t))
	sc := financeSoftware()
	sc.ServiceCategory = "plumbing"

	_, err := e.Recommend(context.Background(), sc)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeValidation))
	assert.Equal(t, metrics.OutcomeValidation, OutcomeOf(err))

	_, err = e.Recommend(context.Background(), nil)
	assert.True(t, apperrors.IsType(err, apperrors.TypeValidation))
}

type failingPredictor struct {
	err error
}

func (p failingPredictor) Predict(context.Context, types.FeatureVector) (*types.RawPrediction, error) {
	return nil, p.err
}

func TestPredictorErrorsPropagate(t *testing.T) {
	tests := []struct {
		err     error
		outcome string
	}{
		{apperrors.Inference("discount", errors.New("bad shape")), metrics.OutcomeInference},
		{apperrors.ModelUnavailable("tax_rate", errors.New("missing")), metrics.OutcomeModelUnavailable},
		{errors.New("boom"), metrics.OutcomeError},
	}
	for _, tt := range tests {
		t.Run(tt.outcome, func(t *testing.T) {
			m := metrics.New("", false)
			e := newTestEngine(t, failingPredictor{err: tt.err}, WithMetrics(m))

			_, err := e.Recommend(context.Background(), financeSoftware())
			require.Error(t, err)
			assert.Equal(t, tt.outcome, OutcomeOf(err))
		})
	}
}

func TestPolicyViolationPropagates(t *testing.T) {
	table := policy.DefaultTable()
	table.DefaultJurisdiction = ""
	processor, err := policy.NewProcessor(table)
	require.NoError(t, err)
	e := NewEngine(features.NewEncoder(), loadEnsemble(t), processor, assembler.New(nil, ""))

	_, err = e.Recommend(context.Background(), financeSoftware())
	require.Error(t, err)
	assert.Equal(t, metrics.OutcomePolicyViolation, OutcomeOf(err))
}

func TestNewEngineRequiresComponents(t *testing.T) {
	assert.Panics(t, func() {
		NewEngine(features.NewEncoder(), nil, nil, nil)
	})
}

func TestStageNames(t *testing.T) {
	assert.Equal(t, "encode", StageEncode.String())
	assert.Equal(t, "predict", StagePredict.String())
	assert.Equal(t, "post_process", StagePostProcess.String())
	assert.Equal(t, "assemble", StageAssemble.String())
	assert.Equal(t, "unknown", Stage(42).String())
}

// emptyAssembler returns a recommendation without suggested items
type emptyAssembler struct{}

func (emptyAssembler) Assemble(bp *types.BoundedPrediction, sc *types.ServiceContext) (*types.Recommendation, error) {
	rec, err := assembler.New(nil, types.CurrencyUSD).Assemble(bp, sc)
	if err != nil {
		return nil, err
	}
	rec.SuggestedItems = nil
	return rec, nil
}

func TestBrokenAssemblyIsInternalError(t *testing.T) {
	processor, err := policy.NewProcessor(nil)
	require.NoError(t, err)
	e := NewEngine(features.NewEncoder(), loadEnsemble(t), processor, emptyAssembler{})

	rec, err := e.Recommend(context.Background(), financeSoftware())
	require.Error(t, err)
	assert.Nil(t, rec)
	assert.True(t, apperrors.IsType(err, apperrors.TypeInternal))
	assert.Equal(t, metrics.OutcomeError, OutcomeOf(err))
}
