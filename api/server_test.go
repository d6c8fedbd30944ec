package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"invoice-advisor/core/assembler"
	"invoice-advisor/core/engine"
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
	e, err := model.Load(context.Background(), &model.FileSource{BaseDir: "../models"}, specs, zap.NewNop())
	require.NoError(t, err)
	return e
}

func newTestServer(t *testing.T, m *metrics.Metrics) *Server {
	t.Helper()
	ensemble := loadEnsemble(t)
	processor, err := policy.NewProcessor(nil)
	require.NoError(t, err)
	eng := engine.NewEngine(features.NewEncoder(), ensemble, processor, assembler.New(nil, types.CurrencyUSD),
		engine.WithMetrics(m))
	return NewServer(Options{
		Version: "test",
		Engine:  eng,
		Models:  ensemble,
		Metrics: m,
	})
}

// stubEngine returns a fixed answer
type stubEngine struct {
	rec *types.Recommendation
	err error
}

func (s stubEngine) Recommend(context.Context, *types.ServiceContext) (*types.Recommendation, error) {
	return s.rec, s.err
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

const financeSoftwareBody = `{
	"service_category": "Software Development",
	"client_industry": "finance",
	"total_amount": 15000,
	"project_duration_days": 90
}`

func TestRecommend(t *testing.T) {
	m := metrics.New("", false)
	s := newTestServer(t, m)

	rec := do(t, s, http.MethodPost, "/v1/recommendations", financeSoftwareBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	var resp RecommendResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, StatusOK, resp.Status)
	assert.Equal(t, rec.Header().Get(RequestIDHeader), resp.RequestID)
	require.NotNil(t, resp.Recommendation)
	assert.Equal(t, "9", resp.Recommendation.DiscountPct.String())
	assert.Equal(t, "8.5", resp.Recommendation.TaxRate.String())
	assert.Equal(t, types.DocLevelMedium, resp.Recommendation.DocLevel)
	assert.Equal(t, types.CategorySoftwareDevelopment, resp.Recommendation.ServiceCategory)
	assert.Equal(t, "14810.25 USD", resp.Recommendation.Totals.Total.String())

	expected := `
# HELP invoice_advisor_http_requests_total HTTP requests by route and status.
# TYPE invoice_advisor_http_requests_total counter
invoice_advisor_http_requests_total{method="POST",route="/v1/recommendations",status="200"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"invoice_advisor_http_requests_total"))
}

func TestRecommendKeepsCallerRequestID(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/recommendations", strings.NewReader(financeSoftwareBody))
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestRecommendValidation(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{
			name:  "missing category",
			body:  `{"client_industry":"finance","total_amount":100,"project_duration_days":10}`,
			field: "service_category",
		},
		{
			name:  "negative amount",
			body:  `{"service_category":"web_development","client_industry":"finance","total_amount":-5,"project_duration_days":10}`,
			field: "total_amount",
		},
		{
			name:  "negative duration",
			body:  `{"service_category":"web_development","client_industry":"finance","total_amount":5,"project_duration_days":-1}`,
			field: "project_duration_days",
		},
		{
			name:  "unknown industry",
			body:  `{"service_category":"web_development","client_industry":"mining","total_amount":5,"project_duration_days":1}`,
			field: "client_industry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/v1/recommendations", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			var resp ErrorResponse
			decodeBody(t, rec, &resp)
			assert.Equal(t, string(apperrors.TypeValidation), resp.Error.Code)
			assert.Equal(t, tt.field, resp.Error.Context["field"])
		})
	}
}

func TestRecommendMalformedJSON(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/v1/recommendations", `{"service_category":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecommendBodyLimit(t *testing.T) {
	ensemble := loadEnsemble(t)
	s := NewServer(Options{
		Engine:       stubEngine{},
		Models:       ensemble,
		MaxBodyBytes: 16,
	})

	rec := do(t, s, http.MethodPost, "/v1/recommendations", financeSoftwareBody)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRecommendErrorMapping(t *testing.T) {
	ensemble := loadEnsemble(t)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "policy violation",
			err:        apperrors.PolicyViolation("jurisdiction_tax", "unknown jurisdiction \"ZZ\""),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   string(apperrors.TypePolicyViolation),
		},
		{
			name:       "model unavailable",
			err:        apperrors.ModelUnavailable("discount", errors.New("checksum mismatch")),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   string(apperrors.TypeModelUnavailable),
		},
		{
			name:       "internal",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   string(apperrors.TypeInternal),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(Options{Engine: stubEngine{err: tt.err}, Models: ensemble})

			rec := do(t, s, http.MethodPost, "/v1/recommendations", financeSoftwareBody)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			var resp ErrorResponse
			decodeBody(t, rec, &resp)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.NotEmpty(t, resp.RequestID)
		})
	}
}

func TestRecommendUnknownJurisdictionFallsBack(t *testing.T) {
	s := newTestServer(t, nil)
	body := `{"service_category":"web_development","client_industry":"finance","total_amount":1000,` +
		`"project_duration_days":10,"jurisdiction":"ZZ"}`

	rec := do(t, s, http.MethodPost, "/v1/recommendations", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp RecommendResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "US", resp.Recommendation.Jurisdiction)
	assert.Equal(t, "8.5", resp.Recommendation.TaxRate.String())

	var fields []string
	for _, adj := range resp.Recommendation.Adjustments {
		fields = append(fields, adj.Field)
	}
	assert.Contains(t, fields, "jurisdiction")
}

func TestRecommendInferenceFailureIsNoRecommendation(t *testing.T) {
	ensemble := loadEnsemble(t)
	s := NewServer(Options{
		Engine: stubEngine{err: apperrors.Inference("discount", errors.New("feature vector has 10 values, model expects 11"))},
		Models: ensemble,
	})

	rec := do(t, s, http.MethodPost, "/v1/recommendations", financeSoftwareBody)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RecommendResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, StatusNoRecommendation, resp.Status)
	assert.Nil(t, resp.Recommendation)
	assert.Contains(t, resp.Reason, "model expects 11")
	assert.NotContains(t, resp.Reason, "INFERENCE_ERROR")
}

func TestTotals(t *testing.T) {
	s := newTestServer(t, nil)
	body := `{
		"lines": [
			{"description": "Backend Development", "hours": 40, "hourly_rate": 125},
			{"description": "Code Review", "hours": "32.5", "hourly_rate": 119}
		],
		"discount_pct": 5,
		"tax_rate": 8.5
	}`

	rec := do(t, s, http.MethodPost, "/v1/totals", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp TotalsResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "USD", resp.Currency)
	assert.Equal(t, "8867.50 USD", resp.Totals.Subtotal.String())
	assert.Equal(t, "443.38 USD", resp.Totals.DiscountAmount.String())
	assert.Equal(t, "8424.12 USD", resp.Totals.TaxableAmount.String())
	assert.Equal(t, "716.05 USD", resp.Totals.TaxAmount.String())
	assert.Equal(t, "9140.17 USD", resp.Totals.Total.String())
	assert.Equal(t, "72.5", resp.Totals.TotalHours)
}

func TestTotalsValidation(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "no lines", body: `{"lines":[],"discount_pct":0,"tax_rate":0}`, field: "lines"},
		{name: "discount above 100", body: `{"lines":[{"description":"x","hours":1,"hourly_rate":1}],"discount_pct":101,"tax_rate":0}`, field: "discount_pct"},
		{name: "negative hours", body: `{"lines":[{"description":"x","hours":-1,"hourly_rate":1}],"discount_pct":0,"tax_rate":0}`, field: "lines[0].hours"},
		{name: "unsupported currency", body: `{"lines":[{"description":"x","hours":1,"hourly_rate":1}],"currency":"JPY"}`, field: "currency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/v1/totals", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			var resp ErrorResponse
			decodeBody(t, rec, &resp)
			assert.Equal(t, tt.field, resp.Error.Context["field"])
		})
	}
}

func TestModels(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/v1/models", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ModelsResponse
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Ready)
	require.Len(t, resp.Models, 3)
	assert.Equal(t, model.NameDiscount, resp.Models[0].Name)
	assert.Equal(t, model.NameDocLevel, resp.Models[1].Name)
	assert.Equal(t, model.NameTaxRate, resp.Models[2].Name)
}

func TestModelsAndHealthReportUnavailable(t *testing.T) {
	partial := model.NewEnsemble(nil, nil, nil)
	s := NewServer(Options{Engine: stubEngine{}, Models: partial})

	rec := do(t, s, http.MethodGet, "/v1/models", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var models ModelsResponse
	decodeBody(t, rec, &models)
	assert.False(t, models.Ready)
	assert.NotNil(t, models.Models)

	rec = do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthAndVersion(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]interface{}
	decodeBody(t, rec, &health)
	assert.Equal(t, "healthy", health["status"])

	rec = do(t, s, http.MethodGet, "/version", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var version map[string]interface{}
	decodeBody(t, rec, &version)
	assert.Equal(t, "test", version["version"])
	assert.Len(t, version["models"], 3)
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New("", false)
	s := newTestServer(t, m)

	do(t, s, http.MethodPost, "/v1/recommendations", financeSoftwareBody)
	rec := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `invoice_advisor_recommendations_total{outcome="ok"} 1`)
}

func TestMetricsEndpointDisabled(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx, RunConfig{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second})
	assert.NoError(t, err)
}
