// Package api - HTTP handlers for recommendations and totals.
// Handlers decode, validate and delegate to the engine and the billing
// package. They contain no pricing logic.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"invoice-advisor/core/billing"
	"invoice-advisor/core/model"
	"invoice-advisor/core/types"
	apperrors "invoice-advisor/internal/errors"
)

// Recommender produces recommendations
type Recommender interface {
	Recommend(ctx context.Context, sc *types.ServiceContext) (*types.Recommendation, error)
}

// ModelRegistry reports the loaded models
type ModelRegistry interface {
	Info() []model.Info
	Ready() error
}

// Handler handles the /v1 endpoints
type Handler struct {
	engine   Recommender
	models   ModelRegistry
	currency types.Currency
	validate *validator.Validate
	logger   *zap.Logger
}

// NewHandler creates a handler
func NewHandler(engine Recommender, models ModelRegistry, currency types.Currency, logger *zap.Logger) *Handler {
	if currency == "" {
		currency = types.CurrencyUSD
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		engine:   engine,
		models:   models,
		currency: currency,
		validate: newValidator(),
		logger:   logger,
	}
}

func newValidator() *validator.Validate {
	v := validator.New()

	// Report JSON field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Compare decimals numerically in gte/lte tags
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	return v
}

// HandleRecommend handles POST /v1/recommendations
func (h *Handler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	requestID := RequestIDFromContext(r.Context())

	var req RecommendRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	sc, err := types.NewServiceContext(req.ContextInput())
	if err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := h.engine.Recommend(r.Context(), sc)
	if apperrors.IsType(err, apperrors.TypeInference) {
		h.logger.Info("no recommendation",
			zap.String("request_id", requestID),
			zap.Error(err))
		render.Status(r, http.StatusOK)
		render.JSON(w, r, RecommendResponse{
			Status:    StatusNoRecommendation,
			RequestID: requestID,
			Reason:    reasonOf(err),
		})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RecommendResponse{
		Status:         StatusOK,
		RequestID:      requestID,
		Recommendation: rec,
	})
}

// HandleTotals handles POST /v1/totals
func (h *Handler) HandleTotals(w http.ResponseWriter, r *http.Request) {
	var req TotalsRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	currency := h.currency
	if req.Currency != "" {
		c, err := types.ParseCurrency(req.Currency)
		if err != nil {
			writeError(w, r, err)
			return
		}
		currency = c
	}

	totals, err := billing.Compute(req.BillingLines(), req.DiscountPct, req.TaxRate, currency)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, TotalsResponse{
		RequestID: RequestIDFromContext(r.Context()),
		Currency:  currency.String(),
		Totals:    totals,
	})
}

// HandleModels handles GET /v1/models
func (h *Handler) HandleModels(w http.ResponseWriter, r *http.Request) {
	resp := ModelsResponse{Ready: true, Models: h.models.Info()}
	if resp.Models == nil {
		resp.Models = []model.Info{}
	}
	status := http.StatusOK
	if err := h.models.Ready(); err != nil {
		resp.Ready = false
		resp.Reason = reasonOf(err)
		status = http.StatusServiceUnavailable
	}
	render.Status(r, status)
	render.JSON(w, r, resp)
}

// decode reads a JSON body into v and validates its tags
func (h *Handler) decode(r *http.Request, v interface{}) error {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errPayloadTooLarge{limit: tooLarge.Limit}
		}
		return apperrors.Wrap(apperrors.TypeValidation, "invalid JSON body", err)
	}
	if err := h.validate.Struct(v); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fieldError(fieldErrs)
		}
		return apperrors.Wrap(apperrors.TypeValidation, "invalid request", err)
	}
	return nil
}

// fieldError reports the first failing field and lists all of them
func fieldError(errs validator.ValidationErrors) error {
	fields := make([]string, 0, len(errs))
	for _, fe := range errs {
		fields = append(fields, fieldPath(fe))
	}
	first := errs[0]
	return apperrors.Validationf("%s %s", fieldPath(first), describeTag(first)).
		WithContext("field", fieldPath(first)).
		WithContext("fields", fields)
}

// fieldPath drops the struct name from the namespace ("lines[0].hours")
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "alpha":
		return "must contain letters only"
	case "iso4217":
		return "must be an ISO 4217 currency code"
	default:
		return fmt.Sprintf("failed the %q check", fe.Tag())
	}
}

// reasonOf returns the message of a typed error without its type prefix
func reasonOf(err error) string {
	e, ok := apperrors.As(err)
	if !ok {
		return err.Error()
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}
