// Package engine provides the recommendation pipeline.
// CLI and HTTP are thin wrappers around this engine.
//
// A request moves through four stages in a fixed order:
//  1. Encode      (ServiceContext -> FeatureVector)
//  2. Predict     (FeatureVector -> RawPrediction)
//  3. PostProcess (RawPrediction -> BoundedPrediction)
//  4. Assemble    (BoundedPrediction -> Recommendation)
//
// The engine holds no per-request state. Its components are built once and
// shared read-only, so one Engine serves concurrent requests.
package engine

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"invoice-advisor/core/guards"
	"invoice-advisor/core/types"
	apperrors "invoice-advisor/internal/errors"
	"invoice-advisor/internal/metrics"
)

// Stage names a pipeline step
type Stage int

const (
	StageEncode Stage = iota
	StagePredict
	StagePostProcess
	StageAssemble
)

// String returns the stage name
func (s Stage) String() string {
	switch s {
	case StageEncode:
		return "encode"
	case StagePredict:
		return "predict"
	case StagePostProcess:
		return "post_process"
	case StageAssemble:
		return "assemble"
	default:
		return "unknown"
	}
}

// Encoder turns a context into a feature vector
type Encoder interface {
	Encode(sc *types.ServiceContext) (types.FeatureVector, error)
}

// Predictor runs the model ensemble
type Predictor interface {
	Predict(ctx context.Context, fv types.FeatureVector) (*types.RawPrediction, error)
}

// PostProcessor bounds raw predictions with business rules
type PostProcessor interface {
	Apply(raw *types.RawPrediction, sc *types.ServiceContext) (*types.BoundedPrediction, error)
}

// Assembler composes the final recommendation
type Assembler interface {
	Assemble(bp *types.BoundedPrediction, sc *types.ServiceContext) (*types.Recommendation, error)
}

// Engine is the primary API for recommendations
type Engine struct {
	encoder   Encoder
	predictor Predictor
	policy    PostProcessor
	assembler Assembler

	metrics *metrics.Metrics
	tracer  trace.Tracer
	logger  *zap.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithMetrics records stage timings and outcomes
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine wires the four components. All of them are required; a nil
// component is a programming error and panics.
func NewEngine(encoder Encoder, predictor Predictor, policy PostProcessor, assembler Assembler, opts ...Option) *Engine {
	if encoder == nil || predictor == nil || policy == nil || assembler == nil {
		panic("engine: encoder, predictor, post-processor and assembler are all required")
	}
	e := &Engine{
		encoder:   encoder,
		predictor: predictor,
		policy:    policy,
		assembler: assembler,
		tracer:    otel.Tracer("invoice-advisor/core/engine"),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recommend runs the pipeline for sc
func (e *Engine) Recommend(ctx context.Context, sc *types.ServiceContext) (*types.Recommendation, error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "engine.Recommend")
	defer span.End()

	rec, err := e.run(ctx, sc)

	outcome := OutcomeOf(err)
	e.metrics.RecordOutcome(outcome)
	span.SetAttributes(attribute.String("advisor.outcome", outcome))

	fields := []zap.Field{
		zap.String("outcome", outcome),
		zap.Duration("duration", time.Since(start)),
	}
	if sc != nil {
		fields = append(fields,
			zap.String("service_category", string(sc.ServiceCategory)),
			zap.String("client_industry", string(sc.ClientIndustry)))
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Warn("recommendation failed", append(fields, zap.Error(err))...)
		return nil, err
	}

	for _, adj := range rec.Adjustments {
		e.metrics.RecordAdjustment(adj.Rule)
	}
	span.SetAttributes(attribute.String("advisor.fingerprint", rec.Fingerprint))
	e.logger.Info("recommendation produced", append(fields,
		zap.String("fingerprint", rec.Fingerprint),
		zap.String("discount_pct", rec.DiscountPct.String()),
		zap.String("tax_rate", rec.TaxRate.String()),
		zap.String("doc_level", string(rec.DocLevel)),
		zap.Int("adjustments", len(rec.Adjustments)))...)
	return rec, nil
}

func (e *Engine) run(ctx context.Context, sc *types.ServiceContext) (*types.Recommendation, error) {
	if sc == nil {
		return nil, apperrors.Validation("service context is required")
	}

	fv, err := runStage(ctx, e, StageEncode, func(context.Context) (types.FeatureVector, error) {
		return e.encoder.Encode(sc)
	})
	if err != nil {
		return nil, err
	}

	raw, err := runStage(ctx, e, StagePredict, func(ctx context.Context) (*types.RawPrediction, error) {
		return e.predictor.Predict(ctx, fv)
	})
	if err != nil {
		return nil, err
	}

	bp, err := runStage(ctx, e, StagePostProcess, func(context.Context) (*types.BoundedPrediction, error) {
		bp, err := e.policy.Apply(raw, sc)
		if err != nil {
			return nil, err
		}
		return bp, guards.CheckBounded(bp)
	})
	if err != nil {
		return nil, err
	}

	return runStage(ctx, e, StageAssemble, func(context.Context) (*types.Recommendation, error) {
		rec, err := e.assembler.Assemble(bp, sc)
		if err != nil {
			return nil, err
		}
		return rec, guards.CheckRecommendation(rec)
	})
}

func runStage[T any](ctx context.Context, e *Engine, stage Stage, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := e.tracer.Start(ctx, "engine."+stage.String())
	defer span.End()

	start := time.Now()
	out, err := fn(ctx)
	e.metrics.ObserveStage(stage.String(), time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("advisor.error_type", string(apperrors.TypeOf(err))))
	}
	return out, err
}

// OutcomeOf classifies a pipeline error for metrics and responses
func OutcomeOf(err error) string {
	if err == nil {
		return metrics.OutcomeOK
	}
	switch apperrors.TypeOf(err) {
	case apperrors.TypeValidation:
		return metrics.OutcomeValidation
	case apperrors.TypePolicyViolation:
		return metrics.OutcomePolicyViolation
	case apperrors.TypeInference:
		return metrics.OutcomeInference
	case apperrors.TypeModelUnavailable:
		return metrics.OutcomeModelUnavailable
	default:
		return metrics.OutcomeError
	}
}
