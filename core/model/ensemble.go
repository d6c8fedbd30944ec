package model

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"invoice-advisor/core/determinism"
	"invoice-advisor/core/features"
	"invoice-advisor/core/types"
	apperrors "invoice-advisor/internal/errors"
)

// Model names
const (
	NameDiscount = "discount"
	NameTaxRate  = "tax_rate"
	NameDocLevel = "doc_level"
)

// Regressor predicts a number from a feature vector
type Regressor interface {
	Info() Info
	Regress(fv types.FeatureVector) (float64, error)
}

// Classifier predicts a label from a feature vector
type Classifier interface {
	Info() Info
	Classify(fv types.FeatureVector) (string, error)
}

// ArtifactSpec locates one artifact
type ArtifactSpec struct {
	// URI is a path, file:// or s3:// URI
	URI string `json:"uri" envconfig:"URI"`

	// Checksum is an optional sha256 hex digest of the artifact bytes
	Checksum string `json:"checksum,omitempty" envconfig:"CHECKSUM"`
}

// Specs locates the three artifacts of the ensemble
type Specs struct {
	Discount ArtifactSpec `json:"discount" envconfig:"DISCOUNT"`
	TaxRate  ArtifactSpec `json:"tax_rate" envconfig:"TAX_RATE"`
	DocLevel ArtifactSpec `json:"doc_level" envconfig:"DOC_LEVEL"`
}

// Ensemble answers one uniform inference call from three models.
//
// Lifecycle: built once at startup by Load (or NewEnsemble in tests),
// injected into the pipeline, read-only afterwards. Reloading requires a
// restart.
type Ensemble struct {
	discount Regressor
	taxRate  Regressor
	docLevel Classifier

	failures map[string]error
}

// NewEnsemble assembles already-loaded models. A nil member marks that
// model as unavailable.
func NewEnsemble(discount, taxRate Regressor, docLevel Classifier) *Ensemble {
	e := &Ensemble{
		discount: discount,
		taxRate:  taxRate,
		docLevel: docLevel,
		failures: make(map[string]error),
	}
	if discount == nil {
		e.failures[NameDiscount] = fmt.Errorf("not loaded")
	}
	if taxRate == nil {
		e.failures[NameTaxRate] = fmt.Errorf("not loaded")
	}
	if docLevel == nil {
		e.failures[NameDocLevel] = fmt.Errorf("not loaded")
	}
	return e
}

// Load fetches, verifies and decodes the three artifacts concurrently.
// On failure it still returns the ensemble, which then answers every
// Predict with a model-unavailable error; callers that serve traffic must
// treat the returned error as fatal.
func Load(ctx context.Context, source Source, specs Specs, logger *zap.Logger) (*Ensemble, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var discount, taxRate, docLevel *Model
	errs := make(map[string]error)
	errCh := make(chan namedErr, 3)

	// No shared cancellation: each slot records its own outcome.
	var g errgroup.Group
	load := func(name string, spec ArtifactSpec, kind Kind, dst **Model) {
		g.Go(func() error {
			m, err := loadOne(ctx, source, name, spec, kind)
			if err != nil {
				errCh <- namedErr{name: name, err: err}
				return err
			}
			*dst = m
			logger.Info("model loaded",
				zap.String("model", name),
				zap.String("version", m.Info().Version),
				zap.String("uri", spec.URI),
				zap.Int("trees", m.Info().Trees))
			return nil
		})
	}
	load(NameDiscount, specs.Discount, KindRegressor, &discount)
	load(NameTaxRate, specs.TaxRate, KindRegressor, &taxRate)
	load(NameDocLevel, specs.DocLevel, KindClassifier, &docLevel)

	firstErr := g.Wait()
	close(errCh)
	for ne := range errCh {
		errs[ne.name] = ne.err
	}

	e := NewEnsemble(nilIfEmpty(discount), nilIfEmpty(taxRate), classifierOrNil(docLevel))
	for name, err := range errs {
		e.failures[name] = err
	}
	if firstErr != nil {
		err := e.Ready()
		logger.Error("model ensemble unavailable", zap.Error(err))
		return e, err
	}
	return e, nil
}

type namedErr struct {
	name string
	err  error
}

func nilIfEmpty(m *Model) Regressor {
	if m == nil {
		return nil
	}
	return m
}

func classifierOrNil(m *Model) Classifier {
	if m == nil {
		return nil
	}
	return m
}

func loadOne(ctx context.Context, source Source, name string, spec ArtifactSpec, kind Kind) (*Model, error) {
	if spec.URI == "" {
		return nil, fmt.Errorf("no artifact URI configured")
	}
	data, err := source.Fetch(ctx, spec.URI)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", spec.URI, err)
	}

	sum := determinism.Sum(data)
	if spec.Checksum != "" && !sum.Matches(spec.Checksum) {
		return nil, fmt.Errorf("checksum mismatch for %s: got %s", spec.URI, sum.Hex())
	}

	a, err := DecodeArtifact(data)
	if err != nil {
		return nil, err
	}
	if a.Kind != kind {
		return nil, fmt.Errorf("artifact %s is a %s, want %s", spec.URI, a.Kind, kind)
	}
	if len(a.FeatureNames) > 0 {
		if err := features.CheckSchema(a.FeatureNames); err != nil {
			return nil, err
		}
	}
	if kind == KindClassifier {
		for _, c := range a.Classes {
			if _, err := types.ParseDocLevel(c); err != nil {
				return nil, fmt.Errorf("artifact %s: class %q is not a documentation level", spec.URI, c)
			}
		}
	}
	return NewModel(a, sum.Hex(), spec.URI)
}

// Ready reports whether all three models are loaded. The error names the
// first failed model in alphabetical order.
func (e *Ensemble) Ready() error {
	if len(e.failures) == 0 {
		return nil
	}
	names := determinism.SortedKeys(e.failures)
	return apperrors.ModelUnavailable(names[0], e.failures[names[0]]).
		WithContext("unavailable", names)
}

// Predict runs all three models on fv
func (e *Ensemble) Predict(ctx context.Context, fv types.FeatureVector) (*types.RawPrediction, error) {
	if err := e.Ready(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Inference("ensemble", err)
	}

	discount, err := e.discount.Regress(fv)
	if err != nil {
		return nil, asInference(NameDiscount, err)
	}
	taxRate, err := e.taxRate.Regress(fv)
	if err != nil {
		return nil, asInference(NameTaxRate, err)
	}
	label, err := e.docLevel.Classify(fv)
	if err != nil {
		return nil, asInference(NameDocLevel, err)
	}
	level, err := types.ParseDocLevel(label)
	if err != nil {
		return nil, apperrors.Inference(NameDocLevel, fmt.Errorf("predicted unknown class %q", label))
	}

	return &types.RawPrediction{
		DiscountPct:   discount,
		TaxRate:       taxRate,
		DocLevel:      level,
		ModelVersions: e.Versions(),
	}, nil
}

// Versions maps each loaded model to its artifact version
func (e *Ensemble) Versions() map[string]string {
	out := make(map[string]string, 3)
	for _, info := range e.Info() {
		out[info.Name] = info.Version
	}
	return out
}

// Info lists the loaded models sorted by name
func (e *Ensemble) Info() []Info {
	var out []Info
	if e.discount != nil {
		out = append(out, withName(e.discount.Info(), NameDiscount))
	}
	if e.taxRate != nil {
		out = append(out, withName(e.taxRate.Info(), NameTaxRate))
	}
	if e.docLevel != nil {
		out = append(out, withName(e.docLevel.Info(), NameDocLevel))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func withName(info Info, slot string) Info {
	info.Name = slot
	return info
}

func asInference(name string, err error) error {
	if apperrors.IsType(err, apperrors.TypeInference) {
		return err
	}
	return apperrors.Inference(name, err)
}
