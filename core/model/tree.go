package model

import (
	"fmt"
	"math"

	"invoice-advisor/core/types"
	apperrors "invoice-advisor/internal/errors"
)

// Info describes a loaded model
type Info struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Kind         Kind     `json:"kind"`
	FeatureCount int      `json:"feature_count"`
	Trees        int      `json:"trees"`
	Classes      []string `json:"classes,omitempty"`
	Checksum     string   `json:"checksum"`
	URI          string   `json:"uri,omitempty"`
}

// Model evaluates a validated artifact
type Model struct {
	artifact *Artifact
	info     Info
}

// NewModel wraps a validated artifact
func NewModel(a *Artifact, checksum, uri string) (*Model, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &Model{
		artifact: a,
		info: Info{
			Name:         a.Name,
			Version:      a.Version,
			Kind:         a.Kind,
			FeatureCount: a.FeatureCount,
			Trees:        len(a.Trees),
			Classes:      append([]string(nil), a.Classes...),
			Checksum:     checksum,
			URI:          uri,
		},
	}, nil
}

// Info returns model metadata
func (m *Model) Info() Info {
	return m.info
}

// Regress returns the mean leaf value across trees
func (m *Model) Regress(fv types.FeatureVector) (float64, error) {
	if m.artifact.Kind != KindRegressor {
		return 0, apperrors.Inference(m.info.Name, fmt.Errorf("model is a %s, not a regressor", m.artifact.Kind))
	}
	if err := m.checkShape(fv); err != nil {
		return 0, err
	}

	var sum float64
	for i := range m.artifact.Trees {
		sum += m.walk(i, fv).Value
	}
	out := sum / float64(len(m.artifact.Trees))
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, apperrors.Inference(m.info.Name, fmt.Errorf("non-finite output %v", out))
	}
	return out, nil
}

// Classify returns the class with the most summed votes. Ties resolve to
// the lowest class index.
func (m *Model) Classify(fv types.FeatureVector) (string, error) {
	if m.artifact.Kind != KindClassifier {
		return "", apperrors.Inference(m.info.Name, fmt.Errorf("model is a %s, not a classifier", m.artifact.Kind))
	}
	if err := m.checkShape(fv); err != nil {
		return "", err
	}

	totals := make([]float64, len(m.artifact.Classes))
	for i := range m.artifact.Trees {
		for c, v := range m.walk(i, fv).Votes {
			totals[c] += v
		}
	}
	best := 0
	for c := 1; c < len(totals); c++ {
		if totals[c] > totals[best] {
			best = c
		}
	}
	return m.artifact.Classes[best], nil
}

func (m *Model) checkShape(fv types.FeatureVector) error {
	if fv.Len() != m.artifact.FeatureCount {
		return apperrors.Inference(m.info.Name,
			fmt.Errorf("feature vector has %d values, model expects %d", fv.Len(), m.artifact.FeatureCount)).
			WithContext("got", fv.Len()).
			WithContext("want", m.artifact.FeatureCount)
	}
	return nil
}

func (m *Model) walk(tree int, fv types.FeatureVector) *Node {
	nodes := m.artifact.Trees[tree].Nodes
	i := 0
	for !nodes[i].Leaf {
		n := &nodes[i]
		if fv[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return &nodes[i]
}
