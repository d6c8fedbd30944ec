// Package model adapts the three pre-trained pricing models behind one
// inference call.
//
// Artifacts are decision-tree ensembles exported by the training job as
// JSON. They are loaded once at process start and never mutated, so a
// loaded Ensemble is safe for concurrent use without locking.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Kind is the prediction task of an artifact
type Kind string

const (
	// KindRegressor predicts a number (mean of tree leaf values)
	KindRegressor Kind = "regressor"

	// KindClassifier predicts a label (arg-max of summed leaf votes)
	KindClassifier Kind = "classifier"
)

// Artifact is the serialized form of a trained tree ensemble
type Artifact struct {
	// Name is the model name ("discount", "tax_rate", "doc_level")
	Name string `json:"name"`

	// Version identifies the training run
	Version string `json:"version"`

	// Kind is the prediction task
	Kind Kind `json:"kind"`

	// FeatureCount is the input dimensionality the model was trained on
	FeatureCount int `json:"feature_count"`

	// FeatureNames optionally records the training column order
	FeatureNames []string `json:"feature_names,omitempty"`

	// Classes lists classifier labels; votes are indexed by position
	Classes []string `json:"classes,omitempty"`

	// Trees are the ensemble members
	Trees []Tree `json:"trees"`
}

// Tree is a binary decision tree stored as a flat node array rooted at 0
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is a split or a leaf. Splits send x[Feature] <= Threshold left.
type Node struct {
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`

	Leaf  bool      `json:"leaf,omitempty"`
	Value float64   `json:"value,omitempty"`
	Votes []float64 `json:"votes,omitempty"`
}

// DecodeArtifact parses and validates an artifact
func DecodeArtifact(data []byte) (*Artifact, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var a Artifact
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Validate checks structural integrity. Child indices must point strictly
// forward, which guarantees every walk terminates at a leaf.
func (a *Artifact) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("artifact name is required")
	}
	if a.Version == "" {
		return fmt.Errorf("artifact %s: version is required", a.Name)
	}
	if a.FeatureCount <= 0 {
		return fmt.Errorf("artifact %s: feature_count must be positive", a.Name)
	}
	if len(a.FeatureNames) > 0 && len(a.FeatureNames) != a.FeatureCount {
		return fmt.Errorf("artifact %s: %d feature names for %d features", a.Name, len(a.FeatureNames), a.FeatureCount)
	}
	switch a.Kind {
	case KindRegressor:
	case KindClassifier:
		if len(a.Classes) < 2 {
			return fmt.Errorf("artifact %s: classifier needs at least two classes", a.Name)
		}
	default:
		return fmt.Errorf("artifact %s: unknown kind %q", a.Name, a.Kind)
	}
	if len(a.Trees) == 0 {
		return fmt.Errorf("artifact %s: no trees", a.Name)
	}

	for t, tree := range a.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("artifact %s: tree %d is empty", a.Name, t)
		}
		for i, n := range tree.Nodes {
			if err := a.validateNode(tree, i, n); err != nil {
				return fmt.Errorf("artifact %s: tree %d node %d: %w", a.Name, t, i, err)
			}
		}
	}
	return nil
}

func (a *Artifact) validateNode(tree Tree, i int, n Node) error {
	if n.Leaf {
		if a.Kind == KindClassifier {
			if len(n.Votes) != len(a.Classes) {
				return fmt.Errorf("%d votes for %d classes", len(n.Votes), len(a.Classes))
			}
			for _, v := range n.Votes {
				if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
					return fmt.Errorf("votes must be finite and non-negative")
				}
			}
			return nil
		}
		if math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
			return fmt.Errorf("leaf value must be finite")
		}
		return nil
	}

	if n.Feature < 0 || n.Feature >= a.FeatureCount {
		return fmt.Errorf("feature %d out of range [0,%d)", n.Feature, a.FeatureCount)
	}
	if math.IsNaN(n.Threshold) {
		return fmt.Errorf("threshold is NaN")
	}
	for _, child := range []int{n.Left, n.Right} {
		if child <= i || child >= len(tree.Nodes) {
			return fmt.Errorf("child %d must be after %d and within %d nodes", child, i, len(tree.Nodes))
		}
	}
	return nil
}
