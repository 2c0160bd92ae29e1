package ml

import (
	"encoding/json"
	"fmt"
	"os"
)

// artifact is the on-disk classifier document.
type artifact struct {
	Type         string     `json:"type"`
	FeatureNames []string   `json:"feature_names"`
	Intercept    float64    `json:"intercept,omitempty"`
	Coefficients []float64  `json:"coefficients,omitempty"`
	Threshold    *float64   `json:"threshold,omitempty"`
	Nodes        []TreeNode `json:"nodes,omitempty"`
}

type decoder func(a artifact) (Classifier, error)

var decoders = map[string]decoder{
	"logistic_regression": func(a artifact) (Classifier, error) {
		threshold := defaultThreshold
		if a.Threshold != nil {
			threshold = *a.Threshold
		}
		return NewLogisticRegression(a.FeatureNames, a.Intercept, a.Coefficients, threshold)
	},
	"decision_tree": func(a artifact) (Classifier, error) {
		return NewDecisionTree(a.FeatureNames, a.Nodes)
	},
}

// LoadModel reads a classifier artifact from path.
func LoadModel(path string) (Classifier, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}
	model, err := DecodeModel(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return model, nil
}

// DecodeModel builds a classifier from an artifact document.
func DecodeModel(payload []byte) (Classifier, error) {
	var a artifact
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, fmt.Errorf("%w: decode artifact: %v", ErrModelLoad, err)
	}
	decode, ok := decoders[a.Type]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported model type %q", ErrModelLoad, a.Type)
	}
	model, err := decode(a)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}
	return model, nil
}
