package ml

import (
	"errors"
	"fmt"
	"math"
)

const defaultThreshold = 0.5

// LogisticRegression scores rows with a fitted linear model and a sigmoid link.
type LogisticRegression struct {
	features     []string
	intercept    float64
	coefficients []float64
	threshold    float64
}

func NewLogisticRegression(features []string, intercept float64, coefficients []float64, threshold float64) (*LogisticRegression, error) {
	if len(features) == 0 {
		return nil, errors.New("logistic regression has no features")
	}
	if len(coefficients) != len(features) {
		return nil, fmt.Errorf("got %d coefficients for %d features", len(coefficients), len(features))
	}
	if threshold <= 0 || threshold >= 1 || math.IsNaN(threshold) {
		return nil, fmt.Errorf("threshold %v is outside (0, 1)", threshold)
	}
	return &LogisticRegression{
		features:     append([]string(nil), features...),
		intercept:    intercept,
		coefficients: append([]float64(nil), coefficients...),
		threshold:    threshold,
	}, nil
}

func (lr *LogisticRegression) FeatureNames() []string {
	return append([]string(nil), lr.features...)
}

func (lr *LogisticRegression) Predict(features []float64) (int, float64, error) {
	if len(features) != len(lr.coefficients) {
		return 0, 0, fmt.Errorf("expected %d features, got %d", len(lr.coefficients), len(features))
	}
	z := lr.intercept
	for i, w := range lr.coefficients {
		z += w * features[i]
	}
	p := 1 / (1 + math.Exp(-z))
	if p >= lr.threshold {
		return 1, p, nil
	}
	return 0, p, nil
}
