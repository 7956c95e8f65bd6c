// Package models implements the two base classifiers of the habit
// prediction ensemble: batch gradient-descent logistic regression and a
// Gini-split decision tree. Training returns a fresh model value instead of
// mutating shared state, so a previous model stays readable while a new one
// trains.
package models

import (
	"fmt"
	"math"
)

// Model is the shared predict contract. Predict returns a probability in
// [0,1] for any finite input of the trained dimensionality; untrained models
// return 0.5.
type Model interface {
	Predict(features []float64) float64
}

// Sigmoid computes the logistic function with the input clamped to
// [-500, 500] so exponentiation cannot overflow.
func Sigmoid(z float64) float64 {
	if z > 500 {
		z = 500
	} else if z < -500 {
		z = -500
	}
	return 1.0 / (1.0 + math.Exp(-z))
}

func checkShape(features [][]float64, labels []float64) error {
	if len(features) != len(labels) {
		return fmt.Errorf("features/labels length mismatch: %d vs %d", len(features), len(labels))
	}
	if len(features) == 0 {
		return nil
	}
	dim := len(features[0])
	for i, row := range features {
		if len(row) != dim {
			return fmt.Errorf("ragged feature matrix: row %d has %d columns, want %d", i, len(row), dim)
		}
	}
	return nil
}
