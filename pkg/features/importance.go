package features

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Importance scores each feature column by the absolute Pearson correlation
// between the column and the labels. Constant columns (including constant
// labels) score 0.
func Importance(featureMatrix [][]float64, labels []float64) map[string]float64 {
	out := make(map[string]float64, VectorLen)
	for _, name := range featureNames {
		out[name] = 0
	}
	if len(featureMatrix) == 0 || len(featureMatrix) != len(labels) {
		return out
	}
	if isConstant(labels) {
		return out
	}

	col := make([]float64, len(featureMatrix))
	for j := 0; j < VectorLen; j++ {
		for i, row := range featureMatrix {
			if j < len(row) {
				col[i] = row[j]
			} else {
				col[i] = 0
			}
		}
		if isConstant(col) {
			continue
		}
		r := stat.Correlation(col, labels, nil)
		if math.IsNaN(r) {
			continue
		}
		out[featureNames[j]] = math.Abs(r)
	}
	return out
}

func isConstant(xs []float64) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i] != xs[0] {
			return false
		}
	}
	return true
}
