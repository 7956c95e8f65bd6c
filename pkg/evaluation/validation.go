package evaluation

import (
	"fmt"

	"github.com/habitpred/habitpred/pkg/models"
)

// DefaultFolds is the cross-validation fold count when none is given.
const DefaultFolds = 5

// CrossValidationResult carries one accuracy score per fold for each of the
// base models and their 50/50 ensemble.
type CrossValidationResult struct {
	Logistic []float64 `json:"logistic"`
	Tree     []float64 `json:"tree"`
	Ensemble []float64 `json:"ensemble"`
}

// ModelConfig bundles the hyperparameters for fresh per-fold model
// instances.
type ModelConfig struct {
	Logistic models.LogisticConfig
	Tree     models.TreeConfig
}

// CrossValidate runs contiguous (unshuffled) k-fold validation: fold i takes
// a contiguous slice as the test set and trains fresh models on the rest.
// Fold accuracy uses probabilities thresholded at 0.5; the ensemble is the
// plain average of the two models.
func CrossValidate(cfg ModelConfig, features [][]float64, labels []float64, folds int) (CrossValidationResult, error) {
	if len(features) != len(labels) {
		return CrossValidationResult{}, fmt.Errorf("features/labels length mismatch: %d vs %d", len(features), len(labels))
	}
	if folds <= 0 {
		folds = DefaultFolds
	}
	n := len(features)
	if n < folds {
		return CrossValidationResult{}, fmt.Errorf("%d samples cannot fill %d folds", n, folds)
	}

	var result CrossValidationResult
	for i := 0; i < folds; i++ {
		lo := i * n / folds
		hi := (i + 1) * n / folds

		trainX := make([][]float64, 0, n-(hi-lo))
		trainY := make([]float64, 0, n-(hi-lo))
		trainX = append(trainX, features[:lo]...)
		trainX = append(trainX, features[hi:]...)
		trainY = append(trainY, labels[:lo]...)
		trainY = append(trainY, labels[hi:]...)

		logistic, err := models.TrainLogistic(cfg.Logistic, trainX, trainY)
		if err != nil {
			return CrossValidationResult{}, err
		}
		tree, err := models.TrainTree(cfg.Tree, trainX, trainY)
		if err != nil {
			return CrossValidationResult{}, err
		}

		var lHits, tHits, eHits int
		for s := lo; s < hi; s++ {
			pl := logistic.Predict(features[s])
			pt := tree.Predict(features[s])
			actual := labels[s] > 0.5

			if (pl > 0.5) == actual {
				lHits++
			}
			if (pt > 0.5) == actual {
				tHits++
			}
			if ((pl+pt)/2 > 0.5) == actual {
				eHits++
			}
		}

		size := float64(hi - lo)
		result.Logistic = append(result.Logistic, float64(lHits)/size)
		result.Tree = append(result.Tree, float64(tHits)/size)
		result.Ensemble = append(result.Ensemble, float64(eHits)/size)
	}

	return result, nil
}

// Learning curve defaults.
var DefaultCurveSizes = []float64{0.1, 0.2, 0.4, 0.6, 0.8, 1.0}

const minCurveSamples = 10

// LearningPoint is one learning-curve measurement.
type LearningPoint struct {
	Fraction           float64 `json:"fraction"`
	Samples            int     `json:"samples"`
	TrainAccuracy      float64 `json:"train_accuracy"`
	ValidationAccuracy float64 `json:"validation_accuracy"`
}

// LearningCurve trains a fresh 50/50 ensemble on growing prefixes of the
// sample set (80/20 inner split, original order) and reports train and
// validation accuracy per size. Sizes too small to measure are skipped.
func LearningCurve(cfg ModelConfig, features [][]float64, labels []float64, sizes []float64) []LearningPoint {
	if len(features) != len(labels) {
		return nil
	}
	if len(sizes) == 0 {
		sizes = DefaultCurveSizes
	}

	var curve []LearningPoint
	for _, fraction := range sizes {
		n := int(fraction * float64(len(features)))
		if n < minCurveSamples {
			continue
		}
		trainN := int(0.8 * float64(n))
		if trainN == 0 || trainN == n {
			continue
		}

		logistic, err := models.TrainLogistic(cfg.Logistic, features[:trainN], labels[:trainN])
		if err != nil {
			continue
		}
		tree, err := models.TrainTree(cfg.Tree, features[:trainN], labels[:trainN])
		if err != nil {
			continue
		}

		curve = append(curve, LearningPoint{
			Fraction:           fraction,
			Samples:            n,
			TrainAccuracy:      ensembleAccuracy(logistic, tree, features[:trainN], labels[:trainN]),
			ValidationAccuracy: ensembleAccuracy(logistic, tree, features[trainN:n], labels[trainN:n]),
		})
	}

	return curve
}

func ensembleAccuracy(logistic *models.Logistic, tree *models.Tree, features [][]float64, labels []float64) float64 {
	if len(features) == 0 {
		return 0
	}
	hits := 0
	for i, x := range features {
		p := (logistic.Predict(x) + tree.Predict(x)) / 2
		if (p > 0.5) == (labels[i] > 0.5) {
			hits++
		}
	}
	return float64(hits) / float64(len(features))
}
