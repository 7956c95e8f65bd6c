package evaluation

import "time"

// PerformanceReport is the immutable snapshot assembled after one training
// run: held-out metrics for both base models and the ensemble, plus the
// full-set diagnostics.
type PerformanceReport struct {
	Logistic Metrics `json:"logistic"`
	Tree     Metrics `json:"tree"`
	Ensemble Metrics `json:"ensemble"`

	CrossValidation   CrossValidationResult `json:"cross_validation"`
	LearningCurve     []LearningPoint       `json:"learning_curve"`
	FeatureImportance map[string]float64    `json:"feature_importance"`
	DataQuality       DataQuality           `json:"data_quality"`

	TrainSamples int       `json:"train_samples"`
	TestSamples  int       `json:"test_samples"`
	GeneratedAt  time.Time `json:"generated_at"`
}
