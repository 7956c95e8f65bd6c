package models

// Logistic regression hyperparameter defaults.
const (
	DefaultLearningRate = 0.01
	DefaultIterations   = 1000
)

// LogisticConfig holds logistic regression hyperparameters. Zero values take
// the defaults.
type LogisticConfig struct {
	LearningRate float64
	Iterations   int
}

func (c LogisticConfig) withDefaults() LogisticConfig {
	if c.LearningRate <= 0 {
		c.LearningRate = DefaultLearningRate
	}
	if c.Iterations <= 0 {
		c.Iterations = DefaultIterations
	}
	return c
}

// Logistic is a trained logistic regression model. The zero value (and a nil
// pointer) behave as untrained: zero weights and bias, so Predict returns
// sigmoid(0) = 0.5.
type Logistic struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// TrainLogistic fits a logistic regression by full-batch gradient descent.
// Weights start at zero. An empty training set is a no-op and yields the
// untrained model. A shape mismatch is the only error.
func TrainLogistic(cfg LogisticConfig, features [][]float64, labels []float64) (*Logistic, error) {
	if err := checkShape(features, labels); err != nil {
		return nil, err
	}
	if len(features) == 0 {
		return &Logistic{}, nil
	}
	cfg = cfg.withDefaults()

	n := float64(len(features))
	dim := len(features[0])
	weights := make([]float64, dim)
	bias := 0.0

	gradW := make([]float64, dim)
	for iter := 0; iter < cfg.Iterations; iter++ {
		for j := range gradW {
			gradW[j] = 0
		}
		gradB := 0.0

		for i, row := range features {
			z := bias
			for j, x := range row {
				z += weights[j] * x
			}
			diff := Sigmoid(z) - labels[i]
			for j, x := range row {
				gradW[j] += diff * x
			}
			gradB += diff
		}

		for j := range weights {
			weights[j] -= cfg.LearningRate * gradW[j] / n
		}
		bias -= cfg.LearningRate * gradB / n
	}

	return &Logistic{Weights: weights, Bias: bias}, nil
}

// Predict returns sigmoid(w·x + b). Extra input dimensions beyond the
// trained weights are ignored; missing ones contribute nothing, so an
// untrained model always answers 0.5.
func (m *Logistic) Predict(features []float64) float64 {
	if m == nil {
		return 0.5
	}
	z := m.Bias
	for j, w := range m.Weights {
		if j >= len(features) {
			break
		}
		z += w * features[j]
	}
	return Sigmoid(z)
}
