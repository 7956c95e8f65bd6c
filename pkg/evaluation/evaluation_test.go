package evaluation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/habitpred/habitpred/pkg/habit"
)

func TestCalculateMetricsCountsAndRanges(t *testing.T) {
	predictions := []float64{1, 1, 0, 0, 1, 0}
	actuals := []float64{1, 0, 0, 1, 1, 0}

	m, err := CalculateMetrics(predictions, actuals, nil)
	require.NoError(t, err)

	require.Equal(t, len(actuals), m.Confusion.Total())
	require.Equal(t, 2, m.Confusion.TruePositives)
	require.Equal(t, 2, m.Confusion.TrueNegatives)
	require.Equal(t, 1, m.Confusion.FalsePositives)
	require.Equal(t, 1, m.Confusion.FalseNegatives)

	require.InDelta(t, 4.0/6.0, m.Accuracy, 1e-9)
	require.InDelta(t, 2.0/3.0, m.Precision, 1e-9)
	require.InDelta(t, 2.0/3.0, m.Recall, 1e-9)
	require.InDelta(t, 2.0/3.0, m.F1, 1e-9)
	require.Equal(t, 3, m.Positive.Support)
	require.Equal(t, 3, m.Negative.Support)
	require.InDelta(t, m.MacroF1, m.WeightedF1, 1e-9, "balanced classes equate macro and weighted")
	require.InDelta(t, 0.5, m.ROCAUC, 1e-9, "no probabilities defaults AUC to 0.5")
}

func TestCalculateMetricsZeroDenominators(t *testing.T) {
	// Never predicts positive: precision denominator is 0.
	m, err := CalculateMetrics([]float64{0, 0, 0}, []float64{1, 1, 0}, nil)
	require.NoError(t, err)
	require.Zero(t, m.Precision)
	require.Zero(t, m.Recall)
	require.Zero(t, m.F1)
	require.False(t, m.Accuracy < 0 || m.Accuracy > 1)
}

func TestCalculateMetricsLengthMismatch(t *testing.T) {
	_, err := CalculateMetrics([]float64{1}, []float64{1, 0}, nil)
	require.Error(t, err)
}

func TestROCAUCPerfectSeparation(t *testing.T) {
	probs := []float64{0.9, 0.8, 0.7, 0.3, 0.2, 0.1}
	actuals := []float64{1, 1, 1, 0, 0, 0}
	require.InDelta(t, 1.0, ROCAUC(probs, actuals), 1e-9)
}

func TestROCAUCInverted(t *testing.T) {
	probs := []float64{0.1, 0.2, 0.8, 0.9}
	actuals := []float64{1, 1, 0, 0}
	require.InDelta(t, 0.0, ROCAUC(probs, actuals), 1e-9)
}

func TestROCAUCAllTied(t *testing.T) {
	probs := []float64{0.5, 0.5, 0.5, 0.5}
	actuals := []float64{1, 0, 1, 0}
	require.InDelta(t, 0.5, ROCAUC(probs, actuals), 1e-9)
}

func TestROCAUCDegenerateSingleClass(t *testing.T) {
	require.InDelta(t, 0.5, ROCAUC([]float64{0.9, 0.1}, []float64{1, 1}), 1e-9)
	require.InDelta(t, 0.5, ROCAUC(nil, nil), 1e-9)
}

// syntheticSet builds N separable samples alternating classes.
func syntheticSet(n int) ([][]float64, []float64) {
	features := make([][]float64, n)
	labels := make([]float64, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			features[i] = []float64{0.1, 0.9}
			labels[i] = 0
		} else {
			features[i] = []float64{0.9, 0.1}
			labels[i] = 1
		}
	}
	return features, labels
}

func TestCrossValidateFoldCounts(t *testing.T) {
	features, labels := syntheticSet(50)

	result, err := CrossValidate(ModelConfig{}, features, labels, 5)
	require.NoError(t, err)

	for _, scores := range [][]float64{result.Logistic, result.Tree, result.Ensemble} {
		require.Len(t, scores, 5)
		for _, s := range scores {
			require.GreaterOrEqual(t, s, 0.0)
			require.LessOrEqual(t, s, 1.0)
		}
	}
}

func TestCrossValidateTooFewSamples(t *testing.T) {
	features, labels := syntheticSet(3)
	_, err := CrossValidate(ModelConfig{}, features, labels, 5)
	require.Error(t, err)
}

func TestLearningCurveSkipsTinySizes(t *testing.T) {
	features, labels := syntheticSet(40)

	curve := LearningCurve(ModelConfig{}, features, labels, nil)
	require.NotEmpty(t, curve)
	for _, p := range curve {
		require.GreaterOrEqual(t, p.Samples, 10)
		require.GreaterOrEqual(t, p.TrainAccuracy, 0.0)
		require.LessOrEqual(t, p.TrainAccuracy, 1.0)
		require.GreaterOrEqual(t, p.ValidationAccuracy, 0.0)
		require.LessOrEqual(t, p.ValidationAccuracy, 1.0)
	}
	// 0.1 and 0.2 of 40 are below the minimum sample threshold.
	require.Greater(t, curve[0].Fraction, 0.2)
}

func TestLearningCurveEmptyInput(t *testing.T) {
	require.Empty(t, LearningCurve(ModelConfig{}, nil, nil, nil))
}

func TestAssessDataQuality(t *testing.T) {
	h := habit.Habit{
		ID:            "h1",
		Name:          "Read",
		Category:      "learning",
		PreferredTime: habit.TimeEvening,
		CreatedAt:     time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		Active:        true,
	}
	sleep := 7.5
	logs := []habit.Log{
		{HabitID: "h1", Date: "2025-06-01", Completed: true, Mood: habit.MoodGood, SleepHours: &sleep, Weather: habit.WeatherSunny},
		{HabitID: "h1", Date: "2025-06-02", Completed: false},
		{HabitID: "h1", Date: "2025-06-03", Completed: true},
	}

	q := AssessDataQuality([]habit.Habit{h}, logs)
	require.Equal(t, 3, q.TotalSamples)
	require.Equal(t, 2, q.PositiveLabels)
	require.Equal(t, 1, q.NegativeLabels)
	require.Greater(t, q.MissingRate, 0.0)
	require.LessOrEqual(t, q.MissingRate, 1.0)
	require.GreaterOrEqual(t, q.OutlierRate, 0.0)
}

func TestAssessDataQualityEmpty(t *testing.T) {
	q := AssessDataQuality(nil, nil)
	require.Zero(t, q.TotalSamples)
	require.Zero(t, q.MissingRate)
	require.Zero(t, q.OutlierRate)
}
