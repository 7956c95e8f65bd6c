package evaluation

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/habitpred/habitpred/pkg/features"
	"github.com/habitpred/habitpred/pkg/habit"
)

// DataQuality is a snapshot of how trainable the current dataset is.
type DataQuality struct {
	TotalSamples   int     `json:"total_samples"`
	PositiveLabels int     `json:"positive_labels"`
	NegativeLabels int     `json:"negative_labels"`
	MissingRate    float64 `json:"missing_rate"`
	OutlierRate    float64 `json:"outlier_rate"`
}

// AssessDataQuality engineers the training set and reports sample count,
// class balance, the fraction of contextual feature slots left at their
// missing-value defaults, and the IQR-rule outlier rate of the success-rate
// column.
func AssessDataQuality(habits []habit.Habit, logs []habit.Log) DataQuality {
	td := features.CreateTrainingData(habits, logs)

	q := DataQuality{TotalSamples: len(td.Features)}
	if q.TotalSamples == 0 {
		return q
	}

	for _, l := range td.Labels {
		if l > 0.5 {
			q.PositiveLabels++
		} else {
			q.NegativeLabels++
		}
	}

	q.MissingRate = missingRate(td.Features)
	q.OutlierRate = iqrOutlierRate(column(td.Features, features.IdxSuccessRate))
	return q
}

// missingRate counts contextual slots (mood, sleep, energy, stress, weather)
// still at their documented defaults. Weather's one-hot counts as one slot,
// missing when all four bits are zero.
func missingRate(featureMatrix [][]float64) float64 {
	const slotsPerSample = 5
	missing := 0
	for _, row := range featureMatrix {
		if row[features.IdxMood] == features.DefaultMood {
			missing++
		}
		if row[features.IdxSleepHours] == features.DefaultSleepHours {
			missing++
		}
		if row[features.IdxEnergy] == features.DefaultEnergy {
			missing++
		}
		if row[features.IdxStress] == features.DefaultStress {
			missing++
		}
		if row[features.IdxWeatherSunny] == 0 && row[features.IdxWeatherCloudy] == 0 &&
			row[features.IdxWeatherRainy] == 0 && row[features.IdxWeatherSnowy] == 0 {
			missing++
		}
	}
	return float64(missing) / float64(len(featureMatrix)*slotsPerSample)
}

// iqrOutlierRate applies the 1.5×IQR fence rule to one feature column.
func iqrOutlierRate(col []float64) float64 {
	if len(col) < 4 {
		return 0
	}
	sorted := append([]float64(nil), col...)
	sort.Float64s(sorted)

	q1 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
	iqr := q3 - q1
	lo := q1 - 1.5*iqr
	hi := q3 + 1.5*iqr

	outliers := 0
	for _, v := range col {
		if v < lo || v > hi {
			outliers++
		}
	}
	return float64(outliers) / float64(len(col))
}

func column(featureMatrix [][]float64, idx int) []float64 {
	col := make([]float64, len(featureMatrix))
	for i, row := range featureMatrix {
		if idx < len(row) {
			col[i] = row[idx]
		}
	}
	return col
}
