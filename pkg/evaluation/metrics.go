// Package evaluation computes offline quality measures for the habit
// prediction models: classification metrics, ROC AUC, cross-validation,
// learning curves and data-quality diagnostics. All numerical edge cases
// resolve to documented sentinels instead of NaN.
package evaluation

import (
	"fmt"
	"sort"
)

// ConfusionMatrix holds the four binary outcome counts.
type ConfusionMatrix struct {
	TruePositives  int `json:"true_positives"`
	TrueNegatives  int `json:"true_negatives"`
	FalsePositives int `json:"false_positives"`
	FalseNegatives int `json:"false_negatives"`
}

// Total is the number of scored samples.
func (c ConfusionMatrix) Total() int {
	return c.TruePositives + c.TrueNegatives + c.FalsePositives + c.FalseNegatives
}

// ClassMetrics are precision/recall/F1 for one class.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Metrics is the full classification report for one model on one sample set.
type Metrics struct {
	Accuracy  float64         `json:"accuracy"`
	Precision float64         `json:"precision"` // positive class
	Recall    float64         `json:"recall"`
	F1        float64         `json:"f1"`
	ROCAUC    float64         `json:"roc_auc"`
	Confusion ConfusionMatrix `json:"confusion"`

	Positive ClassMetrics `json:"positive"`
	Negative ClassMetrics `json:"negative"`

	MacroPrecision    float64 `json:"macro_precision"`
	MacroRecall       float64 `json:"macro_recall"`
	MacroF1           float64 `json:"macro_f1"`
	WeightedPrecision float64 `json:"weighted_precision"`
	WeightedRecall    float64 `json:"weighted_recall"`
	WeightedF1        float64 `json:"weighted_f1"`
}

// CalculateMetrics scores hard predictions against actual labels, both in
// {0,1}. Probabilities are optional; when supplied (same length) they feed
// the ROC AUC, otherwise AUC defaults to 0.5. Zero denominators yield 0, not
// NaN. Mismatched prediction/actual lengths are the only error.
func CalculateMetrics(predictions, actuals, probabilities []float64) (Metrics, error) {
	if len(predictions) != len(actuals) {
		return Metrics{}, fmt.Errorf("predictions/actuals length mismatch: %d vs %d", len(predictions), len(actuals))
	}

	var cm ConfusionMatrix
	for i := range predictions {
		pred := predictions[i] > 0.5
		actual := actuals[i] > 0.5
		switch {
		case pred && actual:
			cm.TruePositives++
		case !pred && !actual:
			cm.TrueNegatives++
		case pred && !actual:
			cm.FalsePositives++
		default:
			cm.FalseNegatives++
		}
	}

	m := Metrics{Confusion: cm, ROCAUC: 0.5}
	n := cm.Total()
	if n == 0 {
		return m, nil
	}

	m.Accuracy = float64(cm.TruePositives+cm.TrueNegatives) / float64(n)

	m.Positive = classMetrics(cm.TruePositives, cm.FalsePositives, cm.FalseNegatives,
		cm.TruePositives+cm.FalseNegatives)
	// Mirror for the negative class: negatives are "positives" by symmetry.
	m.Negative = classMetrics(cm.TrueNegatives, cm.FalseNegatives, cm.FalsePositives,
		cm.TrueNegatives+cm.FalsePositives)

	m.Precision = m.Positive.Precision
	m.Recall = m.Positive.Recall
	m.F1 = m.Positive.F1

	m.MacroPrecision = (m.Positive.Precision + m.Negative.Precision) / 2
	m.MacroRecall = (m.Positive.Recall + m.Negative.Recall) / 2
	m.MacroF1 = (m.Positive.F1 + m.Negative.F1) / 2

	posW := float64(m.Positive.Support) / float64(n)
	negW := float64(m.Negative.Support) / float64(n)
	m.WeightedPrecision = posW*m.Positive.Precision + negW*m.Negative.Precision
	m.WeightedRecall = posW*m.Positive.Recall + negW*m.Negative.Recall
	m.WeightedF1 = posW*m.Positive.F1 + negW*m.Negative.F1

	if len(probabilities) == len(actuals) && len(probabilities) > 0 {
		m.ROCAUC = ROCAUC(probabilities, actuals)
	}

	return m, nil
}

func classMetrics(tp, fp, fn, support int) ClassMetrics {
	cm := ClassMetrics{Support: support}
	cm.Precision = safeRatio(tp, tp+fp)
	cm.Recall = safeRatio(tp, tp+fn)
	if cm.Precision+cm.Recall > 0 {
		cm.F1 = 2 * cm.Precision * cm.Recall / (cm.Precision + cm.Recall)
	}
	return cm
}

func safeRatio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// ROCAUC integrates the ROC step curve by the trapezoidal rule as the
// classification threshold sweeps from the highest probability down. Tied
// probabilities advance the curve as a single step. Single-class input
// returns 0.5 by convention.
func ROCAUC(probabilities, actuals []float64) float64 {
	if len(probabilities) != len(actuals) || len(actuals) == 0 {
		return 0.5
	}

	pos, neg := 0, 0
	for _, a := range actuals {
		if a > 0.5 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0.5
	}

	order := make([]int, len(probabilities))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return probabilities[order[a]] > probabilities[order[b]]
	})

	auc := 0.0
	tp, fp := 0, 0
	prevTPR, prevFPR := 0.0, 0.0

	i := 0
	for i < len(order) {
		// Consume the whole tie group at this probability as one step.
		p := probabilities[order[i]]
		for i < len(order) && probabilities[order[i]] == p {
			if actuals[order[i]] > 0.5 {
				tp++
			} else {
				fp++
			}
			i++
		}
		tpr := float64(tp) / float64(pos)
		fpr := float64(fp) / float64(neg)
		auc += (fpr - prevFPR) * (tpr + prevTPR) / 2
		prevTPR, prevFPR = tpr, fpr
	}

	return auc
}
