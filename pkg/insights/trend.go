// Package insights derives interpretable per-habit signals from log history.
// The completion trend feeds the prediction explanations: a habit whose
// completions slope upward over time reads as "improving".
package insights

import (
	"sort"

	"github.com/sajari/regression"

	"github.com/habitpred/habitpred/pkg/habit"
)

// Direction classifies a completion trend slope.
type Direction string

const (
	Improving Direction = "improving"
	Stable    Direction = "stable"
	Declining Direction = "declining"
)

// DefaultSensitivity is the minimum per-day slope magnitude that counts as a
// real trend rather than noise.
const DefaultSensitivity = 0.01

// Trend is the fitted completion trend for one habit.
type Trend struct {
	Slope     float64   `json:"slope"` // completion change per day
	Direction Direction `json:"direction"`
	Samples   int       `json:"samples"`
	R2        float64   `json:"r2"`
}

// CompletionTrend fits an ordinary-least-squares line through the habit's
// completion outcomes (0/1) against day index and classifies the slope.
// Fewer than three logs is not enough signal and reads as stable.
func CompletionTrend(logs []habit.Log, sensitivity float64) Trend {
	if sensitivity <= 0 {
		sensitivity = DefaultSensitivity
	}

	type point struct {
		day       float64
		completed float64
	}
	points := make([]point, 0, len(logs))

	sorted := append([]habit.Log(nil), logs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	var origin float64
	for _, l := range sorted {
		day, err := habit.ParseDate(l.Date)
		if err != nil {
			continue
		}
		d := float64(day.Unix()) / 86400.0
		if len(points) == 0 {
			origin = d
		}
		y := 0.0
		if l.Completed {
			y = 1.0
		}
		points = append(points, point{day: d - origin, completed: y})
	}

	trend := Trend{Direction: Stable, Samples: len(points)}
	if len(points) < 3 {
		return trend
	}

	var r regression.Regression
	r.SetObserved("completion")
	r.SetVar(0, "day")
	for _, p := range points {
		r.Train(regression.DataPoint(p.completed, []float64{p.day}))
	}
	if err := r.Run(); err != nil {
		return trend
	}

	coeffs := r.GetCoeffs()
	if len(coeffs) < 2 {
		return trend
	}

	trend.Slope = coeffs[1]
	trend.R2 = r.R2
	switch {
	case trend.Slope > sensitivity:
		trend.Direction = Improving
	case trend.Slope < -sensitivity:
		trend.Direction = Declining
	}
	return trend
}
