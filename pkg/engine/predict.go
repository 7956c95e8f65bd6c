package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/habitpred/habitpred/pkg/features"
	"github.com/habitpred/habitpred/pkg/habit"
	"github.com/habitpred/habitpred/pkg/insights"
)

// Confidence tiers. Tiers derive from the habit's own log count on both the
// model and the heuristic path: >20 high, >10 medium, else low.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Heuristic fallback output is clamped away from certainty.
const (
	heuristicFloor = 0.1
	heuristicCeil  = 0.9
)

// Prediction is one habit's completion forecast for a date.
type Prediction struct {
	HabitID       string  `json:"habit_id"`
	HabitName     string  `json:"habit_name"`
	Category      string  `json:"category"`
	Probability   float64 `json:"probability"`
	Confidence    string  `json:"confidence"`
	Explanation   string  `json:"explanation"`
	CurrentStreak int     `json:"current_streak"`
	SuccessRate   float64 `json:"success_rate"`
	UsedModel     bool    `json:"used_model"`
}

// TopPredictions pairs today's and tomorrow's ranked forecasts.
type TopPredictions struct {
	Today    []Prediction `json:"today"`
	Tomorrow []Prediction `json:"tomorrow"`
}

// PredictForDate forecasts every active habit for the given date, ranked by
// descending probability. Habits with equal probability keep their input
// order. Inactive habits are excluded. A prediction is always produced per
// active habit, via the heuristic when the habit's own history is below the
// model threshold or the engine is untrained.
func (e *Engine) PredictForDate(habits []habit.Habit, logs []habit.Log, date time.Time) []Prediction {
	e.mu.RLock()
	defer e.mu.RUnlock()

	byHabit := make(map[string][]habit.Log, len(habits))
	for _, l := range logs {
		byHabit[l.HabitID] = append(byHabit[l.HabitID], l)
	}

	predictions := make([]Prediction, 0, len(habits))
	for _, h := range habits {
		if !h.Active {
			continue
		}
		predictions = append(predictions, e.predictOne(h, byHabit[h.ID], date))
	}

	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].Probability > predictions[j].Probability
	})
	return predictions
}

// TopPredictionsFor forecasts today and tomorrow, each sliced to the top
// count entries.
func (e *Engine) TopPredictionsFor(habits []habit.Habit, logs []habit.Log, now time.Time, count int) TopPredictions {
	today := e.PredictForDate(habits, logs, now)
	tomorrow := e.PredictForDate(habits, logs, now.AddDate(0, 0, 1))
	return TopPredictions{
		Today:    top(today, count),
		Tomorrow: top(tomorrow, count),
	}
}

func top(preds []Prediction, count int) []Prediction {
	if count <= 0 || count >= len(preds) {
		return preds
	}
	return preds[:count]
}

func (e *Engine) predictOne(h habit.Habit, habitLogs []habit.Log, date time.Time) Prediction {
	stats := habit.CalculateStats(habitLogs, date)
	trend := insights.CompletionTrend(habitLogs, 0)

	p := Prediction{
		HabitID:       h.ID,
		HabitName:     h.Name,
		Category:      h.Category,
		Confidence:    confidenceTier(stats.TotalLogs),
		CurrentStreak: stats.CurrentStreak,
		SuccessRate:   stats.SuccessRate,
	}

	if e.state.IsTrained && stats.TotalLogs >= e.config.MinLogsForML {
		x := features.Encode(features.Extract(h, habitLogs, date))
		w := e.config.EnsembleLogisticWeight
		p.Probability = w*e.logistic.Predict(x) + (1-w)*e.tree.Predict(x)
		p.UsedModel = true
	} else {
		p.Probability = heuristicProbability(stats)
	}

	p.Explanation = explain(h, stats, trend, date, p.UsedModel)
	return p
}

// heuristicProbability is the closed-form fallback: anchored at 0.5, pushed
// by success rate and streak, pulled by recency, clamped to [0.1, 0.9].
func heuristicProbability(stats habit.Stats) float64 {
	p := 0.5 +
		0.4*(stats.SuccessRate-0.5) +
		0.3*math.Min(float64(stats.CurrentStreak)/7.0, 1) -
		0.3*math.Min(float64(stats.DaysSinceLastLog)/7.0, 1)
	return math.Max(heuristicFloor, math.Min(heuristicCeil, p))
}

func confidenceTier(totalLogs int) string {
	switch {
	case totalLogs > 20:
		return ConfidenceHigh
	case totalLogs > 10:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// explain builds a human-readable summary of the dominant factors. Content
// is informative, not contractual.
func explain(h habit.Habit, stats habit.Stats, trend insights.Trend, date time.Time, usedModel bool) string {
	source := "based on recent history"
	if usedModel {
		source = "based on the trained model"
	}

	msg := fmt.Sprintf("%s: %.0f%% historical success over %d logs", source, stats.SuccessRate*100, stats.TotalLogs)

	if stats.CurrentStreak > 0 {
		msg += fmt.Sprintf(", on a %d-day streak", stats.CurrentStreak)
	}
	switch {
	case stats.TotalLogs == 0:
		msg += ", no history yet"
	case stats.DaysSinceLastLog > 3:
		msg += fmt.Sprintf(", last logged %d days ago", stats.DaysSinceLastLog)
	}
	if trend.Direction != insights.Stable {
		msg += fmt.Sprintf(", trend %s", trend.Direction)
	}

	day := date.Weekday()
	if day == time.Saturday || day == time.Sunday {
		msg += ", weekend day"
	}
	if h.PreferredTime != "" && h.PreferredTime != habit.TimeAnytime {
		msg += fmt.Sprintf(", usually done in the %s", h.PreferredTime)
	}
	return msg
}
