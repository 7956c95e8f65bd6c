package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/habitpred/habitpred/pkg/habit"
	"github.com/habitpred/habitpred/pkg/logx"
)

func newTestEngine() *Engine {
	return New(Config{}, logx.New("error"))
}

func makeHabit(id, name string, active bool) habit.Habit {
	return habit.Habit{
		ID:            id,
		Name:          name,
		Category:      "fitness",
		PreferredTime: habit.TimeMorning,
		CreatedAt:     time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		Active:        active,
	}
}

// weekdayPatternLogs alternates outcomes so both classes appear: completed
// on weekdays, skipped on weekends.
func weekdayPatternLogs(habitID string, days int, end time.Time) []habit.Log {
	logs := make([]habit.Log, 0, days)
	for i := days; i > 0; i-- {
		d := end.AddDate(0, 0, -i)
		wd := d.Weekday()
		logs = append(logs, habit.Log{
			ID:        fmt.Sprintf("%s-%d", habitID, i),
			HabitID:   habitID,
			Date:      habit.FormatDate(d),
			Completed: wd != time.Saturday && wd != time.Sunday,
		})
	}
	return logs
}

func TestTrainInsufficientData(t *testing.T) {
	e := newTestEngine()
	now := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)
	h := makeHabit("h1", "Exercise", true)
	logs := weekdayPatternLogs("h1", 5, now)

	state := e.Train([]habit.Habit{h}, logs)
	require.False(t, state.IsTrained)
	require.Equal(t, 5, state.TotalSamples)
	require.Nil(t, e.Report())
}

func TestTrainEmptyDataset(t *testing.T) {
	e := newTestEngine()
	state := e.Train(nil, nil)
	require.False(t, state.IsTrained)
	require.Zero(t, state.TotalSamples)
}

func TestTrainBuildsReportAndState(t *testing.T) {
	e := newTestEngine()
	now := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)
	h := makeHabit("h1", "Exercise", true)
	logs := weekdayPatternLogs("h1", 60, now)

	state := e.Train([]habit.Habit{h}, logs)
	require.True(t, state.IsTrained)
	require.Equal(t, 60, state.TotalSamples)
	require.GreaterOrEqual(t, state.Accuracy, 0.0)
	require.LessOrEqual(t, state.Accuracy, 1.0)
	require.NotEmpty(t, state.FeatureImportance)

	report := e.Report()
	require.NotNil(t, report)
	require.Equal(t, 48, report.TrainSamples)
	require.Equal(t, 12, report.TestSamples)
	require.Len(t, report.CrossValidation.Ensemble, 5)
	require.NotEmpty(t, report.LearningCurve)
	require.Equal(t, 60, report.DataQuality.TotalSamples)
}

func TestPredictForDateCoversActiveHabitsSorted(t *testing.T) {
	e := newTestEngine()
	now := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)

	strong := makeHabit("strong", "Exercise", true)
	weak := makeHabit("weak", "Journal", true)
	inactive := makeHabit("off", "Meditate", false)

	var logs []habit.Log
	for i := 5; i > 0; i-- {
		logs = append(logs,
			habit.Log{HabitID: "strong", Date: habit.FormatDate(now.AddDate(0, 0, -i)), Completed: true},
			habit.Log{HabitID: "weak", Date: habit.FormatDate(now.AddDate(0, 0, -i)), Completed: false},
		)
	}

	preds := e.PredictForDate([]habit.Habit{weak, strong, inactive}, logs, now)
	require.Len(t, preds, 2, "one prediction per active habit")
	for _, p := range preds {
		require.NotEqual(t, "off", p.HabitID)
		require.GreaterOrEqual(t, p.Probability, 0.0)
		require.LessOrEqual(t, p.Probability, 1.0)
		require.NotEmpty(t, p.Explanation)
	}
	require.Equal(t, "strong", preds[0].HabitID)
	require.True(t, preds[0].Probability >= preds[1].Probability)
}

func TestPredictStableOrderOnTies(t *testing.T) {
	e := newTestEngine()
	now := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)

	// No logs at all: every habit gets the identical heuristic output.
	habits := []habit.Habit{
		makeHabit("a", "A", true),
		makeHabit("b", "B", true),
		makeHabit("c", "C", true),
	}
	preds := e.PredictForDate(habits, nil, now)
	require.Len(t, preds, 3)
	require.Equal(t, []string{"a", "b", "c"}, []string{preds[0].HabitID, preds[1].HabitID, preds[2].HabitID})
}

func TestHeuristicProbabilityBounds(t *testing.T) {
	cases := []struct {
		name  string
		stats habit.Stats
	}{
		{"cold start", habit.Stats{DaysSinceLastLog: habit.NoLogsSentinelDays}},
		{"perfect", habit.Stats{TotalLogs: 30, CompletedLogs: 30, SuccessRate: 1, CurrentStreak: 30}},
		{"abandoned", habit.Stats{TotalLogs: 10, SuccessRate: 0, DaysSinceLastLog: 60}},
	}
	for _, c := range cases {
		p := heuristicProbability(c.stats)
		require.GreaterOrEqual(t, p, heuristicFloor, c.name)
		require.LessOrEqual(t, p, heuristicCeil, c.name)
	}
}

func TestTrainedEngineUsesModelOnlyWithEnoughHistory(t *testing.T) {
	e := newTestEngine()
	now := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)
	veteran := makeHabit("vet", "Exercise", true)
	rookie := makeHabit("new", "Stretch", true)

	logs := weekdayPatternLogs("vet", 40, now)
	logs = append(logs, weekdayPatternLogs("new", 3, now)...)

	state := e.Train([]habit.Habit{veteran, rookie}, logs)
	require.True(t, state.IsTrained)

	preds := e.PredictForDate([]habit.Habit{veteran, rookie}, logs, now)
	byID := map[string]Prediction{}
	for _, p := range preds {
		byID[p.HabitID] = p
	}
	require.True(t, byID["vet"].UsedModel, "long history goes through the ensemble")
	require.False(t, byID["new"].UsedModel, "thin history falls back to the heuristic")
}

func TestConfidenceTiers(t *testing.T) {
	require.Equal(t, ConfidenceLow, confidenceTier(5))
	require.Equal(t, ConfidenceLow, confidenceTier(10))
	require.Equal(t, ConfidenceMedium, confidenceTier(11))
	require.Equal(t, ConfidenceMedium, confidenceTier(20))
	require.Equal(t, ConfidenceHigh, confidenceTier(21))
}

func TestTopPredictionsSlices(t *testing.T) {
	e := newTestEngine()
	now := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)
	habits := []habit.Habit{
		makeHabit("a", "A", true),
		makeHabit("b", "B", true),
		makeHabit("c", "C", true),
	}

	tp := e.TopPredictionsFor(habits, nil, now, 2)
	require.Len(t, tp.Today, 2)
	require.Len(t, tp.Tomorrow, 2)
}

func TestTrainingFailureNeverStopsPredictions(t *testing.T) {
	e := newTestEngine()
	now := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)
	h := makeHabit("h1", "Exercise", true)

	// Malformed dates make the engineered set empty while the raw log count
	// passes the threshold.
	var logs []habit.Log
	for i := 0; i < 12; i++ {
		logs = append(logs, habit.Log{HabitID: "h1", Date: "not-a-date", Completed: true})
	}

	state := e.Train([]habit.Habit{h}, logs)
	require.False(t, state.IsTrained)

	preds := e.PredictForDate([]habit.Habit{h}, logs, now)
	require.Len(t, preds, 1)
}
