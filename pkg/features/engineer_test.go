package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/habitpred/habitpred/pkg/habit"
)

func testHabit() habit.Habit {
	return habit.Habit{
		ID:            "h1",
		Name:          "Exercise",
		Category:      "fitness",
		PreferredTime: habit.TimeMorning,
		CreatedAt:     time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
		Active:        true,
	}
}

func TestEncodeDefaultsWhenContextAbsent(t *testing.T) {
	target := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC) // a Monday
	rec := Extract(testHabit(), nil, target)
	v := Encode(rec)

	require.Len(t, v, VectorLen)
	require.InDelta(t, DefaultMood, v[IdxMood], 1e-9)
	require.InDelta(t, DefaultSleepHours, v[IdxSleepHours], 1e-9)
	require.InDelta(t, DefaultEnergy, v[IdxEnergy], 1e-9)
	require.InDelta(t, DefaultStress, v[IdxStress], 1e-9)
	for _, idx := range []int{IdxWeatherSunny, IdxWeatherCloudy, IdxWeatherRainy, IdxWeatherSnowy} {
		require.Zero(t, v[idx])
	}

	require.InDelta(t, 1.0/6.0, v[IdxDayOfWeek], 1e-9) // Monday = 1
	require.Zero(t, v[IdxIsWeekend])
	require.Equal(t, 1.0, v[IdxTimeMorning])
	require.Equal(t, 1.0, v[IdxDaysSinceLastLog], "no logs clamps recency to 1 via the 999 sentinel")
	require.Zero(t, v[IdxSuccessRate])
}

func TestEncodeContextualFields(t *testing.T) {
	sleep := 8.0
	energy := 5
	stress := 1
	logs := []habit.Log{{
		HabitID:    "h1",
		Date:       "2025-06-01",
		Completed:  true,
		Mood:       habit.MoodGreat,
		SleepHours: &sleep,
		Energy:     &energy,
		Stress:     &stress,
		Weather:    habit.WeatherRainy,
	}}

	target := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) // a Sunday
	v := Encode(Extract(testHabit(), logs, target))

	require.Equal(t, 1.0, v[IdxMood])
	require.InDelta(t, 0.8, v[IdxSleepHours], 1e-9)
	require.Equal(t, 1.0, v[IdxEnergy])
	require.Equal(t, 1.0, v[IdxStress], "stress 1 inverts to 1")
	require.Equal(t, 1.0, v[IdxWeatherRainy])
	require.Zero(t, v[IdxWeatherSunny])
	require.Zero(t, v[IdxDayOfWeek])
	require.Equal(t, 1.0, v[IdxIsWeekend])
	require.Equal(t, 1.0, v[IdxSuccessRate])
}

func TestEncodeDeterministic(t *testing.T) {
	logs := []habit.Log{
		{HabitID: "h1", Date: "2025-05-30", Completed: true, Mood: habit.MoodGood},
		{HabitID: "h1", Date: "2025-05-31", Completed: false},
	}
	target := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	a := Encode(Extract(testHabit(), logs, target))
	b := Encode(Extract(testHabit(), logs, target))
	require.Equal(t, a, b)
}

func TestCategoryHashStable(t *testing.T) {
	require.Equal(t, CategoryHash("fitness"), CategoryHash("fitness"))
	require.GreaterOrEqual(t, CategoryHash("fitness"), 0.0)
	require.Less(t, CategoryHash("fitness"), 1.0)
	require.Zero(t, CategoryHash(""))
}

func TestCreateTrainingDataNoLookAhead(t *testing.T) {
	h := testHabit()
	logs := []habit.Log{
		{HabitID: "h1", Date: "2025-06-01", Completed: false},
		{HabitID: "h1", Date: "2025-06-05", Completed: true},
	}

	td := CreateTrainingData([]habit.Habit{h}, logs)
	require.Len(t, td.Features, 2)
	require.Equal(t, []float64{0, 1}, td.Labels)

	// The day-1 sample must not see the day-5 success: its success-rate
	// feature reflects only the day-1 failure.
	require.Zero(t, td.Features[0][IdxSuccessRate])
	require.InDelta(t, 0.5, td.Features[1][IdxSuccessRate], 1e-9)
}

func TestCreateTrainingDataChronologicalAcrossHabits(t *testing.T) {
	h1 := testHabit()
	h2 := testHabit()
	h2.ID = "h2"
	logs := []habit.Log{
		{HabitID: "h2", Date: "2025-06-03", Completed: true},
		{HabitID: "h1", Date: "2025-06-01", Completed: true},
		{HabitID: "h1", Date: "2025-06-05", Completed: false},
	}

	td := CreateTrainingData([]habit.Habit{h1, h2}, logs)
	require.Len(t, td.Dates, 3)
	require.True(t, td.Dates[0].Before(td.Dates[1]))
	require.True(t, td.Dates[1].Before(td.Dates[2]))
	require.Equal(t, []string{"h1", "h2", "h1"}, td.HabitIDs)
}

func TestImportanceConstantColumnIsZero(t *testing.T) {
	featureMatrix := [][]float64{
		{1, 0.2},
		{1, 0.8},
		{1, 0.9},
		{1, 0.1},
	}
	// Pad rows to full width.
	for i := range featureMatrix {
		row := make([]float64, VectorLen)
		copy(row, featureMatrix[i])
		featureMatrix[i] = row
	}
	labels := []float64{0, 1, 1, 0}

	imp := Importance(featureMatrix, labels)
	require.Zero(t, imp["day_of_week"], "constant column correlates at 0")
	require.Greater(t, imp["time_morning"], 0.9, "column tracking the label scores high")
}

func TestImportanceDegenerateLabels(t *testing.T) {
	featureMatrix := [][]float64{make([]float64, VectorLen), make([]float64, VectorLen)}
	featureMatrix[1][IdxMood] = 1
	imp := Importance(featureMatrix, []float64{1, 1})
	for name, v := range imp {
		require.Zero(t, v, name)
	}
}
