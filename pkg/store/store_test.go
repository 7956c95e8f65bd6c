package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/habitpred/habitpred/pkg/habit"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndListHabits(t *testing.T) {
	s := openTestStore(t)

	h1, err := s.CreateHabit("Exercise", "fitness", habit.TimeMorning)
	require.NoError(t, err)
	require.NotEmpty(t, h1.ID)
	require.True(t, h1.Active)

	h2, err := s.CreateHabit("Read", "learning", "")
	require.NoError(t, err)
	require.Equal(t, habit.TimeAnytime, h2.PreferredTime, "empty preferred time defaults to anytime")

	habits, err := s.Habits()
	require.NoError(t, err)
	require.Len(t, habits, 2)
}

func TestSetHabitActive(t *testing.T) {
	s := openTestStore(t)
	h, err := s.CreateHabit("Exercise", "fitness", habit.TimeMorning)
	require.NoError(t, err)

	require.NoError(t, s.SetHabitActive(h.ID, false))
	habits, err := s.Habits()
	require.NoError(t, err)
	require.False(t, habits[0].Active)

	require.Error(t, s.SetHabitActive("missing", true))
}

func TestAddLogRoundTrip(t *testing.T) {
	s := openTestStore(t)
	h, err := s.CreateHabit("Exercise", "fitness", habit.TimeMorning)
	require.NoError(t, err)

	sleep := 7.5
	energy := 4
	_, err = s.AddLog(habit.Log{
		HabitID:    h.ID,
		Date:       "2025-06-01",
		Completed:  true,
		Mood:       habit.MoodGood,
		SleepHours: &sleep,
		Energy:     &energy,
		Weather:    habit.WeatherSunny,
	})
	require.NoError(t, err)

	_, err = s.AddLog(habit.Log{HabitID: h.ID, Date: "2025-06-02", Completed: false})
	require.NoError(t, err)

	logs, err := s.LogsForHabit(h.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	first := logs[0]
	require.True(t, first.Completed)
	require.Equal(t, habit.MoodGood, first.Mood)
	require.NotNil(t, first.SleepHours)
	require.InDelta(t, 7.5, *first.SleepHours, 1e-9)
	require.NotNil(t, first.Energy)
	require.Equal(t, 4, *first.Energy)
	require.Nil(t, first.Stress)

	second := logs[1]
	require.False(t, second.Completed)
	require.Empty(t, second.Mood)
	require.Nil(t, second.SleepHours)
}

func TestDuplicateLogSameDayRejected(t *testing.T) {
	s := openTestStore(t)
	h, err := s.CreateHabit("Exercise", "fitness", habit.TimeMorning)
	require.NoError(t, err)

	_, err = s.AddLog(habit.Log{HabitID: h.ID, Date: "2025-06-01", Completed: true})
	require.NoError(t, err)
	_, err = s.AddLog(habit.Log{HabitID: h.ID, Date: "2025-06-01", Completed: false})
	require.Error(t, err, "unique (habit, date) index rejects the duplicate")
}

func TestAddLogRejectsBadDate(t *testing.T) {
	s := openTestStore(t)
	h, err := s.CreateHabit("Exercise", "fitness", habit.TimeMorning)
	require.NoError(t, err)

	_, err = s.AddLog(habit.Log{HabitID: h.ID, Date: "June 1st", Completed: true})
	require.Error(t, err)
}

func TestDeleteHabitCascades(t *testing.T) {
	s := openTestStore(t)
	h, err := s.CreateHabit("Exercise", "fitness", habit.TimeMorning)
	require.NoError(t, err)
	_, err = s.AddLog(habit.Log{HabitID: h.ID, Date: "2025-06-01", Completed: true})
	require.NoError(t, err)

	require.NoError(t, s.DeleteHabit(h.ID))

	n, err := s.CountLogs()
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestCountLogs(t *testing.T) {
	s := openTestStore(t)
	h, err := s.CreateHabit("Exercise", "fitness", habit.TimeMorning)
	require.NoError(t, err)

	for _, d := range []string{"2025-06-01", "2025-06-02", "2025-06-03"} {
		_, err := s.AddLog(habit.Log{HabitID: h.ID, Date: d, Completed: true})
		require.NoError(t, err)
	}

	n, err := s.CountLogs()
	require.NoError(t, err)
	require.Equal(t, 3, n)
}
