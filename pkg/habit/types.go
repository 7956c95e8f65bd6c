// Package habit defines the domain types shared by the prediction pipeline
package habit

import "time"

// DateLayout is the calendar-day format used by log dates ("YYYY-MM-DD")
const DateLayout = "2006-01-02"

// TimeOfDay is the preferred time slot for a habit
type TimeOfDay string

const (
	TimeMorning   TimeOfDay = "morning"
	TimeAfternoon TimeOfDay = "afternoon"
	TimeEvening   TimeOfDay = "evening"
	TimeAnytime   TimeOfDay = "anytime"
)

// Mood is the self-reported mood attached to a log entry
type Mood string

const (
	MoodGreat Mood = "great"
	MoodGood  Mood = "good"
	MoodOkay  Mood = "okay"
	MoodPoor  Mood = "poor"
)

// Weather is the self-reported weather attached to a log entry
type Weather string

const (
	WeatherSunny  Weather = "sunny"
	WeatherCloudy Weather = "cloudy"
	WeatherRainy  Weather = "rainy"
	WeatherSnowy  Weather = "snowy"
)

// Habit represents a tracked habit. The prediction pipeline treats it as
// read-only input owned by the surrounding application.
type Habit struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	PreferredTime TimeOfDay `json:"preferred_time"`
	CreatedAt     time.Time `json:"created_at"`
	Active        bool      `json:"active"`
}

// Log represents one day's entry for a habit. At most one log exists per
// (habit, date); the store enforces it, the pipeline assumes it.
// Contextual fields are optional: empty strings and nil pointers mean the
// user did not record them.
type Log struct {
	ID         string   `json:"id"`
	HabitID    string   `json:"habit_id"`
	Date       string   `json:"date"` // DateLayout
	Completed  bool     `json:"completed"`
	Mood       Mood     `json:"mood,omitempty"`
	SleepHours *float64 `json:"sleep_hours,omitempty"`
	Energy     *int     `json:"energy,omitempty"` // 1-5
	Stress     *int     `json:"stress,omitempty"` // 1-5
	Weather    Weather  `json:"weather,omitempty"`
	LoggedAt   time.Time `json:"logged_at"`
}

// ParseDate parses a log date into a UTC midnight timestamp.
func ParseDate(date string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, date, time.UTC)
}

// DateOf truncates a timestamp to its UTC calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a timestamp as a log date string.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
