// Package features turns habit log history into fixed-order numeric vectors
// for model training and inference.
package features

import (
	"math"
	"sort"
	"time"

	"github.com/habitpred/habitpred/pkg/habit"
)

// Defaults substituted when a contextual field is absent from the most
// recent log. The data-quality assessment treats these exact values as the
// missing sentinels, so they must not change silently.
const (
	DefaultMood       = 0.5
	DefaultSleepHours = 0.75
	DefaultEnergy     = 0.5
	DefaultStress     = 0.5
)

const (
	streakNormDays  = 30
	recencyNormDays = 30
	createdNormDays = 365
)

// Record is the intermediate, human-readable form of one sample before
// encoding.
type Record struct {
	DayOfWeek        int // 0=Sunday .. 6=Saturday
	IsWeekend        bool
	PreferredTime    habit.TimeOfDay
	Mood             habit.Mood // "" when not recorded
	SleepHours       *float64
	Energy           *int
	Stress           *int
	Weather          habit.Weather // "" when not recorded
	CurrentStreak    int
	DaysSinceLastLog int
	SuccessRate      float64
	Category         string
	DaysSinceCreated int
}

// Slot indices into the encoded vector. Order is part of the contract: it
// must stay identical between training and inference, and the importance
// report keys off it.
const (
	IdxDayOfWeek = iota
	IdxTimeMorning
	IdxTimeAfternoon
	IdxTimeEvening
	IdxTimeAnytime
	IdxMood
	IdxSleepHours
	IdxEnergy
	IdxStress
	IdxWeatherSunny
	IdxWeatherCloudy
	IdxWeatherRainy
	IdxWeatherSnowy
	IdxStreak
	IdxDaysSinceLastLog
	IdxSuccessRate
	IdxCategory
	IdxDaysSinceCreated
	IdxIsWeekend

	// VectorLen is the encoded feature dimensionality.
	VectorLen
)

var featureNames = [VectorLen]string{
	"day_of_week",
	"time_morning",
	"time_afternoon",
	"time_evening",
	"time_anytime",
	"mood",
	"sleep_hours",
	"energy",
	"stress",
	"weather_sunny",
	"weather_cloudy",
	"weather_rainy",
	"weather_snowy",
	"streak",
	"days_since_last_log",
	"success_rate",
	"category",
	"days_since_created",
	"is_weekend",
}

// Names returns the feature names in encoding order.
func Names() []string {
	out := make([]string, VectorLen)
	copy(out, featureNames[:])
	return out
}

// Extract derives a feature record for one habit as of targetDate. Only logs
// dated on/before the target day contribute; the most recent of them supplies
// the contextual mood/sleep/energy/stress/weather proxies.
func Extract(h habit.Habit, logs []habit.Log, targetDate time.Time) Record {
	day := habit.DateOf(targetDate)
	stats := habit.CalculateStats(logs, day)

	rec := Record{
		DayOfWeek:        int(day.Weekday()),
		IsWeekend:        day.Weekday() == time.Saturday || day.Weekday() == time.Sunday,
		PreferredTime:    h.PreferredTime,
		CurrentStreak:    stats.CurrentStreak,
		DaysSinceLastLog: stats.DaysSinceLastLog,
		SuccessRate:      stats.SuccessRate,
		Category:         h.Category,
	}

	if created := habit.DateOf(h.CreatedAt); !created.After(day) {
		rec.DaysSinceCreated = int(day.Sub(created).Hours() / 24)
	}

	if last := mostRecentOnOrBefore(logs, day); last != nil {
		rec.Mood = last.Mood
		rec.SleepHours = last.SleepHours
		rec.Energy = last.Energy
		rec.Stress = last.Stress
		rec.Weather = last.Weather
	}

	return rec
}

func mostRecentOnOrBefore(logs []habit.Log, day time.Time) *habit.Log {
	var best *habit.Log
	for i := range logs {
		d, err := habit.ParseDate(logs[i].Date)
		if err != nil || d.After(day) {
			continue
		}
		if best == nil || logs[i].Date > best.Date {
			best = &logs[i]
		}
	}
	return best
}

// Encode maps a record to the fixed-order numeric vector. Every slot is in
// [0,1]; absent contextual fields encode as the documented defaults.
func Encode(r Record) []float64 {
	v := make([]float64, VectorLen)

	v[IdxDayOfWeek] = float64(r.DayOfWeek) / 6.0

	switch r.PreferredTime {
	case habit.TimeMorning:
		v[IdxTimeMorning] = 1
	case habit.TimeAfternoon:
		v[IdxTimeAfternoon] = 1
	case habit.TimeEvening:
		v[IdxTimeEvening] = 1
	default:
		v[IdxTimeAnytime] = 1
	}

	v[IdxMood] = moodScale(r.Mood)

	v[IdxSleepHours] = DefaultSleepHours
	if r.SleepHours != nil {
		v[IdxSleepHours] = clamp01(*r.SleepHours / 10.0)
	}

	v[IdxEnergy] = DefaultEnergy
	if r.Energy != nil {
		v[IdxEnergy] = clamp01(float64(*r.Energy-1) / 4.0)
	}

	v[IdxStress] = DefaultStress
	if r.Stress != nil {
		v[IdxStress] = clamp01(1 - float64(*r.Stress-1)/4.0)
	}

	switch r.Weather {
	case habit.WeatherSunny:
		v[IdxWeatherSunny] = 1
	case habit.WeatherCloudy:
		v[IdxWeatherCloudy] = 1
	case habit.WeatherRainy:
		v[IdxWeatherRainy] = 1
	case habit.WeatherSnowy:
		v[IdxWeatherSnowy] = 1
	}

	v[IdxStreak] = logScale(float64(r.CurrentStreak), streakNormDays)
	v[IdxDaysSinceLastLog] = clamp01(float64(r.DaysSinceLastLog) / recencyNormDays)
	v[IdxSuccessRate] = r.SuccessRate
	v[IdxCategory] = CategoryHash(r.Category)
	v[IdxDaysSinceCreated] = logScale(float64(r.DaysSinceCreated), createdNormDays)

	if r.IsWeekend {
		v[IdxIsWeekend] = 1
	}

	return v
}

// CategoryHash maps a category label to a stable value in [0,1). Polynomial
// rolling hash over the character codes, masked to 16 bits, mod 100.
// Collisions are acceptable; cross-run stability is the requirement.
func CategoryHash(category string) float64 {
	h := 0
	for _, r := range category {
		h = (h*31 + int(r)) & 0xffff
	}
	return float64(h%100) / 100.0
}

func moodScale(m habit.Mood) float64 {
	switch m {
	case habit.MoodPoor:
		return 0
	case habit.MoodOkay:
		return 0.33
	case habit.MoodGood:
		return 0.67
	case habit.MoodGreat:
		return 1
	default:
		return DefaultMood
	}
}

func logScale(x, max float64) float64 {
	if x < 0 {
		x = 0
	}
	return clamp01(math.Log1p(x) / math.Log1p(max))
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

// TrainingData is an engineered training set. Samples are ordered
// chronologically by label date so a plain prefix split is a
// chronological split.
type TrainingData struct {
	Features [][]float64
	Labels   []float64
	Dates    []time.Time
	HabitIDs []string
}

// CreateTrainingData builds one labeled sample per (habit, log) pair. Each
// sample's features are derived only from logs dated on/before the sample's
// own label date; anything later never leaks in.
func CreateTrainingData(habits []habit.Habit, logs []habit.Log) TrainingData {
	byHabit := make(map[string][]habit.Log, len(habits))
	for _, l := range logs {
		byHabit[l.HabitID] = append(byHabit[l.HabitID], l)
	}

	var td TrainingData
	for _, h := range habits {
		habitLogs := byHabit[h.ID]
		sort.SliceStable(habitLogs, func(i, j int) bool { return habitLogs[i].Date < habitLogs[j].Date })

		for _, l := range habitLogs {
			day, err := habit.ParseDate(l.Date)
			if err != nil {
				continue
			}
			rec := Extract(h, habitLogs, day)
			label := 0.0
			if l.Completed {
				label = 1.0
			}
			td.Features = append(td.Features, Encode(rec))
			td.Labels = append(td.Labels, label)
			td.Dates = append(td.Dates, day)
			td.HabitIDs = append(td.HabitIDs, h.ID)
		}
	}

	sortTrainingData(&td)
	return td
}

func sortTrainingData(td *TrainingData) {
	order := make([]int, len(td.Dates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return td.Dates[order[a]].Before(td.Dates[order[b]]) })

	features := make([][]float64, len(order))
	labels := make([]float64, len(order))
	dates := make([]time.Time, len(order))
	ids := make([]string, len(order))
	for i, idx := range order {
		features[i] = td.Features[idx]
		labels[i] = td.Labels[idx]
		dates[i] = td.Dates[idx]
		ids[i] = td.HabitIDs[idx]
	}
	td.Features = features
	td.Labels = labels
	td.Dates = dates
	td.HabitIDs = ids
}
