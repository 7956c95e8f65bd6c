package habit

import (
	"sort"
	"time"
)

// NoLogsSentinelDays is reported as days-since-last-log when a habit has no
// logs at all.
const NoLogsSentinelDays = 999

// Stats summarizes a habit's log history as of a reference day.
type Stats struct {
	TotalLogs        int     `json:"total_logs"`
	CompletedLogs    int     `json:"completed_logs"`
	SuccessRate      float64 `json:"success_rate"`
	CurrentStreak    int     `json:"current_streak"`
	LongestStreak    int     `json:"longest_streak"`
	DaysSinceLastLog int     `json:"days_since_last_log"`
}

// CalculateStats derives summary statistics from a single habit's logs as of
// the given reference time. Logs dated after the reference day are ignored so
// the same helper serves both live prediction and as-of-date training
// feature extraction.
func CalculateStats(logs []Log, asOf time.Time) Stats {
	refDay := DateOf(asOf)

	// Keep logs on/before the reference day, sorted oldest first.
	kept := make([]Log, 0, len(logs))
	for _, l := range logs {
		day, err := ParseDate(l.Date)
		if err != nil || day.After(refDay) {
			continue
		}
		kept = append(kept, l)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Date < kept[j].Date })

	stats := Stats{DaysSinceLastLog: NoLogsSentinelDays}
	if len(kept) == 0 {
		return stats
	}

	stats.TotalLogs = len(kept)
	for _, l := range kept {
		if l.Completed {
			stats.CompletedLogs++
		}
	}
	stats.SuccessRate = float64(stats.CompletedLogs) / float64(stats.TotalLogs)

	lastDay, _ := ParseDate(kept[len(kept)-1].Date)
	stats.DaysSinceLastLog = daysBetween(lastDay, refDay)

	stats.LongestStreak = longestRun(kept)
	stats.CurrentStreak = currentStreak(kept, stats.DaysSinceLastLog)

	return stats
}

// longestRun is the maximum run of consecutive completed logs scanning
// oldest to newest.
func longestRun(logs []Log) int {
	longest, run := 0, 0
	for _, l := range logs {
		if l.Completed {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	return longest
}

// currentStreak counts completed logs most-recent-first until the first
// failure or calendar gap. A streak only exists while the habit was logged
// today or yesterday relative to the reference day.
func currentStreak(logs []Log, daysSinceLast int) int {
	if daysSinceLast > 1 {
		return 0
	}
	streak := 0
	for i := len(logs) - 1; i >= 0; i-- {
		if !logs[i].Completed {
			break
		}
		if i < len(logs)-1 {
			cur, _ := ParseDate(logs[i].Date)
			next, _ := ParseDate(logs[i+1].Date)
			if daysBetween(cur, next) > 1 {
				break
			}
		}
		streak++
	}
	return streak
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
