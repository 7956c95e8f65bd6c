// Package store persists habits and their logs in a local SQLite database.
// It is the supplier of the prediction pipeline's read-only inputs; the
// one-log-per-(habit, date) invariant the pipeline assumes is enforced here
// by a unique index.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/habitpred/habitpred/pkg/habit"
)

const schema = `
CREATE TABLE IF NOT EXISTS habits (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	category       TEXT NOT NULL DEFAULT '',
	preferred_time TEXT NOT NULL DEFAULT 'anytime',
	created_at     TIMESTAMP NOT NULL,
	active         INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS habit_logs (
	id          TEXT PRIMARY KEY,
	habit_id    TEXT NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
	log_date    TEXT NOT NULL,
	completed   INTEGER NOT NULL,
	mood        TEXT,
	sleep_hours REAL,
	energy      INTEGER,
	stress      INTEGER,
	weather     TEXT,
	logged_at   TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_logs_habit_date ON habit_logs(habit_id, log_date);
CREATE INDEX IF NOT EXISTS idx_logs_date ON habit_logs(log_date);
`

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateHabit inserts a new active habit and returns it with a generated id.
func (s *Store) CreateHabit(name, category string, preferredTime habit.TimeOfDay) (habit.Habit, error) {
	if preferredTime == "" {
		preferredTime = habit.TimeAnytime
	}
	h := habit.Habit{
		ID:            uuid.NewString(),
		Name:          name,
		Category:      category,
		PreferredTime: preferredTime,
		CreatedAt:     time.Now().UTC(),
		Active:        true,
	}
	_, err := s.db.Exec(
		`INSERT INTO habits (id, name, category, preferred_time, created_at, active) VALUES (?, ?, ?, ?, ?, 1)`,
		h.ID, h.Name, h.Category, string(h.PreferredTime), h.CreatedAt,
	)
	if err != nil {
		return habit.Habit{}, fmt.Errorf("insert habit: %w", err)
	}
	return h, nil
}

// SetHabitActive flips a habit's active flag.
func (s *Store) SetHabitActive(id string, active bool) error {
	res, err := s.db.Exec(`UPDATE habits SET active = ? WHERE id = ?`, boolInt(active), id)
	if err != nil {
		return fmt.Errorf("update habit: %w", err)
	}
	return requireRow(res, id)
}

// DeleteHabit removes a habit and, via the foreign key cascade, its logs.
func (s *Store) DeleteHabit(id string) error {
	res, err := s.db.Exec(`DELETE FROM habits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	return requireRow(res, id)
}

// Habits returns all habits, oldest first.
func (s *Store) Habits() ([]habit.Habit, error) {
	rows, err := s.db.Query(
		`SELECT id, name, category, preferred_time, created_at, active FROM habits ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query habits: %w", err)
	}
	defer rows.Close()

	var habits []habit.Habit
	for rows.Next() {
		var h habit.Habit
		var preferred string
		var active int
		if err := rows.Scan(&h.ID, &h.Name, &h.Category, &preferred, &h.CreatedAt, &active); err != nil {
			return nil, fmt.Errorf("scan habit: %w", err)
		}
		h.PreferredTime = habit.TimeOfDay(preferred)
		h.Active = active != 0
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

// AddLog inserts one day's log entry. A missing id is generated; a second
// log for the same (habit, date) fails on the unique index.
func (s *Store) AddLog(l habit.Log) (habit.Log, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.LoggedAt.IsZero() {
		l.LoggedAt = time.Now().UTC()
	}
	if _, err := habit.ParseDate(l.Date); err != nil {
		return habit.Log{}, fmt.Errorf("invalid log date %q: %w", l.Date, err)
	}

	_, err := s.db.Exec(
		`INSERT INTO habit_logs (id, habit_id, log_date, completed, mood, sleep_hours, energy, stress, weather, logged_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.HabitID, l.Date, boolInt(l.Completed),
		nullString(string(l.Mood)), nullFloat(l.SleepHours), nullInt(l.Energy), nullInt(l.Stress),
		nullString(string(l.Weather)), l.LoggedAt,
	)
	if err != nil {
		return habit.Log{}, fmt.Errorf("insert log: %w", err)
	}
	return l, nil
}

// Logs returns every log, ordered by date then habit.
func (s *Store) Logs() ([]habit.Log, error) {
	return s.queryLogs(`SELECT id, habit_id, log_date, completed, mood, sleep_hours, energy, stress, weather, logged_at
		FROM habit_logs ORDER BY log_date, habit_id`)
}

// LogsForHabit returns one habit's logs, oldest first.
func (s *Store) LogsForHabit(habitID string) ([]habit.Log, error) {
	return s.queryLogs(`SELECT id, habit_id, log_date, completed, mood, sleep_hours, energy, stress, weather, logged_at
		FROM habit_logs WHERE habit_id = ? ORDER BY log_date`, habitID)
}

// CountLogs returns the total number of logs; the daemon uses it to debounce
// retraining.
func (s *Store) CountLogs() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM habit_logs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count logs: %w", err)
	}
	return n, nil
}

func (s *Store) queryLogs(query string, args ...interface{}) ([]habit.Log, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()

	var logs []habit.Log
	for rows.Next() {
		var l habit.Log
		var completed int
		var mood, weather sql.NullString
		var sleep sql.NullFloat64
		var energy, stress sql.NullInt64
		if err := rows.Scan(&l.ID, &l.HabitID, &l.Date, &completed,
			&mood, &sleep, &energy, &stress, &weather, &l.LoggedAt); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		l.Completed = completed != 0
		if mood.Valid {
			l.Mood = habit.Mood(mood.String)
		}
		if weather.Valid {
			l.Weather = habit.Weather(weather.String)
		}
		if sleep.Valid {
			v := sleep.Float64
			l.SleepHours = &v
		}
		if energy.Valid {
			v := int(energy.Int64)
			l.Energy = &v
		}
		if stress.Valid {
			v := int(stress.Int64)
			l.Stress = &v
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("habit %s not found", id)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

func nullInt(i *int) interface{} {
	if i == nil {
		return nil
	}
	return *i
}
