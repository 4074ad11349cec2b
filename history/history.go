// Package history keeps past transcriptions in a local SQLite database,
// grouped by calendar day.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const dayLayout = "2006-01-02"

type Entry struct {
	ID        string
	Text      string
	Timestamp time.Time
	Duration  time.Duration
	Provider  string
}

// Day is the local calendar date the entry belongs to.
func (e Entry) Day() string {
	return e.Timestamp.Local().Format(dayLayout)
}

type Store struct {
	db *sql.DB
}

const schema = `
	CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		day TEXT NOT NULL,
		createdAt REAL NOT NULL,
		text TEXT NOT NULL,
		durationS REAL NOT NULL DEFAULT 0,
		provider TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS entries_day ON entries(day);
`

// Open opens or creates the database at path. ":memory:" gives a private
// in-memory store.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(2000)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps ":memory:" a single database and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func DefaultPath(configDir string) string {
	return filepath.Join(configDir, "history.sqlite")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Add(e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO entries (id, day, createdAt, text, durationS, provider)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.Day(), unixSeconds(e.Timestamp), e.Text, e.Duration.Seconds(), e.Provider)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT id, createdAt, text, durationS, provider
		FROM entries
		ORDER BY createdAt DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt, durationS float64
		if err := rows.Scan(&e.ID, &createdAt, &e.Text, &durationS, &e.Provider); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Timestamp = timeFromUnix(createdAt)
		e.Duration = time.Duration(durationS * float64(time.Second))
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Days lists the distinct days that have entries, newest first.
func (s *Store) Days() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT day FROM entries ORDER BY day DESC`)
	if err != nil {
		return nil, fmt.Errorf("query days: %w", err)
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan day: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// Prune keeps only the maxDays most recent days that have entries. Days
// without dictation do not count against the limit.
func (s *Store) Prune(maxDays int) (int64, error) {
	if maxDays < 1 {
		return 0, fmt.Errorf("maxDays must be positive, got %d", maxDays)
	}
	res, err := s.db.Exec(`
		DELETE FROM entries
		WHERE day NOT IN (
			SELECT DISTINCT day FROM entries ORDER BY day DESC LIMIT ?
		)
	`, maxDays)
	if err != nil {
		return 0, fmt.Errorf("prune entries: %w", err)
	}
	return res.RowsAffected()
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(f float64) time.Time {
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
