package state

import (
	"database/sql"
	"fmt"
	"time"

	"log-analyzer/internal/types"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Run summarises one analyzer run
type Run struct {
	ID              string
	StartedAt       time.Time
	FinishedAt      time.Time
	LogFile         string
	LinesParsed     int
	LinesMalformed  int
	SuspiciousCount int
	ReportRows      int
	AlertCount      int
}

type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	query := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME,
		finished_at DATETIME,
		log_file TEXT,
		lines_parsed INTEGER,
		lines_malformed INTEGER,
		suspicious_count INTEGER,
		report_rows INTEGER,
		alert_count INTEGER
	);
	CREATE TABLE IF NOT EXISTS alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		user TEXT,
		ip TEXT,
		window_count INTEGER,
		window_minutes INTEGER,
		generated_at DATETIME,
		summary TEXT,
		explanation TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_alerts_run ON alerts(run_id);`
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// SaveRun stores the run and its alerts in one transaction.
// A missing run ID is filled in and returned.
func (s *Store) SaveRun(run Run, alerts []types.Alert) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs
		(id, started_at, finished_at, log_file, lines_parsed, lines_malformed, suspicious_count, report_rows, alert_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt, run.FinishedAt, run.LogFile,
		run.LinesParsed, run.LinesMalformed, run.SuspiciousCount, run.ReportRows, run.AlertCount,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO alerts
		(run_id, user, ip, window_count, window_minutes, generated_at, summary, explanation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, a := range alerts {
		_, err = stmt.Exec(run.ID, a.Key.User, a.Key.IP, a.WindowCount, a.WindowMinutes, a.GeneratedAt, a.Summary, a.Explanation)
		if err != nil {
			return "", fmt.Errorf("failed to insert alert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return run.ID, nil
}

// RecentRuns returns up to limit runs, newest first
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, log_file, lines_parsed, lines_malformed, suspicious_count, report_rows, alert_count
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.LogFile,
			&r.LinesParsed, &r.LinesMalformed, &r.SuspiciousCount, &r.ReportRows, &r.AlertCount)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Alerts returns the alerts stored for a run in insertion order
func (s *Store) Alerts(runID string) ([]types.Alert, error) {
	rows, err := s.db.Query(`
		SELECT user, ip, window_count, window_minutes, generated_at, summary, explanation
		FROM alerts
		WHERE run_id = ?
		ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []types.Alert
	for rows.Next() {
		var a types.Alert
		err := rows.Scan(&a.Key.User, &a.Key.IP, &a.WindowCount, &a.WindowMinutes, &a.GeneratedAt, &a.Summary, &a.Explanation)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
