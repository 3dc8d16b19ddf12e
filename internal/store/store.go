// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/pomo/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

const dateLayout = "2006-01-02"

// Store wraps SQLite access for completed timer runs.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer; the run goroutine and the UI share one connection.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := migrate(db); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateTimerRun stores one completed run, dated on run.Date's local calendar day.
func (s *Store) CreateTimerRun(ctx context.Context, run model.NewTimerRun) (int64, error) {
	date := run.Date
	if date.IsZero() {
		date = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO timer_runs (run_id, user, working_time_secs, breaking_time_secs, date)
		 VALUES (?, ?, ?, ?, ?)`,
		run.RunID,
		run.User,
		run.WorkingTimeSecs,
		run.BreakingTimeSecs,
		date.Local().Format(dateLayout),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetTimerRuns returns all runs of a user, oldest first.
func (s *Store) GetTimerRuns(ctx context.Context, user string) ([]model.TimerRun, error) {
	return s.queryRuns(ctx,
		`SELECT id, run_id, user, working_time_secs, breaking_time_secs, date
		 FROM timer_runs
		 WHERE user = ?
		 ORDER BY date ASC, id ASC`, user)
}

// GetTimerRunsSince returns the runs of a user dated on or after since.
func (s *Store) GetTimerRunsSince(ctx context.Context, user string, since time.Time) ([]model.TimerRun, error) {
	return s.queryRuns(ctx,
		`SELECT id, run_id, user, working_time_secs, breaking_time_secs, date
		 FROM timer_runs
		 WHERE user = ? AND date >= ?
		 ORDER BY date ASC, id ASC`, user, since.Local().Format(dateLayout))
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]model.TimerRun, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var runs []model.TimerRun
	for rows.Next() {
		var run model.TimerRun
		var date string
		if err := rows.Scan(&run.ID, &run.RunID, &run.User, &run.WorkingTimeSecs, &run.BreakingTimeSecs, &date); err != nil {
			return nil, err
		}
		parsed, err := time.ParseInLocation(dateLayout, date, time.Local)
		if err != nil {
			return nil, err
		}
		run.Date = parsed
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// GetUsers returns the distinct users that completed at least one run.
func (s *Store) GetUsers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT user FROM timer_runs ORDER BY user ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var users []string
	for rows.Next() {
		var user string
		if err := rows.Scan(&user); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// UserSummaries returns run counts and the latest run date per user.
func (s *Store) UserSummaries(ctx context.Context) ([]model.UserSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user, COUNT(*) AS runs, MAX(date) AS last_run
		 FROM timer_runs
		 GROUP BY user
		 ORDER BY user ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.UserSummary
	for rows.Next() {
		var summary model.UserSummary
		var lastRun string
		if err := rows.Scan(&summary.User, &summary.Runs, &lastRun); err != nil {
			return nil, err
		}
		parsed, err := time.ParseInLocation(dateLayout, lastRun, time.Local)
		if err != nil {
			return nil, err
		}
		summary.LastRun = parsed
		result = append(result, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
