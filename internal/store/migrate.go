package store

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the latest schema version supported by the migrator.
const SchemaVersion = 1

func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY);`); err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations;`).Scan(&current); err != nil {
		return fmt.Errorf("migrate: read current version: %w", err)
	}
	if current >= SchemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate: begin transaction: %w", err)
	}
	defer func() {
		// No-op after a successful commit.
		_ = tx.Rollback()
	}()

	stmts := []struct {
		name string
		sql  string
	}{
		{"create timer_runs", `CREATE TABLE IF NOT EXISTS timer_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL DEFAULT '',
			user TEXT NOT NULL,
			working_time_secs INTEGER NOT NULL,
			breaking_time_secs INTEGER NOT NULL,
			date TEXT NOT NULL
		);`},
		{"create idx_timer_runs_user_date", `CREATE INDEX IF NOT EXISTS idx_timer_runs_user_date ON timer_runs(user, date);`},
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt.sql); err != nil {
			return fmt.Errorf("migrate: %s: %w", stmt.name, err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO schema_migrations(version) VALUES (?);`, SchemaVersion); err != nil {
		return fmt.Errorf("migrate: record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit transaction: %w", err)
	}
	return nil
}
