// Package history records nebula runs in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yllada/nebula-tower/common"
	"github.com/yllada/nebula-tower/nebula"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	pid         INTEGER NOT NULL,
	binary_path TEXT NOT NULL,
	config_path TEXT NOT NULL,
	started_at  INTEGER NOT NULL,
	ended_at    INTEGER,
	reason      TEXT NOT NULL DEFAULT '',
	exit_status TEXT NOT NULL DEFAULT '',
	exit_code   INTEGER
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at DESC);
`

// Run is one recorded nebula run.
type Run struct {
	ID         string
	PID        int
	Binary     string
	ConfigPath string
	StartedAt  time.Time
	// EndedAt is zero while the run has not ended.
	EndedAt    time.Time
	Reason     nebula.EndReason
	ExitStatus string
	ExitCode   *int
}

// Ended reports whether the run has an end record.
func (r Run) Ended() bool {
	return !r.EndedAt.IsZero()
}

// Duration returns how long the run lasted, or has lasted so far.
func (r Run) Duration(now time.Time) time.Duration {
	if r.Ended() {
		return r.EndedAt.Sub(r.StartedAt)
	}
	return now.Sub(r.StartedAt)
}

// Store persists runs. It satisfies nebula.RunRecorder.
type Store struct {
	db *sql.DB
}

var _ nebula.RunRecorder = (*Store)(nil)

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, common.WrapError(err, "failed to open history database")
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, common.WrapError(err, "failed to configure history database")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, common.WrapError(err, "failed to create history schema")
	}
	return &Store{db: db}, nil
}

// RecordStart inserts a started run.
func (s *Store) RecordStart(info nebula.RunInfo) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (id, pid, binary_path, config_path, started_at) VALUES (?, ?, ?, ?, ?)`,
		info.ID, info.PID, info.Binary, info.ConfigPath, info.StartedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("recording start of run %s: %w", info.ID, err)
	}
	return nil
}

// RecordEnd completes a run.
func (s *Store) RecordEnd(end nebula.RunEnd) error {
	res, err := s.db.Exec(
		`UPDATE runs SET ended_at = ?, reason = ?, exit_status = ?, exit_code = ? WHERE id = ?`,
		end.EndedAt.UnixMilli(), string(end.Reason), end.ExitStatus, end.ExitCode, end.ID,
	)
	if err != nil {
		return fmt.Errorf("recording end of run %s: %w", end.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("recording end of run %s: no such run", end.ID)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, pid, binary_path, config_path, started_at, ended_at, reason, exit_status, exit_code
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, common.WrapError(err, "failed to query history")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run       Run
			startedAt int64
			endedAt   sql.NullInt64
			reason    string
			exitCode  sql.NullInt64
		)
		if err := rows.Scan(&run.ID, &run.PID, &run.Binary, &run.ConfigPath,
			&startedAt, &endedAt, &reason, &run.ExitStatus, &exitCode); err != nil {
			return nil, common.WrapError(err, "failed to read history")
		}
		run.StartedAt = time.UnixMilli(startedAt)
		if endedAt.Valid {
			run.EndedAt = time.UnixMilli(endedAt.Int64)
		}
		run.Reason = nebula.EndReason(reason)
		if exitCode.Valid {
			code := int(exitCode.Int64)
			run.ExitCode = &code
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
