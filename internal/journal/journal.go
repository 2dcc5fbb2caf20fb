// Package journal persists settled load sessions to SQLite.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/zjrosen/lootbox/internal/loader"
	"github.com/zjrosen/lootbox/internal/log"
)

// MemoryPath opens a private in-memory journal.
const MemoryPath = ":memory:"

var ErrSessionNotFound = errors.New("session not found in journal")

// Entry is one recorded session.
type Entry struct {
	SessionID  string
	Total      int
	Loaded     int
	Failed     int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration is the recorded wall time of the session.
func (e Entry) Duration() time.Duration { return e.FinishedAt.Sub(e.StartedAt) }

// FailureRecord is one failed request of a recorded session.
type FailureRecord struct {
	Name    string
	Locator string
	Message string
}

// Journal stores load session reports.
type Journal struct {
	conn *sql.DB
}

// Open opens or creates the journal at path, creating parent directories,
// and applies the schema.
func Open(path string) (*Journal, error) {
	dsn := MemoryPath
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)&_pragma=foreign_keys(1)"
	}

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if path == MemoryPath {
		conn.SetMaxOpenConns(1)
		if _, err := conn.Exec(`PRAGMA foreign_keys = ON`); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}
	if _, err := conn.Exec(Schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to apply journal schema: %w", err)
	}
	log.Debug(log.CatJournal, "Opened journal", "path", path)
	return &Journal{conn: conn}, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.conn.Close()
}

// Record stores a settled session and its failures in one transaction.
func (j *Journal) Record(ctx context.Context, report loader.Report) error {
	tx, err := j.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (session_id, total, loaded, failed, started_at, finished_at) VALUES (?, ?, ?, ?, ?, ?)`,
		report.SessionID, report.Total, report.Loaded, report.Failed(),
		report.StartedAt.UnixMilli(), report.FinishedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	for _, f := range report.Failures {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO failures (session_id, name, locator, message) VALUES (?, ?, ?, ?)`,
			report.SessionID, f.Name, f.Locator, f.Err.Error(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert failure %s: %w", f.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}
	log.Debug(log.CatJournal, "Recorded session", "session", report.SessionID, "failed", report.Failed())
	return nil
}

// Recent returns up to limit sessions, most recently finished first.
// A limit <= 0 returns every session.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.conn.QueryContext(ctx,
		`SELECT session_id, total, loaded, failed, started_at, finished_at
		 FROM sessions ORDER BY finished_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var started, finished int64
		if err := rows.Scan(&e.SessionID, &e.Total, &e.Loaded, &e.Failed, &started, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		e.StartedAt = time.UnixMilli(started)
		e.FinishedAt = time.UnixMilli(finished)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return entries, nil
}

// Failures returns the failed requests of a session in recording order.
// Returns ErrSessionNotFound for an unknown session.
func (j *Journal) Failures(ctx context.Context, sessionID string) ([]FailureRecord, error) {
	var exists int
	err := j.conn.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE session_id = ?`, sessionID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	rows, err := j.conn.QueryContext(ctx,
		`SELECT name, locator, message FROM failures WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query failures: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []FailureRecord
	for rows.Next() {
		var f FailureRecord
		if err := rows.Scan(&f.Name, &f.Locator, &f.Message); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
