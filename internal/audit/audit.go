// Package audit records administrative actions in a SQLite-backed log.
// Entries are never rewritten or purged, so a scoreboard's history stays
// queryable after the board itself has been tombstoned and swept.
package audit

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Actions recorded by the service layer.
const (
	ActionScoreboardCreated = "scoreboard.created"
	ActionScoreboardRenamed = "scoreboard.renamed"
	ActionScoreboardDeleted = "scoreboard.deleted"
	ActionItemCreated       = "item.created"
	ActionItemDeleted       = "item.deleted"
	ActionUserRegistered    = "user.registered"
	ActionUserLogin         = "user.login"
)

// Target types entries are filed under. Item actions are filed under their
// scoreboard so the per-board trail includes them.
const (
	TargetScoreboard = "scoreboard"
	TargetUser       = "user"
)

// Entry is a single audit record.
type Entry struct {
	ID         string    `json:"id"`
	Actor      string    `json:"actor"`
	Action     string    `json:"action"`
	TargetType string    `json:"targetType"`
	TargetID   string    `json:"targetId"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Log provides SQLite-backed persistence for audit entries.
type Log struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates the audit log at the given path.
// It configures WAL mode, sets pragmas, and runs schema migrations.
func Open(path string, logger *slog.Logger) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	if logger != nil {
		logger.Info("Audit log opened", "path", path)
	}

	return &Log{db: db, logger: logger}, nil
}

// Close closes the underlying database connection.
func (l *Log) Close() error {
	if l.logger != nil {
		l.logger.Info("Closing audit log")
	}
	return l.db.Close()
}

// entryColumns is the ordered list of columns selected in audit queries.
// Must match the scan order in scanEntry.
const entryColumns = `id, actor, action, target_type, target_id, detail, created_at`

// scanEntry scans a sql.Row (or sql.Rows via its Scan method) into an Entry.
func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var e Entry

	var (
		detail    sql.NullString
		createdAt string
	)

	err := scanner.Scan(
		&e.ID,
		&e.Actor,
		&e.Action,
		&e.TargetType,
		&e.TargetID,
		&detail,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if detail.Valid {
		e.Detail = detail.String
	}

	e.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &e, nil
}

// Record inserts a new entry. A zero ID gets a generated uuid and a zero
// CreatedAt gets the current time, so callers only fill in what happened.
func (l *Log) Record(ctx context.Context, entry *Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO audit_entries (
			id, actor, action, target_type, target_id, detail, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Actor,
		entry.Action,
		entry.TargetType,
		entry.TargetID,
		nullString(entry.Detail),
		formatTime(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListByTarget retrieves entries for a target sorted by created_at descending.
// Use 'before' for cursor-based pagination (pass the CreatedAt of the last
// entry); 'beforeID' keeps the cursor deterministic when multiple entries
// share a timestamp. Returns up to 'limit' entries.
func (l *Log) ListByTarget(ctx context.Context, targetType, targetID string, limit int, before *time.Time, beforeID string) ([]*Entry, error) {
	var query string
	var args []any

	if before != nil && beforeID != "" {
		query = `SELECT ` + entryColumns + ` FROM audit_entries
			WHERE target_type = ? AND target_id = ?
				AND (created_at < ? OR (created_at = ? AND id < ?))
			ORDER BY created_at DESC, id DESC
			LIMIT ?`
		ts := formatTime(*before)
		args = append(args, targetType, targetID, ts, ts, beforeID, limit)
	} else if before != nil {
		query = `SELECT ` + entryColumns + ` FROM audit_entries
			WHERE target_type = ? AND target_id = ? AND created_at < ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?`
		args = append(args, targetType, targetID, formatTime(*before), limit)
	} else {
		query = `SELECT ` + entryColumns + ` FROM audit_entries
			WHERE target_type = ? AND target_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?`
		args = append(args, targetType, targetID, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// CountByTarget returns the number of entries filed under a target.
// Used by the health probe.
func (l *Log) CountByTarget(ctx context.Context, targetType, targetID string) (int, error) {
	var count int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_entries WHERE target_type = ? AND target_id = ?`,
		targetType, targetID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// storedTimeLayout is RFC 3339 with a fixed nine-digit fraction. The
// fraction must not be trimmed: created_at is compared as text in SQL, so
// every value needs the same width for lexicographic order to match
// chronological order.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(storedTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// nullString returns a sql.NullString from a string, empty meaning NULL.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
