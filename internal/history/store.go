package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"uplink/internal/config"
	"uplink/internal/monitor"
	"uplink/internal/scan"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; the database is an observation cache, so users delete and restart.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store manages observation persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the observation database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.HistoryDBPath())
}

// OpenPath opens the observation database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s and restart)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}

	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// RecordScan persists one batch of scan observations under the given run.
func (s *Store) RecordScan(ctx context.Context, runID string, records []scan.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin scan tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, record := range records {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO scan_observations (run_id, ssid, band, frequency, strength, observed_at)
             VALUES (?, ?, ?, ?, ?, ?)`,
			runID,
			record.SSID,
			string(record.Band()),
			record.Frequency,
			record.Strength,
			record.LastSeen.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("insert scan observation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit scan observations: %w", err)
	}
	return nil
}

// RecordEvent persists one change-feed event under the given run.
func (s *Store) RecordEvent(ctx context.Context, runID string, event monitor.Event) error {
	var errText any
	if event.Err != nil {
		errText = event.Err.Error()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO change_events (run_id, seq, object, source, kind, state, error, observed_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		event.Seq,
		event.Object,
		event.Source,
		event.Kind.String(),
		event.State.String(),
		errText,
		event.Time.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert change event: %w", err)
	}
	return nil
}

// RecentNetworks returns the deduplicated view of scan observations made
// since the cutoff, best observation per network.
func (s *Store) RecentNetworks(ctx context.Context, since time.Time) ([]scan.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ssid, frequency, strength, observed_at FROM scan_observations
         WHERE observed_at >= ? ORDER BY id`,
		since.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("query scan observations: %w", err)
	}
	defer rows.Close()

	var records []scan.Record
	for rows.Next() {
		var (
			record     scan.Record
			observedAt string
		)
		if err := rows.Scan(&record.SSID, &record.Frequency, &record.Strength, &observedAt); err != nil {
			return nil, fmt.Errorf("scan observation row: %w", err)
		}
		seen, err := time.Parse(time.RFC3339Nano, observedAt)
		if err != nil {
			return nil, fmt.Errorf("parse observation time: %w", err)
		}
		record.LastSeen = seen
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scan observations: %w", err)
	}

	return scan.Merge(records), nil
}

// EventRow is one persisted change-feed event.
type EventRow struct {
	RunID      string
	Seq        uint64
	Object     string
	Source     string
	Kind       string
	State      string
	Error      string
	ObservedAt time.Time
}

// RecentEvents returns the newest events first, up to limit.
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]EventRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, seq, object, source, kind, state, error, observed_at
         FROM change_events ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query change events: %w", err)
	}
	defer rows.Close()

	var events []EventRow
	for rows.Next() {
		var (
			row        EventRow
			errText    sql.NullString
			observedAt string
		)
		if err := rows.Scan(&row.RunID, &row.Seq, &row.Object, &row.Source, &row.Kind, &row.State, &errText, &observedAt); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		if errText.Valid {
			row.Error = errText.String
		}
		seen, err := time.Parse(time.RFC3339Nano, observedAt)
		if err != nil {
			return nil, fmt.Errorf("parse event time: %w", err)
		}
		row.ObservedAt = seen
		events = append(events, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate change events: %w", err)
	}
	return events, nil
}

// Prune removes observations older than the cutoff from both logs.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) error {
	stamp := cutoff.UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, "DELETE FROM scan_observations WHERE observed_at < ?", stamp); err != nil {
		return fmt.Errorf("prune scan observations: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM change_events WHERE observed_at < ?", stamp); err != nil {
		return fmt.Errorf("prune change events: %w", err)
	}
	return nil
}
