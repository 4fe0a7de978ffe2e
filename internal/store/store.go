// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists review data: the working records file, the
// snapshot database, and the audit logs (status overrides, ID renames) the
// consistency checker reads.
// Implements: prd006-snapshots (R1-R3), prd001-records (R2-R3);
//
//	docs/ARCHITECTURE § Snapshot Store.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/review-engine/pkg/types"
)

// Store manages the snapshot SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the snapshot database at path, creating the schema
// when absent (R1.1).
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			label TEXT,
			taken_at TEXT NOT NULL,
			record_count INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS snapshot_records (
			snapshot_id TEXT NOT NULL REFERENCES snapshots(id),
			id TEXT NOT NULL,
			entrytype TEXT NOT NULL,
			status TEXT NOT NULL,
			origins TEXT,
			provenance TEXT,
			fields TEXT,
			position INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshot_records_snapshot ON snapshot_records(snapshot_id)`,
		`CREATE TABLE IF NOT EXISTS status_overrides (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			record_id TEXT NOT NULL,
			from_status TEXT NOT NULL,
			to_status TEXT NOT NULL,
			operation TEXT,
			reason TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS id_renames (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			old_id TEXT NOT NULL,
			new_id TEXT NOT NULL,
			reason TEXT,
			created_at TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Snapshot is the metadata of one committed collection state.
type Snapshot struct {
	ID          string    `json:"id" yaml:"id"`
	Label       string    `json:"label,omitempty" yaml:"label,omitempty"`
	TakenAt     time.Time `json:"taken_at" yaml:"taken_at"`
	RecordCount int       `json:"record_count" yaml:"record_count"`
}

// ErrNoSnapshots is returned when the store holds no snapshots yet. The
// first consistency run treats it as an empty prior.
var ErrNoSnapshots = errors.New("no snapshots in store")

// SaveSnapshot commits the collection under a fresh snapshot ID and returns
// its metadata (R2.1). Record order is preserved.
func (s *Store) SaveSnapshot(ctx context.Context, label string, records []*types.Record) (Snapshot, error) {
	snap := Snapshot{
		ID:          uuid.NewString(),
		Label:       label,
		TakenAt:     time.Now().UTC(),
		RecordCount: len(records),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, label, taken_at, record_count) VALUES (?, ?, ?, ?)`,
		snap.ID, snap.Label, snap.TakenAt.Format(time.RFC3339Nano), snap.RecordCount,
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("inserting snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snapshot_records (snapshot_id, id, entrytype, status, origins, provenance, fields, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		originsJSON, _ := json.Marshal(r.Origins)
		provenanceJSON, _ := json.Marshal(r.Provenance)
		fieldsJSON, _ := json.Marshal(r.Fields)
		if _, err := stmt.ExecContext(ctx,
			snap.ID, r.ID, r.EntryType, string(r.Status),
			string(originsJSON), string(provenanceJSON), string(fieldsJSON), i,
		); err != nil {
			return Snapshot{}, fmt.Errorf("inserting record %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, fmt.Errorf("committing snapshot: %w", err)
	}
	return snap, nil
}

// LatestSnapshot returns the most recent snapshot and its records, or
// ErrNoSnapshots (R2.2).
func (s *Store) LatestSnapshot(ctx context.Context) (Snapshot, []*types.Record, error) {
	snap, err := s.scanSnapshot(s.db.QueryRowContext(ctx,
		`SELECT id, label, taken_at, record_count FROM snapshots
		 ORDER BY taken_at DESC, rowid DESC LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, nil, ErrNoSnapshots
	}
	if err != nil {
		return Snapshot{}, nil, err
	}
	records, err := s.snapshotRecords(ctx, snap.ID)
	if err != nil {
		return Snapshot{}, nil, err
	}
	return snap, records, nil
}

// LoadSnapshot returns the snapshot with the given ID and its records.
func (s *Store) LoadSnapshot(ctx context.Context, id string) (Snapshot, []*types.Record, error) {
	snap, err := s.scanSnapshot(s.db.QueryRowContext(ctx,
		`SELECT id, label, taken_at, record_count FROM snapshots WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, nil, fmt.Errorf("snapshot %s not found", id)
	}
	if err != nil {
		return Snapshot{}, nil, err
	}
	records, err := s.snapshotRecords(ctx, snap.ID)
	if err != nil {
		return Snapshot{}, nil, err
	}
	return snap, records, nil
}

// ListSnapshots returns snapshot metadata, oldest first.
func (s *Store) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, label, taken_at, record_count FROM snapshots
		 ORDER BY taken_at ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		snap, err := s.scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanSnapshot(row rowScanner) (Snapshot, error) {
	var snap Snapshot
	var takenAt string
	if err := row.Scan(&snap.ID, &snap.Label, &takenAt, &snap.RecordCount); err != nil {
		return Snapshot{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, takenAt)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parsing snapshot time: %w", err)
	}
	snap.TakenAt = parsed
	return snap, nil
}

func (s *Store) snapshotRecords(ctx context.Context, snapshotID string) ([]*types.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, entrytype, status, origins, provenance, fields
		 FROM snapshot_records WHERE snapshot_id = ? ORDER BY position ASC`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("querying snapshot records: %w", err)
	}
	defer rows.Close()

	var records []*types.Record
	for rows.Next() {
		var (
			r          types.Record
			status     string
			origins    string
			provenance string
			fields     string
		)
		if err := rows.Scan(&r.ID, &r.EntryType, &status, &origins, &provenance, &fields); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		r.Status, err = types.ParseStatus(status)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", r.ID, err)
		}
		if origins != "" {
			if err := json.Unmarshal([]byte(origins), &r.Origins); err != nil {
				return nil, fmt.Errorf("record %s: parsing origins: %w", r.ID, err)
			}
		}
		if provenance != "" {
			if err := json.Unmarshal([]byte(provenance), &r.Provenance); err != nil {
				return nil, fmt.Errorf("record %s: parsing provenance: %w", r.ID, err)
			}
		}
		if fields != "" {
			if err := json.Unmarshal([]byte(fields), &r.Fields); err != nil {
				return nil, fmt.Errorf("record %s: parsing fields: %w", r.ID, err)
			}
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

// LogOverride records a manual status change in the audit log (R3.1).
func (s *Store) LogOverride(ctx context.Context, o types.StatusOverride) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO status_overrides (record_id, from_status, to_status, operation, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		o.RecordID, string(o.From), string(o.To), o.Operation, o.Reason,
		o.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("logging status override: %w", err)
	}
	return nil
}

// LogRename records a record ID change in the audit log (R3.2).
func (s *Store) LogRename(ctx context.Context, ren types.IDRename) error {
	if ren.CreatedAt.IsZero() {
		ren.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO id_renames (old_id, new_id, reason, created_at)
		 VALUES (?, ?, ?, ?)`,
		ren.OldID, ren.NewID, ren.Reason, ren.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("logging rename: %w", err)
	}
	return nil
}

// Overrides returns the status override log, oldest first.
func (s *Store) Overrides(ctx context.Context) ([]types.StatusOverride, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record_id, from_status, to_status, operation, reason, created_at
		 FROM status_overrides ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying overrides: %w", err)
	}
	defer rows.Close()

	var overrides []types.StatusOverride
	for rows.Next() {
		var (
			o         types.StatusOverride
			from      string
			to        string
			createdAt string
		)
		if err := rows.Scan(&o.RecordID, &from, &to, &o.Operation, &o.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning override: %w", err)
		}
		o.From = types.Status(from)
		o.To = types.Status(to)
		if o.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parsing override time: %w", err)
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

// Renames returns the ID rename log, oldest first.
func (s *Store) Renames(ctx context.Context) ([]types.IDRename, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT old_id, new_id, reason, created_at FROM id_renames ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying renames: %w", err)
	}
	defer rows.Close()

	var renames []types.IDRename
	for rows.Next() {
		var (
			ren       types.IDRename
			createdAt string
		)
		if err := rows.Scan(&ren.OldID, &ren.NewID, &ren.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning rename: %w", err)
		}
		if ren.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parsing rename time: %w", err)
		}
		renames = append(renames, ren)
	}
	return renames, rows.Err()
}
