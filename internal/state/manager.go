package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Ning0612/lsparse/internal/domain"
)

// DatabaseName is the file created inside the snapshot directory
const DatabaseName = "lsparse.db"

// Manager persists parsed listings as labelled snapshots
type Manager struct {
	db *sql.DB
}

// Snapshot is one stored listing
type Snapshot struct {
	ID         int64     `json:"id" yaml:"id"`
	Label      string    `json:"label" yaml:"label"`
	Dir        string    `json:"dir" yaml:"dir"`
	CapturedAt time.Time `json:"captured_at" yaml:"captured_at"`

	// EntryCount and ErrorCount describe the parse the snapshot came from
	EntryCount int `json:"entry_count" yaml:"entry_count"`
	ErrorCount int `json:"error_count" yaml:"error_count"`

	// Digest fingerprints the raw listing; empty when unknown
	Digest string `json:"digest,omitempty" yaml:"digest,omitempty"`

	// Entries is only populated by GetSnapshot and LatestSnapshot
	Entries []domain.Entry `json:"entries,omitempty" yaml:"entries,omitempty"`
}

// NewManager creates a new snapshot store
func NewManager(dataDir string) (*Manager, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseName)
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Limit connection pool to prevent "database is locked" errors
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode and busy timeout: %w", err)
	}

	manager := &Manager{db: db}

	if err := manager.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return manager, nil
}

// initSchema creates the database schema
func (m *Manager) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		label TEXT NOT NULL,
		dir TEXT NOT NULL,
		captured_at TIMESTAMP NOT NULL,
		entry_count INTEGER DEFAULT 0,
		error_count INTEGER DEFAULT 0,
		digest TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS snapshot_entries (
		snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		kind INTEGER NOT NULL,
		name BLOB NOT NULL,
		permissions TEXT NOT NULL,
		setuid INTEGER NOT NULL,
		setgid INTEGER NOT NULL,
		sticky INTEGER NOT NULL,
		access_marker TEXT NOT NULL,
		links INTEGER NOT NULL,
		owner TEXT NOT NULL,
		grp TEXT NOT NULL,
		size INTEGER NOT NULL,
		precision INTEGER NOT NULL,
		month INTEGER NOT NULL,
		day INTEGER NOT NULL,
		hour INTEGER NOT NULL,
		minute INTEGER NOT NULL,
		year INTEGER NOT NULL,
		PRIMARY KEY (snapshot_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_label_time ON snapshots(label, captured_at DESC);
	`

	_, err := m.db.Exec(schema)
	return err
}

// SaveSnapshot stores the entries under label and returns the new snapshot id.
// Names are stored as BLOBs so arbitrary bytes survive unchanged.
func (m *Manager) SaveSnapshot(ctx context.Context, snap Snapshot) (int64, error) {
	if snap.Label == "" {
		return 0, fmt.Errorf("snapshot label cannot be empty")
	}
	if snap.CapturedAt.IsZero() {
		snap.CapturedAt = time.Now()
	}
	if snap.EntryCount == 0 {
		snap.EntryCount = len(snap.Entries)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (label, dir, captured_at, entry_count, error_count, digest) VALUES (?, ?, ?, ?, ?, ?)`,
		snap.Label, snap.Dir, snap.CapturedAt.UTC(), snap.EntryCount, snap.ErrorCount, snap.Digest,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read snapshot id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_entries (
			snapshot_id, seq, kind, name, permissions, setuid, setgid, sticky, access_marker,
			links, owner, grp, size, precision, month, day, hour, minute, year
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range snap.Entries {
		p := e.Permissions
		ts := e.Modified
		_, err := stmt.ExecContext(ctx,
			id, i, int(e.Kind), []byte(e.Name), triadBits(p), p.Setuid, p.Setgid, p.Sticky, p.AccessMarker,
			int64(e.Links), e.Owner, e.Group, int64(e.Size),
			int(ts.Precision), int(ts.Month), ts.Day, ts.Hour, ts.Minute, ts.Year,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to save entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit snapshot: %w", err)
	}

	return id, nil
}

// GetSnapshot loads a snapshot and its entries by id
func (m *Manager) GetSnapshot(ctx context.Context, id int64) (*Snapshot, error) {
	row := m.db.QueryRowContext(ctx, `
		SELECT id, label, dir, captured_at, entry_count, error_count, digest
		FROM snapshots
		WHERE id = ?
	`, id)

	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", domain.ErrSnapshotNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}

	if err := m.loadEntries(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// LatestSnapshot loads the most recent snapshot stored under label
func (m *Manager) LatestSnapshot(ctx context.Context, label string) (*Snapshot, error) {
	row := m.db.QueryRowContext(ctx, `
		SELECT id, label, dir, captured_at, entry_count, error_count, digest
		FROM snapshots
		WHERE label = ?
		ORDER BY captured_at DESC, id DESC
		LIMIT 1
	`, label)

	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: label %s", domain.ErrSnapshotNotFound, label)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}

	if err := m.loadEntries(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// ListSnapshots returns snapshot headers, newest first.
// An empty label lists every label.
func (m *Manager) ListSnapshots(ctx context.Context, label string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	query := `
		SELECT id, label, dir, captured_at, entry_count, error_count, digest
		FROM snapshots
		WHERE (? = '' OR label = ?)
		ORDER BY captured_at DESC, id DESC
		LIMIT ?
	`

	rows, err := m.db.QueryContext(ctx, query, label, label, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snaps = append(snaps, *snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snaps, nil
}

// DeleteSnapshot removes a snapshot and its entries
func (m *Manager) DeleteSnapshot(ctx context.Context, id int64) error {
	res, err := m.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: id %d", domain.ErrSnapshotNotFound, id)
	}
	return nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(s scanner) (*Snapshot, error) {
	var snap Snapshot
	err := s.Scan(&snap.ID, &snap.Label, &snap.Dir, &snap.CapturedAt, &snap.EntryCount, &snap.ErrorCount, &snap.Digest)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (m *Manager) loadEntries(ctx context.Context, snap *Snapshot) error {
	rows, err := m.db.QueryContext(ctx, `
		SELECT kind, name, permissions, setuid, setgid, sticky, access_marker,
			links, owner, grp, size, precision, month, day, hour, minute, year
		FROM snapshot_entries
		WHERE snapshot_id = ?
		ORDER BY seq
	`, snap.ID)
	if err != nil {
		return fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	snap.Entries = []domain.Entry{}
	for rows.Next() {
		var (
			e                      domain.Entry
			kind, precision, month int
			name                   []byte
			bits                   string
			links, size            int64
		)
		err := rows.Scan(
			&kind, &name, &bits, &e.Permissions.Setuid, &e.Permissions.Setgid, &e.Permissions.Sticky,
			&e.Permissions.AccessMarker, &links, &e.Owner, &e.Group, &size,
			&precision, &month, &e.Modified.Day, &e.Modified.Hour, &e.Modified.Minute, &e.Modified.Year,
		)
		if err != nil {
			return fmt.Errorf("failed to scan entry: %w", err)
		}
		e.Kind = domain.Kind(kind)
		e.Name = string(name)
		e.Dir = snap.Dir
		e.Links = uint64(links)
		e.Size = uint64(size)
		e.Modified.Precision = domain.Precision(precision)
		e.Modified.Month = time.Month(month)
		setTriads(&e.Permissions, bits)
		snap.Entries = append(snap.Entries, e)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating entries: %w", err)
	}
	return nil
}

// triadBits stores the rwx flags as nine '0'/'1' characters
func triadBits(p domain.Permissions) string {
	buf := make([]byte, 0, 9)
	for _, t := range [3]domain.Triad{p.Owner, p.Group, p.Other} {
		for _, set := range [3]bool{t.Read, t.Write, t.Exec} {
			if set {
				buf = append(buf, '1')
			} else {
				buf = append(buf, '0')
			}
		}
	}
	return string(buf)
}

func setTriads(p *domain.Permissions, bits string) {
	if len(bits) != 9 {
		return
	}
	triads := [3]*domain.Triad{&p.Owner, &p.Group, &p.Other}
	for i, t := range triads {
		t.Read = bits[i*3] == '1'
		t.Write = bits[i*3+1] == '1'
		t.Exec = bits[i*3+2] == '1'
	}
}
