package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the table.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// One writer; avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.CreateTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// CreateTable creates the snapshot table if missing.
func (s *SQLiteStore) CreateTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_snapshots (
			seq         INTEGER PRIMARY KEY AUTOINCREMENT,
			id          TEXT NOT NULL UNIQUE,
			branch      TEXT NOT NULL,
			hash        TEXT NOT NULL,
			taken_at_ns INTEGER NOT NULL,
			payload     BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_schema_snapshots_branch
			ON schema_snapshots (branch, taken_at_ns DESC, seq DESC);
	`)
	if err != nil {
		return fmt.Errorf("creating schema_snapshots: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, snap Snapshot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO schema_snapshots (id, branch, hash, taken_at_ns, payload) VALUES (?, ?, ?, ?, ?)`,
		snap.ID, snap.Branch, snap.Hash, snap.TakenAt.UnixNano(), snap.Payload)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Latest(ctx context.Context, branch string) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, branch, hash, taken_at_ns, payload FROM schema_snapshots
		WHERE branch = ? ORDER BY taken_at_ns DESC, seq DESC LIMIT 1`, branch)
	snap, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	return snap, err
}

func (s *SQLiteStore) List(ctx context.Context, branch string, limit int) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, branch, hash, taken_at_ns, payload FROM schema_snapshots
		WHERE branch = ? ORDER BY taken_at_ns DESC, seq DESC LIMIT ?`, branch, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		snap, err := scanSQLite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLite(row scanner) (Snapshot, error) {
	var snap Snapshot
	var ns int64
	if err := row.Scan(&snap.ID, &snap.Branch, &snap.Hash, &ns, &snap.Payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, err
		}
		return Snapshot{}, fmt.Errorf("scanning snapshot: %w", err)
	}
	snap.TakenAt = time.Unix(0, ns).UTC()
	return snap, nil
}
