package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on Postgres through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and ensures the table.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.CreateTable(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// CreateTable creates the snapshot table if missing.
func (s *PostgresStore) CreateTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_snapshots (
			seq      BIGSERIAL PRIMARY KEY,
			id       UUID NOT NULL UNIQUE,
			branch   TEXT NOT NULL,
			hash     TEXT NOT NULL,
			taken_at TIMESTAMPTZ NOT NULL,
			payload  JSONB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_schema_snapshots_branch
			ON schema_snapshots (branch, taken_at DESC, seq DESC);
	`)
	if err != nil {
		return fmt.Errorf("creating schema_snapshots: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, snap Snapshot) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO schema_snapshots (id, branch, hash, taken_at, payload) VALUES ($1, $2, $3, $4, $5)`,
		snap.ID, snap.Branch, snap.Hash, snap.TakenAt, string(snap.Payload))
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) Latest(ctx context.Context, branch string) (Snapshot, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id::text, branch, hash, taken_at, payload::text FROM schema_snapshots
		WHERE branch = $1 ORDER BY taken_at DESC, seq DESC LIMIT 1`, branch)
	snap, err := scanPostgres(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	return snap, err
}

func (s *PostgresStore) List(ctx context.Context, branch string, limit int) ([]Snapshot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, branch, hash, taken_at, payload::text FROM schema_snapshots
		WHERE branch = $1 ORDER BY taken_at DESC, seq DESC LIMIT $2`, branch, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		snap, err := scanPostgres(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanPostgres(row pgx.Row) (Snapshot, error) {
	var snap Snapshot
	var payload string
	if err := row.Scan(&snap.ID, &snap.Branch, &snap.Hash, &snap.TakenAt, &payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, err
		}
		return Snapshot{}, fmt.Errorf("scanning snapshot: %w", err)
	}
	snap.TakenAt = snap.TakenAt.UTC()
	snap.Payload = []byte(payload)
	return snap, nil
}
