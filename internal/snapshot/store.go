// Package snapshot persists schema payloads per branch so the service can
// start with the last known schema when the backend is unreachable.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/infraview/internal/schema"
)

// ErrNotFound is returned when a branch has no snapshot.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is one stored schema payload.
type Snapshot struct {
	ID      string    `json:"id"`
	Branch  string    `json:"branch"`
	Hash    string    `json:"hash"`
	TakenAt time.Time `json:"taken_at"`
	Payload []byte    `json:"-"`
}

// New captures set for branch.
func New(branch string, set *schema.Set, takenAt time.Time) (Snapshot, error) {
	payload, err := json.Marshal(set.Payload())
	if err != nil {
		return Snapshot{}, fmt.Errorf("encoding schema payload: %w", err)
	}
	return Snapshot{
		ID:      uuid.NewString(),
		Branch:  branch,
		Hash:    set.Hash(),
		TakenAt: takenAt.UTC(),
		Payload: payload,
	}, nil
}

// Set decodes the stored payload.
func (s Snapshot) Set() (*schema.Set, error) {
	return schema.Decode(s.Payload)
}

// Store reads and writes snapshots.
type Store interface {
	// Save stores a snapshot.
	Save(ctx context.Context, s Snapshot) error

	// Latest returns the newest snapshot of a branch or ErrNotFound.
	Latest(ctx context.Context, branch string) (Snapshot, error)

	// List returns up to limit snapshots of a branch, newest first.
	List(ctx context.Context, branch string, limit int) ([]Snapshot, error)

	Close() error
}

// Open picks a store from a DSN:
//
//	""                               in-memory
//	sqlite://path, file:path, *.db   SQLite
//	postgres://..., postgresql://... Postgres
func Open(ctx context.Context, dsn string) (Store, error) {
	switch {
	case dsn == "":
		return NewMemoryStore(), nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return OpenPostgres(ctx, dsn)
	case strings.HasPrefix(dsn, "sqlite://"):
		return OpenSQLite(ctx, strings.TrimPrefix(dsn, "sqlite://"))
	case strings.HasPrefix(dsn, "file:"), strings.HasSuffix(dsn, ".db"), strings.HasSuffix(dsn, ".sqlite"):
		return OpenSQLite(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported snapshot DSN %q", dsn)
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}
