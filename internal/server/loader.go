package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/matthewbaird/infraview/internal/client"
	"github.com/matthewbaird/infraview/internal/eventbus"
	"github.com/matthewbaird/infraview/internal/schema"
	"github.com/matthewbaird/infraview/internal/snapshot"
)

// SchemaSource fetches a branch's schema from the backend.
type SchemaSource interface {
	FetchSchema(ctx context.Context, scope client.Scope) (*schema.Set, error)
}

// errNoSource is returned by Refresh when neither a file nor a backend is
// configured.
var errNoSource = errors.New("no schema source configured")

// Loader installs schemas into the registry and announces every change on
// the bus. A schema file, when set, takes precedence over the backend.
type Loader struct {
	registry   *schema.Registry
	bus        *eventbus.Bus
	backend    SchemaSource
	snapshots  snapshot.Store
	schemaFile string
	log        zerolog.Logger

	mu sync.Mutex
}

// NewLoader creates a Loader. backend and snapshots may be nil.
func NewLoader(registry *schema.Registry, bus *eventbus.Bus, backend SchemaSource, snapshots snapshot.Store, schemaFile string, log zerolog.Logger) *Loader {
	return &Loader{
		registry:   registry,
		bus:        bus,
		backend:    backend,
		snapshots:  snapshots,
		schemaFile: schemaFile,
		log:        log,
	}
}

// Refresh loads branch from its source and installs it.
func (l *Loader) Refresh(ctx context.Context, branch string) (*schema.Set, error) {
	src := eventbus.SourceBackend
	if l.schemaFile != "" {
		src = eventbus.SourceFile
	}

	set, err := l.fetch(ctx, branch)
	if err != nil {
		if !errors.Is(err, errNoSource) {
			l.bus.Publish(ctx, eventbus.NewSchemaLoadFailed(branch, src, err))
		}
		return nil, err
	}
	l.install(ctx, branch, src, set)
	return set, nil
}

// Bootstrap loads branch at startup. When the source fails the latest
// snapshot is restored; without one the branch starts empty.
func (l *Loader) Bootstrap(ctx context.Context, branch string) eventbus.Source {
	_, err := l.Refresh(ctx, branch)
	if err == nil {
		if l.schemaFile != "" {
			return eventbus.SourceFile
		}
		return eventbus.SourceBackend
	}
	l.log.Warn().Err(err).Str("branch", branch).Msg("schema source unavailable")

	if l.snapshots != nil {
		snap, err := l.snapshots.Latest(ctx, branch)
		switch {
		case err == nil:
			set, derr := snap.Set()
			if derr == nil {
				l.install(ctx, branch, eventbus.SourceSnapshot, set)
				return eventbus.SourceSnapshot
			}
			l.log.Error().Err(derr).Str("snapshot", snap.ID).Msg("snapshot payload unreadable")
		case !errors.Is(err, snapshot.ErrNotFound):
			l.log.Error().Err(err).Str("branch", branch).Msg("snapshot lookup")
		}
	}

	l.install(ctx, branch, eventbus.SourceEmpty, schema.EmptySet())
	return eventbus.SourceEmpty
}

func (l *Loader) fetch(ctx context.Context, branch string) (*schema.Set, error) {
	switch {
	case l.schemaFile != "":
		set, err := schema.LoadFile(l.schemaFile)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", l.schemaFile, err)
		}
		return set, nil
	case l.backend != nil:
		return l.backend.FetchSchema(ctx, client.Scope{Branch: branch})
	default:
		return nil, errNoSource
	}
}

// install swaps set in and publishes SchemaChanged when the content differs.
func (l *Loader) install(ctx context.Context, branch string, src eventbus.Source, set *schema.Set) {
	l.mu.Lock()
	defer l.mu.Unlock()

	previous := l.registry.Set(branch)
	if !l.registry.Replace(branch, set) {
		return
	}
	l.bus.Publish(ctx, eventbus.NewSchemaChanged(branch, src, set, previous))
}
