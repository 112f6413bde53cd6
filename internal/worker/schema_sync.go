// Package worker contains background workers that keep derived state fresh.
package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/matthewbaird/infraview/internal/schema"
)

// Refresher reloads one branch's schema.
type Refresher interface {
	Refresh(ctx context.Context, branch string) (*schema.Set, error)
}

// BranchLister reports the branches that currently have a schema.
type BranchLister interface {
	Branches() []string
}

// SchemaSyncWorker periodically refreshes the schema of every loaded branch
// so backend schema changes reach the registry and websocket subscribers.
type SchemaSyncWorker struct {
	refresher Refresher
	branches  BranchLister
	interval  time.Duration
	log       zerolog.Logger
}

// NewSchemaSyncWorker creates a worker refreshing every interval.
func NewSchemaSyncWorker(refresher Refresher, branches BranchLister, interval time.Duration, log zerolog.Logger) *SchemaSyncWorker {
	return &SchemaSyncWorker{
		refresher: refresher,
		branches:  branches,
		interval:  interval,
		log:       log,
	}
}

// Run syncs on every tick until ctx is cancelled. A non-positive interval
// returns immediately.
func (w *SchemaSyncWorker) Run(ctx context.Context) {
	if w.interval <= 0 {
		return
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.SyncOnce(ctx)
		}
	}
}

// SyncOnce refreshes each branch once and returns how many failed. One
// failing branch does not stop the others.
func (w *SchemaSyncWorker) SyncOnce(ctx context.Context) int {
	failed := 0
	for _, branch := range w.branches.Branches() {
		if ctx.Err() != nil {
			return failed
		}
		if _, err := w.refresher.Refresh(ctx, branch); err != nil {
			failed++
			w.log.Warn().Err(err).Str("branch", branch).Msg("schema_sync: refresh failed")
			continue
		}
		w.log.Debug().Str("branch", branch).Msg("schema_sync: refreshed")
	}
	return failed
}
