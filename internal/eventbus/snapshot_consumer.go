package eventbus

import (
	"context"
	"fmt"

	"github.com/matthewbaird/infraview/internal/snapshot"
)

// SnapshotConsumer persists every changed schema. Schemas restored from a
// snapshot and empty fallbacks are not saved.
type SnapshotConsumer struct {
	store snapshot.Store
}

// NewSnapshotConsumer creates a consumer writing to store.
func NewSnapshotConsumer(store snapshot.Store) *SnapshotConsumer {
	return &SnapshotConsumer{store: store}
}

// HandleEvent saves the event's schema set.
func (c *SnapshotConsumer) HandleEvent(ctx context.Context, evt Event) error {
	if evt.Type != SchemaChanged || evt.Source == SourceSnapshot || evt.Source == SourceEmpty || evt.Set == nil {
		return nil
	}
	snap, err := snapshot.New(evt.Branch, evt.Set, evt.OccurredAt)
	if err != nil {
		return err
	}
	if err := c.store.Save(ctx, snap); err != nil {
		return fmt.Errorf("snapshot %s@%s: %w", evt.Branch, evt.Hash, err)
	}
	return nil
}
