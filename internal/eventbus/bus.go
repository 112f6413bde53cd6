// Package eventbus provides an in-process pub/sub bus for schema events.
// Publishers never block; subscribers run on a single consumer goroutine.
package eventbus

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/matthewbaird/infraview/internal/schema"
)

// EventType names an event.
type EventType string

const (
	// SchemaChanged is published when a branch's schema content changes.
	SchemaChanged EventType = "schema_changed"
	// SchemaLoadFailed is published when a refresh could not reach a source.
	SchemaLoadFailed EventType = "schema_load_failed"
)

// Source says where a schema came from.
type Source string

const (
	SourceFile     Source = "file"
	SourceBackend  Source = "backend"
	SourceSnapshot Source = "snapshot"
	SourceEmpty    Source = "empty"
)

// Event is a schema lifecycle event.
type Event struct {
	ID           string    `json:"id"`
	Type         EventType `json:"type"`
	Branch       string    `json:"branch"`
	Source       Source    `json:"source,omitempty"`
	Hash         string    `json:"hash,omitempty"`
	PreviousHash string    `json:"previous_hash,omitempty"`
	Kinds        int       `json:"kinds"`
	Error        string    `json:"error,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`

	// Set is the new schema for SchemaChanged.
	Set *schema.Set `json:"-"`
}

// NewSchemaChanged builds a SchemaChanged event.
func NewSchemaChanged(branch string, src Source, set, previous *schema.Set) Event {
	return Event{
		ID:           uuid.NewString(),
		Type:         SchemaChanged,
		Branch:       branch,
		Source:       src,
		Hash:         set.Hash(),
		PreviousHash: previous.Hash(),
		Kinds:        set.Len(),
		OccurredAt:   time.Now().UTC(),
		Set:          set,
	}
}

// NewSchemaLoadFailed builds a SchemaLoadFailed event.
func NewSchemaLoadFailed(branch string, src Source, err error) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       SchemaLoadFailed,
		Branch:     branch,
		Source:     src,
		Error:      err.Error(),
		OccurredAt: time.Now().UTC(),
	}
}

// Handler processes an event. Implementations must be safe for concurrent
// calls from different goroutines.
type Handler interface {
	HandleEvent(ctx context.Context, evt Event) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, evt Event) error

func (f HandlerFunc) HandleEvent(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}

// Bus is a simple in-process event bus. Events are published to a buffered
// channel and dispatched to all subscribers in order by one goroutine.
type Bus struct {
	mu          sync.RWMutex
	subscribers []namedHandler
	events      chan Event
	closed      bool
	done        chan struct{}
	log         zerolog.Logger
}

type namedHandler struct {
	name    string
	handler Handler
}

// New creates a Bus with the given channel buffer size.
func New(bufSize int, log zerolog.Logger) *Bus {
	if bufSize < 1 {
		bufSize = 256
	}
	return &Bus{
		events: make(chan Event, bufSize),
		done:   make(chan struct{}),
		log:    log,
	}
}

// Subscribe registers a named handler.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, namedHandler{name: name, handler: h})
}

// Publish sends an event to the bus. Non-blocking: if the buffer is full
// or the bus is stopped the event is dropped and a warning is logged.
func (b *Bus) Publish(_ context.Context, evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		b.log.Warn().Str("event", string(evt.Type)).Str("id", evt.ID).Msg("eventbus: stopped, dropping event")
		return
	}
	select {
	case b.events <- evt:
	default:
		b.log.Warn().Str("event", string(evt.Type)).Str("id", evt.ID).Msg("eventbus: buffer full, dropping event")
	}
}

// Start begins the consumer goroutine. It processes events until the
// context is cancelled or Stop is called, draining what is buffered.
// Events dispatched after ctx is cancelled get a context that is not.
func (b *Bus) Start(ctx context.Context) {
	go func() {
		defer close(b.done)
		for {
			select {
			case evt, ok := <-b.events:
				if !ok {
					return
				}
				b.dispatch(ctx, evt)
			case <-ctx.Done():
				for {
					select {
					case evt, ok := <-b.events:
						if !ok {
							return
						}
						b.dispatch(ctx, evt)
					default:
						return
					}
				}
			}
		}
	}()
}

// Stop closes the bus and waits for buffered events to be dispatched.
// Events published after Stop are dropped.
func (b *Bus) Stop() {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.events)
	}
	b.mu.Unlock()
	<-b.done
}

func (b *Bus) dispatch(ctx context.Context, evt Event) {
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}
	b.mu.RLock()
	subs := b.subscribers
	b.mu.RUnlock()

	for _, s := range subs {
		if err := s.handler.HandleEvent(ctx, evt); err != nil {
			b.log.Error().Err(err).Str("subscriber", s.name).Str("event", string(evt.Type)).Msg("eventbus: handler error")
		}
	}
}
