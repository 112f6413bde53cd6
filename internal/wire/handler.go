package wire

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/matthewbaird/infraview/internal/columns"
	"github.com/matthewbaird/infraview/internal/eventbus"
	"github.com/matthewbaird/infraview/internal/query"
	"github.com/matthewbaird/infraview/internal/schema"
	"github.com/matthewbaird/infraview/internal/session"
)

// pushTimeout bounds a schema_updated write to one slow client.
const pushTimeout = 5 * time.Second

// Handler manages console WebSocket connections. It also consumes schema
// events from the bus and pushes them to sessions viewing the branch.
type Handler struct {
	sessions *session.Manager
	registry *schema.Registry
	rules    columns.Rules
	pageSize int
	log      zerolog.Logger

	mu    sync.RWMutex
	conns map[string]*peer
}

type peer struct {
	sess *session.Session
	conn *websocket.Conn
}

// NewHandler creates a WebSocket handler.
func NewHandler(sessions *session.Manager, registry *schema.Registry, rules columns.Rules, pageSize int, log zerolog.Logger) *Handler {
	if pageSize <= 0 {
		pageSize = query.DefaultPageSize
	}
	return &Handler{
		sessions: sessions,
		registry: registry,
		rules:    rules,
		pageSize: pageSize,
		log:      log,
		conns:    make(map[string]*peer),
	}
}

// ServeHTTP upgrades to WebSocket and runs the message loop.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	sess := h.sessions.Create()
	sess.Attach()
	ctx := r.Context()

	h.mu.Lock()
	h.conns[sess.ID] = &peer{sess: sess, conn: conn}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.conns, sess.ID)
		h.mu.Unlock()
		sess.Detach()
		h.sessions.Remove(sess.ID)
	}()

	h.sendSession(ctx, conn, sess, "")

	// Message loop
	for {
		var msg ClientMessage
		err := wsjson.Read(ctx, conn, &msg)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				h.log.Debug().Int("status", int(websocket.CloseStatus(err))).Str("session", sess.ID).Msg("connection closed")
			}
			return
		}
		sess.Touch()

		switch msg.Type {
		case "subscribe":
			h.handleSubscribe(ctx, conn, sess, msg)
		case "build":
			h.handleBuild(ctx, conn, sess, msg)
		case "ping":
			h.send(ctx, conn, ServerMessage{Type: "pong", RequestID: msg.ID})
		default:
			h.sendError(ctx, conn, msg.ID, "unknown_type", fmt.Sprintf("unknown message type: %s", msg.Type))
		}
	}
}

func (h *Handler) handleSubscribe(ctx context.Context, conn *websocket.Conn, sess *session.Session, msg ClientMessage) {
	var data SubscribeData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid subscribe data")
		return
	}
	scope, err := session.ParseScope(data.Branch, data.At, sess.Scope().Branch)
	if err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_scope", err.Error())
		return
	}
	sess.SetScope(scope)
	h.sendSession(ctx, conn, sess, msg.ID)
}

func (h *Handler) handleBuild(ctx context.Context, conn *websocket.Conn, sess *session.Session, msg ClientMessage) {
	var data BuildData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid build data")
		return
	}

	args, err := query.ParseFilters(url.Values(data.Filters))
	if err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_filter", err.Error())
		return
	}
	view := query.View(data.View)
	switch view {
	case query.ViewList, query.ViewRelationship, query.ViewGroup, query.ViewTasks:
		args = query.Paginate(args, query.Pagination{Limit: h.pageSize})
	}

	set := h.registry.Set(sess.Scope().Branch)
	doc, err := query.BuildView(set, h.rules, query.ViewRequest{
		View:         view,
		Kind:         data.Kind,
		ID:           data.ObjectID,
		Relationship: data.Relationship,
		Args:         args,
		Details:      query.DetailsOptions{Profiles: data.Profiles, TaskCount: data.Tasks},
	})
	if err != nil {
		code := "build_error"
		if errors.Is(err, schema.ErrKindNotFound) {
			code = "kind_not_found"
		}
		h.sendError(ctx, conn, msg.ID, code, err.Error())
		return
	}

	h.send(ctx, conn, ServerMessage{
		Type:      "document",
		RequestID: msg.ID,
		Data: DocumentData{
			View:       data.View,
			Kind:       data.Kind,
			Query:      doc,
			SchemaHash: set.Hash(),
		},
	})
}

// HandleEvent pushes schema changes to sessions on the event's branch.
func (h *Handler) HandleEvent(ctx context.Context, evt eventbus.Event) error {
	if evt.Type != eventbus.SchemaChanged {
		return nil
	}

	h.mu.RLock()
	var targets []*peer
	for _, p := range h.conns {
		if p.sess.Scope().Branch == evt.Branch {
			targets = append(targets, p)
		}
	}
	h.mu.RUnlock()

	msg := ServerMessage{
		Type: "schema_updated",
		Data: SchemaUpdatedData{
			Branch:       evt.Branch,
			Hash:         evt.Hash,
			PreviousHash: evt.PreviousHash,
			Kinds:        evt.Kinds,
		},
	}
	for _, p := range targets {
		p.sess.Touch()
		wctx, cancel := context.WithTimeout(ctx, pushTimeout)
		h.send(wctx, p.conn, msg)
		cancel()
	}
	return nil
}

// Connections returns the number of open connections.
func (h *Handler) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Handler) sendSession(ctx context.Context, conn *websocket.Conn, sess *session.Session, requestID string) {
	scope := sess.Scope()
	data := SessionData{
		SessionID:  sess.ID,
		Branch:     scope.Branch,
		SchemaHash: h.registry.Set(scope.Branch).Hash(),
	}
	if !scope.At.IsZero() {
		data.At = scope.At.Format(time.RFC3339)
	}
	h.send(ctx, conn, ServerMessage{Type: "session", RequestID: requestID, Data: data})
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg ServerMessage) {
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		h.log.Debug().Err(err).Str("type", msg.Type).Msg("websocket write")
	}
}

func (h *Handler) sendError(ctx context.Context, conn *websocket.Conn, requestID, code, message string) {
	h.send(ctx, conn, ServerMessage{
		Type:      "error",
		RequestID: requestID,
		Data: ErrorData{
			Code:    code,
			Message: message,
		},
	})
}
