// Package handler implements the console's REST endpoints: schema summary,
// derived columns and tabs, generated GraphQL documents and resolved
// display values.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/infraview/internal/client"
	"github.com/matthewbaird/infraview/internal/columns"
	"github.com/matthewbaird/infraview/internal/display"
	"github.com/matthewbaird/infraview/internal/query"
	"github.com/matthewbaird/infraview/internal/schema"
	"github.com/matthewbaird/infraview/internal/session"
)

// Executor runs a document against the backend.
type Executor interface {
	Execute(ctx context.Context, scope client.Scope, document string, variables map[string]any) (map[string]any, error)
}

// Refresher reloads a branch's schema from its source.
type Refresher interface {
	Refresh(ctx context.Context, branch string) (*schema.Set, error)
}

// ConsoleHandler serves the console REST API.
type ConsoleHandler struct {
	registry      *schema.Registry
	rules         columns.Rules
	backend       Executor
	refresher     Refresher
	defaultBranch string
	pageSize      int
	display       display.Options
}

// Option configures a ConsoleHandler.
type Option func(*ConsoleHandler)

// WithBackend enables object listing and display resolution against a live
// backend.
func WithBackend(e Executor) Option { return func(h *ConsoleHandler) { h.backend = e } }

// WithRefresher enables POST /api/schema/refresh.
func WithRefresher(r Refresher) Option { return func(h *ConsoleHandler) { h.refresher = r } }

// WithPageSize sets the default list page size.
func WithPageSize(n int) Option {
	return func(h *ConsoleHandler) {
		if n > 0 {
			h.pageSize = n
		}
	}
}

// WithDisplayOptions sets how values are rendered by the objects endpoint.
func WithDisplayOptions(o display.Options) Option { return func(h *ConsoleHandler) { h.display = o } }

// NewConsoleHandler creates a ConsoleHandler.
func NewConsoleHandler(registry *schema.Registry, rules columns.Rules, defaultBranch string, opts ...Option) *ConsoleHandler {
	h := &ConsoleHandler{
		registry:      registry,
		rules:         rules,
		defaultBranch: defaultBranch,
		pageSize:      query.DefaultPageSize,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Routes registers every console route on r.
func (h *ConsoleHandler) Routes(r chi.Router) {
	r.Get("/api/schema", h.GetSchema)
	r.Post("/api/schema/refresh", h.RefreshSchema)
	r.Get("/api/complete", h.CompleteKinds)

	r.Route("/api/kinds/{kind}", func(r chi.Router) {
		r.Get("/", h.GetKind)
		r.Get("/columns", h.GetColumns)
		r.Get("/tabs", h.GetTabs)
		r.Get("/complete", h.CompleteFields)
		r.Get("/objects", h.ListObjects)

		r.Get("/queries/list", h.ListQuery)
		r.Get("/queries/details/{id}", h.DetailsQuery)
		r.Get("/queries/details/{id}/relationships/{rel}", h.RelationshipQuery)
		r.Get("/queries/group/{id}", h.GroupQuery)
		r.Get("/queries/profile/{id}", h.ProfileQuery)
		r.Get("/queries/search/{id}", h.SearchQuery)
	})

	r.Get("/api/validators/{id}/query", h.ValidatorQuery)
	r.Get("/api/tasks/query", h.TasksQuery)
	r.Get("/api/tasks/{id}/query", h.TaskQuery)
	r.Get("/api/branches/query", h.BranchesQuery)
	r.Post("/api/branches/{name}/{action}/query", h.BranchActionQuery)

	r.Post("/api/display", h.ResolveDisplay)
}

// scope reads branch and at from the request, writing a 400 on failure.
func (h *ConsoleHandler) scope(w http.ResponseWriter, r *http.Request) (client.Scope, bool) {
	scope, err := session.ScopeFromRequest(r, h.defaultBranch)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_SCOPE", err.Error())
		return client.Scope{}, false
	}
	return scope, true
}

// lookup resolves the {kind} path parameter in the request's branch schema.
func (h *ConsoleHandler) lookup(w http.ResponseWriter, r *http.Request) (*schema.Set, *schema.NodeSchema, bool) {
	scope, ok := h.scope(w, r)
	if !ok {
		return nil, nil, false
	}
	set := h.registry.Set(scope.Branch)
	ns, err := set.Lookup(chi.URLParam(r, "kind"))
	if err != nil {
		errorToHTTP(w, r, err)
		return nil, nil, false
	}
	return set, ns, true
}

// ── Schema ──────────────────────────────────────────────────────────────────

type kindSummary struct {
	Kind    string `json:"kind"`
	Label   string `json:"label"`
	Generic bool   `json:"generic,omitempty"`
	Profile bool   `json:"profile,omitempty"`
}

type schemaSummary struct {
	Branch   string        `json:"branch"`
	Hash     string        `json:"hash"`
	LoadedAt *time.Time    `json:"loaded_at,omitempty"`
	Kinds    []kindSummary `json:"kinds"`
}

func (h *ConsoleHandler) summary(branch string) schemaSummary {
	set := h.registry.Set(branch)
	out := schemaSummary{Branch: branch, Hash: set.Hash(), Kinds: []kindSummary{}}
	if at, ok := h.registry.LoadedAt(branch); ok {
		out.LoadedAt = &at
	}
	for _, k := range set.Kinds() {
		ns := set.Kind(k)
		out.Kinds = append(out.Kinds, kindSummary{
			Kind:    k,
			Label:   ns.DisplayName(),
			Generic: ns.Generic,
			Profile: ns.Profile,
		})
	}
	return out
}

func (h *ConsoleHandler) GetSchema(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, h.summary(scope.Branch))
}

func (h *ConsoleHandler) RefreshSchema(w http.ResponseWriter, r *http.Request) {
	if h.refresher == nil {
		writeError(w, r, http.StatusServiceUnavailable, "NO_SCHEMA_SOURCE", "schema refresh is not configured")
		return
	}
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	if _, err := h.refresher.Refresh(r.Context(), scope.Branch); err != nil {
		errorToHTTP(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, h.summary(scope.Branch))
}

func (h *ConsoleHandler) GetKind(w http.ResponseWriter, r *http.Request) {
	_, ns, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, ns)
}

// ── Columns ─────────────────────────────────────────────────────────────────

func (h *ConsoleHandler) GetColumns(w http.ResponseWriter, r *http.Request) {
	set, ns, ok := h.lookup(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	listView := true
	switch q.Get("view") {
	case "", "list":
	case "detail", "details":
		listView = false
	default:
		writeError(w, r, http.StatusBadRequest, "INVALID_VIEW", "view must be list or detail")
		return
	}
	limit, err := queryInt(q, "limit", 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_LIMIT", err.Error())
		return
	}
	cols := columns.New(h.rules, set).Columns(ns, listView, limit)
	if cols == nil {
		cols = []columns.Column{}
	}
	writeJSON(w, r, http.StatusOK, cols)
}

func (h *ConsoleHandler) GetTabs(w http.ResponseWriter, r *http.Request) {
	set, ns, ok := h.lookup(w, r)
	if !ok {
		return
	}
	tabs := columns.New(h.rules, set).Tabs(ns)
	if tabs == nil {
		tabs = []columns.Tab{}
	}
	writeJSON(w, r, http.StatusOK, tabs)
}

// ── Completion ──────────────────────────────────────────────────────────────

func (h *ConsoleHandler) CompleteKinds(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, h.registry.Set(scope.Branch).CompleteKinds(r.URL.Query().Get("q")))
}

func (h *ConsoleHandler) CompleteFields(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	items, err := h.registry.Set(scope.Branch).CompleteFields(chi.URLParam(r, "kind"), r.URL.Query().Get("q"))
	if err != nil {
		errorToHTTP(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, items)
}
