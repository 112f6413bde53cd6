package handler

import (
	"net/http"
	"time"

	"github.com/matthewbaird/infraview/internal/columns"
	"github.com/matthewbaird/infraview/internal/display"
	"github.com/matthewbaird/infraview/internal/query"
	"github.com/matthewbaird/infraview/internal/schema"
)

type objectRow struct {
	ID           string                   `json:"id"`
	DisplayLabel string                   `json:"display_label"`
	Values       map[string]display.Value `json:"values"`
}

type objectTable struct {
	Kind    string           `json:"kind"`
	Count   int              `json:"count"`
	Columns []columns.Column `json:"columns"`
	Rows    []objectRow      `json:"rows"`
	Query   string           `json:"query"`
}

// ListObjects runs the list document for {kind} against the backend and
// returns one resolved display value per column and row.
func (h *ConsoleHandler) ListObjects(w http.ResponseWriter, r *http.Request) {
	if h.backend == nil {
		writeError(w, r, http.StatusServiceUnavailable, "NO_BACKEND", "backend address is not configured")
		return
	}
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	set, ns, ok := h.lookup(w, r)
	if !ok {
		return
	}
	args, ok := h.filters(w, r)
	if !ok {
		return
	}

	b := query.New(columns.New(h.rules, set))
	doc, err := b.ObjectList(ns, args)
	if err != nil {
		errorToHTTP(w, r, err)
		return
	}
	data, err := h.backend.Execute(r.Context(), scope, doc, nil)
	if err != nil {
		errorToHTTP(w, r, err)
		return
	}

	cols := b.Columns().Columns(ns, true, 0)
	if cols == nil {
		cols = []columns.Column{}
	}
	labels := set.KindLabels()
	table := objectTable{Kind: ns.Kind, Columns: cols, Rows: []objectRow{}, Query: doc}
	conn, _ := data[ns.Kind].(map[string]any)
	if n, ok := conn["count"].(float64); ok {
		table.Count = int(n)
	}
	edges, _ := conn["edges"].([]any)
	for _, e := range edges {
		edge, _ := e.(map[string]any)
		node, _ := edge["node"].(map[string]any)
		if node == nil {
			continue
		}
		row := objectRow{Values: make(map[string]display.Value, len(cols))}
		row.ID, _ = node["id"].(string)
		row.DisplayLabel, _ = node["display_label"].(string)
		for _, c := range cols {
			row.Values[c.Name] = display.Resolve(node, c, labels, h.display)
		}
		table.Rows = append(table.Rows, row)
	}
	writeJSON(w, r, http.StatusOK, table)
}

type displayRequest struct {
	Kind     string         `json:"kind"`
	Column   string         `json:"column"`
	Row      map[string]any `json:"row"`
	Timezone string         `json:"timezone,omitempty"`
	// MaxLength overrides the truncation length; negative disables it.
	MaxLength int `json:"max_length,omitempty"`
}

// ResolveDisplay resolves one value of a row fetched by the client.
func (h *ConsoleHandler) ResolveDisplay(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req displayRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	set := h.registry.Set(scope.Branch)
	ns, err := set.Lookup(req.Kind)
	if err != nil {
		errorToHTTP(w, r, err)
		return
	}
	col, ok := columnByName(ns, req.Column)
	if !ok {
		writeError(w, r, http.StatusNotFound, "COLUMN_NOT_FOUND", "no attribute or relationship "+req.Column+" on "+ns.Kind)
		return
	}

	opts := h.display
	if req.Timezone != "" {
		loc, err := time.LoadLocation(req.Timezone)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "INVALID_TIMEZONE", err.Error())
			return
		}
		opts.Location = loc
	}
	if req.MaxLength != 0 {
		opts.MaxLength = req.MaxLength
	}
	writeJSON(w, r, http.StatusOK, display.Resolve(req.Row, col, set.KindLabels(), opts))
}

func columnByName(ns *schema.NodeSchema, name string) (columns.Column, bool) {
	if a, ok := ns.Attribute(name); ok {
		return columns.FromAttribute(a), true
	}
	if rel, ok := ns.Relationship(name); ok {
		return columns.FromRelationship(rel), true
	}
	return columns.Column{}, false
}
