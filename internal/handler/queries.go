package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/infraview/internal/gql"
	"github.com/matthewbaird/infraview/internal/query"
)

// scopeParams are query parameters consumed by the handler itself and never
// forwarded as GraphQL filters.
var scopeParams = []string{"branch", "at"}

type documentResponse struct {
	View       query.View `json:"view"`
	Kind       string     `json:"kind,omitempty"`
	Query      string     `json:"query"`
	SchemaHash string     `json:"schema_hash"`
}

// document builds req against the request's branch schema and writes it.
func (h *ConsoleHandler) document(w http.ResponseWriter, r *http.Request, req query.ViewRequest) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	set := h.registry.Set(scope.Branch)
	doc, err := query.BuildView(set, h.rules, req)
	if err != nil {
		errorToHTTP(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, documentResponse{
		View:       req.View,
		Kind:       req.Kind,
		Query:      doc,
		SchemaHash: set.Hash(),
	})
}

// filters turns the request's query string into list arguments with the
// default page applied.
func (h *ConsoleHandler) filters(w http.ResponseWriter, r *http.Request, skip ...string) ([]gql.Argument, bool) {
	args, err := query.ParseFilters(r.URL.Query(), append(skip, scopeParams...)...)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_FILTER", err.Error())
		return nil, false
	}
	return query.Paginate(args, query.Pagination{Limit: h.pageSize}), true
}

// page reads offset and limit only.
func (h *ConsoleHandler) page(w http.ResponseWriter, r *http.Request) ([]gql.Argument, bool) {
	q := r.URL.Query()
	offset, err := queryInt(q, "offset", 0)
	if err == nil {
		var limit int
		limit, err = queryInt(q, "limit", h.pageSize)
		if err == nil {
			return query.Pagination{Offset: offset, Limit: limit}.Args(), true
		}
	}
	writeError(w, r, http.StatusBadRequest, "INVALID_PAGINATION", err.Error())
	return nil, false
}

func (h *ConsoleHandler) ListQuery(w http.ResponseWriter, r *http.Request) {
	args, ok := h.filters(w, r)
	if !ok {
		return
	}
	h.document(w, r, query.ViewRequest{View: query.ViewList, Kind: chi.URLParam(r, "kind"), Args: args})
}

func (h *ConsoleHandler) DetailsQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view := query.ViewDetails
	if queryBool(q, "peers") {
		view = query.ViewDetailsPeers
	}
	h.document(w, r, query.ViewRequest{
		View: view,
		Kind: chi.URLParam(r, "kind"),
		ID:   chi.URLParam(r, "id"),
		Details: query.DetailsOptions{
			Profiles:  queryBool(q, "profile"),
			TaskCount: queryBool(q, "tasks"),
		},
	})
}

func (h *ConsoleHandler) RelationshipQuery(w http.ResponseWriter, r *http.Request) {
	args, ok := h.page(w, r)
	if !ok {
		return
	}
	h.document(w, r, query.ViewRequest{
		View:         query.ViewRelationship,
		Kind:         chi.URLParam(r, "kind"),
		ID:           chi.URLParam(r, "id"),
		Relationship: chi.URLParam(r, "rel"),
		Args:         args,
	})
}

func (h *ConsoleHandler) GroupQuery(w http.ResponseWriter, r *http.Request) {
	args, ok := h.page(w, r)
	if !ok {
		return
	}
	h.document(w, r, query.ViewRequest{
		View: query.ViewGroup,
		Kind: chi.URLParam(r, "kind"),
		ID:   chi.URLParam(r, "id"),
		Args: args,
	})
}

func (h *ConsoleHandler) ProfileQuery(w http.ResponseWriter, r *http.Request) {
	h.document(w, r, query.ViewRequest{View: query.ViewProfile, Kind: chi.URLParam(r, "kind"), ID: chi.URLParam(r, "id")})
}

func (h *ConsoleHandler) SearchQuery(w http.ResponseWriter, r *http.Request) {
	h.document(w, r, query.ViewRequest{View: query.ViewSearch, Kind: chi.URLParam(r, "kind"), ID: chi.URLParam(r, "id")})
}

// ── Tasks, validators, branches ─────────────────────────────────────────────

func (h *ConsoleHandler) ValidatorQuery(w http.ResponseWriter, r *http.Request) {
	h.document(w, r, query.ViewRequest{View: query.ViewValidator, ID: chi.URLParam(r, "id")})
}

func (h *ConsoleHandler) TasksQuery(w http.ResponseWriter, r *http.Request) {
	args, ok := h.filters(w, r)
	if !ok {
		return
	}
	h.document(w, r, query.ViewRequest{View: query.ViewTasks, Args: args})
}

func (h *ConsoleHandler) TaskQuery(w http.ResponseWriter, r *http.Request) {
	h.document(w, r, query.ViewRequest{View: query.ViewTask, ID: chi.URLParam(r, "id")})
}

func (h *ConsoleHandler) BranchesQuery(w http.ResponseWriter, r *http.Request) {
	h.document(w, r, query.ViewRequest{View: query.ViewBranches})
}

type branchActionRequest struct {
	Description string `json:"description"`
	SyncWithGit bool   `json:"sync_with_git"`
}

func (h *ConsoleHandler) BranchActionQuery(w http.ResponseWriter, r *http.Request) {
	action, err := query.ParseBranchAction(chi.URLParam(r, "action"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_ACTION", err.Error())
		return
	}
	var req branchActionRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	doc, err := query.BranchMutation(action, query.BranchInput{
		Name:        chi.URLParam(r, "name"),
		Description: req.Description,
		SyncWithGit: req.SyncWithGit,
	})
	if err != nil {
		errorToHTTP(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{
		"action": action.String(),
		"query":  doc,
	})
}
