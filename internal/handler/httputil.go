package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/hlog"

	"github.com/matthewbaird/infraview/internal/client"
	"github.com/matthewbaird/infraview/internal/gql"
	"github.com/matthewbaird/infraview/internal/query"
	"github.com/matthewbaird/infraview/internal/schema"
)

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("writeJSON encode")
	}
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, r, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// queryBool reads a boolean query parameter. A bare key ("?peers") is true.
func queryBool(q url.Values, key string) bool {
	vals, ok := q[key]
	if !ok {
		return false
	}
	if len(vals) == 0 || vals[0] == "" {
		return true
	}
	b, err := strconv.ParseBool(vals[0])
	return err == nil && b
}

// queryInt reads a non-negative integer query parameter.
func queryInt(q url.Values, key string, def int) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New(key + " must be a non-negative integer")
	}
	return n, nil
}

// errorToHTTP maps domain errors to HTTP responses.
func errorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	var status *client.StatusError
	switch {
	case errors.Is(err, schema.ErrKindNotFound):
		writeError(w, r, http.StatusNotFound, "KIND_NOT_FOUND", err.Error())
	case errors.Is(err, query.ErrRelationshipNotFound):
		writeError(w, r, http.StatusNotFound, "RELATIONSHIP_NOT_FOUND", err.Error())
	case errors.Is(err, query.ErrMissingID),
		errors.Is(err, query.ErrMissingBranch),
		errors.Is(err, gql.ErrInvalidName):
		writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, client.ErrGraphQL):
		writeError(w, r, http.StatusBadGateway, "BACKEND_GRAPHQL_ERROR", err.Error())
	case errors.As(err, &status):
		writeError(w, r, http.StatusBadGateway, "BACKEND_ERROR", err.Error())
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("internal error")
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
