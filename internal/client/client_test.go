package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute(t *testing.T) {
	var gotPath, gotAt, gotToken string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAt = r.URL.Query().Get("at")
		gotToken = r.Header.Get(TokenHeader)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"InfraDevice":{"count":2}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "tok")
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	data, err := c.Execute(context.Background(), Scope{Branch: "feature-1", At: at}, "query { ok }", nil)
	require.NoError(t, err)

	assert.Equal(t, "/graphql/feature-1", gotPath)
	assert.Equal(t, "2024-05-01T12:00:00Z", gotAt)
	assert.Equal(t, "tok", gotToken)
	assert.Equal(t, "query { ok }", gotBody["query"])
	assert.NotContains(t, gotBody, "variables")
	assert.Equal(t, map[string]any{"InfraDevice": map[string]any{"count": float64(2)}}, data)
}

func TestExecute_DefaultBranchNoAt(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "", WithDefaultBranch("develop")).Execute(context.Background(), Scope{}, "query { ok }", nil)
	require.NoError(t, err)
	assert.Equal(t, "/graphql/develop", gotPath)
	assert.Empty(t, gotQuery)
}

func TestExecute_GraphQLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"partial":true},"errors":[{"message":"Cannot query field"},{"message":"second"}]}`))
	}))
	defer srv.Close()

	data, err := New(srv.URL, "").Execute(context.Background(), Scope{}, "query { nope }", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGraphQL))
	assert.Contains(t, err.Error(), "Cannot query field; second")
	assert.Equal(t, true, data["partial"])
}

func TestExecute_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "bad").Execute(context.Background(), Scope{}, "query { ok }", nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
	assert.Equal(t, "denied", se.Body)
}

func TestExecute_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(srv.URL, "").Execute(ctx, Scope{}, "query { ok }", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchSchema(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/schema", r.URL.Path)
		assert.Equal(t, "main", r.URL.Query().Get("branch"))
		w.Write([]byte(`{
			"nodes": [{"kind": "InfraDevice", "name": "Device", "namespace": "Infra",
				"attributes": [{"name": "name", "kind": "Text"}]}],
			"generics": [{"kind": "CoreNode", "used_by": ["InfraDevice"]}]
		}`))
	}))
	defer srv.Close()

	set, err := New(srv.URL, "").FetchSchema(context.Background(), Scope{})
	require.NoError(t, err)
	assert.Equal(t, []string{"InfraDevice"}, set.Nodes())
	assert.Equal(t, []string{"CoreNode"}, set.Generics())
}

func TestFetchSchema_BadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`"just a string"`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").FetchSchema(context.Background(), Scope{})
	assert.Error(t, err)
}
