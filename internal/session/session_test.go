package session

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/infraview/internal/client"
)

func TestManager_CreateGetRemove(t *testing.T) {
	m := NewManager("main", 0, 0)
	s := m.Create()
	assert.Equal(t, "main", s.Scope().Branch)
	assert.True(t, s.Scope().At.IsZero())
	assert.Same(t, s, m.Get(s.ID))
	assert.Equal(t, 1, m.Len())

	m.Remove(s.ID)
	assert.Nil(t, m.Get(s.ID))
	assert.Zero(t, m.Len())
}

func TestManager_IdleExpiry(t *testing.T) {
	m := NewManager("main", 0, time.Millisecond)
	s := m.Create()
	time.Sleep(5 * time.Millisecond)
	assert.Nil(t, m.Get(s.ID))

	m2 := NewManager("main", time.Millisecond, 0)
	m2.Create()
	time.Sleep(5 * time.Millisecond)
	m2.Cleanup()
	assert.Zero(t, m2.Len())
}

func TestManager_AttachedSurvivesCleanup(t *testing.T) {
	m := NewManager("main", time.Millisecond, time.Millisecond)
	s := m.Create()
	s.Attach()
	time.Sleep(5 * time.Millisecond)

	m.Cleanup()
	assert.Equal(t, 1, m.Len())
	assert.Same(t, s, m.Get(s.ID))

	s.Detach()
	s.Detach()
	assert.False(t, s.Attached())
	m.Cleanup()
	assert.Zero(t, m.Len())
}

func TestSession_SetScope(t *testing.T) {
	s := NewSession("main")
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s.SetScope(client.Scope{Branch: "feature", At: at})
	assert.Equal(t, client.Scope{Branch: "feature", At: at}, s.Scope())
}

func TestParseScope(t *testing.T) {
	scope, err := ParseScope("", "", "main")
	require.NoError(t, err)
	assert.Equal(t, client.Scope{Branch: "main"}, scope)

	scope, err = ParseScope("feature", "2024-01-02T03:04:05+01:00", "main")
	require.NoError(t, err)
	assert.Equal(t, "feature", scope.Branch)
	assert.Equal(t, time.Date(2024, 1, 2, 2, 4, 5, 0, time.UTC), scope.At)

	_, err = ParseScope("main", "yesterday", "main")
	assert.ErrorContains(t, err, "RFC 3339")
}

func TestScopeFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/kinds/X/objects?branch=dev&at=2024-05-01T00:00:00Z", nil)
	scope, err := ScopeFromRequest(r, "main")
	require.NoError(t, err)
	assert.Equal(t, "dev", scope.Branch)
	assert.Equal(t, 2024, scope.At.Year())
}
