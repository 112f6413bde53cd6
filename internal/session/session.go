// Package session tracks websocket session state: which branch and point in
// time a console connection is viewing.
package session

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/infraview/internal/client"
)

// Session holds per-connection state.
type Session struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`

	mu       sync.RWMutex
	scope    client.Scope
	attached int
}

// NewSession creates a session viewing branch at the current time.
func NewSession(branch string) *Session {
	now := time.Now()
	return &Session{
		ID:           uuid.New().String(),
		CreatedAt:    now,
		LastActiveAt: now,
		scope:        client.Scope{Branch: branch},
	}
}

// Scope returns the branch and point in time being viewed.
func (s *Session) Scope() client.Scope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scope
}

// SetScope switches the branch and point in time.
func (s *Session) SetScope(scope client.Scope) {
	s.mu.Lock()
	s.scope = scope
	s.LastActiveAt = time.Now()
	s.mu.Unlock()
}

// Touch updates the last activity timestamp.
func (s *Session) Touch() {
	s.mu.Lock()
	s.LastActiveAt = time.Now()
	s.mu.Unlock()
}

// Attach marks the session as held by an open connection. Attached
// sessions are never reaped.
func (s *Session) Attach() {
	s.mu.Lock()
	s.attached++
	s.LastActiveAt = time.Now()
	s.mu.Unlock()
}

// Detach releases a hold taken by Attach.
func (s *Session) Detach() {
	s.mu.Lock()
	if s.attached > 0 {
		s.attached--
	}
	s.mu.Unlock()
}

// Attached reports whether an open connection holds the session.
func (s *Session) Attached() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attached > 0
}

// IsExpired returns true if the session has exceeded the given max age.
func (s *Session) IsExpired(maxAge time.Duration) bool {
	return maxAge > 0 && time.Since(s.CreatedAt) > maxAge
}

// IsIdle returns true if the session has been idle longer than the timeout.
func (s *Session) IsIdle(timeout time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return timeout > 0 && time.Since(s.LastActiveAt) > timeout
}

// Manager handles session creation, lookup, and cleanup.
type Manager struct {
	mu            sync.RWMutex
	sessions      map[string]*Session
	defaultBranch string
	maxAge        time.Duration
	idleTimeout   time.Duration
}

// NewManager creates a session manager. Zero timeouts disable expiry.
func NewManager(defaultBranch string, maxAge, idleTimeout time.Duration) *Manager {
	return &Manager{
		sessions:      make(map[string]*Session),
		defaultBranch: defaultBranch,
		maxAge:        maxAge,
		idleTimeout:   idleTimeout,
	}
}

// Create creates a new session on the default branch.
func (m *Manager) Create() *Session {
	s := NewSession(m.defaultBranch)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get retrieves a session by ID. Returns nil if not found or expired.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	if m.stale(s) {
		m.Remove(id)
		return nil
	}
	return s
}

func (m *Manager) stale(s *Session) bool {
	if s.Attached() {
		return false
	}
	return s.IsExpired(m.maxAge) || s.IsIdle(m.idleTimeout)
}

// Remove deletes a session.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Cleanup removes expired and idle sessions that no connection holds.
// Called periodically.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if m.stale(s) {
			delete(m.sessions, id)
		}
	}
}

// ParseScope builds a scope from a branch name and an optional RFC 3339
// timestamp. An empty branch means defaultBranch.
func ParseScope(branch, at, defaultBranch string) (client.Scope, error) {
	scope := client.Scope{Branch: strings.TrimSpace(branch)}
	if scope.Branch == "" {
		scope.Branch = defaultBranch
	}
	if at = strings.TrimSpace(at); at != "" {
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return client.Scope{}, fmt.Errorf("invalid at %q: want RFC 3339", at)
		}
		scope.At = t.UTC()
	}
	return scope, nil
}

// ScopeFromRequest reads the branch and at query parameters.
func ScopeFromRequest(r *http.Request, defaultBranch string) (client.Scope, error) {
	q := r.URL.Query()
	return ParseScope(q.Get("branch"), q.Get("at"), defaultBranch)
}
