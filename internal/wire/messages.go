// Package wire defines the console WebSocket protocol: clients pick a branch
// and point in time, request documents, and receive schema change pushes.
package wire

import (
	"encoding/json"
)

// ── Client → Server messages ────────────────────────────────────────────────

// ClientMessage is the envelope for all client-to-server WebSocket messages.
type ClientMessage struct {
	Type string          `json:"type"` // "subscribe", "build", "ping"
	ID   string          `json:"id"`   // Client-assigned request ID
	Data json.RawMessage `json:"data,omitempty"`
}

// SubscribeData switches the session's branch and point in time.
type SubscribeData struct {
	Branch string `json:"branch"`
	At     string `json:"at,omitempty"` // RFC 3339; empty means now
}

// BuildData requests a document. Filters use URL query semantics: repeated
// values become lists.
type BuildData struct {
	View         string              `json:"view"`
	Kind         string              `json:"kind,omitempty"`
	ObjectID     string              `json:"id,omitempty"`
	Relationship string              `json:"relationship,omitempty"`
	Filters      map[string][]string `json:"filters,omitempty"`
	Profiles     bool                `json:"profiles,omitempty"`
	Tasks        bool                `json:"tasks,omitempty"`
}

// ── Server → Client messages ────────────────────────────────────────────────

// ServerMessage is the envelope for all server-to-client WebSocket messages.
type ServerMessage struct {
	Type      string `json:"type"`                 // "session", "document", "schema_updated", "error", "pong"
	RequestID string `json:"request_id,omitempty"` // Echoes client ID
	Data      any    `json:"data,omitempty"`
}

// SessionData describes the session after connect or subscribe.
type SessionData struct {
	SessionID  string `json:"session_id"`
	Branch     string `json:"branch"`
	At         string `json:"at,omitempty"`
	SchemaHash string `json:"schema_hash"`
}

// DocumentData carries a built document.
type DocumentData struct {
	View       string `json:"view"`
	Kind       string `json:"kind,omitempty"`
	Query      string `json:"query"`
	SchemaHash string `json:"schema_hash"`
}

// SchemaUpdatedData is pushed when the viewed branch's schema changes.
type SchemaUpdatedData struct {
	Branch       string `json:"branch"`
	Hash         string `json:"hash"`
	PreviousHash string `json:"previous_hash,omitempty"`
	Kinds        int    `json:"kinds"`
}

// ErrorData carries an error message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
