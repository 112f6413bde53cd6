package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Payload is the shape served by the backend's schema endpoint.
type Payload struct {
	Nodes    []NodeSchema `json:"nodes"`
	Generics []NodeSchema `json:"generics"`
	Profiles []NodeSchema `json:"profiles,omitempty"`
}

// Set converts the payload into an immutable Set.
func (p Payload) Set() *Set {
	return NewSet(p.Nodes, p.Generics, p.Profiles)
}

// Decode parses a schema document. Both the object form
// ({"nodes": [...], "generics": [...], "profiles": [...]}) and a bare array
// of records are accepted; in the array form a record carrying used_by is a
// generic.
func Decode(data []byte) (*Set, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return EmptySet(), nil
	}

	if trimmed[0] == '[' {
		var records []json.RawMessage
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("decoding schema array: %w", err)
		}
		var p Payload
		for i, raw := range records {
			var marker struct {
				UsedBy *[]string `json:"used_by"`
			}
			if err := json.Unmarshal(raw, &marker); err != nil {
				return nil, fmt.Errorf("decoding schema record %d: %w", i, err)
			}
			var ns NodeSchema
			if err := json.Unmarshal(raw, &ns); err != nil {
				return nil, fmt.Errorf("decoding schema record %d: %w", i, err)
			}
			if marker.UsedBy != nil {
				p.Generics = append(p.Generics, ns)
			} else {
				p.Nodes = append(p.Nodes, ns)
			}
		}
		return p.Set(), nil
	}

	var p Payload
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, fmt.Errorf("decoding schema payload: %w", err)
	}
	return p.Set(), nil
}
