package schema

import "strings"

// Completion is a single autocomplete suggestion.
type Completion struct {
	Label  string `json:"label"`
	Kind   string `json:"kind"` // "node", "generic", "profile", "attribute", "relationship"
	Detail string `json:"detail,omitempty"`
}

// CompleteKinds suggests kinds whose name or label starts with partial,
// case-insensitively. Nodes come first, then generics, then profiles.
func (s *Set) CompleteKinds(partial string) []Completion {
	partial = strings.ToLower(partial)
	items := []Completion{}
	for _, group := range []struct {
		kind  string
		names []string
	}{
		{"node", s.Nodes()},
		{"generic", s.Generics()},
		{"profile", s.Profiles()},
	} {
		for _, k := range group.names {
			ns := s.Kind(k)
			label := ns.DisplayName()
			if hasPrefixFold(k, partial) || hasPrefixFold(label, partial) {
				items = append(items, Completion{Label: k, Kind: group.kind, Detail: label})
			}
		}
	}
	return items
}

// CompleteFields suggests the attributes and relationships of kind whose
// name starts with partial, in declaration order.
func (s *Set) CompleteFields(kind, partial string) ([]Completion, error) {
	ns, err := s.Lookup(kind)
	if err != nil {
		return nil, err
	}
	partial = strings.ToLower(partial)
	items := []Completion{}
	for _, a := range ns.Attributes {
		if hasPrefixFold(a.Name, partial) {
			items = append(items, Completion{Label: a.Name, Kind: "attribute", Detail: string(a.Kind)})
		}
	}
	for _, r := range ns.Relationships {
		if hasPrefixFold(r.Name, partial) {
			items = append(items, Completion{Label: r.Name, Kind: "relationship", Detail: r.Peer + " (" + string(r.Cardinality) + ")"})
		}
	}
	return items, nil
}

func hasPrefixFold(s, lowerPrefix string) bool {
	return lowerPrefix == "" || strings.HasPrefix(strings.ToLower(s), lowerPrefix)
}
