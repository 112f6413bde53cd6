// Package columns derives the ordered column lists that list views, detail
// views and edit forms render, and that the query builders fetch fields for.
//
// Every function is total: a nil schema (not loaded yet) yields an empty
// result, never a panic.
package columns

import (
	"sort"

	"github.com/matthewbaird/infraview/internal/schema"
)

// Source tags a Column as coming from an attribute or a relationship.
type Source int

const (
	SourceAttribute Source = iota
	SourceRelationship
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceAttribute:
		return "attribute"
	case SourceRelationship:
		return "relationship"
	default:
		return "unknown"
	}
}

// MarshalText lets Source serialize as its name.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Column is a renderable projection of one attribute or relationship.
type Column struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Source Source `json:"source"`

	// Kind is the attribute kind for attribute columns and the relationship
	// kind for relationship columns.
	Kind string `json:"kind"`

	// Relationship-only.
	Peer        string             `json:"peer,omitempty"`
	Cardinality schema.Cardinality `json:"cardinality,omitempty"`
	Paginated   bool               `json:"paginated,omitempty"`

	OrderWeight int `json:"order_weight"`
}

// IsAttribute reports whether the column comes from an attribute.
func (c Column) IsAttribute() bool { return c.Source == SourceAttribute }

// IsRelationship reports whether the column comes from a relationship.
func (c Column) IsRelationship() bool { return c.Source == SourceRelationship }

// AttributeKind returns the attribute kind, or "" for relationship columns.
func (c Column) AttributeKind() schema.AttributeKind {
	if !c.IsAttribute() {
		return ""
	}
	return schema.AttributeKind(c.Kind)
}

// FromAttribute builds an attribute column.
func FromAttribute(a schema.Attribute) Column {
	return Column{
		Name:        a.Name,
		Label:       labelOr(a.Label, a.Name),
		Source:      SourceAttribute,
		Kind:        string(a.Kind),
		OrderWeight: a.OrderWeight,
	}
}

// FromRelationship builds a relationship column.
func FromRelationship(r schema.Relationship) Column {
	return Column{
		Name:        r.Name,
		Label:       labelOr(r.Label, r.Name),
		Source:      SourceRelationship,
		Kind:        string(r.Kind),
		Peer:        r.Peer,
		Cardinality: r.Cardinality,
		Paginated:   r.Paginated(),
		OrderWeight: r.OrderWeight,
	}
}

// PeerResolver tells whether a kind exists in the loaded schema.
// *schema.Set implements it.
type PeerResolver interface {
	Has(kind string) bool
}

// Deriver applies a set of Rules, optionally dropping relationships whose
// peer is not known to the resolver.
type Deriver struct {
	rules Rules
	peers PeerResolver
}

// New creates a deriver. peers may be nil, in which case peers are not checked.
func New(rules Rules, peers PeerResolver) *Deriver {
	return &Deriver{rules: rules, peers: peers}
}

// AttributeColumns returns the attribute columns for a list view (allow-list)
// or a detail view (deny-list), in declaration order.
func (d *Deriver) AttributeColumns(s *schema.NodeSchema, listView bool) []Column {
	if s == nil {
		return nil
	}
	var out []Column
	for _, a := range s.Attributes {
		if listView {
			if !d.rules.ListAttributeKinds[a.Kind] {
				continue
			}
		} else if d.rules.DetailExcludedAttributeKinds[a.Kind] {
			continue
		}
		out = append(out, FromAttribute(a))
	}
	return out
}

// RelationshipColumns returns the relationship columns allowed for the view,
// in declaration order.
func (d *Deriver) RelationshipColumns(s *schema.NodeSchema, listView bool) []Column {
	if s == nil {
		return nil
	}
	table := d.rules.DetailRelationships
	if listView {
		table = d.rules.ListRelationships
	}
	var out []Column
	for _, r := range s.Relationships {
		if !d.rules.relationshipAllowed(table, r) || !d.peerKnown(r.Peer) {
			continue
		}
		out = append(out, FromRelationship(r))
	}
	return out
}

// Columns returns attribute and relationship columns stably sorted by order
// weight. A positive limit keeps only the first limit columns.
func (d *Deriver) Columns(s *schema.NodeSchema, listView bool, limit int) []Column {
	cols := append(d.AttributeColumns(s, listView), d.RelationshipColumns(s, listView)...)
	SortByWeight(cols)
	if limit > 0 && len(cols) > limit {
		cols = cols[:limit]
	}
	return cols
}

// Tabs returns the tab-worthy relationships, sorted by order weight.
func (d *Deriver) Tabs(s *schema.NodeSchema) []Tab {
	if s == nil {
		return nil
	}
	var rels []schema.Relationship
	for _, r := range s.Relationships {
		if d.rules.relationshipAllowed(d.rules.TabRelationships, r) && d.peerKnown(r.Peer) {
			rels = append(rels, r)
		}
	}
	sort.SliceStable(rels, func(i, j int) bool {
		return rels[i].OrderWeight < rels[j].OrderWeight
	})
	tabs := make([]Tab, 0, len(rels))
	for _, r := range rels {
		tabs = append(tabs, Tab{Name: r.Name, Label: labelOr(r.Label, r.Name), Peer: r.Peer})
	}
	return tabs
}

func (d *Deriver) peerKnown(peer string) bool {
	if d.peers == nil {
		return true
	}
	return d.peers.Has(peer)
}

// SortByWeight sorts columns by ascending order weight, keeping declaration
// order for equal weights.
func SortByWeight(cols []Column) {
	sort.SliceStable(cols, func(i, j int) bool {
		return cols[i].OrderWeight < cols[j].OrderWeight
	})
}

// Names returns the column names in order.
func Names(cols []Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// ── Package-level helpers using DefaultRules and no peer check ─────────────

var std = New(DefaultRules(), nil)

// AttributeColumns is Deriver.AttributeColumns with the default rules.
func AttributeColumns(s *schema.NodeSchema, listView bool) []Column {
	return std.AttributeColumns(s, listView)
}

// RelationshipColumns is Deriver.RelationshipColumns with the default rules.
func RelationshipColumns(s *schema.NodeSchema, listView bool) []Column {
	return std.RelationshipColumns(s, listView)
}

// Columns is Deriver.Columns with the default rules.
func Columns(s *schema.NodeSchema, listView bool, limit int) []Column {
	return std.Columns(s, listView, limit)
}

// Tabs is Deriver.Tabs with the default rules.
func Tabs(s *schema.NodeSchema) []Tab {
	return std.Tabs(s)
}

func labelOr(label, name string) string {
	if label != "" {
		return label
	}
	return name
}
