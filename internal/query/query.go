// Package query builds the GraphQL documents the console sends to the
// Infrahub backend. Every builder derives its selections from a node schema
// through the column deriver and renders a gql.Operation, so identical
// inputs always produce byte-identical documents.
package query

import (
	"errors"
	"fmt"

	"github.com/matthewbaird/infraview/internal/columns"
	"github.com/matthewbaird/infraview/internal/gql"
	"github.com/matthewbaird/infraview/internal/schema"
)

// Placeholder is the document used when no schema is available yet, so a
// caller always has something to execute.
const Placeholder = "query { ok }"

// SearchColumnLimit is the number of detail columns shown on a search card.
const SearchColumnLimit = 7

var (
	// ErrMissingID is returned by single-object builders given an empty id.
	ErrMissingID = errors.New("object id is required")

	// ErrRelationshipNotFound is returned when a relationship name does not
	// exist on the schema.
	ErrRelationshipNotFound = errors.New("relationship not found")
)

// Provenance selects which metadata fields accompany every attribute value.
type Provenance int

const (
	// ProvenanceBase requests updated_at, is_protected, is_visible, source
	// and owner.
	ProvenanceBase Provenance = iota
	// ProvenanceDetail adds is_from_profile and is_inherited. Used by the
	// object-details family only.
	ProvenanceDetail
)

func (p Provenance) String() string {
	switch p {
	case ProvenanceBase:
		return "base"
	case ProvenanceDetail:
		return "detail"
	default:
		return fmt.Sprintf("Provenance(%d)", int(p))
	}
}

// Builder renders documents for one set of column rules.
type Builder struct {
	cols *columns.Deriver
}

// New creates a builder. A nil deriver uses the default rules with no peer
// resolution.
func New(d *columns.Deriver) *Builder {
	if d == nil {
		d = columns.New(columns.DefaultRules(), nil)
	}
	return &Builder{cols: d}
}

// Columns exposes the deriver used for selections.
func (b *Builder) Columns() *columns.Deriver { return b.cols }

// ── selections ──────────────────────────────────────────────────────────────

// nodeRef is the identity triple selected for every node.
func nodeRef() []gql.Selection {
	return gql.Fields("id", "display_label", "__typename")
}

func propertySelections() []gql.Selection {
	sel := gql.Fields("updated_at", "is_protected", "is_visible")
	return append(sel,
		gql.F("source", nodeRef()...),
		gql.F("owner", nodeRef()...),
	)
}

// AttributeSelection selects an attribute column's value and metadata.
// Dropdown attributes also select their choice color, description and label.
func AttributeSelection(col columns.Column, prov Provenance) *gql.Field {
	f := gql.F(col.Name, gql.Fields("value")...)
	f.Add(propertySelections()...)
	if prov == ProvenanceDetail {
		f.Add(gql.Fields("is_from_profile", "is_inherited")...)
	}
	if col.AttributeKind() == schema.KindDropdown {
		f.Add(gql.Fields("color", "description", "label")...)
	}
	return f
}

// RelationshipSelection selects a relationship column's peer and edge
// properties. Paginated relationships are wrapped in edges with a count.
func RelationshipSelection(col columns.Column, args ...gql.Argument) *gql.Field {
	edge := []gql.Selection{
		gql.F("node", nodeRef()...),
		gql.F("properties", propertySelections()...),
	}
	if !col.Paginated {
		return gql.F(col.Name, edge...)
	}
	return gql.F(col.Name,
		gql.F("count"),
		gql.F("edges", edge...),
	).WithArgs(args...)
}

// ColumnSelections maps columns to their selections in column order.
func ColumnSelections(cols []columns.Column, prov Provenance) []gql.Selection {
	out := make([]gql.Selection, 0, len(cols))
	for _, c := range cols {
		if c.IsAttribute() {
			out = append(out, AttributeSelection(c, prov))
		} else {
			out = append(out, RelationshipSelection(c))
		}
	}
	return out
}

// connection wraps node selections in `kind(args) { count edges { node { } } }`.
func connection(kind string, args []gql.Argument, node ...gql.Selection) *gql.Field {
	return gql.F(kind,
		gql.F("count"),
		gql.F("edges", gql.F("node", node...)),
	).WithArgs(args...)
}

func idsArg(id string) gql.Argument {
	return gql.Arg("ids", gql.Strings(id))
}

func render(op *gql.Operation) (string, error) {
	doc, err := op.Render()
	if err != nil {
		return "", fmt.Errorf("render document: %w", err)
	}
	return checked(doc)
}

// checked parses doc before it is handed out.
func checked(doc string) (string, error) {
	if err := gql.Check(doc); err != nil {
		return "", fmt.Errorf("render document: %w", err)
	}
	return doc, nil
}
