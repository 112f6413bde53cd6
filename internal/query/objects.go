package query

import (
	"fmt"

	"github.com/matthewbaird/infraview/internal/columns"
	"github.com/matthewbaird/infraview/internal/gql"
	"github.com/matthewbaird/infraview/internal/schema"
)

// DetailsOptions toggles the optional sections of an object-details query.
type DetailsOptions struct {
	// Profiles selects the profiles applied to the object.
	Profiles bool
	// TaskCount adds a root InfrahubTask count for the object.
	TaskCount bool
}

// ObjectList builds the paginated list query for a kind:
//
//	Kind(args) { count edges { node { id display_label __typename ...columns } } }
func (b *Builder) ObjectList(s *schema.NodeSchema, args []gql.Argument) (string, error) {
	if s == nil {
		return Placeholder, nil
	}
	node := append(nodeRef(), ColumnSelections(b.cols.Columns(s, true, 0), ProvenanceBase)...)
	return render(gql.NewQuery("", connection(s.Kind, args, node...)))
}

// ObjectDetails builds the single-object query with detail columns and a
// count for every tab.
func (b *Builder) ObjectDetails(s *schema.NodeSchema, id string, opts DetailsOptions) (string, error) {
	if s == nil {
		return Placeholder, nil
	}
	op, err := b.details(s, id, opts, 0, true)
	if err != nil {
		return "", err
	}
	return render(op)
}

// ObjectDetailsWithPeers is ObjectDetails plus one root query per distinct
// relationship peer, used to fill relationship pickers.
func (b *Builder) ObjectDetailsWithPeers(s *schema.NodeSchema, id string, opts DetailsOptions) (string, error) {
	if s == nil {
		return Placeholder, nil
	}
	op, err := b.details(s, id, opts, 0, true)
	if err != nil {
		return "", err
	}
	for _, peer := range b.peerKinds(s) {
		f := gql.F(peer, gql.F("edges", gql.F("node", gql.Fields("id", "display_label")...)))
		// A root field may not repeat with different arguments.
		if peer == s.Kind || (opts.TaskCount && peer == TaskKind) {
			f.As(peer + "_peers")
		}
		op.Add(f)
	}
	return render(op)
}

// SearchCard builds the compact details query used by search results: the
// first SearchColumnLimit detail columns and nothing else.
func (b *Builder) SearchCard(s *schema.NodeSchema, id string) (string, error) {
	if s == nil {
		return Placeholder, nil
	}
	op, err := b.details(s, id, DetailsOptions{}, SearchColumnLimit, false)
	if err != nil {
		return "", err
	}
	return render(op)
}

func (b *Builder) details(s *schema.NodeSchema, id string, opts DetailsOptions, limit int, withTabs bool) (*gql.Operation, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	cols := b.cols.Columns(s, false, limit)
	node := append(nodeRef(), ColumnSelections(cols, ProvenanceDetail)...)

	if withTabs {
		selected := make(map[string]bool, len(cols))
		for _, c := range cols {
			selected[c.Name] = true
		}
		for _, tab := range b.cols.Tabs(s) {
			if selected[tab.Name] {
				// The column selection already carries a count.
				continue
			}
			node = append(node, gql.F(tab.Name, gql.F("count")))
		}
	}
	if opts.Profiles {
		node = append(node, gql.F("profiles", gql.F("edges", gql.F("node", nodeRef()...))))
	}

	op := gql.NewQuery("", gql.F(s.Kind, gql.F("edges", gql.F("node", node...))).WithArgs(idsArg(id)))
	if opts.TaskCount {
		op.Add(gql.F(TaskKind, gql.F("count")).WithArgs(gql.Arg("related_node__ids", gql.Strings(id))))
	}
	return op, nil
}

// peerKinds lists the distinct peers of the detail relationship columns in
// column order.
func (b *Builder) peerKinds(s *schema.NodeSchema) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range b.cols.RelationshipColumns(s, false) {
		if c.Peer == "" || seen[c.Peer] {
			continue
		}
		seen[c.Peer] = true
		out = append(out, c.Peer)
	}
	return out
}

// RelationshipDetails builds the query for one relationship of one object.
// Peer columns come from the peer schema's list view; a nil peer selects
// identity fields only.
func (b *Builder) RelationshipDetails(s *schema.NodeSchema, id, relationship string, peer *schema.NodeSchema, args []gql.Argument) (string, error) {
	if s == nil {
		return Placeholder, nil
	}
	if id == "" {
		return "", ErrMissingID
	}
	rel, ok := s.Relationship(relationship)
	if !ok {
		return "", fmt.Errorf("%w: %s.%s", ErrRelationshipNotFound, s.Kind, relationship)
	}

	peerNode := append(nodeRef(), ColumnSelections(b.cols.Columns(peer, true, 0), ProvenanceBase)...)
	edge := []gql.Selection{
		gql.F("node", peerNode...),
		gql.F("properties", propertySelections()...),
	}

	var relField *gql.Field
	if rel.Paginated() {
		relField = gql.F(rel.Name, gql.F("count"), gql.F("edges", edge...)).WithArgs(args...)
	} else {
		relField = gql.F(rel.Name, edge...)
	}

	node := append(nodeRef(), relField)
	return render(gql.NewQuery("", connection(s.Kind, []gql.Argument{idsArg(id)}, node...)))
}

// GroupDetails builds the query for a group object and its members.
func (b *Builder) GroupDetails(s *schema.NodeSchema, id string, args []gql.Argument) (string, error) {
	if s == nil {
		return Placeholder, nil
	}
	if id == "" {
		return "", ErrMissingID
	}

	var cols []columns.Column
	for _, c := range b.cols.Columns(s, false, 0) {
		if c.Name != "members" {
			cols = append(cols, c)
		}
	}
	node := append(nodeRef(), ColumnSelections(cols, ProvenanceBase)...)
	node = append(node, connection("members", args, nodeRef()...))
	return render(gql.NewQuery("", connection(s.Kind, []gql.Argument{idsArg(id)}, node...)))
}

// ProfileDetails builds the query for a profile object. Profiles only carry
// attributes.
func (b *Builder) ProfileDetails(s *schema.NodeSchema, id string) (string, error) {
	if s == nil {
		return Placeholder, nil
	}
	if id == "" {
		return "", ErrMissingID
	}
	cols := b.cols.AttributeColumns(s, false)
	columns.SortByWeight(cols)
	node := append(nodeRef(), ColumnSelections(cols, ProvenanceDetail)...)
	return render(gql.NewQuery("", connection(s.Kind, []gql.Argument{idsArg(id)}, node...)))
}
