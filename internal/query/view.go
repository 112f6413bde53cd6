package query

import (
	"fmt"

	"github.com/matthewbaird/infraview/internal/columns"
	"github.com/matthewbaird/infraview/internal/gql"
	"github.com/matthewbaird/infraview/internal/schema"
)

// View names a document shape.
type View string

const (
	ViewList         View = "list"
	ViewDetails      View = "details"
	ViewDetailsPeers View = "details_peers"
	ViewRelationship View = "relationship"
	ViewGroup        View = "group"
	ViewProfile      View = "profile"
	ViewSearch       View = "search"
	ViewValidator    View = "validator"
	ViewTasks        View = "tasks"
	ViewTask         View = "task"
	ViewBranches     View = "branches"
)

// Views lists every view in a stable order.
var Views = []View{
	ViewList, ViewDetails, ViewDetailsPeers, ViewRelationship, ViewGroup,
	ViewProfile, ViewSearch, ViewValidator, ViewTasks, ViewTask, ViewBranches,
}

// needsKind reports whether a view is built from a node schema.
func (v View) needsKind() bool {
	switch v {
	case ViewValidator, ViewTasks, ViewTask, ViewBranches:
		return false
	}
	return true
}

// ViewRequest selects a document.
type ViewRequest struct {
	View         View           `json:"view"`
	Kind         string         `json:"kind,omitempty"`
	ID           string         `json:"id,omitempty"`
	Relationship string         `json:"relationship,omitempty"`
	Args         []gql.Argument `json:"-"`
	Details      DetailsOptions `json:"-"`
}

// BuildView renders the document for req against set. Relationships whose
// peer is missing from set are left out. An empty set yields Placeholder for
// schema-driven views; a kind missing from a loaded set is an error
// wrapping schema.ErrKindNotFound.
func BuildView(set *schema.Set, rules columns.Rules, req ViewRequest) (string, error) {
	if !req.View.needsKind() {
		switch req.View {
		case ViewValidator:
			return ValidatorDetails(req.ID)
		case ViewTasks:
			return TasksList(req.Args)
		case ViewTask:
			return TaskDetails(req.ID)
		default:
			return BranchList()
		}
	}

	if set.Len() == 0 {
		return Placeholder, nil
	}
	s, err := set.Lookup(req.Kind)
	if err != nil {
		return "", err
	}
	b := New(columns.New(rules, set))

	switch req.View {
	case ViewList:
		return b.ObjectList(s, req.Args)
	case ViewDetails:
		return b.ObjectDetails(s, req.ID, req.Details)
	case ViewDetailsPeers:
		return b.ObjectDetailsWithPeers(s, req.ID, req.Details)
	case ViewRelationship:
		var peer *schema.NodeSchema
		if rel, ok := s.Relationship(req.Relationship); ok {
			peer = set.Kind(rel.Peer)
		}
		return b.RelationshipDetails(s, req.ID, req.Relationship, peer, req.Args)
	case ViewGroup:
		return b.GroupDetails(s, req.ID, req.Args)
	case ViewProfile:
		return b.ProfileDetails(s, req.ID)
	case ViewSearch:
		return b.SearchCard(s, req.ID)
	default:
		return "", fmt.Errorf("unknown view %q", req.View)
	}
}
