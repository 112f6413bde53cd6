package query

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/infraview/internal/columns"
	"github.com/matthewbaird/infraview/internal/gql"
	"github.com/matthewbaird/infraview/internal/schema"
)

func viewSet() *schema.Set {
	tag := schema.NodeSchema{
		Kind:       "BuiltinTag",
		Attributes: []schema.Attribute{{Name: "name", Kind: schema.KindText, OrderWeight: 1000}},
	}
	group := schema.NodeSchema{
		Kind:       "CoreStandardGroup",
		Attributes: []schema.Attribute{{Name: "name", Kind: schema.KindText}},
	}
	profile := schema.NodeSchema{
		Kind:       "ProfileInfraDevice",
		Attributes: []schema.Attribute{{Name: "profile_name", Kind: schema.KindText}},
	}
	return schema.NewSet([]schema.NodeSchema{*deviceSchema(), tag, group}, nil, []schema.NodeSchema{profile})
}

func TestBuildView_AllViewsParse(t *testing.T) {
	set := viewSet()
	reqs := map[View]ViewRequest{
		ViewList:         {Kind: "InfraDevice", Args: Pagination{Limit: 10}.Args()},
		ViewDetails:      {Kind: "InfraDevice", ID: "d1", Details: DetailsOptions{Profiles: true, TaskCount: true}},
		ViewDetailsPeers: {Kind: "InfraDevice", ID: "d1"},
		ViewRelationship: {Kind: "InfraDevice", ID: "d1", Relationship: "tags"},
		ViewGroup:        {Kind: "CoreStandardGroup", ID: "g1"},
		ViewProfile:      {Kind: "ProfileInfraDevice", ID: "p1"},
		ViewSearch:       {Kind: "InfraDevice", ID: "d1"},
		ViewValidator:    {ID: "v1"},
		ViewTasks:        {},
		ViewTask:         {ID: "t1"},
		ViewBranches:     {},
	}
	require.Len(t, reqs, len(Views))

	for _, v := range Views {
		req := reqs[v]
		req.View = v
		doc, err := BuildView(set, columns.DefaultRules(), req)
		require.NoError(t, err, v)
		assert.NoError(t, gql.Check(doc), v)
		assert.NotEqual(t, Placeholder, doc, v)
	}
}

func TestBuildView_UnknownPeersDropped(t *testing.T) {
	// LocationSite, InfraDevice's site peer, is not in the set.
	doc, err := BuildView(viewSet(), columns.DefaultRules(), ViewRequest{View: ViewList, Kind: "InfraDevice"})
	require.NoError(t, err)
	assert.Contains(t, doc, "tags {")
	assert.NotContains(t, doc, "site")
}

func TestBuildView_RelationshipUsesPeerColumns(t *testing.T) {
	doc, err := BuildView(viewSet(), columns.DefaultRules(), ViewRequest{
		View: ViewRelationship, Kind: "InfraDevice", ID: "d1", Relationship: "tags",
	})
	require.NoError(t, err)
	assert.Contains(t, doc, "              name {\n")
}

func TestBuildView_EmptySetPlaceholder(t *testing.T) {
	doc, err := BuildView(schema.EmptySet(), columns.DefaultRules(), ViewRequest{View: ViewList, Kind: "InfraDevice"})
	require.NoError(t, err)
	assert.Equal(t, Placeholder, doc)

	doc, err = BuildView(nil, columns.DefaultRules(), ViewRequest{View: ViewDetails, Kind: "InfraDevice", ID: "x"})
	require.NoError(t, err)
	assert.Equal(t, Placeholder, doc)

	// Fixed-shape views do not depend on the schema.
	doc, err = BuildView(nil, columns.DefaultRules(), ViewRequest{View: ViewBranches})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(doc, "query {\n  Branch {"))
}

func TestBuildView_UnknownKind(t *testing.T) {
	_, err := BuildView(viewSet(), columns.DefaultRules(), ViewRequest{View: ViewList, Kind: "InfraDevic"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, schema.ErrKindNotFound))
	assert.Contains(t, err.Error(), "did you mean 'InfraDevice'?")
}

func TestBuildView_UnknownView(t *testing.T) {
	_, err := BuildView(viewSet(), columns.DefaultRules(), ViewRequest{View: "graph", Kind: "InfraDevice"})
	assert.Error(t, err)
}

func TestChecked(t *testing.T) {
	doc, err := checked(Placeholder)
	require.NoError(t, err)
	assert.Equal(t, Placeholder, doc)

	_, err = checked("query {\n  InfraDevice {\n    count\n")
	require.Error(t, err)
	assert.True(t, errors.Is(err, gql.ErrSyntax))

	_, err = checked("fragment F on InfraDevice { id }\n")
	assert.True(t, errors.Is(err, gql.ErrSyntax))
}
