package query

import (
	"errors"
	"strings"
	"testing"

	"github.com/matthewbaird/infraview/internal/columns"
	"github.com/matthewbaird/infraview/internal/gql"
	"github.com/matthewbaird/infraview/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func thingSchema() *schema.NodeSchema {
	return &schema.NodeSchema{
		Kind: "TestThing",
		Attributes: []schema.Attribute{
			{Name: "name", Kind: schema.KindText, OrderWeight: 1000},
		},
		Relationships: []schema.Relationship{
			{Name: "tags", Peer: "BuiltinTag", Cardinality: schema.CardinalityMany, Kind: schema.RelAttribute, OrderWeight: 2000},
		},
	}
}

func deviceSchema() *schema.NodeSchema {
	return &schema.NodeSchema{
		Kind: "InfraDevice",
		Attributes: []schema.Attribute{
			{Name: "name", Kind: schema.KindText, OrderWeight: 1000},
			{Name: "status", Kind: schema.KindDropdown, OrderWeight: 1500},
			{Name: "description", Kind: schema.KindTextArea, OrderWeight: 4000},
			{Name: "secret", Kind: schema.KindHashedPassword, OrderWeight: 4500},
		},
		Relationships: []schema.Relationship{
			{Name: "tags", Peer: "BuiltinTag", Cardinality: schema.CardinalityMany, Kind: schema.RelAttribute, OrderWeight: 2000},
			{Name: "site", Peer: "LocationSite", Cardinality: schema.CardinalityOne, Kind: schema.RelAttribute, OrderWeight: 2500},
			{Name: "parent", Peer: "InfraDevice", Cardinality: schema.CardinalityOne, Kind: schema.RelParent, OrderWeight: 2600},
			{Name: "interfaces", Peer: "InfraInterface", Cardinality: schema.CardinalityMany, Kind: schema.RelComponent, OrderWeight: 6000},
			{Name: "artifacts", Peer: "CoreArtifact", Cardinality: schema.CardinalityMany, Kind: schema.RelGeneric, OrderWeight: 6500},
		},
	}
}

const objectListGolden = `query {
  TestThing(offset: 0, limit: 10, name__value: "x") {
    count
    edges {
      node {
        id
        display_label
        __typename
        name {
          value
          updated_at
          is_protected
          is_visible
          source {
            id
            display_label
            __typename
          }
          owner {
            id
            display_label
            __typename
          }
        }
        tags {
          count
          edges {
            node {
              id
              display_label
              __typename
            }
            properties {
              updated_at
              is_protected
              is_visible
              source {
                id
                display_label
                __typename
              }
              owner {
                id
                display_label
                __typename
              }
            }
          }
        }
      }
    }
  }
}
`

func TestObjectList_Golden(t *testing.T) {
	args := Paginate([]gql.Argument{gql.Arg("name__value", gql.String("x"))}, Pagination{Limit: 10})
	got, err := New(nil).ObjectList(thingSchema(), args)
	require.NoError(t, err)
	assert.Equal(t, objectListGolden, got)
	assert.NoError(t, gql.Check(got))
}

func TestObjectList_ListColumnsOnly(t *testing.T) {
	got, err := New(nil).ObjectList(deviceSchema(), nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "query {\n  InfraDevice {\n    count\n"))
	assert.Contains(t, got, "        status {\n")
	assert.Contains(t, got, "          color\n          description\n          label\n")
	assert.NotContains(t, got, "secret")
	assert.NotContains(t, got, "        description {")
	assert.NotContains(t, got, "interfaces")
	// Base provenance only outside the object-details family.
	assert.NotContains(t, got, "is_from_profile")
	assert.NotContains(t, got, "is_inherited")
}

func TestObjectList_CardinalityOneSelectsNodeDirectly(t *testing.T) {
	got, err := New(nil).ObjectList(deviceSchema(), nil)
	require.NoError(t, err)
	assert.Contains(t, got, "        site {\n          node {\n            id\n")
}

func TestBuilders_NilSchemaPlaceholder(t *testing.T) {
	b := New(nil)
	var docs []string
	for _, fn := range []func() (string, error){
		func() (string, error) { return b.ObjectList(nil, nil) },
		func() (string, error) { return b.ObjectDetails(nil, "x", DetailsOptions{}) },
		func() (string, error) { return b.ObjectDetailsWithPeers(nil, "x", DetailsOptions{}) },
		func() (string, error) { return b.RelationshipDetails(nil, "x", "tags", nil, nil) },
		func() (string, error) { return b.GroupDetails(nil, "x", nil) },
		func() (string, error) { return b.ProfileDetails(nil, "x") },
		func() (string, error) { return b.SearchCard(nil, "x") },
	} {
		doc, err := fn()
		require.NoError(t, err)
		docs = append(docs, doc)
	}
	for _, d := range docs {
		assert.Equal(t, Placeholder, d)
	}
	assert.NoError(t, gql.Check(Placeholder))
}

func TestBuilders_Deterministic(t *testing.T) {
	b := New(nil)
	build := func() string {
		doc, err := b.ObjectDetailsWithPeers(deviceSchema(), "17a2", DetailsOptions{Profiles: true, TaskCount: true})
		require.NoError(t, err)
		return doc
	}
	first := build()
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, build())
	}
}

func TestObjectDetails(t *testing.T) {
	got, err := New(nil).ObjectDetails(deviceSchema(), "17a2", DetailsOptions{Profiles: true, TaskCount: true})
	require.NoError(t, err)
	require.NoError(t, gql.Check(got))

	assert.True(t, strings.HasPrefix(got, "query {\n  InfraDevice(ids: [\"17a2\"]) {\n    edges {\n      node {\n        id\n        display_label\n        __typename\n"))
	assert.Contains(t, got, "is_from_profile\n")
	assert.Contains(t, got, "is_inherited\n")
	assert.Contains(t, got, "        description {\n")
	assert.NotContains(t, got, "secret")

	// interfaces is a tab only; artifacts is both a column and a tab.
	assert.Contains(t, got, "        interfaces {\n          count\n        }\n")
	assert.Equal(t, 1, strings.Count(got, "        artifacts {"))

	assert.Contains(t, got, "        profiles {\n          edges {\n            node {\n              id\n")
	assert.True(t, strings.HasSuffix(got, "  InfrahubTask(related_node__ids: [\"17a2\"]) {\n    count\n  }\n}\n"))
}

func TestObjectDetails_OptionalSections(t *testing.T) {
	got, err := New(nil).ObjectDetails(deviceSchema(), "17a2", DetailsOptions{})
	require.NoError(t, err)
	assert.NotContains(t, got, "profiles")
	assert.NotContains(t, got, TaskKind)
}

func TestObjectDetails_MissingID(t *testing.T) {
	_, err := New(nil).ObjectDetails(deviceSchema(), "", DetailsOptions{})
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestObjectDetails_EscapesID(t *testing.T) {
	got, err := New(nil).ObjectDetails(thingSchema(), `x"]) { evil }`, DetailsOptions{})
	require.NoError(t, err)
	assert.Contains(t, got, `TestThing(ids: ["x\"]) { evil }"])`)
	assert.NoError(t, gql.Check(got))
}

func TestObjectDetailsWithPeers(t *testing.T) {
	got, err := New(nil).ObjectDetailsWithPeers(deviceSchema(), "17a2", DetailsOptions{})
	require.NoError(t, err)
	require.NoError(t, gql.Check(got))

	peerBlock := func(kind string) string {
		return "  " + kind + " {\n    edges {\n      node {\n        id\n        display_label\n      }\n    }\n  }\n"
	}
	assert.Contains(t, got, peerBlock("BuiltinTag"))
	assert.Contains(t, got, peerBlock("LocationSite"))
	assert.Contains(t, got, peerBlock("CoreArtifact"))
	assert.Contains(t, got, peerBlock("InfraDevice_peers: InfraDevice"))
	// interfaces is not a detail column.
	assert.NotContains(t, got, "  InfraInterface {")

	assert.Less(t, strings.Index(got, "  BuiltinTag {"), strings.Index(got, "  LocationSite {"))
}

func TestSearchCard_FirstSevenColumns(t *testing.T) {
	s := deviceSchema()
	for i := 0; i < 6; i++ {
		s.Attributes = append(s.Attributes, schema.Attribute{
			Name: "extra_" + string(rune('a'+i)), Kind: schema.KindText, OrderWeight: 9000 + i,
		})
	}
	got, err := New(nil).SearchCard(s, "17a2")
	require.NoError(t, err)
	require.NoError(t, gql.Check(got))

	for _, c := range columns.Columns(s, false, 0)[:SearchColumnLimit] {
		assert.Contains(t, got, "        "+c.Name+" {", c.Name)
	}
	assert.NotContains(t, got, "extra_")
	assert.NotContains(t, got, "interfaces")
	assert.NotContains(t, got, "profiles")
}

func TestRelationshipDetails(t *testing.T) {
	peer := &schema.NodeSchema{
		Kind: "BuiltinTag",
		Attributes: []schema.Attribute{
			{Name: "name", Kind: schema.KindText, OrderWeight: 1000},
			{Name: "description", Kind: schema.KindText, OrderWeight: 2000},
		},
	}
	args := Paginate(nil, Pagination{Offset: 5, Limit: 5})
	got, err := New(nil).RelationshipDetails(deviceSchema(), "17a2", "tags", peer, args)
	require.NoError(t, err)
	require.NoError(t, gql.Check(got))

	assert.True(t, strings.HasPrefix(got, "query {\n  InfraDevice(ids: [\"17a2\"]) {\n    count\n    edges {\n      node {\n        id\n        display_label\n        __typename\n        tags(offset: 5, limit: 5) {\n          count\n          edges {\n            node {\n"))
	assert.Contains(t, got, "              name {\n                value\n")
	assert.Contains(t, got, "              description {\n")
	assert.Contains(t, got, "            properties {\n")
	// Only the requested relationship is selected.
	assert.NotContains(t, got, "site")
}

func TestRelationshipDetails_CardinalityOne(t *testing.T) {
	got, err := New(nil).RelationshipDetails(deviceSchema(), "17a2", "site", nil, Pagination{Limit: 5}.Args())
	require.NoError(t, err)
	assert.Contains(t, got, "        site {\n          node {\n")
	assert.NotContains(t, got, "site(")
}

func TestRelationshipDetails_UnknownRelationship(t *testing.T) {
	_, err := New(nil).RelationshipDetails(deviceSchema(), "17a2", "nope", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRelationshipNotFound))
	assert.Contains(t, err.Error(), "InfraDevice.nope")
}

func TestGroupDetails(t *testing.T) {
	group := &schema.NodeSchema{
		Kind: "CoreStandardGroup",
		Attributes: []schema.Attribute{
			{Name: "name", Kind: schema.KindText, OrderWeight: 1000},
		},
		Relationships: []schema.Relationship{
			{Name: "members", Peer: "CoreNode", Cardinality: schema.CardinalityMany, Kind: schema.RelGeneric, OrderWeight: 3000},
		},
	}
	got, err := New(nil).GroupDetails(group, "g1", Pagination{Limit: 10}.Args())
	require.NoError(t, err)
	require.NoError(t, gql.Check(got))

	assert.Contains(t, got, "        members(offset: 0, limit: 10) {\n          count\n          edges {\n            node {\n              id\n              display_label\n              __typename\n            }\n")
	assert.Equal(t, 1, strings.Count(got, "members"))
	assert.Contains(t, got, "        name {\n")
}

func TestProfileDetails(t *testing.T) {
	profile := &schema.NodeSchema{
		Kind:    "ProfileInfraDevice",
		Profile: true,
		Attributes: []schema.Attribute{
			{Name: "profile_name", Kind: schema.KindText, OrderWeight: 1000},
			{Name: "description", Kind: schema.KindTextArea, OrderWeight: 500},
		},
		Relationships: []schema.Relationship{
			{Name: "related_nodes", Peer: "InfraDevice", Cardinality: schema.CardinalityMany, Kind: schema.RelGeneric},
		},
	}
	got, err := New(nil).ProfileDetails(profile, "p1")
	require.NoError(t, err)
	require.NoError(t, gql.Check(got))

	assert.Less(t, strings.Index(got, "description {"), strings.Index(got, "profile_name {"))
	assert.Contains(t, got, "is_from_profile")
	assert.NotContains(t, got, "related_nodes")
}

const validatorGolden = `query {
  CoreValidator(ids: ["v1"]) {
    edges {
      node {
        id
        display_label
        __typename
        conclusion {
          value
        }
        state {
          value
        }
        started_at {
          value
        }
        completed_at {
          value
        }
        checks {
          count
          edges {
            node {
              id
              display_label
              __typename
              conclusion {
                value
              }
              severity {
                value
              }
              kind {
                value
              }
            }
          }
        }
        ... on CoreArtifactValidator {
          definition {
            node {
              id
              display_label
            }
          }
        }
        ... on CoreUserValidator {
          check_definition {
            node {
              id
              display_label
            }
          }
          repository {
            node {
              id
              display_label
            }
          }
        }
      }
    }
  }
}
`

func TestValidatorDetails_Golden(t *testing.T) {
	got, err := ValidatorDetails("v1")
	require.NoError(t, err)
	assert.Equal(t, validatorGolden, got)
	assert.NoError(t, gql.Check(got))

	_, err = ValidatorDetails("")
	assert.ErrorIs(t, err, ErrMissingID)
}

const tasksGolden = `query {
  InfrahubTask(offset: 0, limit: 10, related_node__ids: ["n1"]) {
    count
    edges {
      node {
        id
        title
        conclusion
        related_node
        related_node_kind
        created_at
        updated_at
      }
    }
  }
}
`

func TestTasksList_Golden(t *testing.T) {
	args := Paginate([]gql.Argument{gql.Arg("related_node__ids", gql.Strings("n1"))}, Pagination{Limit: 10})
	got, err := TasksList(args)
	require.NoError(t, err)
	assert.Equal(t, tasksGolden, got)
}

func TestTaskDetails(t *testing.T) {
	got, err := TaskDetails("t1")
	require.NoError(t, err)
	require.NoError(t, gql.Check(got))
	assert.True(t, strings.HasPrefix(got, "query {\n  InfrahubTask(ids: [\"t1\"]) {\n"))
	assert.Contains(t, got, "        logs {\n          edges {\n            node {\n              id\n              message\n              severity\n              timestamp\n")
}

func TestBranchMutation(t *testing.T) {
	tests := []struct {
		name   string
		action BranchAction
		in     BranchInput
		want   string
	}{
		{
			name:   "create",
			action: BranchCreate,
			in:     BranchInput{Name: "feature-1", Description: `new "thing"`, SyncWithGit: true},
			want: `mutation {
  BranchCreate(data: {name: "feature-1", description: "new \"thing\"", sync_with_git: true}) {
    ok
    object {
      id
      name
      description
      origin_branch
      branched_from
      created_at
      sync_with_git
      is_default
    }
  }
}
`,
		},
		{
			name:   "delete",
			action: BranchDelete,
			in:     BranchInput{Name: "old", Description: "ignored"},
			want:   "mutation {\n  BranchDelete(data: {name: \"old\"}) {\n    ok\n  }\n}\n",
		},
		{
			name:   "validate",
			action: BranchValidate,
			in:     BranchInput{Name: "feature-1"},
			want:   "mutation {\n  BranchValidate(data: {name: \"feature-1\"}) {\n    ok\n    messages\n    object {\n      id\n      name\n      description\n      origin_branch\n      branched_from\n      created_at\n      sync_with_git\n      is_default\n    }\n  }\n}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BranchMutation(tt.action, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, gql.Check(got))
		})
	}
}

func TestBranchMutation_AllActionsParse(t *testing.T) {
	for _, name := range []string{"create", "delete", "merge", "rebase", "validate"} {
		action, err := ParseBranchAction(name)
		require.NoError(t, err)
		assert.Equal(t, name, action.String())

		got, err := BranchMutation(action, BranchInput{Name: "b"})
		require.NoError(t, err)
		assert.NoError(t, gql.Check(got), name)
	}

	_, err := ParseBranchAction("squash")
	assert.Error(t, err)

	_, err = BranchMutation(BranchMerge, BranchInput{})
	assert.ErrorIs(t, err, ErrMissingBranch)
}

func TestBranchList(t *testing.T) {
	got, err := BranchList()
	require.NoError(t, err)
	require.NoError(t, gql.Check(got))
	assert.True(t, strings.HasPrefix(got, "query {\n  Branch {\n    id\n    name\n"))
	assert.Contains(t, got, "    is_default\n    has_schema_changes\n  }\n")
}

func TestProvenance_String(t *testing.T) {
	assert.Equal(t, "base", ProvenanceBase.String())
	assert.Equal(t, "detail", ProvenanceDetail.String())
	assert.Equal(t, "Provenance(9)", Provenance(9).String())
}
