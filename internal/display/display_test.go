package display

import (
	"fmt"
	"testing"
	"time"

	"github.com/matthewbaird/infraview/internal/columns"
	"github.com/matthewbaird/infraview/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attr(name string, kind schema.AttributeKind) columns.Column {
	return columns.FromAttribute(schema.Attribute{Name: name, Kind: kind})
}

func rel(name string, card schema.Cardinality) columns.Column {
	return columns.FromRelationship(schema.Relationship{Name: name, Peer: "BuiltinTag", Cardinality: card, Kind: schema.RelAttribute})
}

func TestResolve_FalseDominates(t *testing.T) {
	row := map[string]any{
		"enabled": map[string]any{"value": false, "label": "Enabled", "color": "#ff0000"},
	}
	got := Resolve(row, attr("enabled", schema.KindBoolean), nil, Options{})
	assert.Equal(t, NotSet, got.Kind)
	assert.Equal(t, NotSetToken, got.String())
}

func TestResolve_True(t *testing.T) {
	row := map[string]any{"enabled": map[string]any{"value": true}}
	assert.Equal(t, Set, Resolve(row, attr("enabled", schema.KindCheckbox), nil, Options{}).Kind)

	// A bare boolean field behaves the same.
	row = map[string]any{"enabled": false}
	assert.Equal(t, NotSet, Resolve(row, attr("enabled", schema.KindBoolean), nil, Options{}).Kind)
}

func TestResolve_NumericZero(t *testing.T) {
	row := map[string]any{"age": map[string]any{"value": 0}}
	got := Resolve(row, attr("age", schema.KindNumber), nil, Options{})
	assert.Equal(t, Text, got.Kind)
	assert.Equal(t, "0", got.Text)

	row = map[string]any{"age": map[string]any{"value": float64(0)}}
	assert.Equal(t, "0", Resolve(row, attr("age", schema.KindNumber), nil, Options{}).Text)
}

func TestResolve_EdgesTruncatedToFiveBadges(t *testing.T) {
	var edges []any
	for i := 0; i < 8; i++ {
		edges = append(edges, map[string]any{"node": map[string]any{"display_label": fmt.Sprintf("tag-%d", i)}})
	}
	row := map[string]any{"tags": map[string]any{"count": 8, "edges": edges}}

	got := Resolve(row, rel("tags", schema.CardinalityMany), nil, Options{})
	require.Equal(t, Badges, got.Kind)
	assert.Equal(t, []string{"tag-0", "tag-1", "tag-2", "tag-3", "tag-4"}, got.Badges)
	assert.Equal(t, 3, got.More)
	assert.Equal(t, "(3 more)", got.MoreLabel())
	assert.Equal(t, "tag-0, tag-1, tag-2, tag-3, tag-4 (3 more)", got.String())
}

func TestResolve_EdgeLabelFallback(t *testing.T) {
	row := map[string]any{"tags": map[string]any{"edges": []any{
		map[string]any{"node": map[string]any{"value": "by-value"}},
		map[string]any{"node": map[string]any{}},
		"garbage",
	}}}
	got := Resolve(row, rel("tags", schema.CardinalityMany), nil, Options{})
	assert.Equal(t, []string{"by-value", EmptyMarker, EmptyMarker}, got.Badges)
	assert.Zero(t, got.More)
	assert.Empty(t, got.MoreLabel())
}

func TestResolve_List(t *testing.T) {
	row := map[string]any{"vlans": map[string]any{"value": []any{1.0, 2.0, 3.0, 4.0, 5.0, 6.0}}}
	got := Resolve(row, attr("vlans", schema.KindList), nil, Options{})
	require.Equal(t, Badges, got.Kind)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, got.Badges)
	assert.Equal(t, 1, got.More)
}

func TestResolve_TextAreaPreformatted(t *testing.T) {
	text := "line one\n  indented line two with enough characters to exceed forty"
	row := map[string]any{"description": map[string]any{"value": text}}
	got := Resolve(row, attr("description", schema.KindTextArea), nil, Options{})
	assert.Equal(t, Pre, got.Kind)
	assert.Equal(t, text, got.Text)
}

func TestResolve_JSON(t *testing.T) {
	row := map[string]any{"config": map[string]any{"value": map[string]any{"mtu": 1500.0}}}
	got := Resolve(row, attr("config", schema.KindJSON), nil, Options{})
	assert.Equal(t, JSON, got.Kind)
	assert.JSONEq(t, `{"mtu": 1500}`, got.Text)
}

func TestResolve_DateTime(t *testing.T) {
	row := map[string]any{"created": map[string]any{"value": "2024-03-05T10:30:00.123456+00:00"}}
	got := Resolve(row, attr("created", schema.KindDateTime), nil, Options{})
	assert.Equal(t, DateTime, got.Kind)
	assert.Equal(t, "2024-03-05 10:30:00 UTC", got.Text)

	loc := time.FixedZone("CET", 3600)
	got = Resolve(row, attr("created", schema.KindDateTime), nil, Options{Location: loc, TimeFormat: "15:04 MST"})
	assert.Equal(t, "11:30 CET", got.Text)

	row = map[string]any{"created": map[string]any{"value": "not a date"}}
	got = Resolve(row, attr("created", schema.KindDateTime), nil, Options{})
	assert.Equal(t, Text, got.Kind)
	assert.Equal(t, "not a date", got.Text)
}

func TestResolve_TypenameLabel(t *testing.T) {
	row := map[string]any{"__typename": "InfraDevice"}
	col := columns.Column{Name: "__typename", Source: columns.SourceAttribute, Kind: string(schema.KindText)}

	got := Resolve(row, col, map[string]string{"InfraDevice": "Device"}, Options{})
	assert.Equal(t, "Device", got.Text)

	got = Resolve(row, col, nil, Options{})
	assert.Equal(t, "InfraDevice", got.Text)
}

func TestResolve_FallbackChain(t *testing.T) {
	tests := []struct {
		name  string
		field any
		want  string
	}{
		{"label first", map[string]any{"label": "L", "display_label": "D", "value": "V"}, "L"},
		{"display_label", map[string]any{"display_label": "D", "value": "V"}, "D"},
		{"value", map[string]any{"value": "V"}, "V"},
		{"node label", map[string]any{"node": map[string]any{"label": "NL", "display_label": "ND"}}, "NL"},
		{"node display_label", map[string]any{"node": map[string]any{"display_label": "ND"}}, "ND"},
		{"node value", map[string]any{"node": map[string]any{"value": "NV"}}, "NV"},
		{"raw string", "raw", "raw"},
		{"null value", map[string]any{"value": nil}, EmptyMarker},
		{"nil field", nil, EmptyMarker},
		{"empty string kept", map[string]any{"label": "", "value": "V"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := map[string]any{"site": tt.field}
			got := Resolve(row, rel("site", schema.CardinalityOne), nil, Options{})
			assert.Equal(t, tt.want, got.Text)
		})
	}
}

func TestResolve_Truncation(t *testing.T) {
	long := "abcdefghijklmnopqrstuvwxyz0123456789ABCDEFGHIJ"
	row := map[string]any{"name": map[string]any{"value": long}}

	got := Resolve(row, attr("name", schema.KindText), nil, Options{})
	assert.Equal(t, long[:DefaultMaxLength]+Ellipsis, got.Text)

	got = Resolve(row, attr("name", schema.KindText), nil, Options{MaxLength: 5})
	assert.Equal(t, "abcde...", got.Text)

	got = Resolve(row, attr("name", schema.KindText), nil, Options{MaxLength: -1})
	assert.Equal(t, long, got.Text)
}

func TestResolve_ColorBadge(t *testing.T) {
	row := map[string]any{"status": map[string]any{"value": "active", "label": "Active", "color": "#FFFF00"}}
	got := Resolve(row, attr("status", schema.KindDropdown), nil, Options{})
	assert.Equal(t, ColorBadge, got.Kind)
	assert.Equal(t, "Active", got.Text)
	assert.Equal(t, "#FFFF00", got.Color)
	assert.Equal(t, Black, got.Foreground)
}

func TestResolve_MissingData(t *testing.T) {
	assert.Equal(t, Undefined, Resolve(nil, attr("name", schema.KindText), nil, Options{}).Kind)
	assert.Equal(t, Undefined, Resolve(map[string]any{}, attr("name", schema.KindText), nil, Options{}).Kind)
	assert.Equal(t, "", Resolve(nil, attr("name", schema.KindText), nil, Options{}).String())

	assert.NotPanics(t, func() {
		row := map[string]any{"name": []any{map[string]any{}}, "tags": map[string]any{"edges": "nope"}}
		Resolve(row, attr("name", schema.KindList), nil, Options{})
		Resolve(row, rel("tags", schema.CardinalityMany), nil, Options{})
		Resolve(row, attr("tags", schema.KindDateTime), nil, Options{})
	})
}

func TestContrast(t *testing.T) {
	tests := []struct {
		color string
		want  string
	}{
		{"#ffffff", Black},
		{"#000000", White},
		{"#ff0000", White},
		{"#00ff00", Black},
		{"#0000ff", White},
		{"#fff", Black},
		{"808080", Black},
		{"#7f7f7f", White},
		{"not-a-color", Black},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Contrast(tt.color), tt.color)
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "not_set", NotSet.String())
	assert.Equal(t, "color_badge", ColorBadge.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
}
