// Package display maps fetched GraphQL field data to a renderable value.
// Resolution is a pure function of the row, the column and an optional
// kind-label map; missing data never panics.
package display

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/matthewbaird/infraview/internal/columns"
	"github.com/matthewbaird/infraview/internal/schema"
)

// Kind tags the shape of a resolved value.
type Kind int

const (
	Undefined Kind = iota
	NotSet
	Set
	Pre
	JSON
	Badges
	DateTime
	Text
	ColorBadge
)

var kindNames = [...]string{"undefined", "not_set", "set", "pre", "json", "badges", "datetime", "text", "color_badge"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Tokens for boolean values and absent text.
const (
	NotSetToken = "✗"
	SetToken    = "✓"
	EmptyMarker = "-"
	Ellipsis    = "..."
)

// MaxBadges is the number of badges shown before the remainder is folded
// into an "(N more)" label.
const MaxBadges = 5

// DefaultMaxLength is the text truncation length when Options leaves it 0.
const DefaultMaxLength = 40

// DefaultTimeFormat is the layout used for DateTime attributes.
const DefaultTimeFormat = "2006-01-02 15:04:05 MST"

// Options tunes resolution. The zero value is usable.
type Options struct {
	// MaxLength truncates text; 0 means DefaultMaxLength, negative disables.
	MaxLength int
	// Location for DateTime values; nil means UTC.
	Location *time.Location
	// TimeFormat layout; empty means DefaultTimeFormat.
	TimeFormat string
}

func (o Options) maxLength() int {
	if o.MaxLength == 0 {
		return DefaultMaxLength
	}
	return o.MaxLength
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

func (o Options) timeFormat() string {
	if o.TimeFormat == "" {
		return DefaultTimeFormat
	}
	return o.TimeFormat
}

// Value is a resolved, renderable value.
type Value struct {
	Kind   Kind     `json:"kind"`
	Text   string   `json:"text,omitempty"`
	Badges []string `json:"badges,omitempty"`
	More   int      `json:"more,omitempty"`

	// ColorBadge only.
	Color      string `json:"color,omitempty"`
	Foreground string `json:"foreground,omitempty"`
}

// MoreLabel returns "(N more)" when badges were truncated.
func (v Value) MoreLabel() string {
	if v.More <= 0 {
		return ""
	}
	return fmt.Sprintf("(%d more)", v.More)
}

// String renders the value as plain text.
func (v Value) String() string {
	switch v.Kind {
	case Undefined:
		return ""
	case NotSet:
		return NotSetToken
	case Set:
		return SetToken
	case Badges:
		s := strings.Join(v.Badges, ", ")
		if more := v.MoreLabel(); more != "" {
			s += " " + more
		}
		return s
	default:
		return v.Text
	}
}

// Resolve produces the display value of col in row. The first matching rule
// wins:
//
//  1. value false → NotSet
//  2. value true → Set
//  3. TextArea → Pre
//  4. JSON → serialized JSON
//  5. List → badges
//  6. edges → badges from each peer's display label
//  7. DateTime → formatted in opts.Location
//  8. __typename with a label map → kind label
//  9. text fallback, truncated, as a ColorBadge when the field has a color
func Resolve(row map[string]any, col columns.Column, kindLabels map[string]string, opts Options) Value {
	if row == nil {
		return Value{Kind: Undefined}
	}
	field, ok := row[col.Name]
	if !ok {
		return Value{Kind: Undefined}
	}
	obj, _ := field.(map[string]any)
	val := field
	if obj != nil {
		val = obj["value"]
	}

	switch v := val.(type) {
	case bool:
		if !v {
			return Value{Kind: NotSet}
		}
		return Value{Kind: Set}
	}

	kind := col.AttributeKind()
	switch {
	case kind == schema.KindTextArea && val != nil:
		return Value{Kind: Pre, Text: stringify(val)}
	case kind == schema.KindJSON && val != nil:
		b, err := json.MarshalIndent(val, "", "  ")
		if err != nil {
			return Value{Kind: Text, Text: EmptyMarker}
		}
		return Value{Kind: JSON, Text: string(b)}
	case kind == schema.KindList:
		if items, ok := val.([]any); ok {
			labels := make([]string, 0, len(items))
			for _, it := range items {
				labels = append(labels, stringify(it))
			}
			return badges(labels)
		}
	}

	if obj != nil {
		if edges, ok := obj["edges"].([]any); ok {
			labels := make([]string, 0, len(edges))
			for _, e := range edges {
				labels = append(labels, edgeLabel(e))
			}
			return badges(labels)
		}
	}

	if kind == schema.KindDateTime && val != nil {
		if s, ok := val.(string); ok {
			if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
				return Value{Kind: DateTime, Text: t.In(opts.location()).Format(opts.timeFormat())}
			}
		}
	}

	if col.Name == "__typename" && kindLabels != nil {
		if s, ok := field.(string); ok {
			if label, ok := kindLabels[s]; ok {
				return Value{Kind: Text, Text: label}
			}
		}
	}

	text := truncate(fallbackText(field, obj), opts.maxLength())
	if obj != nil {
		if color, ok := obj["color"].(string); ok && color != "" {
			return Value{Kind: ColorBadge, Text: text, Color: color, Foreground: Contrast(color)}
		}
	}
	return Value{Kind: Text, Text: text}
}

func badges(labels []string) Value {
	v := Value{Kind: Badges, Badges: labels}
	if len(labels) > MaxBadges {
		v.Badges = labels[:MaxBadges]
		v.More = len(labels) - MaxBadges
	}
	return v
}

func edgeLabel(e any) string {
	edge, _ := e.(map[string]any)
	if edge == nil {
		return EmptyMarker
	}
	node, _ := edge["node"].(map[string]any)
	for _, src := range []map[string]any{node, edge} {
		if src == nil {
			continue
		}
		for _, key := range []string{"display_label", "value"} {
			if v, ok := src[key]; ok && v != nil {
				return stringify(v)
			}
		}
	}
	return EmptyMarker
}

func fallbackText(field any, obj map[string]any) string {
	if obj == nil {
		if field == nil {
			return EmptyMarker
		}
		return stringify(field)
	}
	for _, key := range []string{"label", "display_label", "value"} {
		if v, ok := obj[key]; ok && v != nil {
			return stringify(v)
		}
	}
	if node, ok := obj["node"].(map[string]any); ok {
		for _, key := range []string{"label", "display_label", "value"} {
			if v, ok := node[key]; ok && v != nil {
				return stringify(v)
			}
		}
	}
	return EmptyMarker
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return EmptyMarker
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return EmptyMarker
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}

func truncate(s string, max int) string {
	if max < 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + Ellipsis
}
