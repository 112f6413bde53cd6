package gql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// ErrInvalidName is returned when a field, argument, alias or type name is
// not a valid GraphQL Name.
var ErrInvalidName = errors.New("invalid GraphQL name")

// ErrSyntax is returned by Check for documents that do not parse.
var ErrSyntax = errors.New("invalid GraphQL document")

const indent = "  "

// ValidName reports whether s matches /[_A-Za-z][_0-9A-Za-z]*/.
func ValidName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func invalidName(what, name string) error {
	return fmt.Errorf("%w: %s %q", ErrInvalidName, what, name)
}

// Render serializes the operation. Output is deterministic: selections and
// arguments appear in the order they were added.
func (o *Operation) Render() (string, error) {
	if o == nil {
		return "", errors.New("nil operation")
	}
	if o.Type != Query && o.Type != Mutation {
		return "", fmt.Errorf("unsupported operation type %q", o.Type)
	}
	if o.Name != "" && !ValidName(o.Name) {
		return "", invalidName("operation", o.Name)
	}
	if len(o.Selections) == 0 {
		return "", errors.New("operation has no selections")
	}

	var b strings.Builder
	b.WriteString(string(o.Type))
	if o.Name != "" {
		b.WriteByte(' ')
		b.WriteString(o.Name)
	}
	if err := writeSelectionSet(&b, o.Selections, 0); err != nil {
		return "", err
	}
	b.WriteByte('\n')
	return b.String(), nil
}

func writeSelectionSet(b *strings.Builder, set SelectionSet, depth int) error {
	b.WriteString(" {\n")
	for _, sel := range set {
		if err := writeSelection(b, sel, depth+1); err != nil {
			return err
		}
	}
	b.WriteString(strings.Repeat(indent, depth))
	b.WriteByte('}')
	return nil
}

func writeSelection(b *strings.Builder, sel Selection, depth int) error {
	pad := strings.Repeat(indent, depth)
	switch s := sel.(type) {
	case *Field:
		if !ValidName(s.Name) {
			return invalidName("field", s.Name)
		}
		b.WriteString(pad)
		if s.Alias != "" {
			if !ValidName(s.Alias) {
				return invalidName("alias", s.Alias)
			}
			b.WriteString(s.Alias)
			b.WriteString(": ")
		}
		b.WriteString(s.Name)
		if len(s.Args) > 0 {
			if err := writeArgs(b, s.Args); err != nil {
				return err
			}
		}
		if len(s.Selections) > 0 {
			if err := writeSelectionSet(b, s.Selections, depth); err != nil {
				return err
			}
		}
		b.WriteByte('\n')
	case *InlineFragment:
		if !ValidName(s.On) {
			return invalidName("type condition", s.On)
		}
		if len(s.Selections) == 0 {
			return fmt.Errorf("inline fragment on %s has no selections", s.On)
		}
		b.WriteString(pad)
		b.WriteString("... on ")
		b.WriteString(s.On)
		if err := writeSelectionSet(b, s.Selections, depth); err != nil {
			return err
		}
		b.WriteByte('\n')
	case nil:
		return errors.New("nil selection")
	default:
		return fmt.Errorf("unsupported selection %T", sel)
	}
	return nil
}

func writeArgs(b *strings.Builder, args []Argument) error {
	b.WriteByte('(')
	for i, a := range args {
		if !ValidName(a.Name) {
			return invalidName("argument", a.Name)
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.Name)
		b.WriteString(": ")
		if err := writeValue(b, a.Value); err != nil {
			return err
		}
	}
	b.WriteByte(')')
	return nil
}

// Check parses doc and reports whether it is a syntactically valid
// executable document with at least one operation.
func Check(doc string) error {
	parsed, gerr := parser.ParseQuery(&ast.Source{Name: "document", Input: doc})
	if gerr != nil {
		return fmt.Errorf("%w: %v", ErrSyntax, gerr)
	}
	if parsed == nil || len(parsed.Operations) == 0 {
		return fmt.Errorf("%w: no operation", ErrSyntax)
	}
	return nil
}
