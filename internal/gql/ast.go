// Package gql is a small GraphQL document builder. Documents are assembled
// as a tree of fields, arguments and inline fragments and rendered by a
// single serializer, so the same tree always yields byte-identical text.
//
// Every name is checked against the GraphQL Name grammar and every argument
// value is a typed Value escaped by the serializer; nothing is interpolated
// verbatim.
package gql

// OperationType is the keyword that opens an operation.
type OperationType string

const (
	Query    OperationType = "query"
	Mutation OperationType = "mutation"
)

// Operation is a complete query or mutation document.
type Operation struct {
	Type       OperationType
	Name       string // optional
	Selections SelectionSet
}

// NewQuery creates a query operation.
func NewQuery(name string, sel ...Selection) *Operation {
	return &Operation{Type: Query, Name: name, Selections: sel}
}

// NewMutation creates a mutation operation.
func NewMutation(name string, sel ...Selection) *Operation {
	return &Operation{Type: Mutation, Name: name, Selections: sel}
}

// Add appends root selections.
func (o *Operation) Add(sel ...Selection) *Operation {
	o.Selections = append(o.Selections, sel...)
	return o
}

// Selection is implemented by *Field and *InlineFragment.
type Selection interface {
	selectionNode()
}

// SelectionSet is an ordered list of selections.
type SelectionSet []Selection

// Field selects a field, optionally with an alias, arguments and a nested
// selection set.
type Field struct {
	Alias      string
	Name       string
	Args       []Argument
	Selections SelectionSet
}

func (*Field) selectionNode() {}

// F creates a field with nested selections.
func F(name string, sel ...Selection) *Field {
	return &Field{Name: name, Selections: sel}
}

// Fields creates leaf fields for each name.
func Fields(names ...string) []Selection {
	out := make([]Selection, len(names))
	for i, n := range names {
		out[i] = &Field{Name: n}
	}
	return out
}

// WithArgs appends arguments to the field.
func (f *Field) WithArgs(args ...Argument) *Field {
	f.Args = append(f.Args, args...)
	return f
}

// As sets the alias.
func (f *Field) As(alias string) *Field {
	f.Alias = alias
	return f
}

// Add appends nested selections.
func (f *Field) Add(sel ...Selection) *Field {
	f.Selections = append(f.Selections, sel...)
	return f
}

// InlineFragment is a `... on Type { }` type-conditional selection.
type InlineFragment struct {
	On         string
	Selections SelectionSet
}

func (*InlineFragment) selectionNode() {}

// On creates an inline fragment for a concrete type.
func On(typeName string, sel ...Selection) *InlineFragment {
	return &InlineFragment{On: typeName, Selections: sel}
}

// Argument is a named argument value.
type Argument struct {
	Name  string
	Value Value
}

// Arg creates an argument.
func Arg(name string, v Value) Argument {
	return Argument{Name: name, Value: v}
}
