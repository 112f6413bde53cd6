package gql

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Value is an argument value literal.
type Value interface {
	writeValue(b *strings.Builder) error
}

// String is a string literal; it is escaped when rendered.
type String string

// Int is an integer literal.
type Int int64

// Bool is a boolean literal.
type Bool bool

// List is a list literal.
type List []Value

// ObjectField is one entry of an Object literal.
type ObjectField struct {
	Name  string
	Value Value
}

// Object is an input object literal. Field order is preserved.
type Object []ObjectField

// Strings builds a List of String values.
func Strings(values ...string) List {
	l := make(List, len(values))
	for i, v := range values {
		l[i] = String(v)
	}
	return l
}

func (v String) writeValue(b *strings.Builder) error {
	writeQuoted(b, string(v))
	return nil
}

func (v Int) writeValue(b *strings.Builder) error {
	b.WriteString(strconv.FormatInt(int64(v), 10))
	return nil
}

func (v Bool) writeValue(b *strings.Builder) error {
	b.WriteString(strconv.FormatBool(bool(v)))
	return nil
}

func (v List) writeValue(b *strings.Builder) error {
	b.WriteByte('[')
	for i, item := range v {
		if i > 0 {
			b.WriteString(", ")
		}
		if err := writeValue(b, item); err != nil {
			return err
		}
	}
	b.WriteByte(']')
	return nil
}

func (v Object) writeValue(b *strings.Builder) error {
	b.WriteByte('{')
	for i, f := range v {
		if !ValidName(f.Name) {
			return invalidName("object field", f.Name)
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name)
		b.WriteString(": ")
		if err := writeValue(b, f.Value); err != nil {
			return err
		}
	}
	b.WriteByte('}')
	return nil
}

func writeValue(b *strings.Builder, v Value) error {
	if v == nil {
		b.WriteString("null")
		return nil
	}
	return v.writeValue(b)
}

// writeQuoted writes s as a GraphQL string literal.
func writeQuoted(b *strings.Builder, s string) {
	const hex = "0123456789abcdef"
	b.WriteByte('"')
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		switch {
		case r == '"':
			b.WriteString(`\"`)
		case r == '\\':
			b.WriteString(`\\`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\b':
			b.WriteString(`\b`)
		case r == '\f':
			b.WriteString(`\f`)
		case r < 0x20 || r == 0x7f:
			b.WriteString(`\u00`)
			b.WriteByte(hex[r>>4])
			b.WriteByte(hex[r&0xf])
		case r == utf8.RuneError && size == 1:
			b.WriteRune(utf8.RuneError)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
}
