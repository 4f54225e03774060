// Package infer maps a prop name and its default-value literal to a
// PropTypes validator.
package infer

import (
	"strconv"
	"strings"
)

// Kind is the closed validator vocabulary.
type Kind int

const (
	KindAny Kind = iota
	KindString
	KindNumber
	KindBool
	KindFunc
	KindNode
	KindArray
	KindObject
	KindShape
	KindArrayOf
	KindOneOf
	KindOneOfType
)

var kindNames = [...]string{
	KindAny:       "any",
	KindString:    "string",
	KindNumber:    "number",
	KindBool:      "bool",
	KindFunc:      "func",
	KindNode:      "node",
	KindArray:     "array",
	KindObject:    "object",
	KindShape:     "shape",
	KindArrayOf:   "arrayOf",
	KindOneOf:     "oneOf",
	KindOneOfType: "oneOfType",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "any"
	}
	return kindNames[k]
}

// ParseKind resolves a validator name such as "string" or "arrayOf".
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return KindAny, false
}

// Composite reports whether k carries a payload.
func (k Kind) Composite() bool {
	return k >= KindShape
}

// ShapeField is one field of a shape validator.
type ShapeField struct {
	Name     string
	Type     *Type
	Required bool
}

// Type is an inferred validator. Only the payload matching Kind is set:
// Elem for arrayOf, Fields for shape, Values for oneOf and Alternatives
// for oneOfType.
type Type struct {
	Kind         Kind
	Elem         *Type
	Fields       []ShapeField
	Values       []string
	Alternatives []*Type
}

// Simple returns a payload-free type.
func Simple(k Kind) *Type { return &Type{Kind: k} }

// ArrayOf returns arrayOf(elem).
func ArrayOf(elem *Type) *Type { return &Type{Kind: KindArrayOf, Elem: elem} }

// Shape returns shape({...}) with fields in the given order.
func Shape(fields ...ShapeField) *Type { return &Type{Kind: KindShape, Fields: fields} }

// OneOf returns oneOf([...]) over string values.
func OneOf(values ...string) *Type { return &Type{Kind: KindOneOf, Values: values} }

// OneOfType returns oneOfType([...]).
func OneOfType(alts ...*Type) *Type { return &Type{Kind: KindOneOfType, Alternatives: alts} }

// Render writes the validator expression using ident as the PropTypes
// binding, without the trailing .isRequired.
func (t *Type) Render(ident string) string {
	var b strings.Builder
	t.render(&b, ident)
	return b.String()
}

func (t *Type) render(b *strings.Builder, ident string) {
	if t == nil {
		b.WriteString(ident + ".any")
		return
	}
	b.WriteString(ident)
	b.WriteByte('.')
	b.WriteString(t.Kind.String())

	switch t.Kind {
	case KindArrayOf:
		b.WriteByte('(')
		t.Elem.render(b, ident)
		b.WriteByte(')')
	case KindShape:
		b.WriteString("({")
		for i, f := range t.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			b.WriteString(": ")
			f.Type.render(b, ident)
			if f.Required {
				b.WriteString(".isRequired")
			}
		}
		b.WriteString("})")
	case KindOneOf:
		b.WriteString("([")
		for i, v := range t.Values {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Quote(v))
		}
		b.WriteString("])")
	case KindOneOfType:
		b.WriteString("([")
		for i, alt := range t.Alternatives {
			if i > 0 {
				b.WriteString(", ")
			}
			alt.render(b, ident)
		}
		b.WriteString("])")
	}
}
