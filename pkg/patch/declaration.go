package patch

import (
	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/propfix/pkg/locator"
)

// Existing is a `Name.propTypes = {...};` statement already in the file.
type Existing struct {
	Span locator.Span
	Text string

	// Entries maps prop name to validator text; Order keeps source order.
	Entries map[string]string
	Order   []string
}

// FindDeclaration returns the last top-level propTypes assignment for
// name, or nil.
func FindDeclaration(root *ts.Node, source []byte, name string) *Existing {
	var found *Existing
	for i := uint(0); i < root.NamedChildCount(); i++ {
		stmt := root.NamedChild(i)
		if stmt.Kind() != "expression_statement" || stmt.NamedChildCount() == 0 {
			continue
		}
		assign := stmt.NamedChild(0)
		if assign.Kind() != "assignment_expression" {
			continue
		}
		left := assign.ChildByFieldName("left")
		right := assign.ChildByFieldName("right")
		if left == nil || right == nil || left.Kind() != "member_expression" {
			continue
		}
		obj := left.ChildByFieldName("object")
		prop := left.ChildByFieldName("property")
		if obj == nil || prop == nil || obj.Utf8Text(source) != name || prop.Utf8Text(source) != "propTypes" {
			continue
		}

		span := locator.NodeSpan(stmt)
		e := &Existing{
			Span:    span,
			Text:    string(source[span.Start:span.End]),
			Entries: make(map[string]string),
		}
		if right.Kind() == "object" {
			collectEntries(right, source, e)
		}
		found = e
	}
	return found
}

func collectEntries(obj *ts.Node, source []byte, e *Existing) {
	for i := uint(0); i < obj.NamedChildCount(); i++ {
		pair := obj.NamedChild(i)
		var key, value string
		switch pair.Kind() {
		case "pair":
			k := pair.ChildByFieldName("key")
			v := pair.ChildByFieldName("value")
			if k == nil || v == nil {
				continue
			}
			switch k.Kind() {
			case "property_identifier", "identifier":
				key = k.Utf8Text(source)
			case "string":
				key = locator.Unquote(k.Utf8Text(source))
			default:
				continue
			}
			value = v.Utf8Text(source)
		case "shorthand_property_identifier":
			key = pair.Utf8Text(source)
			value = key
		default:
			continue
		}
		if _, dup := e.Entries[key]; !dup {
			e.Order = append(e.Order, key)
		}
		e.Entries[key] = value
	}
}
