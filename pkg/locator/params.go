package locator

import (
	ts "github.com/tree-sitter/go-tree-sitter"
)

// firstParameter returns the first formal parameter of a function node,
// unwrapped from TypeScript parameter wrappers and whole-parameter
// defaults (`({ a } = {})`).
func firstParameter(fn *ts.Node) *ts.Node {
	var param *ts.Node
	if single := fn.ChildByFieldName("parameter"); single != nil {
		// x => ... without parentheses.
		param = single
	} else if params := fn.ChildByFieldName("parameters"); params != nil {
		for i := uint(0); i < params.NamedChildCount(); i++ {
			child := params.NamedChild(i)
			if child.Kind() == "comment" {
				continue
			}
			param = child
			break
		}
	}
	if param == nil {
		return nil
	}

	switch param.Kind() {
	case "required_parameter", "optional_parameter":
		if pattern := param.ChildByFieldName("pattern"); pattern != nil {
			param = pattern
		}
	}
	if param.Kind() == "assignment_pattern" {
		if left := param.ChildByFieldName("left"); left != nil {
			param = left
		}
	}
	return param
}

// declaredProps extracts the props of a function component. The second
// return value is the identifier of a non-destructured props parameter.
func declaredProps(fn *ts.Node, source []byte) ([]Prop, string) {
	param := firstParameter(fn)
	if param == nil {
		return nil, ""
	}

	switch param.Kind() {
	case "identifier":
		name := param.Utf8Text(source)
		return []Prop{{Name: name, Opaque: true}}, name
	case "object_pattern":
		return DestructuredProps(param, source), ""
	}
	return nil, ""
}

// DestructuredProps walks an object_pattern. A repeated name overwrites
// the earlier entry's data and keeps its position.
func DestructuredProps(pattern *ts.Node, source []byte) []Prop {
	var props []Prop
	index := make(map[string]int)

	add := func(p Prop) {
		if p.Name == "" {
			return
		}
		if i, ok := index[p.Name]; ok {
			props[i] = p
			return
		}
		index[p.Name] = len(props)
		props = append(props, p)
	}

	for i := uint(0); i < pattern.NamedChildCount(); i++ {
		child := pattern.NamedChild(i)
		switch child.Kind() {
		case "shorthand_property_identifier_pattern":
			// { name }
			add(Prop{Name: child.Utf8Text(source)})

		case "object_assignment_pattern", "assignment_pattern":
			// { size = "small" }
			left := child.ChildByFieldName("left")
			if left == nil {
				continue
			}
			add(withDefault(Prop{Name: left.Utf8Text(source)}, child.ChildByFieldName("right"), source))

		case "pair_pattern":
			// { label: text } and { label: text = "" }
			key := child.ChildByFieldName("key")
			if key == nil {
				continue
			}
			p := Prop{Name: propertyKey(key, source)}
			if value := child.ChildByFieldName("value"); value != nil && value.Kind() == "assignment_pattern" {
				p = withDefault(p, value.ChildByFieldName("right"), source)
			}
			add(p)

			// rest_pattern (...rest) forwards arbitrary props; it declares none.
		}
	}
	return props
}

func withDefault(p Prop, value *ts.Node, source []byte) Prop {
	if value == nil {
		return p
	}
	p.HasDefault = true
	p.Default = literalKind(value, source)
	return p
}

// propertyKey returns the prop name of a pattern key; computed keys yield "".
func propertyKey(key *ts.Node, source []byte) string {
	switch key.Kind() {
	case "property_identifier", "identifier":
		return key.Utf8Text(source)
	case "string":
		return Unquote(key.Utf8Text(source))
	}
	return ""
}
