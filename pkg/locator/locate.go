package locator

import (
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// defaultExport describes the module's default-export statement.
type defaultExport struct {
	name          string
	span          Span
	isDeclaration bool
}

// Locate returns the components declared at the top level of the module,
// in source order. A name declared more than once keeps its first position
// and takes its spans and props from the last declaration.
func Locate(tree *ts.Tree, source []byte) []Component {
	root := tree.RootNode()
	export := findDefaultExport(root, source)

	var comps []Component
	index := make(map[string]int)
	add := func(c Component) {
		if export != nil && export.name == c.Name {
			c.DefaultExport = true
			c.Export = export.span
			c.ExportIsDeclaration = export.isDeclaration
		}
		if i, ok := index[c.Name]; ok {
			comps[i] = c
			return
		}
		index[c.Name] = len(comps)
		comps = append(comps, c)
	}

	defaultName := ""
	if export != nil {
		defaultName = export.name
	}

	for i := uint(0); i < root.NamedChildCount(); i++ {
		stmt := root.NamedChild(i)
		decl := stmt
		if stmt.Kind() == "export_statement" {
			decl = stmt.ChildByFieldName("declaration")
			if decl == nil {
				continue
			}
		}
		for _, c := range candidates(stmt, decl, source) {
			if !IsComponentName(c.Name) {
				continue
			}
			if c.Kind != KindClass && !c.rendersJSX && c.Name != defaultName {
				continue
			}
			add(c.Component)
		}
	}
	return comps
}

type candidate struct {
	Component
	rendersJSX bool
}

// candidates returns the component-shaped declarations in decl, a
// top-level statement or the declaration inside an export statement.
func candidates(stmt, decl *ts.Node, source []byte) []candidate {
	switch decl.Kind() {
	case "function_declaration", "generator_function_declaration":
		name := decl.ChildByFieldName("name")
		if name == nil {
			return nil
		}
		return []candidate{functionCandidate(name.Utf8Text(source), KindFunction, stmt, decl, source)}

	case "class_declaration":
		c, ok := classCandidate(stmt, decl, source)
		if !ok {
			return nil
		}
		return []candidate{c}

	case "lexical_declaration", "variable_declaration":
		var out []candidate
		for i := uint(0); i < decl.NamedChildCount(); i++ {
			declarator := decl.NamedChild(i)
			if declarator.Kind() != "variable_declarator" {
				continue
			}
			name := declarator.ChildByFieldName("name")
			value := declarator.ChildByFieldName("value")
			if name == nil || value == nil || name.Kind() != "identifier" {
				continue
			}
			fn := componentFunction(value, source)
			if fn == nil {
				continue
			}
			out = append(out, functionCandidate(name.Utf8Text(source), KindConstArrow, stmt, fn, source))
		}
		return out
	}
	return nil
}

// componentFunction unwraps memo(...) and forwardRef(...) down to the
// function expression that renders the component.
func componentFunction(value *ts.Node, source []byte) *ts.Node {
	for depth := 0; depth < 4 && value != nil; depth++ {
		if isFunctionNode(value) {
			return value
		}
		if value.Kind() == "parenthesized_expression" && value.NamedChildCount() > 0 {
			value = value.NamedChild(0)
			continue
		}
		if value.Kind() != "call_expression" {
			return nil
		}
		switch calleeName(value, source) {
		case "memo", "forwardRef":
		default:
			return nil
		}
		args := value.ChildByFieldName("arguments")
		if args == nil || args.NamedChildCount() == 0 {
			return nil
		}
		value = args.NamedChild(0)
	}
	return nil
}

func functionCandidate(name string, kind Kind, stmt, fn *ts.Node, source []byte) candidate {
	props, param := declaredProps(fn, source)
	return candidate{
		Component: Component{
			Name:       name,
			Kind:       kind,
			Props:      props,
			PropsParam: param,
			Span:       NodeSpan(stmt),
			Body:       NodeSpan(fn),
		},
		rendersJSX: rendersJSX(fn, source),
	}
}

func classCandidate(stmt, decl *ts.Node, source []byte) (candidate, bool) {
	name := decl.ChildByFieldName("name")
	heritage := ChildByKind(decl, "class_heritage")
	if name == nil || heritage == nil || !strings.Contains(heritage.Utf8Text(source), "Component") {
		return candidate{}, false
	}

	c := Component{
		Name: name.Utf8Text(source),
		Kind: KindClass,
		Span: NodeSpan(stmt),
		Body: NodeSpan(decl),
	}
	if body := decl.ChildByFieldName("body"); body != nil {
		c.StaticPropTypes = hasStaticPropTypes(body, source)
	}
	return candidate{Component: c, rendersJSX: true}, true
}

func hasStaticPropTypes(body *ts.Node, source []byte) bool {
	for i := uint(0); i < body.NamedChildCount(); i++ {
		member := body.NamedChild(i)
		switch member.Kind() {
		case "field_definition", "public_field_definition":
		default:
			continue
		}
		if ChildByKind(member, "static") == nil {
			continue
		}
		prop := member.ChildByFieldName("property")
		if prop == nil {
			prop = member.ChildByFieldName("name")
		}
		if prop != nil && prop.Utf8Text(source) == "propTypes" {
			return true
		}
	}
	return false
}

// findDefaultExport locates `export default Name`, `export default
// wrapper(Name)`, `export default function Name() {}` and
// `export { Name as default }`.
func findDefaultExport(root *ts.Node, source []byte) *defaultExport {
	for i := uint(0); i < root.NamedChildCount(); i++ {
		stmt := root.NamedChild(i)
		if stmt.Kind() != "export_statement" {
			continue
		}
		if ChildByKind(stmt, "default") == nil {
			if name := defaultSpecifier(stmt, source); name != "" {
				return &defaultExport{name: name, span: NodeSpan(stmt)}
			}
			continue
		}

		if decl := stmt.ChildByFieldName("declaration"); decl != nil {
			if name := decl.ChildByFieldName("name"); name != nil {
				return &defaultExport{name: name.Utf8Text(source), span: NodeSpan(stmt), isDeclaration: true}
			}
			return nil
		}
		if value := stmt.ChildByFieldName("value"); value != nil {
			if name := exportedIdentifier(value, source); name != "" {
				return &defaultExport{name: name, span: NodeSpan(stmt)}
			}
		}
		return nil
	}
	return nil
}

// exportedIdentifier finds the component identifier in an export value:
// `Foo`, `memo(Foo)`, `connect(mapState)(Foo)`, `withRouter(memo(Foo))`.
func exportedIdentifier(value *ts.Node, source []byte) string {
	switch value.Kind() {
	case "identifier":
		return value.Utf8Text(source)
	case "parenthesized_expression":
		if value.NamedChildCount() > 0 {
			return exportedIdentifier(value.NamedChild(0), source)
		}
	case "call_expression":
		if args := value.ChildByFieldName("arguments"); args != nil {
			for i := uint(0); i < args.NamedChildCount(); i++ {
				arg := args.NamedChild(i)
				if arg.Kind() == "identifier" && IsComponentName(arg.Utf8Text(source)) {
					return arg.Utf8Text(source)
				}
				if arg.Kind() == "call_expression" {
					if name := exportedIdentifier(arg, source); name != "" {
						return name
					}
				}
			}
		}
		if fn := value.ChildByFieldName("function"); fn != nil && fn.Kind() == "call_expression" {
			return exportedIdentifier(fn, source)
		}
	}
	return ""
}

// defaultSpecifier handles `export { Foo as default };`.
func defaultSpecifier(stmt *ts.Node, source []byte) string {
	clause := ChildByKind(stmt, "export_clause")
	if clause == nil || stmt.ChildByFieldName("source") != nil {
		return ""
	}
	for i := uint(0); i < clause.NamedChildCount(); i++ {
		spec := clause.NamedChild(i)
		if spec.Kind() != "export_specifier" {
			continue
		}
		alias := spec.ChildByFieldName("alias")
		name := spec.ChildByFieldName("name")
		if alias != nil && name != nil && alias.Utf8Text(source) == "default" {
			return name.Utf8Text(source)
		}
	}
	return ""
}
