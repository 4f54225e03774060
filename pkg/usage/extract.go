// Package usage collects the props a component is observed to receive:
// reads inside its own body and attributes passed at JSX sites that
// render it, in the same file or in files importing it.
package usage

import (
	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/propfix/pkg/locator"
)

// Attr is one attribute at a JSX site.
type Attr struct {
	Name   string
	Offset uint
}

// Element is one JSX site whose tag looks like a component.
type Element struct {
	Tag    string
	Offset uint
	Line   int
	Attrs  []Attr
	Spread bool
}

// Binding is one imported name. Imported is "default" for default imports
// and "*" for namespace imports.
type Binding struct {
	Imported string
	Local    string
}

// Import is one top-level import statement.
type Import struct {
	Source   string
	Bindings []Binding
	Line     int
}

// FileUsage is everything the collector needs from one file.
type FileUsage struct {
	Elements []Element
	Imports  []Import
}

// Extract walks the tree once and records component JSX sites and imports.
func Extract(tree *ts.Tree, source []byte) *FileUsage {
	fu := &FileUsage{}
	root := tree.RootNode()
	fu.Imports = extractImports(root, source)
	walkJSX(root, source, fu)
	return fu
}

func extractImports(root *ts.Node, source []byte) []Import {
	var imports []Import
	for i := uint(0); i < root.NamedChildCount(); i++ {
		stmt := root.NamedChild(i)
		if stmt.Kind() != "import_statement" {
			continue
		}
		src := stmt.ChildByFieldName("source")
		if src == nil {
			continue
		}
		imp := Import{
			Source: locator.Unquote(src.Utf8Text(source)),
			Line:   int(stmt.StartPosition().Row) + 1,
		}
		if clause := locator.ChildByKind(stmt, "import_clause"); clause != nil {
			imp.Bindings = clauseBindings(clause, source)
		}
		imports = append(imports, imp)
	}
	return imports
}

func clauseBindings(clause *ts.Node, source []byte) []Binding {
	var out []Binding
	for i := uint(0); i < clause.NamedChildCount(); i++ {
		child := clause.NamedChild(i)
		switch child.Kind() {
		case "identifier":
			out = append(out, Binding{Imported: "default", Local: child.Utf8Text(source)})
		case "namespace_import":
			if id := locator.ChildByKind(child, "identifier"); id != nil {
				out = append(out, Binding{Imported: "*", Local: id.Utf8Text(source)})
			}
		case "named_imports":
			for j := uint(0); j < child.NamedChildCount(); j++ {
				spec := child.NamedChild(j)
				if spec.Kind() != "import_specifier" {
					continue
				}
				name := spec.ChildByFieldName("name")
				if name == nil {
					continue
				}
				b := Binding{Imported: locator.Unquote(name.Utf8Text(source))}
				b.Local = b.Imported
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					b.Local = alias.Utf8Text(source)
				}
				out = append(out, b)
			}
		}
	}
	return out
}

func walkJSX(node *ts.Node, source []byte, fu *FileUsage) {
	switch node.Kind() {
	case "jsx_opening_element", "jsx_self_closing_element":
		if el, ok := element(node, source); ok {
			fu.Elements = append(fu.Elements, el)
		}
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		walkJSX(node.Child(i), source, fu)
	}
}

// element reads the tag and attributes of an opening or self-closing tag.
func element(node *ts.Node, source []byte) (Element, bool) {
	el := Element{
		Offset: node.StartByte(),
		Line:   int(node.StartPosition().Row) + 1,
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "identifier", "member_expression", "nested_identifier":
			if el.Tag == "" {
				el.Tag = child.Utf8Text(source)
			}
		case "jsx_attribute":
			name := child.NamedChild(0)
			if name != nil && name.Kind() == "property_identifier" {
				el.Attrs = append(el.Attrs, Attr{Name: name.Utf8Text(source), Offset: child.StartByte()})
			}
		case "jsx_expression":
			// {...spread}
			if locator.ChildByKind(child, "spread_element") != nil {
				el.Spread = true
			}
		}
	}
	if !locator.IsComponentName(el.Tag) {
		return Element{}, false
	}
	return el, true
}
