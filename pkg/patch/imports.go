package patch

import (
	"fmt"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/propfix/pkg/locator"
)

// Import describes how the file already binds a module.
type Import struct {
	Found bool
	// Ident is the local binding usable as `Ident.string`.
	Ident string
}

// FindImport looks for a default or namespace import of module, or a
// top-level `const X = require(module)`.
func FindImport(root *ts.Node, source []byte, module string) Import {
	for i := uint(0); i < root.NamedChildCount(); i++ {
		stmt := root.NamedChild(i)
		switch stmt.Kind() {
		case "import_statement":
			src := stmt.ChildByFieldName("source")
			if src == nil || locator.Unquote(src.Utf8Text(source)) != module {
				continue
			}
			clause := locator.ChildByKind(stmt, "import_clause")
			if clause == nil {
				continue
			}
			for j := uint(0); j < clause.NamedChildCount(); j++ {
				child := clause.NamedChild(j)
				switch child.Kind() {
				case "identifier":
					return Import{Found: true, Ident: child.Utf8Text(source)}
				case "namespace_import":
					if id := locator.ChildByKind(child, "identifier"); id != nil {
						return Import{Found: true, Ident: id.Utf8Text(source)}
					}
				}
			}

		case "lexical_declaration", "variable_declaration":
			for j := uint(0); j < stmt.NamedChildCount(); j++ {
				d := stmt.NamedChild(j)
				if d.Kind() != "variable_declarator" {
					continue
				}
				name := d.ChildByFieldName("name")
				value := d.ChildByFieldName("value")
				if name == nil || value == nil || name.Kind() != "identifier" {
					continue
				}
				if requiredModule(value, source) == module {
					return Import{Found: true, Ident: name.Utf8Text(source)}
				}
			}
		}
	}
	return Import{}
}

// requiredModule returns "m" for require("m") and require("m").default.
func requiredModule(value *ts.Node, source []byte) string {
	if value.Kind() == "member_expression" {
		if obj := value.ChildByFieldName("object"); obj != nil {
			value = obj
		}
	}
	if value.Kind() != "call_expression" {
		return ""
	}
	fn := value.ChildByFieldName("function")
	args := value.ChildByFieldName("arguments")
	if fn == nil || args == nil || fn.Utf8Text(source) != "require" || args.NamedChildCount() != 1 {
		return ""
	}
	arg := args.NamedChild(0)
	if arg.Kind() != "string" {
		return ""
	}
	return locator.Unquote(arg.Utf8Text(source))
}

// ImportLine renders a default import statement.
func ImportLine(ident, module string) string {
	return fmt.Sprintf("import %s from '%s';", ident, module)
}

// importEdit inserts line after the last top-level import, or at the top
// of the file after a hash-bang line and directive prologue.
func importEdit(root *ts.Node, source []byte, line string) Edit {
	var last, preamble *ts.Node
	prologue := true
	for i := uint(0); i < root.NamedChildCount(); i++ {
		stmt := root.NamedChild(i)
		switch {
		case stmt.Kind() == "import_statement":
			last = stmt
		case stmt.Kind() == "comment":
		case prologue && isPreamble(stmt):
			preamble = stmt
		default:
			prologue = false
		}
	}

	anchor := last
	if anchor == nil {
		anchor = preamble
	}
	if anchor == nil {
		return Insert(0, line+"\n\n")
	}

	at, ok := NextLine(source, anchor.EndByte())
	if !ok {
		return Insert(at, "\n"+line+"\n")
	}
	if last == nil {
		return Insert(at, line+"\n\n")
	}
	return Insert(at, line+"\n")
}

// isPreamble reports hash-bang lines and directives such as 'use client'.
func isPreamble(stmt *ts.Node) bool {
	switch stmt.Kind() {
	case "hash_bang_line":
		return true
	case "expression_statement":
		return stmt.NamedChildCount() == 1 && stmt.NamedChild(0).Kind() == "string"
	}
	return false
}
