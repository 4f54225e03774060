package locator

import (
	"strings"
	"unicode"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// NodeAt returns the deepest node whose range covers span exactly or, if
// none matches exactly, the deepest node containing it.
func NodeAt(root *ts.Node, span Span) *ts.Node {
	if root == nil || root.StartByte() > span.Start || root.EndByte() < span.End {
		return nil
	}
	for i := uint(0); i < root.ChildCount(); i++ {
		child := root.Child(i)
		if child.StartByte() <= span.Start && child.EndByte() >= span.End {
			if found := NodeAt(child, span); found != nil {
				return found
			}
		}
	}
	return root
}

// NodeSpan returns the byte span of n.
func NodeSpan(n *ts.Node) Span {
	return Span{Start: n.StartByte(), End: n.EndByte()}
}

// ChildByKind returns the first direct child of the given kind.
func ChildByKind(node *ts.Node, kind string) *ts.Node {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == kind {
			return child
		}
	}
	return nil
}

// IsComponentName reports whether name follows the component naming convention.
func IsComponentName(name string) bool {
	if name == "" {
		return false
	}
	r := []rune(name)[0]
	return unicode.IsUpper(r)
}

// Unquote strips the quotes of a JS string literal.
func Unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'' || first == '`') && first == last {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// rendersJSX reports whether node contains JSX or a createElement call.
func rendersJSX(node *ts.Node, source []byte) bool {
	if node == nil {
		return false
	}
	switch node.Kind() {
	case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
		return true
	case "call_expression":
		if fn := node.ChildByFieldName("function"); fn != nil {
			callee := fn.Utf8Text(source)
			if callee == "createElement" || strings.HasSuffix(callee, ".createElement") {
				return true
			}
		}
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if rendersJSX(node.Child(i), source) {
			return true
		}
	}
	return false
}

// calleeName returns "memo" for both memo(...) and React.memo(...).
func calleeName(call *ts.Node, source []byte) string {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	text := fn.Utf8Text(source)
	if i := strings.LastIndexByte(text, '.'); i >= 0 {
		return text[i+1:]
	}
	return text
}

func isFunctionNode(n *ts.Node) bool {
	switch n.Kind() {
	case "arrow_function", "function_expression", "function":
		return true
	}
	return false
}

// literalKind classifies a default-value expression.
func literalKind(n *ts.Node, source []byte) LiteralKind {
	if n == nil {
		return LiteralNone
	}
	switch n.Kind() {
	case "string", "template_string":
		return LiteralString
	case "number":
		return LiteralNumber
	case "true", "false":
		return LiteralBool
	case "null":
		return LiteralNull
	case "array":
		return LiteralArray
	case "object":
		return LiteralObject
	case "arrow_function", "function_expression", "function":
		return LiteralFunction
	case "parenthesized_expression":
		if n.NamedChildCount() > 0 {
			return literalKind(n.NamedChild(0), source)
		}
	case "unary_expression":
		op := n.ChildByFieldName("operator")
		arg := n.ChildByFieldName("argument")
		if op == nil || arg == nil {
			return LiteralNone
		}
		switch op.Utf8Text(source) {
		case "-", "+":
			if arg.Kind() == "number" {
				return LiteralNumber
			}
		case "!":
			return LiteralBool
		}
	}
	return LiteralNone
}
