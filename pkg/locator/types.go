// Package locator finds React component declarations in a parsed module and
// the props each one declares through its first parameter.
package locator

// Kind is the declaration shape of a component.
type Kind string

const (
	// KindFunction is `function Name(props) {...}`.
	KindFunction Kind = "function"
	// KindConstArrow is `const Name = (props) => ...`, `const Name = function (props) {...}`,
	// or either of those wrapped in memo/forwardRef.
	KindConstArrow Kind = "const_arrow"
	// KindClass is `class Name extends Component`.
	KindClass Kind = "class"
)

// LiteralKind classifies a destructuring default value.
type LiteralKind int

const (
	// LiteralNone means there is no default, or the default is not a literal
	// (an identifier, a call, ...).
	LiteralNone LiteralKind = iota
	LiteralString
	LiteralNumber
	LiteralBool
	LiteralNull
	LiteralArray
	LiteralObject
	LiteralFunction
)

func (k LiteralKind) String() string {
	switch k {
	case LiteralString:
		return "string"
	case LiteralNumber:
		return "number"
	case LiteralBool:
		return "bool"
	case LiteralNull:
		return "null"
	case LiteralArray:
		return "array"
	case LiteralObject:
		return "object"
	case LiteralFunction:
		return "function"
	default:
		return "none"
	}
}

// ParseLiteralKind is the inverse of String. "" parses as LiteralNone.
func ParseLiteralKind(s string) (LiteralKind, bool) {
	if s == "" {
		return LiteralNone, true
	}
	for k := LiteralNone; k <= LiteralFunction; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return LiteralNone, false
}

// Span is a half-open byte range [Start, End) in the source.
type Span struct {
	Start uint
	End   uint
}

// Len returns the span length in bytes.
func (s Span) Len() uint { return s.End - s.Start }

// Prop is a prop a component is expected to receive.
type Prop struct {
	Name string

	// HasDefault is set when the destructuring binding carries `= value`.
	HasDefault bool
	// Default is the literal kind of that value, LiteralNone when it is
	// not a literal.
	Default LiteralKind

	// UsageSites are byte offsets in the component's own file where the
	// prop is read or passed.
	UsageSites []uint
	// External counts consumer sites found in other files.
	External int

	// UsageOnly marks props that were observed but never declared.
	UsageOnly bool
	// Opaque marks the sentinel produced by a non-destructured first
	// parameter (`function Foo(props)`); it never becomes a declaration entry.
	Opaque bool
}

// Component describes one recognized component declaration.
type Component struct {
	Name string
	Kind Kind

	// Props are the declared props in declaration order. Empty for classes
	// and for functions without parameters; a single Opaque entry for a
	// non-destructured parameter.
	Props []Prop
	// PropsParam is the identifier of a non-destructured props parameter.
	PropsParam string

	// Span covers the top-level statement holding the declaration,
	// including a wrapping export statement.
	Span Span
	// Body covers the function node (or class body) used for in-body reads.
	Body Span

	// DefaultExport is set when the module default-exports this component.
	DefaultExport bool
	// Export is the default-export statement when DefaultExport is set.
	Export Span
	// ExportIsDeclaration is set for `export default function Name() {}`,
	// where the export statement and the declaration are the same node.
	ExportIsDeclaration bool

	// StaticPropTypes is set when a class body declares `static propTypes`.
	StaticPropTypes bool
}

// IsOpaque reports whether the props parameter was not destructured.
func (c *Component) IsOpaque() bool {
	return c.PropsParam != ""
}
