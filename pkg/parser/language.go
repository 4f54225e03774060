package parser

import (
	"path/filepath"
	"strings"
)

// Dialect is the source flavour of a file. JS and JSX share the JavaScript
// grammar (which accepts JSX); TS and TSX use the two TypeScript grammars.
type Dialect int

const (
	DialectUnknown Dialect = iota
	DialectJS
	DialectJSX
	DialectTS
	DialectTSX
)

// String returns the string representation of the dialect.
func (d Dialect) String() string {
	switch d {
	case DialectJS:
		return "js"
	case DialectJSX:
		return "jsx"
	case DialectTS:
		return "ts"
	case DialectTSX:
		return "tsx"
	default:
		return "unknown"
	}
}

// grammar identifies the tree-sitter grammar a dialect is parsed with.
type grammar int

const (
	grammarJavaScript grammar = iota
	grammarTypeScript
	grammarTSX
)

func (d Dialect) grammar() grammar {
	switch d {
	case DialectTS:
		return grammarTypeScript
	case DialectTSX:
		return grammarTSX
	default:
		return grammarJavaScript
	}
}

func (g grammar) String() string {
	switch g {
	case grammarTypeScript:
		return "typescript"
	case grammarTSX:
		return "tsx"
	default:
		return "javascript"
	}
}

// DetectDialect detects the dialect from a file extension.
// Returns DialectUnknown if the extension is not recognized.
func DetectDialect(filePath string) Dialect {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".js", ".mjs", ".cjs":
		return DialectJS
	case ".jsx":
		return DialectJSX
	case ".ts", ".mts", ".cts":
		return DialectTS
	case ".tsx":
		return DialectTSX
	default:
		return DialectUnknown
	}
}

// IsSourceFile reports whether path has an extension the parser can handle.
func IsSourceFile(path string) bool {
	return DetectDialect(path) != DialectUnknown
}
