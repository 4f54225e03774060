package patch

import (
	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/propfix/pkg/locator"
	"github.com/gnana997/propfix/pkg/synth"
)

// Placement says where a declaration goes.
type Placement string

const (
	PlaceReplace          Placement = "replace"
	PlaceBeforeExport     Placement = "before-export"
	PlaceAfterExport      Placement = "after-export"
	PlaceAfterDeclaration Placement = "after-declaration"
	PlaceEndOfFile        Placement = "end-of-file"
)

// Target is what the planner knows about one component in the current
// version of the file.
type Target struct {
	Component *locator.Component
	Existing  *Existing
	Import    Import
	Module    string

	root   *ts.Node
	source []byte
}

// Inspect gathers the existing declaration and the import state of module
// for comp.
func Inspect(root *ts.Node, source []byte, comp *locator.Component, module string) *Target {
	return &Target{
		Component: comp,
		Existing:  FindDeclaration(root, source, comp.Name),
		Import:    FindImport(root, source, module),
		Module:    module,
		root:      root,
		source:    source,
	}
}

// Ident returns the PropTypes binding to render with: the file's own
// binding when it has one, else fallback.
func (t *Target) Ident(fallback string) string {
	if t.Import.Found && t.Import.Ident != "" {
		return t.Import.Ident
	}
	if fallback == "" {
		return synth.DefaultIdent
	}
	return fallback
}

// UpToDate reports whether the file already holds rendered (ignoring
// whitespace) and imports the module.
func (t *Target) UpToDate(rendered string) bool {
	return t.Existing != nil && t.Import.Found && synth.Equivalent(t.Existing.Text, rendered)
}

// Placement reports where Edits puts the declaration.
func (t *Target) Placement() Placement {
	c := t.Component
	switch {
	case t.Existing != nil:
		return PlaceReplace
	case !c.DefaultExport:
		return PlaceEndOfFile
	case c.ExportIsDeclaration:
		return PlaceAfterExport
	case c.Export.Start < c.Span.End:
		// export default Foo; above the declaration of Foo
		return PlaceAfterDeclaration
	}
	return PlaceBeforeExport
}

// Edits returns the declaration edit and, when the module is not bound
// yet, the import insertion.
func (t *Target) Edits(rendered, ident string) []Edit {
	c := t.Component
	src := t.source

	var edits []Edit
	if !t.Import.Found {
		edits = append(edits, importEdit(t.root, src, ImportLine(ident, t.Module)))
	}

	switch t.Placement() {
	case PlaceReplace:
		edits = append(edits, Replace(src, t.Existing.Span.Start, t.Existing.Span.End, rendered))
	case PlaceBeforeExport:
		edits = append(edits, Insert(c.Export.Start, rendered+"\n\n"))
	case PlaceAfterExport:
		edits = append(edits, Insert(c.Export.End, "\n\n"+rendered))
	case PlaceAfterDeclaration:
		edits = append(edits, Insert(c.Span.End, "\n\n"+rendered))
	default:
		edits = append(edits, appendEdit(src, rendered))
	}
	return edits
}

func appendEdit(src []byte, rendered string) Edit {
	end := uint(len(src))
	switch {
	case end == 0:
		return Insert(end, rendered+"\n")
	case src[end-1] != '\n':
		return Insert(end, "\n\n"+rendered+"\n")
	}
	return Insert(end, "\n"+rendered+"\n")
}
