// Package unused removes import bindings that no-unused-vars reports as
// never used. Other unused names are reported, never edited.
package unused

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/propfix/pkg/lint"
	"github.com/gnana997/propfix/pkg/locator"
	"github.com/gnana997/propfix/pkg/parser"
	"github.com/gnana997/propfix/pkg/patch"
	"github.com/gnana997/propfix/pkg/scanner"
	"github.com/gnana997/propfix/pkg/source"
)

// Rule is the linter rule whose diagnostics are consumed.
const Rule = "no-unused-vars"

var flagged = regexp.MustCompile(`^'([^']+)' is (?:defined|assigned a value) but never used`)

// Finding is one unused name.
type Finding struct {
	Name string
	Line int
}

// Findings extracts the unused names from diagnostics of Rule.
func Findings(diags []lint.Diagnostic) []Finding {
	var out []Finding
	for _, d := range diags {
		if d.RuleID != Rule {
			continue
		}
		if m := flagged.FindStringSubmatch(d.Message); m != nil {
			out = append(out, Finding{Name: m[1], Line: d.Line})
		}
	}
	return out
}

type bindingKind int

const (
	bindDefault bindingKind = iota
	bindNamespace
	bindNamed
)

type binding struct {
	kind  bindingKind
	local string
	text  string
	line  int
}

// importDecl is a top-level import statement with a clause.
type importDecl struct {
	stmt      *ts.Node
	source    string
	startLine int
	endLine   int
	bindings  []binding
	removed   map[int]bool
}

func collectImports(root *ts.Node, src []byte) []*importDecl {
	var out []*importDecl
	for i := uint(0); i < root.NamedChildCount(); i++ {
		stmt := root.NamedChild(i)
		if stmt.Kind() != "import_statement" {
			continue
		}
		clause := locator.ChildByKind(stmt, "import_clause")
		if clause == nil {
			continue
		}
		d := &importDecl{
			stmt:      stmt,
			startLine: int(stmt.StartPosition().Row) + 1,
			endLine:   int(stmt.EndPosition().Row) + 1,
			removed:   make(map[int]bool),
		}
		if s := stmt.ChildByFieldName("source"); s != nil {
			d.source = s.Utf8Text(src)
		}
		d.bindings = clauseBindings(clause, src)
		out = append(out, d)
	}
	return out
}

func clauseBindings(clause *ts.Node, src []byte) []binding {
	var out []binding
	for i := uint(0); i < clause.NamedChildCount(); i++ {
		child := clause.NamedChild(i)
		line := int(child.StartPosition().Row) + 1
		switch child.Kind() {
		case "identifier":
			name := child.Utf8Text(src)
			out = append(out, binding{kind: bindDefault, local: name, text: name, line: line})
		case "namespace_import":
			if id := locator.ChildByKind(child, "identifier"); id != nil {
				out = append(out, binding{kind: bindNamespace, local: id.Utf8Text(src), text: child.Utf8Text(src), line: line})
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
				local := name.Utf8Text(src)
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					local = alias.Utf8Text(src)
				}
				out = append(out, binding{
					kind:  bindNamed,
					local: local,
					text:  spec.Utf8Text(src),
					line:  int(spec.StartPosition().Row) + 1,
				})
			}
		}
	}
	return out
}

// mark flags the binding of name reported on line. It reports false when no
// import on that line binds name.
func mark(decls []*importDecl, f Finding) bool {
	for _, d := range decls {
		if f.Line < d.startLine || f.Line > d.endLine {
			continue
		}
		for i, b := range d.bindings {
			if b.local == f.Name {
				d.removed[i] = true
				return true
			}
		}
	}
	return false
}

// clause renders the bindings left after removal. Empty means nothing
// remains.
func (d *importDecl) clause() string {
	var def, ns string
	var named []string
	for i, b := range d.bindings {
		if d.removed[i] {
			continue
		}
		switch b.kind {
		case bindDefault:
			def = b.text
		case bindNamespace:
			ns = b.text
		case bindNamed:
			named = append(named, b.text)
		}
	}

	var parts []string
	if def != "" {
		parts = append(parts, def)
	}
	if ns != "" {
		parts = append(parts, ns)
	}
	if len(named) > 0 {
		parts = append(parts, "{ "+strings.Join(named, ", ")+" }")
	}
	return strings.Join(parts, ", ")
}

func (d *importDecl) removedNames() []string {
	var names []string
	for i, b := range d.bindings {
		if d.removed[i] {
			names = append(names, b.local)
		}
	}
	return names
}

// edit rewrites the statement's clause or deletes the statement together
// with its line break when nothing remains.
func (d *importDecl) edit(src []byte) patch.Edit {
	clause := locator.ChildByKind(d.stmt, "import_clause")
	rest := d.clause()
	if rest != "" {
		return patch.Replace(src, clause.StartByte(), clause.EndByte(), rest)
	}

	start, end := d.stmt.StartByte(), d.stmt.EndByte()
	if patch.LineStart(src, start) == start {
		if next, ok := patch.NextLine(src, end); ok && strings.TrimSpace(string(src[end:next])) == "" {
			end = next
		}
	}
	return patch.Replace(src, start, end, "")
}

// Remover edits the unused imports of one file at a time.
type Remover struct {
	pm *parser.ParserManager
}

// NewRemover creates a remover.
func NewRemover(pm *parser.ParserManager) *Remover {
	return &Remover{pm: pm}
}

// Fix removes the flagged import bindings from src. Findings that are not
// import bindings come back as unresolved notes.
func (r *Remover) Fix(path string, src []byte, diags []lint.Diagnostic) ([]byte, []lint.Note, []lint.Note) {
	findings := Findings(diags)
	if len(findings) == 0 {
		return src, nil, nil
	}

	tree, err := r.pm.ParseFile(src, path)
	if err != nil {
		return src, nil, []lint.Note{{Line: findings[0].Line, Text: err.Error()}}
	}
	defer tree.Close()

	decls := collectImports(tree.RootNode(), src)

	var unresolved []lint.Note
	for _, f := range findings {
		if !mark(decls, f) {
			unresolved = append(unresolved, lint.Note{
				Line: f.Line,
				Text: fmt.Sprintf("'%s' is not an import binding; review manually", f.Name),
			})
		}
	}

	var edits []patch.Edit
	var fixed []lint.Note
	for _, d := range decls {
		names := d.removedNames()
		if len(names) == 0 {
			continue
		}
		edits = append(edits, d.edit(src))
		text := fmt.Sprintf("removed %s", strings.Join(names, ", "))
		if d.clause() == "" {
			text = fmt.Sprintf("removed import of %s", d.source)
		}
		fixed = append(fixed, lint.Note{Line: d.startLine, Text: text})
	}

	out, err := patch.Apply(src, edits)
	if err != nil {
		return src, nil, append(unresolved, lint.Note{Line: findings[0].Line, Text: err.Error()})
	}
	return out, fixed, unresolved
}

// NewFixer returns a driver that removes unused imports under a file or
// directory.
func NewFixer(linter lint.Linter, loader *source.Loader, pm *parser.ParserManager, scan scanner.ScanConfig, logger *slog.Logger) *lint.Driver {
	return lint.NewDriver(Rule, linter, loader, scan, NewRemover(pm).Fix, logger)
}
