// Package synth turns located and observed props into a PropTypes
// declaration and renders it as source text.
package synth

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/gnana997/propfix/pkg/infer"
	"github.com/gnana997/propfix/pkg/locator"
)

const (
	// DefaultIdent is the binding used when the file does not import
	// prop-types under another name.
	DefaultIdent = "PropTypes"

	todoDescription = "TODO: Add description"
	todoValidation  = "// TODO: add proper validation"
)

// Entry is one prop of a declaration.
type Entry struct {
	Name        string
	Type        *infer.Type
	Required    bool
	Description string
	TODO        bool

	// Raw, when set, is an existing validator expression kept verbatim.
	Raw string
}

// Validator renders the entry's validator expression.
func (e Entry) Validator(ident string) string {
	if e.Raw != "" {
		return e.Raw
	}
	v := e.Type.Render(ident)
	if e.Required {
		v += ".isRequired"
	}
	return v
}

// Declaration is the `Component.propTypes = {...}` statement.
type Declaration struct {
	Component string
	Entries   []Entry
}

// Empty reports whether there is nothing to declare.
func (d *Declaration) Empty() bool { return len(d.Entries) == 0 }

// Synthesize infers every prop of comp. props is the merged list of
// declared and observed props in output order; opaque sentinels are
// dropped.
func Synthesize(comp *locator.Component, props []locator.Prop, in *infer.Inferencer) *Declaration {
	d := &Declaration{Component: comp.Name}
	for _, p := range props {
		if p.Opaque {
			continue
		}
		r := in.Infer(comp.Name, p)

		e := Entry{
			Name:        p.Name,
			Type:        r.Type,
			Description: r.Description,
			TODO:        r.Fallback(),
		}
		if r.Required != nil {
			e.Required = *r.Required
		} else {
			e.Required = !p.UsageOnly && !p.HasDefault && !infer.IsEventHandler(p.Name) && !r.Fallback()
		}
		if e.Description == "" {
			if e.TODO {
				e.Description = todoDescription
			} else {
				e.Description = p.Name + " property"
			}
		}
		d.Entries = append(d.Entries, e)
	}
	return d
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

func renderKey(name string) string {
	if identifierPattern.MatchString(name) {
		return name
	}
	return strconv.Quote(name)
}

// Render writes the declaration using ident as the PropTypes binding.
// An empty declaration renders as "".
func (d *Declaration) Render(ident string) string {
	if d.Empty() {
		return ""
	}
	if ident == "" {
		ident = DefaultIdent
	}

	var b strings.Builder
	b.WriteString(d.Component)
	b.WriteString(".propTypes = {\n")
	for _, e := range d.Entries {
		b.WriteString("  /** ")
		b.WriteString(strings.ReplaceAll(e.Description, "*/", "* /"))
		b.WriteString(" */\n  ")
		b.WriteString(renderKey(e.Name))
		b.WriteString(": ")
		b.WriteString(e.Validator(ident))
		b.WriteByte(',')
		if e.TODO && e.Raw == "" {
			b.WriteByte(' ')
			b.WriteString(todoValidation)
		}
		b.WriteByte('\n')
	}
	b.WriteString("};")
	return b.String()
}

// weakValidator reports whether an existing validator carries no more
// information than the fallback (`PropTypes.any`, with or without
// `.isRequired`).
func weakValidator(text string) bool {
	t := compact(text)
	t = strings.TrimSuffix(t, ".isRequired")
	return t == "" || strings.HasSuffix(t, ".any")
}

func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// Preserve keeps the existing validator text for every entry whose
// existing validator is stronger than `any`. It returns the preserved
// names in entry order.
func (d *Declaration) Preserve(existing map[string]string) []string {
	var kept []string
	for i := range d.Entries {
		text, ok := existing[d.Entries[i].Name]
		if !ok || weakValidator(text) {
			continue
		}
		d.Entries[i].Raw = strings.TrimSpace(text)
		kept = append(kept, d.Entries[i].Name)
	}
	return kept
}

// Downgrade describes an existing validator that the new declaration
// replaces with a different one.
type Downgrade struct {
	Prop     string
	Existing string
	Replaced string
}

// Downgrades lists the human-authored validators (anything stronger than
// `any`) that rendering d would overwrite with different text. Existing
// props absent from d are reported with an empty Replaced.
func (d *Declaration) Downgrades(existing map[string]string, order []string, ident string) []Downgrade {
	if ident == "" {
		ident = DefaultIdent
	}
	byName := make(map[string]Entry, len(d.Entries))
	for _, e := range d.Entries {
		byName[e.Name] = e
	}

	var out []Downgrade
	for _, name := range order {
		text := existing[name]
		if weakValidator(text) {
			continue
		}
		e, ok := byName[name]
		if !ok {
			out = append(out, Downgrade{Prop: name, Existing: strings.TrimSpace(text)})
			continue
		}
		if v := e.Validator(ident); compact(v) != compact(text) {
			out = append(out, Downgrade{Prop: name, Existing: strings.TrimSpace(text), Replaced: v})
		}
	}
	return out
}

// Equivalent reports whether two declarations are equal ignoring
// whitespace.
func Equivalent(a, b string) bool {
	return compact(a) == compact(b)
}
