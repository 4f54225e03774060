// Package hooks adds the identifiers that react-hooks/exhaustive-deps
// reports as missing to the dependency array of the hook call.
package hooks

import (
	"bytes"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/gnana997/propfix/pkg/lint"
	"github.com/gnana997/propfix/pkg/patch"
	"github.com/gnana997/propfix/pkg/scanner"
	"github.com/gnana997/propfix/pkg/source"
)

// Rule is the linter rule whose diagnostics are consumed.
const Rule = "react-hooks/exhaustive-deps"

// SearchWindow is how many lines below the reported one may hold the array.
const SearchWindow = 5

var (
	quoted      = regexp.MustCompile(`'([^']+)'`)
	missingList = regexp.MustCompile(`missing dependenc(?:y|ies): (.*?)(?:\. |\.?$)`)
	dependency  = regexp.MustCompile(`^[A-Za-z_$][\w$]*(?:\.[A-Za-z_$][\w$]*)*$`)
)

// Warning is a missing-dependency report.
type Warning struct {
	Line    int
	Missing []string
}

// Warnings keeps the missing-dependency diagnostics of Rule. Only the
// quoted list after "missing dependency:" counts, and only identifiers and
// member paths are kept; the advice that follows quotes code such as
// 'setCount(c => ...)'. Names are collected once, in message order.
func Warnings(diags []lint.Diagnostic) []Warning {
	var out []Warning
	for _, d := range diags {
		if d.RuleID != Rule {
			continue
		}
		list := missingList.FindStringSubmatch(d.Message)
		if list == nil {
			continue
		}
		w := Warning{Line: d.Line}
		seen := make(map[string]bool)
		for _, m := range quoted.FindAllStringSubmatch(list[1], -1) {
			name := m[1]
			if dependency.MatchString(name) && !seen[name] {
				seen[name] = true
				w.Missing = append(w.Missing, name)
			}
		}
		if len(w.Missing) > 0 {
			out = append(out, w)
		}
	}
	return out
}

// LocateArray finds the dependency array for a warning reported on line
// (1-based): the reported line when it holds a `]`, else the first of the
// next SearchWindow lines that does. The array is the last `]` of that line
// and its matching `[` on the same line. lbrack and rbrack are the byte
// offsets of the brackets.
func LocateArray(src []byte, line int) (lbrack, rbrack uint, arrayLine int, ok bool) {
	for n := line; n <= line+SearchWindow; n++ {
		start, end, exists := patch.LineSpan(src, n)
		if !exists {
			return 0, 0, 0, false
		}
		text := src[start:end]
		c := bytes.LastIndexByte(text, ']')
		if c < 0 {
			continue
		}
		o := matchOpen(text, c)
		if o < 0 {
			return 0, 0, n, false
		}
		return start + uint(o), start + uint(c), n, true
	}
	return 0, 0, 0, false
}

func matchOpen(text []byte, rbrack int) int {
	depth := 0
	for i := rbrack; i >= 0; i-- {
		switch text[i] {
		case ']':
			depth++
		case '[':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// MergeDeps appends every missing identifier that is not already an element
// of the array text inner. Elements are compared exactly after trimming.
// added lists what was appended.
func MergeDeps(inner string, missing []string) (merged string, added []string) {
	var elems []string
	for _, e := range strings.Split(inner, ",") {
		if e = strings.TrimSpace(e); e != "" {
			elems = append(elems, e)
		}
	}
	present := make(map[string]bool, len(elems))
	for _, e := range elems {
		present[e] = true
	}
	for _, m := range missing {
		if !present[m] {
			present[m] = true
			elems = append(elems, m)
			added = append(added, m)
		}
	}
	return strings.Join(elems, ", "), added
}

// Fix applies warnings bottom-up. Only the bytes between the brackets of
// each located array change.
func Fix(src []byte, warnings []Warning) (out []byte, fixed, unresolved []lint.Note) {
	sorted := make([]Warning, len(warnings))
	copy(sorted, warnings)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Line > sorted[j].Line })

	out = src
	for _, w := range sorted {
		lb, rb, line, ok := LocateArray(out, w.Line)
		if !ok {
			unresolved = append(unresolved, lint.Note{
				Line: w.Line,
				Text: fmt.Sprintf("no dependency array found for %s", strings.Join(w.Missing, ", ")),
			})
			continue
		}

		inner := string(out[lb+1 : rb])
		merged, added := MergeDeps(inner, w.Missing)
		if len(added) == 0 {
			continue
		}

		next, err := patch.Apply(out, []patch.Edit{patch.Replace(out, lb+1, rb, merged)})
		if err != nil {
			unresolved = append(unresolved, lint.Note{Line: line, Text: err.Error()})
			continue
		}
		out = next
		fixed = append(fixed, lint.Note{
			Line: line,
			Text: fmt.Sprintf("added %s", strings.Join(added, ", ")),
		})
	}
	return out, fixed, unresolved
}

// FixDiagnostics adapts Fix to lint.FixFunc.
func FixDiagnostics(_ string, src []byte, diags []lint.Diagnostic) ([]byte, []lint.Note, []lint.Note) {
	return Fix(src, Warnings(diags))
}

// NewFixer returns a driver that fixes dependency arrays under a file or
// directory.
func NewFixer(linter lint.Linter, loader *source.Loader, scan scanner.ScanConfig, logger *slog.Logger) *lint.Driver {
	return lint.NewDriver(Rule, linter, loader, scan, FixDiagnostics, logger)
}
