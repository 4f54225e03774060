package infer

import (
	"regexp"
	"strings"

	"github.com/gnana997/propfix/pkg/locator"
)

// Source names the rule that produced a Result.
type Source string

const (
	SourceComponent  Source = "component-table"
	SourceCommon     Source = "common-table"
	SourceDefault    Source = "default-literal"
	SourceConvention Source = "naming-convention"
	SourceFallback   Source = "fallback"
)

// Result is the inferred validator for one prop.
type Result struct {
	Type        *Type
	Required    *bool
	Description string
	Source      Source
}

// Fallback reports whether no rule matched.
func (r Result) Fallback() bool { return r.Source == SourceFallback }

var eventHandlerPattern = regexp.MustCompile(`^on[A-Z]`)

// IsEventHandler reports whether name follows the onX handler convention.
func IsEventHandler(name string) bool {
	return eventHandlerPattern.MatchString(name)
}

// Inferencer resolves validators. It holds no mutable state and is safe
// for concurrent use.
type Inferencer struct {
	tables *Tables
}

// New returns an inferencer over tables (Builtins when nil).
func New(tables *Tables) *Inferencer {
	if tables == nil {
		tables = Builtins()
	}
	return &Inferencer{tables: tables}
}

// Infer resolves the validator of prop on component.
func (in *Inferencer) Infer(component string, prop locator.Prop) Result {
	def := locator.LiteralNone
	if prop.HasDefault {
		def = prop.Default
	}
	return in.InferName(component, prop.Name, def)
}

// InferName resolves a validator from a prop name and the literal kind of
// its default value (LiteralNone when there is none). The first matching
// rule wins: component table, common table, default literal, naming
// convention, fallback.
func (in *Inferencer) InferName(component, name string, def locator.LiteralKind) Result {
	if e, ok := in.tables.Component(component, name); ok {
		return fromEntry(e, SourceComponent)
	}
	if e, ok := in.tables.Common(name); ok {
		return fromEntry(e, SourceCommon)
	}
	if IsEventHandler(name) {
		return Result{Type: Simple(KindFunc), Source: SourceCommon}
	}

	switch def {
	case locator.LiteralString:
		return Result{Type: Simple(KindString), Source: SourceDefault}
	case locator.LiteralNumber:
		return Result{Type: Simple(KindNumber), Source: SourceDefault}
	case locator.LiteralBool:
		return Result{Type: Simple(KindBool), Source: SourceDefault}
	case locator.LiteralArray:
		return Result{Type: Simple(KindArray), Source: SourceDefault}
	case locator.LiteralObject:
		return Result{Type: Simple(KindObject), Source: SourceDefault}
	case locator.LiteralFunction:
		return Result{Type: Simple(KindFunc), Source: SourceDefault}
	}

	if k, ok := convention(name); ok {
		return Result{Type: Simple(k), Source: SourceConvention}
	}
	return Result{Type: Simple(KindAny), Source: SourceFallback}
}

func fromEntry(e Entry, src Source) Result {
	t := e.Type
	if t == nil {
		t = Simple(KindAny)
	}
	return Result{Type: t, Required: e.Required, Description: e.Description, Source: src}
}

// convention applies the naming heuristics that remain after the tables
// and the default literal: an "id" or "Id" substring means string, an "is"
// or "has" prefix means bool. Both are plain case-sensitive text matches,
// so "hidden" is a string and "island" a bool.
func convention(name string) (Kind, bool) {
	if strings.Contains(name, "id") || strings.Contains(name, "Id") {
		return KindString, true
	}
	if strings.HasPrefix(name, "is") || strings.HasPrefix(name, "has") {
		return KindBool, true
	}
	return KindAny, false
}
