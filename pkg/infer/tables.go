package infer

import (
	"errors"
	"fmt"
)

// TableVersion names the revision of the built-in tables. Bump it when an
// entry changes so generated declarations can be traced to a table.
const TableVersion = "2"

// Entry is one table row. A nil Required leaves the decision to the
// synthesizer's default rule.
type Entry struct {
	Type        *Type
	Required    *bool
	Description string
}

// Tables holds the common prop table and the per-component tables.
// Tables are never mutated after construction.
type Tables struct {
	common     map[string]Entry
	components map[string]map[string]Entry
}

func required(v bool) *bool { return &v }

// Builtins returns the built-in tables.
func Builtins() *Tables {
	str := Simple(KindString)
	return &Tables{
		common: map[string]Entry{
			"children":    {Type: Simple(KindNode)},
			"icon":        {Type: Simple(KindNode)},
			"title":       {Type: str},
			"label":       {Type: str},
			"className":   {Type: str},
			"placeholder": {Type: str},
			"id":          {Type: str},
			"style":       {Type: Simple(KindObject)},
			"data":        {Type: Simple(KindObject)},
			"items":       {Type: Simple(KindArray)},
			"options":     {Type: Simple(KindArray)},
			"disabled":    {Type: Simple(KindBool)},
			"checked":     {Type: Simple(KindBool)},
			"required":    {Type: Simple(KindBool)},
			"selected":    {Type: Simple(KindBool)},
			"loading":     {Type: Simple(KindBool)},
			"isOpen":      {Type: Simple(KindBool)},
			"size":        {Type: OneOf("small", "medium", "large")},
		},
		components: map[string]map[string]Entry{
			"AIResponseMetadata": {
				"confidenceScore": {
					Type:        Simple(KindNumber),
					Required:    required(true),
					Description: "Confidence score percentage (0-100) indicating the AI's confidence in the response",
				},
				"citations": {
					Type: ArrayOf(Shape(
						ShapeField{Name: "text", Type: str, Required: true},
						ShapeField{Name: "url", Type: str},
						ShapeField{Name: "type", Type: str, Required: true},
						ShapeField{Name: "year", Type: OneOfType(str, Simple(KindNumber)), Required: true},
					)),
					Required:    required(false),
					Description: "Array of citation objects with source information",
				},
				"reasoningDetails": {Type: str, Required: required(false), Description: "Detailed explanation of the AI's reasoning process"},
				"jurisdictions":    {Type: ArrayOf(str), Required: required(false), Description: "Array of relevant legal jurisdictions"},
				"lastUpdated":      {Type: str, Required: required(false), Description: "ISO date string of when the information was last updated"},
			},
			"ErrorBoundary": {
				"children": {Type: Simple(KindNode), Required: required(true), Description: "React children to be rendered within the error boundary"},
			},
			"ChatRoom": {
				"roomId":   {Type: str, Required: required(true), Description: "Unique identifier for the chat room"},
				"userId":   {Type: str, Required: required(true), Description: "Current user identifier"},
				"userName": {Type: str, Required: required(false), Description: "Display name of the current user"},
			},
			"WebSocketTestComponent": {
				"url":         {Type: str, Required: required(false), Description: "WebSocket server URL to connect to"},
				"autoConnect": {Type: Simple(KindBool), Required: required(false), Description: "Whether to connect automatically on component mount"},
			},
			"LegalAIChat": {
				"userId":        {Type: str, Required: required(true), Description: "Current user identifier"},
				"caseId":        {Type: str, Required: required(false), Description: "Case identifier if the chat is associated with a case"},
				"initialPrompt": {Type: str, Required: required(false), Description: "Initial message to send to the AI"},
			},
		},
	}
}

// TypeSpec is the YAML form of a table entry:
//
//	citations:
//	  type: arrayOf
//	  of:
//	    type: shape
//	    fields:
//	      - {name: text, type: string, required: true}
//	      - {name: url, type: string}
//	  description: Array of citation objects
type TypeSpec struct {
	Type        string      `yaml:"type"`
	Of          *TypeSpec   `yaml:"of,omitempty"`
	Fields      []FieldSpec `yaml:"fields,omitempty"`
	Values      []string    `yaml:"values,omitempty"`
	Types       []TypeSpec  `yaml:"types,omitempty"`
	Required    *bool       `yaml:"required,omitempty"`
	Description string      `yaml:"description,omitempty"`
}

// FieldSpec is one shape field.
type FieldSpec struct {
	Name     string `yaml:"name"`
	TypeSpec `yaml:",inline"`
}

// Overrides extends or replaces built-in entries.
type Overrides struct {
	Props      map[string]TypeSpec            `yaml:"props,omitempty"`
	Components map[string]map[string]TypeSpec `yaml:"components,omitempty"`
}

// ErrInvalidTypeSpec is returned for malformed overrides.
var ErrInvalidTypeSpec = errors.New("invalid type spec")

// ToType converts the spec to a Type.
func (s TypeSpec) ToType() (*Type, error) {
	kind, ok := ParseKind(s.Type)
	if !ok {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidTypeSpec, s.Type)
	}

	switch kind {
	case KindArrayOf:
		if s.Of == nil {
			return nil, fmt.Errorf("%w: arrayOf requires of", ErrInvalidTypeSpec)
		}
		elem, err := s.Of.ToType()
		if err != nil {
			return nil, err
		}
		return ArrayOf(elem), nil

	case KindShape:
		fields := make([]ShapeField, 0, len(s.Fields))
		for _, f := range s.Fields {
			if f.Name == "" {
				return nil, fmt.Errorf("%w: shape field without name", ErrInvalidTypeSpec)
			}
			ft, err := f.TypeSpec.ToType()
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			fields = append(fields, ShapeField{Name: f.Name, Type: ft, Required: f.Required != nil && *f.Required})
		}
		return Shape(fields...), nil

	case KindOneOf:
		if len(s.Values) == 0 {
			return nil, fmt.Errorf("%w: oneOf requires values", ErrInvalidTypeSpec)
		}
		return OneOf(s.Values...), nil

	case KindOneOfType:
		if len(s.Types) == 0 {
			return nil, fmt.Errorf("%w: oneOfType requires types", ErrInvalidTypeSpec)
		}
		alts := make([]*Type, 0, len(s.Types))
		for _, ts := range s.Types {
			alt, err := ts.ToType()
			if err != nil {
				return nil, err
			}
			alts = append(alts, alt)
		}
		return OneOfType(alts...), nil
	}
	return Simple(kind), nil
}

func (s TypeSpec) entry() (Entry, error) {
	t, err := s.ToType()
	if err != nil {
		return Entry{}, err
	}
	return Entry{Type: t, Required: s.Required, Description: s.Description}, nil
}

// NewTables layers overrides on top of base (Builtins when nil). Component
// overrides merge per prop into the base component table.
func NewTables(base *Tables, overrides Overrides) (*Tables, error) {
	if base == nil {
		base = Builtins()
	}

	t := &Tables{
		common:     make(map[string]Entry, len(base.common)+len(overrides.Props)),
		components: make(map[string]map[string]Entry, len(base.components)+len(overrides.Components)),
	}
	for name, e := range base.common {
		t.common[name] = e
	}
	for comp, props := range base.components {
		m := make(map[string]Entry, len(props))
		for name, e := range props {
			m[name] = e
		}
		t.components[comp] = m
	}

	for name, spec := range overrides.Props {
		e, err := spec.entry()
		if err != nil {
			return nil, fmt.Errorf("props.%s: %w", name, err)
		}
		t.common[name] = e
	}
	for comp, props := range overrides.Components {
		m := t.components[comp]
		if m == nil {
			m = make(map[string]Entry, len(props))
			t.components[comp] = m
		}
		for name, spec := range props {
			e, err := spec.entry()
			if err != nil {
				return nil, fmt.Errorf("components.%s.%s: %w", comp, name, err)
			}
			m[name] = e
		}
	}
	return t, nil
}

// Common returns the common-table entry for name.
func (t *Tables) Common(name string) (Entry, bool) {
	e, ok := t.common[name]
	return e, ok
}

// Component returns the component-table entry for prop of component.
func (t *Tables) Component(component, prop string) (Entry, bool) {
	e, ok := t.components[component][prop]
	return e, ok
}
