package usage

import (
	"regexp"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/propfix/pkg/locator"
)

// Site is one observed prop reference. Path is empty for the component's
// own file.
type Site struct {
	Prop   string
	Offset uint
	Path   string
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// reservedAttrs are consumed by React itself and never reach the component.
var reservedAttrs = map[string]bool{"key": true, "ref": true}

// RootName truncates a dotted access path to its first segment:
// "user.name" becomes "user".
func RootName(name string) string {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}

// Attributes returns the attributes passed at every <tag ...> site.
func Attributes(fu *FileUsage, tag, path string) []Site {
	var sites []Site
	for _, el := range fu.Elements {
		if el.Tag != tag {
			continue
		}
		for _, a := range el.Attrs {
			if reservedAttrs[a.Name] {
				continue
			}
			sites = append(sites, Site{Prop: a.Name, Offset: a.Offset, Path: path})
		}
	}
	return sites
}

// BodyReads finds props read inside the component: `props.x`,
// `props["x"]`, `this.props.x` and destructuring of the props object
// (`const { a } = props`, `const { a } = this.props`).
func BodyReads(root *ts.Node, source []byte, comp *locator.Component) []Site {
	if comp.Kind != locator.KindClass && comp.PropsParam == "" {
		return nil
	}
	body := locator.NodeAt(root, comp.Body)
	if body == nil {
		return nil
	}

	var sites []Site
	var walk func(n *ts.Node)
	walk = func(n *ts.Node) {
		switch n.Kind() {
		case "member_expression", "subscript_expression":
			if obj := n.ChildByFieldName("object"); obj != nil && isPropsObject(obj, source, comp) {
				if name := accessedName(n, source); name != "" {
					sites = append(sites, Site{Prop: name, Offset: n.StartByte()})
				}
			}
		case "variable_declarator":
			pattern := n.ChildByFieldName("name")
			value := n.ChildByFieldName("value")
			if pattern != nil && value != nil && pattern.Kind() == "object_pattern" && isPropsObject(value, source, comp) {
				for _, p := range locator.DestructuredProps(pattern, source) {
					sites = append(sites, Site{Prop: p.Name, Offset: pattern.StartByte()})
				}
			}
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(body)
	return sites
}

// isPropsObject reports whether n denotes the component's props object.
func isPropsObject(n *ts.Node, source []byte, comp *locator.Component) bool {
	if comp.Kind == locator.KindClass {
		if n.Kind() != "member_expression" {
			return false
		}
		obj := n.ChildByFieldName("object")
		prop := n.ChildByFieldName("property")
		return obj != nil && prop != nil && obj.Kind() == "this" && prop.Utf8Text(source) == "props"
	}
	return n.Kind() == "identifier" && n.Utf8Text(source) == comp.PropsParam
}

func accessedName(n *ts.Node, source []byte) string {
	if n.Kind() == "member_expression" {
		if prop := n.ChildByFieldName("property"); prop != nil && prop.Kind() == "property_identifier" {
			return prop.Utf8Text(source)
		}
		return ""
	}
	idx := n.ChildByFieldName("index")
	if idx != nil && idx.Kind() == "string" {
		return locator.Unquote(idx.Utf8Text(source))
	}
	return ""
}

// Merge unions declared props with observed sites. Declared props keep
// their order and gain the offsets of same-file sites; names seen only in
// sites are appended in first-seen order and marked UsageOnly. Names that
// are not identifiers (aria-label, data-x) are dropped.
func Merge(declared []locator.Prop, sites ...[]Site) []locator.Prop {
	out := make([]locator.Prop, len(declared))
	copy(out, declared)

	index := make(map[string]int, len(out))
	for i, p := range out {
		if !p.Opaque {
			index[p.Name] = i
		}
	}

	for _, group := range sites {
		for _, s := range group {
			name := RootName(s.Prop)
			if !identifierPattern.MatchString(name) {
				continue
			}
			i, ok := index[name]
			if !ok {
				i = len(out)
				index[name] = i
				out = append(out, locator.Prop{Name: name, UsageOnly: true})
			}
			if s.Path == "" {
				out[i].UsageSites = append(out[i].UsageSites, s.Offset)
			} else {
				out[i].External++
			}
		}
	}
	return out
}
