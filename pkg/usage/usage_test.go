package usage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/propfix/pkg/locator"
	"github.com/gnana997/propfix/pkg/parser"
	"github.com/gnana997/propfix/pkg/source"
)

func parse(t *testing.T, code string) *ts.Tree {
	t.Helper()
	pm := parser.NewParserManager(nil, 1)
	t.Cleanup(func() { _ = pm.Close() })
	tree, err := pm.ParseStrict([]byte(code), parser.DialectJSX)
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree
}

func siteNames(sites []Site) []string {
	names := make([]string, len(sites))
	for i, s := range sites {
		names[i] = s.Prop
	}
	return names
}

func TestExtract_ElementsAndImports(t *testing.T) {
	code := `import React from 'react';
import Button, { Icon as Glyph, Label } from './Button';
import * as UI from './ui';

export default function Toolbar() {
  return (
    <div className="bar">
      <Button key="a" ref={r} size="sm" onClick={go} aria-label="x" {...rest}>
        <Glyph name="save" />
      </Button>
      <UI.Panel open />
    </div>
  );
}
`
	fu := Extract(parse(t, code), []byte(code))

	require.Len(t, fu.Imports, 3)
	assert.Equal(t, "react", fu.Imports[0].Source)
	assert.Equal(t, []Binding{{Imported: "default", Local: "Button"}, {Imported: "Icon", Local: "Glyph"}, {Imported: "Label", Local: "Label"}}, fu.Imports[1].Bindings)
	assert.Equal(t, []Binding{{Imported: "*", Local: "UI"}}, fu.Imports[2].Bindings)
	assert.Equal(t, 2, fu.Imports[1].Line)

	require.Len(t, fu.Elements, 3)
	assert.Equal(t, "Button", fu.Elements[0].Tag)
	assert.True(t, fu.Elements[0].Spread)
	assert.Equal(t, "Glyph", fu.Elements[1].Tag)
	assert.Equal(t, "UI.Panel", fu.Elements[2].Tag)

	attrs := Attributes(fu, "Button", "")
	assert.Equal(t, []string{"size", "onClick", "aria-label"}, siteNames(attrs))
	assert.Equal(t, "size", code[attrs[0].Offset:attrs[0].Offset+4])
}

func TestBodyReads_PropsParameter(t *testing.T) {
	code := `function Panel(props) {
  const { footer, header: h } = props;
  return <section title={props.title}>{props["body"]}{props.user.name}</section>;
}
`
	tree := parse(t, code)
	comps := locator.Locate(tree, []byte(code))
	require.Len(t, comps, 1)

	reads := BodyReads(tree.RootNode(), []byte(code), &comps[0])
	assert.ElementsMatch(t, []string{"footer", "header", "title", "body", "user"}, siteNames(reads))
}

func TestBodyReads_ClassThisProps(t *testing.T) {
	code := `class Counter extends React.Component {
  render() {
    const { step } = this.props;
    return <span onClick={this.props.onTick}>{this.props.count + step}</span>;
  }
}
`
	tree := parse(t, code)
	comps := locator.Locate(tree, []byte(code))
	require.Len(t, comps, 1)

	reads := BodyReads(tree.RootNode(), []byte(code), &comps[0])
	assert.ElementsMatch(t, []string{"step", "onTick", "count"}, siteNames(reads))
}

func TestBodyReads_DestructuredParameterHasNoReads(t *testing.T) {
	code := `const Foo = ({ a }) => <i>{a}</i>;`
	tree := parse(t, code)
	comps := locator.Locate(tree, []byte(code))
	require.Len(t, comps, 1)
	assert.Empty(t, BodyReads(tree.RootNode(), []byte(code), &comps[0]))
}

func TestMerge(t *testing.T) {
	declared := []locator.Prop{{Name: "a", HasDefault: true}, {Name: "b"}}
	local := []Site{{Prop: "b", Offset: 10}, {Prop: "c", Offset: 20}, {Prop: "user.name", Offset: 30}, {Prop: "data-id", Offset: 40}}
	external := []Site{{Prop: "c", Path: "/x/Other.jsx"}, {Prop: "d", Path: "/x/Other.jsx"}}

	got := Merge(declared, local, external)
	require.Len(t, got, 5)
	assert.Equal(t, "a", got[0].Name)
	assert.True(t, got[0].HasDefault)
	assert.Equal(t, []uint{10}, got[1].UsageSites)

	assert.Equal(t, "c", got[2].Name)
	assert.True(t, got[2].UsageOnly)
	assert.Equal(t, []uint{20}, got[2].UsageSites)
	assert.Equal(t, 1, got[2].External)

	assert.Equal(t, "user", got[3].Name)
	assert.Equal(t, "d", got[4].Name)
	assert.Equal(t, 1, got[4].External)

	// declared input is not mutated
	assert.Empty(t, declared[1].UsageSites)
}

func TestResolves(t *testing.T) {
	from := filepath.Join("/src", "pages", "Home.jsx")
	tests := []struct {
		spec   string
		target string
		want   bool
	}{
		{"../components/Button", "/src/components/Button.jsx", true},
		{"../components/Button.jsx", "/src/components/Button.jsx", true},
		{"../components", "/src/components/index.js", true},
		{"./Hero", "/src/pages/Hero.tsx", true},
		{"components/Button", "/src/components/Button.jsx", false},
		{"react", "/src/pages/react.js", false},
		{"./Hero", "/src/pages/Heros.jsx", false},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolves(from, tt.spec, filepath.FromSlash(tt.target)))
		})
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newIndex(t *testing.T) *Index {
	t.Helper()
	pm := parser.NewParserManager(nil, 2)
	t.Cleanup(func() { _ = pm.Close() })
	ix, err := NewIndex(pm, source.NewLoader(nil), 8, nil)
	require.NoError(t, err)
	return ix
}

func TestIndex_Consumers(t *testing.T) {
	dir := t.TempDir()
	button := filepath.Join(dir, "components", "Button.jsx")
	writeFile(t, button, `const Button = ({ label }) => <button>{label}</button>;
export default Button;
export const Icon = ({ name }) => <i className={name} />;
`)
	page := filepath.Join(dir, "pages", "Home.jsx")
	writeFile(t, page, `import Btn, { Icon as Glyph } from '../components/Button';
export default function Home() {
  return <main><Btn label="Go" variant="primary" key="k" /><Glyph name="x" spin /></main>;
}
`)
	broken := filepath.Join(dir, "pages", "Broken.jsx")
	writeFile(t, broken, `import Button from '../components/Button';
const X = ( => <Button size="lg" />;
`)

	ix := newIndex(t)
	ix.SetFiles([]string{page, button, broken})

	sites := ix.Consumers(button, &locator.Component{Name: "Button", DefaultExport: true})
	assert.Equal(t, []string{"label", "variant"}, siteNames(sites))
	for _, s := range sites {
		assert.Equal(t, page, s.Path)
	}

	icon := ix.Consumers(button, &locator.Component{Name: "Icon"})
	assert.Equal(t, []string{"name", "spin"}, siteNames(icon))
}

func TestIndex_RevalidatesChangedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "App.jsx")
	writeFile(t, path, `const App = () => <Foo a="1" />;`)

	ix := newIndex(t)
	ix.Add(path)

	fu, err := ix.Usage(path)
	require.NoError(t, err)
	require.Len(t, fu.Elements, 1)

	_, err = ix.Usage(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ix.Stats().Hits)

	writeFile(t, path, `const App = () => <div><Foo a="1" /><Bar /></div>;`)
	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, later, later))

	fu, err = ix.Usage(path)
	require.NoError(t, err)
	assert.Len(t, fu.Elements, 2)
	assert.Equal(t, int64(2), ix.Stats().Misses)
}

func TestIndex_AddRemove(t *testing.T) {
	ix := newIndex(t)
	ix.Add("/b.jsx")
	ix.Add("/a.jsx")
	ix.Add("/b.jsx")
	assert.Equal(t, []string{"/a.jsx", "/b.jsx"}, ix.Files())

	ix.Remove("/a.jsx")
	assert.Equal(t, []string{"/b.jsx"}, ix.Files())
	assert.Equal(t, 1, ix.Stats().Files)
}
