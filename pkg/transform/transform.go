// Package transform drives the PropTypes pipeline over a file or a tree:
// locate components, collect their props, infer validators, render the
// declaration and patch it into the file.
package transform

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/propfix/pkg/infer"
	"github.com/gnana997/propfix/pkg/locator"
	"github.com/gnana997/propfix/pkg/parser"
	"github.com/gnana997/propfix/pkg/patch"
	"github.com/gnana997/propfix/pkg/scanner"
	"github.com/gnana997/propfix/pkg/source"
	"github.com/gnana997/propfix/pkg/synth"
	"github.com/gnana997/propfix/pkg/usage"
)

// ErrParse marks files whose syntax tree contains errors.
var ErrParse = errors.New("parse error")

// Policy decides what happens to an existing declaration.
type Policy string

const (
	// PolicyOverwrite replaces the whole declaration and logs every
	// stronger validator it drops.
	PolicyOverwrite Policy = "overwrite"
	// PolicyMerge keeps existing validators stronger than `any`.
	PolicyMerge Policy = "merge"
)

// ParsePolicy maps a config value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyOverwrite:
		return PolicyOverwrite, nil
	case PolicyMerge:
		return PolicyMerge, nil
	}
	return "", fmt.Errorf("unknown existing-declaration policy %q (want overwrite or merge)", s)
}

// Options configure a Transformer.
type Options struct {
	Scan         scanner.ScanConfig
	ImportSource string
	ImportIdent  string
	Existing     Policy

	// CrossFile enables the consumer index over the discovered tree.
	CrossFile bool
	IndexSize int
}

// DefaultOptions returns the CLI defaults.
func DefaultOptions() Options {
	return Options{
		Scan:         scanner.DefaultScanConfig(),
		ImportSource: "prop-types",
		ImportIdent:  synth.DefaultIdent,
		Existing:     PolicyOverwrite,
		CrossFile:    true,
		IndexSize:    usage.DefaultIndexSize,
	}
}

// Transformer runs the pipeline. Runs are serialized; the transformer may
// be shared by the CLI, the watcher and the MCP server.
type Transformer struct {
	pm         *parser.ParserManager
	loader     *source.Loader
	inferencer *infer.Inferencer
	index      *usage.Index
	opts       Options
	logger     *slog.Logger

	mu sync.Mutex
}

// New creates a transformer. A nil inferencer uses the built-in tables.
func New(pm *parser.ParserManager, loader *source.Loader, in *infer.Inferencer, opts Options, logger *slog.Logger) (*Transformer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if in == nil {
		in = infer.New(nil)
	}
	if opts.ImportSource == "" {
		opts.ImportSource = "prop-types"
	}
	if opts.ImportIdent == "" {
		opts.ImportIdent = synth.DefaultIdent
	}
	if opts.Existing == "" {
		opts.Existing = PolicyOverwrite
	}
	if err := opts.Scan.Validate(); err != nil {
		return nil, err
	}

	index, err := usage.NewIndex(pm, loader, opts.IndexSize, logger)
	if err != nil {
		return nil, err
	}
	return &Transformer{
		pm:         pm,
		loader:     loader,
		inferencer: in,
		index:      index,
		opts:       opts,
		logger:     logger,
	}, nil
}

// Index exposes the consumer index so that watchers can keep it current.
func (t *Transformer) Index() *usage.Index { return t.index }

// Run processes path, a file or a directory. Only a missing or unusable
// path is an error; per-file problems are recorded in the summary.
func (t *Transformer) Run(path string) (*Summary, error) {
	root, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	discovery, err := scanner.Discover(root, t.opts.Scan)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.opts.CrossFile {
		t.index.SetFiles(discovery.Files)
	}

	summary := &Summary{Root: root}
	for _, pe := range discovery.Errors {
		t.logger.Warn("skipping unreadable path", "path", pe.Path, "error", pe.Err)
		fr := FileResult{Path: pe.Path}
		summary.add(fr.fail(pe.Err))
	}
	for _, file := range discovery.Files {
		summary.add(t.processFile(file))
	}

	t.logger.Info("transform finished",
		"root", root,
		"files", summary.FilesScanned,
		"changed", summary.FilesChanged,
		"failed", summary.FilesFailed)
	return summary, nil
}

// ProcessFile runs the pipeline on one file and writes it back when it
// changed.
func (t *Transformer) ProcessFile(path string) FileResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.opts.CrossFile {
		t.index.Add(path)
	}
	return t.processFile(path)
}

// Forget drops path from the consumer index.
func (t *Transformer) Forget(path string) {
	t.index.Remove(path)
}

func (t *Transformer) processFile(path string) FileResult {
	fr := FileResult{Path: path}

	file, err := t.loader.Read(path)
	if err != nil {
		t.logger.Error("failed to read file", "file", path, "error", err)
		return fr.fail(err)
	}

	out, fr := t.rewrite(path, file.Data)
	if fr.Err != nil || !fr.Changed {
		return fr
	}

	if err := t.loader.Write(file, out); err != nil {
		t.logger.Error("failed to write file", "file", path, "error", err)
		return fr.fail(err)
	}
	t.index.Invalidate(path)
	return fr
}

// Preview returns the rewritten bytes of path without writing them. When
// src is nil the file is read from disk.
func (t *Transformer) Preview(path string, src []byte) ([]byte, FileResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if src == nil {
		file, err := t.loader.Read(path)
		if err != nil {
			fr := FileResult{Path: path}
			return nil, fr.fail(err)
		}
		src = file.Data
	}
	return t.rewrite(path, src)
}

// rewrite applies every component patch to src in memory.
func (t *Transformer) rewrite(path string, src []byte) ([]byte, FileResult) {
	fr := FileResult{Path: path}

	tree, err := t.parse(path, src)
	if err != nil {
		t.logger.Warn("skipping file", "file", path, "error", err)
		return src, fr.fail(err)
	}
	defer func() {
		if tree != nil {
			tree.Close()
		}
	}()

	var names []string
	for _, c := range locator.Locate(tree, src) {
		names = append(names, c.Name)
	}

	cur := src
	for _, name := range names {
		comp, ok := findComponent(tree, cur, name)
		if !ok {
			fr.Components = append(fr.Components, ComponentResult{Name: name, Outcome: OutcomeSkipped, Reason: ReasonNoComponent})
			continue
		}

		edits, cr, importAdded := t.component(tree, cur, path, &comp)
		fr.Components = append(fr.Components, cr)
		if len(edits) == 0 {
			continue
		}

		next, err := patch.Apply(cur, edits)
		if err != nil {
			return src, fr.fail(fmt.Errorf("patch %s: %w", name, err))
		}
		cur = next
		fr.ImportAdded = fr.ImportAdded || importAdded

		tree.Close()
		tree, err = t.parse(path, cur)
		if err != nil {
			return src, fr.fail(fmt.Errorf("patched %s no longer parses: %w", name, err))
		}
	}

	fr.Changed = string(cur) != string(src)
	fr.settle()
	return cur, fr
}

func (t *Transformer) parse(path string, src []byte) (*ts.Tree, error) {
	tree, err := t.pm.ParseFile(src, path)
	if errors.Is(err, parser.ErrSyntax) {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return tree, err
}

func findComponent(tree *ts.Tree, src []byte, name string) (locator.Component, bool) {
	for _, c := range locator.Locate(tree, src) {
		if c.Name == name {
			return c, true
		}
	}
	return locator.Component{}, false
}

// component plans the edits for one component against the current bytes.
func (t *Transformer) component(tree *ts.Tree, src []byte, path string, comp *locator.Component) ([]patch.Edit, ComponentResult, bool) {
	cr := ComponentResult{Name: comp.Name}
	log := t.logger.With("file", path, "component", comp.Name)

	if comp.StaticPropTypes {
		cr.Outcome, cr.Reason = OutcomeSkipped, ReasonStaticPropTypes
		log.Debug("skipping component", "reason", cr.Reason)
		return nil, cr, false
	}

	root := tree.RootNode()
	fu := usage.Extract(tree, src)
	reads := usage.BodyReads(root, src, comp)
	local := usage.Attributes(fu, comp.Name, "")
	var external []usage.Site
	if t.opts.CrossFile {
		external = t.index.Consumers(path, comp)
	}
	props := usage.Merge(comp.Props, reads, local, external)

	decl := synth.Synthesize(comp, props, t.inferencer)
	if decl.Empty() {
		cr.Outcome, cr.Reason = OutcomeSkipped, ReasonNoProps
		log.Debug("skipping component", "reason", cr.Reason)
		return nil, cr, false
	}
	cr.Props = len(decl.Entries)

	target := patch.Inspect(root, src, comp, t.opts.ImportSource)
	ident := target.Ident(t.opts.ImportIdent)

	if target.Existing != nil {
		switch t.opts.Existing {
		case PolicyMerge:
			cr.Preserved = decl.Preserve(target.Existing.Entries)
		default:
			cr.Downgraded = decl.Downgrades(target.Existing.Entries, target.Existing.Order, ident)
			for _, d := range cr.Downgraded {
				log.Warn("overwriting existing validator", "prop", d.Prop, "existing", d.Existing, "replaced", d.Replaced)
			}
		}
	}

	rendered := decl.Render(ident)
	if target.UpToDate(rendered) {
		cr.Outcome = OutcomeUpToDate
		return nil, cr, false
	}

	cr.Outcome = OutcomeUpdated
	cr.Placement = target.Placement()
	log.Info("updating propTypes", "props", cr.Props, "placement", cr.Placement)
	return target.Edits(rendered, ident), cr, !target.Import.Found
}
