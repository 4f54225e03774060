package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/propfix/pkg/infer"
	"github.com/gnana997/propfix/pkg/lint"
	"github.com/gnana997/propfix/pkg/locator"
	"github.com/gnana997/propfix/pkg/synth"
	"github.com/gnana997/propfix/pkg/transform"
)

// --- response shapes ---

type downgradeJSON struct {
	Prop     string `json:"prop"`
	Existing string `json:"existing"`
	Replaced string `json:"replaced,omitempty"`
}

type componentJSON struct {
	Name       string          `json:"name"`
	Outcome    string          `json:"outcome"`
	Reason     string          `json:"reason,omitempty"`
	Props      int             `json:"props,omitempty"`
	Placement  string          `json:"placement,omitempty"`
	Preserved  []string        `json:"preserved,omitempty"`
	Downgraded []downgradeJSON `json:"downgraded,omitempty"`
}

type fileJSON struct {
	Path        string          `json:"path"`
	Outcome     string          `json:"outcome"`
	Reason      string          `json:"reason,omitempty"`
	Error       string          `json:"error,omitempty"`
	Changed     bool            `json:"changed"`
	ImportAdded bool            `json:"import_added,omitempty"`
	Components  []componentJSON `json:"components,omitempty"`
}

type transformJSON struct {
	Root               string     `json:"root"`
	FilesScanned       int        `json:"files_scanned"`
	FilesChanged       int        `json:"files_changed"`
	FilesFailed        int        `json:"files_failed"`
	FilesSkipped       int        `json:"files_skipped"`
	ComponentsUpdated  int        `json:"components_updated"`
	ComponentsUpToDate int        `json:"components_up_to_date"`
	ComponentsSkipped  int        `json:"components_skipped"`
	Files              []fileJSON `json:"files"`
}

type previewJSON struct {
	fileJSON
	Content string `json:"content"`
}

type inferJSON struct {
	Prop        string `json:"prop"`
	Component   string `json:"component,omitempty"`
	Validator   string `json:"validator"`
	Kind        string `json:"kind"`
	Required    bool   `json:"required"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

type noteJSON struct {
	Line int    `json:"line"`
	Text string `json:"text"`
}

type lintFileJSON struct {
	Path       string     `json:"path"`
	Outcome    string     `json:"outcome"`
	Error      string     `json:"error,omitempty"`
	Fixed      []noteJSON `json:"fixed,omitempty"`
	Unresolved []noteJSON `json:"unresolved,omitempty"`
}

type lintJSON struct {
	Root        string         `json:"root"`
	Rule        string         `json:"rule"`
	Fixed       int            `json:"fixed"`
	Unresolved  int            `json:"unresolved"`
	Unchanged   int            `json:"unchanged"`
	Unavailable int            `json:"linter_unavailable"`
	Failed      int            `json:"failed"`
	Files       []lintFileJSON `json:"files"`
}

// --- handlers ---

func (s *Server) handleTransformPath(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	summary, err := s.transformer.Run(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := transformJSON{
		Root:               summary.Root,
		FilesScanned:       summary.FilesScanned,
		FilesChanged:       summary.FilesChanged,
		FilesFailed:        summary.FilesFailed,
		FilesSkipped:       summary.FilesSkipped,
		ComponentsUpdated:  summary.ComponentsUpdated,
		ComponentsUpToDate: summary.ComponentsUpToDate,
		ComponentsSkipped:  summary.ComponentsSkipped,
		Files:              make([]fileJSON, 0, len(summary.Files)),
	}
	for _, fr := range summary.Files {
		out.Files = append(out.Files, toFileJSON(fr))
	}
	return jsonResult(out)
}

func (s *Server) handlePreviewPropTypes(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	var src []byte
	if code := req.GetString("code", ""); code != "" {
		src = []byte(code)
	}

	content, fr := s.transformer.Preview(path, src)
	if fr.Outcome == transform.OutcomeFailed {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", path, fr.Err)), nil
	}
	return jsonResult(previewJSON{fileJSON: toFileJSON(fr), Content: string(content)})
}

func (s *Server) handleInferPropType(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prop, err := req.RequireString("prop")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	component := req.GetString("component", "")
	ident := req.GetString("ident", synth.DefaultIdent)

	def, ok := locator.ParseLiteralKind(req.GetString("default", ""))
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown default kind %q", req.GetString("default", ""))), nil
	}

	p := locator.Prop{Name: prop, HasDefault: def != locator.LiteralNone, Default: def}
	decl := synth.Synthesize(&locator.Component{Name: component}, []locator.Prop{p}, s.inferencer)
	entry := decl.Entries[0]
	r := s.inferencer.Infer(component, p)

	return jsonResult(inferJSON{
		Prop:        prop,
		Component:   component,
		Validator:   entry.Validator(ident),
		Kind:        kindName(r.Type),
		Required:    entry.Required,
		Description: entry.Description,
		Source:      string(r.Source),
	})
}

func (s *Server) handleFixHooksDeps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.runFixer(ctx, req, s.fixers.Hooks)
}

func (s *Server) handleFixUnusedImports(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.runFixer(ctx, req, s.fixers.Unused)
}

func (s *Server) runFixer(ctx context.Context, req mcp.CallToolRequest, d *lint.Driver) (*mcp.CallToolResult, error) {
	if d == nil {
		return mcp.NewToolResultError("linter is not configured"), nil
	}
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	summary, err := d.Run(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := lintJSON{
		Root:        summary.Root,
		Rule:        summary.Rule,
		Fixed:       summary.Fixed,
		Unresolved:  summary.Unresolved,
		Unchanged:   summary.Unchanged,
		Unavailable: summary.Unavailable,
		Failed:      summary.Failed,
		Files:       make([]lintFileJSON, 0, len(summary.Files)),
	}
	for _, fr := range summary.Files {
		f := lintFileJSON{
			Path:       fr.Path,
			Outcome:    string(fr.Outcome),
			Fixed:      toNotes(fr.Fixed),
			Unresolved: toNotes(fr.Unresolved),
		}
		if fr.Err != nil {
			f.Error = fr.Err.Error()
		}
		out.Files = append(out.Files, f)
	}
	return jsonResult(out)
}

// --- helpers ---

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func toFileJSON(fr transform.FileResult) fileJSON {
	f := fileJSON{
		Path:        fr.Path,
		Outcome:     string(fr.Outcome),
		Reason:      fr.Reason,
		Changed:     fr.Changed,
		ImportAdded: fr.ImportAdded,
	}
	if fr.Err != nil {
		f.Error = fr.Err.Error()
	}
	for _, c := range fr.Components {
		cj := componentJSON{
			Name:      c.Name,
			Outcome:   string(c.Outcome),
			Reason:    c.Reason,
			Props:     c.Props,
			Placement: string(c.Placement),
			Preserved: c.Preserved,
		}
		for _, d := range c.Downgraded {
			cj.Downgraded = append(cj.Downgraded, downgradeJSON{Prop: d.Prop, Existing: d.Existing, Replaced: d.Replaced})
		}
		f.Components = append(f.Components, cj)
	}
	return f
}

func toNotes(notes []lint.Note) []noteJSON {
	var out []noteJSON
	for _, n := range notes {
		out = append(out, noteJSON{Line: n.Line, Text: n.Text})
	}
	return out
}

func kindName(t *infer.Type) string {
	if t == nil {
		return infer.KindAny.String()
	}
	return t.Kind.String()
}
