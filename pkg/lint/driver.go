package lint

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gnana997/propfix/pkg/scanner"
	"github.com/gnana997/propfix/pkg/source"
)

// Outcome is the result of a lint-driven fix on one file.
type Outcome string

const (
	OutcomeFixed       Outcome = "fixed"
	OutcomeUnresolved  Outcome = "unresolved"
	OutcomeUnchanged   Outcome = "unchanged"
	OutcomeUnavailable Outcome = "linter unavailable"
	OutcomeFailed      Outcome = "failed"
)

// Note is one line of a file report.
type Note struct {
	Line int
	Text string
}

// FixFunc rewrites src, the content of path, from the diagnostics the
// linter reported for it. It returns the new bytes, what it changed and what
// it left for review.
type FixFunc func(path string, src []byte, diags []Diagnostic) (out []byte, fixed, unresolved []Note)

// FileReport describes one file.
type FileReport struct {
	Path        string
	Outcome     Outcome
	Err         error
	Diagnostics int
	Fixed       []Note
	Unresolved  []Note
}

// AutoFixRule labels the summary of a linter's own fix pass.
const AutoFixRule = "eslint --fix"

// Driver lints every discovered file, keeps the diagnostics of one rule and
// hands them to a FixFunc. A driver with an AutoFixer instead lets the linter
// rewrite each file itself.
type Driver struct {
	Rule      string
	Linter    Linter
	AutoFixer AutoFixer
	Loader    *source.Loader
	Scan      scanner.ScanConfig
	Fix       FixFunc

	logger *slog.Logger
}

// NewDriver creates a driver for rule. A nil logger uses slog.Default().
func NewDriver(rule string, linter Linter, loader *source.Loader, scan scanner.ScanConfig, fix FixFunc, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		Rule:   rule,
		Linter: linter,
		Loader: loader,
		Scan:   scan,
		Fix:    fix,
		logger: logger.With("rule", rule),
	}
}

// NewAutoFixDriver creates a driver that runs fixer over every file.
func NewAutoFixDriver(fixer AutoFixer, loader *source.Loader, scan scanner.ScanConfig, logger *slog.Logger) *Driver {
	d := NewDriver(AutoFixRule, nil, loader, scan, nil, logger)
	d.AutoFixer = fixer
	return d
}

// Run processes path, a file or a directory, sequentially. Only a missing
// path or cancellation is an error.
func (d *Driver) Run(ctx context.Context, path string) (*Summary, error) {
	root, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	discovery, err := scanner.Discover(root, d.Scan)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Root: root, Rule: d.Rule}
	for _, pe := range discovery.Errors {
		summary.add(FileReport{Path: pe.Path, Outcome: OutcomeFailed, Err: pe.Err})
	}
	for _, file := range discovery.Files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.add(d.File(ctx, file))
	}

	d.logger.Info("lint fix finished",
		"root", root,
		"files", len(summary.Files),
		"fixed", summary.Fixed,
		"unavailable", summary.Unavailable)
	return summary, nil
}

// File lints and fixes one file.
func (d *Driver) File(ctx context.Context, path string) FileReport {
	if d.AutoFixer != nil {
		return d.autoFix(ctx, path)
	}

	fr := FileReport{Path: path}
	log := d.logger.With("file", path)

	diags, err := d.Linter.Lint(ctx, path)
	if err != nil {
		// A broken linter reads as no warnings; the report keeps it visible.
		log.Warn("linter failed, treating file as clean", "error", err)
		fr.Outcome = OutcomeUnavailable
		if !errors.Is(err, ErrUnavailable) {
			fr.Err = err
		}
		return fr
	}

	diags = ByRule(diags, d.Rule)
	fr.Diagnostics = len(diags)
	if len(diags) == 0 {
		fr.Outcome = OutcomeUnchanged
		return fr
	}

	file, err := d.Loader.Read(path)
	if err != nil {
		log.Error("failed to read file", "error", err)
		fr.Outcome, fr.Err = OutcomeFailed, err
		return fr
	}

	out, fixed, unresolved := d.Fix(path, file.Data, diags)
	fr.Fixed, fr.Unresolved = fixed, unresolved
	for _, n := range unresolved {
		log.Warn("diagnostic left unresolved", "line", n.Line, "detail", n.Text)
	}

	if string(out) != string(file.Data) {
		if err := d.Loader.Write(file, out); err != nil {
			log.Error("failed to write file", "error", err)
			fr.Outcome, fr.Err = OutcomeFailed, err
			return fr
		}
	}

	switch {
	case len(unresolved) > 0:
		fr.Outcome = OutcomeUnresolved
	case len(fixed) > 0:
		fr.Outcome = OutcomeFixed
	default:
		fr.Outcome = OutcomeUnchanged
	}
	return fr
}

// autoFix runs the linter's fixer on path and compares the file before and
// after.
func (d *Driver) autoFix(ctx context.Context, path string) FileReport {
	fr := FileReport{Path: path}
	log := d.logger.With("file", path)

	before, err := d.Loader.Read(path)
	if err != nil {
		log.Error("failed to read file", "error", err)
		fr.Outcome, fr.Err = OutcomeFailed, err
		return fr
	}

	if err := d.AutoFixer.AutoFix(ctx, path); err != nil {
		log.Warn("linter fix failed, leaving file as is", "error", err)
		fr.Outcome = OutcomeUnavailable
		if !errors.Is(err, ErrUnavailable) {
			fr.Err = err
		}
		return fr
	}

	after, err := d.Loader.Read(path)
	if err != nil {
		log.Error("failed to read file", "error", err)
		fr.Outcome, fr.Err = OutcomeFailed, err
		return fr
	}

	if bytes.Equal(before.Data, after.Data) {
		fr.Outcome = OutcomeUnchanged
		return fr
	}
	fr.Outcome = OutcomeFixed
	fr.Fixed = []Note{{Line: 1, Text: "applied linter fixes"}}
	return fr
}

// Summary aggregates a driver run.
type Summary struct {
	Root string
	Rule string

	Fixed       int
	Unresolved  int
	Unchanged   int
	Unavailable int
	Failed      int

	Files []FileReport
}

func (s *Summary) add(fr FileReport) {
	s.Files = append(s.Files, fr)
	switch fr.Outcome {
	case OutcomeFixed:
		s.Fixed++
	case OutcomeUnresolved:
		s.Unresolved++
	case OutcomeUnavailable:
		s.Unavailable++
	case OutcomeFailed:
		s.Failed++
	default:
		s.Unchanged++
	}
}

// Write prints the files that need attention followed by the totals.
func (s *Summary) Write(w io.Writer) {
	for _, fr := range s.Files {
		switch fr.Outcome {
		case OutcomeUnchanged:
			continue
		case OutcomeFailed:
			fmt.Fprintf(w, "%s: failed: %v\n", fr.Path, fr.Err)
			continue
		}
		fmt.Fprintf(w, "%s: %s\n", fr.Path, fr.Outcome)
		for _, n := range fr.Fixed {
			fmt.Fprintf(w, "  line %d: %s\n", n.Line, n.Text)
		}
		for _, n := range fr.Unresolved {
			fmt.Fprintf(w, "  line %d: unresolved: %s\n", n.Line, n.Text)
		}
	}
	fmt.Fprintf(w, "\n%s: %d files, %d fixed, %d unresolved, %d unchanged, %d linter unavailable, %d failed\n",
		s.Rule, len(s.Files), s.Fixed, s.Unresolved, s.Unchanged, s.Unavailable, s.Failed)
}
