// Package lint runs an external linter on a single file and returns its
// diagnostics.
package lint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrUnavailable is returned when the linter cannot be run or its output
// cannot be read.
var ErrUnavailable = errors.New("linter unavailable")

// Replaceable for testing.
var lookPathFunc = exec.LookPath

// FilePlaceholder is replaced by the linted path in a command line. When no
// argument holds it, the path is appended.
const FilePlaceholder = "{file}"

// DefaultCommand is the linter invocation used when none is configured.
var DefaultCommand = []string{"npx", "eslint", FilePlaceholder, "--format", "json"}

// DefaultFixCommand applies the linter's own fixes in place.
var DefaultFixCommand = []string{"npx", "eslint", "--fix", FilePlaceholder}

// Diagnostic is one linter message.
type Diagnostic struct {
	File     string `json:"file"`
	RuleID   string `json:"ruleId"`
	Severity int    `json:"severity"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Message  string `json:"message"`
}

// Linter reports diagnostics for one file.
type Linter interface {
	Lint(ctx context.Context, path string) ([]Diagnostic, error)
}

// AutoFixer applies the linter's built-in fixes to a file in place.
type AutoFixer interface {
	AutoFix(ctx context.Context, path string) error
}

// ByRule returns the diagnostics reported under rule, in input order.
func ByRule(diags []Diagnostic, rule string) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if d.RuleID == rule {
			out = append(out, d)
		}
	}
	return out
}

// ESLint runs eslint with the JSON formatter.
type ESLint struct {
	// Command is the argv to execute. Empty means DefaultCommand.
	Command []string
	// FixCommand is the argv of AutoFix. Empty means DefaultFixCommand.
	FixCommand []string
	// Timeout bounds one run. Zero means no timeout.
	Timeout time.Duration
	// Dir is the working directory. Empty means the directory of the file.
	Dir string

	logger *slog.Logger
}

// NewESLint creates an adapter. A nil logger uses slog.Default().
func NewESLint(command []string, timeout time.Duration, logger *slog.Logger) *ESLint {
	if logger == nil {
		logger = slog.Default()
	}
	return &ESLint{Command: command, Timeout: timeout, logger: logger}
}

// ParseCommand splits a configured command line on whitespace.
func ParseCommand(s string) []string {
	return strings.Fields(s)
}

// Lint runs the linter on path. ESLint exits with 1 when it found problems;
// that is honored as long as stdout holds a report.
func (e *ESLint) Lint(ctx context.Context, path string) ([]Diagnostic, error) {
	start := time.Now()
	stdout, err := e.run(ctx, argv(e.Command, DefaultCommand, path), path)
	if err != nil {
		return nil, err
	}

	diags, err := ParseReport(stdout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	e.log().Debug("linted file",
		"file", path,
		"diagnostics", len(diags),
		"ms", time.Since(start).Milliseconds())
	return diags, nil
}

// AutoFix runs the fix command on path. Exit code 1 only means problems
// remain that the linter could not fix.
func (e *ESLint) AutoFix(ctx context.Context, path string) error {
	start := time.Now()
	if _, err := e.run(ctx, argv(e.FixCommand, DefaultFixCommand, path), path); err != nil {
		return err
	}
	e.log().Debug("applied linter fixes", "file", path, "ms", time.Since(start).Milliseconds())
	return nil
}

// run executes args for path and returns its stdout. Exit codes other than
// 0 and 1, a missing executable and a timeout are ErrUnavailable.
func (e *ESLint) run(ctx context.Context, args []string, path string) ([]byte, error) {
	bin, err := lookPathFunc(args[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s not found: %w", ErrUnavailable, args[0], err)
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, bin, args[1:]...)
	cmd.Dir = e.Dir
	if cmd.Dir == "" {
		cmd.Dir = filepath.Dir(path)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if runErr := cmd.Run(); runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) || exitErr.ExitCode() != 1 || ctx.Err() != nil {
			if s := strings.TrimSpace(stderr.String()); s != "" {
				e.log().Warn("linter stderr", "file", path, "output", s)
			}
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, runErr)
		}
	}
	return stdout.Bytes(), nil
}

// argv substitutes path into cmd, or into def when cmd is empty.
func argv(cmd, def []string, path string) []string {
	if len(cmd) == 0 {
		cmd = def
	}
	out := make([]string, 0, len(cmd)+1)
	placed := false
	for _, arg := range cmd {
		if strings.Contains(arg, FilePlaceholder) {
			arg = strings.ReplaceAll(arg, FilePlaceholder, path)
			placed = true
		}
		out = append(out, arg)
	}
	if !placed {
		out = append(out, path)
	}
	return out
}

func (e *ESLint) log() *slog.Logger {
	if e.logger == nil {
		return slog.Default()
	}
	return e.logger
}

type eslintFile struct {
	FilePath string          `json:"filePath"`
	Messages []eslintMessage `json:"messages"`
}

type eslintMessage struct {
	RuleID   *string `json:"ruleId"`
	Severity int     `json:"severity"`
	Message  string  `json:"message"`
	Line     int     `json:"line"`
	Column   int     `json:"column"`
}

// ParseReport decodes the eslint JSON formatter output. Messages without a
// rule (fatal parse errors) keep an empty RuleID.
func ParseReport(data []byte) ([]Diagnostic, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty linter output")
	}

	var files []eslintFile
	if err := json.Unmarshal(data, &files); err != nil {
		return nil, fmt.Errorf("failed to parse linter output: %w", err)
	}

	var diags []Diagnostic
	for _, f := range files {
		for _, m := range f.Messages {
			d := Diagnostic{
				File:     f.FilePath,
				Severity: m.Severity,
				Line:     m.Line,
				Column:   m.Column,
				Message:  m.Message,
			}
			if m.RuleID != nil {
				d.RuleID = *m.RuleID
			}
			diags = append(diags, d)
		}
	}
	return diags, nil
}
