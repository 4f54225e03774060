package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/propfix/pkg/lint"
)

type fakeLinter struct {
	diags []lint.Diagnostic
	err   error
	calls int
	order []string
}

func (f *fakeLinter) Lint(_ context.Context, path string) ([]lint.Diagnostic, error) {
	f.calls++
	f.order = append(f.order, "lint")
	if f.err != nil {
		return nil, f.err
	}
	out := make([]lint.Diagnostic, len(f.diags))
	for i, d := range f.diags {
		d.File = path
		out[i] = d
	}
	return out, nil
}

// AutoFix turns var declarations into const, the way eslint --fix applies
// prefer-const.
func (f *fakeLinter) AutoFix(_ context.Context, path string) error {
	f.order = append(f.order, "autofix")
	if f.err != nil {
		return f.err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, bytes.ReplaceAll(data, []byte("var "), []byte("const ")), 0o644)
}

// useLinter swaps the ESLint subprocess for fake.
func useLinter(t *testing.T, fake lint.Linter) {
	t.Helper()
	orig := newLinter
	newLinter = func(*Config, *slog.Logger) lint.Linter { return fake }
	t.Cleanup(func() { newLinter = orig })
}

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    globalOptions
		rest    []string
		wantErr bool
	}{
		{
			name: "positional only",
			args: []string{"src"},
			rest: []string{"src"},
		},
		{
			name: "separate values",
			args: []string{"--log-level", "debug", "src", "--config", "c.yaml"},
			want: globalOptions{logLevel: "debug", configPath: "c.yaml"},
			rest: []string{"src"},
		},
		{
			name: "inline values",
			args: []string{"--log-format=json", "--existing=merge", "src"},
			want: globalOptions{logFormat: "json", existing: "merge"},
			rest: []string{"src"},
		},
		{name: "unknown flag", args: []string{"--dry-run", "src"}, wantErr: true},
		{name: "missing value", args: []string{"src", "--config"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rest, err := parseArgs(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.rest, rest)
		})
	}
}

func TestRun_Meta(t *testing.T) {
	code, out, _ := runCLI(t, "version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "propfix 0.1.0-dev\n", out)

	code, out, _ = runCLI(t, "help")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "fixHooksDeps <path>")

	code, _, errOut := runCLI(t)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Usage: propfix")

	code, _, errOut = runCLI(t, "lint", "src")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unknown command: lint")
}

func TestRun_PathErrors(t *testing.T) {
	dir := isolate(t)

	code, _, errOut := runCLI(t, "transform")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "missing path argument")

	code, _, errOut = runCLI(t, "fixHooksDeps", filepath.Join(dir, "missing"))
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "no such file or directory")

	code, _, errOut = runCLI(t, "transform", "a", "b")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "expected one path")
}

func TestRun_Transform(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "src", "Button.jsx")
	writeFile(t, path, `export default function Button({ label, onClick, disabled = false }) {
  return <button disabled={disabled} onClick={onClick}>{label}</button>;
}
`)

	code, out, errOut := runCLI(t, "transform", "--log-level", "warn", filepath.Join(dir, "src"))
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "1 files scanned, 1 changed")

	got := readFile(t, path)
	assert.Contains(t, got, "import PropTypes from 'prop-types';")
	assert.Contains(t, got, "Button.propTypes = {")
	assert.Contains(t, got, "disabled: PropTypes.bool,")

	// A second run finds nothing to do.
	code, out, _ = runCLI(t, "transform", filepath.Join(dir, "src"))
	require.Equal(t, 0, code)
	assert.Contains(t, out, "1 files scanned, 0 changed")
	assert.Equal(t, got, readFile(t, path))
}

func TestRun_FixHooksDeps(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "Feed.jsx")
	writeFile(t, path, `export function Feed({ page }) {
  useEffect(() => {
    load(page);
  }, []);
  return null;
}
`)
	useLinter(t, &fakeLinter{diags: []lint.Diagnostic{{
		RuleID:   "react-hooks/exhaustive-deps",
		Severity: 1,
		Line:     2,
		Column:   3,
		Message:  "React Hook useEffect has a missing dependency: 'page'. Either include it or remove the dependency array.",
	}}})

	code, out, errOut := runCLI(t, "fix-hooks-deps", path)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "added page")
	assert.Contains(t, readFile(t, path), "  }, [page]);\n")
}

func TestRun_FixAll(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "Profile.jsx")
	writeFile(t, path, `import React, { useEffect } from 'react';
import { format } from './format';

var fallback = 'anonymous';

export default function Profile({ userId }) {
  useEffect(() => {
    load(userId);
  }, []);
  return <div>{userId}</div>;
}
`)
	fake := &fakeLinter{diags: []lint.Diagnostic{
		{
			RuleID:   "react-hooks/exhaustive-deps",
			Severity: 1,
			Line:     7,
			Message:  "React Hook useEffect has a missing dependency: 'userId'. Either include it or remove the dependency array.",
		},
		{
			RuleID:   "no-unused-vars",
			Severity: 1,
			Line:     2,
			Message:  "'format' is defined but never used.",
		},
	}}
	useLinter(t, fake)

	code, out, errOut := runCLI(t, "fixAll", path)
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, 2, fake.calls)
	assert.Equal(t, []string{"autofix", "lint", "lint"}, fake.order)
	assert.Contains(t, out, "eslint --fix: 1 files, 1 fixed")

	got := readFile(t, path)
	assert.Contains(t, got, "const fallback = 'anonymous';\n")
	assert.Contains(t, got, "  }, [userId]);\n")
	assert.NotContains(t, got, "./format")
	assert.Contains(t, got, "import PropTypes from 'prop-types';")
	assert.Contains(t, got, "Profile.propTypes = {")
}

func TestRun_LinterUnavailable(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "Feed.jsx")
	src := "export const Feed = () => null;\n"
	writeFile(t, path, src)
	useLinter(t, &fakeLinter{err: lint.ErrUnavailable})

	code, out, _ := runCLI(t, "fixUnusedImports", path)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "linter unavailable")
	assert.Equal(t, src, readFile(t, path))
}

func TestRun_BadConfig(t *testing.T) {
	isolate(t)

	code, _, errOut := runCLI(t, "transform", "--existing", "replace", ".")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unknown existing-declaration policy")

	code, _, _ = runCLI(t, "transform", "--config", "missing.yaml", ".")
	assert.Equal(t, 1, code)
}
