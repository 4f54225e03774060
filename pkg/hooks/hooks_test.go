package hooks

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/propfix/pkg/lint"
	"github.com/gnana997/propfix/pkg/scanner"
	"github.com/gnana997/propfix/pkg/source"
	"github.com/gnana997/propfix/pkg/util"
)

const profile = `import React, { useEffect, useState } from 'react';
import { fetchUser } from './api';

export default function Profile({ userId }) {
  const [data, setData] = useState(null);
  const [error, setError] = useState(null);

  if (error) {
    return <p>{error.message}</p>;
  }

  useEffect(() => {
    fetchUser(userId, data).then(setData).catch(setError);
  }, [data]);

  return <pre>{JSON.stringify(data)}</pre>;
}
`

func missing(line int, names ...string) lint.Diagnostic {
	quotedNames := make([]string, len(names))
	for i, n := range names {
		quotedNames[i] = "'" + n + "'"
	}
	msg := fmt.Sprintf("React Hook useEffect has a missing dependency: %s. Either include it or remove the dependency array.", quotedNames[0])
	if len(names) > 1 {
		msg = fmt.Sprintf("React Hook useEffect has missing dependencies: %s. Either include them or remove the dependency array.", strings.Join(quotedNames, " and "))
	}
	return lint.Diagnostic{RuleID: Rule, Line: line, Column: 6, Severity: 1, Message: msg}
}

func TestWarnings(t *testing.T) {
	diags := []lint.Diagnostic{
		missing(12, "userId"),
		missing(20, "a", "b"),
		{RuleID: Rule, Line: 30, Message: "React Hook useEffect has a missing dependency: 'props'. However, 'props' will change when *any* prop changes."},
		{RuleID: Rule, Line: 40, Message: "React Hook useCallback received a function whose dependencies are unknown. Pass an inline function instead."},
		{RuleID: "no-unused-vars", Line: 1, Message: "'x' is defined but never used."},
	}
	assert.Equal(t, []Warning{
		{Line: 12, Missing: []string{"userId"}},
		{Line: 20, Missing: []string{"a", "b"}},
		{Line: 30, Missing: []string{"props"}},
	}, Warnings(diags))
}

func TestWarnings_IgnoresQuotedAdvice(t *testing.T) {
	diags := []lint.Diagnostic{
		{RuleID: Rule, Line: 2, Message: "React Hook useEffect has a missing dependency: 'count'. Either include it or remove the dependency array. " +
			"You can also do a functional update 'setCount(c => ...)' if you only need 'count' in the 'setCount' call."},
		{RuleID: Rule, Line: 9, Message: "React Hook useMemo has missing dependencies: 'user.id', 'items', and 'load()'. Either include them or remove the dependency array."},
	}
	got := Warnings(diags)
	assert.Equal(t, []Warning{
		{Line: 2, Missing: []string{"count"}},
		{Line: 9, Missing: []string{"user.id", "items"}},
	}, got)

	src := []byte("useEffect(() => {\n  setCount(count + 1);\n}, []);\n")
	out, fixed, unresolved := Fix(src, got[:1])
	assert.Equal(t, "useEffect(() => {\n  setCount(count + 1);\n}, [count]);\n", string(out))
	assert.Equal(t, []lint.Note{{Line: 3, Text: "added count"}}, fixed)
	assert.Empty(t, unresolved)
}

func TestLocateArray(t *testing.T) {
	src := []byte("a(() => {\n  b();\n}, [x, y[0]]);\nc\nd\ne\nf\ng\nh\n}, [z]);\n[ unmatched\nfoo]\n")

	tests := []struct {
		name     string
		line     int
		want     string
		wantLine int
		ok       bool
	}{
		{"below the report", 1, "[x, y[0]]", 3, true},
		{"on the reported line", 3, "[x, y[0]]", 3, true},
		{"outside the window", 4, "", 0, false},
		{"last line of the window", 5, "[z]", 10, true},
		{"no matching open bracket", 12, "", 12, false},
		{"past end of file", 40, "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lb, rb, line, ok := LocateArray(src, tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.wantLine, line)
			if tt.ok {
				assert.Equal(t, tt.want, string(src[lb:rb+1]))
			}
		})
	}
}

func TestMergeDeps(t *testing.T) {
	tests := []struct {
		inner   string
		missing []string
		want    string
		added   []string
	}{
		{"data", []string{"userId"}, "data, userId", []string{"userId"}},
		{"", []string{"a", "b"}, "a, b", []string{"a", "b"}},
		{" a ,b,, ", []string{"b", "c"}, "a, b, c", []string{"c"}},
		{"user.id", []string{"user"}, "user.id, user", []string{"user"}},
		{"a", []string{"a"}, "a", nil},
	}
	for _, tt := range tests {
		merged, added := MergeDeps(tt.inner, tt.missing)
		assert.Equal(t, tt.want, merged, tt.inner)
		assert.Equal(t, tt.added, added, tt.inner)
	}
}

func TestFix_AppendsToArrayBelowWarning(t *testing.T) {
	out, fixed, unresolved := Fix([]byte(profile), []Warning{{Line: 12, Missing: []string{"userId"}}})
	require.Empty(t, unresolved)
	require.Len(t, fixed, 1)
	assert.Equal(t, 14, fixed[0].Line)

	before := strings.Split(profile, "\n")
	after := strings.Split(string(out), "\n")
	require.Len(t, after, len(before))
	for i := range before {
		if i == 13 {
			assert.Equal(t, "  }, [data, userId]);", after[i])
			continue
		}
		assert.Equal(t, before[i], after[i], "line %d", i+1)
	}
}

func TestFix_BottomUpAndUnresolved(t *testing.T) {
	src := "useMemo(() => a + b, [a]);\nuseCallback(() => d, []);\nuseEffect(() => {\n  go(c);\n});\n"
	out, fixed, unresolved := Fix([]byte(src), []Warning{
		{Line: 1, Missing: []string{"b"}},
		{Line: 3, Missing: []string{"c"}},
		{Line: 2, Missing: []string{"d"}},
	})
	assert.Equal(t, "useMemo(() => a + b, [a, b]);\nuseCallback(() => d, [d]);\nuseEffect(() => {\n  go(c);\n});\n", string(out))
	assert.Equal(t, []lint.Note{{Line: 2, Text: "added d"}, {Line: 1, Text: "added b"}}, fixed)
	assert.Equal(t, []lint.Note{{Line: 3, Text: "no dependency array found for c"}}, unresolved)

	_, fixed, unresolved = Fix([]byte("x\ny\n"), []Warning{{Line: 1, Missing: []string{"z"}}})
	assert.Empty(t, fixed)
	require.Len(t, unresolved, 1)
	assert.Equal(t, 1, unresolved[0].Line)
}

type fakeLinter struct {
	diags map[string][]lint.Diagnostic
	err   error
	calls int
}

func (f *fakeLinter) Lint(_ context.Context, path string) ([]lint.Diagnostic, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.diags[filepath.Base(path)], nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFixer_Run(t *testing.T) {
	dir := t.TempDir()
	fixedPath := writeFile(t, dir, "Profile.jsx", profile)
	cleanPath := writeFile(t, dir, "Clean.jsx", "export const A = () => null;\n")
	writeFile(t, dir, "node_modules/x/index.js", "useEffect(() => {}, []);\n")

	linter := &fakeLinter{diags: map[string][]lint.Diagnostic{
		"Profile.jsx": {missing(12, "userId"), {RuleID: "no-unused-vars", Line: 1, Message: "'React' is defined but never used."}},
	}}
	fixer := NewFixer(linter, source.NewLoader(util.Discard()), scanner.DefaultScanConfig(), util.Discard())

	summary, err := fixer.Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, linter.calls)
	assert.Equal(t, 1, summary.Fixed)
	assert.Equal(t, 1, summary.Unchanged)

	data, err := os.ReadFile(fixedPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "  }, [data, userId]);\n")

	data, err = os.ReadFile(cleanPath)
	require.NoError(t, err)
	assert.Equal(t, "export const A = () => null;\n", string(data))

	var buf bytes.Buffer
	summary.Write(&buf)
	assert.Contains(t, buf.String(), "Profile.jsx: fixed\n  line 14: added userId\n")
	assert.Contains(t, buf.String(), "2 files, 1 fixed, 0 unresolved, 1 unchanged, 0 linter unavailable, 0 failed")

	// Second pass: the linter no longer reports anything.
	linter.diags = nil
	summary, err = fixer.Run(context.Background(), fixedPath)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Unchanged)
}

func TestFixer_LinterUnavailable(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Profile.jsx", profile)

	linter := &fakeLinter{err: fmt.Errorf("%w: npx not found", lint.ErrUnavailable)}
	fixer := NewFixer(linter, source.NewLoader(util.Discard()), scanner.DefaultScanConfig(), util.Discard())

	summary, err := fixer.Run(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Unavailable)
	assert.Equal(t, lint.OutcomeUnavailable, summary.Files[0].Outcome)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, profile, string(data))

	var buf bytes.Buffer
	summary.Write(&buf)
	assert.Contains(t, buf.String(), "Profile.jsx: linter unavailable\n")
}

func TestFixer_MissingPath(t *testing.T) {
	fixer := NewFixer(&fakeLinter{}, source.NewLoader(util.Discard()), scanner.DefaultScanConfig(), util.Discard())
	_, err := fixer.Run(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFixer_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "A.jsx", "export {};\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	linter := &fakeLinter{}
	fixer := NewFixer(linter, source.NewLoader(util.Discard()), scanner.DefaultScanConfig(), util.Discard())
	_, err := fixer.Run(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, linter.calls)
}
