package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/propfix/pkg/infer"
	"github.com/gnana997/propfix/pkg/locator"
	"github.com/gnana997/propfix/pkg/transform"
)

var configEnv = []string{
	"PROPFIX_CONFIG",
	"PROPFIX_LOG_LEVEL",
	"PROPFIX_LOG_FORMAT",
	"PROPFIX_LINTER",
	"PROPFIX_LINTER_FIX",
	"PROPFIX_LINTER_TIMEOUT",
	"PROPFIX_EXISTING",
	"PROPFIX_MCP_LOG",
}

// isolate runs the test in an empty directory with no PROPFIX_ variables
// set.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range configEnv {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const projectConfig = `include:
  - "src/**/*.jsx"
exclude:
  - "**/legacy/**"
import:
  source: prop-types
  ident: PT
existing: merge
cross_file: false
linter:
  command: eslint {file} -f json
  timeout: 30s
watch:
  debounce: 500ms
usage:
  cache_size: 64
mcp:
  call_log: .propfix/calls.jsonl
overrides:
  props:
    status:
      type: oneOf
      values: [open, closed]
  components:
    Table:
      rows:
        type: arrayOf
        of: {type: object}
        required: true
`

func TestLoadConfig_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := loadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "overwrite", cfg.Existing)
	assert.Equal(t, "npx eslint {file} --format json", cfg.Linter.Command)
	assert.Equal(t, "npx eslint --fix {file}", cfg.Linter.FixCommand)
	assert.Equal(t, 60*time.Second, cfg.Linter.Timeout)
	assert.Equal(t, 200*time.Millisecond, cfg.Watch.Debounce)
	assert.Contains(t, cfg.Exclude, "**/node_modules/**")
	assert.Empty(t, cfg.MCP.CallLog)

	opts, err := cfg.TransformOptions()
	require.NoError(t, err)
	assert.True(t, opts.CrossFile)
	assert.Equal(t, "PropTypes", opts.ImportIdent)
}

func TestLoadConfig_ProjectFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".propfix", "config.yaml"), projectConfig)

	cfg, err := loadConfig("")
	require.NoError(t, err)

	assert.Equal(t, []string{"src/**/*.jsx"}, cfg.Include)
	assert.Equal(t, []string{"**/legacy/**"}, cfg.Exclude)
	assert.Equal(t, "PT", cfg.Import.Ident)
	assert.Equal(t, 30*time.Second, cfg.Linter.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, ".propfix/calls.jsonl", cfg.MCP.CallLog)

	opts, err := cfg.TransformOptions()
	require.NoError(t, err)
	assert.Equal(t, transform.PolicyMerge, opts.Existing)
	assert.False(t, opts.CrossFile)
	assert.Equal(t, 64, opts.IndexSize)

	in, err := cfg.Inferencer()
	require.NoError(t, err)

	status := in.InferName("", "status", locator.LiteralNone)
	assert.Equal(t, infer.KindOneOf, status.Type.Kind)

	rows := in.InferName("Table", "rows", locator.LiteralNone)
	assert.Equal(t, infer.KindArrayOf, rows.Type.Kind)
	assert.Equal(t, infer.SourceComponent, rows.Source)
}

func TestLoadConfig_ExplicitPath(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, "existing: merge\n")

	t.Run("flag", func(t *testing.T) {
		cfg, err := loadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "merge", cfg.Existing)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("PROPFIX_CONFIG", path)
		cfg, err := loadConfig("")
		require.NoError(t, err)
		assert.Equal(t, "merge", cfg.Existing)
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		_, err := loadConfig(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".propfix", "config.yaml"), projectConfig)
	t.Setenv("PROPFIX_EXISTING", "overwrite")
	t.Setenv("PROPFIX_LINTER", "node_modules/.bin/eslint --format json")
	t.Setenv("PROPFIX_LINTER_TIMEOUT", "5s")
	t.Setenv("PROPFIX_LINTER_FIX", "eslint --fix --quiet")

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "overwrite", cfg.Existing)
	assert.Equal(t, "node_modules/.bin/eslint --format json", cfg.Linter.Command)
	assert.Equal(t, 5*time.Second, cfg.Linter.Timeout)
	assert.Equal(t, "eslint --fix --quiet", cfg.Linter.FixCommand)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), "PROPFIX_MCP_LOG=calls.jsonl\nPROPFIX_LOG_FORMAT=json\n")

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "calls.jsonl", cfg.MCP.CallLog)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("bad timeout", func(t *testing.T) {
		isolate(t)
		t.Setenv("PROPFIX_LINTER_TIMEOUT", "soon")
		_, err := loadConfig("")
		assert.ErrorContains(t, err, "PROPFIX_LINTER_TIMEOUT")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		dir := isolate(t)
		writeFile(t, filepath.Join(dir, ".propfix", "config.yaml"), "include: [\n")
		_, err := loadConfig("")
		assert.Error(t, err)
	})

	t.Run("unknown policy", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.Existing = "replace"
		_, err := cfg.TransformOptions()
		assert.Error(t, err)
	})

	t.Run("bad override", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.Overrides = infer.Overrides{Props: map[string]infer.TypeSpec{"size": {Type: "enum"}}}
		_, err := cfg.Inferencer()
		assert.ErrorIs(t, err, infer.ErrInvalidTypeSpec)
	})
}
