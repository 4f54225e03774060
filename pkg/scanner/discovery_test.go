package scanner

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover_JSAndJSXOnly(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, tmp, "src/Button.jsx", "export default Button;")
	writeFile(t, tmp, "src/util.js", "export const a = 1;")
	writeFile(t, tmp, "src/types.ts", "export type A = string;")
	writeFile(t, tmp, "README.md", "# readme")

	d, err := Discover(tmp, DefaultScanConfig())
	require.NoError(t, err)

	names := fileNames(d.Files)
	assert.ElementsMatch(t, []string{"Button.jsx", "util.js"}, names)
	for _, f := range d.Files {
		assert.True(t, filepath.IsAbs(f), "expected absolute path, got %s", f)
	}
}

func TestDiscover_ExcludesDependencyDirs(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, tmp, "App.js", "x")
	writeFile(t, tmp, "node_modules/react/index.js", "x")
	writeFile(t, tmp, "packages/ui/node_modules/lib/index.js", "x")
	writeFile(t, tmp, "build/static/main.js", "x")
	writeFile(t, tmp, "vendor.min.js", "x")

	d, err := Discover(tmp, DefaultScanConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"App.js"}, fileNames(d.Files))
}

func TestDiscover_SortedOutput(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, tmp, "z/Z.js", "x")
	writeFile(t, tmp, "a/A.js", "x")
	writeFile(t, tmp, "m.js", "x")

	d, err := Discover(tmp, DefaultScanConfig())
	require.NoError(t, err)
	require.Len(t, d.Files, 3)
	for i := 1; i < len(d.Files); i++ {
		assert.LessOrEqual(t, d.Files[i-1], d.Files[i])
	}
}

func TestDiscover_SingleFileIgnoresPatterns(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, tmp, "Widget.tsx", "x")

	d, err := Discover(filepath.Join(tmp, "Widget.tsx"), DefaultScanConfig())
	require.NoError(t, err)
	require.Len(t, d.Files, 1)
	assert.Equal(t, "Widget.tsx", filepath.Base(d.Files[0]))
}

func TestDiscover_MissingRoot(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "missing"), DefaultScanConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDiscover_InvalidGlob(t *testing.T) {
	cfg := DefaultScanConfig()
	cfg.Exclude = append(cfg.Exclude, "[invalid")
	_, err := Discover(t.TempDir(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid exclude pattern")
}

func TestDiscover_SymlinkCycleDoesNotLoop(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	tmp := t.TempDir()
	writeFile(t, tmp, "src/App.js", "x")
	require.NoError(t, os.Symlink(tmp, filepath.Join(tmp, "src", "loop")))

	d, err := Discover(tmp, DefaultScanConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"App.js"}, fileNames(d.Files))
}

func TestDiscover_UnreadableDirReportedPerPath(t *testing.T) {
	if runtime.GOOS == "windows" || os.Getuid() == 0 {
		t.Skip("permission bits are not enforced for this user")
	}
	tmp := t.TempDir()
	writeFile(t, tmp, "ok/A.js", "x")
	writeFile(t, tmp, "locked/B.js", "x")
	locked := filepath.Join(tmp, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	d, err := Discover(tmp, DefaultScanConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"A.js"}, fileNames(d.Files))
	require.Len(t, d.Errors, 1)
	assert.Equal(t, locked, d.Errors[0].Path)
}

// --- helpers ---

func fileNames(paths []string) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return names
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
