package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/propfix/pkg/parser"
)

func writeFile(t *testing.T, dir, name, content string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), mode))
	return path
}

func TestRead_ReturnsContentsAndDialect(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "src/Button.jsx", "export default Button;\n", 0o644)

	l := NewLoader(nil)
	f, err := l.Read(path)
	require.NoError(t, err)

	assert.Equal(t, "export default Button;\n", string(f.Data))
	assert.Equal(t, parser.DialectJSX, f.Dialect)
	assert.Equal(t, os.FileMode(0o644), f.Mode)
	assert.True(t, filepath.IsAbs(f.Path))

	stats := l.Stats()
	assert.Equal(t, int64(1), stats.Reads)
	assert.Equal(t, int64(len(f.Data)), stats.BytesRead)
}

func TestRead_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Empty.js", "", 0o644)

	f, err := NewLoader(nil).Read(path)
	require.NoError(t, err)
	assert.Empty(t, f.Data)
}

func TestRead_Missing(t *testing.T) {
	_, err := NewLoader(nil).Read(filepath.Join(t.TempDir(), "nope.js"))
	require.Error(t, err)
	assert.True(t, IsNotExist(err))
}

func TestRead_Directory(t *testing.T) {
	_, err := NewLoader(nil).Read(t.TempDir())
	assert.Error(t, err)
}

func TestWrite_PreservesModeAndUpdatesData(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "run.js", "old\n", 0o600)

	l := NewLoader(nil)
	f, err := l.Read(path)
	require.NoError(t, err)

	require.NoError(t, l.Write(f, []byte("new\n")))
	assert.Equal(t, "new\n", string(f.Data))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(got))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	assert.Equal(t, int64(1), l.Stats().Writes)
}

func TestReadAfterWrite_SeesNewContents(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "A.js", "first version\n", 0o644)

	l := NewLoader(nil)
	f, err := l.Read(path)
	require.NoError(t, err)
	require.NoError(t, l.Write(f, []byte("second\n")))

	again, err := l.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(again.Data))
}
