package usage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gnana997/propfix/pkg/locator"
	"github.com/gnana997/propfix/pkg/parser"
	"github.com/gnana997/propfix/pkg/source"
	"github.com/gnana997/propfix/pkg/util"
)

// DefaultIndexSize bounds the number of cached per-file usages.
const DefaultIndexSize = 512

// resolveExtensions are tried, in order, when an import specifier omits
// the file extension.
var resolveExtensions = []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs"}

type indexEntry struct {
	size    int64
	modTime time.Time
	usage   *FileUsage
}

// IndexStats reports cache behavior.
type IndexStats struct {
	Files     int
	Cached    int
	Hits      int64
	Misses    int64
	Evictions int64
}

// Index maps every file of the tree being processed to its JSX sites and
// imports so that a component's consumers in other files can be found.
//
// Entries are parsed lazily and revalidated by size and modification time,
// so a file rewritten by the transformer is re-read on next access.
//
// Thread-safe.
type Index struct {
	pm     *parser.ParserManager
	loader *source.Loader
	logger *slog.Logger

	cache *lru.Cache[string, *indexEntry]

	mu    sync.RWMutex
	files []string

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewIndex creates an index. size <= 0 selects DefaultIndexSize.
func NewIndex(pm *parser.ParserManager, loader *source.Loader, size int, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = util.Discard()
	}
	if size <= 0 {
		size = DefaultIndexSize
	}

	ix := &Index{pm: pm, loader: loader, logger: logger}
	cache, err := lru.NewWithEvict(size, func(key string, _ *indexEntry) {
		ix.evictions.Add(1)
		logger.Debug("usage index evicting file", "path", key)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create usage cache: %w", err)
	}
	ix.cache = cache
	return ix, nil
}

// SetFiles replaces the set of files searched for consumers.
func (ix *Index) SetFiles(files []string) {
	cleaned := make([]string, len(files))
	for i, f := range files {
		cleaned[i] = filepath.Clean(f)
	}
	sort.Strings(cleaned)

	ix.mu.Lock()
	ix.files = cleaned
	ix.mu.Unlock()
}

// Files returns the tracked files in sorted order.
func (ix *Index) Files() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return append([]string(nil), ix.files...)
}

// Invalidate drops the cached usage of path; the next lookup re-parses it.
func (ix *Index) Invalidate(path string) {
	ix.cache.Remove(filepath.Clean(path))
}

// Remove forgets path entirely.
func (ix *Index) Remove(path string) {
	path = filepath.Clean(path)
	ix.cache.Remove(path)

	ix.mu.Lock()
	defer ix.mu.Unlock()
	i := sort.SearchStrings(ix.files, path)
	if i < len(ix.files) && ix.files[i] == path {
		ix.files = append(ix.files[:i], ix.files[i+1:]...)
	}
}

// Add tracks path, keeping the file list sorted.
func (ix *Index) Add(path string) {
	path = filepath.Clean(path)

	ix.mu.Lock()
	defer ix.mu.Unlock()
	i := sort.SearchStrings(ix.files, path)
	if i < len(ix.files) && ix.files[i] == path {
		return
	}
	ix.files = append(ix.files, "")
	copy(ix.files[i+1:], ix.files[i:])
	ix.files[i] = path
}

// Usage returns the JSX sites and imports of path.
func (ix *Index) Usage(path string) (*FileUsage, error) {
	path = filepath.Clean(path)
	info, err := os.Stat(path)
	if err != nil {
		ix.cache.Remove(path)
		return nil, err
	}

	if e, ok := ix.cache.Get(path); ok && e.size == info.Size() && e.modTime.Equal(info.ModTime()) {
		ix.hits.Add(1)
		return e.usage, nil
	}
	ix.misses.Add(1)

	file, err := ix.loader.Read(path)
	if err != nil {
		return nil, err
	}
	tree, err := ix.pm.ParseFile(file.Data, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer tree.Close()

	fu := Extract(tree, file.Data)
	ix.cache.Add(path, &indexEntry{size: info.Size(), modTime: info.ModTime(), usage: fu})
	return fu, nil
}

// Consumers returns the attributes passed to comp, declared in path, at
// JSX sites in other tracked files that import it through a relative
// specifier. Files that cannot be read or parsed are skipped.
func (ix *Index) Consumers(path string, comp *locator.Component) []Site {
	path = filepath.Clean(path)

	var sites []Site
	for _, other := range ix.Files() {
		if other == path {
			continue
		}
		fu, err := ix.Usage(other)
		if err != nil {
			ix.logger.Debug("skipping consumer candidate", "path", other, "error", err)
			continue
		}
		for _, local := range importedLocals(fu, other, path, comp) {
			sites = append(sites, Attributes(fu, local, other)...)
		}
	}
	return sites
}

// Stats returns current cache metrics.
func (ix *Index) Stats() IndexStats {
	ix.mu.RLock()
	files := len(ix.files)
	ix.mu.RUnlock()
	return IndexStats{
		Files:     files,
		Cached:    ix.cache.Len(),
		Hits:      ix.hits.Load(),
		Misses:    ix.misses.Load(),
		Evictions: ix.evictions.Load(),
	}
}

// importedLocals returns the local names under which file imports comp
// from target.
func importedLocals(fu *FileUsage, file, target string, comp *locator.Component) []string {
	var locals []string
	for _, imp := range fu.Imports {
		if !Resolves(file, imp.Source, target) {
			continue
		}
		for _, b := range imp.Bindings {
			switch {
			case b.Imported == "default" && comp.DefaultExport:
				locals = append(locals, b.Local)
			case b.Imported == comp.Name:
				locals = append(locals, b.Local)
			}
		}
	}
	return locals
}

// Resolves reports whether the relative specifier spec, written in file
// from, refers to target.
func Resolves(from, spec, target string) bool {
	if !strings.HasPrefix(spec, "./") && !strings.HasPrefix(spec, "../") {
		return false
	}
	base := filepath.Join(filepath.Dir(from), filepath.FromSlash(spec))
	target = filepath.Clean(target)
	if base == target {
		return true
	}
	for _, ext := range resolveExtensions {
		if base+ext == target || filepath.Join(base, "index"+ext) == target {
			return true
		}
	}
	return false
}
