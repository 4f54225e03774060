// Package scanner finds the source files a fixer should visit.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// ScanConfig holds include/exclude globs, matched against slash-separated
// paths relative to the scanned root.
type ScanConfig struct {
	Include []string
	Exclude []string
}

// DefaultScanConfig visits .js and .jsx files outside dependency and build
// directories.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		Include: []string{
			"**/*.js",
			"**/*.jsx",
		},
		Exclude: []string{
			"**/node_modules/**",
			"**/.git/**",
			"**/dist/**",
			"**/build/**",
			"**/coverage/**",
			"**/.next/**",
			"**/*.min.js",
		},
	}
}

// Validate checks every pattern.
func (c ScanConfig) Validate() error {
	for _, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern: %s", pattern)
		}
	}
	for _, pattern := range c.Include {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid include pattern: %s", pattern)
		}
	}
	return nil
}

// Excluded reports whether rel (slash-separated, relative to the root)
// matches an exclude pattern.
func (c ScanConfig) Excluded(rel string) bool {
	for _, pattern := range c.Exclude {
		if m, _ := doublestar.Match(pattern, rel); m {
			return true
		}
	}
	return false
}

// Included reports whether rel matches an include pattern. An empty
// include list accepts everything.
func (c ScanConfig) Included(rel string) bool {
	if len(c.Include) == 0 {
		return true
	}
	for _, pattern := range c.Include {
		if m, _ := doublestar.Match(pattern, rel); m {
			return true
		}
	}
	return false
}

// PathError is a sub-path the walk could not enter or read.
type PathError struct {
	Path string
	Err  error
}

func (e PathError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }

// Discovery is the result of a walk.
type Discovery struct {
	Root   string
	Files  []string
	Errors []PathError
}

// Discover resolves root to absolute form. A regular file is returned as
// the only entry without pattern matching. A directory is walked
// recursively; unreadable sub-paths are collected in Errors and the walk
// continues. Symbolic links to directories are not followed.
// Files come back sorted for deterministic runs.
func Discover(root string, cfg ScanConfig) (*Discovery, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}

	d := &Discovery{Root: absRoot}
	if !info.IsDir() {
		d.Files = []string{absRoot}
		return d, nil
	}

	err = filepath.WalkDir(absRoot, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			d.Errors = append(d.Errors, PathError{Path: path, Err: walkErr})
			if entry != nil && entry.IsDir() && path != absRoot {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if entry.IsDir() {
			if path != absRoot && (cfg.Excluded(rel) || cfg.Excluded(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}
		if cfg.Excluded(rel) {
			return nil
		}

		if entry.Type()&fs.ModeSymlink != 0 {
			target, err := os.Stat(path)
			if err != nil {
				d.Errors = append(d.Errors, PathError{Path: path, Err: err})
				return nil
			}
			if target.IsDir() {
				return nil
			}
		} else if !entry.Type().IsRegular() {
			return nil
		}

		if cfg.Included(rel) {
			d.Files = append(d.Files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(d.Files)
	return d, nil
}
