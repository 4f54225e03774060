// Package source reads and writes whole source files for the rewriters.
//
// Reads go through a read-only memory map that is copied and unmapped
// immediately, so no mapping is alive when the same file is rewritten.
// When mapping fails (empty files, special filesystems) the loader falls
// back to os.ReadFile.
package source

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/edsrzf/mmap-go"

	"github.com/gnana997/propfix/pkg/parser"
)

// ErrNotExist is returned (wrapped) when the requested path does not exist.
var ErrNotExist = fs.ErrNotExist

// File is one source file held fully in memory.
type File struct {
	Path    string
	Data    []byte
	Mode    fs.FileMode
	Dialect parser.Dialect
}

// Stats reports loader activity.
type Stats struct {
	Reads        int64
	Writes       int64
	MmapFailures int64
	BytesRead    int64
	BytesWritten int64
}

// Loader is safe for concurrent use.
type Loader struct {
	logger *slog.Logger

	reads        atomic.Int64
	writes       atomic.Int64
	mmapFailures atomic.Int64
	bytesRead    atomic.Int64
	bytesWritten atomic.Int64
}

// NewLoader creates a loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Read loads the whole file at path.
func (l *Loader) Read(path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", path, err)
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", abs, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %q: %w", abs, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("read %q: is a directory", abs)
	}

	data, err := l.readMapped(f, info.Size())
	if err != nil {
		return nil, err
	}

	l.reads.Add(1)
	l.bytesRead.Add(int64(len(data)))
	return &File{
		Path:    abs,
		Data:    data,
		Mode:    info.Mode().Perm(),
		Dialect: parser.DetectDialect(abs),
	}, nil
}

func (l *Loader) readMapped(f *os.File, size int64) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		l.mmapFailures.Add(1)
		l.logger.Debug("mmap failed, using fallback", "file", f.Name(), "error", err)
		data, readErr := os.ReadFile(f.Name())
		if readErr != nil {
			return nil, fmt.Errorf("read %q: mmap: %v: %w", f.Name(), err, readErr)
		}
		return data, nil
	}

	data := make([]byte, len(m))
	copy(data, m)
	if err := m.Unmap(); err != nil {
		l.logger.Warn("unmap failed", "file", f.Name(), "error", err)
	}
	return data, nil
}

// Write replaces the file contents with data, keeping its permission bits,
// and updates file.Data on success. The write is not atomic: a crash
// mid-write can leave a truncated file.
func (l *Loader) Write(file *File, data []byte) error {
	mode := file.Mode
	if mode == 0 {
		mode = 0o644
	}
	if err := os.WriteFile(file.Path, data, mode); err != nil {
		return fmt.Errorf("write %q: %w", file.Path, err)
	}
	file.Data = data
	l.writes.Add(1)
	l.bytesWritten.Add(int64(len(data)))
	return nil
}

// Stats returns a snapshot of loader counters.
func (l *Loader) Stats() Stats {
	return Stats{
		Reads:        l.reads.Load(),
		Writes:       l.writes.Load(),
		MmapFailures: l.mmapFailures.Load(),
		BytesRead:    l.bytesRead.Load(),
		BytesWritten: l.bytesWritten.Load(),
	}
}

// IsNotExist reports whether err means the file is missing.
func IsNotExist(err error) bool {
	return errors.Is(err, ErrNotExist)
}
