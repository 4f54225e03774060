// Package patch plans and applies byte-range edits to a source file.
// Bytes outside the edited ranges are copied unchanged.
package patch

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrSpanMismatch means the bytes under an edit are not what the
	// planner saw.
	ErrSpanMismatch = errors.New("edit span does not match source")

	// ErrOverlap means two edits touch the same bytes.
	ErrOverlap = errors.New("overlapping edits")
)

// Edit replaces src[Start:End] with Text. Start == End inserts. When
// Expect is non-nil the replaced bytes must equal it.
type Edit struct {
	Start  uint
	End    uint
	Text   string
	Expect []byte
}

// Insert returns an insertion edit.
func Insert(at uint, text string) Edit {
	return Edit{Start: at, End: at, Text: text}
}

// Replace returns a replacement edit guarded by the current bytes.
func Replace(src []byte, start, end uint, text string) Edit {
	return Edit{Start: start, End: end, Text: text, Expect: append([]byte(nil), src[start:end]...)}
}

// Apply splices edits into src and returns a new buffer. Insertions at the
// same offset keep their relative order.
func Apply(src []byte, edits []Edit) ([]byte, error) {
	if len(edits) == 0 {
		return src, nil
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	size := uint(len(src))
	grow := 0
	for i, e := range sorted {
		if e.Start > e.End || e.End > size {
			return nil, fmt.Errorf("%w: [%d,%d) outside source of %d bytes", ErrSpanMismatch, e.Start, e.End, size)
		}
		if e.Expect != nil && !bytes.Equal(src[e.Start:e.End], e.Expect) {
			return nil, fmt.Errorf("%w at [%d,%d)", ErrSpanMismatch, e.Start, e.End)
		}
		if i > 0 && e.Start < sorted[i-1].End {
			return nil, fmt.Errorf("%w: [%d,%d) and [%d,%d)", ErrOverlap, sorted[i-1].Start, sorted[i-1].End, e.Start, e.End)
		}
		grow += len(e.Text) - int(e.End-e.Start)
	}

	out := make([]byte, 0, len(src)+grow)
	pos := uint(0)
	for _, e := range sorted {
		out = append(out, src[pos:e.Start]...)
		out = append(out, e.Text...)
		pos = e.End
	}
	out = append(out, src[pos:]...)
	return out, nil
}

// LineStart returns the offset of the first byte of the line holding off.
func LineStart(src []byte, off uint) uint {
	if off > uint(len(src)) {
		off = uint(len(src))
	}
	if i := bytes.LastIndexByte(src[:off], '\n'); i >= 0 {
		return uint(i + 1)
	}
	return 0
}

// NextLine returns the offset just past the newline ending the line that
// holds off, and false when that line is the last one and has no newline.
func NextLine(src []byte, off uint) (uint, bool) {
	if off > uint(len(src)) {
		off = uint(len(src))
	}
	if i := bytes.IndexByte(src[off:], '\n'); i >= 0 {
		return off + uint(i) + 1, true
	}
	return uint(len(src)), false
}

// LineSpan returns the byte range of 1-based line n, without its newline.
func LineSpan(src []byte, n int) (start, end uint, ok bool) {
	if n < 1 {
		return 0, 0, false
	}
	off := uint(0)
	for line := 1; line < n; line++ {
		next, found := NextLine(src, off)
		if !found {
			return 0, 0, false
		}
		off = next
	}
	end, found := NextLine(src, off)
	if found {
		end--
	}
	if end > 0 && end > off && src[end-1] == '\r' {
		end--
	}
	return off, end, true
}
