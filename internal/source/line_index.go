package source

import (
	"math"
	"sort"
	"unicode/utf8"

	"fortio.org/safecast"
)

// LineIndex maps byte offsets to lines and back.
// Lines are 0-based here; LineCol (1-based) is produced for humans.
type LineIndex struct {
	starts  []uint32 // starts[i] is the byte offset of line i
	size    uint32
	partial bool
}

// maxIndexed bounds the indexed prefix: offsets are uint32.
var maxIndexed uint64 = math.MaxUint32

// NewLineIndex scans text once and records every line start. Text past the
// uint32 offset range is left out; see Partial.
func NewLineIndex[T ~string | ~[]byte](text T) *LineIndex {
	n := len(text)
	partial := uint64(n) > maxIndexed
	if partial {
		n = int(maxIndexed) //nolint:gosec // bounded by len(text)
	}
	size, _ := safecast.Conv[uint32](n) // n <= maxIndexed
	starts := make([]uint32, 1, 1+n/32)
	for i := 0; i < n; i++ {
		if text[i] == '\n' {
			starts = append(starts, uint32(i)+1) //nolint:gosec // bounded by size
		}
	}
	return &LineIndex{starts: starts, size: size, partial: partial}
}

// Partial reports whether the text was too long to index completely.
// Offsets past Len cannot be translated.
func (li *LineIndex) Partial() bool {
	return li.partial
}

// LineCount returns the number of lines; a trailing newline opens an empty last line.
func (li *LineIndex) LineCount() int {
	return len(li.starts)
}

// Len is the byte length of the indexed text.
func (li *LineIndex) Len() uint32 {
	return li.size
}

// LineStart returns the byte offset of a 0-based line.
func (li *LineIndex) LineStart(line uint32) (uint32, bool) {
	if int(line) >= len(li.starts) {
		return 0, false
	}
	return li.starts[line], true
}

// LineEnd returns the offset of the line's terminating newline (or EOF).
func (li *LineIndex) LineEnd(line uint32) (uint32, bool) {
	if int(line) >= len(li.starts) {
		return 0, false
	}
	if int(line)+1 < len(li.starts) {
		return li.starts[line+1] - 1, true
	}
	return li.size, true
}

// Line returns the 0-based line containing off. Offsets past the end clamp to the last line.
func (li *LineIndex) Line(off uint32) uint32 {
	// наибольший starts[i] <= off
	i := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > off })
	return uint32(i - 1) //nolint:gosec // i >= 1 since starts[0] == 0
}

// LineCol converts a byte offset into a 1-based line and byte column.
func (li *LineIndex) LineCol(off uint32) LineCol {
	if off > li.size {
		off = li.size
	}
	line := li.Line(off)
	return LineCol{Line: line + 1, Col: off - li.starts[line] + 1}
}

// Offset translates a 0-based line and UTF-16 column into a byte offset.
// It fails when the line does not exist, when the column runs past the end
// of the line, or when it lands inside a character.
func (li *LineIndex) Offset(text string, line, utf16Col uint32) (uint32, bool) {
	start, ok := li.LineStart(line)
	if !ok {
		return 0, false
	}
	end, _ := li.LineEnd(line)
	if int(end) > len(text) {
		return 0, false
	}
	off := start
	var units uint32
	for units < utf16Col {
		if off >= end {
			return 0, false
		}
		r, size := utf8.DecodeRuneInString(text[off:end])
		if r == utf8.RuneError && size <= 1 {
			return 0, false
		}
		units += utf16Len(r)
		off += uint32(size) //nolint:gosec // size <= 4
	}
	if units != utf16Col {
		// колонка указывает в середину суррогатной пары
		return 0, false
	}
	return off, true
}

// Position translates a byte offset into a 0-based line and UTF-16 column.
func (li *LineIndex) Position(text string, off uint32) (line, utf16Col uint32) {
	if off > li.size {
		off = li.size
	}
	line = li.Line(off)
	start := li.starts[line]
	if int(off) > len(text) {
		return line, off - start
	}
	for _, r := range text[start:off] {
		utf16Col += utf16Len(r)
	}
	return line, utf16Col
}

func utf16Len(r rune) uint32 {
	if r >= 0x10000 {
		return 2
	}
	return 1
}
