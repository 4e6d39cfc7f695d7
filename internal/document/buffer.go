// Package document keeps editor buffers in sync with incremental changes.
package document

import (
	"errors"
	"fmt"
	"strings"

	"erlfix/internal/diag"
	"erlfix/internal/source"
)

var (
	ErrLineOutOfRange   = errors.New("line out of range")
	ErrColumnOutOfRange = errors.New("column out of range or not on a character boundary")
	ErrInvertedRange    = errors.New("range end precedes start")
)

// Position is an editor position: 0-based line and UTF-16 code unit column.
type Position struct {
	Line      uint32
	Character uint32
}

type Range struct {
	Start Position
	End   Position
}

func (r Range) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", r.Start.Line, r.Start.Character, r.End.Line, r.End.Character)
}

// Change is one content change event. A nil Range replaces the whole buffer.
type Change struct {
	Range *Range
	Text  string
}

// Discarded describes a change event that was dropped because its range did not
// translate to valid byte offsets. The buffer is unaffected by such events.
type Discarded struct {
	Index  int
	Change Change
	Err    error
}

// indexValidity records how much of the line index still matches content.
// all == true means fully valid, otherwise lines strictly before upTo are.
type indexValidity struct {
	all  bool
	upTo uint32
}

func (v indexValidity) covers(line uint32) bool {
	return v.all || v.upTo > line
}

// Buffer owns the decoded text of one open document.
type Buffer struct {
	content string
	index   *source.LineIndex
	valid   indexValidity
	lossy   bool
	version int32
}

// FromBytes never fails: bytes that are not valid UTF-8 are read as latin-1.
func FromBytes(raw []byte) *Buffer {
	text, lossy := source.DecodeString(raw)
	return &Buffer{
		content: text,
		index:   source.NewLineIndex(text),
		valid:   indexValidity{all: true},
		lossy:   lossy,
	}
}

// FromString wraps text that is already decoded.
func FromString(text string) *Buffer {
	return &Buffer{
		content: text,
		index:   source.NewLineIndex(text),
		valid:   indexValidity{all: true},
	}
}

// Lossy reports whether the original bytes needed the latin-1 fallback.
func (b *Buffer) Lossy() bool {
	return b.lossy
}

// Version is the editor's document version the content corresponds to.
func (b *Buffer) Version() int32 {
	return b.version
}

func (b *Buffer) SetVersion(v int32) {
	b.version = v
}

func (b *Buffer) String() string {
	return b.content
}

// Bytes returns a copy of the current content.
func (b *Buffer) Bytes() []byte {
	return []byte(b.content)
}

// LineIndex returns an index that matches the current content.
func (b *Buffer) LineIndex() *source.LineIndex {
	if !b.valid.all {
		b.rebuild()
	}
	return b.index
}

func (b *Buffer) rebuild() {
	b.index = source.NewLineIndex(b.content)
	b.valid = indexValidity{all: true}
}

// ApplyChanges applies a batch strictly in array order. Events whose range
// cannot be translated are skipped and reported; the rest still apply.
func (b *Buffer) ApplyChanges(batch []Change) []Discarded {
	var discarded []Discarded
	for i, change := range batch {
		if change.Range == nil {
			b.content = change.Text
			b.valid = indexValidity{upTo: 0}
			continue
		}
		rng := *change.Range
		if !b.valid.covers(rng.End.Line) {
			b.rebuild()
		}
		// later edits shift line numbers from the start line onwards
		upTo := rng.Start.Line
		if !b.valid.all && b.valid.upTo < upTo {
			upTo = b.valid.upTo
		}
		b.valid = indexValidity{upTo: upTo}

		start, end, err := b.translate(rng)
		if err != nil {
			discarded = append(discarded, Discarded{Index: i, Change: change, Err: err})
			continue
		}
		b.content = b.content[:start] + change.Text + b.content[end:]
	}
	return discarded
}

func (b *Buffer) translate(rng Range) (start, end uint32, err error) {
	start, err = b.offset(rng.Start)
	if err != nil {
		return 0, 0, err
	}
	end, err = b.offset(rng.End)
	if err != nil {
		return 0, 0, err
	}
	if end < start {
		return 0, 0, ErrInvertedRange
	}
	return start, end, nil
}

func (b *Buffer) offset(pos Position) (uint32, error) {
	if int(pos.Line) >= b.index.LineCount() {
		return 0, fmt.Errorf("%w: %d", ErrLineOutOfRange, pos.Line)
	}
	off, ok := b.index.Offset(b.content, pos.Line, pos.Character)
	if !ok {
		return 0, fmt.Errorf("%w: %d:%d", ErrColumnOutOfRange, pos.Line, pos.Character)
	}
	return off, nil
}

// Offset translates an editor position against the current content.
func (b *Buffer) Offset(pos Position) (uint32, error) {
	b.LineIndex()
	return b.offset(pos)
}

// Position translates a byte offset into an editor position.
func (b *Buffer) Position(off uint32) Position {
	line, col := b.LineIndex().Position(b.content, off)
	return Position{Line: line, Character: col}
}

// ApplyEdits applies the edits of one file from a source change. Either all
// edits apply or none do.
func (b *Buffer) ApplyEdits(edits []diag.TextEdit) error {
	// offsets past an unindexable tail are rejected
	size := b.LineIndex().Len()
	var prevEnd uint32
	for i, e := range edits {
		if e.Span.Start > e.Span.End || e.Span.End > size {
			return fmt.Errorf("edit %d: %w", i, ErrColumnOutOfRange)
		}
		if i > 0 && e.Span.Start < prevEnd {
			return fmt.Errorf("edit %d: %w", i, diag.ErrOverlappingEdits)
		}
		prevEnd = e.Span.End
	}
	var sb strings.Builder
	sb.Grow(len(b.content))
	var last uint32
	for _, e := range edits {
		sb.WriteString(b.content[last:e.Span.Start])
		sb.WriteString(e.NewText)
		last = e.Span.End
	}
	sb.WriteString(b.content[last:])
	b.content = sb.String()
	b.valid = indexValidity{upTo: 0}
	return nil
}

// Apply applies the part of change that targets file.
func (b *Buffer) Apply(change diag.SourceChange, file source.FileID) error {
	return b.ApplyEdits(change.Edits(file))
}
