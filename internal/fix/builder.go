package fix

import (
	"erlfix/internal/diag"
	"erlfix/internal/source"
)

// Builder accumulates edits for one file and validates them on Finish.
type Builder struct {
	file  source.FileID
	edits []diag.TextEdit
}

// NewBuilder returns a builder scoped to file.
func NewBuilder(file source.FileID) *Builder {
	return &Builder{file: file}
}

func (b *Builder) File() source.FileID {
	return b.file
}

// Replace substitutes the text covered by span.
func (b *Builder) Replace(span source.Span, text string) *Builder {
	b.edits = append(b.edits, diag.TextEdit{Span: span, NewText: text})
	return b
}

// Insert adds text at offset.
func (b *Builder) Insert(offset uint32, text string) *Builder {
	return b.Replace(source.Span{File: b.file, Start: offset, End: offset}, text)
}

// Delete removes the text covered by span.
func (b *Builder) Delete(span source.Span) *Builder {
	return b.Replace(span, "")
}

func (b *Builder) Len() int {
	return len(b.edits)
}

// Finish sorts the edits by start offset and rejects overlapping ones or edits
// that target another file.
func (b *Builder) Finish() (diag.SourceChange, error) {
	return diag.NewSourceChange(b.file, b.edits)
}
