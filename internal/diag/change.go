package diag

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"erlfix/internal/source"
)

var (
	ErrOverlappingEdits = errors.New("overlapping edits")
	ErrForeignFile      = errors.New("edit targets a different file")
)

// TextEdit is a single atomic substitution.
type TextEdit struct {
	Span    source.Span
	NewText string
}

// SourceChange maps files to their edits. Edits of one file are sorted by
// start offset and never overlap; the constructors enforce that.
type SourceChange struct {
	edits map[source.FileID][]TextEdit
}

// NewSourceChange validates edits for one file and returns the change.
func NewSourceChange(file source.FileID, edits []TextEdit) (SourceChange, error) {
	sorted, err := SortEdits(file, edits)
	if err != nil {
		return SourceChange{}, err
	}
	if len(sorted) == 0 {
		return SourceChange{}, nil
	}
	return SourceChange{edits: map[source.FileID][]TextEdit{file: sorted}}, nil
}

// SingleEdit wraps one edit; a single edit can never overlap.
func SingleEdit(edit TextEdit) SourceChange {
	return SourceChange{edits: map[source.FileID][]TextEdit{edit.Span.File: {edit}}}
}

// SortEdits orders edits by (start, end) and checks that no edit lies inside
// another. Touching edits and inserts at the same offset are allowed; inserts
// at one offset keep their relative order.
func SortEdits(file source.FileID, edits []TextEdit) ([]TextEdit, error) {
	out := slices.Clone(edits)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Span.Start != out[j].Span.Start {
			return out[i].Span.Start < out[j].Span.Start
		}
		return out[i].Span.End < out[j].Span.End
	})
	var prevEnd uint32
	for i, e := range out {
		if e.Span.File != file {
			return nil, fmt.Errorf("%w: %d != %d", ErrForeignFile, e.Span.File, file)
		}
		if e.Span.Start > e.Span.End {
			return nil, fmt.Errorf("%w: inverted span %s", ErrOverlappingEdits, e.Span)
		}
		if i > 0 && e.Span.Start < prevEnd {
			return nil, fmt.Errorf("%w: %s starts before %d", ErrOverlappingEdits, e.Span, prevEnd)
		}
		if e.Span.End > prevEnd {
			prevEnd = e.Span.End
		}
	}
	return out, nil
}

func (c SourceChange) IsEmpty() bool {
	return len(c.edits) == 0
}

// Files returns the touched files in ascending order.
func (c SourceChange) Files() []source.FileID {
	out := make([]source.FileID, 0, len(c.edits))
	for id := range c.edits {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Edits returns a copy of the edits for one file.
func (c SourceChange) Edits(file source.FileID) []TextEdit {
	return slices.Clone(c.edits[file])
}

// AllEdits returns every edit ordered by file, then offset.
func (c SourceChange) AllEdits() []TextEdit {
	var out []TextEdit
	for _, id := range c.Files() {
		out = append(out, c.edits[id]...)
	}
	return out
}

// Merge combines two changes; the result is validated per file.
func (c SourceChange) Merge(other SourceChange) (SourceChange, error) {
	merged := make(map[source.FileID][]TextEdit, len(c.edits)+len(other.edits))
	for id, es := range c.edits {
		merged[id] = slices.Clone(es)
	}
	for id, es := range other.edits {
		merged[id] = append(merged[id], es...)
	}
	for id, es := range merged {
		sorted, err := SortEdits(id, es)
		if err != nil {
			return SourceChange{}, err
		}
		merged[id] = sorted
	}
	return SourceChange{edits: merged}, nil
}
