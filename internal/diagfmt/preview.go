package diagfmt

import (
	"fmt"
	"strings"

	"erlfix/internal/diag"
	"erlfix/internal/fix"
	"erlfix/internal/source"
)

type fixEditPreview struct {
	before []string
	after  []string
}

// buildFixEditPreview returns the lines touched by edit before and after it is applied.
func buildFixEditPreview(fs *source.FileSet, edit diag.TextEdit) (fixEditPreview, error) {
	if fs == nil {
		return fixEditPreview{}, fmt.Errorf("nil FileSet")
	}
	file := fs.Get(edit.Span.File)
	if file == nil {
		return fixEditPreview{}, fmt.Errorf("file %d not found in FileSet", edit.Span.File)
	}
	if edit.Span.Start > edit.Span.End || edit.Span.End > file.Lines.Len() {
		return fixEditPreview{}, fmt.Errorf("edit span %s out of range", edit.Span)
	}

	blockStart, _ := file.Lines.LineStart(file.Lines.Line(edit.Span.Start))
	endLine := file.Lines.Line(edit.Span.End)
	blockEnd, ok := file.Lines.LineStart(endLine + 1)
	if !ok {
		blockEnd = file.Lines.Len()
	}

	original := file.Content[blockStart:blockEnd]
	relStart := edit.Span.Start - blockStart
	relEnd := edit.Span.End - blockStart

	after := make([]byte, 0, len(original)+len(edit.NewText))
	after = append(after, original[:relStart]...)
	after = append(after, edit.NewText...)
	after = append(after, original[relEnd:]...)

	return fixEditPreview{
		before: splitPreviewLines(original),
		after:  splitPreviewLines(after),
	}, nil
}

func splitPreviewLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	return strings.Split(strings.TrimRight(string(content), "\n"), "\n")
}

// ChangeDiff renders change as a unified diff against the current contents
// of every file it touches.
func ChangeDiff(fs *source.FileSet, change diag.SourceChange, mode PathMode) (string, error) {
	var b strings.Builder
	for _, id := range change.Files() {
		f := fs.Get(id)
		if f == nil {
			return "", fmt.Errorf("file %d not found in FileSet", id)
		}
		after, err := fix.ApplyChange(f.Content, change.Edits(id))
		if err != nil {
			return "", fmt.Errorf("%s: %w", f.Path, err)
		}
		b.WriteString(UnifiedDiff(displayPath(fs, f, mode), f.Content, after))
	}
	return b.String(), nil
}
