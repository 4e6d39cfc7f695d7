package lsp

import (
	"fortio.org/safecast"

	"erlfix/internal/source"
)

func toUint32(n int) (uint32, bool) {
	if n < 0 {
		return 0, false
	}
	v, err := safecast.Conv[uint32](n)
	return v, err == nil
}

func positionForOffsetInFile(file *source.File, offset uint32) position {
	if file == nil || file.Lines == nil {
		return position{}
	}
	line, col := file.Lines.Position(string(file.Content), offset)
	return position{Line: int(line), Character: int(col)}
}

// offsetForPositionInFile fails for positions that do not name a character
// boundary of the file; code actions then return nothing rather than guess.
func offsetForPositionInFile(file *source.File, pos position) (uint32, bool) {
	if file == nil || file.Lines == nil {
		return 0, false
	}
	line, ok := toUint32(pos.Line)
	if !ok {
		return 0, false
	}
	col, ok := toUint32(pos.Character)
	if !ok {
		return 0, false
	}
	return file.Lines.Offset(string(file.Content), line, col)
}

func rangeForSpan(file *source.File, span source.Span) lspRange {
	if file == nil {
		return lspRange{}
	}
	return lspRange{
		Start: positionForOffsetInFile(file, span.Start),
		End:   positionForOffsetInFile(file, span.End),
	}
}

func spanForRange(file *source.File, r lspRange) (source.Span, bool) {
	start, ok := offsetForPositionInFile(file, r.Start)
	if !ok {
		return source.Span{}, false
	}
	end, ok := offsetForPositionInFile(file, r.End)
	if !ok || end < start {
		return source.Span{}, false
	}
	return source.Span{File: file.ID, Start: start, End: end}, true
}

// touches treats spans as closed intervals so an empty cursor range at either
// edge of a trigger still selects it.
func touches(a, b source.Span) bool {
	return a.File == b.File && a.Start <= b.End && b.Start <= a.End
}
