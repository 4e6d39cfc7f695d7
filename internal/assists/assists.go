// Package assists holds cursor-driven refactorings. Unlike rule fixes they are
// not attached to a diagnostic: the editor asks for them at a position.
package assists

import (
	"erlfix/internal/diag"
	"erlfix/internal/hir"
	"erlfix/internal/source"
)

// Context is one request: the file as analysed and the selected range.
type Context struct {
	File   *source.File
	Module *hir.Module
	Range  source.Span
}

// Assist computes the refactorings available at ctx.Range.
type Assist struct {
	ID  string
	Run func(ctx *Context) []diag.Fix
}

// Default lists every assist in the order they are offered.
func Default() []Assist {
	return []Assist{
		{ID: exportTypeID, Run: exportType},
		{ID: flipSepID, Run: flipSep},
	}
}

// Collect runs every assist against ctx. A nil module or a range outside the
// file yields nothing.
func Collect(ctx *Context, list []Assist) []diag.Fix {
	if ctx == nil || ctx.File == nil || ctx.Module == nil {
		return nil
	}
	if ctx.Range.File != ctx.File.ID || ctx.Range.End > ctx.File.Lines.Len() {
		return nil
	}
	var out []diag.Fix
	for _, a := range list {
		out = append(out, a.Run(ctx)...)
	}
	return out
}
