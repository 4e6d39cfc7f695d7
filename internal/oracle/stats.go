package oracle

import (
	"strings"

	"erlfix/internal/diag"
	"erlfix/internal/sema"
	"erlfix/internal/source"
)

// Stats reports the places where a file opts out of type checking or uses
// specs the checker cannot narrow: overloaded specs, escape-hatch comments
// and nowarn attributes.
func Stats(db sema.DB, file source.FileID) []diag.Diagnostic {
	var r diag.SliceReporter
	if m, ok := db.Module(file); ok {
		for _, spec := range m.Specs {
			if spec.Span.File == file && len(spec.Sigs) > 1 {
				diag.ReportWeak(&r, diag.OracleOverloadedSpec, spec.Span, "overloaded spec").Emit()
			}
		}
		for _, nw := range m.Nowarn {
			if nw.Span.File == file {
				diag.ReportWeak(&r, diag.OracleNowarn, nw.Span, "-eqwalizer({nowarn_function, ...}) escape hatch").Emit()
			}
		}
	}
	for _, cm := range db.Comments(file) {
		switch escapeHatch(cm.Text) {
		case "fixme":
			diag.ReportWeak(&r, diag.OracleFixme, cm.Span, "%eqwalizer:fixme escape hatch").Emit()
		case "ignore":
			diag.ReportWeak(&r, diag.OracleIgnore, cm.Span, "%eqwalizer:ignore escape hatch").Emit()
		}
	}
	out := r.Items()
	diag.Sort(out)
	return out
}

// escapedLines are the lines right below an escape-hatch comment.
func escapedLines(db sema.DB, file source.FileID) map[uint32]bool {
	f := db.Files().Get(file)
	if f == nil {
		return nil
	}
	var lines map[uint32]bool
	for _, cm := range db.Comments(file) {
		if escapeHatch(cm.Text) == "" {
			continue
		}
		if lines == nil {
			lines = map[uint32]bool{}
		}
		lines[f.Lines.Line(cm.Span.Start)+1] = true
	}
	return lines
}

// escapeHatch returns "fixme" or "ignore" for `% eqwalizer:fixme ...` style
// comments.
func escapeHatch(comment string) string {
	text := strings.TrimLeft(comment, "% \t")
	rest, ok := strings.CutPrefix(text, "eqwalizer:")
	if !ok {
		return ""
	}
	for _, kind := range []string{"fixme", "ignore"} {
		if rest == kind || strings.HasPrefix(rest, kind+" ") || strings.HasPrefix(rest, kind+"\t") {
			return kind
		}
	}
	return ""
}
