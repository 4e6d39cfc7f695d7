package diag

import (
	"cmp"
	"path"
	"slices"
	"strconv"
	"strings"

	"erlfix/internal/source"
)

// GoldenOptions selects what FormatLines renders besides the headline.
type GoldenOptions struct {
	Notes bool
	// Fixes appends the fix ids of a diagnostic in brackets.
	Fixes bool
	// SkipBuild drops entries located under _build/, which hold copies of
	// dependencies rather than project sources.
	SkipBuild bool
}

// goldenLine is one rendered entry: a diagnostic headline or one of its notes.
type goldenLine struct {
	sev   string
	code  string
	path  string
	pos   source.LineCol
	msg   string
	fixes []string
}

func (l goldenLine) String() string {
	var b strings.Builder
	b.WriteString(l.sev)
	b.WriteByte(' ')
	b.WriteString(l.code)
	b.WriteByte(' ')
	b.WriteString(l.path)
	b.WriteByte(':')
	b.WriteString(strconv.FormatUint(uint64(l.pos.Line), 10))
	b.WriteByte(':')
	b.WriteString(strconv.FormatUint(uint64(l.pos.Col), 10))
	b.WriteByte(' ')
	b.WriteString(l.msg)
	if len(l.fixes) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(l.fixes, ", "))
		b.WriteByte(']')
	}
	return b.String()
}

// FormatGoldenDiagnostics renders one line per diagnostic and note for
// golden files: `severity CODE path:line:col message`. Paths are relative to
// the FileSet base and build output is skipped.
func FormatGoldenDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	return FormatLines(diags, fs, GoldenOptions{Notes: includeNotes, SkipBuild: true})
}

// FormatShortDiagnostics is the `--format short` output: the golden layout
// with the fix ids of every diagnostic and no path filtering.
func FormatShortDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	return FormatLines(diags, fs, GoldenOptions{Notes: includeNotes, Fixes: true})
}

// FormatLines renders diags in a stable order (path, position, severity,
// code, message) joined by newlines, without a trailing one.
func FormatLines(diags []Diagnostic, fs *source.FileSet, opts GoldenOptions) string {
	if fs == nil || len(diags) == 0 {
		return ""
	}
	lines := make([]goldenLine, 0, len(diags))
	keep := func(l goldenLine) {
		if !opts.SkipBuild || !underBuild(l.path) {
			lines = append(lines, l)
		}
	}
	for i := range diags {
		d := &diags[i]
		if l, ok := locate(fs, d.Primary); ok {
			l.sev, l.code, l.msg = d.Severity.Label(), d.Code.ID(), oneLine(d.Message)
			if opts.Fixes {
				for _, fx := range d.Fixes {
					l.fixes = append(l.fixes, fx.ID)
				}
			}
			keep(l)
		}
		if !opts.Notes {
			continue
		}
		for _, n := range d.Notes {
			if l, ok := locate(fs, n.Span); ok {
				l.sev, l.code, l.msg = "note", d.Code.ID(), oneLine(n.Msg)
				keep(l)
			}
		}
	}
	slices.SortStableFunc(lines, func(a, b goldenLine) int {
		return cmp.Or(
			cmp.Compare(a.path, b.path),
			cmp.Compare(a.pos.Line, b.pos.Line),
			cmp.Compare(a.pos.Col, b.pos.Col),
			cmp.Compare(a.sev, b.sev),
			cmp.Compare(a.code, b.code),
			cmp.Compare(a.msg, b.msg),
		)
	})
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.String()
	}
	return strings.Join(out, "\n")
}

func locate(fs *source.FileSet, span source.Span) (goldenLine, bool) {
	f := fs.Get(span.File)
	if f == nil {
		return goldenLine{}, false
	}
	start, _ := fs.Resolve(span)
	return goldenLine{path: path.Clean(f.FormatPath("relative", fs.BaseDir())), pos: start}, true
}

func underBuild(p string) bool {
	p = strings.TrimLeft(p, "/")
	return strings.HasPrefix(p, "_build/") || strings.Contains(p, "/_build/")
}

// oneLine folds a multi-line message (oracle explanations) onto one line.
func oneLine(msg string) string {
	return strings.Join(strings.Fields(msg), " ")
}
