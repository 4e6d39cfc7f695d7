package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"erlfix/internal/diag"
	"erlfix/internal/source"
)

type palette struct {
	severity map[diag.Severity]*color.Color
	code     *color.Color
	gutter   *color.Color
	caret    map[diag.Severity]*color.Color
	note     *color.Color
	fix      *color.Color
	added    *color.Color
	removed  *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		severity: map[diag.Severity]*color.Color{
			diag.SevError:       color.New(color.FgRed, color.Bold),
			diag.SevWarning:     color.New(color.FgYellow, color.Bold),
			diag.SevWeakWarning: color.New(color.FgCyan, color.Bold),
		},
		code:   color.New(color.Bold),
		gutter: color.New(color.FgBlue),
		caret: map[diag.Severity]*color.Color{
			diag.SevError:       color.New(color.FgRed),
			diag.SevWarning:     color.New(color.FgYellow),
			diag.SevWeakWarning: color.New(color.FgCyan),
		},
		note:    color.New(color.FgGreen),
		fix:     color.New(color.FgMagenta),
		added:   color.New(color.FgGreen),
		removed: color.New(color.FgRed),
	}
	all := []*color.Color{p.code, p.gutter, p.note, p.fix, p.added, p.removed}
	for _, c := range p.severity {
		all = append(all, c)
	}
	for _, c := range p.caret {
		all = append(all, c)
	}
	for _, c := range all {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes и Fixes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	for i := range bag.Items() {
		d := &bag.Items()[i]
		if i > 0 {
			fmt.Fprintln(w)
		}
		prettyOne(w, d, fs, opts, p)
	}
}

func prettyOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p palette) {
	f := fs.Get(d.Primary.File)
	if f == nil {
		fmt.Fprintf(w, "%s %s: %s\n", p.severity[d.Severity].Sprint(d.Severity.String()), p.code.Sprint(d.Code.ID()), d.Message)
		return
	}
	start, _ := fs.Resolve(d.Primary)
	fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n",
		displayPath(fs, f, opts.PathMode), start.Line, start.Col,
		p.severity[d.Severity].Sprint(d.Severity.String()),
		p.code.Sprint(d.Code.ID()),
		d.Message)

	if !d.FileScope {
		writeSnippet(w, f, d.Primary, d.Severity, opts, p)
	}

	if opts.ShowNotes {
		for _, n := range d.Notes {
			nf := fs.Get(n.Span.File)
			if nf == nil {
				continue
			}
			pos, _ := fs.Resolve(n.Span)
			fmt.Fprintf(w, "  %s %s:%d:%d: %s\n", p.note.Sprint("note:"), displayPath(fs, nf, opts.PathMode), pos.Line, pos.Col, n.Msg)
		}
	}

	if !opts.ShowFixes && !opts.ShowPreview {
		return
	}
	for _, fx := range d.Fixes {
		fmt.Fprintf(w, "  %s %s [%s]\n", p.fix.Sprint("fix:"), fx.Label, fx.ID)
		if !opts.ShowPreview {
			continue
		}
		for _, edit := range fx.Change.AllEdits() {
			preview, err := buildFixEditPreview(fs, edit)
			if err != nil {
				fmt.Fprintf(w, "      (no preview: %v)\n", err)
				continue
			}
			for _, line := range preview.before {
				fmt.Fprintf(w, "      %s\n", p.removed.Sprint("- "+line))
			}
			for _, line := range preview.after {
				fmt.Fprintf(w, "      %s\n", p.added.Sprint("+ "+line))
			}
		}
	}
}

// writeSnippet prints the primary line with opts.Context lines around it and
// underlines the span on the primary line.
func writeSnippet(w io.Writer, f *source.File, span source.Span, sev diag.Severity, opts PrettyOpts, p palette) {
	if span.Start > f.Lines.Len() {
		return
	}
	line := f.Lines.Line(span.Start)
	ctx := uint32(max(opts.Context, 0)) //nolint:gosec // non-negative
	first := line - min(line, ctx)
	last := min(line+ctx, uint32(f.Lines.LineCount()-1)) //nolint:gosec // at least one line
	gutterWidth := len(strconv.Itoa(int(last) + 1))

	for l := first; l <= last; l++ {
		text := lineText(f, l)
		fmt.Fprintf(w, "%s %s\n", p.gutter.Sprintf("%*d |", gutterWidth, l+1), clip(expandTabs(text), opts.Width))
		if l != line {
			continue
		}
		lineStart, _ := f.Lines.LineStart(l)
		col := int(span.Start - lineStart)
		end := min(int(span.End-lineStart), len(text))
		if end < col {
			end = col
		}
		pad := runewidth.StringWidth(expandTabs(text[:col]))
		width := max(runewidth.StringWidth(expandTabs(text[col:end])), 1)
		marker := "^" + strings.Repeat("~", width-1)
		fmt.Fprintf(w, "%s %s%s\n", p.gutter.Sprintf("%*s |", gutterWidth, ""), strings.Repeat(" ", pad), p.caret[sev].Sprint(marker))
	}
}

func lineText(f *source.File, line uint32) string {
	start, ok := f.Lines.LineStart(line)
	if !ok {
		return ""
	}
	end, _ := f.Lines.LineEnd(line)
	return string(f.Content[start:end])
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}

// clip shortens s to width display cells.
func clip(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}
