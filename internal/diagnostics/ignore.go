package diagnostics

import (
	"fmt"
	"strings"

	"erlfix/internal/diag"
	"erlfix/internal/fix"
	"erlfix/internal/hir"
	"erlfix/internal/observ"
	"erlfix/internal/sema"
	"erlfix/internal/source"
)

const (
	ignoreMarker = "erlfix:ignore"

	IgnoreFixID    = "ignore_problem"
	IgnoreFixLabel = "Ignore problem"
)

// ParseIgnore reads an annotation comment such as
// `% erlfix:ignore W0030 (expression_can_be_simplified), W0017`.
// Codes may be given by id or by name; unknown words are skipped.
func ParseIgnore(comment string) ([]diag.Code, bool) {
	text := strings.TrimSpace(strings.TrimLeft(comment, "%"))
	rest, ok := strings.CutPrefix(text, ignoreMarker)
	if !ok {
		return nil, false
	}
	if rest != "" && !strings.ContainsRune(" \t,", rune(rest[0])) {
		// erlfix:ignored, erlfix:ignore_all
		return nil, false
	}
	fields := strings.FieldsFunc(rest, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ',' || r == '(' || r == ')'
	})
	var codes []diag.Code
	seen := make(map[diag.Code]bool, len(fields))
	for _, f := range fields {
		code, ok := diag.ParseCode(f)
		if !ok || seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	return codes, true
}

// Annotation renders the comment line that suppresses code.
func Annotation(code diag.Code) string {
	return fmt.Sprintf("%% %s %s (%s)", ignoreMarker, code.ID(), code.Name())
}

// Suppressions indexes the ignore annotations of one file.
type Suppressions struct {
	lines *source.LineIndex
	// by the 0-based line an annotation applies to
	byLine map[uint32]map[diag.Code]bool
	// annotations at the top of the file, for file-scope diagnostics
	header map[diag.Code]bool
}

// CollectSuppressions scans the comments of file once.
func CollectSuppressions(db sema.DB, file source.FileID) *Suppressions {
	s := &Suppressions{byLine: map[uint32]map[diag.Code]bool{}, header: map[diag.Code]bool{}}
	f := db.Files().Get(file)
	if f == nil {
		return s
	}
	s.lines = f.Lines
	m, _ := db.Module(file)
	top := topOfFile(f, m)
	for _, cm := range db.Comments(file) {
		codes, ok := ParseIgnore(cm.Text)
		if !ok || len(codes) == 0 {
			continue
		}
		line := f.Lines.Line(cm.Span.Start)
		target := s.byLine[line+1]
		if target == nil {
			target = map[diag.Code]bool{}
			s.byLine[line+1] = target
		}
		for _, code := range codes {
			target[code] = true
			if top.covers(line) {
				s.header[code] = true
			}
		}
	}
	return s
}

// Suppressed reports whether an annotation covers d.
func (s *Suppressions) Suppressed(d diag.Diagnostic) bool {
	if d.FileScope {
		return s.header[d.Code]
	}
	if s.lines == nil {
		return false
	}
	return s.byLine[s.lines.Line(d.Primary.Start)][d.Code]
}

// fileTop describes where file-scope annotations live: the line right after
// the module attribute, or the end of the leading comment block when there
// is none.
type fileTop struct {
	hasModule bool
	// first line of the module attribute
	module uint32
	// line a new annotation is inserted at
	insert uint32
}

func topOfFile(f *source.File, m *hir.Module) fileTop {
	if m != nil && m.Attribute != nil {
		return fileTop{
			hasModule: true,
			module:    f.Lines.Line(m.Attribute.Span.Start),
			insert:    f.Lines.Line(m.Attribute.Span.End) + 1,
		}
	}
	var line uint32
	for ; int(line) < f.Lines.LineCount(); line++ {
		start, _ := f.Lines.LineStart(line)
		end, _ := f.Lines.LineEnd(line)
		text := strings.TrimSpace(string(f.Content[start:end]))
		if text != "" && !strings.HasPrefix(text, "%") {
			break
		}
	}
	return fileTop{insert: line}
}

// covers reports whether an annotation on line applies to the whole file.
// Header comments above the module attribute count too.
func (t fileTop) covers(line uint32) bool {
	if t.hasModule {
		return line < t.module || line == t.insert
	}
	return line < t.insert
}

// IgnoreFix builds the fix that inserts a suppression annotation for d.
// Line diagnostics get the annotation right above their start line with the
// same indentation; file-scope ones get it on the line after the module
// attribute, or after the leading comments. Type checker findings get the
// checker's own `% eqwalizer:ignore`.
func IgnoreFix(db sema.DB, file source.FileID, d diag.Diagnostic) (diag.Fix, bool) {
	f := db.Files().Get(file)
	if f == nil {
		return diag.Fix{}, false
	}
	opts := []fix.Option{
		fix.WithApplicability(diag.FixManualReview),
		fix.WithTrigger(d.Primary),
	}
	annotation := Annotation(d.Code)
	if checkerFinding(d.Code) {
		annotation = eqwalizerIgnore
	}
	if d.FileScope {
		m, _ := db.Module(file)
		off, text := ownLine(f, topOfFile(f, m).insert, annotation)
		return fix.InsertText(IgnoreFixID, IgnoreFixLabel, file, off, text, opts...), true
	}
	if d.Primary.File != file || d.Primary.Start > f.Lines.Len() {
		return diag.Fix{}, false
	}
	line := f.Lines.Line(d.Primary.Start)
	start, _ := f.Lines.LineStart(line)
	end, _ := f.Lines.LineEnd(line)
	indent := leadingSpace(f.Content[start:end])
	return fix.InsertText(IgnoreFixID, IgnoreFixLabel, file, start, indent+annotation+"\n", opts...), true
}

const eqwalizerIgnore = "% eqwalizer:ignore"

func checkerFinding(c diag.Code) bool {
	return c == diag.OracleUnknown || c == diag.OracleIncompatibleTypes
}

// ownLine places text on its own line starting at line. Past the last line
// it is appended, after a newline if the file lacks one.
func ownLine(f *source.File, line uint32, text string) (uint32, string) {
	if off, ok := f.Lines.LineStart(line); ok {
		return off, text + "\n"
	}
	end := f.Lines.Len()
	if end > 0 && f.Content[end-1] != '\n' {
		return end, "\n" + text + "\n"
	}
	return end, text + "\n"
}

// Annotate drops the diagnostics covered by an ignore annotation and appends
// an ignore fix to the others. metrics may be nil.
func Annotate(db sema.DB, file source.FileID, diags []diag.Diagnostic, metrics *observ.Metrics) []diag.Diagnostic {
	sup := CollectSuppressions(db, file)
	out := diags[:0]
	for _, d := range diags {
		if sup.Suppressed(d) {
			metrics.SuppressedBy(d.Code.ID())
			continue
		}
		if fx, ok := IgnoreFix(db, file, d); ok {
			d.AddFix(fx)
		}
		out = append(out, d)
	}
	return out
}

func leadingSpace(line []byte) string {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return string(line[:i])
}
