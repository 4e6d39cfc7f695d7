package oracle

import (
	"erlfix/internal/diag"
	"erlfix/internal/fix"
	"erlfix/internal/hir"
	"erlfix/internal/safety"
	"erlfix/internal/sema"
	"erlfix/internal/source"
)

const fixExpectedType = "fix_expected_type"

// Matcher offers fixes for one shape of expected/got pair. Applies tests the
// shape only; Build may still come back empty, e.g. when the spec cannot be
// rewritten.
type Matcher struct {
	Name    string
	Applies func(st ExpectedSubtype) bool
	Build   func(c *FixContext, st ExpectedSubtype) []diag.Fix
}

// FixContext is what a matcher may look at.
type FixContext struct {
	DB   sema.DB
	File source.FileID
	// Range is the reported expression, already validated against the file.
	Range source.Span
	Diag  Diagnostic
}

// Text returns the current source of the reported expression.
func (c *FixContext) Text() string {
	return c.DB.Files().Text(c.Range)
}

// DefaultMatchers lists the shapes in priority order.
func DefaultMatchers() []Matcher {
	return []Matcher{
		{Name: "mismatched_atoms", Applies: bothAtoms, Build: buildMismatchedAtoms},
		{Name: "tuple_wrap", Applies: taggedPair, Build: buildTupleWrap},
		{Name: "narrow_spec", Applies: gotAtom, Build: buildNarrowSpec},
	}
}

// Adapter converts checker findings. The first matcher whose shape applies
// decides the fixes, even when it has none to offer.
type Adapter struct {
	matchers []Matcher
}

func NewAdapter(matchers ...Matcher) *Adapter {
	if len(matchers) == 0 {
		matchers = DefaultMatchers()
	}
	return &Adapter{matchers: matchers}
}

// CodeFor maps the checker's code name onto a diagnostic code.
func CodeFor(name string) diag.Code {
	if code, ok := diag.ParseCode(name); ok && code.IsOracle() {
		return code
	}
	return diag.OracleUnknown
}

// Convert builds the diagnostic for od. A range outside the file is clamped
// and gets no fixes.
func (a *Adapter) Convert(db sema.DB, file source.FileID, od Diagnostic) diag.Diagnostic {
	sp, valid := clampRange(db, file, od)
	msg := "eqwalizer"
	if od.Code != "" {
		msg += ": " + od.Code
	}
	b := diag.ReportError(nil, CodeFor(od.Code), sp, msg)
	if detail := od.Detail(); detail != "" {
		b.WithNote(sp, detail)
	}
	d := b.Diagnostic()
	if !valid || od.Expected == nil || od.Expected.Expected == nil || od.Expected.Got == nil {
		return d
	}
	c := &FixContext{DB: db, File: file, Range: sp, Diag: od}
	if m, ok := a.match(*od.Expected); ok {
		for _, f := range m.Build(c, *od.Expected) {
			d.AddFix(f)
		}
	}
	return d
}

// match returns the first matcher whose shape applies to st.
func (a *Adapter) match(st ExpectedSubtype) (Matcher, bool) {
	for _, m := range a.matchers {
		if m.Applies(st) {
			return m, true
		}
	}
	return Matcher{}, false
}

// ConvertAll converts every finding and sorts the result. Findings on the
// line below a `% eqwalizer:ignore` or `% eqwalizer:fixme` comment are
// dropped, as the checker itself does.
func (a *Adapter) ConvertAll(db sema.DB, file source.FileID, ods []Diagnostic) []diag.Diagnostic {
	escaped := escapedLines(db, file)
	f := db.Files().Get(file)
	out := make([]diag.Diagnostic, 0, len(ods))
	for _, od := range ods {
		d := a.Convert(db, file, od)
		if len(escaped) > 0 && escaped[f.Lines.Line(d.Primary.Start)] {
			continue
		}
		out = append(out, d)
	}
	diag.Sort(out)
	return out
}

func clampRange(db sema.DB, file source.FileID, od Diagnostic) (source.Span, bool) {
	f := db.Files().Get(file)
	if f == nil {
		return source.Span{File: file}, false
	}
	size := f.Lines.Len()
	sp := od.Span(file)
	if sp.End <= size && sp.Start <= sp.End {
		return sp, true
	}
	if sp.Start > size {
		sp.Start = size
	}
	if sp.End > size || sp.End < sp.Start {
		sp.End = size
	}
	return sp, false
}

func bothAtoms(st ExpectedSubtype) bool {
	_, exp := st.Expected.(AtomLit)
	_, got := st.Got.(AtomLit)
	return exp && got
}

// every tuple expectation lands here, the wrap itself needs {atom, Got}.
func taggedPair(st ExpectedSubtype) bool {
	_, ok := st.Expected.(Tuple)
	return ok
}

func gotAtom(st ExpectedSubtype) bool {
	_, ok := st.Got.(AtomLit)
	return ok
}

// return the expected atom, or narrow the spec to the atom returned.
func buildMismatchedAtoms(c *FixContext, st ExpectedSubtype) []diag.Fix {
	exp := st.Expected.(AtomLit)
	if exp.Name == st.Got.(AtomLit).Name {
		return nil
	}
	var fixes []diag.Fix
	if f, ok := replaceReturned(c, exp.String()); ok {
		fixes = append(fixes, f)
	}
	if f, ok := narrowSpec(c, st.Got); ok {
		fixes = append(fixes, f)
	}
	return fixes
}

// {atom, X} expected where X was returned: wrap the value.
func buildTupleWrap(c *FixContext, st ExpectedSubtype) []diag.Fix {
	exp := st.Expected.(Tuple)
	if len(exp.Elems) != 2 {
		return nil
	}
	tag, ok := exp.Elems[0].(AtomLit)
	if !ok || !Equal(exp.Elems[1], st.Got) {
		return nil
	}
	var fixes []diag.Fix
	if f, ok := replaceReturned(c, "{"+tag.String()+", "+c.Text()+"}"); ok {
		fixes = append(fixes, f)
	}
	if f, ok := narrowSpec(c, st.Got); ok {
		fixes = append(fixes, f)
	}
	return fixes
}

// an atom was returned where something wider is declared.
func buildNarrowSpec(c *FixContext, st ExpectedSubtype) []diag.Fix {
	if f, ok := narrowSpec(c, st.Got); ok {
		return []diag.Fix{f}
	}
	return nil
}

func replaceReturned(c *FixContext, text string) (diag.Fix, bool) {
	if safety.Check(c.DB, c.File, c.Range) != nil {
		return diag.Fix{}, false
	}
	return fix.ReplaceSpan(fixExpectedType, "Update returned value to '"+text+"'", c.Range, text), true
}

// narrowSpec rewrites the result slot of the enclosing function's only spec
// signature to got.
func narrowSpec(c *FixContext, got Type) (diag.Fix, bool) {
	fn := sema.EnclosingFunction(c.DB, c.File, c.Range.Start)
	if fn == nil || fn.Spec == nil || len(fn.Spec.Sigs) != 1 {
		return diag.Fix{}, false
	}
	spec := fn.Spec
	result := spec.Sigs[0].Result
	switch t := spec.Body.Type(result).(type) {
	case hir.LiteralType:
		if t.Lit.Kind != hir.LitAtom {
			return diag.Fix{}, false
		}
	case hir.TupleType:
		if len(t.Elems) != 2 {
			return diag.Fix{}, false
		}
	case hir.CallType:
		if _, ok := got.(AtomLit); !ok {
			return diag.Fix{}, false
		}
	default:
		return diag.Fix{}, false
	}
	slot := spec.Body.TypeSpan(result)
	if spec.Body.InMacro(result.Any()) || safety.Check(c.DB, c.File, slot) != nil {
		return diag.Fix{}, false
	}
	text := got.String()
	return fix.ReplaceSpan(fixExpectedType, "Update function spec to return '"+text+"'", slot, text,
		fix.WithTrigger(c.Range)), true
}
