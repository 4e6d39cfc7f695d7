package diagnostics

import (
	"erlfix/internal/diag"
	"erlfix/internal/fix"
	"erlfix/internal/fold"
	"erlfix/internal/hir"
	"erlfix/internal/sema"
	"erlfix/internal/source"
)

var compileWarnMissingSpec = Descriptor{
	Code: diag.MissingCompileWarnMissingSpec,
	Conditions: Conditions{
		DefaultDisabled: true,
	},
	Check: checkCompileWarnMissingSpec,
}

const (
	warnMissingSpecAll     = "warn_missing_spec_all"
	missingSpecMessage     = `Please add "-compile(warn_missing_spec_all)." to the module. If exported functions are not all specced, they need to be specced.`
	addMissingSpecAllID    = "add_warn_missing_spec_all"
	addMissingSpecAllLabel = "Add compile option 'warn_missing_spec_all'"
)

type specOption uint8

const (
	specNo specOption = iota
	specExported
	specAll
)

// specFound is the option an attribute settles on. Later atoms in one
// attribute override earlier ones, as the compiler reads them.
type specFound struct {
	what specOption
	attr *hir.CompileAttribute
	atom hir.TermID
	// atom is a plain warn_missing_spec, which can be upgraded in place
	upgradable bool
}

var compileStrategy = fold.Strategy{Macros: fold.Expand, Parens: fold.InvisibleParens}

func checkCompileWarnMissingSpec(c *Context) {
	if c.DB.Kind(c.File) != sema.KindModule {
		return
	}
	m := c.Module
	if len(m.Compile) == 0 {
		reportNoCompileAttribute(c)
		return
	}

	var found specFound
	for _, attr := range m.Compile {
		res := scanCompileOptions(c.Tables, attr)
		if res.what != specNo {
			found = res
			found.attr = attr
			break
		}
	}
	if found.what == specAll {
		return
	}

	first := m.Compile[0]
	b := diag.ReportError(c.Report, diag.MissingCompileWarnMissingSpec, first.Span, missingSpecMessage)
	if fx, ok := addSpecAllFix(c, first, found); ok {
		b.WithFix(fx)
	}
	b.Emit()
}

func scanCompileOptions(tables *Tables, attr *hir.CompileAttribute) specFound {
	return fold.FoldTerm(attr.Body, attr.Options, compileStrategy, specFound{}, fold.Callbacks[specFound]{
		Term: func(acc specFound, ctx fold.Ctx, t hir.Term) specFound {
			lit, ok := t.(hir.LiteralTerm)
			if !ok || lit.Lit.Kind != hir.LitAtom {
				return acc
			}
			id, _ := ctx.TermID()
			if _, ok := tables.MissingSpecAll[lit.Lit.Value]; ok {
				return specFound{what: specAll, atom: id}
			}
			if _, ok := tables.MissingSpec[lit.Lit.Value]; ok {
				return specFound{what: specExported, atom: id, upgradable: lit.Lit.Value == "warn_missing_spec" && !ctx.InMacro}
			}
			return acc
		},
	})
}

func reportNoCompileAttribute(c *Context) {
	file := source.Span{File: c.File}
	var fx diag.Fix
	if attr := c.Module.Attribute; attr != nil {
		fx = fix.InsertText(addMissingSpecAllID, addMissingSpecAllLabel, c.File, attr.Span.End,
			"\n-compile(["+warnMissingSpecAll+"]).\n", fix.WithTrigger(attr.Span))
	} else {
		fx = fix.InsertText(addMissingSpecAllID, addMissingSpecAllLabel, c.File, 0,
			"-compile(["+warnMissingSpecAll+"]).\n")
	}
	diag.ReportError(c.Report, diag.MissingCompileWarnMissingSpec, file, missingSpecMessage).
		WholeFile().
		WithFix(fx).
		Emit()
}

// addSpecAllFix upgrades a warn_missing_spec atom in place, or appends the
// option to the first compile attribute.
func addSpecAllFix(c *Context, first *hir.CompileAttribute, found specFound) (diag.Fix, bool) {
	if found.what == specExported && found.upgradable {
		sp := found.attr.Body.TermSpan(found.atom)
		if c.Safe(sp) {
			return fix.ReplaceSpan(addMissingSpecAllID, addMissingSpecAllLabel, sp, warnMissingSpecAll,
				fix.WithTrigger(first.Span)), true
		}
		return diag.Fix{}, false
	}

	body := first.Body
	opts := first.Options
	sp := body.TermSpan(opts)
	if !opts.IsValid() || body.InMacro(opts.Any()) || !c.Safe(sp) {
		return diag.Fix{}, false
	}
	switch t := body.Term(opts).(type) {
	case hir.ListTerm:
		if len(t.Elems) == 0 {
			return fix.ReplaceSpan(addMissingSpecAllID, addMissingSpecAllLabel, sp, "["+warnMissingSpecAll+"]",
				fix.WithTrigger(first.Span)), true
		}
		last := body.TermSpan(t.Elems[len(t.Elems)-1])
		return fix.InsertText(addMissingSpecAllID, addMissingSpecAllLabel, c.File, last.End, ", "+warnMissingSpecAll,
			fix.WithTrigger(first.Span)), true
	case hir.LiteralTerm, hir.TupleTerm:
		return fix.ReplaceSpan(addMissingSpecAllID, addMissingSpecAllLabel, sp, "["+c.Text(sp)+", "+warnMissingSpecAll+"]",
			fix.WithTrigger(first.Span)), true
	}
	return diag.Fix{}, false
}
