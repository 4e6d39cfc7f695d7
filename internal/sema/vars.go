package sema

import (
	"erlfix/internal/fold"
	"erlfix/internal/hir"
	"erlfix/internal/source"
)

// VarOcc is one occurrence of a variable in a clause.
type VarOcc struct {
	ID      hir.AnyID
	Span    source.Span
	InMacro bool
	// Def marks the binding occurrence: the first pattern occurrence of the name.
	Def bool
}

type VarInfo struct {
	Name string
	Occs []VarOcc
}

func (v *VarInfo) Defs() []VarOcc {
	var out []VarOcc
	for _, o := range v.Occs {
		if o.Def {
			out = append(out, o)
		}
	}
	return out
}

// Uses returns every occurrence that is not the binding one.
func (v *VarInfo) Uses() []VarOcc {
	var out []VarOcc
	for _, o := range v.Occs {
		if !o.Def {
			out = append(out, o)
		}
	}
	return out
}

// ClauseVars maps variable names of one clause to their occurrences.
type ClauseVars struct {
	byName map[string]*VarInfo
	order  []string
}

func (cv *ClauseVars) Lookup(name string) (*VarInfo, bool) {
	v, ok := cv.byName[name]
	return v, ok
}

// Names returns variable names in order of first occurrence.
func (cv *ClauseVars) Names() []string {
	return cv.order
}

// DefAt returns the variable bound by the pattern id, if that pattern is its binding occurrence.
func (cv *ClauseVars) DefAt(id hir.PatID) (*VarInfo, bool) {
	for _, name := range cv.order {
		v := cv.byName[name]
		for _, o := range v.Occs {
			if o.Def && o.ID == id.Any() {
				return v, true
			}
		}
	}
	return nil, false
}

// ResolveClause walks c with macros expanded. Within one clause the first
// pattern occurrence of a name binds it; every later occurrence, in a pattern
// or an expression, refers to that binding. `_` never binds.
func ResolveClause(c *hir.Clause) *ClauseVars {
	cv := &ClauseVars{byName: make(map[string]*VarInfo)}
	if c == nil || c.Body == nil {
		return cv
	}
	s := fold.Strategy{Macros: fold.Expand, Parens: fold.InvisibleParens}
	for ctx := range fold.Walk(c.Body, c.ID, fold.ClauseRoots(c), s) {
		var name string
		isPat := false
		switch ctx.ID.Kind {
		case hir.KindPat:
			v, ok := c.Body.Pat(hir.PatID(ctx.ID.ID)).(hir.VarPat)
			if !ok || v.IsWildcard() {
				continue
			}
			name, isPat = v.Name, true
		case hir.KindExpr:
			v, ok := c.Body.Expr(hir.ExprID(ctx.ID.ID)).(hir.VarExpr)
			if !ok {
				continue
			}
			name = v.Name
		default:
			continue
		}
		info, seen := cv.byName[name]
		if !seen {
			info = &VarInfo{Name: name}
			cv.byName[name] = info
			cv.order = append(cv.order, name)
		}
		info.Occs = append(info.Occs, VarOcc{
			ID:      ctx.ID,
			Span:    ctx.Span(),
			InMacro: ctx.InMacro,
			Def:     isPat && len(info.Defs()) == 0,
		})
	}
	return cv
}
