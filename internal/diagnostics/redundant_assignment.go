package diagnostics

import (
	"erlfix/internal/diag"
	"erlfix/internal/fix"
	"erlfix/internal/fold"
	"erlfix/internal/hir"
	"erlfix/internal/safety"
	"erlfix/internal/sema"
)

var redundantAssignment = Descriptor{
	Code: diag.RedundantAssignment,
	Conditions: Conditions{
		Experimental: true,
		IncludeTests: true,
	},
	Check: checkRedundantAssignment,
}

var assignmentStrategy = fold.Strategy{Macros: fold.Expand, Parens: fold.InvisibleParens}

// checkRedundantAssignment finds `Y = X` where Y is a fresh variable that is
// only ever read afterwards, so every Y can become X.
func checkRedundantAssignment(c *Context) {
	for _, fn := range c.Module.Functions {
		for _, cl := range fn.Clauses {
			vars := sema.ResolveClause(cl)
			for ctx := range fold.Walk(cl.Body, cl.ID, fold.ClauseRoots(cl), assignmentStrategy) {
				id, ok := ctx.ExprID()
				if !ok || ctx.InMacro {
					continue
				}
				m, ok := cl.Body.Expr(id).(hir.MatchExpr)
				if !ok {
					continue
				}
				redundantMatch(c, ctx, vars, m)
			}
		}
	}
}

func redundantMatch(c *Context, ctx fold.Ctx, vars *sema.ClauseVars, m hir.MatchExpr) {
	body := ctx.Body
	lhsID := body.UnparenPat(m.Lhs)
	lhs, ok := body.Pat(lhsID).(hir.VarPat)
	if !ok || lhs.IsWildcard() {
		return
	}
	rhs, ok := body.Expr(body.UnparenExpr(m.Rhs)).(hir.VarExpr)
	if !ok || rhs.Name == lhs.Name || rhs.Name == "_" {
		return
	}
	info, ok := vars.Lookup(lhs.Name)
	if !ok {
		return
	}
	defs := info.Defs()
	if len(defs) != 1 || defs[0].ID != lhsID.Any() || len(info.Uses()) == 0 {
		return
	}
	b := fix.NewBuilder(c.File)
	for _, occ := range info.Occs {
		if occ.InMacro {
			c.Reject(safety.ErrInMacro)
			return
		}
		if !c.Safe(occ.Span) {
			return
		}
		b.Replace(occ.Span, rhs.Name)
	}
	sp := ctx.Span()
	fx, err := fix.FromBuilder("remove_redundant_assignment", "Use right-hand of assignment everywhere", b, sp)
	if err != nil {
		c.Reject(err)
		return
	}
	diag.ReportWeak(c.Report, diag.RedundantAssignment, sp, "assignment is redundant").
		WithCategory(diag.CatSimplificationRule).
		WithFix(fx).
		Emit()
}
