package diagnostics

import (
	"erlfix/internal/diag"
	"erlfix/internal/fix"
	"erlfix/internal/fold"
	"erlfix/internal/hir"
)

var expressionCanBeSimplified = Descriptor{
	Code: diag.ExpressionCanBeSimplified,
	Conditions: Conditions{
		IncludeTests: true,
	},
	Check: checkExpressionCanBeSimplified,
}

// Parens are kept as written in operands: `0 + (X)` becomes `(X)`.
var simplifyStrategy = fold.Strategy{Macros: fold.DoNotExpand, Parens: fold.InvisibleParens}

type simplification struct {
	at          fold.Ctx
	replacement string
}

func checkExpressionCanBeSimplified(c *Context) {
	for _, fn := range c.Module.Functions {
		found := fold.FoldFunction(fn, simplifyStrategy, []simplification(nil), fold.Callbacks[[]simplification]{
			Expr: func(acc []simplification, ctx fold.Ctx, e hir.Expr) []simplification {
				if ctx.InMacro {
					return acc
				}
				if r, ok := simplify(c, ctx.Body, e); ok {
					acc = append(acc, simplification{at: ctx, replacement: r})
				}
				return acc
			},
		})
		for _, s := range found {
			if !c.SafeNode(s.at) {
				continue
			}
			sp := s.at.Span()
			diag.ReportWarning(c.Report, diag.ExpressionCanBeSimplified, sp, "Can be simplified to `"+s.replacement+"`.").
				WithCategory(diag.CatSimplificationRule).
				WithFix(fix.ReplaceSpan("simplify_expression", "Replace by `"+s.replacement+"`", sp, s.replacement)).
				Emit()
		}
	}
}

// simplify returns the source text the expression reduces to.
func simplify(c *Context, body *hir.Body, e hir.Expr) (string, bool) {
	switch e := e.(type) {
	case hir.BinaryExpr:
		if body.InMacro(body.UnparenExpr(e.Lhs).Any()) || body.InMacro(body.UnparenExpr(e.Rhs).Any()) {
			return "", false
		}
		lhs, rhs := body.ExprSpan(e.Lhs), body.ExprSpan(e.Rhs)
		switch e.Op {
		case hir.OpListAppend:
			if isNil(body, e.Lhs) {
				return c.Text(rhs), true
			}
			if isNil(body, e.Rhs) {
				return c.Text(lhs), true
			}
		case hir.OpListSubtract:
			// [] -- X is [] itself
			if isNil(body, e.Lhs) || isNil(body, e.Rhs) {
				return c.Text(lhs), true
			}
		case hir.OpAdd:
			if isInt(body, e.Lhs, 0) {
				return c.Text(rhs), true
			}
			if isInt(body, e.Rhs, 0) {
				return c.Text(lhs), true
			}
		case hir.OpSub:
			if isInt(body, e.Lhs, 0) {
				return "-" + c.Text(rhs), true
			}
			if isInt(body, e.Rhs, 0) {
				return c.Text(lhs), true
			}
		case hir.OpMul:
			if isInt(body, e.Lhs, 1) {
				return c.Text(rhs), true
			}
			if isInt(body, e.Rhs, 1) {
				return c.Text(lhs), true
			}
		case hir.OpDiv:
			if isInt(body, e.Rhs, 1) {
				return c.Text(lhs), true
			}
		case hir.OpRem:
			if isInt(body, e.Rhs, 1) {
				return "0", true
			}
		case hir.OpAndAlso:
			if isAtom(body, e.Lhs, "true") {
				return c.Text(rhs), true
			}
		case hir.OpOrElse:
			if isAtom(body, e.Lhs, "false") {
				return c.Text(rhs), true
			}
		}
	case hir.UnaryExpr:
		if e.Op != hir.UnNot || body.InMacro(body.UnparenExpr(e.Operand).Any()) {
			return "", false
		}
		if isAtom(body, e.Operand, "true") {
			return "false", true
		}
		if isAtom(body, e.Operand, "false") {
			return "true", true
		}
	}
	return "", false
}

// isNil and the other operand checks look through parens: `(0) + X` is X.
func isNil(body *hir.Body, id hir.ExprID) bool {
	l, ok := body.Expr(body.UnparenExpr(id)).(hir.ListExpr)
	return ok && len(l.Elems) == 0 && !l.Tail.IsValid()
}

func isInt(body *hir.Body, id hir.ExprID, n int64) bool {
	l, ok := body.Expr(body.UnparenExpr(id)).(hir.LiteralExpr)
	return ok && l.Lit.IsInt(n)
}

func isAtom(body *hir.Body, id hir.ExprID, name string) bool {
	l, ok := body.Expr(body.UnparenExpr(id)).(hir.LiteralExpr)
	return ok && l.Lit.IsAtom(name)
}
