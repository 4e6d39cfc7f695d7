package fold

import (
	"erlfix/internal/hir"
)

// Callbacks receives visited nodes by kind. Nil callbacks leave the
// accumulator unchanged.
type Callbacks[A any] struct {
	Expr func(acc A, ctx Ctx, e hir.Expr) A
	Pat  func(acc A, ctx Ctx, p hir.Pat) A
	Term func(acc A, ctx Ctx, t hir.Term) A
	Type func(acc A, ctx Ctx, t hir.TypeExpr) A
}

func (cb Callbacks[A]) step(acc A, ctx Ctx) A {
	switch ctx.ID.Kind {
	case hir.KindExpr:
		if cb.Expr != nil {
			return cb.Expr(acc, ctx, ctx.Body.Expr(hir.ExprID(ctx.ID.ID)))
		}
	case hir.KindPat:
		if cb.Pat != nil {
			return cb.Pat(acc, ctx, ctx.Body.Pat(hir.PatID(ctx.ID.ID)))
		}
	case hir.KindTerm:
		if cb.Term != nil {
			return cb.Term(acc, ctx, ctx.Body.Term(hir.TermID(ctx.ID.ID)))
		}
	case hir.KindType:
		if cb.Type != nil {
			return cb.Type(acc, ctx, ctx.Body.Type(hir.TypeExprID(ctx.ID.ID)))
		}
	}
	return acc
}

// Fold threads acc through every node reachable from roots.
func Fold[A any](body *hir.Body, clause hir.ClauseID, roots []hir.AnyID, s Strategy, init A, cb Callbacks[A]) A {
	acc := init
	for ctx := range Walk(body, clause, roots, s) {
		acc = cb.step(acc, ctx)
	}
	return acc
}

// FoldFunction folds over all clauses of fn in one pass.
func FoldFunction[A any](fn *hir.FunctionDef, s Strategy, init A, cb Callbacks[A]) A {
	acc := init
	for ctx := range WalkFunction(fn, s) {
		acc = cb.step(acc, ctx)
	}
	return acc
}

// FoldModule folds over every function of m.
func FoldModule[A any](m *hir.Module, s Strategy, init A, cb Callbacks[A]) A {
	acc := init
	for _, fn := range m.Functions {
		acc = FoldFunction(fn, s, acc, cb)
	}
	return acc
}

// FoldTerm folds over an attribute value such as the options of -compile.
func FoldTerm[A any](body *hir.Body, root hir.TermID, s Strategy, init A, cb Callbacks[A]) A {
	return Fold(body, 0, []hir.AnyID{root.Any()}, s, init, cb)
}
