package fold

import (
	"iter"

	"erlfix/internal/hir"
	"erlfix/internal/source"
)

// Ctx describes one visited node.
type Ctx struct {
	Body   *hir.Body
	Clause hir.ClauseID
	ID     hir.AnyID
	// InMacro is set for nodes coming from a macro expansion, and for macro
	// call nodes themselves.
	InMacro bool
	// Macro is the innermost enclosing macro call, if any.
	Macro hir.MacroID
}

func (c Ctx) Span() source.Span { return c.Body.Span(c.ID) }

func (c Ctx) ExprID() (hir.ExprID, bool) {
	return hir.ExprID(c.ID.ID), c.ID.Kind == hir.KindExpr
}

func (c Ctx) PatID() (hir.PatID, bool) {
	return hir.PatID(c.ID.ID), c.ID.Kind == hir.KindPat
}

func (c Ctx) TermID() (hir.TermID, bool) {
	return hir.TermID(c.ID.ID), c.ID.Kind == hir.KindTerm
}

func (c Ctx) TypeID() (hir.TypeExprID, bool) {
	return hir.TypeExprID(c.ID.ID), c.ID.Kind == hir.KindType
}

// ClauseRoots lists the top-level nodes of a clause: arguments, guards, body.
func ClauseRoots(c *hir.Clause) []hir.AnyID {
	roots := make([]hir.AnyID, 0, len(c.Args)+len(c.Exprs))
	for _, p := range c.Args {
		roots = append(roots, p.Any())
	}
	for _, g := range c.Guards {
		for _, e := range g {
			roots = append(roots, e.Any())
		}
	}
	for _, e := range c.Exprs {
		roots = append(roots, e.Any())
	}
	return roots
}

// Walk is a lazy pre-order traversal of the nodes reachable from roots.
func Walk(body *hir.Body, clause hir.ClauseID, roots []hir.AnyID, s Strategy) iter.Seq[Ctx] {
	return func(yield func(Ctx) bool) {
		w := walker{body: body, clause: clause, strategy: s, yield: yield}
		for _, root := range roots {
			if !w.visit(root, false, hir.NoMacroID) {
				return
			}
		}
	}
}

// WalkFunction walks every clause of fn in order.
func WalkFunction(fn *hir.FunctionDef, s Strategy) iter.Seq[Ctx] {
	return func(yield func(Ctx) bool) {
		for _, c := range fn.Clauses {
			for ctx := range Walk(c.Body, c.ID, ClauseRoots(c), s) {
				if !yield(ctx) {
					return
				}
			}
		}
	}
}

type walker struct {
	body     *hir.Body
	clause   hir.ClauseID
	strategy Strategy
	yield    func(Ctx) bool
}

func (w *walker) emit(id hir.AnyID, inMacro bool, macro hir.MacroID) bool {
	o := w.body.Origin(id)
	if o.InMacro() {
		inMacro = true
		if !macro.IsValid() {
			macro = o.Macro
		}
	}
	return w.yield(Ctx{Body: w.body, Clause: w.clause, ID: id, InMacro: inMacro, Macro: macro})
}

// visit returns false once the consumer stops the iteration.
func (w *walker) visit(id hir.AnyID, inMacro bool, macro hir.MacroID) bool {
	if !id.IsValid() {
		return true
	}
	switch id.Kind {
	case hir.KindExpr:
		return w.expr(hir.ExprID(id.ID), inMacro, macro)
	case hir.KindPat:
		return w.pat(hir.PatID(id.ID), inMacro, macro)
	case hir.KindTerm:
		return w.term(hir.TermID(id.ID), inMacro, macro)
	case hir.KindType:
		return w.typ(hir.TypeExprID(id.ID), inMacro, macro)
	}
	return true
}

func (w *walker) exprs(ids []hir.ExprID, inMacro bool, macro hir.MacroID) bool {
	for _, id := range ids {
		if !w.expr(id, inMacro, macro) {
			return false
		}
	}
	return true
}

func (w *walker) pats(ids []hir.PatID, inMacro bool, macro hir.MacroID) bool {
	for _, id := range ids {
		if !w.pat(id, inMacro, macro) {
			return false
		}
	}
	return true
}

func (w *walker) expr(id hir.ExprID, inMacro bool, macro hir.MacroID) bool {
	if !id.IsValid() {
		return true
	}
	node := w.body.Expr(id)
	if call, ok := node.(hir.MacroCallExpr); ok {
		if w.strategy.Macros == Expand && call.Expansion.IsValid() {
			return w.expr(call.Expansion, true, call.Macro)
		}
		if !w.emit(id.Any(), true, call.Macro) {
			return false
		}
		return w.exprs(call.Args, inMacro, macro)
	}
	if paren, ok := node.(hir.ParenExpr); ok && w.strategy.Parens == InvisibleParens {
		return w.expr(paren.Inner, inMacro, macro)
	}
	if !w.emit(id.Any(), inMacro, macro) {
		return false
	}
	switch e := node.(type) {
	case hir.MatchExpr:
		return w.pat(e.Lhs, inMacro, macro) && w.expr(e.Rhs, inMacro, macro)
	case hir.BinaryExpr:
		return w.expr(e.Lhs, inMacro, macro) && w.expr(e.Rhs, inMacro, macro)
	case hir.UnaryExpr:
		return w.expr(e.Operand, inMacro, macro)
	case hir.CallExpr:
		return w.expr(e.Module, inMacro, macro) && w.expr(e.Fun, inMacro, macro) && w.exprs(e.Args, inMacro, macro)
	case hir.ListExpr:
		return w.exprs(e.Elems, inMacro, macro) && w.expr(e.Tail, inMacro, macro)
	case hir.TupleExpr:
		return w.exprs(e.Elems, inMacro, macro)
	case hir.ParenExpr:
		return w.expr(e.Inner, inMacro, macro)
	case hir.CaseExpr:
		if !w.expr(e.Scrutinee, inMacro, macro) {
			return false
		}
		for _, cl := range e.Clauses {
			if !w.pat(cl.Pat, inMacro, macro) {
				return false
			}
			for _, g := range cl.Guards {
				if !w.exprs(g, inMacro, macro) {
					return false
				}
			}
			if !w.exprs(cl.Body, inMacro, macro) {
				return false
			}
		}
	case hir.BlockExpr:
		return w.exprs(e.Exprs, inMacro, macro)
	}
	return true
}

func (w *walker) pat(id hir.PatID, inMacro bool, macro hir.MacroID) bool {
	if !id.IsValid() {
		return true
	}
	node := w.body.Pat(id)
	if call, ok := node.(hir.MacroCallPat); ok {
		if w.strategy.Macros == Expand && call.Expansion.IsValid() {
			return w.pat(call.Expansion, true, call.Macro)
		}
		return w.emit(id.Any(), true, call.Macro)
	}
	if paren, ok := node.(hir.ParenPat); ok && w.strategy.Parens == InvisibleParens {
		return w.pat(paren.Inner, inMacro, macro)
	}
	if !w.emit(id.Any(), inMacro, macro) {
		return false
	}
	switch p := node.(type) {
	case hir.MatchPat:
		return w.pat(p.Lhs, inMacro, macro) && w.pat(p.Rhs, inMacro, macro)
	case hir.ListPat:
		return w.pats(p.Elems, inMacro, macro) && w.pat(p.Tail, inMacro, macro)
	case hir.TuplePat:
		return w.pats(p.Elems, inMacro, macro)
	case hir.ParenPat:
		return w.pat(p.Inner, inMacro, macro)
	}
	return true
}

func (w *walker) term(id hir.TermID, inMacro bool, macro hir.MacroID) bool {
	if !id.IsValid() {
		return true
	}
	node := w.body.Term(id)
	if call, ok := node.(hir.MacroCallTerm); ok {
		if w.strategy.Macros == Expand && call.Expansion.IsValid() {
			return w.term(call.Expansion, true, call.Macro)
		}
		return w.emit(id.Any(), true, call.Macro)
	}
	if !w.emit(id.Any(), inMacro, macro) {
		return false
	}
	switch t := node.(type) {
	case hir.ListTerm:
		for _, el := range t.Elems {
			if !w.term(el, inMacro, macro) {
				return false
			}
		}
		return w.term(t.Tail, inMacro, macro)
	case hir.TupleTerm:
		for _, el := range t.Elems {
			if !w.term(el, inMacro, macro) {
				return false
			}
		}
	}
	return true
}

func (w *walker) typ(id hir.TypeExprID, inMacro bool, macro hir.MacroID) bool {
	if !id.IsValid() {
		return true
	}
	node := w.body.Type(id)
	if paren, ok := node.(hir.ParenType); ok && w.strategy.Parens == InvisibleParens {
		return w.typ(paren.Inner, inMacro, macro)
	}
	if !w.emit(id.Any(), inMacro, macro) {
		return false
	}
	var children []hir.TypeExprID
	switch t := node.(type) {
	case hir.CallType:
		children = t.Args
	case hir.TupleType:
		children = t.Elems
	case hir.ListType:
		children = []hir.TypeExprID{t.Elem}
	case hir.UnionType:
		children = t.Alts
	case hir.ParenType:
		children = []hir.TypeExprID{t.Inner}
	}
	for _, c := range children {
		if !w.typ(c, inMacro, macro) {
			return false
		}
	}
	return true
}
