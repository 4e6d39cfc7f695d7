package ssr

import (
	"erlfix/internal/fold"
	"erlfix/internal/hir"
	"erlfix/internal/source"
)

// Binding is the node a placeholder matched.
type Binding struct {
	ID   hir.AnyID
	Span source.Span
}

// Result is one match of a pattern.
type Result struct {
	Ctx      fold.Ctx
	Span     source.Span
	Bindings map[string]Binding
}

// Spans lists the match span followed by every binding span.
func (r Result) Spans() []source.Span {
	out := []source.Span{r.Span}
	for _, b := range r.Bindings {
		out = append(out, b.Span)
	}
	return out
}

// Matcher finds occurrences of a pattern. Text resolves node spans for the
// equality check of repeated placeholders.
type Matcher struct {
	Pattern  *Pattern
	Strategy fold.Strategy
	Text     func(source.Span) string
}

// DefaultStrategy matches against the macro expanded tree with parentheses
// transparent.
var DefaultStrategy = fold.Strategy{Macros: fold.Expand, Parens: fold.InvisibleParens}

func NewMatcher(p *Pattern, text func(source.Span) string) *Matcher {
	return &Matcher{Pattern: p, Strategy: DefaultStrategy, Text: text}
}

// FindInFunction matches every expression of fn in one traversal.
func (m *Matcher) FindInFunction(fn *hir.FunctionDef) []Result {
	return fold.FoldFunction(fn, m.Strategy, []Result(nil), fold.Callbacks[[]Result]{
		Expr: func(acc []Result, ctx fold.Ctx, _ hir.Expr) []Result {
			id, _ := ctx.ExprID()
			if r, ok := m.MatchExpr(ctx, id); ok {
				acc = append(acc, r)
			}
			return acc
		},
	})
}

// FindInModule matches every function of mod.
func (m *Matcher) FindInModule(mod *hir.Module) []Result {
	var out []Result
	for _, fn := range mod.Functions {
		out = append(out, m.FindInFunction(fn)...)
	}
	return out
}

// MatchExpr tries the pattern against one expression.
func (m *Matcher) MatchExpr(ctx fold.Ctx, id hir.ExprID) (Result, bool) {
	st := &state{m: m, body: ctx.Body, bindings: make(map[string]Binding)}
	if !st.expr(m.Pattern.Root, id) {
		return Result{}, false
	}
	return Result{Ctx: ctx, Span: ctx.Body.ExprSpan(id), Bindings: st.bindings}, true
}

type state struct {
	m        *Matcher
	body     *hir.Body
	bindings map[string]Binding
}

func (st *state) unparen(id hir.ExprID) hir.ExprID {
	if st.m.Strategy.Parens == fold.InvisibleParens {
		return st.body.UnparenExpr(id)
	}
	return id
}

// expansion follows macro calls to their expansion when expanding.
func (st *state) expansion(id hir.ExprID) hir.ExprID {
	for {
		id = st.unparen(id)
		call, ok := st.body.Expr(id).(hir.MacroCallExpr)
		if !ok || st.m.Strategy.Macros != fold.Expand || !call.Expansion.IsValid() {
			return id
		}
		id = call.Expansion
	}
}

func (st *state) bind(name string, id hir.AnyID) bool {
	sp := st.body.Span(id)
	if prev, ok := st.bindings[name]; ok {
		if st.m.Text == nil {
			return prev.ID == id
		}
		return st.m.Text(prev.Span) == st.m.Text(sp)
	}
	st.bindings[name] = Binding{ID: id, Span: sp}
	return true
}

func (st *state) expr(n Node, id hir.ExprID) bool {
	if !id.IsValid() {
		return false
	}
	id = st.expansion(id)
	switch p := n.(type) {
	case Placeholder:
		return st.bind(p.Name, id.Any())
	case Wildcard:
		return true
	case Lit:
		e, ok := st.body.Expr(id).(hir.LiteralExpr)
		return ok && literalEqual(p.Lit, e.Lit)
	case Var:
		e, ok := st.body.Expr(id).(hir.VarExpr)
		return ok && e.Name == p.Name
	case Call:
		e, ok := st.body.Expr(id).(hir.CallExpr)
		if !ok || len(e.Args) != len(p.Args) || (p.Module == nil) != !e.Module.IsValid() {
			return false
		}
		if p.Module != nil && !st.expr(p.Module, e.Module) {
			return false
		}
		if !st.expr(p.Fun, e.Fun) {
			return false
		}
		for i, a := range p.Args {
			if !st.expr(a, e.Args[i]) {
				return false
			}
		}
		return true
	case List:
		e, ok := st.body.Expr(id).(hir.ListExpr)
		if !ok || len(e.Elems) != len(p.Elems) || (p.Tail == nil) != !e.Tail.IsValid() {
			return false
		}
		for i, el := range p.Elems {
			if !st.expr(el, e.Elems[i]) {
				return false
			}
		}
		return p.Tail == nil || st.expr(p.Tail, e.Tail)
	case Tuple:
		e, ok := st.body.Expr(id).(hir.TupleExpr)
		if !ok || len(e.Elems) != len(p.Elems) {
			return false
		}
		for i, el := range p.Elems {
			if !st.expr(el, e.Elems[i]) {
				return false
			}
		}
		return true
	case Match:
		e, ok := st.body.Expr(id).(hir.MatchExpr)
		return ok && st.pat(p.Lhs, e.Lhs) && st.expr(p.Rhs, e.Rhs)
	case Binary:
		e, ok := st.body.Expr(id).(hir.BinaryExpr)
		return ok && e.Op == p.Op && st.expr(p.Lhs, e.Lhs) && st.expr(p.Rhs, e.Rhs)
	case Unary:
		e, ok := st.body.Expr(id).(hir.UnaryExpr)
		return ok && e.Op == p.Op && st.expr(p.Operand, e.Operand)
	}
	return false
}

func (st *state) pat(n Node, id hir.PatID) bool {
	if !id.IsValid() {
		return false
	}
	if st.m.Strategy.Parens == fold.InvisibleParens {
		id = st.body.UnparenPat(id)
	}
	if call, ok := st.body.Pat(id).(hir.MacroCallPat); ok && st.m.Strategy.Macros == fold.Expand && call.Expansion.IsValid() {
		return st.pat(n, call.Expansion)
	}
	switch p := n.(type) {
	case Placeholder:
		return st.bind(p.Name, id.Any())
	case Wildcard:
		return true
	case Lit:
		e, ok := st.body.Pat(id).(hir.LiteralPat)
		return ok && literalEqual(p.Lit, e.Lit)
	case Var:
		e, ok := st.body.Pat(id).(hir.VarPat)
		return ok && e.Name == p.Name
	case List:
		e, ok := st.body.Pat(id).(hir.ListPat)
		if !ok || len(e.Elems) != len(p.Elems) || (p.Tail == nil) != !e.Tail.IsValid() {
			return false
		}
		for i, el := range p.Elems {
			if !st.pat(el, e.Elems[i]) {
				return false
			}
		}
		return p.Tail == nil || st.pat(p.Tail, e.Tail)
	case Tuple:
		e, ok := st.body.Pat(id).(hir.TuplePat)
		if !ok || len(e.Elems) != len(p.Elems) {
			return false
		}
		for i, el := range p.Elems {
			if !st.pat(el, e.Elems[i]) {
				return false
			}
		}
		return true
	case Match:
		e, ok := st.body.Pat(id).(hir.MatchPat)
		return ok && st.pat(p.Lhs, e.Lhs) && st.pat(p.Rhs, e.Rhs)
	}
	return false
}

func literalEqual(a, b hir.Literal) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == hir.LitInteger {
		x, okx := a.Int()
		y, oky := b.Int()
		return okx && oky && x == y
	}
	return a.Value == b.Value
}
