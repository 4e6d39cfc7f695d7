package hir

import (
	"erlfix/internal/source"
)

// Origin is where a node comes from. Nodes produced by expanding a macro keep
// the span of the macro call site and record the macro in Macro.
type Origin struct {
	Span  source.Span
	Macro MacroID
}

func (o Origin) InMacro() bool { return o.Macro.IsValid() }

// MacroInfo describes one macro call site inside a body.
type MacroInfo struct {
	Name string
	Span source.Span
	// DefFile is the file holding the -define; it may differ from Span.File
	// when the macro comes from an include.
	DefFile source.FileID
}

type entry[T any] struct {
	node   T
	origin Origin
}

// Body owns the nodes of one function clause, spec or attribute.
type Body struct {
	exprs  *Arena[entry[Expr]]
	pats   *Arena[entry[Pat]]
	terms  *Arena[entry[Term]]
	types  *Arena[entry[TypeExpr]]
	Macros []MacroInfo
}

func NewBody() *Body {
	return &Body{
		exprs: NewArena[entry[Expr]](16),
		pats:  NewArena[entry[Pat]](8),
		terms: NewArena[entry[Term]](0),
		types: NewArena[entry[TypeExpr]](0),
	}
}

func (b *Body) AddExpr(e Expr, o Origin) ExprID {
	return ExprID(b.exprs.Allocate(entry[Expr]{node: e, origin: o}))
}

func (b *Body) AddPat(p Pat, o Origin) PatID {
	return PatID(b.pats.Allocate(entry[Pat]{node: p, origin: o}))
}

func (b *Body) AddTerm(t Term, o Origin) TermID {
	return TermID(b.terms.Allocate(entry[Term]{node: t, origin: o}))
}

func (b *Body) AddType(t TypeExpr, o Origin) TypeExprID {
	return TypeExprID(b.types.Allocate(entry[TypeExpr]{node: t, origin: o}))
}

// AddMacro registers a macro call site and returns its id for MacroCall nodes
// and the origins of expanded nodes.
func (b *Body) AddMacro(info MacroInfo) MacroID {
	b.Macros = append(b.Macros, info)
	return MacroID(len(b.Macros)) //nolint:gosec // bounded by body size
}

func (b *Body) Macro(id MacroID) (MacroInfo, bool) {
	if !id.IsValid() || int(id) > len(b.Macros) {
		return MacroInfo{}, false
	}
	return b.Macros[id-1], true
}

// Expr returns MissingExpr for unknown ids so callers can switch without nil checks.
func (b *Body) Expr(id ExprID) Expr {
	if e, ok := b.exprs.Get(uint32(id)); ok {
		return e.node
	}
	return MissingExpr{}
}

func (b *Body) Pat(id PatID) Pat {
	if e, ok := b.pats.Get(uint32(id)); ok {
		return e.node
	}
	return MissingPat{}
}

func (b *Body) Term(id TermID) Term {
	if e, ok := b.terms.Get(uint32(id)); ok {
		return e.node
	}
	return MissingTerm{}
}

func (b *Body) Type(id TypeExprID) TypeExpr {
	if e, ok := b.types.Get(uint32(id)); ok {
		return e.node
	}
	return MissingType{}
}

// Origin returns the origin of any node; the zero Origin for unknown ids.
func (b *Body) Origin(id AnyID) Origin {
	var (
		o  Origin
		ok bool
	)
	switch id.Kind {
	case KindExpr:
		var e entry[Expr]
		e, ok = b.exprs.Get(id.ID)
		o = e.origin
	case KindPat:
		var e entry[Pat]
		e, ok = b.pats.Get(id.ID)
		o = e.origin
	case KindTerm:
		var e entry[Term]
		e, ok = b.terms.Get(id.ID)
		o = e.origin
	case KindType:
		var e entry[TypeExpr]
		e, ok = b.types.Get(id.ID)
		o = e.origin
	}
	if !ok {
		return Origin{}
	}
	return o
}

func (b *Body) Span(id AnyID) source.Span { return b.Origin(id).Span }

func (b *Body) ExprSpan(id ExprID) source.Span     { return b.Span(id.Any()) }
func (b *Body) PatSpan(id PatID) source.Span       { return b.Span(id.Any()) }
func (b *Body) TermSpan(id TermID) source.Span     { return b.Span(id.Any()) }
func (b *Body) TypeSpan(id TypeExprID) source.Span { return b.Span(id.Any()) }

// InMacro reports whether the node was produced by macro expansion or is a
// macro call itself. Text rewrites must not target such nodes.
func (b *Body) InMacro(id AnyID) bool {
	if b.Origin(id).InMacro() {
		return true
	}
	switch id.Kind {
	case KindExpr:
		_, ok := b.Expr(ExprID(id.ID)).(MacroCallExpr)
		return ok
	case KindPat:
		_, ok := b.Pat(PatID(id.ID)).(MacroCallPat)
		return ok
	case KindTerm:
		_, ok := b.Term(TermID(id.ID)).(MacroCallTerm)
		return ok
	}
	return false
}

// UnparenExpr strips any number of ParenExpr wrappers.
func (b *Body) UnparenExpr(id ExprID) ExprID {
	for {
		p, ok := b.Expr(id).(ParenExpr)
		if !ok {
			return id
		}
		id = p.Inner
	}
}

func (b *Body) UnparenPat(id PatID) PatID {
	for {
		p, ok := b.Pat(id).(ParenPat)
		if !ok {
			return id
		}
		id = p.Inner
	}
}

func (b *Body) UnparenType(id TypeExprID) TypeExprID {
	for {
		p, ok := b.Type(id).(ParenType)
		if !ok {
			return id
		}
		id = p.Inner
	}
}

// AtomValue returns the atom name if the expression (ignoring parens) is an atom literal.
func (b *Body) AtomValue(id ExprID) (string, bool) {
	lit, ok := b.Expr(b.UnparenExpr(id)).(LiteralExpr)
	if !ok || lit.Lit.Kind != LitAtom {
		return "", false
	}
	return lit.Lit.Value, true
}

// IsRemoteCall reports whether id is a call to module:fun with the given arity.
func (b *Body) IsRemoteCall(id ExprID, module, fun string, arity int) bool {
	call, ok := b.Expr(id).(CallExpr)
	if !ok || len(call.Args) != arity {
		return false
	}
	m, mok := b.AtomValue(call.Module)
	f, fok := b.AtomValue(call.Fun)
	return mok && fok && m == module && f == fun
}

// IsLocalCall reports whether id is a local call to fun with the given arity.
func (b *Body) IsLocalCall(id ExprID, fun string, arity int) bool {
	call, ok := b.Expr(id).(CallExpr)
	if !ok || call.Module.IsValid() || len(call.Args) != arity {
		return false
	}
	f, fok := b.AtomValue(call.Fun)
	return fok && f == fun
}

func (b *Body) NumExprs() int { return int(b.exprs.Len()) }
func (b *Body) NumPats() int  { return int(b.pats.Len()) }
func (b *Body) NumTerms() int { return int(b.terms.Len()) }
func (b *Body) NumTypes() int { return int(b.types.Len()) }
