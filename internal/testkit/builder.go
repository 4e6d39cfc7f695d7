package testkit

import (
	"strings"

	"erlfix/internal/hir"
	"erlfix/internal/source"
)

// Builder allocates hir nodes whose text is taken from their spans.
type Builder struct {
	src   *Source
	Body  *hir.Body
	macro hir.MacroID
}

func (b *Builder) at(sp source.Span) hir.Origin {
	return hir.Origin{Span: sp, Macro: b.macro}
}

func (b *Builder) text(sp source.Span) string {
	return b.src.FS.Text(sp)
}

func (b *Builder) literal(sp source.Span) hir.Literal {
	text := b.text(sp)
	switch {
	case text == "":
		return hir.Literal{}
	case text[0] == '\'':
		return hir.Atom(strings.Trim(text, "'"))
	case text[0] == '"':
		return hir.Literal{Kind: hir.LitString, Value: strings.Trim(text, `"`)}
	case text[0] == '$':
		return hir.Literal{Kind: hir.LitChar, Value: text[1:]}
	case text[0] >= '0' && text[0] <= '9':
		if strings.ContainsAny(text, ".eE") && !strings.Contains(text, "#") {
			return hir.Literal{Kind: hir.LitFloat, Value: text}
		}
		return hir.Integer(text)
	}
	return hir.Atom(text)
}

// Lit is an atom, number, string or char literal expression.
func (b *Builder) Lit(sp source.Span) hir.ExprID {
	return b.Body.AddExpr(hir.LiteralExpr{Lit: b.literal(sp)}, b.at(sp))
}

func (b *Builder) Var(sp source.Span) hir.ExprID {
	return b.Body.AddExpr(hir.VarExpr{Name: b.text(sp)}, b.at(sp))
}

func (b *Builder) Binary(sp source.Span, op hir.BinaryOp, lhs, rhs hir.ExprID) hir.ExprID {
	return b.Body.AddExpr(hir.BinaryExpr{Op: op, Lhs: lhs, Rhs: rhs}, b.at(sp))
}

func (b *Builder) Unary(sp source.Span, op hir.UnaryOp, operand hir.ExprID) hir.ExprID {
	return b.Body.AddExpr(hir.UnaryExpr{Op: op, Operand: operand}, b.at(sp))
}

// Call builds a call; pass hir.NoExprID as module for local calls.
func (b *Builder) Call(sp source.Span, module, fun hir.ExprID, args ...hir.ExprID) hir.ExprID {
	return b.Body.AddExpr(hir.CallExpr{Module: module, Fun: fun, Args: args}, b.at(sp))
}

func (b *Builder) List(sp source.Span, tail hir.ExprID, elems ...hir.ExprID) hir.ExprID {
	return b.Body.AddExpr(hir.ListExpr{Elems: elems, Tail: tail}, b.at(sp))
}

func (b *Builder) Tuple(sp source.Span, elems ...hir.ExprID) hir.ExprID {
	return b.Body.AddExpr(hir.TupleExpr{Elems: elems}, b.at(sp))
}

func (b *Builder) Paren(sp source.Span, inner hir.ExprID) hir.ExprID {
	return b.Body.AddExpr(hir.ParenExpr{Inner: inner}, b.at(sp))
}

func (b *Builder) Match(sp source.Span, lhs hir.PatID, rhs hir.ExprID) hir.ExprID {
	return b.Body.AddExpr(hir.MatchExpr{Lhs: lhs, Rhs: rhs}, b.at(sp))
}

// MacroCall registers a macro call at sp. Nodes allocated by expand are tagged
// as its expansion; their spans may point anywhere, including other files.
func (b *Builder) MacroCall(sp source.Span, name string, expand func(b *Builder) hir.ExprID, args ...hir.ExprID) hir.ExprID {
	m := b.Body.AddMacro(hir.MacroInfo{Name: name, Span: sp, DefFile: sp.File})
	expansion := hir.NoExprID
	if expand != nil {
		outer := b.macro
		b.macro = m
		expansion = expand(b)
		b.macro = outer
	}
	return b.Body.AddExpr(hir.MacroCallExpr{Macro: m, Args: args, Expansion: expansion}, b.at(sp))
}

func (b *Builder) PVar(sp source.Span) hir.PatID {
	return b.Body.AddPat(hir.VarPat{Name: b.text(sp)}, b.at(sp))
}

func (b *Builder) PLit(sp source.Span) hir.PatID {
	return b.Body.AddPat(hir.LiteralPat{Lit: b.literal(sp)}, b.at(sp))
}

func (b *Builder) PList(sp source.Span, tail hir.PatID, elems ...hir.PatID) hir.PatID {
	return b.Body.AddPat(hir.ListPat{Elems: elems, Tail: tail}, b.at(sp))
}

func (b *Builder) PTuple(sp source.Span, elems ...hir.PatID) hir.PatID {
	return b.Body.AddPat(hir.TuplePat{Elems: elems}, b.at(sp))
}

func (b *Builder) TLit(sp source.Span) hir.TermID {
	return b.Body.AddTerm(hir.LiteralTerm{Lit: b.literal(sp)}, b.at(sp))
}

func (b *Builder) TList(sp source.Span, elems ...hir.TermID) hir.TermID {
	return b.Body.AddTerm(hir.ListTerm{Elems: elems}, b.at(sp))
}

func (b *Builder) TTuple(sp source.Span, elems ...hir.TermID) hir.TermID {
	return b.Body.AddTerm(hir.TupleTerm{Elems: elems}, b.at(sp))
}

func (b *Builder) TyLit(sp source.Span) hir.TypeExprID {
	return b.Body.AddType(hir.LiteralType{Lit: b.literal(sp)}, b.at(sp))
}

func (b *Builder) TyVar(sp source.Span) hir.TypeExprID {
	return b.Body.AddType(hir.VarType{Name: b.text(sp)}, b.at(sp))
}

// TyCall builds `name(Args)`; the name is the text of sp up to the first '('.
func (b *Builder) TyCall(sp source.Span, args ...hir.TypeExprID) hir.TypeExprID {
	text := b.text(sp)
	name, _, _ := strings.Cut(text, "(")
	module := ""
	if m, n, ok := strings.Cut(name, ":"); ok {
		module, name = m, n
	}
	return b.Body.AddType(hir.CallType{Module: module, Name: name, Args: args}, b.at(sp))
}

func (b *Builder) TyTuple(sp source.Span, elems ...hir.TypeExprID) hir.TypeExprID {
	return b.Body.AddType(hir.TupleType{Elems: elems}, b.at(sp))
}

func (b *Builder) TyUnion(sp source.Span, alts ...hir.TypeExprID) hir.TypeExprID {
	return b.Body.AddType(hir.UnionType{Alts: alts}, b.at(sp))
}

// Clause finishes the body as a function clause.
func (b *Builder) Clause(sp source.Span, args []hir.PatID, exprs ...hir.ExprID) *hir.Clause {
	return &hir.Clause{ID: b.src.nextClause(), Span: sp, Body: b.Body, Args: args, Exprs: exprs}
}

// Compile finishes the body as a -compile attribute with options root.
func (b *Builder) Compile(sp source.Span, options hir.TermID) *hir.CompileAttribute {
	return &hir.CompileAttribute{Span: sp, Body: b.Body, Options: options}
}

// Spec finishes the body as a spec with the given signatures.
func (b *Builder) Spec(sp source.Span, name string, arity int, sigs ...hir.SpecSig) *hir.SpecDef {
	return &hir.SpecDef{Name: hir.NameArity{Name: name, Arity: arity}, Span: sp, Body: b.Body, Sigs: sigs}
}
