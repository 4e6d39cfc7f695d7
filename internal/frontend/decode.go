package frontend

import (
	"errors"
	"fmt"

	"erlfix/internal/hir"
	"erlfix/internal/source"
)

var (
	ErrVersion = errors.New("unsupported wire version")
	ErrBadTree = errors.New("malformed tree")
)

// FileResolver maps a path named by Module.Files to a file of the FileSet.
type FileResolver func(path string) (source.FileID, error)

// Decode rebuilds the structural view of file from its wire form. Every id
// and file reference is checked; the first broken one fails the decode.
func Decode(w *Module, file source.FileID, resolve FileResolver) (*hir.Module, error) {
	if w == nil {
		return nil, fmt.Errorf("%w: empty reply", ErrBadTree)
	}
	if w.Version != WireVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersion, w.Version, WireVersion)
	}
	d := &decoder{file: file}
	for _, p := range w.Files {
		id, err := resolve(p)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		d.files = append(d.files, id)
	}

	m := &hir.Module{File: file}
	if a := w.Module; a != nil {
		m.Attribute = &hir.ModuleAttribute{Name: a.Name, Span: d.span(a.Span), NameSpan: d.span(a.NameSpan)}
	}
	for _, c := range w.Compile {
		b, lim := d.body(c.Body)
		m.Compile = append(m.Compile, &hir.CompileAttribute{
			Span:    d.span(c.Span),
			Body:    b,
			Options: hir.TermID(d.ref(c.Options, lim.terms, false)),
		})
	}
	for _, inc := range w.Includes {
		kind := hir.Include
		if inc.Lib {
			kind = hir.IncludeLib
		}
		m.Includes = append(m.Includes, &hir.IncludeAttribute{
			Kind: kind, Path: inc.Path, Span: d.span(inc.Span), PathSpan: d.span(inc.PathSpan),
		})
	}
	for _, def := range w.Defines {
		m.Defines = append(m.Defines, &hir.DefineAttribute{Name: def.Name, Arity: def.Arity, Span: d.span(def.Span)})
	}
	for _, nw := range w.Nowarn {
		m.Nowarn = append(m.Nowarn, &hir.NowarnAttribute{
			Function: hir.NameArity{Name: nw.Name, Arity: nw.Arity}, Span: d.span(nw.Span),
		})
	}
	for _, ex := range w.Exports {
		attr := &hir.ExportAttribute{Types: ex.Types, Span: d.span(ex.Span), ListSpan: d.span(ex.ListSpan)}
		for _, en := range ex.Entries {
			attr.Entries = append(attr.Entries, hir.ExportEntry{
				Name: hir.NameArity{Name: en.Name, Arity: en.Arity}, Span: d.span(en.Span),
			})
		}
		m.Exports = append(m.Exports, attr)
	}
	for _, ta := range w.Types {
		m.Types = append(m.Types, &hir.TypeAlias{
			Name:     hir.NameArity{Name: ta.Name, Arity: ta.Arity},
			Opaque:   ta.Opaque,
			Span:     d.span(ta.Span),
			NameSpan: d.span(ta.NameSpan),
		})
	}
	var clauseID hir.ClauseID
	for _, fn := range w.Functions {
		def := &hir.FunctionDef{Name: hir.NameArity{Name: fn.Name, Arity: fn.Arity}, Span: d.span(fn.Span)}
		for _, c := range fn.Clauses {
			clauseID++
			def.Clauses = append(def.Clauses, d.clause(clauseID, c))
		}
		m.Functions = append(m.Functions, def)
	}
	for _, spec := range w.Specs {
		b, lim := d.body(spec.Body)
		def := &hir.SpecDef{Name: hir.NameArity{Name: spec.Name, Arity: spec.Arity}, Span: d.span(spec.Span), Body: b}
		for _, sig := range spec.Sigs {
			def.Sigs = append(def.Sigs, hir.SpecSig{
				Span:   d.span(sig.Span),
				Args:   typeRefs(d, sig.Args, lim),
				Result: hir.TypeExprID(d.ref(sig.Result, lim.types, false)),
			})
		}
		m.Specs = append(m.Specs, def)
	}
	if d.err != nil {
		return nil, d.err
	}
	m.LinkSpecs()
	return m, nil
}

// decoder keeps the first error; later calls become no-ops returning zero values.
type decoder struct {
	file  source.FileID
	files []source.FileID
	err   error
}

type limits struct {
	macros, exprs, pats, terms, types int
}

func (d *decoder) fail(format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: %s", ErrBadTree, fmt.Sprintf(format, args...))
	}
}

func (d *decoder) fileRef(n uint32) source.FileID {
	if n == 0 {
		return d.file
	}
	if int(n) > len(d.files) {
		d.fail("file reference %d out of %d", n, len(d.files))
		return d.file
	}
	return d.files[n-1]
}

func (d *decoder) span(s Span) source.Span {
	if s.End < s.Start {
		d.fail("inverted span %d..%d", s.Start, s.End)
		return source.Span{File: d.file}
	}
	return source.Span{File: d.fileRef(s.File), Start: s.Start, End: s.End}
}

// ref checks a 1-based id against an arena of n nodes.
func (d *decoder) ref(id uint32, n int, optional bool) uint32 {
	if id == 0 && optional {
		return 0
	}
	if id == 0 || int(id) > n {
		d.fail("node reference %d out of %d", id, n)
		return 0
	}
	return id
}

func (d *decoder) kids(n Node, atLeast int) []uint32 {
	if len(n.Kids) < atLeast {
		d.fail("%s node needs %d children, has %d", n.Kind, atLeast, len(n.Kids))
		return make([]uint32, atLeast)
	}
	return n.Kids
}

func (d *decoder) lit(n Node) hir.Literal {
	if n.Lit == nil || n.Lit.Kind < uint8(hir.LitAtom) || n.Lit.Kind > uint8(hir.LitChar) {
		d.fail("bad literal in %s node", n.Kind)
		return hir.Literal{}
	}
	return hir.Literal{Kind: hir.LiteralKind(n.Lit.Kind), Value: n.Lit.Value}
}

func (d *decoder) origin(n Node, lim limits) hir.Origin {
	return hir.Origin{Span: d.span(n.Span), Macro: hir.MacroID(d.ref(n.Macro, lim.macros, true))}
}

func (d *decoder) body(w Body) (*hir.Body, limits) {
	lim := limits{macros: len(w.Macros), exprs: len(w.Exprs), pats: len(w.Pats), terms: len(w.Terms), types: len(w.Types)}
	b := hir.NewBody()
	for _, m := range w.Macros {
		b.AddMacro(hir.MacroInfo{Name: m.Name, Span: d.span(m.Span), DefFile: d.fileRef(m.DefFile)})
	}
	for _, n := range w.Exprs {
		b.AddExpr(d.expr(n, lim), d.origin(n, lim))
	}
	for _, n := range w.Pats {
		b.AddPat(d.pat(n, lim), d.origin(n, lim))
	}
	for _, n := range w.Terms {
		b.AddTerm(d.term(n, lim), d.origin(n, lim))
	}
	for _, n := range w.Types {
		b.AddType(d.typ(n, lim), d.origin(n, lim))
	}
	return b, lim
}

func (d *decoder) clause(id hir.ClauseID, c Clause) *hir.Clause {
	b, lim := d.body(c.Body)
	out := &hir.Clause{ID: id, Span: d.span(c.Span), Body: b, Exprs: exprRefs(d, c.Exprs, lim)}
	for _, a := range c.Args {
		out.Args = append(out.Args, hir.PatID(d.ref(a, lim.pats, false)))
	}
	for _, g := range c.Guards {
		out.Guards = append(out.Guards, exprRefs(d, g, lim))
	}
	return out
}

func exprRefs(d *decoder, ids []uint32, lim limits) []hir.ExprID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]hir.ExprID, len(ids))
	for i, id := range ids {
		out[i] = hir.ExprID(d.ref(id, lim.exprs, false))
	}
	return out
}

func patRefs(d *decoder, ids []uint32, lim limits) []hir.PatID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]hir.PatID, len(ids))
	for i, id := range ids {
		out[i] = hir.PatID(d.ref(id, lim.pats, false))
	}
	return out
}

func termRefs(d *decoder, ids []uint32, lim limits) []hir.TermID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]hir.TermID, len(ids))
	for i, id := range ids {
		out[i] = hir.TermID(d.ref(id, lim.terms, false))
	}
	return out
}

func typeRefs(d *decoder, ids []uint32, lim limits) []hir.TypeExprID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]hir.TypeExprID, len(ids))
	for i, id := range ids {
		out[i] = hir.TypeExprID(d.ref(id, lim.types, false))
	}
	return out
}

func (d *decoder) expr(n Node, lim limits) hir.Expr {
	e := func(id uint32) hir.ExprID { return hir.ExprID(d.ref(id, lim.exprs, false)) }
	opt := func(id uint32) hir.ExprID { return hir.ExprID(d.ref(id, lim.exprs, true)) }
	switch n.Kind {
	case "lit":
		return hir.LiteralExpr{Lit: d.lit(n)}
	case "var":
		return hir.VarExpr{Name: n.Name}
	case "match":
		k := d.kids(n, 2)
		return hir.MatchExpr{Lhs: hir.PatID(d.ref(k[0], lim.pats, false)), Rhs: e(k[1])}
	case "binop":
		op, ok := hir.ParseBinaryOp(n.Name)
		if !ok {
			d.fail("unknown binary operator %q", n.Name)
		}
		k := d.kids(n, 2)
		return hir.BinaryExpr{Op: op, Lhs: e(k[0]), Rhs: e(k[1])}
	case "unop":
		op, ok := hir.ParseUnaryOp(n.Name)
		if !ok {
			d.fail("unknown unary operator %q", n.Name)
		}
		k := d.kids(n, 1)
		return hir.UnaryExpr{Op: op, Operand: e(k[0])}
	case "call":
		k := d.kids(n, 2)
		return hir.CallExpr{Module: opt(k[0]), Fun: e(k[1]), Args: exprRefs(d, k[2:], lim)}
	case "list":
		k := d.kids(n, 1)
		return hir.ListExpr{Tail: opt(k[0]), Elems: exprRefs(d, k[1:], lim)}
	case "tuple":
		return hir.TupleExpr{Elems: exprRefs(d, n.Kids, lim)}
	case "paren":
		return hir.ParenExpr{Inner: e(d.kids(n, 1)[0])}
	case "macro":
		k := d.kids(n, 1)
		return hir.MacroCallExpr{
			Macro:     hir.MacroID(d.ref(n.Ref, lim.macros, false)),
			Expansion: opt(k[0]),
			Args:      exprRefs(d, k[1:], lim),
		}
	case "case":
		out := hir.CaseExpr{Scrutinee: e(d.kids(n, 1)[0])}
		for _, c := range n.Clauses {
			cr := hir.CRClause{Pat: hir.PatID(d.ref(c.Pat, lim.pats, false)), Body: exprRefs(d, c.Body, lim)}
			for _, g := range c.Guards {
				cr.Guards = append(cr.Guards, exprRefs(d, g, lim))
			}
			out.Clauses = append(out.Clauses, cr)
		}
		return out
	case "block":
		return hir.BlockExpr{Exprs: exprRefs(d, n.Kids, lim)}
	case "missing":
		return hir.MissingExpr{}
	}
	d.fail("unknown expression kind %q", n.Kind)
	return hir.MissingExpr{}
}

func (d *decoder) pat(n Node, lim limits) hir.Pat {
	p := func(id uint32) hir.PatID { return hir.PatID(d.ref(id, lim.pats, false)) }
	switch n.Kind {
	case "lit":
		return hir.LiteralPat{Lit: d.lit(n)}
	case "var":
		return hir.VarPat{Name: n.Name}
	case "match":
		k := d.kids(n, 2)
		return hir.MatchPat{Lhs: p(k[0]), Rhs: p(k[1])}
	case "list":
		k := d.kids(n, 1)
		return hir.ListPat{Tail: hir.PatID(d.ref(k[0], lim.pats, true)), Elems: patRefs(d, k[1:], lim)}
	case "tuple":
		return hir.TuplePat{Elems: patRefs(d, n.Kids, lim)}
	case "paren":
		return hir.ParenPat{Inner: p(d.kids(n, 1)[0])}
	case "macro":
		k := d.kids(n, 1)
		return hir.MacroCallPat{Macro: hir.MacroID(d.ref(n.Ref, lim.macros, false)), Expansion: hir.PatID(d.ref(k[0], lim.pats, true))}
	case "missing":
		return hir.MissingPat{}
	}
	d.fail("unknown pattern kind %q", n.Kind)
	return hir.MissingPat{}
}

func (d *decoder) term(n Node, lim limits) hir.Term {
	switch n.Kind {
	case "lit":
		return hir.LiteralTerm{Lit: d.lit(n)}
	case "list":
		k := d.kids(n, 1)
		return hir.ListTerm{Tail: hir.TermID(d.ref(k[0], lim.terms, true)), Elems: termRefs(d, k[1:], lim)}
	case "tuple":
		return hir.TupleTerm{Elems: termRefs(d, n.Kids, lim)}
	case "macro":
		k := d.kids(n, 1)
		return hir.MacroCallTerm{Macro: hir.MacroID(d.ref(n.Ref, lim.macros, false)), Expansion: hir.TermID(d.ref(k[0], lim.terms, true))}
	case "missing":
		return hir.MissingTerm{}
	}
	d.fail("unknown term kind %q", n.Kind)
	return hir.MissingTerm{}
}

func (d *decoder) typ(n Node, lim limits) hir.TypeExpr {
	switch n.Kind {
	case "lit":
		return hir.LiteralType{Lit: d.lit(n)}
	case "var":
		return hir.VarType{Name: n.Name}
	case "tcall":
		return hir.CallType{Module: n.Module, Name: n.Name, Args: typeRefs(d, n.Kids, lim)}
	case "tuple":
		return hir.TupleType{Elems: typeRefs(d, n.Kids, lim)}
	case "list":
		return hir.ListType{Elem: hir.TypeExprID(d.ref(d.kids(n, 1)[0], lim.types, false))}
	case "union":
		return hir.UnionType{Alts: typeRefs(d, n.Kids, lim)}
	case "paren":
		return hir.ParenType{Inner: hir.TypeExprID(d.ref(d.kids(n, 1)[0], lim.types, false))}
	case "missing":
		return hir.MissingType{}
	}
	d.fail("unknown type kind %q", n.Kind)
	return hir.MissingType{}
}
