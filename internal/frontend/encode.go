package frontend

import (
	"erlfix/internal/hir"
	"erlfix/internal/source"
)

// Encode is the inverse of Decode. Parse services written in Go and the
// tests use it; paths of files other than m.File come from fs.
func Encode(m *hir.Module, fs *source.FileSet) *Module {
	e := &encoder{fs: fs, file: m.File, index: map[source.FileID]uint32{}}
	w := &Module{Version: WireVersion}
	if a := m.Attribute; a != nil {
		w.Module = &ModuleAttr{Name: a.Name, Span: e.span(a.Span), NameSpan: e.span(a.NameSpan)}
	}
	for _, c := range m.Compile {
		w.Compile = append(w.Compile, Compile{Span: e.span(c.Span), Body: e.body(c.Body), Options: uint32(c.Options)})
	}
	for _, inc := range m.Includes {
		w.Includes = append(w.Includes, Include{
			Lib: inc.Kind == hir.IncludeLib, Path: inc.Path, Span: e.span(inc.Span), PathSpan: e.span(inc.PathSpan),
		})
	}
	for _, def := range m.Defines {
		w.Defines = append(w.Defines, Define{Name: def.Name, Arity: def.Arity, Span: e.span(def.Span)})
	}
	for _, nw := range m.Nowarn {
		w.Nowarn = append(w.Nowarn, Nowarn{Name: nw.Function.Name, Arity: nw.Function.Arity, Span: e.span(nw.Span)})
	}
	for _, ex := range m.Exports {
		wx := Export{Types: ex.Types, Span: e.span(ex.Span), ListSpan: e.span(ex.ListSpan)}
		for _, en := range ex.Entries {
			wx.Entries = append(wx.Entries, ExportEntry{Name: en.Name.Name, Arity: en.Name.Arity, Span: e.span(en.Span)})
		}
		w.Exports = append(w.Exports, wx)
	}
	for _, ta := range m.Types {
		w.Types = append(w.Types, TypeAlias{
			Name: ta.Name.Name, Arity: ta.Name.Arity, Opaque: ta.Opaque, Span: e.span(ta.Span), NameSpan: e.span(ta.NameSpan),
		})
	}
	for _, fn := range m.Functions {
		wf := Function{Name: fn.Name.Name, Arity: fn.Name.Arity, Span: e.span(fn.Span)}
		for _, c := range fn.Clauses {
			wc := Clause{Span: e.span(c.Span), Body: e.body(c.Body), Exprs: ids(c.Exprs)}
			wc.Args = ids(c.Args)
			for _, g := range c.Guards {
				wc.Guards = append(wc.Guards, ids(g))
			}
			wf.Clauses = append(wf.Clauses, wc)
		}
		w.Functions = append(w.Functions, wf)
	}
	for _, spec := range m.Specs {
		ws := Spec{Name: spec.Name.Name, Arity: spec.Name.Arity, Span: e.span(spec.Span), Body: e.body(spec.Body)}
		for _, sig := range spec.Sigs {
			ws.Sigs = append(ws.Sigs, Sig{Span: e.span(sig.Span), Args: ids(sig.Args), Result: uint32(sig.Result)})
		}
		w.Specs = append(w.Specs, ws)
	}
	w.Files = e.files
	return w
}

type encoder struct {
	fs    *source.FileSet
	file  source.FileID
	index map[source.FileID]uint32
	files []string
}

func (e *encoder) fileRef(id source.FileID) uint32 {
	if id == e.file {
		return 0
	}
	if n, ok := e.index[id]; ok {
		return n
	}
	path := ""
	if f := e.fs.Get(id); f != nil {
		path = f.Path
	}
	e.files = append(e.files, path)
	n := uint32(len(e.files)) //nolint:gosec // a handful of headers
	e.index[id] = n
	return n
}

func (e *encoder) span(sp source.Span) Span {
	return Span{File: e.fileRef(sp.File), Start: sp.Start, End: sp.End}
}

func ids[T ~uint32](in []T) []uint32 {
	if len(in) == 0 {
		return nil
	}
	out := make([]uint32, len(in))
	for i, id := range in {
		out[i] = uint32(id)
	}
	return out
}

func lit(l hir.Literal) *Lit {
	return &Lit{Kind: uint8(l.Kind), Value: l.Value}
}

func (e *encoder) node(kind string, o hir.Origin) Node {
	return Node{Kind: kind, Span: e.span(o.Span), Macro: uint32(o.Macro)}
}

func (e *encoder) body(b *hir.Body) Body {
	var w Body
	if b == nil {
		return w
	}
	for _, m := range b.Macros {
		w.Macros = append(w.Macros, Macro{Name: m.Name, Span: e.span(m.Span), DefFile: e.fileRef(m.DefFile)})
	}
	for i := 1; i <= b.NumExprs(); i++ {
		id := hir.ExprID(i) //nolint:gosec // bounded by NumExprs
		w.Exprs = append(w.Exprs, e.expr(b.Expr(id), b.Origin(id.Any())))
	}
	for i := 1; i <= b.NumPats(); i++ {
		id := hir.PatID(i) //nolint:gosec // bounded by NumPats
		w.Pats = append(w.Pats, e.pat(b.Pat(id), b.Origin(id.Any())))
	}
	for i := 1; i <= b.NumTerms(); i++ {
		id := hir.TermID(i) //nolint:gosec // bounded by NumTerms
		w.Terms = append(w.Terms, e.term(b.Term(id), b.Origin(id.Any())))
	}
	for i := 1; i <= b.NumTypes(); i++ {
		id := hir.TypeExprID(i) //nolint:gosec // bounded by NumTypes
		w.Types = append(w.Types, e.typ(b.Type(id), b.Origin(id.Any())))
	}
	return w
}

func (e *encoder) expr(x hir.Expr, o hir.Origin) Node {
	switch x := x.(type) {
	case hir.LiteralExpr:
		n := e.node("lit", o)
		n.Lit = lit(x.Lit)
		return n
	case hir.VarExpr:
		n := e.node("var", o)
		n.Name = x.Name
		return n
	case hir.MatchExpr:
		n := e.node("match", o)
		n.Kids = []uint32{uint32(x.Lhs), uint32(x.Rhs)}
		return n
	case hir.BinaryExpr:
		n := e.node("binop", o)
		n.Name = x.Op.String()
		n.Kids = []uint32{uint32(x.Lhs), uint32(x.Rhs)}
		return n
	case hir.UnaryExpr:
		n := e.node("unop", o)
		n.Name = x.Op.String()
		n.Kids = []uint32{uint32(x.Operand)}
		return n
	case hir.CallExpr:
		n := e.node("call", o)
		n.Kids = append([]uint32{uint32(x.Module), uint32(x.Fun)}, ids(x.Args)...)
		return n
	case hir.ListExpr:
		n := e.node("list", o)
		n.Kids = append([]uint32{uint32(x.Tail)}, ids(x.Elems)...)
		return n
	case hir.TupleExpr:
		n := e.node("tuple", o)
		n.Kids = ids(x.Elems)
		return n
	case hir.ParenExpr:
		n := e.node("paren", o)
		n.Kids = []uint32{uint32(x.Inner)}
		return n
	case hir.MacroCallExpr:
		n := e.node("macro", o)
		n.Ref = uint32(x.Macro)
		n.Kids = append([]uint32{uint32(x.Expansion)}, ids(x.Args)...)
		return n
	case hir.CaseExpr:
		n := e.node("case", o)
		n.Kids = []uint32{uint32(x.Scrutinee)}
		for _, c := range x.Clauses {
			cr := CRClause{Pat: uint32(c.Pat), Body: ids(c.Body)}
			for _, g := range c.Guards {
				cr.Guards = append(cr.Guards, ids(g))
			}
			n.Clauses = append(n.Clauses, cr)
		}
		return n
	case hir.BlockExpr:
		n := e.node("block", o)
		n.Kids = ids(x.Exprs)
		return n
	}
	return e.node("missing", o)
}

func (e *encoder) pat(p hir.Pat, o hir.Origin) Node {
	switch p := p.(type) {
	case hir.LiteralPat:
		n := e.node("lit", o)
		n.Lit = lit(p.Lit)
		return n
	case hir.VarPat:
		n := e.node("var", o)
		n.Name = p.Name
		return n
	case hir.MatchPat:
		n := e.node("match", o)
		n.Kids = []uint32{uint32(p.Lhs), uint32(p.Rhs)}
		return n
	case hir.ListPat:
		n := e.node("list", o)
		n.Kids = append([]uint32{uint32(p.Tail)}, ids(p.Elems)...)
		return n
	case hir.TuplePat:
		n := e.node("tuple", o)
		n.Kids = ids(p.Elems)
		return n
	case hir.ParenPat:
		n := e.node("paren", o)
		n.Kids = []uint32{uint32(p.Inner)}
		return n
	case hir.MacroCallPat:
		n := e.node("macro", o)
		n.Ref = uint32(p.Macro)
		n.Kids = []uint32{uint32(p.Expansion)}
		return n
	}
	return e.node("missing", o)
}

func (e *encoder) term(t hir.Term, o hir.Origin) Node {
	switch t := t.(type) {
	case hir.LiteralTerm:
		n := e.node("lit", o)
		n.Lit = lit(t.Lit)
		return n
	case hir.ListTerm:
		n := e.node("list", o)
		n.Kids = append([]uint32{uint32(t.Tail)}, ids(t.Elems)...)
		return n
	case hir.TupleTerm:
		n := e.node("tuple", o)
		n.Kids = ids(t.Elems)
		return n
	case hir.MacroCallTerm:
		n := e.node("macro", o)
		n.Ref = uint32(t.Macro)
		n.Kids = []uint32{uint32(t.Expansion)}
		return n
	}
	return e.node("missing", o)
}

func (e *encoder) typ(t hir.TypeExpr, o hir.Origin) Node {
	switch t := t.(type) {
	case hir.LiteralType:
		n := e.node("lit", o)
		n.Lit = lit(t.Lit)
		return n
	case hir.VarType:
		n := e.node("var", o)
		n.Name = t.Name
		return n
	case hir.CallType:
		n := e.node("tcall", o)
		n.Module, n.Name = t.Module, t.Name
		n.Kids = ids(t.Args)
		return n
	case hir.TupleType:
		n := e.node("tuple", o)
		n.Kids = ids(t.Elems)
		return n
	case hir.ListType:
		n := e.node("list", o)
		n.Kids = []uint32{uint32(t.Elem)}
		return n
	case hir.UnionType:
		n := e.node("union", o)
		n.Kids = ids(t.Alts)
		return n
	case hir.ParenType:
		n := e.node("paren", o)
		n.Kids = []uint32{uint32(t.Inner)}
		return n
	}
	return e.node("missing", o)
}
