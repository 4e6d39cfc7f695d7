package frontend

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"testing"

	"erlfix/internal/hir"
	"erlfix/internal/source"
	"erlfix/internal/testkit"
)

const sampleText = `-module(m).
-include("m.hrl").
-compile([export_all, {inline, [f/1]}]).
-spec f(integer()) -> ok | error.
f(X) when X > 0 -> [H|_] = ?LIST(X), H;
f(_) -> case g() of {ok, V} -> V end.
-type t() :: ok.
-export_type([t/0]).
`

const headerText = "-define(LIST(X), lists:reverse([X])).\n"

func sampleModule(t *testing.T) (*testkit.Source, *hir.Module) {
	t.Helper()
	src := testkit.NewSource("/ws/src/m.erl", sampleText)
	hdr := src.Add("/ws/src/m.hrl", headerText)

	cb := src.Body()
	opts := cb.TList(src.Span("[export_all, {inline, [f/1]}]"),
		cb.TLit(src.Span("export_all")),
		cb.TTuple(src.Span("{inline, [f/1]}"), cb.TLit(src.Span("inline")), cb.TList(src.Span("[f/1]"))))
	compile := cb.Compile(src.Span("-compile([export_all, {inline, [f/1]}])."), opts)

	sb := src.Body()
	result := sb.TyUnion(src.Span("ok | error"), sb.TyLit(src.Span("ok")), sb.TyLit(src.Span("error")))
	spec := sb.Spec(src.Span("-spec f(integer()) -> ok | error."), "f", 1,
		hir.SpecSig{Span: src.Span("(integer()) -> ok | error"), Args: []hir.TypeExprID{sb.TyCall(src.Span("integer()"))}, Result: result})

	b1 := src.Body()
	x := b1.PVar(src.SpanN("X", 0))
	guard := b1.Binary(src.Span("X > 0"), hir.OpGt, b1.Var(src.SpanN("X", 1)), b1.Lit(src.Span("0")))
	list := b1.MacroCall(src.Span("?LIST(X)"), "LIST", func(b *testkit.Builder) hir.ExprID {
		inner := b.List(hdr.Span("[X]"), hir.NoExprID, b.Var(hdr.SpanN("X", 1)))
		return b.Call(hdr.Span("lists:reverse([X])"), b.Lit(hdr.Span("lists")), b.Lit(hdr.Span("reverse")), inner)
	}, b1.Var(src.SpanN("X", 2)))
	pat := b1.PList(src.Span("[H|_]"), b1.PVar(src.SpanN("_", 1)), b1.PVar(src.SpanN("H", 0)))
	match := b1.Match(src.Span("[H|_] = ?LIST(X)"), pat, list)
	c1 := b1.Clause(src.Span("f(X) when X > 0 -> [H|_] = ?LIST(X), H;"), []hir.PatID{x}, match, b1.Var(src.SpanN("H", 1)))
	c1.Guards = [][]hir.ExprID{{guard}}

	b2 := src.Body()
	callSp := src.Span("g()")
	call := b2.Call(callSp, hir.NoExprID, b2.Lit(source.Span{File: src.File, Start: callSp.Start, End: callSp.Start + 1}))
	caseSp := src.Span("case g() of {ok, V} -> V end")
	tuple := b2.PTuple(src.Span("{ok, V}"), b2.PLit(src.SpanN("ok", 1)), b2.PVar(src.SpanN("V", 0)))
	body := b2.Var(src.SpanN("V", 1))
	caseExpr := b2.Body.AddExpr(hir.CaseExpr{Scrutinee: call, Clauses: []hir.CRClause{{Pat: tuple, Body: []hir.ExprID{body}}}},
		hir.Origin{Span: caseSp})
	c2 := b2.Clause(src.Span("f(_) -> case g() of {ok, V} -> V end."), []hir.PatID{b2.PVar(src.SpanN("_", 2))}, caseExpr)

	m := &hir.Module{
		File:      src.File,
		Attribute: src.ModuleAttr("m"),
		Compile:   []*hir.CompileAttribute{compile},
		Includes:  []*hir.IncludeAttribute{src.Include(`-include("m.hrl").`)},
		Functions: []*hir.FunctionDef{src.Function("f", 1, c1, c2)},
		Specs:     []*hir.SpecDef{spec},
		Exports:   []*hir.ExportAttribute{src.Export("-export_type([t/0]).")},
		Types:     []*hir.TypeAlias{src.TypeAlias("-type t() :: ok.", "t", 0)},
	}
	m.LinkSpecs()
	return src, m
}

func TestRoundTrip(t *testing.T) {
	src, m := sampleModule(t)
	wire := Encode(m, src.FS)
	if len(wire.Files) != 1 || wire.Files[0] != "/ws/src/m.hrl" {
		t.Fatalf("files = %v", wire.Files)
	}

	data, err := Marshal(wire)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	back, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	decoded, err := Decode(back, src.File, LoadResolver(src.FS))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if again := Encode(decoded, src.FS); !reflect.DeepEqual(again, wire) {
		t.Fatalf("round trip changed the tree:\n got %+v\nwant %+v", again, wire)
	}

	fn := decoded.Functions[0]
	if fn.Spec == nil || len(fn.Spec.Sigs) != 1 {
		t.Fatal("spec was not linked")
	}
	c := fn.Clauses[0]
	mexpr, ok := c.Body.Expr(c.Exprs[0]).(hir.MatchExpr)
	if !ok {
		t.Fatalf("first expression is %T", c.Body.Expr(c.Exprs[0]))
	}
	mc, ok := c.Body.Expr(mexpr.Rhs).(hir.MacroCallExpr)
	if !ok || !mc.Expansion.IsValid() {
		t.Fatalf("rhs = %+v", c.Body.Expr(mexpr.Rhs))
	}
	if !c.Body.IsRemoteCall(mc.Expansion, "lists", "reverse", 1) {
		t.Fatal("expansion is not lists:reverse/1")
	}
	hdr, _ := src.FS.GetLatest("/ws/src/m.hrl")
	if sp := c.Body.ExprSpan(mc.Expansion); sp.File != hdr || !c.Body.InMacro(mc.Expansion.Any()) {
		t.Fatalf("expansion origin = %v", sp)
	}
	if fn.Clauses[1].ID == c.ID {
		t.Fatal("clause ids must be distinct")
	}
	if ta := decoded.TypeAt(src.Offset("t() ::")); ta == nil || !decoded.TypeExported(ta.Name) {
		t.Fatalf("type alias lost: %+v", decoded.Types)
	}
}

func binop(w *Module) *Node {
	exprs := w.Functions[0].Clauses[0].Body.Exprs
	for i := range exprs {
		if exprs[i].Kind == "binop" {
			return &exprs[i]
		}
	}
	panic("no binop in sample")
}

func TestDecodeRejectsBrokenTrees(t *testing.T) {
	src, m := sampleModule(t)
	resolve := LoadResolver(src.FS)
	tests := []struct {
		name   string
		mutate func(w *Module)
		want   error
	}{
		{"version", func(w *Module) { w.Version = 99 }, ErrVersion},
		{"dangling kid", func(w *Module) { binop(w).Kids = []uint32{1, 999} }, ErrBadTree},
		{"unknown kind", func(w *Module) { w.Specs[0].Body.Types[0].Kind = "record" }, ErrBadTree},
		{"bad file ref", func(w *Module) { w.Functions[0].Span.File = 7 }, ErrBadTree},
		{"inverted span", func(w *Module) { w.Module.Span = Span{Start: 9, End: 1} }, ErrBadTree},
		{"bad operator", func(w *Module) { binop(w).Name = "<<>>" }, ErrBadTree},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Encode(m, src.FS)
			tt.mutate(w)
			if _, err := Decode(w, src.File, resolve); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	w := Encode(m, src.FS)
	w.Files = []string{filepath.Join(t.TempDir(), "missing.hrl")}
	if _, err := Decode(w, src.File, resolve); err == nil {
		t.Fatal("missing header must fail")
	}
}

func TestCommandParser(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	if _, err := NewCommandParser(nil, ""); !errors.Is(err, ErrNoCommand) {
		t.Fatalf("empty command: %v", err)
	}
	src, m := sampleModule(t)
	data, err := Marshal(Encode(m, src.FS))
	if err != nil {
		t.Fatal(err)
	}
	reply := filepath.Join(t.TempDir(), "reply.mp")
	if err := os.WriteFile(reply, data, 0o600); err != nil {
		t.Fatal(err)
	}

	fs := source.NewFileSet()
	file := fs.AddVirtual("/ws/src/m.erl", []byte(sampleText))
	fs.AddVirtual("/ws/src/m.hrl", []byte(headerText))
	p, err := NewCommandParser([]string{"sh", "-c", `cat > /dev/null; cat "$1"`, "parse", reply}, "")
	if err != nil {
		t.Fatal(err)
	}
	// the file path is appended after the reply path and ignored by the script
	got, err := p.Parse(context.Background(), fs, file)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if name, _ := got.Name(); name != "m" || len(got.Functions) != 1 || got.File != file {
		t.Fatalf("module = %+v", got)
	}

	bad, _ := NewCommandParser([]string{"sh", "-c", "echo nope"}, "")
	if _, err := bad.Parse(context.Background(), fs, file); !errors.Is(err, ErrBadTree) {
		t.Fatalf("garbage reply: %v", err)
	}
}
