package sema

import (
	"testing"

	"erlfix/internal/hir"
	"erlfix/internal/source"
)

func TestClassifier(t *testing.T) {
	c := DefaultClassifier()
	tests := []struct {
		path      string
		content   string
		test, gen bool
	}{
		{"apps/a/src/a.erl", "-module(a).", false, false},
		{"/abs/apps/a/test/a_SUITE.erl", "", true, false},
		{"apps/a/src/a_tests.erl", "", true, false},
		{"_build/default/lib/x/src/x.erl", "", false, true},
		{"apps/a/src/gen.erl", "%% " + GeneratedMarker + "\n-module(gen).", false, true},
	}
	for _, tt := range tests {
		if got := c.IsTest(tt.path); got != tt.test {
			t.Errorf("IsTest(%q) = %v", tt.path, got)
		}
		if got := c.IsGenerated(tt.path, []byte(tt.content)); got != tt.gen {
			t.Errorf("IsGenerated(%q) = %v", tt.path, got)
		}
	}
}

func TestKindOf(t *testing.T) {
	if KindOf("a/b.erl") != KindModule || KindOf("x.HRL") != KindHeader || KindOf("run.escript") != KindEscript || KindOf("rebar.config") != KindOther {
		t.Fatal("unexpected file kinds")
	}
}

func TestResolveIncludeAndLibPath(t *testing.T) {
	fs := source.NewFileSet()
	mod := fs.AddVirtual("/ws/apps/app_a/src/a.erl", []byte(`-include("some_header.hrl").`))
	hdr := fs.AddVirtual("/ws/apps/app_a/include/some_header.hrl", []byte("-define(X, 1)."))
	local := fs.AddVirtual("/ws/apps/app_a/src/local.hrl", []byte(""))
	db := NewSnapshot(fs)

	got, ok := db.ResolveInclude(mod, &hir.IncludeAttribute{Kind: hir.Include, Path: "some_header.hrl"})
	if !ok || got != hdr {
		t.Fatalf("ResolveInclude = %d, %v; want %d", got, ok, hdr)
	}
	if got, ok := db.ResolveInclude(mod, &hir.IncludeAttribute{Kind: hir.Include, Path: "local.hrl"}); !ok || got != local {
		t.Fatalf("local include = %d, %v", got, ok)
	}
	if got, ok := db.ResolveInclude(mod, &hir.IncludeAttribute{Kind: hir.IncludeLib, Path: "app_a/include/some_header.hrl"}); !ok || got != hdr {
		t.Fatalf("include_lib = %d, %v", got, ok)
	}
	if _, ok := db.ResolveInclude(mod, &hir.IncludeAttribute{Path: "missing.hrl"}); ok {
		t.Fatal("missing include resolved")
	}
	if p, ok := db.IncludeLibPath(hdr); !ok || p != "app_a/include/some_header.hrl" {
		t.Fatalf("IncludeLibPath = %q, %v", p, ok)
	}

	declared := NewSnapshot(fs, WithApps(App{Name: "alpha", Dir: "/ws/apps/app_a"}))
	if p, ok := declared.IncludeLibPath(hdr); !ok || p != "alpha/include/some_header.hrl" {
		t.Fatalf("declared IncludeLibPath = %q, %v", p, ok)
	}
}

func TestResolveClauseVars(t *testing.T) {
	// f(X) -> Y = X, Y + Y.
	text := "f(X) -> Y = X, Y + Y."
	fs := source.NewFileSet()
	file := fs.AddVirtual("m.erl", []byte(text))
	sp := func(start, end uint32) hir.Origin {
		return hir.Origin{Span: source.Span{File: file, Start: start, End: end}}
	}
	b := hir.NewBody()
	argX := b.AddPat(hir.VarPat{Name: "X"}, sp(2, 3))
	defY := b.AddPat(hir.VarPat{Name: "Y"}, sp(8, 9))
	useX := b.AddExpr(hir.VarExpr{Name: "X"}, sp(12, 13))
	match := b.AddExpr(hir.MatchExpr{Lhs: defY, Rhs: useX}, sp(8, 13))
	y1 := b.AddExpr(hir.VarExpr{Name: "Y"}, sp(15, 16))
	y2 := b.AddExpr(hir.VarExpr{Name: "Y"}, sp(19, 20))
	sum := b.AddExpr(hir.BinaryExpr{Op: hir.OpAdd, Lhs: y1, Rhs: y2}, sp(15, 20))
	clause := &hir.Clause{ID: 1, Body: b, Args: []hir.PatID{argX}, Exprs: []hir.ExprID{match, sum}}

	cv := ResolveClause(clause)
	if got := cv.Names(); len(got) != 2 || got[0] != "X" || got[1] != "Y" {
		t.Fatalf("Names = %v", got)
	}
	y, ok := cv.Lookup("Y")
	if !ok || len(y.Defs()) != 1 || len(y.Uses()) != 2 {
		t.Fatalf("Y = %+v", y)
	}
	if v, ok := cv.DefAt(defY); !ok || v.Name != "Y" {
		t.Fatalf("DefAt(Y) = %+v, %v", v, ok)
	}
	if _, ok := cv.DefAt(argX); !ok {
		t.Fatal("argument X is a binding")
	}
	x, _ := cv.Lookup("X")
	if len(x.Uses()) != 1 || x.Uses()[0].Span.Start != 12 {
		t.Fatalf("X uses = %+v", x.Uses())
	}
}

func TestCommentsCached(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.AddVirtual("m.erl", []byte("% one\nf() -> ok. % two\n"))
	db := NewSnapshot(fs)
	if got := db.Comments(file); len(got) != 2 {
		t.Fatalf("comments = %+v", got)
	}
	if got := db.Comments(file); len(got) != 2 {
		t.Fatalf("cached comments = %+v", got)
	}
	if db.Comments(99) != nil {
		t.Fatal("unknown file has comments")
	}
}
