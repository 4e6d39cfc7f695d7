package ssr

import (
	"errors"
	"testing"

	"erlfix/internal/hir"
	"erlfix/internal/testkit"
)

func TestParse(t *testing.T) {
	tests := []struct {
		text string
		ok   bool
	}{
		{"hd(lists:reverse(_@L))", true},
		{"[_@E|_] = lists:reverse(_@L)", true},
		{"_@A + 0", true},
		{"{ok, _@X}", true},
		{"not true", true},
		{"lists:reverse", false},
		{"f(", false},
		{"_@", false},
		{"a b", false},
	}
	for _, tt := range tests {
		_, err := Parse(tt.text)
		if tt.ok && err != nil {
			t.Errorf("Parse(%q): %v", tt.text, err)
		}
		if !tt.ok && !errors.Is(err, ErrSyntax) {
			t.Errorf("Parse(%q) = %v, want syntax error", tt.text, err)
		}
	}
}

func TestParseShapes(t *testing.T) {
	p := MustParse("[_@E|_] = lists:reverse(_@L)")
	m, ok := p.Root.(Match)
	if !ok {
		t.Fatalf("root = %#v", p.Root)
	}
	l, ok := m.Lhs.(List)
	if !ok || len(l.Elems) != 1 || l.Tail != (Wildcard{}) {
		t.Fatalf("lhs = %#v", m.Lhs)
	}
	call, ok := m.Rhs.(Call)
	if !ok || call.Module != (Lit{Lit: hir.Atom("lists")}) || len(call.Args) != 1 {
		t.Fatalf("rhs = %#v", m.Rhs)
	}
	b := MustParse("1 + 2 * 3").Root.(Binary)
	if b.Op != hir.OpAdd {
		t.Fatalf("precedence: %#v", b)
	}
}

func TestFindAndRender(t *testing.T) {
	src := testkit.NewSource("m.erl", "f(L) -> hd(lists:reverse(L)), hd(L).")
	b := src.Body()
	arg := b.PVar(src.Span("L"))
	rev := b.Call(src.Span("lists:reverse(L)"), b.Lit(src.Span("lists")), b.Lit(src.Span("reverse")), b.Var(src.SpanN("L", 1)))
	first := b.Call(src.Span("hd(lists:reverse(L))"), hir.NoExprID, b.Lit(src.Span("hd")), rev)
	second := b.Call(src.Span("hd(L)"), hir.NoExprID, b.Lit(src.SpanN("hd", 1)), b.Var(src.SpanN("L", 2)))
	fn := src.Function("f", 1, b.Clause(src.Span("f(L) -> hd(lists:reverse(L)), hd(L)"), []hir.PatID{arg}, first, second))

	m := NewMatcher(MustParse("hd(lists:reverse(_@L))"), src.FS.Text)
	results := m.FindInFunction(fn)
	if len(results) != 1 {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Span != src.Span("hd(lists:reverse(L))") {
		t.Fatalf("span = %v", results[0].Span)
	}
	out, err := Render("lists:last(_@L)", results[0], src.FS.Text)
	if err != nil || out != "lists:last(L)" {
		t.Fatalf("Render = %q, %v", out, err)
	}
	if _, err := Render("_@Missing", results[0], src.FS.Text); err == nil {
		t.Fatal("expected unbound placeholder error")
	}
}

func TestRepeatedPlaceholderMustAgree(t *testing.T) {
	src := testkit.NewSource("m.erl", "f() -> A + A, A + B.")
	b := src.Body()
	same := b.Binary(src.Span("A + A"), hir.OpAdd, b.Var(src.SpanN("A", 0)), b.Var(src.SpanN("A", 1)))
	diff := b.Binary(src.Span("A + B"), hir.OpAdd, b.Var(src.SpanN("A", 2)), b.Var(src.Span("B")))
	fn := src.Function("f", 0, b.Clause(src.Span("f() -> A + A, A + B"), nil, same, diff))

	results := NewMatcher(MustParse("_@X + _@X"), src.FS.Text).FindInFunction(fn)
	if len(results) != 1 || results[0].Span != src.Span("A + A") {
		t.Fatalf("results = %+v", results)
	}
}
