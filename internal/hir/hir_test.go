package hir

import (
	"testing"

	"erlfix/internal/source"
)

func TestLiteralInt(t *testing.T) {
	tests := []struct {
		text string
		want int64
		ok   bool
	}{
		{"0", 0, true},
		{"42", 42, true},
		{"1_024", 1024, true},
		{"16#ff", 255, true},
		{"2#101", 5, true},
		{"99#1", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := Integer(tt.text).Int()
		if ok != tt.ok || got != tt.want {
			t.Errorf("Int(%q) = %d, %v; want %d, %v", tt.text, got, ok, tt.want, tt.ok)
		}
	}
	if _, ok := Atom("ok").Int(); ok {
		t.Errorf("atom parsed as integer")
	}
}

func TestQuoteAtom(t *testing.T) {
	tests := map[string]string{
		"ok":         "ok",
		"spec_atom":  "spec_atom",
		"Upper":      "'Upper'",
		"with space": "'with space'",
		"end":        "'end'",
		"":           "''",
		"it's":       `'it\'s'`,
		"a@b":        "a@b",
	}
	for in, want := range tests {
		if got := QuoteAtom(in); got != want {
			t.Errorf("QuoteAtom(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestScanComments(t *testing.T) {
	text := []byte("f() -> \"100%\", '%a', $%, % real\r\n" +
		"%% header\n" +
		"g() -> $\\%. %tail")
	got := ScanComments(7, text)
	want := []string{"% real", "%% header", "%tail"}
	if len(got) != len(want) {
		t.Fatalf("got %d comments: %+v", len(got), got)
	}
	for i, c := range got {
		if c.Text != want[i] {
			t.Errorf("comment %d = %q, want %q", i, c.Text, want[i])
		}
		if string(text[c.Span.Start:c.Span.End]) != c.Text || c.Span.File != 7 {
			t.Errorf("comment %d span %v does not match text", i, c.Span)
		}
	}
	in := CommentsIn(got, source.Span{File: 7, Start: 0, End: got[0].Span.Start + 1})
	if len(in) != 1 {
		t.Errorf("CommentsIn = %+v", in)
	}
	if len(CommentsIn(got, source.Span{File: 8, Start: 0, End: 100})) != 0 {
		t.Errorf("CommentsIn matched a foreign file")
	}
}

func TestBodyMacroAndParens(t *testing.T) {
	b := NewBody()
	at := func(start, end uint32) Origin { return Origin{Span: source.Span{File: 1, Start: start, End: end}} }

	m := b.AddMacro(MacroInfo{Name: "ZERO", Span: source.Span{File: 1, Start: 0, End: 5}})
	expanded := b.AddExpr(LiteralExpr{Lit: Integer("0")}, Origin{Span: source.Span{File: 1, Start: 0, End: 5}, Macro: m})
	call := b.AddExpr(MacroCallExpr{Macro: m, Expansion: expanded}, at(0, 5))
	plain := b.AddExpr(LiteralExpr{Lit: Atom("ok")}, at(8, 10))
	paren := b.AddExpr(ParenExpr{Inner: plain}, at(7, 11))
	twice := b.AddExpr(ParenExpr{Inner: paren}, at(6, 12))

	if !b.InMacro(expanded.Any()) || !b.InMacro(call.Any()) {
		t.Fatalf("macro nodes not flagged")
	}
	if b.InMacro(plain.Any()) {
		t.Fatalf("plain node flagged as macro")
	}
	if got := b.UnparenExpr(twice); got != plain {
		t.Fatalf("UnparenExpr = %v, want %v", got, plain)
	}
	if name, ok := b.AtomValue(twice); !ok || name != "ok" {
		t.Fatalf("AtomValue = %q, %v", name, ok)
	}
	if _, ok := b.Expr(99).(MissingExpr); !ok {
		t.Fatalf("unknown id should yield MissingExpr")
	}
	if info, ok := b.Macro(m); !ok || info.Name != "ZERO" {
		t.Fatalf("Macro = %+v, %v", info, ok)
	}
}

func TestModuleLookups(t *testing.T) {
	spec := &SpecDef{Name: NameArity{Name: "f", Arity: 0}}
	fn := &FunctionDef{
		Name: NameArity{Name: "f", Arity: 0},
		Span: source.Span{File: 1, Start: 10, End: 30},
		Clauses: []*Clause{
			{Span: source.Span{File: 1, Start: 10, End: 18}},
			{Span: source.Span{File: 1, Start: 20, End: 30}},
		},
	}
	m := &Module{File: 1, Functions: []*FunctionDef{fn}, Specs: []*SpecDef{spec}}
	m.LinkSpecs()
	if fn.Spec != spec {
		t.Fatalf("spec not linked")
	}
	if m.FunctionAt(25) != fn || m.FunctionAt(5) != nil {
		t.Fatalf("FunctionAt wrong")
	}
	if c := fn.ClauseAt(25); c != fn.Clauses[1] {
		t.Fatalf("ClauseAt = %+v", c)
	}
	if _, ok := m.Name(); ok {
		t.Fatalf("module without attribute has a name")
	}
	if got := (NameArity{Name: "Foo", Arity: 2}).String(); got != "'Foo'/2" {
		t.Fatalf("NameArity = %q", got)
	}
}
