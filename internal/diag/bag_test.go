package diag

import (
	"testing"

	"erlfix/internal/source"
)

func TestBagSortIsDeterministic(t *testing.T) {
	mk := func(code Code, start, end uint32, sev Severity) Diagnostic {
		return Diagnostic{Code: code, Severity: sev, Primary: source.Span{File: 0, Start: start, End: end}}
	}
	b := NewBag(10)
	b.Add(mk(ExpressionCanBeSimplified, 10, 12, SevWarning))
	b.Add(mk(ModuleMismatch, 10, 12, SevError))
	b.Add(mk(UnspecificInclude, 2, 4, SevWeakWarning))
	b.Add(mk(InefficientLast, 10, 11, SevWarning))
	b.Sort()

	want := []Code{UnspecificInclude, InefficientLast, ModuleMismatch, ExpressionCanBeSimplified}
	for i, d := range b.Items() {
		if d.Code != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, d.Code.ID(), want[i].ID())
		}
	}
	if !b.HasErrors() {
		t.Fatal("expected HasErrors")
	}
}

func TestBagLimitAndDedup(t *testing.T) {
	b := NewBag(2)
	d := Diagnostic{Code: ModuleMismatch, Message: "m"}
	if !b.Add(d) || !b.Add(d) {
		t.Fatal("expected first two adds to succeed")
	}
	if b.Add(d) {
		t.Fatal("expected limit to reject third add")
	}
	b.Dedup()
	if b.Len() != 1 {
		t.Fatalf("Len after Dedup = %d, want 1", b.Len())
	}
}
