package fix

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"erlfix/internal/diag"
	"erlfix/internal/source"
)

func span(file source.FileID, start, end uint32) source.Span {
	return source.Span{File: file, Start: start, End: end}
}

func TestBuilderFinishSortsAndRejectsOverlap(t *testing.T) {
	b := NewBuilder(3)
	b.Replace(span(3, 10, 12), "b").Insert(0, "a")
	change, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	edits := change.Edits(3)
	if len(edits) != 2 || edits[0].Span.Start != 0 || edits[1].Span.Start != 10 {
		t.Fatalf("edits not sorted: %+v", edits)
	}

	b = NewBuilder(3)
	b.Replace(span(3, 0, 5), "x").Replace(span(3, 4, 8), "y")
	if _, err := b.Finish(); !errors.Is(err, diag.ErrOverlappingEdits) {
		t.Fatalf("expected overlap error, got %v", err)
	}

	b = NewBuilder(3)
	b.Replace(span(4, 0, 1), "x")
	if _, err := b.Finish(); !errors.Is(err, diag.ErrForeignFile) {
		t.Fatalf("expected foreign file error, got %v", err)
	}
}

func TestWrapWith(t *testing.T) {
	f, err := WrapWith("wrap", "Wrap", span(0, 4, 6), "{ok, ", "}")
	if err != nil {
		t.Fatalf("WrapWith: %v", err)
	}
	out, err := ApplyChange([]byte("f -> 53."), f.Change.Edits(0))
	if err != nil {
		t.Fatalf("ApplyChange: %v", err)
	}
	if string(out) != "f -> {ok, 53}." {
		t.Fatalf("got %q", out)
	}
	if f.Trigger != span(0, 4, 6) {
		t.Fatalf("trigger = %v", f.Trigger)
	}
}

func TestApplyChangeSameOffsetInsertsKeepOrder(t *testing.T) {
	change, err := NewBuilder(0).Insert(1, "A").Insert(1, "B").Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	out, err := ApplyChange([]byte("xy"), change.Edits(0))
	if err != nil {
		t.Fatalf("ApplyChange: %v", err)
	}
	if string(out) != "xABy" {
		t.Fatalf("got %q, want %q", out, "xABy")
	}
}

func TestApplyDryRunSkipsConflicts(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("m.erl", []byte("f() -> 0 + 42."))

	diagnostics := []diag.Diagnostic{
		{
			Code:    diag.ExpressionCanBeSimplified,
			Primary: span(id, 7, 13),
			Fixes:   []diag.Fix{ReplaceSpan("simplify_expression", "Replace by `42`", span(id, 7, 13), "42")},
		},
		{
			Code:    diag.ExpressionCanBeSimplified,
			Primary: span(id, 11, 13),
			Fixes:   []diag.Fix{ReplaceSpan("other", "conflicting", span(id, 11, 13), "43")},
		},
		{
			Code:    diag.ModuleMismatch,
			Primary: span(id, 0, 1),
			Fixes: []diag.Fix{ReplaceSpan("ignore", "Ignore", span(id, 0, 0), "% erlfix:ignore W0001\n",
				WithApplicability(diag.FixManualReview))},
		},
	}

	res, err := Apply(fs, diagnostics, ApplyOptions{Mode: ApplyModeAll, DryRun: true})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(res.Applied) != 1 || res.Applied[0].ID != "simplify_expression" {
		t.Fatalf("applied = %+v", res.Applied)
	}
	if len(res.Skipped) != 2 {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
	if got := string(res.Contents[id]); got != "f() -> 42." {
		t.Fatalf("content = %q", got)
	}
}

func TestApplyByIDWritesFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.erl")
	if err := os.WriteFile(path, []byte("a() -> [] ++ X.\nb() -> X ++ [].\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	fs := source.NewFileSetWithBase(dir)
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	diagnostics := []diag.Diagnostic{
		{Primary: span(id, 7, 14), Fixes: []diag.Fix{ReplaceSpan("simplify_expression", "x", span(id, 7, 14), "X")}},
		{Primary: span(id, 23, 30), Fixes: []diag.Fix{ReplaceSpan("simplify_expression", "x", span(id, 23, 30), "X")}},
	}
	res, err := Apply(fs, diagnostics, ApplyOptions{Mode: ApplyModeID, TargetID: "simplify_expression"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(res.Applied) != 2 {
		t.Fatalf("applied = %+v", res.Applied)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "a() -> X.\nb() -> X.\n" {
		t.Fatalf("file = %q", got)
	}
	if _, err := Apply(fs, diagnostics, ApplyOptions{Mode: ApplyModeID, TargetID: "missing"}); !errors.Is(err, ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes, got %v", err)
	}
}

func TestSpansConflict(t *testing.T) {
	tests := []struct {
		name string
		a, b source.Span
		want bool
	}{
		{"disjoint", span(0, 0, 2), span(0, 3, 4), false},
		{"touching", span(0, 0, 2), span(0, 2, 4), false},
		{"overlap", span(0, 0, 3), span(0, 2, 4), true},
		{"two inserts", span(0, 2, 2), span(0, 2, 2), false},
		{"insert at boundary", span(0, 2, 2), span(0, 2, 5), false},
		{"insert inside", span(0, 3, 3), span(0, 2, 5), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := spansConflict(diag.TextEdit{Span: tt.a}, diag.TextEdit{Span: tt.b})
			if got != tt.want {
				t.Errorf("spansConflict(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
