package document

import (
	"errors"
	"testing"

	"erlfix/internal/diag"
	"erlfix/internal/source"
)

func rng(sl, sc, el, ec uint32) *Range {
	return &Range{Start: Position{Line: sl, Character: sc}, End: Position{Line: el, Character: ec}}
}

func TestApplyChangesSingleRange(t *testing.T) {
	b := FromString("abc")
	if d := b.ApplyChanges([]Change{{Range: rng(0, 1, 0, 2), Text: "X"}}); len(d) != 0 {
		t.Fatalf("unexpected discards: %+v", d)
	}
	if got := b.String(); got != "aXc" {
		t.Fatalf("got %q, want %q", got, "aXc")
	}
}

func TestApplyChangesEmptyBatchIsIdentity(t *testing.T) {
	b := FromString("-module(m).\n")
	b.ApplyChanges(nil)
	b.ApplyChanges([]Change{})
	if got := b.String(); got != "-module(m).\n" {
		t.Fatalf("content changed: %q", got)
	}
}

func TestApplyChangesFullReplace(t *testing.T) {
	for _, prior := range []string{"", "abc", "x\ny\nz", "é𝄞"} {
		b := FromString(prior)
		b.ApplyChanges([]Change{
			{Range: rng(0, 0, 0, 0), Text: "junk"},
			{Text: "T\nfinal"},
		})
		if got := b.String(); got != "T\nfinal" {
			t.Fatalf("prior %q: got %q", prior, got)
		}
		// index must follow the replaced content
		if off, err := b.Offset(Position{Line: 1, Character: 2}); err != nil || off != 4 {
			t.Fatalf("prior %q: Offset = %d, %v", prior, off, err)
		}
	}
}

func TestApplyChangesSequentialLineShifts(t *testing.T) {
	b := FromString("one\ntwo\nthree\n")
	b.ApplyChanges([]Change{
		// insert a new line at the top, shifting everything down
		{Range: rng(0, 0, 0, 0), Text: "zero\n"},
		// line 3 is "three" only after the first edit
		{Range: rng(3, 0, 3, 5), Text: "THREE"},
	})
	if got := b.String(); got != "zero\none\ntwo\nTHREE\n" {
		t.Fatalf("got %q", got)
	}
}

func TestApplyChangesDisjointEditsCommute(t *testing.T) {
	base := "alpha\nbeta\ngamma\n"
	first := Change{Range: rng(0, 0, 0, 5), Text: "ALPHA"}
	second := Change{Range: rng(2, 0, 2, 5), Text: "GAMMA"}

	a := FromString(base)
	a.ApplyChanges([]Change{first, second})
	b := FromString(base)
	b.ApplyChanges([]Change{second, first})
	if a.String() != b.String() {
		t.Fatalf("order dependent result: %q vs %q", a.String(), b.String())
	}
	if a.String() != "ALPHA\nbeta\nGAMMA\n" {
		t.Fatalf("got %q", a.String())
	}
}

func TestApplyChangesReverseOrderOverlapping(t *testing.T) {
	// The second edit is interpreted against the content produced by the
	// first one, even though it touches an earlier, overlapping region.
	b := FromString("aaa\nbbb\nccc\n")
	b.ApplyChanges([]Change{
		{Range: rng(1, 1, 2, 1), Text: "X\nY"},
		{Range: rng(0, 2, 1, 2), Text: "Z"},
	})
	// after the first edit: "aaa\nbX\nYcc\n"; the second replaces "a\nbX" with "Z"
	if got := b.String(); got != "aaZ\nYcc\n" {
		t.Fatalf("got %q, want %q", got, "aaZ\nYcc\n")
	}
}

func TestApplyChangesDiscardsInvalidRanges(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		rng   *Range
		cause error
	}{
		{"line past end", "abc", rng(3, 0, 3, 0), ErrLineOutOfRange},
		{"column past end of line", "abc\ndef", rng(0, 2, 0, 9), ErrColumnOutOfRange},
		{"inside surrogate pair", "a𝄞b", rng(0, 2, 0, 3), ErrColumnOutOfRange},
		{"inverted", "abcdef", rng(0, 4, 0, 1), ErrInvertedRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := FromString(tt.text)
			d := b.ApplyChanges([]Change{
				{Range: tt.rng, Text: "!!"},
				{Range: rng(0, 0, 0, 0), Text: ">"},
			})
			if len(d) != 1 || d[0].Index != 0 {
				t.Fatalf("discards = %+v, want the first event only", d)
			}
			if !errors.Is(d[0].Err, tt.cause) {
				t.Fatalf("cause = %v, want %v", d[0].Err, tt.cause)
			}
			if got := b.String(); got != ">"+tt.text {
				t.Fatalf("content = %q, want %q", got, ">"+tt.text)
			}
		})
	}
}

func TestApplyChangesUTF16Columns(t *testing.T) {
	b := FromString("f(\"𝄞\", X)")
	// 𝄞 occupies columns 3-4 in UTF-16; X sits at column 8
	b.ApplyChanges([]Change{{Range: rng(0, 8, 0, 9), Text: "Y"}})
	if got := b.String(); got != "f(\"𝄞\", Y)" {
		t.Fatalf("got %q", got)
	}
}

func TestFromBytesIsTotal(t *testing.T) {
	b := FromBytes([]byte{'f', '(', 0xE9, ')'})
	if !b.Lossy() {
		t.Fatal("expected lossy decode")
	}
	if b.String() != "f(é)" {
		t.Fatalf("got %q", b.String())
	}
	b.ApplyChanges([]Change{{Range: rng(0, 2, 0, 3), Text: "e"}})
	if string(b.Bytes()) != "f(e)" {
		t.Fatalf("got %q", b.Bytes())
	}
}

func TestApplyEditsAtomic(t *testing.T) {
	b := FromString("f(0 + 42)")
	err := b.ApplyEdits([]diag.TextEdit{
		{Span: source.Span{Start: 2, End: 8}, NewText: "42"},
	})
	if err != nil {
		t.Fatalf("ApplyEdits: %v", err)
	}
	if b.String() != "f(42)" {
		t.Fatalf("got %q", b.String())
	}

	err = b.ApplyEdits([]diag.TextEdit{
		{Span: source.Span{Start: 0, End: 1}, NewText: "g"},
		{Span: source.Span{Start: 3, End: 99}, NewText: "?"},
	})
	if err == nil {
		t.Fatal("expected out of range edit to fail")
	}
	if b.String() != "f(42)" {
		t.Fatalf("failed ApplyEdits mutated content: %q", b.String())
	}
}

func TestApplySourceChange(t *testing.T) {
	b := FromString("f() -> [] ++ X.")
	b.SetVersion(3)
	change, err := diag.NewSourceChange(2, []diag.TextEdit{
		{Span: source.Span{File: 2, Start: 7, End: 14}, NewText: "X"},
	})
	if err != nil {
		t.Fatalf("NewSourceChange: %v", err)
	}
	if err := b.Apply(change, 2); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if b.String() != "f() -> X." || b.Version() != 3 {
		t.Fatalf("got %q at version %d", b.String(), b.Version())
	}
	// edits for other files leave the buffer alone
	if err := b.Apply(change, 5); err != nil || b.String() != "f() -> X." {
		t.Fatalf("foreign change: %v, %q", err, b.String())
	}
}
