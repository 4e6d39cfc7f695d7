package diagfmt

import (
	"testing"

	"erlfix/internal/diag"
	"erlfix/internal/fix"
	"erlfix/internal/source"
)

func TestUnifiedDiff(t *testing.T) {
	tests := []struct {
		name          string
		before, after string
		want          string
	}{
		{
			name:   "equal",
			before: "a\nb\n",
			after:  "a\nb\n",
			want:   "",
		},
		{
			name:   "replace one line",
			before: "a\nb\nc\n",
			after:  "a\nx\nc\n",
			want:   "--- a/f.erl\n+++ b/f.erl\n@@ -1,3 +1,3 @@\n a\n-b\n+x\n c\n",
		},
		{
			name:   "insert at top",
			before: "a\n",
			after:  "% c\na\n",
			want:   "--- a/f.erl\n+++ b/f.erl\n@@ -1 +1,2 @@\n+% c\n a\n",
		},
		{
			name:   "separate hunks",
			before: "1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n11\n12\n",
			after:  "one\n2\n3\n4\n5\n6\n7\n8\n9\n10\n11\ntwelve\n",
			want: "--- a/f.erl\n+++ b/f.erl\n" +
				"@@ -1,4 +1,4 @@\n-1\n+one\n 2\n 3\n 4\n" +
				"@@ -9,4 +9,4 @@\n 9\n 10\n 11\n-12\n+twelve\n",
		},
		{
			name:   "no trailing newline",
			before: "a",
			after:  "b",
			want:   "--- a/f.erl\n+++ b/f.erl\n@@ -1 +1 @@\n-a\n\\ No newline at end of file\n+b\n\\ No newline at end of file\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UnifiedDiff("f.erl", []byte(tt.before), []byte(tt.after)); got != tt.want {
				t.Fatalf("diff mismatch:\nwant:\n%s\ngot:\n%s", tt.want, got)
			}
		})
	}
}

func TestChangeDiff(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("foo.erl", []byte(mismatchText))
	fx := fix.ReplaceSpan("rename", "Rename", source.Span{File: id, Start: 8, End: 11}, "foo")

	got, err := ChangeDiff(fs, fx.Change, PathModeBasename)
	if err != nil {
		t.Fatalf("ChangeDiff: %v", err)
	}
	want := "--- a/foo.erl\n+++ b/foo.erl\n@@ -1,4 +1,4 @@\n--module(bar).\n+-module(foo).\n \n f() ->\n \tok.\n"
	if got != want {
		t.Fatalf("diff mismatch:\nwant:\n%s\ngot:\n%s", want, got)
	}

	if _, err := ChangeDiff(fs, diag.SingleEdit(diag.TextEdit{Span: source.Span{File: id, Start: 90, End: 95}}), PathModeBasename); err == nil {
		t.Fatal("expected an error for an edit past the end of file")
	}
}
