package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("foo.erl", []byte("-module(foo)."), 0)
	id2 := fs.Add("foo.erl", []byte("-module(bar)."), 0)
	if id1 == id2 {
		t.Fatalf("expected distinct ids, got %d twice", id1)
	}
	latest, ok := fs.GetLatest("foo.erl")
	if !ok || latest != id2 {
		t.Fatalf("GetLatest = %d,%v; want %d,true", latest, ok, id2)
	}
	if got := string(fs.Get(id1).Content); got != "-module(foo)." {
		t.Fatalf("old version content changed: %q", got)
	}
}

func TestFileSetLoadNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crlf.erl")
	raw := []byte("\xEF\xBB\xBF-module(crlf).\r\nf() -> \xE9.\r\n")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	f := fs.Get(id)
	want := "-module(crlf).\nf() -> é.\n"
	if string(f.Content) != want {
		t.Fatalf("content = %q, want %q", f.Content, want)
	}
	for _, flag := range []FileFlags{FileHadBOM, FileNormalizedCRLF, FileLossyDecoded} {
		if f.Flags&flag == 0 {
			t.Errorf("flag %b not set (flags=%b)", flag, f.Flags)
		}
	}
}

func TestFileTextAndLines(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("m.erl", []byte("-module(m).\nf() -> ok.\n"))
	f := fs.Get(id)
	if got := f.GetLine(2); got != "f() -> ok." {
		t.Fatalf("GetLine(2) = %q", got)
	}
	if got := fs.Text(Span{File: id, Start: 8, End: 9}); got != "m" {
		t.Fatalf("Text = %q", got)
	}
	if got := fs.Text(Span{File: id, Start: 8, End: 900}); got != "" {
		t.Fatalf("out of bounds Text = %q", got)
	}
	start, end := fs.Resolve(Span{File: id, Start: 12, End: 15})
	if start != (LineCol{2, 1}) || end != (LineCol{2, 4}) {
		t.Fatalf("Resolve = %+v %+v", start, end)
	}
	if fs.Get(FileID(42)) != nil {
		t.Fatal("unknown id must return nil")
	}
}

func TestRelativePathOutsideBaseFallsBackToAbsolute(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "other", "file.erl")
	got, err := RelativePath(target, filepath.Join(tmp, "base"))
	if err != nil {
		t.Fatalf("RelativePath returned error: %v", err)
	}
	if got != normalizePath(target) {
		t.Fatalf("got %q, want %q", got, normalizePath(target))
	}
}
