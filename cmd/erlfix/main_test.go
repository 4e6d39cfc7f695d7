package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"erlfix/internal/diag"
	"erlfix/internal/fix"
	"erlfix/internal/source"
)

func TestReadUIMode(t *testing.T) {
	tests := []struct {
		in      string
		want    uiMode
		wantErr bool
	}{
		{"", uiModeAuto, false},
		{"auto", uiModeAuto, false},
		{" ON ", uiModeOn, false},
		{"off", uiModeOff, false},
		{"sometimes", "", true},
	}
	for _, tt := range tests {
		got, err := readUIMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("readUIMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("readUIMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteFixDiff(t *testing.T) {
	dir := t.TempDir()
	fs := source.NewFileSetWithBase(dir)
	b := fs.AddVirtual(filepath.Join(dir, "src", "b.erl"), []byte("-module(x).\n"))
	a := fs.AddVirtual(filepath.Join(dir, "src", "a.erl"), []byte("-module(y).\n"))
	res := &fix.ApplyResult{Contents: map[source.FileID][]byte{
		b: []byte("-module(b).\n"),
		a: []byte("-module(a).\n"),
	}}

	var out bytes.Buffer
	if err := writeFixDiff(&out, fs, res); err != nil {
		t.Fatalf("writeFixDiff: %v", err)
	}
	want := "--- a/src/a.erl\n+++ b/src/a.erl\n@@ -1 +1 @@\n--module(y).\n+-module(a).\n" +
		"--- a/src/b.erl\n+++ b/src/b.erl\n@@ -1 +1 @@\n--module(x).\n+-module(b).\n"
	if out.String() != want {
		t.Fatalf("diff mismatch:\nwant:\n%s\ngot:\n%s", want, out.String())
	}
}

func TestHandleApplyResult(t *testing.T) {
	res := &fix.ApplyResult{
		Applied: []fix.AppliedFix{{
			ID:            "rename_module_to_match_filename",
			Label:         "Rename module to: foo",
			Code:          diag.ModuleMismatch,
			Applicability: diag.FixSafe,
			PrimaryPath:   "src/foo.erl",
			EditCount:     1,
		}},
		Skipped:     []fix.SkippedFix{{ID: "ignore", Reason: "overlaps an applied fix"}},
		FileChanges: []fix.FileChange{{Path: "src/foo.erl", EditCount: 1}},
	}

	var out bytes.Buffer
	if err := handleApplyResult(&out, res, nil, false); err != nil {
		t.Fatalf("handleApplyResult: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"Applied 1 fix(es):",
		"Rename module to: foo [rename_module_to_match_filename] W0001: src/foo.erl (1 edits, safe)",
		"Updated files:\n  src/foo.erl (1 edits)",
		"Skipped fixes:\n  [ignore]: overlaps an applied fix",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}

	out.Reset()
	if err := handleApplyResult(&out, res, nil, true); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !strings.HasPrefix(out.String(), "Would apply 1 fix(es):") || strings.Contains(out.String(), "Updated files") {
		t.Errorf("dry run output:\n%s", out.String())
	}

	out.Reset()
	if err := handleApplyResult(&out, &fix.ApplyResult{}, fix.ErrNoFixes, false); err != nil {
		t.Fatalf("no fixes should not fail: %v", err)
	}
	if out.String() != "No applicable fixes found.\n" {
		t.Errorf("got %q", out.String())
	}

	boom := errors.New("boom")
	if err := handleApplyResult(&out, &fix.ApplyResult{}, boom, false); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestCollectCodes(t *testing.T) {
	rows := collectCodes()
	if len(rows) == 0 || rows[0].ID != "W0001" || rows[0].Name != "module_mismatch" {
		t.Fatalf("first row = %+v", rows[0])
	}
	last := rows[len(rows)-1]
	if last.ID != "T0005" || len(last.Flags) != 1 || last.Flags[0] != "oracle" {
		t.Errorf("last row = %+v", last)
	}

	var out bytes.Buffer
	if err := renderCodesTable(&out, rows); err != nil {
		t.Fatalf("renderCodesTable: %v", err)
	}
	if !strings.HasPrefix(out.String(), "CODE") || !strings.Contains(out.String(), "expression_can_be_simplified") {
		t.Errorf("table:\n%s", out.String())
	}
}

func TestShouldUseTUI(t *testing.T) {
	if !shouldUseTUI(uiModeOn) || shouldUseTUI(uiModeOff) {
		t.Fatal("explicit modes must win")
	}
	t.Setenv("CI", "1")
	if shouldUseTUI(uiModeAuto) {
		t.Error("auto must be off in CI")
	}
}
