package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"erlfix/internal/diag"
	"erlfix/internal/diagnostics"
	"erlfix/internal/fix"
	"erlfix/internal/frontend"
	"erlfix/internal/hir"
	"erlfix/internal/observ"
	"erlfix/internal/oracle"
	"erlfix/internal/source"
)

var errBroken = errors.New("syntax error before: '.'")

// moduleParser understands just enough to find `-module(Name).`; files
// containing "broken" fail to parse.
func moduleParser() frontend.Parser {
	return frontend.ParserFunc(func(_ context.Context, fs *source.FileSet, file source.FileID) (*hir.Module, error) {
		f := fs.Get(file)
		text := string(f.Content)
		if strings.Contains(text, "broken") {
			return nil, errBroken
		}
		m := &hir.Module{File: file}
		const prefix = "-module("
		start := strings.Index(text, prefix)
		if start < 0 {
			return m, nil
		}
		end := strings.Index(text[start:], ").")
		nameStart := uint32(start + len(prefix)) //nolint:gosec // test input
		nameEnd := uint32(start + end)           //nolint:gosec // test input
		m.Attribute = &hir.ModuleAttribute{
			Name:     text[nameStart:nameEnd],
			Span:     source.Span{File: file, Start: uint32(start), End: nameEnd + 2}, //nolint:gosec // test input
			NameSpan: source.Span{File: file, Start: nameStart, End: nameEnd},
		}
		return m, nil
	})
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, text := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) OnEvent(e Event) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *recordingSink) last(file string) (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].File == file {
			return s.events[i], true
		}
	}
	return Event{}, false
}

func TestAnalyzePaths(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"apps/a/src/foo.erl":       "-module(bar).\n",
		"apps/a/src/ok.erl":        "-module(ok).\n",
		"apps/a/src/broken.erl":    "-module(broken\n",
		"apps/a/src/notes.txt":     "-module(notes).\n",
		"_build/default/lib/x.erl": "-module(y).\n",
		"apps/a/.hidden/stale.erl": "-module(z).\n",
	})

	sink := &recordingSink{}
	timer := observ.NewTimer()
	d := New(Options{Parser: moduleParser(), Jobs: 2, Progress: sink, Timer: timer, Metrics: observ.NewMetrics()})
	res, err := d.AnalyzePaths(context.Background(), []string{root})
	if err != nil {
		t.Fatalf("AnalyzePaths: %v", err)
	}
	if len(res.Files) != 3 {
		var paths []string
		for _, f := range res.Files {
			paths = append(paths, f.Path)
		}
		t.Fatalf("files = %v", paths)
	}

	failed := res.Failed()
	if len(failed) != 1 || !errors.Is(failed[0].Err, errBroken) || filepath.Base(failed[0].Path) != "broken.erl" {
		t.Fatalf("failed = %+v", failed)
	}

	diags := res.Diagnostics()
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %+v", diags)
	}
	got := diags[0]
	if got.Code != diag.ModuleMismatch || res.FileSet.Text(got.Primary) != "bar" {
		t.Fatalf("diagnostic = %+v", got)
	}
	if len(got.Fixes) == 0 || got.Fixes[0].Label != "Rename module to: foo" {
		t.Fatalf("fixes = %+v", got.Fixes)
	}

	foo := filepath.Join(root, "apps", "a", "src", "foo.erl")
	if ev, ok := sink.last(foo); !ok || ev.Status != StatusDone {
		t.Fatalf("last event for foo = %+v", ev)
	}
	broken := filepath.Join(root, "apps", "a", "src", "broken.erl")
	if ev, ok := sink.last(broken); !ok || ev.Status != StatusError {
		t.Fatalf("last event for broken = %+v", ev)
	}

	report := timer.Summary()
	for _, phase := range []string{"load", "parse", "analyze"} {
		if !strings.Contains(report, phase) {
			t.Fatalf("timer summary lacks %q:\n%s", phase, report)
		}
	}
}

func TestAnalyzeSourceMergesOracle(t *testing.T) {
	text := "-module(m).\nf() -> 53.\n"
	ret := strings.Index(text, "53")
	checker := oracle.CheckerFunc(func(_ context.Context, path string, content []byte) ([]oracle.Diagnostic, error) {
		if path != "/ws/src/m.erl" || string(content) != text {
			t.Errorf("oracle got %s %q", path, content)
		}
		return []oracle.Diagnostic{{
			Start:   uint32(ret),     //nolint:gosec // small
			End:     uint32(ret + 2), //nolint:gosec // small
			Message: "incompatible types",
			Code:    "incompatible_types",
		}}, nil
	})

	d := New(Options{Parser: moduleParser(), Oracle: checker})
	fr, res, err := d.AnalyzeSource(context.Background(), Source{Path: "/ws/src/m.erl", Content: []byte(text), Version: 7})
	if err != nil {
		t.Fatalf("AnalyzeSource: %v", err)
	}
	if fr.Version != 7 || fr.Err != nil || fr.OracleErr != nil {
		t.Fatalf("result = %+v", fr)
	}
	if len(fr.Diagnostics) != 1 || fr.Diagnostics[0].Code != diag.OracleIncompatibleTypes {
		t.Fatalf("diagnostics = %+v", fr.Diagnostics)
	}
	if res.FileSet.Text(fr.Diagnostics[0].Primary) != "53" {
		t.Fatalf("primary = %v", fr.Diagnostics[0].Primary)
	}
}

// applyIgnore applies the ignore fix of the first diagnostic with code and
// returns the new text.
func applyIgnore(t *testing.T, fr FileResult, text string, code diag.Code) string {
	t.Helper()
	for _, d := range fr.Diagnostics {
		if d.Code != code {
			continue
		}
		fx, ok := d.FixByID(diagnostics.IgnoreFixID)
		if !ok {
			t.Fatalf("%s has no ignore fix: %+v", code.ID(), d.Fixes)
		}
		out, err := fix.ApplyChange([]byte(text), fx.Change.Edits(fr.File))
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		return string(out)
	}
	t.Fatalf("no %s among %+v", code.ID(), fr.Diagnostics)
	return ""
}

func TestCheckerFindingsIgnoreOnRerun(t *testing.T) {
	// the fake checker reports regardless of comments
	checker := oracle.CheckerFunc(func(_ context.Context, _ string, content []byte) ([]oracle.Diagnostic, error) {
		ret := strings.Index(string(content), "53")
		return []oracle.Diagnostic{{
			Start: uint32(ret),     //nolint:gosec // small
			End:   uint32(ret + 2), //nolint:gosec // small
			Code:  "incompatible_types",
		}}, nil
	})
	d := New(Options{Parser: moduleParser(), Oracle: checker, OracleStats: true})
	analyze := func(text string) FileResult {
		t.Helper()
		fr, _, err := d.AnalyzeSource(context.Background(), Source{Path: "/ws/src/m.erl", Content: []byte(text)})
		if err != nil {
			t.Fatalf("AnalyzeSource: %v", err)
		}
		return fr
	}
	codes := func(fr FileResult) []string {
		var out []string
		for _, d := range fr.Diagnostics {
			out = append(out, d.Code.ID())
		}
		return out
	}

	text := "-module(m).\n  f() -> 53.\n"
	text = applyIgnore(t, analyze(text), text, diag.OracleIncompatibleTypes)
	if want := "-module(m).\n  % eqwalizer:ignore\n  f() -> 53.\n"; text != want {
		t.Fatalf("annotated = %q, want %q", text, want)
	}

	// the escape hatch is now reported by the stats pass, and can be
	// silenced in turn
	fr := analyze(text)
	if got := codes(fr); len(got) != 1 || got[0] != diag.OracleIgnore.ID() {
		t.Fatalf("after eqwalizer:ignore = %v", got)
	}
	text = applyIgnore(t, fr, text, diag.OracleIgnore)
	if want := "-module(m).\n  % erlfix:ignore T0004 (eqwalizer_ignore)\n  % eqwalizer:ignore\n  f() -> 53.\n"; text != want {
		t.Fatalf("annotated = %q, want %q", text, want)
	}
	if got := codes(analyze(text)); len(got) != 0 {
		t.Fatalf("after erlfix:ignore = %v", got)
	}
}

func TestOracleFailureKeepsRuleDiagnostics(t *testing.T) {
	failing := oracle.CheckerFunc(func(context.Context, string, []byte) ([]oracle.Diagnostic, error) {
		return nil, errors.New("eqwalizer crashed")
	})
	d := New(Options{Parser: moduleParser(), Oracle: failing})
	fr, _, err := d.AnalyzeSource(context.Background(), Source{Path: "/ws/src/foo.erl", Content: []byte("-module(bar).\n")})
	if err != nil {
		t.Fatalf("AnalyzeSource: %v", err)
	}
	if fr.OracleErr == nil {
		t.Fatal("oracle error was lost")
	}
	if len(fr.Diagnostics) != 1 || fr.Diagnostics[0].Code != diag.ModuleMismatch {
		t.Fatalf("diagnostics = %+v", fr.Diagnostics)
	}
}

func TestAnalyzeRequiresParser(t *testing.T) {
	d := New(Options{})
	if _, _, err := d.AnalyzeSource(context.Background(), Source{Path: "m.erl"}); !errors.Is(err, ErrNoParser) {
		t.Fatalf("err = %v", err)
	}
}

func TestAnalyzeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := New(Options{Parser: moduleParser()})
	if _, _, err := d.AnalyzeSource(ctx, Source{Path: "m.erl", Content: []byte("-module(m).\n")}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestDiscoverKeepsExplicitFiles(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/a.erl":     "",
		"include/a.hrl": "",
		"src/a.app.src": "",
	})
	explicit := filepath.Join(root, "src", "a.app.src")
	files, err := Discover([]string{root, explicit, filepath.Join(root, "src", "a.erl")})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := []string{
		filepath.Join(root, "include", "a.hrl"),
		explicit,
		filepath.Join(root, "src", "a.erl"),
	}
	if strings.Join(files, "\n") != strings.Join(want, "\n") {
		t.Fatalf("files = %v, want %v", files, want)
	}
	if _, err := Discover([]string{filepath.Join(root, "missing")}); err == nil {
		t.Fatal("missing path must fail")
	}
}
