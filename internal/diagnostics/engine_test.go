package diagnostics

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"erlfix/internal/diag"
	"erlfix/internal/fix"
	"erlfix/internal/hir"
	"erlfix/internal/observ"
	"erlfix/internal/sema"
	"erlfix/internal/source"
	"erlfix/internal/testkit"
)

func run(t *testing.T, db sema.DB, file source.FileID, cfg Config, opts ...EngineOption) []diag.Diagnostic {
	t.Helper()
	diags, err := NewEngine(cfg, opts...).Run(context.Background(), db, file)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := testkit.CheckFixInvariants(db.Files(), diags); err != nil {
		t.Fatalf("fix invariants: %v", err)
	}
	return diags
}

func applyFix(t *testing.T, src *testkit.Source, d diag.Diagnostic, id string) string {
	t.Helper()
	f, ok := d.FixByID(id)
	if !ok {
		t.Fatalf("%s: no fix %q among %+v", d.Code.ID(), id, d.Fixes)
	}
	out, err := fix.ApplyChange([]byte(src.Text), f.Change.Edits(src.File))
	if err != nil {
		t.Fatalf("apply %q: %v", id, err)
	}
	return string(out)
}

// addZeroModule builds `f() -> f(0 + 42).` in whatever text surrounds it.
// Operand spans are derived from the call since annotations may also contain
// digits.
func addZeroModule(src *testkit.Source) *hir.Module {
	b := src.Body()
	callSp := src.Span("f(0 + 42)")
	at := func(from, to uint32) source.Span {
		return source.Span{File: src.File, Start: callSp.Start + from, End: callSp.Start + to}
	}
	sum := b.Binary(at(2, 8), hir.OpAdd, b.Lit(at(2, 3)), b.Lit(at(6, 8)))
	call := b.Call(callSp, hir.NoExprID, b.Lit(at(0, 1)), sum)
	cl := b.Clause(src.Span("f() -> f(0 + 42)."), nil, call)
	return &hir.Module{
		Attribute: src.ModuleAttr("m"),
		Functions: []*hir.FunctionDef{src.Function("f", 0, cl)},
	}
}

func TestSimplifyAndFix(t *testing.T) {
	src := testkit.NewSource("src/m.erl", "-module(m).\nf() -> f(0 + 42).\n")
	db := src.Snapshot(addZeroModule(src))

	diags := run(t, db, src.File, DefaultConfig())
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics: %+v", len(diags), diags)
	}
	d := diags[0]
	if d.Code != diag.ExpressionCanBeSimplified || d.Severity != diag.SevWarning {
		t.Fatalf("unexpected diagnostic %s %s", d.Code.ID(), d.Severity)
	}
	if d.Message != "Can be simplified to `42`." {
		t.Fatalf("message = %q", d.Message)
	}
	if d.Primary != src.Span("0 + 42") {
		t.Fatalf("range = %v", d.Primary)
	}
	if !d.Categories.Has(diag.CatSimplificationRule) {
		t.Fatal("missing simplification category")
	}
	if len(d.Fixes) != 2 || d.Fixes[0].ID != "simplify_expression" || d.Fixes[1].ID != IgnoreFixID {
		t.Fatalf("fixes = %+v", d.Fixes)
	}
	if d.Fixes[0].Label != "Replace by `42`" {
		t.Fatalf("label = %q", d.Fixes[0].Label)
	}
	if got := applyFix(t, src, d, "simplify_expression"); got != "-module(m).\nf() -> f(42).\n" {
		t.Fatalf("fixed = %q", got)
	}
}

func TestIgnoreFixSuppressesOnRerun(t *testing.T) {
	src := testkit.NewSource("src/m.erl", "-module(m).\n  f() -> f(0 + 42).\n")
	db := src.Snapshot(addZeroModule(src))
	diags := run(t, db, src.File, DefaultConfig())
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics", len(diags))
	}
	ignore, ok := diags[0].FixByID(IgnoreFixID)
	if !ok || ignore.Applicability != diag.FixManualReview {
		t.Fatalf("ignore fix = %+v, %v", ignore, ok)
	}

	text := applyFix(t, src, diags[0], IgnoreFixID)
	want := "-module(m).\n  % erlfix:ignore W0030 (expression_can_be_simplified)\n  f() -> f(0 + 42).\n"
	if text != want {
		t.Fatalf("annotated = %q", text)
	}

	again := testkit.NewSource("src/m.erl", text)
	db = again.Snapshot(addZeroModule(again))
	if diags := run(t, db, again.File, DefaultConfig()); len(diags) != 0 {
		t.Fatalf("annotation did not suppress: %+v", diags)
	}
}

func TestFileScopeIgnorePlacement(t *testing.T) {
	const note = "% erlfix:ignore W0012 (compile_warn_missing_spec)\n"
	tests := []struct {
		name   string
		text   string
		module bool
		want   string
	}{
		{"after module", "%% header\n-module(m).\nf() -> ok.\n", true, "%% header\n-module(m).\n" + note + "f() -> ok.\n"},
		{"module without newline", "-module(m).", true, "-module(m).\n" + note},
		{"after leading comments", "%% a\n\n%% b\nf() -> ok.\n", false, "%% a\n\n%% b\n" + note + "f() -> ok.\n"},
		{"comments only", "%% a", false, "%% a\n" + note},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot := func(src *testkit.Source) *sema.Snapshot {
				m := &hir.Module{}
				if tt.module {
					m.Attribute = src.ModuleAttr("m")
				}
				return src.Snapshot(m)
			}
			src := testkit.NewSource("src/m.erl", tt.text)
			d := diag.ReportError(nil, diag.MissingCompileWarnMissingSpec, source.Span{File: src.File}, "missing").WholeFile().Diagnostic()
			fx, ok := IgnoreFix(snapshot(src), src.File, d)
			if !ok {
				t.Fatal("no ignore fix")
			}
			d.AddFix(fx)
			annotated := applyFix(t, src, d, IgnoreFixID)
			if annotated != tt.want {
				t.Fatalf("annotated = %q, want %q", annotated, tt.want)
			}

			again := testkit.NewSource("src/m.erl", annotated)
			d.Primary.File = again.File
			if left := Annotate(snapshot(again), again.File, []diag.Diagnostic{d}, nil); len(left) != 0 {
				t.Fatalf("annotation did not suppress: %+v", left)
			}
		})
	}
}

func TestSafetyRejectionsFailClosed(t *testing.T) {
	t.Run("comment", func(t *testing.T) {
		src := testkit.NewSource("src/m.erl", "-module(m).\nf() -> f(0 + % zero\n 42).\n")
		b := src.Body()
		sum := b.Binary(src.Span("0 + % zero\n 42"), hir.OpAdd, b.Lit(src.Span("0")), b.Lit(src.Span("42")))
		cl := b.Clause(src.Span("f() -> f(0 + % zero\n 42)."), nil, sum)
		m := &hir.Module{Attribute: src.ModuleAttr("m"), Functions: []*hir.FunctionDef{src.Function("f", 0, cl)}}
		metrics := observ.NewMetrics()

		diags := run(t, src.Snapshot(m), src.File, DefaultConfig(), WithMetrics(metrics))
		if len(diags) != 0 {
			t.Fatalf("expected no diagnostics, got %+v", diags)
		}
		if got := testutil.ToFloat64(metrics.FixesRejected.WithLabelValues("comment")); got != 1 {
			t.Fatalf("rejections = %v", got)
		}
	})

	t.Run("cross file", func(t *testing.T) {
		src := testkit.NewSource("src/m.erl", "-module(m).\nf() -> g().\n")
		hdr := src.Add("include/h.hrl", "0 + 1")
		b := src.Body()
		sum := b.Binary(hdr.Span("0 + 1"), hir.OpAdd, b.Lit(hdr.Span("0")), b.Lit(hdr.Span("1")))
		cl := b.Clause(src.Span("f() -> g()."), nil, sum)
		m := &hir.Module{Attribute: src.ModuleAttr("m"), Functions: []*hir.FunctionDef{src.Function("f", 0, cl)}}

		if diags := run(t, src.Snapshot(m), src.File, DefaultConfig()); len(diags) != 0 {
			t.Fatalf("expected no diagnostics, got %+v", diags)
		}
	})
}

func TestRulePanicIsIsolated(t *testing.T) {
	src := testkit.NewSource("src/m.erl", "-module(m).\nf() -> f(0 + 42).\n")
	db := src.Snapshot(addZeroModule(src))
	boom := Descriptor{
		Code:       diag.ModuleMismatch,
		Conditions: Conditions{IncludeTests: true},
		Check:      func(*Context) { panic("index out of range") },
	}
	metrics := observ.NewMetrics()
	e := NewEngine(DefaultConfig(), WithRegistry(NewRegistry(boom, expressionCanBeSimplified)), WithMetrics(metrics))

	diags, err := e.Run(context.Background(), db, src.File)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(diags) != 1 || diags[0].Code != diag.ExpressionCanBeSimplified {
		t.Fatalf("diagnostics = %+v", diags)
	}
	failures := e.LastFailures()
	if len(failures) != 1 || failures[0].Code != diag.ModuleMismatch || !strings.Contains(failures[0].Panic, "index out of range") {
		t.Fatalf("failures = %+v", failures)
	}
	if got := testutil.ToFloat64(metrics.RulePanics.WithLabelValues("W0001")); got != 1 {
		t.Fatalf("panic counter = %v", got)
	}
	e.ResetFailures()
	if len(e.LastFailures()) != 0 {
		t.Fatal("ResetFailures kept entries")
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	src := testkit.NewSource("src/m.erl", "-module(m).\nf() -> f(0 + 42).\n")
	db := src.Snapshot(addZeroModule(src))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewEngine(DefaultConfig()).Run(ctx, db, src.File); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestParseIgnore(t *testing.T) {
	tests := []struct {
		comment string
		ok      bool
		codes   []diag.Code
	}{
		{"% erlfix:ignore W0030", true, []diag.Code{diag.ExpressionCanBeSimplified}},
		{"%% erlfix:ignore W0030 (expression_can_be_simplified)", true, []diag.Code{diag.ExpressionCanBeSimplified}},
		{"% erlfix:ignore W0017,W0030", true, []diag.Code{diag.UnspecificInclude, diag.ExpressionCanBeSimplified}},
		{"% erlfix:ignore unspecific_include bogus", true, []diag.Code{diag.UnspecificInclude}},
		{"% erlfix:ignore", true, nil},
		{"% erlfix:ignored W0030", false, nil},
		{"% just a comment", false, nil},
	}
	for _, tt := range tests {
		codes, ok := ParseIgnore(tt.comment)
		if ok != tt.ok {
			t.Errorf("ParseIgnore(%q) ok = %v", tt.comment, ok)
			continue
		}
		if len(codes) != len(tt.codes) {
			t.Errorf("ParseIgnore(%q) = %v, want %v", tt.comment, codes, tt.codes)
			continue
		}
		for i := range codes {
			if codes[i] != tt.codes[i] {
				t.Errorf("ParseIgnore(%q)[%d] = %v, want %v", tt.comment, i, codes[i], tt.codes[i])
			}
		}
	}
}

func TestConfigApplies(t *testing.T) {
	stable := Descriptor{Code: diag.ExpressionCanBeSimplified, Conditions: Conditions{IncludeTests: true}}
	experimental := Descriptor{Code: diag.RedundantAssignment, Conditions: Conditions{Experimental: true, IncludeTests: true}}
	optIn := Descriptor{Code: diag.MissingCompileWarnMissingSpec, Conditions: Conditions{DefaultDisabled: true}}

	cfg := DefaultConfig()
	tests := []struct {
		name      string
		cfg       func() Config
		d         Descriptor
		generated bool
		test      bool
		want      bool
	}{
		{"stable", func() Config { return cfg }, stable, false, false, true},
		{"stable in test", func() Config { return cfg }, stable, false, true, true},
		{"stable generated", func() Config { return cfg }, stable, true, false, false},
		{"experimental off", func() Config { return cfg }, experimental, false, false, false},
		{"experimental on", func() Config { c := cfg.Clone(); c.Experimental = true; return c }, experimental, false, false, true},
		{"opt-in off", func() Config { return cfg }, optIn, false, false, false},
		{"opt-in enabled", func() Config {
			c := cfg.Clone()
			if err := c.Enable("compile_warn_missing_spec"); err != nil {
				t.Fatal(err)
			}
			return c
		}, optIn, false, false, true},
		{"opt-in enabled but test", func() Config {
			c := cfg.Clone()
			_ = c.Enable("W0012")
			return c
		}, optIn, false, true, false},
		{"disabled wins", func() Config {
			c := cfg.Clone()
			_ = c.Enable("W0030")
			_ = c.Disable("W0030")
			return c
		}, stable, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg().Applies(tt.d, tt.generated, tt.test); got != tt.want {
				t.Errorf("Applies = %v, want %v", got, tt.want)
			}
		})
	}

	c := cfg.Clone()
	if err := c.Enable("W9999"); err == nil {
		t.Fatal("expected error for unknown code")
	}
}
