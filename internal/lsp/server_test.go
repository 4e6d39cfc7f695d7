package lsp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"erlfix/internal/driver"
	"erlfix/internal/frontend"
	"erlfix/internal/hir"
	"erlfix/internal/observ"
	"erlfix/internal/source"
)

// moduleParser recognises only the -module attribute.
func moduleParser() frontend.Parser {
	return frontend.ParserFunc(func(_ context.Context, fs *source.FileSet, file source.FileID) (*hir.Module, error) {
		text := string(fs.Get(file).Content)
		m := &hir.Module{File: file}
		const prefix = "-module("
		start := strings.Index(text, prefix)
		if start < 0 {
			return m, nil
		}
		end := start + strings.Index(text[start:], ").")
		nameStart := start + len(prefix)
		m.Attribute = &hir.ModuleAttribute{
			Name:     text[nameStart:end],
			Span:     source.Span{File: file, Start: uint32(start), End: uint32(end + 2)},      //nolint:gosec // test input
			NameSpan: source.Span{File: file, Start: uint32(nameStart), End: uint32(end)}, //nolint:gosec // test input
		}
		return m, nil
	})
}

type harness struct {
	t       *testing.T
	server  *Server
	out     *bytes.Buffer
	read    int
	metrics *observ.Metrics
}

func newHarness(t *testing.T, analyze AnalyzeFunc) *harness {
	t.Helper()
	metrics := observ.NewMetrics()
	if analyze == nil {
		d := driver.New(driver.Options{Parser: moduleParser(), Metrics: metrics})
		analyze = d.AnalyzeSource
	}
	var out bytes.Buffer
	server := NewServer(bytes.NewReader(nil), &out, ServerOptions{
		Debounce: time.Hour,
		Analyze:  analyze,
		Metrics:  metrics,
	})
	return &harness{t: t, server: server, out: &out, metrics: metrics}
}

func (h *harness) notify(method string, params any) {
	h.t.Helper()
	payload, err := json.Marshal(params)
	if err != nil {
		h.t.Fatalf("marshal %s: %v", method, err)
	}
	if err := h.server.handleMessage(&rpcMessage{Method: method, Params: payload}); err != nil {
		h.t.Fatalf("%s: %v", method, err)
	}
}

func (h *harness) request(method string, params any) {
	h.t.Helper()
	payload, err := json.Marshal(params)
	if err != nil {
		h.t.Fatalf("marshal %s: %v", method, err)
	}
	if err := h.server.handleMessage(&rpcMessage{ID: json.RawMessage("1"), Method: method, Params: payload}); err != nil {
		h.t.Fatalf("%s: %v", method, err)
	}
}

// messages returns everything written since the previous call.
func (h *harness) messages() []rpcMessage {
	h.t.Helper()
	data := h.out.Bytes()[h.read:]
	h.read = h.out.Len()
	reader := bufio.NewReader(bytes.NewReader(data))
	var out []rpcMessage
	for {
		payload, err := readMessage(reader)
		if err != nil {
			return out
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.t.Fatalf("decode: %v", err)
		}
		out = append(out, msg)
	}
}

func (h *harness) publishes() []publishDiagnosticsParams {
	h.t.Helper()
	var out []publishDiagnosticsParams
	for _, msg := range h.messages() {
		if msg.Method != "textDocument/publishDiagnostics" {
			continue
		}
		var params publishDiagnosticsParams
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			h.t.Fatalf("decode params: %v", err)
		}
		out = append(out, params)
	}
	return out
}

// analyzeNow stops the debounce timer and runs the analysis synchronously.
func (h *harness) analyzeNow(uri string) {
	h.server.mu.Lock()
	if doc, ok := h.server.docs[uri]; ok && doc.timer != nil {
		doc.timer.Stop()
	}
	h.server.mu.Unlock()
	h.server.runDiagnostics(uri)
}

func openFoo(t *testing.T, h *harness) string {
	t.Helper()
	uri := pathToURI(filepath.Join(t.TempDir(), "foo.erl"))
	h.notify("textDocument/didOpen", didOpenTextDocumentParams{
		TextDocument: textDocumentItem{URI: uri, LanguageID: "erlang", Version: 1, Text: "-module(bar).\n"},
	})
	return uri
}

func TestPublishDiagnosticsMapping(t *testing.T) {
	h := newHarness(t, nil)
	uri := openFoo(t, h)
	h.analyzeNow(uri)

	pubs := h.publishes()
	if len(pubs) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(pubs))
	}
	params := pubs[0]
	if params.URI != uri || params.Version == nil || *params.Version != 1 {
		t.Fatalf("publish target = %s version %v", params.URI, params.Version)
	}
	if len(params.Diagnostics) != 1 {
		t.Fatalf("expected 1 diagnostic, got %+v", params.Diagnostics)
	}
	got := params.Diagnostics[0]
	want := lspRange{Start: position{Line: 0, Character: 8}, End: position{Line: 0, Character: 11}}
	if got.Range != want {
		t.Fatalf("range = %+v, want %+v", got.Range, want)
	}
	if got.Code != "W0001" || got.Severity != 1 || got.Source != "erlfix" {
		t.Fatalf("diagnostic = %+v", got)
	}
	if got.Data == nil || len(got.Data.Fixes) != 2 || got.Data.Fixes[0].ID != "rename_module_to_match_filename" {
		t.Fatalf("data = %+v", got.Data)
	}
}

func TestCodeActionReturnsWorkspaceEdits(t *testing.T) {
	h := newHarness(t, nil)
	uri := openFoo(t, h)
	h.analyzeNow(uri)
	h.messages()

	cursor := position{Line: 0, Character: 9}
	h.request("textDocument/codeAction", codeActionParams{
		TextDocument: textDocumentIdentifier{URI: uri},
		Range:        lspRange{Start: cursor, End: cursor},
	})
	msgs := h.messages()
	if len(msgs) != 1 || msgs[0].Error != nil {
		t.Fatalf("response = %+v", msgs)
	}
	var actions []codeAction
	if err := json.Unmarshal(msgs[0].Result, &actions); err != nil {
		t.Fatalf("decode actions: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("actions = %+v", actions)
	}
	rename := actions[0]
	if rename.Title != "Rename module to: foo" || rename.Kind != "quickfix" || rename.Edit == nil {
		t.Fatalf("rename = %+v", rename)
	}
	edits := rename.Edit.Changes[uri]
	if len(edits) != 1 || edits[0].NewText != "foo" || edits[0].Range.Start.Character != 8 || edits[0].Range.End.Character != 11 {
		t.Fatalf("edits = %+v", edits)
	}
	if actions[1].Title != "Ignore problem" || actions[1].Edit.Changes[uri][0].NewText != "% erlfix:ignore W0001 (module_mismatch)\n" {
		t.Fatalf("ignore = %+v", actions[1])
	}

	// far from the trigger nothing is offered
	away := position{Line: 1, Character: 0}
	h.request("textDocument/codeAction", codeActionParams{
		TextDocument: textDocumentIdentifier{URI: uri},
		Range:        lspRange{Start: away, End: away},
	})
	msgs = h.messages()
	if len(msgs) != 1 || string(msgs[0].Result) != "[]" {
		t.Fatalf("expected no actions, got %s", msgs[0].Result)
	}
}

// typeParser adds a `-type t() :: ok.` declaration when the text has one.
func typeParser() frontend.Parser {
	base := moduleParser()
	return frontend.ParserFunc(func(ctx context.Context, fs *source.FileSet, file source.FileID) (*hir.Module, error) {
		m, err := base.Parse(ctx, fs, file)
		if err != nil {
			return nil, err
		}
		const decl = "-type t() :: ok."
		if at := strings.Index(string(fs.Get(file).Content), decl); at >= 0 {
			start := uint32(at) //nolint:gosec // test input
			m.Types = append(m.Types, &hir.TypeAlias{
				Name:     hir.NameArity{Name: "t"},
				Span:     source.Span{File: file, Start: start, End: start + uint32(len(decl))},
				NameSpan: source.Span{File: file, Start: start + 6, End: start + 7},
			})
		}
		return m, nil
	})
}

func TestCodeActionOffersAssists(t *testing.T) {
	d := driver.New(driver.Options{Parser: typeParser()})
	h := newHarness(t, d.AnalyzeSource)
	uri := pathToURI(filepath.Join(t.TempDir(), "foo.erl"))
	h.notify("textDocument/didOpen", didOpenTextDocumentParams{
		TextDocument: textDocumentItem{URI: uri, LanguageID: "erlang", Version: 1, Text: "-module(foo).\n-type t() :: ok.\n"},
	})
	h.analyzeNow(uri)
	h.messages()

	cursor := position{Line: 1, Character: 6}
	ask := func(only ...string) []codeAction {
		t.Helper()
		h.request("textDocument/codeAction", codeActionParams{
			TextDocument: textDocumentIdentifier{URI: uri},
			Range:        lspRange{Start: cursor, End: cursor},
			Context:      codeActionContext{Only: only},
		})
		msgs := h.messages()
		if len(msgs) != 1 || msgs[0].Error != nil {
			t.Fatalf("response = %+v", msgs)
		}
		var actions []codeAction
		if err := json.Unmarshal(msgs[0].Result, &actions); err != nil {
			t.Fatalf("decode actions: %v", err)
		}
		return actions
	}

	actions := ask("refactor")
	if len(actions) != 1 || actions[0].Title != "Export the type `t/0`" || actions[0].Kind != "refactor.rewrite" {
		t.Fatalf("actions = %+v", actions)
	}
	edits := actions[0].Edit.Changes[uri]
	if len(edits) != 1 || edits[0].NewText != "\n\n-export_type([t/0])." || edits[0].Range.Start != (position{Line: 0, Character: 13}) {
		t.Fatalf("edits = %+v", edits)
	}
	for _, a := range ask("quickfix") {
		if a.Kind != "quickfix" {
			t.Fatalf("quickfix filter leaked %+v", a)
		}
	}
}

func TestStaleResultIsDiscarded(t *testing.T) {
	var h *harness
	var uri string
	inner := driver.New(driver.Options{Parser: moduleParser()})
	h = newHarness(t, func(ctx context.Context, src driver.Source) (driver.FileResult, *driver.Result, error) {
		// the user types while the analysis runs
		h.notify("textDocument/didChange", didChangeTextDocumentParams{
			TextDocument: versionedTextDocumentIdentifier{URI: uri, Version: src.Version + 1},
			ContentChanges: []textDocumentContentChangeEvent{{
				Range: &lspRange{Start: position{Line: 1, Character: 0}, End: position{Line: 1, Character: 0}},
				Text:  "%% edit\n",
			}},
		})
		return inner.AnalyzeSource(ctx, src)
	})
	uri = openFoo(t, h)
	h.analyzeNow(uri)

	if pubs := h.publishes(); len(pubs) != 0 {
		t.Fatalf("stale result was published: %+v", pubs)
	}
	if got := testutil.ToFloat64(h.metrics.StaleResults); got != 1 {
		t.Fatalf("stale counter = %v", got)
	}

	// code actions are not answered from an outdated analysis either
	h.request("textDocument/codeAction", codeActionParams{
		TextDocument: textDocumentIdentifier{URI: uri},
		Range:        lspRange{Start: position{Line: 0, Character: 9}, End: position{Line: 0, Character: 9}},
	})
	if msgs := h.messages(); len(msgs) != 1 || string(msgs[0].Result) != "[]" {
		t.Fatalf("expected no actions, got %+v", msgs)
	}
}

func TestSaveResyncDiscardsInFlightResult(t *testing.T) {
	var h *harness
	var uri string
	inner := driver.New(driver.Options{Parser: moduleParser()})
	saved := "-module(foo).\n"
	h = newHarness(t, func(ctx context.Context, src driver.Source) (driver.FileResult, *driver.Result, error) {
		// the save replaces the text but keeps the version
		h.notify("textDocument/didSave", didSaveTextDocumentParams{
			TextDocument: textDocumentIdentifier{URI: uri},
			Text:         &saved,
		})
		return inner.AnalyzeSource(ctx, src)
	})
	uri = openFoo(t, h)
	h.analyzeNow(uri)

	if pubs := h.publishes(); len(pubs) != 0 {
		t.Fatalf("result for the pre-save text was published: %+v", pubs)
	}
	if got := testutil.ToFloat64(h.metrics.StaleResults); got != 1 {
		t.Fatalf("stale counter = %v", got)
	}
	h.server.mu.Lock()
	_, cached := h.server.results[uri]
	text := h.server.docs[uri].buf.String()
	h.server.mu.Unlock()
	if cached || text != saved {
		t.Fatalf("cached = %v, text = %q", cached, text)
	}
}

func TestDidChangeDiscardsBadRanges(t *testing.T) {
	h := newHarness(t, nil)
	uri := openFoo(t, h)
	h.notify("textDocument/didChange", didChangeTextDocumentParams{
		TextDocument: versionedTextDocumentIdentifier{URI: uri, Version: 2},
		ContentChanges: []textDocumentContentChangeEvent{
			{Range: &lspRange{Start: position{Line: 7, Character: 0}, End: position{Line: 7, Character: 1}}, Text: "x"},
			{Range: &lspRange{Start: position{Line: 0, Character: 8}, End: position{Line: 0, Character: 11}}, Text: "foo"},
		},
	})
	if got := testutil.ToFloat64(h.metrics.ChangesDiscarded); got != 1 {
		t.Fatalf("discarded counter = %v", got)
	}
	h.server.mu.Lock()
	text := h.server.docs[uri].buf.String()
	h.server.mu.Unlock()
	if text != "-module(foo).\n" {
		t.Fatalf("buffer = %q", text)
	}

	h.analyzeNow(uri)
	pubs := h.publishes()
	if len(pubs) != 1 || len(pubs[0].Diagnostics) != 0 || *pubs[0].Version != 2 {
		t.Fatalf("publishes = %+v", pubs)
	}
}

func TestDidCloseClearsDiagnostics(t *testing.T) {
	h := newHarness(t, nil)
	uri := openFoo(t, h)
	h.analyzeNow(uri)
	h.messages()

	h.notify("textDocument/didClose", didCloseTextDocumentParams{TextDocument: textDocumentIdentifier{URI: uri}})
	pubs := h.publishes()
	if len(pubs) != 1 || pubs[0].URI != uri || len(pubs[0].Diagnostics) != 0 {
		t.Fatalf("publishes = %+v", pubs)
	}
	h.server.mu.Lock()
	_, open := h.server.docs[uri]
	h.server.mu.Unlock()
	if open {
		t.Fatal("document still open")
	}
}

func TestLifecycle(t *testing.T) {
	h := newHarness(t, nil)
	h.request("initialize", initializeParams{RootURI: pathToURI(t.TempDir())})
	msgs := h.messages()
	if len(msgs) != 1 {
		t.Fatalf("messages = %+v", msgs)
	}
	var res initializeResult
	if err := json.Unmarshal(msgs[0].Result, &res); err != nil {
		t.Fatalf("decode initialize: %v", err)
	}
	if res.Capabilities.TextDocumentSync.Change != 2 || res.Capabilities.CodeActionProvider == nil {
		t.Fatalf("capabilities = %+v", res.Capabilities)
	}

	h.request("textDocument/hover", textDocumentIdentifier{URI: "file:///x.erl"})
	msgs = h.messages()
	if len(msgs) != 1 || msgs[0].Error == nil || msgs[0].Error.Code != codeMethodNotFound {
		t.Fatalf("unknown method reply = %+v", msgs)
	}

	if err := h.server.handleMessage(&rpcMessage{Method: "exit"}); err != ErrExitWithoutShutdown {
		t.Fatalf("exit before shutdown = %v", err)
	}
	h.request("shutdown", nil)
	if err := h.server.handleMessage(&rpcMessage{Method: "exit"}); err != ErrExit {
		t.Fatalf("exit after shutdown = %v", err)
	}
}

func TestSettingsUpdateDebounceAndTrace(t *testing.T) {
	h := newHarness(t, nil)
	h.request("initialize", map[string]any{
		"rootUri":               "file:///work",
		"initializationOptions": map[string]any{"erlfix": map[string]any{"debounceMs": 50}},
	})
	h.messages()
	if h.server.debounce != 50*time.Millisecond {
		t.Fatalf("debounce = %v, want 50ms", h.server.debounce)
	}

	h.notify("workspace/didChangeConfiguration", map[string]any{
		"settings": map[string]any{"erlfix": map[string]any{"trace": true, "debounceMs": 600000}},
	})
	if !h.server.traceLSP {
		t.Error("trace setting not applied")
	}
	if h.server.debounce != maxDebounce {
		t.Errorf("debounce = %v, want cap %v", h.server.debounce, maxDebounce)
	}

	// a payload without the key leaves the value alone
	h.notify("workspace/didChangeConfiguration", map[string]any{"settings": map[string]any{"erlfix": map[string]any{}}})
	if !h.server.traceLSP || h.server.debounce != maxDebounce {
		t.Error("empty settings reset values")
	}
}
