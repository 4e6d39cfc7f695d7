package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"erlfix/internal/diag"
	"erlfix/internal/document"
	"erlfix/internal/driver"
	"erlfix/internal/hir"
	"erlfix/internal/observ"
	"erlfix/internal/source"
	"erlfix/internal/trace"
	"erlfix/internal/version"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// DefaultDebounce is the delay between the last edit and re-analysis.
const DefaultDebounce = 200 * time.Millisecond

// AnalyzeFunc checks one open document.
type AnalyzeFunc func(ctx context.Context, src driver.Source) (driver.FileResult, *driver.Result, error)

// ServerOptions configures LSP server behavior.
type ServerOptions struct {
	Debounce time.Duration
	Analyze  AnalyzeFunc
	Metrics  *observ.Metrics
}

// openDoc is one document the client owns. Everything in it is guarded by
// Server.mu.
type openDoc struct {
	buf *document.Buffer
	// gen changes with every content change, including resyncs that keep
	// the client's version.
	gen    uint64
	timer  *time.Timer
	cancel context.CancelFunc
}

// analysis is the last published result of a document. Code actions are
// answered from it only while the document still has the analysed content.
type analysis struct {
	gen     uint64
	version int32
	fs      *source.FileSet
	file    source.FileID
	module  *hir.Module
	diags   []diag.Diagnostic
}

// Server handles stdio JSON-RPC for the erlfix language server.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex
	mu     sync.Mutex

	docs      map[string]*openDoc
	results   map[string]*analysis
	published map[string]struct{}

	workspaceRoot     string
	shutdownRequested bool
	debounce          time.Duration
	analyze           AnalyzeFunc
	metrics           *observ.Metrics
	baseCtx           context.Context
	traceLSP          bool
	generation        uint64
}

// NewServer constructs a new LSP server.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	analyzeFn := opts.Analyze
	if analyzeFn == nil {
		analyzeFn = func(context.Context, driver.Source) (driver.FileResult, *driver.Result, error) {
			return driver.FileResult{}, nil, driver.ErrNoParser
		}
	}
	return &Server{
		in:        bufio.NewReader(in),
		out:       bufio.NewWriter(out),
		docs:      make(map[string]*openDoc),
		results:   make(map[string]*analysis),
		published: make(map[string]struct{}),
		debounce:  debounce,
		analyze:   analyzeFn,
		metrics:   opts.Metrics,
		baseCtx:   context.Background(),
	}
}

// Run serves LSP requests until shutdown.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()
	defer s.stopAll()
	for {
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logf("failed to parse message: %v", err)
			if sendErr := s.sendError(nil, codeParseError, "parse error"); sendErr != nil {
				return sendErr
			}
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			return err
		}
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		if s.isShutdown() {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "workspace/didChangeConfiguration":
		return s.handleDidChangeConfiguration(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/codeAction":
		return s.handleCodeAction(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeMethodNotFound, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	root := ""
	if params.RootURI != "" {
		root = uriToPath(params.RootURI)
	}
	if root == "" && params.RootPath != "" {
		root = params.RootPath
	}
	if root == "" && len(params.WorkspaceFolders) > 0 {
		root = uriToPath(params.WorkspaceFolders[0].URI)
	}
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}
	s.mu.Lock()
	s.workspaceRoot = root
	s.mu.Unlock()
	s.applySettings(params.InitializationOptions)

	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    2,
				Save: saveOptions{
					IncludeText: true,
				},
			},
			CodeActionProvider: &codeActionOptions{
				CodeActionKinds: []string{quickFixKind, refactorKind},
			},
		},
		ServerInfo: &serverInfo{Name: "erlfix", Version: version.Version},
	}
	return s.sendResponse(msg.ID, result)
}

// WorkspaceRoot is the root the client announced in initialize.
func (s *Server) WorkspaceRoot() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workspaceRoot
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	s.shutdownRequested = true
	s.mu.Unlock()
	s.stopAll()
	s.clearPublishedDiagnostics()
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) isShutdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdownRequested
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	buf := document.FromString(params.TextDocument.Text)
	buf.SetVersion(params.TextDocument.Version)
	s.mu.Lock()
	if old, ok := s.docs[uri]; ok {
		old.stop()
	}
	doc := &openDoc{buf: buf}
	s.touch(doc)
	s.docs[uri] = doc
	s.mu.Unlock()
	s.scheduleDiagnostics(uri)
	return nil
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	changes := make([]document.Change, 0, len(params.ContentChanges))
	for _, c := range params.ContentChanges {
		changes = append(changes, toDocumentChange(c))
	}

	s.mu.Lock()
	doc, ok := s.docs[uri]
	if !ok {
		s.mu.Unlock()
		s.logf("didChange for unopened document %s", uri)
		return nil
	}
	discarded := doc.buf.ApplyChanges(changes)
	doc.buf.SetVersion(params.TextDocument.Version)
	s.touch(doc)
	traceLSP := s.traceLSP
	tr := trace.FromContext(s.baseCtx)
	s.mu.Unlock()

	s.metrics.Discarded(len(discarded))
	for _, d := range discarded {
		detail := fmt.Sprintf("%s: change %d: %v", uri, d.Index, d.Err)
		s.logf("discarded edit: %s", detail)
		trace.Point(tr, trace.ScopeNode, "change_discarded", detail, 0,
			map[string]string{"uri": uri, "index": strconv.Itoa(d.Index)})
	}
	if traceLSP {
		s.logf("didChange: uri=%s version=%d changes=%d discarded=%d", uri, params.TextDocument.Version, len(changes), len(discarded))
	}
	s.scheduleDiagnostics(uri)
	return nil
}

func toDocumentChange(c textDocumentContentChangeEvent) document.Change {
	out := document.Change{Text: c.Text}
	if c.Range != nil {
		out.Range = &document.Range{
			Start: toDocumentPosition(c.Range.Start),
			End:   toDocumentPosition(c.Range.End),
		}
	}
	return out
}

// toDocumentPosition maps negative values past every line so the buffer
// rejects them instead of clamping.
func toDocumentPosition(p position) document.Position {
	line, ok := toUint32(p.Line)
	if !ok {
		line = ^uint32(0)
	}
	col, ok := toUint32(p.Character)
	if !ok {
		col = ^uint32(0)
	}
	return document.Position{Line: line, Character: col}
}

func (s *Server) handleDidSave(msg *rpcMessage) error {
	var params didSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	doc, ok := s.docs[uri]
	if ok && params.Text != nil && *params.Text != doc.buf.String() {
		// the client's saved text wins over a diverged buffer
		v := doc.buf.Version()
		doc.buf = document.FromString(*params.Text)
		doc.buf.SetVersion(v)
		s.touch(doc)
		s.logf("didSave: %s diverged from the synced buffer, resynced", uri)
	}
	s.mu.Unlock()
	if ok {
		s.scheduleDiagnostics(uri)
	}
	return nil
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	if doc, ok := s.docs[uri]; ok {
		doc.stop()
	}
	delete(s.docs, uri)
	delete(s.results, uri)
	_, hadDiagnostics := s.published[uri]
	delete(s.published, uri)
	s.mu.Unlock()
	if hadDiagnostics {
		if err := s.sendPublish(uri, nil, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
	return nil
}

// touch marks new content in doc. Callers hold s.mu.
func (s *Server) touch(doc *openDoc) {
	s.generation++
	doc.gen = s.generation
}

func (d *openDoc) stop() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (s *Server) stopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range s.docs {
		doc.stop()
	}
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	var rawID any = json.RawMessage(id)
	if len(id) == 0 {
		rawID = nil
	}
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      rawID,
		"error": rpcError{
			Code:    code,
			Message: message,
		},
	}
	return s.send(msg)
}

func (s *Server) sendPublish(uri string, version *int32, list []lspDiagnostic) error {
	if list == nil {
		list = []lspDiagnostic{}
	}
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  "textDocument/publishDiagnostics",
		"params": publishDiagnosticsParams{
			URI:         uri,
			Version:     version,
			Diagnostics: list,
		},
	}
	return s.send(msg)
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}

func (s *Server) logf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "lsp: "+format+"\n", args...)
}
