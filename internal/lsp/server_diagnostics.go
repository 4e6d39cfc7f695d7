package lsp

import (
	"context"
	"sort"
	"time"

	"erlfix/internal/diag"
	"erlfix/internal/driver"
	"erlfix/internal/source"
)

const diagnosticSource = "erlfix"

func (s *Server) scheduleDiagnostics(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[uri]
	if !ok {
		return
	}
	doc.stop()
	doc.timer = time.AfterFunc(s.debounce, func() {
		s.runDiagnostics(uri)
	})
}

// runDiagnostics analyses the current content of uri. The result is
// published only if the document content has not changed meanwhile.
func (s *Server) runDiagnostics(uri string) {
	s.mu.Lock()
	doc, ok := s.docs[uri]
	if !ok {
		s.mu.Unlock()
		return
	}
	if doc.cancel != nil {
		doc.cancel()
	}
	ctx, cancel := context.WithCancel(s.baseCtx)
	doc.cancel = cancel
	src := driver.Source{
		Path:    uriToPath(uri),
		Content: doc.buf.Bytes(),
		Version: doc.buf.Version(),
	}
	gen := doc.gen
	traceLSP := s.traceLSP
	s.mu.Unlock()
	defer cancel()

	if src.Path == "" {
		return
	}
	started := time.Now()
	fr, res, err := s.analyze(ctx, src)
	if err != nil {
		if ctx.Err() == nil {
			s.logf("diagnostics failed for %s: %v", uri, err)
		}
		return
	}
	if fr.Err != nil {
		s.logf("%v", fr.Err)
		return
	}
	if fr.OracleErr != nil {
		s.logf("oracle failed for %s: %v", uri, fr.OracleErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok = s.docs[uri]
	if !ok || doc.gen != gen {
		s.metrics.Stale()
		if traceLSP {
			s.logf("discard stale result: uri=%s version=%d", uri, fr.Version)
		}
		return
	}
	a := &analysis{gen: gen, version: fr.Version, fs: res.FileSet, file: fr.File, diags: fr.Diagnostics}
	if res.DB != nil {
		a.module, _ = res.DB.Module(fr.File)
	}
	s.results[uri] = a
	s.published[uri] = struct{}{}
	list := toLSPDiagnostics(res.FileSet, fr.Diagnostics)
	version := fr.Version
	if traceLSP {
		s.logf("publish: uri=%s version=%d diagnostics=%d in %s", uri, version, len(list), time.Since(started))
	}
	// published under s.mu so an older result can never overtake a newer one
	if err := s.sendPublish(uri, &version, list); err != nil {
		s.logf("failed to publish diagnostics: %v", err)
	}
}

func (s *Server) clearPublishedDiagnostics() {
	s.mu.Lock()
	targets := make([]string, 0, len(s.published))
	for uri := range s.published {
		targets = append(targets, uri)
	}
	s.published = make(map[string]struct{})
	s.results = make(map[string]*analysis)
	s.mu.Unlock()
	sort.Strings(targets)
	for _, uri := range targets {
		if err := s.sendPublish(uri, nil, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
}

func lspSeverity(sev diag.Severity) int {
	switch sev {
	case diag.SevError:
		return 1
	case diag.SevWarning:
		return 2
	default:
		return 4
	}
}

func toLSPDiagnostics(fs *source.FileSet, diags []diag.Diagnostic) []lspDiagnostic {
	out := make([]lspDiagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, toLSPDiagnostic(fs, d))
	}
	return out
}

func toLSPDiagnostic(fs *source.FileSet, d diag.Diagnostic) lspDiagnostic {
	out := lspDiagnostic{
		Range:    rangeForSpan(fs.Get(d.Primary.File), d.Primary),
		Severity: lspSeverity(d.Severity),
		Code:     d.Code.ID(),
		Source:   diagnosticSource,
		Message:  d.Message,
	}
	for _, n := range d.Notes {
		f := fs.Get(n.Span.File)
		if f == nil {
			continue
		}
		out.RelatedInformation = append(out.RelatedInformation, diagnosticRelatedInformation{
			Location: location{URI: pathToURI(f.Path), Range: rangeForSpan(f, n.Span)},
			Message:  n.Msg,
		})
	}
	if len(d.Fixes) > 0 {
		data := &diagnosticData{}
		for _, fx := range d.Fixes {
			data.Fixes = append(data.Fixes, fixRef{ID: fx.ID, Label: fx.Label})
		}
		out.Data = data
	}
	return out
}
