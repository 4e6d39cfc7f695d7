package lsp

import (
	"encoding/json"
	"strings"

	"erlfix/internal/assists"
	"erlfix/internal/diag"
	"erlfix/internal/source"
)

const (
	quickFixKind = "quickfix"
	refactorKind = "refactor.rewrite"
)

func (s *Server) handleCodeAction(msg *rpcMessage) error {
	var params codeActionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	uri := canonicalURI(params.TextDocument.URI)
	quick, refactor := wantsKind(params.Context.Only, quickFixKind), wantsKind(params.Context.Only, refactorKind)
	if !quick && !refactor {
		return s.sendResponse(msg.ID, []codeAction{})
	}

	s.mu.Lock()
	res := s.results[uri]
	doc, open := s.docs[uri]
	current := open && res != nil && doc.gen == res.gen
	s.mu.Unlock()
	if !current {
		// offsets of an older analysis would edit the wrong text
		return s.sendResponse(msg.ID, []codeAction{})
	}
	actions := []codeAction{}
	if quick {
		actions = append(actions, codeActionsFor(uri, res, params.Range)...)
	}
	if refactor {
		actions = append(actions, assistActionsFor(uri, res, params.Range)...)
	}
	return s.sendResponse(msg.ID, actions)
}

// wantsKind matches kind against the client filter; "refactor" selects
// "refactor.rewrite".
func wantsKind(only []string, kind string) bool {
	if len(only) == 0 {
		return true
	}
	for _, o := range only {
		if kind == o || strings.HasPrefix(kind, o+".") {
			return true
		}
	}
	return false
}

// codeActionsFor returns the fixes whose trigger touches rng. Fixes of file
// scope diagnostics are offered anywhere in the file.
func codeActionsFor(uri string, res *analysis, rng lspRange) []codeAction {
	actions := []codeAction{}
	file := res.fs.Get(res.file)
	want, ok := spanForRange(file, rng)
	if !ok {
		return actions
	}
	for _, d := range res.diags {
		for _, fx := range d.Fixes {
			if !d.FileScope && !touches(fx.Trigger, want) {
				continue
			}
			edit, ok := workspaceEditFor(uri, res, fx.Change)
			if !ok {
				continue
			}
			actions = append(actions, codeAction{
				Title:       fx.Label,
				Kind:        quickFixKind,
				Diagnostics: []lspDiagnostic{toLSPDiagnostic(res.fs, d)},
				Edit:        edit,
			})
		}
	}
	return actions
}

// assistActionsFor offers the cursor refactorings for rng.
func assistActionsFor(uri string, res *analysis, rng lspRange) []codeAction {
	actions := []codeAction{}
	file := res.fs.Get(res.file)
	want, ok := spanForRange(file, rng)
	if !ok {
		return actions
	}
	ctx := &assists.Context{File: file, Module: res.module, Range: want}
	for _, fx := range assists.Collect(ctx, assists.Default()) {
		edit, ok := workspaceEditFor(uri, res, fx.Change)
		if !ok {
			continue
		}
		actions = append(actions, codeAction{Title: fx.Label, Kind: refactorKind, Edit: edit})
	}
	return actions
}

func workspaceEditFor(uri string, res *analysis, change diag.SourceChange) (*workspaceEdit, bool) {
	if change.IsEmpty() {
		return nil, false
	}
	out := &workspaceEdit{Changes: make(map[string][]textEdit)}
	for _, id := range change.Files() {
		f := res.fs.Get(id)
		if f == nil {
			return nil, false
		}
		target := uri
		if id != res.file {
			target = pathToURI(f.Path)
		}
		for _, e := range change.Edits(id) {
			out.Changes[target] = append(out.Changes[target], textEdit{
				Range:   rangeForSpan(f, source.Span{File: id, Start: e.Span.Start, End: e.Span.End}),
				NewText: e.NewText,
			})
		}
	}
	return out, true
}
