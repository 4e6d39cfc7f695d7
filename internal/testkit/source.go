// Package testkit builds structural views of Erlang snippets for tests.
package testkit

import (
	"fmt"
	"strconv"
	"strings"

	"erlfix/internal/hir"
	"erlfix/internal/sema"
	"erlfix/internal/source"
)

// Source is one in-memory file. Spans are located by searching its text.
type Source struct {
	FS   *source.FileSet
	File source.FileID
	Path string
	Text string

	clauses hir.ClauseID
}

// NewSource adds text as a virtual file of a fresh FileSet.
func NewSource(path, text string) *Source {
	fs := source.NewFileSet()
	return &Source{FS: fs, File: fs.AddVirtual(path, []byte(text)), Path: path, Text: text}
}

// Add puts another file into the same FileSet.
func (s *Source) Add(path, text string) *Source {
	return &Source{FS: s.FS, File: s.FS.AddVirtual(path, []byte(text)), Path: path, Text: text}
}

// Span locates the first occurrence of snippet.
func (s *Source) Span(snippet string) source.Span {
	return s.SpanN(snippet, 0)
}

// SpanN locates the n-th (0-based) occurrence of snippet. It panics when the
// snippet is missing since that is a broken test.
func (s *Source) SpanN(snippet string, n int) source.Span {
	from := 0
	for {
		i := strings.Index(s.Text[from:], snippet)
		if i < 0 {
			panic(fmt.Sprintf("testkit: %q occurrence %d not found in %s", snippet, n, s.Path))
		}
		if n == 0 {
			start := uint32(from + i) //nolint:gosec // test snippets are small
			return source.Span{File: s.File, Start: start, End: start + uint32(len(snippet))} //nolint:gosec // same
		}
		n--
		from += i + 1
	}
}

// Offset is the start of the first occurrence of snippet.
func (s *Source) Offset(snippet string) uint32 {
	return s.Span(snippet).Start
}

// Whole spans the entire text.
func (s *Source) Whole() source.Span {
	return source.Span{File: s.File, End: uint32(len(s.Text))} //nolint:gosec // test snippets are small
}

// Body starts a builder with a fresh hir.Body.
func (s *Source) Body() *Builder {
	return &Builder{src: s, Body: hir.NewBody()}
}

// ModuleAttr builds the -module attribute from the text.
func (s *Source) ModuleAttr(name string) *hir.ModuleAttribute {
	attr := "-module(" + name + ")."
	sp := s.Span(attr)
	nameStart := sp.Start + uint32(len("-module(")) //nolint:gosec // constant
	return &hir.ModuleAttribute{
		Name:     name,
		Span:     sp,
		NameSpan: source.Span{File: s.File, Start: nameStart, End: nameStart + uint32(len(name))}, //nolint:gosec // small
	}
}

// Include builds an include attribute from its text, e.g. `-include("x.hrl").`
func (s *Source) Include(text string) *hir.IncludeAttribute {
	sp := s.Span(text)
	kind := hir.Include
	if strings.HasPrefix(text, "-include_lib(") {
		kind = hir.IncludeLib
	}
	open := strings.IndexByte(text, '"')
	closing := strings.LastIndexByte(text, '"')
	if open < 0 || closing <= open {
		panic(fmt.Sprintf("testkit: include %q has no string", text))
	}
	return &hir.IncludeAttribute{
		Kind:     kind,
		Path:     text[open+1 : closing],
		Span:     sp,
		PathSpan: source.Span{File: s.File, Start: sp.Start + uint32(open), End: sp.Start + uint32(closing) + 1}, //nolint:gosec // small
	}
}

// Function wraps clauses into a function definition spanning all of them.
func (s *Source) Function(name string, arity int, clauses ...*hir.Clause) *hir.FunctionDef {
	fn := &hir.FunctionDef{Name: hir.NameArity{Name: name, Arity: arity}, Clauses: clauses}
	for i, c := range clauses {
		if i == 0 {
			fn.Span = c.Span
		} else {
			fn.Span = fn.Span.Cover(c.Span)
		}
	}
	return fn
}

// Snapshot wraps the FileSet into a sema.Snapshot and registers m for this file.
func (s *Source) Snapshot(m *hir.Module, opts ...sema.Option) *sema.Snapshot {
	db := sema.NewSnapshot(s.FS, opts...)
	if m != nil {
		m.File = s.File
		m.LinkSpecs()
		db.SetModule(s.File, m)
	}
	return db
}

func (s *Source) nextClause() hir.ClauseID {
	s.clauses++
	return s.clauses
}

// TypeAlias builds a -type (or -opaque) declaration from its full text.
func (s *Source) TypeAlias(text, name string, arity int) *hir.TypeAlias {
	sp := s.Span(text)
	at := strings.Index(text, name)
	if at < 0 {
		panic(fmt.Sprintf("testkit: type %q has no name %q", text, name))
	}
	nameStart := sp.Start + uint32(at) //nolint:gosec // small
	return &hir.TypeAlias{
		Name:     hir.NameArity{Name: name, Arity: arity},
		Opaque:   strings.HasPrefix(text, "-opaque"),
		Span:     sp,
		NameSpan: source.Span{File: s.File, Start: nameStart, End: nameStart + uint32(len(name))}, //nolint:gosec // small
	}
}

// Export builds an -export or -export_type attribute from its text, e.g.
// `-export_type([t/0, u/1]).`
func (s *Source) Export(text string) *hir.ExportAttribute {
	sp := s.Span(text)
	open := strings.IndexByte(text, '[')
	closing := strings.LastIndexByte(text, ']')
	if open < 0 || closing < open {
		panic(fmt.Sprintf("testkit: export %q has no list", text))
	}
	attr := &hir.ExportAttribute{
		Types:    strings.HasPrefix(text, "-export_type("),
		Span:     sp,
		ListSpan: source.Span{File: s.File, Start: sp.Start + uint32(open), End: sp.Start + uint32(closing) + 1}, //nolint:gosec // small
	}
	at := open + 1
	for _, part := range strings.Split(text[open+1:closing], ",") {
		entry := strings.TrimSpace(part)
		lead := strings.Index(part, entry)
		start := at + lead
		at += len(part) + 1
		if entry == "" {
			continue
		}
		name, arity, ok := strings.Cut(entry, "/")
		n, err := strconv.Atoi(arity)
		if !ok || err != nil {
			panic(fmt.Sprintf("testkit: bad export entry %q", entry))
		}
		attr.Entries = append(attr.Entries, hir.ExportEntry{
			Name: hir.NameArity{Name: name, Arity: n},
			Span: source.Span{File: s.File, Start: sp.Start + uint32(start), End: sp.Start + uint32(start+len(entry))}, //nolint:gosec // small
		})
	}
	return attr
}
