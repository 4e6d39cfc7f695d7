package hir

import (
	"fmt"

	"erlfix/internal/source"
)

// NameArity identifies a function, e.g. `foo/2`.
type NameArity struct {
	Name  string
	Arity int
}

func (na NameArity) String() string {
	return fmt.Sprintf("%s/%d", QuoteAtom(na.Name), na.Arity)
}

// ModuleAttribute is `-module(Name).`
type ModuleAttribute struct {
	Name     string
	Span     source.Span
	NameSpan source.Span
}

// CompileAttribute is `-compile(Options).` Options lives in Body.
type CompileAttribute struct {
	Span    source.Span
	Body    *Body
	Options TermID
}

type IncludeKind uint8

const (
	Include IncludeKind = iota
	IncludeLib
)

func (k IncludeKind) String() string {
	if k == IncludeLib {
		return "include_lib"
	}
	return "include"
}

// IncludeAttribute is `-include("Path").` or `-include_lib("Path").`
// PathSpan covers the string literal including quotes.
type IncludeAttribute struct {
	Kind     IncludeKind
	Path     string
	Span     source.Span
	PathSpan source.Span
}

// DefineAttribute is `-define(Name, ...)`. Bodies are expanded by the
// frontend; only the location is kept.
type DefineAttribute struct {
	Name  string
	Arity int // -1 for constant macros
	Span  source.Span
}

// NowarnAttribute is `-eqwalizer({nowarn_function, F/A}).`
type NowarnAttribute struct {
	Function NameArity
	Span     source.Span
}

// TypeAlias is `-type Name(Params) :: T.` or `-opaque ...`.
type TypeAlias struct {
	Name     NameArity
	Opaque   bool
	Span     source.Span
	NameSpan source.Span
}

// ExportAttribute is `-export([...]).` or, with Types, `-export_type([...]).`
// ListSpan covers the brackets.
type ExportAttribute struct {
	Types    bool
	Span     source.Span
	ListSpan source.Span
	Entries  []ExportEntry
}

type ExportEntry struct {
	Name NameArity
	Span source.Span
}

type Clause struct {
	ID     ClauseID
	Span   source.Span
	Body   *Body
	Args   []PatID
	Guards [][]ExprID
	Exprs  []ExprID
}

type FunctionDef struct {
	Name    NameArity
	Span    source.Span
	Clauses []*Clause
	Spec    *SpecDef
}

// SpecSig is one `(Args) -> Result` signature.
type SpecSig struct {
	Span   source.Span
	Args   []TypeExprID
	Result TypeExprID
}

type SpecDef struct {
	Name NameArity
	Span source.Span
	Body *Body
	Sigs []SpecSig
}

// Module is the structural view of one .erl or .hrl file.
type Module struct {
	File      source.FileID
	Attribute *ModuleAttribute
	Compile   []*CompileAttribute
	Includes  []*IncludeAttribute
	Defines   []*DefineAttribute
	Nowarn    []*NowarnAttribute
	Exports   []*ExportAttribute
	Types     []*TypeAlias
	Functions []*FunctionDef
	Specs     []*SpecDef
}

// Name returns the declared module name, if any.
func (m *Module) Name() (string, bool) {
	if m == nil || m.Attribute == nil {
		return "", false
	}
	return m.Attribute.Name, true
}

// FunctionAt returns the function whose span contains off.
func (m *Module) FunctionAt(off uint32) *FunctionDef {
	if m == nil {
		return nil
	}
	for _, fn := range m.Functions {
		if fn.Span.Contains(off) {
			return fn
		}
	}
	return nil
}

func (m *Module) Function(na NameArity) *FunctionDef {
	if m == nil {
		return nil
	}
	for _, fn := range m.Functions {
		if fn.Name == na {
			return fn
		}
	}
	return nil
}

// TypeAt returns the type alias whose declaration contains off.
func (m *Module) TypeAt(off uint32) *TypeAlias {
	if m == nil {
		return nil
	}
	for _, t := range m.Types {
		if t.Span.Contains(off) {
			return t
		}
	}
	return nil
}

// TypeExported reports whether an -export_type attribute lists na.
func (m *Module) TypeExported(na NameArity) bool {
	for _, e := range m.Exports {
		if !e.Types {
			continue
		}
		for _, entry := range e.Entries {
			if entry.Name == na {
				return true
			}
		}
	}
	return false
}

// LinkSpecs attaches every spec to the function it describes.
func (m *Module) LinkSpecs() {
	for _, spec := range m.Specs {
		if fn := m.Function(spec.Name); fn != nil {
			fn.Spec = spec
		}
	}
}

// ClauseAt returns the clause of fn containing off.
func (fn *FunctionDef) ClauseAt(off uint32) *Clause {
	for _, c := range fn.Clauses {
		if c.Span.Contains(off) {
			return c
		}
	}
	return nil
}
