// Package frontend talks to the external parse service. The service reads
// Erlang source on stdin and answers with the structural view of the file,
// msgpack-encoded in the shapes below; Decode turns that into hir.
package frontend

// Version of the wire format. Bumped whenever a shape below changes.
const WireVersion uint16 = 2

// Span is a byte range. File 0 is the parsed file itself, n > 0 is
// Module.Files[n-1] (headers reached through includes and macros).
type Span struct {
	File  uint32 `msgpack:"f,omitempty"`
	Start uint32 `msgpack:"s"`
	End   uint32 `msgpack:"e"`
}

type Lit struct {
	Kind  uint8  `msgpack:"k"`
	Value string `msgpack:"v"`
}

// Node is one arena entry. Its Kind decides how the other fields read:
//
//	lit      Lit
//	var      Name
//	match    Kids = [lhs pat, rhs]
//	binop    Name = operator, Kids = [lhs, rhs]
//	unop     Name = operator, Kids = [operand]
//	call     Kids = [module or 0, fun, args...]
//	list     Kids = [tail or 0, elems...]   (types: Kids = [elem])
//	tuple    Kids = elems
//	paren    Kids = [inner]
//	macro    Ref = macro, Kids = [expansion or 0, args...]
//	case     Kids = [scrutinee], Clauses
//	block    Kids = exprs
//	union    Kids = alternatives
//	tcall    Module, Name, Kids = args
//	missing
//
// Kids are 1-based ids into the arena of the kind the position implies.
type Node struct {
	Kind    string     `msgpack:"k"`
	Span    Span       `msgpack:"s"`
	Macro   uint32     `msgpack:"m,omitempty"`
	Lit     *Lit       `msgpack:"l,omitempty"`
	Name    string     `msgpack:"n,omitempty"`
	Module  string     `msgpack:"mod,omitempty"`
	Ref     uint32     `msgpack:"r,omitempty"`
	Kids    []uint32   `msgpack:"c,omitempty"`
	Clauses []CRClause `msgpack:"cl,omitempty"`
}

type CRClause struct {
	Pat    uint32     `msgpack:"p"`
	Guards [][]uint32 `msgpack:"g,omitempty"`
	Body   []uint32   `msgpack:"b"`
}

type Macro struct {
	Name    string `msgpack:"n"`
	Span    Span   `msgpack:"s"`
	DefFile uint32 `msgpack:"d,omitempty"`
}

type Body struct {
	Macros []Macro `msgpack:"macros,omitempty"`
	Exprs  []Node  `msgpack:"exprs,omitempty"`
	Pats   []Node  `msgpack:"pats,omitempty"`
	Terms  []Node  `msgpack:"terms,omitempty"`
	Types  []Node  `msgpack:"types,omitempty"`
}

type ModuleAttr struct {
	Name     string `msgpack:"name"`
	Span     Span   `msgpack:"span"`
	NameSpan Span   `msgpack:"name_span"`
}

type Compile struct {
	Span    Span   `msgpack:"span"`
	Body    Body   `msgpack:"body"`
	Options uint32 `msgpack:"options"`
}

type Include struct {
	Lib      bool   `msgpack:"lib,omitempty"`
	Path     string `msgpack:"path"`
	Span     Span   `msgpack:"span"`
	PathSpan Span   `msgpack:"path_span"`
}

type Define struct {
	Name  string `msgpack:"name"`
	Arity int    `msgpack:"arity"`
	Span  Span   `msgpack:"span"`
}

type Nowarn struct {
	Name  string `msgpack:"name"`
	Arity int    `msgpack:"arity"`
	Span  Span   `msgpack:"span"`
}

type ExportEntry struct {
	Name  string `msgpack:"name"`
	Arity int    `msgpack:"arity"`
	Span  Span   `msgpack:"span"`
}

// Export is -export or, with Types set, -export_type.
type Export struct {
	Types    bool          `msgpack:"types,omitempty"`
	Span     Span          `msgpack:"span"`
	ListSpan Span          `msgpack:"list_span"`
	Entries  []ExportEntry `msgpack:"entries,omitempty"`
}

type TypeAlias struct {
	Name     string `msgpack:"name"`
	Arity    int    `msgpack:"arity"`
	Opaque   bool   `msgpack:"opaque,omitempty"`
	Span     Span   `msgpack:"span"`
	NameSpan Span   `msgpack:"name_span"`
}

type Clause struct {
	Span   Span       `msgpack:"span"`
	Body   Body       `msgpack:"body"`
	Args   []uint32   `msgpack:"args,omitempty"`
	Guards [][]uint32 `msgpack:"guards,omitempty"`
	Exprs  []uint32   `msgpack:"exprs"`
}

type Function struct {
	Name    string   `msgpack:"name"`
	Arity   int      `msgpack:"arity"`
	Span    Span     `msgpack:"span"`
	Clauses []Clause `msgpack:"clauses"`
}

type Sig struct {
	Span   Span     `msgpack:"span"`
	Args   []uint32 `msgpack:"args,omitempty"`
	Result uint32   `msgpack:"result"`
}

type Spec struct {
	Name  string `msgpack:"name"`
	Arity int    `msgpack:"arity"`
	Span  Span   `msgpack:"span"`
	Body  Body   `msgpack:"body"`
	Sigs  []Sig  `msgpack:"sigs"`
}

// Module is the top-level reply of the parse service.
type Module struct {
	Version   uint16      `msgpack:"version"`
	Files     []string    `msgpack:"files,omitempty"`
	Module    *ModuleAttr `msgpack:"module,omitempty"`
	Compile   []Compile   `msgpack:"compile,omitempty"`
	Includes  []Include   `msgpack:"includes,omitempty"`
	Defines   []Define    `msgpack:"defines,omitempty"`
	Nowarn    []Nowarn    `msgpack:"nowarn,omitempty"`
	Exports   []Export    `msgpack:"exports,omitempty"`
	Types     []TypeAlias `msgpack:"types,omitempty"`
	Functions []Function  `msgpack:"functions,omitempty"`
	Specs     []Spec      `msgpack:"specs,omitempty"`
}
