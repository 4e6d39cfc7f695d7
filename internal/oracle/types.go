// Package oracle turns findings of the external type checker into
// diagnostics with fixes. It never infers types itself: it reads the
// expected/got shapes the checker reports and rewrites source accordingly.
package oracle

import (
	"strings"

	"erlfix/internal/hir"
)

// Type is a closed sum over the types the checker reports.
type Type interface {
	String() string
	isType()
}

type (
	AtomLit struct{ Name string }
	Tuple   struct{ Elems []Type }
	List    struct{ Elem Type }
	Union   struct{ Alts []Type }
	// Remote is a user or library type, e.g. m:t(A).
	Remote struct {
		Module string
		Name   string
		Args   []Type
	}
	Var     struct{ Name string }
	Any     struct{}
	Dynamic struct{}
	Number  struct{}
	Nil     struct{}
	Binary  struct{}
	Fun     struct {
		Args   []Type
		Result Type
	}
	// Unknown keeps the raw text of shapes this package does not model.
	Unknown struct{ Text string }
)

func (AtomLit) isType() {}
func (Tuple) isType()   {}
func (List) isType()    {}
func (Union) isType()   {}
func (Remote) isType()  {}
func (Var) isType()     {}
func (Any) isType()     {}
func (Dynamic) isType() {}
func (Number) isType()  {}
func (Nil) isType()     {}
func (Binary) isType()  {}
func (Fun) isType()     {}
func (Unknown) isType() {}

func (t AtomLit) String() string { return hir.QuoteAtom(t.Name) }
func (t Tuple) String() string   { return "{" + joinTypes(t.Elems, ", ") + "}" }
func (t List) String() string    { return "[" + typeString(t.Elem) + "]" }
func (t Union) String() string   { return joinTypes(t.Alts, " | ") }
func (t Var) String() string     { return t.Name }
func (Any) String() string       { return "term()" }
func (Dynamic) String() string   { return "dynamic()" }
func (Number) String() string    { return "number()" }
func (Nil) String() string       { return "[]" }
func (Binary) String() string    { return "binary()" }
func (t Unknown) String() string { return t.Text }

func (t Remote) String() string {
	name := t.Name + "(" + joinTypes(t.Args, ", ") + ")"
	if t.Module == "" {
		return name
	}
	return t.Module + ":" + name
}

func (t Fun) String() string {
	return "fun((" + joinTypes(t.Args, ", ") + ") -> " + typeString(t.Result) + ")"
}

func typeString(t Type) string {
	if t == nil {
		return "_"
	}
	return t.String()
}

func joinTypes(ts []Type, sep string) string {
	var sb strings.Builder
	for i, t := range ts {
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(typeString(t))
	}
	return sb.String()
}

// Equal compares two types structurally.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch a := a.(type) {
	case AtomLit:
		b, ok := b.(AtomLit)
		return ok && a.Name == b.Name
	case Tuple:
		b, ok := b.(Tuple)
		return ok && equalAll(a.Elems, b.Elems)
	case List:
		b, ok := b.(List)
		return ok && Equal(a.Elem, b.Elem)
	case Union:
		b, ok := b.(Union)
		return ok && equalAll(a.Alts, b.Alts)
	case Remote:
		b, ok := b.(Remote)
		return ok && a.Module == b.Module && a.Name == b.Name && equalAll(a.Args, b.Args)
	case Var:
		b, ok := b.(Var)
		return ok && a.Name == b.Name
	case Fun:
		b, ok := b.(Fun)
		return ok && equalAll(a.Args, b.Args) && Equal(a.Result, b.Result)
	case Unknown:
		b, ok := b.(Unknown)
		return ok && a.Text == b.Text
	}
	// the remaining variants carry no data
	return a == b
}

func equalAll(as, bs []Type) bool {
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if !Equal(as[i], bs[i]) {
			return false
		}
	}
	return true
}
