// Package ssr implements structural search and replace: a small Erlang
// expression pattern language with `_@Name` placeholders, a matcher over hir
// bodies and template rendering for rewrites.
package ssr

import (
	"erlfix/internal/hir"
)

// Node is a parsed pattern.
type Node interface {
	patternNode()
}

type (
	// Placeholder is `_@Name`; it matches any node and binds it.
	Placeholder struct{ Name string }
	// Wildcard is `_`; it matches any node without binding.
	Wildcard struct{}
	Lit      struct{ Lit hir.Literal }
	Var      struct{ Name string }
	Call     struct {
		Module Node // nil for local calls
		Fun    Node
		Args   []Node
	}
	List struct {
		Elems []Node
		Tail  Node // nil for proper lists
	}
	Tuple  struct{ Elems []Node }
	Match  struct{ Lhs, Rhs Node }
	Binary struct {
		Op       hir.BinaryOp
		Lhs, Rhs Node
	}
	Unary struct {
		Op      hir.UnaryOp
		Operand Node
	}
)

func (Placeholder) patternNode() {}
func (Wildcard) patternNode()    {}
func (Lit) patternNode()         {}
func (Var) patternNode()         {}
func (Call) patternNode()        {}
func (List) patternNode()        {}
func (Tuple) patternNode()       {}
func (Match) patternNode()       {}
func (Binary) patternNode()      {}
func (Unary) patternNode()       {}

// Pattern is a compiled search pattern.
type Pattern struct {
	Source string
	Root   Node
}

// MustParse is for patterns fixed at compile time.
func MustParse(text string) *Pattern {
	p, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return p
}
