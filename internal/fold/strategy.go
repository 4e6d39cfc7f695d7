// Package fold walks hir bodies. A Strategy decides whether macro calls are
// replaced by their expansions and whether parentheses are reported.
package fold

type MacroStrategy uint8

const (
	// Expand replaces macro calls with their expansion; expanded nodes are
	// reported with InMacro set.
	Expand MacroStrategy = iota
	// DoNotExpand reports the macro call and its arguments, never the expansion.
	DoNotExpand
)

type ParenStrategy uint8

const (
	InvisibleParens ParenStrategy = iota
	VisibleParens
)

type Strategy struct {
	Macros MacroStrategy
	Parens ParenStrategy
}

func (s Strategy) String() string {
	m := "expand"
	if s.Macros == DoNotExpand {
		m = "no-expand"
	}
	p := "invisible-parens"
	if s.Parens == VisibleParens {
		p = "visible-parens"
	}
	return m + "/" + p
}
