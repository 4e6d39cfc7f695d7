package hir

// Term is a closed sum over attribute value variants, e.g. the argument of
// `-compile(...)`.
type Term interface {
	termNode()
}

type (
	LiteralTerm struct{ Lit Literal }
	ListTerm    struct {
		Elems []TermID
		Tail  TermID
	}
	TupleTerm     struct{ Elems []TermID }
	MacroCallTerm struct {
		Macro     MacroID
		Expansion TermID
	}
	MissingTerm struct{}
)

func (LiteralTerm) termNode()   {}
func (ListTerm) termNode()      {}
func (TupleTerm) termNode()     {}
func (MacroCallTerm) termNode() {}
func (MissingTerm) termNode()   {}
