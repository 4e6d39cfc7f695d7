package hir

// Pat is a closed sum over pattern node variants.
type Pat interface {
	patNode()
}

type (
	LiteralPat struct{ Lit Literal }
	// VarPat also covers `_`, see IsWildcard.
	VarPat   struct{ Name string }
	MatchPat struct {
		Lhs, Rhs PatID
	}
	ListPat struct {
		Elems []PatID
		Tail  PatID
	}
	TuplePat     struct{ Elems []PatID }
	ParenPat     struct{ Inner PatID }
	MacroCallPat struct {
		Macro     MacroID
		Expansion PatID
	}
	MissingPat struct{}
)

func (v VarPat) IsWildcard() bool { return v.Name == "_" }

func (LiteralPat) patNode()   {}
func (VarPat) patNode()       {}
func (MatchPat) patNode()     {}
func (ListPat) patNode()      {}
func (TuplePat) patNode()     {}
func (ParenPat) patNode()     {}
func (MacroCallPat) patNode() {}
func (MissingPat) patNode()   {}
