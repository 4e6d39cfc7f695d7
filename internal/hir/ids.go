package hir

import "fmt"

type (
	ExprID     uint32
	PatID      uint32
	TermID     uint32
	TypeExprID uint32
	// MacroID indexes Body.Macros (1-based).
	MacroID  uint32
	ClauseID uint32
)

const (
	NoExprID     ExprID     = 0
	NoPatID      PatID      = 0
	NoTermID     TermID     = 0
	NoTypeExprID TypeExprID = 0
	NoMacroID    MacroID    = 0
)

func (id ExprID) IsValid() bool     { return id != NoExprID }
func (id PatID) IsValid() bool      { return id != NoPatID }
func (id TermID) IsValid() bool     { return id != NoTermID }
func (id TypeExprID) IsValid() bool { return id != NoTypeExprID }
func (id MacroID) IsValid() bool    { return id != NoMacroID }

// NodeKind tells which arena an AnyID points into.
type NodeKind uint8

const (
	KindExpr NodeKind = iota + 1
	KindPat
	KindTerm
	KindType
)

func (k NodeKind) String() string {
	switch k {
	case KindExpr:
		return "expr"
	case KindPat:
		return "pat"
	case KindTerm:
		return "term"
	case KindType:
		return "type"
	}
	return "invalid"
}

// AnyID addresses a node of any kind inside one Body.
type AnyID struct {
	Kind NodeKind
	ID   uint32
}

func (id AnyID) IsValid() bool { return id.Kind != 0 && id.ID != 0 }

func (id AnyID) String() string {
	return fmt.Sprintf("%s#%d", id.Kind, id.ID)
}

func (id ExprID) Any() AnyID     { return AnyID{Kind: KindExpr, ID: uint32(id)} }
func (id PatID) Any() AnyID      { return AnyID{Kind: KindPat, ID: uint32(id)} }
func (id TermID) Any() AnyID     { return AnyID{Kind: KindTerm, ID: uint32(id)} }
func (id TypeExprID) Any() AnyID { return AnyID{Kind: KindType, ID: uint32(id)} }
