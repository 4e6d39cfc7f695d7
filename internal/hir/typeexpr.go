package hir

// TypeExpr is a closed sum over type expressions found in specs.
type TypeExpr interface {
	typeNode()
}

type (
	LiteralType struct{ Lit Literal }
	VarType     struct{ Name string }
	// CallType is `name(Args)` or `mod:name(Args)`, e.g. integer() or lists:list().
	CallType struct {
		Module string
		Name   string
		Args   []TypeExprID
	}
	TupleType   struct{ Elems []TypeExprID }
	ListType    struct{ Elem TypeExprID }
	UnionType   struct{ Alts []TypeExprID }
	ParenType   struct{ Inner TypeExprID }
	MissingType struct{}
)

func (LiteralType) typeNode() {}
func (VarType) typeNode()     {}
func (CallType) typeNode()    {}
func (TupleType) typeNode()   {}
func (ListType) typeNode()    {}
func (UnionType) typeNode()   {}
func (ParenType) typeNode()   {}
func (MissingType) typeNode() {}
