package hir

// Expr is a closed sum over expression node variants.
type Expr interface {
	exprNode()
}

type (
	LiteralExpr struct{ Lit Literal }
	VarExpr     struct{ Name string }
	// MatchExpr is `Lhs = Rhs`.
	MatchExpr struct {
		Lhs PatID
		Rhs ExprID
	}
	BinaryExpr struct {
		Op       BinaryOp
		Lhs, Rhs ExprID
	}
	UnaryExpr struct {
		Op      UnaryOp
		Operand ExprID
	}
	// CallExpr is `Fun(Args)` or `Module:Fun(Args)`; Module is NoExprID for local calls.
	CallExpr struct {
		Module ExprID
		Fun    ExprID
		Args   []ExprID
	}
	// ListExpr is `[Elems | Tail]`; Tail is NoExprID for proper lists.
	ListExpr struct {
		Elems []ExprID
		Tail  ExprID
	}
	TupleExpr struct{ Elems []ExprID }
	ParenExpr struct{ Inner ExprID }
	// MacroCallExpr is `?NAME` or `?NAME(Args)`. Expansion is NoExprID when the
	// macro could not be expanded.
	MacroCallExpr struct {
		Macro     MacroID
		Args      []ExprID
		Expansion ExprID
	}
	CaseExpr struct {
		Scrutinee ExprID
		Clauses   []CRClause
	}
	BlockExpr   struct{ Exprs []ExprID }
	MissingExpr struct{}
)

// CRClause is one clause of a case/receive expression.
type CRClause struct {
	Pat    PatID
	Guards [][]ExprID
	Body   []ExprID
}

func (LiteralExpr) exprNode()   {}
func (VarExpr) exprNode()       {}
func (MatchExpr) exprNode()     {}
func (BinaryExpr) exprNode()    {}
func (UnaryExpr) exprNode()     {}
func (CallExpr) exprNode()      {}
func (ListExpr) exprNode()      {}
func (TupleExpr) exprNode()     {}
func (ParenExpr) exprNode()     {}
func (MacroCallExpr) exprNode() {}
func (CaseExpr) exprNode()      {}
func (BlockExpr) exprNode()     {}
func (MissingExpr) exprNode()   {}
