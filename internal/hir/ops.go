package hir

type BinaryOp uint8

const (
	OpInvalid BinaryOp = iota
	OpAdd
	OpSub
	OpMul
	OpFDiv
	OpDiv
	OpRem
	OpBand
	OpBor
	OpBxor
	OpBsl
	OpBsr
	OpAnd
	OpOr
	OpXor
	OpAndAlso
	OpOrElse
	OpListAppend
	OpListSubtract
	OpEq
	OpNeq
	OpExactEq
	OpExactNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpSend
)

var binaryOpText = [...]string{
	OpInvalid:      "?",
	OpAdd:          "+",
	OpSub:          "-",
	OpMul:          "*",
	OpFDiv:         "/",
	OpDiv:          "div",
	OpRem:          "rem",
	OpBand:         "band",
	OpBor:          "bor",
	OpBxor:         "bxor",
	OpBsl:          "bsl",
	OpBsr:          "bsr",
	OpAnd:          "and",
	OpOr:           "or",
	OpXor:          "xor",
	OpAndAlso:      "andalso",
	OpOrElse:       "orelse",
	OpListAppend:   "++",
	OpListSubtract: "--",
	OpEq:           "==",
	OpNeq:          "/=",
	OpExactEq:      "=:=",
	OpExactNeq:     "=/=",
	OpLt:           "<",
	OpLte:          "=<",
	OpGt:           ">",
	OpGte:          ">=",
	OpSend:         "!",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpText) {
		return binaryOpText[op]
	}
	return "?"
}

// ParseBinaryOp maps operator text back to the operator.
func ParseBinaryOp(text string) (BinaryOp, bool) {
	for i, s := range binaryOpText {
		if i != int(OpInvalid) && s == text {
			return BinaryOp(i), true //nolint:gosec // small table
		}
	}
	return OpInvalid, false
}

type UnaryOp uint8

const (
	UnInvalid UnaryOp = iota
	UnPlus
	UnMinus
	UnBnot
	UnNot
)

func (op UnaryOp) String() string {
	switch op {
	case UnPlus:
		return "+"
	case UnMinus:
		return "-"
	case UnBnot:
		return "bnot"
	case UnNot:
		return "not"
	}
	return "?"
}

func ParseUnaryOp(text string) (UnaryOp, bool) {
	switch text {
	case "+":
		return UnPlus, true
	case "-":
		return UnMinus, true
	case "bnot":
		return UnBnot, true
	case "not":
		return UnNot, true
	}
	return UnInvalid, false
}
