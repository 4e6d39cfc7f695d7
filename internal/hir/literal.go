package hir

import (
	"strconv"
	"strings"
)

type LiteralKind uint8

const (
	LitAtom LiteralKind = iota + 1
	LitInteger
	LitFloat
	LitString
	LitChar
)

// Literal keeps the value as written: atom name without quotes, number text
// with digit separators, string contents without quotes.
type Literal struct {
	Kind  LiteralKind
	Value string
}

func Atom(name string) Literal { return Literal{Kind: LitAtom, Value: name} }

func Integer(text string) Literal { return Literal{Kind: LitInteger, Value: text} }

func (l Literal) IsAtom(name string) bool {
	return l.Kind == LitAtom && l.Value == name
}

// Int parses integer literals including `1_000` and `16#ff` forms.
func (l Literal) Int() (int64, bool) {
	if l.Kind != LitInteger {
		return 0, false
	}
	text := strings.ReplaceAll(l.Value, "_", "")
	base := 10
	if i := strings.IndexByte(text, '#'); i > 0 {
		b, err := strconv.Atoi(text[:i])
		if err != nil || b < 2 || b > 36 {
			return 0, false
		}
		base, text = b, text[i+1:]
	}
	v, err := strconv.ParseInt(text, base, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (l Literal) IsInt(n int64) bool {
	v, ok := l.Int()
	return ok && v == n
}

// String renders the literal as Erlang source.
func (l Literal) String() string {
	switch l.Kind {
	case LitAtom:
		return QuoteAtom(l.Value)
	case LitString:
		return strconv.Quote(l.Value)
	case LitChar:
		return "$" + l.Value
	}
	return l.Value
}

var reservedWords = map[string]struct{}{
	"after": {}, "and": {}, "andalso": {}, "band": {}, "begin": {}, "bnot": {},
	"bor": {}, "bsl": {}, "bsr": {}, "bxor": {}, "case": {}, "catch": {},
	"cond": {}, "div": {}, "else": {}, "end": {}, "fun": {}, "if": {}, "let": {},
	"maybe": {}, "not": {}, "of": {}, "or": {}, "orelse": {}, "receive": {},
	"rem": {}, "try": {}, "when": {}, "xor": {},
}

// QuoteAtom adds single quotes when name is not a bare atom.
func QuoteAtom(name string) string {
	if name == "" {
		return "''"
	}
	bare := name[0] >= 'a' && name[0] <= 'z'
	for i := 1; bare && i < len(name); i++ {
		c := name[i]
		bare = c == '_' || c == '@' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
	}
	if _, reserved := reservedWords[name]; bare && !reserved {
		return name
	}
	var sb strings.Builder
	sb.WriteByte('\'')
	for _, r := range name {
		switch r {
		case '\'', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	sb.WriteByte('\'')
	return sb.String()
}
