package ssr

import (
	"errors"
	"fmt"

	"erlfix/internal/hir"
)

var ErrSyntax = errors.New("ssr: invalid pattern")

// Parse compiles a pattern such as `hd(lists:reverse(_@L))`.
func Parse(text string) (*Pattern, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	p := &parser{toks: toks}
	root, err := p.expr(0)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrSyntax, text, err)
	}
	if t := p.peek(); t.kind != tkEOF {
		return nil, fmt.Errorf("%w: %q: trailing %s", ErrSyntax, text, t)
	}
	return &Pattern{Source: text, Root: root}, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tkEOF {
		p.pos++
	}
	return t
}

func (p *parser) isPunct(text string) bool {
	t := p.peek()
	return t.kind == tkPunct && t.text == text
}

func (p *parser) expect(text string) error {
	if !p.isPunct(text) {
		return fmt.Errorf("expected %q, got %s", text, p.peek())
	}
	p.next()
	return nil
}

type opInfo struct {
	prec       int
	rightAssoc bool
}

// Erlang operator priorities, lowest first.
func binaryPrec(t token) (opInfo, bool) {
	switch t.text {
	case "=", "!":
		return opInfo{1, true}, true
	case "orelse":
		return opInfo{2, true}, true
	case "andalso":
		return opInfo{3, true}, true
	case "==", "/=", "=<", "<", ">=", ">", "=:=", "=/=":
		return opInfo{4, false}, true
	case "++", "--":
		return opInfo{5, true}, true
	case "+", "-", "bor", "bxor", "bsl", "bsr", "or", "xor":
		return opInfo{6, false}, true
	case "*", "/", "div", "rem", "band", "and":
		return opInfo{7, false}, true
	}
	return opInfo{}, false
}

func (p *parser) expr(minPrec int) (Node, error) {
	lhs, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tkPunct && t.kind != tkAtom {
			return lhs, nil
		}
		info, ok := binaryPrec(t)
		if !ok || info.prec < minPrec {
			return lhs, nil
		}
		p.next()
		nextMin := info.prec + 1
		if info.rightAssoc {
			nextMin = info.prec
		}
		rhs, err := p.expr(nextMin)
		if err != nil {
			return nil, err
		}
		if t.text == "=" {
			lhs = Match{Lhs: lhs, Rhs: rhs}
			continue
		}
		op, ok := hir.ParseBinaryOp(t.text)
		if !ok {
			return nil, fmt.Errorf("unknown operator %s", t)
		}
		lhs = Binary{Op: op, Lhs: lhs, Rhs: rhs}
	}
}

func (p *parser) unary() (Node, error) {
	t := p.peek()
	if (t.kind == tkPunct && (t.text == "-" || t.text == "+")) || (t.kind == tkAtom && (t.text == "not" || t.text == "bnot")) {
		p.next()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		op, _ := hir.ParseUnaryOp(t.text)
		return Unary{Op: op, Operand: operand}, nil
	}
	return p.postfix()
}

// postfix handles `mod:fun(...)` and `fun(...)`.
func (p *parser) postfix() (Node, error) {
	n, err := p.primary()
	if err != nil {
		return nil, err
	}
	var module Node
	if p.isPunct(":") {
		p.next()
		module = n
		if n, err = p.primary(); err != nil {
			return nil, err
		}
	}
	if !p.isPunct("(") {
		if module != nil {
			return nil, fmt.Errorf("expected call after %q", ":")
		}
		return n, nil
	}
	p.next()
	args, err := p.seq(")")
	if err != nil {
		return nil, err
	}
	return Call{Module: module, Fun: n, Args: args}, nil
}

func (p *parser) seq(closing string) ([]Node, error) {
	var out []Node
	if p.isPunct(closing) {
		p.next()
		return out, nil
	}
	for {
		n, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
		if p.isPunct(",") {
			p.next()
			continue
		}
		return out, p.expect(closing)
	}
}

func (p *parser) primary() (Node, error) {
	t := p.next()
	switch t.kind {
	case tkPlaceholder:
		return Placeholder{Name: t.text}, nil
	case tkVar:
		if t.text == "_" {
			return Wildcard{}, nil
		}
		return Var{Name: t.text}, nil
	case tkAtom:
		return Lit{Lit: hir.Atom(t.text)}, nil
	case tkInt:
		return Lit{Lit: hir.Integer(t.text)}, nil
	case tkString:
		return Lit{Lit: hir.Literal{Kind: hir.LitString, Value: t.text}}, nil
	case tkPunct:
		switch t.text {
		case "(":
			n, err := p.expr(0)
			if err != nil {
				return nil, err
			}
			return n, p.expect(")")
		case "{":
			elems, err := p.seq("}")
			if err != nil {
				return nil, err
			}
			return Tuple{Elems: elems}, nil
		case "[":
			return p.list()
		}
	}
	return nil, fmt.Errorf("unexpected %s", t)
}

func (p *parser) list() (Node, error) {
	var l List
	if p.isPunct("]") {
		p.next()
		return l, nil
	}
	for {
		n, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		l.Elems = append(l.Elems, n)
		switch {
		case p.isPunct(","):
			p.next()
		case p.isPunct("|"):
			p.next()
			if l.Tail, err = p.expr(0); err != nil {
				return nil, err
			}
			return l, p.expect("]")
		default:
			return l, p.expect("]")
		}
	}
}
