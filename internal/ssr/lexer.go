package ssr

import (
	"fmt"
	"strings"
)

type tokenKind uint8

const (
	tkEOF tokenKind = iota
	tkAtom
	tkVar
	tkPlaceholder
	tkInt
	tkString
	tkPunct
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	if t.kind == tkEOF {
		return "end of pattern"
	}
	return fmt.Sprintf("%q at %d", t.text, t.pos)
}

// longest first
var puncts = []string{
	"=:=", "=/=", "++", "--", "==", "/=", "=<", ">=", "->",
	"(", ")", "[", "]", "{", "}", ",", "|", ":", "=", "+", "-", "*", "/", "<", ">", "!",
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '@' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func lex(src string) ([]token, error) {
	var out []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case strings.HasPrefix(src[i:], "_@"):
			j := i + 2
			for j < len(src) && isIdentByte(src[j]) {
				j++
			}
			if j == i+2 {
				return nil, fmt.Errorf("empty placeholder at %d", i)
			}
			out = append(out, token{kind: tkPlaceholder, text: src[i+2 : j], pos: i})
			i = j
		case c == '_' || c >= 'A' && c <= 'Z':
			j := i + 1
			for j < len(src) && isIdentByte(src[j]) {
				j++
			}
			out = append(out, token{kind: tkVar, text: src[i:j], pos: i})
			i = j
		case c >= 'a' && c <= 'z':
			j := i + 1
			for j < len(src) && isIdentByte(src[j]) {
				j++
			}
			out = append(out, token{kind: tkAtom, text: src[i:j], pos: i})
			i = j
		case c == '\'':
			j := i + 1
			for j < len(src) && src[j] != '\'' {
				if src[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(src) {
				return nil, fmt.Errorf("unterminated atom at %d", i)
			}
			out = append(out, token{kind: tkAtom, text: src[i+1 : j], pos: i})
			i = j + 1
		case c == '"':
			j := i + 1
			for j < len(src) && src[j] != '"' {
				if src[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(src) {
				return nil, fmt.Errorf("unterminated string at %d", i)
			}
			out = append(out, token{kind: tkString, text: src[i+1 : j], pos: i})
			i = j + 1
		case c >= '0' && c <= '9':
			j := i + 1
			for j < len(src) && (isIdentByte(src[j]) || src[j] == '#') {
				j++
			}
			out = append(out, token{kind: tkInt, text: src[i:j], pos: i})
			i = j
		default:
			matched := false
			for _, p := range puncts {
				if strings.HasPrefix(src[i:], p) {
					out = append(out, token{kind: tkPunct, text: p, pos: i})
					i += len(p)
					matched = true
					break
				}
			}
			if !matched {
				return nil, fmt.Errorf("unexpected %q at %d", c, i)
			}
		}
	}
	out = append(out, token{kind: tkEOF, pos: len(src)})
	return out, nil
}
