package dsl

import (
	"fmt"
	"strings"

	kqerr "github.com/hashmap-kz/kubiq/internal/errors"
)

type tokenKind int

const (
	tokWord tokenKind = iota
	tokString
	tokComma
	tokLParen
	tokRParen
	tokStar
	tokEq
	tokNe
	tokEOF
)

type token struct {
	kind   tokenKind
	text   string
	offset int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokString:
		return fmt.Sprintf("'%s'", t.text)
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

// lex splits the joined query text into tokens. Words break at whitespace,
// quotes, commas, parentheses, '*', '=' and '!'.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == ',':
			toks = append(toks, token{tokComma, ",", i})
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case c == '*':
			toks = append(toks, token{tokStar, "*", i})
			i++
		case c == '=':
			if i+1 >= len(src) || src[i+1] != '=' {
				return nil, parseErrf(i, "expected '==', got '='")
			}
			toks = append(toks, token{tokEq, "==", i})
			i += 2
		case c == '!':
			if i+1 >= len(src) || src[i+1] != '=' {
				return nil, parseErrf(i, "expected '!=', got '!'")
			}
			toks = append(toks, token{tokNe, "!=", i})
			i += 2
		case c == '\'':
			text, next, err := lexQuoted(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{tokString, text, i})
			i = next
		default:
			start := i
			for i < len(src) && !isWordBreak(src[i]) {
				i++
			}
			toks = append(toks, token{tokWord, src[start:i], start})
		}
	}
	toks = append(toks, token{tokEOF, "", len(src)})
	return toks, nil
}

func isWordBreak(c byte) bool {
	return strings.IndexByte(" \t,()*='!", c) >= 0
}

// lexQuoted consumes a single-quoted string starting at src[start]. The only
// escapes are \' and \\.
func lexQuoted(src string, start int) (string, int, error) {
	var sb strings.Builder
	i := start + 1
	for i < len(src) {
		switch src[i] {
		case '\'':
			return sb.String(), i + 1, nil
		case '\\':
			if i+1 >= len(src) {
				return "", 0, parseErrf(i, "dangling escape in quoted string")
			}
			switch src[i+1] {
			case '\'', '\\':
				sb.WriteByte(src[i+1])
				i += 2
			default:
				return "", 0, parseErrf(i, "unknown escape '\\%c'", src[i+1])
			}
		default:
			sb.WriteByte(src[i])
			i++
		}
	}
	return "", 0, parseErrf(start, "unterminated quoted string")
}

func parseErrf(offset int, format string, args ...any) error {
	return &kqerr.ParseError{Offset: offset, Message: fmt.Sprintf(format, args...)}
}
