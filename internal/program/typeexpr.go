package program

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TypeExpr is a parsed type expression such as `Dict of (Integer, List of Date)`.
// Offsets are byte positions inside the expression text.
type TypeExpr struct {
	Name  string
	Args  []*TypeExpr
	Start int
	End   int
}

// String renders the expression in canonical spacing.
func (e *TypeExpr) String() string {
	if e == nil {
		return ""
	}
	if len(e.Args) == 0 {
		return e.Name
	}
	if len(e.Args) == 1 {
		return e.Name + " of " + e.Args[0].String()
	}
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		parts[i] = a.String()
	}
	return e.Name + " of (" + strings.Join(parts, ", ") + ")"
}

// Module splits a qualified name `mod::Name` into its parts.
func (e *TypeExpr) Module() (module, name string) {
	if i := strings.LastIndex(e.Name, "::"); i >= 0 {
		return e.Name[:i], e.Name[i+2:]
	}
	return "", e.Name
}

// SyntaxError describes a malformed type expression.
type SyntaxError struct {
	Text   string
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("malformed type expression %q at %d: %s", e.Text, e.Offset, e.Msg)
}

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokOf
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind  tokenKind
	text  string
	start int
	end   int
}

type exprParser struct {
	src  string
	pos  int
	tok  token
	fail *SyntaxError
}

// ParseTypeExpr parses the type expression grammar:
//
//	expr := name [ "of" ( expr | "(" expr { "," expr } ")" ) ]
//	name := ident { "::" ident }
//
// `of` binds to the right, so `List of List of Integer` nests.
func ParseTypeExpr(text string) (*TypeExpr, error) {
	p := &exprParser{src: text}
	p.next()
	e := p.expr()
	if p.fail == nil && p.tok.kind != tokEOF {
		p.errorf(p.tok.start, "unexpected %q", p.tok.text)
	}
	if p.fail != nil {
		return nil, p.fail
	}
	return e, nil
}

func (p *exprParser) errorf(at int, format string, args ...any) {
	if p.fail == nil {
		p.fail = &SyntaxError{Text: p.src, Offset: at, Msg: fmt.Sprintf(format, args...)}
	}
}

func (p *exprParser) expr() *TypeExpr {
	if p.tok.kind != tokIdent {
		p.errorf(p.tok.start, "expected a type name")
		return nil
	}
	e := &TypeExpr{Name: p.tok.text, Start: p.tok.start, End: p.tok.end}
	p.next()
	if p.tok.kind != tokOf {
		return e
	}
	p.next()
	if p.tok.kind == tokLParen {
		p.next()
		for {
			arg := p.expr()
			if arg == nil {
				return nil
			}
			e.Args = append(e.Args, arg)
			if p.tok.kind == tokComma {
				p.next()
				continue
			}
			break
		}
		if p.tok.kind != tokRParen {
			p.errorf(p.tok.start, "expected ')'")
			return nil
		}
		e.End = p.tok.end
		p.next()
		return e
	}
	arg := p.expr()
	if arg == nil {
		return nil
	}
	e.Args = []*TypeExpr{arg}
	e.End = arg.End
	return e
}

func (p *exprParser) next() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
	start := p.pos
	if p.pos >= len(p.src) {
		p.tok = token{kind: tokEOF, start: start, end: start}
		return
	}
	switch p.src[p.pos] {
	case '(':
		p.pos++
		p.tok = token{kind: tokLParen, text: "(", start: start, end: p.pos}
		return
	case ')':
		p.pos++
		p.tok = token{kind: tokRParen, text: ")", start: start, end: p.pos}
		return
	case ',':
		p.pos++
		p.tok = token{kind: tokComma, text: ",", start: start, end: p.pos}
		return
	}

	for p.pos < len(p.src) {
		if strings.HasPrefix(p.src[p.pos:], "::") {
			p.pos += 2
			continue
		}
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		p.pos += size
	}
	if p.pos == start {
		_, size := utf8.DecodeRuneInString(p.src[p.pos:])
		p.pos += size
		p.errorf(start, "unexpected character %q", p.src[start:p.pos])
		p.tok = token{kind: tokEOF, start: start, end: p.pos}
		return
	}
	text := p.src[start:p.pos]
	kind := tokIdent
	if text == "of" {
		kind = tokOf
	}
	p.tok = token{kind: kind, text: text, start: start, end: p.pos}
}
