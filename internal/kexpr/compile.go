package kexpr

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hashicorp/hcl/v2"
)

// Compile parses condition text (the right-hand side of "depends on",
// "default ... if", "select ... if", etc.) into an Expression tree, against
// symtab. at is the source position of the first byte of text, used to
// locate any diagnostics produced. On any error the returned expression is
// nil, so it references no symbols.
//
// The grammar (documented deviation from the line-by-line reduction
// described in spec.md §9's open question — this is a standard
// precedence-climbing recursive descent over the same BNF):
//
//	expr   := or
//	or     := and ('||' and)*
//	and    := eq ('&&' eq)*
//	eq     := unary (('=' | '!=') unary)?
//	unary  := '!' unary | primary
//	primary:= SYMBOL | STRING | 'n' | 'm' | 'y' | '(' expr ')'
func Compile(text string, symtab SymbolTable, at hcl.Pos) (*Expression, hcl.Diagnostics) {
	p := &parser{lex: newLexer(text, at), symtab: symtab}
	p.next()
	expr := p.parseOr()
	if len(p.diags) == 0 && p.tok.kind != tokEOF {
		p.errorf("unexpected %q", p.tok.text)
	}
	if p.diags.HasErrors() {
		return nil, p.diags
	}
	return expr, p.diags
}

type parser struct {
	lex    *lexer
	tok    token
	symtab SymbolTable
	diags  hcl.Diagnostics
}

func (p *parser) next() {
	p.tok = p.lex.next()
}

func (p *parser) errorf(format string, args ...any) {
	p.diags = append(p.diags, &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "invalid expression",
		Detail:   fmt.Sprintf(format, args...),
		Subject: &hcl.Range{
			Filename: p.tok.pos.Filename,
			Start:    p.tok.pos,
			End:      p.tok.pos,
		},
	})
}

func (p *parser) parseOr() *Expression {
	left := p.parseAnd()
	for p.tok.kind == tokOrOr {
		p.next()
		right := p.parseAnd()
		left = &Expression{Type: ExprOr, Left: ExprOperand(left), Right: ExprOperand(right)}
	}
	return left
}

func (p *parser) parseAnd() *Expression {
	left := p.parseEq()
	for p.tok.kind == tokAndAnd {
		p.next()
		right := p.parseEq()
		left = &Expression{Type: ExprAnd, Left: ExprOperand(left), Right: ExprOperand(right)}
	}
	return left
}

func (p *parser) parseEq() *Expression {
	left := p.parseUnary()
	switch p.tok.kind {
	case tokEq:
		p.next()
		right := p.parseUnary()
		return &Expression{Type: ExprEqual, Left: ExprOperand(left), Right: ExprOperand(right)}
	case tokNeq:
		p.next()
		right := p.parseUnary()
		return &Expression{Type: ExprNotEqual, Left: ExprOperand(left), Right: ExprOperand(right)}
	default:
		return left
	}
}

func (p *parser) parseUnary() *Expression {
	if p.tok.kind == tokBang {
		p.next()
		inner := p.parseUnary()
		return &Expression{Type: ExprNot, Left: ExprOperand(inner)}
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() *Expression {
	switch p.tok.kind {
	case tokLParen:
		p.next()
		inner := p.parseOr()
		if p.tok.kind != tokRParen {
			p.errorf("expected ')'")
			return inner
		}
		p.next()
		return inner
	case tokString:
		sym := p.symtab.Const(p.tok.text)
		p.next()
		return &Expression{Type: ExprNone, Left: SymOperand(sym)}
	case tokBadString:
		p.errorf("unbalanced quotes in string literal")
		p.next()
		return ConstN()
	case tokIdent:
		name := p.tok.text
		switch strings.ToLower(name) {
		case "n":
			p.next()
			return ConstN()
		case "m":
			p.next()
			return ConstM()
		case "y":
			p.next()
			return ConstY()
		}
		sym, ok := p.symtab.Lookup(name)
		if !ok {
			p.errorf("undeclared symbol %q", name)
			p.next()
			return ConstN()
		}
		p.next()
		return &Expression{Type: ExprNone, Left: SymOperand(sym)}
	default:
		p.errorf("expected symbol, string literal, or '('")
		if p.tok.kind != tokEOF {
			p.next()
		}
		return ConstN()
	}
}

// --- lexer ---

type tokKind int

const (
	tokEOF tokKind = iota
	tokIdent
	tokString
	tokBadString
	tokLParen
	tokRParen
	tokAndAnd
	tokOrOr
	tokBang
	tokEq
	tokNeq
)

type token struct {
	kind tokKind
	text string
	pos  hcl.Pos
}

type lexer struct {
	src       string
	off       int
	line, col int
	filename  string
}

func newLexer(src string, at hcl.Pos) *lexer {
	return &lexer{src: src, line: at.Line, col: at.Column, filename: at.Filename}
}

func (l *lexer) pos() hcl.Pos {
	return hcl.Pos{Filename: l.filename, Line: l.line, Column: l.col, Byte: l.off}
}

func (l *lexer) advance() rune {
	if l.off >= len(l.src) {
		return 0
	}
	r, size := utf8.DecodeRuneInString(l.src[l.off:])
	l.off += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) peek() rune {
	if l.off >= len(l.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.off:])
	return r
}

func (l *lexer) peekAt(offset int) rune {
	i := l.off + offset
	if i >= len(l.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.src[i:])
	return r
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || r == '$' || r == '.' || r == '/' || r == '-'
}

func (l *lexer) next() token {
	for unicode.IsSpace(l.peek()) {
		l.advance()
	}
	start := l.pos()
	r := l.peek()
	switch {
	case r == 0:
		return token{kind: tokEOF, pos: start}
	case r == '(':
		l.advance()
		return token{kind: tokLParen, text: "(", pos: start}
	case r == ')':
		l.advance()
		return token{kind: tokRParen, text: ")", pos: start}
	case r == '!':
		l.advance()
		if l.peek() == '=' {
			l.advance()
			return token{kind: tokNeq, text: "!=", pos: start}
		}
		return token{kind: tokBang, text: "!", pos: start}
	case r == '=':
		l.advance()
		return token{kind: tokEq, text: "=", pos: start}
	case r == '&' && l.peekAt(1) == '&':
		l.advance()
		l.advance()
		return token{kind: tokAndAnd, text: "&&", pos: start}
	case r == '|' && l.peekAt(1) == '|':
		l.advance()
		l.advance()
		return token{kind: tokOrOr, text: "||", pos: start}
	case r == '"':
		return l.lexString(start, '"')
	case r == '\'':
		return l.lexString(start, '\'')
	default:
		return l.lexIdent(start)
	}
}

// lexString scans a quoted string literal, either "..." or '...' (spec.md
// §6's STRING := "..." | '...'). It reports tokBadString instead of
// tokString when the closing quote is never found, so the parser can fail
// with a located "unbalanced quotes" diagnostic instead of silently
// accepting a truncated literal.
func (l *lexer) lexString(start hcl.Pos, quote rune) token {
	l.advance() // opening quote
	var b strings.Builder
	for {
		r := l.peek()
		if r == 0 {
			return token{kind: tokBadString, text: b.String(), pos: start}
		}
		if r == quote {
			l.advance()
			break
		}
		if r == '\\' {
			l.advance()
			esc := l.peek()
			switch esc {
			case quote, '\\':
				b.WriteRune(esc)
				l.advance()
			default:
				b.WriteRune('\\')
			}
			continue
		}
		b.WriteRune(r)
		l.advance()
	}
	return token{kind: tokString, text: b.String(), pos: start}
}

func (l *lexer) lexIdent(start hcl.Pos) token {
	var b strings.Builder
	for isIdentStart(l.peek()) {
		b.WriteRune(l.advance())
	}
	if b.Len() == 0 {
		// unrecognized character; consume it so the parser makes progress
		l.advance()
		return token{kind: tokIdent, text: string(l.src[start.Byte:l.off]), pos: start}
	}
	return token{kind: tokIdent, text: b.String(), pos: start}
}
