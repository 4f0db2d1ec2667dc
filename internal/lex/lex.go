// Package lex implements the single-pass scanner: whitespace and
// line-comment skipping, keyword/identifier classification, and
// greedy multi-character operator lexing. It exposes a fixed
// one-token look-behind/look-ahead window, as required by the
// parser's synchronization and lvalue-disambiguation logic.
package lex

import (
	"github.com/limec/limec/internal/common"
	"github.com/limec/limec/internal/token"
)

// Tok is a single lexeme: its kind, the exact source slice it came
// from, and its source line (plus column, for diagnostic carets).
type Tok struct {
	Kind    token.Token
	Literal string
	Pos     token.Position
}

// Length returns the width of the lexeme in the source.
func (t Tok) Length() int { return len(t.Literal) }

// Lexer produces Toks on demand. Next advances the stream by one
// token; Previous, Current and Peek read the surrounding window
// without mutating position.
type Lexer struct {
	src      []byte
	filename string
	errors   *common.ErrorList

	ch         rune
	chOffset   int
	readOffset int
	lineOffset int
	lineCount  int

	prev, cur, nxt Tok
}

// New creates a lexer over file's source, reporting lex errors to errors.
// The first two tokens are scanned immediately so Current and Peek are
// valid before any call to Next.
func New(file *token.File, errors *common.ErrorList) *Lexer {
	l := &Lexer{
		src:        file.Src,
		filename:   file.Filename,
		errors:     errors,
		ch:         ' ',
		lineOffset: -1, // so column positions on line 1 start at 1
		lineCount:  1,
	}
	l.advance()
	l.cur = l.scan()
	l.nxt = l.scan()
	return l
}

// Next advances the window by one token and returns the new current token.
func (l *Lexer) Next() Tok {
	l.prev = l.cur
	l.cur = l.nxt
	l.nxt = l.scan()
	return l.cur
}

// Previous returns the token before Current, or the zero Tok at the start
// of the stream.
func (l *Lexer) Previous() Tok { return l.prev }

// Current returns the token under the cursor.
func (l *Lexer) Current() Tok { return l.cur }

// Peek returns the token after Current without consuming it.
func (l *Lexer) Peek() Tok { return l.nxt }

func isLetter(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func (l *Lexer) advance() {
	if l.ch == '\n' {
		l.lineOffset = l.chOffset
		l.lineCount++
	}
	if l.readOffset < len(l.src) {
		l.chOffset = l.readOffset
		l.readOffset++
		l.ch = rune(l.src[l.chOffset])
	} else {
		l.chOffset = len(l.src)
		l.ch = -1
	}
}

func (l *Lexer) pos() token.Position {
	col := l.chOffset - l.lineOffset
	if col <= 0 {
		col = 1
	}
	return token.Position{Filename: l.filename, Offset: l.chOffset, Line: l.lineCount, Column: col}
}

func (l *Lexer) error(pos token.Position, format string, args ...interface{}) {
	l.errors.AddLexError(pos, format, args...)
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.advance()
	}
}

// scan reads the next raw token from the byte stream. It is the only
// place that inspects l.ch directly; everything else goes through the
// three-token window.
func (l *Lexer) scan() Tok {
	l.skipWhitespace()
	for l.ch == '/' && l.peekCh() == '/' {
		for l.ch != '\n' && l.ch != -1 {
			l.advance()
		}
		l.skipWhitespace()
	}

	pos := l.pos()
	start := l.chOffset
	var kind token.Token

	switch ch := l.ch; {
	case ch == -1:
		kind = token.EOF
	case isLetter(ch):
		l.scanIdent()
		lit := string(l.src[start:l.chOffset])
		return Tok{Kind: token.Lookup(lit), Literal: lit, Pos: pos}
	case isDigit(ch):
		l.scanNumber()
		return Tok{Kind: token.Number, Literal: string(l.src[start:l.chOffset]), Pos: pos}
	case ch == '"':
		lit := l.scanString()
		return Tok{Kind: token.String, Literal: lit, Pos: pos}
	default:
		l.advance()
		switch ch {
		case '(':
			kind = token.Lparen
		case ')':
			kind = token.Rparen
		case '{':
			kind = token.Lbrace
		case '}':
			kind = token.Rbrace
		case ',':
			kind = token.Comma
		case ';':
			kind = token.Semicolon
		case '&':
			kind = token.And
		case '@':
			kind = token.At
		case '#':
			kind = token.Hash
		case '%':
			kind = token.Pct
		case '|':
			kind = token.Pipe
		case '!':
			kind = l.alt('=', token.Neq, token.Not)
		case '=':
			kind = l.alt('=', token.Eq, token.Assign)
		case '<':
			kind = l.alt('=', token.LtEq, token.Lt)
		case '>':
			kind = l.alt('=', token.GtEq, token.Gt)
		case '+':
			kind = l.alt3('=', token.AddAssign, '+', token.Inc, token.Add)
		case '-':
			if l.ch == '>' {
				l.advance()
				kind = token.Arrow
			} else {
				kind = l.alt3('=', token.SubAssign, '-', token.Dec, token.Sub)
			}
		case '*':
			kind = l.alt('=', token.MulAssign, token.Mul)
		case '/':
			kind = l.alt('=', token.DivAssign, token.Div)
		case ':':
			if l.ch == ':' {
				l.advance()
				kind = token.ColonColon
			} else if l.ch == '=' {
				l.advance()
				kind = token.Define
			} else {
				kind = token.Colon
			}
		case '.':
			if l.ch == '.' && l.peekCh() == '.' {
				l.advance()
				l.advance()
				kind = token.Ellipsis
			} else {
				l.error(pos, "unexpected character '.'")
				kind = token.Invalid
			}
		default:
			l.error(pos, "unrecognized character '%c'", ch)
			kind = token.Invalid
		}
	}

	return Tok{Kind: kind, Literal: string(l.src[start:l.chOffset]), Pos: pos}
}

// peekCh looks at the byte after l.ch without advancing.
func (l *Lexer) peekCh() rune {
	if l.readOffset < len(l.src) {
		return rune(l.src[l.readOffset])
	}
	return -1
}

func (l *Lexer) alt(next rune, matchTok, elseTok token.Token) token.Token {
	if l.ch == next {
		l.advance()
		return matchTok
	}
	return elseTok
}

func (l *Lexer) alt3(next0 rune, tok0 token.Token, next1 rune, tok1 token.Token, elseTok token.Token) token.Token {
	switch l.ch {
	case next0:
		l.advance()
		return tok0
	case next1:
		l.advance()
		return tok1
	default:
		return elseTok
	}
}

func (l *Lexer) scanIdent() {
	for isLetter(l.ch) || isDigit(l.ch) {
		l.advance()
	}
}

// scanNumber consumes a run of digits, optionally a single '.' fraction
// and an optional trailing 'f'; classification into int vs float happens
// in the parser from the presence of '.' in the literal.
func (l *Lexer) scanNumber() {
	for isDigit(l.ch) {
		l.advance()
	}
	if l.ch == '.' && isDigit(l.peekCh()) {
		l.advance()
		for isDigit(l.ch) {
			l.advance()
		}
	}
	if l.ch == 'f' {
		l.advance()
	}
}

// scanString consumes a double-quoted literal and returns its content
// (the bytes strictly between the quotes). Newlines are not permitted
// inside a string; an unterminated string is a LexError.
func (l *Lexer) scanString() string {
	pos := l.pos()
	l.advance() // opening quote
	start := l.chOffset
	for l.ch != '"' {
		if l.ch == '\n' || l.ch == -1 {
			l.error(pos, "string literal not terminated")
			return string(l.src[start:l.chOffset])
		}
		l.advance()
	}
	lit := string(l.src[start:l.chOffset])
	l.advance() // closing quote
	return lit
}
