package lexer

import (
	"unicode"

	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/diag"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/token"
)

type Lexer struct {
	source []rune
	pos    int
	line   int
	column int
	bag    *diag.Bag
}

func NewLexer(source string, bag *diag.Bag) *Lexer {
	return &Lexer{source: []rune(source), line: 1, column: 1, bag: bag}
}

// Tokenize scans the whole input, recording lexical diagnostics in the
// bag as it goes. The returned slice always ends with an EOF token.
func Tokenize(source string, bag *diag.Bag) []token.Token {
	l := NewLexer(source, bag)
	var toks []token.Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

func (l *Lexer) Next() token.Token {
	for {
		l.skipWhitespaceAndComments()
		startPos, startCol, startLine := l.pos, l.column, l.line

		if l.isAtEnd() {
			return l.makeToken(token.EOF, "", startPos, startCol, startLine)
		}

		ch := l.peek()
		if unicode.IsLetter(ch) || ch == '_' {
			return l.identifierOrKeyword(startPos, startCol, startLine)
		}
		if unicode.IsDigit(ch) {
			return l.numberLiteral(startPos, startCol, startLine)
		}

		l.advance()
		switch ch {
		case '(':
			return l.makeToken(token.LParen, "", startPos, startCol, startLine)
		case ')':
			return l.makeToken(token.RParen, "", startPos, startCol, startLine)
		case '{':
			return l.makeToken(token.LBrace, "", startPos, startCol, startLine)
		case '}':
			return l.makeToken(token.RBrace, "", startPos, startCol, startLine)
		case ';':
			return l.makeToken(token.Semi, "", startPos, startCol, startLine)
		case ',':
			return l.makeToken(token.Comma, "", startPos, startCol, startLine)
		case '+':
			return l.makeToken(token.Plus, "", startPos, startCol, startLine)
		case '-':
			return l.makeToken(token.Minus, "", startPos, startCol, startLine)
		case '*':
			return l.makeToken(token.Star, "", startPos, startCol, startLine)
		case '/':
			return l.makeToken(token.Slash, "", startPos, startCol, startLine)
		case '%':
			return l.makeToken(token.Rem, "", startPos, startCol, startLine)
		case '=':
			return l.matchThen('=', token.EqEq, token.Eq, startPos, startCol, startLine)
		case '!':
			return l.matchThen('=', token.Neq, token.Not, startPos, startCol, startLine)
		case '<':
			return l.matchThen('=', token.Lte, token.Lt, startPos, startCol, startLine)
		case '>':
			return l.matchThen('=', token.Gte, token.Gt, startPos, startCol, startLine)
		case '&':
			if l.match('&') {
				return l.makeToken(token.AndAnd, "", startPos, startCol, startLine)
			}
			l.report(startLine, startCol, "unexpected character: '&' (did you mean '&&'?)")
			continue
		case '|':
			if l.match('|') {
				return l.makeToken(token.OrOr, "", startPos, startCol, startLine)
			}
			l.report(startLine, startCol, "unexpected character: '|' (did you mean '||'?)")
			continue
		case '"', '\'':
			return l.stringLiteral(ch, startPos, startCol, startLine)
		}

		l.report(startLine, startCol, "unexpected character: '%c'", ch)
	}
}

func (l *Lexer) report(line, col int, format string, args ...interface{}) {
	l.bag.Report(diag.Lexical, token.Token{Line: line, Column: col, Len: 1}, format, args...)
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekNext() rune {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

func (l *Lexer) advance() rune {
	if l.isAtEnd() {
		return 0
	}
	ch := l.source[l.pos]
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	l.pos++
	return ch
}

func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() || l.source[l.pos] != expected {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) matchThen(expected rune, ifMatch, ifNot token.Type, startPos, startCol, startLine int) token.Token {
	if l.match(expected) {
		return l.makeToken(ifMatch, "", startPos, startCol, startLine)
	}
	return l.makeToken(ifNot, "", startPos, startCol, startLine)
}

func (l *Lexer) isAtEnd() bool { return l.pos >= len(l.source) }

func (l *Lexer) makeToken(tokType token.Type, value string, startPos, startCol, startLine int) token.Token {
	return token.Token{
		Type: tokType, Value: value,
		Line: startLine, Column: startCol, Len: l.pos - startPos,
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch l.peek() {
		case ' ', '\t', '\n', '\r':
			l.advance()
		case '/':
			switch l.peekNext() {
			case '/':
				for !l.isAtEnd() && l.peek() != '\n' {
					l.advance()
				}
			case '*':
				l.blockComment()
			default:
				return
			}
		default:
			return
		}
	}
}

func (l *Lexer) blockComment() {
	openLine, openCol := l.line, l.column
	l.advance()
	l.advance()
	for !l.isAtEnd() {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			return
		}
		l.advance()
	}
	l.report(openLine, openCol, "unterminated block comment")
}

func (l *Lexer) identifierOrKeyword(startPos, startCol, startLine int) token.Token {
	for !l.isAtEnd() && (unicode.IsLetter(l.peek()) || unicode.IsDigit(l.peek()) || l.peek() == '_') {
		l.advance()
	}
	word := string(l.source[startPos:l.pos])
	if kw, ok := token.KeywordMap[word]; ok {
		return l.makeToken(kw, word, startPos, startCol, startLine)
	}
	return l.makeToken(token.Ident, word, startPos, startCol, startLine)
}

func (l *Lexer) numberLiteral(startPos, startCol, startLine int) token.Token {
	for !l.isAtEnd() && unicode.IsDigit(l.peek()) {
		l.advance()
	}
	isFloat := false
	if l.peek() == '.' && unicode.IsDigit(l.peekNext()) {
		isFloat = true
		l.advance()
		for !l.isAtEnd() && unicode.IsDigit(l.peek()) {
			l.advance()
		}
	}
	value := string(l.source[startPos:l.pos])
	if isFloat {
		return l.makeToken(token.FloatNumber, value, startPos, startCol, startLine)
	}
	return l.makeToken(token.Number, value, startPos, startCol, startLine)
}

// stringLiteral scans a quoted literal. Both quote styles are accepted
// and the delimiters are stripped from the token value.
func (l *Lexer) stringLiteral(quote rune, startPos, startCol, startLine int) token.Token {
	for !l.isAtEnd() && l.peek() != quote && l.peek() != '\n' {
		l.advance()
	}
	if l.isAtEnd() || l.peek() == '\n' {
		l.report(startLine, startCol, "unterminated string literal")
		return l.makeToken(token.String, string(l.source[startPos+1:l.pos]), startPos, startCol, startLine)
	}
	value := string(l.source[startPos+1 : l.pos])
	l.advance()
	return l.makeToken(token.String, value, startPos, startCol, startLine)
}
