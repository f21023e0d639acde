package tickscript

import (
	"unicode/utf8"
)

// Lexer turns script source into tokens in a single left-to-right pass.
type Lexer struct {
	source  string
	tokens  []Token
	start   int
	current int
	line    int
}

// Tokenize scans source and returns its tokens, always terminated by an EOF
// token. The first unrecognised character aborts with a SyntaxError.
func Tokenize(source string) ([]Token, error) {
	l := &Lexer{source: source, line: 1}
	return l.tokenize()
}

func (l *Lexer) tokenize() ([]Token, error) {
	for !l.isAtEnd() {
		l.start = l.current
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}

	l.tokens = append(l.tokens, Token{Kind: TokenEOF, Line: l.line})
	return l.tokens, nil
}

func (l *Lexer) scanToken() error {
	c := l.advance()

	switch c {
	case ' ', '\r', '\t':
	case '\n':
		l.addToken(TokenNewline)
		l.line++
	case '(':
		l.addToken(TokenLeftParen)
	case ')':
		l.addToken(TokenRightParen)
	case '[':
		l.addToken(TokenLeftBracket)
	case ']':
		l.addToken(TokenRightBracket)
	case ',':
		l.addToken(TokenComma)
	case '+':
		l.addToken(TokenPlus)
	case '-':
		l.addToken(TokenMinus)
	case '*':
		l.addToken(TokenStar)
	case '/':
		if l.match('/') {
			for l.peek() != '\n' && !l.isAtEnd() {
				l.advance()
			}
			l.addToken(TokenComment)
		} else {
			l.addToken(TokenSlash)
		}
	case '!':
		l.addEither('=', TokenBangEqual, TokenBang)
	case '=':
		l.addEither('=', TokenEqualEqual, TokenEqual)
	case '<':
		l.addEither('=', TokenLessEqual, TokenLess)
	case '>':
		l.addEither('=', TokenGreaterEqual, TokenGreater)
	case '&':
		if !l.match('&') {
			return syntaxError(l.line, "Unexpected character: &")
		}
		l.addToken(TokenAnd)
	case '|':
		if !l.match('|') {
			return syntaxError(l.line, "Unexpected character: |")
		}
		l.addToken(TokenOr)
	case '"':
		return l.string()
	default:
		switch {
		case isDigit(c):
			l.number()
		case isAlpha(c):
			l.identifier()
		default:
			// report the whole rune, not just its first byte
			r, _ := utf8.DecodeRuneInString(l.source[l.start:])
			return syntaxError(l.line, "Unexpected character: %c", r)
		}
	}

	return nil
}

func (l *Lexer) string() error {
	startLine := l.line
	for l.peek() != '"' && !l.isAtEnd() {
		if l.peek() == '\n' {
			l.line++
		}
		l.advance()
	}

	if l.isAtEnd() {
		return syntaxError(startLine, "Unterminated string")
	}

	// closing quote
	l.advance()
	l.tokens = append(l.tokens, Token{
		Kind:   TokenString,
		Lexeme: l.source[l.start:l.current],
		Line:   startLine,
	})
	return nil
}

func (l *Lexer) number() {
	for isDigit(l.peek()) {
		l.advance()
	}

	if l.peek() == '.' && isDigit(l.peekNext()) {
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}

	l.addToken(TokenNumber)
}

func (l *Lexer) identifier() {
	for isAlpha(l.peek()) || isDigit(l.peek()) {
		l.advance()
	}

	switch l.source[l.start:l.current] {
	case "true", "false":
		l.addToken(TokenBoolean)
	case "and":
		l.addToken(TokenAnd)
	case "or":
		l.addToken(TokenOr)
	default:
		l.addToken(TokenIdentifier)
	}
}

func (l *Lexer) addEither(next byte, matched, single TokenKind) {
	if l.match(next) {
		l.addToken(matched)
		return
	}
	l.addToken(single)
}

func (l *Lexer) addToken(kind TokenKind) {
	l.tokens = append(l.tokens, Token{
		Kind:   kind,
		Lexeme: l.source[l.start:l.current],
		Line:   l.line,
	})
}

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

func (l *Lexer) advance() byte {
	c := l.source[l.current]
	l.current++
	return c
}

func (l *Lexer) match(expected byte) bool {
	if l.isAtEnd() || l.source[l.current] != expected {
		return false
	}
	l.current++
	return true
}

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.current]
}

func (l *Lexer) peekNext() byte {
	if l.current+1 >= len(l.source) {
		return 0
	}
	return l.source[l.current+1]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}
