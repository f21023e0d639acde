package tickscript

import "fmt"

// TokenKind represents the type of a lexical token.
type TokenKind int

const (
	// Punctuation
	TokenLeftParen    TokenKind = iota // (
	TokenRightParen                    // )
	TokenLeftBracket                   // [
	TokenRightBracket                  // ]
	TokenComma                         // ,

	// Arithmetic
	TokenMinus // -
	TokenPlus  // +
	TokenSlash // /
	TokenStar  // *

	// Comparison and assignment
	TokenBang         // !
	TokenBangEqual    // !=
	TokenEqual        // =
	TokenEqualEqual   // ==
	TokenGreater      // >
	TokenGreaterEqual // >=
	TokenLess         // <
	TokenLessEqual    // <=

	// Literals
	TokenIdentifier
	TokenString
	TokenNumber
	TokenBoolean

	// Keywords (also && and ||)
	TokenAnd
	TokenOr

	// Structure
	TokenNewline
	TokenComment
	TokenEOF
)

var tokenNames = map[TokenKind]string{
	TokenLeftParen:    "(",
	TokenRightParen:   ")",
	TokenLeftBracket:  "[",
	TokenRightBracket: "]",
	TokenComma:        ",",
	TokenMinus:        "-",
	TokenPlus:         "+",
	TokenSlash:        "/",
	TokenStar:         "*",
	TokenBang:         "!",
	TokenBangEqual:    "!=",
	TokenEqual:        "=",
	TokenEqualEqual:   "==",
	TokenGreater:      ">",
	TokenGreaterEqual: ">=",
	TokenLess:         "<",
	TokenLessEqual:    "<=",
	TokenIdentifier:   "identifier",
	TokenString:       "string",
	TokenNumber:       "number",
	TokenBoolean:      "boolean",
	TokenAnd:          "and",
	TokenOr:           "or",
	TokenNewline:      "newline",
	TokenComment:      "comment",
	TokenEOF:          "end of file",
}

// String returns a readable name for the token kind.
func (k TokenKind) String() string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Token is a single lexeme with the line it started on.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Line   int
}

// String renders the token for diagnostics.
func (t Token) String() string {
	switch t.Kind {
	case TokenNewline:
		return "newline"
	case TokenEOF:
		return "end of file"
	default:
		return fmt.Sprintf("%q", t.Lexeme)
	}
}
