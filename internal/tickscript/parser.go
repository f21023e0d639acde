package tickscript

import (
	"strconv"
	"strings"
)

// DefaultMaxDepth bounds expression nesting.
const DefaultMaxDepth = 256

// Parser builds statements from tokens by recursive descent.
type Parser struct {
	tokens   []Token
	current  int
	depth    int
	maxDepth int
}

// NewParser creates a parser over tokens. A maxDepth of 0 or less selects
// DefaultMaxDepth.
func NewParser(tokens []Token, maxDepth int) *Parser {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != TokenEOF {
		line := 1
		if len(tokens) > 0 {
			line = tokens[len(tokens)-1].Line
		}
		tokens = append(tokens[:len(tokens):len(tokens)], Token{Kind: TokenEOF, Line: line})
	}
	return &Parser{tokens: tokens, maxDepth: maxDepth}
}

// Parse turns tokens into statements. The first error aborts the parse.
func Parse(tokens []Token) ([]Stmt, error) {
	return NewParser(tokens, DefaultMaxDepth).Parse()
}

// ParseSource tokenizes and parses source.
func ParseSource(source string) ([]Stmt, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	return Parse(tokens)
}

// Parse runs the parser to the end of input.
func (p *Parser) Parse() ([]Stmt, error) {
	var statements []Stmt

	for !p.isAtEnd() {
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			statements = append(statements, stmt)
		}
	}

	return statements, nil
}

func (p *Parser) statement() (Stmt, error) {
	// blank lines and comments
	if p.check(TokenNewline) || p.check(TokenComment) {
		p.advance()
		return nil, nil
	}

	if !p.check(TokenIdentifier) {
		return nil, syntaxError(p.peek().Line, "Unexpected token: %s", p.peek())
	}

	name := p.peek()
	var (
		stmt Stmt
		err  error
	)

	switch {
	case name.Lexeme == "study":
		p.advance()
		stmt, err = p.studyDeclaration()
	case p.peekNext().Kind == TokenEqual:
		p.advance()
		p.advance()
		stmt, err = p.declaration(name)
	case name.Lexeme == "plot":
		p.advance()
		stmt, err = p.plotStatement(name.Line)
	default:
		p.advance()
		return nil, syntaxError(name.Line, "Expected '=' after variable name")
	}
	if err != nil {
		return nil, err
	}

	if err := p.endOfStatement(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) studyDeclaration() (Stmt, error) {
	if err := p.consume(TokenLeftParen, "Expected '(' after 'study'"); err != nil {
		return nil, err
	}

	study := &StudyDecl{}

	if p.check(TokenString) {
		study.Title = unquote(p.advance().Lexeme)
	}

	err := p.namedArguments(func(name string, value Token, hasValue bool) {
		switch name {
		case "shorttitle":
			if hasValue && value.Kind == TokenString {
				study.ShortTitle = unquote(value.Lexeme)
			}
		case "overlay":
			if hasValue && value.Kind == TokenBoolean {
				study.Overlay = value.Lexeme == "true"
			}
		}
	})
	if err != nil {
		return nil, err
	}

	if err := p.consume(TokenRightParen, "Expected ')' after study parameters"); err != nil {
		return nil, err
	}

	return study, nil
}

func (p *Parser) plotStatement(line int) (Stmt, error) {
	if err := p.consume(TokenLeftParen, "Expected '(' after 'plot'"); err != nil {
		return nil, err
	}

	value, err := p.expression()
	if err != nil {
		return nil, err
	}

	plot := &Plot{Value: value, Line: line}

	err = p.namedArguments(func(name string, value Token, hasValue bool) {
		if name == "title" && hasValue && value.Kind == TokenString {
			plot.Title = unquote(value.Lexeme)
		}
	})
	if err != nil {
		return nil, err
	}

	if err := p.consume(TokenRightParen, "Expected ')' after plot expression"); err != nil {
		return nil, err
	}

	return plot, nil
}

// namedArguments parses `, name=value` pairs. Literal values are handed to
// set; any other expression is parsed and dropped.
func (p *Parser) namedArguments(set func(name string, value Token, hasValue bool)) error {
	for p.match(TokenComma) {
		if !p.match(TokenIdentifier) {
			return syntaxError(p.peek().Line, "Expected parameter name")
		}
		name := p.previous().Lexeme

		if err := p.consume(TokenEqual, "Expected '=' after parameter name"); err != nil {
			return err
		}

		if p.check(TokenString) || p.check(TokenBoolean) {
			next := p.peekNext().Kind
			if next == TokenComma || next == TokenRightParen {
				set(name, p.advance(), true)
				continue
			}
		}

		if _, err := p.expression(); err != nil {
			return err
		}
		set(name, Token{}, false)
	}
	return nil
}

func (p *Parser) declaration(name Token) (Stmt, error) {
	value, err := p.expression()
	if err != nil {
		return nil, err
	}

	if IsSeriesExpression(value) {
		return &SeriesDecl{Name: name.Lexeme, Value: value, Line: name.Line}, nil
	}
	return &VarDecl{Name: name.Lexeme, Value: value, Line: name.Line}, nil
}

func (p *Parser) endOfStatement() error {
	if p.check(TokenComment) {
		p.advance()
	}
	if p.isAtEnd() {
		return nil
	}
	if p.match(TokenNewline) {
		return nil
	}
	return syntaxError(p.peek().Line, "Expected newline after statement, got %s", p.peek())
}

func (p *Parser) expression() (Expr, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > p.maxDepth {
		return nil, syntaxError(p.peek().Line, "Expression nested too deeply")
	}
	return p.logicalOr()
}

// binaryLevel parses one left-associative precedence level.
func (p *Parser) binaryLevel(next func() (Expr, error), kinds ...TokenKind) (Expr, error) {
	expr, err := next()
	if err != nil {
		return nil, err
	}

	for p.match(kinds...) {
		op := p.previous()
		right, err := next()
		if err != nil {
			return nil, err
		}
		expr = &Binary{Left: expr, Op: operatorSymbol(op), Right: right, Line: op.Line}
	}

	return expr, nil
}

func (p *Parser) logicalOr() (Expr, error) {
	return p.binaryLevel(p.logicalAnd, TokenOr)
}

func (p *Parser) logicalAnd() (Expr, error) {
	return p.binaryLevel(p.equality, TokenAnd)
}

func (p *Parser) equality() (Expr, error) {
	return p.binaryLevel(p.comparison, TokenBangEqual, TokenEqualEqual)
}

func (p *Parser) comparison() (Expr, error) {
	return p.binaryLevel(p.term, TokenGreater, TokenGreaterEqual, TokenLess, TokenLessEqual)
}

func (p *Parser) term() (Expr, error) {
	return p.binaryLevel(p.factor, TokenMinus, TokenPlus)
}

func (p *Parser) factor() (Expr, error) {
	return p.binaryLevel(p.unary, TokenSlash, TokenStar)
}

func (p *Parser) unary() (Expr, error) {
	if p.match(TokenBang, TokenMinus) {
		op := p.previous()

		p.depth++
		defer func() { p.depth-- }()
		if p.depth > p.maxDepth {
			return nil, syntaxError(op.Line, "Expression nested too deeply")
		}

		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &Binary{Left: &NumberLit{Value: 0}, Op: op.Lexeme, Right: right, Line: op.Line, Prefix: true}, nil
	}

	return p.call()
}

func (p *Parser) call() (Expr, error) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.match(TokenLeftParen):
			expr, err = p.finishCall(expr)
			if err != nil {
				return nil, err
			}
		case p.match(TokenLeftBracket):
			line := p.previous().Line
			index, err := p.expression()
			if err != nil {
				return nil, err
			}
			if err := p.consume(TokenRightBracket, "Expected ']' after array index"); err != nil {
				return nil, err
			}
			expr = &Index{Target: expr, Index: index, Line: line}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) finishCall(callee Expr) (Expr, error) {
	variable, ok := callee.(*Variable)
	if !ok {
		return nil, syntaxError(p.previous().Line, "Invalid function call")
	}

	var args []Expr
	if !p.check(TokenRightParen) {
		for {
			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.match(TokenComma) {
				break
			}
		}
	}

	if err := p.consume(TokenRightParen, "Expected ')' after arguments"); err != nil {
		return nil, err
	}

	return &Call{Name: variable.Name, Args: args, Line: variable.Line}, nil
}

func (p *Parser) primary() (Expr, error) {
	switch {
	case p.match(TokenBoolean):
		return &BoolLit{Value: p.previous().Lexeme == "true"}, nil
	case p.match(TokenNumber):
		value, err := strconv.ParseFloat(p.previous().Lexeme, 64)
		if err != nil {
			return nil, syntaxError(p.previous().Line, "Invalid number: %s", p.previous().Lexeme)
		}
		return &NumberLit{Value: value}, nil
	case p.match(TokenString):
		return &StringLit{Value: unquote(p.previous().Lexeme)}, nil
	case p.match(TokenIdentifier):
		return &Variable{Name: p.previous().Lexeme, Line: p.previous().Line}, nil
	case p.match(TokenLeftParen):
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		if err := p.consume(TokenRightParen, "Expected ')' after expression"); err != nil {
			return nil, err
		}
		return expr, nil
	}

	return nil, syntaxError(p.peek().Line, "Unexpected token: %s", p.peek())
}

// IsSeriesExpression is the syntactic series/scalar classifier: calls to
// series builtins, binary operations whose left side is a series, and
// variables named *_series or *_data. Infer refines this with declared
// names.
func IsSeriesExpression(expr Expr) bool {
	switch e := expr.(type) {
	case *Call:
		b, ok := LookupBuiltin(e.Name)
		return ok && b.Result == ShapeSeries
	case *Binary:
		return IsSeriesExpression(e.Left)
	case *Variable:
		return strings.HasSuffix(e.Name, "_series") || strings.HasSuffix(e.Name, "_data")
	default:
		return false
	}
}

func operatorSymbol(tok Token) string {
	switch tok.Kind {
	case TokenAnd:
		return "and"
	case TokenOr:
		return "or"
	default:
		return tok.Lexeme
	}
}

func unquote(lexeme string) string {
	if len(lexeme) >= 2 && lexeme[0] == '"' && lexeme[len(lexeme)-1] == '"' {
		return lexeme[1 : len(lexeme)-1]
	}
	return lexeme
}

func (p *Parser) match(kinds ...TokenKind) bool {
	for _, kind := range kinds {
		if p.check(kind) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) check(kind TokenKind) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Kind == kind
}

func (p *Parser) advance() Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == TokenEOF
}

func (p *Parser) peek() Token {
	return p.tokens[p.current]
}

func (p *Parser) peekNext() Token {
	if p.current+1 >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+1]
}

func (p *Parser) previous() Token {
	return p.tokens[p.current-1]
}

func (p *Parser) consume(kind TokenKind, message string) error {
	if p.check(kind) {
		p.advance()
		return nil
	}
	return syntaxError(p.peek().Line, "%s", message)
}
