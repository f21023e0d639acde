package tickscript

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func mustParse(t *testing.T, source string) []Stmt {
	t.Helper()
	stmts, err := ParseSource(source)
	if err != nil {
		t.Fatalf("expected no error parsing %q, got %v", source, err)
	}
	return stmts
}

func TestParseStudy(t *testing.T) {
	stmts := mustParse(t, `study("Simple Moving Average", shorttitle="SMA", overlay=true)`)
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}

	study, ok := stmts[0].(*StudyDecl)
	if !ok {
		t.Fatalf("expected *StudyDecl, got %T", stmts[0])
	}
	if study.Title != "Simple Moving Average" {
		t.Errorf("expected title 'Simple Moving Average', got '%s'", study.Title)
	}
	if study.ShortTitle != "SMA" {
		t.Errorf("expected short title 'SMA', got '%s'", study.ShortTitle)
	}
	if !study.Overlay {
		t.Error("expected overlay to be true")
	}
}

func TestParseStudyDefaults(t *testing.T) {
	tests := []struct {
		source   string
		expected StudyDecl
	}{
		{`study()`, StudyDecl{}},
		{`study("Only Title")`, StudyDecl{Title: "Only Title"}},
		{`study("T", overlay=false)`, StudyDecl{Title: "T"}},
		{`study("T", overlay=1 + 2)`, StudyDecl{Title: "T"}},
		{`study("T", color="red", shorttitle="S")`, StudyDecl{Title: "T", ShortTitle: "S"}},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			stmts := mustParse(t, tt.source)
			study := stmts[0].(*StudyDecl)
			if *study != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, *study)
			}
		})
	}
}

func TestParseDeclarations(t *testing.T) {
	source := `length = 14
sma_line = sma(close(), length)
double = length * 2
my_series = close_data
`
	stmts := mustParse(t, source)
	if len(stmts) != 4 {
		t.Fatalf("expected 4 statements, got %d", len(stmts))
	}

	if v, ok := stmts[0].(*VarDecl); !ok || v.Name != "length" {
		t.Errorf("expected VarDecl length, got %s", stmts[0])
	}
	if s, ok := stmts[1].(*SeriesDecl); !ok || s.Name != "sma_line" || s.Line != 2 {
		t.Errorf("expected SeriesDecl sma_line on line 2, got %s", stmts[1])
	}
	if _, ok := stmts[2].(*VarDecl); !ok {
		t.Errorf("expected VarDecl, got %s", stmts[2])
	}
	if _, ok := stmts[3].(*SeriesDecl); !ok {
		t.Errorf("expected *_data variable to be classified as series, got %s", stmts[3])
	}
}

func TestParsePlot(t *testing.T) {
	stmts := mustParse(t, `plot(sma(close(), 20), title="Basis") // overlay`)
	plot, ok := stmts[0].(*Plot)
	if !ok {
		t.Fatalf("expected *Plot, got %T", stmts[0])
	}
	if plot.Title != "Basis" {
		t.Errorf("expected title 'Basis', got '%s'", plot.Title)
	}
	if plot.Value.String() != "sma(close(), 20)" {
		t.Errorf("expected 'sma(close(), 20)', got '%s'", plot.Value.String())
	}
}

func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		source   string
		expected string
	}{
		{"x = 1 + 2 * 3", "(1 + (2 * 3))"},
		{"x = (1 + 2) * 3", "((1 + 2) * 3)"},
		{"x = 1 - 2 - 3", "((1 - 2) - 3)"},
		{"x = 8 / 4 / 2", "((8 / 4) / 2)"},
		{"x = -a * b", "(-a * b)"},
		{"x = !a and b", "(!a and b)"},
		{"x = a or b && c", "(a or (b and c))"},
		{"x = a || b", "(a or b)"},
		{"x = 1 < 2 == true", "((1 < 2) == true)"},
		{"x = a + b >= c - d", "((a + b) >= (c - d))"},
		{"x = --a", "--a"},
		{"x = a[1] + b", "(a[1] + b)"},
		{"x = sma(close(), 5)[0]", "sma(close(), 5)[0]"},
		{"x = a[b[0]]", "a[b[0]]"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			stmts := mustParse(t, tt.source)
			var value Expr
			switch s := stmts[0].(type) {
			case *VarDecl:
				value = s.Value
			case *SeriesDecl:
				value = s.Value
			}
			if value.String() != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, value.String())
			}
		})
	}
}

func TestParseSkipsBlankLinesAndComments(t *testing.T) {
	source := `
// heading

a = 1 // trailing

// another
plot(close())
`
	stmts := mustParse(t, source)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(stmts))
	}
}

func TestParseEmpty(t *testing.T) {
	for _, source := range []string{"", "\n\n", "// nothing here"} {
		stmts := mustParse(t, source)
		if len(stmts) != 0 {
			t.Errorf("source %q: expected no statements, got %d", source, len(stmts))
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		contains string
	}{
		{"unclosed study", `study(`, "Expected ')' after study parameters"},
		{"study without paren", `study "x"`, "Expected '(' after 'study'"},
		{"unclosed plot", `plot(close()`, "Expected ')' after plot expression"},
		{"bare identifier", `close()`, "Expected '=' after variable name"},
		{"missing operand", `x = 1 +`, "Unexpected token"},
		{"unclosed call", `x = sma(close(), 5`, "Expected ')' after arguments"},
		{"unclosed index", `x = a[1`, "Expected ']' after array index"},
		{"unclosed group", `x = (1 + 2`, "Expected ')' after expression"},
		{"call on call", `x = f()()`, "Invalid function call"},
		{"call on literal", `x = 1(2)`, "Invalid function call"},
		{"two statements on one line", `a = 1 b = 2`, "Expected newline after statement"},
		{"named argument without name", `plot(close(), "x")`, "Expected parameter name"},
		{"named argument without equals", `plot(close(), title "x")`, "Expected '=' after parameter name"},
		{"leading number", `1 = 2`, "Unexpected token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSource(tt.source)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrSyntax) {
				t.Errorf("expected syntax error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("expected error containing %q, got %q", tt.contains, err.Error())
			}
		})
	}
}

func TestParseErrorLine(t *testing.T) {
	_, err := ParseSource("a = 1\nb = 2\nc = (3")
	var scriptErr *Error
	if !errors.As(err, &scriptErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if scriptErr.Line != 3 {
		t.Errorf("expected line 3, got %d", scriptErr.Line)
	}
}

func TestParseMaxDepth(t *testing.T) {
	source := "x = " + strings.Repeat("(", 50) + "1" + strings.Repeat(")", 50)

	tokens, err := Tokenize(source)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, err := NewParser(tokens, 10).Parse(); err == nil || !strings.Contains(err.Error(), "nested too deeply") {
		t.Errorf("expected nesting error, got %v", err)
	}
	if _, err := NewParser(tokens, 0).Parse(); err != nil {
		t.Errorf("expected default depth to accept 50 levels, got %v", err)
	}

	unary := "x = " + strings.Repeat("-", 50) + "1"
	tokens, err = Tokenize(unary)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := NewParser(tokens, 10).Parse(); err == nil {
		t.Error("expected nesting error for deep unary chain")
	}
}

func TestNewParserAppendsEOF(t *testing.T) {
	tokens := []Token{
		{Kind: TokenIdentifier, Lexeme: "x", Line: 1},
		{Kind: TokenEqual, Lexeme: "=", Line: 1},
		{Kind: TokenNumber, Lexeme: "1", Line: 1},
	}

	stmts, err := Parse(tokens)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(stmts) != 1 {
		t.Errorf("expected 1 statement, got %d", len(stmts))
	}
	if len(tokens) != 3 {
		t.Error("expected caller's token slice to be left alone")
	}
}

func TestParseIsDeterministic(t *testing.T) {
	for _, ex := range Examples() {
		t.Run(ex.Name, func(t *testing.T) {
			first := mustParse(t, ex.Source)
			second := mustParse(t, ex.Source)
			if !reflect.DeepEqual(first, second) {
				t.Error("expected identical statements from repeated parses")
			}
		})
	}
}

func TestIsSeriesExpression(t *testing.T) {
	tests := []struct {
		expr     Expr
		expected bool
	}{
		{&Call{Name: "sma"}, true},
		{&Call{Name: "close"}, true},
		{&Call{Name: "input"}, false},
		{&Call{Name: "abs"}, false},
		{&Call{Name: "unknown"}, false},
		{&Binary{Left: &Call{Name: "close"}, Op: "+", Right: &NumberLit{Value: 1}}, true},
		{&Binary{Left: &NumberLit{Value: 1}, Op: "+", Right: &Call{Name: "close"}}, false},
		{&Variable{Name: "price_series"}, true},
		{&Variable{Name: "raw_data"}, true},
		{&Variable{Name: "basis"}, false},
		{&NumberLit{Value: 3}, false},
	}

	for _, tt := range tests {
		t.Run(tt.expr.String(), func(t *testing.T) {
			if got := IsSeriesExpression(tt.expr); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}
