package tickscript

import (
	"strconv"
	"strings"
)

// Expr is an expression node. Nodes form a tree; a parent owns its children.
type Expr interface {
	exprNode()
	String() string
}

// NumberLit is a numeric literal.
type NumberLit struct {
	Value float64
}

// StringLit is a string literal without its quotes.
type StringLit struct {
	Value string
}

// BoolLit is true or false.
type BoolLit struct {
	Value bool
}

// Variable references a scalar, series or parameter by name.
type Variable struct {
	Name string
	Line int
}

// Call invokes a builtin function.
type Call struct {
	Name string
	Args []Expr
	Line int
}

// Binary applies an operator to two operands. Unary minus and negation are
// encoded with a zero left operand and Prefix set; Prefix only affects
// String.
type Binary struct {
	Left   Expr
	Op     string
	Right  Expr
	Line   int
	Prefix bool
}

// Index reads one element of a series.
type Index struct {
	Target Expr
	Index  Expr
	Line   int
}

func (*NumberLit) exprNode() {}
func (*StringLit) exprNode() {}
func (*BoolLit) exprNode()   {}
func (*Variable) exprNode()  {}
func (*Call) exprNode()      {}
func (*Binary) exprNode()    {}
func (*Index) exprNode()     {}

func (n *NumberLit) String() string { return strconv.FormatFloat(n.Value, 'f', -1, 64) }
func (n *StringLit) String() string { return strconv.Quote(n.Value) }
func (n *BoolLit) String() string   { return strconv.FormatBool(n.Value) }
func (n *Variable) String() string  { return n.Name }

func (n *Call) String() string {
	args := make([]string, len(n.Args))
	for i, arg := range n.Args {
		args[i] = arg.String()
	}
	return n.Name + "(" + strings.Join(args, ", ") + ")"
}

func (n *Binary) String() string {
	if n.Prefix {
		return n.Op + n.Right.String()
	}
	return "(" + n.Left.String() + " " + n.Op + " " + n.Right.String() + ")"
}

func (n *Index) String() string {
	return n.Target.String() + "[" + n.Index.String() + "]"
}

// Stmt is a top-level script statement.
type Stmt interface {
	stmtNode()
	String() string
}

// StudyDecl carries descriptive metadata only.
type StudyDecl struct {
	Title      string
	ShortTitle string
	Overlay    bool
}

// VarDecl binds a scalar.
type VarDecl struct {
	Name  string
	Value Expr
	Line  int
}

// SeriesDecl binds a series.
type SeriesDecl struct {
	Name  string
	Value Expr
	Line  int
}

// Plot marks a series as script output. The last plot is the result.
type Plot struct {
	Value Expr
	Title string
	Line  int
}

func (*StudyDecl) stmtNode()  {}
func (*VarDecl) stmtNode()    {}
func (*SeriesDecl) stmtNode() {}
func (*Plot) stmtNode()       {}

func (s *StudyDecl) String() string {
	return "study(" + strconv.Quote(s.Title) + ", shorttitle=" + strconv.Quote(s.ShortTitle) +
		", overlay=" + strconv.FormatBool(s.Overlay) + ")"
}

func (s *VarDecl) String() string    { return "var " + s.Name + " = " + s.Value.String() }
func (s *SeriesDecl) String() string { return "series " + s.Name + " = " + s.Value.String() }

func (s *Plot) String() string {
	if s.Title != "" {
		return "plot(" + s.Value.String() + ", title=" + strconv.Quote(s.Title) + ")"
	}
	return "plot(" + s.Value.String() + ")"
}
