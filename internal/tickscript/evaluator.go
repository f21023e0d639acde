package tickscript

import (
	"context"
	"math"
)

// PlotOutput is one plotted series.
type PlotOutput struct {
	Title  string
	Series []float64
	Line   int
}

// Result is the outcome of one evaluation run. Series is the last plot, or
// empty when the script has no plot.
type Result struct {
	Series []float64
	Plots  []PlotOutput
	Study  StudyInfo
}

type evaluator struct {
	ctx *Context
}

// Execute runs statements in order against ctx.
func Execute(goctx context.Context, stmts []Stmt, ctx *Context) (*Result, error) {
	ev := &evaluator{ctx: ctx}
	return ev.execute(goctx, stmts)
}

func (ev *evaluator) execute(goctx context.Context, stmts []Stmt) (*Result, error) {
	result := &Result{Series: []float64{}}

	for _, stmt := range stmts {
		if err := goctx.Err(); err != nil {
			return nil, err
		}

		switch s := stmt.(type) {
		case *StudyDecl:
			ev.ctx.Study = StudyInfo{Title: s.Title, ShortTitle: s.ShortTitle, Overlay: s.Overlay}

		case *VarDecl:
			v, err := ev.evalScalar(s.Value)
			if err != nil {
				return nil, err
			}
			ev.ctx.SetVariable(s.Name, v)

		case *SeriesDecl:
			series, err := ev.evalSeries(s.Value)
			if err != nil {
				return nil, err
			}
			ev.ctx.SetSeries(s.Name, series)

		case *Plot:
			series, err := ev.evalSeries(s.Value)
			if err != nil {
				return nil, err
			}
			result.Series = series
			result.Plots = append(result.Plots, PlotOutput{Title: s.Title, Series: series, Line: s.Line})
		}
	}

	result.Study = ev.ctx.Study
	return result, nil
}

func (ev *evaluator) eval(expr Expr) (Value, error) {
	switch e := expr.(type) {
	case *NumberLit:
		return NumberValue(e.Value), nil
	case *StringLit:
		return StringValue(e.Value), nil
	case *BoolLit:
		return BoolValue(e.Value), nil
	case *Variable:
		if v, ok := ev.ctx.Lookup(e.Name); ok {
			return v, nil
		}
		return Value{}, undefined(UndefinedVariable, e.Name, e.Line)
	case *Call:
		return ev.call(e)
	case *Binary:
		return ev.binary(e)
	case *Index:
		return ev.index(e)
	}
	return Value{}, newError(InvalidOperands, 0, "unsupported expression %T", expr)
}

// evalScalar evaluates expr and rejects series results.
func (ev *evaluator) evalScalar(expr Expr) (Value, error) {
	v, err := ev.eval(expr)
	if err != nil {
		return Value{}, err
	}
	if v.IsSeries() {
		return Value{}, newError(InvalidOperands, lineOf(expr), "expected a scalar, got a series")
	}
	return v, nil
}

// evalSeries evaluates expr and broadcasts scalar numbers to a full series.
func (ev *evaluator) evalSeries(expr Expr) ([]float64, error) {
	v, err := ev.eval(expr)
	if err != nil {
		return nil, err
	}
	return ev.toSeries(v, lineOf(expr))
}

func (ev *evaluator) toSeries(v Value, line int) ([]float64, error) {
	if v.IsSeries() {
		return v.Series, nil
	}
	n, ok := v.AsNumber()
	if !ok {
		return nil, newError(InvalidOperands, line, "cannot use %s as a series", v.Type)
	}
	series := make([]float64, len(ev.ctx.Bars))
	for i := range series {
		series[i] = n
	}
	return series, nil
}

func (ev *evaluator) call(e *Call) (Value, error) {
	b, ok := LookupBuiltin(e.Name)
	if !ok {
		return Value{}, undefined(UndefinedFunction, e.Name, e.Line)
	}
	if len(e.Args) != len(b.Args) {
		return Value{}, newError(InvalidArguments, e.Line, "%s expects %d argument(s), got %d", e.Name, len(b.Args), len(e.Args))
	}

	args := make([]Value, len(e.Args))
	for i, kind := range b.Args {
		v, err := ev.argument(e, e.Args[i], kind)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}

	return b.fn(ev, e, args)
}

func (ev *evaluator) argument(call *Call, expr Expr, kind ArgKind) (Value, error) {
	switch kind {
	case ArgSeries:
		series, err := ev.evalSeries(expr)
		if err != nil {
			return Value{}, err
		}
		return SeriesValue(series), nil

	case ArgNumber, ArgLength:
		v, err := ev.evalScalar(expr)
		if err != nil {
			return Value{}, err
		}
		n, ok := v.AsNumber()
		if !ok {
			return Value{}, newError(InvalidOperands, call.Line, "%s expects a number, got %s", call.Name, v.Type)
		}
		if kind == ArgLength && (n < 1 || n != math.Trunc(n) || math.IsInf(n, 0)) {
			return Value{}, newError(InvalidArguments, call.Line, "%s length must be a positive whole number, got %g", call.Name, n)
		}
		return NumberValue(n), nil

	case ArgString:
		v, err := ev.evalScalar(expr)
		if err != nil {
			return Value{}, err
		}
		if v.Type != TypeString {
			return Value{}, newError(InvalidOperands, call.Line, "%s expects a string, got %s", call.Name, v.Type)
		}
		return v, nil

	default:
		return ev.eval(expr)
	}
}

func (ev *evaluator) binary(e *Binary) (Value, error) {
	left, err := ev.eval(e.Left)
	if err != nil {
		return Value{}, err
	}
	right, err := ev.eval(e.Right)
	if err != nil {
		return Value{}, err
	}

	if !left.IsSeries() && !right.IsSeries() {
		l, lok := left.AsNumber()
		r, rok := right.AsNumber()
		if !lok || !rok {
			return Value{}, newError(InvalidOperands, e.Line, "operator %s needs numbers, got %s and %s", e.Op, left.Type, right.Type)
		}
		return scalarOp(e.Op, l, r, e.Line)
	}

	ls, err := ev.toSeries(left, e.Line)
	if err != nil {
		return Value{}, err
	}
	rs, err := ev.toSeries(right, e.Line)
	if err != nil {
		return Value{}, err
	}
	if len(ls) != len(rs) {
		return Value{}, newError(InvalidOperands, e.Line, "series length mismatch: %d and %d", len(ls), len(rs))
	}

	out := make([]float64, len(ls))
	for i := range ls {
		v, err := seriesOp(e.Op, ls[i], rs[i], e.Line)
		if err != nil {
			return Value{}, err
		}
		out[i] = v
	}
	return SeriesValue(out), nil
}

func (ev *evaluator) index(e *Index) (Value, error) {
	var series []float64

	if v, ok := e.Target.(*Variable); ok {
		s, found := ev.ctx.Series[v.Name]
		if !found {
			return Value{}, undefined(UndefinedSeries, v.Name, v.Line)
		}
		series = s
	} else {
		target, err := ev.eval(e.Target)
		if err != nil {
			return Value{}, err
		}
		if !target.IsSeries() {
			return Value{}, newError(InvalidOperands, e.Line, "cannot index a %s", target.Type)
		}
		series = target.Series
	}

	idx, err := ev.evalScalar(e.Index)
	if err != nil {
		return Value{}, err
	}
	if idx.Type != TypeNumber || idx.Number != math.Trunc(idx.Number) || math.IsInf(idx.Number, 0) {
		return Value{}, newError(InvalidOperands, e.Line, "series index must be a whole number, got %s", idx)
	}

	i := int(idx.Number)
	if idx.Number < 0 || idx.Number >= float64(len(series)) {
		return Value{}, newError(IndexOutOfBounds, e.Line, "index %d, length %d", i, len(series))
	}
	return NumberValue(series[i]), nil
}

// elementwise1 applies f to a number or to every element of a series.
func (ev *evaluator) elementwise1(call *Call, v Value, f func(float64) float64) (Value, error) {
	if v.IsSeries() {
		out := make([]float64, len(v.Series))
		for i, x := range v.Series {
			out[i] = f(x)
		}
		return SeriesValue(out), nil
	}
	n, ok := v.AsNumber()
	if !ok {
		return Value{}, newError(InvalidOperands, call.Line, "%s expects a number, got %s", call.Name, v.Type)
	}
	return NumberValue(f(n)), nil
}

// elementwise2 applies f to two numbers, or pairwise with scalar broadcasting.
func (ev *evaluator) elementwise2(call *Call, a, b Value, f func(float64, float64) float64) (Value, error) {
	if !a.IsSeries() && !b.IsSeries() {
		x, xok := a.AsNumber()
		y, yok := b.AsNumber()
		if !xok || !yok {
			return Value{}, newError(InvalidOperands, call.Line, "%s expects numbers, got %s and %s", call.Name, a.Type, b.Type)
		}
		return NumberValue(f(x, y)), nil
	}

	xs, err := ev.toSeries(a, call.Line)
	if err != nil {
		return Value{}, err
	}
	ys, err := ev.toSeries(b, call.Line)
	if err != nil {
		return Value{}, err
	}
	if len(xs) != len(ys) {
		return Value{}, newError(InvalidOperands, call.Line, "series length mismatch: %d and %d", len(xs), len(ys))
	}

	out := make([]float64, len(xs))
	for i := range xs {
		out[i] = f(xs[i], ys[i])
	}
	return SeriesValue(out), nil
}

func scalarOp(op string, l, r float64, line int) (Value, error) {
	switch op {
	case "+":
		return NumberValue(l + r), nil
	case "-":
		return NumberValue(l - r), nil
	case "*":
		return NumberValue(l * r), nil
	case "/":
		if r == 0 {
			return Value{}, &Error{Kind: DivisionByZero, Line: line}
		}
		return NumberValue(l / r), nil
	case ">":
		return BoolValue(l > r), nil
	case "<":
		return BoolValue(l < r), nil
	case ">=":
		return BoolValue(l >= r), nil
	case "<=":
		return BoolValue(l <= r), nil
	case "==":
		return BoolValue(l == r), nil
	case "!=":
		return BoolValue(l != r), nil
	case "and":
		return BoolValue(l != 0 && r != 0), nil
	case "or":
		return BoolValue(l != 0 || r != 0), nil
	case "!":
		return BoolValue(r == 0), nil
	}
	return Value{}, &Error{Kind: UnknownOperator, Name: op, Line: line}
}

// seriesOp is scalarOp for one series element. Comparison and logical
// results are 1 or 0, and NaN when either operand is NaN.
func seriesOp(op string, l, r float64, line int) (float64, error) {
	switch op {
	case "+", "-", "*", "/":
		v, err := scalarOp(op, l, r, line)
		if err != nil {
			return 0, err
		}
		return v.Number, nil
	}

	v, err := scalarOp(op, l, r, line)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(l) || math.IsNaN(r) {
		return math.NaN(), nil
	}
	if v.Bool {
		return 1, nil
	}
	return 0, nil
}

func lineOf(expr Expr) int {
	switch e := expr.(type) {
	case *Variable:
		return e.Line
	case *Call:
		return e.Line
	case *Binary:
		return e.Line
	case *Index:
		return e.Line
	}
	return 0
}
