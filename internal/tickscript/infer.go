package tickscript

// Infer re-classifies declarations by the inferred shape of their values,
// tracking the shape of every name declared so far. It returns new
// statements and leaves stmts untouched. Names that are never declared
// count as scalars; whether they exist is decided at evaluation time.
func Infer(stmts []Stmt) []Stmt {
	env := make(map[string]Shape)
	out := make([]Stmt, len(stmts))

	for i, stmt := range stmts {
		switch s := stmt.(type) {
		case *VarDecl:
			out[i] = declare(env, s.Name, s.Value, s.Line)
		case *SeriesDecl:
			out[i] = declare(env, s.Name, s.Value, s.Line)
		default:
			out[i] = stmt
		}
	}

	return out
}

func declare(env map[string]Shape, name string, value Expr, line int) Stmt {
	shape := InferShape(value, env)
	env[name] = shape
	if shape == ShapeSeries {
		return &SeriesDecl{Name: name, Value: value, Line: line}
	}
	return &VarDecl{Name: name, Value: value, Line: line}
}

// InferShape returns the shape expr evaluates to given the shapes of
// declared names.
func InferShape(expr Expr, env map[string]Shape) Shape {
	switch e := expr.(type) {
	case *Variable:
		if shape, ok := env[e.Name]; ok {
			return shape
		}
		return ShapeScalar

	case *Call:
		b, ok := LookupBuiltin(e.Name)
		if !ok {
			return ShapeScalar
		}
		if b.Result != ShapePolymorphic {
			return b.Result
		}
		for _, arg := range e.Args {
			if InferShape(arg, env) == ShapeSeries {
				return ShapeSeries
			}
		}
		return ShapeScalar

	case *Binary:
		if InferShape(e.Left, env) == ShapeSeries || InferShape(e.Right, env) == ShapeSeries {
			return ShapeSeries
		}
		return ShapeScalar

	default:
		return ShapeScalar
	}
}
