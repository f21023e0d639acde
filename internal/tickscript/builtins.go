package tickscript

import (
	"math"
	"sort"

	"github.com/arijanluiken/tickscript/internal/indicators"
	"github.com/arijanluiken/tickscript/pkg/market"
)

// Shape is the static kind of an expression: scalar or series.
type Shape int

const (
	ShapeScalar Shape = iota
	ShapeSeries
	// ShapePolymorphic builtins return a series when any argument is one.
	ShapePolymorphic
)

func (s Shape) String() string {
	switch s {
	case ShapeSeries:
		return "series"
	case ShapePolymorphic:
		return "polymorphic"
	default:
		return "scalar"
	}
}

// ArgKind describes how a builtin argument is evaluated.
type ArgKind int

const (
	ArgSeries ArgKind = iota // broadcast to a series
	ArgNumber                // scalar number
	ArgLength                // positive whole number
	ArgString                // scalar string
	ArgAny                   // scalar or series, unchanged
)

type builtinFunc func(ev *evaluator, call *Call, args []Value) (Value, error)

// Builtin is one entry of the function table shared by the parser's
// classifier, type inference and the evaluator.
type Builtin struct {
	Name   string
	Args   []ArgKind
	Result Shape
	fn     builtinFunc
}

var builtins = make(map[string]*Builtin)

func init() {
	registerPriceSources()
	registerMovingAverages()
	registerOscillators()
	registerVolatility()
	registerScalarMath()
	registerInputs()
}

func register(name string, result Shape, fn builtinFunc, args ...ArgKind) {
	builtins[name] = &Builtin{Name: name, Args: args, Result: result, fn: fn}
}

// LookupBuiltin returns the builtin registered under name.
func LookupBuiltin(name string) (*Builtin, bool) {
	b, ok := builtins[name]
	return b, ok
}

// BuiltinNames lists every builtin function name in sorted order.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func registerPriceSources() {
	fields := []market.Field{
		market.FieldClose, market.FieldOpen, market.FieldHigh, market.FieldLow, market.FieldVolume,
		market.FieldHL2, market.FieldHLC3, market.FieldOHLC4,
	}
	for _, field := range fields {
		register(string(field), ShapeSeries, func(ev *evaluator, call *Call, args []Value) (Value, error) {
			values, err := ev.ctx.Field(field)
			if err != nil {
				return Value{}, newError(UndefinedFunction, call.Line, "%v", err)
			}
			return SeriesValue(values), nil
		})
	}
}

func registerMovingAverages() {
	windowed := map[string]func([]float64, int) []float64{
		"sma":     indicators.SMA,
		"ema":     indicators.EMA,
		"stdev":   indicators.StdDev,
		"highest": indicators.Highest,
		"lowest":  indicators.Lowest,
	}
	for name, calc := range windowed {
		register(name, ShapeSeries, func(ev *evaluator, call *Call, args []Value) (Value, error) {
			return SeriesValue(calc(args[0].Series, int(args[1].Number))), nil
		}, ArgSeries, ArgLength)
	}

	bands := func(pick func(upper, middle, lower []float64) []float64) builtinFunc {
		return func(ev *evaluator, call *Call, args []Value) (Value, error) {
			upper, middle, lower := indicators.Bollinger(args[0].Series, int(args[1].Number), args[2].Number)
			return SeriesValue(pick(upper, middle, lower)), nil
		}
	}
	register("bb_upper", ShapeSeries, bands(func(u, m, l []float64) []float64 { return u }), ArgSeries, ArgLength, ArgNumber)
	register("bb_middle", ShapeSeries, bands(func(u, m, l []float64) []float64 { return m }), ArgSeries, ArgLength, ArgNumber)
	register("bb_lower", ShapeSeries, bands(func(u, m, l []float64) []float64 { return l }), ArgSeries, ArgLength, ArgNumber)
}

func registerOscillators() {
	register("rsi", ShapeSeries, func(ev *evaluator, call *Call, args []Value) (Value, error) {
		return SeriesValue(indicators.RSI(args[0].Series, int(args[1].Number))), nil
	}, ArgSeries, ArgLength)

	macd := func(pick func(line, signal, histogram []float64) []float64) builtinFunc {
		return func(ev *evaluator, call *Call, args []Value) (Value, error) {
			line, signal, histogram := indicators.MACD(args[0].Series, int(args[1].Number), int(args[2].Number), indicators.SignalPeriod)
			return SeriesValue(pick(line, signal, histogram)), nil
		}
	}
	line := macd(func(l, s, h []float64) []float64 { return l })
	register("macd", ShapeSeries, line, ArgSeries, ArgLength, ArgLength)
	register("macd_line", ShapeSeries, line, ArgSeries, ArgLength, ArgLength)
	register("macd_signal", ShapeSeries, macd(func(l, s, h []float64) []float64 { return s }), ArgSeries, ArgLength, ArgLength)
	register("macd_histogram", ShapeSeries, macd(func(l, s, h []float64) []float64 { return h }), ArgSeries, ArgLength, ArgLength)

	register("crossover", ShapeSeries, func(ev *evaluator, call *Call, args []Value) (Value, error) {
		return SeriesValue(indicators.Crossover(args[0].Series, args[1].Series)), nil
	}, ArgSeries, ArgSeries)
	register("crossunder", ShapeSeries, func(ev *evaluator, call *Call, args []Value) (Value, error) {
		return SeriesValue(indicators.Crossunder(args[0].Series, args[1].Series)), nil
	}, ArgSeries, ArgSeries)
}

func registerVolatility() {
	fields := func(ev *evaluator, call *Call, names ...market.Field) ([][]float64, error) {
		out := make([][]float64, len(names))
		for i, name := range names {
			values, err := ev.ctx.Field(name)
			if err != nil {
				return nil, newError(UndefinedFunction, call.Line, "%v", err)
			}
			out[i] = values
		}
		return out, nil
	}

	register("tr", ShapeSeries, func(ev *evaluator, call *Call, args []Value) (Value, error) {
		hlc, err := fields(ev, call, market.FieldHigh, market.FieldLow, market.FieldClose)
		if err != nil {
			return Value{}, err
		}
		return SeriesValue(indicators.TrueRange(hlc[0], hlc[1], hlc[2])), nil
	})
	register("atr", ShapeSeries, func(ev *evaluator, call *Call, args []Value) (Value, error) {
		hlc, err := fields(ev, call, market.FieldHigh, market.FieldLow, market.FieldClose)
		if err != nil {
			return Value{}, err
		}
		return SeriesValue(indicators.ATR(hlc[0], hlc[1], hlc[2], int(args[0].Number))), nil
	}, ArgLength)
	register("roc", ShapeSeries, func(ev *evaluator, call *Call, args []Value) (Value, error) {
		return SeriesValue(indicators.ROC(args[0].Series, int(args[1].Number))), nil
	}, ArgSeries, ArgLength)
	register("obv", ShapeSeries, func(ev *evaluator, call *Call, args []Value) (Value, error) {
		cv, err := fields(ev, call, market.FieldClose, market.FieldVolume)
		if err != nil {
			return Value{}, err
		}
		return SeriesValue(indicators.OBV(cv[0], cv[1])), nil
	})
}

func registerScalarMath() {
	register("abs", ShapePolymorphic, func(ev *evaluator, call *Call, args []Value) (Value, error) {
		return ev.elementwise1(call, args[0], math.Abs)
	}, ArgAny)
	register("max", ShapePolymorphic, func(ev *evaluator, call *Call, args []Value) (Value, error) {
		return ev.elementwise2(call, args[0], args[1], math.Max)
	}, ArgAny, ArgAny)
	register("min", ShapePolymorphic, func(ev *evaluator, call *Call, args []Value) (Value, error) {
		return ev.elementwise2(call, args[0], args[1], math.Min)
	}, ArgAny, ArgAny)
}

func registerInputs() {
	// input("Length", 20) reads the caller parameter "Length", else the default
	register("input", ShapeScalar, func(ev *evaluator, call *Call, args []Value) (Value, error) {
		if v, ok := ev.ctx.Params[args[0].Str]; ok {
			return v, nil
		}
		if args[1].IsSeries() {
			return Value{}, newError(InvalidOperands, call.Line, "input default must be a scalar")
		}
		return args[1], nil
	}, ArgString, ArgAny)
}
