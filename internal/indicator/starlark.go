package indicator

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"go.starlark.net/starlark"

	"github.com/arijanluiken/tickscript/internal/indicators"
	"github.com/arijanluiken/tickscript/pkg/market"
)

// StarlarkIndicator runs the calculate(bars) function of a Starlark script.
// Each bar is a dict with timestamp, open, high, low, close and volume; the
// function returns one number or None per bar, None meaning no value.
type StarlarkIndicator struct {
	logger    zerolog.Logger
	name      string
	calculate *starlark.Function
}

// NewStarlarkIndicator executes source once to collect its calculate
// function. A top-level `name` string overrides the file name.
func NewStarlarkIndicator(logger zerolog.Logger, filename, source string, params map[string]interface{}) (*StarlarkIndicator, error) {
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	logger = logger.With().Str("component", "starlark_indicator").Str("script", filename).Logger()

	thread := &starlark.Thread{
		Name:  fmt.Sprintf("indicator-%s-load", name),
		Print: printer(logger),
	}

	globals := starlarkBuiltins(logger)
	scriptParams := mapToStarlark(params)
	scriptParams.Freeze()
	globals["params"] = scriptParams

	result, err := starlark.ExecFile(thread, filename, source, globals)
	if err != nil {
		return nil, fmt.Errorf("failed to load starlark indicator %s: %w", filename, err)
	}

	if v, ok := result["name"]; ok {
		if s, ok := starlark.AsString(v); ok && s != "" {
			name = s
		}
	}

	fn, ok := result["calculate"].(*starlark.Function)
	if !ok {
		return nil, fmt.Errorf("starlark indicator %s does not define calculate(bars)", filename)
	}

	logger.Debug().Str("indicator", name).Msg("Starlark indicator loaded")

	return &StarlarkIndicator{logger: logger, name: name, calculate: fn}, nil
}

// Name implements Indicator.
func (s *StarlarkIndicator) Name() string {
	return s.name
}

// Calculate implements Indicator. The script runs on its own thread, which
// is cancelled when ctx is done.
func (s *StarlarkIndicator) Calculate(ctx context.Context, bars []market.Bar) ([]float64, error) {
	thread := &starlark.Thread{
		Name:  fmt.Sprintf("indicator-%s", s.name),
		Print: printer(s.logger),
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel(ctx.Err().Error())
		case <-done:
		}
	}()

	value, err := starlark.Call(thread, s.calculate, starlark.Tuple{barsToStarlark(bars)}, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("starlark indicator %s failed: %w", s.name, err)
	}

	series, err := floatsFromStarlark(value)
	if err != nil {
		return nil, fmt.Errorf("starlark indicator %s: calculate must return a list of numbers: %w", s.name, err)
	}
	if len(series) != len(bars) {
		return nil, fmt.Errorf("starlark indicator %s returned %d values for %d bars", s.name, len(series), len(bars))
	}

	return series, nil
}

func printer(logger zerolog.Logger) func(*starlark.Thread, string) {
	return func(thread *starlark.Thread, msg string) {
		logger.Info().Str("thread", thread.Name).Msg(msg)
	}
}

func starlarkBuiltins(logger zerolog.Logger) starlark.StringDict {
	windowed := func(name string, calc func([]float64, int) []float64) *starlark.Builtin {
		return starlark.NewBuiltin(name, func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var values starlark.Value
			var period int
			if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "values", &values, "period", &period); err != nil {
				return nil, err
			}
			if period <= 0 {
				return nil, fmt.Errorf("%s: period must be positive", fn.Name())
			}
			series, err := floatsFromStarlark(values)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", fn.Name(), err)
			}
			return floatListToStarlark(calc(series, period)), nil
		})
	}

	return starlark.StringDict{
		"sma":        windowed("sma", indicators.SMA),
		"ema":        windowed("ema", indicators.EMA),
		"rsi":        windowed("rsi", indicators.RSI),
		"stdev":      windowed("stdev", indicators.StdDev),
		"highest":    windowed("highest", indicators.Highest),
		"lowest":     windowed("lowest", indicators.Lowest),
		"roc":        windowed("roc", indicators.ROC),
		"bollinger":  starlark.NewBuiltin("bollinger", starlarkBollinger),
		"macd":       starlark.NewBuiltin("macd", starlarkMACD),
		"crossover":  starlark.NewBuiltin("crossover", crossing(indicators.Crossover)),
		"crossunder": starlark.NewBuiltin("crossunder", crossing(indicators.Crossunder)),
		"field":      starlark.NewBuiltin("field", starlarkField),
		"log": starlark.NewBuiltin("log", func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var msg string
			if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &msg); err != nil {
				return nil, err
			}
			logger.Info().Str("thread", thread.Name).Msg(msg)
			return starlark.None, nil
		}),
	}
}

func starlarkBollinger(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var values starlark.Value
	var period int
	var mult starlark.Value = starlark.Float(2)
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "values", &values, "period", &period, "multiplier?", &mult); err != nil {
		return nil, err
	}

	multiplier, ok := starlark.AsFloat(mult)
	if !ok {
		return nil, fmt.Errorf("%s: multiplier must be a number, got %s", fn.Name(), mult.Type())
	}

	series, err := floatsFromStarlark(values)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn.Name(), err)
	}

	upper, middle, lower := indicators.Bollinger(series, period, multiplier)

	result := starlark.NewDict(3)
	result.SetKey(starlark.String("upper"), floatListToStarlark(upper))
	result.SetKey(starlark.String("middle"), floatListToStarlark(middle))
	result.SetKey(starlark.String("lower"), floatListToStarlark(lower))
	return result, nil
}

func starlarkMACD(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var values starlark.Value
	fast, slow, signal := 12, 26, indicators.SignalPeriod
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "values", &values, "fast?", &fast, "slow?", &slow, "signal?", &signal); err != nil {
		return nil, err
	}

	series, err := floatsFromStarlark(values)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn.Name(), err)
	}

	line, signalLine, histogram := indicators.MACD(series, fast, slow, signal)

	result := starlark.NewDict(3)
	result.SetKey(starlark.String("macd"), floatListToStarlark(line))
	result.SetKey(starlark.String("signal"), floatListToStarlark(signalLine))
	result.SetKey(starlark.String("histogram"), floatListToStarlark(histogram))
	return result, nil
}

func crossing(calc func(a, b []float64) []float64) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var a, b starlark.Value
		if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "a", &a, "b", &b); err != nil {
			return nil, err
		}

		first, err := floatsFromStarlark(a)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fn.Name(), err)
		}
		second, err := floatsFromStarlark(b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fn.Name(), err)
		}
		if len(first) != len(second) {
			return nil, fmt.Errorf("%s: lists differ in length (%d and %d)", fn.Name(), len(first), len(second))
		}

		return floatListToStarlark(calc(first, second)), nil
	}
}

// starlarkField projects one key out of a list of bar dicts.
func starlarkField(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var bars *starlark.List
	var key string
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "bars", &bars, "key", &key); err != nil {
		return nil, err
	}

	out := make([]starlark.Value, 0, bars.Len())
	for i := 0; i < bars.Len(); i++ {
		bar, ok := bars.Index(i).(*starlark.Dict)
		if !ok {
			return nil, fmt.Errorf("%s: bar %d is %s, not dict", fn.Name(), i, bars.Index(i).Type())
		}
		v, found, err := bar.Get(starlark.String(key))
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("%s: bar %d has no %q", fn.Name(), i, key)
		}
		out = append(out, v)
	}
	return starlark.NewList(out), nil
}

// Helper functions for data conversion

func mapToStarlark(m map[string]interface{}) *starlark.Dict {
	dict := starlark.NewDict(len(m))
	for k, v := range m {
		var value starlark.Value
		switch val := v.(type) {
		case string:
			value = starlark.String(val)
		case int:
			value = starlark.MakeInt(val)
		case int64:
			value = starlark.MakeInt64(val)
		case float64:
			value = starlark.Float(val)
		case bool:
			value = starlark.Bool(val)
		default:
			value = starlark.String(fmt.Sprintf("%v", val))
		}
		dict.SetKey(starlark.String(k), value)
	}
	return dict
}

func barsToStarlark(bars []market.Bar) *starlark.List {
	list := make([]starlark.Value, 0, len(bars))
	for _, b := range bars {
		bar := starlark.NewDict(6)
		bar.SetKey(starlark.String("timestamp"), starlark.MakeInt64(b.Timestamp.Unix()))
		bar.SetKey(starlark.String("open"), starlark.Float(b.Open))
		bar.SetKey(starlark.String("high"), starlark.Float(b.High))
		bar.SetKey(starlark.String("low"), starlark.Float(b.Low))
		bar.SetKey(starlark.String("close"), starlark.Float(b.Close))
		bar.SetKey(starlark.String("volume"), starlark.Float(b.Volume))
		list = append(list, bar)
	}
	return starlark.NewList(list)
}

func floatListToStarlark(values []float64) *starlark.List {
	list := make([]starlark.Value, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			list[i] = starlark.None
		} else {
			list[i] = starlark.Float(v)
		}
	}
	return starlark.NewList(list)
}

// floatsFromStarlark converts a sequence of numbers, mapping None to NaN.
func floatsFromStarlark(v starlark.Value) ([]float64, error) {
	iterable, ok := v.(starlark.Iterable)
	if !ok {
		return nil, fmt.Errorf("got %s, want list", v.Type())
	}

	var out []float64
	if seq, ok := v.(starlark.Sequence); ok {
		out = make([]float64, 0, seq.Len())
	}

	iter := iterable.Iterate()
	defer iter.Done()

	var item starlark.Value
	for iter.Next(&item) {
		if item == starlark.None {
			out = append(out, math.NaN())
			continue
		}
		f, ok := starlark.AsFloat(item)
		if !ok {
			return nil, fmt.Errorf("element %d is %s, want number", len(out), item.Type())
		}
		out = append(out, f)
	}

	if out == nil {
		out = []float64{}
	}
	return out, nil
}
