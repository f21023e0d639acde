package tickscript

import (
	"fmt"
	"strconv"
)

// ValueType tags a Value.
type ValueType int

const (
	TypeNumber ValueType = iota
	TypeString
	TypeBool
	TypeSeries
)

// String returns the type name.
func (t ValueType) String() string {
	switch t {
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	case TypeSeries:
		return "series"
	default:
		return fmt.Sprintf("ValueType(%d)", int(t))
	}
}

// Value is the result of evaluating an expression: a scalar number, string
// or bool, or a series aligned with the input bars.
type Value struct {
	Type   ValueType
	Number float64
	Str    string
	Bool   bool
	Series []float64
}

// NumberValue wraps a number.
func NumberValue(v float64) Value { return Value{Type: TypeNumber, Number: v} }

// StringValue wraps a string.
func StringValue(v string) Value { return Value{Type: TypeString, Str: v} }

// BoolValue wraps a bool.
func BoolValue(v bool) Value { return Value{Type: TypeBool, Bool: v} }

// SeriesValue wraps a series.
func SeriesValue(v []float64) Value { return Value{Type: TypeSeries, Series: v} }

// IsSeries reports whether v holds a series.
func (v Value) IsSeries() bool { return v.Type == TypeSeries }

// AsNumber returns v as a number. Booleans coerce to 1 and 0.
func (v Value) AsNumber() (float64, bool) {
	switch v.Type {
	case TypeNumber:
		return v.Number, true
	case TypeBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// Interface converts v to a plain Go value.
func (v Value) Interface() interface{} {
	switch v.Type {
	case TypeNumber:
		return v.Number
	case TypeString:
		return v.Str
	case TypeBool:
		return v.Bool
	default:
		return v.Series
	}
}

func (v Value) String() string {
	switch v.Type {
	case TypeNumber:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	case TypeString:
		return strconv.Quote(v.Str)
	case TypeBool:
		return strconv.FormatBool(v.Bool)
	default:
		return fmt.Sprintf("series[%d]", len(v.Series))
	}
}

// ValueOf converts a caller-supplied parameter to a scalar Value.
func ValueOf(v interface{}) (Value, error) {
	switch val := v.(type) {
	case float64:
		return NumberValue(val), nil
	case float32:
		return NumberValue(float64(val)), nil
	case int:
		return NumberValue(float64(val)), nil
	case int64:
		return NumberValue(float64(val)), nil
	case int32:
		return NumberValue(float64(val)), nil
	case string:
		return StringValue(val), nil
	case bool:
		return BoolValue(val), nil
	case Value:
		if val.IsSeries() {
			return Value{}, newError(InvalidArguments, 0, "parameters must be scalars")
		}
		return val, nil
	default:
		return Value{}, newError(InvalidArguments, 0, "unsupported parameter type %T", v)
	}
}
