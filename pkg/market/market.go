package market

import (
	"fmt"
	"time"
)

// Bar represents one OHLCV candle
type Bar struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Open      float64   `json:"open" yaml:"open"`
	High      float64   `json:"high" yaml:"high"`
	Low       float64   `json:"low" yaml:"low"`
	Close     float64   `json:"close" yaml:"close"`
	Volume    float64   `json:"volume" yaml:"volume"`
}

// Field selects a price component of a bar
type Field string

const (
	FieldOpen   Field = "open"
	FieldHigh   Field = "high"
	FieldLow    Field = "low"
	FieldClose  Field = "close"
	FieldVolume Field = "volume"
	FieldHL2    Field = "hl2"
	FieldHLC3   Field = "hlc3"
	FieldOHLC4  Field = "ohlc4"
)

// Value returns the selected component of the bar
func (b Bar) Value(field Field) (float64, error) {
	switch field {
	case FieldOpen:
		return b.Open, nil
	case FieldHigh:
		return b.High, nil
	case FieldLow:
		return b.Low, nil
	case FieldClose:
		return b.Close, nil
	case FieldVolume:
		return b.Volume, nil
	case FieldHL2:
		return (b.High + b.Low) / 2, nil
	case FieldHLC3:
		return (b.High + b.Low + b.Close) / 3, nil
	case FieldOHLC4:
		return (b.Open + b.High + b.Low + b.Close) / 4, nil
	default:
		return 0, fmt.Errorf("unknown bar field: %s", field)
	}
}

// Project extracts one field across all bars, oldest first
func Project(bars []Bar, field Field) ([]float64, error) {
	result := make([]float64, len(bars))
	for i, bar := range bars {
		v, err := bar.Value(field)
		if err != nil {
			return nil, err
		}
		result[i] = v
	}
	return result, nil
}

// Closes is a shorthand for Project(bars, FieldClose)
func Closes(bars []Bar) []float64 {
	result := make([]float64, len(bars))
	for i, bar := range bars {
		result[i] = bar.Close
	}
	return result
}
