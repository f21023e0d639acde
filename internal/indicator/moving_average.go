package indicator

import (
	"context"
	"fmt"

	"github.com/arijanluiken/tickscript/internal/indicators"
	"github.com/arijanluiken/tickscript/pkg/market"
)

// AverageKind selects the smoothing of a MovingAverage.
type AverageKind string

const (
	Simple      AverageKind = "SMA"
	Exponential AverageKind = "EMA"
)

// MovingAverage is a native moving average over one price field.
type MovingAverage struct {
	Kind   AverageKind
	Period int
	Source market.Field
}

// NewMovingAverage creates a moving average over closes.
func NewMovingAverage(kind AverageKind, period int) (*MovingAverage, error) {
	if kind != Simple && kind != Exponential {
		return nil, fmt.Errorf("unsupported moving average %q", kind)
	}
	if period <= 0 {
		return nil, fmt.Errorf("period must be positive, got %d", period)
	}
	return &MovingAverage{Kind: kind, Period: period, Source: market.FieldClose}, nil
}

// Name returns e.g. "SMA(20)".
func (ma *MovingAverage) Name() string {
	if ma.Source != "" && ma.Source != market.FieldClose {
		return fmt.Sprintf("%s(%d, %s)", ma.Kind, ma.Period, ma.Source)
	}
	return fmt.Sprintf("%s(%d)", ma.Kind, ma.Period)
}

// Calculate implements Indicator.
func (ma *MovingAverage) Calculate(ctx context.Context, bars []market.Bar) ([]float64, error) {
	source := ma.Source
	if source == "" {
		source = market.FieldClose
	}

	values, err := market.Project(bars, source)
	if err != nil {
		return nil, err
	}

	if ma.Kind == Exponential {
		return indicators.EMA(values, ma.Period), nil
	}
	return indicators.SMA(values, ma.Period), nil
}
