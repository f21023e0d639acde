package tickscript

import (
	"math"
	"time"

	"github.com/arijanluiken/tickscript/pkg/market"
)

// barsFromCloses builds flat bars whose every price equals the close.
func barsFromCloses(closes ...float64) []market.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    1000,
		}
	}
	return bars
}

// syntheticBars builds a wavy, trending market with a non-empty range on
// every bar.
func syntheticBars(n int) []market.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, n)
	for i := 0; i < n; i++ {
		x := float64(i)
		closePrice := 100 + 10*math.Sin(x/3) + 0.1*x
		openPrice := closePrice - 0.5*math.Cos(x)
		bars[i] = market.Bar{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Open:      openPrice,
			High:      math.Max(openPrice, closePrice) + 1,
			Low:       math.Min(openPrice, closePrice) - 1,
			Close:     closePrice,
			Volume:    1000 + 10*x,
		}
	}
	return bars
}

func approxEqual(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return math.Abs(a-b) < 1e-9
}

func seriesEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !approxEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}
