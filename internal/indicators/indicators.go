// Package indicators implements technical indicators over price series.
//
// Every function returns a series as long as its input. Positions without
// enough history hold NaN.
package indicators

import (
	"math"
)

// SignalPeriod is the EMA period of the MACD signal line
const SignalPeriod = 9

func nanSeries(length int) []float64 {
	result := make([]float64, length)
	for i := range result {
		result[i] = math.NaN()
	}
	return result
}

// firstValid returns the index of the first non-NaN value, or len(values)
func firstValid(values []float64) int {
	for i, v := range values {
		if !math.IsNaN(v) {
			return i
		}
	}
	return len(values)
}

// SMA calculates Simple Moving Average
func SMA(values []float64, period int) []float64 {
	length := len(values)
	if period <= 0 || length < period {
		return nanSeries(length)
	}

	result := make([]float64, length)

	for i := 0; i < length; i++ {
		if i < period-1 {
			result[i] = math.NaN()
			continue
		}

		sum := 0.0
		for j := i - period + 1; j <= i; j++ {
			sum += values[j]
		}
		result[i] = sum / float64(period)
	}

	return result
}

// EMA calculates Exponential Moving Average. The first non-NaN input seeds
// the average.
func EMA(values []float64, period int) []float64 {
	length := len(values)
	if period <= 0 {
		return nanSeries(length)
	}

	result := nanSeries(length)
	start := firstValid(values)
	if start == length {
		return result
	}

	multiplier := 2.0 / (float64(period) + 1.0)
	result[start] = values[start]

	for i := start + 1; i < length; i++ {
		result[i] = (values[i] * multiplier) + (result[i-1] * (1.0 - multiplier))
	}

	return result
}

// RSI calculates Wilder's Relative Strength Index
func RSI(values []float64, period int) []float64 {
	length := len(values)
	result := nanSeries(length)

	start := firstValid(values)
	if period <= 0 || length-start < period+1 {
		return result
	}

	gains := make([]float64, length)
	losses := make([]float64, length)

	// Calculate price changes
	for i := start + 1; i < length; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	// Seed with simple averages of the first period changes
	avgGain := 0.0
	avgLoss := 0.0
	for i := start + 1; i <= start+period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := start + period; i < length; i++ {
		if i > start+period {
			avgGain = ((avgGain * float64(period-1)) + gains[i]) / float64(period)
			avgLoss = ((avgLoss * float64(period-1)) + losses[i]) / float64(period)
		}

		if avgLoss == 0 {
			result[i] = 100
		} else {
			rs := avgGain / avgLoss
			result[i] = 100 - (100 / (1 + rs))
		}
	}

	return result
}

// StdDev calculates the rolling population standard deviation
func StdDev(values []float64, period int) []float64 {
	length := len(values)
	if period <= 0 || length < period {
		return nanSeries(length)
	}

	mean := SMA(values, period)
	result := make([]float64, length)

	for i := 0; i < length; i++ {
		if i < period-1 {
			result[i] = math.NaN()
			continue
		}

		sum := 0.0
		for j := i - period + 1; j <= i; j++ {
			sum += math.Pow(values[j]-mean[i], 2)
		}
		result[i] = math.Sqrt(sum / float64(period))
	}

	return result
}

// Bollinger calculates Bollinger Bands
func Bollinger(values []float64, period int, multiplier float64) (upper, middle, lower []float64) {
	length := len(values)
	middle = SMA(values, period)
	stdDev := StdDev(values, period)
	upper = make([]float64, length)
	lower = make([]float64, length)

	for i := 0; i < length; i++ {
		if math.IsNaN(middle[i]) {
			upper[i] = math.NaN()
			lower[i] = math.NaN()
			continue
		}

		upper[i] = middle[i] + (multiplier * stdDev[i])
		lower[i] = middle[i] - (multiplier * stdDev[i])
	}

	return upper, middle, lower
}

// MACD calculates Moving Average Convergence Divergence
func MACD(values []float64, fastPeriod, slowPeriod, signalPeriod int) (line, signal, histogram []float64) {
	length := len(values)

	fastEMA := EMA(values, fastPeriod)
	slowEMA := EMA(values, slowPeriod)

	line = make([]float64, length)
	for i := 0; i < length; i++ {
		line[i] = fastEMA[i] - slowEMA[i]
	}

	signal = EMA(line, signalPeriod)

	histogram = make([]float64, length)
	for i := 0; i < length; i++ {
		histogram[i] = line[i] - signal[i]
	}

	return line, signal, histogram
}

// Highest returns the rolling maximum over period bars
func Highest(values []float64, period int) []float64 {
	return rolling(values, period, math.Max)
}

// Lowest returns the rolling minimum over period bars
func Lowest(values []float64, period int) []float64 {
	return rolling(values, period, math.Min)
}

func rolling(values []float64, period int, pick func(a, b float64) float64) []float64 {
	length := len(values)
	if period <= 0 || length < period {
		return nanSeries(length)
	}

	result := make([]float64, length)
	for i := 0; i < length; i++ {
		if i < period-1 {
			result[i] = math.NaN()
			continue
		}

		// math.Max and math.Min propagate NaN
		acc := values[i-period+1]
		for j := i - period + 2; j <= i; j++ {
			acc = pick(acc, values[j])
		}
		result[i] = acc
	}

	return result
}

// Crossover marks bars where a crosses above b with 1, others with 0
func Crossover(a, b []float64) []float64 {
	return crossing(a, b, func(prevA, prevB, currA, currB float64) bool {
		return prevA <= prevB && currA > currB
	})
}

// Crossunder marks bars where a crosses below b with 1, others with 0
func Crossunder(a, b []float64) []float64 {
	return crossing(a, b, func(prevA, prevB, currA, currB float64) bool {
		return prevA >= prevB && currA < currB
	})
}

func crossing(a, b []float64, crossed func(prevA, prevB, currA, currB float64) bool) []float64 {
	length := len(a)
	if len(b) < length {
		length = len(b)
	}

	result := make([]float64, len(a))
	for i := 1; i < length; i++ {
		if crossed(a[i-1], b[i-1], a[i], b[i]) {
			result[i] = 1
		}
	}

	return result
}
