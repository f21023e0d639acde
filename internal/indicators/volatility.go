package indicators

import (
	"math"
)

// TrueRange is the greatest of high-low, |high-prevClose| and
// |low-prevClose|. The first bar has no previous close and holds NaN.
func TrueRange(high, low, close []float64) []float64 {
	length := minLength(high, low, close)
	result := nanSeries(length)

	for i := 1; i < length; i++ {
		h, l, c := high[i], low[i], close[i-1]
		result[i] = math.Max(h-l, math.Max(math.Abs(h-c), math.Abs(l-c)))
	}

	return result
}

// ATR calculates Wilder's Average True Range. The first value is the mean of
// the first period true ranges; later values are smoothed.
func ATR(high, low, close []float64, period int) []float64 {
	length := minLength(high, low, close)
	if period <= 0 || length <= period {
		return nanSeries(length)
	}

	trueRanges := TrueRange(high, low, close)
	result := nanSeries(length)

	sum := 0.0
	for j := 1; j <= period; j++ {
		sum += trueRanges[j]
	}
	result[period] = sum / float64(period)

	for i := period + 1; i < length; i++ {
		result[i] = (result[i-1]*float64(period-1) + trueRanges[i]) / float64(period)
	}

	return result
}

// ROC calculates the percentage Rate of Change over period bars. A zero past
// value yields NaN.
func ROC(values []float64, period int) []float64 {
	length := len(values)
	if period <= 0 {
		return nanSeries(length)
	}

	result := nanSeries(length)
	for i := period; i < length; i++ {
		past := values[i-period]
		if past != 0 {
			result[i] = (values[i] - past) / past * 100
		}
	}

	return result
}

// OBV calculates On-Balance Volume, starting from 0 at the first bar
func OBV(close, volume []float64) []float64 {
	length := minLength(close, volume)
	result := make([]float64, length)

	for i := 1; i < length; i++ {
		switch {
		case close[i] > close[i-1]:
			result[i] = result[i-1] + volume[i]
		case close[i] < close[i-1]:
			result[i] = result[i-1] - volume[i]
		default:
			result[i] = result[i-1]
		}
	}

	return result
}

func minLength(series ...[]float64) int {
	if len(series) == 0 {
		return 0
	}
	length := len(series[0])
	for _, s := range series[1:] {
		if len(s) < length {
			length = len(s)
		}
	}
	return length
}
