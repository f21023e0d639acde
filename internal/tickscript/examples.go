package tickscript

// Example is a bundled sample script.
type Example struct {
	Name   string
	Source string
}

var examples = []Example{
	{"Simple Moving Average", `study("Simple Moving Average", shorttitle="SMA", overlay=true)
length = input("Length", 20)
sma_line = sma(close(), length)
plot(sma_line)
`},
	{"Exponential Moving Average", `study("Exponential Moving Average", shorttitle="EMA", overlay=true)
length = input("Length", 21)
ema_line = ema(close(), length)
plot(ema_line)
`},
	{"Relative Strength Index", `study("Relative Strength Index", shorttitle="RSI", overlay=false)
length = input("Length", 14)
rsi_value = rsi(close(), length)
plot(rsi_value)
`},
	{"Bollinger Bands", `study("Bollinger Bands", shorttitle="BB", overlay=true)
length = input("Length", 20)
mult = input("Multiplier", 2.0)
basis = sma(close(), length)
dev = stdev(close(), length)
upper = basis + dev * mult
lower = basis - dev * mult
plot(upper, title="Upper")
plot(lower, title="Lower")
plot(basis, title="Basis")
`},
	{"MACD", `study("MACD", shorttitle="MACD", overlay=false)
fast_length = input("Fast Length", 12)
slow_length = input("Slow Length", 26)
signal_length = input("Signal Length", 9)
macd_line = macd(close(), fast_length, slow_length)
signal_line = ema(macd_line, signal_length)
histogram = macd_line - signal_line
plot(macd_line, title="MACD")
plot(signal_line, title="Signal")
plot(histogram, title="Histogram")
`},
	{"Stochastic Oscillator", `study("Stochastic Oscillator", shorttitle="Stoch", overlay=false)
k_period = input("K Period", 14)
d_period = input("D Period", 3)
highest_high = highest(high(), k_period)
lowest_low = lowest(low(), k_period)
k_percent = (close() - lowest_low) / (highest_high - lowest_low) * 100
d_percent = sma(k_percent, d_period)
plot(k_percent, title="%K")
plot(d_percent, title="%D")
`},
	{"Ichimoku Cloud", `study("Ichimoku Cloud", shorttitle="Ichimoku", overlay=true)
conversion_periods = input("Conversion Line Periods", 9)
base_periods = input("Base Line Periods", 26)
lagging_span_periods = input("Lagging Span Periods", 52)

conversion_line = (highest(high(), conversion_periods) + lowest(low(), conversion_periods)) / 2
base_line = (highest(high(), base_periods) + lowest(low(), base_periods)) / 2
lead_line_a = (conversion_line + base_line) / 2
lead_line_b = (highest(high(), lagging_span_periods) + lowest(low(), lagging_span_periods)) / 2

plot(conversion_line, title="Conversion")
plot(base_line, title="Base")
plot(lead_line_a, title="Lead A")
plot(lead_line_b, title="Lead B")
`},
	{"Volume Weighted Average Price", `study("Volume Weighted Average Price", shorttitle="VWAP", overlay=true)
length = input("Length", 20)
volume_price = hlc3() * volume()
vwap_value = sma(volume_price, length) / sma(volume(), length)
plot(vwap_value)
`},
	{"Average True Range", `study("Average True Range", shorttitle="ATR", overlay=false)
length = input("Length", 14)
tr1 = high() - low()
tr2 = abs(high() - close())
tr3 = abs(low() - close())
true_range = max(tr1, max(tr2, tr3))
atr_value = ema(true_range, length)
plot(atr_value)
`},
	{"Williams %R", `study("Williams %R", shorttitle="%R", overlay=false)
length = input("Length", 14)
highest_high = highest(high(), length)
lowest_low = lowest(low(), length)
williams_r = (highest_high - close()) / (highest_high - lowest_low) * -100
plot(williams_r)
`},
	{"Commodity Channel Index", `study("Commodity Channel Index", shorttitle="CCI", overlay=false)
length = input("Length", 20)
typical_price = hlc3()
sma_tp = sma(typical_price, length)
deviation = stdev(typical_price, length)
cci_value = (typical_price - sma_tp) / (0.015 * deviation)
plot(cci_value)
`},
	{"Pivot Points", `study("Pivot Points", shorttitle="PP", overlay=true)
pivot = (high() + low() + close()) / 3
r1 = 2 * pivot - low()
s1 = 2 * pivot - high()
r2 = pivot + (high() - low())
s2 = pivot - (high() - low())
plot(r2, title="R2")
plot(r1, title="R1")
plot(s1, title="S1")
plot(s2, title="S2")
plot(pivot, title="Pivot")
`},
	{"Donchian Channels", `study("Donchian Channels", shorttitle="DC", overlay=true)
length = input("Length", 20)
upper_channel = highest(high(), length)
lower_channel = lowest(low(), length)
middle_channel = (upper_channel + lower_channel) / 2
plot(upper_channel, title="Upper")
plot(lower_channel, title="Lower")
plot(middle_channel, title="Middle")
`},
	{"Signed Volume", `study("Signed Volume", shorttitle="SV", overlay=false)
direction = (close() > open()) - (close() < open())
plot(volume() * direction)
`},
	{"Volume Oscillator", `study("Volume Oscillator", shorttitle="VO", overlay=false)
short_period = input("Short Period", 5)
long_period = input("Long Period", 10)
short_volume_ma = sma(volume(), short_period)
long_volume_ma = sma(volume(), long_period)
volume_oscillator = (short_volume_ma - long_volume_ma) / long_volume_ma * 100
plot(volume_oscillator)
`},
}

// Examples returns the bundled example scripts.
func Examples() []Example {
	out := make([]Example, len(examples))
	copy(out, examples)
	return out
}

// LookupExample returns the source of the example called name.
func LookupExample(name string) (string, bool) {
	for _, ex := range examples {
		if ex.Name == name {
			return ex.Source, true
		}
	}
	return "", false
}
