package indicator

import (
	"math"

	"chronotrader/internal/buffer"
	"chronotrader/internal/timeframe"
)

// MACDResult bundles the three aligned series MACD produces: the MACD
// line, its signal line, and their difference (histogram).
type MACDResult struct {
	MACD   Series
	Signal Series
	Hist   Series
}

// MACD computes EMA(fast) - EMA(slow) as the MACD line, EMA(signal) of
// that line as the signal, and macd - signal as the histogram, matching
// spec.md §4.3.
func MACD(buf *buffer.Buffer, tf timeframe.Timeframe, prop buffer.Property, fast, slow, signal int) MACDResult {
	values := toFloats(buf.Values(tf, prop, 0))
	fastEMA := emaOf(values, fast)
	slowEMA := emaOf(values, slow)
	macdLine := make(Series, len(values))
	for i := range values {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}
	// The MACD line is NaN until the slow EMA is seeded; the signal EMA is
	// computed over the defined part only.
	signalLine := make(Series, len(values))
	start := 0
	for start < len(macdLine) && math.IsNaN(macdLine[start]) {
		signalLine[start] = math.NaN()
		start++
	}
	copy(signalLine[start:], emaOf(macdLine[start:], signal))
	hist := make(Series, len(values))
	for i := range values {
		hist[i] = macdLine[i] - signalLine[i]
	}
	return MACDResult{MACD: macdLine, Signal: signalLine, Hist: hist}
}

// MACDParam declares the buffer requirement for MACD(tf, fast, slow,
// signal). Matches backintime/analyser/indicators/macd.py's quantity =
// signalperiod * slowperiod.
func MACDParam(tf timeframe.Timeframe, prop buffer.Property, fast, slow, signal int) Param {
	return Param{Timeframe: tf, Property: prop, Quantity: signal * slow}
}

// CrossoverUp reports whether the histogram's sign flipped from
// non-positive to positive between its last two points.
func (r MACDResult) CrossoverUp() bool {
	return signChangeUp(r.Hist)
}

// CrossoverDown reports whether the histogram's sign flipped from
// non-negative to negative between its last two points.
func (r MACDResult) CrossoverDown() bool {
	return signChangeDown(r.Hist)
}

func signChangeUp(s Series) bool {
	if len(s) < 2 {
		return false
	}
	prev, cur := s[len(s)-2], s[len(s)-1]
	if math.IsNaN(prev) || math.IsNaN(cur) {
		return false
	}
	return prev <= 0 && cur > 0
}

func signChangeDown(s Series) bool {
	if len(s) < 2 {
		return false
	}
	prev, cur := s[len(s)-2], s[len(s)-1]
	if math.IsNaN(prev) || math.IsNaN(cur) {
		return false
	}
	return prev >= 0 && cur < 0
}
