package indicator

import (
	"chronotrader/internal/buffer"
	"chronotrader/internal/timeframe"
)

// BBANDSResult bundles the three Bollinger Band series.
type BBANDSResult struct {
	Middle Series
	Upper  Series
	Lower  Series
}

// BBANDS computes Bollinger Bands: middle = SMA(p), upper/lower = middle
// +/- k*stddev(p), matching spec.md §4.3.
func BBANDS(buf *buffer.Buffer, tf timeframe.Timeframe, prop buffer.Property, p int, k float64) BBANDSResult {
	values := toFloats(buf.Values(tf, prop, 0))
	middle := smaOf(values, p)
	upper := make(Series, len(values))
	lower := make(Series, len(values))
	for i := range values {
		sd := stddevAt(values, i, p, middle[i])
		upper[i] = middle[i] + k*sd
		lower[i] = middle[i] - k*sd
	}
	return BBANDSResult{Middle: middle, Upper: upper, Lower: lower}
}

// BBANDSParam declares the buffer requirement for BBANDS(tf, prop, p).
// Matches backintime/analyser/indicators/bbands.py's quantity = p**2.
func BBANDSParam(tf timeframe.Timeframe, prop buffer.Property, p int) Param {
	return Param{Timeframe: tf, Property: prop, Quantity: p * p}
}
