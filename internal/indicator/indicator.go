// Package indicator implements the catalogue of pure functions from
// buffered OHLCV series to result sequences: SMA, EMA, MACD, RSI, ATR,
// ADX, DMI, Bollinger Bands, and Pivot Points.
//
// Grounded on backintime/analyser/indicators/*.py, which wrap the Python
// `ta` library; this package reimplements the same Wilder/EMA/SMA
// formulae directly since no Go port of `ta` is in the example pack.
// Results are float64 series aligned oldest-to-newest with the input
// buffer, using math.NaN() for undefined (warmup) entries, mirroring the
// original's pandas-NaN warmup behaviour -- these are analytical
// outputs, not the monetary values spec.md's decimal discipline governs.
package indicator

import (
	"math"

	"github.com/shopspring/decimal"

	"chronotrader/internal/buffer"
	"chronotrader/internal/timeframe"
)

// Series is a sequence of indicator values, oldest first, aligned with
// the buffer read it was computed from.
type Series []float64

// Last returns the most recent value, or NaN if the series is empty.
func (s Series) Last() float64 {
	if len(s) == 0 {
		return math.NaN()
	}
	return s[len(s)-1]
}

// Param declares one (timeframe, property, quantity) requirement an
// indicator has of the buffer, consumed by the prefetcher to size buffer
// capacities before the simulation begins.
type Param struct {
	Timeframe timeframe.Timeframe
	Property  buffer.Property
	Quantity  int
}

func toFloats(vs []decimal.Decimal) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		f, _ := v.Float64()
		out[i] = f
	}
	return out
}
