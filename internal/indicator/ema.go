package indicator

import (
	"math"

	"chronotrader/internal/buffer"
	"chronotrader/internal/timeframe"
)

// EMA computes the exponential moving average of period p: alpha =
// 2/(p+1), seeded with the SMA over the first p samples, then recursive.
// NaN until seeded, matching spec.md §4.3.
func EMA(buf *buffer.Buffer, tf timeframe.Timeframe, prop buffer.Property, p int) Series {
	values := toFloats(buf.Values(tf, prop, 0))
	return emaOf(values, p)
}

func emaOf(values []float64, p int) Series {
	out := make(Series, len(values))
	alpha := 2.0 / (float64(p) + 1)
	sma := smaOf(values, p)
	var prev float64
	seeded := false
	for i, v := range values {
		if !seeded {
			if math.IsNaN(sma[i]) {
				out[i] = math.NaN()
				continue
			}
			out[i] = sma[i]
			prev = sma[i]
			seeded = true
			continue
		}
		out[i] = alpha*v + (1-alpha)*prev
		prev = out[i]
	}
	return out
}

// EMAParam declares the buffer requirement for an EMA(tf, prop, p).
// Matches backintime/analyser/indicators/ema.py's quantity = p**2, which
// gives EMA enough lookback to have converged past its SMA seed.
func EMAParam(tf timeframe.Timeframe, prop buffer.Property, p int) Param {
	return Param{Timeframe: tf, Property: prop, Quantity: p * p}
}
