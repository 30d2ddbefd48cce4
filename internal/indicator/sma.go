package indicator

import (
	"math"

	"chronotrader/internal/buffer"
	"chronotrader/internal/timeframe"
)

// SMA computes the simple moving average of period p over values read
// from buf at (tf, prop). Requires p samples; sma[i] = mean(x[i-p+1..i]),
// NaN for i < p-1, matching spec.md §4.3.
func SMA(buf *buffer.Buffer, tf timeframe.Timeframe, prop buffer.Property, p int) Series {
	values := toFloats(buf.Values(tf, prop, 0))
	return smaOf(values, p)
}

func smaOf(values []float64, p int) Series {
	out := make(Series, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= p {
			sum -= values[i-p]
		}
		if i < p-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(p)
	}
	return out
}

// SMAParam declares the buffer requirement for an SMA(tf, prop, p).
func SMAParam(tf timeframe.Timeframe, prop buffer.Property, p int) Param {
	return Param{Timeframe: tf, Property: prop, Quantity: p}
}

// stddev computes the population standard deviation of the last p values
// ending at index i (inclusive), given the already-computed mean.
func stddevAt(values []float64, i, p int, mean float64) float64 {
	if i < p-1 {
		return math.NaN()
	}
	var sumSq float64
	for j := i - p + 1; j <= i; j++ {
		d := values[j] - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(p))
}
