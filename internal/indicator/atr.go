package indicator

import (
	"math"

	"chronotrader/internal/buffer"
	"chronotrader/internal/timeframe"
)

// trueRange computes the true-range series from aligned high/low/close
// buffers, where close[i-1] is the previous bar's close.
func trueRange(highs, lows, closes []float64) []float64 {
	tr := make([]float64, len(highs))
	for i := range highs {
		if i == 0 {
			tr[i] = highs[i] - lows[i]
			continue
		}
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	return tr
}

// wilderSmooth applies Wilder's smoothing (an EMA variant with alpha =
// 1/p, seeded by a plain average of the first p defined values). Leading
// NaN entries are skipped and stay NaN in the output.
func wilderSmooth(values []float64, p int) Series {
	out := make(Series, len(values))
	var sum float64
	var prev float64
	count := 0
	seeded := false
	for i, v := range values {
		if !seeded {
			if math.IsNaN(v) {
				out[i] = math.NaN()
				continue
			}
			sum += v
			count++
			if count < p {
				out[i] = math.NaN()
				continue
			}
			prev = sum / float64(p)
			out[i] = prev
			seeded = true
			continue
		}
		prev = (prev*float64(p-1) + v) / float64(p)
		out[i] = prev
	}
	return out
}

// ATR computes the average true range over period p using Wilder
// smoothing of the true-range series, matching spec.md §4.3.
func ATR(buf *buffer.Buffer, tf timeframe.Timeframe, p int) Series {
	highs := toFloats(buf.Values(tf, buffer.High, 0))
	lows := toFloats(buf.Values(tf, buffer.Low, 0))
	closes := toFloats(buf.Values(tf, buffer.Close, 0))
	tr := trueRange(highs, lows, closes)
	return wilderSmooth(tr, p)
}

// ATRParam declares the buffer requirement for ATR(tf, p). Matches
// backintime/analyser/indicators/atr.py's quantity = p**2. Only the Close
// series is declared; the High and Low series that ATR also reads are not.
func ATRParam(tf timeframe.Timeframe, p int) Param {
	return Param{Timeframe: tf, Property: buffer.Close, Quantity: p * p}
}
