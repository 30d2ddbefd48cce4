package indicator

import (
	"math"

	"chronotrader/internal/buffer"
	"chronotrader/internal/timeframe"
)

// RSI computes the relative strength index over period p
// using Wilder smoothing of up/down closes, matching spec.md §4.3.
func RSI(buf *buffer.Buffer, tf timeframe.Timeframe, prop buffer.Property, p int) Series {
	values := toFloats(buf.Values(tf, prop, 0))
	return rsiOf(values, p)
}

func rsiOf(values []float64, p int) Series {
	out := make(Series, len(values))
	if len(values) == 0 {
		return out
	}
	out[0] = math.NaN()
	var avgGain, avgLoss float64
	for i := 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		if i <= p {
			avgGain += gain
			avgLoss += loss
			if i < p {
				out[i] = math.NaN()
				continue
			}
			avgGain /= float64(p)
			avgLoss /= float64(p)
		} else {
			avgGain = (avgGain*float64(p-1) + gain) / float64(p)
			avgLoss = (avgLoss*float64(p-1) + loss) / float64(p)
		}
		out[i] = rsiFromAverages(avgGain, avgLoss)
	}
	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// RSIParam declares the buffer requirement for RSI(tf, p). Matches
// backintime/analyser/indicators/rsi.py's quantity = p**2.
func RSIParam(tf timeframe.Timeframe, p int) Param {
	return Param{Timeframe: tf, Property: buffer.Close, Quantity: p * p}
}
