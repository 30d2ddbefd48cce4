package indicator

import (
	"math"

	"chronotrader/internal/buffer"
	"chronotrader/internal/timeframe"
)

// DMIResult bundles +DI, -DI and ADX, matching spec.md §4.3's DMI(tf, p).
type DMIResult struct {
	PlusDI  Series
	MinusDI Series
	ADX     Series
}

// DMI computes +DI, -DI and ADX per Wilder over period p.
func DMI(buf *buffer.Buffer, tf timeframe.Timeframe, p int) DMIResult {
	highs := toFloats(buf.Values(tf, buffer.High, 0))
	lows := toFloats(buf.Values(tf, buffer.Low, 0))
	closes := toFloats(buf.Values(tf, buffer.Close, 0))
	n := len(highs)

	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		upMove := highs[i] - highs[i-1]
		downMove := lows[i-1] - lows[i]
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
	}
	tr := trueRange(highs, lows, closes)

	smoothTR := wilderSmooth(tr, p)
	smoothPlusDM := wilderSmooth(plusDM, p)
	smoothMinusDM := wilderSmooth(minusDM, p)

	plusDI := make(Series, n)
	minusDI := make(Series, n)
	dx := make([]float64, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(smoothTR[i]) || smoothTR[i] == 0 {
			plusDI[i] = math.NaN()
			minusDI[i] = math.NaN()
			dx[i] = math.NaN()
			continue
		}
		plusDI[i] = 100 * smoothPlusDM[i] / smoothTR[i]
		minusDI[i] = 100 * smoothMinusDM[i] / smoothTR[i]
		sum := plusDI[i] + minusDI[i]
		if sum == 0 {
			dx[i] = 0
			continue
		}
		dx[i] = 100 * math.Abs(plusDI[i]-minusDI[i]) / sum
	}
	adx := wilderSmooth(dx, p)
	return DMIResult{PlusDI: plusDI, MinusDI: minusDI, ADX: adx}
}

// DMIParam declares the buffer requirement for DMI(tf, p). Matches
// backintime/analyser/indicators/dmi.py's quantity = p**2. Only the Close
// series is declared; the High and Low series that DMI also reads are not.
func DMIParam(tf timeframe.Timeframe, p int) Param {
	return Param{Timeframe: tf, Property: buffer.Close, Quantity: p * p}
}

// ADX computes the ADX leg of DMI alone, exposed separately per spec.md
// §4.3's ADX(tf, p).
func ADX(buf *buffer.Buffer, tf timeframe.Timeframe, p int) Series {
	return DMI(buf, tf, p).ADX
}

// ADXParam declares the buffer requirement for ADX(tf, p). Only the Close
// series is declared; the High and Low series that ADX also reads are not.
func ADXParam(tf timeframe.Timeframe, p int) Param {
	return Param{Timeframe: tf, Property: buffer.Close, Quantity: p * p}
}

// AdxIncreases reports whether the last `window` ADX points are strictly
// increasing, matching backintime/analyser/indicators/dmi.py's
// adx_increases predicate.
func (r DMIResult) AdxIncreases(window int) bool {
	return strictlyMonotonic(r.ADX, window, true)
}

// AdxDecreases reports whether the last `window` ADX points are strictly
// decreasing, matching adx_decreases.
func (r DMIResult) AdxDecreases(window int) bool {
	return strictlyMonotonic(r.ADX, window, false)
}

func strictlyMonotonic(s Series, window int, increasing bool) bool {
	if window < 2 || len(s) < window {
		return false
	}
	tail := s[len(s)-window:]
	for i := 1; i < len(tail); i++ {
		if math.IsNaN(tail[i]) || math.IsNaN(tail[i-1]) {
			return false
		}
		if increasing && tail[i] <= tail[i-1] {
			return false
		}
		if !increasing && tail[i] >= tail[i-1] {
			return false
		}
	}
	return true
}
