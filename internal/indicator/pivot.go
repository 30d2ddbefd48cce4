package indicator

import (
	"chronotrader/internal/buffer"
	"chronotrader/internal/timeframe"
)

// PivotVariant selects one of the three pivot point formula sets.
type PivotVariant int

const (
	Traditional PivotVariant = iota
	Classic
	Fibonacci
)

// PivotPoints is the result of one pivot computation: a pivot P plus up
// to five support and five resistance levels (Traditional uses all five
// pairs; Classic and Fibonacci use three).
type PivotPoints struct {
	Pivot      float64
	Support    [5]float64
	Resistance [5]float64
	LevelsUsed int
}

// Pivot computes pivot points of the given variant at timeframe tf,
// using the previous **completed** bar of that timeframe
// -- the in-progress bar is dropped, matching
// backintime/analyser/indicators/pivot.py's `highs[:-1]` behaviour
// (spec.md §4.3, §9 Open Question #2).
func Pivot(buf *buffer.Buffer, tf timeframe.Timeframe, variant PivotVariant) (PivotPoints, bool) {
	highs := buf.Values(tf, buffer.High, 0)
	lows := buf.Values(tf, buffer.Low, 0)
	closes := buf.Values(tf, buffer.Close, 0)
	if len(highs) < 2 {
		return PivotPoints{}, false
	}
	// Drop the most recent (in-progress) bar; use the one before it.
	idx := len(highs) - 2
	h, _ := highs[idx].Float64()
	l, _ := lows[idx].Float64()
	c, _ := closes[idx].Float64()
	p := (h + l + c) / 3

	switch variant {
	case Traditional:
		return traditionalPivot(h, l, p), true
	case Classic:
		return classicPivot(h, l, p), true
	case Fibonacci:
		return fibonacciPivot(h, l, p), true
	default:
		return PivotPoints{}, false
	}
}

func traditionalPivot(h, l, p float64) PivotPoints {
	hl := h - l
	var pts PivotPoints
	pts.Pivot = p
	pts.LevelsUsed = 5
	pts.Support[0] = 2*p - h
	pts.Support[1] = p - hl
	pts.Support[2] = l - 2*(h-p)
	pts.Support[3] = l - 3*(h-p)
	pts.Support[4] = l - 4*(h-p)
	pts.Resistance[0] = 2*p - l
	pts.Resistance[1] = p + hl
	pts.Resistance[2] = h + 2*(p-l)
	pts.Resistance[3] = h + 3*(p-l)
	pts.Resistance[4] = h + 4*(p-l)
	return pts
}

func classicPivot(h, l, p float64) PivotPoints {
	hl := h - l
	var pts PivotPoints
	pts.Pivot = p
	pts.LevelsUsed = 3
	for n := 1; n <= 3; n++ {
		pts.Support[n-1] = p - float64(n)*hl
		pts.Resistance[n-1] = p + float64(n)*hl
	}
	return pts
}

func fibonacciPivot(h, l, p float64) PivotPoints {
	hl := h - l
	var pts PivotPoints
	pts.Pivot = p
	pts.LevelsUsed = 3
	pts.Support[0] = p - 0.382*hl
	pts.Support[1] = p - 0.618*hl
	pts.Support[2] = p - hl
	pts.Resistance[0] = p + 0.382*hl
	pts.Resistance[1] = p + 0.618*hl
	pts.Resistance[2] = p + hl
	return pts
}

// PivotParam declares the buffer requirement for Pivot(tf, p): the
// previous-bar requirement plus the in-progress bar means quantity =
// p+1, matching backintime/analyser/indicators/pivot.py's
// `quantity = period + 1`. Only the High series is declared; the Low and
// Close series that Pivot also reads are not.
func PivotParam(tf timeframe.Timeframe, p int) Param {
	return Param{Timeframe: tf, Property: buffer.High, Quantity: p + 1}
}
