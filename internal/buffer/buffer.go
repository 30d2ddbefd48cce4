// Package buffer implements the analyser's multi-timeframe ring-buffer
// store: it aggregates a base-timeframe candle stream into higher
// timeframe OHLCV series for the indicator catalogue to read from.
//
// Grounded on backintime/analyser/analyser.py's AnalyserBuffer: reserve
// is a no-op if already reserved with sufficient capacity, and update
// either pushes a new bar or folds the incoming candle into the last one
// depending on candle.close_time versus the timeframe's tracked end_time.
package buffer

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"chronotrader/internal/candle"
	"chronotrader/internal/timeframe"
)

// Property names one of a candle's OHLCV fields, the unit a ring buffer
// tracks independently of the others.
type Property int

const (
	Open Property = iota
	High
	Low
	Close
	Volume
)

// ring is a fixed-capacity, grow-only ring buffer of decimal values kept
// in oldest-first order for reads.
type ring struct {
	values []decimal.Decimal
	cap    int
}

func newRing(capacity int) *ring {
	return &ring{values: make([]decimal.Decimal, 0, capacity), cap: capacity}
}

func (r *ring) grow(capacity int) {
	if capacity <= r.cap {
		return
	}
	r.cap = capacity
}

func (r *ring) push(v decimal.Decimal) {
	r.values = append(r.values, v)
	if len(r.values) > r.cap {
		r.values = r.values[len(r.values)-r.cap:]
	}
}

func (r *ring) setLast(v decimal.Decimal) {
	if len(r.values) == 0 {
		r.push(v)
		return
	}
	r.values[len(r.values)-1] = v
}

func (r *ring) last() (decimal.Decimal, bool) {
	if len(r.values) == 0 {
		return decimal.Zero, false
	}
	return r.values[len(r.values)-1], true
}

func (r *ring) tail(limit int) []decimal.Decimal {
	if limit <= 0 || limit > len(r.values) {
		limit = len(r.values)
	}
	out := make([]decimal.Decimal, limit)
	copy(out, r.values[len(r.values)-limit:])
	return out
}

// timeframeState tracks one registered timeframe's rolling end_time and
// its per-property ring buffers.
type timeframeState struct {
	endTime time.Time
	rings   map[Property]*ring
}

// Buffer is the per-(timeframe, property) ring-buffer store.
type Buffer struct {
	base  timeframe.Timeframe
	state map[timeframe.Timeframe]*timeframeState
}

// New creates an empty buffer for a feed of the given base timeframe.
// Every timeframe later registered via Reserve must be compatible with
// base (base's period must divide the registered timeframe's period).
func New(base timeframe.Timeframe) *Buffer {
	return &Buffer{base: base, state: make(map[timeframe.Timeframe]*timeframeState)}
}

// Reserve allocates or grows a ring buffer of the given property at tf to
// capacity >= n, registering tf with a rolling end_time anchored to
// backtestStart if this is the first reservation for tf. A second
// Reserve call with a smaller or equal n is a no-op for that property.
func (b *Buffer) Reserve(tf timeframe.Timeframe, prop Property, n int, backtestStart time.Time) error {
	if _, rem := timeframe.Ratio(tf, b.base); rem != 0 {
		return fmt.Errorf("buffer: timeframe %s is not a multiple of base timeframe %s", tf, b.base)
	}
	st, ok := b.state[tf]
	if !ok {
		st = &timeframeState{
			endTime: timeframe.OpenTime(backtestStart, tf).Add(-time.Millisecond),
			rings:   make(map[Property]*ring),
		}
		b.state[tf] = st
	}
	r, ok := st.rings[prop]
	if !ok {
		st.rings[prop] = newRing(n)
		return nil
	}
	r.grow(n)
	return nil
}

// Update absorbs one base-timeframe candle into every registered
// timeframe: pushing a new bar if the candle closes a new window for
// that timeframe, or folding it into the in-progress bar otherwise.
func (b *Buffer) Update(c candle.Candle) {
	for tf, st := range b.state {
		if c.CloseTime.After(st.endTime) {
			b.push(st, c)
			st.endTime = timeframe.EstimateCloseTime(c.OpenTime, tf)
			continue
		}
		b.fold(st, c)
	}
}

func (b *Buffer) push(st *timeframeState, c candle.Candle) {
	for prop, r := range st.rings {
		r.push(propertyValue(c, prop))
	}
}

func (b *Buffer) fold(st *timeframeState, c candle.Candle) {
	for prop, r := range st.rings {
		switch prop {
		case Open:
			// open of the in-progress bar is untouched.
		case High:
			if last, ok := r.last(); ok {
				r.setLast(decimal.Max(last, c.High))
			} else {
				r.push(c.High)
			}
		case Low:
			if last, ok := r.last(); ok {
				r.setLast(decimal.Min(last, c.Low))
			} else {
				r.push(c.Low)
			}
		case Close:
			r.setLast(c.Close)
		case Volume:
			if last, ok := r.last(); ok {
				r.setLast(last.Add(c.Volume))
			} else {
				r.push(c.Volume)
			}
		}
	}
}

func propertyValue(c candle.Candle, prop Property) decimal.Decimal {
	switch prop {
	case Open:
		return c.Open
	case High:
		return c.High
	case Low:
		return c.Low
	case Close:
		return c.Close
	case Volume:
		return c.Volume
	default:
		return decimal.Zero
	}
}

// Values returns the last <= limit values of (tf, prop) in historical
// order, oldest first. Returns nil if tf/prop was never reserved.
func (b *Buffer) Values(tf timeframe.Timeframe, prop Property, limit int) []decimal.Decimal {
	st, ok := b.state[tf]
	if !ok {
		return nil
	}
	r, ok := st.rings[prop]
	if !ok {
		return nil
	}
	return r.tail(limit)
}

// Len returns the number of bars currently buffered for (tf, prop).
func (b *Buffer) Len(tf timeframe.Timeframe, prop Property) int {
	st, ok := b.state[tf]
	if !ok {
		return 0
	}
	r, ok := st.rings[prop]
	if !ok {
		return 0
	}
	return len(r.values)
}
