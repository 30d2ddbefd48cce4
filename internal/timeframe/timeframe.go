// Package timeframe implements the period algebra the rest of the engine
// is built on: the enumerated candlestick periods and the arithmetic for
// converting between a moment in time and the open/close bounds of the
// bar that contains it.
package timeframe

import (
	"fmt"
	"time"
)

// Timeframe is a supported candlestick period, named after the exchange
// convention (M1 = one minute, H4 = four hours, ...).
type Timeframe int

const (
	M1 Timeframe = iota
	M3
	M5
	M15
	M30
	H1
	H2
	H4
	D1
	W1
)

// periodSeconds holds the duration of one bar for each timeframe, in
// seconds. W1 is treated as a fixed 7-day window (the spec's notion of
// "period" is a constant duration, not a calendar week).
var periodSeconds = map[Timeframe]int64{
	M1:  60,
	M3:  3 * 60,
	M5:  5 * 60,
	M15: 15 * 60,
	M30: 30 * 60,
	H1:  60 * 60,
	H2:  2 * 60 * 60,
	H4:  4 * 60 * 60,
	D1:  24 * 60 * 60,
	W1:  7 * 24 * 60 * 60,
}

var names = map[Timeframe]string{
	M1: "M1", M3: "M3", M5: "M5", M15: "M15", M30: "M30",
	H1: "H1", H2: "H2", H4: "H4", D1: "D1", W1: "W1",
}

func (tf Timeframe) String() string {
	if n, ok := names[tf]; ok {
		return n
	}
	return fmt.Sprintf("Timeframe(%d)", int(tf))
}

// Seconds returns the duration of one bar of this timeframe, in seconds.
func (tf Timeframe) Seconds() int64 {
	s, ok := periodSeconds[tf]
	if !ok {
		panic(fmt.Sprintf("timeframe: unknown timeframe %d", int(tf)))
	}
	return s
}

// Duration returns the duration of one bar of this timeframe.
func (tf Timeframe) Duration() time.Duration {
	return time.Duration(tf.Seconds()) * time.Second
}

// Valid reports whether tf is one of the enumerated timeframes.
func (tf Timeframe) Valid() bool {
	_, ok := periodSeconds[tf]
	return ok
}

// Ratio returns how many whole bars of b fit in one bar of a, and the
// remainder in seconds. Two timeframes are compatible iff the remainder
// is zero.
func Ratio(a, b Timeframe) (quotient int64, remainder int64) {
	as, bs := a.Seconds(), b.Seconds()
	return as / bs, as % bs
}

// Compatible reports whether a's period is an integer multiple of b's
// period (or vice versa) -- i.e. bars of b tile evenly into bars of a.
func Compatible(a, b Timeframe) bool {
	if a.Seconds() >= b.Seconds() {
		_, rem := Ratio(a, b)
		return rem == 0
	}
	_, rem := Ratio(b, a)
	return rem == 0
}

// OpenTime returns the open time of the bar of timeframe tf that contains
// now, i.e. now floored to the period boundary.
func OpenTime(now time.Time, tf Timeframe) time.Time {
	periodMs := tf.Seconds() * 1000
	nowMs := now.UnixMilli()
	openMs := nowMs - (nowMs % periodMs)
	return time.UnixMilli(openMs).UTC()
}

// CloseTime returns the close time of a bar given its open time: the
// instant one millisecond before the next bar's open.
func CloseTime(open time.Time, tf Timeframe) time.Time {
	return open.Add(tf.Duration()).Add(-time.Millisecond)
}

// EstimateOpenTime returns the open time of the n-th bar before (n < 0)
// or after (n > 0) anchor; n == 0 returns the bar containing anchor.
func EstimateOpenTime(anchor time.Time, tf Timeframe, n int) time.Time {
	base := OpenTime(anchor, tf)
	return base.Add(time.Duration(n) * tf.Duration())
}

// EstimateCloseTime returns the close time of the tf bar that contains
// openTime: openTime is first floored to the tf period boundary, then
// CloseTime is applied. For an openTime already on a boundary this equals
// CloseTime(openTime, tf).
func EstimateCloseTime(openTime time.Time, tf Timeframe) time.Time {
	return CloseTime(OpenTime(openTime, tf), tf)
}

// All returns the full enumerated set of supported timeframes.
func All() []Timeframe {
	return []Timeframe{M1, M3, M5, M15, M30, H1, H2, H4, D1, W1}
}
