package buffer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"chronotrader/internal/candle"
	"chronotrader/internal/timeframe"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func mustCandle(t *testing.T, tf timeframe.Timeframe, open time.Time, o, h, l, c, v string) candle.Candle {
	t.Helper()
	cd, err := candle.New(tf, open, d(o), d(h), d(l), d(c), d(v))
	if err != nil {
		t.Fatalf("candle.New: %v", err)
	}
	return cd
}

func TestReserveIsNoOpWhenShrinking(t *testing.T) {
	b := New(timeframe.M1)
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := b.Reserve(timeframe.M1, Close, 10, start); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := b.Reserve(timeframe.M1, Close, 5, start); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	for i := 0; i < 12; i++ {
		c := mustCandle(t, timeframe.M1, start.Add(time.Duration(i)*time.Minute), "1", "2", "0", "1", "1")
		b.Update(c)
	}
	if got := b.Len(timeframe.M1, Close); got != 10 {
		t.Errorf("len after shrink-reserve = %d, want 10 (capacity preserved)", got)
	}
}

func TestUpdateAggregatesTiledBars(t *testing.T) {
	b := New(timeframe.M1)
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, prop := range []Property{Open, High, Low, Close, Volume} {
		if err := b.Reserve(timeframe.M5, prop, 5, start); err != nil {
			t.Fatalf("reserve: %v", err)
		}
	}
	bars := []struct{ o, h, l, c, v string }{
		{"100", "110", "95", "105", "1"},
		{"105", "115", "100", "108", "2"},
		{"108", "120", "104", "112", "3"},
		{"112", "118", "108", "115", "4"},
		{"115", "125", "110", "120", "5"},
	}
	for i, bar := range bars {
		c := mustCandle(t, timeframe.M1, start.Add(time.Duration(i)*time.Minute), bar.o, bar.h, bar.l, bar.c, bar.v)
		b.Update(c)
	}
	if got := b.Len(timeframe.M5, Close); got != 1 {
		t.Fatalf("expected exactly one aggregated M5 bar, got %d", got)
	}
	opens := b.Values(timeframe.M5, Open, 1)
	highs := b.Values(timeframe.M5, High, 1)
	lows := b.Values(timeframe.M5, Low, 1)
	closes := b.Values(timeframe.M5, Close, 1)
	vols := b.Values(timeframe.M5, Volume, 1)

	if !opens[0].Equal(d("100")) {
		t.Errorf("aggregated open = %s, want 100 (first bar's open)", opens[0])
	}
	if !highs[0].Equal(d("125")) {
		t.Errorf("aggregated high = %s, want 125 (max high)", highs[0])
	}
	if !lows[0].Equal(d("95")) {
		t.Errorf("aggregated low = %s, want 95 (min low)", lows[0])
	}
	if !closes[0].Equal(d("120")) {
		t.Errorf("aggregated close = %s, want 120 (last bar's close)", closes[0])
	}
	if !vols[0].Equal(d("15")) {
		t.Errorf("aggregated volume = %s, want 15 (sum)", vols[0])
	}
}

func TestIncompatibleTimeframeRejected(t *testing.T) {
	b := New(timeframe.M5)
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := b.Reserve(timeframe.M1, Close, 5, start); err == nil {
		t.Fatal("expected error reserving a sub-base timeframe")
	}
}
