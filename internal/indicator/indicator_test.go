package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"chronotrader/internal/buffer"
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

func seedBuffer(t *testing.T, closes []string) *buffer.Buffer {
	t.Helper()
	b := buffer.New(timeframe.M1)
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, prop := range []buffer.Property{buffer.Open, buffer.High, buffer.Low, buffer.Close, buffer.Volume} {
		if err := b.Reserve(timeframe.M1, prop, len(closes), start); err != nil {
			t.Fatalf("reserve: %v", err)
		}
	}
	for i, c := range closes {
		cd, err := candle.New(timeframe.M1, start.Add(time.Duration(i)*time.Minute), d(c), d(c), d(c), d(c), d("1"))
		if err != nil {
			t.Fatalf("candle.New: %v", err)
		}
		b.Update(cd)
	}
	return b
}

func TestSMAWarmupThenMean(t *testing.T) {
	b := seedBuffer(t, []string{"1", "2", "3", "4", "5"})
	s := SMA(b, timeframe.M1, buffer.Close, 3)
	if !math.IsNaN(s[0]) || !math.IsNaN(s[1]) {
		t.Fatalf("expected NaN warmup for first p-1 entries, got %v %v", s[0], s[1])
	}
	if math.Abs(s[2]-2) > 1e-9 {
		t.Errorf("sma[2] = %v, want 2", s[2])
	}
	if math.Abs(s[4]-4) > 1e-9 {
		t.Errorf("sma[4] = %v, want 4", s[4])
	}
}

func TestEMASeedsFromSMA(t *testing.T) {
	b := seedBuffer(t, []string{"1", "2", "3", "4", "5", "6"})
	s := EMA(b, timeframe.M1, buffer.Close, 3)
	if math.Abs(s[2]-2) > 1e-9 {
		t.Errorf("ema seed = %v, want sma(3) = 2", s[2])
	}
	if math.IsNaN(s[5]) {
		t.Error("ema should be defined past warmup")
	}
}

func TestRSIConstantSeriesIsNeutral(t *testing.T) {
	closes := make([]string, 20)
	for i := range closes {
		closes[i] = "100"
	}
	b := seedBuffer(t, closes)
	s := RSI(b, timeframe.M1, buffer.Close, 14)
	last := s.Last()
	if math.Abs(last-50) > 1e-6 {
		t.Errorf("rsi of flat series = %v, want 50", last)
	}
}

func TestMACDCrossoverUp(t *testing.T) {
	closes := []string{"10", "9", "8", "7", "6", "5", "6", "7", "8", "9", "10", "11", "12", "13", "14", "15", "16", "17", "18", "19", "20", "21", "22", "23", "24", "25", "26", "27", "28", "29", "30", "31", "32", "33", "34", "35"}
	b := seedBuffer(t, closes)
	r := MACD(b, timeframe.M1, buffer.Close, 3, 6, 3)
	if math.IsNaN(r.Hist.Last()) {
		t.Fatal("macd histogram should be defined past warmup")
	}
	// The histogram turns positive as soon as it is defined and stays
	// positive through the steady rise, so the last two points show no flip.
	if r.CrossoverUp() {
		t.Error("expected no crossover between the last two positive histogram points")
	}
	flip := MACDResult{Hist: Series{-0.5, 0.5}}
	if !flip.CrossoverUp() {
		t.Error("expected crossover up for histogram going from -0.5 to 0.5")
	}
}

func TestPivotDropsInProgressBar(t *testing.T) {
	b := buffer.New(timeframe.M1)
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, prop := range []buffer.Property{buffer.High, buffer.Low, buffer.Close} {
		if err := b.Reserve(timeframe.M1, prop, 3, start); err != nil {
			t.Fatalf("reserve: %v", err)
		}
	}
	bars := []struct{ h, l, c string }{
		{"110", "90", "100"},
		{"120", "95", "115"},
		{"200", "190", "195"}, // in-progress bar, must be excluded
	}
	for i, bar := range bars {
		cd, err := candle.New(timeframe.M1, start.Add(time.Duration(i)*time.Minute), d(bar.c), d(bar.h), d(bar.l), d(bar.c), d("1"))
		if err != nil {
			t.Fatalf("candle.New: %v", err)
		}
		b.Update(cd)
	}
	pts, ok := Pivot(b, timeframe.M1, Traditional)
	if !ok {
		t.Fatal("expected pivot result")
	}
	wantP := (120.0 + 95.0 + 115.0) / 3
	if math.Abs(pts.Pivot-wantP) > 1e-9 {
		t.Errorf("pivot = %v, want %v (computed from the previous completed bar, not the in-progress one)", pts.Pivot, wantP)
	}
}

func TestAdxIncreasesRequiresStrictMonotonicity(t *testing.T) {
	r := DMIResult{ADX: Series{1, 2, 2, 4}}
	if r.AdxIncreases(4) {
		t.Error("expected false: series is not strictly increasing (has a tie)")
	}
	r2 := DMIResult{ADX: Series{1, 2, 3, 4}}
	if !r2.AdxIncreases(4) {
		t.Error("expected true: strictly increasing series")
	}
}
