package prefetch

import (
	"testing"
	"time"

	"chronotrader/internal/buffer"
	"chronotrader/internal/indicator"
	"chronotrader/internal/timeframe"
)

func TestComputeScalesToBaseTimeframe(t *testing.T) {
	since := time.Date(2021, 12, 1, 0, 0, 0, 0, time.UTC)
	params := []indicator.Param{
		{Timeframe: timeframe.H4, Property: buffer.Close, Quantity: 9},
	}
	plan := Compute(timeframe.M1, params, Until, since)
	// H4 is 240x M1; needed_base = ceil(9 * 240) = 2160.
	if plan.NeededBaseBars != 2160 {
		t.Errorf("needed base bars = %d, want 2160", plan.NeededBaseBars)
	}
	if !plan.PrefetchUntil.Equal(since) {
		t.Errorf("prefetch until = %v, want since %v", plan.PrefetchUntil, since)
	}
	if !plan.SimulationStart.Equal(since) {
		t.Errorf("simulation start = %v, want since %v (PREFETCH_UNTIL)", plan.SimulationStart, since)
	}
}

func TestComputeSincePushesSimulationStartForward(t *testing.T) {
	since := time.Date(2021, 12, 1, 0, 0, 0, 0, time.UTC)
	params := []indicator.Param{{Timeframe: timeframe.M1, Property: buffer.Close, Quantity: 100}}
	plan := Compute(timeframe.M1, params, Since, since)
	want := since.Add(100 * time.Minute)
	if !plan.SimulationStart.Equal(want) {
		t.Errorf("simulation start = %v, want %v", plan.SimulationStart, want)
	}
}

func TestComputeNoneKeepsSimulationStartAtSince(t *testing.T) {
	since := time.Date(2021, 12, 1, 0, 0, 0, 0, time.UTC)
	plan := Compute(timeframe.M1, nil, None, since)
	if !plan.SimulationStart.Equal(since) {
		t.Errorf("simulation start = %v, want since %v (PREFETCH_NONE)", plan.SimulationStart, since)
	}
	if plan.NeededBaseBars != 0 {
		t.Errorf("needed base bars = %d, want 0 with no declared params", plan.NeededBaseBars)
	}
}
