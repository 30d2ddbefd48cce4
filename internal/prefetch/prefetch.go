// Package prefetch computes the historical window a strategy's declared
// indicators need filled before the user-visible simulation begins, and
// fills the buffer against it.
//
// Grounded on spec.md §4.10 and backintime/utils.py's prefetch_values:
// logging the computed window mirrors utils.py's "Start prefetching...",
// "required count", "since", "until" log lines.
package prefetch

import (
	"context"
	"fmt"
	"math"
	"time"

	"chronotrader/internal/candle"
	"chronotrader/internal/indicator"
	"chronotrader/internal/logging"
	"chronotrader/internal/timeframe"
)

// Option selects one of the three prefetch modes of spec.md §4.10.
type Option int

const (
	// Until prefetches the needed window immediately before `since`;
	// simulation starts at `since`.
	Until Option = iota
	// Since prefetches starting at `since`; simulation starts at
	// `since + needed*base_period`.
	Since
	// None reserves buffers but preloads nothing.
	None
)

// Plan is the computed prefetch window for one run.
type Plan struct {
	Option          Option
	NeededBaseBars  int
	PrefetchSince   time.Time
	PrefetchUntil   time.Time
	SimulationStart time.Time
}

// CandleSource abstracts the historical candle iterator a Plan is
// realized against -- spec.md §6.1's data provider factory, narrowed to
// the one capability the prefetcher needs.
type CandleSource interface {
	Create(ctx context.Context, since, until time.Time) (CandleIterator, error)
}

// CandleIterator yields candles in non-decreasing open_time order.
type CandleIterator interface {
	Next() (hasNext bool, c candle.Candle, err error)
}

// Plan.NeededBaseBars is computed from the maximum, over every declared
// indicator parameter, of ceil(quantity * tf_period/base_period).
func Compute(base timeframe.Timeframe, params []indicator.Param, opt Option, since time.Time) Plan {
	needed := 0
	for _, p := range params {
		ratio := float64(p.Timeframe.Seconds()) / float64(base.Seconds())
		n := int(math.Ceil(float64(p.Quantity) * ratio))
		if n > needed {
			needed = n
		}
	}

	plan := Plan{Option: opt, NeededBaseBars: needed}
	switch opt {
	case Until:
		plan.PrefetchUntil = since
		plan.PrefetchSince = since.Add(-time.Duration(needed) * base.Duration())
		plan.SimulationStart = since
	case Since:
		plan.PrefetchSince = since
		plan.PrefetchUntil = since.Add(time.Duration(needed) * base.Duration())
		plan.SimulationStart = plan.PrefetchUntil
	case None:
		plan.SimulationStart = since
	}
	return plan
}

// Log emits the prefetch window at Info level, mirroring
// backintime/utils.py's prefetch_values log lines.
func (p Plan) Log(log *logging.Logger) {
	log.Info("start prefetching",
		"required_count", p.NeededBaseBars,
		"since", p.PrefetchSince.Format(time.RFC3339),
		"until", p.PrefetchUntil.Format(time.RFC3339),
	)
}

// Done logs completion of the prefetch stage.
func (p Plan) Done(log *logging.Logger) {
	log.Info(fmt.Sprintf("prefetching is done, simulation starts at %s", p.SimulationStart.Format(time.RFC3339)))
}

// Buffer is the subset of *buffer.Buffer the prefetcher needs, narrowed
// to avoid an import cycle with the buffer package's own tests.
type Buffer interface {
	Update(c candle.Candle)
}

// Fill does not reserve buffer capacity (the caller is expected to have
// already called Reserve against the real buffer for every declared
// indicator param); unless opt is None, it drains source's iterator over
// the plan's prefetch window into buf.
func Fill(ctx context.Context, buf Buffer, source CandleSource, plan Plan, log *logging.Logger) error {
	plan.Log(log)
	if plan.Option == None {
		plan.Done(log)
		return nil
	}
	it, err := source.Create(ctx, plan.PrefetchSince, plan.PrefetchUntil)
	if err != nil {
		return fmt.Errorf("prefetch: creating candle iterator: %w", err)
	}
	for {
		hasNext, c, err := it.Next()
		if err != nil {
			return fmt.Errorf("prefetch: reading candle: %w", err)
		}
		if !hasNext {
			break
		}
		buf.Update(c)
	}
	plan.Done(log)
	return nil
}
