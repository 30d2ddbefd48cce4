package backtest

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"chronotrader/internal/balance"
	"chronotrader/internal/broker"
	"chronotrader/internal/buffer"
	"chronotrader/internal/candle"
	"chronotrader/internal/fees"
	"chronotrader/internal/logging"
	"chronotrader/internal/order"
	"chronotrader/internal/prefetch"
	"chronotrader/internal/result"
	"chronotrader/internal/timeframe"
)

// Driver owns the balance, order repository, buffer and broker for one
// backtest run and executes the single-threaded candle loop of
// spec.md §5: broker matching precedes buffer update precedes the
// strategy callback, and the callback's effects are observable only on
// the next candle.
type Driver struct {
	base    timeframe.Timeframe
	bal     *balance.Balance
	repo    *order.Repository
	buf     *buffer.Buffer
	broker  *broker.Broker
	factory StrategyFactory
	log     *logging.Logger
}

// New validates every strategy-declared timeframe against base (spec.md
// §7's IncompatibleTimeframe check) and constructs a Driver.
func New(base timeframe.Timeframe, startFiat, startCrypto decimal.Decimal, feeEstimator fees.Estimator, precision candle.Precision, factory StrategyFactory) (*Driver, error) {
	for _, tf := range factory.CandleTimeframes() {
		if _, remainder := timeframe.Ratio(tf, base); remainder != 0 {
			return nil, &IncompatibleTimeframe{Declared: tf, Base: base}
		}
	}
	for _, p := range factory.Indicators() {
		if _, remainder := timeframe.Ratio(p.Timeframe, base); remainder != 0 {
			return nil, &IncompatibleTimeframe{Declared: p.Timeframe, Base: base}
		}
	}

	bal := balance.New(startFiat, startCrypto)
	repo := order.NewRepository()
	buf := buffer.New(base)
	brk := broker.New(bal, repo, feeEstimator, precision)

	return &Driver{
		base:    base,
		bal:     bal,
		repo:    repo,
		buf:     buf,
		broker:  brk,
		factory: factory,
		log:     logging.WithComponent("backtest"),
	}, nil
}

// Run prefetches the strategy's declared indicator history, then drives
// the candle loop from the computed simulation start through until,
// invoking the strategy's Tick() once per closed base candle. A
// BrokerException or DataProviderError terminates the loop early and
// returns the partial result accumulated so far, per spec.md §7.
func (d *Driver) Run(ctx context.Context, source CandleSource, since, until time.Time, opt prefetch.Option) (result.BacktestingResult, error) {
	plan := prefetch.Compute(d.base, d.factory.Indicators(), opt, since)
	// The buffer's bar boundaries start at the first candle it will see:
	// the prefetch window's start under Until, since otherwise.
	anchor := since
	if opt == prefetch.Until {
		anchor = plan.PrefetchSince
	}
	for _, p := range d.factory.Indicators() {
		if err := d.buf.Reserve(p.Timeframe, p.Property, p.Quantity, anchor); err != nil {
			return result.BacktestingResult{}, err
		}
	}

	if err := prefetch.Fill(ctx, d.buf, source, plan, d.log); err != nil {
		return result.BacktestingResult{}, &DataProviderError{Err: err}
	}

	started := time.Now()
	instance := d.factory.New(d.broker, d.buf)

	it, err := source.Create(ctx, plan.SimulationStart, until)
	if err != nil {
		return d.partialResult(started, &DataProviderError{Err: err}), nil
	}

	for {
		hasNext, c, err := it.Next()
		if err != nil {
			return d.partialResult(started, &DataProviderError{Err: err}), nil
		}
		if !hasNext {
			break
		}
		if err := d.broker.Update(c); err != nil {
			return d.partialResult(started, err), nil
		}
		d.buf.Update(c)
		if c.IsClosed {
			instance.Tick()
		}
	}

	return d.partialResult(started, nil), nil
}

func (d *Driver) partialResult(started time.Time, runErr error) result.BacktestingResult {
	if runErr != nil {
		d.log.Error("backtest terminated early", "error", runErr.Error())
	}
	return result.New(d.factory.Title(), started, time.Now(), d.broker.Balance(), d.broker.IterOrders(), d.broker.IterTrades(), runErr)
}
