// Package backtest wires the buffer, broker, and prefetch stage into the
// single-threaded driver loop spec.md §5 describes, and defines the
// external interfaces of §6: the candle source a strategy runs against,
// the strategy type itself, and the read-only broker proxy it is given.
//
// Grounded on backintime/engine.py's Backtesting driver loop (read in
// original_source) and on backintime/broker/broker_proxy.py /
// trading_strategy.py for the proxy/strategy interface shapes.
package backtest

import (
	"fmt"

	"github.com/shopspring/decimal"

	"chronotrader/internal/balance"
	"chronotrader/internal/broker"
	"chronotrader/internal/buffer"
	"chronotrader/internal/indicator"
	"chronotrader/internal/order"
	"chronotrader/internal/prefetch"
	"chronotrader/internal/timeframe"
)

// CandleSource and CandleIterator are the spec.md §6.1 data provider
// factory, reused directly from the prefetch package so the driver and
// the prefetch stage consume one iterator contract.
type CandleSource = prefetch.CandleSource
type CandleIterator = prefetch.CandleIterator

// DataProviderError wraps a feed failure. Per spec.md §7 it is fatal:
// the driver stops iteration and returns the partial result.
type DataProviderError struct {
	Err error
}

func (e *DataProviderError) Error() string { return fmt.Sprintf("data provider: %v", e.Err) }
func (e *DataProviderError) Unwrap() error  { return e.Err }

// IncompatibleTimeframe is raised at driver construction when a
// strategy-declared timeframe is not an integer multiple of the feed's
// base timeframe.
type IncompatibleTimeframe struct {
	Declared timeframe.Timeframe
	Base     timeframe.Timeframe
}

func (e *IncompatibleTimeframe) Error() string {
	return fmt.Sprintf("backtest: declared timeframe %s is not a multiple of base timeframe %s", e.Declared, e.Base)
}

// BrokerProxy is the read-only view and submission surface spec.md §6.3
// exposes to a strategy. *broker.Broker implements it directly.
type BrokerProxy interface {
	Balance() balance.Info
	MaxFiatForTaker() decimal.Decimal
	MaxFiatForMaker() decimal.Decimal
	IterOrders() []order.Info
	IterTrades() []broker.Trade
	SubmitMarketOrder(opts order.MarketOrderOptions) (order.Info, error)
	SubmitLimitOrder(opts order.LimitOrderOptions) (order.LimitOrderInfo, error)
	SubmitTakeProfitOrder(side order.Side, opts order.TakeProfitOptions) (order.Info, error)
	SubmitStopLossOrder(side order.Side, opts order.StopLossOptions) (order.Info, error)
	CancelOrder(id int64) error
}

// Analyser is the read-only multi-timeframe view a strategy reads
// indicator inputs from. *buffer.Buffer implements it directly; spec.md
// §6.2's separate "candles_view" constructor argument is folded into
// this same view since both are read-only projections of the same
// per-timeframe OHLCV rings.
type Analyser interface {
	Values(tf timeframe.Timeframe, prop buffer.Property, limit int) []decimal.Decimal
	Len(tf timeframe.Timeframe, prop buffer.Property) int
}

// StrategyInstance is invoked once per closed base candle.
type StrategyInstance interface {
	Tick()
}

// StrategyFactory is the spec.md §6.2 strategy type: class-level
// metadata (Title/CandleTimeframes/Indicators) plus a constructor
// producing one instance bound to this run's proxy and analyser.
type StrategyFactory interface {
	Title() string
	CandleTimeframes() []timeframe.Timeframe
	Indicators() []indicator.Param
	New(proxy BrokerProxy, analyser Analyser) StrategyInstance
}

