// Example strategy wiring: the trading strategy body is explicitly out
// of scope as library code (SPEC_FULL.md §1 — "user strategy body" is a
// consumed interface, not something this engine ships). buyAndHold is a
// minimal, self-contained StrategyFactory so `cmd/backtest` runs
// end-to-end out of the box; real strategies implement the same
// backtest.StrategyFactory/StrategyInstance pair.
package main

import (
	"github.com/shopspring/decimal"

	"chronotrader/internal/backtest"
	"chronotrader/internal/buffer"
	"chronotrader/internal/indicator"
	"chronotrader/internal/order"
	"chronotrader/internal/timeframe"
)

// buyAndHoldFactory spends all available fiat on the first tick and then
// does nothing for the rest of the run.
type buyAndHoldFactory struct {
	base timeframe.Timeframe
}

func (f *buyAndHoldFactory) Title() string { return "buy-and-hold" }

func (f *buyAndHoldFactory) CandleTimeframes() []timeframe.Timeframe {
	return []timeframe.Timeframe{f.base}
}

func (f *buyAndHoldFactory) Indicators() []indicator.Param {
	return []indicator.Param{indicator.SMAParam(f.base, buffer.Close, 20)}
}

func (f *buyAndHoldFactory) New(proxy backtest.BrokerProxy, analyser backtest.Analyser) backtest.StrategyInstance {
	return &buyAndHoldStrategy{proxy: proxy}
}

type buyAndHoldStrategy struct {
	proxy  backtest.BrokerProxy
	bought bool
}

func (s *buyAndHoldStrategy) Tick() {
	if s.bought {
		return
	}
	amount := s.proxy.MaxFiatForTaker()
	if amount.LessThanOrEqual(decimal.Zero) {
		return
	}
	if _, err := s.proxy.SubmitMarketOrder(order.MarketOrderOptions{Side: order.Buy, Amount: amount}); err == nil {
		s.bought = true
	}
}
