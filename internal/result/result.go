// Package result bundles the outcome of one backtest run -- final
// balance, order and trade history, and profit/loss statistics under
// each attribution algorithm -- and is the value the driver returns.
//
// Grounded on backintime/result/result.py's BacktestingResult, which
// carries the same fields and exposes the same get_stats(algorithm)
// dispatch; the run id is stamped with google/uuid per SPEC_FULL.md §4's
// domain-stack wiring.
package result

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"chronotrader/internal/balance"
	"chronotrader/internal/broker"
	"chronotrader/internal/order"
	"chronotrader/internal/pnl"
)

// BacktestingResult is the complete, immutable record of one run.
type BacktestingResult struct {
	RunID        uuid.UUID
	StrategyName string
	Started      time.Time
	Finished     time.Time
	FinalBalance balance.Info
	Orders       []order.Info
	Trades       []broker.Trade

	// Err is set when the run terminated early on a BrokerException or
	// data-provider error (spec.md §7); Orders/Trades/FinalBalance still
	// reflect everything processed up to that point.
	Err error
}

// New assembles a BacktestingResult from a finished (or aborted) run.
func New(strategyName string, started, finished time.Time, finalBalance balance.Info, orders []order.Info, trades []broker.Trade, runErr error) BacktestingResult {
	return BacktestingResult{
		RunID:        uuid.New(),
		StrategyName: strategyName,
		Started:      started,
		Finished:     finished,
		FinalBalance: finalBalance,
		Orders:       orders,
		Trades:       trades,
		Err:          runErr,
	}
}

// tradeRecords converts the broker's execution-ordered trade log into
// the pnl package's input shape.
func (r BacktestingResult) tradeRecords() []pnl.TradeRecord {
	out := make([]pnl.TradeRecord, len(r.Trades))
	for i, t := range r.Trades {
		out[i] = pnl.TradeRecord{
			TradeID:    t.TradeID,
			OrderID:    t.Order.ID,
			Side:       t.Order.Side,
			Amount:     t.Order.Amount,
			FillPrice:  valOrZero(t.Order.FillPrice),
			TradingFee: valOrZero(t.Order.TradingFee),
		}
	}
	return out
}

// valOrZero dereferences a possibly-nil decimal pointer, defaulting to
// zero for orders that never reached EXECUTED (which GetStats skips by
// construction since only executed orders are ever turned into trades).
func valOrZero(v *decimal.Decimal) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return *v
}

// GetStats replays the trade log through the given attribution
// algorithm and returns the resulting per-trade profits and aggregate
// stats, mirroring BacktestingResult.get_stats(algorithm).
func (r BacktestingResult) GetStats(algorithm pnl.Algorithm) ([]pnl.TradeProfit, pnl.Stats, error) {
	profits, err := pnl.Run(algorithm, r.tradeRecords())
	if err != nil {
		return nil, pnl.Stats{}, err
	}
	return profits, pnl.ComputeStats(algorithm, profits), nil
}
