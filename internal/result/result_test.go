package result

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"chronotrader/internal/balance"
	"chronotrader/internal/broker"
	"chronotrader/internal/order"
	"chronotrader/internal/pnl"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func TestGetStatsDispatchesToAlgorithm(t *testing.T) {
	started := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	trades := []broker.Trade{
		{TradeID: 1, Order: order.Info{ID: 1, Side: order.Buy, Amount: d("40000"), FillPrice: dp("40000"), TradingFee: dp("0")}},
		{TradeID: 2, Order: order.Info{ID: 2, Side: order.Sell, Amount: d("1"), FillPrice: dp("45000"), TradingFee: dp("0")}},
	}
	r := New("test-strategy", started, started.Add(time.Hour), balance.Info{}, nil, trades, nil)

	profits, stats, err := r.GetStats(pnl.FIFO)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if len(profits) != 1 {
		t.Fatalf("len(profits) = %d, want 1", len(profits))
	}
	if !profits[0].AbsoluteProfit.Equal(d("5000")) {
		t.Errorf("profit = %s, want 5000", profits[0].AbsoluteProfit)
	}
	if stats.Wins != 1 {
		t.Errorf("wins = %d, want 1", stats.Wins)
	}
}

func TestGetStatsRejectsUnknownAlgorithm(t *testing.T) {
	r := New("test", time.Time{}, time.Time{}, balance.Info{}, nil, nil, nil)
	if _, _, err := r.GetStats(pnl.Algorithm("NOPE")); err == nil {
		t.Fatal("expected UnexpectedProfitLossAlgorithm")
	}
}
