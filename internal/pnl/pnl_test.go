package pnl

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"chronotrader/internal/order"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// TestFIFOMatchesSpecScenario mirrors spec.md §8 scenario 5: BUY 1@40000,
// BUY 1@50000, SELL 1@45000, SELL 1@65000, zero fees. FIFO consumes the
// oldest lot first: profits are +5000 then +15000.
func TestFIFOMatchesSpecScenario(t *testing.T) {
	trades := []TradeRecord{
		{TradeID: 1, OrderID: 1, Side: order.Buy, Amount: d("40000"), FillPrice: d("40000")},
		{TradeID: 2, OrderID: 2, Side: order.Buy, Amount: d("50000"), FillPrice: d("50000")},
		{TradeID: 3, OrderID: 3, Side: order.Sell, Amount: d("1"), FillPrice: d("45000")},
		{TradeID: 4, OrderID: 4, Side: order.Sell, Amount: d("1"), FillPrice: d("65000")},
	}
	profits, err := Run(FIFO, trades)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(profits) != 2 {
		t.Fatalf("len(profits) = %d, want 2", len(profits))
	}
	if !profits[0].AbsoluteProfit.Equal(d("5000")) {
		t.Errorf("profit[0] = %s, want 5000", profits[0].AbsoluteProfit)
	}
	if !profits[1].AbsoluteProfit.Equal(d("15000")) {
		t.Errorf("profit[1] = %s, want 15000", profits[1].AbsoluteProfit)
	}
}

// TestLIFOConsumesNewestLotFirst uses the same trade set as the FIFO
// scenario above: LIFO should consume the 50000-priced lot first,
// yielding -5000 then +25000.
func TestLIFOConsumesNewestLotFirst(t *testing.T) {
	trades := []TradeRecord{
		{TradeID: 1, OrderID: 1, Side: order.Buy, Amount: d("40000"), FillPrice: d("40000")},
		{TradeID: 2, OrderID: 2, Side: order.Buy, Amount: d("50000"), FillPrice: d("50000")},
		{TradeID: 3, OrderID: 3, Side: order.Sell, Amount: d("1"), FillPrice: d("45000")},
		{TradeID: 4, OrderID: 4, Side: order.Sell, Amount: d("1"), FillPrice: d("65000")},
	}
	profits, err := Run(LIFO, trades)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !profits[0].AbsoluteProfit.Equal(d("-5000")) {
		t.Errorf("profit[0] = %s, want -5000", profits[0].AbsoluteProfit)
	}
	if !profits[1].AbsoluteProfit.Equal(d("25000")) {
		t.Errorf("profit[1] = %s, want 25000", profits[1].AbsoluteProfit)
	}
}

// TestAVCOSplitsAcrossBothLots: selling the full 2 units at once against
// two 1-unit lots (40000, 50000) should use the average cost basis of
// 45000 per unit, so a sale of both units at 65000 nets +40000 total.
func TestAVCOSplitsAcrossBothLots(t *testing.T) {
	trades := []TradeRecord{
		{TradeID: 1, OrderID: 1, Side: order.Buy, Amount: d("40000"), FillPrice: d("40000")},
		{TradeID: 2, OrderID: 2, Side: order.Buy, Amount: d("50000"), FillPrice: d("50000")},
		{TradeID: 3, OrderID: 3, Side: order.Sell, Amount: d("2"), FillPrice: d("65000")},
	}
	profits, err := Run(AVCO, trades)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(profits) != 1 {
		t.Fatalf("len(profits) = %d, want 1", len(profits))
	}
	want := d("130000").Sub(d("90000"))
	if !profits[0].AbsoluteProfit.Equal(want) {
		t.Errorf("profit = %s, want %s", profits[0].AbsoluteProfit, want)
	}
}

func TestInvalidSellAmountWhenNoLotsOpen(t *testing.T) {
	trades := []TradeRecord{
		{TradeID: 1, OrderID: 1, Side: order.Sell, Amount: d("1"), FillPrice: d("100")},
	}
	if _, err := Run(FIFO, trades); err == nil {
		t.Fatal("expected InvalidSellAmount")
	}
}

func TestUnexpectedAlgorithm(t *testing.T) {
	if _, err := Run(Algorithm("BOGUS"), nil); err == nil {
		t.Fatal("expected UnexpectedProfitLossAlgorithm")
	}
}

func TestComputeStatsEmptyYieldsNaN(t *testing.T) {
	s := ComputeStats(FIFO, nil)
	if !math.IsNaN(s.WinRate) {
		t.Errorf("win_rate = %v, want NaN on empty input", s.WinRate)
	}
	if !math.IsNaN(s.ProfitLossRatio) {
		t.Errorf("profit_loss_ratio = %v, want NaN on empty input", s.ProfitLossRatio)
	}
}

func TestComputeStatsNoLossesYieldsNaNRatio(t *testing.T) {
	profits := []TradeProfit{
		{TradeID: 1, AbsoluteProfit: d("100")},
		{TradeID: 2, AbsoluteProfit: d("200")},
	}
	s := ComputeStats(FIFO, profits)
	if s.Wins != 2 || s.Losses != 0 {
		t.Fatalf("wins=%d losses=%d, want 2/0", s.Wins, s.Losses)
	}
	if !math.IsNaN(s.ProfitLossRatio) {
		t.Errorf("profit_loss_ratio = %v, want NaN with zero losses", s.ProfitLossRatio)
	}
	if s.WinRate != 100 {
		t.Errorf("win_rate = %v, want 100", s.WinRate)
	}
	if !s.BestAbsolute.Equal(d("200")) || !s.WorstAbsolute.Equal(d("100")) {
		t.Errorf("best=%s worst=%s, want 200/100", s.BestAbsolute, s.WorstAbsolute)
	}
}
