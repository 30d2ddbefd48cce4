// Package pnl implements the profit/loss attribution engine: FIFO, LIFO,
// and AVCO lot-matching algorithms that pair SELL trades against prior
// BUY lots, and the aggregate statistics derived from the resulting
// per-trade profits.
//
// Grounded directly on backintime/result/stats.py -- fifo_profit,
// lifo_profit, avco_profit, and get_stats are reimplemented from that
// file's exact algorithm, including the FIFO/LIFO-vs-AVCO asymmetry in
// which fee a partial lot consumption prorates (original trading_fee for
// FIFO/LIFO, remaining_fee for AVCO).
package pnl

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"chronotrader/internal/order"
)

// Algorithm selects a lot-matching policy.
type Algorithm string

const (
	FIFO Algorithm = "FIFO"
	LIFO Algorithm = "LIFO"
	AVCO Algorithm = "AVCO"
)

// UnexpectedProfitLossAlgorithm is returned when Stats is asked to
// compute with an unknown algorithm string.
type UnexpectedProfitLossAlgorithm struct {
	Algorithm string
}

func (e *UnexpectedProfitLossAlgorithm) Error() string {
	return fmt.Sprintf("pnl: unexpected profit/loss algorithm %q", e.Algorithm)
}

// InvalidSellAmount is raised when a SELL's quantity exceeds the sum of
// remaining quantity across all open BUY lots.
type InvalidSellAmount struct {
	SellQuantity      decimal.Decimal
	AvailableQuantity decimal.Decimal
}

func (e *InvalidSellAmount) Error() string {
	return fmt.Sprintf("pnl: sell quantity %s exceeds available lot quantity %s", e.SellQuantity, e.AvailableQuantity)
}

// TradeRecord is the subset of an executed order's fields the
// attribution engine needs, in execution (chronological) order.
type TradeRecord struct {
	TradeID    int64
	OrderID    int64
	Side       order.Side
	Amount     decimal.Decimal // fiat nominal for BUY, crypto quantity for SELL
	FillPrice  decimal.Decimal
	TradingFee decimal.Decimal
}

// lot is one open BUY position awaiting SELL offset, mirroring
// stats.py's _PositionItem.
type lot struct {
	amountFiat        decimal.Decimal
	fillPrice         decimal.Decimal
	tradingFee        decimal.Decimal
	remainingQuantity decimal.Decimal
	remainingFee      decimal.Decimal
}

func newLot(t TradeRecord) *lot {
	qty := t.Amount.Div(t.FillPrice).Round(8)
	return &lot{
		amountFiat:        t.Amount,
		fillPrice:         t.FillPrice,
		tradingFee:        t.TradingFee,
		remainingQuantity: qty,
		remainingFee:      t.TradingFee,
	}
}

// TradeProfit is the per-SELL-trade profit result, mirroring stats.py's
// TradeProfit dataclass.
type TradeProfit struct {
	TradeID        int64
	OrderID        int64
	RelativeProfit float64 // percent, e.g. 12.5 means +12.5%
	AbsoluteProfit decimal.Decimal
}

func gain(t TradeRecord) decimal.Decimal {
	return t.Amount.Mul(t.FillPrice).Sub(t.TradingFee)
}

func estimateProfit(t TradeRecord, costBasis decimal.Decimal) TradeProfit {
	g := gain(t)
	absolute := g.Sub(costBasis)
	var relative float64
	if costBasis.IsZero() {
		relative = math.NaN()
	} else {
		gF, _ := g.Float64()
		cF, _ := costBasis.Float64()
		relative = gF/(cF/100) - 100
	}
	return TradeProfit{TradeID: t.TradeID, OrderID: t.OrderID, RelativeProfit: relative, AbsoluteProfit: absolute}
}

// Run replays trades in chronological order, offsetting every SELL
// against prior BUY lots per algorithm, and returns one TradeProfit per
// SELL.
func Run(algorithm Algorithm, trades []TradeRecord) ([]TradeProfit, error) {
	switch algorithm {
	case FIFO:
		return fifoProfit(trades)
	case LIFO:
		return lifoProfit(trades)
	case AVCO:
		return avcoProfit(trades)
	default:
		return nil, &UnexpectedProfitLossAlgorithm{Algorithm: string(algorithm)}
	}
}

func totalRemaining(lots []*lot) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lots {
		sum = sum.Add(l.remainingQuantity)
	}
	return sum
}

func fifoProfit(trades []TradeRecord) ([]TradeProfit, error) {
	var lots []*lot
	var profits []TradeProfit
	for _, t := range trades {
		if t.Side == order.Buy {
			lots = append(lots, newLot(t))
			continue
		}
		sellQty := t.Amount
		if sellQty.GreaterThan(totalRemaining(lots)) {
			return nil, &InvalidSellAmount{SellQuantity: sellQty, AvailableQuantity: totalRemaining(lots)}
		}
		costBasis := decimal.Zero
		for sellQty.IsPositive() && len(lots) > 0 {
			front := lots[0]
			if front.remainingQuantity.LessThanOrEqual(sellQty) {
				costBasis = costBasis.Add(front.remainingQuantity.Mul(front.fillPrice)).Add(front.remainingFee)
				sellQty = sellQty.Sub(front.remainingQuantity)
				lots = lots[1:]
				continue
			}
			ratio := sellQty.Div(front.remainingQuantity)
			partialFee := ratio.Mul(front.tradingFee)
			costBasis = costBasis.Add(sellQty.Mul(front.fillPrice)).Add(partialFee)
			front.remainingFee = front.remainingFee.Sub(partialFee)
			front.remainingQuantity = front.remainingQuantity.Sub(sellQty)
			sellQty = decimal.Zero
		}
		profits = append(profits, estimateProfit(t, costBasis))
	}
	return profits, nil
}

func lifoProfit(trades []TradeRecord) ([]TradeProfit, error) {
	var lots []*lot
	var profits []TradeProfit
	for _, t := range trades {
		if t.Side == order.Buy {
			lots = append(lots, newLot(t))
			continue
		}
		sellQty := t.Amount
		if sellQty.GreaterThan(totalRemaining(lots)) {
			return nil, &InvalidSellAmount{SellQuantity: sellQty, AvailableQuantity: totalRemaining(lots)}
		}
		costBasis := decimal.Zero
		for sellQty.IsPositive() && len(lots) > 0 {
			back := lots[len(lots)-1]
			if back.remainingQuantity.LessThanOrEqual(sellQty) {
				costBasis = costBasis.Add(back.remainingQuantity.Mul(back.fillPrice)).Add(back.remainingFee)
				sellQty = sellQty.Sub(back.remainingQuantity)
				lots = lots[:len(lots)-1]
				continue
			}
			ratio := sellQty.Div(back.remainingQuantity)
			partialFee := ratio.Mul(back.tradingFee)
			costBasis = costBasis.Add(sellQty.Mul(back.fillPrice)).Add(partialFee)
			back.remainingFee = back.remainingFee.Sub(partialFee)
			back.remainingQuantity = back.remainingQuantity.Sub(sellQty)
			sellQty = decimal.Zero
		}
		profits = append(profits, estimateProfit(t, costBasis))
	}
	return profits, nil
}

// avcoProfit evenly splits each SELL across all remaining lots, per
// spec.md §4.11: at each iteration, a lot whose remaining quantity is
// <= the even share is consumed wholly and the even share recomputed
// over what is left.
func avcoProfit(trades []TradeRecord) ([]TradeProfit, error) {
	var lots []*lot
	var profits []TradeProfit
	for _, t := range trades {
		if t.Side == order.Buy {
			lots = append(lots, newLot(t))
			continue
		}
		sellQty := t.Amount
		if sellQty.GreaterThan(totalRemaining(lots)) {
			return nil, &InvalidSellAmount{SellQuantity: sellQty, AvailableQuantity: totalRemaining(lots)}
		}
		costBasis := decimal.Zero
		for sellQty.IsPositive() && len(lots) > 0 {
			even := sellQty.Div(decimal.NewFromInt(int64(len(lots))))
			remaining := make([]*lot, 0, len(lots))
			for _, l := range lots {
				if l.remainingQuantity.LessThanOrEqual(even) {
					costBasis = costBasis.Add(l.remainingQuantity.Mul(l.fillPrice)).Add(l.remainingFee)
					sellQty = sellQty.Sub(l.remainingQuantity)
					continue
				}
				ratio := even.Div(l.remainingQuantity)
				partialFee := ratio.Mul(l.remainingFee)
				costBasis = costBasis.Add(even.Mul(l.fillPrice)).Add(partialFee)
				l.remainingFee = l.remainingFee.Sub(partialFee)
				l.remainingQuantity = l.remainingQuantity.Sub(even)
				sellQty = sellQty.Sub(even)
				remaining = append(remaining, l)
			}
			lots = remaining
		}
		profits = append(profits, estimateProfit(t, costBasis))
	}
	return profits, nil
}
