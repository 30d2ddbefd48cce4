// Package broker implements the simulated exchange: order submission and
// validation, the TP/SL shared-position pooling rule, and the
// three-phase per-candle matching algorithm.
//
// Grounded on spec.md §4.6-4.9 and on backintime/broker/base.py's
// AbstractBroker/Trade shapes; the position-sharing bookkeeping is
// original to this spec (§4.8), implemented from its prose description
// since no single original_source file covers it end to end.
package broker

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"chronotrader/internal/balance"
	"chronotrader/internal/candle"
	"chronotrader/internal/fees"
	"chronotrader/internal/logging"
	"chronotrader/internal/order"
)

// BrokerException is an unexpected broker-internal failure. Per spec.md
// §7 it is fatal to the backtest loop: the driver stops iteration and
// returns the partial result computed so far.
type BrokerException struct {
	Err error
}

func (e *BrokerException) Error() string { return fmt.Sprintf("broker: %v", e.Err) }
func (e *BrokerException) Unwrap() error { return e.Err }

// Trade is emitted on every EXECUTED order. ResultBalance is the fiat
// balance at the moment of execution, confirmed from
// backintime/broker/base.py's Trade.result_balance docstring.
type Trade struct {
	TradeID       int64
	Order         order.Info
	ResultBalance decimal.Decimal
}

// position tracks the §4.8 shared-pool bookkeeping for one side (buy or
// sell) of the TP/SL strategy-set.
type position struct {
	aggregated decimal.Decimal
	shared     decimal.Decimal
}

// Broker owns the balance, order repository, fee schedule, and precision
// settings for one backtest run, and runs the per-candle matching
// algorithm against them.
type Broker struct {
	bal       *balance.Balance
	repo      *order.Repository
	fees      fees.Estimator
	precision candle.Precision
	log       *logging.Logger

	currentTime time.Time
	nextTradeID int64
	trades      []Trade

	buyPosition  position
	sellPosition position
}

// New constructs a Broker over the given balance, repository, fee
// schedule and precision settings.
func New(bal *balance.Balance, repo *order.Repository, feeEstimator fees.Estimator, precision candle.Precision) *Broker {
	return &Broker{
		bal:         bal,
		repo:        repo,
		fees:        feeEstimator,
		precision:   precision,
		log:         logging.WithComponent("broker"),
		nextTradeID: 1,
	}
}

// Balance returns a read-only snapshot of the account balance.
func (b *Broker) Balance() balance.Info { return b.bal.Snapshot() }

// MaxFiatForTaker returns the largest nominal BUY a taker order of the
// current available fiat can afford.
func (b *Broker) MaxFiatForTaker() decimal.Decimal {
	return b.fees.MaxFiatForTaker(b.bal.AvailableFiat())
}

// MaxFiatForMaker returns the largest nominal BUY a maker order of the
// current available fiat can afford.
func (b *Broker) MaxFiatForMaker() decimal.Decimal {
	return b.fees.MaxFiatForMaker(b.bal.AvailableFiat())
}

// IterOrders returns a read-only snapshot of every order ever submitted,
// ascending by id.
func (b *Broker) IterOrders() []order.Info {
	all := b.repo.AllOrders()
	out := make([]order.Info, len(all))
	for i, o := range all {
		out[i] = o.ToInfo()
	}
	return out
}

// IterTrades returns the trade log in execution order.
func (b *Broker) IterTrades() []Trade {
	return b.trades
}

func (b *Broker) resolveAmount(side order.Side, amount, percentage decimal.Decimal, usePercentage bool) decimal.Decimal {
	if !usePercentage {
		return amount
	}
	var base decimal.Decimal
	if side == order.Buy {
		base = b.bal.AvailableFiat()
	} else {
		base = b.bal.AvailableCrypto()
	}
	return base.Mul(percentage).Div(decimal.NewFromInt(100))
}

func (b *Broker) quantizeAmount(side order.Side, amount decimal.Decimal) decimal.Decimal {
	if side == order.Buy {
		return b.precision.QuantizeFiatInput(amount)
	}
	return b.precision.QuantizeCryptoInput(amount)
}

// SubmitMarketOrder validates and accepts a Market order, holding funds
// per spec.md §4.6.
func (b *Broker) SubmitMarketOrder(opts order.MarketOrderOptions) (order.Info, error) {
	amount := b.quantizeAmount(opts.Side, b.resolveAmount(opts.Side, opts.Amount, opts.PercentageAmount, opts.UsePercentage))
	if err := order.ValidateMarket(order.MarketOrderOptions{Side: opts.Side, Amount: amount}); err != nil {
		return order.Info{}, err
	}
	if err := b.holdMarketOrLimit(opts.Side, order.Market, amount); err != nil {
		return order.Info{}, err
	}
	o := &order.Order{
		ID:          b.repo.NextID(),
		Kind:        order.Market,
		Side:        opts.Side,
		Amount:      amount,
		Status:      order.Created,
		DateCreated: b.currentTime,
		DateUpdated: b.currentTime,
	}
	b.repo.Add(o)
	return o.ToInfo(), nil
}

// SubmitLimitOrder validates and accepts a Limit order, optionally
// carrying TP/SL legs to spawn on execution.
func (b *Broker) SubmitLimitOrder(opts order.LimitOrderOptions) (order.LimitOrderInfo, error) {
	amount := b.quantizeAmount(opts.Side, b.resolveAmount(opts.Side, opts.Amount, opts.PercentageAmount, opts.UsePercentage))
	validated := opts
	validated.Amount = amount
	validated.UsePercentage = false
	if err := order.ValidateLimit(validated); err != nil {
		return order.LimitOrderInfo{}, err
	}
	if err := b.holdMarketOrLimit(opts.Side, order.Limit, amount); err != nil {
		return order.LimitOrderInfo{}, err
	}
	orderPrice := opts.OrderPrice
	o := &order.Order{
		ID:             b.repo.NextID(),
		Kind:           order.Limit,
		Side:           opts.Side,
		Amount:         amount,
		OrderPrice:     &orderPrice,
		Status:         order.Created,
		DateCreated:    b.currentTime,
		DateUpdated:    b.currentTime,
		TakeProfitOpts: opts.TakeProfit,
		StopLossOpts:   opts.StopLoss,
	}
	b.repo.Add(o)
	return o.ToLimitInfo(), nil
}

func (b *Broker) holdMarketOrLimit(side order.Side, kind order.Kind, amount decimal.Decimal) error {
	if side == order.Sell {
		return b.bal.HoldCrypto(amount)
	}
	var total decimal.Decimal
	if kind == order.Market {
		total = b.fees.TakerPrice(amount)
	} else {
		total = b.fees.MakerPrice(amount)
	}
	total = b.precision.QuantizeFiatDerived(total)
	return b.bal.HoldFiat(total)
}

// SubmitTakeProfitOrder validates and accepts a standalone TakeProfit
// order, holding funds from the shared position pool (§4.8).
func (b *Broker) SubmitTakeProfitOrder(side order.Side, opts order.TakeProfitOptions) (order.Info, error) {
	opts.Amount = b.quantizeAmount(side, b.resolveAmount(side, opts.Amount, opts.PercentageAmount, opts.UsePercentage))
	opts.UsePercentage = false
	if err := order.ValidateTakeProfitStandalone(opts); err != nil {
		return order.Info{}, err
	}
	total := b.strategyOrderTotal(side, opts.Amount, opts.OrderPrice)
	if err := b.holdShared(side, total); err != nil {
		return order.Info{}, err
	}
	o := &order.Order{
		ID:           b.repo.NextID(),
		Kind:         order.TakeProfit,
		Side:         side,
		Amount:       opts.Amount,
		OrderPrice:   opts.OrderPrice,
		TriggerPrice: &opts.TriggerPrice,
		Status:       order.Created,
		DateCreated:  b.currentTime,
		DateUpdated:  b.currentTime,
	}
	b.repo.Add(o)
	return o.ToInfo(), nil
}

// SubmitStopLossOrder is the StopLoss analogue of SubmitTakeProfitOrder.
func (b *Broker) SubmitStopLossOrder(side order.Side, opts order.StopLossOptions) (order.Info, error) {
	opts.Amount = b.quantizeAmount(side, b.resolveAmount(side, opts.Amount, opts.PercentageAmount, opts.UsePercentage))
	opts.UsePercentage = false
	if err := order.ValidateStopLossStandalone(opts); err != nil {
		return order.Info{}, err
	}
	total := b.strategyOrderTotal(side, opts.Amount, opts.OrderPrice)
	if err := b.holdShared(side, total); err != nil {
		return order.Info{}, err
	}
	o := &order.Order{
		ID:           b.repo.NextID(),
		Kind:         order.StopLoss,
		Side:         side,
		Amount:       opts.Amount,
		OrderPrice:   opts.OrderPrice,
		TriggerPrice: &opts.TriggerPrice,
		Status:       order.Created,
		DateCreated:  b.currentTime,
		DateUpdated:  b.currentTime,
	}
	b.repo.Add(o)
	return o.ToInfo(), nil
}

// strategyOrderTotal computes the §4.8 "total" nominal hold requirement
// for a TP/SL order: fee-adjusted fiat for BUY (limit-leg uses maker
// fee, market-leg uses taker fee), plain crypto amount for SELL.
func (b *Broker) strategyOrderTotal(side order.Side, amount decimal.Decimal, orderPrice *decimal.Decimal) decimal.Decimal {
	if side == order.Sell {
		return amount
	}
	if orderPrice != nil {
		return b.precision.QuantizeFiatDerived(b.fees.MakerPrice(amount))
	}
	return b.precision.QuantizeFiatDerived(b.fees.TakerPrice(amount))
}

// holdShared implements the §4.8 shared-position hold rule for one TP/SL
// submission of the given total on the given side.
func (b *Broker) holdShared(side order.Side, total decimal.Decimal) error {
	pos := b.positionFor(side)
	var available decimal.Decimal
	if side == order.Buy {
		available = b.bal.AvailableFiat()
	} else {
		available = b.bal.AvailableCrypto()
	}
	if total.LessThanOrEqual(available) {
		if err := b.holdAsset(side, total); err != nil {
			return err
		}
		pos.shared = pos.shared.Add(total)
	} else {
		toHold := total.Sub(pos.shared)
		if toHold.IsPositive() {
			if err := b.holdAsset(side, toHold); err != nil {
				return err
			}
		}
	}
	pos.aggregated = pos.aggregated.Add(total)
	return nil
}

func (b *Broker) holdAsset(side order.Side, amount decimal.Decimal) error {
	if side == order.Buy {
		return b.bal.HoldFiat(amount)
	}
	return b.bal.HoldCrypto(amount)
}

func (b *Broker) releaseAsset(side order.Side, amount decimal.Decimal) {
	if side == order.Buy {
		b.bal.ReleaseFiat(amount)
	} else {
		b.bal.ReleaseCrypto(amount)
	}
}

func (b *Broker) positionFor(side order.Side) *position {
	if side == order.Buy {
		return &b.buyPosition
	}
	return &b.sellPosition
}

// releaseShared implements the §4.8 release rule for one strategy
// order's total leaving the pool (cancel, sys-cancel, or execution).
func (b *Broker) releaseShared(side order.Side, total decimal.Decimal) {
	pos := b.positionFor(side)
	pos.aggregated = pos.aggregated.Sub(total)
	if pos.aggregated.IsNegative() {
		pos.aggregated = decimal.Zero
	}
	if pos.shared.GreaterThan(pos.aggregated) {
		pos.shared = pos.aggregated
	}
	var totalBalance, available decimal.Decimal
	if side == order.Buy {
		totalBalance, available = b.bal.Fiat(), b.bal.AvailableFiat()
	} else {
		totalBalance, available = b.bal.Crypto(), b.bal.AvailableCrypto()
	}
	target := totalBalance.Sub(pos.aggregated)
	delta := target.Sub(available)
	if delta.IsPositive() {
		b.releaseAsset(side, delta)
	}
}

// CancelOrder releases an order's hold and marks it CANCELLED, per
// spec.md §4.7.
func (b *Broker) CancelOrder(id int64) error {
	o := b.repo.Get(id)
	if o == nil {
		return &order.OrderCancellationError{OrderID: id, Reason: order.ErrOrderNotFound}
	}
	if o.Status.Terminal() {
		return &order.OrderCancellationError{OrderID: id, Reason: fmt.Sprintf("order is already %s", o.Status)}
	}
	if o.IsStrategyOrder() {
		b.releaseShared(o.Side, b.strategyOrderTotal(o.Side, o.Amount, o.OrderPrice))
	} else {
		b.releaseSimple(o)
	}
	_, err := b.repo.Cancel(id)
	return err
}

func (b *Broker) releaseSimple(o *order.Order) {
	if o.Side == order.Sell {
		b.bal.ReleaseCrypto(o.Amount)
		return
	}
	var total decimal.Decimal
	if o.Kind == order.Market {
		total = b.precision.QuantizeFiatDerived(b.fees.TakerPrice(o.Amount))
	} else {
		total = b.precision.QuantizeFiatDerived(b.fees.MakerPrice(o.Amount))
	}
	b.bal.ReleaseFiat(total)
}
