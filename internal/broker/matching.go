package broker

import (
	"github.com/shopspring/decimal"

	"chronotrader/internal/candle"
	"chronotrader/internal/order"
)

// phasePredicate is one of the three per-candle price-match tests from
// spec.md §4.9.
type phasePredicate func(price decimal.Decimal, c candle.Candle) bool

func phaseOpen(price decimal.Decimal, c candle.Candle) bool  { return price.Equal(c.Open) }
func phaseRange(price decimal.Decimal, c candle.Candle) bool {
	return price.GreaterThanOrEqual(c.Low) && price.LessThanOrEqual(c.High)
}
func phaseClose(price decimal.Decimal, c candle.Candle) bool { return price.Equal(c.Close) }

// Update runs the fixed-order per-candle matching algorithm: drain the
// market queue at candle.Open, then scan the limit set through three
// price-match phases (open, range, close), matching spec.md §4.9.
func (b *Broker) Update(c candle.Candle) error {
	b.currentTime = c.CloseTime

	for _, id := range b.repo.DrainMarketQueue() {
		o := b.repo.Get(id)
		if o == nil || o.Status.Terminal() {
			continue
		}
		if err := b.executeMarketLeg(o, c); err != nil {
			return &BrokerException{Err: err}
		}
	}

	for _, predicate := range []phasePredicate{phaseOpen, phaseRange, phaseClose} {
		for _, id := range b.repo.LimitSetSnapshot() {
			o := b.repo.Get(id)
			if o == nil || o.Status.Terminal() {
				continue
			}
			if err := b.applyPhase(o, predicate, c); err != nil {
				return &BrokerException{Err: err}
			}
		}
	}
	return nil
}

func (b *Broker) applyPhase(o *order.Order, predicate phasePredicate, c candle.Candle) error {
	switch {
	case o.IsStrategyOrder() && o.Status == order.Created:
		if !predicate(*o.TriggerPrice, c) {
			return nil
		}
		now := b.currentTime
		o.Status = order.Activated
		o.DateActivated = &now
		o.DateUpdated = now
		if o.OrderPrice == nil {
			b.repo.RemoveFromLimitSet(o.ID)
			b.repo.EnqueueMarket(o.ID)
		}
		return nil
	case o.Kind == order.Limit && o.Status == order.Created:
		if !predicate(*o.OrderPrice, c) {
			return nil
		}
		return b.executeLimitLeg(o, c)
	case o.IsStrategyOrder() && o.Status == order.Activated && o.OrderPrice != nil:
		if !predicate(*o.OrderPrice, c) {
			return nil
		}
		return b.executeLimitLeg(o, c)
	}
	return nil
}

// limitFillPrice returns the price a triggered Limit/TP/SL leg actually
// fills at: the better of order_price and the candle's open, per
// spec.md §4.9/§8 -- a BUY never pays more than order_price, a SELL
// never receives less.
func limitFillPrice(o *order.Order, c candle.Candle) decimal.Decimal {
	price := *o.OrderPrice
	if o.Side == order.Buy {
		if c.Open.LessThan(price) {
			return c.Open
		}
		return price
	}
	if c.Open.GreaterThan(price) {
		return c.Open
	}
	return price
}

// executeLimitLeg fills a Limit order or an activated TP/SL limit leg,
// per spec.md §4.9's Limit/TP/SL execution rule. o.Amount is the fiat
// nominal for a BUY (matching how submission holds it, see
// holdMarketOrLimit/MakerPrice) and the crypto quantity for a SELL.
func (b *Broker) executeLimitLeg(o *order.Order, c candle.Candle) error {
	price := limitFillPrice(o, c)
	var tradingFee, depositAmount decimal.Decimal
	if o.Side == order.Buy {
		tradingFee = b.precision.QuantizeFiatDerived(o.Amount.Mul(b.fees.Maker))
		total := b.precision.QuantizeFiatDerived(b.fees.MakerPrice(o.Amount))
		b.bal.WithdrawFiat(total)
		depositAmount = b.precision.QuantizeCryptoDerived(o.Amount.Div(price))
		b.bal.DepositCrypto(depositAmount)
	} else {
		b.bal.WithdrawCrypto(o.Amount)
		gross := o.Amount.Mul(price)
		tradingFee = b.precision.QuantizeFiatDerived(gross.Mul(b.fees.Maker))
		proceeds := b.precision.QuantizeFiatDerived(b.fees.MakerGain(gross))
		b.bal.DepositFiat(proceeds)
	}
	return b.finishExecution(o, price, tradingFee)
}

// executeMarketLeg fills a Market order or an activated TP/SL market leg
// at candle.Open, per spec.md §4.9's market-queue drain rule.
func (b *Broker) executeMarketLeg(o *order.Order, c candle.Candle) error {
	price := c.Open
	var tradingFee, depositAmount decimal.Decimal
	if o.Side == order.Buy {
		total := b.precision.QuantizeFiatDerived(b.fees.TakerPrice(o.Amount))
		tradingFee = b.precision.QuantizeFiatDerived(o.Amount.Mul(b.fees.Taker))
		b.bal.WithdrawFiat(total)
		depositAmount = b.precision.QuantizeCryptoDerived(o.Amount.Div(price))
		b.bal.DepositCrypto(depositAmount)
	} else {
		b.bal.WithdrawCrypto(o.Amount)
		gross := o.Amount.Mul(price)
		tradingFee = b.precision.QuantizeFiatDerived(gross.Mul(b.fees.Taker))
		proceeds := b.precision.QuantizeFiatDerived(b.fees.TakerGain(gross))
		b.bal.DepositFiat(proceeds)
	}
	return b.finishExecution(o, price, tradingFee)
}

// finishExecution marks o EXECUTED, emits a Trade, spawns any pending
// TP/SL children (Limit orders only), and cancels the rest of the
// strategy-set as a position-modifying execution, per spec.md §4.9.
func (b *Broker) finishExecution(o *order.Order, fillPrice, tradingFee decimal.Decimal) error {
	o.FillPrice = &fillPrice
	o.TradingFee = &tradingFee
	o.Status = order.Executed
	o.DateUpdated = b.currentTime
	b.repo.RemoveFromLimitSet(o.ID)

	if o.IsStrategyOrder() {
		b.releaseShared(o.Side, b.strategyOrderTotal(o.Side, o.Amount, o.OrderPrice))
	}

	trade := Trade{TradeID: b.nextTradeID, Order: o.ToInfo(), ResultBalance: b.bal.Fiat()}
	b.nextTradeID++
	b.trades = append(b.trades, trade)

	if o.Kind == order.Limit {
		if err := b.spawnChildren(o); err != nil {
			return err
		}
	}

	b.cancelStrategySetExcept(o.ID)
	return nil
}

// spawnChildren creates the TP/SL children a just-executed Limit order
// declared, with inverted side, linking them back to the parent.
func (b *Broker) spawnChildren(parent *order.Order) error {
	childSide := order.Sell
	if parent.Side == order.Sell {
		childSide = order.Buy
	}
	var tpID, slID *int64
	if parent.TakeProfitOpts != nil {
		info, err := b.SubmitTakeProfitOrder(childSide, *parent.TakeProfitOpts)
		if err != nil {
			return err
		}
		id := info.ID
		tpID = &id
		if child := b.repo.Get(id); child != nil {
			child.ParentID = &parent.ID
		}
	}
	if parent.StopLossOpts != nil {
		info, err := b.SubmitStopLossOrder(childSide, *parent.StopLossOpts)
		if err != nil {
			return err
		}
		id := info.ID
		slID = &id
		if child := b.repo.Get(id); child != nil {
			child.ParentID = &parent.ID
		}
	}
	b.repo.LinkChildren(parent.ID, tpID, slID)
	return nil
}

// cancelStrategySetExcept marks every live strategy order other than
// exceptID as SYS_CANCELLED, releasing its shared hold, matching
// spec.md §4.8's "position-modifying execution cancels all live
// strategy orders".
func (b *Broker) cancelStrategySetExcept(exceptID int64) {
	for _, id := range b.repo.StrategySetSnapshot() {
		if id == exceptID {
			continue
		}
		o := b.repo.Get(id)
		if o == nil || o.Status.Terminal() {
			continue
		}
		b.releaseShared(o.Side, b.strategyOrderTotal(o.Side, o.Amount, o.OrderPrice))
		o.Status = order.SysCancelled
		o.DateUpdated = b.currentTime
		b.repo.RemoveFromLimitSet(id)
	}
}
