// Package order implements the tagged-variant order model (Market,
// Limit, TakeProfit, StopLoss), its status state machine, and the
// indexed repository the broker matches against each candle.
//
// Grounded on spec.md §3/§4.6-4.8 and on backintime/broker/base.py's
// OrderInfo/StrategyOrderInfo/LimitOrderInfo read-only view hierarchy,
// with validation carried over from backintime/broker/validators.py's
// amount/price/trigger checks and aggregated InvalidOrderData reporting.
package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

// Kind distinguishes the four order variants.
type Kind int

const (
	Market Kind = iota
	Limit
	TakeProfit
	StopLoss
)

func (k Kind) String() string {
	switch k {
	case Market:
		return "MARKET"
	case Limit:
		return "LIMIT"
	case TakeProfit:
		return "TAKE_PROFIT"
	case StopLoss:
		return "STOP_LOSS"
	default:
		return "UNKNOWN"
	}
}

// Status is the order's place in the state machine described in
// spec.md §3.
type Status int

const (
	Created Status = iota
	Activated
	Executed
	Cancelled
	SysCancelled
)

func (s Status) String() string {
	switch s {
	case Created:
		return "CREATED"
	case Activated:
		return "ACTIVATED"
	case Executed:
		return "EXECUTED"
	case Cancelled:
		return "CANCELLED"
	case SysCancelled:
		return "SYS_CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether s is one of the order lifecycle's terminal
// states (EXECUTED, CANCELLED, SYS_CANCELLED).
func (s Status) Terminal() bool {
	return s == Executed || s == Cancelled || s == SysCancelled
}

// Order is the mutable record the repository owns. All four variants
// share this header; which fields are meaningful depends on Kind, the
// same tagged-variant-as-struct approach the teacher uses for its
// domain records.
type Order struct {
	ID   int64
	Kind Kind
	Side Side

	Amount decimal.Decimal

	// OrderPrice is the limit leg price. Present for Limit orders, and
	// for TP/SL orders that are TP-Limit/SL-Limit (nil means TP-Market
	// / SL-Market).
	OrderPrice *decimal.Decimal

	// TriggerPrice is set only for TakeProfit/StopLoss orders.
	TriggerPrice *decimal.Decimal

	// TakeProfitChildID / StopLossChildID link a Limit parent to the
	// TP/SL children spawned on its execution (spec.md §4.9).
	TakeProfitChildID *int64
	StopLossChildID   *int64

	// TakeProfitOpts / StopLossOpts carry the pending child
	// specification for a Limit order before it executes and spawns
	// them.
	TakeProfitOpts *TakeProfitOptions
	StopLossOpts   *StopLossOptions

	// ParentID links a TP/SL child back to the Limit order that spawned
	// it, nil for standalone TP/SL and for Market/Limit orders.
	ParentID *int64

	Status Status

	DateCreated   time.Time
	DateUpdated   time.Time
	DateActivated *time.Time

	FillPrice  *decimal.Decimal
	TradingFee *decimal.Decimal
}

// IsStrategyOrder reports whether this order is a TakeProfit or
// StopLoss order, i.e. a member of the strategy-set the position
// sharing rules (§4.8) apply to.
func (o *Order) IsStrategyOrder() bool {
	return o.Kind == TakeProfit || o.Kind == StopLoss
}

// IsMarketLeg reports whether this order (or, for TP/SL, its activated
// leg) executes at the next candle's open rather than at a limit price.
func (o *Order) IsMarketLeg() bool {
	if o.Kind == Market {
		return true
	}
	return o.IsStrategyOrder() && o.OrderPrice == nil
}

// InvalidOrderData is returned when submission-time validation fails.
// Multiple violations are aggregated into one message, matching
// backintime/broker/validators.py's validate_limit_order.
type InvalidOrderData struct {
	Reasons []string
}

func (e *InvalidOrderData) Error() string {
	return fmt.Sprintf("order: invalid order data: %s", strings.Join(e.Reasons, "; "))
}

func newInvalidOrderData(reasons ...string) *InvalidOrderData {
	return &InvalidOrderData{Reasons: reasons}
}

// MarketOrderOptions describes a Market order submission. Exactly one of
// Amount / PercentageAmount must be set (PercentageAmount in (0,100]).
type MarketOrderOptions struct {
	Side             Side
	Amount           decimal.Decimal
	PercentageAmount decimal.Decimal
	UsePercentage    bool
}

// LimitOrderOptions describes a Limit order submission, optionally
// carrying TP/SL legs to spawn on execution.
type LimitOrderOptions struct {
	Side             Side
	OrderPrice       decimal.Decimal
	Amount           decimal.Decimal
	PercentageAmount decimal.Decimal
	UsePercentage    bool
	TakeProfit       *TakeProfitOptions
	StopLoss         *StopLossOptions
}

// TakeProfitOptions describes a TakeProfit submission (standalone or as
// a Limit order's child spec). OrderPrice nil means TP-Market.
type TakeProfitOptions struct {
	TriggerPrice     decimal.Decimal
	OrderPrice       *decimal.Decimal
	Amount           decimal.Decimal
	PercentageAmount decimal.Decimal
	UsePercentage    bool
}

// StopLossOptions is the StopLoss analogue of TakeProfitOptions.
type StopLossOptions struct {
	TriggerPrice     decimal.Decimal
	OrderPrice       *decimal.Decimal
	Amount           decimal.Decimal
	PercentageAmount decimal.Decimal
	UsePercentage    bool
}

func validateAmount(amount decimal.Decimal, usePercentage bool, percentage decimal.Decimal) []string {
	var reasons []string
	if usePercentage {
		if percentage.LessThanOrEqual(decimal.Zero) || percentage.GreaterThan(decimal.NewFromInt(100)) {
			reasons = append(reasons, fmt.Sprintf("percentage_amount %s must be in (0, 100]", percentage))
		}
	} else if amount.LessThanOrEqual(decimal.Zero) {
		reasons = append(reasons, fmt.Sprintf("amount %s must be > 0", amount))
	}
	return reasons
}

// ValidateMarket validates a MarketOrderOptions, mirroring
// validate_market_order.
func ValidateMarket(opts MarketOrderOptions) error {
	reasons := validateAmount(opts.Amount, opts.UsePercentage, opts.PercentageAmount)
	if len(reasons) > 0 {
		return newInvalidOrderData(reasons...)
	}
	return nil
}

// ValidateTakeProfit validates a TakeProfitOptions in isolation,
// mirroring validate_take_profit.
func ValidateTakeProfit(opts TakeProfitOptions) []string {
	var reasons []string
	reasons = append(reasons, validateAmount(opts.Amount, opts.UsePercentage, opts.PercentageAmount)...)
	if opts.TriggerPrice.LessThanOrEqual(decimal.Zero) {
		reasons = append(reasons, fmt.Sprintf("take_profit trigger_price %s must be > 0", opts.TriggerPrice))
	}
	if opts.OrderPrice != nil && opts.OrderPrice.LessThanOrEqual(decimal.Zero) {
		reasons = append(reasons, fmt.Sprintf("take_profit order_price %s must be > 0", *opts.OrderPrice))
	}
	return reasons
}

// ValidateStopLoss validates a StopLossOptions in isolation, mirroring
// validate_stop_loss.
func ValidateStopLoss(opts StopLossOptions) []string {
	var reasons []string
	reasons = append(reasons, validateAmount(opts.Amount, opts.UsePercentage, opts.PercentageAmount)...)
	if opts.TriggerPrice.LessThanOrEqual(decimal.Zero) {
		reasons = append(reasons, fmt.Sprintf("stop_loss trigger_price %s must be > 0", opts.TriggerPrice))
	}
	if opts.OrderPrice != nil && opts.OrderPrice.LessThanOrEqual(decimal.Zero) {
		reasons = append(reasons, fmt.Sprintf("stop_loss order_price %s must be > 0", *opts.OrderPrice))
	}
	return reasons
}

// ValidateLimit validates a LimitOrderOptions, aggregating its own
// violations with any from its TP/SL legs into a single
// InvalidOrderData, mirroring validate_limit_order.
func ValidateLimit(opts LimitOrderOptions) error {
	var reasons []string
	reasons = append(reasons, validateAmount(opts.Amount, opts.UsePercentage, opts.PercentageAmount)...)
	if opts.OrderPrice.LessThanOrEqual(decimal.Zero) {
		reasons = append(reasons, fmt.Sprintf("order_price %s must be > 0", opts.OrderPrice))
	}
	if opts.TakeProfit != nil {
		reasons = append(reasons, ValidateTakeProfit(*opts.TakeProfit)...)
	}
	if opts.StopLoss != nil {
		reasons = append(reasons, ValidateStopLoss(*opts.StopLoss)...)
	}
	if len(reasons) > 0 {
		return newInvalidOrderData(reasons...)
	}
	return nil
}

// ValidateTakeProfitStandalone validates a standalone TakeProfit
// submission, reporting as a single InvalidOrderData.
func ValidateTakeProfitStandalone(opts TakeProfitOptions) error {
	if reasons := ValidateTakeProfit(opts); len(reasons) > 0 {
		return newInvalidOrderData(reasons...)
	}
	return nil
}

// ValidateStopLossStandalone validates a standalone StopLoss submission,
// reporting as a single InvalidOrderData.
func ValidateStopLossStandalone(opts StopLossOptions) error {
	if reasons := ValidateStopLoss(opts); len(reasons) > 0 {
		return newInvalidOrderData(reasons...)
	}
	return nil
}

// Info is a read-only view of an order, the shape handed back to
// submitters and exposed via the broker proxy's iter_orders, mirroring
// backintime/broker/base.py's OrderInfo.
type Info struct {
	ID            int64
	Kind          Kind
	Side          Side
	Amount        decimal.Decimal
	OrderPrice    *decimal.Decimal
	TriggerPrice  *decimal.Decimal
	Status        Status
	DateCreated   time.Time
	DateUpdated   time.Time
	DateActivated *time.Time
	FillPrice     *decimal.Decimal
	TradingFee    *decimal.Decimal
}

// IsUnfulfilled reports whether the order has not yet filled, mirroring
// OrderInfo.is_unfulfilled (fill_price is None).
func (i Info) IsUnfulfilled() bool {
	return i.FillPrice == nil
}

// ToInfo snapshots o into a read-only Info.
func (o *Order) ToInfo() Info {
	return Info{
		ID:            o.ID,
		Kind:          o.Kind,
		Side:          o.Side,
		Amount:        o.Amount,
		OrderPrice:    o.OrderPrice,
		TriggerPrice:  o.TriggerPrice,
		Status:        o.Status,
		DateCreated:   o.DateCreated,
		DateUpdated:   o.DateUpdated,
		DateActivated: o.DateActivated,
		FillPrice:     o.FillPrice,
		TradingFee:    o.TradingFee,
	}
}

// StrategyOrderInfo additionally names the live TP/SL child ids attached
// to a Limit order, mirroring StrategyOrders{take_profit_id, stop_loss_id}.
type StrategyOrderInfo struct {
	TakeProfitID *int64
	StopLossID   *int64
}

// LimitOrderInfo is a read-only view of a Limit order that additionally
// carries its TP/SL child ids, mirroring backintime/broker/base.py's
// LimitOrderInfo. The ids are copied when the view is taken and are not
// refreshed afterwards; children spawned later do not appear in it.
type LimitOrderInfo struct {
	Info
	Children StrategyOrderInfo
}

// ToLimitInfo snapshots a Limit order together with the child ids
// currently recorded on it.
func (o *Order) ToLimitInfo() LimitOrderInfo {
	return LimitOrderInfo{
		Info:     o.ToInfo(),
		Children: StrategyOrderInfo{TakeProfitID: o.TakeProfitChildID, StopLossID: o.StopLossChildID},
	}
}
