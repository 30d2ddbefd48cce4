package logging

import (
	"context"
	"time"
)

type contextKey string

const loggerKey contextKey = "logger"

// FromContext retrieves the logger from context, falling back to the
// default logger if none was attached.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok {
		return l
	}
	return Default()
}

// NewContext attaches a logger to ctx.
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// WithTraceContext attaches a logger carrying the given run id to ctx,
// mirroring the per-request trace id the teacher's HTTP middleware
// generated, but keyed to a backtest run instead of an HTTP request.
func WithTraceContext(ctx context.Context, runID string) (context.Context, *Logger) {
	l := Default().WithTraceID(runID)
	return NewContext(ctx, l), l
}

// BacktestContext creates a logger context scoped to one backtest run.
func BacktestContext(symbol string, since, until time.Time) *Logger {
	return Default().WithFields(map[string]interface{}{
		"symbol": symbol,
		"since":  since.Format(time.RFC3339),
		"until":  until.Format(time.RFC3339),
	}).WithComponent("backtest")
}

// OrderContext creates a logger context scoped to one order.
func OrderContext(orderID int64, side, orderType string) *Logger {
	return Default().WithFields(map[string]interface{}{
		"order_id":   orderID,
		"side":       side,
		"order_type": orderType,
	}).WithComponent("broker")
}

// TradeContext creates a logger context scoped to one trade execution.
func TradeContext(tradeID, orderID int64, side string, amount, price float64) *Logger {
	return Default().WithFields(map[string]interface{}{
		"trade_id": tradeID,
		"order_id": orderID,
		"side":     side,
		"amount":   amount,
		"price":    price,
	}).WithComponent("broker")
}
