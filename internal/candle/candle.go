// Package candle defines the OHLCV record the rest of the engine is built
// around, plus the fixed-precision quantization rules the spec imposes on
// every monetary value that flows through it.
package candle

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"chronotrader/internal/timeframe"
)

// Candle is one OHLCV bar of a given timeframe.
type Candle struct {
	OpenTime  time.Time
	CloseTime time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
	IsClosed  bool
}

// New builds a Candle for the given timeframe, deriving CloseTime from
// OpenTime, and validates the OHLC invariants.
func New(tf timeframe.Timeframe, openTime time.Time, open, high, low, close, volume decimal.Decimal) (Candle, error) {
	c := Candle{
		OpenTime:  openTime,
		CloseTime: timeframe.CloseTime(openTime, tf),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
		Volume:    volume,
		IsClosed:  true,
	}
	return c, c.Validate()
}

// Validate checks the invariants the spec requires of every candle:
// low <= open,close <= high, low <= high, close_time > open_time.
func (c Candle) Validate() error {
	if !c.CloseTime.After(c.OpenTime) {
		return fmt.Errorf("candle: close_time %s must be after open_time %s", c.CloseTime, c.OpenTime)
	}
	if c.Low.GreaterThan(c.High) {
		return fmt.Errorf("candle: low %s greater than high %s", c.Low, c.High)
	}
	if c.Low.GreaterThan(c.Open) || c.Open.GreaterThan(c.High) {
		return fmt.Errorf("candle: open %s outside [low %s, high %s]", c.Open, c.Low, c.High)
	}
	if c.Low.GreaterThan(c.Close) || c.Close.GreaterThan(c.High) {
		return fmt.Errorf("candle: close %s outside [low %s, high %s]", c.Close, c.Low, c.High)
	}
	return nil
}

// QuantizeMode selects rounding behaviour for Quantize, matching spec.md
// §3's "floor on input, round-half-up on derived" discipline.
type QuantizeMode int

const (
	// Floor truncates toward zero, used for quantities taken directly
	// from order input (amount, order_price, trigger_price).
	Floor QuantizeMode = iota
	// RoundHalfUp rounds to nearest with ties away from zero, used for
	// values the broker derives (fill price, trading fee, computed
	// quantities).
	RoundHalfUp
)

// Quantize rounds v to the given number of decimal places (derived from a
// step like 0.01 or 0.00000001) using the requested mode.
func Quantize(v decimal.Decimal, places int32, mode QuantizeMode) decimal.Decimal {
	switch mode {
	case Floor:
		return v.Truncate(places)
	default:
		return v.Round(places)
	}
}

// Precision holds the two fixed-precision settings established at broker
// construction: the number of decimal places for fiat and crypto values.
type Precision struct {
	FiatPlaces   int32
	CryptoPlaces int32
}

// QuantizeFiatInput quantizes a fiat-denominated input value (floor).
func (p Precision) QuantizeFiatInput(v decimal.Decimal) decimal.Decimal {
	return Quantize(v, p.FiatPlaces, Floor)
}

// QuantizeCryptoInput quantizes a crypto-denominated input value (floor).
func (p Precision) QuantizeCryptoInput(v decimal.Decimal) decimal.Decimal {
	return Quantize(v, p.CryptoPlaces, Floor)
}

// QuantizeFiatDerived quantizes a fiat-denominated derived value
// (round-half-up), e.g. a computed trading fee.
func (p Precision) QuantizeFiatDerived(v decimal.Decimal) decimal.Decimal {
	return Quantize(v, p.FiatPlaces, RoundHalfUp)
}

// QuantizeCryptoDerived quantizes a crypto-denominated derived value
// (round-half-up), e.g. a computed fill quantity.
func (p Precision) QuantizeCryptoDerived(v decimal.Decimal) decimal.Decimal {
	return Quantize(v, p.CryptoPlaces, RoundHalfUp)
}

// DefaultPrecision mirrors the spec's example precisions: 0.01 fiat,
// 0.00000001 crypto.
func DefaultPrecision() Precision {
	return Precision{FiatPlaces: 2, CryptoPlaces: 8}
}
