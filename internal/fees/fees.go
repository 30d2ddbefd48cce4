// Package fees implements the maker/taker fee estimator, grounded on
// backintime/broker/fees.py's FeesEstimator.
package fees

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Estimator applies maker and taker fee rates to nominal amounts. Both
// rates must lie in [0, 1).
type Estimator struct {
	Maker decimal.Decimal
	Taker decimal.Decimal
}

// New validates maker and taker and returns an Estimator.
func New(maker, taker decimal.Decimal) (Estimator, error) {
	if err := validateFee("maker", maker); err != nil {
		return Estimator{}, err
	}
	if err := validateFee("taker", taker); err != nil {
		return Estimator{}, err
	}
	return Estimator{Maker: maker, Taker: taker}, nil
}

func validateFee(name string, fee decimal.Decimal) error {
	if fee.IsNegative() || fee.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("fees: %s fee %s must be in [0, 1)", name, fee)
	}
	return nil
}

// TakerPrice returns nominal inflated by the taker fee -- the fiat cost
// of a taker BUY of the given nominal amount.
func (e Estimator) TakerPrice(nominal decimal.Decimal) decimal.Decimal {
	return nominal.Mul(decimal.NewFromInt(1).Add(e.Taker))
}

// MakerPrice returns nominal inflated by the maker fee -- the fiat cost
// of a maker BUY of the given nominal amount.
func (e Estimator) MakerPrice(nominal decimal.Decimal) decimal.Decimal {
	return nominal.Mul(decimal.NewFromInt(1).Add(e.Maker))
}

// TakerGain returns nominal deflated by the taker fee -- the fiat
// proceeds of a taker SELL of the given nominal amount.
func (e Estimator) TakerGain(nominal decimal.Decimal) decimal.Decimal {
	return nominal.Mul(decimal.NewFromInt(1).Sub(e.Taker))
}

// MakerGain returns nominal deflated by the maker fee -- the fiat
// proceeds of a maker SELL of the given nominal amount.
func (e Estimator) MakerGain(nominal decimal.Decimal) decimal.Decimal {
	return nominal.Mul(decimal.NewFromInt(1).Sub(e.Maker))
}

// MaxFiatForTaker returns the largest nominal amount a taker BUY of
// availableFiat can afford: available / (1 + taker_fee).
func (e Estimator) MaxFiatForTaker(availableFiat decimal.Decimal) decimal.Decimal {
	return availableFiat.Div(decimal.NewFromInt(1).Add(e.Taker))
}

// MaxFiatForMaker returns the largest nominal amount a maker BUY of
// availableFiat can afford: available / (1 + maker_fee).
func (e Estimator) MaxFiatForMaker(availableFiat decimal.Decimal) decimal.Decimal {
	return availableFiat.Div(decimal.NewFromInt(1).Add(e.Maker))
}
