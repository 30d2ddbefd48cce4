// Package balance implements the dual-asset (fiat, crypto) account with a
// held-versus-available partition, grounded on
// backintime/broker/balance.py's Balance class.
package balance

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// InsufficientFunds is raised when a hold would exceed the available
// portion of the relevant asset.
type InsufficientFunds struct {
	Asset     string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFunds) Error() string {
	return fmt.Sprintf("balance: insufficient %s: requested %s, available %s", e.Asset, e.Requested, e.Available)
}

// Balance tracks total and available amounts of fiat and crypto. The
// invariant 0 <= available <= total is maintained by every method on
// this type; there is no way to construct a Balance that violates it
// other than New with negative inputs, which panics.
type Balance struct {
	fiat          decimal.Decimal
	availableFiat decimal.Decimal
	crypto        decimal.Decimal
	availableCrypto decimal.Decimal
}

// New creates a balance with the given starting fiat and crypto, fully
// available.
func New(startFiat, startCrypto decimal.Decimal) *Balance {
	if startFiat.IsNegative() || startCrypto.IsNegative() {
		panic("balance: starting amounts must be non-negative")
	}
	return &Balance{
		fiat:            startFiat,
		availableFiat:   startFiat,
		crypto:          startCrypto,
		availableCrypto: startCrypto,
	}
}

// Fiat returns the total fiat balance.
func (b *Balance) Fiat() decimal.Decimal { return b.fiat }

// AvailableFiat returns the available (unheld) fiat balance.
func (b *Balance) AvailableFiat() decimal.Decimal { return b.availableFiat }

// Crypto returns the total crypto balance.
func (b *Balance) Crypto() decimal.Decimal { return b.crypto }

// AvailableCrypto returns the available (unheld) crypto balance.
func (b *Balance) AvailableCrypto() decimal.Decimal { return b.availableCrypto }

// HoldFiat moves amount from available to held fiat. Fails with
// InsufficientFunds if amount exceeds availableFiat.
func (b *Balance) HoldFiat(amount decimal.Decimal) error {
	if amount.GreaterThan(b.availableFiat) {
		return &InsufficientFunds{Asset: "fiat", Requested: amount, Available: b.availableFiat}
	}
	b.availableFiat = b.availableFiat.Sub(amount)
	return nil
}

// HoldCrypto moves amount from available to held crypto. Fails with
// InsufficientFunds if amount exceeds availableCrypto.
func (b *Balance) HoldCrypto(amount decimal.Decimal) error {
	if amount.GreaterThan(b.availableCrypto) {
		return &InsufficientFunds{Asset: "crypto", Requested: amount, Available: b.availableCrypto}
	}
	b.availableCrypto = b.availableCrypto.Sub(amount)
	return nil
}

// ReleaseFiat returns held fiat to available, without affecting total.
func (b *Balance) ReleaseFiat(amount decimal.Decimal) {
	b.availableFiat = b.availableFiat.Add(amount)
}

// ReleaseCrypto returns held crypto to available, without affecting total.
func (b *Balance) ReleaseCrypto(amount decimal.Decimal) {
	b.availableCrypto = b.availableCrypto.Add(amount)
}

// WithdrawFiat decreases the total fiat only -- the withdrawn portion
// must already be held (not available).
func (b *Balance) WithdrawFiat(amount decimal.Decimal) {
	b.fiat = b.fiat.Sub(amount)
}

// WithdrawCrypto decreases the total crypto only -- the withdrawn portion
// must already be held (not available).
func (b *Balance) WithdrawCrypto(amount decimal.Decimal) {
	b.crypto = b.crypto.Sub(amount)
}

// DepositFiat increases both total and available fiat.
func (b *Balance) DepositFiat(amount decimal.Decimal) {
	b.fiat = b.fiat.Add(amount)
	b.availableFiat = b.availableFiat.Add(amount)
}

// DepositCrypto increases both total and available crypto.
func (b *Balance) DepositCrypto(amount decimal.Decimal) {
	b.crypto = b.crypto.Add(amount)
	b.availableCrypto = b.availableCrypto.Add(amount)
}

// Info is a read-only snapshot of a Balance, handed to observers (the
// strategy's broker proxy, the result aggregator) instead of the mutable
// type.
type Info struct {
	Fiat            decimal.Decimal
	AvailableFiat   decimal.Decimal
	Crypto          decimal.Decimal
	AvailableCrypto decimal.Decimal
}

// Snapshot returns a read-only copy of the current balance state.
func (b *Balance) Snapshot() Info {
	return Info{
		Fiat:            b.fiat,
		AvailableFiat:   b.availableFiat,
		Crypto:          b.crypto,
		AvailableCrypto: b.availableCrypto,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("Balance(fiat=%s, available_fiat=%s, crypto=%s, available_crypto=%s)",
		i.Fiat, i.AvailableFiat, i.Crypto, i.AvailableCrypto)
}
