package balance

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestHoldFiatDecreasesAvailableOnly(t *testing.T) {
	b := New(d("10050"), d("0"))
	if err := b.HoldFiat(d("10000")); err != nil {
		t.Fatalf("hold: %v", err)
	}
	if !b.AvailableFiat().Equal(d("50")) {
		t.Errorf("available fiat = %s, want 50", b.AvailableFiat())
	}
	if !b.Fiat().Equal(d("10050")) {
		t.Errorf("total fiat = %s, want unchanged 10050", b.Fiat())
	}
}

func TestHoldFiatInsufficientFunds(t *testing.T) {
	b := New(d("100"), d("0"))
	err := b.HoldFiat(d("101"))
	if err == nil {
		t.Fatal("expected InsufficientFunds")
	}
	if _, ok := err.(*InsufficientFunds); !ok {
		t.Errorf("error type = %T, want *InsufficientFunds", err)
	}
}

func TestWithdrawDecreasesTotalOnly(t *testing.T) {
	b := New(d("1000"), d("0"))
	if err := b.HoldFiat(d("400")); err != nil {
		t.Fatalf("hold: %v", err)
	}
	b.WithdrawFiat(d("400"))
	if !b.Fiat().Equal(d("600")) {
		t.Errorf("total fiat = %s, want 600", b.Fiat())
	}
	if !b.AvailableFiat().Equal(d("600")) {
		t.Errorf("available fiat = %s, want 600", b.AvailableFiat())
	}
}

func TestReleaseReturnsHeldToAvailable(t *testing.T) {
	b := New(d("1000"), d("0"))
	if err := b.HoldFiat(d("400")); err != nil {
		t.Fatalf("hold: %v", err)
	}
	b.ReleaseFiat(d("400"))
	if !b.AvailableFiat().Equal(d("1000")) {
		t.Errorf("available fiat after release = %s, want 1000", b.AvailableFiat())
	}
}

func TestDepositIncreasesBothTotalAndAvailable(t *testing.T) {
	b := New(d("0"), d("0"))
	b.DepositCrypto(d("10"))
	if !b.Crypto().Equal(d("10")) || !b.AvailableCrypto().Equal(d("10")) {
		t.Errorf("deposit crypto = %s/%s, want 10/10", b.Crypto(), b.AvailableCrypto())
	}
}
