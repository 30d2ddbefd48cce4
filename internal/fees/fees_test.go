package fees

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

func TestMaxFiatForTakerAndMaker(t *testing.T) {
	e, err := New(d("0.005"), d("0.005"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got := e.MaxFiatForTaker(d("10050"))
	if !got.Equal(d("10000")) {
		t.Errorf("max fiat for taker = %s, want 10000", got)
	}
	got = e.MaxFiatForMaker(d("10050"))
	if !got.Equal(d("10000")) {
		t.Errorf("max fiat for maker = %s, want 10000", got)
	}
}

func TestRejectsOutOfRangeFee(t *testing.T) {
	if _, err := New(d("1"), d("0.01")); err == nil {
		t.Fatal("expected error for maker fee == 1")
	}
	if _, err := New(d("-0.01"), d("0.01")); err == nil {
		t.Fatal("expected error for negative maker fee")
	}
}

func TestTakerPriceAndGain(t *testing.T) {
	e, _ := New(d("0"), d("0.01"))
	if got := e.TakerPrice(d("100")); !got.Equal(d("101")) {
		t.Errorf("taker price = %s, want 101", got)
	}
	if got := e.TakerGain(d("100")); !got.Equal(d("99")) {
		t.Errorf("taker gain = %s, want 99", got)
	}
}
