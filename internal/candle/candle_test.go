package candle

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"chronotrader/internal/timeframe"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestNewDerivesCloseTime(t *testing.T) {
	open := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	c, err := New(timeframe.M1, open, d("100"), d("110"), d("90"), d("105"), d("10"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantClose := open.Add(time.Minute).Add(-time.Millisecond)
	if !c.CloseTime.Equal(wantClose) {
		t.Errorf("close time = %v, want %v", c.CloseTime, wantClose)
	}
}

func TestValidateRejectsOutOfRangeOpen(t *testing.T) {
	open := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := New(timeframe.M1, open, d("200"), d("110"), d("90"), d("105"), d("10"))
	if err == nil {
		t.Fatal("expected validation error for open above high")
	}
}

func TestValidateRejectsLowGreaterThanHigh(t *testing.T) {
	open := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := New(timeframe.M1, open, d("100"), d("90"), d("110"), d("95"), d("10"))
	if err == nil {
		t.Fatal("expected validation error for low above high")
	}
}

func TestQuantizeFloorVsRoundHalfUp(t *testing.T) {
	p := DefaultPrecision()
	in := d("10.129")
	if got := p.QuantizeFiatInput(in); !got.Equal(d("10.12")) {
		t.Errorf("floor quantize = %s, want 10.12", got)
	}
	if got := p.QuantizeFiatDerived(in); !got.Equal(d("10.13")) {
		t.Errorf("round-half-up quantize = %s, want 10.13", got)
	}
}
