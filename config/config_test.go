package config

import "testing"

func TestValidateRejectsFeeOutOfRange(t *testing.T) {
	cfg := defaultConfig()
	cfg.Backtest.Since = "2021-01-01T00:00:00Z"
	cfg.Backtest.Until = "2021-02-01T00:00:00Z"
	cfg.Backtest.MakerFee = "1.5"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for maker_fee >= 1")
	}
}

func TestValidateRejectsUntilBeforeSince(t *testing.T) {
	cfg := defaultConfig()
	cfg.Backtest.Since = "2021-02-01T00:00:00Z"
	cfg.Backtest.Until = "2021-01-01T00:00:00Z"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for until before since")
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := defaultConfig()
	cfg.Backtest.Since = "2021-01-01T00:00:00Z"
	cfg.Backtest.Until = "2021-02-01T00:00:00Z"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsUnknownPrefetchOption(t *testing.T) {
	cfg := defaultConfig()
	cfg.Backtest.Since = "2021-01-01T00:00:00Z"
	cfg.Backtest.Until = "2021-02-01T00:00:00Z"
	cfg.Backtest.PrefetchOption = "BOGUS"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unrecognized prefetch_option")
	}
}
