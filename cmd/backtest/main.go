package main

import (
	"context"
	"flag"
	"log"

	"github.com/shopspring/decimal"

	"chronotrader/config"
	"chronotrader/internal/backtest"
	"chronotrader/internal/candle"
	"chronotrader/internal/fees"
	"chronotrader/internal/logging"
	"chronotrader/internal/pnl"
	"chronotrader/internal/prefetch"
	"chronotrader/internal/timeframe"
)

func main() {
	csvPath := flag.String("csv", "", "path to a CSV candle export (open_time,open,high,low,close,volume)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := logging.New(&logging.Config{
		Level:      cfg.Logging.Level,
		Output:     cfg.Logging.Output,
		JSONFormat: cfg.Logging.JSONFormat,
		Component:  "main",
	})
	logging.SetDefault(logger)
	logger.Info("chronotrader starting")

	base, ok := timeframeFromString(cfg.Backtest.BaseTimeframe)
	if !ok {
		log.Fatalf("unrecognized base_timeframe %q", cfg.Backtest.BaseTimeframe)
	}

	startMoney, err := cfg.StartMoneyDecimal()
	if err != nil {
		log.Fatalf("invalid start_money: %v", err)
	}
	makerFee, err := cfg.MakerFeeDecimal()
	if err != nil {
		log.Fatalf("invalid maker_fee: %v", err)
	}
	takerFee, err := cfg.TakerFeeDecimal()
	if err != nil {
		log.Fatalf("invalid taker_fee: %v", err)
	}
	feeEstimator, err := fees.New(makerFee, takerFee)
	if err != nil {
		log.Fatalf("invalid fee schedule: %v", err)
	}
	precision := candle.Precision{FiatPlaces: cfg.Backtest.MinFiatPrecision, CryptoPlaces: cfg.Backtest.MinCryptoPrecision}

	factory := &buyAndHoldFactory{base: base}
	driver, err := backtest.New(base, startMoney, decimal.Zero, feeEstimator, precision, factory)
	if err != nil {
		log.Fatalf("failed to construct driver: %v", err)
	}

	since, err := cfg.SinceTime()
	if err != nil {
		log.Fatalf("invalid since: %v", err)
	}
	until, err := cfg.UntilTime()
	if err != nil {
		log.Fatalf("invalid until: %v", err)
	}

	if *csvPath == "" {
		log.Fatal("no candle source configured: pass -csv <file>")
	}
	source := newCSVCandleSource(*csvPath, base)

	prefetchOpt := prefetchOptionFromString(cfg.Backtest.PrefetchOption)
	res, err := driver.Run(context.Background(), source, since, until, prefetchOpt)
	if err != nil {
		log.Fatalf("backtest run failed: %v", err)
	}

	if res.Err != nil {
		logger.Error("backtest terminated early", "error", res.Err.Error())
	}
	logger.Info("backtest finished",
		"strategy", res.StrategyName,
		"trades", len(res.Trades),
		"orders", len(res.Orders),
		"final_fiat", res.FinalBalance.Fiat.String(),
	)

	algorithm := pnl.Algorithm(cfg.Backtest.ProfitLossAlgorithm)
	_, stats, err := res.GetStats(algorithm)
	if err != nil {
		log.Fatalf("computing stats: %v", err)
	}
	logger.Info(stats.String())
}

func timeframeFromString(s string) (timeframe.Timeframe, bool) {
	for _, tf := range timeframe.All() {
		if tf.String() == s {
			return tf, true
		}
	}
	return 0, false
}

func prefetchOptionFromString(s string) prefetch.Option {
	switch s {
	case "PREFETCH_SINCE":
		return prefetch.Since
	case "PREFETCH_NONE":
		return prefetch.None
	default:
		return prefetch.Until
	}
}
