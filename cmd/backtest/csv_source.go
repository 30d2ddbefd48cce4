// CSV candle source: a minimal, file-based implementation of
// backtest.CandleSource for running the engine against a local candle
// export. Grounded on original_source/backintime/data/csv/csv_candles.py
// (CSVCandlesSchema / CSVCandlesIterator); candle sources are explicitly
// out of scope as *library* code per SPEC_FULL.md §1, so this lives in
// the CLI wiring layer rather than internal/.
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"chronotrader/internal/backtest"
	"chronotrader/internal/candle"
	"chronotrader/internal/timeframe"
)

// csvCandleSource reads OHLCV rows from a CSV file with header
// open_time,open,high,low,close,volume (open_time as RFC3339).
type csvCandleSource struct {
	path string
	tf   timeframe.Timeframe
}

func newCSVCandleSource(path string, tf timeframe.Timeframe) *csvCandleSource {
	return &csvCandleSource{path: path, tf: tf}
}

func (s *csvCandleSource) Create(ctx context.Context, since, until time.Time) (backtest.CandleIterator, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("csv candle source: %w", err)
	}
	r := csv.NewReader(f)
	if _, err := r.Read(); err != nil { // discard header
		f.Close()
		return nil, fmt.Errorf("csv candle source: reading header: %w", err)
	}
	return &csvCandleIterator{file: f, r: r, tf: s.tf, since: since, until: until}, nil
}

type csvCandleIterator struct {
	file  *os.File
	r     *csv.Reader
	tf    timeframe.Timeframe
	since time.Time
	until time.Time
}

func (it *csvCandleIterator) Next() (bool, candle.Candle, error) {
	for {
		record, err := it.r.Read()
		if err == io.EOF {
			it.file.Close()
			return false, candle.Candle{}, nil
		}
		if err != nil {
			it.file.Close()
			return false, candle.Candle{}, fmt.Errorf("csv candle source: %w", err)
		}
		if len(record) < 6 {
			it.file.Close()
			return false, candle.Candle{}, fmt.Errorf("csv candle source: expected 6 columns, got %d", len(record))
		}
		openTime, err := time.Parse(time.RFC3339, record[0])
		if err != nil {
			it.file.Close()
			return false, candle.Candle{}, fmt.Errorf("csv candle source: parsing open_time: %w", err)
		}
		if openTime.Before(it.since) {
			continue
		}
		closeTime := timeframe.CloseTime(openTime, it.tf)
		if !closeTime.Before(it.until) {
			it.file.Close()
			return false, candle.Candle{}, nil
		}
		open, oErr := decimal.NewFromString(record[1])
		high, hErr := decimal.NewFromString(record[2])
		low, lErr := decimal.NewFromString(record[3])
		cls, cErr := decimal.NewFromString(record[4])
		vol, vErr := decimal.NewFromString(record[5])
		for _, err := range []error{oErr, hErr, lErr, cErr, vErr} {
			if err != nil {
				it.file.Close()
				return false, candle.Candle{}, fmt.Errorf("csv candle source: parsing row: %w", err)
			}
		}
		c, err := candle.New(it.tf, openTime, open, high, low, cls, vol)
		if err != nil {
			it.file.Close()
			return false, candle.Candle{}, fmt.Errorf("csv candle source: %w", err)
		}
		return true, c, nil
	}
}
