package pnl

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Stats is the aggregate profit/loss summary over one algorithm's run of
// TradeProfit results, mirroring backintime/result/stats.py's get_stats.
type Stats struct {
	Algorithm       Algorithm
	Wins            int
	Losses          int
	TotalGain       decimal.Decimal
	TotalLoss       decimal.Decimal
	AvgProfit       float64
	AvgLoss         float64
	ProfitLossRatio float64
	WinLossRatio    float64
	WinRate         float64
	BestAbsolute    decimal.Decimal
	WorstAbsolute   decimal.Decimal
	BestRelative    float64
	WorstRelative   float64
}

// ComputeStats folds a slice of TradeProfit into aggregate Stats. Ratios
// with a zero denominator are reported as NaN, matching the original's
// pandas-driven division-by-zero convention.
func ComputeStats(algorithm Algorithm, profits []TradeProfit) Stats {
	s := Stats{
		Algorithm:     algorithm,
		TotalGain:     decimal.Zero,
		TotalLoss:     decimal.Zero,
		BestRelative:  math.NaN(),
		WorstRelative: math.NaN(),
	}
	if len(profits) == 0 {
		s.AvgProfit = math.NaN()
		s.AvgLoss = math.NaN()
		s.ProfitLossRatio = math.NaN()
		s.WinLossRatio = math.NaN()
		s.WinRate = math.NaN()
		return s
	}

	s.BestAbsolute = profits[0].AbsoluteProfit
	s.WorstAbsolute = profits[0].AbsoluteProfit
	for i, p := range profits {
		if p.AbsoluteProfit.IsPositive() {
			s.Wins++
			s.TotalGain = s.TotalGain.Add(p.AbsoluteProfit)
		} else if p.AbsoluteProfit.IsNegative() {
			s.Losses++
			s.TotalLoss = s.TotalLoss.Add(p.AbsoluteProfit.Abs())
		}
		if i == 0 || p.AbsoluteProfit.GreaterThan(s.BestAbsolute) {
			s.BestAbsolute = p.AbsoluteProfit
		}
		if i == 0 || p.AbsoluteProfit.LessThan(s.WorstAbsolute) {
			s.WorstAbsolute = p.AbsoluteProfit
		}
		if !math.IsNaN(p.RelativeProfit) {
			if math.IsNaN(s.BestRelative) || p.RelativeProfit > s.BestRelative {
				s.BestRelative = p.RelativeProfit
			}
			if math.IsNaN(s.WorstRelative) || p.RelativeProfit < s.WorstRelative {
				s.WorstRelative = p.RelativeProfit
			}
		}
	}

	s.WinRate = float64(s.Wins) / float64(len(profits)) * 100

	if s.Wins > 0 {
		gainF, _ := s.TotalGain.Float64()
		s.AvgProfit = gainF / float64(s.Wins)
	} else {
		s.AvgProfit = math.NaN()
	}
	if s.Losses > 0 {
		lossF, _ := s.TotalLoss.Float64()
		s.AvgLoss = lossF / float64(s.Losses)
	} else {
		s.AvgLoss = math.NaN()
	}

	if s.Losses == 0 {
		s.WinLossRatio = math.NaN()
		s.ProfitLossRatio = math.NaN()
	} else {
		s.WinLossRatio = float64(s.Wins) / float64(s.Losses)
		if s.AvgLoss == 0 {
			s.ProfitLossRatio = math.NaN()
		} else {
			s.ProfitLossRatio = s.AvgProfit / s.AvgLoss
		}
	}
	return s
}

// String mirrors stats.py's _repr_profit formatting for log/report output.
func (s Stats) String() string {
	return fmt.Sprintf(
		"%s: wins=%d losses=%d win_rate=%.2f%% total_gain=%s total_loss=%s profit_loss_ratio=%.4f win_loss_ratio=%.4f best=%s worst=%s",
		s.Algorithm, s.Wins, s.Losses, s.WinRate, s.TotalGain, s.TotalLoss, s.ProfitLossRatio, s.WinLossRatio, s.BestAbsolute, s.WorstAbsolute,
	)
}
