package analytics

import (
	"sort"
	"time"

	"cryptoTracker/internal/domain"
)

const monthLayout = "2006-01"

// TradeStats summarises realized performance over the trade log. Only sells
// realize P&L, so win/loss figures count sells; buys contribute volume only.
type TradeStats struct {
	// Basic Metrics
	ClosedTrades  int     `json:"closedTrades"` // Sells
	WinningTrades int     `json:"winningTrades"`
	LosingTrades  int     `json:"losingTrades"`
	WinRate       float64 `json:"winRate"` // 0..1 over all sells, breakeven included
	TotalRealized float64 `json:"totalRealized"`
	AverageWin    float64 `json:"averageWin"`
	AverageLoss   float64 `json:"averageLoss"`  // Negative or zero
	ProfitFactor  float64 `json:"profitFactor"` // Gross wins over gross losses; 0 without losses
	Expectancy    float64 `json:"expectancy"`   // Mean realized P&L per sell
	BuyVolume     float64 `json:"buyVolume"`
	SellVolume    float64 `json:"sellVolume"`

	// Advanced Metrics
	MaxConsecutiveWins   int               `json:"maxConsecutiveWins"`
	MaxConsecutiveLosses int               `json:"maxConsecutiveLosses"`
	MaxDrawdown          float64           `json:"maxDrawdown"` // Largest fall of cumulative realized P&L from its peak
	MonthlyRealized      []MonthlyRealized `json:"monthlyRealized"`
	EquityCurve          []EquityPoint     `json:"equityCurve"`
}

// MonthlyRealized is the realized P&L of all sells dated in one calendar month.
type MonthlyRealized struct {
	Month    string  `json:"month"` // YYYY-MM
	Realized float64 `json:"realized"`
}

// EquityPoint is the cumulative realized P&L after a sell.
type EquityPoint struct {
	Time     time.Time `json:"time"`
	Value    float64   `json:"value"`
	Drawdown float64   `json:"drawdown"`
}

// Analyze computes TradeStats in trade-date order. trades is not modified.
func Analyze(trades []domain.Trade) TradeStats {
	stats := TradeStats{
		MonthlyRealized: []MonthlyRealized{},
		EquityCurve:     []EquityPoint{},
	}
	if len(trades) == 0 {
		return stats
	}

	ordered := make([]domain.Trade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].TradeDate.Equal(ordered[j].TradeDate) {
			return ordered[i].TradeDate.Before(ordered[j].TradeDate)
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	var cumulative, peak, grossWin, grossLoss float64
	var wins, losses int
	monthly := make(map[string]float64)

	for _, trade := range ordered {
		if trade.Direction == domain.Buy {
			stats.BuyVolume += trade.TotalValue
			continue
		}
		stats.SellVolume += trade.TotalValue
		stats.ClosedTrades++

		pnl := trade.RealizedPnl
		switch {
		case pnl > 0:
			stats.WinningTrades++
			grossWin += pnl
			wins++
			losses = 0
		case pnl < 0:
			stats.LosingTrades++
			grossLoss += pnl
			losses++
			wins = 0
		default:
			// Breakeven ends both streaks
			wins, losses = 0, 0
		}
		stats.MaxConsecutiveWins = max(stats.MaxConsecutiveWins, wins)
		stats.MaxConsecutiveLosses = max(stats.MaxConsecutiveLosses, losses)

		cumulative += pnl
		peak = max(peak, cumulative)
		drawdown := peak - cumulative
		stats.MaxDrawdown = max(stats.MaxDrawdown, drawdown)
		stats.EquityCurve = append(stats.EquityCurve, EquityPoint{
			Time:     trade.TradeDate,
			Value:    cumulative,
			Drawdown: drawdown,
		})

		monthly[trade.TradeDate.Format(monthLayout)] += pnl
	}

	stats.TotalRealized = cumulative
	if stats.ClosedTrades > 0 {
		stats.WinRate = float64(stats.WinningTrades) / float64(stats.ClosedTrades)
		stats.Expectancy = cumulative / float64(stats.ClosedTrades)
	}
	if stats.WinningTrades > 0 {
		stats.AverageWin = grossWin / float64(stats.WinningTrades)
	}
	if stats.LosingTrades > 0 {
		stats.AverageLoss = grossLoss / float64(stats.LosingTrades)
		stats.ProfitFactor = grossWin / -grossLoss
	}

	for month, realized := range monthly {
		stats.MonthlyRealized = append(stats.MonthlyRealized, MonthlyRealized{Month: month, Realized: realized})
	}
	sort.Slice(stats.MonthlyRealized, func(i, j int) bool {
		return stats.MonthlyRealized[i].Month < stats.MonthlyRealized[j].Month
	})
	return stats
}
