package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"cryptoTracker/internal/analytics"
	"cryptoTracker/internal/app"
	"cryptoTracker/internal/domain"
	"cryptoTracker/internal/ports"
)

const dateLayout = "2006-01-02"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func percent(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

func printSummary(w io.Writer, s domain.PortfolioSummary) {
	tw := newTable(w)
	fmt.Fprintf(tw, "Total value:\t%s\n", money(s.TotalMarketValue))
	fmt.Fprintf(tw, "Invested:\t%s\n", money(s.TotalInvested))
	fmt.Fprintf(tw, "P&L:\t%s (%s)\n", money(s.TotalProfitAndLoss), percent(s.TotalProfitAndLossPercent))
	fmt.Fprintf(tw, "Coins:\t%d\n", s.PositionCount)
	tw.Flush()
}

func printPositions(w io.Writer, positions []domain.Position) {
	if len(positions) == 0 {
		fmt.Fprintln(w, "No positions.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tCOIN\tHOLDINGS\tAVG PRICE\tPRICE\t24H\tVALUE\tP&L\tP&L %\tSOURCE")
	for _, p := range positions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Symbol, amount(p.Holdings), money(p.AverageBuyPrice), money(p.CurrentPrice),
			percent(p.PercentChange24h), money(p.MarketValue), money(p.ProfitAndLoss),
			percent(p.ProfitAndLossPct), sourceLabel(p.QuoteSource))
	}
	tw.Flush()
}

func printTrades(w io.Writer, trades []domain.Trade) {
	if len(trades) == 0 {
		fmt.Fprintln(w, "No trades.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tDATE\tCOIN\tTYPE\tAMOUNT\tPRICE\tTOTAL\tREALIZED\tEXCHANGE")
	for _, t := range trades {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.TradeDate.Format(dateLayout), t.CoinSymbol, t.Direction, amount(t.Amount),
			money(t.UnitPrice), money(t.TotalValue), money(t.RealizedPnl), t.Exchange)
	}
	tw.Flush()
}

func printWatchlist(w io.Writer, entries []domain.WatchlistEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "Watchlist is empty.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tCOIN\tPRICE\t24H\tSOURCE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Symbol, money(e.CurrentPrice), percent(e.PercentChange24h), sourceLabel(e.QuoteSource))
	}
	tw.Flush()
}

func printAlerts(w io.Writer, alerts []domain.Alert) {
	if len(alerts) == 0 {
		fmt.Fprintln(w, "No alerts.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tCOIN\tCONDITION\tTARGET\tTRIGGERED\tAT PRICE")
	for _, a := range alerts {
		triggered, at := "-", "-"
		if a.TriggeredAt != nil {
			triggered = a.TriggeredAt.Format(time.RFC3339)
			at = money(a.TriggerPrice)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.CoinSymbol, a.Condition, money(a.TargetPrice), triggered, at)
	}
	tw.Flush()
}

func printStats(w io.Writer, s analytics.TradeStats) {
	tw := newTable(w)
	fmt.Fprintf(tw, "Closed trades:\t%d (%d won, %d lost)\n", s.ClosedTrades, s.WinningTrades, s.LosingTrades)
	fmt.Fprintf(tw, "Win rate:\t%s\n", percent(s.WinRate*100))
	fmt.Fprintf(tw, "Realized P&L:\t%s\n", money(s.TotalRealized))
	fmt.Fprintf(tw, "Average win / loss:\t%s / %s\n", money(s.AverageWin), money(s.AverageLoss))
	fmt.Fprintf(tw, "Profit factor:\t%.2f\n", s.ProfitFactor)
	fmt.Fprintf(tw, "Max drawdown:\t%s\n", money(s.MaxDrawdown))
	fmt.Fprintf(tw, "Volume bought / sold:\t%s / %s\n", money(s.BuyVolume), money(s.SellVolume))
	for _, m := range s.MonthlyRealized {
		fmt.Fprintf(tw, "  %s\t%s\n", m.Month, money(m.Realized))
	}
	tw.Flush()
}

func sourceLabel(s domain.QuoteSource) string {
	if s == "" {
		return "-"
	}
	return string(s)
}

// printTriggered is the CLI notifier: fired alerts are printed as they happen.
func printTriggered(w io.Writer) app.Notifier {
	return func(_ context.Context, alerts []domain.Alert) {
		for _, a := range alerts {
			fmt.Fprintf(w, "ALERT: %s is %s %s (price %s)\n", a.CoinSymbol, a.Condition, money(a.TargetPrice), money(a.TriggerPrice))
		}
	}
}

// tolerateUnsaved reports a persistence failure as a warning. Close flushes
// the dirty keys again and returns the error if the retry fails too.
func tolerateUnsaved(cmd *cobra.Command, err error) error {
	if errors.Is(err, ports.ErrPersistence) {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		return nil
	}
	return err
}

func parsePositive(name, raw string) (float64, error) {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive number: %w", name, raw, ports.ErrInvalidRequest)
	}
	return value, nil
}

func parseTradeDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC3339: %w", raw, ports.ErrInvalidRequest)
	}
	return t, nil
}
