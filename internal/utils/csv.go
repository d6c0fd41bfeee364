package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"cryptoTracker/internal/domain"
)

var tradeHeader = []string{"date", "coin", "type", "amount", "price", "total_value", "realized_pnl", "exchange", "notes", "id"}

// WriteTrades writes trades as CSV to w, header first.
func WriteTrades(w io.Writer, trades []domain.Trade) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(tradeHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, t := range trades {
		err := writer.Write([]string{
			t.TradeDate.Format(time.RFC3339),
			t.CoinSymbol,
			string(t.Direction),
			formatFloat(t.Amount),
			formatFloat(t.UnitPrice),
			formatFloat(t.TotalValue),
			formatFloat(t.RealizedPnl),
			t.Exchange,
			t.Notes,
			t.ID,
		})
		if err != nil {
			return fmt.Errorf("failed to write trade %s: %w", t.ID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteTradesToCSV writes trades to filename, creating or truncating it.
func WriteTradesToCSV(trades []domain.Trade, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteTrades(file, trades)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
