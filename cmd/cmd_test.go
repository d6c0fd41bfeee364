package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoTracker/internal/ports"
)

func execute(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--db", db, "--log-level", "error"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func setupCLI(t *testing.T) string {
	t.Helper()
	t.Setenv("PRICE_PROVIDER", "synthetic")
	t.Setenv("SYNTHETIC_SEED", "7")
	t.Cleanup(func() {
		_ = tradesCmd.Flags().Set("csv", "")
		_ = buyCmd.Flags().Set("date", "")
		_ = buyCmd.Flags().Set("exchange", "")
	})
	return filepath.Join(t.TempDir(), "tracker.db")
}

func TestCLI_TradesPersistAcrossInvocations(t *testing.T) {
	db := setupCLI(t)

	out, err := execute(t, db, "buy", "Bitcoin", "2", "20000", "--date", "2024-01-10", "--exchange", "kraken")
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded buy of 2 bitcoin at 20000.00")

	out, err = execute(t, db, "sell", "bitcoin", "0.5", "30000")
	require.NoError(t, err)
	assert.Contains(t, out, "Realized P&L: 5000.00")

	out, err = execute(t, db, "positions")
	require.NoError(t, err)
	assert.Contains(t, out, "bitcoin")
	assert.Contains(t, out, "1.5")
	assert.Contains(t, out, "synthetic")

	out, err = execute(t, db, "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Invested:")
	assert.Contains(t, out, "30000.00")

	out, err = execute(t, db, "trades")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-01-10")
	assert.Contains(t, out, "kraken")
	assert.Equal(t, 2, strings.Count(out, "bitcoin"))

	out, err = execute(t, db, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Closed trades:")
	assert.Contains(t, out, "5000.00")
}

func TestCLI_ExportTradesToCSV(t *testing.T) {
	db := setupCLI(t)
	csvPath := filepath.Join(t.TempDir(), "trades.csv")

	_, err := execute(t, db, "buy", "solana", "10", "100")
	require.NoError(t, err)

	out, err := execute(t, db, "trades", "--csv", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 trades")

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "date,coin,type,amount,price,total_value,realized_pnl,exchange,notes,id"))
	assert.Contains(t, string(data), "solana")
}

func TestCLI_WatchAndAlerts(t *testing.T) {
	db := setupCLI(t)

	out, err := execute(t, db, "watch", "add", "ethereum")
	require.NoError(t, err)
	assert.Contains(t, out, "Watching ethereum")

	_, err = execute(t, db, "watch", "add", "ETHEREUM")
	assert.ErrorIs(t, err, ports.ErrDuplicateEntry)

	out, err = execute(t, db, "alert", "add", "ethereum", "above", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "ethereum above 1.00")

	out, err = execute(t, db, "alert", "add", "bitcoin", "below", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "bitcoin below 1.00")

	// Offline mode: synthetic quotes fire alerts, including coins only an alert refers to
	out, err = execute(t, db, "refresh")
	require.NoError(t, err)
	assert.Contains(t, out, "ALERT: ethereum is above 1.00")
	assert.NotContains(t, out, "ALERT: bitcoin")

	out, err = execute(t, db, "alert", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "bitcoin")
	assert.NotContains(t, out, "ethereum")

	out, err = execute(t, db, "alert", "triggered")
	require.NoError(t, err)
	assert.Contains(t, out, "ethereum")

	out, err = execute(t, db, "watch", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ethereum")
}

func TestCLI_Status(t *testing.T) {
	db := setupCLI(t)

	_, err := execute(t, db, "buy", "cardano", "100", "0.5")
	require.NoError(t, err)

	out, err := execute(t, db, "status")
	require.NoError(t, err)
	assert.Contains(t, out, db)
	assert.Contains(t, out, "synthetic quotes (no live source)")
	assert.Contains(t, out, ports.KeyPortfolio)
	assert.Contains(t, out, ports.KeyTrades)
	assert.Contains(t, out, "Positions:")
}

func TestCLI_InvalidInput(t *testing.T) {
	db := setupCLI(t)

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "non-numeric amount", args: []string{"buy", "bitcoin", "abc", "100"}, wantErr: ports.ErrInvalidRequest},
		{name: "zero price", args: []string{"sell", "bitcoin", "1", "0"}, wantErr: ports.ErrInvalidRequest},
		{name: "bad date", args: []string{"buy", "bitcoin", "1", "100", "--date", "yesterday"}, wantErr: ports.ErrInvalidRequest},
		{name: "bad alert condition", args: []string{"alert", "add", "bitcoin", "sideways", "5"}, wantErr: ports.ErrInvalidRequest},
		{name: "unknown trade", args: []string{"delete-trade", "missing"}, wantErr: ports.ErrNotFound},
		{name: "unknown position", args: []string{"remove", "missing"}, wantErr: ports.ErrNotFound},
		{name: "sell without position", args: []string{"sell", "dogecoin", "1", "1"}, wantErr: ports.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, db, tt.args...)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseTradeDate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "empty means now", raw: ""},
		{name: "plain date", raw: "2024-03-01", want: "2024-03-01"},
		{name: "rfc3339", raw: "2024-03-01T10:00:00Z", want: "2024-03-01"},
		{name: "garbage", raw: "03/01/2024", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTradeDate(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ports.ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
			if tt.want == "" {
				assert.True(t, got.IsZero())
				return
			}
			assert.Equal(t, tt.want, got.Format(dateLayout))
		})
	}
}
