package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the configured price provider and what is stored",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, appDep *AppDependency) error {
			keys, err := appDep.repo.Keys(ctx)
			if err != nil {
				return err
			}
			alerting := "live quotes only"
			if appDep.quotes.Offline() {
				alerting = "synthetic quotes (no live source)"
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintf(tw, "Database:\t%s\n", appDep.cfg.DBPath)
			fmt.Fprintf(tw, "Price provider:\t%s\n", appDep.cfg.PriceProvider)
			fmt.Fprintf(tw, "Alerts fire on:\t%s\n", alerting)
			fmt.Fprintf(tw, "Stored keys:\t%s\n", strings.Join(keys, ", "))
			fmt.Fprintf(tw, "Positions:\t%d\n", len(appDep.ledger.Positions()))
			fmt.Fprintf(tw, "Trades:\t%d\n", len(appDep.ledger.Trades()))
			fmt.Fprintf(tw, "Watchlist:\t%d\n", len(appDep.ledger.Watchlist()))
			fmt.Fprintf(tw, "Active alerts:\t%d\n", len(appDep.ledger.ActiveAlerts()))
			return tw.Flush()
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
