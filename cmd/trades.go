package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cryptoTracker/internal/analytics"
	"cryptoTracker/internal/utils"
)

var tradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "List the trade log, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		csvPath, _ := cmd.Flags().GetString("csv")
		return withApp(cmd, func(ctx context.Context, appDep *AppDependency) error {
			trades := appDep.ledger.Trades()
			if csvPath == "" {
				printTrades(cmd.OutOrStdout(), trades)
				return nil
			}
			if err := utils.WriteTradesToCSV(trades, csvPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d trades to %s\n", len(trades), csvPath)
			return nil
		})
	},
}

var deleteTradeCmd = &cobra.Command{
	Use:   "delete-trade ID",
	Short: "Delete a trade and rebuild its position",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, appDep *AppDependency) error {
			if err := tolerateUnsaved(cmd, appDep.ledger.DeleteTrade(ctx, args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted trade %s\n", args[0])
			return nil
		})
	},
}

func init() {
	tradesCmd.Flags().String("csv", "", "write the trade log to this CSV file instead of printing it")
	rootCmd.AddCommand(tradesCmd, deleteTradeCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show realized performance of the trade log",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, appDep *AppDependency) error {
			printStats(cmd.OutOrStdout(), analytics.Analyze(appDep.ledger.Trades()))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
