package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Manage the watchlist",
}

var watchAddCmd = &cobra.Command{
	Use:   "add SYMBOL",
	Short: "Watch a coin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, appDep *AppDependency) error {
			entry, err := appDep.service.Watch(ctx, args[0])
			if err := tolerateUnsaved(cmd, err); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s at %s (%s)\n", entry.Symbol, money(entry.CurrentPrice), entry.ID)
			return nil
		})
	},
}

var watchRemoveCmd = &cobra.Command{
	Use:   "remove ID",
	Short: "Stop watching a coin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, appDep *AppDependency) error {
			if err := tolerateUnsaved(cmd, appDep.ledger.RemoveWatch(ctx, args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed watchlist entry %s\n", args[0])
			return nil
		})
	},
}

var watchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List watched coins",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, appDep *AppDependency) error {
			printWatchlist(cmd.OutOrStdout(), appDep.ledger.Watchlist())
			return nil
		})
	},
}

func init() {
	watchCmd.AddCommand(watchAddCmd, watchRemoveCmd, watchListCmd)
	rootCmd.AddCommand(watchCmd)
}
