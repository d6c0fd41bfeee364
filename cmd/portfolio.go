package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cryptoTracker/internal/domain"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch prices for every held and watched coin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, appDep *AppDependency) error {
			_, err := appDep.service.RefreshAll(ctx)
			if err := tolerateUnsaved(cmd, err); err != nil {
				return err
			}
			printPositions(cmd.OutOrStdout(), appDep.ledger.Positions())
			return nil
		})
	},
}

var buyCmd = newTradeCmd(domain.Buy)
var sellCmd = newTradeCmd(domain.Sell)

func newTradeCmd(direction domain.TradeDirection) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(direction) + " SYMBOL AMOUNT PRICE",
		Short: fmt.Sprintf("Record a %s trade", direction),
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := tradeInput(cmd, direction, args)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, appDep *AppDependency) error {
				trade, err := appDep.service.RecordTrade(ctx, in)
				if err := tolerateUnsaved(cmd, err); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s of %s %s at %s (trade %s)\n",
					trade.Direction, amount(trade.Amount), trade.CoinSymbol, money(trade.UnitPrice), trade.ID)
				if trade.Direction == domain.Sell {
					fmt.Fprintf(cmd.OutOrStdout(), "Realized P&L: %s\n", money(trade.RealizedPnl))
				}
				return nil
			})
		},
	}
	cmd.Flags().String("date", "", "trade date, YYYY-MM-DD or RFC3339 (default now)")
	cmd.Flags().String("exchange", "", "exchange the trade happened on")
	cmd.Flags().String("notes", "", "free-form notes")
	return cmd
}

func tradeInput(cmd *cobra.Command, direction domain.TradeDirection, args []string) (domain.TradeInput, error) {
	qty, err := parsePositive("amount", args[1])
	if err != nil {
		return domain.TradeInput{}, err
	}
	price, err := parsePositive("price", args[2])
	if err != nil {
		return domain.TradeInput{}, err
	}
	rawDate, _ := cmd.Flags().GetString("date")
	date, err := parseTradeDate(rawDate)
	if err != nil {
		return domain.TradeInput{}, err
	}
	exchange, _ := cmd.Flags().GetString("exchange")
	notes, _ := cmd.Flags().GetString("notes")
	return domain.TradeInput{
		Symbol:    args[0],
		Direction: direction,
		Amount:    qty,
		UnitPrice: price,
		TradeDate: date,
		Exchange:  exchange,
		Notes:     notes,
	}, nil
}

var removeCmd = &cobra.Command{
	Use:   "remove ID",
	Short: "Remove a position without touching the trade log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, appDep *AppDependency) error {
			if err := tolerateUnsaved(cmd, appDep.ledger.RemovePosition(ctx, args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed position %s\n", args[0])
			return nil
		})
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show portfolio totals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, appDep *AppDependency) error {
			printSummary(cmd.OutOrStdout(), appDep.ledger.PortfolioSummary())
			return nil
		})
	},
}

var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "List positions by market value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, appDep *AppDependency) error {
			printPositions(cmd.OutOrStdout(), appDep.ledger.Positions())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd, buyCmd, sellCmd, removeCmd, summaryCmd, positionsCmd)
}
