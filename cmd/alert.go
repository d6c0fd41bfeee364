package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cryptoTracker/internal/domain"
	"cryptoTracker/internal/ports"
)

var alertCmd = &cobra.Command{
	Use:   "alert",
	Short: "Manage price alerts",
	Long: `Manage one-shot price alerts. Alerts are checked on every refresh and fire
only on live quotes; with PRICE_PROVIDER=synthetic there is no live source and
synthetic quotes fire them instead.`,
}

var alertAddCmd = &cobra.Command{
	Use:   "add SYMBOL above|below PRICE",
	Short: "Create a one-shot price alert",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		condition := domain.AlertCondition(strings.ToLower(args[1]))
		if !condition.Valid() {
			return fmt.Errorf("invalid condition %q: want above or below: %w", args[1], ports.ErrInvalidRequest)
		}
		target, err := parsePositive("price", args[2])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, appDep *AppDependency) error {
			alert, err := appDep.ledger.CreateAlert(ctx, args[0], condition, target)
			if err := tolerateUnsaved(cmd, err); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Alert %s: %s %s %s\n", alert.ID, alert.CoinSymbol, alert.Condition, money(alert.TargetPrice))
			return nil
		})
	},
}

var alertRemoveCmd = &cobra.Command{
	Use:   "remove ID",
	Short: "Delete an active alert",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, appDep *AppDependency) error {
			if err := tolerateUnsaved(cmd, appDep.ledger.RemoveAlert(ctx, args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed alert %s\n", args[0])
			return nil
		})
	},
}

var alertListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active alerts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, appDep *AppDependency) error {
			printAlerts(cmd.OutOrStdout(), appDep.ledger.ActiveAlerts())
			return nil
		})
	},
}

var alertTriggeredCmd = &cobra.Command{
	Use:   "triggered",
	Short: "List the most recently triggered alerts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withApp(cmd, func(ctx context.Context, appDep *AppDependency) error {
			printAlerts(cmd.OutOrStdout(), appDep.ledger.TriggeredAlerts(limit))
			return nil
		})
	},
}

func init() {
	alertTriggeredCmd.Flags().Int("limit", 10, "number of alerts to show, 0 for all")
	alertCmd.AddCommand(alertAddCmd, alertRemoveCmd, alertListCmd, alertTriggeredCmd)
	rootCmd.AddCommand(alertCmd)
}
