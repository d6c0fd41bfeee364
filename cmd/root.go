package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"cryptoTracker/config"
)

// v holds the process configuration; persistent flags override the environment.
var v = config.NewViper()

var rootCmd = &cobra.Command{
	Use:           "cryptotracker",
	Short:         "Track a crypto portfolio, trades, watchlist and price alerts",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("db", "", "path to the SQLite database (DB_PATH)")
	flags.String("log-level", "", "debug, info, warn or error (LOG_LEVEL)")
	flags.String("log-encoding", "", "json or console (LOG_ENCODING)")
	bindFlags(flags, map[string]string{
		"DB_PATH":      "db",
		"LOG_LEVEL":    "log-level",
		"LOG_ENCODING": "log-encoding",
	})
}

func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
