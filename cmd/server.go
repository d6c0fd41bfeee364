package cmd

import (
	"context"
	"errors"
	"log"
	httpNet "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cryptoTracker/internal/delivery/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the periodic price refresh",
	RunE:  Serve,
}

func init() {
	serveCmd.Flags().Int("port", 0, "HTTP API port (API_PORT)")
	bindFlags(serveCmd.Flags(), map[string]string{"API_PORT": "port"})
	rootCmd.AddCommand(serveCmd)
}

func Serve(cmd *cobra.Command, args []string) error {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appDep, err := NewAppDependency(ctx, nil)
	if err != nil {
		return err
	}

	httpHandler := http.NewHttpAPIHandler(ctx, appDep.echo, appDep.validator, appDep.service, appDep.log)
	apiServer := NewHTTPServer(ctx, appDep, httpHandler)
	go func() {
		if err := apiServer.Start(); err != nil && !errors.Is(err, httpNet.ErrServerClosed) {
			log.Printf("Failed to start HTTP server: %v", err)
			stop()
		}
	}()

	// Blocks until shutdown; flushes the ledger on the way out
	serviceErr := appDep.service.Start(ctx)
	log.Println("Shutting down gracefully...")

	return errors.Join(serviceErr, apiServer.Stop(), appDep.Close())
}
