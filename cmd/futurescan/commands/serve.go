package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/futurescan/internal/api"
	"github.com/wonny/futurescan/internal/api/handlers"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Starts the read-only HTTP API over the ledger and ranking archive.

Endpoints:
  GET /health
  GET /api/v1/symbols
  GET /api/v1/timeline/{symbol}
  GET /api/v1/snapshot/{date}
  GET /api/v1/counts
  GET /api/v1/rankings/{date}
  GET /api/v1/rankings/symbol/{symbol}
  GET /api/v1/validation
  GET /api/v1/validation/gaps

Example:
  go run ./cmd/futurescan serve
  go run ./cmd/futurescan serve --port 8080`,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "override listen port")
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if servePort != "" {
		app.cfg.Port = servePort
	}

	router := api.NewRouter(
		handlers.NewAvailabilityHandler(app.store, app.log),
		handlers.NewRankingsHandler(app.store, app.log),
		handlers.NewValidationHandler(app.validator, app.log),
		handlers.NewHealthHandler(app.db, app.log),
		app.log,
	)
	server := api.New(app.cfg, app.log, router)

	go func() {
		if err := server.Start(); err != nil {
			app.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", app.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	app.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	app.log.Info("Server stopped")
	return nil
}
