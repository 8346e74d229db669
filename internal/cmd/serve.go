package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hookview/dashboard/internal/devserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the development backend",
	Long: `Start a local backend implementing the endpoints the dashboard consumes:
log ingest + paging, stats, coverage, CSV report generation, bulk delete, and
the websocket live channel. Intended for development and integration tests;
it stores pre-computed validation results and performs no validation itself.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	srv, err := devserver.New(cfg.DevServer)
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	fmt.Printf("hookview dev server %s\n", Version)
	fmt.Printf("  listen:   %s\n", cfg.DevServer.ListenAddr)
	fmt.Printf("  database: %s\n", cfg.DevServer.DatabasePath)
	fmt.Printf("  catalog:  %d expected events\n", len(cfg.DevServer.ExpectedEvents))

	return srv.Start()
}
