package cmd

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/hookview/dashboard/internal/api"
	"github.com/hookview/dashboard/internal/export"
	"github.com/hookview/dashboard/internal/stream"
	"github.com/hookview/dashboard/internal/ui"
	"github.com/hookview/dashboard/internal/view"
)

var watchApp int

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the live dashboard for one app",
	Long: `Open the terminal dashboard: subscribe to the app's live validation
channel, load recent history, and keep the stats and coverage panels fresh.

Examples:
  hookview watch
  hookview watch --app 3 --config ./hookview.yaml`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVar(&watchApp, "app", 0, "app id (overrides config)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	appID := cfg.Client.AppID
	if watchApp > 0 {
		appID = watchApp
	}

	client := api.NewClient(cfg.Client.ServerURL, cfg.RequestTimeout())

	saver, err := export.NewWriter(cfg.Client.DownloadDir)
	if err != nil {
		return fmt.Errorf("preparing download directory: %w", err)
	}

	controller := view.NewController(client, saver, nil, view.Config{
		AppID:            appID,
		PageSize:         cfg.Client.PageSize,
		BufferCap:        cfg.View.BufferCap,
		TableCap:         cfg.View.TableCap,
		StatsInterval:    cfg.StatsInterval(),
		CoverageInterval: cfg.CoverageInterval(),
		RequestTimeout:   cfg.RequestTimeout(),
	})

	program := tea.NewProgram(ui.NewModel(controller, appID), tea.WithAltScreen())
	controller.SetRenderer(ui.NewRenderer(program))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := stream.NewSubscriber(wsURL(cfg.Client.ServerURL), appID)
	go sub.Run(ctx)
	go controller.Run(ctx, sub.Events(), sub.Status())

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}

// wsURL derives the live-channel endpoint from the backend base URL.
func wsURL(serverURL string) string {
	u := strings.TrimRight(serverURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws/live"
}
