// Package cmd wires the hookview CLI.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hookview/dashboard/internal/config"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var cfgFile string

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "hookview",
	Short: "hookview - live webhook validation dashboard",
	Long: `hookview is a terminal dashboard for webhook/event validation results.
It subscribes to a validation backend's live channel, keeps a bounded rolling
view of per-field results, and supports filtering, CSV export, and bulk
deletion.`,
	Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "hookview.yaml", "path to config file")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return cfg, nil
}
