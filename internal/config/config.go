// Package config provides YAML-based configuration for the dashboard and the
// development server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	// Client configuration (dashboard side)
	Client ClientConfig `yaml:"client"`

	// View configuration (buffer/table caps, refresh cadence)
	View ViewConfig `yaml:"view"`

	// DevServer configuration
	DevServer DevServerConfig `yaml:"devserver"`
}

// ClientConfig contains settings for talking to the validation backend.
type ClientConfig struct {
	ServerURL      string `yaml:"server_url"`
	AppID          int    `yaml:"app_id"`
	PageSize       int    `yaml:"page_size"`
	DownloadDir    string `yaml:"download_dir"`
	RequestTimeout int    `yaml:"request_timeout_seconds"`
}

// ViewConfig contains the dashboard state caps and refresh intervals.
type ViewConfig struct {
	BufferCap               int `yaml:"buffer_cap"`
	TableCap                int `yaml:"table_cap"`
	StatsIntervalSeconds    int `yaml:"stats_interval_seconds"`
	CoverageIntervalSeconds int `yaml:"coverage_interval_seconds"`
}

// DevServerConfig contains settings for the development backend.
type DevServerConfig struct {
	ListenAddr     string   `yaml:"listen_addr"`
	DatabasePath   string   `yaml:"database_path"`
	ExpectedEvents []string `yaml:"expected_events"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Client: ClientConfig{
			ServerURL:      "http://localhost:8990",
			AppID:          1,
			PageSize:       50,
			DownloadDir:    "./downloads",
			RequestTimeout: 30,
		},
		View: ViewConfig{
			BufferCap:               1000,
			TableCap:                200,
			StatsIntervalSeconds:    5,
			CoverageIntervalSeconds: 10,
		},
		DevServer: DevServerConfig{
			ListenAddr:   ":8990",
			DatabasePath: "./data/hookview.db",
		},
	}
}

// Load reads the YAML config at path, layering it over the defaults.
// A missing file is not an error; defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.applyFloors()
	return cfg, nil
}

// applyFloors keeps hand-edited configs from zeroing out the caps.
func (c *Config) applyFloors() {
	d := Default()
	if c.Client.PageSize <= 0 {
		c.Client.PageSize = d.Client.PageSize
	}
	if c.Client.RequestTimeout <= 0 {
		c.Client.RequestTimeout = d.Client.RequestTimeout
	}
	if c.View.BufferCap <= 0 {
		c.View.BufferCap = d.View.BufferCap
	}
	if c.View.TableCap <= 0 {
		c.View.TableCap = d.View.TableCap
	}
	if c.View.StatsIntervalSeconds <= 0 {
		c.View.StatsIntervalSeconds = d.View.StatsIntervalSeconds
	}
	if c.View.CoverageIntervalSeconds <= 0 {
		c.View.CoverageIntervalSeconds = d.View.CoverageIntervalSeconds
	}
}

// EnsureDirectories creates the directories the dashboard writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Client.DownloadDir,
		filepath.Dir(c.DevServer.DatabasePath),
	}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return nil
}

// RequestTimeout returns the per-request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Client.RequestTimeout) * time.Second
}

// StatsInterval returns the stats refresh cadence.
func (c *Config) StatsInterval() time.Duration {
	return time.Duration(c.View.StatsIntervalSeconds) * time.Second
}

// CoverageInterval returns the coverage refresh cadence.
func (c *Config) CoverageInterval() time.Duration {
	return time.Duration(c.View.CoverageIntervalSeconds) * time.Second
}
