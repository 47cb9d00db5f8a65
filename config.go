package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const youtubeAPIKeyEnv = "YOUTUBE_API_KEY"

// Config holds the settings of both jobs. Zero values are never used directly;
// DefaultConfig fills every field.
type Config struct {
	Rankings      RankingsConfig     `yaml:"rankings"`
	ChannelStats  ChannelStatsConfig `yaml:"channel_stats"`
	YouTubeAPIKey string             `yaml:"-"`
}

// RankingsConfig configures the ranking extractor.
type RankingsConfig struct {
	URL             string        `yaml:"url"`
	OutputDir       string        `yaml:"output_dir"`
	PageLoadTimeout time.Duration `yaml:"page_load_timeout"`
	SettleMin       time.Duration `yaml:"settle_min"`
	SettleMax       time.Duration `yaml:"settle_max"`
	Headless        bool          `yaml:"headless"`
	ChromePath      string        `yaml:"chrome_path"`
}

// ChannelStatsConfig configures the stats enricher.
type ChannelStatsConfig struct {
	Input       string        `yaml:"input"`
	Output      string        `yaml:"output"`
	Column      string        `yaml:"column"`
	Merge       MergeMode     `yaml:"merge"`
	Pause       time.Duration `yaml:"pause"`
	PreviewRows int           `yaml:"preview_rows"`
}

// DefaultConfig returns the built-in file names, URL and timings.
func DefaultConfig() Config {
	return Config{
		Rankings: RankingsConfig{
			URL:             defaultRankingURL,
			OutputDir:       ".",
			PageLoadTimeout: defaultPageLoadTimeout,
			SettleMin:       5 * time.Second,
			SettleMax:       10 * time.Second,
			Headless:        true,
		},
		ChannelStats: ChannelStatsConfig{
			Input:       defaultStatsInput,
			Output:      defaultStatsOutput,
			Column:      defaultNameColumn,
			Merge:       MergePositional,
			Pause:       defaultLookupPause,
			PreviewRows: defaultPreviewRows,
		},
	}
}

// loadDotEnv loads .env into the process environment if the file exists.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("[W] [Config] Could not load .env file: %v", err)
		}
		return
	}
	log.Println("[I] [Config] Loaded environment from .env")
}

// LoadConfig applies the optional YAML file at path over the defaults, then reads
// the API key from the environment.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, newJobError(ConfigError, "read config", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, newJobError(ConfigError, "parse config", fmt.Errorf("%s: %w", path, err))
		}
		log.Printf("[I] [Config] Loaded configuration from %s", path)
	}

	cfg.YouTubeAPIKey = os.Getenv(youtubeAPIKeyEnv)
	return cfg, nil
}

// Validate checks the settings needed by the rankings job.
func (c RankingsConfig) Validate() error {
	switch {
	case c.URL == "":
		return newJobError(ConfigError, "validate rankings", errors.New("url is empty"))
	case c.PageLoadTimeout <= 0:
		return newJobError(ConfigError, "validate rankings", errors.New("page_load_timeout must be positive"))
	case c.SettleMin < 0 || c.SettleMax < c.SettleMin:
		return newJobError(ConfigError, "validate rankings", fmt.Errorf("invalid settle range %s..%s", c.SettleMin, c.SettleMax))
	}
	return nil
}

// Validate checks the settings needed by the channel stats job.
func (c ChannelStatsConfig) Validate() error {
	switch {
	case c.Input == "" || c.Output == "":
		return newJobError(ConfigError, "validate channel stats", errors.New("input and output paths are required"))
	case c.Column == "":
		return newJobError(ConfigError, "validate channel stats", errors.New("column is empty"))
	case c.Merge != MergeByKey && c.Merge != MergePositional:
		return newJobError(ConfigError, "validate channel stats", fmt.Errorf("merge must be %q or %q, got %q", MergeByKey, MergePositional, c.Merge))
	case c.Pause < 0:
		return newJobError(ConfigError, "validate channel stats", errors.New("pause must not be negative"))
	}
	return nil
}
