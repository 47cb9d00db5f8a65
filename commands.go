package main

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	cfg        Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "creatorstats",
		Short:         "creatorstats scrapes influencer rankings and enriches channel lists with YouTube statistics.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "optional YAML config file")

	cmd.AddCommand(newRankingsCmd(opts), newChannelStatsCmd(opts))
	return cmd
}

func newRankingsCmd(root *rootOptions) *cobra.Command {
	var flags RankingsConfig
	defaults := DefaultConfig().Rankings

	cmd := &cobra.Command{
		Use:   "rankings",
		Short: "Scrapes the influencer ranking table into influencers_<timestamp>.csv.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.cfg.Rankings
			f := cmd.Flags()
			if f.Changed("url") {
				cfg.URL = flags.URL
			}
			if f.Changed("output-dir") {
				cfg.OutputDir = flags.OutputDir
			}
			if f.Changed("timeout") {
				cfg.PageLoadTimeout = flags.PageLoadTimeout
			}
			if f.Changed("settle-min") {
				cfg.SettleMin = flags.SettleMin
			}
			if f.Changed("settle-max") {
				cfg.SettleMax = flags.SettleMax
			}
			if f.Changed("headless") {
				cfg.Headless = flags.Headless
			}
			if f.Changed("chrome-path") {
				cfg.ChromePath = flags.ChromePath
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			_, err := runRankings(cmd.Context(), cfg)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.URL, "url", defaults.URL, "ranking page to scrape")
	f.StringVar(&flags.OutputDir, "output-dir", defaults.OutputDir, "directory for the output CSV")
	f.DurationVar(&flags.PageLoadTimeout, "timeout", defaults.PageLoadTimeout, "maximum wait for the page body")
	f.DurationVar(&flags.SettleMin, "settle-min", defaults.SettleMin, "minimum pause after load")
	f.DurationVar(&flags.SettleMax, "settle-max", defaults.SettleMax, "maximum pause after load")
	f.BoolVar(&flags.Headless, "headless", defaults.Headless, "run the browser without a window")
	f.StringVar(&flags.ChromePath, "chrome-path", "", "path to the Chrome binary")
	return cmd
}

func newChannelStatsCmd(root *rootOptions) *cobra.Command {
	var (
		flags ChannelStatsConfig
		merge string
	)
	defaults := DefaultConfig().ChannelStats

	cmd := &cobra.Command{
		Use:   "channel-stats",
		Short: "Looks up YouTube statistics for every channel in the input CSV.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.cfg.ChannelStats
			f := cmd.Flags()
			if f.Changed("input") {
				cfg.Input = flags.Input
			}
			if f.Changed("output") {
				cfg.Output = flags.Output
			}
			if f.Changed("column") {
				cfg.Column = flags.Column
			}
			if f.Changed("merge") {
				cfg.Merge = MergeMode(merge)
			}
			if f.Changed("pause") {
				cfg.Pause = flags.Pause
			}
			if f.Changed("preview") {
				cfg.PreviewRows = flags.PreviewRows
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return runChannelStats(cmd.Context(), cfg, root.cfg.YouTubeAPIKey, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.Input, "input", defaults.Input, "input CSV with a channel name column")
	f.StringVar(&flags.Output, "output", defaults.Output, "output CSV path")
	f.StringVar(&flags.Column, "column", defaults.Column, "column holding name@channelID values")
	f.StringVar(&merge, "merge", string(defaults.Merge), `how stats attach to rows: "positional" (row order) or "key" (channel id join)`)
	f.DurationVar(&flags.Pause, "pause", defaults.Pause, "minimum interval between API lookups")
	f.IntVar(&flags.PreviewRows, "preview", defaults.PreviewRows, "rows to print after writing (0 disables)")
	return cmd
}
