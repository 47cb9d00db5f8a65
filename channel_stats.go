package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/time/rate"
)

const (
	defaultStatsInput  = "us_youtubers_2024.csv"
	defaultStatsOutput = "youtube_data_from_python.csv"
	defaultNameColumn  = "NAME"
	defaultLookupPause = 1 * time.Second
	defaultPreviewRows = 10
	channelIDSeparator = "@"
)

// ExtractChannelID returns the segment after the last "@" in name, or the whole
// trimmed value when there is no "@".
func ExtractChannelID(name string) string {
	if i := strings.LastIndex(name, channelIDSeparator); i >= 0 {
		name = name[i+len(channelIDSeparator):]
	}
	return strings.TrimSpace(name)
}

// UniqueChannelIDs derives channel identifiers from the named column, keeping
// first-appearance order and dropping duplicates and blanks.
func UniqueChannelIDs(t *Table, column string) ([]string, error) {
	col, ok := t.Column(column)
	if !ok {
		return nil, newJobError(ParseError, "extract channel ids", fmt.Errorf("input has no %q column", column))
	}

	seen := make(map[string]struct{}, t.Len())
	var ids []string
	for _, row := range t.Rows {
		id := ExtractChannelID(row[col])
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// FetchAll looks every identifier up in order. Identifiers with no result or a
// failed lookup are logged and omitted. When limiter is non-nil each lookup first
// waits for a token. Only context cancellation stops the loop early.
func FetchAll(ctx context.Context, lookup ChannelLookup, ids []string, limiter *rate.Limiter) ([]ChannelStats, error) {
	var out []ChannelStats
	for i, id := range ids {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return out, fmt.Errorf("stopped before channel %s: %w", id, err)
			}
		}

		stats, err := lookup.LookupChannel(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return out, fmt.Errorf("stopped at channel %s: %w", id, ctx.Err())
			}
			log.Printf("[E] [ChannelStats] Error fetching data for channel ID %s: %v", id, err)
			continue
		}
		if stats == nil {
			log.Printf("[W] [ChannelStats] No data found for channel ID: %s", id)
			continue
		}
		if stats.ChannelID == "" {
			stats.ChannelID = id
		}
		out = append(out, *stats)
		log.Printf("[D] [ChannelStats] (%d/%d) %s -> %q", i+1, len(ids), id, stats.ChannelName)
	}
	return out, nil
}

// mergeByKey appends the stats columns to every input row, matched on the channel
// identifier derived from column. Rows without stats get empty cells.
func mergeByKey(input *Table, column int, stats []ChannelStats) *Table {
	byID := make(map[string]ChannelStats, len(stats))
	for _, s := range stats {
		if _, ok := byID[s.ChannelID]; !ok {
			byID[s.ChannelID] = s
		}
	}

	out := &Table{Header: combinedHeader(input.Header)}
	for _, row := range input.Rows {
		merged := append(append(make([]string, 0, len(row)+len(statsColumns)), row...), emptyStatsRecord()...)
		if s, ok := byID[ExtractChannelID(row[column])]; ok {
			copy(merged[len(row):], s.record())
		}
		out.Rows = append(out.Rows, merged)
	}
	return out
}

// mergePositional places the stats table next to the input table row by row. The
// result has as many rows as the longer of the two; missing cells are empty.
func mergePositional(input *Table, stats []ChannelStats) *Table {
	n := max(input.Len(), len(stats))
	width := len(input.Header)

	out := &Table{Header: combinedHeader(input.Header)}
	for i := 0; i < n; i++ {
		merged := make([]string, width, width+len(statsColumns))
		if i < input.Len() {
			copy(merged, input.Rows[i])
		}
		if i < len(stats) {
			merged = append(merged, stats[i].record()...)
		} else {
			merged = append(merged, emptyStatsRecord()...)
		}
		out.Rows = append(out.Rows, merged)
	}
	return out
}

func combinedHeader(input []string) []string {
	h := make([]string, 0, len(input)+len(statsColumns))
	h = append(h, input...)
	return append(h, statsColumns...)
}

func emptyStatsRecord() []string {
	return make([]string, len(statsColumns))
}

// StatsJob enriches a channel list with statistics from a ChannelLookup.
type StatsJob struct {
	Lookup      ChannelLookup
	InputPath   string
	OutputPath  string
	Column      string
	Mode        MergeMode
	Pause       time.Duration
	PreviewRows int
	Preview     io.Writer
}

// Run reads the input, fetches stats for each unique channel, merges and writes
// the combined table, which it also returns.
func (j *StatsJob) Run(ctx context.Context) (*Table, error) {
	log.Printf("🚀 [I] [ChannelStats] Starting channel stats enrichment of %s", j.InputPath)

	mode := j.Mode
	if mode == "" {
		mode = MergePositional
	}
	if mode != MergeByKey && mode != MergePositional {
		return nil, newJobError(ConfigError, "merge", fmt.Errorf("unknown merge mode %q", j.Mode))
	}

	input, err := ReadCSV(j.InputPath)
	if err != nil {
		return nil, newJobError(IOError, "read input", err)
	}

	column := j.Column
	if column == "" {
		column = defaultNameColumn
	}
	ids, err := UniqueChannelIDs(input, column)
	if err != nil {
		return nil, err
	}
	log.Printf("[I] [ChannelStats] %d rows, %d unique channel IDs.", input.Len(), len(ids))

	var limiter *rate.Limiter
	if j.Pause > 0 {
		limiter = rate.NewLimiter(rate.Every(j.Pause), 1)
	}
	stats, err := FetchAll(ctx, j.Lookup, ids, limiter)
	if err != nil {
		return nil, newJobError(LookupError, "fetch channel stats", err)
	}
	if missing := len(ids) - len(stats); missing > 0 {
		log.Printf("[W] [ChannelStats] %d of %d channels returned no data.", missing, len(ids))
	}

	var combined *Table
	if mode == MergeByKey {
		col, _ := input.Column(column)
		combined = mergeByKey(input, col, stats)
	} else {
		combined = mergePositional(input, stats)
	}

	if err := WriteCSV(j.OutputPath, combined); err != nil {
		return nil, newJobError(IOError, "write output", err)
	}
	log.Printf("✅ [I] [ChannelStats] Wrote %d rows to %s.", combined.Len(), j.OutputPath)

	if j.Preview != nil && j.PreviewRows > 0 {
		renderPreview(j.Preview, combined, j.PreviewRows)
	}
	return combined, nil
}

// renderPreview prints the first n rows of t as a terminal table.
func renderPreview(w io.Writer, t *Table, n int) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)

	header := make(table.Row, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range t.Rows[:min(n, t.Len())] {
		r := make(table.Row, len(row))
		for i, c := range row {
			r[i] = c
		}
		tw.AppendRow(r)
	}
	tw.Render()
}

// runChannelStats builds the YouTube client for the duration of one job.
func runChannelStats(ctx context.Context, cfg ChannelStatsConfig, apiKey string, preview io.Writer) error {
	client, err := NewYouTubeClient(ctx, apiKey)
	if err != nil {
		return err
	}

	job := &StatsJob{
		Lookup:      client,
		InputPath:   cfg.Input,
		OutputPath:  cfg.Output,
		Column:      cfg.Column,
		Mode:        cfg.Merge,
		Pause:       cfg.Pause,
		PreviewRows: cfg.PreviewRows,
		Preview:     preview,
	}
	if _, err := job.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Println("[W] [ChannelStats] Interrupted, no output written.")
		}
		return fmt.Errorf("channel stats job failed: %w", err)
	}
	return nil
}
