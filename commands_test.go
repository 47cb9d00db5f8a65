package main

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeRoot(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(context.Background())
}

func TestChannelStatsCommandRequiresAPIKey(t *testing.T) {
	t.Setenv(youtubeAPIKeyEnv, "")

	err := executeRoot(t, "channel-stats", "--input", "in.csv")
	require.Error(t, err)
	assert.Equal(t, ConfigError, KindOf(err))
}

func TestChannelStatsCommandRejectsMergeMode(t *testing.T) {
	t.Setenv(youtubeAPIKeyEnv, "key")

	err := executeRoot(t, "channel-stats", "--merge", "outer")
	require.Error(t, err)
	assert.Equal(t, ConfigError, KindOf(err))
}

func TestRankingsCommandValidatesBeforeLaunch(t *testing.T) {
	err := executeRoot(t, "rankings", "--settle-min", "5s", "--settle-max", "1s")
	require.Error(t, err)
	assert.Equal(t, ConfigError, KindOf(err))
}

func TestRootCommandRejectsUnknownSubcommand(t *testing.T) {
	require.Error(t, executeRoot(t, "trending"))
}
