package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/CortexSI/consts"
	"github.com/dyike/CortexSI/pkg/errors"
)

func TestDefaultConfigWithRootIsValid(t *testing.T) {
	cfg := DefaultConfigWithRoot("/tmp/si")

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "/tmp/si/results", cfg.ResultsDir)
	assert.True(t, cfg.RedditEnabled)
	assert.True(t, cfg.NaverEnabled)
	assert.Equal(t, 7*24*time.Hour, cfg.TelegramMaxAge())

	tg, rd, nv := cfg.RequestIntervals()
	assert.Equal(t, time.Second, tg)
	assert.Equal(t, time.Second, rd)
	assert.Equal(t, 300*time.Millisecond, nv)
	assert.Equal(t, 15*time.Second, cfg.HTTPClientConfig().Timeout)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CORTEXSI_TELEGRAM_CHANNELS", "alpha, beta,,")
	t.Setenv("CORTEXSI_REDDIT_ENABLED", "false")
	t.Setenv("CORTEXSI_LIMIT_PER_SOURCE", "25")
	t.Setenv("CORTEXSI_NAVER_DELAY_MS", "not-a-number")
	t.Setenv("CORTEXSI_METRICS_ADDR", "")

	cfg := DefaultConfigWithRoot(t.TempDir())
	cfg.loadFromEnv()

	assert.Equal(t, []string{"alpha", "beta"}, cfg.TelegramChannels)
	assert.False(t, cfg.RedditEnabled)
	assert.Equal(t, 25, cfg.LimitPerSource)
	assert.Equal(t, 300, cfg.NaverDelayMs)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := DefaultConfigWithRoot(t.TempDir())
	cfg.LimitPerSource = 0
	cfg.RedditDelayMs = -1
	cfg.LogLevel = "verbose"
	cfg.WatchSchedule = "every minute"

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	var multi *errors.MultiError
	require.True(t, errors.As(err, &multi))
	assert.Len(t, multi.Errors, 4)
}

const catalogJSON = `{
  "channels": {
    "research": {"reliability": "high", "channels": ["alpha", "beta"]},
    "community": {"channels": ["gamma", "alpha"]}
  }
}`

func TestChannelCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telegram_channels.json")
	require.NoError(t, os.WriteFile(path, []byte(catalogJSON), 0o644))

	catalog, err := LoadChannelCatalog(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"community", "research"}, catalog.Categories())
	assert.Equal(t, []string{"gamma", "alpha", "alpha", "beta"}, catalog.All())

	info, ok := catalog.Lookup("beta")
	require.True(t, ok)
	assert.Equal(t, ChannelInfo{Category: "research", Reliability: "high"}, info)

	info, ok = catalog.Lookup("gamma")
	require.True(t, ok)
	assert.Equal(t, consts.ReliabilityMedium, info.Reliability)

	_, ok = catalog.Lookup("delta")
	assert.False(t, ok)
}

func TestChannelCatalogErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadChannelCatalog(filepath.Join(dir, "missing.json"))
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = LoadChannelCatalog(bad)
	assert.True(t, errors.Is(err, errors.ErrParse))
}

func TestResolveTelegramChannels(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "telegram_channels.json")
	require.NoError(t, os.WriteFile(path, []byte(catalogJSON), 0o644))

	cfg := DefaultConfigWithRoot(dir)
	cfg.TelegramChannels = []string{"beta", "omega"}
	cfg.TelegramChannelsFile = path

	channels, catalog, err := cfg.ResolveTelegramChannels()
	require.NoError(t, err)
	require.NotNil(t, catalog)
	assert.Equal(t, []string{"beta", "omega", "gamma", "alpha"}, channels)

	cfg.TelegramChannelsFile = filepath.Join(dir, "missing.json")
	channels, catalog, err = cfg.ResolveTelegramChannels()
	require.NoError(t, err)
	assert.Nil(t, catalog)
	assert.Equal(t, []string{"beta", "omega"}, channels)
}
