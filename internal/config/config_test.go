package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salvir1/covid-undercount/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Contains(t, cfg.SourceURL, "us-counties.csv")
	assert.Empty(t, cfg.InputPath)
	assert.Equal(t, "cache", cfg.CacheDir)
	assert.Equal(t, 6*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "out/undercount_ratios.csv", cfg.OutputPath)
	assert.Empty(t, cfg.VariantsPath)
	assert.Equal(t, 7, cfg.SmoothingWindow)
	assert.Equal(t, "2020-10-01", cfg.PeakCutoff.Format(domain.DateLayout))
	assert.Equal(t, "2021-02-06", cfg.RecentCutoff.Format(domain.DateLayout))
	assert.Equal(t, 7, cfg.RecentSpan)
	assert.Equal(t, 8, cfg.Workers)
	assert.True(t, cfg.AdminEnabled)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("UNDERCOUNT_SOURCE_URL", "https://example.com/cases.csv")
	t.Setenv("UNDERCOUNT_INPUT_PATH", "testdata/cases.csv")
	t.Setenv("UNDERCOUNT_CACHE_DIR", "/tmp/undercount-cache")
	t.Setenv("UNDERCOUNT_CACHE_TTL", "1h")
	t.Setenv("UNDERCOUNT_OUTPUT_PATH", "results.csv")
	t.Setenv("UNDERCOUNT_SMOOTHING_WINDOW", "14")
	t.Setenv("UNDERCOUNT_PEAK_CUTOFF", "2020-08-15")
	t.Setenv("UNDERCOUNT_RECENT_CUTOFF", "2021-01-01")
	t.Setenv("UNDERCOUNT_RECENT_SPAN", "3")
	t.Setenv("UNDERCOUNT_WORKERS", "4")
	t.Setenv("UNDERCOUNT_ADMIN_ENABLED", "false")
	t.Setenv("UNDERCOUNT_HTTP_ADDR", ":9090")
	t.Setenv("UNDERCOUNT_LOG_LEVEL", "debug")
	t.Setenv("UNDERCOUNT_LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/cases.csv", cfg.SourceURL)
	assert.Equal(t, "testdata/cases.csv", cfg.InputPath)
	assert.Equal(t, "/tmp/undercount-cache", cfg.CacheDir)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, "results.csv", cfg.OutputPath)
	assert.Equal(t, 14, cfg.SmoothingWindow)
	assert.Equal(t, "2020-08-15", cfg.PeakCutoff.Format(domain.DateLayout))
	assert.Equal(t, "2021-01-01", cfg.RecentCutoff.Format(domain.DateLayout))
	assert.Equal(t, 3, cfg.RecentSpan)
	assert.Equal(t, 4, cfg.Workers)
	assert.False(t, cfg.AdminEnabled)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Setenv("UNDERCOUNT_LOG_LEVEL", "verbose")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LogLevel")
}

func TestLoad_InvalidSmoothingWindow(t *testing.T) {
	t.Setenv("UNDERCOUNT_SMOOTHING_WINDOW", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SmoothingWindow")
}

func TestLoad_InvalidWorkers(t *testing.T) {
	t.Setenv("UNDERCOUNT_WORKERS", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Workers")
}

func TestLoad_UnparseableCutoff(t *testing.T) {
	t.Setenv("UNDERCOUNT_PEAK_CUTOFF", "October 2020")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PEAK_CUTOFF")
}

func TestLoad_CutoffsOutOfOrder(t *testing.T) {
	t.Setenv("UNDERCOUNT_PEAK_CUTOFF", "2021-03-01")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be before")
}

func TestConfig_Windows(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	w := cfg.Windows()
	assert.Equal(t, domain.DefaultPeakCutoff, w.PeakBefore)
	assert.Equal(t, domain.DefaultPeakCutoff, w.RecentAfter)
	assert.Equal(t, domain.DefaultRecentCutoff, w.RecentBefore)
	assert.Equal(t, domain.DefaultRecentSpan, w.RecentSpan)
}
