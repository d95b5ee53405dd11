package feed_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salvir1/covid-undercount/internal/adapter/feed"
	"github.com/salvir1/covid-undercount/internal/observability"
)

type stubFetcher struct {
	data  []byte
	err   error
	calls int
}

func (s *stubFetcher) FetchRaw(context.Context) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}

const cacheTTL = time.Hour

func newTestCache(t *testing.T, inner feed.Fetcher, clock clockwork.Clock) (*feed.DiskCache, string) {
	t.Helper()
	dir := t.TempDir()
	cache := feed.NewDiskCache(inner, dir, "https://example.com/us-counties.csv",
		cacheTTL, clock, discardLogger(), observability.NewMetricsForTesting())
	return cache, dir
}

func cacheFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv.gz"))
	require.NoError(t, err)
	return matches
}

func TestDiskCache_MissThenHit(t *testing.T) {
	fetcher := &stubFetcher{data: []byte("fips,date,cases\n53061,2020-03-01,1\n")}
	cache, dir := newTestCache(t, fetcher, clockwork.NewFakeClockAt(time.Now()))

	first, err := cache.FetchRaw(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fetcher.data, first)
	assert.Equal(t, 1, fetcher.calls)
	assert.Len(t, cacheFiles(t, dir), 1)

	second, err := cache.FetchRaw(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fetcher.data, second)
	assert.Equal(t, 1, fetcher.calls, "fresh copy must not trigger a network fetch")
}

func TestDiskCache_ExpiredCopyRefetches(t *testing.T) {
	fetcher := &stubFetcher{data: []byte("v1")}
	clock := clockwork.NewFakeClockAt(time.Now())
	cache, _ := newTestCache(t, fetcher, clock)

	_, err := cache.FetchRaw(context.Background())
	require.NoError(t, err)

	clock.Advance(cacheTTL + time.Minute)
	fetcher.data = []byte("v2")

	data, err := cache.FetchRaw(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)
	assert.Equal(t, 2, fetcher.calls)
}

func TestDiskCache_StaleFallbackOnRefreshFailure(t *testing.T) {
	fetcher := &stubFetcher{data: []byte("v1")}
	clock := clockwork.NewFakeClockAt(time.Now())
	cache, _ := newTestCache(t, fetcher, clock)

	_, err := cache.FetchRaw(context.Background())
	require.NoError(t, err)

	clock.Advance(cacheTTL + time.Minute)
	fetcher.err = errors.New("feed unreachable")

	data, err := cache.FetchRaw(context.Background())
	require.NoError(t, err, "stale copy must be served when refresh fails")
	assert.Equal(t, []byte("v1"), data)
	assert.Equal(t, 2, fetcher.calls)
}

func TestDiskCache_ErrorWithoutCachedCopy(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("feed unreachable")}
	cache, _ := newTestCache(t, fetcher, clockwork.NewFakeClockAt(time.Now()))

	_, err := cache.FetchRaw(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed unreachable")
}

func TestDiskCache_CorruptCopyRefetches(t *testing.T) {
	fetcher := &stubFetcher{data: []byte("v1")}
	cache, dir := newTestCache(t, fetcher, clockwork.NewFakeClockAt(time.Now()))

	_, err := cache.FetchRaw(context.Background())
	require.NoError(t, err)

	files := cacheFiles(t, dir)
	require.Len(t, files, 1)
	require.NoError(t, os.WriteFile(files[0], []byte("not gzip"), 0o600))

	data, err := cache.FetchRaw(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), data)
	assert.Equal(t, 2, fetcher.calls, "corrupt cache file must read as a miss")
}

func TestDiskCache_DistinctKeysDistinctFiles(t *testing.T) {
	dir := t.TempDir()
	clock := clockwork.NewFakeClockAt(time.Now())
	metrics := observability.NewMetricsForTesting()

	a := feed.NewDiskCache(&stubFetcher{data: []byte("a")}, dir, "https://example.com/a.csv",
		cacheTTL, clock, discardLogger(), metrics)
	b := feed.NewDiskCache(&stubFetcher{data: []byte("b")}, dir, "https://example.com/b.csv",
		cacheTTL, clock, discardLogger(), metrics)

	_, err := a.FetchRaw(context.Background())
	require.NoError(t, err)
	_, err = b.FetchRaw(context.Background())
	require.NoError(t, err)

	assert.Len(t, cacheFiles(t, dir), 2)
}
