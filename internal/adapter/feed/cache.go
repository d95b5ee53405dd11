package feed

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/klauspost/compress/gzip"

	"github.com/salvir1/covid-undercount/internal/observability"
)

// DiskCache wraps a Fetcher with a gzip-compressed on-disk cache keyed by
// the feed URL. A copy younger than the TTL is served without a network
// round trip; when a refresh fails and a stale copy exists, the stale copy
// is served so a batch run can still complete.
type DiskCache struct {
	inner   Fetcher
	dir     string
	key     string
	ttl     time.Duration
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewDiskCache creates a cache decorator around a fetcher. Pass a nil clock
// to use the wall clock; tests inject a fake.
func NewDiskCache(inner Fetcher, dir, key string, ttl time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *DiskCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &DiskCache{
		inner:   inner,
		dir:     dir,
		key:     key,
		ttl:     ttl,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

func (c *DiskCache) FetchRaw(ctx context.Context) ([]byte, error) {
	path := c.path()

	if data, ok := c.readFresh(path); ok {
		c.metrics.FeedCacheHits.Inc()
		c.logger.Info("case feed served from cache", "path", path, "bytes", len(data))
		return data, nil
	}
	c.metrics.FeedCacheMisses.Inc()

	data, err := c.inner.FetchRaw(ctx)
	if err != nil {
		// A stale copy beats no data for a batch run.
		if stale, ok := c.read(path); ok {
			c.logger.Warn("feed refresh failed, serving stale cache",
				"error", err, "path", path, "bytes", len(stale))
			return stale, nil
		}
		return nil, err
	}

	if err := c.write(path, data); err != nil {
		c.logger.Warn("cache write failed", "error", err, "path", path)
	}
	return data, nil
}

func (c *DiskCache) path() string {
	return filepath.Join(c.dir, fmt.Sprintf("%x.csv.gz", sha256.Sum256([]byte(c.key))))
}

// readFresh returns the cached bytes when the file is younger than the TTL.
// A zero TTL disables freshness entirely, so every run refetches.
func (c *DiskCache) readFresh(path string) ([]byte, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if c.clock.Now().Sub(info.ModTime()) > c.ttl {
		return nil, false
	}
	return c.read(path)
}

// read loads and decompresses the cache file. Any failure, including a
// truncated gzip stream from an interrupted write, reads as a miss.
func (c *DiskCache) read(path string) ([]byte, bool) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, false
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *DiskCache) write(path string, data []byte) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create cache file: %w", err)
	}

	zw := gzip.NewWriter(f)
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		f.Close()
		return fmt.Errorf("write cache: %w", err)
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("flush cache: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close cache file: %w", err)
	}
	return nil
}
