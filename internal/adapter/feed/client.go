// Package feed acquires the upstream cumulative case feed over HTTP, with
// an optional gzip-compressed on-disk cache between runs.
package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/salvir1/covid-undercount/internal/observability"
)

// Fetcher returns the raw bytes of the upstream case feed.
type Fetcher interface {
	FetchRaw(ctx context.Context) ([]byte, error)
}

// Client fetches the case feed from a fixed URL.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a feed client for the given URL.
func NewClient(url string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// FetchRaw downloads the feed body.
func (c *Client) FetchRaw(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.FeedFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch case feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.FeedFetches.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("case feed error: status %d: %s", resp.StatusCode, body)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.FeedFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("read case feed: %w", err)
	}

	c.metrics.FeedFetches.WithLabelValues("success").Inc()
	c.logger.Info("case feed fetched",
		"url", c.url,
		"bytes", len(data),
		"duration", time.Since(start),
	)
	return data, nil
}
