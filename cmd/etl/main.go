package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/salvir1/covid-undercount/internal/adapter/feed"
	httpadapter "github.com/salvir1/covid-undercount/internal/adapter/http"
	"github.com/salvir1/covid-undercount/internal/adapter/table"
	"github.com/salvir1/covid-undercount/internal/config"
	"github.com/salvir1/covid-undercount/internal/observability"
	"github.com/salvir1/covid-undercount/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		slog.Error("etl failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	variants, err := cfg.Variants()
	if err != nil {
		return fmt.Errorf("load variants: %w", err)
	}

	// Pick the extractor: a local file when INPUT_PATH is set, otherwise the
	// upstream feed through the on-disk cache.
	var extractor pipeline.Extractor
	if cfg.InputPath != "" {
		extractor = table.NewFileSource(cfg.InputPath, logger)
		logger.Info("reading cases from file", "path", cfg.InputPath)
	} else {
		var fetcher feed.Fetcher = feed.NewClient(cfg.SourceURL, cfg.HTTPTimeout, logger, metrics)
		if cfg.CacheDir != "" {
			fetcher = feed.NewDiskCache(fetcher, cfg.CacheDir, cfg.SourceURL, cfg.CacheTTL, nil, logger, metrics)
		}
		extractor = feed.NewSource(fetcher, logger)
		logger.Info("reading cases from feed",
			"url", cfg.SourceURL, "cache_dir", cfg.CacheDir, "cache_ttl", cfg.CacheTTL)
	}

	sink := table.NewFileSink(cfg.OutputPath, logger)

	p := pipeline.New(extractor, sink, pipeline.Options{
		Variants:        variants,
		Windows:         cfg.Windows(),
		SmoothingWindow: cfg.SmoothingWindow,
		Workers:         cfg.Workers,
	}, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The admin server brackets the batch run so readiness, run status, and
	// metrics stay scrapeable while the pipeline works.
	var srv *httpadapter.Server
	if cfg.AdminEnabled {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("admin server error", "error", err)
			}
		}()
	}

	runErr := p.Run(ctx)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("admin server shutdown error", "error", err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("pipeline run: %w", runErr)
	}
	logger.Info("etl complete", "output", cfg.OutputPath)
	return nil
}
