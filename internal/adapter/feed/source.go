package feed

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/salvir1/covid-undercount/internal/adapter/table"
	"github.com/salvir1/covid-undercount/internal/domain"
)

// Source adapts a Fetcher into the pipeline's extractor contract: fetched
// bytes are decoded with the table codec.
type Source struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// NewSource creates an extractor over a feed fetcher.
func NewSource(fetcher Fetcher, logger *slog.Logger) *Source {
	return &Source{fetcher: fetcher, logger: logger}
}

func (s *Source) Extract(ctx context.Context) ([]domain.RawRecord, error) {
	data, err := s.fetcher.FetchRaw(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := table.DecodeCases(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode case feed: %w", err)
	}
	s.logger.Info("case feed decoded", "rows", len(rows))
	return rows, nil
}
