package table

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/salvir1/covid-undercount/internal/domain"
)

// Result file schema: three region columns, then one ratio column per
// variant. The prefix keeps variant names recoverable on reload.
var resultRegionColumns = []string{"region_key", "region_name", "region_group"}

const ratioColumnPrefix = "ratio_"

// WriteResults writes the result table as CSV at path, creating parent
// directories as needed. Ratios are formatted with the shortest decimal
// representation that survives a round trip through ParseFloat.
func WriteResults(path string, table domain.ResultTable) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results file: %w", err)
	}

	w := csv.NewWriter(f)

	header := make([]string, 0, len(resultRegionColumns)+len(table.Variants))
	header = append(header, resultRegionColumns...)
	for _, v := range table.Variants {
		header = append(header, ratioColumnPrefix+v)
	}
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("write results header: %w", err)
	}

	record := make([]string, 0, len(header))
	for _, row := range table.Rows {
		record = record[:0]
		record = append(record, row.Region.Key, row.Region.Name, row.Region.Group)
		for _, v := range row.Ratios {
			record = append(record, strconv.FormatFloat(v, 'f', -1, 64))
		}
		if err := w.Write(record); err != nil {
			f.Close()
			return fmt.Errorf("write results row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush results: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close results file: %w", err)
	}
	return nil
}

// ReadResults loads a previously written result table. Definedness is not
// part of the persisted schema, so Defined stays nil on every row.
func ReadResults(path string) (domain.ResultTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.ResultTable{}, fmt.Errorf("open results file: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)

	header, err := cr.Read()
	if err != nil {
		return domain.ResultTable{}, fmt.Errorf("read results header: %w", err)
	}
	if len(header) < len(resultRegionColumns) {
		return domain.ResultTable{}, fmt.Errorf("results header too short: %v", header)
	}
	for i, want := range resultRegionColumns {
		if header[i] != want {
			return domain.ResultTable{}, fmt.Errorf("results header column %d is %q, want %q", i, header[i], want)
		}
	}

	variants := make([]string, 0, len(header)-len(resultRegionColumns))
	for _, h := range header[len(resultRegionColumns):] {
		name, ok := strings.CutPrefix(h, ratioColumnPrefix)
		if !ok || name == "" {
			return domain.ResultTable{}, fmt.Errorf("unexpected ratio column %q", h)
		}
		variants = append(variants, name)
	}

	var rows []domain.ResultRow
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.ResultTable{}, fmt.Errorf("read results row: %w", err)
		}

		row := domain.ResultRow{
			Region: domain.Region{Key: record[0], Name: record[1], Group: record[2]},
			Ratios: make([]float64, len(variants)),
		}
		for i := range variants {
			v, err := strconv.ParseFloat(record[len(resultRegionColumns)+i], 64)
			if err != nil {
				return domain.ResultTable{}, fmt.Errorf("line %d: parse ratio %q: %w", line, variants[i], err)
			}
			row.Ratios[i] = v
		}
		rows = append(rows, row)
	}

	return domain.ResultTable{Variants: variants, Rows: rows}, nil
}

// FileSink persists result tables to a local CSV file, satisfying the
// pipeline's loader contract.
type FileSink struct {
	path   string
	logger *slog.Logger
}

// NewFileSink creates a loader that writes result tables to path.
func NewFileSink(path string, logger *slog.Logger) *FileSink {
	return &FileSink{path: path, logger: logger}
}

func (s *FileSink) Load(_ context.Context, table domain.ResultTable) error {
	if err := WriteResults(s.path, table); err != nil {
		return err
	}
	s.logger.Info("result table written",
		"path", s.path,
		"regions", len(table.Rows),
		"variants", len(table.Variants),
	)
	return nil
}
