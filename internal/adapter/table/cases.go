// Package table reads and writes the pipeline's tabular file formats: raw
// cumulative case files (CSV or XLSX) and the persisted ratio result table.
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
	"strings"

	"github.com/salvir1/covid-undercount/internal/domain"
)

// caseColumns maps the schema onto column positions in a case file header.
// Optional columns stay -1 when absent.
type caseColumns struct {
	key   int
	name  int
	group int
	date  int
	cases int
}

// resolveColumns locates the case schema in a header row. Canonical names
// and the upstream NYT county export names are both accepted; columns
// surplus to the schema are ignored.
func resolveColumns(header []string) (caseColumns, error) {
	cols := caseColumns{key: -1, name: -1, group: -1, date: -1, cases: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "region_key", "fips":
			if cols.key == -1 {
				cols.key = i
			}
		case "region_name", "county":
			if cols.name == -1 {
				cols.name = i
			}
		case "region_group", "state":
			if cols.group == -1 {
				cols.group = i
			}
		case "date":
			if cols.date == -1 {
				cols.date = i
			}
		case "cumulative_count", "cases":
			if cols.cases == -1 {
				cols.cases = i
			}
		}
	}
	switch {
	case cols.key == -1:
		return cols, errors.New(`case header missing region key column ("region_key" or "fips")`)
	case cols.date == -1:
		return cols, errors.New(`case header missing date column ("date")`)
	case cols.cases == -1:
		return cols, errors.New(`case header missing count column ("cumulative_count" or "cases")`)
	}
	return cols, nil
}

// DecodeCases reads raw case rows from CSV. The first row must be a header
// naming at least the region key, date, and cumulative count columns.
func DecodeCases(r io.Reader) ([]domain.RawRecord, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read case header: %w", err)
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var rows []domain.RawRecord
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read case row: %w", err)
		}
		row, err := recordFromRow(record, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// recordFromRow maps one data row onto a RawRecord. Rows truncated before a
// required column are rejected; absent optional cells read as empty.
func recordFromRow(record []string, cols caseColumns) (domain.RawRecord, error) {
	for _, i := range []int{cols.key, cols.date, cols.cases} {
		if i >= len(record) {
			return domain.RawRecord{}, fmt.Errorf("truncated row (%d cells): %w", len(record), domain.ErrMalformedRow)
		}
	}
	return domain.RawRecord{
		RegionKey:   strings.TrimSpace(record[cols.key]),
		RegionName:  cell(record, cols.name),
		RegionGroup: cell(record, cols.group),
		Date:        strings.TrimSpace(record[cols.date]),
		Cumulative:  strings.TrimSpace(record[cols.cases]),
	}, nil
}

func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// ReadCasesFile loads raw case rows from a local file, picking the codec by
// extension: .xlsx goes through the workbook reader, everything else is CSV.
func ReadCasesFile(path string) ([]domain.RawRecord, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadCasesXLSX(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open case file: %w", err)
	}
	defer f.Close()

	rows, err := DecodeCases(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return rows, nil
}

// FileSource reads case rows from a local file, satisfying the pipeline's
// extractor contract for offline runs.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource creates an extractor over a local case file.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	return &FileSource{path: path, logger: logger}
}

func (s *FileSource) Extract(_ context.Context) ([]domain.RawRecord, error) {
	rows, err := ReadCasesFile(s.path)
	if err != nil {
		return nil, err
	}
	s.logger.Info("case rows read from file", "path", s.path, "rows", len(rows))
	return rows, nil
}
