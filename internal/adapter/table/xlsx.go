package table

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/salvir1/covid-undercount/internal/domain"
)

// ReadCasesXLSX loads raw case rows from the first worksheet of an Excel
// workbook. The first row must be a header in the same schema DecodeCases
// accepts; cell values are read as displayed strings.
func ReadCasesXLSX(path string) ([]domain.RawRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("workbook %s: sheet %q has no header row", path, sheet)
	}

	cols, err := resolveColumns(rows[0])
	if err != nil {
		return nil, err
	}

	records := make([]domain.RawRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		record, err := recordFromRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("sheet %q row %d: %w", sheet, i+2, err)
		}
		records = append(records, record)
	}
	return records, nil
}
