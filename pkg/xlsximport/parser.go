package xlsximport

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"farmer-admin/pkg/csvimport"
)

// DataSheet is the sheet read on upload and written first in templates.
const DataSheet = "Inventory Data"

var ErrNoSheets = errors.New("workbook has no sheets")

// Parse reads the data sheet of an .xlsx workbook into the same rows
// csvimport produces. The sheet named DataSheet wins; otherwise the first
// sheet is used. Headers are matched case-insensitively and blank rows skipped.
func Parse(r io.Reader, required ...string) ([]csvimport.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}
	sheet := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, DataSheet) {
			sheet = name
			break
		}
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(records) == 0 {
		return nil, csvimport.ErrMissingHeader
	}

	headers := make([]string, len(records[0]))
	present := make(map[string]bool, len(headers))
	for i, h := range records[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
		present[headers[i]] = true
	}
	var missing []string
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &csvimport.MissingColumnsError{Columns: missing}
	}

	var rows []csvimport.Row
	for i, record := range records[1:] {
		// Sheet rows are 1-based and the header sits on row 1.
		row := csvimport.Row{LineNumber: i + 2, Data: make(map[string]string, len(headers))}
		for j, h := range headers {
			if j < len(record) && h != "" {
				row.Data[h] = strings.TrimSpace(record[j])
			}
		}
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Sheet is one worksheet of a generated workbook.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

// WriteTemplate writes a workbook with one sheet per entry, in order.
// Cells that parse as numbers are stored as numbers.
func WriteTemplate(w io.Writer, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return ErrNoSheets
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.Name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return err
		}

		if err := writeRow(f, sheet.Name, 1, sheet.Header); err != nil {
			return err
		}
		for j, row := range sheet.Rows {
			if err := writeRow(f, sheet.Name, j+2, row); err != nil {
				return err
			}
		}
	}

	_, err := f.WriteTo(w)
	return err
}

func writeRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			cells[i] = n
			continue
		}
		cells[i] = v
	}
	return f.SetSheetRow(sheet, cell, &cells)
}
